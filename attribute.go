package hyperfs

// Privilege selects which permission group of an attribute is addressed.
type Privilege uint8

const (
	User  Privilege = 0
	Owner Privilege = 1
)

// The permission masks address the user group and are shifted by 3 bits per privilege level.
const (
	attrLongName byte = 0b10000000
	attrRead     byte = 0b01000000
	attrWrite    byte = 0b00100000
	attrExecute  byte = 0b00010000
	attrHidden   byte = 0b00000001

	volAttrHidden  byte = 0b00000100
	volAttrVersion byte = 0b00000011
)

func permission(mask byte, p Privilege) byte {
	return mask >> (3 * p)
}

func setBit(v, mask byte, on bool) byte {
	if on {
		return v | mask
	}
	return v &^ mask
}

// Attribute is the attribute byte of an Entry:
//  LONG NAME | USER R | USER W | USER X | OWNER R | OWNER W | OWNER X | HIDDEN
type Attribute uint8

// AttributeFor builds an Attribute from the given permission bits.
// Each permission string is evaluated like a unix mode, e.g. "rw-".
func AttributeFor(user, owner string, hidden bool) Attribute {
	var a Attribute
	for _, g := range []struct {
		p    Privilege
		mode string
	}{{User, user}, {Owner, owner}} {
		for i, mask := range []byte{attrRead, attrWrite, attrExecute} {
			if i < len(g.mode) && g.mode[i] != '-' {
				a = Attribute(setBit(byte(a), permission(mask, g.p), true))
			}
		}
	}
	return a.WithHidden(hidden)
}

func (a Attribute) CanRead(p Privilege) bool {
	return byte(a)&permission(attrRead, p) != 0
}

func (a Attribute) CanWrite(p Privilege) bool {
	return byte(a)&permission(attrWrite, p) != 0
}

func (a Attribute) CanExecute(p Privilege) bool {
	return byte(a)&permission(attrExecute, p) != 0
}

func (a Attribute) Hidden() bool {
	return byte(a)&attrHidden != 0
}

func (a Attribute) LongName() bool {
	return byte(a)&attrLongName != 0
}

func (a Attribute) WithRead(p Privilege, on bool) Attribute {
	return Attribute(setBit(byte(a), permission(attrRead, p), on))
}

func (a Attribute) WithWrite(p Privilege, on bool) Attribute {
	return Attribute(setBit(byte(a), permission(attrWrite, p), on))
}

func (a Attribute) WithExecute(p Privilege, on bool) Attribute {
	return Attribute(setBit(byte(a), permission(attrExecute, p), on))
}

func (a Attribute) WithHidden(on bool) Attribute {
	return Attribute(setBit(byte(a), attrHidden, on))
}

func (a Attribute) WithLongName(on bool) Attribute {
	return Attribute(setBit(byte(a), attrLongName, on))
}

// VolumeAttribute is the attribute byte of the Header:
//  LONG NAME | USER R | USER W | - | OWNER R | OWNER W | VERSION (2 bits)
//
// The hidden flag is stored in bit 2 which it shares with the owner write permission.
type VolumeAttribute uint8

func (a VolumeAttribute) CanRead(p Privilege) bool {
	return byte(a)&permission(attrRead, p) != 0
}

func (a VolumeAttribute) CanWrite(p Privilege) bool {
	return byte(a)&permission(attrWrite, p) != 0
}

func (a VolumeAttribute) Hidden() bool {
	return byte(a)&volAttrHidden != 0
}

func (a VolumeAttribute) LongName() bool {
	return byte(a)&attrLongName != 0
}

func (a VolumeAttribute) Version() uint8 {
	return byte(a) & volAttrVersion
}

func (a VolumeAttribute) WithRead(p Privilege, on bool) VolumeAttribute {
	return VolumeAttribute(setBit(byte(a), permission(attrRead, p), on))
}

func (a VolumeAttribute) WithWrite(p Privilege, on bool) VolumeAttribute {
	return VolumeAttribute(setBit(byte(a), permission(attrWrite, p), on))
}

func (a VolumeAttribute) WithHidden(on bool) VolumeAttribute {
	return VolumeAttribute(setBit(byte(a), volAttrHidden, on))
}

func (a VolumeAttribute) WithLongName(on bool) VolumeAttribute {
	return VolumeAttribute(setBit(byte(a), attrLongName, on))
}
