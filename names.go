package hyperfs

import (
	"bytes"

	"golang.org/x/text/unicode/norm"
)

// normalize brings names into NFC so that visually equal names also compare equal byte-wise.
func normalize(name string) string {
	return norm.NFC.String(name)
}

// packName returns the normalized name as a fixed size field.
// A name which uses the whole field is not zero-terminated.
func packName(name string, size int, field string) ([]byte, error) {
	name = normalize(name)
	if len(name) > size || bytes.IndexByte([]byte(name), 0) >= 0 {
		return nil, newError(KindInvalidArgument, field, name)
	}

	packed := make([]byte, size)
	copy(packed, name)
	return packed, nil
}

func entryName(name, extension string) ([12]byte, [4]byte, error) {
	var (
		n [12]byte
		x [4]byte
	)

	packed, err := packName(name, len(n), "name")
	if err != nil {
		return n, x, err
	}
	copy(n[:], packed)

	packed, err = packName(extension, len(x), "extension")
	if err != nil {
		return n, x, err
	}
	copy(x[:], packed)

	return n, x, nil
}

// trimName returns the content of a zero-terminated fixed size field.
func trimName(field []byte) string {
	if i := bytes.IndexByte(field, 0); i >= 0 {
		field = field[:i]
	}
	return string(field)
}

// FileName returns the name of the entry followed by its extension, e.g. "README.md".
func (e Entry) FileName() string {
	name := trimName(e.Name[:])
	if ext := trimName(e.Extension[:]); ext != "" {
		name += "." + ext
	}
	return name
}
