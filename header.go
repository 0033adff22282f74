package hyperfs

import (
	"github.com/aligator/hyperfs/checkpoint"
	"github.com/sirupsen/logrus"
)

// Boot signatures accepted by FormatConfig.
var (
	BootSignatureBootable    = [2]byte{0x55, 0xAA}
	BootSignatureNotBootable = [2]byte{0xFF, 0xFF}
)

// Validate checks the header in the same order the driver does when opening a volume
// and returns the first failing check.
func (h Header) Validate() error {
	// Check for the boot signature first, a zeroed cluster is no volume at all.
	if h.BootSignature[0] == 0 || h.BootSignature[1] == 0 {
		return newError(KindZeroBootSignature, "boot_signature", h.BootSignature)
	}

	if !h.isMSB() && !h.isLSB() {
		return newError(KindInvalidDirection, "direction", h.Direction)
	}

	if h.ClusterSize == 0 || h.ClusterSize%ClusterMultiplier != 0 {
		return newError(KindInvalidClusterInfo, "cluster_size", h.ClusterSize)
	}
	if h.ClustersAvailable != 0 && h.NextFreeCluster != 0 && h.NextFreeCluster+h.ClustersAvailable != h.Clusters {
		return newError(KindInvalidClusterInfo, "clusters", h.Clusters)
	}

	if h.Attribute.Version() != 0 {
		return newError(KindUnsupportedVersion, "version", h.Attribute.Version())
	}

	if h.Reserved != reservedVersion0 {
		return newError(KindNonFFReservedSegment, "reserved", h.Reserved)
	}

	return nil
}

func (h Header) isMSB() bool {
	return h.Direction == [2]byte{directionMSB0, directionMSB1}
}

func (h Header) isLSB() bool {
	return h.Direction == [2]byte{directionLSB0, directionLSB1}
}

// NoRead reports whether the signature marks the volume as not readable, e.g. a boot-only volume.
// The signature encoding which applies is selected by the direction bytes.
func (h Header) NoRead() bool {
	switch {
	case h.isMSB():
		return h.Signature == SignatureNoRead
	case h.isLSB():
		return h.Signature == SignatureNoReadLSB
	}
	return false
}

// Bootable reports whether the boot signature is 0x55 0xAA.
func (h Header) Bootable() bool {
	return h.BootSignature == BootSignatureBootable
}

// Size is the size of the whole volume in bytes.
func (h Header) Size() uint64 {
	return h.ClusterSize * h.Clusters
}

// VolumeName returns the short name of the volume.
func (h Header) VolumeName() string {
	return trimName(h.Name[:])
}

// LongName returns the long volume name stored in the padding or "" if none is in use.
func (h Header) LongName() string {
	if !h.Attribute.LongName() {
		return ""
	}
	n := int(h.Padding[0])
	return string(h.Padding[1 : 1+n])
}

func (h *Header) setLongName(name string) error {
	name = normalize(name)
	if len(name) > 0xFF || len(name) >= HeaderPaddingSize {
		return newError(KindInvalidArgument, "long_name", name)
	}

	h.Padding = [HeaderPaddingSize]byte{}
	if name == "" {
		h.Attribute = h.Attribute.WithLongName(false)
		return nil
	}

	h.Padding[0] = byte(len(name))
	copy(h.Padding[1:], name)
	h.Attribute = h.Attribute.WithLongName(true)
	return nil
}

// Parse reads the header from cluster 0 and validates it.
// The volume keeps its previous state if the header is invalid.
func (v *Volume) Parse() error {
	v.lock.Lock()
	defer v.lock.Unlock()

	return v.parse()
}

func (v *Volume) parse() error {
	var h Header
	if err := v.readStruct(0, &h); err != nil {
		return checkpoint.Wrap(err, ErrReadHeader)
	}

	if err := h.Validate(); err != nil {
		return checkpoint.From(err)
	}

	v.header = h
	v.entries = nil
	v.locks = lockTable{}

	v.log.WithFields(logrus.Fields{
		"name":      h.VolumeName(),
		"clusters":  h.Clusters,
		"available": h.ClustersAvailable,
		"no_read":   h.NoRead(),
		"bootable":  h.Bootable(),
	}).Debug("parsed volume header")
	return nil
}

// FormatConfig describes a new volume.
type FormatConfig struct {
	// ClusterSize in bytes, has to be a multiple of 4096. 0 defaults to 4096.
	ClusterSize uint64
	// Clusters is the total number of clusters including the header and the root directory.
	Clusters uint64
	// Signature may be SignatureNoReadLSB to mark the volume as not readable.
	Signature uint32
	// Name is the short name, at most 12 bytes.
	Name string
	// LongName is stored in the header padding if not empty.
	LongName  string
	Attribute VolumeAttribute
	OwnerID   uint8
	// BootSignature defaults to BootSignatureNotBootable.
	BootSignature [2]byte
}

func (cfg FormatConfig) header(today Date) (Header, error) {
	if cfg.ClusterSize == 0 {
		cfg.ClusterSize = ClusterMultiplier
	}
	if cfg.BootSignature == [2]byte{} {
		cfg.BootSignature = BootSignatureNotBootable
	}
	if cfg.Clusters < 2 {
		return Header{}, newError(KindInvalidClusterInfo, "clusters", cfg.Clusters)
	}

	name, err := packName(cfg.Name, 12, "name")
	if err != nil {
		return Header{}, err
	}

	h := Header{
		Signature:         cfg.Signature,
		Direction:         [2]byte{directionLSB0, directionLSB1},
		NextFreeCluster:   2,
		ClusterSize:       cfg.ClusterSize,
		ClustersAvailable: cfg.Clusters - 2,
		Attribute:         cfg.Attribute.WithLongName(false),
		CreationDate:      today,
		OwnerID:           cfg.OwnerID,
		Reserved:          reservedVersion0,
		Clusters:          cfg.Clusters,
		BootSignature:     cfg.BootSignature,
	}
	copy(h.Name[:], name)

	if err := h.setLongName(cfg.LongName); err != nil {
		return Header{}, err
	}

	return h, h.Validate()
}

// Format creates a new, empty volume on the storage.
// Every cluster gets zeroed, cluster 0 receives the header and cluster 1 the
// (empty) root directory chain.
func (v *Volume) Format(cfg FormatConfig) error {
	v.lock.Lock()
	defer v.lock.Unlock()

	h, err := cfg.header(PackDate(v.now()))
	if err != nil {
		return checkpoint.Wrap(err, ErrFormat)
	}

	if err := v.storage.Reset(); err != nil {
		return checkpoint.Wrap(err, ErrFormat)
	}

	zero := make([]byte, h.ClusterSize)
	for i := uint64(0); i < h.Clusters; i++ {
		if err := v.writeAt(zero, i*h.ClusterSize); err != nil {
			return checkpoint.Wrap(err, ErrFormat)
		}
	}

	v.header = h
	v.entries = nil
	v.locks = lockTable{}
	if err := v.writeHeader(); err != nil {
		return checkpoint.Wrap(err, ErrFormat)
	}

	v.log.WithFields(logrus.Fields{
		"name":         h.VolumeName(),
		"cluster_size": h.ClusterSize,
		"clusters":     h.Clusters,
	}).Debug("formatted volume")
	return nil
}

func (v *Volume) writeHeader() error {
	if err := v.writeStruct(headerCluster, &v.header); err != nil {
		return checkpoint.Wrap(err, ErrWriteHeader)
	}
	return nil
}
