// File model contains the structs which match the direct structures of the HyperFS format.

package hyperfs

const (
	// ClusterMultiplier is the unit every cluster size has to be a multiple of.
	ClusterMultiplier = 4096

	// HeaderSize is the packed size of Header on disk.
	HeaderSize = 513
	// HeaderPaddingSize is the size of the padding region which may hold a long volume name.
	HeaderPaddingSize = 456

	// EntrySize is the packed size of an Entry on disk.
	EntrySize = 40
	// ChainEntrySize is the packed size of a chainEntry on disk.
	ChainEntrySize = 24

	// TrailerSize is the size of the used-bytes count and next-cluster pointer at the end of every data cluster.
	TrailerSize = 10

	// headerCluster and rootCluster are always reserved.
	headerCluster = 0
	rootCluster   = 1
)

// Next-cluster sentinels. A real cluster can never be 0 or 1 as those are the
// header and the root directory chain.
const (
	// ClusterEnd marks the final cluster of a chain whose used-bytes count is valid.
	ClusterEnd uint64 = 0
	// ClusterEndNoUsedBytes marks the final cluster of a chain which is entirely used.
	ClusterEndNoUsedBytes uint64 = 1
)

const (
	// SignatureNoRead marks a volume which should not be read (e.g. a boot drive)
	// if the direction bytes are 0x55 0xAA. ASCII "NORD".
	SignatureNoRead uint32 = 0x4E4F5244
	// SignatureNoReadLSB is SignatureNoRead for the direction bytes 0xAA 0x55. ASCII "DRON".
	SignatureNoReadLSB uint32 = 0x44524F4E

	directionMSB0, directionMSB1 = 0x55, 0xAA
	directionLSB0, directionLSB1 = 0xAA, 0x55

	reservedVersion0 = 0xFF
)

// Entry markers. Only the low 7 bits identify the entry type.
const (
	markerFile      byte = 0x3F
	markerDirectory byte = 0x3E
	markerDeleted   byte = 0x80
	markerTypeMask  byte = 0x7F
)

// Header is the volume header stored at cluster 0.
type Header struct {
	Signature         uint32
	Direction         [2]byte
	NextFreeCluster   uint64
	ClusterSize       uint64
	ClustersAvailable uint64
	Name              [12]byte
	Attribute         VolumeAttribute
	CreationDate      Date
	OwnerID           uint8
	Reserved          uint8
	Clusters          uint64
	Padding           [HeaderPaddingSize]byte
	BootSignature     [2]byte
}

// Entry is a reserved file entry (RFE): one file or directory in a directory chain.
type Entry struct {
	Name             [12]byte
	Extension        [4]byte
	Attribute        Attribute
	Marker           byte
	ClusterCount     uint64
	CreationDate     Date
	ModificationDate Date
	OwnerID          uint8
	IsLast           uint8
	FirstCluster     uint64
}

// chainEntry follows the entry slots of every directory cluster and links to the next one.
type chainEntry struct {
	NextCluster uint64
	Reserved    [16]byte
}

// trailer is stored in the last TrailerSize bytes of every data cluster.
type trailer struct {
	UsedBytes   uint16
	NextCluster uint64
}

func (t trailer) isTerminal() bool {
	return t.NextCluster == ClusterEnd || t.NextCluster == ClusterEndNoUsedBytes
}

// IsValid reports whether the marker identifies a file or directory entry.
func (e Entry) IsValid() bool {
	m := e.Marker & markerTypeMask
	return m == markerFile || m == markerDirectory
}

// IsDeleted reports whether the entry has been retired.
func (e Entry) IsDeleted() bool {
	return e.Marker&markerDeleted != 0
}

// IsFile reports whether the entry is a live file.
func (e Entry) IsFile() bool {
	return e.IsValid() && !e.IsDeleted() && e.Marker&markerTypeMask == markerFile
}

// IsDir reports whether the entry is a live directory.
func (e Entry) IsDir() bool {
	return e.IsValid() && !e.IsDeleted() && e.Marker&markerTypeMask == markerDirectory
}

func (e Entry) matches(name [12]byte, extension [4]byte) bool {
	return e.Name == name && e.Extension == extension
}
