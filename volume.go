package hyperfs

import (
	"bytes"
	"encoding/binary"
	"io"
	"sync"
	"time"

	"github.com/aligator/hyperfs/checkpoint"
	"github.com/sirupsen/logrus"
)

// Volume is a HyperFS volume on top of a Storage.
//
// All methods are serialized by an internal mutex. The on-disk structures are
// not protected against other Volume instances using the same storage.
type Volume struct {
	lock    sync.Mutex
	storage Storage
	log     logrus.FieldLogger
	now     func() time.Time

	legacyLockScan bool

	header Header
	// entries is the root directory chain as it was last read, including
	// directories and deleted entries. Handles index into it.
	entries []Entry
	locks   lockTable
}

// Option configures a Volume.
type Option func(v *Volume)

// WithLogger sets the logger used for debug output. By default nothing is logged.
func WithLogger(log logrus.FieldLogger) Option {
	return func(v *Volume) {
		v.log = log
	}
}

// WithClock replaces time.Now for the creation and modification dates.
func WithClock(now func() time.Time) Option {
	return func(v *Volume) {
		v.now = now
	}
}

// WithLegacyLockScan makes Lock use the legacy scan: the returned index counts
// all files which do not match instead of pointing at the first match.
func WithLegacyLockScan() Option {
	return func(v *Volume) {
		v.legacyLockScan = true
	}
}

// New creates a Volume for the storage without reading anything from it.
// Use Format to create a new volume or Parse to load an existing one.
func New(storage Storage, opts ...Option) (*Volume, error) {
	if storage == nil {
		return nil, ErrReadWriteUndefined
	}
	if c, ok := storage.(checker); ok {
		if err := c.check(); err != nil {
			return nil, err
		}
	}

	discard := logrus.New()
	discard.SetOutput(io.Discard)

	v := &Volume{
		storage: storage,
		log:     discard,
		now:     time.Now,
		locks:   lockTable{},
	}
	for _, opt := range opts {
		opt(v)
	}
	return v, nil
}

// Open creates a Volume for the storage and parses its header.
func Open(storage Storage, opts ...Option) (*Volume, error) {
	v, err := New(storage, opts...)
	if err != nil {
		return nil, err
	}
	if err := v.Parse(); err != nil {
		return nil, err
	}
	return v, nil
}

// Header returns a copy of the current volume header.
func (v *Volume) Header() Header {
	v.lock.Lock()
	defer v.lock.Unlock()

	return v.header
}

func (v *Volume) clusterOffset(cluster uint64) uint64 {
	return cluster * v.header.ClusterSize
}

// isCluster reports whether cluster may hold directory or file data.
func (v *Volume) isCluster(cluster uint64) bool {
	return cluster > headerCluster && cluster < v.header.Clusters
}

func (v *Volume) readAt(p []byte, off uint64) error {
	n, err := v.storage.ReadAt(p, int64(off))
	if n == len(p) {
		// io.ReaderAt may return io.EOF together with a full read at the end of the medium.
		return nil
	}
	if err == nil {
		err = io.ErrUnexpectedEOF
	}
	return checkpoint.From(err)
}

func (v *Volume) writeAt(p []byte, off uint64) error {
	n, err := v.storage.WriteAt(p, int64(off))
	if err != nil {
		return checkpoint.From(err)
	}
	if n != len(p) {
		return checkpoint.From(io.ErrShortWrite)
	}
	return nil
}

// readStruct reads the packed little endian representation of data at off.
func (v *Volume) readStruct(off uint64, data interface{}) error {
	buf := make([]byte, binary.Size(data))
	if err := v.readAt(buf, off); err != nil {
		return err
	}
	return checkpoint.From(binary.Read(bytes.NewReader(buf), binary.LittleEndian, data))
}

// writeStruct writes the packed little endian representation of data at off.
func (v *Volume) writeStruct(off uint64, data interface{}) error {
	var buf bytes.Buffer
	if err := writePacked(&buf, data); err != nil {
		return err
	}
	return v.writeAt(buf.Bytes(), off)
}

func writePacked(w io.Writer, data interface{}) error {
	return checkpoint.From(binary.Write(w, binary.LittleEndian, data))
}
