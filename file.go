package hyperfs

import (
	"math"
	"os"

	"github.com/aligator/hyperfs/checkpoint"
	"github.com/sirupsen/logrus"
)

func (v *Volume) trailerOffset(cluster uint64) uint64 {
	return v.clusterOffset(cluster+1) - TrailerSize
}

func (v *Volume) readTrailer(cluster uint64) (trailer, error) {
	var t trailer
	err := v.readStruct(v.trailerOffset(cluster), &t)
	return t, err
}

func (v *Volume) writeTrailer(cluster uint64, t trailer) error {
	return v.writeStruct(v.trailerOffset(cluster), &t)
}

// capacity is the number of payload bytes of a data cluster.
func (v *Volume) capacity() uint64 {
	return v.header.ClusterSize - TrailerSize
}

// file returns the live file entry the handle points to.
func (v *Volume) file(h Handle) (*Entry, error) {
	if h == 0 || h.index() >= uint64(len(v.entries)) || !v.entries[h.index()].IsFile() {
		return nil, newError(KindInvalidHandle, "handle", h)
	}
	return &v.entries[h.index()], nil
}

// longNameSize returns the size of the length-prefixed long name at the start of the first cluster.
func (v *Volume) longNameSize(e *Entry) (uint64, error) {
	var size [1]byte
	if err := v.readAt(size[:], v.clusterOffset(e.FirstCluster)); err != nil {
		return 0, err
	}
	return uint64(size[0]) + 1, nil
}

// locate validates an access of size bytes at position after depth hops and
// returns the position inside of the addressed cluster.
func (v *Volume) locate(e *Entry, size, position, depth uint64, extend bool) (uint64, error) {
	if depth > e.ClusterCount {
		return 0, newError(KindDepthTooLarge, "depth", depth)
	}

	capacity := v.capacity()
	if e.Attribute.LongName() && (depth > 0 || extend) {
		reserved, err := v.longNameSize(e)
		if err != nil {
			return 0, err
		}
		if position > capacity {
			return 0, newError(KindBufferTooLarge, "position", position)
		}
		position += reserved
	}

	// position + size must stay in front of the trailer, checked without overflow.
	if size > capacity || position > capacity-size {
		return 0, newError(KindBufferTooLarge, "size", size)
	}
	return position, nil
}

// hop follows the chain depth times starting at cluster.
func (v *Volume) hop(cluster, depth uint64) (uint64, error) {
	for i := uint64(0); i < depth; i++ {
		t, err := v.readTrailer(cluster)
		if err != nil {
			return 0, err
		}
		if t.isTerminal() || !v.isCluster(t.NextCluster) {
			return 0, newError(KindDepthTooLarge, "depth", i+1)
		}
		cluster = t.NextCluster
	}
	return cluster, nil
}

// extend appends a new cluster to the chain which contains cluster and returns it.
func (v *Volume) extend(e *Entry, cluster uint64) (uint64, error) {
	tail, t, err := v.tail(cluster)
	if err != nil {
		return 0, err
	}

	next, err := v.reserveCluster()
	if err != nil {
		return 0, err
	}
	if err := v.writeTrailer(next, trailer{NextCluster: ClusterEnd}); err != nil {
		return 0, err
	}

	// The tail keeps its size once it is linked.
	if t.NextCluster == ClusterEndNoUsedBytes {
		t.UsedBytes = saturate(v.capacity())
	}
	t.NextCluster = next
	if err := v.writeTrailer(tail, t); err != nil {
		return 0, err
	}
	e.ClusterCount++

	v.log.WithFields(logrus.Fields{
		"file":    e.FileName(),
		"cluster": next,
		"count":   e.ClusterCount,
	}).Debug("extended file chain")
	return next, nil
}

// tail walks to the last cluster of a chain.
func (v *Volume) tail(cluster uint64) (uint64, trailer, error) {
	for i := uint64(0); i < v.header.Clusters; i++ {
		t, err := v.readTrailer(cluster)
		if err != nil {
			return 0, t, err
		}
		if t.isTerminal() {
			return cluster, t, nil
		}
		if !v.isCluster(t.NextCluster) {
			return 0, t, newError(KindInvalidClusterInfo, "next_cluster", t.NextCluster)
		}
		cluster = t.NextCluster
	}
	return 0, trailer{}, newError(KindInvalidClusterInfo, "next_cluster", cluster)
}

// WriteCluster writes p into the file of the locked handle.
//
// The data is written at position inside of the cluster reached after depth
// hops along the file's cluster chain. If extend is set, a new cluster is
// appended to the end of the chain and written instead. The data has to fit
// into the cluster in front of its trailer.
func (v *Volume) WriteCluster(h Handle, p []byte, position, depth uint64, extend bool) error {
	v.lock.Lock()
	defer v.lock.Unlock()

	e, err := v.file(h)
	if err != nil {
		return err
	}

	size := uint64(len(p))
	position, err = v.locate(e, size, position, depth, extend)
	if err != nil {
		return checkpoint.From(err)
	}

	if !v.locks.has(h.index()) {
		return newError(KindFileNotLocked, "handle", h)
	}
	if extend && !v.hasFreeCluster() {
		return newError(KindOutOfSpace, "clusters_available", v.header.ClustersAvailable)
	}

	cluster, err := v.hop(e.FirstCluster, depth)
	if err != nil {
		return checkpoint.From(err)
	}

	if extend {
		cluster, err = v.extend(e, cluster)
		if err != nil {
			return checkpoint.Wrap(err, ErrWriteFile)
		}
	}

	if err := v.writeAt(p, v.clusterOffset(cluster)+position); err != nil {
		return checkpoint.Wrap(err, ErrWriteFile)
	}
	if err := v.markUsed(cluster, position+size); err != nil {
		return checkpoint.Wrap(err, ErrWriteFile)
	}

	e.ModificationDate = PackDate(v.now())
	return v.writeChain(rootCluster, v.entries)
}

// markUsed raises the used bytes of the cluster to end. A cluster which is
// (nearly) full is marked as entirely used if it is the last one, linked
// clusters keep their size. Links to a following cluster are never touched.
func (v *Volume) markUsed(cluster, end uint64) error {
	t, err := v.readTrailer(cluster)
	if err != nil {
		return err
	}
	if t.NextCluster == ClusterEndNoUsedBytes {
		return nil
	}

	if used := v.usedBytes(t); used > end {
		end = used
	}

	switch {
	case end < v.capacity() && end <= math.MaxUint16:
		t.UsedBytes = uint16(end)
	case t.NextCluster == ClusterEnd:
		t.NextCluster = ClusterEndNoUsedBytes
	default:
		t.UsedBytes = saturate(end)
	}
	return v.writeTrailer(cluster, t)
}

// usedBytes returns the number of payload bytes of a cluster.
// Linked clusters larger than the 16 bit count saturate at math.MaxUint16.
func (v *Volume) usedBytes(t trailer) uint64 {
	if t.NextCluster == ClusterEndNoUsedBytes {
		return v.capacity()
	}
	if !t.isTerminal() && t.UsedBytes == math.MaxUint16 && v.capacity() > math.MaxUint16 {
		return v.capacity()
	}
	return uint64(t.UsedBytes)
}

func saturate(n uint64) uint16 {
	if n > math.MaxUint16 {
		return math.MaxUint16
	}
	return uint16(n)
}

// ReadCluster reads len(p) bytes of the file of the handle, addressed the same way as in WriteCluster.
// On the last cluster len(p) may not exceed its used bytes, else ErrBufferTooLarge is returned.
func (v *Volume) ReadCluster(h Handle, p []byte, position, depth uint64) error {
	v.lock.Lock()
	defer v.lock.Unlock()

	e, err := v.file(h)
	if err != nil {
		return err
	}

	size := uint64(len(p))
	position, err = v.locate(e, size, position, depth, false)
	if err != nil {
		return checkpoint.From(err)
	}

	cluster, err := v.hop(e.FirstCluster, depth)
	if err != nil {
		return checkpoint.From(err)
	}

	t, err := v.readTrailer(cluster)
	if err != nil {
		return checkpoint.Wrap(err, ErrReadFile)
	}
	if t.NextCluster == ClusterEnd && size > uint64(t.UsedBytes) {
		return newError(KindBufferTooLarge, "size", size)
	}

	if err := v.readAt(p, v.clusterOffset(cluster)+position); err != nil {
		return checkpoint.Wrap(err, ErrReadFile)
	}
	return nil
}

// segment is the payload range of one data cluster.
type segment struct {
	cluster    uint64
	start, end uint64
}

// segments lists the used payload of every cluster of the file.
// Files using a long name reserve its size at the start of every cluster.
func (v *Volume) segments(e *Entry) ([]segment, error) {
	var reserved uint64
	if e.Attribute.LongName() {
		var err error
		if reserved, err = v.longNameSize(e); err != nil {
			return nil, err
		}
	}

	var result []segment
	cluster := e.FirstCluster
	for i := uint64(0); i < v.header.Clusters; i++ {
		if !v.isCluster(cluster) {
			return nil, newError(KindInvalidClusterInfo, "next_cluster", cluster)
		}

		t, err := v.readTrailer(cluster)
		if err != nil {
			return nil, err
		}

		end := v.usedBytes(t)
		if end > reserved {
			result = append(result, segment{cluster: cluster, start: reserved, end: end})
		}

		if t.isTerminal() {
			return result, nil
		}
		cluster = t.NextCluster
	}
	return nil, newError(KindInvalidClusterInfo, "next_cluster", cluster)
}

// ReadFile returns the payload of all clusters of the file of the handle.
func (v *Volume) ReadFile(h Handle) ([]byte, error) {
	v.lock.Lock()
	defer v.lock.Unlock()

	e, err := v.file(h)
	if err != nil {
		return nil, err
	}
	return v.readFile(e)
}

func (v *Volume) readFile(e *Entry) ([]byte, error) {
	segments, err := v.segments(e)
	if err != nil {
		return nil, checkpoint.Wrap(err, ErrReadFile)
	}

	var size uint64
	for _, s := range segments {
		size += s.end - s.start
	}

	data := make([]byte, 0, size)
	for _, s := range segments {
		buf := make([]byte, s.end-s.start)
		if err := v.readAt(buf, v.clusterOffset(s.cluster)+s.start); err != nil {
			return nil, checkpoint.Wrap(err, ErrReadFile)
		}
		data = append(data, buf...)
	}
	return data, nil
}

// Stat returns the file info of the file of the handle. The size is the sum of all payload bytes.
func (v *Volume) Stat(h Handle) (os.FileInfo, error) {
	v.lock.Lock()
	defer v.lock.Unlock()

	e, err := v.file(h)
	if err != nil {
		return nil, err
	}
	return v.stat(e)
}

func (v *Volume) stat(e *Entry) (os.FileInfo, error) {
	segments, err := v.segments(e)
	if err != nil {
		return nil, checkpoint.Wrap(err, ErrReadFile)
	}

	var size uint64
	for _, s := range segments {
		size += s.end - s.start
	}
	return e.FileInfo(int64(size)), nil
}
