package hyperfs

import (
	"github.com/aligator/hyperfs/checkpoint"
	"github.com/sirupsen/logrus"
)

// entriesPerCluster is the number of entry slots of a directory cluster.
// The remaining space holds the chainEntry.
func (v *Volume) entriesPerCluster() uint64 {
	return (v.header.ClusterSize - ChainEntrySize) / EntrySize
}

func (v *Volume) slotOffset(cluster, slot uint64) uint64 {
	return v.clusterOffset(cluster) + slot*EntrySize
}

func (v *Volume) chainEntryOffset(cluster uint64) uint64 {
	return v.slotOffset(cluster, v.entriesPerCluster())
}

func (v *Volume) readChainEntry(cluster uint64) (chainEntry, error) {
	var link chainEntry
	if err := v.readStruct(v.chainEntryOffset(cluster), &link); err != nil {
		return link, checkpoint.Wrap(err, ErrReadChain)
	}
	return link, nil
}

// readChain reads every entry of the directory chain starting at the given cluster.
//
// An invalid first slot is an empty directory. After an entry flagged as last
// the chain continues only if the cluster links to another one, whose first
// slot may then be empty to terminate the chain.
func (v *Volume) readChain(start uint64) ([]Entry, error) {
	var (
		entries    []Entry
		afterLast  bool
		perCluster = v.entriesPerCluster()
		visited    = map[uint64]bool{}
	)

	cluster := start
	for {
		if !v.isCluster(cluster) || visited[cluster] {
			return nil, newError(KindMissingChainEnd, "cluster", cluster)
		}
		visited[cluster] = true

		last := false
		for slot := uint64(0); slot < perCluster && !last; slot++ {
			var e Entry
			if err := v.readStruct(v.slotOffset(cluster, slot), &e); err != nil {
				return nil, checkpoint.Wrap(err, ErrReadChain)
			}

			if !e.IsValid() {
				if len(entries) == 0 || (afterLast && slot == 0) {
					return entries, nil
				}
				return nil, newError(KindDirectoryCorrupt, "marker", e.Marker)
			}

			entries = append(entries, e)
			last = e.IsLast != 0
		}

		link, err := v.readChainEntry(cluster)
		if err != nil {
			return nil, err
		}

		if link.NextCluster <= ClusterEndNoUsedBytes {
			if last {
				return entries, nil
			}
			return nil, newError(KindMissingChainEnd, "cluster", cluster)
		}

		afterLast = last
		cluster = link.NextCluster
	}
}

// writeChain rewrites the whole directory chain starting at the given cluster.
// The last entry of every cluster gets flagged and the chain is extended
// with newly allocated clusters as needed.
func (v *Volume) writeChain(start uint64, entries []Entry) error {
	perCluster := v.entriesPerCluster()

	if len(entries) == 0 {
		return v.writeEmptySlot(start)
	}

	cluster, slot := start, uint64(0)
	for i := range entries {
		if slot == perCluster {
			next, err := v.nextChainCluster(cluster)
			if err != nil {
				return err
			}
			cluster, slot = next, 0
		}

		entries[i].IsLast = 0
		if i == len(entries)-1 || slot == perCluster-1 {
			entries[i].IsLast = 1
		}

		if err := v.writeStruct(v.slotOffset(cluster, slot), &entries[i]); err != nil {
			return checkpoint.Wrap(err, ErrWriteChain)
		}
		slot++
	}

	// A chain which already continues needs an empty entry in the next cluster to end.
	link, err := v.readChainEntry(cluster)
	if err != nil {
		return err
	}
	if link.NextCluster > ClusterEndNoUsedBytes {
		return v.writeEmptySlot(link.NextCluster)
	}
	return nil
}

func (v *Volume) writeEmptySlot(cluster uint64) error {
	if err := v.writeStruct(v.slotOffset(cluster, 0), &Entry{}); err != nil {
		return checkpoint.Wrap(err, ErrWriteChain)
	}
	return nil
}

// nextChainCluster follows the link of a full directory cluster and allocates
// a new cluster if there is none yet.
func (v *Volume) nextChainCluster(cluster uint64) (uint64, error) {
	link, err := v.readChainEntry(cluster)
	if err != nil {
		return 0, err
	}
	if link.NextCluster > ClusterEndNoUsedBytes {
		return link.NextCluster, nil
	}

	next, err := v.reserveCluster()
	if err != nil {
		return 0, err
	}
	if err := v.writeEmptySlot(next); err != nil {
		return 0, err
	}

	link.NextCluster = next
	if err := v.writeStruct(v.chainEntryOffset(cluster), &link); err != nil {
		return 0, checkpoint.Wrap(err, ErrWriteChain)
	}

	v.log.WithFields(logrus.Fields{
		"cluster": cluster,
		"next":    next,
	}).Debug("extended directory chain")
	return next, nil
}

// ReadChain reloads the root directory and returns all live files in chain order.
func (v *Volume) ReadChain() ([]Entry, error) {
	v.lock.Lock()
	defer v.lock.Unlock()

	if err := v.loadRoot(); err != nil {
		return nil, err
	}
	return filterEntries(v.entries, Entry.IsFile), nil
}

// WriteChain writes the in-memory root directory back to the storage.
func (v *Volume) WriteChain() error {
	v.lock.Lock()
	defer v.lock.Unlock()

	return v.writeChain(rootCluster, v.entries)
}

func (v *Volume) loadRoot() error {
	entries, err := v.readChain(rootCluster)
	if err != nil {
		return err
	}
	v.entries = entries
	return nil
}

func filterEntries(entries []Entry, keep func(Entry) bool) []Entry {
	result := make([]Entry, 0, len(entries))
	for _, e := range entries {
		if keep(e) {
			result = append(result, e)
		}
	}
	return result
}
