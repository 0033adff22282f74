package hyperfs

import (
	"github.com/aligator/hyperfs/checkpoint"
)

// AddFile appends a new, empty file to the root directory. Its first data
// cluster is allocated right away. Names do not have to be unique.
func (v *Volume) AddFile(name, extension string, attribute Attribute, owner uint8) error {
	v.lock.Lock()
	defer v.lock.Unlock()

	return v.addEntry(name, extension, attribute, owner, markerFile)
}

// AddDirectory appends a new directory with an empty directory chain to the root directory.
func (v *Volume) AddDirectory(name, extension string, attribute Attribute, owner uint8) error {
	v.lock.Lock()
	defer v.lock.Unlock()

	return v.addEntry(name, extension, attribute, owner, markerDirectory)
}

func (v *Volume) addEntry(name, extension string, attribute Attribute, owner uint8, marker byte) error {
	n, x, err := entryName(name, extension)
	if err != nil {
		return err
	}

	if !v.hasFreeCluster() {
		return newError(KindOutOfSpace, "clusters_available", v.header.ClustersAvailable)
	}

	if err := v.loadRoot(); err != nil {
		return err
	}

	cluster, err := v.reserveCluster()
	if err != nil {
		return err
	}

	if marker == markerDirectory {
		err = v.writeEmptySlot(cluster)
	} else {
		err = v.writeTrailer(cluster, trailer{NextCluster: ClusterEnd})
	}
	if err != nil {
		return checkpoint.Wrap(err, ErrWriteChain)
	}

	today := PackDate(v.now())
	entries := append(v.entries[:len(v.entries):len(v.entries)], Entry{
		Name:             n,
		Extension:        x,
		Attribute:        attribute,
		Marker:           marker,
		ClusterCount:     1,
		CreationDate:     today,
		ModificationDate: today,
		OwnerID:          owner,
		IsLast:           1,
		FirstCluster:     cluster,
	})
	// The chain in memory only changes once the new entry is persisted.
	if err := v.writeChain(rootCluster, entries); err != nil {
		return err
	}
	v.entries = entries
	return nil
}

// Directories reloads the root directory and returns all live directories in it.
func (v *Volume) Directories() ([]Entry, error) {
	v.lock.Lock()
	defer v.lock.Unlock()

	if err := v.loadRoot(); err != nil {
		return nil, err
	}
	return filterEntries(v.entries, Entry.IsDir), nil
}

// ReadDir returns the live files of the first directory in the root directory with the given name.
func (v *Volume) ReadDir(name, extension string) ([]Entry, error) {
	v.lock.Lock()
	defer v.lock.Unlock()

	n, x, err := entryName(name, extension)
	if err != nil {
		return nil, err
	}
	if err := v.loadRoot(); err != nil {
		return nil, err
	}

	for _, e := range v.entries {
		if e.IsDir() && e.matches(n, x) {
			entries, err := v.readChain(e.FirstCluster)
			if err != nil {
				return nil, err
			}
			return filterEntries(entries, Entry.IsFile), nil
		}
	}
	return nil, newError(KindInvalidArgument, "directory", name)
}

// Entry returns a copy of the entry of the handle.
func (v *Volume) Entry(h Handle) (Entry, error) {
	v.lock.Lock()
	defer v.lock.Unlock()

	e, err := v.file(h)
	if err != nil {
		return Entry{}, err
	}
	return *e, nil
}

// updateEntry changes the entry of the handle and rewrites the directory chain.
func (v *Volume) updateEntry(h Handle, update func(e *Entry)) error {
	v.lock.Lock()
	defer v.lock.Unlock()

	e, err := v.file(h)
	if err != nil {
		return err
	}
	update(e)
	return v.writeChain(rootCluster, v.entries)
}

// SetRead grants or revokes the read permission of the privilege on the file of the handle.
func (v *Volume) SetRead(h Handle, p Privilege, on bool) error {
	return v.updateEntry(h, func(e *Entry) {
		e.Attribute = e.Attribute.WithRead(p, on)
	})
}

// SetWrite grants or revokes the write permission of the privilege on the file of the handle.
func (v *Volume) SetWrite(h Handle, p Privilege, on bool) error {
	return v.updateEntry(h, func(e *Entry) {
		e.Attribute = e.Attribute.WithWrite(p, on)
	})
}

// SetExecute grants or revokes the execute permission of the privilege on the file of the handle.
func (v *Volume) SetExecute(h Handle, p Privilege, on bool) error {
	return v.updateEntry(h, func(e *Entry) {
		e.Attribute = e.Attribute.WithExecute(p, on)
	})
}

// SetHidden changes the hidden flag of the file of the handle.
func (v *Volume) SetHidden(h Handle, on bool) error {
	return v.updateEntry(h, func(e *Entry) {
		e.Attribute = e.Attribute.WithHidden(on)
	})
}

// SetOwner changes the owner of the file of the handle.
func (v *Volume) SetOwner(h Handle, owner uint8) error {
	return v.updateEntry(h, func(e *Entry) {
		e.OwnerID = owner
	})
}

// SetName renames the file of the handle.
func (v *Volume) SetName(h Handle, name, extension string) error {
	n, x, err := entryName(name, extension)
	if err != nil {
		return err
	}
	return v.updateEntry(h, func(e *Entry) {
		e.Name, e.Extension = n, x
	})
}

// LongName returns the long name of the file of the handle or "" if it has none.
func (v *Volume) LongName(h Handle) (string, error) {
	v.lock.Lock()
	defer v.lock.Unlock()

	e, err := v.file(h)
	if err != nil || !e.Attribute.LongName() {
		return "", err
	}

	size, err := v.longNameSize(e)
	if err != nil {
		return "", checkpoint.Wrap(err, ErrReadFile)
	}
	name := make([]byte, size-1)
	if err := v.readAt(name, v.clusterOffset(e.FirstCluster)+1); err != nil {
		return "", checkpoint.Wrap(err, ErrReadFile)
	}
	return string(name), nil
}

// SetLongName stores a long name at the start of the first cluster of the
// locked file. The long name occupies payload space, so it should be set
// before any data is written.
func (v *Volume) SetLongName(h Handle, name string) error {
	v.lock.Lock()
	defer v.lock.Unlock()

	e, err := v.file(h)
	if err != nil {
		return err
	}
	if !v.locks.has(h.index()) {
		return newError(KindFileNotLocked, "handle", h)
	}

	name = normalize(name)
	if name == "" || len(name) > 0xFF || uint64(len(name))+1 > v.capacity() {
		return newError(KindInvalidArgument, "long_name", name)
	}

	prefixed := append([]byte{byte(len(name))}, name...)
	if err := v.writeAt(prefixed, v.clusterOffset(e.FirstCluster)); err != nil {
		return checkpoint.Wrap(err, ErrWriteFile)
	}
	if err := v.markUsed(e.FirstCluster, uint64(len(prefixed))); err != nil {
		return checkpoint.Wrap(err, ErrWriteFile)
	}

	e.Attribute = e.Attribute.WithLongName(true)
	e.ModificationDate = PackDate(v.now())
	return v.writeChain(rootCluster, v.entries)
}

// updateHeader changes the header and persists it. The in-memory header is
// restored if it could not be written.
func (v *Volume) updateHeader(update func(h *Header) error) error {
	v.lock.Lock()
	defer v.lock.Unlock()

	prev := v.header
	if err := update(&v.header); err != nil {
		v.header = prev
		return err
	}
	if err := v.writeHeader(); err != nil {
		v.header = prev
		return err
	}
	return nil
}

// SetVolumeRead grants or revokes the read permission of the privilege on the volume.
func (v *Volume) SetVolumeRead(p Privilege, on bool) error {
	return v.updateHeader(func(h *Header) error {
		h.Attribute = h.Attribute.WithRead(p, on)
		return nil
	})
}

// SetVolumeWrite grants or revokes the write permission of the privilege on the volume.
func (v *Volume) SetVolumeWrite(p Privilege, on bool) error {
	return v.updateHeader(func(h *Header) error {
		h.Attribute = h.Attribute.WithWrite(p, on)
		return nil
	})
}

// SetVolumeHidden changes the hidden flag of the volume.
func (v *Volume) SetVolumeHidden(on bool) error {
	return v.updateHeader(func(h *Header) error {
		h.Attribute = h.Attribute.WithHidden(on)
		return nil
	})
}

// SetVolumeOwner changes the owner of the volume.
func (v *Volume) SetVolumeOwner(owner uint8) error {
	return v.updateHeader(func(h *Header) error {
		h.OwnerID = owner
		return nil
	})
}

// SetVolumeName changes the short name of the volume, at most 12 bytes.
func (v *Volume) SetVolumeName(name string) error {
	return v.updateHeader(func(h *Header) error {
		packed, err := packName(name, len(h.Name), "name")
		if err != nil {
			return err
		}
		copy(h.Name[:], packed)
		return nil
	})
}

// SetVolumeLongName stores the long name in the header padding. An empty name removes it.
func (v *Volume) SetVolumeLongName(name string) error {
	return v.updateHeader(func(h *Header) error {
		return h.setLongName(name)
	})
}
