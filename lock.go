package hyperfs

// Handle references a locked entry of the root directory. It is the 1-based
// index of the entry in the directory chain, 0 is never a valid handle.
type Handle uint64

func (h Handle) index() uint64 {
	return uint64(h) - 1
}

// lockTable holds the 0-based indices of all locked entries.
// It only lives in memory, locks are never persisted.
type lockTable map[uint64]struct{}

func (t lockTable) has(index uint64) bool {
	_, ok := t[index]
	return ok
}

// Lock searches the root directory for a live file with the given name and
// extension and locks it. The returned handle is 0 if no such file exists or
// if it is already locked. Errors are only returned if the directory could not be read.
func (v *Volume) Lock(name, extension string) (Handle, error) {
	v.lock.Lock()
	defer v.lock.Unlock()

	n, x, err := entryName(name, extension)
	if err != nil {
		return 0, err
	}

	if err := v.loadRoot(); err != nil {
		return 0, err
	}

	var (
		index uint64
		found bool
	)
	if v.legacyLockScan {
		index, found = v.legacyScan(n, x)
	} else {
		index, found = v.firstMatch(n, x)
	}

	if !found || v.locks.has(index) {
		return 0, nil
	}

	v.locks[index] = struct{}{}
	return Handle(index + 1), nil
}

// firstMatch returns the chain index of the first live file with the given name.
func (v *Volume) firstMatch(name [12]byte, extension [4]byte) (uint64, bool) {
	for i, e := range v.entries {
		if e.IsFile() && e.matches(name, extension) {
			return uint64(i), true
		}
	}
	return 0, false
}

// legacyScan picks the live file at the position given by the number of
// live files which do not match, as long as any file matches at all.
func (v *Volume) legacyScan(name [12]byte, extension [4]byte) (uint64, bool) {
	var (
		files    []uint64
		mismatch int
		found    bool
	)
	for i, e := range v.entries {
		if !e.IsFile() {
			continue
		}
		files = append(files, uint64(i))
		if e.matches(name, extension) {
			found = true
		} else {
			mismatch++
		}
	}

	if !found {
		return 0, false
	}
	return files[mismatch], true
}

// Unlock releases the lock of the handle.
func (v *Volume) Unlock(h Handle) error {
	v.lock.Lock()
	defer v.lock.Unlock()

	if h == 0 || !v.locks.has(h.index()) {
		return newError(KindFileNotLocked, "handle", h)
	}
	delete(v.locks, h.index())
	return nil
}

// IsLocked reports whether the handle is currently locked.
func (v *Volume) IsLocked(h Handle) bool {
	v.lock.Lock()
	defer v.lock.Unlock()

	return h != 0 && v.locks.has(h.index())
}
