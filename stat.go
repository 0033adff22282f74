package hyperfs

import (
	"os"
	"time"
)

// FileInfo returns an os.FileInfo for the entry with the given payload size.
func (e Entry) FileInfo(size int64) os.FileInfo {
	return entryFileInfo{entry: e, size: size}
}

type entryFileInfo struct {
	entry Entry
	size  int64
}

func (e entryFileInfo) Name() string {
	return e.entry.FileName()
}

func (e entryFileInfo) Size() int64 {
	return e.size
}

// Mode maps the owner permissions to the unix owner bits and the user
// permissions to the group and other bits.
func (e entryFileInfo) Mode() os.FileMode {
	var mode os.FileMode
	a := e.entry.Attribute
	for _, p := range []struct {
		priv  Privilege
		shift uint
	}{{Owner, 6}, {User, 3}, {User, 0}} {
		if a.CanRead(p.priv) {
			mode |= 04 << p.shift
		}
		if a.CanWrite(p.priv) {
			mode |= 02 << p.shift
		}
		if a.CanExecute(p.priv) {
			mode |= 01 << p.shift
		}
	}

	if e.IsDir() {
		mode |= os.ModeDir
	}
	return mode
}

func (e entryFileInfo) ModTime() time.Time {
	return e.entry.ModificationDate.Time()
}

func (e entryFileInfo) IsDir() bool {
	return e.entry.IsDir()
}

func (e entryFileInfo) Sys() interface{} {
	return e.entry
}
