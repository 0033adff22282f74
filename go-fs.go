package hyperfs

import (
	"bytes"
	"errors"
	"io"
	"io/fs"
	"time"
)

type GoDirEntry struct {
	fs.FileInfo
}

func (g GoDirEntry) Type() fs.FileMode {
	return g.FileInfo.Mode().Type()
}

func (g GoDirEntry) Info() (fs.FileInfo, error) {
	return g.FileInfo, nil
}

// GoFile is a file of the volume opened through GoFs.
// Its content is read completely when it is opened.
type GoFile struct {
	*bytes.Reader
	info fs.FileInfo
}

func (g *GoFile) Stat() (fs.FileInfo, error) {
	return g.info, nil
}

func (g *GoFile) Close() error {
	return nil
}

// GoDir is the root directory of the volume opened through GoFs.
type GoDir struct {
	info    fs.FileInfo
	entries []fs.DirEntry
	offset  int
}

func (d *GoDir) Stat() (fs.FileInfo, error) {
	return d.info, nil
}

func (d *GoDir) Read([]byte) (int, error) {
	return 0, &fs.PathError{Op: "read", Path: d.info.Name(), Err: errors.New("is a directory")}
}

func (d *GoDir) Close() error {
	return nil
}

func (d *GoDir) ReadDir(n int) ([]fs.DirEntry, error) {
	rest := d.entries[d.offset:]
	if n <= 0 {
		d.offset = len(d.entries)
		return rest, nil
	}

	if len(rest) == 0 {
		return nil, io.EOF
	}
	if n > len(rest) {
		n = len(rest)
	}
	d.offset += n
	return rest[:n], nil
}

type rootInfo struct {
	modTime time.Time
}

func (r rootInfo) Name() string       { return "." }
func (r rootInfo) Size() int64        { return 0 }
func (r rootInfo) Mode() fs.FileMode  { return fs.ModeDir | 0555 }
func (r rootInfo) ModTime() time.Time { return r.modTime }
func (r rootInfo) IsDir() bool        { return true }
func (r rootInfo) Sys() interface{}   { return nil }

// GoFs exposes the files of the root directory of a volume as read-only fs.FS.
// Directories are not listed as only the root directory is resolved.
type GoFs struct {
	volume *Volume
}

// NewGoFS wraps the volume as fs.FS compatible filesystem.
func NewGoFS(volume *Volume) GoFs {
	return GoFs{volume: volume}
}

func (g GoFs) Open(name string) (fs.File, error) {
	if !fs.ValidPath(name) {
		return nil, &fs.PathError{Op: "open", Path: name, Err: fs.ErrInvalid}
	}

	v := g.volume
	v.lock.Lock()
	defer v.lock.Unlock()

	if err := v.loadRoot(); err != nil {
		return nil, &fs.PathError{Op: "open", Path: name, Err: err}
	}

	if name == "." {
		return g.openRoot()
	}

	for i := range v.entries {
		e := &v.entries[i]
		if !e.IsFile() || e.FileName() != name {
			continue
		}

		data, err := v.readFile(e)
		if err != nil {
			return nil, &fs.PathError{Op: "open", Path: name, Err: err}
		}
		return &GoFile{
			Reader: bytes.NewReader(data),
			info:   e.FileInfo(int64(len(data))),
		}, nil
	}
	return nil, &fs.PathError{Op: "open", Path: name, Err: fs.ErrNotExist}
}

func (g GoFs) openRoot() (fs.File, error) {
	v := g.volume
	dir := &GoDir{info: rootInfo{modTime: v.header.CreationDate.Time()}}

	for i := range v.entries {
		e := &v.entries[i]
		if !e.IsFile() {
			continue
		}
		info, err := v.stat(e)
		if err != nil {
			return nil, &fs.PathError{Op: "open", Path: ".", Err: err}
		}
		dir.entries = append(dir.entries, GoDirEntry{info})
	}
	return dir, nil
}
