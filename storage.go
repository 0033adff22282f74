package hyperfs

import (
	"io"
	"os"

	"github.com/spf13/afero"
)

// Storage is the block device a Volume lives on. All positions are absolute
// byte offsets, so the driver keeps no cursor of its own.
// Generated mock using mockgen:
//  mockgen -source=storage.go -destination=storage_mock.go -package hyperfs
type Storage interface {
	io.ReaderAt
	io.WriterAt
	// Reset truncates or reinitializes the underlying medium. It is only used by Format.
	Reset() error
}

// checker is implemented by storages which may be incompletely defined.
type checker interface {
	check() error
}

// StorageFuncs adapts three plain functions to a Storage.
// ReadFunc and WriteFunc are required, ResetFunc may be nil if Format is never used.
type StorageFuncs struct {
	ReadFunc  func(p []byte, off int64) (int, error)
	WriteFunc func(p []byte, off int64) (int, error)
	ResetFunc func() error
}

func (s StorageFuncs) check() error {
	switch {
	case s.ReadFunc == nil && s.WriteFunc == nil:
		return ErrReadWriteUndefined
	case s.ReadFunc == nil:
		return ErrReadUndefined
	case s.WriteFunc == nil:
		return ErrWriteUndefined
	}
	return nil
}

func (s StorageFuncs) ReadAt(p []byte, off int64) (int, error) {
	return s.ReadFunc(p, off)
}

func (s StorageFuncs) WriteAt(p []byte, off int64) (int, error) {
	return s.WriteFunc(p, off)
}

func (s StorageFuncs) Reset() error {
	if s.ResetFunc == nil {
		return nil
	}
	return s.ResetFunc()
}

// fileStorage provides a Storage for any afero.File, e.g. a disk image on the
// OS filesystem or a file inside an afero.MemMapFs.
type fileStorage struct {
	file afero.File
}

// NewFileStorage uses the given file as the medium of a volume.
func NewFileStorage(file afero.File) Storage {
	return &fileStorage{file: file}
}

// OpenImage opens (and creates if needed) the image file at path inside fs.
// The caller is responsible to close the returned file.
func OpenImage(fs afero.Fs, path string) (Storage, afero.File, error) {
	file, err := fs.OpenFile(path, os.O_RDWR|os.O_CREATE, 0644)
	if err != nil {
		return nil, nil, err
	}
	return NewFileStorage(file), file, nil
}

func (s *fileStorage) ReadAt(p []byte, off int64) (int, error) {
	return s.file.ReadAt(p, off)
}

func (s *fileStorage) WriteAt(p []byte, off int64) (int, error) {
	return s.file.WriteAt(p, off)
}

func (s *fileStorage) Reset() error {
	if err := s.file.Truncate(0); err != nil {
		return err
	}
	_, err := s.file.Seek(0, io.SeekStart)
	return err
}
