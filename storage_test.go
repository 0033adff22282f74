package hyperfs

import (
	"errors"
	"testing"

	"github.com/spf13/afero"
)

func TestStorageFuncs_Reset(t *testing.T) {
	var called bool
	s := StorageFuncs{ResetFunc: func() error {
		called = true
		return nil
	}}

	if err := s.Reset(); err != nil || !called {
		t.Errorf("Reset() error = %v, called = %v", err, called)
	}
	if err := (StorageFuncs{}).Reset(); err != nil {
		t.Errorf("Reset() without ResetFunc error = %v, want nil", err)
	}
}

func TestFileStorage(t *testing.T) {
	fs := afero.NewMemMapFs()
	storage, file, err := OpenImage(fs, "image.hfs")
	if err != nil {
		t.Fatalf("OpenImage() error = %v", err)
	}
	defer file.Close()

	if _, err := storage.WriteAt([]byte("Hello World"), 4); err != nil {
		t.Fatalf("WriteAt() error = %v", err)
	}

	got := make([]byte, 5)
	if _, err := storage.ReadAt(got, 10); err != nil {
		t.Fatalf("ReadAt() error = %v", err)
	}
	if string(got) != "World" {
		t.Errorf("ReadAt() = %q, want %q", got, "World")
	}

	if err := storage.Reset(); err != nil {
		t.Fatalf("Reset() error = %v", err)
	}
	info, err := fs.Stat("image.hfs")
	if err != nil {
		t.Fatalf("Stat() error = %v", err)
	}
	if info.Size() != 0 {
		t.Errorf("size after Reset() = %v, want 0", info.Size())
	}
}

func TestOpenImage_Error(t *testing.T) {
	_, _, err := OpenImage(afero.NewReadOnlyFs(afero.NewMemMapFs()), "image.hfs")
	if err == nil {
		t.Error("OpenImage() on a read only fs error = nil, want an error")
	}
	if errors.Is(err, ErrReadWriteUndefined) {
		t.Errorf("OpenImage() error = %v, want the error of the fs", err)
	}
}
