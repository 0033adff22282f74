package hyperfs

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVolume_AddFile_Errors(t *testing.T) {
	tests := []struct {
		name      string
		clusters  uint64
		file      string
		extension string
		wantErr   error
	}{
		{name: "volume full", clusters: 2, file: "A", wantErr: ErrOutOfSpace},
		{name: "name too long", clusters: 4, file: "ABCDEFGHIJKLM", wantErr: ErrInvalidArgument},
		{name: "extension too long", clusters: 4, file: "A", extension: "TOOLONG", wantErr: ErrInvalidArgument},
		{name: "name with zero byte", clusters: 4, file: "A\x00B", wantErr: ErrInvalidArgument},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, _ := newTestVolume(t, tt.clusters)
			before := v.Header()

			err := v.AddFile(tt.file, tt.extension, 0, 0)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("AddFile() error = %v, wantErr %v", err, tt.wantErr)
			}
			if v.Header() != before {
				t.Errorf("AddFile() changed the header to %+v", v.Header())
			}

			files, err := v.ReadChain()
			if err != nil || len(files) != 0 {
				t.Errorf("ReadChain() = %v, %v, want no files", files, err)
			}
		})
	}
}

func TestVolume_AddFile_DuplicateNames(t *testing.T) {
	v, _ := newTestVolume(t, 8)
	require.NoError(t, v.AddFile("A", "txt", 0, 0))
	require.NoError(t, v.AddFile("A", "txt", 0, 0))

	first, err := v.Lock("A", "txt")
	require.NoError(t, err)
	assert.Equal(t, Handle(1), first)

	// Only the first of the equally named files can be locked.
	second, err := v.Lock("A", "txt")
	require.NoError(t, err)
	assert.Equal(t, Handle(0), second)
}

func TestVolume_AddFile_FullDirectory(t *testing.T) {
	// The root cluster holds 101 entries, the 102nd file needs a second
	// directory cluster which does not exist anymore.
	v, _ := newTestVolume(t, 104)
	first := addLocked(t, v, "F0", "")
	for i := 1; i < 101; i++ {
		require.NoError(t, v.AddFile(fmt.Sprintf("F%d", i), "", 0, 0))
	}

	err := v.AddFile("EXTRA", "", 0, 0)
	require.True(t, errors.Is(err, ErrOutOfSpace), "AddFile() error = %v", err)

	// The failed entry does not leak into the directory.
	require.NoError(t, v.SetOwner(first, 3))
	require.NoError(t, v.WriteCluster(first, []byte("data"), 0, 0, false))

	files, err := v.ReadChain()
	require.NoError(t, err)
	require.Len(t, files, 101)
	assert.Equal(t, "F0", files[0].FileName())
	assert.Equal(t, uint8(3), files[0].OwnerID)
	assert.Equal(t, "F100", files[100].FileName())

	got := make([]byte, 4)
	require.NoError(t, v.ReadCluster(first, got, 0, 0))
	assert.Equal(t, "data", string(got))
}

func TestVolume_AddFile_NormalizesNames(t *testing.T) {
	v, _ := newTestVolume(t, 4)

	// An e followed by a combining acute accent equals the precomposed é.
	require.NoError(t, v.AddFile("cafe\u0301", "", 0, 0))

	h, err := v.Lock("caf\u00e9", "")
	require.NoError(t, err)
	assert.NotZero(t, h)
}

func TestVolume_Directories(t *testing.T) {
	v, _ := newTestVolume(t, 8)
	require.NoError(t, v.AddFile("A", "txt", 0, 0))
	require.NoError(t, v.AddDirectory("DOCS", "", AttributeFor("r-x", "rwx", false), 1))

	dirs, err := v.Directories()
	require.NoError(t, err)
	require.Len(t, dirs, 1)
	assert.Equal(t, "DOCS", dirs[0].FileName())
	assert.True(t, dirs[0].IsDir())
	assert.Equal(t, uint8(1), dirs[0].OwnerID)

	files, err := v.ReadChain()
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, "A.txt", files[0].FileName())

	content, err := v.ReadDir("DOCS", "")
	require.NoError(t, err)
	assert.Empty(t, content)

	_, err = v.ReadDir("NOPE", "")
	assert.True(t, errors.Is(err, ErrInvalidArgument), "ReadDir() error = %v", err)
}

func TestVolume_ReadDir(t *testing.T) {
	v, _ := newTestVolume(t, 8)
	require.NoError(t, v.AddDirectory("DOCS", "", 0, 0))

	dirs, err := v.Directories()
	require.NoError(t, err)
	require.Len(t, dirs, 1)

	// Directory chains use the same layout as the root directory.
	entries := []Entry{testEntry("INNER", markerFile, false), testEntry("SUB", markerDirectory, false)}
	require.NoError(t, v.writeChain(dirs[0].FirstCluster, entries))

	files, err := v.ReadDir("DOCS", "")
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, "INNER", files[0].FileName())
}

func TestVolume_EntrySetters(t *testing.T) {
	tests := []struct {
		name   string
		update func(v *Volume, h Handle) error
		check  func(t *testing.T, e Entry)
	}{
		{
			name:   "user read",
			update: func(v *Volume, h Handle) error { return v.SetRead(h, User, true) },
			check:  func(t *testing.T, e Entry) { assert.True(t, e.Attribute.CanRead(User)) },
		},
		{
			name:   "owner write off",
			update: func(v *Volume, h Handle) error { return v.SetWrite(h, Owner, false) },
			check:  func(t *testing.T, e Entry) { assert.False(t, e.Attribute.CanWrite(Owner)) },
		},
		{
			name:   "owner execute",
			update: func(v *Volume, h Handle) error { return v.SetExecute(h, Owner, true) },
			check:  func(t *testing.T, e Entry) { assert.True(t, e.Attribute.CanExecute(Owner)) },
		},
		{
			name:   "hidden",
			update: func(v *Volume, h Handle) error { return v.SetHidden(h, true) },
			check:  func(t *testing.T, e Entry) { assert.True(t, e.Attribute.Hidden()) },
		},
		{
			name:   "owner",
			update: func(v *Volume, h Handle) error { return v.SetOwner(h, 42) },
			check:  func(t *testing.T, e Entry) { assert.Equal(t, uint8(42), e.OwnerID) },
		},
		{
			name:   "name",
			update: func(v *Volume, h Handle) error { return v.SetName(h, "RENAMED", "md") },
			check:  func(t *testing.T, e Entry) { assert.Equal(t, "RENAMED.md", e.FileName()) },
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, file := newTestVolume(t, 4)
			h := addLocked(t, v, "A", "txt")

			require.NoError(t, tt.update(v, h))

			e, err := v.Entry(h)
			require.NoError(t, err)
			tt.check(t, e)

			// The change is persisted.
			reopened, err := Open(NewFileStorage(file))
			require.NoError(t, err)
			files, err := reopened.ReadChain()
			require.NoError(t, err)
			require.Len(t, files, 1)
			tt.check(t, files[0])
		})
	}
}

func TestVolume_EntrySetters_Errors(t *testing.T) {
	v, _ := newTestVolume(t, 4)
	addLocked(t, v, "A", "txt")

	assert.True(t, errors.Is(v.SetHidden(0, true), ErrInvalidHandle))
	assert.True(t, errors.Is(v.SetOwner(7, 1), ErrInvalidHandle))
	assert.True(t, errors.Is(v.SetName(1, "ABCDEFGHIJKLMN", ""), ErrInvalidArgument))

	_, err := v.Entry(2)
	assert.True(t, errors.Is(err, ErrInvalidHandle))
}

func TestVolume_VolumeSetters(t *testing.T) {
	v, file := newTestVolume(t, 4)

	require.NoError(t, v.SetVolumeRead(User, true))
	require.NoError(t, v.SetVolumeWrite(User, true))
	require.NoError(t, v.SetVolumeOwner(9))
	require.NoError(t, v.SetVolumeName("DATA"))
	require.NoError(t, v.SetVolumeLongName("My data volume"))

	reopened, err := Open(NewFileStorage(file))
	require.NoError(t, err)
	h := reopened.Header()

	assert.True(t, h.Attribute.CanRead(User))
	assert.True(t, h.Attribute.CanWrite(User))
	assert.Equal(t, uint8(9), h.OwnerID)
	assert.Equal(t, "DATA", h.VolumeName())
	assert.Equal(t, "My data volume", h.LongName())

	require.NoError(t, v.SetVolumeHidden(true))
	assert.True(t, v.Header().Attribute.Hidden())
	require.NoError(t, v.SetVolumeLongName(""))
	assert.Equal(t, "", v.Header().LongName())
	assert.False(t, v.Header().Attribute.LongName())
}

func TestVolume_VolumeSetters_Errors(t *testing.T) {
	v, _ := newTestVolume(t, 4)
	before := v.Header()

	err := v.SetVolumeName("A NAME TOO LONG")
	assert.True(t, errors.Is(err, ErrInvalidArgument), "SetVolumeName() error = %v", err)

	long := make([]byte, 256)
	for i := range long {
		long[i] = 'x'
	}
	err = v.SetVolumeLongName(string(long))
	assert.True(t, errors.Is(err, ErrInvalidArgument), "SetVolumeLongName() error = %v", err)

	assert.Equal(t, before, v.Header())
}
