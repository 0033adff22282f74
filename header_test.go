package hyperfs

import (
	"bytes"
	"encoding/binary"
	"errors"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/spf13/afero"
)

func validHeader() Header {
	return Header{
		Direction:         [2]byte{directionLSB0, directionLSB1},
		NextFreeCluster:   2,
		ClusterSize:       4096,
		ClustersAvailable: 2,
		Reserved:          reservedVersion0,
		Clusters:          4,
		BootSignature:     BootSignatureNotBootable,
	}
}

func TestPackedSizes(t *testing.T) {
	tests := []struct {
		name string
		data interface{}
		want int
	}{
		{name: "header", data: Header{}, want: HeaderSize},
		{name: "entry", data: Entry{}, want: EntrySize},
		{name: "chain entry", data: chainEntry{}, want: ChainEntrySize},
		{name: "trailer", data: trailer{}, want: TrailerSize},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := binary.Size(tt.data); got != tt.want {
				t.Errorf("binary.Size() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestHeader_Validate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(h *Header)
		wantErr error
	}{
		{
			name:   "valid",
			modify: func(h *Header) {},
		},
		{
			name: "big endian direction",
			modify: func(h *Header) {
				h.Direction = [2]byte{directionMSB0, directionMSB1}
			},
		},
		{
			name: "full volume",
			modify: func(h *Header) {
				h.NextFreeCluster, h.ClustersAvailable = 4, 0
			},
		},
		{
			name: "zero boot signature",
			modify: func(h *Header) {
				h.BootSignature = [2]byte{0x55, 0x00}
			},
			wantErr: ErrZeroBootSignature,
		},
		{
			name: "zero boot signature is checked before the direction",
			modify: func(h *Header) {
				h.BootSignature = [2]byte{}
				h.Direction = [2]byte{}
			},
			wantErr: ErrZeroBootSignature,
		},
		{
			name: "invalid direction",
			modify: func(h *Header) {
				h.Direction = [2]byte{0x55, 0x55}
			},
			wantErr: ErrInvalidDirection,
		},
		{
			name: "direction is checked before the cluster size",
			modify: func(h *Header) {
				h.Direction = [2]byte{}
				h.ClusterSize = 1000
			},
			wantErr: ErrInvalidDirection,
		},
		{
			name: "cluster size no multiple of 4096",
			modify: func(h *Header) {
				h.ClusterSize = 1000
			},
			wantErr: ErrInvalidClusterInfo,
		},
		{
			name: "cluster size zero",
			modify: func(h *Header) {
				h.ClusterSize = 0
			},
			wantErr: ErrInvalidClusterInfo,
		},
		{
			name: "counters do not add up",
			modify: func(h *Header) {
				h.ClustersAvailable = 3
			},
			wantErr: ErrInvalidClusterInfo,
		},
		{
			name: "unsupported version",
			modify: func(h *Header) {
				h.Attribute = 0b00000001
			},
			wantErr: ErrUnsupportedVersion,
		},
		{
			name: "reserved segment not 0xFF",
			modify: func(h *Header) {
				h.Reserved = 0x00
			},
			wantErr: ErrNonFFReservedSegment,
		},
		{
			name: "version is checked before the reserved segment",
			modify: func(h *Header) {
				h.Attribute = 0b00000010
				h.Reserved = 0x00
			},
			wantErr: ErrUnsupportedVersion,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := validHeader()
			tt.modify(&h)

			err := h.Validate()
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Header.Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestHeader_NoRead(t *testing.T) {
	tests := []struct {
		name      string
		direction [2]byte
		signature uint32
		want      bool
	}{
		{name: "little endian no read", direction: [2]byte{directionLSB0, directionLSB1}, signature: SignatureNoReadLSB, want: true},
		{name: "big endian no read", direction: [2]byte{directionMSB0, directionMSB1}, signature: SignatureNoRead, want: true},
		{name: "signature of the other direction", direction: [2]byte{directionLSB0, directionLSB1}, signature: SignatureNoRead, want: false},
		{name: "no signature", direction: [2]byte{directionLSB0, directionLSB1}, want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := validHeader()
			h.Direction = tt.direction
			h.Signature = tt.signature
			if got := h.NoRead(); got != tt.want {
				t.Errorf("Header.NoRead() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestVolume_Format(t *testing.T) {
	v, file := newTestVolume(t, 4)

	h := v.Header()
	if h.ClustersAvailable != 2 || h.NextFreeCluster != 2 {
		t.Errorf("Format() available = %v, next free = %v, want 2, 2", h.ClustersAvailable, h.NextFreeCluster)
	}
	if h.CreationDate != PackDate(testNow) {
		t.Errorf("Format() creation date = %v, want %v", h.CreationDate, PackDate(testNow))
	}
	if h.VolumeName() != "TEST" || h.LongName() != "" {
		t.Errorf("Format() names = %q, %q, want %q, %q", h.VolumeName(), h.LongName(), "TEST", "")
	}

	image := readImage(t, file)
	if len(image) != 4*4096 {
		t.Fatalf("image size = %v, want %v", len(image), 4*4096)
	}
	if !bytes.Equal(image[4:6], []byte{0xAA, 0x55}) {
		t.Errorf("direction = % x, want aa 55", image[4:6])
	}
	if !bytes.Equal(image[HeaderSize-2:HeaderSize], BootSignatureNotBootable[:]) {
		t.Errorf("boot signature = % x, want ff ff", image[HeaderSize-2:HeaderSize])
	}
	if !bytes.Equal(image[4096:], make([]byte, 3*4096)) {
		t.Error("clusters behind the header are not zeroed")
	}

	files, err := v.ReadChain()
	if err != nil || len(files) != 0 {
		t.Errorf("ReadChain() = %v, %v, want an empty root directory", files, err)
	}
}

func TestVolume_Format_Invalid(t *testing.T) {
	tests := []struct {
		name string
		cfg  FormatConfig
	}{
		{name: "cluster size no multiple of 4096", cfg: FormatConfig{ClusterSize: 1000, Clusters: 4}},
		{name: "not enough clusters", cfg: FormatConfig{Clusters: 1}},
		{name: "name too long", cfg: FormatConfig{Clusters: 4, Name: "A VERY LONG NAME"}},
		{name: "long name too long", cfg: FormatConfig{Clusters: 4, LongName: string(make([]byte, 300))}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockCtrl := gomock.NewController(t)
			// The medium must not be touched at all.
			v, err := New(NewMockStorage(mockCtrl))
			if err != nil {
				t.Fatalf("New() error = %v", err)
			}

			err = v.Format(tt.cfg)

			mockCtrl.Finish()

			if !errors.Is(err, ErrFormat) {
				t.Errorf("Format() error = %v, want %v", err, ErrFormat)
			}
		})
	}
}

func TestVolume_Format_ResetError(t *testing.T) {
	resetErr := errors.New("medium is write protected")

	mockCtrl := gomock.NewController(t)
	defer mockCtrl.Finish()

	storage := NewMockStorage(mockCtrl)
	storage.EXPECT().Reset().Return(resetErr)

	v, err := New(storage)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	err = v.Format(FormatConfig{Clusters: 4})
	if !errors.Is(err, ErrFormat) || !errors.Is(err, resetErr) {
		t.Errorf("Format() error = %v, want %v caused by %v", err, ErrFormat, resetErr)
	}
}

func TestVolume_Format_RoundTrip(t *testing.T) {
	storage, _, err := OpenImage(afero.NewMemMapFs(), "test.hfs")
	if err != nil {
		t.Fatalf("OpenImage() error = %v", err)
	}

	v, err := New(storage, WithClock(testClock))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	cfg := FormatConfig{
		ClusterSize:   8192,
		Clusters:      8,
		Signature:     SignatureNoReadLSB,
		Name:          "BOOT",
		LongName:      "Bootable Volume ☃",
		Attribute:     VolumeAttribute(0).WithRead(Owner, true),
		OwnerID:       7,
		BootSignature: BootSignatureBootable,
	}
	if err := v.Format(cfg); err != nil {
		t.Fatalf("Format() error = %v", err)
	}

	parsed, err := Open(storage)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	h := parsed.Header()

	if h != v.Header() {
		t.Errorf("parsed header = %+v, want %+v", h, v.Header())
	}
	if !h.NoRead() || !h.Bootable() {
		t.Errorf("NoRead() = %v, Bootable() = %v, want true, true", h.NoRead(), h.Bootable())
	}
	if h.LongName() != cfg.LongName || !h.Attribute.LongName() {
		t.Errorf("LongName() = %q, want %q", h.LongName(), cfg.LongName)
	}
	if h.ClustersAvailable != 6 || h.Size() != 8*8192 || h.OwnerID != 7 {
		t.Errorf("parsed header = %+v", h)
	}
}

func TestVolume_Parse_KeepsStateOnError(t *testing.T) {
	v, file := newTestVolume(t, 4)
	before := v.Header()

	// Destroy the reserved segment.
	if _, err := file.WriteAt([]byte{0x00}, 46); err != nil {
		t.Fatalf("WriteAt() error = %v", err)
	}

	if err := v.Parse(); !errors.Is(err, ErrNonFFReservedSegment) {
		t.Errorf("Parse() error = %v, want %v", err, ErrNonFFReservedSegment)
	}
	if v.Header() != before {
		t.Errorf("Header() = %+v, want the previous header %+v", v.Header(), before)
	}
}
