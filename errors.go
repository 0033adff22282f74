package hyperfs

import (
	"errors"
	"fmt"
)

// Kind classifies every failure the driver reports.
type Kind uint8

const (
	KindUnknown Kind = iota
	KindWriteUndefined
	KindReadUndefined
	KindReadWriteUndefined
	KindInvalidDirection
	KindInvalidClusterInfo
	KindUnsupportedVersion
	KindNonFFReservedSegment
	KindZeroBootSignature
	KindDirectoryCorrupt
	KindMissingChainEnd
	KindOutOfSpace
	KindFileNotLocked
	KindBufferTooLarge
	KindDepthTooLarge
	KindInvalidHandle
	KindInvalidArgument
)

var kindNames = [...]string{
	KindUnknown:              "unknown error",
	KindWriteUndefined:       "write operation undefined",
	KindReadUndefined:        "read operation undefined",
	KindReadWriteUndefined:   "read and write operations undefined",
	KindInvalidDirection:     "invalid header direction",
	KindInvalidClusterInfo:   "invalid header cluster info",
	KindUnsupportedVersion:   "unsupported version",
	KindNonFFReservedSegment: "reserved header segment is not 0xFF",
	KindZeroBootSignature:    "zero boot signature",
	KindDirectoryCorrupt:     "directory entry marker is invalid",
	KindMissingChainEnd:      "directory chain has no end",
	KindOutOfSpace:           "no space left on volume",
	KindFileNotLocked:        "file is not locked",
	KindBufferTooLarge:       "buffer too large",
	KindDepthTooLarge:        "depth too large",
	KindInvalidHandle:        "invalid file handle",
	KindInvalidArgument:      "invalid argument",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// Code returns the legacy numeric status code of the kind.
// Kinds without one return 0.
func (k Kind) Code() int32 {
	if k == KindUnknown || k > KindDepthTooLarge {
		return 0
	}
	return -int32(k)
}

// Error is a failure of a specific Kind with an optional context describing
// the offending field and value.
type Error struct {
	Kind  Kind
	Field string
	Value interface{}
}

func (e *Error) Error() string {
	switch {
	case e.Field != "" && e.Value != nil:
		return fmt.Sprintf("%v: %s = %v", e.Kind, e.Field, e.Value)
	case e.Field != "":
		return fmt.Sprintf("%v: %s", e.Kind, e.Field)
	}
	return e.Kind.String()
}

// Is matches any *Error of the same Kind, so the sentinels below can be used
// with errors.Is regardless of the attached context.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Kind == e.Kind
}

func newError(kind Kind, field string, value interface{}) error {
	return &Error{Kind: kind, Field: field, Value: value}
}

// KindOf returns the Kind of err or KindUnknown if err does not carry one.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// These errors may occur while using a volume.
var (
	ErrWriteUndefined       = &Error{Kind: KindWriteUndefined}
	ErrReadUndefined        = &Error{Kind: KindReadUndefined}
	ErrReadWriteUndefined   = &Error{Kind: KindReadWriteUndefined}
	ErrInvalidDirection     = &Error{Kind: KindInvalidDirection}
	ErrInvalidClusterInfo   = &Error{Kind: KindInvalidClusterInfo}
	ErrUnsupportedVersion   = &Error{Kind: KindUnsupportedVersion}
	ErrNonFFReservedSegment = &Error{Kind: KindNonFFReservedSegment}
	ErrZeroBootSignature    = &Error{Kind: KindZeroBootSignature}
	ErrDirectoryCorrupt     = &Error{Kind: KindDirectoryCorrupt}
	ErrMissingChainEnd      = &Error{Kind: KindMissingChainEnd}
	ErrOutOfSpace           = &Error{Kind: KindOutOfSpace}
	ErrFileNotLocked        = &Error{Kind: KindFileNotLocked}
	ErrBufferTooLarge       = &Error{Kind: KindBufferTooLarge}
	ErrDepthTooLarge        = &Error{Kind: KindDepthTooLarge}
	ErrInvalidHandle        = &Error{Kind: KindInvalidHandle}
	ErrInvalidArgument      = &Error{Kind: KindInvalidArgument}
)

// These errors describe failing I/O against the storage.
var (
	ErrReadHeader  = errors.New("could not read the volume header")
	ErrWriteHeader = errors.New("could not write the volume header")
	ErrReadChain   = errors.New("could not read the directory chain")
	ErrWriteChain  = errors.New("could not write the directory chain")
	ErrReadFile    = errors.New("could not read the file")
	ErrWriteFile   = errors.New("could not write the file")
	ErrFormat      = errors.New("could not format the volume")
)
