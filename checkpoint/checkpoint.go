// Package checkpoint decorates errors with the location they passed through,
// which results in something similar to a stacktrace for driver errors.
// Each error added to a checkpoint can be checked by errors.Is and retrieved by errors.As.
package checkpoint

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"runtime"
	"strings"
)

// Frame is a single location recorded by From or Wrap.
type Frame struct {
	File string
	Line int
}

func (f Frame) String() string {
	if f.File == "" {
		return "unknown"
	}
	return fmt.Sprintf("%s:%d", f.File, f.Line)
}

// From wraps err into a checkpoint which records the location of the caller.
// It returns nil, if err == nil.
func From(err error) error {
	if err == nil || isPassthrough(err) {
		return err
	}

	return &checkpoint{
		prev:  err,
		frame: caller(),
	}
}

// Wrap adds a checkpoint for prev and annotates it with kind, which further
// describes what went wrong at this location. Returns nil if prev == nil.
//
// It allows to return predefined errors while keeping the cause:
//  func allocate() error {
//  	err := storage.write()
//  	return checkpoint.Wrap(err, ErrOutOfSpace)
//  }
// errors.Is(err, ErrOutOfSpace) holds for the result, and so does
// errors.Is for the original error returned by storage.write().
func Wrap(prev, kind error) error {
	if prev == nil || isPassthrough(prev) {
		return prev
	}

	return &checkpoint{
		kind:  kind,
		prev:  prev,
		frame: caller(),
	}
}

// Frames returns all recorded locations of err, outermost first.
func Frames(err error) []Frame {
	var frames []Frame
	for err != nil {
		if c, ok := err.(*checkpoint); ok {
			frames = append(frames, c.frame)
		}
		err = errors.Unwrap(err)
	}
	return frames
}

// io.EOF must be returned as io.EOF directly.
// https://github.com/golang/go/issues/39155
func isPassthrough(err error) bool {
	return err == io.EOF || err == io.ErrUnexpectedEOF
}

func caller() Frame {
	_, file, line, ok := runtime.Caller(2)
	if !ok {
		return Frame{}
	}
	return Frame{File: filepath.Base(file), Line: line}
}

type checkpoint struct {
	kind  error
	prev  error
	frame Frame
}

func (e *checkpoint) Error() string {
	var b strings.Builder
	b.WriteString(e.frame.String())
	b.WriteString(": ")
	if e.kind != nil {
		b.WriteString(e.kind.Error())
		b.WriteString(": ")
	}
	b.WriteString(e.prev.Error())
	return b.String()
}

func (e *checkpoint) Unwrap() error {
	return e.prev
}

func (e *checkpoint) Is(target error) bool {
	return e.kind != nil && errors.Is(e.kind, target)
}

func (e *checkpoint) As(target interface{}) bool {
	return e.kind != nil && errors.As(e.kind, target)
}
