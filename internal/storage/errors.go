package storage

import (
	"errors"
	"fmt"
)

var (
	// ErrSchemaVersion matches any SchemaVersionError.
	ErrSchemaVersion = errors.New("unsupported schema version")
	// ErrDecode matches any DecodeError.
	ErrDecode = errors.New("malformed snapshot")
	// ErrIO matches any IOError.
	ErrIO = errors.New("storage io failure")
)

// SchemaVersionError reports a snapshot written with a schema this build
// does not understand. Snapshots are never upgraded in place.
type SchemaVersionError struct {
	Found int
}

func (e *SchemaVersionError) Error() string {
	return fmt.Sprintf("unsupported schema version %d (expected %d)", e.Found, SchemaVersion)
}

func (e *SchemaVersionError) Is(target error) bool {
	return target == ErrSchemaVersion
}

// DecodeError reports malformed JSON or a snapshot with the wrong shape.
type DecodeError struct {
	Reason string
	Err    error
}

func (e *DecodeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("failed to decode snapshot: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("failed to decode snapshot: %s", e.Reason)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

func (e *DecodeError) Is(target error) bool {
	return target == ErrDecode
}

// IOError reports a failed read, write or directory creation.
type IOError struct {
	Op   string
	Path string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("failed to %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *IOError) Unwrap() error {
	return e.Err
}

func (e *IOError) Is(target error) bool {
	return target == ErrIO
}

func decodeErr(reason string, err error) error {
	return &DecodeError{Reason: reason, Err: err}
}

func ioErr(op, path string, err error) error {
	return &IOError{Op: op, Path: path, Err: err}
}
