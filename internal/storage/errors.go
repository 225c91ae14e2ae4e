package storage

import (
	"errors"
	"fmt"
)

// ErrorKind classifies storage failures so callers can decide whether to
// retry, ignore, or give up.
type ErrorKind int

const (
	// KindUnavailable marks transient backend failures; the caller may retry.
	KindUnavailable ErrorKind = iota
	// KindNotFound marks a missing blob; delete treats it as already done.
	KindNotFound
	// KindPermissionDenied marks fatal credential or policy failures; no retry.
	KindPermissionDenied
)

func (k ErrorKind) String() string {
	switch k {
	case KindNotFound:
		return "not found"
	case KindPermissionDenied:
		return "permission denied"
	default:
		return "unavailable"
	}
}

// Error is the storage failure type surfaced by every Backend implementation.
type Error struct {
	Kind ErrorKind
	Op   string
	Path string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("storage: %s %s: %s: %v", e.Op, e.Path, e.Kind, e.Err)
	}
	return fmt.Sprintf("storage: %s %s: %s", e.Op, e.Path, e.Kind)
}

func (e *Error) Unwrap() error { return e.Err }

// IsNotFound reports whether err is a storage error with kind NotFound.
func IsNotFound(err error) bool {
	var se *Error
	return errors.As(err, &se) && se.Kind == KindNotFound
}

// IsUnavailable reports whether err is a storage error with kind Unavailable.
func IsUnavailable(err error) bool {
	var se *Error
	return errors.As(err, &se) && se.Kind == KindUnavailable
}

// IsPermissionDenied reports whether err is a storage error with kind PermissionDenied.
func IsPermissionDenied(err error) bool {
	var se *Error
	return errors.As(err, &se) && se.Kind == KindPermissionDenied
}
