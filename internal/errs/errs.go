package errs

import (
	"context"
	"errors"
	"fmt"
)

// Kind classifies a failure so callers can react without string matching.
type Kind string

const (
	VersionNotFound      Kind = "VERSION_NOT_FOUND"
	NetworkError         Kind = "NETWORK_ERROR"
	StorageError         Kind = "STORAGE_ERROR"
	PermissionError      Kind = "PERMISSION_ERROR"
	ChecksumMismatch     Kind = "CHECKSUM_MISMATCH"
	InvalidVersionFormat Kind = "INVALID_VERSION_FORMAT"
	RollbackFailed       Kind = "ROLLBACK_FAILED"
	ReleaseAPIError      Kind = "RELEASE_API_ERROR"
	ArchiveError         Kind = "ARCHIVE_ERROR"
)

// Error carries a kind, the pipeline stage that failed (if any), a human
// message and an optional wrapped cause.
type Error struct {
	Kind  Kind
	Stage string
	Msg   string
	Cause error
}

func (e *Error) Error() string {
	msg := e.Msg
	if e.Stage != "" {
		msg = fmt.Sprintf("%s: %s", e.Stage, msg)
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Cause }

// Is matches another *Error by kind, so
// errors.Is(err, errs.New(errs.NetworkError, "")) acts as a kind check.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return e.Kind == t.Kind
}

func New(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

func Wrap(kind Kind, cause error, format string, args ...any) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...), Cause: cause}
}

// WithStage returns a copy of err annotated with the pipeline stage, or wraps
// a foreign error as a StorageError so the stage is never lost. Context
// cancellation passes through untouched: a user abort is not a failure kind.
func WithStage(err error, stage string) error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		cp := *e
		cp.Stage = stage
		return &cp
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return &Error{Kind: StorageError, Stage: stage, Msg: err.Error(), Cause: err}
}

// IsKind reports whether err carries the given kind anywhere in its chain.
func IsKind(err error, kind Kind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == kind
}

// Mismatch builds the canonical checksum failure carrying both digests.
func Mismatch(expected, actual string) *Error {
	return New(ChecksumMismatch, "checksum mismatch: expected %s, got %s", expected, actual)
}
