package errors

import (
	stderrors "errors"
	"fmt"
)

// Kind classifies the failures a run can hit
type Kind string

const (
	// KindRemote is a non-success status or undecodable envelope from the likes API
	KindRemote Kind = "remote"
	// KindTransfer is a transport failure while fetching media
	KindTransfer Kind = "transfer"
	// KindFormat is a dump document that does not match the post schema
	KindFormat Kind = "format"
	// KindFilesystem is a directory, file or rename failure
	KindFilesystem Kind = "filesystem"
)

// Error carries the failure kind, the operation that failed and the cause
type Error struct {
	Kind Kind
	Op   string
	Code int
	Err  error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("%s error", e.Kind)
	if e.Op != "" {
		msg += " during " + e.Op
	}
	if e.Code != 0 {
		msg += fmt.Sprintf(" (status %d)", e.Code)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Remote wraps err as a likes API failure
func Remote(op string, code int, err error) *Error {
	return &Error{Kind: KindRemote, Op: op, Code: code, Err: err}
}

// Transfer wraps err as a media transport failure
func Transfer(op string, err error) *Error {
	return &Error{Kind: KindTransfer, Op: op, Err: err}
}

// Format wraps err as a dump schema failure
func Format(op string, err error) *Error {
	return &Error{Kind: KindFormat, Op: op, Err: err}
}

// Filesystem wraps err as a local filesystem failure
func Filesystem(op string, err error) *Error {
	return &Error{Kind: KindFilesystem, Op: op, Err: err}
}

// IsKind reports whether any error in err's chain is an *Error of the given kind
func IsKind(err error, kind Kind) bool {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Kind == kind
	}
	return false
}

// IsFatal reports whether err must abort the run. Format errors are reported
// to the user and end the run cleanly.
func IsFatal(err error) bool {
	if err == nil {
		return false
	}
	return !IsKind(err, KindFormat)
}
