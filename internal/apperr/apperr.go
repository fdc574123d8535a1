// Package apperr is the closed set of failure kinds the pipeline reports to
// its callers. Kinds are attached where the failure happens so the boundary
// never has to inspect error text.
package apperr

import (
	"errors"
	"fmt"
)

type Kind int

const (
	Internal Kind = iota
	InvalidScheme
	UnsupportedFormat
	InvalidReference
	MissingField
	TextTooLong
	DownloadFailed
	EmptyResponse
	NoJSONFound
	MalformedJSON
	UpstreamUnavailable
	UpstreamError
)

var kindNames = map[Kind]string{
	Internal:            "internal",
	InvalidScheme:       "invalid_scheme",
	UnsupportedFormat:   "unsupported_format",
	InvalidReference:    "invalid_reference",
	MissingField:        "missing_field",
	TextTooLong:         "text_too_long",
	DownloadFailed:      "download_failed",
	EmptyResponse:       "empty_response",
	NoJSONFound:         "no_json_found",
	MalformedJSON:       "malformed_json",
	UpstreamUnavailable: "upstream_unavailable",
	UpstreamError:       "upstream_error",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Category groups kinds by how a caller should react to them.
type Category int

const (
	// Processing failures may succeed on a later attempt.
	Processing Category = iota
	// Input failures are the caller's fault and never worth retrying.
	Input
	// Unavailable means the backend is not configured or refuses our credentials.
	Unavailable
)

func (c Category) String() string {
	switch c {
	case Input:
		return "input"
	case Unavailable:
		return "unavailable"
	default:
		return "processing"
	}
}

func (k Kind) Category() Category {
	switch k {
	case InvalidScheme, UnsupportedFormat, InvalidReference, MissingField, TextTooLong:
		return Input
	case UpstreamUnavailable:
		return Unavailable
	default:
		return Processing
	}
}

// Error carries a Kind plus the operation that failed.
type Error struct {
	Kind Kind
	Op   string
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	msg := e.Msg
	if msg == "" {
		msg = e.Kind.String()
	}
	if e.Err != nil {
		msg = msg + ": " + e.Err.Error()
	}
	if e.Op != "" {
		return e.Op + ": " + msg
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

func New(kind Kind, op, msg string) *Error {
	return &Error{Kind: kind, Op: op, Msg: msg}
}

func Newf(kind Kind, op, format string, args ...any) *Error {
	return &Error{Kind: kind, Op: op, Msg: fmt.Sprintf(format, args...)}
}

func Wrap(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// KindOf returns the Kind of the first *Error in err's chain, or Internal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Internal
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// CategoryOf is KindOf(err).Category().
func CategoryOf(err error) Category {
	return KindOf(err).Category()
}
