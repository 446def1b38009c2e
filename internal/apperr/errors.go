package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies failures along the pipeline stages.
type Kind string

const (
	KindUpload      Kind = "upload"
	KindTooLarge    Kind = "too_large"
	KindExtraction  Kind = "extraction"
	KindStructuring Kind = "structuring"
	KindBuild       Kind = "build"
	KindNotFound    Kind = "not_found"
	KindConfig      Kind = "config"
)

// Error carries the pipeline stage a failure belongs to.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func New(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

func Upload(message string, err error) *Error      { return New(KindUpload, message, err) }
func TooLarge(message string, err error) *Error    { return New(KindTooLarge, message, err) }
func Extraction(message string, err error) *Error  { return New(KindExtraction, message, err) }
func Structuring(message string, err error) *Error { return New(KindStructuring, message, err) }
func Build(message string, err error) *Error       { return New(KindBuild, message, err) }
func NotFound(message string, err error) *Error    { return New(KindNotFound, message, err) }
func Config(message string, err error) *Error      { return New(KindConfig, message, err) }

// KindOf returns the kind of the first *Error in the chain, or "" when none.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// Message returns the client-facing message for err.
func Message(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return "internal error"
}

// HTTPStatus maps an error to the response status used by the API.
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindUpload:
		return http.StatusBadRequest
	case KindTooLarge:
		return http.StatusRequestEntityTooLarge
	case KindExtraction:
		return http.StatusUnprocessableEntity
	case KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
