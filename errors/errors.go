package errors

/*
* Error codes are intended to convey detailed errors internally and to clients.
* These should be combined with the appropriate HTTP status code, but are not
* intended to supercede correct HTTP responses.
*
* The sentinel errors below classify every failure the catalog can produce.
* Collaborators wrap them with fmt.Errorf("%w") and callers test with
* errors.Is, so the HTTP layer can pick a status without knowing which
* component failed.
 */

import (
	"errors"
	"net/http"
)

var (
	// ErrNotFound means the requested identifier is absent from the record
	// store. It is never cached.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput means a payload was missing or malformed. No store or
	// cache operation has been attempted when this is returned.
	ErrInvalidInput = errors.New("invalid input")

	// ErrStoreUnavailable wraps any I/O failure talking to the record store.
	ErrStoreUnavailable = errors.New("record store unavailable")

	// ErrCacheUnavailable wraps any I/O failure talking to the cache backend.
	ErrCacheUnavailable = errors.New("cache unavailable")

	// ErrDeserialization means a cached payload could not be decoded into
	// the expected shape.
	ErrDeserialization = errors.New("cache payload could not be decoded")
)

// ErrCode is returned to clients alongside the HTTP status
type ErrCode uint8

const (
	// HTTP 400 Bad Request.
	// Content-type is not accepted (e.g. text/xml).
	BadContentType ErrCode = 1
	// Content does not match Content-Type or unmarshalling error.
	InvalidContent ErrCode = 2
	// A parameter was not of the expected type.
	UnexpectedType ErrCode = 3

	// HTTP 404 Not Found.
	NotFound ErrCode = 14

	// HTTP 503 Service Unavailable.
	StoreUnavailable ErrCode = 30
	CacheUnavailable ErrCode = 31

	// HTTP 500 Internal Server Error.
	Internal ErrCode = 40
)

// APIError implements the Error interface.
type APIError struct {
	Function     string  `json:"-"`
	ErrorCode    ErrCode `json:"errorCode"`
	ErrorMessage string  `json:"errorDetail"`
	cause        error
}

func (e APIError) Error() string {
	return e.ErrorMessage
}

// Unwrap exposes the classified cause so errors.Is keeps working on an
// APIError.
func (e APIError) Unwrap() error {
	return e.cause
}

// New returns an APIError carrying the given code and message
func New(function string, errCode ErrCode, errMessage string) error {
	return &APIError{
		Function:     function,
		ErrorCode:    errCode,
		ErrorMessage: errMessage,
	}
}

// Wrap classifies err and returns it as an APIError annotated with the
// function that observed it.
func Wrap(function string, err error) *APIError {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr
	}

	return &APIError{
		Function:     function,
		ErrorCode:    Code(err),
		ErrorMessage: err.Error(),
		cause:        err,
	}
}

// Code returns the ErrCode matching the class of err
func Code(err error) ErrCode {
	var apiErr *APIError
	switch {
	case errors.As(err, &apiErr):
		return apiErr.ErrorCode
	case errors.Is(err, ErrNotFound):
		return NotFound
	case errors.Is(err, ErrInvalidInput):
		return InvalidContent
	case errors.Is(err, ErrStoreUnavailable):
		return StoreUnavailable
	case errors.Is(err, ErrCacheUnavailable):
		return CacheUnavailable
	default:
		return Internal
	}
}

// StatusCode maps err to the HTTP status the request boundary should use.
// Unavailable collaborators become 503 rather than crashing the handler.
func StatusCode(err error) int {
	if err == nil {
		return http.StatusOK
	}

	switch Code(err) {
	case BadContentType, InvalidContent, UnexpectedType:
		return http.StatusBadRequest
	case NotFound:
		return http.StatusNotFound
	case StoreUnavailable, CacheUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
