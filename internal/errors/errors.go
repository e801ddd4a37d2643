package errors

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"net/http"
	"strconv"
	"time"
)

// Kind classifies a failure so the HTTP adapter can map it to a status once.
type Kind string

const (
	KindValidation        Kind = "VALIDATION_FAILED"
	KindNotFound          Kind = "NOT_FOUND"
	KindUpstreamPermanent Kind = "UPSTREAM_REJECTED"
	KindUnavailable       Kind = "UPSTREAM_UNAVAILABLE"
	KindRateLimited       Kind = "UPSTREAM_RATE_LIMITED"
	KindCanceled          Kind = "REQUEST_CANCELED"
	KindInternal          Kind = "INTERNAL_ERROR"
)

// Error is the typed failure returned across every layer of the service.
type Error struct {
	Kind           Kind
	Field          string
	Message        string
	UpstreamStatus int
	RetryAfter     time.Duration
	Err            error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Validation builds a client error naming the offending field.
func Validation(field string, format string, args ...any) *Error {
	return &Error{
		Kind:    KindValidation,
		Field:   field,
		Message: fmt.Sprintf(format, args...),
	}
}

func NotFound(message string) *Error {
	return &Error{Kind: KindNotFound, Message: message}
}

func UpstreamPermanent(status int, err error) *Error {
	return &Error{
		Kind:           KindUpstreamPermanent,
		Message:        fmt.Sprintf("upstream rejected request with status %d", status),
		UpstreamStatus: status,
		Err:            err,
	}
}

func Unavailable(err error) *Error {
	return &Error{
		Kind:    KindUnavailable,
		Message: "upstream temporarily unavailable",
		Err:     err,
	}
}

func RateLimited(retryAfter time.Duration, err error) *Error {
	return &Error{
		Kind:       KindRateLimited,
		Message:    "upstream rate limit exhausted",
		RetryAfter: retryAfter,
		Err:        err,
	}
}

func Canceled(err error) *Error {
	return &Error{Kind: KindCanceled, Message: "request canceled", Err: err}
}

func Internal(message string, err error) *Error {
	return &Error{Kind: KindInternal, Message: message, Err: err}
}

// KindOf returns the kind of the first *Error in err's chain, or KindInternal.
func KindOf(err error) Kind {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// Status maps an error kind to the HTTP status returned to clients.
func (e *Error) Status() int {
	switch e.Kind {
	case KindValidation:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindUpstreamPermanent:
		if e.UpstreamStatus >= 400 && e.UpstreamStatus < 500 {
			return e.UpstreamStatus
		}
		return http.StatusBadGateway
	case KindUnavailable, KindRateLimited:
		return http.StatusServiceUnavailable
	case KindCanceled:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// ErrorResponse is the JSON structure returned to clients
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail contains the error information
type ErrorDetail struct {
	Code              Kind   `json:"code"`
	Message           string `json:"message"`
	Field             string `json:"field,omitempty"`
	RetryAfterSeconds int64  `json:"retry_after_seconds,omitempty"`
}

// WriteError writes a JSON error response, wrapping unknown errors as internal.
func WriteError(writer http.ResponseWriter, err error) {
	var apiError *Error
	if !stderrors.As(err, &apiError) {
		apiError = Internal("internal error", err)
	}

	detail := ErrorDetail{
		Code:    apiError.Kind,
		Message: apiError.Message,
		Field:   apiError.Field,
	}
	if apiError.Kind == KindInternal {
		detail.Message = "internal error"
	}
	if apiError.RetryAfter > 0 {
		seconds := int64((apiError.RetryAfter + time.Second - 1) / time.Second)
		detail.RetryAfterSeconds = seconds
		writer.Header().Set("Retry-After", strconv.FormatInt(seconds, 10))
	}

	writer.Header().Set("Content-Type", "application/json")
	writer.WriteHeader(apiError.Status())

	json.NewEncoder(writer).Encode(ErrorResponse{Error: detail})
}
