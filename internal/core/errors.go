package core

import "errors"

// Error codes attached to outbound error frames.
const (
	ErrCodeServerFull        = "server_full"
	ErrCodeRateLimited       = "rate_limited"
	ErrCodeInvalidFormat     = "invalid_format"
	ErrCodeTooManyClassrooms = "too_many_classrooms"
)

var (
	ErrServerFull        = errors.New("server full")
	ErrTooManyClassrooms = errors.New("too many classrooms")
)

// CoreError wraps a code and human-readable message.
type CoreError struct {
	Code    string
	Message string
}

func (e *CoreError) Error() string {
	return e.Message
}

func coreError(code, msg string) *CoreError {
	return &CoreError{Code: code, Message: msg}
}
