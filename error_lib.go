package postboot

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"net"

	"github.com/lib/pq"
)

type ApiError struct {
	ErrorCode string `json:"error_code"`
	Message   string `json:"message"`
	Cause     error  `json:"-"`
}

var (
	ErrMissingConfig       = ApiError{ErrorCode: "MISSING_CONFIG", Message: "%s must be set"}
	ErrConnectionFailed    = ApiError{ErrorCode: "CONNECTION_FAILED", Message: "could not connect to database: %s"}
	ErrNotFound            = ApiError{ErrorCode: "NOT_FOUND", Message: "%s not found"}
	ErrConstraintViolation = ApiError{ErrorCode: "CONSTRAINT_VIOLATION", Message: "constraint violated: %s"}
	ErrInvalidArgument     = ApiError{ErrorCode: "INVALID_ARGUMENT", Message: "%s"}
	ErrQueryFailed         = ApiError{ErrorCode: "QUERY_FAILED", Message: "query failed: %s"}
	ErrReadFailed          = ApiError{ErrorCode: "READ_FAILED", Message: "reading %s: %s"}
)

func (e ApiError) New(messages ...string) ApiError {
	args := make([]any, len(messages))
	for i, msg := range messages {
		args[i] = msg
	}

	message := fmt.Sprintf(e.Message, args...)
	return ApiError{
		ErrorCode: e.ErrorCode,
		Message:   message,
	}
}

// Wrap is like New but keeps err as the cause.
func (e ApiError) Wrap(err error, messages ...string) ApiError {
	wrapped := e.New(messages...)
	wrapped.Cause = err
	return wrapped
}

func (e ApiError) Error() string {
	return fmt.Sprintf("%s: %s", e.ErrorCode, e.Message)
}

func (e ApiError) Unwrap() error {
	return e.Cause
}

// Is matches on the error code only, so errors.Is(err, ErrNotFound) holds for
// any NOT_FOUND error regardless of its message.
func (e ApiError) Is(target error) bool {
	var other ApiError
	if !errors.As(target, &other) {
		return false
	}
	return e.ErrorCode == other.ErrorCode
}

// ClassifySQLError maps a database/sql or lib/pq error onto the ApiError
// taxonomy. Errors that are already ApiErrors pass through unchanged.
func ClassifySQLError(err error, subject string) error {
	if err == nil {
		return nil
	}

	var apiErr ApiError
	if errors.As(err, &apiErr) {
		return err
	}

	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound.Wrap(err, subject)
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		if pqErr.Code.Class() == "23" {
			return ErrConstraintViolation.Wrap(err, fmt.Sprintf("%s (%s)", pqErr.Message, pqErr.Code.Name()))
		}
		if pqErr.Code.Class() == "08" {
			return ErrConnectionFailed.Wrap(err, pqErr.Message)
		}
		return ErrQueryFailed.Wrap(err, pqErr.Message)
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}

	var netErr net.Error
	if errors.Is(err, driver.ErrBadConn) || errors.Is(err, sql.ErrConnDone) || errors.As(err, &netErr) {
		return ErrConnectionFailed.Wrap(err, err.Error())
	}

	return ErrQueryFailed.Wrap(err, err.Error())
}
