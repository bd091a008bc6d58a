package postboot

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"net"
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
)

func TestApiError_NewFormatsMessage(t *testing.T) {
	err := ErrNotFound.New("post 7")

	assert.Equal(t, "NOT_FOUND", err.ErrorCode)
	assert.Equal(t, "post 7 not found", err.Message)
	assert.Equal(t, "NOT_FOUND: post 7 not found", err.Error())
}

func TestApiError_IsMatchesOnCode(t *testing.T) {
	err := fmt.Errorf("publishing: %w", ErrNotFound.New("post 7"))

	assert.True(t, errors.Is(err, ErrNotFound))
	assert.False(t, errors.Is(err, ErrConstraintViolation))

	var apiErr ApiError
	assert.True(t, errors.As(err, &apiErr))
	assert.Equal(t, "post 7 not found", apiErr.Message)
}

func TestApiError_WrapKeepsCause(t *testing.T) {
	cause := errors.New("boom")
	err := ErrQueryFailed.Wrap(cause, "boom")

	assert.True(t, errors.Is(err, cause))
	assert.True(t, errors.Is(err, ErrQueryFailed))
}

func TestClassifySQLError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ApiError
	}{
		{"no rows", sql.ErrNoRows, ErrNotFound},
		{"wrapped no rows", fmt.Errorf("scan: %w", sql.ErrNoRows), ErrNotFound},
		{"unique violation", &pq.Error{Code: "23505", Message: "duplicate key"}, ErrConstraintViolation},
		{"not null violation", &pq.Error{Code: "23502", Message: "null value"}, ErrConstraintViolation},
		{"connection exception", &pq.Error{Code: "08006", Message: "connection failure"}, ErrConnectionFailed},
		{"syntax error", &pq.Error{Code: "42601", Message: "syntax error"}, ErrQueryFailed},
		{"bad conn", driver.ErrBadConn, ErrConnectionFailed},
		{"conn done", sql.ErrConnDone, ErrConnectionFailed},
		{"network", &net.OpError{Op: "dial", Net: "tcp", Err: errors.New("refused")}, ErrConnectionFailed},
		{"other", errors.New("something else"), ErrQueryFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ClassifySQLError(tt.err, "posts row")
			assert.True(t, errors.Is(got, tt.want), "got %v, want code %s", got, tt.want.ErrorCode)
			assert.True(t, errors.Is(got, tt.err))
		})
	}
}

func TestClassifySQLError_PassThrough(t *testing.T) {
	assert.NoError(t, ClassifySQLError(nil, "posts"))

	original := ErrInvalidArgument.New("bad column")
	assert.Equal(t, error(original), ClassifySQLError(original, "posts"))

	assert.Equal(t, context.Canceled, ClassifySQLError(context.Canceled, "posts"))
	assert.Equal(t, context.DeadlineExceeded, ClassifySQLError(context.DeadlineExceeded, "posts"))
}

func TestClassifySQLError_ConstraintMessageNamesCode(t *testing.T) {
	err := ClassifySQLError(&pq.Error{Code: "23505", Message: "duplicate key value"}, "posts")

	assert.Contains(t, err.Error(), "CONSTRAINT_VIOLATION")
	assert.Contains(t, err.Error(), "unique_violation")
}
