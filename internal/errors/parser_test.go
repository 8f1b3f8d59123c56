package errors

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

func TestParseError(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		context string
		code    string
		message string
	}{
		{
			name:    "record not found",
			err:     fmt.Errorf("lookup: %w", gorm.ErrRecordNotFound),
			context: "get product",
			code:    ResourceNotFound,
			message: "We couldn't find that product",
		},
		{
			name:    "connection refused",
			err:     errors.New("dial tcp 127.0.0.1:1337: connect: connection refused"),
			context: "list products",
			code:    InternalExternalAPI,
			message: transientMessage,
		},
		{
			name:    "deadline",
			err:     fmt.Errorf("strapi: %w", context.DeadlineExceeded),
			context: "checkout",
			code:    InternalExternalAPI,
			message: transientMessage,
		},
		{
			name:    "other",
			err:     errors.New("boom"),
			context: "checkout",
			code:    InternalServerError,
			message: "We couldn't start checkout. Your cart has been kept, please try again",
		},
		{
			name: "nil",
			code: InternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			info := ParseError(tt.err, tt.context)
			assert.Equal(t, tt.code, info.Code)
			if tt.message != "" {
				assert.Equal(t, tt.message, info.Message)
			}
		})
	}
}

func TestIsTransient(t *testing.T) {
	assert.False(t, IsTransient(nil))
	assert.False(t, IsTransient(errors.New("bad request")))
	assert.True(t, IsTransient(errors.New("circuit breaker is open")))
}
