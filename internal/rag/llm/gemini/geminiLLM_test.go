package gemini

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/akolanti/alexandria/internal/domain/ragError"
	"github.com/stretchr/testify/assert"
	"google.golang.org/genai"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ragError.Kind
	}{
		{"api 429", genai.APIError{Code: 429, Message: "quota"}, ragError.RateLimited},
		{"api 503", fmt.Errorf("stream: %w", genai.APIError{Code: 503}), ragError.TransientFailure},
		{"api 401", genai.APIError{Code: 401}, ragError.InvalidConfiguration},
		{"api 400", genai.APIError{Code: 400}, ragError.PermanentFailure},
		{"grpc exhausted", status.Error(codes.ResourceExhausted, "slow down"), ragError.RateLimited},
		{"grpc unavailable", status.Error(codes.Unavailable, "down"), ragError.TransientFailure},
		{"grpc deadline", status.Error(codes.DeadlineExceeded, "late"), ragError.TransientFailure},
		{"deadline", fmt.Errorf("stream: %w", context.DeadlineExceeded), ragError.TransientFailure},
		{"broken chunk", errors.New("unexpected EOF"), ragError.StreamFailure},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ragError.KindOf(classify("gemini.Stream", tt.err)))
		})
	}
}

func TestClassify_CancelledPassesThrough(t *testing.T) {
	err := classify("gemini.Stream", fmt.Errorf("stream: %w", context.Canceled))

	assert.ErrorIs(t, err, context.Canceled)
	var classified *ragError.Error
	assert.False(t, errors.As(err, &classified))
}
