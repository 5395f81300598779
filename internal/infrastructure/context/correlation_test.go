package context

import (
	"context"
	"testing"

	"github.com/google/uuid"
)

func TestCorrelationID(t *testing.T) {
	tests := []struct {
		name     string
		ctx      context.Context
		expected string
	}{
		{
			name:     "returns correlation ID when present",
			ctx:      WithCorrelationID(context.Background(), "req-123"),
			expected: "req-123",
		},
		{
			name:     "returns empty string when not present",
			ctx:      context.Background(),
			expected: "",
		},
		{
			name:     "ignores values of another type",
			ctx:      context.WithValue(context.Background(), CorrelationIDKey, 42),
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := GetCorrelationID(tt.ctx); got != tt.expected {
				t.Errorf("expected %q, got %q", tt.expected, got)
			}
		})
	}
}

func TestUserID(t *testing.T) {
	id := uuid.MustParse("6f1c2d3e-4b5a-4c6d-8e7f-9a0b1c2d3e4f")

	got, ok := GetUserID(WithUserID(context.Background(), id))
	if !ok || got != id {
		t.Errorf("expected %s, got %s (ok=%v)", id, got, ok)
	}

	if _, ok := GetUserID(context.Background()); ok {
		t.Error("expected no user id on empty context")
	}

	if _, ok := GetUserID(WithUserID(context.Background(), uuid.Nil)); ok {
		t.Error("expected nil uuid to be treated as absent")
	}
}
