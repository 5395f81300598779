package audit

import (
	"context"
	"encoding/json"
	"time"
)

// PortalCall is the audit record of one outbound request to the fiscal
// portal. Headers and bodies are stored already sanitized.
type PortalCall struct {
	ID              int64
	CorrelationID   string
	Portal          string
	Operation       string
	RequestMethod   string
	RequestURL      string
	RequestHeaders  map[string]string
	RequestBody     json.RawMessage
	ResponseStatus  *int
	ResponseHeaders map[string]string
	ResponseBody    json.RawMessage
	DurationMs      int64
	ErrorMessage    string
	CreatedAt       time.Time
}

// Repository persists and reads portal call records.
type Repository interface {
	Save(ctx context.Context, call PortalCall) error

	// FindByCorrelationID returns every call made while serving one inbound
	// request, newest first.
	FindByCorrelationID(ctx context.Context, correlationID string) ([]PortalCall, error)
}
