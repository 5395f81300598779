package http

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"3tcapital/ms_fiscal_receipts/internal/core/audit"
	ctxutil "3tcapital/ms_fiscal_receipts/internal/infrastructure/context"
	"3tcapital/ms_fiscal_receipts/internal/infrastructure/security"
)

type operationKey struct{}

// WithOperation names the outbound call made with ctx in logs and audit
// records. Without it the last path segment of the URL is used.
func WithOperation(ctx context.Context, operation string) context.Context {
	return context.WithValue(ctx, operationKey{}, operation)
}

// TracedClient wraps an HTTP client to log every portal request and response
// and to persist a sanitized audit trail.
type TracedClient struct {
	client       *http.Client
	log          *slog.Logger
	auditRepo    audit.Repository
	portal       string
	auditEnabled bool
	logReqBody   bool
	logRespBody  bool
	maxBodySize  int
}

// TracedClientConfig holds configuration for the traced HTTP client.
type TracedClientConfig struct {
	Timeout         time.Duration
	AuditEnabled    bool
	LogRequestBody  bool
	LogResponseBody bool
	MaxBodySize     int
	MaxConnsPerHost int
	RateLimitRPS    float64 // 0 disables the limiter
	RateLimitBurst  int
}

// NewTracedClient creates a traced client talking to the named portal.
func NewTracedClient(cfg *TracedClientConfig, log *slog.Logger, auditRepo audit.Repository, portal string) *TracedClient {
	if cfg.MaxBodySize == 0 {
		cfg.MaxBodySize = 102400
	}

	headerTimeout := cfg.Timeout
	if headerTimeout <= 0 {
		headerTimeout = 30 * time.Second
	}
	transport := NewRateLimitedTransport(
		NewPooledTransport(cfg.MaxConnsPerHost, headerTimeout),
		cfg.RateLimitRPS,
		cfg.RateLimitBurst,
	)

	return &TracedClient{
		client: NewClient(&ClientConfig{
			Timeout:   cfg.Timeout,
			Transport: transport,
		}),
		log:          log,
		auditRepo:    auditRepo,
		portal:       portal,
		auditEnabled: cfg.AuditEnabled,
		logReqBody:   cfg.LogRequestBody,
		logRespBody:  cfg.LogResponseBody,
		maxBodySize:  cfg.MaxBodySize,
	}
}

// Do executes req, tracing it. Request and response bodies are buffered so
// they stay readable for both the transport and the caller.
func (c *TracedClient) Do(req *http.Request) (*http.Response, error) {
	ctx := req.Context()
	correlationID := ctxutil.GetCorrelationID(ctx)
	operation := c.operation(req)
	start := time.Now()

	if correlationID != "" {
		req.Header.Set("X-Correlation-ID", correlationID)
	}

	var requestBody []byte
	if req.Body != nil {
		var err error
		requestBody, err = io.ReadAll(req.Body)
		if err != nil {
			c.log.Error("failed to read request body for tracing",
				"error", err,
				"correlation_id", correlationID,
			)
		}
		req.Body.Close()
		req.Body = io.NopCloser(bytes.NewReader(requestBody))
	}

	c.logRequest(correlationID, operation, req, requestBody)

	resp, err := c.client.Do(req)
	duration := time.Since(start)

	var responseBody []byte
	if resp != nil && resp.Body != nil {
		var readErr error
		responseBody, readErr = io.ReadAll(resp.Body)
		resp.Body.Close()
		resp.Body = io.NopCloser(bytes.NewReader(responseBody))
		if readErr != nil && err == nil {
			err = readErr
		}
	}

	c.logResponse(correlationID, operation, req, resp, err, duration, responseBody)

	if !c.auditEnabled || c.auditRepo == nil {
		return resp, err
	}

	if correlationID == "" {
		correlationID = "audit-" + uuid.NewString()
		c.log.Warn("missing correlation id, generated fallback",
			"fallback_id", correlationID,
			"operation", operation,
		)
	}

	// The request context ends with the inbound request; the audit write
	// must outlive it.
	go func() {
		defer func() {
			if r := recover(); r != nil {
				c.log.Error("panic in audit log persistence",
					"panic", r,
					"correlation_id", correlationID,
					"operation", operation,
				)
			}
		}()

		saveCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		c.persistAuditLog(saveCtx, correlationID, operation, req, resp, err, duration, requestBody, responseBody)
	}()

	return resp, err
}

func (c *TracedClient) logRequest(correlationID, operation string, req *http.Request, body []byte) {
	attrs := []any{
		"correlation_id", correlationID,
		"portal", c.portal,
		"operation", operation,
		"method", req.Method,
		"url", security.SanitizeURL(req.URL.String()),
	}

	if c.logReqBody && len(body) > 0 {
		sanitized := security.SanitizeBody(body, req.Header.Get("Content-Type"), c.maxBodySize)
		attrs = append(attrs, "request_body", string(sanitized))
	}

	c.log.Info("portal_request", attrs...)
}

func (c *TracedClient) logResponse(correlationID, operation string, req *http.Request, resp *http.Response, err error, duration time.Duration, body []byte) {
	attrs := []any{
		"correlation_id", correlationID,
		"portal", c.portal,
		"operation", operation,
		"method", req.Method,
		"url", security.SanitizeURL(req.URL.String()),
		"duration_ms", duration.Milliseconds(),
	}

	if err != nil {
		attrs = append(attrs, "error", err.Error())
		c.log.Error("portal_request_failed", attrs...)
		return
	}

	attrs = append(attrs, "status", resp.StatusCode, "response_size_bytes", len(body))

	if c.logRespBody && len(body) > 0 {
		sanitized := security.SanitizeBody(body, resp.Header.Get("Content-Type"), c.maxBodySize)
		attrs = append(attrs, "response_body", string(sanitized))
	}

	switch {
	case resp.StatusCode >= 500:
		c.log.Error("portal_response", attrs...)
	case resp.StatusCode >= 400:
		c.log.Warn("portal_response", attrs...)
	default:
		c.log.Info("portal_response", attrs...)
	}
}

func (c *TracedClient) persistAuditLog(ctx context.Context, correlationID, operation string, req *http.Request, resp *http.Response, err error, duration time.Duration, requestBody, responseBody []byte) {
	call := audit.PortalCall{
		CorrelationID:  correlationID,
		Portal:         c.portal,
		Operation:      operation,
		RequestMethod:  req.Method,
		RequestURL:     security.SanitizeURL(req.URL.String()),
		RequestHeaders: security.SanitizeHeaders(req.Header),
		DurationMs:     duration.Milliseconds(),
	}

	if c.logReqBody {
		call.RequestBody = security.SanitizeBody(requestBody, req.Header.Get("Content-Type"), c.maxBodySize)
	}

	if resp != nil {
		status := resp.StatusCode
		call.ResponseStatus = &status
		call.ResponseHeaders = security.SanitizeHeaders(resp.Header)
		if c.logRespBody {
			call.ResponseBody = security.SanitizeBody(responseBody, resp.Header.Get("Content-Type"), c.maxBodySize)
		}
	}

	if err != nil {
		call.ErrorMessage = err.Error()
	}

	if err := c.auditRepo.Save(ctx, call); err != nil {
		c.log.Error("failed to persist audit log",
			"error", err,
			"correlation_id", correlationID,
			"portal", c.portal,
			"operation", operation,
			"response_status", call.ResponseStatus,
		)
		return
	}

	c.log.Debug("audit log persisted",
		"correlation_id", correlationID,
		"portal", c.portal,
		"operation", operation,
	)
}

// operation names a call for logs, preferring the name set by WithOperation.
func (c *TracedClient) operation(req *http.Request) string {
	if op, ok := req.Context().Value(operationKey{}).(string); ok && op != "" {
		return op
	}

	parts := strings.Split(strings.Trim(req.URL.Path, "/"), "/")
	if last := parts[len(parts)-1]; last != "" {
		return last
	}
	return strings.ToLower(req.Method) + "_" + c.portal
}
