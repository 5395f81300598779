package security

import (
	"bytes"
	"compress/gzip"
	"encoding/base64"
	"encoding/json"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strings"
	"unicode/utf8"
)

const redactedValue = "[REDACTED]"

var sensitiveHeaders = map[string]bool{
	"authorization":       true,
	"proxy-authorization": true,
	"cookie":              true,
	"set-cookie":          true,
	"apikey":              true,
	"x-api-key":           true,
	"x-auth-token":        true,
}

// sensitiveFields are matched as substrings of lower-cased body keys and
// query parameter names.
var sensitiveFields = []string{
	"password",
	"secret",
	"token",
	"apikey",
	"api_key",
	"authorization",
	"private_key",
	"credential",
	"session",
}

// SanitizeHeaders flattens headers into a map with sensitive values redacted.
func SanitizeHeaders(headers http.Header) map[string]string {
	sanitized := make(map[string]string, len(headers))
	for key, values := range headers {
		if sensitiveHeaders[strings.ToLower(key)] {
			sanitized[key] = redactedValue
			continue
		}
		sanitized[key] = strings.Join(values, ", ")
	}
	return sanitized
}

// SanitizeBody turns a request or response body into a JSON document safe to
// store. JSON bodies and form-encoded bodies have sensitive fields redacted;
// other text is wrapped verbatim and binary data is base64 encoded. Bodies
// larger than maxSize are truncated to a preview.
func SanitizeBody(body []byte, contentType string, maxSize int) json.RawMessage {
	if len(body) == 0 {
		return nil
	}

	if len(body) >= 2 && body[0] == 0x1f && body[1] == 0x8b {
		decompressed, err := decompressGzip(body)
		if err != nil {
			return wrapBinaryAsJSON(body, "gzip-compressed (decompression failed)")
		}
		body = decompressed
	}

	if !utf8.Valid(body) {
		return wrapBinaryAsJSON(body, "binary (non-UTF8)")
	}

	if isFormEncoded(contentType) {
		if sanitized, ok := sanitizeForm(body); ok {
			return sanitized
		}
	}

	if maxSize > 0 && len(body) > maxSize {
		return marshalWrapper(map[string]any{
			"_truncated": true,
			"_size":      len(body),
			"_preview":   string(body[:maxSize]),
		})
	}

	var data any
	if err := json.Unmarshal(body, &data); err != nil {
		return wrapText(body)
	}

	result, err := json.Marshal(sanitizeValue(data))
	if err != nil {
		return wrapText(body)
	}
	return json.RawMessage(result)
}

// SanitizeURL redacts the values of sensitive query parameters.
func SanitizeURL(raw string) string {
	parsed, err := url.Parse(raw)
	if err != nil || parsed.RawQuery == "" {
		return raw
	}

	query := parsed.Query()
	changed := false
	for name := range query {
		if isSensitiveField(name) {
			query[name] = []string{redactedValue}
			changed = true
		}
	}
	if !changed {
		return raw
	}

	parsed.RawQuery = encodeKeepingRedaction(query)
	return parsed.String()
}

func isFormEncoded(contentType string) bool {
	if contentType == "" {
		return false
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	return err == nil && mediaType == "application/x-www-form-urlencoded"
}

// sanitizeForm decodes a form body into a JSON object, one value per field.
func sanitizeForm(body []byte) (json.RawMessage, bool) {
	values, err := url.ParseQuery(string(body))
	if err != nil {
		return nil, false
	}

	fields := make(map[string]any, len(values))
	for name, vals := range values {
		switch {
		case isSensitiveField(name):
			fields[name] = redactedValue
		case len(vals) == 1:
			fields[name] = vals[0]
		default:
			fields[name] = vals
		}
	}
	return marshalWrapper(map[string]any{
		"_format": "form",
		"fields":  fields,
	}), true
}

func isSensitiveField(name string) bool {
	lower := strings.ToLower(name)
	for _, field := range sensitiveFields {
		if strings.Contains(lower, field) {
			return true
		}
	}
	return false
}

// encodeKeepingRedaction encodes query like url.Values.Encode but leaves the
// redaction marker readable.
func encodeKeepingRedaction(query url.Values) string {
	escaped := url.QueryEscape(redactedValue)
	return strings.ReplaceAll(query.Encode(), escaped, redactedValue)
}

func decompressGzip(data []byte) ([]byte, error) {
	reader, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer reader.Close()

	return io.ReadAll(reader)
}

func wrapBinaryAsJSON(data []byte, format string) json.RawMessage {
	return marshalWrapper(map[string]any{
		"_binary": true,
		"_format": format,
		"_size":   len(data),
		"_base64": base64.StdEncoding.EncodeToString(data),
	})
}

func wrapText(body []byte) json.RawMessage {
	return marshalWrapper(map[string]any{
		"_raw":    string(body),
		"_format": "text",
	})
}

func marshalWrapper(v map[string]any) json.RawMessage {
	result, _ := json.Marshal(v)
	return json.RawMessage(result)
}

func sanitizeValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		sanitized := make(map[string]any, len(val))
		for key, value := range val {
			if isSensitiveField(key) {
				sanitized[key] = redactedValue
				continue
			}
			sanitized[key] = sanitizeValue(value)
		}
		return sanitized
	case []any:
		sanitized := make([]any, len(val))
		for i, value := range val {
			sanitized[i] = sanitizeValue(value)
		}
		return sanitized
	default:
		return val
	}
}
