package invoice

import (
	"fmt"
	"net/url"
	"strings"
)

// ValidateSourceURL checks that raw is an absolute http(s) URL whose host is
// in allowedHosts. An empty allowedHosts accepts any host.
func ValidateSourceURL(raw string, allowedHosts []string) error {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ErrMissingSourceURL
	}

	parsed, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidSourceURL, err)
	}
	if parsed.Scheme != "https" && parsed.Scheme != "http" {
		return fmt.Errorf("%w: scheme must be http or https", ErrInvalidSourceURL)
	}
	if parsed.Hostname() == "" {
		return fmt.Errorf("%w: host is required", ErrInvalidSourceURL)
	}

	if len(allowedHosts) == 0 {
		return nil
	}
	host := strings.ToLower(parsed.Hostname())
	for _, allowed := range allowedHosts {
		if strings.EqualFold(host, allowed) {
			return nil
		}
	}
	return fmt.Errorf("%w: host %q is not allowed", ErrInvalidSourceURL, host)
}
