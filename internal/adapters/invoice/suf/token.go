package suf

import (
	"regexp"

	"3tcapital/ms_fiscal_receipts/internal/core/invoice"
)

// tokenPattern matches token('<uuid>') or token("<uuid>") in the page
// scripts. Each quote kind has its own group so the closing quote must match.
var tokenPattern = regexp.MustCompile(`(?i)token\((?:'([a-f0-9-]{36})'|"([a-f0-9-]{36})")\)`)

// TokenExtractor finds the session token the invoice page passes to its
// specifications request.
type TokenExtractor struct{}

// NewTokenExtractor creates a token extractor.
func NewTokenExtractor() *TokenExtractor {
	return &TokenExtractor{}
}

// Extract implements invoice.TokenExtractor. The first match wins.
func (TokenExtractor) Extract(page invoice.RawPage) (invoice.SessionToken, bool) {
	m := tokenPattern.FindStringSubmatch(string(page))
	if m == nil {
		return "", false
	}
	if m[1] != "" {
		return invoice.SessionToken(m[1]), true
	}
	return invoice.SessionToken(m[2]), true
}
