// Package urlutil validates media source URLs before they reach the
// download toolchain.
package urlutil

import (
	"fmt"
	"net/url"
	"strings"
)

// URL scheme constants.
const (
	SchemeHTTP  = "http"
	SchemeHTTPS = "https"
)

// ValidateSourceURL checks that raw is an absolute http(s) URL with a host.
// The downloader accepts anything yt-dlp can fetch, so no host allowlist is
// applied here.
func ValidateSourceURL(raw string) error {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return fmt.Errorf("source url is empty")
	}

	parsed, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid source url: %w", err)
	}

	switch strings.ToLower(parsed.Scheme) {
	case SchemeHTTP, SchemeHTTPS:
	default:
		return fmt.Errorf("unsupported url scheme %q", parsed.Scheme)
	}

	if parsed.Host == "" {
		return fmt.Errorf("source url has no host")
	}
	return nil
}
