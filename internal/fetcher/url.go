package fetcher

import (
	"fmt"
	"net/url"
	"strings"
)

// ExtractDomain extracts the hostname (domain/subdomain) from a URL string
func ExtractDomain(urlStr string) (string, error) {
	// Handle protocol-relative URLs
	if strings.HasPrefix(urlStr, "//") {
		urlStr = "https:" + urlStr
	}

	// Relative URLs carry no host
	if !strings.Contains(urlStr, "://") {
		return "", nil
	}

	parsed, err := url.Parse(urlStr)
	if err != nil {
		return "", err
	}

	return strings.ToLower(parsed.Hostname()), nil
}

// ResolveURL builds the absolute address of page under baseURL.
// Pages are site paths appended verbatim to the base, so a base carrying a
// path prefix (http://host/~user) keeps it. Absolute page URLs pass through.
func ResolveURL(baseURL, page string) (string, error) {
	if page == "" {
		return "", ErrEmptyPage
	}

	target := page
	if !strings.Contains(page, "://") {
		target = strings.TrimRight(baseURL, "/") + "/" + strings.TrimLeft(page, "/")
	}

	parsed, err := url.Parse(target)
	if err != nil {
		return "", fmt.Errorf("malformed page address %q: %w", target, err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return "", fmt.Errorf("malformed page address %q: unsupported scheme %q", target, parsed.Scheme)
	}
	if parsed.Host == "" {
		return "", fmt.Errorf("malformed page address %q: missing host", target)
	}

	return parsed.String(), nil
}
