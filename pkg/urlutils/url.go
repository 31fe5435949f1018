// Package urlutils validates and resolves the links the bot hands to the operator.
package urlutils

import "net/url"

// IsWebURL checks that a URL is absolute and uses http or https
func IsWebURL(urlStr string) bool {
	u, err := url.Parse(urlStr)
	if err != nil || u.Host == "" {
		return false
	}
	return u.Scheme == "http" || u.Scheme == "https"
}

// ResolveURL resolves a relative URL against a base URL
// If the URL is already absolute, it returns it unchanged
func ResolveURL(baseURL, relativeURL string) (string, error) {
	// Parse the relative URL
	rel, err := url.Parse(relativeURL)
	if err != nil {
		return "", err
	}

	// If it's already absolute, return as-is
	if rel.IsAbs() {
		return relativeURL, nil
	}

	// Parse the base URL
	base, err := url.Parse(baseURL)
	if err != nil {
		return "", err
	}

	// Resolve the relative URL against the base
	resolved := base.ResolveReference(rel)
	return resolved.String(), nil
}
