// Package urlutils provides utilities for handling document host repository
// URLs. It validates HTTPS base addresses and builds the token-authenticated
// form used for cloning and pushing.
package urlutils

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// AuthUsername is the username the document host expects in the URL
// authority. The token is the password; the account email is never used.
const AuthUsername = "git"

// redacted replaces secrets in logged command lines and diagnostics.
const redacted = "***"

var (
	// ErrInvalidURL indicates that the provided URL is not valid
	ErrInvalidURL = errors.New("invalid URL format")

	// ErrMissingHost indicates that the URL has no host component
	ErrMissingHost = errors.New("URL must include a host")

	// ErrEmptyToken indicates that an empty token was provided
	ErrEmptyToken = errors.New("empty token provided")

	// ErrNotHTTPS indicates that the URL does not use HTTPS protocol
	ErrNotHTTPS = errors.New("URL must use HTTPS protocol")
)

// ParseHTTPSURL parses and validates a repository base URL.
// It accepts URLs in the following formats:
//   - https://git.example.com/0123456789abcdef
//   - https://git.example.com:8443/project.git
//
// Any credentials already present in the URL are discarded.
func ParseHTTPSURL(rawURL string) (*url.URL, error) {
	rawURL = strings.TrimSpace(rawURL)
	if strings.HasPrefix(rawURL, "git@") {
		return nil, ErrNotHTTPS
	}
	if !strings.HasPrefix(strings.ToLower(rawURL), "https://") {
		return nil, ErrNotHTTPS
	}

	parsedURL, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}
	if parsedURL.Host == "" || parsedURL.Hostname() == "" {
		return nil, ErrMissingHost
	}

	parsedURL.User = nil
	return parsedURL, nil
}

// FormatTokenURL returns the URL with AuthUsername and the percent-encoded
// token inserted as the authority's user info. Host, port, path and query
// are preserved exactly. The original URL is not modified.
func FormatTokenURL(parsedURL *url.URL, token string) (string, error) {
	if parsedURL == nil {
		return "", fmt.Errorf("%w: nil URL provided", ErrInvalidURL)
	}
	if token == "" {
		return "", ErrEmptyToken
	}

	bare := *parsedURL
	bare.User = nil
	rest := strings.TrimPrefix(bare.String(), bare.Scheme+"://")

	return fmt.Sprintf("%s://%s:%s@%s", bare.Scheme, AuthUsername, EncodeToken(token), rest), nil
}

// AuthenticatedURL validates rawURL and formats it with the token.
func AuthenticatedURL(rawURL, token string) (string, error) {
	parsedURL, err := ParseHTTPSURL(rawURL)
	if err != nil {
		return "", err
	}
	return FormatTokenURL(parsedURL, token)
}

// ValidateURL checks if the provided URL is a usable repository base URL.
func ValidateURL(rawURL string) error {
	_, err := ParseHTTPSURL(rawURL)
	return err
}

// EncodeToken percent-encodes every byte outside the RFC 3986 unreserved set.
func EncodeToken(token string) string {
	const hex = "0123456789ABCDEF"
	var b strings.Builder
	for i := 0; i < len(token); i++ {
		c := token[i]
		if isUnreserved(c) {
			b.WriteByte(c)
			continue
		}
		b.WriteByte('%')
		b.WriteByte(hex[c>>4])
		b.WriteByte(hex[c&0x0f])
	}
	return b.String()
}

// Redact removes the token, raw or encoded, from text.
func Redact(text, token string) string {
	if token == "" {
		return text
	}
	if enc := EncodeToken(token); enc != token {
		text = strings.ReplaceAll(text, enc, redacted)
	}
	return strings.ReplaceAll(text, token, redacted)
}

func isUnreserved(c byte) bool {
	switch {
	case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z', '0' <= c && c <= '9':
		return true
	case c == '-', c == '.', c == '_', c == '~':
		return true
	}
	return false
}
