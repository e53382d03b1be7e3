// Package token looks up the access token for the document repository.
//
// The bridge only reads tokens; it never stores or rotates them. A token is
// found under a key, by default TEXBRIDGE, in the variable GIT_TOKEN_<KEY>:
//
//	export GIT_TOKEN_TEXBRIDGE="olp_..."
//
// The variable holds either the bare token or a JSON envelope carrying an
// expiry:
//
//	{"value":"olp_...","expires_at":"2026-12-31T00:00:00Z"}
package token

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrTokenNotFound = errors.New("token not found")
	ErrTokenInvalid  = errors.New("token is invalid")
	ErrTokenExpired  = errors.New("token has expired")
)

// Token is an access token and its optional expiry.
type Token struct {
	Value string `json:"value"`
	// ExpiresAt is zero for tokens without an expiry.
	ExpiresAt time.Time `json:"expires_at"`
}

// Expired reports whether t has an expiry in the past.
func (t Token) Expired() bool {
	return !t.ExpiresAt.IsZero() && time.Now().After(t.ExpiresAt)
}

// Source resolves tokens by key.
type Source interface {
	// Lookup returns the usable token for key, or ErrTokenNotFound,
	// ErrTokenInvalid or ErrTokenExpired.
	Lookup(ctx context.Context, key string) (Token, error)
	// Keys lists the keys the source can resolve, sorted.
	Keys(ctx context.Context) ([]string, error)
}

// Parse decodes a bare token or a JSON envelope and checks it is usable.
func Parse(raw string) (Token, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Token{}, ErrTokenNotFound
	}

	tok := Token{Value: raw}
	if strings.HasPrefix(raw, "{") {
		tok = Token{}
		if err := json.Unmarshal([]byte(raw), &tok); err != nil {
			return Token{}, fmt.Errorf("%w: malformed envelope: %v", ErrTokenInvalid, err)
		}
		tok.Value = strings.TrimSpace(tok.Value)
	}

	switch {
	case tok.Value == "" || strings.ContainsAny(tok.Value, " \t\r\n"):
		return Token{}, ErrTokenInvalid
	case tok.Expired():
		return Token{}, fmt.Errorf("%w on %s", ErrTokenExpired, tok.ExpiresAt.Format(time.RFC3339))
	}
	return tok, nil
}
