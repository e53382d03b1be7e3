package token

import (
	"context"
	"os"
	"sort"
	"strings"
)

// EnvPrefix starts every token variable name.
const EnvPrefix = "GIT_TOKEN_"

// EnvSource reads tokens from GIT_TOKEN_<KEY> variables.
type EnvSource struct{}

// NewEnvSource returns a Source backed by the process environment.
func NewEnvSource() *EnvSource {
	return &EnvSource{}
}

// Lookup parses the variable for key.
func (EnvSource) Lookup(_ context.Context, key string) (Token, error) {
	return Parse(os.Getenv(VarName(key)))
}

// Keys returns the keys of all non-empty token variables.
func (EnvSource) Keys(_ context.Context) ([]string, error) {
	var keys []string
	for _, env := range os.Environ() {
		name, value, _ := strings.Cut(env, "=")
		key := strings.TrimPrefix(name, EnvPrefix)
		if key == name || key == "" || strings.TrimSpace(value) == "" {
			continue
		}
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys, nil
}

// VarName maps a key to its variable name: upper-cased, with every
// character outside A-Z and 0-9 replaced by an underscore.
func VarName(key string) string {
	return EnvPrefix + strings.Map(func(r rune) rune {
		if (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			return r
		}
		return '_'
	}, strings.ToUpper(key))
}
