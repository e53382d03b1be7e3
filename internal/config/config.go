// Package config loads bridge settings from the environment and an optional
// config file. Settings are read fresh for every operation; nothing here is
// cached between calls.
package config

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/NicabarNimble/go-texbridge/internal/errors"
	"github.com/NicabarNimble/go-texbridge/internal/token"
	"github.com/NicabarNimble/go-texbridge/internal/urlutils"
)

// EnvPrefix is prepended to every configuration key when read from the
// environment, e.g. TEXBRIDGE_REPO_URL.
const EnvPrefix = "TEXBRIDGE"

// Configuration keys.
const (
	KeyRepoURL        = "repo_url"
	KeyToken          = "token"
	KeyTokenKey       = "token_key"
	KeyCommitEmail    = "commit_email"
	KeyCommitName     = "commit_name"
	KeyPrimaryBranch  = "primary_branch"
	KeyFallbackBranch = "fallback_branch"
	KeyGitTimeout     = "git_timeout"
	KeyLogLevel       = "log_level"
	KeyGeminiAPIKey   = "gemini_api_key"
	KeyPackagerModel  = "packager_model"
)

// Defaults.
const (
	DefaultTokenKey       = "TEXBRIDGE"
	DefaultCommitEmail    = "texbridge-bot@users.noreply.local"
	DefaultCommitName     = "LaTeX Bridge Bot"
	DefaultPrimaryBranch  = "master"
	DefaultFallbackBranch = "main"
	DefaultGitTimeout     = 2 * time.Minute
	DefaultLogLevel       = "info"
	DefaultPackagerModel  = "gemini-2.5-flash"
)

// Config holds the resolved settings for one operation.
type Config struct {
	RepoURL        string
	Token          string
	TokenKey       string
	CommitEmail    string
	CommitName     string
	PrimaryBranch  string
	FallbackBranch string
	GitTimeout     time.Duration
	LogLevel       string
	GeminiAPIKey   string
	PackagerModel  string

	// ConfigFileUsed is the file the settings were read from, if any.
	ConfigFileUsed string
}

// ProjectCredentials identify the remote document repository. They are built
// from Config at the start of an operation and never persisted.
type ProjectCredentials struct {
	RepoURL     string
	Token       string
	CommitEmail string
}

// String hides the token.
func (c ProjectCredentials) String() string {
	return fmt.Sprintf("ProjectCredentials{RepoURL: %s, Token: ***, CommitEmail: %s}", c.RepoURL, c.CommitEmail)
}

// Loader reads configuration. The zero value reads the environment and the
// default config file locations only.
type Loader struct {
	// ConfigFile overrides the config file search when set.
	ConfigFile string
	// Tokens is consulted under TokenKey when no token is configured directly.
	Tokens token.Source
}

// Load reads a fresh Config.
func (l *Loader) Load(ctx context.Context) (*Config, error) {
	v := newViper()

	if l.ConfigFile != "" {
		v.SetConfigFile(l.ConfigFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.NewBridgeError(errors.KindConfiguration, "config",
				fmt.Sprintf("failed to read config file %s", l.ConfigFile), err)
		}
	} else {
		v.SetConfigName("texbridge")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.texbridge")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !stderrors.As(err, &notFound) {
				return nil, errors.NewBridgeError(errors.KindConfiguration, "config",
					"failed to read config file", err)
			}
		}
	}

	cfg := &Config{
		RepoURL:        strings.TrimSpace(v.GetString(KeyRepoURL)),
		Token:          strings.TrimSpace(v.GetString(KeyToken)),
		TokenKey:       v.GetString(KeyTokenKey),
		CommitEmail:    strings.TrimSpace(v.GetString(KeyCommitEmail)),
		CommitName:     v.GetString(KeyCommitName),
		PrimaryBranch:  v.GetString(KeyPrimaryBranch),
		FallbackBranch: v.GetString(KeyFallbackBranch),
		GitTimeout:     v.GetDuration(KeyGitTimeout),
		LogLevel:       strings.ToLower(v.GetString(KeyLogLevel)),
		GeminiAPIKey:   strings.TrimSpace(v.GetString(KeyGeminiAPIKey)),
		PackagerModel:  v.GetString(KeyPackagerModel),
		ConfigFileUsed: v.ConfigFileUsed(),
	}

	if cfg.Token == "" && l.Tokens != nil && cfg.TokenKey != "" {
		tok, err := l.Tokens.Lookup(ctx, cfg.TokenKey)
		switch {
		case err == nil:
			cfg.Token = tok.Value
		case stderrors.Is(err, token.ErrTokenNotFound):
			// Credentials() reports the missing token.
		default:
			return nil, errors.NewBridgeError(errors.KindConfiguration, "config",
				fmt.Sprintf("failed to read token %q", cfg.TokenKey), err)
		}
	}

	cfg.mergeDefaults()
	return cfg, nil
}

// Load reads configuration using the default Loader backed by GIT_TOKEN_*
// environment variables.
func Load(ctx context.Context, configFile string) (*Config, error) {
	l := &Loader{ConfigFile: configFile, Tokens: token.NewEnvSource()}
	return l.Load(ctx)
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()

	v.SetDefault(KeyRepoURL, "")
	v.SetDefault(KeyToken, "")
	v.SetDefault(KeyTokenKey, DefaultTokenKey)
	v.SetDefault(KeyCommitEmail, DefaultCommitEmail)
	v.SetDefault(KeyCommitName, DefaultCommitName)
	v.SetDefault(KeyPrimaryBranch, DefaultPrimaryBranch)
	v.SetDefault(KeyFallbackBranch, DefaultFallbackBranch)
	v.SetDefault(KeyGitTimeout, DefaultGitTimeout)
	v.SetDefault(KeyLogLevel, DefaultLogLevel)
	v.SetDefault(KeyGeminiAPIKey, "")
	v.SetDefault(KeyPackagerModel, DefaultPackagerModel)

	// The packager key is also honoured under its conventional unprefixed name.
	_ = v.BindEnv(KeyGeminiAPIKey, EnvPrefix+"_GEMINI_API_KEY", "GEMINI_API_KEY")
	return v
}

// mergeDefaults fills values that were explicitly set to blank.
func (c *Config) mergeDefaults() {
	if c.CommitEmail == "" {
		c.CommitEmail = DefaultCommitEmail
	}
	if strings.TrimSpace(c.CommitName) == "" {
		c.CommitName = DefaultCommitName
	}
	if c.PrimaryBranch == "" {
		c.PrimaryBranch = DefaultPrimaryBranch
	}
	if c.FallbackBranch == "" {
		c.FallbackBranch = DefaultFallbackBranch
	}
	if c.GitTimeout <= 0 {
		c.GitTimeout = DefaultGitTimeout
	}
	if c.LogLevel == "" {
		c.LogLevel = DefaultLogLevel
	}
	if c.PackagerModel == "" {
		c.PackagerModel = DefaultPackagerModel
	}
}

// Credentials validates the repository settings and returns them. Missing or
// malformed values yield a configuration error.
func (c *Config) Credentials() (ProjectCredentials, error) {
	const op = "credentials"

	if c.RepoURL == "" {
		return ProjectCredentials{}, errors.NewBridgeError(errors.KindConfiguration, op,
			fmt.Sprintf("repository URL is not configured (set %s_%s)", EnvPrefix, strings.ToUpper(KeyRepoURL)), nil)
	}
	if err := urlutils.ValidateURL(c.RepoURL); err != nil {
		return ProjectCredentials{}, errors.NewBridgeError(errors.KindConfiguration, op,
			"repository URL must be an https:// address", err)
	}
	if c.Token == "" {
		return ProjectCredentials{}, errors.NewBridgeError(errors.KindConfiguration, op,
			fmt.Sprintf("access token is not configured (set %s_%s or %s)",
				EnvPrefix, strings.ToUpper(KeyToken), token.VarName(c.TokenKey)), nil)
	}

	email := c.CommitEmail
	if email == "" {
		email = DefaultCommitEmail
	}
	return ProjectCredentials{RepoURL: c.RepoURL, Token: c.Token, CommitEmail: email}, nil
}
