package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/NicabarNimble/go-texbridge/internal/bridge"
	"github.com/NicabarNimble/go-texbridge/internal/config"
	"github.com/NicabarNimble/go-texbridge/internal/git"
	"github.com/NicabarNimble/go-texbridge/internal/packager"
	"github.com/NicabarNimble/go-texbridge/internal/token"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

// app carries state shared by the subcommands.
type app struct {
	configFile string
	logger     *zap.Logger
	cfg        *config.Config
	fs         afero.Fs

	// Overrides for tests.
	loader    bridge.ConfigLoader
	tokens    token.Source
	runner    git.Runner
	baseDir   string
	generator packager.Generator
}

func newRootCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "texbridge",
		Short: "LaTeX repository bridge",
		Long: `Read, rewrite and patch LaTeX documents kept in a private git repository.
Every command clones a fresh copy, works on it, pushes any change and removes the copy.
Run 'texbridge serve' to expose the same operations as MCP tools over stdio.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd.Context())
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
	}

	cmd.PersistentFlags().StringVar(&a.configFile, "config", "", "Config file (default: texbridge.yaml in . or $HOME/.texbridge)")

	cmd.AddCommand(
		newServeCmd(a),
		newReadCmd(a),
		newWriteCmd(a),
		newListCmd(a),
		newReplaceSectionCmd(a),
		newPackageCmd(a),
		newTokenCmd(a),
		newVersionCmd(),
	)

	return cmd
}

func (a *app) setup(ctx context.Context) error {
	if a.fs == nil {
		a.fs = afero.NewOsFs()
	}

	cfg, err := a.configLoader().Load(ctx)
	if err != nil {
		return describe(err)
	}
	a.cfg = cfg

	if a.logger == nil {
		logger, err := newLogger(cfg.LogLevel)
		if err != nil {
			return err
		}
		a.logger = logger
	}
	return nil
}

func (a *app) configLoader() bridge.ConfigLoader {
	if a.loader != nil {
		return a.loader
	}
	return &config.Loader{ConfigFile: a.configFile, Tokens: a.tokenSource()}
}

func (a *app) tokenSource() token.Source {
	if a.tokens == nil {
		a.tokens = token.NewEnvSource()
	}
	return a.tokens
}

func (a *app) service() *bridge.Service {
	return &bridge.Service{
		Loader:  a.configLoader(),
		Runner:  a.runner,
		BaseDir: a.baseDir,
		Logger:  a.logger,
	}
}

// packager returns a Packager. Without an API key the packager has no
// generator and reports that instead of failing here.
func (a *app) packager(ctx context.Context) (*packager.Packager, error) {
	gen := a.generator
	if gen == nil && a.cfg != nil && a.cfg.GeminiAPIKey != "" {
		g, err := packager.NewGeminiGenerator(ctx, a.cfg.GeminiAPIKey, a.cfg.PackagerModel)
		if err != nil {
			return nil, err
		}
		gen = g
	}
	return &packager.Packager{Generator: gen, Logger: a.logger}, nil
}

// newLogger builds a production logger on stderr. Stdout is reserved for
// command output and the MCP transport.
func newLogger(level string) (*zap.Logger, error) {
	level = strings.ToLower(strings.TrimSpace(level))
	if level == "none" || level == "off" {
		return zap.NewNop(), nil
	}
	if level == "" {
		level = config.DefaultLogLevel
	}

	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}

	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	cfg.OutputPaths = []string{"stderr"}
	cfg.ErrorOutputPaths = []string{"stderr"}
	return cfg.Build()
}

// describedError renders a fatal bridge outcome the way tool callers see it.
type describedError struct {
	err error
}

func (e *describedError) Error() string { return bridge.Describe(e.err) }
func (e *describedError) Unwrap() error { return e.err }

func describe(err error) error {
	if err == nil {
		return nil
	}
	return &describedError{err: err}
}

// outcome prints informational results to w and returns fatal ones.
func outcome(w io.Writer, err error) error {
	if err == nil {
		return nil
	}
	if !bridge.Fatal(err) {
		fmt.Fprintln(w, bridge.Describe(err))
		return nil
	}
	return describe(err)
}

// readInput reads a file, or stdin when path is empty or "-".
func (a *app) readInput(cmd *cobra.Command, path string) (string, error) {
	if path == "" || path == "-" {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return "", fmt.Errorf("failed to read stdin: %w", err)
		}
		return string(data), nil
	}
	data, err := afero.ReadFile(a.fs, path)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", path, err)
	}
	return string(data), nil
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		// Printing the version needs no configuration.
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "texbridge %s\n", version)
		},
	}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rootCmd := newRootCmd(&app{})
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		var de *describedError
		if errors.As(err, &de) {
			fmt.Fprintln(os.Stderr, err)
		} else {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		stop()
		os.Exit(1)
	}
}
