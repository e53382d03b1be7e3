// Package bridge implements the document tools: read, write, list and
// section replacement against a remote LaTeX repository. Each call clones a
// fresh workspace, works inside it, publishes if it changed something and
// deletes the workspace before returning.
package bridge

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/NicabarNimble/go-texbridge/internal/config"
	"github.com/NicabarNimble/go-texbridge/internal/git"
	"github.com/NicabarNimble/go-texbridge/internal/progress"
)

// ConfigLoader supplies fresh configuration for each operation.
type ConfigLoader interface {
	Load(ctx context.Context) (*config.Config, error)
}

// Service runs bridge operations. It holds no per-operation state and may
// serve concurrent calls; every call works on its own workspace.
type Service struct {
	Loader ConfigLoader
	// Runner overrides the git subprocess runner built from configuration.
	Runner git.Runner
	// BaseDir is the parent directory of workspaces. Empty uses os.TempDir.
	BaseDir string
	Logger  *zap.Logger
}

// NewService creates a Service reading configuration through loader.
func NewService(loader ConfigLoader, logger *zap.Logger) *Service {
	return &Service{Loader: loader, Logger: logger}
}

// operation is the state of one call.
type operation struct {
	id      string
	name    string
	cfg     *config.Config
	creds   config.ProjectCredentials
	ws      *git.Workspace
	runner  git.Runner
	tracker progress.Tracker
	logger  *zap.Logger
}

func (s *Service) logger() *zap.Logger {
	if s.Logger == nil {
		return zap.NewNop()
	}
	return s.Logger
}

// begin loads configuration and acquires a workspace. On success the caller
// must defer op.end.
func (s *Service) begin(ctx context.Context, name string) (*operation, error) {
	if s.Loader == nil {
		return nil, fmt.Errorf("bridge: no configuration loader")
	}

	op := &operation{id: uuid.NewString(), name: name}
	op.logger = s.logger().With(zap.String("op", name), zap.String("op_id", op.id))
	op.tracker = progress.NewLogTracker(op.logger)

	cfg, err := s.Loader.Load(ctx)
	if err != nil {
		op.logger.Warn("configuration unavailable", zap.Error(err))
		return nil, err
	}
	creds, err := cfg.Credentials()
	if err != nil {
		op.logger.Warn("configuration invalid", zap.Error(err))
		return nil, err
	}
	op.cfg, op.creds = cfg, creds

	op.runner = s.Runner
	if op.runner == nil {
		op.runner = &git.ExecRunner{Timeout: cfg.GitTimeout, Logger: op.logger}
	}

	cloner := &git.Cloner{
		Runner:   op.runner,
		BaseDir:  s.BaseDir,
		Progress: op.tracker,
		Logger:   op.logger,
	}
	ws, err := cloner.Acquire(ctx, creds)
	if err != nil {
		op.logger.Error("acquire failed", zap.Error(err))
		return nil, err
	}
	op.ws = ws
	op.logger.Debug("workspace acquired", zap.String("dir", ws.Dir()))
	return op, nil
}

// end releases the workspace.
func (op *operation) end() {
	if err := op.ws.Release(); err != nil {
		op.logger.Error("failed to release workspace", zap.Error(err))
		return
	}
	op.logger.Debug("workspace released")
}

// publish commits and pushes path using the configured identity and
// branches.
func (op *operation) publish(ctx context.Context, path, message string) (git.PublishResult, error) {
	publisher := &git.Publisher{Progress: op.tracker, Logger: op.logger}
	return publisher.Publish(ctx, op.ws, git.PublishOptions{
		Path:     path,
		Message:  message,
		Name:     op.cfg.CommitName,
		Email:    op.creds.CommitEmail,
		Primary:  op.cfg.PrimaryBranch,
		Fallback: op.cfg.FallbackBranch,
	})
}
