package git

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/afero"
	"go.uber.org/zap"

	"github.com/NicabarNimble/go-texbridge/internal/config"
	"github.com/NicabarNimble/go-texbridge/internal/errors"
	"github.com/NicabarNimble/go-texbridge/internal/progress"
	"github.com/NicabarNimble/go-texbridge/internal/urlutils"
)

// workspacePattern names the temporary clone directories.
const workspacePattern = "texbridge-*"

// Cloner acquires fresh workspaces.
type Cloner struct {
	// Runner defaults to an ExecRunner.
	Runner Runner
	// BaseDir is the parent of new workspaces. Empty uses os.TempDir.
	BaseDir string
	// Progress receives the clone phase.
	Progress progress.Tracker
	Logger   *zap.Logger
}

// Acquire clones the repository named by creds into a new temporary
// directory. The returned Workspace is owned by the caller, who must call
// Release once the operation's result has been produced. On error no
// directory is left behind.
func (c *Cloner) Acquire(ctx context.Context, creds config.ProjectCredentials) (*Workspace, error) {
	const op = "clone"
	tracker := progress.OrNop(c.Progress)

	if creds.RepoURL == "" {
		return nil, errors.NewBridgeError(errors.KindConfiguration, op, "repository URL is not configured", nil)
	}
	if creds.Token == "" {
		return nil, errors.NewBridgeError(errors.KindConfiguration, op, "access token is not configured", nil)
	}
	authURL, err := urlutils.AuthenticatedURL(creds.RepoURL, creds.Token)
	if err != nil {
		return nil, errors.NewBridgeError(errors.KindConfiguration, op, "repository URL must be an https:// address", err)
	}

	dir, err := os.MkdirTemp(c.BaseDir, workspacePattern)
	if err != nil {
		return nil, errors.NewBridgeError(errors.KindCloneFailure, op, "failed to create workspace directory", err)
	}

	runner := c.Runner
	if runner == nil {
		runner = &ExecRunner{Logger: c.Logger}
	}

	tracker.Start(op)
	_, err = runner.Run(ctx, Command{
		Args:   []string{"clone", "--quiet", authURL, dir},
		Secret: creds.Token,
	})
	if err != nil {
		tracker.Error(err)
		if rmErr := os.RemoveAll(dir); rmErr != nil && c.Logger != nil {
			c.Logger.Warn("failed to remove workspace after clone failure",
				zap.String("dir", dir), zap.Error(rmErr))
		}
		return nil, errors.NewBridgeCommandError(errors.KindCloneFailure, op,
			fmt.Sprintf("failed to clone %s", creds.RepoURL), err)
	}
	tracker.Complete()

	return &Workspace{
		dir:    dir,
		fs:     afero.NewBasePathFs(afero.NewOsFs(), dir),
		runner: runner,
		secret: creds.Token,
	}, nil
}
