package git

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/NicabarNimble/go-texbridge/internal/config"
	"github.com/NicabarNimble/go-texbridge/internal/errors"
	"github.com/NicabarNimble/go-texbridge/internal/progress"
)

// Remote is the remote created by clone.
const Remote = "origin"

// PublishOptions describe one publish.
type PublishOptions struct {
	// Path is the document to stage, relative to the workspace root.
	Path    string
	Message string
	// Name and Email form the commit identity. Blank values use the
	// configured bot defaults.
	Name  string
	Email string
	// Primary is pushed first; Fallback is tried exactly once if that fails.
	Primary  string
	Fallback string
}

// PublishResult is the transient outcome of a publish.
type PublishResult struct {
	// Committed is true when a new commit was recorded.
	Committed bool
	// NoChanges is true when the content matched the last commit. Nothing is
	// pushed in that case.
	NoChanges bool
	// Branch is the branch that accepted the push.
	Branch string
	// PushAttempts counts push invocations, at most two.
	PushAttempts int
	// Output is the git output of the last push attempt.
	Output string
}

// UsedFallback reports whether the primary push was rejected.
func (r PublishResult) UsedFallback() bool {
	return r.PushAttempts > 1 && r.Branch != ""
}

// Publisher stages, commits and pushes a change.
type Publisher struct {
	// Progress receives the commit and push phases.
	Progress progress.Tracker
	Logger   *zap.Logger
}

// Publish commits opts.Path in ws and pushes it. A commit with nothing to
// record yields NoChanges and a nil error. When both pushes fail the error is
// a publish failure carrying the second attempt's output.
func (p *Publisher) Publish(ctx context.Context, ws *Workspace, opts PublishOptions) (PublishResult, error) {
	const op = "publish"
	var result PublishResult
	tracker := progress.OrNop(p.Progress)
	logger := p.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	rooted, err := ws.resolve(opts.Path)
	if err != nil {
		return result, err
	}
	path := strings.TrimPrefix(rooted, "/")
	opts = withPublishDefaults(opts, path)

	steps := [][]string{
		{"config", "user.name", opts.Name},
		{"config", "user.email", opts.Email},
		{"add", "--", path},
	}
	commitSteps := int64(len(steps) + 1)

	tracker.Start("commit")
	for i, args := range steps {
		tracker.Update(int64(i+1), commitSteps)
		if _, err := ws.run(ctx, args...); err != nil {
			tracker.Error(err)
			return result, errors.NewBridgeCommandError(errors.KindPublishFailure, op,
				fmt.Sprintf("git %s failed", args[0]), err)
		}
	}

	tracker.Update(commitSteps, commitSteps)
	res, err := ws.run(ctx, "commit", "-m", opts.Message)
	if err != nil {
		if nothingToCommit(res) {
			tracker.Complete()
			logger.Info("nothing to commit", zap.String("path", path))
			result.NoChanges = true
			return result, nil
		}
		tracker.Error(err)
		return result, errors.NewBridgeCommandError(errors.KindPublishFailure, op, "commit failed", err)
	}
	tracker.Complete()
	result.Committed = true

	var lastErr error
	branches := []string{opts.Primary, opts.Fallback}
	for _, branch := range branches {
		result.PushAttempts++
		tracker.Start("push " + branch)
		tracker.Update(int64(result.PushAttempts), int64(len(branches)))
		res, err := ws.run(ctx, "push", Remote, "HEAD:"+branch)
		result.Output = res.Output()
		if err == nil {
			tracker.Complete()
			result.Branch = branch
			if result.PushAttempts > 1 {
				logger.Warn("pushed to fallback branch",
					zap.String("branch", branch),
					zap.String("primary", opts.Primary),
					zap.NamedError("primary_error", lastErr))
			}
			return result, nil
		}
		tracker.Error(err)
		lastErr = err
	}

	return result, errors.NewBridgeCommandError(errors.KindPublishFailure, op,
		fmt.Sprintf("push to %s and %s failed", opts.Primary, opts.Fallback), lastErr)
}

func withPublishDefaults(opts PublishOptions, path string) PublishOptions {
	if strings.TrimSpace(opts.Message) == "" {
		opts.Message = "Update " + path
	}
	if strings.TrimSpace(opts.Name) == "" {
		opts.Name = config.DefaultCommitName
	}
	if strings.TrimSpace(opts.Email) == "" {
		opts.Email = config.DefaultCommitEmail
	}
	if opts.Primary == "" {
		opts.Primary = config.DefaultPrimaryBranch
	}
	if opts.Fallback == "" {
		opts.Fallback = config.DefaultFallbackBranch
	}
	return opts
}

// nothingToCommit recognises git's report that the index matches HEAD.
func nothingToCommit(res Result) bool {
	out := strings.ToLower(res.Stdout + "\n" + res.Stderr)
	return strings.Contains(out, "nothing to commit") ||
		strings.Contains(out, "nothing added to commit") ||
		strings.Contains(out, "no changes added to commit")
}
