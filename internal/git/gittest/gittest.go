// Package gittest provides runners and repository fixtures for tests that
// exercise the git package.
package gittest

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/NicabarNimble/go-texbridge/internal/errors"
	"github.com/NicabarNimble/go-texbridge/internal/git"
)

// FakeRunner records commands and answers them through Handler. A nil
// Handler succeeds with empty output.
type FakeRunner struct {
	Handler func(cmd git.Command) (git.Result, error)

	mu    sync.Mutex
	calls []git.Command
}

// Run implements git.Runner.
func (f *FakeRunner) Run(_ context.Context, cmd git.Command) (git.Result, error) {
	f.mu.Lock()
	f.calls = append(f.calls, cmd)
	f.mu.Unlock()

	if f.Handler == nil {
		return git.Result{}, nil
	}
	return f.Handler(cmd)
}

// Calls returns every command seen so far.
func (f *FakeRunner) Calls() []git.Command {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]git.Command(nil), f.calls...)
}

// Commands returns the argument lists of every call, space joined.
func (f *FakeRunner) Commands() []string {
	calls := f.Calls()
	out := make([]string, len(calls))
	for i, c := range calls {
		out[i] = strings.Join(c.Args, " ")
	}
	return out
}

// Fail builds the result and error a failing git invocation returns.
func Fail(cmd git.Command, exitCode int, stdout, stderr string) (git.Result, error) {
	res := git.Result{Stdout: stdout, Stderr: stderr, ExitCode: exitCode}
	return res, &errors.CommandError{
		Args:     cmd.Args,
		ExitCode: exitCode,
		Stdout:   stdout,
		Stderr:   stderr,
		Err:      fmt.Errorf("exit status %d", exitCode),
	}
}

// RequireGit skips the test when the git binary is unavailable.
func RequireGit(t testing.TB) {
	t.Helper()
	if !git.Available() {
		t.Skip("git binary not installed")
	}
}

// LocalRemote wraps a runner so that clone fetches from a local repository
// instead of the https address it was given. Everything else, including the
// authenticated URL construction, runs unchanged.
type LocalRemote struct {
	git.Runner
	Path string
}

// Run implements git.Runner.
func (l *LocalRemote) Run(ctx context.Context, cmd git.Command) (git.Result, error) {
	if len(cmd.Args) > 0 && cmd.Args[0] == "clone" {
		args := append([]string(nil), cmd.Args...)
		for i, a := range args {
			if strings.HasPrefix(a, "https://") {
				args[i] = l.Path
			}
		}
		cmd.Args = args
	}
	return l.Runner.Run(ctx, cmd)
}

// Remote is a bare repository in a temporary directory.
type Remote struct {
	Path string

	t        testing.TB
	rejected []string
}

// NewRemote creates a bare repository whose master branch holds files.
func NewRemote(t testing.TB, files map[string]string) *Remote {
	t.Helper()
	RequireGit(t)

	root := t.TempDir()
	bare := filepath.Join(root, "remote.git")
	seed := filepath.Join(root, "seed")

	Git(t, root, "init", "--quiet", "--bare", bare)
	Git(t, bare, "symbolic-ref", "HEAD", "refs/heads/master")
	Git(t, root, "init", "--quiet", seed)
	for name, content := range files {
		p := filepath.Join(seed, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			t.Fatalf("mkdir: %v", err)
		}
		if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	Git(t, seed, "add", "-A")
	Git(t, seed, "-c", "user.name=seed", "-c", "user.email=seed@example.com",
		"commit", "--quiet", "--allow-empty", "-m", "seed")
	Git(t, seed, "push", "--quiet", bare, "HEAD:refs/heads/master")

	return &Remote{Path: bare, t: t}
}

// Runner returns a subprocess runner whose clones read from r.
func (r *Remote) Runner() git.Runner {
	return &LocalRemote{Runner: &git.ExecRunner{}, Path: r.Path}
}

// RejectBranch installs a pre-receive hook refusing pushes to branch, in
// addition to any branch rejected earlier.
func (r *Remote) RejectBranch(branch string) {
	r.t.Helper()
	r.rejected = append(r.rejected, branch)

	var hook strings.Builder
	hook.WriteString("#!/bin/sh\nwhile read old new ref; do\n  case \"$ref\" in\n")
	for _, b := range r.rejected {
		fmt.Fprintf(&hook, "  refs/heads/%s) echo \"rejected: %s is protected\" >&2; exit 1 ;;\n", b, b)
	}
	hook.WriteString("  esac\ndone\n")

	p := filepath.Join(r.Path, "hooks", "pre-receive")
	if err := os.WriteFile(p, []byte(hook.String()), 0o755); err != nil {
		r.t.Fatalf("write hook: %v", err)
	}
}

// File returns the content of path on branch, and whether it exists.
func (r *Remote) File(branch, path string) (string, bool) {
	r.t.Helper()
	out, err := exec.Command("git", "--git-dir", r.Path, "show", branch+":"+path).Output()
	if err != nil {
		return "", false
	}
	return string(out), true
}

// CommitCount returns the number of commits reachable from branch, or zero
// when the branch does not exist.
func (r *Remote) CommitCount(branch string) int {
	r.t.Helper()
	out, err := exec.Command("git", "--git-dir", r.Path, "rev-list", "--count", "refs/heads/"+branch).Output()
	if err != nil {
		return 0
	}
	n, err := strconv.Atoi(strings.TrimSpace(string(out)))
	if err != nil {
		r.t.Fatalf("rev-list output %q: %v", out, err)
	}
	return n
}

// LastAuthor returns "name <email>" of the tip of branch.
func (r *Remote) LastAuthor(branch string) string {
	r.t.Helper()
	out, err := exec.Command("git", "--git-dir", r.Path, "log", "-1", "--format=%an <%ae>", "refs/heads/"+branch).Output()
	if err != nil {
		r.t.Fatalf("git log: %v", err)
	}
	return strings.TrimSpace(string(out))
}

// Git runs git in dir and fails the test on error.
func Git(t testing.TB, dir string, args ...string) string {
	t.Helper()
	cmd := exec.Command("git", args...)
	cmd.Dir = dir
	cmd.Env = append(os.Environ(), "GIT_TERMINAL_PROMPT=0")
	out, err := cmd.CombinedOutput()
	if err != nil {
		t.Fatalf("git %s: %v\n%s", strings.Join(args, " "), err, out)
	}
	return string(out)
}
