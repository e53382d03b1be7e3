package git

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/spf13/afero"

	"github.com/NicabarNimble/go-texbridge/internal/errors"
)

// MetadataDir is the version-control directory hidden from listings and
// refused for reads and writes.
const MetadataDir = ".git"

// Workspace is an exclusively owned clone of the document repository. It is
// created by Cloner.Acquire and must be released by the operation that
// acquired it, on every exit path.
type Workspace struct {
	dir    string
	fs     afero.Fs
	runner Runner
	secret string

	mu       sync.Mutex
	released bool
}

// NewWorkspace wraps an existing directory. A nil fs confines file access to
// dir on the local disk and a nil runner uses an ExecRunner. Release deletes
// dir.
func NewWorkspace(dir string, fs afero.Fs, runner Runner) *Workspace {
	if fs == nil {
		fs = afero.NewBasePathFs(afero.NewOsFs(), dir)
	}
	if runner == nil {
		runner = &ExecRunner{}
	}
	return &Workspace{dir: dir, fs: fs, runner: runner}
}

// Dir returns the workspace root on disk.
func (w *Workspace) Dir() string {
	return w.dir
}

// Fs returns the filesystem rooted at the workspace.
func (w *Workspace) Fs() afero.Fs {
	return w.fs
}

// Released reports whether Release has been called.
func (w *Workspace) Released() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.released
}

// Release deletes the workspace directory. It is safe to call more than once.
func (w *Workspace) Release() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.released {
		return nil
	}
	w.released = true
	if w.dir == "" {
		return nil
	}
	if err := os.RemoveAll(w.dir); err != nil {
		return errors.New("release", fmt.Errorf("failed to remove workspace %s: %w", w.dir, err))
	}
	return nil
}

// run executes git inside the workspace.
func (w *Workspace) run(ctx context.Context, args ...string) (Result, error) {
	return w.runner.Run(ctx, Command{Dir: w.dir, Args: args, Secret: w.secret})
}

// CleanPath normalises a document path relative to the workspace root. It
// rejects empty, absolute and escaping paths.
func CleanPath(p string) (string, error) {
	p = filepath.ToSlash(strings.TrimSpace(p))
	if p == "" {
		return "", invalidPath(p, "path is empty")
	}
	if path.IsAbs(p) || filepath.IsAbs(p) {
		return "", invalidPath(p, "path must be relative to the repository root")
	}
	cleaned := path.Clean(p)
	if cleaned == "." || cleaned == ".." || strings.HasPrefix(cleaned, "../") {
		return "", invalidPath(p, "path escapes the repository")
	}
	return cleaned, nil
}

func invalidPath(p, reason string) error {
	return errors.NewBridgeError(errors.KindInvalidPath, "path", fmt.Sprintf("invalid path %q: %s", p, reason), nil)
}

func isMetadata(cleaned string) bool {
	return cleaned == MetadataDir || strings.HasPrefix(cleaned, MetadataDir+"/")
}

// resolve returns the rooted path used against the workspace filesystem.
func (w *Workspace) resolve(p string) (string, error) {
	if w.Released() {
		return "", errors.New("workspace", fmt.Errorf("workspace already released"))
	}
	cleaned, err := CleanPath(p)
	if err != nil {
		return "", err
	}
	if isMetadata(cleaned) {
		return "", invalidPath(p, "repository metadata is not accessible")
	}
	rooted := "/" + cleaned
	if err := w.refuseLinks(p, rooted); err != nil {
		return "", err
	}
	return rooted, nil
}

// refuseLinks rejects a path when any existing component is a symbolic link.
// A committed link may point outside the workspace or into MetadataDir.
func (w *Workspace) refuseLinks(p, rooted string) error {
	lstater, ok := w.fs.(afero.Lstater)
	if !ok {
		return nil
	}

	cur := ""
	for _, part := range strings.Split(strings.TrimPrefix(rooted, "/"), "/") {
		cur += "/" + part
		info, _, err := lstater.LstatIfPossible(cur)
		if err != nil {
			// Missing components are created by WriteFile or reported by ReadFile.
			return nil
		}
		if info.Mode()&os.ModeSymlink != 0 {
			return invalidPath(p, "path goes through a symbolic link")
		}
	}
	return nil
}

// Exists reports whether a regular file exists at p.
func (w *Workspace) Exists(p string) bool {
	rooted, err := w.resolve(p)
	if err != nil {
		return false
	}
	info, err := w.fs.Stat(rooted)
	return err == nil && !info.IsDir()
}

// ReadFile returns the full content of the document at p.
func (w *Workspace) ReadFile(p string) (string, error) {
	rooted, err := w.resolve(p)
	if err != nil {
		return "", err
	}

	info, err := w.fs.Stat(rooted)
	if err != nil {
		if os.IsNotExist(err) {
			return "", errors.NewBridgeError(errors.KindFileNotFound, "read",
				fmt.Sprintf("%s does not exist in the repository", strings.TrimPrefix(rooted, "/")), err)
		}
		return "", errors.New("read", err)
	}
	if info.IsDir() {
		return "", errors.NewBridgeError(errors.KindFileNotFound, "read",
			fmt.Sprintf("%s is a directory", strings.TrimPrefix(rooted, "/")), nil)
	}

	data, err := afero.ReadFile(w.fs, rooted)
	if err != nil {
		return "", errors.New("read", err)
	}
	return string(data), nil
}

// WriteFile replaces the document at p, creating parent directories as
// needed.
func (w *Workspace) WriteFile(p, content string) error {
	rooted, err := w.resolve(p)
	if err != nil {
		return err
	}

	if dir := path.Dir(rooted); dir != "/" {
		if err := w.fs.MkdirAll(dir, 0o755); err != nil {
			return errors.New("write", fmt.Errorf("failed to create %s: %w", dir, err))
		}
	}
	if err := afero.WriteFile(w.fs, rooted, []byte(content), 0o644); err != nil {
		return errors.New("write", err)
	}
	return nil
}

// List returns every file in the workspace relative to its root, excluding
// the metadata directory, sorted lexicographically.
func (w *Workspace) List() ([]string, error) {
	if w.Released() {
		return nil, errors.New("list", fmt.Errorf("workspace already released"))
	}

	var files []string
	err := afero.Walk(w.fs, "/", func(p string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			if info.Name() == MetadataDir {
				return filepath.SkipDir
			}
			return nil
		}
		rel := strings.TrimPrefix(filepath.ToSlash(p), "/")
		if rel != "" {
			files = append(files, rel)
		}
		return nil
	})
	if err != nil {
		return nil, errors.New("list", err)
	}

	sort.Strings(files)
	return files, nil
}
