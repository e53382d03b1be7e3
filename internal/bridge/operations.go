package bridge

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/NicabarNimble/go-texbridge/internal/errors"
	"github.com/NicabarNimble/go-texbridge/internal/git"
	"github.com/NicabarNimble/go-texbridge/internal/latex"
)

// WriteRequest replaces a whole document.
type WriteRequest struct {
	Path    string
	Content string
	// Message defaults to "Update <path>".
	Message string
	// DryRun applies the change in the workspace and reports the diff
	// without publishing.
	DryRun bool
}

// ReplaceRequest replaces the body of one section.
type ReplaceRequest struct {
	Path  string
	Title string
	Body  string
	// Command is the heading command, "section" when blank.
	Command string
	// Message defaults to "Update \<command>{<title>} in <path>".
	Message string
	DryRun  bool
}

// ReadFile returns the document at path, rendered as a preview unless raw is
// set. A missing document yields a file-not-found error.
func (s *Service) ReadFile(ctx context.Context, path string, raw bool) (string, error) {
	if _, err := git.CleanPath(path); err != nil {
		return "", err
	}

	op, err := s.begin(ctx, "read_file")
	if err != nil {
		return "", err
	}
	defer op.end()

	content, err := op.ws.ReadFile(path)
	if err != nil {
		op.logger.Info("read failed", zap.String("path", path), zap.Error(err))
		return "", err
	}
	op.logger.Info("read", zap.String("path", path), zap.Int("bytes", len(content)), zap.Bool("raw", raw))

	if raw {
		return content, nil
	}
	return latex.RenderPreview(content), nil
}

// ListFiles returns every file in the repository, sorted, excluding version
// control metadata.
func (s *Service) ListFiles(ctx context.Context) ([]string, error) {
	op, err := s.begin(ctx, "list_files")
	if err != nil {
		return nil, err
	}
	defer op.end()

	files, err := op.ws.List()
	if err != nil {
		return nil, err
	}
	op.logger.Info("listed", zap.Int("files", len(files)))
	return files, nil
}

// WriteFile overwrites a document, creating parent directories, and
// publishes it.
func (s *Service) WriteFile(ctx context.Context, req WriteRequest) (*Report, error) {
	path, err := git.CleanPath(req.Path)
	if err != nil {
		return nil, err
	}

	op, err := s.begin(ctx, "write_file")
	if err != nil {
		return nil, err
	}
	defer op.end()

	before, err := op.ws.ReadFile(path)
	if err != nil && !errors.IsFileNotFound(err) {
		return nil, err
	}
	if err := op.ws.WriteFile(path, req.Content); err != nil {
		return nil, err
	}

	message := req.Message
	if message == "" {
		message = "Update " + path
	}
	report := &Report{
		OpID:    op.id,
		Path:    path,
		Message: message,
		Diff:    latex.UnifiedDiff(path, before, req.Content),
	}
	return op.finish(ctx, report, req.DryRun)
}

// ReplaceSection replaces the body of the first \command{title} section in
// the document and publishes the result. A missing section is reported with
// StatusSectionNotFound and nothing is committed.
func (s *Service) ReplaceSection(ctx context.Context, req ReplaceRequest) (*Report, error) {
	path, err := git.CleanPath(req.Path)
	if err != nil {
		return nil, err
	}
	command := latex.NormalizeCommand(req.Command)
	heading := fmt.Sprintf(`\%s{%s}`, command, req.Title)

	op, err := s.begin(ctx, "replace_section")
	if err != nil {
		return nil, err
	}
	defer op.end()

	before, err := op.ws.ReadFile(path)
	if err != nil {
		return nil, err
	}

	message := req.Message
	if message == "" {
		message = fmt.Sprintf("Update %s in %s", heading, path)
	}
	report := &Report{OpID: op.id, Path: path, Heading: heading, Message: message}

	patched, found := latex.ReplaceSectionBody(before, command, req.Title, req.Body)
	if !found {
		report.Status = StatusSectionNotFound
		op.logger.Info("section not found", zap.String("path", path), zap.String("heading", heading))
		return report, nil
	}

	if err := op.ws.WriteFile(path, patched); err != nil {
		return nil, err
	}
	report.Diff = latex.UnifiedDiff(path, before, patched)
	return op.finish(ctx, report, req.DryRun)
}

// finish publishes report.Path unless this is a dry run.
func (op *operation) finish(ctx context.Context, report *Report, dryRun bool) (*Report, error) {
	if dryRun {
		report.Status = StatusDryRun
		op.logger.Info("dry run", zap.String("path", report.Path), zap.Bool("changed", report.Diff != ""))
		return report, nil
	}

	result, err := op.publish(ctx, report.Path, report.Message)
	report.PushAttempts = result.PushAttempts
	if err != nil {
		op.logger.Error("publish failed", zap.String("path", report.Path),
			zap.Int("push_attempts", result.PushAttempts), zap.Error(err))
		return nil, err
	}

	if result.NoChanges {
		report.Status = StatusNoChanges
		report.Diff = ""
	} else {
		report.Status = StatusPublished
		report.Branch = result.Branch
	}
	op.logger.Info("finished",
		zap.String("path", report.Path),
		zap.String("status", string(report.Status)),
		zap.String("branch", report.Branch),
		zap.Int("push_attempts", report.PushAttempts))
	return report, nil
}
