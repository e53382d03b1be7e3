package bridge

import (
	stderrors "errors"
	"fmt"
	"strings"

	"github.com/NicabarNimble/go-texbridge/internal/errors"
)

// Status is the outcome of a mutating operation.
type Status string

const (
	StatusPublished       Status = "published"
	StatusNoChanges       Status = "no_changes"
	StatusSectionNotFound Status = "section_not_found"
	StatusDryRun          Status = "dry_run"
)

// Report describes what a write or section replacement did.
type Report struct {
	OpID    string
	Path    string
	Status  Status
	Message string
	// Heading is the section heading for section replacements.
	Heading string
	// Branch accepted the push; PushAttempts is one or two.
	Branch       string
	PushAttempts int
	// Diff is the unified diff of the change, empty when nothing changed.
	Diff string
}

// Kind maps informational statuses onto the error taxonomy. Published and
// dry-run reports have no kind.
func (r *Report) Kind() (errors.Kind, bool) {
	switch r.Status {
	case StatusNoChanges:
		return errors.KindNoChanges, true
	case StatusSectionNotFound:
		return errors.KindSectionNotFound, true
	}
	return "", false
}

// String renders the report as the status text returned to tool callers.
func (r *Report) String() string {
	switch r.Status {
	case StatusPublished:
		if r.PushAttempts > 1 {
			return fmt.Sprintf("Updated %s and pushed to fallback branch %s (commit: %q).", r.Path, r.Branch, r.Message)
		}
		return fmt.Sprintf("Updated %s and pushed to %s (commit: %q).", r.Path, r.Branch, r.Message)
	case StatusNoChanges:
		return fmt.Sprintf("No changes to commit: %s already has this content.", r.Path)
	case StatusSectionNotFound:
		return fmt.Sprintf("No matching section: %s was not found in %s. Nothing was committed.", r.Heading, r.Path)
	case StatusDryRun:
		if r.Diff == "" {
			return fmt.Sprintf("Dry run: %s would not change.", r.Path)
		}
		return fmt.Sprintf("Dry run: %s not published.\n%s", r.Path, r.Diff)
	}
	return string(r.Status)
}

// Describe renders err as the descriptive text returned to tool callers.
// Informational outcomes read as normal results; failures carry the git
// output when there is any.
func Describe(err error) string {
	if err == nil {
		return ""
	}

	var be *errors.BridgeError
	if !stderrors.As(err, &be) {
		return "Error: " + err.Error()
	}

	var prefix string
	switch be.Kind {
	case errors.KindFileNotFound:
		prefix = "File not found"
	case errors.KindInvalidPath:
		prefix = "Invalid path"
	case errors.KindSectionNotFound:
		prefix = "No matching section"
	case errors.KindNoChanges:
		prefix = "No changes to commit"
	case errors.KindConfiguration:
		prefix = "Configuration error"
	case errors.KindCloneFailure:
		prefix = "Clone failed"
	case errors.KindPublishFailure:
		prefix = "Publish failed"
	default:
		prefix = "Error"
	}

	var b strings.Builder
	b.WriteString(prefix)
	b.WriteString(": ")
	b.WriteString(be.Message)
	if be.Err != nil && be.Output == "" && !be.Informational() {
		b.WriteString(" (")
		b.WriteString(be.Err.Error())
		b.WriteString(")")
	}
	if be.Output != "" {
		b.WriteString("\n")
		b.WriteString(be.Output)
	}
	return b.String()
}

// Fatal reports whether err ends an operation abnormally, as opposed to an
// informational outcome such as a missing file.
func Fatal(err error) bool {
	if err == nil {
		return false
	}
	var be *errors.BridgeError
	if stderrors.As(err, &be) {
		return !be.Informational()
	}
	return true
}
