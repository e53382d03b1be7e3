package errors

import (
	stderrors "errors"
	"fmt"
)

// Kind classifies the outcome of a bridge operation.
type Kind string

const (
	KindConfiguration   Kind = "configuration"
	KindCloneFailure    Kind = "clone_failure"
	KindFileNotFound    Kind = "file_not_found"
	KindSectionNotFound Kind = "section_not_found"
	KindNoChanges       Kind = "no_changes"
	KindPublishFailure  Kind = "publish_failure"
	KindInvalidPath     Kind = "invalid_path"
)

// BridgeError represents a classified outcome of a bridge operation.
// Informational kinds (file/section not found, no changes) travel through
// the same type so callers can render them without special casing.
type BridgeError struct {
	Kind    Kind   // Outcome classification
	Op      string // Operation that produced the outcome
	Message string // Human readable description
	Output  string // Captured external client output, if any
	Err     error  // Underlying error
}

func (e *BridgeError) Error() string {
	msg := e.Message
	if e.Op != "" {
		msg = fmt.Sprintf("%s: %s", e.Op, e.Message)
	}
	if e.Output != "" {
		msg = fmt.Sprintf("%s\n%s", msg, e.Output)
	}
	return msg
}

func (e *BridgeError) Unwrap() error {
	return e.Err
}

// Is matches any BridgeError of the same kind, so the sentinels below can be
// used with errors.Is.
func (e *BridgeError) Is(target error) bool {
	t, ok := target.(*BridgeError)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// Informational reports whether the outcome is a normal result rather than
// a failure of the operation.
func (e *BridgeError) Informational() bool {
	switch e.Kind {
	case KindFileNotFound, KindSectionNotFound, KindNoChanges, KindInvalidPath:
		return true
	}
	return false
}

// NewBridgeError creates a new BridgeError
func NewBridgeError(kind Kind, op, message string, err error) *BridgeError {
	return &BridgeError{
		Kind:    kind,
		Op:      op,
		Message: message,
		Err:     err,
	}
}

// NewBridgeCommandError creates a BridgeError carrying the captured output of
// a failed external command.
func NewBridgeCommandError(kind Kind, op, message string, err error) *BridgeError {
	be := NewBridgeError(kind, op, message, err)
	var ce *CommandError
	if stderrors.As(err, &ce) {
		be.Output = ce.Output()
	}
	return be
}

// Common outcome sentinels, usable with errors.Is
var (
	ErrConfiguration   = &BridgeError{Kind: KindConfiguration, Message: "invalid configuration"}
	ErrCloneFailure    = &BridgeError{Kind: KindCloneFailure, Message: "clone failed"}
	ErrFileNotFound    = &BridgeError{Kind: KindFileNotFound, Message: "file not found"}
	ErrSectionNotFound = &BridgeError{Kind: KindSectionNotFound, Message: "no matching section"}
	ErrNoChanges       = &BridgeError{Kind: KindNoChanges, Message: "no changes to commit"}
	ErrPublishFailure  = &BridgeError{Kind: KindPublishFailure, Message: "publish failed"}
	ErrInvalidPath     = &BridgeError{Kind: KindInvalidPath, Message: "invalid path"}
)

// KindOf returns the kind of the first BridgeError in err's chain.
func KindOf(err error) (Kind, bool) {
	var be *BridgeError
	if stderrors.As(err, &be) {
		return be.Kind, true
	}
	return "", false
}

func isKind(err error, kind Kind) bool {
	k, ok := KindOf(err)
	return ok && k == kind
}

// IsConfiguration checks if the error is a configuration error
func IsConfiguration(err error) bool { return isKind(err, KindConfiguration) }

// IsCloneFailure checks if repository acquisition failed
func IsCloneFailure(err error) bool { return isKind(err, KindCloneFailure) }

// IsFileNotFound checks if the requested path was absent
func IsFileNotFound(err error) bool { return isKind(err, KindFileNotFound) }

// IsSectionNotFound checks if the patch target was absent
func IsSectionNotFound(err error) bool { return isKind(err, KindSectionNotFound) }

// IsNoChanges checks if there was nothing to commit
func IsNoChanges(err error) bool { return isKind(err, KindNoChanges) }

// IsPublishFailure checks if both push attempts failed
func IsPublishFailure(err error) bool { return isKind(err, KindPublishFailure) }

// IsInvalidPath checks if a document path escaped the workspace
func IsInvalidPath(err error) bool { return isKind(err, KindInvalidPath) }
