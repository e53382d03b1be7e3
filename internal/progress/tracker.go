// Package progress reports the phases of a bridge operation (clone, commit,
// push) to a pluggable sink.
package progress

import (
	"sync"
	"time"

	"go.uber.org/zap"
)

// Tracker interface defines methods for tracking operation progress
type Tracker interface {
	Start(operation string) *Operation
	Update(current, total int64)
	Complete()
	Error(err error)
}

// Operation status values.
const (
	StatusInProgress = "in_progress"
	StatusCompleted  = "completed"
	StatusFailed     = "failed"
)

// Operation represents a tracked operation
type Operation struct {
	Name        string
	StartTime   time.Time
	EndTime     time.Time
	Status      string
	LastCurrent int64
	LastTotal   int64
	Err         error
}

// Duration reports how long the operation ran, or has been running.
func (o *Operation) Duration() time.Duration {
	if o.EndTime.IsZero() {
		return time.Since(o.StartTime)
	}
	return o.EndTime.Sub(o.StartTime)
}

func newOperation(name string) *Operation {
	return &Operation{
		Name:      name,
		StartTime: time.Now(),
		Status:    StatusInProgress,
	}
}

// DefaultTracker records every operation it sees. It is safe for concurrent
// use and is mostly useful for asserting phase order in tests.
type DefaultTracker struct {
	mu         sync.Mutex
	current    *Operation
	operations []*Operation
}

// Start begins tracking a new operation
func (t *DefaultTracker) Start(operation string) *Operation {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.current = newOperation(operation)
	t.operations = append(t.operations, t.current)
	return t.current
}

// Update updates the progress of the current operation
func (t *DefaultTracker) Update(current, total int64) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.current == nil {
		return
	}
	t.current.LastCurrent = current
	t.current.LastTotal = total
}

// Complete marks the operation as completed
func (t *DefaultTracker) Complete() {
	t.finish(StatusCompleted, nil)
}

// Error marks the operation as failed with an error
func (t *DefaultTracker) Error(err error) {
	t.finish(StatusFailed, err)
}

func (t *DefaultTracker) finish(status string, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.current == nil {
		return
	}
	t.current.Status = status
	t.current.Err = err
	t.current.EndTime = time.Now()
	t.current = nil
}

// Operations returns the names and final statuses in start order, formatted
// as "name:status".
func (t *DefaultTracker) Operations() []string {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make([]string, 0, len(t.operations))
	for _, op := range t.operations {
		out = append(out, op.Name+":"+op.Status)
	}
	return out
}

// Progress returns the last Update reported for the most recent operation
// named name.
func (t *DefaultTracker) Progress(name string) (current, total int64, ok bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	for i := len(t.operations) - 1; i >= 0; i-- {
		if op := t.operations[i]; op.Name == name {
			return op.LastCurrent, op.LastTotal, true
		}
	}
	return 0, 0, false
}

// LogTracker implements Tracker by writing structured log entries.
type LogTracker struct {
	logger  *zap.Logger
	current *Operation
}

// NewLogTracker creates a tracker writing to logger. A nil logger discards
// everything.
func NewLogTracker(logger *zap.Logger) *LogTracker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogTracker{logger: logger}
}

// Start begins tracking a new operation
func (t *LogTracker) Start(operation string) *Operation {
	t.current = newOperation(operation)
	t.logger.Debug("phase started", zap.String("phase", operation))
	return t.current
}

// Update logs the current step count
func (t *LogTracker) Update(current, total int64) {
	if t.current == nil {
		return
	}
	t.current.LastCurrent = current
	t.current.LastTotal = total
	t.logger.Debug("phase progress",
		zap.String("phase", t.current.Name),
		zap.Int64("current", current),
		zap.Int64("total", total))
}

// Complete marks the current operation as completed
func (t *LogTracker) Complete() {
	if t.current == nil {
		return
	}
	t.current.Status = StatusCompleted
	t.current.EndTime = time.Now()
	t.logger.Info("phase completed",
		zap.String("phase", t.current.Name),
		zap.Duration("took", t.current.Duration()))
	t.current = nil
}

// Error marks the current operation as failed
func (t *LogTracker) Error(err error) {
	if t.current == nil {
		return
	}
	t.current.Status = StatusFailed
	t.current.Err = err
	t.current.EndTime = time.Now()
	t.logger.Warn("phase failed",
		zap.String("phase", t.current.Name),
		zap.Duration("took", t.current.Duration()),
		zap.Error(err))
	t.current = nil
}

// NopTracker discards all progress.
type NopTracker struct{}

// Start implements Tracker
func (NopTracker) Start(operation string) *Operation { return newOperation(operation) }

// Update implements Tracker
func (NopTracker) Update(current, total int64) {}

// Complete implements Tracker
func (NopTracker) Complete() {}

// Error implements Tracker
func (NopTracker) Error(err error) {}

// OrNop returns t, or a NopTracker when t is nil.
func OrNop(t Tracker) Tracker {
	if t == nil {
		return NopTracker{}
	}
	return t
}
