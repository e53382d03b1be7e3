package git

import (
	"bytes"
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/NicabarNimble/go-texbridge/internal/errors"
	"github.com/NicabarNimble/go-texbridge/internal/urlutils"
)

// DefaultBinary is the git executable looked up on PATH.
const DefaultBinary = "git"

// waitDelay bounds how long Run waits for inherited pipes after git exits
// or is killed.
const waitDelay = 5 * time.Second

// Command is a single git invocation.
type Command struct {
	// Dir is the working directory. Empty means the current directory.
	Dir string
	// Args are the arguments after the binary name.
	Args []string
	// Secret is scrubbed from logs, results and errors.
	Secret string
}

// String renders the command line with the secret redacted.
func (c Command) String() string {
	return strings.Join(c.redactedArgs(), " ")
}

func (c Command) redactedArgs() []string {
	out := make([]string, len(c.Args))
	for i, a := range c.Args {
		out[i] = urlutils.Redact(a, c.Secret)
	}
	return out
}

// Result is the outcome of a git invocation.
type Result struct {
	Stdout   string
	Stderr   string
	ExitCode int
	Duration time.Duration
}

// Output returns both streams, trimmed and joined.
func (r Result) Output() string {
	e := errors.CommandError{Stdout: r.Stdout, Stderr: r.Stderr}
	return e.Output()
}

// Runner executes the external git client. Implementations block until the
// process exits. A non-zero exit is reported as *errors.CommandError.
type Runner interface {
	Run(ctx context.Context, cmd Command) (Result, error)
}

// Available reports whether the git binary can be found.
func Available() bool {
	_, err := lookPath(DefaultBinary)
	return err == nil
}

// lookPath is a variable so it can be mocked in tests
var lookPath = exec.LookPath

// ExecRunner runs git as a subprocess.
type ExecRunner struct {
	// Binary defaults to DefaultBinary.
	Binary string
	// Timeout bounds each invocation. Zero means no limit beyond ctx.
	Timeout time.Duration
	// Env is appended to the inherited environment.
	Env []string
	// Logger receives one debug entry per invocation and every output line.
	Logger *zap.Logger
}

// Run implements Runner.
func (r *ExecRunner) Run(ctx context.Context, cmd Command) (Result, error) {
	if r.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.Timeout)
		defer cancel()
	}

	logger := r.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	redact := func(s string) string { return urlutils.Redact(s, cmd.Secret) }

	binary := r.Binary
	if binary == "" {
		binary = DefaultBinary
	}

	var stdout, stderr bytes.Buffer
	outLog := newLineLogger(logger, "stdout", redact)
	errLog := newLineLogger(logger, "stderr", redact)

	c := exec.CommandContext(ctx, binary, cmd.Args...)
	c.Dir = cmd.Dir
	c.Stdout = io.MultiWriter(&stdout, outLog)
	c.Stderr = io.MultiWriter(&stderr, errLog)
	c.Env = append(os.Environ(), "GIT_TERMINAL_PROMPT=0", "LC_ALL=C")
	c.Env = append(c.Env, r.Env...)
	c.WaitDelay = waitDelay

	start := time.Now()
	err := c.Run()
	outLog.Flush()
	errLog.Flush()

	res := Result{
		Stdout:   redact(stdout.String()),
		Stderr:   redact(stderr.String()),
		Duration: time.Since(start),
	}
	if err != nil {
		res.ExitCode = -1
		var exitErr *exec.ExitError
		if stderrors.As(err, &exitErr) {
			res.ExitCode = exitErr.ExitCode()
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			err = fmt.Errorf("%w: %v", ctxErr, err)
		}
	}

	logger.Debug("git",
		zap.String("cmd", cmd.String()),
		zap.String("dir", cmd.Dir),
		zap.Int("exit_code", res.ExitCode),
		zap.Duration("took", res.Duration))

	if err != nil {
		return res, &errors.CommandError{
			Args:     cmd.redactedArgs(),
			ExitCode: res.ExitCode,
			Stdout:   res.Stdout,
			Stderr:   res.Stderr,
			Err:      err,
		}
	}
	return res, nil
}

// lineLogger writes each complete line it receives as a debug entry.
type lineLogger struct {
	mu     sync.Mutex
	logger *zap.Logger
	stream string
	redact func(string) string
	buf    []byte
}

func newLineLogger(logger *zap.Logger, stream string, redact func(string) string) *lineLogger {
	return &lineLogger{logger: logger, stream: stream, redact: redact}
}

func (l *lineLogger) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.buf = append(l.buf, p...)
	for {
		i := bytes.IndexByte(l.buf, '\n')
		if i < 0 {
			break
		}
		l.emit(l.buf[:i])
		l.buf = l.buf[i+1:]
	}
	return len(p), nil
}

// Flush logs any trailing partial line.
func (l *lineLogger) Flush() {
	l.mu.Lock()
	defer l.mu.Unlock()

	if len(l.buf) > 0 {
		l.emit(l.buf)
		l.buf = nil
	}
}

func (l *lineLogger) emit(line []byte) {
	text := strings.TrimRight(string(line), "\r")
	if strings.TrimSpace(text) == "" {
		return
	}
	l.logger.Debug(l.redact(text), zap.String("stream", l.stream))
}
