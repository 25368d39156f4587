package command

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os/exec"
	"strings"
	"time"
)

// DefaultTimeout applies when Options.Timeout is zero. Callers doing mutating
// work (user create, quota set) pass a longer timeout explicitly.
const DefaultTimeout = 10 * time.Second

// Result is the outcome of one completed invocation. A non-zero ExitCode is a
// successful invocation carrying a failure result, not an execution error.
type Result struct {
	ExitCode int
	Stdout   string
	Stderr   string
}

// Failed reports whether the tool ran but exited non-zero.
func (r Result) Failed() bool { return r.ExitCode != 0 }

// ErrKind classifies why a binary could not be run at all.
type ErrKind int

const (
	ErrNotFound ErrKind = iota
	ErrTimeout
	ErrUnexpected
)

func (k ErrKind) String() string {
	switch k {
	case ErrNotFound:
		return "not found"
	case ErrTimeout:
		return "timeout"
	default:
		return "unexpected"
	}
}

// ExecError means the binary could not be run or did not finish. It is always
// surfaced to the caller; it indicates an infrastructure problem, not a tool
// refusing the operation.
type ExecError struct {
	Kind ErrKind
	Path string
	Err  error
}

func (e *ExecError) Error() string {
	return fmt.Sprintf("exec %s: %s: %v", e.Path, e.Kind, e.Err)
}

func (e *ExecError) Unwrap() error { return e.Err }

// ToolError carries the diagnostic stderr of a tool that ran and exited
// non-zero. Adapters wrap it for mutating operations; read paths usually map
// a non-zero exit to a meaningful default instead.
type ToolError struct {
	Op     string
	Stderr string
}

func (e *ToolError) Error() string {
	msg := strings.TrimSpace(e.Stderr)
	if msg == "" {
		msg = "tool exited with an error"
	}
	return fmt.Sprintf("%s: %s", e.Op, msg)
}

// Options tunes a single invocation.
type Options struct {
	// Timeout bounds the whole invocation; zero means DefaultTimeout. On
	// expiry the process is killed and the call reports ErrTimeout.
	Timeout time.Duration

	// Stdin, when non-empty, is written to the process and the pipe closed
	// before output is read. Used only for password submission.
	Stdin string
}

// Runner is the single seam between domain adapters and the OS. Everything
// above it is pure parsing and policy; tests substitute a fake.
type Runner interface {
	Run(name string, args []string, opts Options) (Result, error)
}

type execRunner struct{}

// NewRunner returns the os/exec backed Runner used in production.
func NewRunner() Runner { return execRunner{} }

func (execRunner) Run(name string, args []string, opts Options) (Result, error) {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, name, args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if opts.Stdin != "" {
		// strings.Reader is drained and the pipe closed before the process
		// output is collected, so a tool reading its full stdin never
		// deadlocks against us reading its stdout.
		cmd.Stdin = strings.NewReader(opts.Stdin)
	}

	err := cmd.Run()
	res := Result{
		Stdout: stdout.String(),
		Stderr: stderr.String(),
	}

	if err == nil {
		return res, nil
	}

	if ctx.Err() == context.DeadlineExceeded {
		return Result{}, &ExecError{Kind: ErrTimeout, Path: name, Err: ctx.Err()}
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		res.ExitCode = exitErr.ExitCode()
		return res, nil
	}

	if errors.Is(err, exec.ErrNotFound) || errors.Is(err, fs.ErrNotExist) {
		return Result{}, &ExecError{Kind: ErrNotFound, Path: name, Err: err}
	}
	return Result{}, &ExecError{Kind: ErrUnexpected, Path: name, Err: err}
}
