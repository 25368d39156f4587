package command

import (
	"errors"
	"testing"
	"time"
)

func TestRun_CapturesStdout(t *testing.T) {
	r := NewRunner()

	res, err := r.Run("/bin/echo", []string{"hello"}, Options{})
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}
	if res.ExitCode != 0 {
		t.Fatalf("exit code = %d, want 0", res.ExitCode)
	}
	if res.Stdout != "hello\n" {
		t.Fatalf("stdout = %q, want %q", res.Stdout, "hello\n")
	}
	if res.Failed() {
		t.Fatal("Failed() should be false for exit 0")
	}
}

func TestRun_NonZeroExitIsNotAnError(t *testing.T) {
	r := NewRunner()

	res, err := r.Run("/bin/sh", []string{"-c", "echo oops >&2; exit 3"}, Options{})
	if err != nil {
		t.Fatalf("non-zero exit must not surface as error, got %v", err)
	}
	if res.ExitCode != 3 {
		t.Fatalf("exit code = %d, want 3", res.ExitCode)
	}
	if res.Stderr != "oops\n" {
		t.Fatalf("stderr = %q, want %q", res.Stderr, "oops\n")
	}
	if !res.Failed() {
		t.Fatal("Failed() should be true for exit 3")
	}
}

func TestRun_MissingBinary(t *testing.T) {
	r := NewRunner()

	_, err := r.Run("/nonexistent/ragos-no-such-tool", nil, Options{})
	var execErr *ExecError
	if !errors.As(err, &execErr) {
		t.Fatalf("want *ExecError, got %v", err)
	}
	if execErr.Kind != ErrNotFound {
		t.Fatalf("kind = %v, want %v", execErr.Kind, ErrNotFound)
	}
}

func TestRun_Timeout(t *testing.T) {
	r := NewRunner()

	start := time.Now()
	_, err := r.Run("/bin/sleep", []string{"5"}, Options{Timeout: 100 * time.Millisecond})
	var execErr *ExecError
	if !errors.As(err, &execErr) {
		t.Fatalf("want *ExecError, got %v", err)
	}
	if execErr.Kind != ErrTimeout {
		t.Fatalf("kind = %v, want %v", execErr.Kind, ErrTimeout)
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Fatalf("timeout did not kill the process promptly (took %v)", elapsed)
	}
}

func TestRun_StdinPayload(t *testing.T) {
	r := NewRunner()

	res, err := r.Run("/bin/cat", nil, Options{Stdin: "secret\n"})
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}
	if res.Stdout != "secret\n" {
		t.Fatalf("stdout = %q, want stdin echoed back", res.Stdout)
	}
}
