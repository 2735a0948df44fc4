// Package worker implements the process-per-call protocol shared by every AI
// capability in the system: a single JSON object is written to the worker's
// stdin, stdin is closed, and after the process exits its entire stdout is
// the response. Stderr is diagnostic text, logged but never parsed; exit
// code 0 is the sole success signal.
package worker

import (
	"bytes"
	"context"
	"encoding/json"
	"os/exec"
	"strings"

	"go.uber.org/zap"
)

// Invoker is the unit-of-work boundary to an external AI worker. Call sites
// depend on this interface only, so a pooled or in-process implementation is
// a drop-in replacement.
type Invoker interface {
	// Invoke sends payload to a worker and returns its raw stdout.
	Invoke(ctx context.Context, payload any) ([]byte, error)
}

// Process spawns one fresh worker process per Invoke call. No pooling, no
// reuse: concurrent calls each own their own process.
type Process struct {
	path   string
	args   []string
	logger *zap.Logger
}

// NewProcess creates an invoker that runs the given command for every call
func NewProcess(path string, args []string, logger *zap.Logger) *Process {
	return &Process{path: path, args: args, logger: logger}
}

// Invoke runs one worker process to completion. No deadline is imposed here;
// callers that need one supply it through ctx.
func (p *Process) Invoke(ctx context.Context, payload any) ([]byte, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	cmd := exec.CommandContext(ctx, p.path, p.args...)
	cmd.Stdin = bytes.NewReader(body)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Start(); err != nil {
		return nil, &startError{err: err}
	}

	runErr := cmd.Wait()

	// Workers legitimately emit progress on stderr while succeeding, so it
	// is logged verbatim regardless of outcome.
	if diag := strings.TrimSpace(stderr.String()); diag != "" {
		p.logger.Info("worker diagnostics",
			zap.String("command", p.path),
			zap.String("stderr", diag),
		)
	}

	if runErr != nil {
		if exitErr, ok := runErr.(*exec.ExitError); ok {
			return nil, &ExitError{Code: exitErr.ExitCode(), Stderr: stderr.String()}
		}
		return nil, &startError{err: runErr}
	}

	return stdout.Bytes(), nil
}

// Decode parses a worker's stdout into v, converting any decode failure into
// a MalformedError that keeps the raw output for diagnosis.
func Decode(raw []byte, v any) error {
	if err := json.Unmarshal(bytes.TrimSpace(raw), v); err != nil {
		return &MalformedError{Raw: raw, Err: err}
	}
	return nil
}

// startError wraps a spawn failure so errors.Is(err, ErrUnavailable) holds
// while the underlying cause stays visible.
type startError struct {
	err error
}

func (e *startError) Error() string {
	return "worker unavailable: " + e.err.Error()
}

func (e *startError) Is(target error) bool {
	return target == ErrUnavailable
}

func (e *startError) Unwrap() error {
	return e.err
}
