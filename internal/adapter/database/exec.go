package database

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
)

type ProcessResult struct {
	ExitCode int
	Stdout   []byte
	Stderr   []byte
}

// ProcessExecutor runs an external program to completion. A non-zero exit is
// reported through ProcessResult.ExitCode; the error is reserved for
// failures to start or wait on the process.
type ProcessExecutor interface {
	Run(ctx context.Context, name string, args ...string) (ProcessResult, error)
}

type OSExecutor struct{}

func (OSExecutor) Run(ctx context.Context, name string, args ...string) (ProcessResult, error) {
	var stdout, stderr bytes.Buffer

	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	result := ProcessResult{Stdout: stdout.Bytes(), Stderr: stderr.Bytes()}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) && ctx.Err() == nil {
		result.ExitCode = exitErr.ExitCode()
		return result, nil
	}
	return result, err
}
