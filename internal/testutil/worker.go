// Package testutil provides helpers shared by the package test suites.
package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"go.uber.org/zap"

	"docuchat/internal/worker"
)

// StubWorker writes body as a shell script and returns an invoker that runs
// it, so tests exercise the real process protocol. The script reads its
// stdin (the request JSON) and writes its response to stdout.
func StubWorker(t *testing.T, body string) *worker.Process {
	t.Helper()
	path := filepath.Join(t.TempDir(), "worker.sh")
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+body), 0o755); err != nil {
		t.Fatalf("write stub worker: %v", err)
	}
	return worker.NewProcess("/bin/sh", []string{path}, zap.NewNop())
}

// BrokenWorker returns an invoker whose command does not exist, so every
// Invoke fails with worker.ErrUnavailable.
func BrokenWorker(t *testing.T) *worker.Process {
	t.Helper()
	return worker.NewProcess(filepath.Join(t.TempDir(), "missing-worker"), nil, zap.NewNop())
}
