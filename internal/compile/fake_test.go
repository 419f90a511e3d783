package compile

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// fakeCompiler reports a diagnostic whenever the materialized file lacks any
// of the required substrings.
type fakeCompiler struct {
	mu       sync.Mutex
	required []string
	seen     []string
	dirs     []string
	err      error
}

func (f *fakeCompiler) Compile(_ context.Context, dir, file string) (Result, error) {
	if f.err != nil {
		return Result{}, f.err
	}
	data, err := os.ReadFile(filepath.Join(dir, file))
	if err != nil {
		return Result{}, err
	}
	f.mu.Lock()
	f.seen = append(f.seen, string(data))
	f.dirs = append(f.dirs, dir)
	f.mu.Unlock()

	for _, want := range f.required {
		if !strings.Contains(string(data), want) {
			return Result{Stderr: []byte(file + ": error: missing " + want + "\n"), ExitCode: 1}, nil
		}
	}
	return Result{Stdout: []byte("ok\n")}, nil
}
