// pkg/runner/runnertest/fake.go

// Package runnertest provides a scripted runner.Runner for tests.
package runnertest

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/arc-language/aom-sys/pkg/runner"
)

// HandlerFunc answers one command
type HandlerFunc func(cmd *runner.Command) (*runner.Result, error)

// Fake dispatches commands to handlers keyed by program name. A handler
// registered as "name sub" matches when the first argument is sub.
type Fake struct {
	mu       sync.Mutex
	handlers map[string]HandlerFunc
	calls    []runner.Command
}

// New creates an empty Fake; unhandled commands fail
func New() *Fake {
	return &Fake{handlers: make(map[string]HandlerFunc)}
}

// Handle registers fn for key
func (f *Fake) Handle(key string, fn HandlerFunc) *Fake {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.handlers[key] = fn
	return f
}

// Stdout registers a handler that succeeds with the given stdout
func (f *Fake) Stdout(key, out string) *Fake {
	return f.Handle(key, func(*runner.Command) (*runner.Result, error) {
		return &runner.Result{Stdout: []byte(out)}, nil
	})
}

// Fail registers a handler that fails with output as the diagnostic
func (f *Fake) Fail(key, output string) *Fake {
	return f.Handle(key, func(cmd *runner.Command) (*runner.Result, error) {
		return nil, &runner.ExitError{
			Command: cmd.String(),
			Output:  output,
			Err:     fmt.Errorf("exit status 1"),
		}
	})
}

// Run implements runner.Runner
func (f *Fake) Run(ctx context.Context, cmd *runner.Command) (*runner.Result, error) {
	f.mu.Lock()
	f.calls = append(f.calls, *cmd)
	fn := f.lookup(cmd)
	f.mu.Unlock()

	if fn == nil {
		return nil, fmt.Errorf("runnertest: unexpected command %q", cmd.String())
	}
	return fn(cmd)
}

func (f *Fake) lookup(cmd *runner.Command) HandlerFunc {
	if len(cmd.Args) > 0 {
		if fn, ok := f.handlers[cmd.Name+" "+cmd.Args[0]]; ok {
			return fn
		}
	}
	return f.handlers[cmd.Name]
}

// Calls returns the commands run so far
func (f *Fake) Calls() []runner.Command {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]runner.Command(nil), f.calls...)
}

// Ran reports whether any command line starts with prefix
func (f *Fake) Ran(prefix string) bool {
	for _, c := range f.Calls() {
		if strings.HasPrefix(c.String(), prefix) {
			return true
		}
	}
	return false
}
