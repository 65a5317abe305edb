// pkg/runner/runner.go
package runner

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/exec"
	"strings"
)

// Command is one external process invocation
type Command struct {
	Name string   // Program name or path
	Args []string // Arguments
	Dir  string   // Working directory (empty means current)
	Env  []string // Extra KEY=VALUE pairs appended to os.Environ()
}

// String renders the command line for logs and errors
func (c *Command) String() string {
	if len(c.Args) == 0 {
		return c.Name
	}
	return c.Name + " " + strings.Join(c.Args, " ")
}

// Result holds the captured output of a successful run
type Result struct {
	Stdout []byte
	Stderr []byte
}

// Runner executes external tools synchronously. Implementations do not
// retry.
type Runner interface {
	Run(ctx context.Context, cmd *Command) (*Result, error)
}

// ExitError is returned when a tool exits unsuccessfully. Output carries
// the tool's diagnostic text unmodified.
type ExitError struct {
	Command string
	Output  string
	Err     error
}

func (e *ExitError) Error() string {
	out := strings.TrimSpace(e.Output)
	if out == "" {
		return fmt.Sprintf("%s: %v", e.Command, e.Err)
	}
	return fmt.Sprintf("%s: %v\n%s", e.Command, e.Err, out)
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// Exec runs commands with os/exec
type Exec struct {
	// Logger receives the command line and its output as it is produced
	Logger *log.Logger
}

// NewExec creates an Exec runner; a nil logger discards output
func NewExec(logger *log.Logger) *Exec {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Exec{Logger: logger}
}

// Run implements Runner
func (e *Exec) Run(ctx context.Context, cmd *Command) (*Result, error) {
	e.Logger.Printf("Running: %s", cmd)

	c := exec.CommandContext(ctx, cmd.Name, cmd.Args...)
	c.Dir = cmd.Dir
	if len(cmd.Env) > 0 {
		c.Env = append(os.Environ(), cmd.Env...)
	}

	var stdout, stderr, combined bytes.Buffer
	logw := e.Logger.Writer()
	c.Stdout = io.MultiWriter(&stdout, &combined, logw)
	c.Stderr = io.MultiWriter(&stderr, &combined, logw)

	if err := c.Run(); err != nil {
		return nil, &ExitError{
			Command: cmd.String(),
			Output:  combined.String(),
			Err:     err,
		}
	}

	return &Result{
		Stdout: stdout.Bytes(),
		Stderr: stderr.Bytes(),
	}, nil
}
