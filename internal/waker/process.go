package waker

import (
	"fmt"
	"os"
	"os/exec"

	"github.com/kballard/go-shellquote"

	"github.com/joywake/joywake/internal/logger"
)

// ProcessOptions configures a ProcessWaker. Exactly one of Argv or Command
// must be set.
type ProcessOptions struct {
	// Argv is the program and its arguments
	Argv []string

	// Command is a single command line, split with shell quoting rules
	Command string

	// Name overrides the display name (defaults to the program name)
	Name string

	// Verbose keeps subprocess output on stderr instead of discarding it
	Verbose bool
}

// ProcessWaker wakes the screen by launching an external command. Launches
// never block the caller; the exit status is collected on a separate
// goroutine and feeds the failure latch.
type ProcessWaker struct {
	failureLatch
	name    string
	argv    []string
	verbose bool
}

// NewProcessWaker validates the options and builds the waker. Conflicting
// or missing launch parameters are a configuration error, reported here
// rather than at wake time.
func NewProcessWaker(opts ProcessOptions) (*ProcessWaker, error) {
	if len(opts.Argv) > 0 && opts.Command != "" {
		return nil, fmt.Errorf("wake command: argv and command string are mutually exclusive")
	}

	argv := opts.Argv
	if opts.Command != "" {
		var err error
		argv, err = shellquote.Split(opts.Command)
		if err != nil {
			return nil, fmt.Errorf("wake command %q: %w", opts.Command, err)
		}
	}
	if len(argv) == 0 {
		return nil, fmt.Errorf("wake command: no program given")
	}

	name := opts.Name
	if name == "" {
		name = argv[0]
	}

	return &ProcessWaker{
		name:    name,
		argv:    argv,
		verbose: opts.Verbose,
	}, nil
}

// Name returns the waker's display name
func (w *ProcessWaker) Name() string {
	return w.name
}

// Wake launches the configured command and returns immediately
func (w *ProcessWaker) Wake() {
	if w.Failed() {
		return
	}

	cmd := exec.Command(w.argv[0], w.argv[1:]...)
	if w.verbose {
		cmd.Stdout = os.Stderr
		cmd.Stderr = os.Stderr
	}

	if err := cmd.Start(); err != nil {
		// Cannot even launch (program missing, not executable):
		// retrying will not help.
		w.fail(w.name, err.Error())
		return
	}
	logger.Debug("wake command launched", "waker", w.name, "pid", cmd.Process.Pid)

	go func() {
		err := cmd.Wait()
		switch e := err.(type) {
		case nil:
			w.succeed()
		case *exec.ExitError:
			w.softFail(w.name, e.String())
		default:
			w.fail(w.name, err.Error())
		}
	}()
}
