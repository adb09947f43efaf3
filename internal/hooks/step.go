package hooks

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"time"

	"git.home.luguber.info/inful/sitebuilder/internal/config"
)

// Phase names a build event point.
type Phase string

const (
	PhaseBefore Phase = "before"
	PhaseAfter  Phase = "after"
)

// Step is one named, fallible unit of work.
type Step interface {
	Name() string
	Run(ctx context.Context) error
}

// FuncStep adapts a Go function to Step.
type FuncStep struct {
	StepName string
	Fn       func(ctx context.Context) error
}

// Name returns the step name.
func (s FuncStep) Name() string { return s.StepName }

// Run calls the wrapped function.
func (s FuncStep) Run(ctx context.Context) error { return s.Fn(ctx) }

// CommandStep runs a command line through the shell. Output is forwarded to the log
// line by line.
type CommandStep struct {
	StepName string
	Command  string
	Dir      string
	Env      map[string]string
	// Shell defaults to "sh".
	Shell string
}

// killGrace is how long a canceled command gets to exit before its pipes are closed.
const killGrace = 5 * time.Second

// Name returns the step name.
func (s *CommandStep) Name() string { return s.StepName }

// Run executes the command and waits for it. A non-zero exit status is an error.
func (s *CommandStep) Run(ctx context.Context) error {
	shell := s.Shell
	if shell == "" {
		shell = "sh"
	}
	cmd := exec.CommandContext(ctx, shell, "-c", s.Command)
	cmd.Dir = s.Dir
	cmd.WaitDelay = killGrace
	cmd.Env = append(os.Environ(), envList(s.Env)...)

	stdout := newLogWriter(s.StepName, "stdout")
	stderr := newLogWriter(s.StepName, "stderr")
	cmd.Stdout = stdout
	cmd.Stderr = stderr

	err := cmd.Run()
	stdout.Flush()
	stderr.Flush()
	if err != nil {
		if tail := stderr.Tail(); tail != "" {
			return fmt.Errorf("command %q failed: %w: %s", s.Command, err, tail)
		}
		return fmt.Errorf("command %q failed: %w", s.Command, err)
	}
	return nil
}

func envList(env map[string]string) []string {
	keys := make([]string, 0, len(env))
	for k := range env {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		out = append(out, k+"="+env[k])
	}
	return out
}

// FromConfig turns hook configuration into command steps. Relative working
// directories resolve against baseDir.
func FromConfig(hooks []config.HookConfig, baseDir string) []Step {
	steps := make([]Step, 0, len(hooks))
	for _, h := range hooks {
		dir := h.Dir
		switch {
		case dir == "":
			dir = baseDir
		case !filepath.IsAbs(dir):
			dir = filepath.Join(baseDir, dir)
		}
		steps = append(steps, &CommandStep{
			StepName: h.Name,
			Command:  h.Run,
			Dir:      dir,
			Env:      h.Env,
		})
	}
	return steps
}
