package upload

import (
	"bytes"
	"context"
	"os/exec"
)

// Output is what a finished command wrote.
type Output struct {
	Stdout string
	Stderr string
}

// Runner runs a program to completion.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) (Output, error)
}

// ExecRunner runs programs with os/exec inside Dir.
type ExecRunner struct {
	Dir string
}

// Run implements Runner.
func (r ExecRunner) Run(ctx context.Context, name string, args ...string) (Output, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = r.Dir
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	err := cmd.Run()
	return Output{Stdout: stdout.String(), Stderr: stderr.String()}, err
}
