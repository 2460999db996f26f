package tunnel

import (
	"context"
	"errors"
	"io"
	"os"
	"os/exec"
	"sync"
)

// Process is a running tunnel program.
type Process interface {
	// Output streams stdout and stderr combined. It reaches EOF after exit.
	Output() io.Reader
	// Stop terminates the program.
	Stop() error
}

// Starter launches tunnel programs.
type Starter interface {
	Start(ctx context.Context, name string, args ...string) (Process, error)
}

// ExecStarter starts programs with os/exec. The program outlives the
// context passed to Start and ends with Stop.
type ExecStarter struct{}

// Start implements Starter.
func (ExecStarter) Start(_ context.Context, name string, args ...string) (Process, error) {
	pr, pw := io.Pipe()
	cmd := exec.Command(name, args...)
	cmd.Stdout = pw
	cmd.Stderr = pw
	if err := cmd.Start(); err != nil {
		_ = pw.Close()
		return nil, err
	}
	p := &execProcess{cmd: cmd, out: pr, done: make(chan struct{})}
	go func() {
		p.err = cmd.Wait()
		_ = pw.Close()
		close(p.done)
	}()
	return p, nil
}

type execProcess struct {
	cmd  *exec.Cmd
	out  *io.PipeReader
	done chan struct{}
	err  error
	once sync.Once
}

func (p *execProcess) Output() io.Reader { return p.out }

func (p *execProcess) Stop() error {
	var err error
	p.once.Do(func() {
		select {
		case <-p.done:
			return
		default:
		}
		if kerr := p.cmd.Process.Kill(); kerr != nil && !errors.Is(kerr, os.ErrProcessDone) {
			err = kerr
		}
		<-p.done
	})
	return err
}
