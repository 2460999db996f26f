// Package tunnel exposes the local check-in form through an external
// tunnelling program and renders QR codes pointing at it.
package tunnel

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"regexp"
	"sync"
	"time"

	"github.com/okian/apex/internal/domain/model"
	"github.com/okian/apex/pkg/logger"
)

const defaultTimeout = 20 * time.Second

var (
	// ErrNoCommand is returned by Start when no tunnel command is configured.
	ErrNoCommand = errors.New("no tunnel command configured")

	urlPattern = regexp.MustCompile(`https://[A-Za-z0-9][A-Za-z0-9.-]*\.[A-Za-z]{2,}(?::\d+)?(?:/[^\s"'<>|]*)?`)
)

// Option applies a configuration option to the Tunnel.
type Option func(*Tunnel)

// WithStarter replaces the process starter.
func WithStarter(s Starter) Option {
	return func(t *Tunnel) {
		if s != nil {
			t.starter = s
		}
	}
}

// WithTimeout bounds the wait for the public URL.
func WithTimeout(d time.Duration) Option {
	return func(t *Tunnel) {
		if d > 0 {
			t.timeout = d
		}
	}
}

// WithLogger sets a custom logger for the tunnel.
func WithLogger(l logger.Logger) Option {
	return func(t *Tunnel) {
		if l != nil {
			t.logger = l
		}
	}
}

// Tunnel runs one tunnelling program.
type Tunnel struct {
	command []string
	starter Starter
	timeout time.Duration
	logger  logger.Logger

	mu   sync.Mutex
	proc Process

	// urlMu is separate so URL does not wait on a Start in progress.
	urlMu sync.RWMutex
	url   string
}

// New creates a tunnel for command, given as program plus arguments.
func New(command []string, opts ...Option) *Tunnel {
	t := &Tunnel{
		command: command,
		starter: ExecStarter{},
		timeout: defaultTimeout,
		logger:  logger.Nop(),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Start launches the program and returns the first https URL it prints.
func (t *Tunnel) Start(ctx context.Context) (string, error) {
	if len(t.command) == 0 {
		return "", ErrNoCommand
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.proc != nil {
		return t.URL(), nil
	}

	proc, err := t.starter.Start(ctx, t.command[0], t.command[1:]...)
	if err != nil {
		return "", fmt.Errorf("%w: start %s: %w", model.ErrExternalTool, t.command[0], err)
	}

	found := make(chan string, 1)
	go t.scan(ctx, proc.Output(), found)

	timer := time.NewTimer(t.timeout)
	defer timer.Stop()

	select {
	case url, ok := <-found:
		if !ok {
			_ = proc.Stop()
			return "", fmt.Errorf("%w: %s exited without printing a URL", model.ErrExternalTool, t.command[0])
		}
		t.proc = proc
		t.urlMu.Lock()
		t.url = url
		t.urlMu.Unlock()
		t.logger.Info(ctx, "tunnel ready", logger.String("url", url))
		return url, nil
	case <-timer.C:
		_ = proc.Stop()
		return "", fmt.Errorf("%w: no URL from %s within %s", model.ErrExternalTool, t.command[0], t.timeout)
	case <-ctx.Done():
		_ = proc.Stop()
		return "", ctx.Err()
	}
}

// URL returns the public URL once Start succeeded.
func (t *Tunnel) URL() string {
	t.urlMu.RLock()
	defer t.urlMu.RUnlock()
	return t.url
}

// Stop terminates the program.
func (t *Tunnel) Stop() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.proc == nil {
		return nil
	}
	err := t.proc.Stop()
	t.proc = nil
	t.urlMu.Lock()
	t.url = ""
	t.urlMu.Unlock()
	return err
}

// scan sends the first URL on found, or closes found at EOF without one.
// It keeps draining afterwards so the program never blocks on a full pipe.
func (t *Tunnel) scan(ctx context.Context, r io.Reader, found chan<- string) {
	sent := false
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := sc.Text()
		t.logger.Debug(ctx, "tunnel output", logger.String("line", line))
		if sent {
			continue
		}
		if url := urlPattern.FindString(line); url != "" {
			found <- url
			sent = true
		}
	}
	if !sent {
		close(found)
	}
}
