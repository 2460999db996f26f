// Package upload publishes the data file and the report through git.
package upload

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/okian/apex/internal/domain/model"
	"github.com/okian/apex/pkg/logger"
	"github.com/okian/apex/pkg/metrics"
)

const (
	defaultMessage = "Aggiornamento classifica"
	defaultTimeout = time.Minute
	gitBinary      = "git"
)

// Upload results reported to metrics.
const (
	ResultOK      = "ok"
	ResultNoop    = "nothing_to_commit"
	ResultFailure = "error"
)

// Uploader publishes files somewhere visible to others.
type Uploader interface {
	Upload(ctx context.Context, files []string) error
}

// GitUploader stages, commits and pushes files.
type GitUploader struct {
	runner  Runner
	remote  string
	branch  string
	message string
	timeout time.Duration
	logger  logger.Logger
}

var _ Uploader = (*GitUploader)(nil)

// NewGitUploader creates an uploader running git in the current directory
// unless another Runner is given.
func NewGitUploader(opts ...Option) *GitUploader {
	u := &GitUploader{
		runner:  ExecRunner{},
		message: defaultMessage,
		timeout: defaultTimeout,
		logger:  logger.Nop(),
	}
	for _, opt := range opts {
		opt(u)
	}
	return u
}

// Upload runs git add, commit and push. An empty file list stages everything.
// A commit with nothing to commit is not an error.
func (u *GitUploader) Upload(ctx context.Context, files []string) error {
	ctx, cancel := context.WithTimeout(ctx, u.timeout)
	defer cancel()

	if len(files) == 0 {
		files = []string{"."}
	}

	if _, err := u.git(ctx, append([]string{"add", "--"}, files...)...); err != nil {
		metrics.RecordUpload(ResultFailure)
		return err
	}

	result := ResultOK
	if out, err := u.git(ctx, "commit", "-m", u.message); err != nil {
		if !nothingToCommit(out) {
			metrics.RecordUpload(ResultFailure)
			return err
		}
		result = ResultNoop
		u.logger.Info(ctx, "nothing to commit")
	}

	push := []string{"push"}
	if u.remote != "" {
		push = append(push, u.remote)
		if u.branch != "" {
			push = append(push, u.branch)
		}
	}
	if _, err := u.git(ctx, push...); err != nil {
		metrics.RecordUpload(ResultFailure)
		return err
	}

	metrics.RecordUpload(result)
	u.logger.Info(ctx, "upload completed",
		logger.String("result", result),
		logger.Int("files", len(files)),
	)
	return nil
}

func (u *GitUploader) git(ctx context.Context, args ...string) (Output, error) {
	out, err := u.runner.Run(ctx, gitBinary, args...)
	if err != nil {
		detail := strings.TrimSpace(out.Stderr)
		if detail == "" {
			detail = strings.TrimSpace(out.Stdout)
		}
		return out, fmt.Errorf("%w: git %s: %v: %s", model.ErrExternalTool, args[0], err, detail)
	}
	return out, nil
}

func nothingToCommit(out Output) bool {
	text := out.Stdout + out.Stderr
	return strings.Contains(text, "nothing to commit") || strings.Contains(text, "nothing added to commit")
}

// Subscriber uploads a fixed set of files after every board change.
type Subscriber struct {
	uploader Uploader
	files    []string
}

// NewSubscriber creates an auto-upload subscriber.
func NewSubscriber(u Uploader, files ...string) *Subscriber {
	return &Subscriber{uploader: u, files: files}
}

// Name identifies the subscriber in logs and metrics.
func (s *Subscriber) Name() string { return "upload" }

// OnChange uploads the configured files.
func (s *Subscriber) OnChange(ctx context.Context, _ model.Change) error { //nolint:gocritic // hugeParam
	return s.uploader.Upload(ctx, s.files)
}
