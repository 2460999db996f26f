package upload

import (
	"time"

	"github.com/okian/apex/pkg/logger"
)

// Option applies a configuration option to the GitUploader.
type Option func(*GitUploader)

// WithRunner replaces the process runner.
func WithRunner(r Runner) Option {
	return func(u *GitUploader) {
		if r != nil {
			u.runner = r
		}
	}
}

// WithRemote sets the remote and branch to push to. Empty values use the
// repository defaults.
func WithRemote(remote, branch string) Option {
	return func(u *GitUploader) {
		u.remote = remote
		u.branch = branch
	}
}

// WithMessage sets the commit message.
func WithMessage(msg string) Option {
	return func(u *GitUploader) {
		if msg != "" {
			u.message = msg
		}
	}
}

// WithTimeout bounds a whole upload.
func WithTimeout(d time.Duration) Option {
	return func(u *GitUploader) {
		if d > 0 {
			u.timeout = d
		}
	}
}

// WithLogger sets a custom logger for the uploader.
func WithLogger(l logger.Logger) Option {
	return func(u *GitUploader) {
		if l != nil {
			u.logger = l
		}
	}
}
