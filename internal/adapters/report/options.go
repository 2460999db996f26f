package report

import (
	"time"

	"github.com/okian/apex/pkg/logger"
)

// Option applies a configuration option to the Renderer.
type Option func(*Renderer)

// WithPath sets the file written by WriteFile.
func WithPath(path string) Option {
	return func(r *Renderer) {
		if path != "" {
			r.path = path
		}
	}
}

// WithTitle sets the page title and heading.
func WithTitle(title string) Option {
	return func(r *Renderer) {
		if title != "" {
			r.title = title
		}
	}
}

// WithLogo sets the image reference shown above the table. Empty hides it.
func WithLogo(src string) Option {
	return func(r *Renderer) {
		r.logo = src
	}
}

// WithPublicURL sets the link printed in the footer.
func WithPublicURL(url string) Option {
	return func(r *Renderer) {
		r.publicURL = url
	}
}

// WithClock overrides the time source for the generated-at line.
func WithClock(now func() time.Time) Option {
	return func(r *Renderer) {
		if now != nil {
			r.now = now
		}
	}
}

// WithLogger sets a custom logger for the renderer.
func WithLogger(l logger.Logger) Option {
	return func(r *Renderer) {
		if l != nil {
			r.logger = l
		}
	}
}
