// Package report renders the ranking as a standalone HTML page.
package report

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/okian/apex/internal/domain/model"
	"github.com/okian/apex/internal/domain/scoring"
	"github.com/okian/apex/pkg/logger"
	"github.com/okian/apex/pkg/metrics"
)

const (
	defaultPath  = "index.html"
	defaultTitle = "Classifica Apex Challenge"
	stampLayout  = "02/01/2006 15:04"
)

//go:embed templates/*.tmpl
var templatesFS embed.FS

var pageTemplate = template.Must(template.ParseFS(templatesFS, "templates/report.html.tmpl"))

// Renderer turns ranking rows into the report page.
type Renderer struct {
	path      string
	title     string
	logo      string
	publicURL string
	now       func() time.Time
	logger    logger.Logger
}

type page struct {
	Title       string
	Logo        string
	PublicURL   string
	GeneratedAt string
	Rows        []model.Entry
}

// NewRenderer creates a renderer configured by opts.
func NewRenderer(opts ...Option) *Renderer {
	r := &Renderer{
		path:   defaultPath,
		title:  defaultTitle,
		now:    time.Now,
		logger: logger.Nop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Path returns the file written by WriteFile.
func (r *Renderer) Path() string { return r.path }

// Render writes the page for rows to w.
func (r *Renderer) Render(w io.Writer, rows []model.Entry) error {
	err := pageTemplate.ExecuteTemplate(w, "report.html.tmpl", page{
		Title:       r.title,
		Logo:        r.logo,
		PublicURL:   r.publicURL,
		GeneratedAt: r.now().Format(stampLayout),
		Rows:        rows,
	})
	metrics.RecordReportRender(err)
	if err != nil {
		return fmt.Errorf("render report: %w", err)
	}
	return nil
}

// WriteFile renders rows and replaces the report file. Readers never see a
// partially written page.
func (r *Renderer) WriteFile(rows []model.Entry) error {
	var buf bytes.Buffer
	if err := r.Render(&buf, rows); err != nil {
		return err
	}

	dir := filepath.Dir(r.path)
	tmp, err := os.CreateTemp(dir, ".report-*.html")
	if err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	defer os.Remove(tmp.Name()) //nolint:errcheck // removed already after a successful rename

	if _, err := tmp.Write(buf.Bytes()); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write report: %w", err)
	}
	if err := tmp.Chmod(0o644); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write report: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	if err := os.Rename(tmp.Name(), r.path); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}

// Subscriber regenerates the report file on every board change.
type Subscriber struct {
	renderer *Renderer
}

// NewSubscriber creates a subscriber writing through r.
func NewSubscriber(r *Renderer) *Subscriber {
	return &Subscriber{renderer: r}
}

// Name identifies the subscriber in logs and metrics.
func (s *Subscriber) Name() string { return "report" }

// OnChange ranks the document carried by c and rewrites the report.
func (s *Subscriber) OnChange(ctx context.Context, c model.Change) error { //nolint:gocritic // hugeParam
	rows := scoring.Rank(&c.Document)
	if err := s.renderer.WriteFile(rows); err != nil {
		return err
	}
	s.renderer.logger.Debug(ctx, "report regenerated",
		logger.String("path", s.renderer.path),
		logger.Int("rows", len(rows)),
	)
	return nil
}
