package api

import (
	"bytes"
	"net/http"
	"os"

	"github.com/okian/apex/internal/adapters/report"
	"github.com/okian/apex/internal/adapters/tunnel"
)

// ReportHandler renders the ranking page on demand.
type ReportHandler struct {
	deps     LeaderboardDependencies
	renderer *report.Renderer
}

// NewReportHandler creates a new report handler.
func NewReportHandler(deps LeaderboardDependencies, r *report.Renderer) *ReportHandler {
	return &ReportHandler{deps: deps, renderer: r}
}

// HandleReport handles GET /report.
func (h *ReportHandler) HandleReport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	var buf bytes.Buffer
	if err := h.renderer.Render(&buf, h.deps.Rank()); err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(buf.Bytes())
}

// AssetsHandler serves the optional logo and the check-in QR code.
type AssetsHandler struct {
	logoFile string
	qrTarget func() string
}

// NewAssetsHandler creates a new assets handler.
func NewAssetsHandler(logoFile string, qrTarget func() string) *AssetsHandler {
	return &AssetsHandler{logoFile: logoFile, qrTarget: qrTarget}
}

// HandleLogo handles GET /logo.png. A missing logo is a 404, never an error.
func (h *AssetsHandler) HandleLogo(w http.ResponseWriter, r *http.Request) {
	if h.logoFile == "" {
		http.NotFound(w, r)
		return
	}
	info, err := os.Stat(h.logoFile)
	if err != nil || info.IsDir() {
		http.NotFound(w, r)
		return
	}
	http.ServeFile(w, r, h.logoFile)
}

// HandleQR handles GET /qr.png: a QR code of the public check-in URL, or of
// this host when no public URL is known.
func (h *AssetsHandler) HandleQR(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	target := h.qrTarget()
	if target == "" {
		scheme := "http"
		if r.TLS != nil {
			scheme = "https"
		}
		target = scheme + "://" + r.Host + "/"
	}
	png, err := tunnel.QR(target, tunnel.DefaultQRSize)
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	_, _ = w.Write(png)
}
