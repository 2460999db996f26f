// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"net/http"

	service "github.com/okian/apex/internal/app"
	"github.com/okian/apex/internal/adapters/report"
	"github.com/okian/apex/internal/domain/model"
	"github.com/okian/apex/pkg/logger"
)

// Dependencies required by HTTP handlers. The board satisfies all of them.
type Dependencies interface {
	CheckInDependencies
	LeaderboardDependencies
	RankDependencies
}

// Option applies a configuration option to the Server.
type Option func(*Server)

// WithCheckInAction sets the action recorded by the check-in pages.
func WithCheckInAction(kind string) Option {
	return func(s *Server) {
		if kind != "" {
			s.checkInAction = kind
		}
	}
}

// WithRenderer sets the renderer behind GET /report.
func WithRenderer(r *report.Renderer) Option {
	return func(s *Server) {
		if r != nil {
			s.renderer = r
		}
	}
}

// WithLogoFile sets the image served at GET /logo.png.
func WithLogoFile(path string) Option {
	return func(s *Server) {
		s.logoFile = path
	}
}

// WithQRTarget sets the function returning the URL encoded at GET /qr.png.
// An empty result falls back to the request host.
func WithQRTarget(fn func() string) Option {
	return func(s *Server) {
		if fn != nil {
			s.qrTarget = fn
		}
	}
}

// WithLogger sets a custom logger for the handlers.
func WithLogger(l logger.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// Server wires HTTP routes for the check-in front door and read API.
type Server struct {
	checkInAction string
	renderer      *report.Renderer
	logoFile      string
	qrTarget      func() string
	logger        logger.Logger

	healthHandler      *HealthHandler
	checkInHandler     *CheckInHandler
	leaderboardHandler *LeaderboardHandler
	rankHandler        *RankHandler
	reportHandler      *ReportHandler
	assetsHandler      *AssetsHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, opts ...Option) *Server {
	s := &Server{
		checkInAction: "Meeting day",
		renderer:      report.NewRenderer(),
		qrTarget:      func() string { return "" },
		logger:        logger.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.healthHandler = NewHealthHandler()
	s.checkInHandler = NewCheckInHandler(deps, s.checkInAction, s.logger)
	s.leaderboardHandler = NewLeaderboardHandler(deps)
	s.rankHandler = NewRankHandler(deps)
	s.reportHandler = NewReportHandler(deps, s.renderer)
	s.assetsHandler = NewAssetsHandler(s.logoFile, s.qrTarget)
	return s
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	handle := func(pattern, endpoint string, h http.HandlerFunc) {
		mux.HandleFunc(pattern, RequestIDMiddleware(MetricsMiddleware(h, endpoint), s.logger))
	}

	handle("/healthz", "healthz", s.healthHandler.HandleHealth)
	mux.Handle("/metrics", s.healthHandler.MetricsHandler())

	handle("/conferma_checkin", "conferma_checkin", s.checkInHandler.HandleConfirm)
	handle("/esegui_checkin", "esegui_checkin", s.checkInHandler.HandleExecute)
	handle("/submit_checkin", "submit_checkin", s.checkInHandler.HandleSubmit)

	handle("/leaderboard", "leaderboard", s.leaderboardHandler.HandleGetLeaderboard)
	handle("/rank/", "rank", s.rankHandler.HandleGetRank)
	handle("/report", "report", s.reportHandler.HandleReport)

	handle("/logo.png", "logo", s.assetsHandler.HandleLogo)
	handle("/qr.png", "qr", s.assetsHandler.HandleQR)
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	status, code := statusFor(err)
	writeJSON(w, status, errorResponse{Code: code, Message: err.Error()})
}

// Entry mirrors the read shape returned by ranking queries.
type Entry = model.Entry

var _ Dependencies = (*service.Board)(nil)
