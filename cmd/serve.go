package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/okian/apex/internal/adapters/http/api"
	"github.com/okian/apex/internal/adapters/http/site"
	"github.com/okian/apex/internal/adapters/http/swagger"
	"github.com/okian/apex/internal/adapters/report"
	"github.com/okian/apex/internal/adapters/tunnel"
	"github.com/okian/apex/internal/adapters/watch"
	service "github.com/okian/apex/internal/app"
	"github.com/okian/apex/pkg/logger"
)

// HTTP server timeout constants.
const (
	readTimeout       = 10 * time.Second
	writeTimeout      = 10 * time.Second
	idleTimeout       = 60 * time.Second
	readHeaderTimeout = 5 * time.Second
	shutdownTimeout   = 30 * time.Second
)

func (c *cli) serveCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the check-in form, the report and the read API",
		Args:  cobra.NoArgs,
		RunE:  c.withBoard(c.serve),
	}
}

func (c *cli) serve(cmd *cobra.Command, _ []string, board *service.Board) error {
	ctx := cmd.Context()

	if c.cfg.WatchDataFile {
		w := watch.New(c.cfg.DataFile, board, watch.WithLogger(c.log.Named("watch")))
		if err := w.Start(ctx); err != nil {
			c.log.Warn(ctx, "data file watcher disabled", logger.Error(err))
		} else {
			defer w.Stop()
		}
	}

	var tun *tunnel.Tunnel
	qrTarget := func() string { return "" }
	if args := strings.Fields(c.cfg.TunnelCommand); len(args) > 0 {
		tun = tunnel.New(args,
			tunnel.WithTimeout(time.Duration(c.cfg.TunnelTimeoutMS)*time.Millisecond),
			tunnel.WithLogger(c.log.Named("tunnel")),
		)
		qrTarget = tun.URL
		defer func() {
			if err := tun.Stop(); err != nil {
				c.log.Warn(ctx, "tunnel stop failed", logger.Error(err))
			}
		}()
	}

	srv := &http.Server{
		Addr:              c.cfg.Addr,
		Handler:           c.newMux(ctx, board, qrTarget),
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		c.log.Info(ctx, "starting HTTP server", logger.String("addr", c.cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	if tun != nil {
		go c.exposeTunnel(ctx, cmd, tun)
	}

	// Wait for shutdown signal
	select {
	case <-ctx.Done():
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	}
	c.log.Info(ctx, "shutting down server...")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		c.log.Error(ctx, "server shutdown failed", logger.Error(err))
	}
	c.log.Info(ctx, "server stopped")
	return nil
}

// newMux registers the API docs, the embedded form and the API routes.
func (c *cli) newMux(ctx context.Context, board *service.Board, qrTarget func() string) *http.ServeMux {
	mux := http.NewServeMux()
	swagger.Register(ctx, mux)
	site.Register(ctx, mux)

	logo := ""
	if c.hasLogo() {
		logo = "/logo.png"
	}
	renderer := report.NewRenderer(
		report.WithTitle(c.cfg.ReportTitle),
		report.WithLogo(logo),
		report.WithPublicURL(c.cfg.ReportURL),
		report.WithLogger(c.log.Named("report")),
	)
	api.NewServer(board,
		api.WithCheckInAction(c.cfg.CheckInAction),
		api.WithRenderer(renderer),
		api.WithLogoFile(c.cfg.LogoFile),
		api.WithQRTarget(qrTarget),
		api.WithLogger(c.log.Named("http")),
	).Register(ctx, mux)
	return mux
}

// exposeTunnel starts the tunnel and writes the QR code of its URL.
func (c *cli) exposeTunnel(ctx context.Context, cmd *cobra.Command, tun *tunnel.Tunnel) {
	url, err := tun.Start(ctx)
	if err != nil {
		c.log.Warn(ctx, "tunnel unavailable; check-in reachable only locally", logger.Error(err))
		return
	}
	if err := tunnel.WriteQR(c.cfg.QRFile, url, tunnel.DefaultQRSize); err != nil {
		c.log.Warn(ctx, "qr code not written", logger.String("path", c.cfg.QRFile), logger.Error(err))
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Check-in pubblico: %s\n", url)
}
