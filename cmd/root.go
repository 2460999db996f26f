package main

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/okian/apex/internal/adapters/mq/worker"
	"github.com/okian/apex/internal/adapters/report"
	"github.com/okian/apex/internal/adapters/repository"
	"github.com/okian/apex/internal/adapters/upload"
	service "github.com/okian/apex/internal/app"
	"github.com/okian/apex/internal/config"
	"github.com/okian/apex/internal/domain/scoring"
	"github.com/okian/apex/pkg/logger"
)

// cli carries the state shared by every subcommand of one invocation.
type cli struct {
	configFile string

	cfg *config.Config
	log logger.Logger
}

func newRootCommand() *cobra.Command {
	c := &cli{}
	root := &cobra.Command{
		Use:               "apex",
		Short:             "Leaderboard tracker for the Apex Challenge",
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: c.setup,
	}
	root.PersistentFlags().StringVar(&c.configFile, "config", "", "YAML config file (default from "+config.EnvFile+")")

	root.AddCommand(
		c.serveCommand(),
		c.addCommand(),
		c.recordCommand(),
		c.actionsCommand(),
		c.rankCommand(),
		c.historyCommand(),
		c.deleteActionCommand(),
		c.deleteCommand(),
		c.renameCommand(),
		c.reportCommand(),
		c.uploadCommand(),
		c.qrCommand(),
		c.urlCommand(),
	)
	return root
}

// setup initializes logging on stderr and loads the configuration.
func (c *cli) setup(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	if err := logger.InitWithWriter(cmd.ErrOrStderr()); err != nil {
		return err
	}
	c.log = logger.Get()

	path := c.configFile
	if path == "" {
		path = os.Getenv(config.EnvFile)
	}
	cfg, err := config.LoadFile(ctx, path)
	if err != nil {
		return err
	}

	// Apply configured log level (fallback to info on invalid input)
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		c.log.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}
	c.cfg = cfg
	return nil
}

func (c *cli) table() *scoring.Table {
	return scoring.NewTable(
		scoring.WithPoints(c.cfg.Actions),
		scoring.WithDailyLimited(c.cfg.CheckInAction),
	)
}

func (c *cli) store() *repository.FileStore {
	return repository.NewFileStore(c.cfg.DataFile,
		repository.WithBackupDir(c.cfg.BackupDir),
		repository.WithRetention(c.cfg.BackupRetention),
		repository.WithLogger(c.log.Named("store")),
	)
}

// fileRenderer writes the static report. The logo is referenced next to
// the report and only when it exists.
func (c *cli) fileRenderer() *report.Renderer {
	logo := ""
	if c.hasLogo() {
		logo = filepath.Base(c.cfg.LogoFile)
	}
	return report.NewRenderer(
		report.WithPath(c.cfg.ReportFile),
		report.WithTitle(c.cfg.ReportTitle),
		report.WithLogo(logo),
		report.WithPublicURL(c.cfg.ReportURL),
		report.WithLogger(c.log.Named("report")),
	)
}

func (c *cli) hasLogo() bool {
	if c.cfg.LogoFile == "" {
		return false
	}
	info, err := os.Stat(c.cfg.LogoFile)
	return err == nil && !info.IsDir()
}

func (c *cli) uploader() *upload.GitUploader {
	return upload.NewGitUploader(
		upload.WithRemote(c.cfg.GitRemote, c.cfg.GitBranch),
		upload.WithMessage(c.cfg.CommitMessage),
		upload.WithTimeout(time.Duration(c.cfg.UploadTimeoutMS)*time.Millisecond),
		upload.WithLogger(c.log.Named("upload")),
	)
}

// publishedFiles are the files pushed by upload and auto-upload.
func (c *cli) publishedFiles() []string {
	return []string{c.cfg.DataFile, c.cfg.ReportFile}
}

// openBoard loads the board and starts its notification workers with the
// snapshot, report and optional upload subscribers.
func (c *cli) openBoard(ctx context.Context) (*service.Board, error) {
	store := c.store()
	subs := []worker.Subscriber{
		repository.NewSnapshotSubscriber(store, c.log.Named("snapshot")),
		report.NewSubscriber(c.fileRenderer()),
	}
	if c.cfg.AutoUpload {
		subs = append(subs, upload.NewSubscriber(c.uploader(), c.publishedFiles()...))
	}

	board := service.NewBoard(store, c.table(),
		service.WithLogger(c.log.Named("board")),
		service.WithSubscribers(subs...),
		service.WithWorkerCount(c.cfg.NotifyWorkers),
		service.WithQueueSize(c.cfg.QueueSize),
	)
	if err := board.Load(ctx); err != nil {
		return nil, err
	}
	// Pending notifications must survive a cancelled command context.
	board.Start(context.WithoutCancel(ctx))
	return board, nil
}

// withBoard runs fn against a loaded board and drains its notifications
// before returning.
func (c *cli) withBoard(fn func(cmd *cobra.Command, args []string, b *service.Board) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		board, err := c.openBoard(cmd.Context())
		if err != nil {
			return err
		}
		defer board.Stop()
		return fn(cmd, args, board)
	}
}
