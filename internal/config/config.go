// Package config defines process configuration and its loading.
//
// Conventions:
// - New() builds a Config with defaults; Load layers file and env on top.
// - External errors are wrapped with this package's sentinel kinds.
package config

// Default action table of the Apex Challenge.
const (
	ActionDirectSignup   = "Collaboratore diretto"
	ActionMeetingDay     = "Meeting day"
	ActionChangeYourLife = "Change your life"
	ActionIncentive      = "Incentive da 5"
	ActionReferral       = "Segnalazione"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address of the check-in form.
	Addr string `koanf:"addr"`

	// DataFile is the primary JSON document.
	DataFile string `koanf:"data_file"`
	// BackupDir receives one timestamped snapshot per mutation.
	BackupDir string `koanf:"backup_dir"`
	// BackupRetention caps the number of snapshots kept; <= 0 keeps all.
	BackupRetention int `koanf:"backup_retention"`
	// WatchDataFile reloads the board when the data file changes on disk.
	WatchDataFile bool `koanf:"watch_data_file"`

	// ReportFile is the generated static HTML ranking.
	ReportFile  string `koanf:"report_file"`
	ReportTitle string `koanf:"report_title"`
	// ReportURL is where the published report can be reached.
	ReportURL string `koanf:"report_url"`
	// LogoFile is an optional image shown on the report and the form.
	LogoFile string `koanf:"logo_file"`

	// Actions maps an action kind to its point value.
	Actions map[string]int `koanf:"actions"`
	// CheckInAction is the kind limited to one occurrence per day.
	CheckInAction string `koanf:"checkin_action"`

	// QueueSize bounds pending change notifications.
	QueueSize int `koanf:"queue_size"`
	// NotifyWorkers sets how many goroutines dispatch change notifications.
	// Only 1 is accepted: concurrent workers could finish out of order and
	// leave an older ranking in the report.
	NotifyWorkers int `koanf:"notify_workers"`

	// AutoUpload pushes data and report after every change.
	AutoUpload      bool   `koanf:"auto_upload"`
	GitRemote       string `koanf:"git_remote"`
	GitBranch       string `koanf:"git_branch"`
	CommitMessage   string `koanf:"commit_message"`
	UploadTimeoutMS int    `koanf:"upload_timeout_ms"`

	// TunnelCommand is the command line exposing Addr publicly; empty disables it.
	TunnelCommand   string `koanf:"tunnel_command"`
	TunnelTimeoutMS int    `koanf:"tunnel_timeout_ms"`
	// QRFile receives the PNG QR code pointing to the check-in form.
	QRFile string `koanf:"qr_file"`
}

// DefaultActions returns a fresh copy of the default point table.
func DefaultActions() map[string]int {
	return map[string]int{
		ActionDirectSignup:   100,
		ActionMeetingDay:     50,
		ActionChangeYourLife: 50,
		ActionIncentive:      50,
		ActionReferral:       25,
	}
}

// New creates a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:        "info",
		Addr:            ":8000",
		DataFile:        "classifica_apex_data.json",
		BackupDir:       "backups",
		BackupRetention: 50,
		WatchDataFile:   true,
		ReportFile:      "index.html",
		ReportTitle:     "Classifica Apex Challenge",
		ReportURL:       "https://davidezero.github.io/apex-challenge-report/",
		LogoFile:        "logo_ubroker.png",
		Actions:         DefaultActions(),
		CheckInAction:   ActionMeetingDay,
		QueueSize:       1024,
		NotifyWorkers:   1,
		CommitMessage:   "Aggiornamento classifica",
		UploadTimeoutMS: 60_000,
		TunnelTimeoutMS: 20_000,
		QRFile:          "qr_checkin.png",
	}
}
