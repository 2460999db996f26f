package repository

import (
	"time"

	"github.com/okian/apex/pkg/logger"
)

// Option applies a configuration option to the FileStore.
type Option func(*FileStore)

// WithBackupDir sets the directory receiving snapshots.
func WithBackupDir(dir string) Option {
	return func(s *FileStore) {
		if dir != "" {
			s.backupDir = dir
		}
	}
}

// WithRetention caps the number of snapshots kept by Prune. Values <= 0 keep all.
func WithRetention(n int) Option {
	return func(s *FileStore) {
		s.retention = n
	}
}

// WithClock overrides the time source used to name snapshots.
func WithClock(now func() time.Time) Option {
	return func(s *FileStore) {
		if now != nil {
			s.now = now
		}
	}
}

// WithLogger sets a custom logger for the store.
func WithLogger(l logger.Logger) Option {
	return func(s *FileStore) {
		if l != nil {
			s.logger = l
		}
	}
}
