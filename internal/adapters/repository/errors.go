package repository

import "errors"

// Sentinel kinds for store errors.
var (
	// ErrCorruptStore marks a primary file that could not be parsed. Load
	// recovers from it and only reports it through logs and metrics.
	ErrCorruptStore = errors.New("corrupt store")
	// ErrNoBackup is returned when no backup file is available.
	ErrNoBackup = errors.New("no backup available")
)
