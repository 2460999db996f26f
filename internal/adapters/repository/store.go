// Package repository persists the board as a single JSON document and
// keeps timestamped backups next to it.
package repository

import (
	"context"

	"github.com/okian/apex/internal/domain/model"
)

// Store provides read/write access to the persisted board.
type Store interface {
	// Load reads the primary document. A corrupt document is replaced by
	// the most recent backup; when none is usable an empty board is returned.
	Load(ctx context.Context) (*model.Document, error)

	// Save overwrites the primary document.
	Save(ctx context.Context, doc *model.Document) error

	// Snapshot writes a timestamped copy of doc and returns its path.
	Snapshot(ctx context.Context, doc *model.Document) (string, error)
}
