package repository

import (
	"context"

	"github.com/okian/apex/internal/domain/model"
	"github.com/okian/apex/pkg/logger"
)

// SnapshotSubscriber writes a backup for every board change and applies the
// retention limit.
type SnapshotSubscriber struct {
	store  *FileStore
	logger logger.Logger
}

// NewSnapshotSubscriber creates a subscriber backed by store.
func NewSnapshotSubscriber(store *FileStore, l logger.Logger) *SnapshotSubscriber {
	if l == nil {
		l = logger.Nop()
	}
	return &SnapshotSubscriber{store: store, logger: l}
}

// Name identifies the subscriber in logs and metrics.
func (s *SnapshotSubscriber) Name() string { return "snapshot" }

// OnChange snapshots the document carried by c.
func (s *SnapshotSubscriber) OnChange(ctx context.Context, c model.Change) error { //nolint:gocritic // hugeParam
	path, err := s.store.Snapshot(ctx, &c.Document)
	if err != nil {
		return err
	}
	pruned, err := s.store.Prune(ctx)
	if err != nil {
		return err
	}
	s.logger.Debug(ctx, "snapshot written",
		logger.String("path", path),
		logger.Int("pruned", pruned),
	)
	return nil
}
