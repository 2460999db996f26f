// Package service holds the Board: the single owner of the collaborator
// document, its scoring rules and its persistence.
//
// Every mutation runs check, apply and persist under one mutex, then
// publishes a model.Change. Side effects such as snapshots, report
// regeneration and uploads are subscribers of those changes.
package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/okian/apex/internal/adapters/mq/queue"
	"github.com/okian/apex/internal/adapters/mq/worker"
	"github.com/okian/apex/internal/adapters/repository"
	"github.com/okian/apex/internal/domain/model"
	"github.com/okian/apex/internal/domain/names"
	"github.com/okian/apex/internal/domain/scoring"
	"github.com/okian/apex/pkg/logger"
	"github.com/okian/apex/pkg/metrics"
)

const (
	defaultQueueSize = 1024
	stopTimeout      = 30 * time.Second
)

// Receipt describes an accepted RecordAction call.
type Receipt struct {
	Name    string `json:"name"`
	Kind    string `json:"action"`
	Points  int    `json:"points"`
	Count   int    `json:"count"`
	Total   int    `json:"total"`
	Created bool   `json:"created"`
}

// Board is the in-memory collaborator document plus everything needed to
// mutate it safely.
type Board struct {
	mu  sync.Mutex
	doc model.Document

	table *scoring.Table
	store repository.Store
	now   func() time.Time

	subscribers []worker.Subscriber
	workerCount int
	queueSize   int
	queue       *queue.InMemoryQueue
	pool        *worker.Pool

	logger logger.Logger
}

// NewBoard creates an empty board. Call Load to read the persisted document.
func NewBoard(store repository.Store, table *scoring.Table, opts ...Option) *Board {
	b := &Board{
		table:       table,
		store:       store,
		now:         time.Now,
		workerCount: 1,
		queueSize:   defaultQueueSize,
		logger:      logger.Nop(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Load replaces the in-memory document with the persisted one.
func (b *Board) Load(ctx context.Context) error {
	doc, err := b.store.Load(ctx)
	if err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.doc = *doc
	b.updateTotals()
	b.logger.Info(ctx, "board loaded", logger.Int("collaborators", len(b.doc.Collaborators)))
	return nil
}

// Start launches the notification workers.
func (b *Board) Start(ctx context.Context) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.pool != nil {
		return
	}
	b.queue = queue.NewInMemoryQueue(queue.WithCapacity(b.queueSize))
	b.pool = worker.NewPool(b.workerCount, b.queue, b.subscribers, worker.WithLogger(b.logger))
	b.pool.Start(ctx)
	b.logger.Info(ctx, "notification workers started",
		logger.Int("workers", b.workerCount),
		logger.Int("subscribers", len(b.subscribers)),
	)
}

// Stop drains pending notifications and stops the workers.
func (b *Board) Stop() {
	b.mu.Lock()
	pool := b.pool
	b.pool = nil
	b.queue = nil
	b.mu.Unlock()

	if pool == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), stopTimeout)
	defer cancel()
	if err := pool.Shutdown(ctx); err != nil {
		b.logger.Warn(ctx, "notification workers did not drain", logger.Error(err))
		return
	}
	b.logger.Info(ctx, "notification workers stopped")
}

// Table returns the point table in use.
func (b *Board) Table() *scoring.Table {
	return b.table
}

// RecordAction appends count actions of kind to the collaborator matching
// name, creating it when absent.
func (b *Board) RecordAction(ctx context.Context, name, kind string, count int) (Receipt, error) {
	if count < 1 {
		metrics.RecordActionError("invalid_count")
		return Receipt{}, fmt.Errorf("%w: %d", ErrInvalidCount, count)
	}
	points, err := b.table.Points(kind)
	if err != nil {
		metrics.RecordActionError("unknown_action")
		return Receipt{}, err
	}
	if b.table.IsDailyLimited(kind) && count > 1 {
		metrics.RecordActionError("invalid_count")
		return Receipt{}, fmt.Errorf("%w: %q is limited to one per day", ErrInvalidCount, kind)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	canonical, created, err := b.target(name)
	if err != nil {
		metrics.RecordActionError("invalid_name")
		return Receipt{}, err
	}

	now := b.now()
	if b.table.IsDailyLimited(kind) {
		if i := b.doc.Index(canonical); i >= 0 && scoring.HasOnDay(b.doc.Collaborators[i].Actions, kind, now) {
			metrics.RecordCheckInRejected()
			return Receipt{}, fmt.Errorf("%w: %s", ErrDuplicateCheckIn, canonical)
		}
	}

	var total int
	err = b.mutate(ctx, model.OpRecordAction, canonical, func(doc *model.Document) error {
		i := doc.Index(canonical)
		if i < 0 {
			doc.Collaborators = append(doc.Collaborators, model.Collaborator{Name: canonical, Actions: []model.Action{}})
			i = len(doc.Collaborators) - 1
		}
		at := model.NewTimestamp(now)
		for n := 0; n < count; n++ {
			doc.Collaborators[i].Actions = append(doc.Collaborators[i].Actions, model.Action{Kind: kind, Points: points, At: at})
		}
		total = doc.Collaborators[i].Total()
		return nil
	})
	if err != nil {
		return Receipt{}, err
	}

	metrics.RecordActionRecorded(kind, count)
	b.logger.Info(ctx, "action recorded",
		logger.String("name", canonical),
		logger.String("action", kind),
		logger.Int("count", count),
		logger.Int("total", total),
	)
	return Receipt{Name: canonical, Kind: kind, Points: points, Count: count, Total: total, Created: created}, nil
}

// AddCollaborator creates a collaborator with no actions.
func (b *Board) AddCollaborator(ctx context.Context, name string) (string, error) {
	canonical := names.Standardize(name)
	if canonical == "" {
		return "", ErrInvalidName
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if existing, ok := names.Resolve(name, b.doc.Names()); ok {
		return "", fmt.Errorf("%w: %s", ErrNameCollision, existing)
	}
	err := b.mutate(ctx, model.OpAddCollaborator, canonical, func(doc *model.Document) error {
		doc.Collaborators = append(doc.Collaborators, model.Collaborator{Name: canonical, Actions: []model.Action{}})
		return nil
	})
	if err != nil {
		return "", err
	}
	b.logger.Info(ctx, "collaborator added", logger.String("name", canonical))
	return canonical, nil
}

// DeleteAction removes the action at the 0-based index and returns it.
func (b *Board) DeleteAction(ctx context.Context, name string, index int) (model.Action, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	canonical, ok := names.Resolve(name, b.doc.Names())
	if !ok {
		return model.Action{}, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	actions := b.doc.Collaborators[b.doc.Index(canonical)].Actions
	if index < 0 || index >= len(actions) {
		return model.Action{}, fmt.Errorf("%w: %d not in [0, %d)", ErrIndexOutOfRange, index, len(actions))
	}
	removed := actions[index]

	err := b.mutate(ctx, model.OpDeleteAction, canonical, func(doc *model.Document) error {
		c := &doc.Collaborators[doc.Index(canonical)]
		c.Actions = append(c.Actions[:index], c.Actions[index+1:]...)
		return nil
	})
	if err != nil {
		return model.Action{}, err
	}
	b.logger.Info(ctx, "action deleted",
		logger.String("name", canonical),
		logger.Int("index", index),
		logger.String("action", removed.Kind),
	)
	return removed, nil
}

// DeleteCollaborator removes a collaborator and its history.
func (b *Board) DeleteCollaborator(ctx context.Context, name string) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	canonical, ok := names.Resolve(name, b.doc.Names())
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	err := b.mutate(ctx, model.OpDeleteCollaborator, canonical, func(doc *model.Document) error {
		i := doc.Index(canonical)
		doc.Collaborators = append(doc.Collaborators[:i], doc.Collaborators[i+1:]...)
		return nil
	})
	if err != nil {
		return "", err
	}
	b.logger.Info(ctx, "collaborator deleted", logger.String("name", canonical))
	return canonical, nil
}

// RenameCollaborator moves the history of oldName under newName, keeping
// its position. Renaming to the current canonical name is a no-op.
func (b *Board) RenameCollaborator(ctx context.Context, oldName, newName string) (string, error) {
	target := names.Standardize(newName)
	if target == "" {
		return "", ErrInvalidName
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	source, ok := names.Resolve(oldName, b.doc.Names())
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrNotFound, oldName)
	}
	if existing, ok := names.Resolve(newName, b.doc.Names()); ok && existing != source {
		return "", fmt.Errorf("%w: %s", ErrNameCollision, existing)
	}
	if target == source {
		return source, nil
	}

	err := b.mutate(ctx, model.OpRenameCollaborator, target, func(doc *model.Document) error {
		doc.Collaborators[doc.Index(source)].Name = target
		return nil
	})
	if err != nil {
		return "", err
	}
	b.logger.Info(ctx, "collaborator renamed",
		logger.String("from", source),
		logger.String("to", target),
	)
	return target, nil
}

// Reload re-reads the persisted document and reports whether it differed
// from the in-memory one. The read happens under the board lock so a
// concurrent mutation cannot be replaced by an older file.
func (b *Board) Reload(ctx context.Context) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	doc, err := b.store.Load(ctx)
	if err != nil {
		return false, err
	}
	if b.doc.Equal(doc) {
		return false, nil
	}
	b.doc = *doc
	b.updateTotals()
	b.publish(ctx, model.OpReload, "")
	b.logger.Info(ctx, "board reloaded from disk", logger.Int("collaborators", len(b.doc.Collaborators)))
	return true, nil
}

// Resolve maps free text to an existing canonical name.
func (b *Board) Resolve(name string) (string, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return names.Resolve(name, b.doc.Names())
}

// TotalPoints returns the points of the collaborator matching name, 0 if unknown.
func (b *Board) TotalPoints(name string) int {
	b.mu.Lock()
	defer b.mu.Unlock()

	canonical, ok := names.Resolve(name, b.doc.Names())
	if !ok {
		return 0
	}
	return b.doc.Collaborators[b.doc.Index(canonical)].Total()
}

// Rank returns all collaborators by total points, ties in document order.
func (b *Board) Rank() []model.Entry {
	b.mu.Lock()
	defer b.mu.Unlock()
	return scoring.Rank(&b.doc)
}

// Collaborators lists canonical names in document order.
func (b *Board) Collaborators() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.doc.Names()
}

// Actions returns a copy of the history of the collaborator matching name.
func (b *Board) Actions(name string) (string, []model.Action, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	canonical, ok := names.Resolve(name, b.doc.Names())
	if !ok {
		return "", nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	actions := b.doc.Collaborators[b.doc.Index(canonical)].Actions
	return canonical, append([]model.Action(nil), actions...), nil
}

// Snapshot returns a deep copy of the document.
func (b *Board) Snapshot() model.Document {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.doc.Clone()
}

// target resolves name to an existing collaborator, or standardizes it for a
// new one. Callers hold mu.
func (b *Board) target(name string) (string, bool, error) {
	if canonical, ok := names.Resolve(name, b.doc.Names()); ok {
		return canonical, false, nil
	}
	canonical := names.Standardize(name)
	if canonical == "" {
		return "", false, ErrInvalidName
	}
	return canonical, true, nil
}

// mutate applies fn to a copy of the document, persists the copy, and only
// then makes it current. Callers hold mu.
func (b *Board) mutate(ctx context.Context, op model.Op, name string, fn func(doc *model.Document) error) error {
	start := time.Now()
	next := b.doc.Clone()
	if err := fn(&next); err != nil {
		return err
	}
	if err := b.store.Save(ctx, &next); err != nil {
		metrics.RecordActionError("persist")
		return fmt.Errorf("persist %s: %w", op, err)
	}
	b.doc = next
	metrics.RecordMutation(string(op), float64(time.Since(start).Milliseconds()))
	b.updateTotals()
	b.publish(ctx, op, name)
	return nil
}

// publish enqueues a change notification. Callers hold mu.
func (b *Board) publish(ctx context.Context, op model.Op, name string) {
	if b.queue == nil {
		return
	}
	change := model.Change{
		ID:       uuid.NewString(),
		Op:       op,
		Name:     name,
		At:       b.now(),
		Document: b.doc.Clone(),
	}
	if err := b.queue.Enqueue(context.WithoutCancel(ctx), change); err != nil {
		b.logger.Warn(ctx, "change notification dropped",
			logger.String("op", string(op)),
			logger.String("change_id", change.ID),
			logger.Error(err),
		)
	}
}

func (b *Board) updateTotals() {
	points := 0
	for _, c := range b.doc.Collaborators {
		points += c.Total()
	}
	metrics.UpdateBoardTotals(len(b.doc.Collaborators), points)
}
