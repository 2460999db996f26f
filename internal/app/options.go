package service

import (
	"time"

	"github.com/okian/apex/internal/adapters/mq/worker"
	"github.com/okian/apex/pkg/logger"
)

// Option applies a configuration option to the Board.
type Option func(*Board)

// WithClock overrides the time source used to stamp actions.
func WithClock(now func() time.Time) Option {
	return func(b *Board) {
		if now != nil {
			b.now = now
		}
	}
}

// WithLogger sets a custom logger for the board.
func WithLogger(l logger.Logger) Option {
	return func(b *Board) {
		if l != nil {
			b.logger = l
		}
	}
}

// WithSubscribers registers change subscribers, run in the given order.
func WithSubscribers(subs ...worker.Subscriber) Option {
	return func(b *Board) {
		b.subscribers = append(b.subscribers, subs...)
	}
}

// WithWorkerCount sets the number of notification workers.
func WithWorkerCount(count int) Option {
	return func(b *Board) {
		if count > 0 {
			b.workerCount = count
		}
	}
}

// WithQueueSize sets the maximum number of pending change notifications.
func WithQueueSize(size int) Option {
	return func(b *Board) {
		if size > 0 {
			b.queueSize = size
		}
	}
}
