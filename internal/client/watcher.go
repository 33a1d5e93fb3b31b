package client

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// DefaultDebounce is the delay before re-issuing the long-poll wait after it
// resolves, so near-simultaneous server events coalesce into one refresh.
const DefaultDebounce = 100 * time.Millisecond

// Watcher runs the long-poll wait in the background and reports each batch
// of changed subsystems through a callback. It never calls back into
// rendering; the callback owns whatever refresh follows.
type Watcher struct {
	ch       *Channel
	log      *zap.Logger
	notify   func(changed []string)
	debounce time.Duration
}

// NewWatcher creates a watcher over the client's channel. A zero debounce
// selects DefaultDebounce.
func NewWatcher(log *zap.Logger, ch *Channel, debounce time.Duration, notify func(changed []string)) *Watcher {
	if log == nil {
		log = zap.NewNop()
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &Watcher{ch: ch, log: log, notify: notify, debounce: debounce}
}

// Run loops the wait until the context ends. Preempted waits resolve with no
// changes and are re-issued silently; transport errors are logged and
// retried after the debounce delay so a dead server never busy-loops.
func (w *Watcher) Run(ctx context.Context) error {
	for {
		changed, err := w.ch.Wait(ctx, nil)
		if ctx.Err() != nil {
			return nil
		}
		if err != nil {
			w.log.Warn("wait failed", zap.Error(err))
		} else if len(changed) > 0 {
			w.log.Debug("changed", zap.Strings("subsystems", changed))
			w.notify(changed)
		}

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(w.debounce):
		}
	}
}
