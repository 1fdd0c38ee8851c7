package store

import (
	"context"
	"fmt"
	"sync"
)

// Subscription is a live query: the subscriber receives an initial
// snapshot on Updates, then a fresh full snapshot after every committed
// write touching one of the watched tables. Snapshots coalesce under
// bursts; the latest one wins. Cancel stops emissions and releases the
// change-feed registration.
type Subscription[T any] struct {
	updates chan T
	done    chan struct{}
	once    sync.Once
}

// Updates returns the snapshot channel. It is closed after Cancel (or
// after the Watch context ends).
func (s *Subscription[T]) Updates() <-chan T {
	return s.updates
}

// Cancel stops the subscription. Safe to call more than once.
func (s *Subscription[T]) Cancel() {
	s.once.Do(func() { close(s.done) })
}

// Watch runs query immediately, emitting the result as the initial
// snapshot, and re-runs it whenever feed signals a change to one of the
// named tables. An error from the initial query is returned directly; an
// error during a re-query skips that emission and keeps the subscription
// alive.
func Watch[T any](
	ctx context.Context,
	feed ChangeFeed,
	tables []string,
	query func(context.Context) (T, error),
) (*Subscription[T], error) {
	initial, err := query(ctx)
	if err != nil {
		return nil, fmt.Errorf("running initial watch query: %w", err)
	}

	signal, release := feed.Subscribe(tables...)

	sub := &Subscription[T]{
		updates: make(chan T, 1),
		done:    make(chan struct{}),
	}
	sub.updates <- initial

	go func() {
		defer release()
		defer close(sub.updates)

		for {
			select {
			case <-sub.done:
				return
			case <-ctx.Done():
				return
			case <-signal:
			}

			snapshot, err := query(ctx)
			if err != nil {
				continue
			}

			// Drop a stale unconsumed snapshot so the buffer always
			// holds the newest one.
			select {
			case <-sub.updates:
			default:
			}

			select {
			case sub.updates <- snapshot:
			case <-sub.done:
				return
			case <-ctx.Done():
				return
			}
		}
	}()

	return sub, nil
}
