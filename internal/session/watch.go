package session

import (
	"context"
	"errors"

	"github.com/fsnotify/fsnotify"
)

// WatchStop blocks until a stop request is present in the store or ctx is
// done. It returns nil once a stop was requested and ctx.Err() otherwise.
func WatchStop(ctx context.Context, s SessionStore) error {
	return waitFor(ctx, s.Dir(), s.StopRequested)
}

// WaitGone blocks until no session record remains in the store.
func WaitGone(ctx context.Context, s SessionStore) error {
	return waitFor(ctx, s.Dir(), func() bool {
		_, err := s.Load()
		return errors.Is(err, ErrNoSession)
	})
}

// waitFor watches dir and returns as soon as cond holds. cond is checked once
// after the watch is in place so a change racing the setup is not missed.
func waitFor(ctx context.Context, dir string, cond func() bool) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	if err := watcher.Add(dir); err != nil {
		return err
	}
	if cond() {
		return nil
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-watcher.Events:
			if !ok {
				return errors.New("watcher closed")
			}
			if event.Has(fsnotify.Create) || event.Has(fsnotify.Write) ||
				event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename) {
				if cond() {
					return nil
				}
			}

		case _, ok := <-watcher.Errors:
			if !ok {
				return errors.New("watcher closed")
			}
			// Watcher errors are non-fatal; continue watching.
		}
	}
}
