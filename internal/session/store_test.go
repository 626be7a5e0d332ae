package session_test

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"pgregory.net/rapid"

	"github.com/fakeyudi/lapse/internal/session"
)

// generateTime produces an arbitrary time.Time value.
// We truncate to second precision to match JSON round-trip fidelity.
func generateTime(t *rapid.T) time.Time {
	sec := rapid.Int64Range(0, 1_700_000_000).Draw(t, "unix_sec")
	return time.Unix(sec, 0).UTC()
}

// generateRecord produces an arbitrary Record value.
func generateRecord(t *rapid.T) *session.Record {
	return &session.Record{
		ID:          rapid.StringN(1, 36, -1).Draw(t, "id"),
		RecorderPID: rapid.IntRange(1, 1<<22).Draw(t, "recorder_pid"),
		EncoderPID:  rapid.IntRange(0, 1<<22).Draw(t, "encoder_pid"),
		TargetID:    rapid.StringN(1, 40, -1).Draw(t, "target_id"),
		TargetName:  rapid.StringN(0, 100, -1).Draw(t, "target_name"),
		OutputPath:  rapid.StringN(1, 100, -1).Draw(t, "output_path"),
		Quality:     rapid.SampledFrom([]string{"low", "high"}).Draw(t, "quality"),
		StartTime:   generateTime(t),
	}
}

func newStore(t *testing.T) session.SessionStore {
	t.Helper()
	t.Setenv("XDG_DATA_HOME", t.TempDir())
	store, err := session.NewSessionStore()
	if err != nil {
		t.Fatalf("NewSessionStore: %v", err)
	}
	return store
}

// Property: a saved record loads back unchanged.
func TestRecordPersistenceRoundTrip(t *testing.T) {
	store := newStore(t)

	rapid.Check(t, func(t *rapid.T) {
		original := generateRecord(t)

		if err := store.Save(original); err != nil {
			t.Fatalf("Save: %v", err)
		}
		loaded, err := store.Load()
		if err != nil {
			t.Fatalf("Load: %v", err)
		}

		if !loaded.StartTime.Equal(original.StartTime) {
			t.Errorf("StartTime mismatch: got %v, want %v", loaded.StartTime, original.StartTime)
		}
		loaded.StartTime = original.StartTime
		if *loaded != *original {
			t.Errorf("record mismatch: got %+v, want %+v", *loaded, *original)
		}
	})
}

// TestLoadReturnsErrNoSession verifies that Load returns ErrNoSession when no
// session file exists on disk.
func TestLoadReturnsErrNoSession(t *testing.T) {
	store := newStore(t)

	_, err := store.Load()
	if !errors.Is(err, session.ErrNoSession) {
		t.Errorf("expected ErrNoSession, got: %v", err)
	}
}

// TestSaveFailurePropagatesError verifies that the store reports an error when
// the underlying directory is not writable.
func TestSaveFailurePropagatesError(t *testing.T) {
	if os.Getuid() == 0 {
		t.Skip("running as root; permission checks are ineffective")
	}

	tmp := t.TempDir()
	if err := os.Chmod(tmp, 0o000); err != nil {
		t.Fatalf("chmod: %v", err)
	}
	t.Cleanup(func() { os.Chmod(tmp, 0o755) })

	t.Setenv("XDG_DATA_HOME", tmp)

	_, err := session.NewSessionStore()
	if err == nil {
		t.Fatal("expected error creating store in unwritable directory, got nil")
	}
}

func TestRequestStopNeedsRecord(t *testing.T) {
	store := newStore(t)

	if err := store.RequestStop(); !errors.Is(err, session.ErrNoSession) {
		t.Fatalf("RequestStop without a record: got %v, want ErrNoSession", err)
	}
	if store.StopRequested() {
		t.Error("no stop request should be pending")
	}
}

func TestDeleteClearsStopRequest(t *testing.T) {
	store := newStore(t)

	if err := store.Save(&session.Record{ID: "a"}); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := store.RequestStop(); err != nil {
		t.Fatalf("RequestStop: %v", err)
	}
	if !store.StopRequested() {
		t.Fatal("stop request should be pending")
	}
	if err := store.Delete(); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if store.StopRequested() {
		t.Error("Delete should clear the stop request")
	}
	if _, err := store.Load(); !errors.Is(err, session.ErrNoSession) {
		t.Errorf("Load after Delete: %v", err)
	}
	// Deleting twice is fine.
	if err := store.Delete(); err != nil {
		t.Errorf("second Delete: %v", err)
	}
}

func TestWatchStopSeesRequest(t *testing.T) {
	store := newStore(t)
	if err := store.Save(&session.Record{ID: "a"}); err != nil {
		t.Fatalf("Save: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- session.WatchStop(ctx, store) }()

	time.Sleep(50 * time.Millisecond)
	if err := store.RequestStop(); err != nil {
		t.Fatalf("RequestStop: %v", err)
	}

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("WatchStop: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("WatchStop did not return after a stop request")
	}
}

func TestWatchStopPendingRequest(t *testing.T) {
	store := newStore(t)
	if err := store.Save(&session.Record{ID: "a"}); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := store.RequestStop(); err != nil {
		t.Fatalf("RequestStop: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := session.WatchStop(ctx, store); err != nil {
		t.Errorf("a pending request should return immediately, got %v", err)
	}
}

func TestWatchStopCancelled(t *testing.T) {
	store := newStore(t)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if err := session.WatchStop(ctx, store); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("got %v, want DeadlineExceeded", err)
	}
}

func TestWaitGone(t *testing.T) {
	store := newStore(t)
	if err := store.Save(&session.Record{ID: "a"}); err != nil {
		t.Fatalf("Save: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	go func() {
		time.Sleep(50 * time.Millisecond)
		store.Delete()
	}()
	if err := session.WaitGone(ctx, store); err != nil {
		t.Fatalf("WaitGone: %v", err)
	}
}

func TestElapsed(t *testing.T) {
	start := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	r := &session.Record{StartTime: start}
	if got := r.Elapsed(start.Add(90 * time.Second)); got != 90*time.Second {
		t.Errorf("Elapsed = %v, want 90s", got)
	}
	if got := r.Elapsed(start.Add(-time.Second)); got != 0 {
		t.Errorf("Elapsed before start = %v, want 0", got)
	}
}
