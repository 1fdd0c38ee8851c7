package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/stewardapostol/clientele/internal/model"
	"github.com/stewardapostol/clientele/internal/store"
	"github.com/stewardapostol/clientele/tests/testutil"
)

func TestWatchDeliversInitialSnapshot(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	if _, err := s.InsertBusiness(ctx, model.Business{Name: "Acme"}); err != nil {
		t.Fatalf("inserting business: %v", err)
	}

	sub, err := store.Watch(ctx, s, []string{store.TableBusinesses}, s.GetAllBusinesses)
	if err != nil {
		t.Fatalf("starting watch: %v", err)
	}
	defer sub.Cancel()

	snapshot := receive(t, sub)
	if len(snapshot) != 1 || snapshot[0].Name != "Acme" {
		t.Fatalf("unexpected initial snapshot: %+v", snapshot)
	}
}

func TestWatchEmitsAfterWrite(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	sub, err := store.Watch(ctx, s, []string{store.TableBusinesses}, s.GetAllBusinesses)
	if err != nil {
		t.Fatalf("starting watch: %v", err)
	}
	defer sub.Cancel()

	if got := receive(t, sub); len(got) != 0 {
		t.Fatalf("expected an empty initial snapshot, got %+v", got)
	}

	if _, err := s.InsertBusiness(ctx, model.Business{Name: "Acme"}); err != nil {
		t.Fatalf("inserting business: %v", err)
	}

	snapshot := receive(t, sub)
	if len(snapshot) != 1 || snapshot[0].Name != "Acme" {
		t.Fatalf("unexpected snapshot after write: %+v", snapshot)
	}
}

func TestWatchIgnoresUnrelatedTables(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	sub, err := store.Watch(ctx, s, []string{store.TableCategories}, s.GetAllCategories)
	if err != nil {
		t.Fatalf("starting watch: %v", err)
	}
	defer sub.Cancel()
	receive(t, sub)

	if _, err := s.InsertTask(ctx, model.Task{Title: "Unrelated"}); err != nil {
		t.Fatalf("inserting task: %v", err)
	}

	select {
	case snapshot, ok := <-sub.Updates():
		if ok {
			t.Fatalf("unexpected emission for an unrelated write: %+v", snapshot)
		}
	case <-time.After(100 * time.Millisecond):
	}
}

func TestWatchCancelClosesChannel(t *testing.T) {
	s := testutil.NewTestStore(t)

	sub, err := store.Watch(context.Background(), s,
		[]string{store.TableTags}, s.GetAllTags)
	if err != nil {
		t.Fatalf("starting watch: %v", err)
	}

	sub.Cancel()
	sub.Cancel() // safe to repeat

	deadline := time.After(2 * time.Second)
	for {
		select {
		case _, ok := <-sub.Updates():
			if !ok {
				return
			}
		case <-deadline:
			t.Fatal("updates channel never closed after cancel")
		}
	}
}

func TestWatchStopsWithContext(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx, cancel := context.WithCancel(context.Background())

	sub, err := store.Watch(ctx, s, []string{store.TableTags}, s.GetAllTags)
	if err != nil {
		t.Fatalf("starting watch: %v", err)
	}
	receive(t, sub)

	cancel()

	deadline := time.After(2 * time.Second)
	for {
		select {
		case _, ok := <-sub.Updates():
			if !ok {
				return
			}
		case <-deadline:
			t.Fatal("updates channel never closed after context cancel")
		}
	}
}

// receive reads one snapshot or fails the test after a timeout.
func receive[T any](t *testing.T, sub *store.Subscription[T]) T {
	t.Helper()

	select {
	case snapshot, ok := <-sub.Updates():
		if !ok {
			t.Fatal("updates channel closed unexpectedly")
		}
		return snapshot
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for a snapshot")
		panic("unreachable")
	}
}
