package repository_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stewardapostol/clientele/internal/model"
	"github.com/stewardapostol/clientele/internal/repository"
	"github.com/stewardapostol/clientele/internal/store"
	"github.com/stewardapostol/clientele/tests/testutil"
)

func newRepo(t *testing.T) (*repository.Repository, *store.SQLiteStore) {
	t.Helper()
	s := testutil.NewTestStore(t)
	return repository.New(s), s
}

func TestAddCategoryRejectsCaseInsensitiveDuplicate(t *testing.T) {
	repo, s := newRepo(t)
	ctx := context.Background()

	if err := repo.AddCategory(ctx, "Retail"); err != nil {
		t.Fatalf("adding category: %v", err)
	}

	// Surrounding whitespace must not let a duplicate past the check.
	err := repo.AddCategory(ctx, "  retail ")
	if !errors.Is(err, repository.ErrDuplicateCategory) {
		t.Fatalf("expected ErrDuplicateCategory, got %v", err)
	}

	categories, err := s.GetAllCategories(ctx)
	if err != nil {
		t.Fatalf("listing categories: %v", err)
	}
	if len(categories) != 1 || categories[0].Name != "Retail" {
		t.Fatalf("expected the single original category, got %+v", categories)
	}

	// A genuinely new name still goes through.
	if err := repo.AddCategory(ctx, "Wholesale"); err != nil {
		t.Fatalf("adding distinct category: %v", err)
	}
}

func TestAddCategoryTrimsName(t *testing.T) {
	repo, s := newRepo(t)
	ctx := context.Background()

	if err := repo.AddCategory(ctx, "  Retail  "); err != nil {
		t.Fatalf("adding category: %v", err)
	}

	categories, err := s.GetAllCategories(ctx)
	if err != nil {
		t.Fatalf("listing categories: %v", err)
	}
	if len(categories) != 1 || categories[0].Name != "Retail" {
		t.Fatalf("expected trimmed name, got %+v", categories)
	}
}

func TestAddTagPicksAColor(t *testing.T) {
	repo, s := newRepo(t)
	ctx := context.Background()

	if err := repo.AddTag(ctx, "VIP"); err != nil {
		t.Fatalf("adding tag: %v", err)
	}

	tags, err := s.GetAllTags(ctx)
	if err != nil {
		t.Fatalf("listing tags: %v", err)
	}
	if len(tags) != 1 {
		t.Fatalf("expected 1 tag, got %d", len(tags))
	}
	// Palette colors are opaque ARGB values.
	if tags[0].Color>>24 != 0xFF {
		t.Fatalf("expected an opaque color, got %#x", tags[0].Color)
	}
}

func TestToggleTaskStatusBothWays(t *testing.T) {
	repo, s := newRepo(t)
	ctx := context.Background()

	if err := repo.SaveTask(ctx, "Call back", "", nil, nil); err != nil {
		t.Fatalf("saving task: %v", err)
	}
	tasks, err := s.GetAllTasksWithNames(ctx)
	if err != nil {
		t.Fatalf("listing tasks: %v", err)
	}
	id := tasks[0].ID

	if err := repo.ToggleTaskStatus(ctx, id, true); err != nil {
		t.Fatalf("completing task: %v", err)
	}
	tasks, _ = s.GetAllTasksWithNames(ctx)
	if tasks[0].Status != model.TaskStatusCompleted {
		t.Fatalf("expected Completed, got %q", tasks[0].Status)
	}

	if err := repo.ToggleTaskStatus(ctx, id, false); err != nil {
		t.Fatalf("reopening task: %v", err)
	}
	tasks, _ = s.GetAllTasksWithNames(ctx)
	if tasks[0].Status != model.TaskStatusOpen {
		t.Fatalf("expected Open, got %q", tasks[0].Status)
	}
}

func TestUndoDeleteCategoryAssignsFreshID(t *testing.T) {
	repo, s := newRepo(t)
	ctx := context.Background()

	if err := repo.AddCategory(ctx, "Retail"); err != nil {
		t.Fatalf("adding category: %v", err)
	}
	categories, _ := s.GetAllCategories(ctx)
	original := categories[0]

	bizID, err := repo.SaveBusiness(ctx, model.Business{Name: "Acme"},
		[]int64{original.ID}, nil)
	if err != nil {
		t.Fatalf("saving business: %v", err)
	}

	if err := repo.DeleteCategory(ctx, original); err != nil {
		t.Fatalf("deleting category: %v", err)
	}
	if err := repo.UndoDeleteCategory(ctx, original.Name); err != nil {
		t.Fatalf("restoring category: %v", err)
	}

	categories, _ = s.GetAllCategories(ctx)
	if len(categories) != 1 {
		t.Fatalf("expected 1 restored category, got %d", len(categories))
	}
	if categories[0].ID == original.ID {
		t.Fatalf("expected a fresh id, got the original %d", original.ID)
	}

	// The business lost the link; restore does not bring it back.
	details, err := s.GetAllBusinessesWithDetails(ctx)
	if err != nil {
		t.Fatalf("listing business details: %v", err)
	}
	if details[0].ID != bizID || len(details[0].Categories) != 0 {
		t.Fatalf("expected no category links after restore, got %+v", details[0].Categories)
	}
}

func TestUndoDeleteTag(t *testing.T) {
	repo, s := newRepo(t)
	ctx := context.Background()

	if err := repo.AddTag(ctx, "VIP"); err != nil {
		t.Fatalf("adding tag: %v", err)
	}
	tags, _ := s.GetAllTags(ctx)
	original := tags[0]

	if err := repo.DeleteTag(ctx, original); err != nil {
		t.Fatalf("deleting tag: %v", err)
	}
	if err := repo.UndoDeleteTag(ctx, original); err != nil {
		t.Fatalf("restoring tag: %v", err)
	}

	tags, _ = s.GetAllTags(ctx)
	if len(tags) != 1 || tags[0].Name != "VIP" {
		t.Fatalf("expected the tag back, got %+v", tags)
	}
	if tags[0].ID == original.ID {
		t.Fatalf("expected a fresh id, got the original %d", original.ID)
	}
	if tags[0].Color != original.Color {
		t.Fatalf("expected color %#x to survive the restore, got %#x",
			original.Color, tags[0].Color)
	}
}

func TestSavePersonReplacesTagLinks(t *testing.T) {
	repo, s := newRepo(t)
	ctx := context.Background()

	if err := repo.AddTag(ctx, "VIP"); err != nil {
		t.Fatalf("adding tag: %v", err)
	}
	tags, _ := s.GetAllTags(ctx)

	id, err := repo.SavePerson(ctx, model.Person{FirstName: "Ada", LastName: "Lovelace"},
		[]int64{tags[0].ID})
	if err != nil {
		t.Fatalf("saving person: %v", err)
	}

	if _, err := repo.SavePerson(ctx, model.Person{ID: id, FirstName: "Ada", LastName: "Lovelace"}, nil); err != nil {
		t.Fatalf("re-saving person: %v", err)
	}

	details, err := s.GetAllPeopleWithDetails(ctx)
	if err != nil {
		t.Fatalf("listing people details: %v", err)
	}
	if len(details) != 1 || len(details[0].Tags) != 0 {
		t.Fatalf("expected one person without tags, got %+v", details)
	}
}

func TestOpenTasksStreamTracksWrites(t *testing.T) {
	repo, _ := newRepo(t)
	ctx := context.Background()

	sub, err := repo.OpenTasks(ctx)
	if err != nil {
		t.Fatalf("starting stream: %v", err)
	}
	defer sub.Cancel()

	if got := receive(t, sub); len(got) != 0 {
		t.Fatalf("expected empty initial snapshot, got %+v", got)
	}

	if err := repo.SaveTask(ctx, "Follow up", "", nil, nil); err != nil {
		t.Fatalf("saving task: %v", err)
	}

	snapshot := receive(t, sub)
	if len(snapshot) != 1 || snapshot[0].Title != "Follow up" {
		t.Fatalf("unexpected snapshot: %+v", snapshot)
	}

	// Completing the task removes it from the open stream.
	if err := repo.ToggleTaskStatus(ctx, snapshot[0].ID, true); err != nil {
		t.Fatalf("completing task: %v", err)
	}
	snapshot = receive(t, sub)
	if len(snapshot) != 0 {
		t.Fatalf("expected the open stream to empty, got %+v", snapshot)
	}
}

func TestBusinessByIDStreamGoesNilOnDelete(t *testing.T) {
	repo, _ := newRepo(t)
	ctx := context.Background()

	id, err := repo.SaveBusiness(ctx, model.Business{Name: "Acme"}, nil, nil)
	if err != nil {
		t.Fatalf("saving business: %v", err)
	}

	sub, err := repo.BusinessByID(ctx, id)
	if err != nil {
		t.Fatalf("starting stream: %v", err)
	}
	defer sub.Cancel()

	b := receive(t, sub)
	if b == nil || b.Name != "Acme" {
		t.Fatalf("unexpected initial snapshot: %+v", b)
	}

	if err := repo.DeleteBusiness(ctx, *b); err != nil {
		t.Fatalf("deleting business: %v", err)
	}
	if b := receive(t, sub); b != nil {
		t.Fatalf("expected nil after delete, got %+v", b)
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
