// Package repository presents the persistence layer as typed reactive
// streams and intention-revealing operations. It is a pure façade: every
// method delegates to the store, adding only name/shape translation and
// the case-insensitive duplicate check for categories.
package repository

import (
	"context"
	"errors"
	"strings"

	"github.com/stewardapostol/clientele/internal/model"
	"github.com/stewardapostol/clientele/internal/store"
	"github.com/stewardapostol/clientele/internal/theme"
)

// ErrDuplicateCategory is returned by AddCategory when a category with
// the same name (compared case-insensitively) already exists. It is an
// outcome distinct from success, decided before any write is attempted.
var ErrDuplicateCategory = errors.New("category already exists")

// Repository wraps a Store. Construct it with the store it should use;
// tests pass isolated in-memory stores.
type Repository struct {
	store store.Store
}

// New creates a Repository backed by the given store.
func New(s store.Store) *Repository {
	return &Repository{store: s}
}

// === Task streams ===

// AllTasks streams every task with its related names, newest-first.
func (r *Repository) AllTasks(ctx context.Context) (*store.Subscription[[]model.TaskWithNames], error) {
	return store.Watch(ctx, r.store, taskTables(), r.store.GetAllTasksWithNames)
}

// OpenTasks streams tasks whose status is Open.
func (r *Repository) OpenTasks(ctx context.Context) (*store.Subscription[[]model.TaskWithNames], error) {
	return r.tasksByStatus(ctx, model.TaskStatusOpen)
}

// CompletedTasks streams tasks whose status is Completed.
func (r *Repository) CompletedTasks(ctx context.Context) (*store.Subscription[[]model.TaskWithNames], error) {
	return r.tasksByStatus(ctx, model.TaskStatusCompleted)
}

func (r *Repository) tasksByStatus(ctx context.Context, status string) (*store.Subscription[[]model.TaskWithNames], error) {
	return store.Watch(ctx, r.store, taskTables(),
		func(ctx context.Context) ([]model.TaskWithNames, error) {
			return r.store.GetTasksWithNames(ctx, status)
		})
}

// TasksByBusiness streams the tasks related to one business.
func (r *Repository) TasksByBusiness(ctx context.Context, businessID int64) (*store.Subscription[[]model.TaskWithNames], error) {
	return store.Watch(ctx, r.store, taskTables(),
		func(ctx context.Context) ([]model.TaskWithNames, error) {
			return r.store.GetTasksByBusiness(ctx, businessID)
		})
}

// taskTables lists the tables the with-names projection reads: renaming
// a business or person must re-emit task snapshots too.
func taskTables() []string {
	return []string{store.TableTasks, store.TableBusinesses, store.TablePeople}
}

// === Task operations ===

// SaveTask creates a new open task.
func (r *Repository) SaveTask(ctx context.Context, title, description string, businessID, personID *int64) error {
	_, err := r.store.InsertTask(ctx, model.Task{
		Title:             title,
		Description:       description,
		Status:            model.TaskStatusOpen,
		RelatedBusinessID: businessID,
		RelatedPersonID:   personID,
	})
	return err
}

// UpdateTask replaces an existing task.
func (r *Repository) UpdateTask(ctx context.Context, t model.Task) error {
	return r.store.UpdateTask(ctx, t)
}

// ToggleTaskStatus flips a task between Open and Completed given its
// current side.
func (r *Repository) ToggleTaskStatus(ctx context.Context, id int64, isCurrentlyOpen bool) error {
	newStatus := model.TaskStatusOpen
	if isCurrentlyOpen {
		newStatus = model.TaskStatusCompleted
	}
	return r.store.UpdateTaskStatus(ctx, id, newStatus)
}

// DeleteTask removes a task by id.
func (r *Repository) DeleteTask(ctx context.Context, id int64) error {
	return r.store.DeleteTaskByID(ctx, id)
}

// === Business streams ===

// AllBusinesses streams every business ordered by name.
func (r *Repository) AllBusinesses(ctx context.Context) (*store.Subscription[[]model.Business], error) {
	return store.Watch(ctx, r.store,
		[]string{store.TableBusinesses}, r.store.GetAllBusinesses)
}

// AllBusinessesWithDetails streams businesses with their categories and
// tags, newest-first.
func (r *Repository) AllBusinessesWithDetails(ctx context.Context) (*store.Subscription[[]model.BusinessWithDetails], error) {
	tables := []string{
		store.TableBusinesses,
		store.TableCategories,
		store.TableTags,
		store.TableBusinessCategoryLink,
		store.TableBusinessTagLink,
	}
	return store.Watch(ctx, r.store, tables, r.store.GetAllBusinessesWithDetails)
}

// BusinessByID streams a single business; the snapshot is nil while the
// row is absent.
func (r *Repository) BusinessByID(ctx context.Context, id int64) (*store.Subscription[*model.Business], error) {
	return store.Watch(ctx, r.store, []string{store.TableBusinesses},
		func(ctx context.Context) (*model.Business, error) {
			return r.store.GetBusinessByID(ctx, id)
		})
}

// === Business operations ===

// SaveBusiness upserts the business and replaces its category and tag
// links in one atomic write. It handles both create (id zero) and edit.
func (r *Repository) SaveBusiness(ctx context.Context, b model.Business, categoryIDs, tagIDs []int64) (int64, error) {
	return r.store.InsertBusinessWithRelations(ctx, b, categoryIDs, tagIDs)
}

// DeleteBusiness removes a business; its people survive unlinked.
func (r *Repository) DeleteBusiness(ctx context.Context, b model.Business) error {
	return r.store.DeleteBusiness(ctx, b)
}

// === People streams ===

// AllPeople streams every person.
func (r *Repository) AllPeople(ctx context.Context) (*store.Subscription[[]model.Person], error) {
	return store.Watch(ctx, r.store,
		[]string{store.TablePeople}, r.store.GetAllPeople)
}

// AllPeopleWithDetails streams people with their business and tags,
// newest-first.
func (r *Repository) AllPeopleWithDetails(ctx context.Context) (*store.Subscription[[]model.PersonWithDetails], error) {
	tables := []string{
		store.TablePeople,
		store.TableBusinesses,
		store.TableTags,
		store.TablePersonTagLink,
	}
	return store.Watch(ctx, r.store, tables, r.store.GetAllPeopleWithDetails)
}

// === People operations ===

// SavePerson upserts the person and replaces its tag links in one
// atomic write.
func (r *Repository) SavePerson(ctx context.Context, p model.Person, tagIDs []int64) (int64, error) {
	return r.store.InsertPersonWithTags(ctx, p, tagIDs)
}

// DeletePerson removes a person by id.
func (r *Repository) DeletePerson(ctx context.Context, id int64) error {
	return r.store.DeletePersonByID(ctx, id)
}

// === Taxonomy streams ===

// AllCategories streams every category.
func (r *Repository) AllCategories(ctx context.Context) (*store.Subscription[[]model.Category], error) {
	return store.Watch(ctx, r.store,
		[]string{store.TableCategories}, r.store.GetAllCategories)
}

// AllTags streams every tag.
func (r *Repository) AllTags(ctx context.Context) (*store.Subscription[[]model.Tag], error) {
	return store.Watch(ctx, r.store,
		[]string{store.TableTags}, r.store.GetAllTags)
}

// === Taxonomy operations ===

// AddCategory inserts a category after checking the current snapshot
// for a case-insensitive name match. A match returns
// ErrDuplicateCategory without writing. This check is deliberately
// stricter than, and layered above, the storage-level exact-match
// uniqueness.
func (r *Repository) AddCategory(ctx context.Context, name string) error {
	name = strings.TrimSpace(name)
	categories, err := r.store.GetAllCategories(ctx)
	if err != nil {
		return err
	}
	for _, c := range categories {
		if strings.EqualFold(c.Name, name) {
			return ErrDuplicateCategory
		}
	}
	return r.store.InsertCategory(ctx, model.Category{Name: name})
}

// AddTag inserts a tag with a random palette color.
func (r *Repository) AddTag(ctx context.Context, name string) error {
	return r.store.InsertTag(ctx, model.Tag{
		Name:  name,
		Color: theme.RandomTagColor(),
	})
}

// UpdateCategory replaces a category's name.
func (r *Repository) UpdateCategory(ctx context.Context, c model.Category) error {
	return r.store.UpdateCategory(ctx, c)
}

// UpdateTag replaces a tag's name and color.
func (r *Repository) UpdateTag(ctx context.Context, t model.Tag) error {
	return r.store.UpdateTag(ctx, t)
}

// DeleteCategory removes a category and, by cascade, its links.
func (r *Repository) DeleteCategory(ctx context.Context, c model.Category) error {
	return r.store.DeleteCategory(ctx, c)
}

// DeleteTag removes a tag and, by cascade, its links.
func (r *Repository) DeleteTag(ctx context.Context, t model.Tag) error {
	return r.store.DeleteTag(ctx, t)
}

// UndoDeleteCategory restores a deleted category by name. The restored
// row gets a fresh id, so link rows of the deleted one are NOT brought
// back.
func (r *Repository) UndoDeleteCategory(ctx context.Context, name string) error {
	return r.store.InsertCategory(ctx, model.Category{Name: name})
}

// UndoDeleteTag restores a deleted tag under a fresh id, keeping its
// old name and color. Links of the deleted tag are NOT brought back.
func (r *Repository) UndoDeleteTag(ctx context.Context, t model.Tag) error {
	return r.store.InsertTag(ctx, model.Tag{Name: t.Name, Color: t.Color})
}
