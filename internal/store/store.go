package store

import (
	"context"

	"github.com/stewardapostol/clientele/internal/model"
)

// Table names used for change-feed subscriptions. Broadcasts name the
// tables a write touched, including rows changed by cascades.
const (
	TableBusinesses           = "businesses"
	TablePeople               = "people"
	TableTasks                = "tasks"
	TableCategories           = "categories"
	TableTags                 = "tags"
	TableBusinessCategoryLink = "business_category_links"
	TableBusinessTagLink      = "business_tag_links"
	TablePersonTagLink        = "person_tag_links"
)

// ChangeFeed lets callers observe table-level changes. Subscribe returns
// a coalescing signal channel that receives after any write touching one
// of the named tables commits, and a release func that must be called to
// drop the registration.
type ChangeFeed interface {
	Subscribe(tables ...string) (<-chan struct{}, func())
}

// Store defines the persistence interface for businesses, people, tasks,
// and the category/tag taxonomy with their join tables.
type Store interface {
	ChangeFeed

	// === Businesses ===

	// InsertBusiness inserts or, when the id matches an existing row,
	// replaces the business. It returns the effective id (newly assigned
	// when the input id is zero).
	InsertBusiness(ctx context.Context, b model.Business) (int64, error)
	GetAllBusinesses(ctx context.Context) ([]model.Business, error)
	// GetBusinessByID returns (nil, nil) when no row exists.
	GetBusinessByID(ctx context.Context, id int64) (*model.Business, error)
	GetAllBusinessesWithDetails(ctx context.Context) ([]model.BusinessWithDetails, error)
	DeleteBusiness(ctx context.Context, b model.Business) error
	// InsertBusinessWithRelations upserts the business and fully replaces
	// its category and tag link sets in one transaction.
	InsertBusinessWithRelations(ctx context.Context, b model.Business, categoryIDs, tagIDs []int64) (int64, error)

	// === People ===

	InsertPerson(ctx context.Context, p model.Person) (int64, error)
	GetAllPeople(ctx context.Context) ([]model.Person, error)
	GetAllPeopleWithDetails(ctx context.Context) ([]model.PersonWithDetails, error)
	DeletePerson(ctx context.Context, p model.Person) error
	DeletePersonByID(ctx context.Context, id int64) error
	// InsertPersonWithTags upserts the person and fully replaces its tag
	// link set in one transaction.
	InsertPersonWithTags(ctx context.Context, p model.Person, tagIDs []int64) (int64, error)

	// === Tasks ===

	InsertTask(ctx context.Context, t model.Task) (int64, error)
	UpdateTask(ctx context.Context, t model.Task) error
	UpdateTaskStatus(ctx context.Context, id int64, status string) error
	DeleteTaskByID(ctx context.Context, id int64) error
	GetTasksWithNames(ctx context.Context, status string) ([]model.TaskWithNames, error)
	GetAllTasksWithNames(ctx context.Context) ([]model.TaskWithNames, error)
	GetTasksByBusiness(ctx context.Context, businessID int64) ([]model.TaskWithNames, error)

	// === Categories & Tags ===

	// InsertCategory is a silent no-op when the exact name already exists.
	InsertCategory(ctx context.Context, c model.Category) error
	GetAllCategories(ctx context.Context) ([]model.Category, error)
	UpdateCategory(ctx context.Context, c model.Category) error
	DeleteCategory(ctx context.Context, c model.Category) error
	InsertTag(ctx context.Context, t model.Tag) error
	GetAllTags(ctx context.Context) ([]model.Tag, error)
	UpdateTag(ctx context.Context, t model.Tag) error
	DeleteTag(ctx context.Context, t model.Tag) error

	// === Link primitives ===

	InsertBusinessCategoryLink(ctx context.Context, businessID, categoryID int64) error
	InsertBusinessTagLink(ctx context.Context, businessID, tagID int64) error
	InsertPersonTagLink(ctx context.Context, personID, tagID int64) error
}
