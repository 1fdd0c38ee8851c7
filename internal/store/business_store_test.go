package store_test

import (
	"context"
	"testing"

	"github.com/stewardapostol/clientele/internal/model"
	"github.com/stewardapostol/clientele/internal/store"
	"github.com/stewardapostol/clientele/tests/testutil"
)

func TestInsertBusinessAssignsID(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	id, err := s.InsertBusiness(ctx, model.Business{Name: "Acme Corp"})
	if err != nil {
		t.Fatalf("inserting business: %v", err)
	}
	if id == 0 {
		t.Fatal("expected a non-zero id")
	}

	second, err := s.InsertBusiness(ctx, model.Business{Name: "Beta LLC"})
	if err != nil {
		t.Fatalf("inserting second business: %v", err)
	}
	if second == id {
		t.Fatalf("expected distinct ids, got %d twice", id)
	}
}

func TestInsertBusinessRejectsEmptyName(t *testing.T) {
	s := testutil.NewTestStore(t)

	if _, err := s.InsertBusiness(context.Background(), model.Business{Name: "   "}); err == nil {
		t.Fatal("expected an error for a blank name")
	}
}

func TestGetBusinessByIDAbsent(t *testing.T) {
	s := testutil.NewTestStore(t)

	b, err := s.GetBusinessByID(context.Background(), 42)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if b != nil {
		t.Fatalf("expected nil for an absent row, got %+v", b)
	}
}

func TestInsertBusinessReplacesByID(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	id, err := s.InsertBusiness(ctx, model.Business{Name: "Old Name"})
	if err != nil {
		t.Fatalf("inserting business: %v", err)
	}

	email := "new@example.com"
	if _, err := s.InsertBusiness(ctx, model.Business{ID: id, Name: "New Name", Email: &email}); err != nil {
		t.Fatalf("replacing business: %v", err)
	}

	b, err := s.GetBusinessByID(ctx, id)
	if err != nil {
		t.Fatalf("reading business back: %v", err)
	}
	if b == nil || b.Name != "New Name" {
		t.Fatalf("expected replaced name, got %+v", b)
	}
	if b.Email == nil || *b.Email != email {
		t.Fatalf("expected replaced email, got %+v", b.Email)
	}

	all, err := s.GetAllBusinesses(ctx)
	if err != nil {
		t.Fatalf("listing businesses: %v", err)
	}
	if len(all) != 1 {
		t.Fatalf("expected a single row after replace, got %d", len(all))
	}
}

func TestGetAllBusinessesSortedByName(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	for _, name := range []string{"Zenith", "Acme", "Midway"} {
		if _, err := s.InsertBusiness(ctx, model.Business{Name: name}); err != nil {
			t.Fatalf("inserting %q: %v", name, err)
		}
	}

	all, err := s.GetAllBusinesses(ctx)
	if err != nil {
		t.Fatalf("listing businesses: %v", err)
	}
	got := make([]string, len(all))
	for i, b := range all {
		got[i] = b.Name
	}
	want := []string{"Acme", "Midway", "Zenith"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, got)
		}
	}
}

func TestInsertBusinessWithRelationsReplacesLinks(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	if err := s.InsertCategory(ctx, model.Category{Name: "Retail"}); err != nil {
		t.Fatalf("inserting category: %v", err)
	}
	if err := s.InsertCategory(ctx, model.Category{Name: "Wholesale"}); err != nil {
		t.Fatalf("inserting category: %v", err)
	}
	if err := s.InsertTag(ctx, model.Tag{Name: "VIP"}); err != nil {
		t.Fatalf("inserting tag: %v", err)
	}
	categories, err := s.GetAllCategories(ctx)
	if err != nil {
		t.Fatalf("listing categories: %v", err)
	}
	tags, err := s.GetAllTags(ctx)
	if err != nil {
		t.Fatalf("listing tags: %v", err)
	}

	id, err := s.InsertBusinessWithRelations(ctx, model.Business{Name: "Acme"},
		[]int64{categories[0].ID, categories[1].ID}, []int64{tags[0].ID})
	if err != nil {
		t.Fatalf("inserting business with relations: %v", err)
	}

	details := businessDetails(t, s, id)
	if len(details.Categories) != 2 || len(details.Tags) != 1 {
		t.Fatalf("expected 2 categories and 1 tag, got %d and %d",
			len(details.Categories), len(details.Tags))
	}

	// Saving again with a smaller set fully replaces the links.
	if _, err := s.InsertBusinessWithRelations(ctx, model.Business{ID: id, Name: "Acme"},
		[]int64{categories[1].ID}, nil); err != nil {
		t.Fatalf("re-saving business: %v", err)
	}

	details = businessDetails(t, s, id)
	if len(details.Categories) != 1 || details.Categories[0].Name != "Wholesale" {
		t.Fatalf("expected only Wholesale left, got %+v", details.Categories)
	}
	if len(details.Tags) != 0 {
		t.Fatalf("expected no tags left, got %+v", details.Tags)
	}
}

func TestInsertBusinessWithRelationsUnknownIDFails(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	if _, err := s.InsertBusinessWithRelations(ctx, model.Business{Name: "Acme"},
		[]int64{999}, nil); err == nil {
		t.Fatal("expected a foreign key error for an unknown category id")
	}

	// The transaction must have rolled back the business row as well.
	all, err := s.GetAllBusinesses(ctx)
	if err != nil {
		t.Fatalf("listing businesses: %v", err)
	}
	if len(all) != 0 {
		t.Fatalf("expected rollback to remove the business, got %d rows", len(all))
	}
}

func TestDeleteBusinessUnlinksPeople(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	bizID, err := s.InsertBusiness(ctx, model.Business{Name: "Acme"})
	if err != nil {
		t.Fatalf("inserting business: %v", err)
	}
	if err := s.InsertTag(ctx, model.Tag{Name: "VIP"}); err != nil {
		t.Fatalf("inserting tag: %v", err)
	}
	tags, err := s.GetAllTags(ctx)
	if err != nil {
		t.Fatalf("listing tags: %v", err)
	}
	personID, err := s.InsertPersonWithTags(ctx, model.Person{
		FirstName:  "Ada",
		LastName:   "Lovelace",
		BusinessID: &bizID,
	}, []int64{tags[0].ID})
	if err != nil {
		t.Fatalf("inserting person: %v", err)
	}

	if err := s.DeleteBusiness(ctx, model.Business{ID: bizID, Name: "Acme"}); err != nil {
		t.Fatalf("deleting business: %v", err)
	}

	people, err := s.GetAllPeople(ctx)
	if err != nil {
		t.Fatalf("listing people: %v", err)
	}
	if len(people) != 1 || people[0].ID != personID {
		t.Fatalf("expected the person to survive, got %+v", people)
	}
	if people[0].BusinessID != nil {
		t.Fatalf("expected business reference to be cleared, got %v", *people[0].BusinessID)
	}

	// The person's own tag links are untouched by the business delete.
	details, err := s.GetAllPeopleWithDetails(ctx)
	if err != nil {
		t.Fatalf("listing people details: %v", err)
	}
	if len(details[0].Tags) != 1 || details[0].Tags[0].Name != "VIP" {
		t.Fatalf("expected the tag link to survive, got %+v", details[0].Tags)
	}
}

func TestDeleteBusinessCascadesLinks(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	if err := s.InsertCategory(ctx, model.Category{Name: "Retail"}); err != nil {
		t.Fatalf("inserting category: %v", err)
	}
	categories, err := s.GetAllCategories(ctx)
	if err != nil {
		t.Fatalf("listing categories: %v", err)
	}

	id, err := s.InsertBusinessWithRelations(ctx, model.Business{Name: "Acme"},
		[]int64{categories[0].ID}, nil)
	if err != nil {
		t.Fatalf("inserting business: %v", err)
	}

	if err := s.DeleteBusiness(ctx, model.Business{ID: id, Name: "Acme"}); err != nil {
		t.Fatalf("deleting business: %v", err)
	}

	// The category survives even though its link row is gone.
	categories, err = s.GetAllCategories(ctx)
	if err != nil {
		t.Fatalf("listing categories: %v", err)
	}
	if len(categories) != 1 {
		t.Fatalf("expected the category to survive, got %d", len(categories))
	}

	details, err := s.GetAllBusinessesWithDetails(ctx)
	if err != nil {
		t.Fatalf("listing details: %v", err)
	}
	if len(details) != 0 {
		t.Fatalf("expected no businesses left, got %d", len(details))
	}
}

func TestGetAllBusinessesWithDetailsNewestFirst(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	if _, err := s.InsertBusiness(ctx, model.Business{Name: "First"}); err != nil {
		t.Fatalf("inserting business: %v", err)
	}
	if _, err := s.InsertBusiness(ctx, model.Business{Name: "Second"}); err != nil {
		t.Fatalf("inserting business: %v", err)
	}

	details, err := s.GetAllBusinessesWithDetails(ctx)
	if err != nil {
		t.Fatalf("listing details: %v", err)
	}
	if len(details) != 2 || details[0].Name != "Second" {
		t.Fatalf("expected newest first, got %+v", details)
	}
}

func businessDetails(t *testing.T, s store.Store, id int64) model.BusinessWithDetails {
	t.Helper()

	details, err := s.GetAllBusinessesWithDetails(context.Background())
	if err != nil {
		t.Fatalf("listing business details: %v", err)
	}
	for _, d := range details {
		if d.ID == id {
			return d
		}
	}
	t.Fatalf("business %d not found in details", id)
	return model.BusinessWithDetails{}
}
