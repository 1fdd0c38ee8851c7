package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/stewardapostol/clientele/internal/model"
)

// upsertPerson inserts the person, or updates the existing row when the
// id matches one. Same UPSERT reasoning as upsertBusiness: an edit must
// not fire the tag-link cascade.
func upsertPerson(ctx context.Context, q sqlx.ExtContext, p model.Person) (int64, error) {
	if strings.TrimSpace(p.FirstName) == "" && strings.TrimSpace(p.LastName) == "" {
		return 0, fmt.Errorf("person name must not be empty")
	}

	res, err := q.ExecContext(ctx, `
		INSERT INTO people (person_id, first_name, last_name, email, phone_number, business_id)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(person_id) DO UPDATE SET
			first_name = excluded.first_name,
			last_name = excluded.last_name,
			email = excluded.email,
			phone_number = excluded.phone_number,
			business_id = excluded.business_id`,
		nullableID(p.ID), p.FirstName, p.LastName, p.Email, p.PhoneNumber, p.BusinessID,
	)
	if err != nil {
		return 0, fmt.Errorf("upserting person: %w", err)
	}

	if p.ID != 0 {
		return p.ID, nil
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("reading new person id: %w", err)
	}
	return id, nil
}

// InsertPerson inserts or replaces a person by id and returns the
// effective id.
func (s *SQLiteStore) InsertPerson(ctx context.Context, p model.Person) (int64, error) {
	id, err := upsertPerson(ctx, s.db, p)
	if err != nil {
		return 0, err
	}
	s.broadcast(TablePeople)
	return id, nil
}

// GetAllPeople retrieves all people in insertion order.
func (s *SQLiteStore) GetAllPeople(ctx context.Context) ([]model.Person, error) {
	var people []model.Person
	err := s.db.SelectContext(ctx, &people, "SELECT * FROM people")
	if err != nil {
		return nil, fmt.Errorf("querying people: %w", err)
	}
	return people, nil
}

// GetAllPeopleWithDetails retrieves all people newest-first, each with
// the business it references (nil when independent) and its tags.
func (s *SQLiteStore) GetAllPeopleWithDetails(ctx context.Context) ([]model.PersonWithDetails, error) {
	var people []model.Person
	err := s.db.SelectContext(ctx, &people,
		"SELECT * FROM people ORDER BY person_id DESC")
	if err != nil {
		return nil, fmt.Errorf("querying people: %w", err)
	}

	details := make([]model.PersonWithDetails, 0, len(people))
	for _, p := range people {
		var business *model.Business
		if p.BusinessID != nil {
			business, err = s.GetBusinessByID(ctx, *p.BusinessID)
			if err != nil {
				return nil, err
			}
		}
		tags, err := s.getTagsForPerson(ctx, p.ID)
		if err != nil {
			return nil, err
		}
		details = append(details, model.PersonWithDetails{
			Person:   p,
			Business: business,
			Tags:     tags,
		})
	}
	return details, nil
}

// DeletePerson removes a person. Tag links cascade away.
func (s *SQLiteStore) DeletePerson(ctx context.Context, p model.Person) error {
	return s.DeletePersonByID(ctx, p.ID)
}

// DeletePersonByID removes a person by id. Missing rows are a no-op.
func (s *SQLiteStore) DeletePersonByID(ctx context.Context, id int64) error {
	_, err := s.db.ExecContext(ctx,
		"DELETE FROM people WHERE person_id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting person %d: %w", id, err)
	}
	s.broadcast(TablePeople, TablePersonTagLink)
	return nil
}

// InsertPersonWithTags upserts the person row and replaces its entire
// tag link set with the given ids in a single transaction.
func (s *SQLiteStore) InsertPersonWithTags(
	ctx context.Context,
	p model.Person,
	tagIDs []int64,
) (int64, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	id, err := upsertPerson(ctx, tx, p)
	if err != nil {
		return 0, err
	}

	// Clear previous tag associations so un-checked tags drop off.
	if _, err := tx.ExecContext(ctx,
		"DELETE FROM person_tag_links WHERE person_id = ?", id); err != nil {
		return 0, fmt.Errorf("clearing person tag links: %w", err)
	}

	for _, tagID := range tagIDs {
		if _, err := tx.ExecContext(ctx,
			"INSERT OR REPLACE INTO person_tag_links (person_id, tag_id) VALUES (?, ?)",
			id, tagID); err != nil {
			return 0, fmt.Errorf("linking tag %d to person %d: %w", tagID, id, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing person with tags: %w", err)
	}

	s.broadcast(TablePeople, TablePersonTagLink)
	return id, nil
}

// getTagsForPerson retrieves the tags linked to a person.
func (s *SQLiteStore) getTagsForPerson(ctx context.Context, personID int64) ([]model.Tag, error) {
	var tags []model.Tag
	err := s.db.SelectContext(ctx, &tags, `
		SELECT t.* FROM tags t
		INNER JOIN person_tag_links l ON t.tag_id = l.tag_id
		WHERE l.person_id = ?
		ORDER BY t.tag_name`, personID)
	if err != nil {
		return nil, fmt.Errorf("querying tags for person %d: %w", personID, err)
	}
	return tags, nil
}
