package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/stewardapostol/clientele/internal/model"
)

// upsertBusiness inserts the business, or updates the existing row when
// the id matches one. Implemented as an UPSERT rather than INSERT OR
// REPLACE: REPLACE is a delete+insert, and the delete would cascade
// through the link tables and null out people references on every edit.
func upsertBusiness(ctx context.Context, q sqlx.ExtContext, b model.Business) (int64, error) {
	if strings.TrimSpace(b.Name) == "" {
		return 0, fmt.Errorf("business name must not be empty")
	}

	res, err := q.ExecContext(ctx, `
		INSERT INTO businesses (business_id, name, email)
		VALUES (?, ?, ?)
		ON CONFLICT(business_id) DO UPDATE SET
			name = excluded.name,
			email = excluded.email`,
		nullableID(b.ID), b.Name, b.Email,
	)
	if err != nil {
		return 0, fmt.Errorf("upserting business: %w", err)
	}

	if b.ID != 0 {
		return b.ID, nil
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("reading new business id: %w", err)
	}
	return id, nil
}

// InsertBusiness inserts or replaces a business by id and returns the
// effective id (newly assigned when the input id is zero).
func (s *SQLiteStore) InsertBusiness(ctx context.Context, b model.Business) (int64, error) {
	id, err := upsertBusiness(ctx, s.db, b)
	if err != nil {
		return 0, err
	}
	s.broadcast(TableBusinesses)
	return id, nil
}

// GetAllBusinesses retrieves all businesses ordered by name.
func (s *SQLiteStore) GetAllBusinesses(ctx context.Context) ([]model.Business, error) {
	var businesses []model.Business
	err := s.db.SelectContext(ctx, &businesses,
		"SELECT * FROM businesses ORDER BY name ASC")
	if err != nil {
		return nil, fmt.Errorf("querying businesses: %w", err)
	}
	return businesses, nil
}

// GetBusinessByID retrieves a single business, or (nil, nil) when no
// row exists, so watched single-row streams can emit "absent".
func (s *SQLiteStore) GetBusinessByID(ctx context.Context, id int64) (*model.Business, error) {
	var b model.Business
	err := s.db.GetContext(ctx, &b,
		"SELECT * FROM businesses WHERE business_id = ?", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting business %d: %w", id, err)
	}
	return &b, nil
}

// GetAllBusinessesWithDetails retrieves all businesses newest-first,
// each with its linked categories and tags.
func (s *SQLiteStore) GetAllBusinessesWithDetails(ctx context.Context) ([]model.BusinessWithDetails, error) {
	var businesses []model.Business
	err := s.db.SelectContext(ctx, &businesses,
		"SELECT * FROM businesses ORDER BY business_id DESC")
	if err != nil {
		return nil, fmt.Errorf("querying businesses: %w", err)
	}

	details := make([]model.BusinessWithDetails, 0, len(businesses))
	for _, b := range businesses {
		categories, err := s.getCategoriesForBusiness(ctx, b.ID)
		if err != nil {
			return nil, err
		}
		tags, err := s.getTagsForBusiness(ctx, b.ID)
		if err != nil {
			return nil, err
		}
		details = append(details, model.BusinessWithDetails{
			Business:   b,
			Categories: categories,
			Tags:       tags,
		})
	}
	return details, nil
}

// DeleteBusiness removes a business. Its link rows cascade away and
// people referencing it fall back to business_id NULL.
func (s *SQLiteStore) DeleteBusiness(ctx context.Context, b model.Business) error {
	_, err := s.db.ExecContext(ctx,
		"DELETE FROM businesses WHERE business_id = ?", b.ID)
	if err != nil {
		return fmt.Errorf("deleting business %d: %w", b.ID, err)
	}
	s.broadcast(TableBusinesses, TablePeople,
		TableBusinessCategoryLink, TableBusinessTagLink)
	return nil
}

// InsertBusinessWithRelations upserts the business row, then replaces
// its entire category and tag link sets with the given ids, all in a
// single transaction. A failure in any step leaves nothing applied.
func (s *SQLiteStore) InsertBusinessWithRelations(
	ctx context.Context,
	b model.Business,
	categoryIDs, tagIDs []int64,
) (int64, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	id, err := upsertBusiness(ctx, tx, b)
	if err != nil {
		return 0, err
	}

	// Clear the previous link sets so un-selected categories and tags
	// drop off during an edit.
	if _, err := tx.ExecContext(ctx,
		"DELETE FROM business_category_links WHERE business_id = ?", id); err != nil {
		return 0, fmt.Errorf("clearing business category links: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		"DELETE FROM business_tag_links WHERE business_id = ?", id); err != nil {
		return 0, fmt.Errorf("clearing business tag links: %w", err)
	}

	for _, categoryID := range categoryIDs {
		if _, err := tx.ExecContext(ctx,
			"INSERT OR REPLACE INTO business_category_links (business_id, category_id) VALUES (?, ?)",
			id, categoryID); err != nil {
			return 0, fmt.Errorf("linking category %d to business %d: %w", categoryID, id, err)
		}
	}
	for _, tagID := range tagIDs {
		if _, err := tx.ExecContext(ctx,
			"INSERT OR REPLACE INTO business_tag_links (business_id, tag_id) VALUES (?, ?)",
			id, tagID); err != nil {
			return 0, fmt.Errorf("linking tag %d to business %d: %w", tagID, id, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing business with relations: %w", err)
	}

	s.broadcast(TableBusinesses, TableBusinessCategoryLink, TableBusinessTagLink)
	return id, nil
}

// getCategoriesForBusiness retrieves the categories linked to a business.
func (s *SQLiteStore) getCategoriesForBusiness(ctx context.Context, businessID int64) ([]model.Category, error) {
	var categories []model.Category
	err := s.db.SelectContext(ctx, &categories, `
		SELECT c.* FROM categories c
		INNER JOIN business_category_links l ON c.category_id = l.category_id
		WHERE l.business_id = ?
		ORDER BY c.category_name`, businessID)
	if err != nil {
		return nil, fmt.Errorf("querying categories for business %d: %w", businessID, err)
	}
	return categories, nil
}

// getTagsForBusiness retrieves the tags linked to a business.
func (s *SQLiteStore) getTagsForBusiness(ctx context.Context, businessID int64) ([]model.Tag, error) {
	var tags []model.Tag
	err := s.db.SelectContext(ctx, &tags, `
		SELECT t.* FROM tags t
		INNER JOIN business_tag_links l ON t.tag_id = l.tag_id
		WHERE l.business_id = ?
		ORDER BY t.tag_name`, businessID)
	if err != nil {
		return nil, fmt.Errorf("querying tags for business %d: %w", businessID, err)
	}
	return tags, nil
}
