package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/stewardapostol/clientele/internal/model"
)

// InsertCategory inserts a category. A duplicate of the unique name
// (exact match) is silently ignored, not an error; the repository layer
// adds the stricter case-insensitive check on top.
func (s *SQLiteStore) InsertCategory(ctx context.Context, c model.Category) error {
	if strings.TrimSpace(c.Name) == "" {
		return fmt.Errorf("category name must not be empty")
	}

	_, err := s.db.ExecContext(ctx,
		"INSERT OR IGNORE INTO categories (category_id, category_name) VALUES (?, ?)",
		nullableID(c.ID), c.Name,
	)
	if err != nil {
		return fmt.Errorf("inserting category: %w", err)
	}
	s.broadcast(TableCategories)
	return nil
}

// GetAllCategories retrieves all categories.
func (s *SQLiteStore) GetAllCategories(ctx context.Context) ([]model.Category, error) {
	var categories []model.Category
	err := s.db.SelectContext(ctx, &categories, "SELECT * FROM categories")
	if err != nil {
		return nil, fmt.Errorf("querying categories: %w", err)
	}
	return categories, nil
}

// UpdateCategory replaces a category's name. A missing id is a no-op.
func (s *SQLiteStore) UpdateCategory(ctx context.Context, c model.Category) error {
	if strings.TrimSpace(c.Name) == "" {
		return fmt.Errorf("category name must not be empty")
	}

	_, err := s.db.ExecContext(ctx,
		"UPDATE categories SET category_name = ? WHERE category_id = ?",
		c.Name, c.ID,
	)
	if err != nil {
		return fmt.Errorf("updating category %d: %w", c.ID, err)
	}
	s.broadcast(TableCategories)
	return nil
}

// DeleteCategory removes a category. Business links referencing it
// cascade away.
func (s *SQLiteStore) DeleteCategory(ctx context.Context, c model.Category) error {
	_, err := s.db.ExecContext(ctx,
		"DELETE FROM categories WHERE category_id = ?", c.ID)
	if err != nil {
		return fmt.Errorf("deleting category %d: %w", c.ID, err)
	}
	s.broadcast(TableCategories, TableBusinessCategoryLink)
	return nil
}

// InsertTag inserts a tag, ignoring id conflicts. Tag names are not
// unique; the default mid-gray color applies when unset.
func (s *SQLiteStore) InsertTag(ctx context.Context, t model.Tag) error {
	if strings.TrimSpace(t.Name) == "" {
		return fmt.Errorf("tag name must not be empty")
	}
	if t.Color == 0 {
		t.Color = model.DefaultTagColor
	}

	_, err := s.db.ExecContext(ctx,
		"INSERT OR IGNORE INTO tags (tag_id, tag_name, color) VALUES (?, ?, ?)",
		nullableID(t.ID), t.Name, int64(t.Color),
	)
	if err != nil {
		return fmt.Errorf("inserting tag: %w", err)
	}
	s.broadcast(TableTags)
	return nil
}

// GetAllTags retrieves all tags.
func (s *SQLiteStore) GetAllTags(ctx context.Context) ([]model.Tag, error) {
	var tags []model.Tag
	err := s.db.SelectContext(ctx, &tags, "SELECT * FROM tags")
	if err != nil {
		return nil, fmt.Errorf("querying tags: %w", err)
	}
	return tags, nil
}

// UpdateTag replaces a tag's name and color. A missing id is a no-op.
func (s *SQLiteStore) UpdateTag(ctx context.Context, t model.Tag) error {
	if strings.TrimSpace(t.Name) == "" {
		return fmt.Errorf("tag name must not be empty")
	}

	_, err := s.db.ExecContext(ctx,
		"UPDATE tags SET tag_name = ?, color = ? WHERE tag_id = ?",
		t.Name, int64(t.Color), t.ID,
	)
	if err != nil {
		return fmt.Errorf("updating tag %d: %w", t.ID, err)
	}
	s.broadcast(TableTags)
	return nil
}

// DeleteTag removes a tag. Business and person links referencing it
// cascade away.
func (s *SQLiteStore) DeleteTag(ctx context.Context, t model.Tag) error {
	_, err := s.db.ExecContext(ctx,
		"DELETE FROM tags WHERE tag_id = ?", t.ID)
	if err != nil {
		return fmt.Errorf("deleting tag %d: %w", t.ID, err)
	}
	s.broadcast(TableTags, TableBusinessTagLink, TablePersonTagLink)
	return nil
}

// InsertBusinessCategoryLink inserts or replaces a single link row.
// Referencing a nonexistent business or category fails the foreign key
// check.
func (s *SQLiteStore) InsertBusinessCategoryLink(ctx context.Context, businessID, categoryID int64) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT OR REPLACE INTO business_category_links (business_id, category_id) VALUES (?, ?)",
		businessID, categoryID,
	)
	if err != nil {
		return fmt.Errorf("linking category %d to business %d: %w", categoryID, businessID, err)
	}
	s.broadcast(TableBusinessCategoryLink)
	return nil
}

// InsertBusinessTagLink inserts or replaces a single link row.
func (s *SQLiteStore) InsertBusinessTagLink(ctx context.Context, businessID, tagID int64) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT OR REPLACE INTO business_tag_links (business_id, tag_id) VALUES (?, ?)",
		businessID, tagID,
	)
	if err != nil {
		return fmt.Errorf("linking tag %d to business %d: %w", tagID, businessID, err)
	}
	s.broadcast(TableBusinessTagLink)
	return nil
}

// InsertPersonTagLink inserts or replaces a single link row.
func (s *SQLiteStore) InsertPersonTagLink(ctx context.Context, personID, tagID int64) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT OR REPLACE INTO person_tag_links (person_id, tag_id) VALUES (?, ?)",
		personID, tagID,
	)
	if err != nil {
		return fmt.Errorf("linking tag %d to person %d: %w", tagID, personID, err)
	}
	s.broadcast(TablePersonTagLink)
	return nil
}
