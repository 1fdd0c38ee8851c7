package model

// DefaultTagColor is the packed ARGB value used when a tag is created
// without an explicit color (mid-gray, full alpha).
const DefaultTagColor uint32 = 0xFF7F7F7F

// Category is a classification label for businesses. Names are unique
// at the storage layer (exact match); the repository additionally
// rejects case-insensitive duplicates before writing.
type Category struct {
	ID   int64  `json:"id" db:"category_id"`
	Name string `json:"name" db:"category_name"`
}

// Tag is a free-form label for businesses and people. Names are not
// required to be unique. Color is a packed 32-bit ARGB value.
type Tag struct {
	ID    int64  `json:"id" db:"tag_id"`
	Name  string `json:"name" db:"tag_name"`
	Color uint32 `json:"color" db:"color"`
}
