package model

// Business is a company record. People may reference it, and it carries
// category and tag links through the join tables.
type Business struct {
	ID    int64   `json:"id" db:"business_id"`
	Name  string  `json:"name" db:"name"`
	Email *string `json:"email,omitempty" db:"email"`
}

// BusinessWithDetails is a read-only projection of a business together
// with its linked categories and tags. It is assembled at query time
// and never stored.
type BusinessWithDetails struct {
	Business

	Categories []Category `json:"categories" db:"-"`
	Tags       []Tag      `json:"tags" db:"-"`
}
