package model

// Person is a contact. BusinessID is a weak reference: deleting the
// business sets it to nil, the person survives as independent.
type Person struct {
	ID          int64  `json:"id" db:"person_id"`
	FirstName   string `json:"first_name" db:"first_name"`
	LastName    string `json:"last_name" db:"last_name"`
	Email       string `json:"email" db:"email"`
	PhoneNumber string `json:"phone_number" db:"phone_number"`
	BusinessID  *int64 `json:"business_id,omitempty" db:"business_id"`
}

// FullName returns "first last" for display, matching the concatenation
// used by the task name projection.
func (p Person) FullName() string {
	return p.FirstName + " " + p.LastName
}

// PersonWithDetails is a read-only projection of a person with the
// business it references (nil when independent) and its tags.
type PersonWithDetails struct {
	Person

	Business *Business `json:"business,omitempty" db:"-"`
	Tags     []Tag     `json:"tags" db:"-"`
}
