package model

// Task status constants.
const (
	TaskStatusOpen      = "Open"
	TaskStatusCompleted = "Completed"
)

// Task is a work item, optionally linked to a business and/or a person.
// Both relations are weak: the schema has no foreign keys on them, so a
// task outlives whatever it pointed at.
type Task struct {
	ID                int64  `json:"id" db:"task_id"`
	Title             string `json:"title" db:"title"`
	Description       string `json:"description" db:"description"`
	Status            string `json:"status" db:"status"`
	RelatedBusinessID *int64 `json:"related_business_id,omitempty" db:"related_business_id"`
	RelatedPersonID   *int64 `json:"related_person_id,omitempty" db:"related_person_id"`
}

// TaskWithNames is a task joined with the display names of its related
// business and person. Both names are nil when the relation is unset or
// the referenced row no longer exists (left joins).
type TaskWithNames struct {
	Task

	BusinessName *string `json:"business_name,omitempty" db:"business_name"`
	PersonName   *string `json:"person_name,omitempty" db:"person_name"`
}
