package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/stewardapostol/clientele/internal/model"
)

// taskWithNamesSelect joins each task with the display name of its
// related business and the "first last" name of its related person.
// Left joins: a task with neither relation still appears, with NULLs.
const taskWithNamesSelect = `
	SELECT tasks.*,
	       businesses.name AS business_name,
	       (people.first_name || ' ' || people.last_name) AS person_name
	FROM tasks
	LEFT JOIN businesses ON tasks.related_business_id = businesses.business_id
	LEFT JOIN people ON tasks.related_person_id = people.person_id`

// InsertTask inserts or replaces a task by id and returns the effective
// id. Status defaults to Open when unset.
func (s *SQLiteStore) InsertTask(ctx context.Context, t model.Task) (int64, error) {
	if strings.TrimSpace(t.Title) == "" {
		return 0, fmt.Errorf("task title must not be empty")
	}
	if t.Status == "" {
		t.Status = model.TaskStatusOpen
	}

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO tasks (task_id, title, description, status, related_business_id, related_person_id)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(task_id) DO UPDATE SET
			title = excluded.title,
			description = excluded.description,
			status = excluded.status,
			related_business_id = excluded.related_business_id,
			related_person_id = excluded.related_person_id`,
		nullableID(t.ID), t.Title, t.Description, t.Status,
		t.RelatedBusinessID, t.RelatedPersonID,
	)
	if err != nil {
		return 0, fmt.Errorf("inserting task: %w", err)
	}

	id := t.ID
	if id == 0 {
		id, err = res.LastInsertId()
		if err != nil {
			return 0, fmt.Errorf("reading new task id: %w", err)
		}
	}
	s.broadcast(TableTasks)
	return id, nil
}

// UpdateTask replaces all fields of an existing task. A missing id is
// a no-op.
func (s *SQLiteStore) UpdateTask(ctx context.Context, t model.Task) error {
	if strings.TrimSpace(t.Title) == "" {
		return fmt.Errorf("task title must not be empty")
	}

	_, err := s.db.ExecContext(ctx, `
		UPDATE tasks SET
			title = ?, description = ?, status = ?,
			related_business_id = ?, related_person_id = ?
		WHERE task_id = ?`,
		t.Title, t.Description, t.Status,
		t.RelatedBusinessID, t.RelatedPersonID,
		t.ID,
	)
	if err != nil {
		return fmt.Errorf("updating task %d: %w", t.ID, err)
	}
	s.broadcast(TableTasks)
	return nil
}

// UpdateTaskStatus sets the status of a single task. A missing id is
// a no-op.
func (s *SQLiteStore) UpdateTaskStatus(ctx context.Context, id int64, status string) error {
	_, err := s.db.ExecContext(ctx,
		"UPDATE tasks SET status = ? WHERE task_id = ?", status, id)
	if err != nil {
		return fmt.Errorf("updating status of task %d: %w", id, err)
	}
	s.broadcast(TableTasks)
	return nil
}

// DeleteTaskByID removes a task by id. Missing rows are a no-op.
func (s *SQLiteStore) DeleteTaskByID(ctx context.Context, id int64) error {
	_, err := s.db.ExecContext(ctx,
		"DELETE FROM tasks WHERE task_id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting task %d: %w", id, err)
	}
	s.broadcast(TableTasks)
	return nil
}

// GetTasksWithNames retrieves tasks filtered by exact status, joined
// with their business/person names.
func (s *SQLiteStore) GetTasksWithNames(ctx context.Context, status string) ([]model.TaskWithNames, error) {
	var tasks []model.TaskWithNames
	err := s.db.SelectContext(ctx, &tasks,
		taskWithNamesSelect+" WHERE tasks.status = ?", status)
	if err != nil {
		return nil, fmt.Errorf("querying %s tasks: %w", status, err)
	}
	return tasks, nil
}

// GetAllTasksWithNames retrieves all tasks newest-first, joined with
// their business/person names.
func (s *SQLiteStore) GetAllTasksWithNames(ctx context.Context) ([]model.TaskWithNames, error) {
	var tasks []model.TaskWithNames
	err := s.db.SelectContext(ctx, &tasks,
		taskWithNamesSelect+" ORDER BY tasks.task_id DESC")
	if err != nil {
		return nil, fmt.Errorf("querying tasks: %w", err)
	}
	return tasks, nil
}

// GetTasksByBusiness retrieves the tasks related to a business, joined
// with their business/person names.
func (s *SQLiteStore) GetTasksByBusiness(ctx context.Context, businessID int64) ([]model.TaskWithNames, error) {
	var tasks []model.TaskWithNames
	err := s.db.SelectContext(ctx, &tasks,
		taskWithNamesSelect+" WHERE tasks.related_business_id = ?", businessID)
	if err != nil {
		return nil, fmt.Errorf("querying tasks for business %d: %w", businessID, err)
	}
	return tasks, nil
}
