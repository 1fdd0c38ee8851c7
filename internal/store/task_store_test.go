package store_test

import (
	"context"
	"testing"

	"github.com/stewardapostol/clientele/internal/model"
	"github.com/stewardapostol/clientele/tests/testutil"
)

func TestInsertTaskDefaultsToOpen(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	id, err := s.InsertTask(ctx, model.Task{Title: "Call supplier"})
	if err != nil {
		t.Fatalf("inserting task: %v", err)
	}

	tasks, err := s.GetAllTasksWithNames(ctx)
	if err != nil {
		t.Fatalf("listing tasks: %v", err)
	}
	if len(tasks) != 1 || tasks[0].ID != id {
		t.Fatalf("expected the inserted task, got %+v", tasks)
	}
	if tasks[0].Status != model.TaskStatusOpen {
		t.Fatalf("expected status %q, got %q", model.TaskStatusOpen, tasks[0].Status)
	}
}

func TestInsertTaskRejectsEmptyTitle(t *testing.T) {
	s := testutil.NewTestStore(t)

	if _, err := s.InsertTask(context.Background(), model.Task{Title: " "}); err == nil {
		t.Fatal("expected an error for a blank title")
	}
}

func TestTaskNamesResolveFromRelations(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	bizID, err := s.InsertBusiness(ctx, model.Business{Name: "Acme"})
	if err != nil {
		t.Fatalf("inserting business: %v", err)
	}
	personID, err := s.InsertPerson(ctx, model.Person{FirstName: "Ada", LastName: "Lovelace"})
	if err != nil {
		t.Fatalf("inserting person: %v", err)
	}

	if _, err := s.InsertTask(ctx, model.Task{
		Title:             "Kickoff",
		RelatedBusinessID: &bizID,
		RelatedPersonID:   &personID,
	}); err != nil {
		t.Fatalf("inserting related task: %v", err)
	}
	if _, err := s.InsertTask(ctx, model.Task{Title: "Loose end"}); err != nil {
		t.Fatalf("inserting unrelated task: %v", err)
	}

	tasks, err := s.GetAllTasksWithNames(ctx)
	if err != nil {
		t.Fatalf("listing tasks: %v", err)
	}
	if len(tasks) != 2 {
		t.Fatalf("expected 2 tasks, got %d", len(tasks))
	}

	// Newest first: the unrelated task has null names.
	if tasks[0].BusinessName != nil || tasks[0].PersonName != nil {
		t.Fatalf("expected nil names for unrelated task, got %+v", tasks[0])
	}
	related := tasks[1]
	if related.BusinessName == nil || *related.BusinessName != "Acme" {
		t.Fatalf("expected business name Acme, got %+v", related.BusinessName)
	}
	if related.PersonName == nil || *related.PersonName != "Ada Lovelace" {
		t.Fatalf("expected joined person name, got %+v", related.PersonName)
	}
}

func TestGetTasksWithNamesFiltersByStatus(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	openID, err := s.InsertTask(ctx, model.Task{Title: "Open one"})
	if err != nil {
		t.Fatalf("inserting task: %v", err)
	}
	doneID, err := s.InsertTask(ctx, model.Task{Title: "Done one"})
	if err != nil {
		t.Fatalf("inserting task: %v", err)
	}
	if err := s.UpdateTaskStatus(ctx, doneID, model.TaskStatusCompleted); err != nil {
		t.Fatalf("completing task: %v", err)
	}

	open, err := s.GetTasksWithNames(ctx, model.TaskStatusOpen)
	if err != nil {
		t.Fatalf("listing open tasks: %v", err)
	}
	if len(open) != 1 || open[0].ID != openID {
		t.Fatalf("expected only the open task, got %+v", open)
	}

	completed, err := s.GetTasksWithNames(ctx, model.TaskStatusCompleted)
	if err != nil {
		t.Fatalf("listing completed tasks: %v", err)
	}
	if len(completed) != 1 || completed[0].ID != doneID {
		t.Fatalf("expected only the completed task, got %+v", completed)
	}

	// Setting the same status again is idempotent.
	if err := s.UpdateTaskStatus(ctx, doneID, model.TaskStatusCompleted); err != nil {
		t.Fatalf("re-completing task: %v", err)
	}
	completed, err = s.GetTasksWithNames(ctx, model.TaskStatusCompleted)
	if err != nil {
		t.Fatalf("listing completed tasks: %v", err)
	}
	if len(completed) != 1 || completed[0].Status != model.TaskStatusCompleted {
		t.Fatalf("expected an unchanged completed task, got %+v", completed)
	}
}

func TestGetTasksByBusiness(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	acme, err := s.InsertBusiness(ctx, model.Business{Name: "Acme"})
	if err != nil {
		t.Fatalf("inserting business: %v", err)
	}
	beta, err := s.InsertBusiness(ctx, model.Business{Name: "Beta"})
	if err != nil {
		t.Fatalf("inserting business: %v", err)
	}

	if _, err := s.InsertTask(ctx, model.Task{Title: "For Acme", RelatedBusinessID: &acme}); err != nil {
		t.Fatalf("inserting task: %v", err)
	}
	if _, err := s.InsertTask(ctx, model.Task{Title: "For Beta", RelatedBusinessID: &beta}); err != nil {
		t.Fatalf("inserting task: %v", err)
	}

	tasks, err := s.GetTasksByBusiness(ctx, acme)
	if err != nil {
		t.Fatalf("listing tasks by business: %v", err)
	}
	if len(tasks) != 1 || tasks[0].Title != "For Acme" {
		t.Fatalf("expected only Acme's task, got %+v", tasks)
	}
}

func TestUpdateTaskReplacesFields(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	id, err := s.InsertTask(ctx, model.Task{Title: "Draft", Description: "v1"})
	if err != nil {
		t.Fatalf("inserting task: %v", err)
	}

	if err := s.UpdateTask(ctx, model.Task{
		ID:          id,
		Title:       "Final",
		Description: "v2",
		Status:      model.TaskStatusCompleted,
	}); err != nil {
		t.Fatalf("updating task: %v", err)
	}

	tasks, err := s.GetAllTasksWithNames(ctx)
	if err != nil {
		t.Fatalf("listing tasks: %v", err)
	}
	got := tasks[0]
	if got.Title != "Final" || got.Description != "v2" || got.Status != model.TaskStatusCompleted {
		t.Fatalf("unexpected task after update: %+v", got)
	}
}

func TestUpdateTaskStatusMissingIsNoOp(t *testing.T) {
	s := testutil.NewTestStore(t)

	if err := s.UpdateTaskStatus(context.Background(), 77, model.TaskStatusCompleted); err != nil {
		t.Fatalf("expected a silent no-op, got %v", err)
	}
}

func TestDeleteTask(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	id, err := s.InsertTask(ctx, model.Task{Title: "Temp"})
	if err != nil {
		t.Fatalf("inserting task: %v", err)
	}
	if err := s.DeleteTaskByID(ctx, id); err != nil {
		t.Fatalf("deleting task: %v", err)
	}

	tasks, err := s.GetAllTasksWithNames(ctx)
	if err != nil {
		t.Fatalf("listing tasks: %v", err)
	}
	if len(tasks) != 0 {
		t.Fatalf("expected no tasks left, got %d", len(tasks))
	}
}

func TestTaskSurvivesRelatedBusinessDelete(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	bizID, err := s.InsertBusiness(ctx, model.Business{Name: "Acme"})
	if err != nil {
		t.Fatalf("inserting business: %v", err)
	}
	if _, err := s.InsertTask(ctx, model.Task{Title: "Orphaned", RelatedBusinessID: &bizID}); err != nil {
		t.Fatalf("inserting task: %v", err)
	}

	if err := s.DeleteBusiness(ctx, model.Business{ID: bizID, Name: "Acme"}); err != nil {
		t.Fatalf("deleting business: %v", err)
	}

	tasks, err := s.GetAllTasksWithNames(ctx)
	if err != nil {
		t.Fatalf("listing tasks: %v", err)
	}
	if len(tasks) != 1 {
		t.Fatalf("expected the task to survive, got %d", len(tasks))
	}
	// The reference is weak, so the name simply resolves to nothing.
	if tasks[0].BusinessName != nil {
		t.Fatalf("expected a nil business name, got %q", *tasks[0].BusinessName)
	}
}
