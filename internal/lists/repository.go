package lists

import (
	"context"
	"errors"
)

var (
	// ErrListNotFound is returned when the list does not exist or is not owned by the caller
	ErrListNotFound = errors.New("list not found")
	// ErrTaskNotFound is returned when the task does not exist in the list
	ErrTaskNotFound = errors.New("task not found")
	// ErrValidation is returned for empty titles and empty updates
	ErrValidation = errors.New("validation failed")
)

// Repository persists lists and tasks. List operations are always scoped by
// owner, task operations by list.
type Repository interface {
	CreateList(ctx context.Context, userID, title string) (*List, error)
	ListsByUser(ctx context.Context, userID string) ([]List, error)
	GetList(ctx context.Context, userID, listID string) (*List, error)
	UpdateListTitle(ctx context.Context, userID, listID, title string) error
	// DeleteList removes the list together with its tasks and returns it
	DeleteList(ctx context.Context, userID, listID string) (*List, error)

	CreateTask(ctx context.Context, listID, title string) (*Task, error)
	TasksByList(ctx context.Context, listID string) ([]Task, error)
	GetTask(ctx context.Context, listID, taskID string) (*Task, error)
	UpdateTask(ctx context.Context, listID, taskID string, update TaskUpdate) error
	DeleteTask(ctx context.Context, listID, taskID string) (*Task, error)
}
