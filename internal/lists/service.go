// Package lists implements list and task CRUD scoped to the authenticated
// owner, plus presigned attachment URLs for tasks.
package lists

import (
	"context"
	"fmt"
	"strings"
)

// Service enforces ownership and input rules on top of a Repository
type Service struct {
	repo Repository
}

// NewService creates a new lists service
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func cleanTitle(title string) (string, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return "", fmt.Errorf("%w: title is required", ErrValidation)
	}
	return title, nil
}

// Lists returns every list owned by userID
func (s *Service) Lists(ctx context.Context, userID string) ([]List, error) {
	return s.repo.ListsByUser(ctx, userID)
}

// CreateList creates a list for userID
func (s *Service) CreateList(ctx context.Context, userID, title string) (*List, error) {
	title, err := cleanTitle(title)
	if err != nil {
		return nil, err
	}
	return s.repo.CreateList(ctx, userID, title)
}

// RenameList changes the title of an owned list
func (s *Service) RenameList(ctx context.Context, userID, listID, title string) error {
	title, err := cleanTitle(title)
	if err != nil {
		return err
	}
	return s.repo.UpdateListTitle(ctx, userID, listID, title)
}

// DeleteList removes an owned list and all of its tasks
func (s *Service) DeleteList(ctx context.Context, userID, listID string) (*List, error) {
	return s.repo.DeleteList(ctx, userID, listID)
}

// Tasks returns the tasks of an owned list
func (s *Service) Tasks(ctx context.Context, userID, listID string) ([]Task, error) {
	if _, err := s.repo.GetList(ctx, userID, listID); err != nil {
		return nil, err
	}
	return s.repo.TasksByList(ctx, listID)
}

// Task returns one task of an owned list
func (s *Service) Task(ctx context.Context, userID, listID, taskID string) (*Task, error) {
	if _, err := s.repo.GetList(ctx, userID, listID); err != nil {
		return nil, err
	}
	return s.repo.GetTask(ctx, listID, taskID)
}

// CreateTask adds a task to an owned list
func (s *Service) CreateTask(ctx context.Context, userID, listID, title string) (*Task, error) {
	title, err := cleanTitle(title)
	if err != nil {
		return nil, err
	}
	if _, err := s.repo.GetList(ctx, userID, listID); err != nil {
		return nil, err
	}
	return s.repo.CreateTask(ctx, listID, title)
}

// UpdateTask applies the non-nil fields of update
func (s *Service) UpdateTask(ctx context.Context, userID, listID, taskID string, update TaskUpdate) error {
	if update.Title == nil && update.Completed == nil {
		return fmt.Errorf("%w: nothing to update", ErrValidation)
	}
	if update.Title != nil {
		title, err := cleanTitle(*update.Title)
		if err != nil {
			return err
		}
		update.Title = &title
	}

	if _, err := s.repo.GetList(ctx, userID, listID); err != nil {
		return err
	}
	return s.repo.UpdateTask(ctx, listID, taskID, update)
}

// DeleteTask removes a task from an owned list
func (s *Service) DeleteTask(ctx context.Context, userID, listID, taskID string) (*Task, error) {
	if _, err := s.repo.GetList(ctx, userID, listID); err != nil {
		return nil, err
	}
	return s.repo.DeleteTask(ctx, listID, taskID)
}
