package lists

import (
	"context"
	"errors"
	"fmt"

	"tasklist/internal/database"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// PostgresRepository stores lists and tasks in PostgreSQL
type PostgresRepository struct {
	db database.Service
}

// NewPostgresRepository creates a new lists repository
func NewPostgresRepository(db database.Service) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func validIDs(ids ...string) bool {
	for _, id := range ids {
		if _, err := uuid.Parse(id); err != nil {
			return false
		}
	}
	return true
}

func (r *PostgresRepository) CreateList(ctx context.Context, userID, title string) (*List, error) {
	query := `
		INSERT INTO lists (id, user_id, title)
		VALUES ($1, $2, $3)
		RETURNING id, title, user_id, created_at
	`

	l := &List{}
	err := r.db.QueryRow(ctx, query, uuid.New().String(), userID, title).
		Scan(&l.ID, &l.Title, &l.UserID, &l.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create list: %w", err)
	}

	return l, nil
}

func (r *PostgresRepository) ListsByUser(ctx context.Context, userID string) ([]List, error) {
	if !validIDs(userID) {
		return []List{}, nil
	}

	rows, err := r.db.Query(ctx, `
		SELECT id, title, user_id, created_at
		FROM lists
		WHERE user_id = $1
		ORDER BY created_at, id
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query lists: %w", err)
	}

	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (List, error) {
		var l List
		err := row.Scan(&l.ID, &l.Title, &l.UserID, &l.CreatedAt)
		return l, err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan lists: %w", err)
	}

	return out, nil
}

func (r *PostgresRepository) GetList(ctx context.Context, userID, listID string) (*List, error) {
	if !validIDs(userID, listID) {
		return nil, ErrListNotFound
	}

	l := &List{}
	err := r.db.QueryRow(ctx, `
		SELECT id, title, user_id, created_at
		FROM lists
		WHERE id = $1 AND user_id = $2
	`, listID, userID).Scan(&l.ID, &l.Title, &l.UserID, &l.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrListNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get list: %w", err)
	}

	return l, nil
}

func (r *PostgresRepository) UpdateListTitle(ctx context.Context, userID, listID, title string) error {
	if !validIDs(userID, listID) {
		return ErrListNotFound
	}

	tag, err := r.db.Exec(ctx, `UPDATE lists SET title = $1 WHERE id = $2 AND user_id = $3`, title, listID, userID)
	if err != nil {
		return fmt.Errorf("failed to update list: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrListNotFound
	}

	return nil
}

// DeleteList relies on ON DELETE CASCADE to remove the list's tasks
func (r *PostgresRepository) DeleteList(ctx context.Context, userID, listID string) (*List, error) {
	if !validIDs(userID, listID) {
		return nil, ErrListNotFound
	}

	l := &List{}
	err := r.db.QueryRow(ctx, `
		DELETE FROM lists
		WHERE id = $1 AND user_id = $2
		RETURNING id, title, user_id, created_at
	`, listID, userID).Scan(&l.ID, &l.Title, &l.UserID, &l.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrListNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to delete list: %w", err)
	}

	return l, nil
}

const taskColumns = `id, title, list_id, completed, created_at`

func scanTask(row pgx.Row) (*Task, error) {
	t := &Task{}
	if err := row.Scan(&t.ID, &t.Title, &t.ListID, &t.Completed, &t.CreatedAt); err != nil {
		return nil, err
	}
	return t, nil
}

func (r *PostgresRepository) CreateTask(ctx context.Context, listID, title string) (*Task, error) {
	query := `
		INSERT INTO tasks (id, list_id, title)
		VALUES ($1, $2, $3)
		RETURNING ` + taskColumns

	t, err := scanTask(r.db.QueryRow(ctx, query, uuid.New().String(), listID, title))
	if err != nil {
		return nil, fmt.Errorf("failed to create task: %w", err)
	}

	return t, nil
}

func (r *PostgresRepository) TasksByList(ctx context.Context, listID string) ([]Task, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+taskColumns+`
		FROM tasks
		WHERE list_id = $1
		ORDER BY created_at, id
	`, listID)
	if err != nil {
		return nil, fmt.Errorf("failed to query tasks: %w", err)
	}

	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (Task, error) {
		t, err := scanTask(row)
		if err != nil {
			return Task{}, err
		}
		return *t, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan tasks: %w", err)
	}

	return out, nil
}

func (r *PostgresRepository) GetTask(ctx context.Context, listID, taskID string) (*Task, error) {
	if !validIDs(listID, taskID) {
		return nil, ErrTaskNotFound
	}

	t, err := scanTask(r.db.QueryRow(ctx, `
		SELECT `+taskColumns+`
		FROM tasks
		WHERE id = $1 AND list_id = $2
	`, taskID, listID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrTaskNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get task: %w", err)
	}

	return t, nil
}

func (r *PostgresRepository) UpdateTask(ctx context.Context, listID, taskID string, update TaskUpdate) error {
	if !validIDs(listID, taskID) {
		return ErrTaskNotFound
	}

	tag, err := r.db.Exec(ctx, `
		UPDATE tasks
		SET title = COALESCE($1, title),
		    completed = COALESCE($2, completed)
		WHERE id = $3 AND list_id = $4
	`, update.Title, update.Completed, taskID, listID)
	if err != nil {
		return fmt.Errorf("failed to update task: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrTaskNotFound
	}

	return nil
}

func (r *PostgresRepository) DeleteTask(ctx context.Context, listID, taskID string) (*Task, error) {
	if !validIDs(listID, taskID) {
		return nil, ErrTaskNotFound
	}

	t, err := scanTask(r.db.QueryRow(ctx, `
		DELETE FROM tasks
		WHERE id = $1 AND list_id = $2
		RETURNING `+taskColumns, taskID, listID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrTaskNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to delete task: %w", err)
	}

	return t, nil
}
