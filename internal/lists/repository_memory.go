package lists

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryRepository keeps lists and tasks in process memory. Tests use it in
// place of PostgresRepository.
type MemoryRepository struct {
	mu    sync.RWMutex
	lists map[string]List
	tasks map[string]Task

	// insertion order, so listings are stable within one clock tick
	seq  map[string]int64
	next int64
}

// NewMemoryRepository creates an empty in-memory repository
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		lists: make(map[string]List),
		tasks: make(map[string]Task),
		seq:   make(map[string]int64),
	}
}

func (r *MemoryRepository) CreateList(_ context.Context, userID, title string) (*List, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	l := List{ID: uuid.New().String(), Title: title, UserID: userID, CreatedAt: time.Now()}
	r.lists[l.ID] = l
	r.track(l.ID)
	return &l, nil
}

func (r *MemoryRepository) ListsByUser(_ context.Context, userID string) ([]List, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := []List{}
	for _, l := range r.lists {
		if l.UserID == userID {
			out = append(out, l)
		}
	}
	sort.Slice(out, func(i, j int) bool { return r.seq[out[i].ID] < r.seq[out[j].ID] })
	return out, nil
}

func (r *MemoryRepository) GetList(_ context.Context, userID, listID string) (*List, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	l, ok := r.lists[listID]
	if !ok || l.UserID != userID {
		return nil, ErrListNotFound
	}
	return &l, nil
}

func (r *MemoryRepository) UpdateListTitle(_ context.Context, userID, listID, title string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	l, ok := r.lists[listID]
	if !ok || l.UserID != userID {
		return ErrListNotFound
	}
	l.Title = title
	r.lists[listID] = l
	return nil
}

func (r *MemoryRepository) DeleteList(_ context.Context, userID, listID string) (*List, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	l, ok := r.lists[listID]
	if !ok || l.UserID != userID {
		return nil, ErrListNotFound
	}
	delete(r.lists, listID)
	delete(r.seq, listID)
	for id, t := range r.tasks {
		if t.ListID == listID {
			delete(r.tasks, id)
			delete(r.seq, id)
		}
	}
	return &l, nil
}

func (r *MemoryRepository) CreateTask(_ context.Context, listID, title string) (*Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	t := Task{ID: uuid.New().String(), Title: title, ListID: listID, CreatedAt: time.Now()}
	r.tasks[t.ID] = t
	r.track(t.ID)
	return &t, nil
}

func (r *MemoryRepository) TasksByList(_ context.Context, listID string) ([]Task, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := []Task{}
	for _, t := range r.tasks {
		if t.ListID == listID {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return r.seq[out[i].ID] < r.seq[out[j].ID] })
	return out, nil
}

func (r *MemoryRepository) GetTask(_ context.Context, listID, taskID string) (*Task, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	t, ok := r.tasks[taskID]
	if !ok || t.ListID != listID {
		return nil, ErrTaskNotFound
	}
	return &t, nil
}

func (r *MemoryRepository) UpdateTask(_ context.Context, listID, taskID string, update TaskUpdate) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.tasks[taskID]
	if !ok || t.ListID != listID {
		return ErrTaskNotFound
	}
	if update.Title != nil {
		t.Title = *update.Title
	}
	if update.Completed != nil {
		t.Completed = *update.Completed
	}
	r.tasks[taskID] = t
	return nil
}

func (r *MemoryRepository) DeleteTask(_ context.Context, listID, taskID string) (*Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.tasks[taskID]
	if !ok || t.ListID != listID {
		return nil, ErrTaskNotFound
	}
	delete(r.tasks, taskID)
	delete(r.seq, taskID)
	return &t, nil
}

func (r *MemoryRepository) track(id string) {
	r.next++
	r.seq[id] = r.next
}
