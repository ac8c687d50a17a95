package lists

import "time"

// List is a titled collection of tasks owned by one user
type List struct {
	ID        string    `json:"_id"`
	Title     string    `json:"title"`
	UserID    string    `json:"_userId"`
	CreatedAt time.Time `json:"-"`
}

// Task belongs to exactly one list
type Task struct {
	ID        string    `json:"_id"`
	Title     string    `json:"title"`
	ListID    string    `json:"_listId"`
	Completed bool      `json:"completed"`
	CreatedAt time.Time `json:"-"`
}

// TitleRequest is the body for creating lists and tasks and renaming lists
type TitleRequest struct {
	Title string `json:"title" binding:"required"`
}

// TaskUpdate carries the optional fields of PATCH /lists/:listId/tasks/:taskId
type TaskUpdate struct {
	Title     *string `json:"title,omitempty"`
	Completed *bool   `json:"completed,omitempty"`
}
