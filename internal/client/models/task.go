package models

import "time"

// Task is a to-do item.
type Task struct {
	// ID is assigned by the store on insert and never changes.
	ID int64 `json:"id,omitempty"`

	Title     string `json:"title"`
	Completed bool   `json:"completed"`

	// DueDate is the day the task is due, at local midnight.
	DueDate   time.Time `json:"dueDate"`
	CreatedAt time.Time `json:"createdAt"`
}

// TaskPatch carries the fields of a partial task update; nil fields are
// left unchanged.
type TaskPatch struct {
	Title     *string
	Completed *bool
	DueDate   *time.Time
}

// Apply returns a copy of t with the non-nil fields of p applied.
func (p TaskPatch) Apply(t Task) Task {
	if p.Title != nil {
		t.Title = *p.Title
	}
	if p.Completed != nil {
		t.Completed = *p.Completed
	}
	if p.DueDate != nil {
		t.DueDate = *p.DueDate
	}
	return t
}
