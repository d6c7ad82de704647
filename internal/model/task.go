package model

import "strconv"

// Task is a single to-do item as stored by the remote task store
type Task struct {
	ID     int    `json:"id"`
	Label  string `json:"label"`
	IsDone bool   `json:"is_done"`
}

// NewTask is the creation payload; the store assigns the ID
type NewTask struct {
	Label  string `json:"label"`
	IsDone bool   `json:"is_done"`
}

// TaskList is the list-tasks response body
type TaskList struct {
	Name  string `json:"name,omitempty"`
	Todos []Task `json:"todos"`
}

// ValidID reports whether id can address a stored task
func ValidID(id int) bool {
	return id > 0
}

// StatusIcon returns the icon for the task state
func (t Task) StatusIcon() string {
	if t.IsDone {
		return "✓"
	}
	return "○"
}

// ItemsLeft renders the list footer, e.g. "1 item left" or "3 items left"
func ItemsLeft(n int) string {
	if n == 1 {
		return "1 item left"
	}
	return strconv.Itoa(n) + " items left"
}
