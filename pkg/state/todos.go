package state

import (
	"fmt"
	"sync"
)

// Status is the lifecycle state of a todo record.
type Status string

const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
)

// Valid reports whether s is one of the three known statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusInProgress, StatusCompleted:
		return true
	default:
		return false
	}
}

// Todo is one unit of tracked work.
type Todo struct {
	Content string `json:"content"`
	Status  Status `json:"status"`
	ID      string `json:"id"`
}

// TodoList holds todos in insertion order. Writes replace the whole list
// atomically; there is no partial merge. Keeping at most one todo
// in_progress at a time is a convention communicated to the model through
// instructions, not a constraint this layer enforces.
type TodoList struct {
	mu    sync.RWMutex
	todos []Todo
}

// NewTodoList returns an empty list.
func NewTodoList() *TodoList {
	return &TodoList{}
}

// WriteAll atomically replaces the entire list and echoes the new contents.
func (l *TodoList) WriteAll(todos []Todo) string {
	dup := cloneTodos(todos)
	l.mu.Lock()
	l.todos = dup
	l.mu.Unlock()
	return fmt.Sprintf("Updated todo list to %v", dup)
}

// Get returns a copy of the list in insertion order.
func (l *TodoList) Get() []Todo {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return cloneTodos(l.todos)
}

// Add appends a single todo.
func (l *TodoList) Add(content, id string, status Status) string {
	l.mu.Lock()
	l.todos = append(l.todos, Todo{Content: content, Status: status, ID: id})
	l.mu.Unlock()
	return fmt.Sprintf("Added todo: %s", content)
}

// UpdateStatus sets the status of the todo with the given id.
func (l *TodoList) UpdateStatus(id string, status Status) string {
	l.mu.Lock()
	defer l.mu.Unlock()
	for i := range l.todos {
		if l.todos[i].ID == id {
			l.todos[i].Status = status
			return fmt.Sprintf("Updated todo %s status to %s", id, status)
		}
	}
	return fmt.Sprintf("Error: Todo with ID %s not found", id)
}

// Clear removes every todo.
func (l *TodoList) Clear() string {
	l.mu.Lock()
	l.todos = nil
	l.mu.Unlock()
	return "Cleared all todos"
}

// Len reports how many todos are tracked.
func (l *TodoList) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.todos)
}

func cloneTodos(todos []Todo) []Todo {
	if len(todos) == 0 {
		return nil
	}
	dup := make([]Todo, len(todos))
	copy(dup, todos)
	return dup
}
