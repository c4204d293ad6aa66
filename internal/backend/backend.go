// Package backend defines the project management backend boundary and
// the adapter that every campaignd component goes through to reach it.
package backend

import (
	"context"
	"errors"

	"github.com/promodesk/campaignd/internal/models"
)

// ErrBackendUnavailable indicates the retry budget for a backend call
// was exhausted.
var ErrBackendUnavailable = errors.New("backend unavailable")

// ErrBadRequest indicates the backend rejected the request itself.
// Never retried.
var ErrBadRequest = errors.New("backend rejected request")

// BoardRef identifies a created board on the backend.
type BoardRef struct {
	ID  string
	URL string
}

// TaskSpec carries everything the backend needs to create a task.
type TaskSpec struct {
	Name        string
	Description string
	Status      models.TaskStatus
	Priority    models.Priority
	DueDate     string
	Assignee    string
}

// ProjectBackend is the PM system boundary. Implementations talk to a
// real provider or simulate one in process.
type ProjectBackend interface {
	Name() string
	CreateBoard(ctx context.Context, name, description string) (*BoardRef, error)
	CreateGroup(ctx context.Context, boardID, title, color string) (string, error)
	CreateTask(ctx context.Context, boardID, groupID string, spec TaskSpec) (string, error)
	UpdateTaskFields(ctx context.Context, boardID, taskID string, fields map[string]string) error
	TaskStatus(ctx context.Context, boardID, taskID string) (models.TaskStatus, error)
}
