// Package simbackend provides an in-process ProjectBackend with
// deterministic IDs, used for local daemon runs and tests.
package simbackend

import (
	"context"
	"fmt"
	"sync"

	"github.com/promodesk/campaignd/internal/backend"
	"github.com/promodesk/campaignd/internal/models"
)

type board struct {
	id     string
	name   string
	groups []string
}

type task struct {
	id      string
	boardID string
	groupID string
	spec    backend.TaskSpec
	fields  map[string]string
	status  models.TaskStatus
}

// Backend simulates a project management provider in memory.
type Backend struct {
	mu     sync.Mutex
	boards map[string]*board
	tasks  map[string]*task

	boardSeq int
	groupSeq int
	taskSeq  int

	// Failure injection, keyed by op: "board", "group", "task",
	// "update", "status".
	transient  map[string]int
	badRequest map[string]bool

	calls []string
}

// New creates an empty simulated backend.
func New() *Backend {
	return &Backend{
		boards:     make(map[string]*board),
		tasks:      make(map[string]*task),
		transient:  make(map[string]int),
		badRequest: make(map[string]bool),
	}
}

func (s *Backend) Name() string { return "sim" }

// InjectTransient makes the next n calls of op fail with a retryable
// error.
func (s *Backend) InjectTransient(op string, n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.transient[op] = n
}

// InjectBadRequest makes every call of op fail with ErrBadRequest until
// cleared.
func (s *Backend) InjectBadRequest(op string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.badRequest[op] = true
}

// ClearBadRequest removes a bad request injection.
func (s *Backend) ClearBadRequest(op string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.badRequest, op)
}

// Calls returns the op log in call order.
func (s *Backend) Calls() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.calls...)
}

// fail must be called with the lock held.
func (s *Backend) fail(op string) error {
	s.calls = append(s.calls, op)
	if s.badRequest[op] {
		return fmt.Errorf("%s: %w", op, backend.ErrBadRequest)
	}
	if s.transient[op] > 0 {
		s.transient[op]--
		return fmt.Errorf("%s: simulated transient failure", op)
	}
	return nil
}

func (s *Backend) CreateBoard(ctx context.Context, name, description string) (*backend.BoardRef, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.fail("board"); err != nil {
		return nil, err
	}

	s.boardSeq++
	id := fmt.Sprintf("board-%d", s.boardSeq)
	s.boards[id] = &board{id: id, name: name}
	return &backend.BoardRef{
		ID:  id,
		URL: fmt.Sprintf("https://sim.local/boards/%s", id),
	}, nil
}

func (s *Backend) CreateGroup(ctx context.Context, boardID, title, color string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.fail("group"); err != nil {
		return "", err
	}

	b, ok := s.boards[boardID]
	if !ok {
		return "", fmt.Errorf("board %s: %w", boardID, backend.ErrBadRequest)
	}
	s.groupSeq++
	id := fmt.Sprintf("group-%d", s.groupSeq)
	b.groups = append(b.groups, id)
	return id, nil
}

func (s *Backend) CreateTask(ctx context.Context, boardID, groupID string, spec backend.TaskSpec) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.fail("task"); err != nil {
		return "", err
	}

	if _, ok := s.boards[boardID]; !ok {
		return "", fmt.Errorf("board %s: %w", boardID, backend.ErrBadRequest)
	}
	s.taskSeq++
	id := fmt.Sprintf("task-%d", s.taskSeq)
	s.tasks[id] = &task{
		id:      id,
		boardID: boardID,
		groupID: groupID,
		spec:    spec,
		fields:  make(map[string]string),
		status:  spec.Status,
	}
	return id, nil
}

func (s *Backend) UpdateTaskFields(ctx context.Context, boardID, taskID string, fields map[string]string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.fail("update"); err != nil {
		return err
	}

	t, ok := s.tasks[taskID]
	if !ok {
		return fmt.Errorf("task %s: %w", taskID, backend.ErrBadRequest)
	}
	for k, v := range fields {
		t.fields[k] = v
	}
	return nil
}

func (s *Backend) TaskStatus(ctx context.Context, boardID, taskID string) (models.TaskStatus, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.fail("status"); err != nil {
		return "", err
	}

	t, ok := s.tasks[taskID]
	if !ok {
		return "", fmt.Errorf("task %s: %w", taskID, backend.ErrBadRequest)
	}
	return t.status, nil
}

// SetTaskStatus simulates an operator moving a task on the provider UI.
func (s *Backend) SetTaskStatus(taskID string, status models.TaskStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tasks[taskID]
	if !ok {
		return fmt.Errorf("task %s not found", taskID)
	}
	t.status = status
	return nil
}

// TaskCount returns how many tasks exist on the backend.
func (s *Backend) TaskCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.tasks)
}

// BoardCount returns how many boards exist on the backend.
func (s *Backend) BoardCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.boards)
}
