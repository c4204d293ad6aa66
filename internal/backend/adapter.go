package backend

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/promodesk/campaignd/internal/models"
)

// Policy bounds retries for transient backend failures.
type Policy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	Multiplier  float64
	Jitter      bool
}

// DefaultPolicy matches the daemon's default backend configuration.
func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts: 4,
		BaseDelay:   500 * time.Millisecond,
		Multiplier:  2.0,
		Jitter:      true,
	}
}

// Adapter wraps a ProjectBackend with one global rate gate and a bounded
// exponential backoff. All campaignd backend traffic flows through a
// single Adapter, so the gate serializes call starts across goroutines.
type Adapter struct {
	inner        ProjectBackend
	policy       Policy
	rateInterval time.Duration
	logger       *zap.Logger

	mu   sync.Mutex
	last time.Time

	// Test hooks
	now   func() time.Time
	sleep func(time.Duration)
}

// NewAdapter wraps inner with rate limiting and retry.
func NewAdapter(inner ProjectBackend, rateInterval time.Duration, policy Policy, logger *zap.Logger) *Adapter {
	if policy.MaxAttempts < 1 {
		policy.MaxAttempts = 1
	}
	if policy.Multiplier < 1 {
		policy.Multiplier = 1
	}
	return &Adapter{
		inner:        inner,
		policy:       policy,
		rateInterval: rateInterval,
		logger:       logger,
		now:          time.Now,
		sleep:        time.Sleep,
	}
}

func (a *Adapter) Name() string { return a.inner.Name() }

// gate blocks until at least rateInterval has passed since the previous
// call start. Sleeping under the lock keeps concurrent callers spaced.
func (a *Adapter) gate() {
	a.mu.Lock()
	defer a.mu.Unlock()

	now := a.now()
	if !a.last.IsZero() {
		if wait := a.rateInterval - now.Sub(a.last); wait > 0 {
			a.sleep(wait)
			now = now.Add(wait)
		}
	}
	a.last = now
}

// do runs fn through the gate with bounded backoff. ErrBadRequest-class
// failures return immediately; an exhausted budget wraps
// ErrBackendUnavailable around the last failure.
func (a *Adapter) do(ctx context.Context, op string, fn func() error) error {
	delay := a.policy.BaseDelay
	var lastErr error

	for attempt := 1; attempt <= a.policy.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		a.gate()

		lastErr = fn()
		if lastErr == nil {
			return nil
		}
		if errors.Is(lastErr, ErrBadRequest) {
			return lastErr
		}

		if attempt < a.policy.MaxAttempts {
			wait := delay
			if a.policy.Jitter {
				wait += time.Duration(rand.Int63n(int64(delay)/2 + 1))
			}
			a.logger.Warn("backend call failed, retrying",
				zap.String("op", op),
				zap.Int("attempt", attempt),
				zap.Duration("wait", wait),
				zap.Error(lastErr))
			a.sleep(wait)
			delay = time.Duration(float64(delay) * a.policy.Multiplier)
		}
	}

	return fmt.Errorf("%s after %d attempts: %w: %v", op, a.policy.MaxAttempts, ErrBackendUnavailable, lastErr)
}

func (a *Adapter) CreateBoard(ctx context.Context, name, description string) (*BoardRef, error) {
	var ref *BoardRef
	err := a.do(ctx, "create board", func() error {
		var err error
		ref, err = a.inner.CreateBoard(ctx, name, description)
		return err
	})
	return ref, err
}

func (a *Adapter) CreateGroup(ctx context.Context, boardID, title, color string) (string, error) {
	var id string
	err := a.do(ctx, "create group", func() error {
		var err error
		id, err = a.inner.CreateGroup(ctx, boardID, title, color)
		return err
	})
	return id, err
}

func (a *Adapter) CreateTask(ctx context.Context, boardID, groupID string, spec TaskSpec) (string, error) {
	var id string
	err := a.do(ctx, "create task", func() error {
		var err error
		id, err = a.inner.CreateTask(ctx, boardID, groupID, spec)
		return err
	})
	return id, err
}

func (a *Adapter) UpdateTaskFields(ctx context.Context, boardID, taskID string, fields map[string]string) error {
	return a.do(ctx, "update task", func() error {
		return a.inner.UpdateTaskFields(ctx, boardID, taskID, fields)
	})
}

func (a *Adapter) TaskStatus(ctx context.Context, boardID, taskID string) (models.TaskStatus, error) {
	var status models.TaskStatus
	err := a.do(ctx, "task status", func() error {
		var err error
		status, err = a.inner.TaskStatus(ctx, boardID, taskID)
		return err
	})
	return status, err
}
