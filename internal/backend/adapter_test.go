package backend

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/promodesk/campaignd/internal/models"
)

// fakeClock drives the adapter's time hooks. Sleeping advances it.
type fakeClock struct {
	t     time.Time
	slept []time.Duration
}

func (c *fakeClock) now() time.Time { return c.t }

func (c *fakeClock) sleep(d time.Duration) {
	c.slept = append(c.slept, d)
	c.t = c.t.Add(d)
}

// flakyBackend fails the first failures calls, recording call start times.
type flakyBackend struct {
	clock    *fakeClock
	failures int
	err      error
	starts   []time.Time
}

func (f *flakyBackend) Name() string { return "flaky" }

func (f *flakyBackend) CreateBoard(ctx context.Context, name, description string) (*BoardRef, error) {
	f.starts = append(f.starts, f.clock.t)
	if len(f.starts) <= f.failures {
		return nil, f.err
	}
	return &BoardRef{ID: "board-1"}, nil
}

func (f *flakyBackend) CreateGroup(ctx context.Context, boardID, title, color string) (string, error) {
	f.starts = append(f.starts, f.clock.t)
	if len(f.starts) <= f.failures {
		return "", f.err
	}
	return "group-1", nil
}

func (f *flakyBackend) CreateTask(ctx context.Context, boardID, groupID string, spec TaskSpec) (string, error) {
	return "task-1", nil
}

func (f *flakyBackend) UpdateTaskFields(ctx context.Context, boardID, taskID string, fields map[string]string) error {
	return nil
}

func (f *flakyBackend) TaskStatus(ctx context.Context, boardID, taskID string) (models.TaskStatus, error) {
	return models.TaskStatusNotStarted, nil
}

func newTestAdapter(inner ProjectBackend, clock *fakeClock, rateInterval time.Duration, policy Policy) *Adapter {
	a := NewAdapter(inner, rateInterval, policy, zap.NewNop())
	a.now = clock.now
	a.sleep = clock.sleep
	return a
}

func TestAdapterRetriesTransientFailures(t *testing.T) {
	clock := &fakeClock{t: time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)}
	inner := &flakyBackend{clock: clock, failures: 2, err: errors.New("connection reset")}
	a := newTestAdapter(inner, clock, time.Second, Policy{
		MaxAttempts: 4,
		BaseDelay:   100 * time.Millisecond,
		Multiplier:  2.0,
	})

	ref, err := a.CreateBoard(context.Background(), "Board", "")
	require.NoError(t, err)
	assert.Equal(t, "board-1", ref.ID)
	require.Len(t, inner.starts, 3)
}

func TestAdapterRateGateSpacesCallStarts(t *testing.T) {
	base := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)
	clock := &fakeClock{t: base}
	inner := &flakyBackend{clock: clock}
	a := newTestAdapter(inner, clock, time.Second, Policy{MaxAttempts: 1, Multiplier: 1})

	ctx := context.Background()
	_, err := a.CreateBoard(ctx, "Board", "")
	require.NoError(t, err)
	_, err = a.CreateGroup(ctx, "board-1", "Group", "blue")
	require.NoError(t, err)
	_, err = a.CreateGroup(ctx, "board-1", "Group", "blue")
	require.NoError(t, err)

	require.Len(t, inner.starts, 3)
	assert.Equal(t, base, inner.starts[0], "first call passes immediately")
	assert.Equal(t, base.Add(time.Second), inner.starts[1])
	assert.Equal(t, base.Add(2*time.Second), inner.starts[2])
}

// countingBackend tallies calls under its own lock so goroutines can
// hit the adapter concurrently.
type countingBackend struct {
	mu    sync.Mutex
	calls int
}

func (b *countingBackend) count() {
	b.mu.Lock()
	b.calls++
	b.mu.Unlock()
}

func (b *countingBackend) total() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.calls
}

func (b *countingBackend) Name() string { return "counting" }

func (b *countingBackend) CreateBoard(ctx context.Context, name, description string) (*BoardRef, error) {
	b.count()
	return &BoardRef{ID: "board-1"}, nil
}

func (b *countingBackend) CreateGroup(ctx context.Context, boardID, title, color string) (string, error) {
	b.count()
	return "group-1", nil
}

func (b *countingBackend) CreateTask(ctx context.Context, boardID, groupID string, spec TaskSpec) (string, error) {
	b.count()
	return "task-1", nil
}

func (b *countingBackend) UpdateTaskFields(ctx context.Context, boardID, taskID string, fields map[string]string) error {
	b.count()
	return nil
}

func (b *countingBackend) TaskStatus(ctx context.Context, boardID, taskID string) (models.TaskStatus, error) {
	b.count()
	return models.TaskStatusNotStarted, nil
}

func TestAdapterRateGateConcurrentCallers(t *testing.T) {
	base := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)
	clock := &fakeClock{t: base}
	inner := &countingBackend{}
	a := newTestAdapter(inner, clock, time.Second, Policy{MaxAttempts: 1, Multiplier: 1})

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := a.CreateGroup(context.Background(), "board-1", "Group", "blue")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	require.Equal(t, 5, inner.total())

	// The gate sleeps while holding its lock, so each caller after the
	// first waits out one full interval before its call starts.
	require.Len(t, clock.slept, 4)
	for _, d := range clock.slept {
		assert.Equal(t, time.Second, d)
	}
	assert.Equal(t, base.Add(4*time.Second), clock.t, "five call starts span four intervals")
}

func TestAdapterBadRequestFailsFast(t *testing.T) {
	clock := &fakeClock{t: time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)}
	inner := &flakyBackend{clock: clock, failures: 10, err: ErrBadRequest}
	a := newTestAdapter(inner, clock, time.Second, Policy{MaxAttempts: 4, BaseDelay: 100 * time.Millisecond, Multiplier: 2})

	_, err := a.CreateBoard(context.Background(), "Board", "")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrBadRequest)
	assert.Len(t, inner.starts, 1, "no retry on bad request")
}

func TestAdapterExhaustedBudgetWrapsUnavailable(t *testing.T) {
	clock := &fakeClock{t: time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)}
	inner := &flakyBackend{clock: clock, failures: 10, err: errors.New("connection reset")}
	a := newTestAdapter(inner, clock, time.Second, Policy{MaxAttempts: 3, BaseDelay: 100 * time.Millisecond, Multiplier: 2})

	_, err := a.CreateBoard(context.Background(), "Board", "")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrBackendUnavailable)
	assert.Contains(t, err.Error(), "after 3 attempts")
	assert.Len(t, inner.starts, 3)
}

func TestAdapterContextCancelled(t *testing.T) {
	clock := &fakeClock{t: time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)}
	inner := &flakyBackend{clock: clock}
	a := newTestAdapter(inner, clock, time.Second, Policy{MaxAttempts: 3, BaseDelay: 100 * time.Millisecond, Multiplier: 2})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := a.CreateBoard(ctx, "Board", "")
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, inner.starts)
}
