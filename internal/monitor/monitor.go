// Package monitor runs the periodic campaign monitoring loop.
package monitor

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/promodesk/campaignd/internal/backend"
	"github.com/promodesk/campaignd/internal/events"
	"github.com/promodesk/campaignd/internal/models"
	"github.com/promodesk/campaignd/internal/store"
)

// progressThresholds are fired in ascending order, each at most once per
// campaign.
var progressThresholds = []int{25, 50, 75, 100}

// Loop periodically inspects active campaigns: refreshes task statuses
// from the backend, flags overdue work, recomputes progress and fires
// threshold events.
type Loop struct {
	store    *store.Store
	backend  backend.ProjectBackend
	bus      *events.Bus
	logger   *zap.Logger
	interval time.Duration
	limit    int

	// Control
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	// Test hook
	now func() time.Time
}

// New creates a monitoring loop. limit bounds how many campaigns one
// pass inspects concurrently.
func New(s *store.Store, pb backend.ProjectBackend, bus *events.Bus, interval time.Duration, limit int, logger *zap.Logger) *Loop {
	if limit < 1 {
		limit = 1
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Loop{
		store:    s,
		backend:  pb,
		bus:      bus,
		logger:   logger,
		interval: interval,
		limit:    limit,
		ctx:      ctx,
		cancel:   cancel,
		now:      time.Now,
	}
}

// Start begins the monitoring loop.
func (l *Loop) Start() {
	l.wg.Add(1)
	go l.run()
	l.logger.Info("monitor started", zap.Duration("interval", l.interval))
}

// Stop gracefully stops the monitoring loop.
func (l *Loop) Stop() {
	l.cancel()
	l.wg.Wait()
	l.logger.Info("monitor stopped")
}

func (l *Loop) run() {
	defer l.wg.Done()

	ticker := time.NewTicker(l.interval)
	defer ticker.Stop()

	for {
		select {
		case <-l.ctx.Done():
			return
		case <-ticker.C:
			if err := l.RunPass(l.ctx); err != nil {
				l.logger.Error("monitoring pass failed", zap.Error(err))
			}
		}
	}
}

// RunPass inspects every active campaign once. Campaign failures are
// isolated: they are logged and skipped, never halting the pass.
func (l *Loop) RunPass(ctx context.Context) error {
	campaigns, err := l.store.ListCampaigns(models.CampaignStatusActive)
	if err != nil {
		return fmt.Errorf("listing active campaigns: %w", err)
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(l.limit)

	for i := range campaigns {
		c := campaigns[i]
		g.Go(func() error {
			if err := l.monitorCampaign(ctx, &c); err != nil {
				l.logger.Error("campaign monitoring failed",
					zap.String("campaign_id", c.ID),
					zap.Error(err))
			}
			return nil
		})
	}

	return g.Wait()
}

func (l *Loop) monitorCampaign(ctx context.Context, c *models.Campaign) error {
	now := l.now().UTC()

	tasks, err := l.store.ListTasks(c.ID)
	if err != nil {
		return fmt.Errorf("listing tasks: %w", err)
	}

	board, err := l.store.GetBoard(c.ID)
	if err != nil {
		return fmt.Errorf("loading board: %w", err)
	}
	if board == nil {
		return fmt.Errorf("campaign %s has no board", c.ID)
	}

	if err := l.refreshStatuses(ctx, c, board, tasks); err != nil {
		return err
	}
	l.flagOverdue(c, tasks, now)
	l.advanceRecurring(tasks, now)

	return l.updateProgress(c, tasks, now)
}

// refreshStatuses pulls each open task's status from the backend and
// applies it when the workflow allows the transition.
func (l *Loop) refreshStatuses(ctx context.Context, c *models.Campaign, board *models.Board, tasks []models.Task) error {
	for i := range tasks {
		t := &tasks[i]
		if t.Terminal() {
			continue
		}

		status, err := l.backend.TaskStatus(ctx, board.BackendID, t.BackendID)
		if err != nil {
			return fmt.Errorf("refreshing task %s: %w", t.Name, err)
		}
		if status == t.Status {
			continue
		}
		if !models.CanTransition(t.Status, status) {
			l.logger.Warn("backend reported invalid status transition",
				zap.String("task", t.Name),
				zap.String("from", string(t.Status)),
				zap.String("to", string(status)))
			continue
		}

		if err := l.store.UpdateTaskStatus(t.ID, status); err != nil {
			return fmt.Errorf("updating task %s: %w", t.Name, err)
		}
		t.Status = status

		if status == models.TaskStatusCompleted && t.Milestone {
			msg := fmt.Sprintf("Milestone reached: %s", t.Name)
			if _, err := l.store.AddNotification(c.ID, models.NotificationMilestoneReached, msg); err != nil {
				return fmt.Errorf("recording milestone notification: %w", err)
			}
			if err := l.store.AppendEvent(c.ID, string(events.MilestoneReached), t.Name); err != nil {
				return fmt.Errorf("recording milestone event: %w", err)
			}
			l.bus.Publish(events.Event{Type: events.MilestoneReached, CampaignID: c.ID, Detail: t.Name})
		}
	}
	return nil
}

// flagOverdue notifies once per overdue crossing. Tasks keep their flag
// after the first notification, so repeated passes stay quiet.
func (l *Loop) flagOverdue(c *models.Campaign, tasks []models.Task, now time.Time) {
	var newlyOverdue []string
	for i := range tasks {
		t := &tasks[i]
		if !t.Overdue(now) || t.OverdueFlagged {
			continue
		}
		if err := l.store.SetTaskOverdueFlagged(t.ID, true); err != nil {
			l.logger.Error("flagging overdue task failed", zap.String("task", t.Name), zap.Error(err))
			continue
		}
		t.OverdueFlagged = true
		newlyOverdue = append(newlyOverdue, t.Name)
	}

	if len(newlyOverdue) == 0 {
		return
	}

	msg := fmt.Sprintf("%d task(s) overdue: %s", len(newlyOverdue), strings.Join(newlyOverdue, ", "))
	if _, err := l.store.AddNotification(c.ID, models.NotificationOverdue, msg); err != nil {
		l.logger.Error("recording overdue notification failed", zap.Error(err))
	}
	if err := l.store.AppendEvent(c.ID, string(events.TasksOverdue), msg); err != nil {
		l.logger.Error("recording overdue event failed", zap.Error(err))
	}
	l.bus.Publish(events.Event{Type: events.TasksOverdue, CampaignID: c.ID, Detail: msg})

	l.logger.Warn("overdue tasks detected",
		zap.String("campaign_id", c.ID),
		zap.Strings("tasks", newlyOverdue))
}

// advanceRecurring moves recurring tasks' next due date forward once
// the current one has passed.
func (l *Loop) advanceRecurring(tasks []models.Task, now time.Time) {
	for i := range tasks {
		t := &tasks[i]
		if t.Frequency == "" || t.NextDueDate == nil || t.Terminal() {
			continue
		}
		if !now.After(*t.NextDueDate) {
			continue
		}

		next := t.Frequency.Advance(*t.NextDueDate)
		for !next.After(now) {
			next = t.Frequency.Advance(next)
		}
		if err := l.store.AdvanceRecurringTask(t.ID, next); err != nil {
			l.logger.Error("advancing recurring task failed", zap.String("task", t.Name), zap.Error(err))
			continue
		}
		t.NextDueDate = &next
	}
}

// updateProgress recomputes metrics, fires crossed progress thresholds
// in ascending order and completes the campaign at 100%.
func (l *Loop) updateProgress(c *models.Campaign, tasks []models.Task, now time.Time) error {
	metrics := computeMetrics(tasks, now)

	last := c.LastProgressMilestone
	for _, threshold := range progressThresholds {
		if threshold <= last {
			continue
		}
		if metrics.ProgressPct < float64(threshold) {
			break
		}
		msg := fmt.Sprintf("Campaign progress reached %d%%", threshold)
		if _, err := l.store.AddNotification(c.ID, models.NotificationProgressMilestone, msg); err != nil {
			return fmt.Errorf("recording progress notification: %w", err)
		}
		if err := l.store.AppendEvent(c.ID, string(events.ProgressMilestone), msg); err != nil {
			return fmt.Errorf("recording progress event: %w", err)
		}
		l.bus.Publish(events.Event{
			Type:       events.ProgressMilestone,
			CampaignID: c.ID,
			Detail:     fmt.Sprintf("%d", threshold),
		})
		last = threshold
	}

	if err := l.store.UpdateCampaignMetrics(c.ID, metrics, last); err != nil {
		return fmt.Errorf("updating metrics: %w", err)
	}
	c.Metrics = metrics
	c.LastProgressMilestone = last

	if metrics.ProgressPct >= 100 && allTerminal(tasks) {
		if err := l.store.UpdateCampaignStatus(c.ID, models.CampaignStatusCompleted); err != nil {
			return fmt.Errorf("completing campaign: %w", err)
		}
		c.Status = models.CampaignStatusCompleted
		l.logger.Info("campaign completed", zap.String("campaign_id", c.ID))
	}

	return nil
}

func computeMetrics(tasks []models.Task, now time.Time) models.Metrics {
	m := models.Metrics{TotalTasks: len(tasks)}
	for i := range tasks {
		t := &tasks[i]
		if t.Status == models.TaskStatusCompleted {
			m.CompletedTasks++
		}
		if t.Overdue(now) {
			m.OverdueTasks++
		}
		if t.Milestone {
			m.MilestonesTotal++
			if t.Status == models.TaskStatusCompleted {
				m.MilestonesReached++
			}
		}
	}
	if m.TotalTasks > 0 {
		m.ProgressPct = float64(m.CompletedTasks) / float64(m.TotalTasks) * 100
	}
	return m
}

func allTerminal(tasks []models.Task) bool {
	for i := range tasks {
		if !tasks[i].Terminal() {
			return false
		}
	}
	return true
}
