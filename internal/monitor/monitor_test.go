package monitor

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/promodesk/campaignd/internal/backend/simbackend"
	"github.com/promodesk/campaignd/internal/events"
	"github.com/promodesk/campaignd/internal/generate"
	"github.com/promodesk/campaignd/internal/models"
	"github.com/promodesk/campaignd/internal/store"
	"github.com/promodesk/campaignd/internal/templates"
)

var (
	monNow     = time.Date(2026, 9, 2, 12, 0, 0, 0, time.UTC)
	monRelease = time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)
)

func miniTemplate() *templates.BoardTemplate {
	return &templates.BoardTemplate{
		Key:       "mini",
		BoardName: "{artistName} - {trackTitle}",
		Groups: []templates.GroupTemplate{
			{
				Title: "All Tasks",
				Color: "blue",
				Tasks: []templates.TaskTemplate{
					{Name: "Kickoff", Type: templates.TypeMilestone, Priority: models.PriorityCritical, OffsetDays: -7},
					{Name: "Outreach", Type: templates.TypeTask, Priority: models.PriorityHigh, OffsetDays: -3, DependsOn: []string{"Kickoff"}},
					{Name: "Weekly Review", Type: templates.TypeRecurring, Priority: models.PriorityMedium, OffsetDays: -2, Frequency: models.FrequencyWeekly},
					{Name: "Wrap", Type: templates.TypeTask, Priority: models.PriorityMedium, OffsetDays: 30},
				},
			},
		},
	}
}

type fixture struct {
	store      *store.Store
	sim        *simbackend.Backend
	loop       *Loop
	bus        *events.Bus
	campaignID string
	tasks      map[string]models.Task
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	st, err := store.New(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	sim := simbackend.New()
	logger := zap.NewNop()

	b := &models.CampaignBrief{
		ID:           "brief-1",
		ArtistName:   "The Midnight Owls",
		SongTitle:    "Neon Skyline",
		Genre:        "electronic",
		ReleaseDate:  monRelease,
		CampaignType: models.CampaignTypeStandard,
		CreatedAt:    monNow.AddDate(0, 0, -10),
	}
	require.NoError(t, st.SaveBrief(b))

	g := generate.New(sim, logger)
	result, err := g.Generate(context.Background(), b, miniTemplate(), "camp-1")
	require.NoError(t, err)

	c := &models.Campaign{
		ID:        "camp-1",
		BriefID:   b.ID,
		BoardID:   result.Board.ID,
		Template:  "mini",
		Status:    models.CampaignStatusActive,
		Metrics:   models.Metrics{TotalTasks: len(result.Tasks), MilestonesTotal: 1},
		CreatedAt: monNow.AddDate(0, 0, -10),
		UpdatedAt: monNow.AddDate(0, 0, -10),
	}
	require.NoError(t, st.RegisterCampaign(c, &result.Board, result.Groups, result.Tasks))

	bus := events.NewBus()
	loop := New(st, sim, bus, time.Minute, 2, logger)
	loop.now = func() time.Time { return monNow }

	tasks := make(map[string]models.Task, len(result.Tasks))
	for _, task := range result.Tasks {
		tasks[task.Name] = task
	}

	return &fixture{store: st, sim: sim, loop: loop, bus: bus, campaignID: "camp-1", tasks: tasks}
}

func (f *fixture) notificationsOfType(t *testing.T, typ models.NotificationType) []models.Notification {
	t.Helper()
	all, err := f.store.ListNotifications(f.campaignID)
	require.NoError(t, err)

	var matched []models.Notification
	for _, n := range all {
		if n.Type == typ {
			matched = append(matched, n)
		}
	}
	return matched
}

func (f *fixture) storedTask(t *testing.T, name string) *models.Task {
	t.Helper()
	task, err := f.store.GetTask(f.tasks[name].ID)
	require.NoError(t, err)
	require.NotNil(t, task)
	return task
}

func TestRunPassFlagsOverdueOnce(t *testing.T) {
	f := newFixture(t)

	require.NoError(t, f.loop.RunPass(context.Background()))

	overdue := f.notificationsOfType(t, models.NotificationOverdue)
	require.Len(t, overdue, 1)
	assert.Contains(t, overdue[0].Message, "3 task(s) overdue")
	assert.Contains(t, overdue[0].Message, "Kickoff")

	assert.True(t, f.storedTask(t, "Kickoff").OverdueFlagged)
	assert.True(t, f.storedTask(t, "Outreach").OverdueFlagged)
	assert.False(t, f.storedTask(t, "Wrap").OverdueFlagged)

	// A second pass over the same state stays quiet.
	require.NoError(t, f.loop.RunPass(context.Background()))
	assert.Len(t, f.notificationsOfType(t, models.NotificationOverdue), 1)
}

func TestRunPassRefreshesStatuses(t *testing.T) {
	f := newFixture(t)

	require.NoError(t, f.sim.SetTaskStatus(f.tasks["Kickoff"].BackendID, models.TaskStatusInProgress))
	require.NoError(t, f.loop.RunPass(context.Background()))
	assert.Equal(t, models.TaskStatusInProgress, f.storedTask(t, "Kickoff").Status)

	require.NoError(t, f.sim.SetTaskStatus(f.tasks["Kickoff"].BackendID, models.TaskStatusCompleted))
	require.NoError(t, f.loop.RunPass(context.Background()))
	assert.Equal(t, models.TaskStatusCompleted, f.storedTask(t, "Kickoff").Status)

	reached := f.notificationsOfType(t, models.NotificationMilestoneReached)
	require.Len(t, reached, 1)
	assert.Contains(t, reached[0].Message, "Kickoff")

	// 1 of 4 done crosses the 25% threshold.
	progress := f.notificationsOfType(t, models.NotificationProgressMilestone)
	require.Len(t, progress, 1)
	assert.Contains(t, progress[0].Message, "25%")

	c, err := f.store.GetCampaign(f.campaignID)
	require.NoError(t, err)
	assert.Equal(t, 25, c.LastProgressMilestone)
	assert.Equal(t, 1, c.Metrics.CompletedTasks)
	assert.Equal(t, 1, c.Metrics.MilestonesTotal)
	assert.Equal(t, 1, c.Metrics.MilestonesReached, "completed Kickoff is the only milestone")
}

func TestRunPassRejectsInvalidTransition(t *testing.T) {
	f := newFixture(t)

	// not_started cannot jump straight to completed.
	require.NoError(t, f.sim.SetTaskStatus(f.tasks["Outreach"].BackendID, models.TaskStatusCompleted))
	require.NoError(t, f.loop.RunPass(context.Background()))

	assert.Equal(t, models.TaskStatusNotStarted, f.storedTask(t, "Outreach").Status)
	assert.Empty(t, f.notificationsOfType(t, models.NotificationMilestoneReached))
}

func TestRunPassAdvancesRecurring(t *testing.T) {
	f := newFixture(t)

	require.NoError(t, f.loop.RunPass(context.Background()))

	weekly := f.storedTask(t, "Weekly Review")
	require.NotNil(t, weekly.NextDueDate)
	want := time.Date(2026, 9, 6, 0, 0, 0, 0, time.UTC)
	assert.True(t, weekly.NextDueDate.Equal(want), "got %v", weekly.NextDueDate)
}

func TestRunPassCompletesCampaign(t *testing.T) {
	f := newFixture(t)

	var milestoneEvents, progressEvents int
	f.bus.Subscribe(events.MilestoneReached, func(events.Event) { milestoneEvents++ })
	f.bus.Subscribe(events.ProgressMilestone, func(events.Event) { progressEvents++ })

	for name := range f.tasks {
		require.NoError(t, f.sim.SetTaskStatus(f.tasks[name].BackendID, models.TaskStatusInProgress))
	}
	require.NoError(t, f.loop.RunPass(context.Background()))

	for name := range f.tasks {
		require.NoError(t, f.sim.SetTaskStatus(f.tasks[name].BackendID, models.TaskStatusCompleted))
	}
	require.NoError(t, f.loop.RunPass(context.Background()))

	c, err := f.store.GetCampaign(f.campaignID)
	require.NoError(t, err)
	assert.Equal(t, models.CampaignStatusCompleted, c.Status)
	assert.Equal(t, float64(100), c.Metrics.ProgressPct)
	assert.Equal(t, 100, c.LastProgressMilestone)
	assert.Equal(t, 1, c.Metrics.MilestonesReached)

	progress := f.notificationsOfType(t, models.NotificationProgressMilestone)
	assert.Len(t, progress, 4, "25, 50, 75 and 100 each fire once")
	assert.Equal(t, 4, progressEvents)
	assert.Equal(t, 1, milestoneEvents)

	// Completed campaigns drop out of the active set.
	require.NoError(t, f.loop.RunPass(context.Background()))
	assert.Len(t, f.notificationsOfType(t, models.NotificationProgressMilestone), 4)
}
