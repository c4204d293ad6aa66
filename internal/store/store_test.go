package store

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/promodesk/campaignd/internal/models"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("creating store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func testBrief(id string) *models.CampaignBrief {
	return &models.CampaignBrief{
		ID:           id,
		ArtistName:   "The Midnight Owls",
		SongTitle:    "Neon Skyline",
		Genre:        "electronic",
		Budget:       2500,
		Priority:     models.PriorityHigh,
		CampaignType: models.CampaignTypeStandard,
		Validation:   models.ValidationResult{Valid: true, Score: 85, ReadyForNext: true},
		CreatedAt:    time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC),
	}
}

func testCampaignFixture(id, briefID string, now time.Time) (*models.Campaign, *models.Board, []models.Group, []models.Task) {
	c := &models.Campaign{
		ID:        id,
		BriefID:   briefID,
		BoardID:   "local-board-1",
		Template:  "complete-campaign",
		Status:    models.CampaignStatusActive,
		Metrics:   models.Metrics{TotalTasks: 2},
		Timeline: models.Timeline{
			CampaignStart: now.AddDate(0, 0, -7),
			CampaignEnd:   now.AddDate(0, 0, 25),
			DurationDays:  32,
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
	board := &models.Board{
		ID:        "local-board-1",
		BackendID: "board-1",
		Name:      "The Midnight Owls - Neon Skyline Radio Campaign",
		URL:       "https://sim.local/boards/board-1",
	}
	groups := []models.Group{
		{ID: "local-group-1", BackendID: "group-1", BoardID: board.ID, Title: "Pre-Launch Setup", Position: 0},
	}
	nextDue := now.AddDate(0, 0, 7)
	tasks := []models.Task{
		{
			ID: "local-task-1", BackendID: "task-1", CampaignID: id, GroupID: groups[0].ID,
			Name: "Campaign Brief Review", Description: "Review the brief",
			Status: models.TaskStatusNotStarted, Priority: models.PriorityCritical,
			DueDate: now.AddDate(0, 0, -7), Milestone: true,
			CreatedAt: now, UpdatedAt: now,
		},
		{
			ID: "local-task-2", BackendID: "task-2", CampaignID: id, GroupID: groups[0].ID,
			Name: "Weekly Performance Review",
			Status: models.TaskStatusNotStarted, Priority: models.PriorityMedium,
			DueDate: now.AddDate(0, 0, 7), DependsOn: []string{"local-task-1"},
			Frequency: models.FrequencyWeekly, NextDueDate: &nextDue,
			CreatedAt: now, UpdatedAt: now,
		},
	}
	return c, board, groups, tasks
}

func TestSaveAndGetBrief(t *testing.T) {
	s := newTestStore(t)
	b := testBrief("brief-1")

	if err := s.SaveBrief(b); err != nil {
		t.Fatalf("SaveBrief: %v", err)
	}

	got, err := s.GetBrief("brief-1")
	if err != nil {
		t.Fatalf("GetBrief: %v", err)
	}
	if got == nil {
		t.Fatal("expected brief, got nil")
	}
	if got.ArtistName != b.ArtistName || got.SongTitle != b.SongTitle {
		t.Errorf("brief roundtrip mismatch: got %s / %s", got.ArtistName, got.SongTitle)
	}
	if got.Validation.Score != 85 || !got.Validation.ReadyForNext {
		t.Errorf("validation not preserved: %+v", got.Validation)
	}
}

func TestGetBriefNotFound(t *testing.T) {
	s := newTestStore(t)

	got, err := s.GetBrief("missing")
	if err != nil {
		t.Fatalf("GetBrief: %v", err)
	}
	if got != nil {
		t.Errorf("expected nil for missing brief, got %+v", got)
	}
}

func TestListBriefs(t *testing.T) {
	s := newTestStore(t)

	b1 := testBrief("brief-1")
	b2 := testBrief("brief-2")
	b2.CreatedAt = b1.CreatedAt.Add(time.Hour)

	if err := s.SaveBrief(b1); err != nil {
		t.Fatalf("SaveBrief: %v", err)
	}
	if err := s.SaveBrief(b2); err != nil {
		t.Fatalf("SaveBrief: %v", err)
	}

	briefs, err := s.ListBriefs()
	if err != nil {
		t.Fatalf("ListBriefs: %v", err)
	}
	if len(briefs) != 2 {
		t.Fatalf("expected 2 briefs, got %d", len(briefs))
	}
	if briefs[0].ID != "brief-2" {
		t.Errorf("expected newest first, got %s", briefs[0].ID)
	}
}

func TestRegisterCampaignRoundtrip(t *testing.T) {
	s := newTestStore(t)
	now := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)

	b := testBrief("brief-1")
	if err := s.SaveBrief(b); err != nil {
		t.Fatalf("SaveBrief: %v", err)
	}

	c, board, groups, tasks := testCampaignFixture("camp-1", b.ID, now)
	if err := s.RegisterCampaign(c, board, groups, tasks); err != nil {
		t.Fatalf("RegisterCampaign: %v", err)
	}

	got, err := s.GetCampaign("camp-1")
	if err != nil {
		t.Fatalf("GetCampaign: %v", err)
	}
	if got == nil {
		t.Fatal("expected campaign, got nil")
	}
	if got.Template != "complete-campaign" || got.Status != models.CampaignStatusActive {
		t.Errorf("campaign mismatch: %+v", got)
	}
	if got.Metrics.TotalTasks != 2 {
		t.Errorf("metrics not preserved: %+v", got.Metrics)
	}

	gotBoard, err := s.GetBoard("camp-1")
	if err != nil {
		t.Fatalf("GetBoard: %v", err)
	}
	if gotBoard == nil || gotBoard.BackendID != "board-1" || gotBoard.URL == "" {
		t.Errorf("board mismatch: %+v", gotBoard)
	}

	gotGroups, err := s.ListGroups(board.ID)
	if err != nil {
		t.Fatalf("ListGroups: %v", err)
	}
	if len(gotGroups) != 1 || gotGroups[0].Title != "Pre-Launch Setup" {
		t.Errorf("groups mismatch: %+v", gotGroups)
	}

	gotTasks, err := s.ListTasks("camp-1")
	if err != nil {
		t.Fatalf("ListTasks: %v", err)
	}
	if len(gotTasks) != 2 {
		t.Fatalf("expected 2 tasks, got %d", len(gotTasks))
	}
	if gotTasks[0].ID != "local-task-1" {
		t.Errorf("expected creation order, got %s first", gotTasks[0].ID)
	}
	if !gotTasks[0].Milestone {
		t.Error("milestone flag not preserved")
	}

	recurring := gotTasks[1]
	if recurring.Frequency != models.FrequencyWeekly {
		t.Errorf("frequency not preserved: %q", recurring.Frequency)
	}
	if recurring.NextDueDate == nil {
		t.Fatal("next due date not preserved")
	}
	if len(recurring.DependsOn) != 1 || recurring.DependsOn[0] != "local-task-1" {
		t.Errorf("dependencies not preserved: %+v", recurring.DependsOn)
	}
}

func TestRegisterCampaignAtomic(t *testing.T) {
	s := newTestStore(t)
	now := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)

	b := testBrief("brief-1")
	if err := s.SaveBrief(b); err != nil {
		t.Fatalf("SaveBrief: %v", err)
	}

	c, board, groups, tasks := testCampaignFixture("camp-1", b.ID, now)
	if err := s.RegisterCampaign(c, board, groups, tasks); err != nil {
		t.Fatalf("RegisterCampaign: %v", err)
	}

	// Same campaign ID must conflict, and the failure must leave no
	// partial rows behind.
	c2, board2, groups2, tasks2 := testCampaignFixture("camp-1", b.ID, now)
	board2.ID = "local-board-2"
	if err := s.RegisterCampaign(c2, board2, groups2, tasks2); err == nil {
		t.Fatal("expected duplicate campaign to fail")
	}

	gotBoard, err := s.GetBoard("camp-1")
	if err != nil {
		t.Fatalf("GetBoard: %v", err)
	}
	if gotBoard.ID != "local-board-1" {
		t.Errorf("duplicate registration leaked board: %+v", gotBoard)
	}

	gotTasks, err := s.ListTasks("camp-1")
	if err != nil {
		t.Fatalf("ListTasks: %v", err)
	}
	if len(gotTasks) != 2 {
		t.Errorf("duplicate registration leaked tasks: %d", len(gotTasks))
	}
}

func TestListCampaignsStatusFilter(t *testing.T) {
	s := newTestStore(t)
	now := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)

	b := testBrief("brief-1")
	if err := s.SaveBrief(b); err != nil {
		t.Fatalf("SaveBrief: %v", err)
	}

	c1, board1, groups1, tasks1 := testCampaignFixture("camp-1", b.ID, now)
	if err := s.RegisterCampaign(c1, board1, groups1, tasks1); err != nil {
		t.Fatalf("RegisterCampaign: %v", err)
	}

	if err := s.UpdateCampaignStatus("camp-1", models.CampaignStatusCompleted); err != nil {
		t.Fatalf("UpdateCampaignStatus: %v", err)
	}

	active, err := s.ListCampaigns(models.CampaignStatusActive)
	if err != nil {
		t.Fatalf("ListCampaigns: %v", err)
	}
	if len(active) != 0 {
		t.Errorf("expected no active campaigns, got %d", len(active))
	}

	all, err := s.ListCampaigns("")
	if err != nil {
		t.Fatalf("ListCampaigns: %v", err)
	}
	if len(all) != 1 || all[0].Status != models.CampaignStatusCompleted {
		t.Errorf("unexpected campaigns: %+v", all)
	}
}

func TestTaskUpdates(t *testing.T) {
	s := newTestStore(t)
	now := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)

	b := testBrief("brief-1")
	if err := s.SaveBrief(b); err != nil {
		t.Fatalf("SaveBrief: %v", err)
	}
	c, board, groups, tasks := testCampaignFixture("camp-1", b.ID, now)
	if err := s.RegisterCampaign(c, board, groups, tasks); err != nil {
		t.Fatalf("RegisterCampaign: %v", err)
	}

	if err := s.UpdateTaskStatus("local-task-1", models.TaskStatusInProgress); err != nil {
		t.Fatalf("UpdateTaskStatus: %v", err)
	}
	if err := s.SetTaskOverdueFlagged("local-task-1", true); err != nil {
		t.Fatalf("SetTaskOverdueFlagged: %v", err)
	}

	got, err := s.GetTask("local-task-1")
	if err != nil {
		t.Fatalf("GetTask: %v", err)
	}
	if got.Status != models.TaskStatusInProgress {
		t.Errorf("status not updated: %s", got.Status)
	}
	if !got.OverdueFlagged {
		t.Error("overdue flag not updated")
	}

	next := now.AddDate(0, 0, 14)
	if err := s.AdvanceRecurringTask("local-task-2", next); err != nil {
		t.Fatalf("AdvanceRecurringTask: %v", err)
	}
	recurring, err := s.GetTask("local-task-2")
	if err != nil {
		t.Fatalf("GetTask: %v", err)
	}
	if recurring.NextDueDate == nil || !recurring.NextDueDate.Equal(next) {
		t.Errorf("next due date not advanced: %v", recurring.NextDueDate)
	}
}

func TestUpdateCampaignMetrics(t *testing.T) {
	s := newTestStore(t)
	now := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)

	b := testBrief("brief-1")
	if err := s.SaveBrief(b); err != nil {
		t.Fatalf("SaveBrief: %v", err)
	}
	c, board, groups, tasks := testCampaignFixture("camp-1", b.ID, now)
	if err := s.RegisterCampaign(c, board, groups, tasks); err != nil {
		t.Fatalf("RegisterCampaign: %v", err)
	}

	metrics := models.Metrics{TotalTasks: 2, CompletedTasks: 1, MilestonesTotal: 1, MilestonesReached: 1, ProgressPct: 50}
	if err := s.UpdateCampaignMetrics("camp-1", metrics, 50); err != nil {
		t.Fatalf("UpdateCampaignMetrics: %v", err)
	}

	got, err := s.GetCampaign("camp-1")
	if err != nil {
		t.Fatalf("GetCampaign: %v", err)
	}
	if got.Metrics.CompletedTasks != 1 || got.Metrics.ProgressPct != 50 {
		t.Errorf("metrics not updated: %+v", got.Metrics)
	}
	if got.Metrics.MilestonesTotal != 1 || got.Metrics.MilestonesReached != 1 {
		t.Errorf("milestone counters not preserved: %+v", got.Metrics)
	}
	if got.LastProgressMilestone != 50 {
		t.Errorf("last progress milestone not updated: %d", got.LastProgressMilestone)
	}
}

func TestNotifications(t *testing.T) {
	s := newTestStore(t)

	n, err := s.AddNotification("camp-1", models.NotificationOverdue, "2 task(s) overdue")
	if err != nil {
		t.Fatalf("AddNotification: %v", err)
	}
	if n.ID == "" {
		t.Error("notification ID not assigned")
	}
	if _, err := s.AddNotification("camp-1", models.NotificationProgressMilestone, "Campaign progress reached 25%"); err != nil {
		t.Fatalf("AddNotification: %v", err)
	}

	list, err := s.ListNotifications("camp-1")
	if err != nil {
		t.Fatalf("ListNotifications: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("expected 2 notifications, got %d", len(list))
	}

	other, err := s.ListNotifications("camp-2")
	if err != nil {
		t.Fatalf("ListNotifications: %v", err)
	}
	if len(other) != 0 {
		t.Errorf("expected no notifications for other campaign, got %d", len(other))
	}
}

func TestEventLog(t *testing.T) {
	s := newTestStore(t)

	if err := s.AppendEvent("camp-1", "campaign-created", "complete-campaign"); err != nil {
		t.Fatalf("AppendEvent: %v", err)
	}
	if err := s.AppendEvent("camp-1", "progress-milestone", "25"); err != nil {
		t.Fatalf("AppendEvent: %v", err)
	}

	records, err := s.ListEvents("camp-1")
	if err != nil {
		t.Fatalf("ListEvents: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 events, got %d", len(records))
	}
	for _, r := range records {
		if r.CampaignID != "camp-1" || r.Type == "" {
			t.Errorf("bad event record: %+v", r)
		}
	}
}
