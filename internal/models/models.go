// Package models defines the core domain types for campaignd.
package models

import "time"

// CampaignType classifies how a campaign brief was pitched.
type CampaignType string

const (
	CampaignTypeStandard CampaignType = "standard"
	CampaignTypeRush     CampaignType = "rush"
	CampaignTypePremium  CampaignType = "premium"
)

// Priority is the urgency level attached to a brief and its tasks.
type Priority string

const (
	PriorityLow      Priority = "low"
	PriorityMedium   Priority = "medium"
	PriorityHigh     Priority = "high"
	PriorityCritical Priority = "critical"
)

// PriorityScore returns the numeric weight for a priority level.
// Unknown values score as medium.
func PriorityScore(p Priority) int {
	switch p {
	case PriorityCritical:
		return 100
	case PriorityHigh:
		return 80
	case PriorityLow:
		return 40
	default:
		return 60
	}
}

// PriorityColor returns the board display color for a priority level.
func PriorityColor(p Priority) string {
	switch p {
	case PriorityCritical:
		return "red"
	case PriorityHigh:
		return "orange"
	case PriorityLow:
		return "green"
	default:
		return "yellow"
	}
}

// ValidPriority reports whether p is one of the recognized levels.
func ValidPriority(p Priority) bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityCritical:
		return true
	}
	return false
}

// Extraction is the structured output of understanding a meeting transcript.
// Fields holds the raw extracted values keyed by canonical field name,
// Confidence the per-field confidence in [0,100].
type Extraction struct {
	Fields            map[string]string `json:"fields"`
	Confidence        map[string]int    `json:"confidence"`
	OverallConfidence int               `json:"overallConfidence"`
	Quotes            []string          `json:"quotes,omitempty"`
	SuggestedActions  []string          `json:"suggestedActions,omitempty"`
}

// ValidationResult holds the outcome of validating an extraction against
// the field requirements for its campaign type.
type ValidationResult struct {
	Valid           bool     `json:"valid"`
	Score           int      `json:"score"`
	MissingFields   []string `json:"missing_fields"`
	OptionalPresent []string `json:"optional_present"`
	Inconsistencies []string `json:"inconsistencies"`
	Recommendations []string `json:"recommendations"`
	ReadyForNext    bool     `json:"ready_for_next"`
}

// Enhancement is advisory material layered onto a validated brief.
type Enhancement struct {
	Strategies       []string `json:"strategies"`
	BudgetAllocation string   `json:"budget_allocation"`
	Urgency          string   `json:"urgency"`
	SuccessMetrics   []string `json:"success_metrics"`
}

// CampaignBrief is the immutable, compiled output of the intake pipeline.
type CampaignBrief struct {
	ID           string           `json:"id"`
	ArtistName   string           `json:"artist_name"`
	SongTitle    string           `json:"song_title"`
	Genre        string           `json:"genre"`
	ReleaseDate  time.Time        `json:"release_date"`
	Budget       int              `json:"budget"`
	Territories  []string         `json:"territories"`
	Priority     Priority         `json:"priority"`
	CampaignType CampaignType     `json:"campaign_type"`
	Extraction   Extraction       `json:"extraction"`
	Validation   ValidationResult `json:"validation"`
	Enhancement  Enhancement      `json:"enhancement"`
	CreatedAt    time.Time        `json:"created_at"`
}

// DaysUntilRelease computes whole days from now until the release date,
// truncated toward zero. Past release dates yield negative values.
func (b *CampaignBrief) DaysUntilRelease(now time.Time) int {
	return int(b.ReleaseDate.Sub(now).Hours() / 24)
}

// TaskStatus represents the workflow state of a campaign task.
type TaskStatus string

const (
	TaskStatusNotStarted TaskStatus = "not_started"
	TaskStatusInProgress TaskStatus = "in_progress"
	TaskStatusReview     TaskStatus = "review"
	TaskStatusCompleted  TaskStatus = "completed"
	TaskStatusBlocked    TaskStatus = "blocked"
	TaskStatusCancelled  TaskStatus = "cancelled"
)

// statusTransitions is the allowed workflow graph. Completed and
// cancelled are terminal.
var statusTransitions = map[TaskStatus][]TaskStatus{
	TaskStatusNotStarted: {TaskStatusInProgress, TaskStatusBlocked},
	TaskStatusInProgress: {TaskStatusCompleted, TaskStatusBlocked, TaskStatusReview},
	TaskStatusReview:     {TaskStatusCompleted, TaskStatusInProgress, TaskStatusBlocked},
	TaskStatusCompleted:  {},
	TaskStatusBlocked:    {TaskStatusInProgress, TaskStatusCancelled},
	TaskStatusCancelled:  {},
}

// CanTransition reports whether a task may move from one status to another.
// Same-status updates are always allowed.
func CanTransition(from, to TaskStatus) bool {
	if from == to {
		return true
	}
	for _, next := range statusTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// StatusColor returns the board display color for a task status.
func StatusColor(s TaskStatus) string {
	switch s {
	case TaskStatusInProgress:
		return "blue"
	case TaskStatusReview:
		return "orange"
	case TaskStatusCompleted:
		return "green"
	case TaskStatusBlocked:
		return "red"
	case TaskStatusCancelled:
		return "dark_grey"
	default:
		return "grey"
	}
}

// Frequency is the recurrence interval of a recurring task.
type Frequency string

const (
	FrequencyDaily   Frequency = "daily"
	FrequencyWeekly  Frequency = "weekly"
	FrequencyMonthly Frequency = "monthly"
)

// Advance returns due moved forward by one frequency interval.
func (f Frequency) Advance(due time.Time) time.Time {
	switch f {
	case FrequencyDaily:
		return due.AddDate(0, 0, 1)
	case FrequencyMonthly:
		return due.AddDate(0, 1, 0)
	default:
		return due.AddDate(0, 0, 7)
	}
}

// Task is a single scheduled unit of campaign work, materialized on the
// project backend and tracked locally.
type Task struct {
	ID             string     `json:"id"`
	BackendID      string     `json:"backend_id"`
	CampaignID     string     `json:"campaign_id"`
	GroupID        string     `json:"group_id"`
	Name           string     `json:"name"`
	Description    string     `json:"description"`
	Status         TaskStatus `json:"status"`
	Priority       Priority   `json:"priority"`
	DueDate        time.Time  `json:"due_date"`
	DependsOn      []string   `json:"depends_on,omitempty"`
	Milestone      bool       `json:"milestone"`
	Frequency      Frequency  `json:"frequency,omitempty"`
	NextDueDate    *time.Time `json:"next_due_date,omitempty"`
	EndDate        *time.Time `json:"end_date,omitempty"`
	OverdueFlagged bool       `json:"overdue_flagged"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// Terminal reports whether the task has reached its final state.
func (t *Task) Terminal() bool {
	return t.Status == TaskStatusCompleted || t.Status == TaskStatusCancelled
}

// Overdue reports whether the task is past due and not done.
func (t *Task) Overdue(now time.Time) bool {
	return !t.Terminal() && now.After(t.DueDate)
}

// Group is a backend group holding a phase of campaign tasks.
type Group struct {
	ID        string `json:"id"`
	BackendID string `json:"backend_id"`
	BoardID   string `json:"board_id"`
	Title     string `json:"title"`
	Position  int    `json:"position"`
}

// Board is the backend board that holds one campaign.
type Board struct {
	ID        string `json:"id"`
	BackendID string `json:"backend_id"`
	Name      string `json:"name"`
	URL       string `json:"url,omitempty"`
}

// Metrics summarizes task and milestone completion for a campaign.
type Metrics struct {
	TotalTasks        int     `json:"total_tasks"`
	CompletedTasks    int     `json:"completed_tasks"`
	OverdueTasks      int     `json:"overdue_tasks"`
	MilestonesTotal   int     `json:"milestones_total"`
	MilestonesReached int     `json:"milestones_reached"`
	ProgressPct       float64 `json:"progress_pct"`
}

// Timeline is the computed schedule envelope of a campaign.
type Timeline struct {
	CampaignStart    time.Time  `json:"campaign_start"`
	CampaignEnd      time.Time  `json:"campaign_end"`
	DurationDays     int        `json:"duration_days"`
	DaysUntilRelease int        `json:"days_until_release"`
	NextMilestone    *Milestone `json:"next_milestone,omitempty"`
}

// Milestone names an upcoming milestone task and its due date.
type Milestone struct {
	Name    string    `json:"name"`
	DueDate time.Time `json:"due_date"`
}

// NotificationType classifies monitoring notifications.
type NotificationType string

const (
	NotificationOverdue           NotificationType = "tasks-overdue"
	NotificationProgressMilestone NotificationType = "progress-milestone"
	NotificationMilestoneReached  NotificationType = "milestone-reached"
)

// Notification is a persisted monitoring alert for a campaign.
type Notification struct {
	ID         string           `json:"id"`
	CampaignID string           `json:"campaign_id"`
	Type       NotificationType `json:"type"`
	Message    string           `json:"message"`
	CreatedAt  time.Time        `json:"created_at"`
}

// CampaignStatus is the lifecycle state of a campaign.
type CampaignStatus string

const (
	CampaignStatusActive    CampaignStatus = "active"
	CampaignStatusCompleted CampaignStatus = "completed"
	CampaignStatusFailed    CampaignStatus = "failed"
)

// Campaign ties a compiled brief to its materialized board, groups and tasks.
type Campaign struct {
	ID                    string         `json:"id"`
	BriefID               string         `json:"brief_id"`
	Brief                 *CampaignBrief `json:"brief,omitempty"`
	BoardID               string         `json:"board_id"`
	Template              string         `json:"template"`
	Status                CampaignStatus `json:"status"`
	Metrics               Metrics        `json:"metrics"`
	Timeline              Timeline       `json:"timeline"`
	LastProgressMilestone int            `json:"last_progress_milestone"`
	CreatedAt             time.Time      `json:"created_at"`
	UpdatedAt             time.Time      `json:"updated_at"`
}

// Active reports whether the campaign is still being monitored.
func (c *Campaign) Active() bool {
	return c.Status == CampaignStatusActive
}
