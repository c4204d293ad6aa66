package tui

// CampaignItem is a summary of a campaign for the list view
type CampaignItem struct {
	ID          string
	Artist      string
	Track       string
	Template    string
	State       string
	ProgressPct float64
}

// CampaignDetail is the full campaign information for the detail view
type CampaignDetail struct {
	ID             string
	Artist         string
	Track          string
	Genre          string
	Template       string
	State          string
	ProgressPct    float64
	CompletedTasks int
	TotalTasks     int
	OverdueTasks   int
	WindowStart    string
	WindowEnd      string
	NextMilestone  string
}

// TaskRow is one task line in the detail view
type TaskRow struct {
	Name      string
	Status    string
	Priority  string
	DueDate   string
	Milestone bool
	Overdue   bool
}

// NotificationRow is one notification line in the detail view
type NotificationRow struct {
	Type    string
	Message string
	At      string
}
