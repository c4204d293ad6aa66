// Package templates holds the built-in campaign board templates and the
// selection rules that pick one for a brief.
package templates

import (
	"fmt"
	"strings"
	"time"

	"github.com/promodesk/campaignd/internal/models"
)

// TaskType distinguishes how a template task is scheduled.
type TaskType string

const (
	TypeTask      TaskType = "task"
	TypeMilestone TaskType = "milestone"
	TypeRecurring TaskType = "recurring"
	TypeOngoing   TaskType = "ongoing"
)

// TaskTemplate describes one task to materialize. OffsetDays is relative
// to the campaign reference date; negative offsets land before release.
// DependsOn names other tasks in the same template.
type TaskTemplate struct {
	Name         string           `yaml:"name"`
	Type         TaskType         `yaml:"type"`
	Priority     models.Priority  `yaml:"priority"`
	OffsetDays   int              `yaml:"offset_days"`
	DurationDays int              `yaml:"duration_days,omitempty"`
	Frequency    models.Frequency `yaml:"frequency,omitempty"`
	DependsOn    []string         `yaml:"depends_on,omitempty"`
	Assignee     string           `yaml:"assignee,omitempty"`
}

// GroupTemplate is one board group with its tasks in creation order.
type GroupTemplate struct {
	Title string         `yaml:"title"`
	Color string         `yaml:"color"`
	Tasks []TaskTemplate `yaml:"tasks"`
}

// BoardTemplate is a complete campaign layout. BoardName may contain
// {artistName} and {trackTitle} placeholders.
type BoardTemplate struct {
	Key         string          `yaml:"key"`
	BoardName   string          `yaml:"board_name"`
	Description string          `yaml:"description"`
	Groups      []GroupTemplate `yaml:"groups"`
}

// Template keys.
const (
	KeyStandard = "complete-campaign"
	KeyRush     = "rush-campaign"
)

// Builtin returns the built-in template catalog keyed by template key.
func Builtin() map[string]*BoardTemplate {
	return map[string]*BoardTemplate{
		KeyStandard: standardTemplate(),
		KeyRush:     rushTemplate(),
	}
}

// Select picks the template for a brief. Rush applies when the brief
// priority is critical, the campaign type is rush, or release is seven
// days away or less. Checks short-circuit in that order.
func Select(b *models.CampaignBrief, now time.Time) *BoardTemplate {
	if b.Priority == models.PriorityCritical {
		return rushTemplate()
	}
	if b.CampaignType == models.CampaignTypeRush {
		return rushTemplate()
	}
	if !b.ReleaseDate.IsZero() && b.DaysUntilRelease(now) <= 7 {
		return rushTemplate()
	}
	return standardTemplate()
}

// RenderBoardName substitutes brief fields into the template board name.
func (t *BoardTemplate) RenderBoardName(b *models.CampaignBrief) string {
	name := strings.ReplaceAll(t.BoardName, "{artistName}", b.ArtistName)
	return strings.ReplaceAll(name, "{trackTitle}", b.SongTitle)
}

// TaskCount returns the total number of tasks across all groups.
func (t *BoardTemplate) TaskCount() int {
	n := 0
	for _, g := range t.Groups {
		n += len(g.Tasks)
	}
	return n
}

func standardTemplate() *BoardTemplate {
	return &BoardTemplate{
		Key:         KeyStandard,
		BoardName:   "{artistName} - {trackTitle} Radio Campaign",
		Description: "Full radio promotion campaign",
		Groups: []GroupTemplate{
			{
				Title: "Pre-Launch Setup",
				Color: "blue",
				Tasks: []TaskTemplate{
					{Name: "Campaign Brief Review", Type: TypeMilestone, Priority: models.PriorityCritical, OffsetDays: -7, Assignee: "lead"},
					{Name: "Press Release Creation", Type: TypeTask, Priority: models.PriorityHigh, OffsetDays: -5, DependsOn: []string{"Campaign Brief Review"}, Assignee: "team"},
					{Name: "Radio Station List Compilation", Type: TypeTask, Priority: models.PriorityHigh, OffsetDays: -5, DependsOn: []string{"Campaign Brief Review"}, Assignee: "team"},
					{Name: "Airplay Tracking Setup", Type: TypeTask, Priority: models.PriorityHigh, OffsetDays: -3, DependsOn: []string{"Campaign Brief Review"}, Assignee: "system"},
				},
			},
			{
				Title: "Launch Week",
				Color: "green",
				Tasks: []TaskTemplate{
					{Name: "Press Release Distribution", Type: TypeTask, Priority: models.PriorityCritical, OffsetDays: 0, DependsOn: []string{"Press Release Creation"}, Assignee: "team"},
					{Name: "Radio Station Outreach - Wave 1", Type: TypeTask, Priority: models.PriorityCritical, OffsetDays: 1, DependsOn: []string{"Radio Station List Compilation", "Press Release Distribution"}, Assignee: "team"},
					{Name: "Amazing Radio Submission", Type: TypeTask, Priority: models.PriorityHigh, OffsetDays: 1, DependsOn: []string{"Radio Station List Compilation"}, Assignee: "system"},
					{Name: "Wigwam Radio Submission", Type: TypeTask, Priority: models.PriorityMedium, OffsetDays: 2, DependsOn: []string{"Radio Station List Compilation"}, Assignee: "system"},
				},
			},
			{
				Title: "Follow-up & Tracking",
				Color: "orange",
				Tasks: []TaskTemplate{
					{Name: "Radio Station Follow-up - Wave 2", Type: TypeTask, Priority: models.PriorityHigh, OffsetDays: 7, DependsOn: []string{"Radio Station Outreach - Wave 1"}, Assignee: "team"},
					{Name: "Airplay Monitoring", Type: TypeOngoing, Priority: models.PriorityMedium, OffsetDays: 1, DurationDays: 30, DependsOn: []string{"Airplay Tracking Setup"}, Assignee: "system"},
					{Name: "Weekly Performance Review", Type: TypeRecurring, Priority: models.PriorityMedium, OffsetDays: 7, Frequency: models.FrequencyWeekly, DependsOn: []string{"Airplay Monitoring"}, Assignee: "team"},
				},
			},
			{
				Title: "Reporting & Delivery",
				Color: "purple",
				Tasks: []TaskTemplate{
					{Name: "Campaign Performance Analysis", Type: TypeTask, Priority: models.PriorityHigh, OffsetDays: 21, DependsOn: []string{"Airplay Monitoring"}, Assignee: "team"},
					{Name: "Professional Report Generation", Type: TypeTask, Priority: models.PriorityHigh, OffsetDays: 23, DependsOn: []string{"Campaign Performance Analysis"}, Assignee: "system"},
					{Name: "Client Report Delivery", Type: TypeMilestone, Priority: models.PriorityCritical, OffsetDays: 25, DependsOn: []string{"Professional Report Generation"}, Assignee: "lead"},
				},
			},
		},
	}
}

func rushTemplate() *BoardTemplate {
	return &BoardTemplate{
		Key:         KeyRush,
		BoardName:   "{artistName} - {trackTitle} RUSH Campaign",
		Description: "Expedited radio promotion campaign",
		Groups: []GroupTemplate{
			{
				Title: "Immediate Actions",
				Color: "red",
				Tasks: []TaskTemplate{
					{Name: "Emergency Brief Review", Type: TypeMilestone, Priority: models.PriorityCritical, OffsetDays: 0, Assignee: "lead"},
					{Name: "Rapid Press Release Creation", Type: TypeTask, Priority: models.PriorityCritical, OffsetDays: 1, DependsOn: []string{"Emergency Brief Review"}, Assignee: "team"},
					{Name: "Priority Station Outreach", Type: TypeTask, Priority: models.PriorityCritical, OffsetDays: 2, DependsOn: []string{"Rapid Press Release Creation"}, Assignee: "team"},
				},
			},
		},
	}
}

// taskDescriptions maps template task names to description builders.
var taskDescriptions = map[string]func(b *models.CampaignBrief) string{
	"Campaign Brief Review": func(b *models.CampaignBrief) string {
		return fmt.Sprintf("Review and approve campaign brief for %s's %q. Confirm targeting, budget (%d), and timeline.", b.ArtistName, b.SongTitle, b.Budget)
	},
	"Press Release Creation": func(b *models.CampaignBrief) string {
		return fmt.Sprintf("Create press release for %q by %s. Genre: %s. Focus on key messaging and professional presentation.", b.SongTitle, b.ArtistName, b.Genre)
	},
	"Radio Station List Compilation": func(b *models.CampaignBrief) string {
		return fmt.Sprintf("Compile targeted radio station list for %s track. Include genre-appropriate stations. Territories: %s.", b.Genre, strings.Join(b.Territories, ", "))
	},
	"Airplay Tracking Setup": func(b *models.CampaignBrief) string {
		return fmt.Sprintf("Configure airplay tracking for %q. Set up milestone notifications and real-time monitoring.", b.SongTitle)
	},
	"Press Release Distribution": func(b *models.CampaignBrief) string {
		return fmt.Sprintf("Distribute press release to targeted media contacts. Focus on %s specialists and music industry publications.", b.Genre)
	},
	"Radio Station Outreach - Wave 1": func(b *models.CampaignBrief) string {
		return "Begin primary radio station outreach campaign. Personalised pitches to priority stations based on genre match."
	},
	"Amazing Radio Submission": func(b *models.CampaignBrief) string {
		return "Submission to Amazing Radio. Include all required materials and follow submission guidelines."
	},
	"Wigwam Radio Submission": func(b *models.CampaignBrief) string {
		return "Submission to Wigwam Radio platform. Ensure proper categorisation and metadata."
	},
	"Radio Station Follow-up - Wave 2": func(b *models.CampaignBrief) string {
		return "Follow up with non-responsive stations from Wave 1. Provide additional context or alternative angles."
	},
	"Airplay Monitoring": func(b *models.CampaignBrief) string {
		return "Continuous monitoring of radio plays. Daily tracking of play counts, station coverage, and trends."
	},
	"Weekly Performance Review": func(b *models.CampaignBrief) string {
		return "Weekly analysis of campaign performance. Review airplay data, station responses, and adjust strategy."
	},
	"Campaign Performance Analysis": func(b *models.CampaignBrief) string {
		return "Comprehensive analysis of campaign results. Compile play data, reach statistics, and ROI calculations."
	},
	"Professional Report Generation": func(b *models.CampaignBrief) string {
		return "Generate campaign report with charts, statistics, and insights. Include recommendations for future campaigns."
	},
	"Client Report Delivery": func(b *models.CampaignBrief) string {
		return "Final delivery of campaign results to client. Schedule presentation and provide actionable insights."
	},
}

// Description renders the task description for a template task, falling
// back to a generic line for unknown names.
func Description(taskName string, b *models.CampaignBrief) string {
	if build, ok := taskDescriptions[taskName]; ok {
		return build(b)
	}
	return fmt.Sprintf("%s for %s - %s campaign.", taskName, b.ArtistName, b.SongTitle)
}
