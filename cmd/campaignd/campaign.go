package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/promodesk/campaignd/internal/campaign"
	"github.com/promodesk/campaignd/internal/models"
)

var (
	createHint     string
	createOverride bool
	listStatus     string
)

var campaignCmd = &cobra.Command{
	Use:   "campaign",
	Short: "Manage campaigns",
}

var campaignCreateCmd = &cobra.Command{
	Use:   "create [transcript-file]",
	Short: "Create a campaign from a meeting transcript",
	Long:  `Compiles a brief from the transcript and materializes the selected campaign template on the project backend.`,
	Args:  cobra.MaximumNArgs(1),
	RunE:  runCampaignCreate,
}

var campaignListCmd = &cobra.Command{
	Use:   "list",
	Short: "List campaigns",
	RunE:  runCampaignList,
}

var campaignShowCmd = &cobra.Command{
	Use:   "show <campaign-id>",
	Short: "Show campaign details",
	Args:  cobra.ExactArgs(1),
	RunE:  runCampaignShow,
}

var campaignTasksCmd = &cobra.Command{
	Use:   "tasks <campaign-id>",
	Short: "List the tasks of a campaign",
	Args:  cobra.ExactArgs(1),
	RunE:  runCampaignTasks,
}

var campaignNotificationsCmd = &cobra.Command{
	Use:   "notifications <campaign-id>",
	Short: "List the notifications of a campaign",
	Args:  cobra.ExactArgs(1),
	RunE:  runCampaignNotifications,
}

func init() {
	campaignCreateCmd.Flags().StringVar(&createHint, "hint", "", "Extraction hint passed to the understander")
	campaignCreateCmd.Flags().BoolVar(&createOverride, "override", false, "Create even when the brief is not ready")
	campaignListCmd.Flags().StringVar(&listStatus, "status", "", "Filter by status (active, completed, failed)")

	campaignCmd.AddCommand(campaignCreateCmd)
	campaignCmd.AddCommand(campaignListCmd)
	campaignCmd.AddCommand(campaignShowCmd)
	campaignCmd.AddCommand(campaignTasksCmd)
	campaignCmd.AddCommand(campaignNotificationsCmd)
}

func runCampaignCreate(cmd *cobra.Command, args []string) error {
	transcript, err := readTranscript(args)
	if err != nil {
		return err
	}
	if strings.TrimSpace(transcript) == "" {
		return fmt.Errorf("transcript is empty")
	}

	resp, err := apiPost("/campaigns", map[string]interface{}{
		"transcript":     transcript,
		"hint":           createHint,
		"override_ready": createOverride,
	})
	if err != nil {
		return err
	}

	var result campaign.CreateResult
	if err := json.Unmarshal(resp, &result); err != nil {
		return fmt.Errorf("parsing response: %w", err)
	}

	fmt.Printf("Campaign %s created\n", result.Campaign.ID)
	fmt.Printf("  Template: %s\n", result.Campaign.Template)
	fmt.Printf("  Board:    %s (%s)\n", result.Board.Name, result.Board.URL)
	fmt.Printf("  Groups:   %d\n", len(result.Groups))
	fmt.Printf("  Tasks:    %d\n", len(result.Tasks))
	tl := result.Campaign.Timeline
	fmt.Printf("  Window:   %s to %s (%d days)\n",
		tl.CampaignStart.Format("2006-01-02"), tl.CampaignEnd.Format("2006-01-02"), tl.DurationDays)
	if tl.NextMilestone != nil {
		fmt.Printf("  Next milestone: %s on %s\n",
			tl.NextMilestone.Name, tl.NextMilestone.DueDate.Format("2006-01-02"))
	}
	return nil
}

func runCampaignList(cmd *cobra.Command, args []string) error {
	path := "/campaigns"
	if listStatus != "" {
		path += "?status=" + listStatus
	}

	resp, err := apiGet(path)
	if err != nil {
		return err
	}

	var campaigns []models.Campaign
	if err := json.Unmarshal(resp, &campaigns); err != nil {
		return fmt.Errorf("parsing response: %w", err)
	}

	if len(campaigns) == 0 {
		fmt.Println("No campaigns found")
		return nil
	}

	fmt.Printf("%-36s  %-18s  %-9s  %8s\n", "ID", "TEMPLATE", "STATUS", "PROGRESS")
	for _, c := range campaigns {
		fmt.Printf("%-36s  %-18s  %-9s  %7.0f%%\n", c.ID, c.Template, c.Status, c.Metrics.ProgressPct)
	}
	return nil
}

func runCampaignShow(cmd *cobra.Command, args []string) error {
	resp, err := apiGet("/campaigns/" + args[0])
	if err != nil {
		return err
	}

	var c models.Campaign
	if err := json.Unmarshal(resp, &c); err != nil {
		return fmt.Errorf("parsing response: %w", err)
	}

	fmt.Printf("Campaign %s\n", c.ID)
	fmt.Printf("  Status:   %s\n", c.Status)
	fmt.Printf("  Template: %s\n", c.Template)
	if c.Brief != nil {
		fmt.Printf("  Artist:   %s\n", orDash(c.Brief.ArtistName))
		fmt.Printf("  Track:    %s\n", orDash(c.Brief.SongTitle))
	}
	fmt.Printf("  Progress: %.0f%% (%d/%d tasks, %d overdue)\n",
		c.Metrics.ProgressPct, c.Metrics.CompletedTasks, c.Metrics.TotalTasks, c.Metrics.OverdueTasks)
	fmt.Printf("  Window:   %s to %s\n",
		c.Timeline.CampaignStart.Format("2006-01-02"), c.Timeline.CampaignEnd.Format("2006-01-02"))
	if c.Timeline.NextMilestone != nil {
		fmt.Printf("  Next milestone: %s on %s\n",
			c.Timeline.NextMilestone.Name, c.Timeline.NextMilestone.DueDate.Format("2006-01-02"))
	}
	return nil
}

func runCampaignTasks(cmd *cobra.Command, args []string) error {
	resp, err := apiGet("/campaigns/" + args[0] + "/tasks")
	if err != nil {
		return err
	}

	var tasks []models.Task
	if err := json.Unmarshal(resp, &tasks); err != nil {
		return fmt.Errorf("parsing response: %w", err)
	}

	if len(tasks) == 0 {
		fmt.Println("No tasks found")
		return nil
	}

	fmt.Printf("%-34s  %-12s  %-8s  %-10s\n", "NAME", "STATUS", "PRIORITY", "DUE")
	for _, t := range tasks {
		name := t.Name
		if t.Milestone {
			name += " *"
		}
		fmt.Printf("%-34s  %-12s  %-8s  %-10s\n", name, t.Status, t.Priority, t.DueDate.Format("2006-01-02"))
	}
	return nil
}

func runCampaignNotifications(cmd *cobra.Command, args []string) error {
	resp, err := apiGet("/campaigns/" + args[0] + "/notifications")
	if err != nil {
		return err
	}

	var notifications []models.Notification
	if err := json.Unmarshal(resp, &notifications); err != nil {
		return fmt.Errorf("parsing response: %w", err)
	}

	if len(notifications) == 0 {
		fmt.Println("No notifications")
		return nil
	}

	for _, n := range notifications {
		fmt.Printf("%s  [%s]  %s\n", n.CreatedAt.Format("2006-01-02 15:04"), n.Type, n.Message)
	}
	return nil
}
