package tui

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/promodesk/campaignd/internal/models"
)

// DefaultClientTimeout is the default timeout for API requests.
const DefaultClientTimeout = 10 * time.Second

// Client wraps HTTP calls to the campaignd API
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a new API client with timeout
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: DefaultClientTimeout,
		},
	}
}

func (c *Client) get(path string, out interface{}) error {
	resp, err := c.httpClient.Get(c.baseURL + path)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("API error: %s", string(body))
	}

	return json.NewDecoder(resp.Body).Decode(out)
}

// ListCampaigns fetches campaigns from the API
func (c *Client) ListCampaigns(status string) ([]CampaignItem, error) {
	path := "/campaigns"
	if status != "" {
		path += "?status=" + status
	}

	var campaigns []models.Campaign
	if err := c.get(path, &campaigns); err != nil {
		return nil, err
	}

	items := make([]CampaignItem, len(campaigns))
	for i, cp := range campaigns {
		items[i] = CampaignItem{
			ID:          cp.ID,
			Template:    cp.Template,
			State:       string(cp.Status),
			ProgressPct: cp.Metrics.ProgressPct,
		}
	}
	return items, nil
}

// GetCampaign fetches a single campaign with its brief
func (c *Client) GetCampaign(id string) (*CampaignDetail, error) {
	var cp models.Campaign
	if err := c.get("/campaigns/"+id, &cp); err != nil {
		return nil, err
	}

	detail := &CampaignDetail{
		ID:             cp.ID,
		Template:       cp.Template,
		State:          string(cp.Status),
		ProgressPct:    cp.Metrics.ProgressPct,
		CompletedTasks: cp.Metrics.CompletedTasks,
		TotalTasks:     cp.Metrics.TotalTasks,
		OverdueTasks:   cp.Metrics.OverdueTasks,
		WindowStart:    cp.Timeline.CampaignStart.Format("2006-01-02"),
		WindowEnd:      cp.Timeline.CampaignEnd.Format("2006-01-02"),
	}
	if cp.Brief != nil {
		detail.Artist = cp.Brief.ArtistName
		detail.Track = cp.Brief.SongTitle
		detail.Genre = cp.Brief.Genre
	}
	if cp.Timeline.NextMilestone != nil {
		detail.NextMilestone = fmt.Sprintf("%s (%s)",
			cp.Timeline.NextMilestone.Name,
			cp.Timeline.NextMilestone.DueDate.Format("2006-01-02"))
	}
	return detail, nil
}

// ListTasks fetches the tasks of a campaign
func (c *Client) ListTasks(campaignID string) ([]TaskRow, error) {
	var tasks []models.Task
	if err := c.get("/campaigns/"+campaignID+"/tasks", &tasks); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	rows := make([]TaskRow, len(tasks))
	for i := range tasks {
		t := &tasks[i]
		rows[i] = TaskRow{
			Name:      t.Name,
			Status:    string(t.Status),
			Priority:  string(t.Priority),
			DueDate:   t.DueDate.Format("2006-01-02"),
			Milestone: t.Milestone,
			Overdue:   t.Overdue(now),
		}
	}
	return rows, nil
}

// ListNotifications fetches the notifications of a campaign
func (c *Client) ListNotifications(campaignID string) ([]NotificationRow, error) {
	var notifications []models.Notification
	if err := c.get("/campaigns/"+campaignID+"/notifications", &notifications); err != nil {
		return nil, err
	}

	rows := make([]NotificationRow, len(notifications))
	for i, n := range notifications {
		rows[i] = NotificationRow{
			Type:    string(n.Type),
			Message: n.Message,
			At:      n.CreatedAt.Format("2006-01-02 15:04"),
		}
	}
	return rows, nil
}

// CheckHealth checks if the daemon is healthy
func (c *Client) CheckHealth() (bool, error) {
	resp, err := c.httpClient.Get(c.baseURL + "/health")
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return false, nil
	}

	var health struct {
		OK bool `json:"ok"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&health); err != nil {
		return false, err
	}

	return health.OK, nil
}
