// Package tui provides the interactive campaign dashboard for campaignd.
package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var (
	primaryColor = lipgloss.Color("#7C3AED")
	successColor = lipgloss.Color("#10B981")
	warningColor = lipgloss.Color("#F59E0B")
	errorColor   = lipgloss.Color("#EF4444")
	mutedColor   = lipgloss.Color("#6B7280")
	fgColor      = lipgloss.Color("#F9FAFB")

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(primaryColor).
			Padding(0, 1)

	statusBarStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("#374151")).
			Foreground(fgColor).
			Padding(0, 1)

	onlineStyle  = lipgloss.NewStyle().Foreground(successColor).Bold(true)
	offlineStyle = lipgloss.NewStyle().Foreground(errorColor)
	mutedStyle   = lipgloss.NewStyle().Foreground(mutedColor)
	overdueStyle = lipgloss.NewStyle().Foreground(errorColor)
	doneStyle    = lipgloss.NewStyle().Foreground(successColor)
	activeStyle  = lipgloss.NewStyle().Foreground(warningColor)
)

// campaignListItem adapts CampaignItem to the bubbles list.
type campaignListItem struct {
	CampaignItem
}

func (i campaignListItem) FilterValue() string { return i.ID }
func (i campaignListItem) Title() string {
	if i.Artist != "" {
		return fmt.Sprintf("%s - %s", i.Artist, i.Track)
	}
	return i.ID
}
func (i campaignListItem) Description() string {
	return fmt.Sprintf("%s • %s • %.0f%%", i.Template, formatState(i.State), i.ProgressPct)
}

func formatState(state string) string {
	switch state {
	case "active":
		return activeStyle.Render("● active")
	case "completed":
		return doneStyle.Render("● completed")
	case "failed":
		return offlineStyle.Render("✗ failed")
	default:
		return state
	}
}

// App is the main TUI application model.
type App struct {
	client        *Client
	list          list.Model
	viewport      viewport.Model
	mode          string // "list" or "detail"
	detail        *CampaignDetail
	tasks         []TaskRow
	notifications []NotificationRow
	filter        string
	filterIdx     int
	width         int
	height        int
	loading       bool
	daemonOnline  bool
	message       string
}

var filters = []string{"", "active", "completed", "failed"}
var filterNames = []string{"ALL", "ACTIVE", "COMPLETED", "FAILED"}

// New creates a new TUI application.
func New(apiAddr string) *App {
	delegate := list.NewDefaultDelegate()
	l := list.New([]list.Item{}, delegate, 80, 20)
	l.Title = "Campaigns"
	l.SetShowStatusBar(true)
	l.SetFilteringEnabled(true)
	l.Styles.Title = titleStyle

	return &App{
		client:   NewClient(apiAddr),
		list:     l,
		viewport: viewport.New(80, 20),
		mode:     "list",
	}
}

// Run starts the TUI application.
func (a *App) Run() error {
	p := tea.NewProgram(a, tea.WithAltScreen())
	_, err := p.Run()
	return err
}

// Init implements tea.Model
func (a *App) Init() tea.Cmd {
	return tea.Batch(a.fetchCampaigns(), a.checkDaemon())
}

// Update implements tea.Model
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			if a.mode == "detail" {
				a.mode = "list"
				a.detail = nil
				return a, a.fetchCampaigns()
			}
			return a, tea.Quit

		case "esc":
			if a.mode == "detail" {
				a.mode = "list"
				a.detail = nil
				return a, a.fetchCampaigns()
			}

		case "enter":
			if a.mode == "list" {
				if item, ok := a.list.SelectedItem().(campaignListItem); ok {
					a.mode = "detail"
					return a, a.fetchDetail(item.ID)
				}
			}

		case "r":
			if a.mode == "list" {
				return a, a.fetchCampaigns()
			}
			if a.detail != nil {
				return a, a.fetchDetail(a.detail.ID)
			}

		case "tab":
			if a.mode == "list" {
				a.filterIdx = (a.filterIdx + 1) % len(filters)
				a.filter = filters[a.filterIdx]
				a.list.Title = fmt.Sprintf("Campaigns [%s]", filterNames[a.filterIdx])
				return a, a.fetchCampaigns()
			}
		}

	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.list.SetSize(msg.Width, msg.Height-4)
		a.viewport.Width = msg.Width
		a.viewport.Height = msg.Height - 4

	case campaignsLoadedMsg:
		a.loading = false
		items := make([]list.Item, len(msg.campaigns))
		for i, c := range msg.campaigns {
			items[i] = campaignListItem{c}
		}
		a.list.SetItems(items)

	case detailLoadedMsg:
		a.detail = msg.detail
		a.tasks = msg.tasks
		a.notifications = msg.notifications
		a.viewport.SetContent(a.renderDetail())

	case daemonStatusMsg:
		a.daemonOnline = msg.online

	case errMsg:
		a.message = "Error: " + msg.err.Error()
	}

	var cmd tea.Cmd
	if a.mode == "detail" {
		a.viewport, cmd = a.viewport.Update(msg)
	} else {
		a.list, cmd = a.list.Update(msg)
	}
	return a, cmd
}

// View implements tea.Model
func (a *App) View() string {
	var b strings.Builder

	daemonStatus := onlineStyle.Render("● DAEMON")
	if !a.daemonOnline {
		daemonStatus = offlineStyle.Render("○ DAEMON")
	}
	b.WriteString(titleStyle.Render("campaignd") + "  " + daemonStatus + "\n")

	switch a.mode {
	case "detail":
		b.WriteString(a.viewport.View())
	default:
		b.WriteString(a.list.View())
	}

	if a.message != "" {
		b.WriteString("\n" + offlineStyle.Render(a.message))
	}

	var status string
	if a.mode == "detail" {
		status = " Esc:back | r:refresh | Ctrl+C:quit"
	} else {
		status = " Enter:detail | Tab:filter | r:refresh | q:quit"
	}
	b.WriteString("\n" + statusBarStyle.Width(a.width).Render(status))

	return b.String()
}

func (a *App) renderDetail() string {
	if a.detail == nil {
		return "\n  Loading...\n"
	}

	var b strings.Builder
	d := a.detail

	title := d.ID
	if d.Artist != "" {
		title = fmt.Sprintf("%s - %s", d.Artist, d.Track)
	}
	b.WriteString("\n  " + lipgloss.NewStyle().Bold(true).Render(title) + "\n")
	b.WriteString(fmt.Sprintf("  Template: %s   State: %s\n", d.Template, formatState(d.State)))
	b.WriteString(fmt.Sprintf("  Progress: %.0f%% (%d/%d tasks, %d overdue)\n",
		d.ProgressPct, d.CompletedTasks, d.TotalTasks, d.OverdueTasks))
	b.WriteString(fmt.Sprintf("  Window:   %s to %s\n", d.WindowStart, d.WindowEnd))
	if d.NextMilestone != "" {
		b.WriteString(fmt.Sprintf("  Next milestone: %s\n", d.NextMilestone))
	}

	if len(a.tasks) > 0 {
		b.WriteString("\n  Tasks:\n")
		for _, t := range a.tasks {
			marker := " "
			if t.Milestone {
				marker = "*"
			}
			line := fmt.Sprintf("  %s %-34s %-12s %s", marker, t.Name, t.Status, t.DueDate)
			switch {
			case t.Overdue:
				line = overdueStyle.Render(line)
			case t.Status == "completed":
				line = doneStyle.Render(line)
			}
			b.WriteString(line + "\n")
		}
	}

	if len(a.notifications) > 0 {
		b.WriteString("\n  Notifications:\n")
		for i, n := range a.notifications {
			if i >= 10 {
				b.WriteString(mutedStyle.Render(fmt.Sprintf("    ... %d more\n", len(a.notifications)-i)))
				break
			}
			b.WriteString(mutedStyle.Render(fmt.Sprintf("    %s  [%s]  %s", n.At, n.Type, n.Message)) + "\n")
		}
	}

	return b.String()
}

func (a *App) fetchCampaigns() tea.Cmd {
	a.loading = true
	return func() tea.Msg {
		campaigns, err := a.client.ListCampaigns(a.filter)
		if err != nil {
			return errMsg{err}
		}
		return campaignsLoadedMsg{campaigns}
	}
}

func (a *App) fetchDetail(id string) tea.Cmd {
	return func() tea.Msg {
		detail, err := a.client.GetCampaign(id)
		if err != nil {
			return errMsg{err}
		}
		tasks, _ := a.client.ListTasks(id)
		notifications, _ := a.client.ListNotifications(id)
		return detailLoadedMsg{detail, tasks, notifications}
	}
}

func (a *App) checkDaemon() tea.Cmd {
	return func() tea.Msg {
		ok, err := a.client.CheckHealth()
		return daemonStatusMsg{online: err == nil && ok}
	}
}

type campaignsLoadedMsg struct {
	campaigns []CampaignItem
}

type detailLoadedMsg struct {
	detail        *CampaignDetail
	tasks         []TaskRow
	notifications []NotificationRow
}

type daemonStatusMsg struct {
	online bool
}

type errMsg struct {
	err error
}
