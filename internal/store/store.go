// Package store provides SQLite-backed persistence for campaignd.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/promodesk/campaignd/internal/models"
)

// Store provides access to the campaignd SQLite database.
type Store struct {
	db *sql.DB
}

// New creates a new Store and runs migrations.
func New(dbPath string) (*Store, error) {
	// Ensure directory exists
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	// Open with WAL mode for better concurrency
	db, err := sql.Open("sqlite", dbPath+"?_journal_mode=WAL&_busy_timeout=5000&_synchronous=NORMAL")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	// SQLite only supports one writer at a time
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping checks the database connection is alive.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// migrate runs idempotent schema migrations.
func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS briefs (
		id TEXT PRIMARY KEY,
		artist_name TEXT,
		song_title TEXT,
		campaign_type TEXT NOT NULL,
		ready INTEGER NOT NULL DEFAULT 0,
		payload TEXT NOT NULL,
		created_at DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS campaigns (
		id TEXT PRIMARY KEY,
		brief_id TEXT NOT NULL,
		board_id TEXT NOT NULL,
		template TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'active',
		metrics TEXT NOT NULL,
		timeline TEXT NOT NULL,
		last_progress_milestone INTEGER NOT NULL DEFAULT 0,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL,
		FOREIGN KEY (brief_id) REFERENCES briefs(id)
	);

	CREATE TABLE IF NOT EXISTS boards (
		id TEXT PRIMARY KEY,
		backend_id TEXT NOT NULL,
		campaign_id TEXT NOT NULL,
		name TEXT NOT NULL,
		url TEXT,
		FOREIGN KEY (campaign_id) REFERENCES campaigns(id)
	);

	CREATE TABLE IF NOT EXISTS groups (
		id TEXT PRIMARY KEY,
		backend_id TEXT NOT NULL,
		board_id TEXT NOT NULL,
		title TEXT NOT NULL,
		position INTEGER NOT NULL,
		FOREIGN KEY (board_id) REFERENCES boards(id)
	);

	CREATE TABLE IF NOT EXISTS tasks (
		id TEXT PRIMARY KEY,
		backend_id TEXT NOT NULL,
		campaign_id TEXT NOT NULL,
		group_id TEXT NOT NULL,
		name TEXT NOT NULL,
		description TEXT,
		status TEXT NOT NULL DEFAULT 'not_started',
		priority TEXT NOT NULL,
		due_date DATETIME NOT NULL,
		depends_on TEXT,
		milestone INTEGER NOT NULL DEFAULT 0,
		frequency TEXT,
		next_due_date DATETIME,
		end_date DATETIME,
		overdue_flagged INTEGER NOT NULL DEFAULT 0,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL,
		FOREIGN KEY (campaign_id) REFERENCES campaigns(id),
		FOREIGN KEY (group_id) REFERENCES groups(id)
	);

	CREATE TABLE IF NOT EXISTS notifications (
		id TEXT PRIMARY KEY,
		campaign_id TEXT NOT NULL,
		type TEXT NOT NULL,
		message TEXT NOT NULL,
		created_at DATETIME NOT NULL,
		FOREIGN KEY (campaign_id) REFERENCES campaigns(id)
	);

	CREATE TABLE IF NOT EXISTS events (
		id TEXT PRIMARY KEY,
		campaign_id TEXT NOT NULL,
		type TEXT NOT NULL,
		detail TEXT,
		created_at DATETIME NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_campaigns_status ON campaigns(status);
	CREATE INDEX IF NOT EXISTS idx_tasks_campaign_id ON tasks(campaign_id);
	CREATE INDEX IF NOT EXISTS idx_tasks_status ON tasks(status);
	CREATE INDEX IF NOT EXISTS idx_notifications_campaign_id ON notifications(campaign_id);
	CREATE INDEX IF NOT EXISTS idx_events_campaign_id ON events(campaign_id);
	`

	_, err := s.db.Exec(schema)
	return err
}

// --- Brief Operations ---

// SaveBrief persists a compiled brief. Briefs are immutable once saved.
func (s *Store) SaveBrief(b *models.CampaignBrief) error {
	payload, err := json.Marshal(b)
	if err != nil {
		return fmt.Errorf("marshal brief: %w", err)
	}

	_, err = s.db.Exec(
		`INSERT INTO briefs (id, artist_name, song_title, campaign_type, ready, payload, created_at) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		b.ID, b.ArtistName, b.SongTitle, b.CampaignType, b.Validation.ReadyForNext, string(payload), b.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert brief: %w", err)
	}
	return nil
}

// GetBrief retrieves a brief by ID. Returns nil when not found.
func (s *Store) GetBrief(id string) (*models.CampaignBrief, error) {
	var payload string
	err := s.db.QueryRow(`SELECT payload FROM briefs WHERE id = ?`, id).Scan(&payload)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query brief: %w", err)
	}

	var b models.CampaignBrief
	if err := json.Unmarshal([]byte(payload), &b); err != nil {
		return nil, fmt.Errorf("unmarshal brief: %w", err)
	}
	return &b, nil
}

// ListBriefs returns all briefs, newest first.
func (s *Store) ListBriefs() ([]models.CampaignBrief, error) {
	rows, err := s.db.Query(`SELECT payload FROM briefs ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("query briefs: %w", err)
	}
	defer rows.Close()

	var briefs []models.CampaignBrief
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("scan brief: %w", err)
		}
		var b models.CampaignBrief
		if err := json.Unmarshal([]byte(payload), &b); err != nil {
			return nil, fmt.Errorf("unmarshal brief: %w", err)
		}
		briefs = append(briefs, b)
	}
	return briefs, rows.Err()
}

// --- Campaign Registration ---

// RegisterCampaign persists a campaign with its board, groups and tasks
// in a single transaction. On any error nothing is persisted.
func (s *Store) RegisterCampaign(c *models.Campaign, board *models.Board, groups []models.Group, tasks []models.Task) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	metrics, err := json.Marshal(c.Metrics)
	if err != nil {
		return fmt.Errorf("marshal metrics: %w", err)
	}
	timeline, err := json.Marshal(c.Timeline)
	if err != nil {
		return fmt.Errorf("marshal timeline: %w", err)
	}

	_, err = tx.Exec(
		`INSERT INTO campaigns (id, brief_id, board_id, template, status, metrics, timeline, last_progress_milestone, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.BriefID, c.BoardID, c.Template, c.Status, string(metrics), string(timeline), c.LastProgressMilestone, c.CreatedAt, c.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert campaign: %w", err)
	}

	_, err = tx.Exec(
		`INSERT INTO boards (id, backend_id, campaign_id, name, url) VALUES (?, ?, ?, ?, ?)`,
		board.ID, board.BackendID, c.ID, board.Name, board.URL,
	)
	if err != nil {
		return fmt.Errorf("insert board: %w", err)
	}

	for _, g := range groups {
		_, err = tx.Exec(
			`INSERT INTO groups (id, backend_id, board_id, title, position) VALUES (?, ?, ?, ?, ?)`,
			g.ID, g.BackendID, g.BoardID, g.Title, g.Position,
		)
		if err != nil {
			return fmt.Errorf("insert group %s: %w", g.Title, err)
		}
	}

	for _, t := range tasks {
		dependsOn, err := json.Marshal(t.DependsOn)
		if err != nil {
			return fmt.Errorf("marshal dependencies: %w", err)
		}
		_, err = tx.Exec(
			`INSERT INTO tasks (id, backend_id, campaign_id, group_id, name, description, status, priority, due_date,
			 depends_on, milestone, frequency, next_due_date, end_date, overdue_flagged, created_at, updated_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			t.ID, t.BackendID, t.CampaignID, t.GroupID, t.Name, t.Description, t.Status, t.Priority, t.DueDate,
			string(dependsOn), t.Milestone, string(t.Frequency), t.NextDueDate, t.EndDate, t.OverdueFlagged, t.CreatedAt, t.UpdatedAt,
		)
		if err != nil {
			return fmt.Errorf("insert task %s: %w", t.Name, err)
		}
	}

	return tx.Commit()
}

// --- Campaign Operations ---

func (s *Store) scanCampaign(row *sql.Row) (*models.Campaign, error) {
	var c models.Campaign
	var metrics, timeline string

	err := row.Scan(&c.ID, &c.BriefID, &c.BoardID, &c.Template, &c.Status, &metrics, &timeline,
		&c.LastProgressMilestone, &c.CreatedAt, &c.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query campaign: %w", err)
	}

	if err := json.Unmarshal([]byte(metrics), &c.Metrics); err != nil {
		return nil, fmt.Errorf("unmarshal metrics: %w", err)
	}
	if err := json.Unmarshal([]byte(timeline), &c.Timeline); err != nil {
		return nil, fmt.Errorf("unmarshal timeline: %w", err)
	}
	return &c, nil
}

// GetCampaign retrieves a campaign by ID. Returns nil when not found.
func (s *Store) GetCampaign(id string) (*models.Campaign, error) {
	row := s.db.QueryRow(
		`SELECT id, brief_id, board_id, template, status, metrics, timeline, last_progress_milestone, created_at, updated_at
		 FROM campaigns WHERE id = ?`, id)
	return s.scanCampaign(row)
}

// ListCampaigns returns all campaigns, optionally filtered by status.
func (s *Store) ListCampaigns(status models.CampaignStatus) ([]models.Campaign, error) {
	query := `SELECT id, brief_id, board_id, template, status, metrics, timeline, last_progress_milestone, created_at, updated_at FROM campaigns`
	var args []interface{}

	if status != "" {
		query += ` WHERE status = ?`
		args = append(args, status)
	}
	query += ` ORDER BY created_at DESC`

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("query campaigns: %w", err)
	}
	defer rows.Close()

	var campaigns []models.Campaign
	for rows.Next() {
		var c models.Campaign
		var metrics, timeline string
		if err := rows.Scan(&c.ID, &c.BriefID, &c.BoardID, &c.Template, &c.Status, &metrics, &timeline,
			&c.LastProgressMilestone, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan campaign: %w", err)
		}
		if err := json.Unmarshal([]byte(metrics), &c.Metrics); err != nil {
			return nil, fmt.Errorf("unmarshal metrics: %w", err)
		}
		if err := json.Unmarshal([]byte(timeline), &c.Timeline); err != nil {
			return nil, fmt.Errorf("unmarshal timeline: %w", err)
		}
		campaigns = append(campaigns, c)
	}
	return campaigns, rows.Err()
}

// UpdateCampaignMetrics atomically updates a campaign's metrics and the
// highest progress milestone fired so far.
func (s *Store) UpdateCampaignMetrics(id string, metrics models.Metrics, lastProgressMilestone int) error {
	payload, err := json.Marshal(metrics)
	if err != nil {
		return fmt.Errorf("marshal metrics: %w", err)
	}
	_, err = s.db.Exec(
		`UPDATE campaigns SET metrics = ?, last_progress_milestone = ?, updated_at = ? WHERE id = ?`,
		string(payload), lastProgressMilestone, time.Now().UTC(), id,
	)
	return err
}

// UpdateCampaignStatus updates the campaign lifecycle state.
func (s *Store) UpdateCampaignStatus(id string, status models.CampaignStatus) error {
	_, err := s.db.Exec(
		`UPDATE campaigns SET status = ?, updated_at = ? WHERE id = ?`,
		status, time.Now().UTC(), id,
	)
	return err
}

// --- Board and Group Operations ---

// GetBoard retrieves the board for a campaign. Returns nil when not found.
func (s *Store) GetBoard(campaignID string) (*models.Board, error) {
	var b models.Board
	var url sql.NullString
	err := s.db.QueryRow(
		`SELECT id, backend_id, name, url FROM boards WHERE campaign_id = ?`, campaignID,
	).Scan(&b.ID, &b.BackendID, &b.Name, &url)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query board: %w", err)
	}
	if url.Valid {
		b.URL = url.String
	}
	return &b, nil
}

// ListGroups returns the groups of a board in position order.
func (s *Store) ListGroups(boardID string) ([]models.Group, error) {
	rows, err := s.db.Query(
		`SELECT id, backend_id, board_id, title, position FROM groups WHERE board_id = ? ORDER BY position`,
		boardID,
	)
	if err != nil {
		return nil, fmt.Errorf("query groups: %w", err)
	}
	defer rows.Close()

	var groups []models.Group
	for rows.Next() {
		var g models.Group
		if err := rows.Scan(&g.ID, &g.BackendID, &g.BoardID, &g.Title, &g.Position); err != nil {
			return nil, fmt.Errorf("scan group: %w", err)
		}
		groups = append(groups, g)
	}
	return groups, rows.Err()
}

// --- Task Operations ---

const taskColumns = `id, backend_id, campaign_id, group_id, name, description, status, priority, due_date,
	depends_on, milestone, frequency, next_due_date, end_date, overdue_flagged, created_at, updated_at`

func scanTask(scan func(dest ...interface{}) error) (*models.Task, error) {
	var t models.Task
	var description, dependsOn, frequency sql.NullString
	var nextDue, endDate sql.NullTime

	err := scan(&t.ID, &t.BackendID, &t.CampaignID, &t.GroupID, &t.Name, &description, &t.Status, &t.Priority,
		&t.DueDate, &dependsOn, &t.Milestone, &frequency, &nextDue, &endDate, &t.OverdueFlagged, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, err
	}

	if description.Valid {
		t.Description = description.String
	}
	if dependsOn.Valid && dependsOn.String != "" {
		if err := json.Unmarshal([]byte(dependsOn.String), &t.DependsOn); err != nil {
			return nil, fmt.Errorf("unmarshal dependencies: %w", err)
		}
	}
	if frequency.Valid {
		t.Frequency = models.Frequency(frequency.String)
	}
	if nextDue.Valid {
		t.NextDueDate = &nextDue.Time
	}
	if endDate.Valid {
		t.EndDate = &endDate.Time
	}
	return &t, nil
}

// GetTask retrieves a task by ID. Returns nil when not found.
func (s *Store) GetTask(id string) (*models.Task, error) {
	row := s.db.QueryRow(`SELECT `+taskColumns+` FROM tasks WHERE id = ?`, id)
	t, err := scanTask(row.Scan)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query task: %w", err)
	}
	return t, nil
}

// ListTasks returns the tasks of a campaign in creation order.
func (s *Store) ListTasks(campaignID string) ([]models.Task, error) {
	rows, err := s.db.Query(
		`SELECT `+taskColumns+` FROM tasks WHERE campaign_id = ? ORDER BY created_at, id`,
		campaignID,
	)
	if err != nil {
		return nil, fmt.Errorf("query tasks: %w", err)
	}
	defer rows.Close()

	var tasks []models.Task
	for rows.Next() {
		t, err := scanTask(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}
		tasks = append(tasks, *t)
	}
	return tasks, rows.Err()
}

// UpdateTaskStatus updates a task's workflow status.
func (s *Store) UpdateTaskStatus(id string, status models.TaskStatus) error {
	_, err := s.db.Exec(
		`UPDATE tasks SET status = ?, updated_at = ? WHERE id = ?`,
		status, time.Now().UTC(), id,
	)
	return err
}

// SetTaskOverdueFlagged records that the overdue crossing for a task has
// been notified.
func (s *Store) SetTaskOverdueFlagged(id string, flagged bool) error {
	_, err := s.db.Exec(
		`UPDATE tasks SET overdue_flagged = ?, updated_at = ? WHERE id = ?`,
		flagged, time.Now().UTC(), id,
	)
	return err
}

// AdvanceRecurringTask moves a recurring task's next due date forward.
func (s *Store) AdvanceRecurringTask(id string, nextDue time.Time) error {
	_, err := s.db.Exec(
		`UPDATE tasks SET next_due_date = ?, updated_at = ? WHERE id = ?`,
		nextDue, time.Now().UTC(), id,
	)
	return err
}

// --- Notification Operations ---

// AddNotification appends a monitoring notification for a campaign.
func (s *Store) AddNotification(campaignID string, typ models.NotificationType, message string) (*models.Notification, error) {
	n := &models.Notification{
		ID:         uuid.New().String(),
		CampaignID: campaignID,
		Type:       typ,
		Message:    message,
		CreatedAt:  time.Now().UTC(),
	}

	_, err := s.db.Exec(
		`INSERT INTO notifications (id, campaign_id, type, message, created_at) VALUES (?, ?, ?, ?, ?)`,
		n.ID, n.CampaignID, n.Type, n.Message, n.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("insert notification: %w", err)
	}
	return n, nil
}

// ListNotifications returns the notifications of a campaign, newest first.
func (s *Store) ListNotifications(campaignID string) ([]models.Notification, error) {
	rows, err := s.db.Query(
		`SELECT id, campaign_id, type, message, created_at FROM notifications WHERE campaign_id = ? ORDER BY created_at DESC`,
		campaignID,
	)
	if err != nil {
		return nil, fmt.Errorf("query notifications: %w", err)
	}
	defer rows.Close()

	var notifications []models.Notification
	for rows.Next() {
		var n models.Notification
		if err := rows.Scan(&n.ID, &n.CampaignID, &n.Type, &n.Message, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan notification: %w", err)
		}
		notifications = append(notifications, n)
	}
	return notifications, rows.Err()
}

// --- Event Log Operations ---

// EventRecord is one row of the persisted event log.
type EventRecord struct {
	ID         string    `json:"id"`
	CampaignID string    `json:"campaign_id"`
	Type       string    `json:"type"`
	Detail     string    `json:"detail,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// AppendEvent writes one event log row.
func (s *Store) AppendEvent(campaignID, typ, detail string) error {
	_, err := s.db.Exec(
		`INSERT INTO events (id, campaign_id, type, detail, created_at) VALUES (?, ?, ?, ?, ?)`,
		uuid.New().String(), campaignID, typ, detail, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("insert event: %w", err)
	}
	return nil
}

// ListEvents returns the event log for a campaign, newest first.
func (s *Store) ListEvents(campaignID string) ([]EventRecord, error) {
	rows, err := s.db.Query(
		`SELECT id, campaign_id, type, detail, created_at FROM events WHERE campaign_id = ? ORDER BY created_at DESC LIMIT 200`,
		campaignID,
	)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	var records []EventRecord
	for rows.Next() {
		var r EventRecord
		var detail sql.NullString
		if err := rows.Scan(&r.ID, &r.CampaignID, &r.Type, &detail, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		if detail.Valid {
			r.Detail = detail.String
		}
		records = append(records, r)
	}
	return records, rows.Err()
}
