// Package campaign orchestrates the intake pipeline and campaign
// creation on top of the store, generator and event bus.
package campaign

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/promodesk/campaignd/internal/brief"
	"github.com/promodesk/campaignd/internal/events"
	"github.com/promodesk/campaignd/internal/generate"
	"github.com/promodesk/campaignd/internal/models"
	"github.com/promodesk/campaignd/internal/store"
	"github.com/promodesk/campaignd/internal/templates"
)

// ErrBriefNotReady indicates the compiled brief did not pass validation
// readiness and campaign creation was not overridden.
var ErrBriefNotReady = errors.New("brief not ready for campaign creation")

// Service ties the pipeline stages together. It is the only entry point
// for creating campaigns.
type Service struct {
	store     *store.Store
	compiler  *brief.Compiler
	generator *generate.Generator
	bus       *events.Bus
	logger    *zap.Logger

	// Test hook
	now func() time.Time
}

// NewService creates the campaign service.
func NewService(s *store.Store, c *brief.Compiler, g *generate.Generator, bus *events.Bus, logger *zap.Logger) *Service {
	return &Service{
		store:     s,
		compiler:  c,
		generator: g,
		bus:       bus,
		logger:    logger,
		now:       time.Now,
	}
}

// IngestTranscript runs the intake pipeline and returns the compiled
// brief without creating a campaign.
func (s *Service) IngestTranscript(ctx context.Context, transcript, hint string) (*models.CampaignBrief, error) {
	return s.compiler.Compile(ctx, transcript, hint)
}

// CreateResult is the full output of a campaign creation.
type CreateResult struct {
	Campaign *models.Campaign      `json:"campaign"`
	Brief    *models.CampaignBrief `json:"brief"`
	Board    models.Board          `json:"board"`
	Groups   []models.Group        `json:"groups"`
	Tasks    []models.Task         `json:"tasks"`
}

// CreateCampaign compiles a brief from the transcript and materializes
// the selected template. A brief that is not ready fails with
// ErrBriefNotReady unless overrideReady is set.
func (s *Service) CreateCampaign(ctx context.Context, transcript, hint string, overrideReady bool) (*CreateResult, error) {
	b, err := s.compiler.Compile(ctx, transcript, hint)
	if err != nil {
		return nil, err
	}

	if !b.Validation.ReadyForNext && !overrideReady {
		return nil, fmt.Errorf("%w: brief %s scored %d (%s)",
			ErrBriefNotReady, b.ID, b.Validation.Score, b.CampaignType)
	}

	now := s.now().UTC()
	tmpl := templates.Select(b, now)

	reference := b.ReleaseDate
	if reference.IsZero() {
		reference = now.Truncate(24 * time.Hour)
	}

	campaignID := uuid.New().String()
	result, err := s.generator.Generate(ctx, b, tmpl, campaignID)
	if err != nil {
		return nil, err
	}

	var milestones int
	for i := range result.Tasks {
		if result.Tasks[i].Milestone {
			milestones++
		}
	}

	c := &models.Campaign{
		ID:       campaignID,
		BriefID:  b.ID,
		Brief:    b,
		BoardID:  result.Board.ID,
		Template: tmpl.Key,
		Status:   models.CampaignStatusActive,
		Metrics: models.Metrics{
			TotalTasks:      len(result.Tasks),
			MilestonesTotal: milestones,
		},
		Timeline:  generate.ComputeTimeline(tmpl, reference, now),
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.store.RegisterCampaign(c, &result.Board, result.Groups, result.Tasks); err != nil {
		return nil, fmt.Errorf("registering campaign: %w", err)
	}

	if err := s.store.AppendEvent(c.ID, string(events.CampaignCreated), tmpl.Key); err != nil {
		s.logger.Error("recording creation event failed", zap.Error(err))
	}
	s.bus.Publish(events.Event{Type: events.CampaignCreated, CampaignID: c.ID, Detail: tmpl.Key})

	s.logger.Info("campaign created",
		zap.String("campaign_id", c.ID),
		zap.String("brief_id", b.ID),
		zap.String("template", tmpl.Key),
		zap.Int("tasks", len(result.Tasks)))

	return &CreateResult{
		Campaign: c,
		Brief:    b,
		Board:    result.Board,
		Groups:   result.Groups,
		Tasks:    result.Tasks,
	}, nil
}

// GetCampaign returns a campaign with its brief attached. Returns nil
// when not found.
func (s *Service) GetCampaign(id string) (*models.Campaign, error) {
	c, err := s.store.GetCampaign(id)
	if err != nil || c == nil {
		return c, err
	}
	b, err := s.store.GetBrief(c.BriefID)
	if err != nil {
		return nil, err
	}
	c.Brief = b
	return c, nil
}

// ListCampaigns returns all campaigns, optionally filtered by status.
func (s *Service) ListCampaigns(status models.CampaignStatus) ([]models.Campaign, error) {
	return s.store.ListCampaigns(status)
}

// ListTasks returns the tasks of a campaign.
func (s *Service) ListTasks(campaignID string) ([]models.Task, error) {
	return s.store.ListTasks(campaignID)
}

// ListNotifications returns the notifications of a campaign.
func (s *Service) ListNotifications(campaignID string) ([]models.Notification, error) {
	return s.store.ListNotifications(campaignID)
}

// GetBoard returns the board of a campaign. Returns nil when not found.
func (s *Service) GetBoard(campaignID string) (*models.Board, error) {
	return s.store.GetBoard(campaignID)
}
