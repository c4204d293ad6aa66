package brief

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/promodesk/campaignd/internal/extract"
	"github.com/promodesk/campaignd/internal/models"
)

// BriefSaver persists compiled briefs.
type BriefSaver interface {
	SaveBrief(b *models.CampaignBrief) error
}

// Compiler runs the full intake pipeline and produces the immutable
// CampaignBrief. It is the sole writer of brief records.
type Compiler struct {
	extractor *extract.Extractor
	validator *Validator
	advisor   *Advisor
	saver     BriefSaver
	logger    *zap.Logger

	// Test hook
	now func() time.Time
}

// NewCompiler wires the intake pipeline stages together.
func NewCompiler(ex *extract.Extractor, v *Validator, a *Advisor, saver BriefSaver, logger *zap.Logger) *Compiler {
	return &Compiler{
		extractor: ex,
		validator: v,
		advisor:   a,
		saver:     saver,
		logger:    logger,
		now:       time.Now,
	}
}

// Compile extracts, validates and enhances a transcript, then persists
// and returns the compiled brief. Validation failures do not abort
// compilation; the result carries its own readiness flag.
func (c *Compiler) Compile(ctx context.Context, transcript, hint string) (*models.CampaignBrief, error) {
	extraction, err := c.extractor.Extract(ctx, transcript, hint)
	if err != nil {
		return nil, err
	}

	now := c.now().UTC()
	campaignType := extract.DetectCampaignType(transcript)
	validation := c.validator.Validate(extraction, campaignType)
	enhancement := c.advisor.Advise(extraction.Fields, now)

	b := &models.CampaignBrief{
		ID:           uuid.New().String(),
		ArtistName:   extraction.Fields[extract.FieldArtistName],
		SongTitle:    extraction.Fields[extract.FieldTrackTitle],
		Genre:        extraction.Fields[extract.FieldGenre],
		Priority:     resolvePriority(extraction.Fields, campaignType),
		CampaignType: campaignType,
		Extraction:   *extraction,
		Validation:   validation,
		Enhancement:  enhancement,
		CreatedAt:    now,
	}

	if raw, ok := extraction.Fields[extract.FieldBudget]; ok {
		if budget, err := ParseBudget(raw); err == nil {
			b.Budget = budget
		}
	}
	if raw, ok := extraction.Fields[extract.FieldReleaseDate]; ok {
		if release, err := ParseReleaseDate(raw, now); err == nil {
			b.ReleaseDate = release
		}
	}
	if raw, ok := extraction.Fields[extract.FieldTargets]; ok {
		for _, t := range strings.Split(raw, ",") {
			if t = strings.TrimSpace(t); t != "" {
				b.Territories = append(b.Territories, t)
			}
		}
	}

	if err := c.saver.SaveBrief(b); err != nil {
		return nil, fmt.Errorf("saving brief: %w", err)
	}

	c.logger.Info("brief compiled",
		zap.String("brief_id", b.ID),
		zap.String("artist", b.ArtistName),
		zap.String("campaign_type", string(b.CampaignType)),
		zap.Int("score", validation.Score),
		zap.Bool("ready", validation.ReadyForNext))

	return b, nil
}

// resolvePriority picks the brief priority from the extracted field,
// defaulting rush campaigns to high and everything else to medium.
func resolvePriority(fields map[string]string, ct models.CampaignType) models.Priority {
	if raw, ok := fields[extract.FieldPriority]; ok {
		p := models.Priority(strings.ToLower(raw))
		if models.ValidPriority(p) {
			return p
		}
	}
	if ct == models.CampaignTypeRush {
		return models.PriorityHigh
	}
	return models.PriorityMedium
}
