// Package extract turns raw meeting transcripts into structured campaign
// field extractions.
package extract

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/promodesk/campaignd/internal/models"
)

// ErrExtraction indicates the understander output could not be parsed
// into a usable extraction.
var ErrExtraction = errors.New("extraction failed")

// Canonical field names produced by extraction.
const (
	FieldArtistName  = "artistName"
	FieldTrackTitle  = "trackTitle"
	FieldGenre       = "genre"
	FieldReleaseDate = "releaseDate"
	FieldBudget      = "budget"
	FieldTargets     = "targets"
	FieldPriority    = "priority"
	FieldDeadline    = "deadline"
)

// TextUnderstander produces a JSON extraction document from a transcript.
// Implementations may call out to an LLM; the bundled PatternUnderstander
// is deterministic.
type TextUnderstander interface {
	Name() string
	Understand(ctx context.Context, transcript, hint string) ([]byte, error)
}

// Extractor parses and shape-checks understander output.
type Extractor struct {
	understander TextUnderstander
	logger       *zap.Logger
}

// New creates an extractor backed by the given understander.
func New(u TextUnderstander, logger *zap.Logger) *Extractor {
	return &Extractor{understander: u, logger: logger}
}

// extractionDoc is the wire shape expected from an understander.
type extractionDoc struct {
	Fields            map[string]string `json:"fields"`
	Confidence        map[string]int    `json:"confidence"`
	OverallConfidence *int              `json:"overallConfidence"`
	Quotes            []string          `json:"quotes"`
	SuggestedActions  []string          `json:"suggestedActions"`
}

// Extract runs the understander over the transcript and validates the
// document shape. Parse or shape violations return an error wrapping
// ErrExtraction.
func (e *Extractor) Extract(ctx context.Context, transcript, hint string) (*models.Extraction, error) {
	raw, err := e.understander.Understand(ctx, transcript, hint)
	if err != nil {
		return nil, fmt.Errorf("%w: understander %s: %v", ErrExtraction, e.understander.Name(), err)
	}

	var doc extractionDoc
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("%w: parsing understander output: %v", ErrExtraction, err)
	}

	if doc.Fields == nil {
		return nil, fmt.Errorf("%w: output missing fields object", ErrExtraction)
	}
	if doc.Confidence == nil {
		return nil, fmt.Errorf("%w: output missing confidence object", ErrExtraction)
	}
	if doc.OverallConfidence == nil {
		return nil, fmt.Errorf("%w: output missing overallConfidence", ErrExtraction)
	}
	if *doc.OverallConfidence < 0 || *doc.OverallConfidence > 100 {
		return nil, fmt.Errorf("%w: overallConfidence %d out of range", ErrExtraction, *doc.OverallConfidence)
	}

	fields := make(map[string]string, len(doc.Fields))
	for k, v := range doc.Fields {
		v = strings.TrimSpace(v)
		if v != "" {
			fields[k] = v
		}
	}

	confidence := make(map[string]int, len(doc.Confidence))
	for k, v := range doc.Confidence {
		if v < 0 {
			v = 0
		}
		if v > 100 {
			v = 100
		}
		confidence[k] = v
	}

	e.logger.Debug("transcript extracted",
		zap.String("understander", e.understander.Name()),
		zap.Int("fields", len(fields)),
		zap.Int("overall_confidence", *doc.OverallConfidence))

	return &models.Extraction{
		Fields:            fields,
		Confidence:        confidence,
		OverallConfidence: *doc.OverallConfidence,
		Quotes:            doc.Quotes,
		SuggestedActions:  doc.SuggestedActions,
	}, nil
}

// campaignTypeIndicators maps campaign types to the transcript phrases
// that signal them. Rush wins over premium when both appear.
var campaignTypeIndicators = []struct {
	campaignType models.CampaignType
	phrases      []string
}{
	{models.CampaignTypeRush, []string{"rush job", "urgent", "asap", "emergency", "quick turnaround"}},
	{models.CampaignTypePremium, []string{"premium package", "deluxe service", "full service", "comprehensive"}},
}

// DetectCampaignType scans the transcript for campaign type indicators.
// No indicator means a standard campaign.
func DetectCampaignType(transcript string) models.CampaignType {
	lower := strings.ToLower(transcript)
	for _, ind := range campaignTypeIndicators {
		for _, phrase := range ind.phrases {
			if strings.Contains(lower, phrase) {
				return ind.campaignType
			}
		}
	}
	return models.CampaignTypeStandard
}
