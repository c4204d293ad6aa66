// Package brief validates, enriches and compiles campaign briefs from
// transcript extractions.
package brief

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/promodesk/campaignd/internal/extract"
	"github.com/promodesk/campaignd/internal/models"
)

// Rules is the field requirement set for one campaign type.
type Rules struct {
	Required  []string
	Optional  []string
	MinBudget int
}

var rulesByType = map[models.CampaignType]Rules{
	models.CampaignTypeStandard: {
		Required: []string{extract.FieldArtistName, extract.FieldTrackTitle, extract.FieldGenre},
		Optional: []string{extract.FieldReleaseDate, extract.FieldBudget, extract.FieldPriority, extract.FieldTargets},
	},
	models.CampaignTypeRush: {
		Required: []string{extract.FieldArtistName, extract.FieldTrackTitle, extract.FieldGenre, extract.FieldDeadline},
		Optional: []string{extract.FieldReleaseDate, extract.FieldBudget, extract.FieldPriority, extract.FieldTargets},
	},
	models.CampaignTypePremium: {
		Required:  []string{extract.FieldArtistName, extract.FieldTrackTitle, extract.FieldGenre, extract.FieldBudget, extract.FieldTargets},
		Optional:  []string{extract.FieldReleaseDate, extract.FieldPriority},
		MinBudget: 1000,
	},
}

// RulesFor returns the requirement set for a campaign type. Unknown
// types validate as standard.
func RulesFor(ct models.CampaignType) Rules {
	if r, ok := rulesByType[ct]; ok {
		return r
	}
	return rulesByType[models.CampaignTypeStandard]
}

// Validator checks extractions against campaign type requirements.
// Missing or malformed data never produces an error, only a result.
type Validator struct {
	logger *zap.Logger
}

// NewValidator creates a validator.
func NewValidator(logger *zap.Logger) *Validator {
	return &Validator{logger: logger}
}

// Validate scores an extraction for a campaign type. The score starts at
// the extraction's overall confidence, loses 20 per missing required
// field and 10 per inconsistency, gains 5 per optional field present,
// and is clamped to [0,100]. ReadyForNext requires validity and a score
// of at least 70.
func (v *Validator) Validate(ex *models.Extraction, ct models.CampaignType) models.ValidationResult {
	rules := RulesFor(ct)
	result := models.ValidationResult{Valid: true}

	for _, field := range rules.Required {
		if _, ok := ex.Fields[field]; !ok {
			result.MissingFields = append(result.MissingFields, field)
			result.Valid = false
		}
	}

	for _, field := range rules.Optional {
		if _, ok := ex.Fields[field]; ok {
			result.OptionalPresent = append(result.OptionalPresent, field)
		}
	}

	budget, budgetOK := 0, false
	if raw, ok := ex.Fields[extract.FieldBudget]; ok {
		var err error
		budget, err = ParseBudget(raw)
		if err != nil {
			result.Inconsistencies = append(result.Inconsistencies, "budget is not a valid amount")
		} else {
			budgetOK = true
		}
	}
	if rules.MinBudget > 0 && budgetOK && budget < rules.MinBudget {
		result.Inconsistencies = append(result.Inconsistencies,
			fmt.Sprintf("budget below %s minimum of %d", ct, rules.MinBudget))
	}

	if raw, ok := ex.Fields[extract.FieldReleaseDate]; ok {
		if _, err := ParseReleaseDate(raw, time.Now()); err != nil {
			result.Inconsistencies = append(result.Inconsistencies, "release date format is not valid")
		}
	}

	if raw, ok := ex.Fields[extract.FieldPriority]; ok {
		if !models.ValidPriority(models.Priority(strings.ToLower(raw))) {
			result.Inconsistencies = append(result.Inconsistencies, "priority must be low, medium, high or critical")
		}
	}

	score := ex.OverallConfidence
	score -= 20 * len(result.MissingFields)
	score -= 10 * len(result.Inconsistencies)
	score += 5 * len(result.OptionalPresent)
	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}
	result.Score = score
	result.ReadyForNext = result.Valid && score >= 70
	result.Recommendations = v.recommendations(ex, &result)

	v.logger.Debug("brief validated",
		zap.String("campaign_type", string(ct)),
		zap.Int("score", score),
		zap.Bool("ready", result.ReadyForNext),
		zap.Strings("missing", result.MissingFields))

	return result
}

func (v *Validator) recommendations(ex *models.Extraction, result *models.ValidationResult) []string {
	var recs []string

	if len(result.MissingFields) > 0 {
		recs = append(recs, "Clarify missing information: "+strings.Join(result.MissingFields, ", "))
	}
	if _, ok := ex.Fields[extract.FieldBudget]; !ok {
		recs = append(recs, "Confirm campaign budget to optimize targeting strategy")
	}
	if _, ok := ex.Fields[extract.FieldReleaseDate]; !ok {
		recs = append(recs, "Set release date to plan optimal campaign timing")
	}
	if ex.OverallConfidence < 80 {
		recs = append(recs, "Consider reviewing transcript for additional details")
	}

	return recs
}

var (
	budgetStrip   = strings.NewReplacer("£", "", "$", "", ",", "", " ", "")
	ordinalSuffix = regexp.MustCompile(`(\d+)(st|nd|rd|th)`)
)

// ParseBudget converts an extracted budget string to a whole amount,
// tolerating currency symbols and thousands separators. Amounts must be
// non-negative.
func ParseBudget(raw string) (int, error) {
	cleaned := budgetStrip.Replace(strings.TrimSpace(raw))
	amount, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, fmt.Errorf("parsing budget %q: %w", raw, err)
	}
	if amount < 0 {
		return 0, fmt.Errorf("budget %q is negative", raw)
	}
	return int(amount), nil
}

var releaseLayouts = []string{
	"2006-01-02",
	"02/01/2006",
	"January 2, 2006",
	"January 2 2006",
	"2 January 2006",
	"Jan 2, 2006",
	"Jan 2 2006",
}

var dayOnlyLayouts = []string{
	"January 2",
	"Jan 2",
	"2 January",
}

// ParseReleaseDate parses the loose date formats that show up in meeting
// transcripts. Dates without a year resolve to the next occurrence on or
// after now.
func ParseReleaseDate(raw string, now time.Time) (time.Time, error) {
	cleaned := strings.TrimSpace(ordinalSuffix.ReplaceAllString(raw, "$1"))

	for _, layout := range releaseLayouts {
		if t, err := time.Parse(layout, cleaned); err == nil {
			return t, nil
		}
	}
	for _, layout := range dayOnlyLayouts {
		if t, err := time.Parse(layout, cleaned); err == nil {
			t = time.Date(now.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
			if t.Before(now.Truncate(24 * time.Hour)) {
				t = t.AddDate(1, 0, 0)
			}
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", raw)
}
