package brief

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/promodesk/campaignd/internal/extract"
	"github.com/promodesk/campaignd/internal/models"
)

func extraction(overall int, fields map[string]string) *models.Extraction {
	return &models.Extraction{
		Fields:            fields,
		Confidence:        map[string]int{},
		OverallConfidence: overall,
	}
}

func TestValidateStandardReady(t *testing.T) {
	v := NewValidator(zap.NewNop())
	ex := extraction(80, map[string]string{
		extract.FieldArtistName: "The Midnight Owls",
		extract.FieldTrackTitle: "Neon Skyline",
		extract.FieldGenre:      "electronic",
	})

	result := v.Validate(ex, models.CampaignTypeStandard)

	assert.True(t, result.Valid)
	assert.Empty(t, result.MissingFields)
	assert.Equal(t, 80, result.Score)
	assert.True(t, result.ReadyForNext)
}

func TestValidateOptionalFieldsRaiseScore(t *testing.T) {
	v := NewValidator(zap.NewNop())
	ex := extraction(80, map[string]string{
		extract.FieldArtistName:  "The Midnight Owls",
		extract.FieldTrackTitle:  "Neon Skyline",
		extract.FieldGenre:       "electronic",
		extract.FieldBudget:      "2500",
		extract.FieldReleaseDate: "2026-10-01",
	})

	result := v.Validate(ex, models.CampaignTypeStandard)

	assert.Equal(t, 90, result.Score, "80 base plus 5 per optional field")
	assert.ElementsMatch(t, []string{extract.FieldBudget, extract.FieldReleaseDate}, result.OptionalPresent)
	assert.Empty(t, result.Inconsistencies)
}

func TestValidateMissingRequiredFields(t *testing.T) {
	v := NewValidator(zap.NewNop())
	ex := extraction(80, map[string]string{
		extract.FieldArtistName: "The Midnight Owls",
	})

	result := v.Validate(ex, models.CampaignTypeStandard)

	assert.False(t, result.Valid)
	assert.ElementsMatch(t, []string{extract.FieldTrackTitle, extract.FieldGenre}, result.MissingFields)
	assert.Equal(t, 40, result.Score, "20 lost per missing required field")
	assert.False(t, result.ReadyForNext)
	require.NotEmpty(t, result.Recommendations)
	assert.Contains(t, result.Recommendations[0], "Clarify missing information")
}

func TestValidateInconsistencies(t *testing.T) {
	v := NewValidator(zap.NewNop())
	ex := extraction(60, map[string]string{
		extract.FieldArtistName: "The Midnight Owls",
		extract.FieldTrackTitle: "Neon Skyline",
		extract.FieldGenre:      "electronic",
		extract.FieldBudget:     "plenty",
		extract.FieldPriority:   "yesterday",
	})

	result := v.Validate(ex, models.CampaignTypeStandard)

	assert.True(t, result.Valid, "inconsistencies lower the score without invalidating")
	assert.Len(t, result.Inconsistencies, 2)
	assert.Equal(t, 50, result.Score, "60 base, +10 optional, -20 inconsistencies")
	assert.False(t, result.ReadyForNext)
}

func TestValidateNegativeBudget(t *testing.T) {
	v := NewValidator(zap.NewNop())
	ex := extraction(80, map[string]string{
		extract.FieldArtistName: "The Midnight Owls",
		extract.FieldTrackTitle: "Neon Skyline",
		extract.FieldGenre:      "electronic",
		extract.FieldBudget:     "-500",
	})

	result := v.Validate(ex, models.CampaignTypeStandard)

	require.Len(t, result.Inconsistencies, 1)
	assert.Contains(t, result.Inconsistencies[0], "budget is not a valid amount")
	assert.Equal(t, 75, result.Score, "80 base, +5 optional, -10 inconsistency")
}

func TestValidatePremiumMinBudget(t *testing.T) {
	v := NewValidator(zap.NewNop())
	ex := extraction(90, map[string]string{
		extract.FieldArtistName: "The Midnight Owls",
		extract.FieldTrackTitle: "Neon Skyline",
		extract.FieldGenre:      "electronic",
		extract.FieldBudget:     "500",
		extract.FieldTargets:    "UK, IE",
	})

	result := v.Validate(ex, models.CampaignTypePremium)

	assert.True(t, result.Valid)
	require.Len(t, result.Inconsistencies, 1)
	assert.Contains(t, result.Inconsistencies[0], "minimum of 1000")
	assert.Equal(t, 80, result.Score)
}

func TestValidateRushRequiresDeadline(t *testing.T) {
	v := NewValidator(zap.NewNop())
	ex := extraction(85, map[string]string{
		extract.FieldArtistName: "The Midnight Owls",
		extract.FieldTrackTitle: "Neon Skyline",
		extract.FieldGenre:      "electronic",
	})

	result := v.Validate(ex, models.CampaignTypeRush)

	assert.False(t, result.Valid)
	assert.Equal(t, []string{extract.FieldDeadline}, result.MissingFields)
}

func TestValidateScoreClamped(t *testing.T) {
	v := NewValidator(zap.NewNop())

	result := v.Validate(extraction(10, map[string]string{}), models.CampaignTypeStandard)
	assert.Equal(t, 0, result.Score, "score floor is zero")

	full := extraction(95, map[string]string{
		extract.FieldArtistName:  "A",
		extract.FieldTrackTitle:  "T",
		extract.FieldGenre:       "pop",
		extract.FieldBudget:      "2000",
		extract.FieldReleaseDate: "2026-10-01",
		extract.FieldPriority:    "high",
		extract.FieldTargets:     "UK",
	})
	result = v.Validate(full, models.CampaignTypeStandard)
	assert.Equal(t, 100, result.Score, "score ceiling is one hundred")
}

func TestValidateLowConfidenceRecommendation(t *testing.T) {
	v := NewValidator(zap.NewNop())
	ex := extraction(60, map[string]string{
		extract.FieldArtistName: "A",
		extract.FieldTrackTitle: "T",
		extract.FieldGenre:      "pop",
	})

	result := v.Validate(ex, models.CampaignTypeStandard)
	assert.Contains(t, result.Recommendations, "Consider reviewing transcript for additional details")
}

func TestParseBudget(t *testing.T) {
	tests := []struct {
		raw     string
		want    int
		wantErr bool
	}{
		{"£2,500", 2500, false},
		{"$1000", 1000, false},
		{" 750 ", 750, false},
		{"1,250,000", 1250000, false},
		{"0", 0, false},
		{"-500", 0, true},
		{"-£250", 0, true},
		{"plenty", 0, true},
		{"", 0, true},
	}

	for _, tt := range tests {
		got, err := ParseBudget(tt.raw)
		if tt.wantErr {
			assert.Error(t, err, "raw: %q", tt.raw)
			continue
		}
		require.NoError(t, err, "raw: %q", tt.raw)
		assert.Equal(t, tt.want, got, "raw: %q", tt.raw)
	}
}

func TestParseReleaseDate(t *testing.T) {
	now := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		raw  string
		want time.Time
	}{
		{"2026-10-01", time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)},
		{"15/03/2026", time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)},
		{"June 3rd, 2027", time.Date(2027, 6, 3, 0, 0, 0, 0, time.UTC)},
		{"3 June 2027", time.Date(2027, 6, 3, 0, 0, 0, 0, time.UTC)},
		{"December 25", time.Date(2026, 12, 25, 0, 0, 0, 0, time.UTC)},
		{"March 1", time.Date(2027, 3, 1, 0, 0, 0, 0, time.UTC)},
	}

	for _, tt := range tests {
		got, err := ParseReleaseDate(tt.raw, now)
		require.NoError(t, err, "raw: %q", tt.raw)
		assert.True(t, got.Equal(tt.want), "raw %q: got %v want %v", tt.raw, got, tt.want)
	}

	_, err := ParseReleaseDate("whenever it lands", now)
	assert.Error(t, err)
}
