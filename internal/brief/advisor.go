package brief

import (
	"strings"
	"time"

	"github.com/promodesk/campaignd/internal/extract"
	"github.com/promodesk/campaignd/internal/models"
)

// Advisor layers strategy, budget and timing suggestions onto a
// validated brief. Pure lookup tables, no failure modes.
type Advisor struct{}

// NewAdvisor creates an advisor.
func NewAdvisor() *Advisor {
	return &Advisor{}
}

var genreStrategies = map[string][]string{
	"electronic": {
		"Target specialist electronic music shows",
		"Consider Amazing Radio and BBC Radio 1 Dance",
		"Focus on late-night and weekend slots",
	},
	"indie": {
		"Prioritise BBC Introducing stations",
		"Target university and community radio",
		"Consider alternative music blogs and podcasts",
	},
	"pop": {
		"Target commercial radio breakfast and drivetime shows",
		"Consider regional commercial stations",
		"Focus on daytime programming slots",
	},
}

var baseSuccessMetrics = []string{
	"Track total radio plays via airplay monitoring",
	"Monitor station pickup rate",
	"Measure audience reach and impressions",
	"Track playlist additions",
}

// Advise builds an enhancement for the extracted fields. Every table has
// a generic default row, so the result is always fully populated.
func (a *Advisor) Advise(fields map[string]string, now time.Time) models.Enhancement {
	enh := models.Enhancement{
		Strategies:       []string{"Target genre-appropriate radio stations and shows"},
		BudgetAllocation: "Allocate 60% to station outreach, 40% to tracking and follow-up",
		Urgency:          "Standard campaign timeline - begin outreach immediately",
		SuccessMetrics:   append([]string(nil), baseSuccessMetrics...),
	}

	genre := strings.ToLower(fields[extract.FieldGenre])
	for key, strategies := range genreStrategies {
		if strings.Contains(genre, key) {
			enh.Strategies = strategies
			break
		}
	}
	switch {
	case strings.Contains(genre, "electronic"):
		enh.SuccessMetrics = append(enh.SuccessMetrics, "Monitor specialist show features")
	case strings.Contains(genre, "indie"):
		enh.SuccessMetrics = append(enh.SuccessMetrics, "Track BBC Introducing support")
	}

	if raw, ok := fields[extract.FieldBudget]; ok {
		if budget, err := ParseBudget(raw); err == nil {
			switch {
			case budget < 1000:
				enh.BudgetAllocation = "Allocate 60% to station outreach, 40% to tracking and follow-up"
			case budget < 3000:
				enh.BudgetAllocation = "Allocate 50% to station outreach, 30% to premium placements, 20% to tracking"
			default:
				enh.BudgetAllocation = "Allocate 40% to premium stations, 35% to targeted outreach, 25% to tracking and reporting"
			}
		}
	}

	if raw, ok := fields[extract.FieldReleaseDate]; ok {
		if release, err := ParseReleaseDate(raw, now); err == nil {
			days := int(release.Sub(now).Hours() / 24)
			switch {
			case days < 7:
				enh.Urgency = "Rush campaign recommended - focus on immediate outreach"
			case days < 21:
				enh.Urgency = "Standard campaign timeline - begin outreach immediately"
			default:
				enh.Urgency = "Extended campaign possible - consider pre-release buzz building"
			}
		}
	}

	return enh
}
