package brief

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/promodesk/campaignd/internal/extract"
)

var adviseNow = time.Date(2026, 8, 28, 0, 0, 0, 0, time.UTC)

func TestAdviseDefaults(t *testing.T) {
	a := NewAdvisor()
	enh := a.Advise(map[string]string{}, adviseNow)

	assert.Equal(t, []string{"Target genre-appropriate radio stations and shows"}, enh.Strategies)
	assert.Equal(t, "Allocate 60% to station outreach, 40% to tracking and follow-up", enh.BudgetAllocation)
	assert.Equal(t, "Standard campaign timeline - begin outreach immediately", enh.Urgency)
	assert.Len(t, enh.SuccessMetrics, 4)
}

func TestAdviseGenreStrategies(t *testing.T) {
	a := NewAdvisor()

	enh := a.Advise(map[string]string{extract.FieldGenre: "Electronic / Dance"}, adviseNow)
	assert.Contains(t, enh.Strategies, "Target specialist electronic music shows")
	assert.Contains(t, enh.SuccessMetrics, "Monitor specialist show features")
	assert.Len(t, enh.SuccessMetrics, 5)

	enh = a.Advise(map[string]string{extract.FieldGenre: "indie rock"}, adviseNow)
	assert.Contains(t, enh.Strategies, "Prioritise BBC Introducing stations")
	assert.Contains(t, enh.SuccessMetrics, "Track BBC Introducing support")

	enh = a.Advise(map[string]string{extract.FieldGenre: "pop"}, adviseNow)
	assert.Contains(t, enh.Strategies, "Target commercial radio breakfast and drivetime shows")
	assert.Len(t, enh.SuccessMetrics, 4, "no extra metric for pop")
}

func TestAdviseBudgetBrackets(t *testing.T) {
	a := NewAdvisor()

	tests := []struct {
		budget string
		want   string
	}{
		{"500", "Allocate 60% to station outreach, 40% to tracking and follow-up"},
		{"2000", "Allocate 50% to station outreach, 30% to premium placements, 20% to tracking"},
		{"£5,000", "Allocate 40% to premium stations, 35% to targeted outreach, 25% to tracking and reporting"},
	}

	for _, tt := range tests {
		enh := a.Advise(map[string]string{extract.FieldBudget: tt.budget}, adviseNow)
		assert.Equal(t, tt.want, enh.BudgetAllocation, "budget: %s", tt.budget)
	}
}

func TestAdviseUrgency(t *testing.T) {
	a := NewAdvisor()

	tests := []struct {
		release string
		want    string
	}{
		{"2026-08-31", "Rush campaign recommended - focus on immediate outreach"},
		{"2026-09-10", "Standard campaign timeline - begin outreach immediately"},
		{"2026-10-20", "Extended campaign possible - consider pre-release buzz building"},
	}

	for _, tt := range tests {
		enh := a.Advise(map[string]string{extract.FieldReleaseDate: tt.release}, adviseNow)
		assert.Equal(t, tt.want, enh.Urgency, "release: %s", tt.release)
	}
}
