package extract

import (
	"context"
	"encoding/json"
	"regexp"
	"strings"
)

// Per-field regex tables. First capturing match wins.
var (
	artistPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)artist[:\s]+([^,\n]+)`),
		regexp.MustCompile(`(?i)band[:\s]+([^,\n]+)`),
		regexp.MustCompile(`(?i)act[:\s]+([^,\n]+)`),
		regexp.MustCompile(`(?i)client[:\s]+([^,\n]+)`),
	}

	trackPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)track[:\s]+"([^"]+)"`),
		regexp.MustCompile(`(?i)song[:\s]+"([^"]+)"`),
		regexp.MustCompile(`(?i)single[:\s]+"([^"]+)"`),
		regexp.MustCompile(`(?i)release[:\s]+"([^"]+)"`),
	}

	genrePatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)it's\s+(?:an?\s+)?([^,\n]+?)\s+(?:track|song|genre)`),
		regexp.MustCompile(`(?i)genre[:\s]+([^,\n]+)`),
		regexp.MustCompile(`(?i)style[:\s]+([^,\n]+)`),
	}

	budgetPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)budget[:\s]*(?:is\s+)?(?:around\s+)?[£$]?(\d+(?:,\d{3})*)`),
		regexp.MustCompile(`(?i)spend[:\s]*(?:up\s+to\s+)?[£$]?(\d+(?:,\d{3})*)`),
	}

	releasePatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)release[:\s]+(?:date\s+)?(?:is\s+)?([^,\n]+)`),
		regexp.MustCompile(`(?i)launching[:\s]+([^,\n]+)`),
		regexp.MustCompile(`(?i)deadline[:\s]+([^,\n]+)`),
	}

	priorityPattern = regexp.MustCompile(`(?i)priority[:\s]+(high|medium|low)`)
	priorityWord    = regexp.MustCompile(`(?i)priority`)

	quotePattern = regexp.MustCompile(`"([^"\n]{4,})"`)
)

// fieldConfidence is the confidence assigned to each field the pattern
// tables manage to extract.
var fieldConfidence = map[string]int{
	FieldArtistName:  90,
	FieldTrackTitle:  85,
	FieldGenre:       80,
	FieldBudget:      75,
	FieldReleaseDate: 88,
	FieldPriority:    70,
}

// PatternUnderstander extracts fields with regex tables. It needs no
// network access and is fully deterministic, so it serves as the default
// understander and the test double for LLM-backed ones.
type PatternUnderstander struct{}

// NewPatternUnderstander returns the deterministic understander.
func NewPatternUnderstander() *PatternUnderstander {
	return &PatternUnderstander{}
}

func (p *PatternUnderstander) Name() string { return "pattern" }

// Understand scans the transcript with the field pattern tables and
// emits the extraction document as JSON.
func (p *PatternUnderstander) Understand(ctx context.Context, transcript, hint string) ([]byte, error) {
	fields := map[string]string{}

	if v := firstMatch(transcript, artistPatterns); v != "" {
		fields[FieldArtistName] = v
	}
	if v := firstMatch(transcript, trackPatterns); v != "" {
		fields[FieldTrackTitle] = v
	}
	if v := firstMatch(transcript, genrePatterns); v != "" {
		fields[FieldGenre] = v
	}
	if v := firstMatch(transcript, budgetPatterns); v != "" {
		fields[FieldBudget] = strings.ReplaceAll(v, ",", "")
	}
	if v := firstMatch(transcript, releasePatterns); v != "" {
		fields[FieldReleaseDate] = v
	}

	if m := priorityPattern.FindStringSubmatch(transcript); m != nil {
		fields[FieldPriority] = strings.ToLower(m[1])
	} else if priorityWord.MatchString(transcript) {
		fields[FieldPriority] = "high"
	}

	confidence := map[string]int{}
	total := 0
	for name := range fields {
		c := fieldConfidence[name]
		confidence[name] = c
		total += c
	}
	overall := 0
	if len(fields) > 0 {
		overall = total / len(fields)
	}

	var quotes []string
	for _, m := range quotePattern.FindAllStringSubmatch(transcript, 5) {
		quotes = append(quotes, m[1])
	}

	var actions []string
	if _, ok := fields[FieldTrackTitle]; !ok {
		actions = append(actions, "Confirm final track title with artist")
	}
	if _, ok := fields[FieldBudget]; !ok {
		actions = append(actions, "Confirm campaign budget")
	}
	if _, ok := fields[FieldReleaseDate]; !ok {
		actions = append(actions, "Agree release date with the label")
	}

	return json.Marshal(extractionDoc{
		Fields:            fields,
		Confidence:        confidence,
		OverallConfidence: &overall,
		Quotes:            quotes,
		SuggestedActions:  actions,
	})
}

func firstMatch(text string, patterns []*regexp.Regexp) string {
	for _, re := range patterns {
		if m := re.FindStringSubmatch(text); m != nil {
			return strings.TrimSpace(m[1])
		}
	}
	return ""
}
