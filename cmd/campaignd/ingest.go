package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/promodesk/campaignd/internal/models"
)

var (
	ingestHint string
	ingestOut  string
)

var ingestCmd = &cobra.Command{
	Use:   "ingest [transcript-file]",
	Short: "Compile a campaign brief from a meeting transcript",
	Long:  `Reads a transcript from a file (or stdin when omitted), runs the intake pipeline on the daemon, and prints the compiled brief.`,
	Args:  cobra.MaximumNArgs(1),
	RunE:  runIngest,
}

func init() {
	ingestCmd.Flags().StringVar(&ingestHint, "hint", "", "Extraction hint passed to the understander")
	ingestCmd.Flags().StringVar(&ingestOut, "out", "", "Write the compiled brief JSON to this file")
}

func readTranscript(args []string) (string, error) {
	if len(args) == 1 && args[0] != "-" {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return "", fmt.Errorf("reading transcript: %w", err)
		}
		return string(data), nil
	}
	data, err := io.ReadAll(os.Stdin)
	if err != nil {
		return "", fmt.Errorf("reading stdin: %w", err)
	}
	return string(data), nil
}

func runIngest(cmd *cobra.Command, args []string) error {
	transcript, err := readTranscript(args)
	if err != nil {
		return err
	}
	if strings.TrimSpace(transcript) == "" {
		return fmt.Errorf("transcript is empty")
	}

	resp, err := apiPost("/briefs", map[string]string{
		"transcript": transcript,
		"hint":       ingestHint,
	})
	if err != nil {
		return err
	}

	var b models.CampaignBrief
	if err := json.Unmarshal(resp, &b); err != nil {
		return fmt.Errorf("parsing response: %w", err)
	}

	if ingestOut != "" {
		pretty, err := json.MarshalIndent(&b, "", "  ")
		if err != nil {
			return err
		}
		if err := os.WriteFile(ingestOut, pretty, 0o644); err != nil {
			return fmt.Errorf("writing brief: %w", err)
		}
		fmt.Printf("Brief written to %s\n", ingestOut)
	}

	printBrief(&b)
	return nil
}

func printBrief(b *models.CampaignBrief) {
	fmt.Printf("Brief %s\n", b.ID)
	fmt.Printf("  Artist:   %s\n", orDash(b.ArtistName))
	fmt.Printf("  Track:    %s\n", orDash(b.SongTitle))
	fmt.Printf("  Genre:    %s\n", orDash(b.Genre))
	fmt.Printf("  Type:     %s\n", b.CampaignType)
	fmt.Printf("  Priority: %s\n", b.Priority)
	if b.Budget > 0 {
		fmt.Printf("  Budget:   %d\n", b.Budget)
	}
	if !b.ReleaseDate.IsZero() {
		fmt.Printf("  Release:  %s\n", b.ReleaseDate.Format("2006-01-02"))
	}
	fmt.Printf("  Score:    %d (ready: %v)\n", b.Validation.Score, b.Validation.ReadyForNext)
	if len(b.Validation.MissingFields) > 0 {
		fmt.Printf("  Missing:  %s\n", strings.Join(b.Validation.MissingFields, ", "))
	}
	for _, rec := range b.Validation.Recommendations {
		fmt.Printf("  - %s\n", rec)
	}
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
