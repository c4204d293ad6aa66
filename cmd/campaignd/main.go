package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version is set at build time.
var Version = "dev"

var rootCmd = &cobra.Command{
	Use:   "campaignd",
	Short: "campaignd - radio campaign automation",
	Long:  `campaignd turns meeting transcripts into validated campaign briefs, materializes them as scheduled task boards on a project backend, and monitors the resulting campaigns.`,
	// No RunE - defaults to showing help when no subcommand is provided
}

var (
	apiAddr string
)

func init() {
	rootCmd.PersistentFlags().StringVar(&apiAddr, "api", "http://127.0.0.1:8799", "API server address")

	// Add subcommands
	rootCmd.AddCommand(daemonCmd)
	rootCmd.AddCommand(ingestCmd)
	rootCmd.AddCommand(campaignCmd)
	rootCmd.AddCommand(tuiCmd)
	rootCmd.AddCommand(healthCmd)
	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the campaignd version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println(Version)
	},
}

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check daemon health",
	RunE: func(cmd *cobra.Command, args []string) error {
		health, err := CheckHealth()
		if err != nil {
			if health != nil {
				fmt.Printf("Daemon unhealthy: db=%s version=%s\n", health.DB, health.Version)
			}
			return err
		}
		fmt.Printf("Daemon healthy: version=%s time=%s\n", health.Version, health.Time)
		return nil
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
