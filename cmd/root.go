package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/wardbuddy/wardbuddy/internal/store"
)

var rootCmd = &cobra.Command{
	Use:   "wardbuddy",
	Short: "Clinical-case tutoring assistant",
	Long:  "WardBuddy — browser-based clinical learning assistant that gives adaptive feedback on case presentations.",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd)
	},
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().String("db", "", "Path to SQLite database file (overrides WARDBUDDY_DB env var)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(llmCmd)
	rootCmd.AddCommand(versionCmd)
}

// resolveDBPath returns the database path using --db flag (highest
// priority), then WARDBUDDY_DB, then the default XDG path.
func resolveDBPath(cmd *cobra.Command) (string, error) {
	if p, _ := cmd.Flags().GetString("db"); p != "" {
		return p, nil
	}
	return store.DefaultDBPath()
}

// persistencePath is like resolveDBPath but only when persistence was
// explicitly requested; serving stays memory-only otherwise.
func persistencePath(cmd *cobra.Command) string {
	if p, _ := cmd.Flags().GetString("db"); p != "" {
		return p
	}
	return os.Getenv("WARDBUDDY_DB")
}
