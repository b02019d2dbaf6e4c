package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "casequiz",
	Short: "Adaptive practice for driver-license assessment interviews",
	Long: "casequiz turns a personal case narrative into a bank of practice questions,\n" +
		"runs scored practice sessions and serves the same engine over HTTP.",
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runPractice(cmd, 0)
	},
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().String("db", "", "Database path or DSN (overrides CASEQUIZ_DB)")
	rootCmd.PersistentFlags().String("env-file", ".env", "Optional dotenv file to load")
	rootCmd.PersistentFlags().StringP("user", "u", defaultUser(), "User ID (defaults to CASEQUIZ_USER)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(ingestCmd)
	rootCmd.AddCommand(practiceCmd)
	rootCmd.AddCommand(resetCmd)
	rootCmd.AddCommand(llmCmd)
	rootCmd.AddCommand(versionCmd)
}

func defaultUser() string {
	if u := os.Getenv("CASEQUIZ_USER"); u != "" {
		return u
	}
	return "local"
}
