package cmd

import (
	"github.com/spf13/cobra"

	"github.com/abhisek/casequiz/internal/app"
	"github.com/abhisek/casequiz/internal/screen"
)

var practiceCmd = &cobra.Command{
	Use:   "practice",
	Short: "Start the interactive practice TUI",
	RunE: func(cmd *cobra.Command, args []string) error {
		count, _ := cmd.Flags().GetInt("count")
		return runPractice(cmd, count)
	},
}

func runPractice(cmd *cobra.Command, count int) error {
	user, err := userFlag(cmd)
	if err != nil {
		return err
	}

	rt, err := loadDeps(cmd, true)
	if err != nil {
		return err
	}
	defer rt.Close()

	return app.Run(cmd.Context(), screen.Deps{
		Backend: rt.engine,
		UserID:  user,
		Count:   count,
	})
}

func init() {
	practiceCmd.Flags().IntP("count", "n", 0, "Questions per session (default CASEQUIZ_SESSION_SIZE)")
}
