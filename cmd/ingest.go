package cmd

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/spf13/cobra"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Submit case text and build the question bank",
	Long:  "Reads case text from --file, or from stdin when no file is given.",
	RunE: func(cmd *cobra.Command, args []string) error {
		user, err := userFlag(cmd)
		if err != nil {
			return err
		}
		text, err := readCaseText(cmd)
		if err != nil {
			return err
		}

		rt, err := loadDeps(cmd, true)
		if err != nil {
			return err
		}
		defer rt.Close()

		res, err := rt.engine.Ingest(cmd.Context(), user, text)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if res.Created {
			fmt.Fprintln(out, "Blueprint created.")
		} else {
			fmt.Fprintln(out, "Case already on file; reusing its blueprint.")
		}
		bp := res.Blueprint
		fmt.Fprintf(out, "Blueprint: %s (%s)\n", bp.Blueprint.ID, bp.Blueprint.Metadata.Source)
		if bp.Degraded {
			fmt.Fprintf(out, "Degraded:  %s\n", bp.Blueprint.Metadata.DegradedReason)
		}
		fmt.Fprintf(out, "Questions: %d\n", bp.QuestionCount)

		keys := make([]string, 0, len(bp.QuestionsByCategory))
		for k := range bp.QuestionsByCategory {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(out, "  %-28s %3d\n", k, bp.QuestionsByCategory[k])
		}
		if flags := res.Profile.RiskFlags; len(flags) > 0 {
			fmt.Fprintf(out, "Topics:    %s\n", strings.Join(flags, ", "))
		}
		return nil
	},
}

func readCaseText(cmd *cobra.Command) (string, error) {
	path, _ := cmd.Flags().GetString("file")
	var (
		b   []byte
		err error
	)
	if path == "" || path == "-" {
		b, err = io.ReadAll(cmd.InOrStdin())
	} else {
		b, err = os.ReadFile(path)
	}
	if err != nil {
		return "", fmt.Errorf("read case text: %w", err)
	}
	return string(b), nil
}

func init() {
	ingestCmd.Flags().StringP("file", "f", "", "File holding the case text (default stdin)")
}
