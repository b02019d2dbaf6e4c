package cmd

import (
	"context"
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"

	"charm.land/lipgloss/v2"
	"charm.land/lipgloss/v2/table"
	"github.com/spf13/cobra"

	"github.com/abhisek/casequiz/internal/llm"
	"github.com/abhisek/casequiz/internal/store"
)

const timeLayout = "2006-01-02 15:04:05"

var llmCmd = &cobra.Command{
	Use:   "llm",
	Short: "Inspect the LLM request log",
	Long: "Every blueprint generation and answer judgement is logged with its prompt,\n" +
		"reply, token counts and latency. Only the sqlite and postgres stores keep the log.",
}

var llmListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent LLM calls, newest first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		purpose, _ := cmd.Flags().GetString("purpose")
		if purpose != "" && !slices.Contains(llm.Purposes, purpose) {
			return fmt.Errorf("unknown purpose %q (one of %s)", purpose, strings.Join(llm.Purposes, ", "))
		}

		return withEventLog(cmd, func(ctx context.Context, events *store.LLMEventRepo, out io.Writer) error {
			list, err := events.QueryLLMEvents(ctx, store.QueryOpts{Limit: limit, Purpose: purpose})
			if err != nil {
				return fmt.Errorf("query events: %w", err)
			}
			if len(list) == 0 {
				fmt.Fprintln(out, "No LLM events found.")
				return nil
			}

			t := newTable("ID", "Time", "Purpose", "Model", "In", "Out", "Ms", "OK")
			for _, e := range list {
				t.Row(
					strconv.FormatInt(e.ID, 10),
					e.Timestamp.Local().Format(timeLayout),
					e.Purpose,
					truncate(e.Model, 28),
					strconv.Itoa(e.InputTokens),
					strconv.Itoa(e.OutputTokens),
					strconv.FormatInt(e.LatencyMs, 10),
					mark(e.Success),
				)
			}
			fmt.Fprintln(out, t.String())
			return nil
		})
	},
}

var llmViewCmd = &cobra.Command{
	Use:   "view <id>",
	Short: "Show the full prompt and reply of one LLM call",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid ID %q: %w", args[0], err)
		}

		return withEventLog(cmd, func(ctx context.Context, events *store.LLMEventRepo, out io.Writer) error {
			e, err := events.GetLLMEvent(ctx, id)
			if err != nil {
				return fmt.Errorf("get event: %w", err)
			}
			if e == nil {
				return fmt.Errorf("event %d not found", id)
			}

			fields := [][2]string{
				{"ID", strconv.FormatInt(e.ID, 10)},
				{"Time", e.Timestamp.Local().Format(timeLayout)},
				{"Provider", e.Provider},
				{"Model", e.Model},
				{"Purpose", e.Purpose},
				{"Tokens", fmt.Sprintf("%d in / %d out", e.InputTokens, e.OutputTokens)},
				{"Latency", fmt.Sprintf("%dms", e.LatencyMs)},
				{"Success", strconv.FormatBool(e.Success)},
			}
			if e.ErrorMessage != "" {
				fields = append(fields, [2]string{"Error", e.ErrorMessage})
			}
			for _, f := range fields {
				fmt.Fprintf(out, "%-10s %s\n", f[0]+":", f[1])
			}

			printSection(out, "REQUEST", e.RequestBody)
			printSection(out, "RESPONSE", e.ResponseBody)
			return nil
		})
	},
}

var llmStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Summarize token usage and estimated cost",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withEventLog(cmd, func(ctx context.Context, events *store.LLMEventRepo, out io.Writer) error {
			byPurpose, err := events.LLMUsageByPurpose(ctx)
			if err != nil {
				return fmt.Errorf("query usage: %w", err)
			}
			if len(byPurpose) == 0 {
				fmt.Fprintln(out, "No LLM usage recorded yet.")
				return nil
			}
			byModel, err := events.LLMUsageByModel(ctx)
			if err != nil {
				return fmt.Errorf("query model usage: %w", err)
			}

			fmt.Fprintln(out, "Usage by purpose")
			fmt.Fprintln(out, purposeTable(byPurpose))
			if len(byModel) > 0 {
				fmt.Fprintln(out)
				fmt.Fprintln(out, "Estimated cost (USD)")
				fmt.Fprintln(out, costTable(byModel))
			}
			return nil
		})
	},
}

// withEventLog opens the store without an engine and hands its event log
// to fn.
func withEventLog(cmd *cobra.Command, fn func(context.Context, *store.LLMEventRepo, io.Writer) error) error {
	rt, err := loadDeps(cmd, false)
	if err != nil {
		return err
	}
	defer rt.Close()

	events, err := rt.eventLog()
	if err != nil {
		return err
	}
	return fn(cmd.Context(), events, cmd.OutOrStdout())
}

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.NormalBorder()).
		BorderColumn(false).
		Headers(headers...)
}

func purposeTable(rows []store.PurposeUsage) string {
	t := newTable("Purpose", "Calls", "Input", "Output", "Total", "Avg Ms")
	var calls, in, outTok int
	for _, u := range rows {
		t.Row(u.Purpose, strconv.Itoa(u.Calls), strconv.Itoa(u.InputTokens),
			strconv.Itoa(u.OutputTokens), strconv.Itoa(u.InputTokens+u.OutputTokens),
			strconv.FormatInt(u.AvgLatencyMs, 10))
		calls += u.Calls
		in += u.InputTokens
		outTok += u.OutputTokens
	}
	t.Row("TOTAL", strconv.Itoa(calls), strconv.Itoa(in), strconv.Itoa(outTok), strconv.Itoa(in+outTok), "")
	return t.String()
}

// costTable prices each model from the pricing table. Models without a
// price are listed with "?" and named below the table.
func costTable(rows []store.ModelUsage) string {
	t := newTable("Model", "Calls", "Input", "Output", "Cost")
	var total float64
	var unpriced []string
	for _, u := range rows {
		cost := "?"
		if usd, ok := llm.EstimateCost(u.Model, u.InputTokens, u.OutputTokens); ok {
			total += usd
			cost = formatCost(usd)
		} else {
			unpriced = append(unpriced, u.Model)
		}
		t.Row(truncate(u.Model, 32), strconv.Itoa(u.Calls), strconv.Itoa(u.InputTokens),
			strconv.Itoa(u.OutputTokens), cost)
	}

	label := "TOTAL"
	if len(unpriced) > 0 {
		label = "TOTAL (partial)"
	}
	t.Row(label, "", "", "", formatCost(total))

	s := t.String()
	if len(unpriced) > 0 {
		s += "\nPricing unavailable for: " + strings.Join(unpriced, ", ")
	}
	return s
}

func printSection(out io.Writer, title, body string) {
	rule := strings.Repeat("─", 60)
	if body == "" {
		body = "(not captured)"
	}
	fmt.Fprintf(out, "\n%s\n%s\n%s\n%s\n", rule, title, rule, strings.TrimRight(body, "\n"))
}

func mark(ok bool) string {
	if ok {
		return "✓"
	}
	return "✗"
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

func formatCost(usd float64) string {
	if usd < 0.01 {
		return fmt.Sprintf("$%.4f", usd)
	}
	return fmt.Sprintf("$%.2f", usd)
}

func init() {
	llmListCmd.Flags().IntP("limit", "n", 20, "Number of events to show")
	llmListCmd.Flags().StringP("purpose", "p", "", "Only show one purpose ("+strings.Join(llm.Purposes, ", ")+")")

	llmCmd.AddCommand(llmListCmd, llmViewCmd, llmStatsCmd)
}
