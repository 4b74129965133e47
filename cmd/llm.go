package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/vaultiqx-sentinel/VeritrustX-sub000/internal/llm"
	"github.com/vaultiqx-sentinel/VeritrustX-sub000/internal/store"
)

const timeLayout = "2006-01-02 15:04:05"

var llmCmd = &cobra.Command{
	Use:   "llm",
	Short: "Inspect AI provider calls made for forensic reports and passthrough",
}

var llmListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent provider calls",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		purpose, _ := cmd.Flags().GetString("purpose")
		since, _ := cmd.Flags().GetDuration("since")

		opts := store.QueryOpts{Limit: limit, Purpose: purpose}
		if since > 0 {
			opts.From = time.Now().Add(-since)
		}

		return withStore(cmd, func(s *store.Store) error {
			events, err := s.EventRepo().QueryLLMEvents(cmd.Context(), opts)
			if err != nil {
				return fmt.Errorf("query events: %w", err)
			}
			if len(events) == 0 {
				fmt.Println("No LLM events found.")
				return nil
			}

			fmt.Printf("%-5s  %-19s  %-16s  %-28s  %-6s  %-6s  %-7s  %s\n",
				"ID", "Timestamp", "Purpose", "Model", "In", "Out", "Ms", "OK")
			fmt.Println(strings.Repeat("─", 100))
			for _, e := range events {
				status := "ok"
				if !e.Success {
					status = "fail"
				}
				fmt.Printf("%-5d  %-19s  %-16s  %-28s  %-6d  %-6d  %-7d  %s\n",
					e.ID, e.Timestamp.Local().Format(timeLayout), e.Purpose,
					truncate(e.Model, 28), e.InputTokens, e.OutputTokens, e.LatencyMs, status)
			}
			return nil
		})
	},
}

var llmViewCmd = &cobra.Command{
	Use:   "view <id>",
	Short: "View the captured request and response of one call",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var id int
		if _, err := fmt.Sscanf(args[0], "%d", &id); err != nil {
			return fmt.Errorf("invalid ID %q: %w", args[0], err)
		}

		return withStore(cmd, func(s *store.Store) error {
			e, err := s.EventRepo().GetLLMEvent(cmd.Context(), id)
			if err != nil {
				return fmt.Errorf("get event: %w", err)
			}
			if e == nil {
				return fmt.Errorf("event %d not found", id)
			}

			fmt.Printf("ID:        %d\n", e.ID)
			fmt.Printf("Time:      %s\n", e.Timestamp.Local().Format(timeLayout))
			fmt.Printf("Provider:  %s\n", e.Provider)
			fmt.Printf("Model:     %s\n", e.Model)
			fmt.Printf("Purpose:   %s\n", e.Purpose)
			fmt.Printf("Tokens:    %d in / %d out\n", e.InputTokens, e.OutputTokens)
			fmt.Printf("Latency:   %dms\n", e.LatencyMs)
			if cost, ok := llm.EstimateCost(e.Model, e.InputTokens, e.OutputTokens); ok {
				fmt.Printf("Cost:      %s\n", formatCost(cost))
			}
			if e.ErrorMessage != "" {
				fmt.Printf("Error:     %s\n", e.ErrorMessage)
			}

			printSection("REQUEST", e.RequestBody)
			printSection("RESPONSE", e.ResponseBody)
			return nil
		})
	},
}

// usageReport is the --json shape of llm stats.
type usageReport struct {
	Purposes     []store.PurposeUsage `json:"purposes"`
	Models       []modelCost          `json:"models"`
	TotalCostUSD float64              `json:"total_cost_usd"`
	Unpriced     []string             `json:"unpriced,omitempty"`
}

type modelCost struct {
	store.ModelUsage
	CostUSD *float64 `json:"cost_usd,omitempty"`
}

var llmStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show aggregated token usage and estimated cost",
	RunE: func(cmd *cobra.Command, args []string) error {
		asJSON, _ := cmd.Flags().GetBool("json")

		return withStore(cmd, func(s *store.Store) error {
			ctx := cmd.Context()
			purposes, err := s.EventRepo().LLMUsageByPurpose(ctx)
			if err != nil {
				return fmt.Errorf("query usage: %w", err)
			}
			models, err := s.EventRepo().LLMUsageByModel(ctx)
			if err != nil {
				return fmt.Errorf("query model usage: %w", err)
			}

			report := buildUsageReport(purposes, models)
			if asJSON {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(report)
			}
			if len(purposes) == 0 {
				fmt.Println("No LLM usage recorded yet.")
				return nil
			}
			printPurposeUsage(report.Purposes)
			printModelCost(report)
			return nil
		})
	},
}

func buildUsageReport(purposes []store.PurposeUsage, models []store.ModelUsage) usageReport {
	report := usageReport{Purposes: purposes}
	for _, mu := range models {
		mc := modelCost{ModelUsage: mu}
		if c, ok := llm.EstimateCost(mu.Model, mu.InputTokens, mu.OutputTokens); ok {
			mc.CostUSD = &c
			report.TotalCostUSD += c
		} else {
			report.Unpriced = append(report.Unpriced, mu.Model)
		}
		report.Models = append(report.Models, mc)
	}
	return report
}

func printPurposeUsage(purposes []store.PurposeUsage) {
	rule := strings.Repeat("─", 72)
	fmt.Println("Usage by Purpose")
	fmt.Println(rule)
	fmt.Printf("%-16s  %6s  %10s  %10s  %10s  %8s\n", "Purpose", "Calls", "Input", "Output", "Total", "Avg Ms")
	fmt.Println(rule)

	var calls, in, out int
	for _, p := range purposes {
		fmt.Printf("%-16s  %6d  %10d  %10d  %10d  %8d\n",
			p.Purpose, p.Calls, p.InputTokens, p.OutputTokens, p.InputTokens+p.OutputTokens, p.AvgLatencyMs)
		calls += p.Calls
		in += p.InputTokens
		out += p.OutputTokens
	}
	fmt.Println(rule)
	fmt.Printf("%-16s  %6d  %10d  %10d  %10d\n", "TOTAL", calls, in, out, in+out)
}

func printModelCost(report usageReport) {
	if len(report.Models) == 0 {
		return
	}
	rule := strings.Repeat("─", 72)
	fmt.Println()
	fmt.Println("Estimated Cost (USD)")
	fmt.Println(rule)
	fmt.Printf("%-32s  %6s  %10s  %10s  %10s\n", "Model", "Calls", "Input", "Output", "Cost")
	fmt.Println(rule)
	for _, m := range report.Models {
		cost := "?"
		if m.CostUSD != nil {
			cost = formatCost(*m.CostUSD)
		}
		fmt.Printf("%-32s  %6d  %10d  %10d  %10s\n",
			truncate(m.Model, 32), m.Calls, m.InputTokens, m.OutputTokens, cost)
	}
	fmt.Println(rule)

	label := "TOTAL"
	if len(report.Unpriced) > 0 {
		label = "TOTAL (partial)"
	}
	fmt.Printf("%-32s  %6s  %10s  %10s  %10s\n", label, "", "", "", formatCost(report.TotalCostUSD))
	if len(report.Unpriced) > 0 {
		fmt.Printf("\nPricing unavailable for: %s\n", strings.Join(report.Unpriced, ", "))
	}
}

func printSection(title, body string) {
	sep := strings.Repeat("─", 60)
	fmt.Println()
	fmt.Println(sep)
	fmt.Println(title)
	fmt.Println(sep)
	if body == "" {
		body = "(not captured)"
	}
	fmt.Println(body)
}

// withStore loads config, opens the store and closes it after fn.
func withStore(cmd *cobra.Command, fn func(*store.Store) error) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	s, err := openStore(cmd, cfg)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer s.Close()
	return fn(s)
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}

func formatCost(usd float64) string {
	if usd < 0.01 {
		return fmt.Sprintf("$%.4f", usd)
	}
	return fmt.Sprintf("$%.2f", usd)
}

func init() {
	llmListCmd.Flags().IntP("limit", "n", 20, "Number of events to show")
	llmListCmd.Flags().StringP("purpose", "p", "", "Filter by purpose (forensic-report or passthrough)")
	llmListCmd.Flags().Duration("since", 0, "Only show events newer than this (e.g. 24h)")
	llmStatsCmd.Flags().Bool("json", false, "Print usage as JSON")

	llmCmd.AddCommand(llmListCmd)
	llmCmd.AddCommand(llmViewCmd)
	llmCmd.AddCommand(llmStatsCmd)
}
