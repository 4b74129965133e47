package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vaultiqx-sentinel/VeritrustX-sub000/internal/proxyguard"
	"github.com/vaultiqx-sentinel/VeritrustX-sub000/internal/store"
)

var auditsCmd = &cobra.Command{
	Use:   "audits",
	Short: "Inspect stored assessments",
}

var auditsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent assessments",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		verdict, _ := cmd.Flags().GetString("verdict")
		verdict = strings.ToUpper(verdict)
		switch proxyguard.Verdict(verdict) {
		case "", proxyguard.VerdictGrounded, proxyguard.VerdictTerminated:
		default:
			return fmt.Errorf("unknown verdict %q (want GROUNDED or TERMINATED)", verdict)
		}

		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		s, err := openStore(cmd, cfg)
		if err != nil {
			return fmt.Errorf("open database: %w", err)
		}
		defer s.Close()

		rows, err := s.AssessmentRepo().List(cmd.Context(), store.QueryOpts{Limit: limit, Verdict: verdict})
		if err != nil {
			return fmt.Errorf("query assessments: %w", err)
		}
		if len(rows) == 0 {
			fmt.Println("No assessments found.")
			return nil
		}

		fmt.Printf("%-36s  %-19s  %-16s  %5s  %-10s  %s\n",
			"ID", "Timestamp", "Subject", "Score", "Verdict", "Report")
		fmt.Println(strings.Repeat("─", 100))
		for _, a := range rows {
			report := "-"
			if a.Report != "" {
				report = "yes"
			}
			fmt.Printf("%-36s  %-19s  %-16s  %5d  %-10s  %s\n",
				a.ID,
				a.Timestamp.Local().Format("2006-01-02 15:04:05"),
				truncate(a.SubjectID, 16),
				a.Score,
				a.Verdict,
				report,
			)
		}
		return nil
	},
}

var auditsViewCmd = &cobra.Command{
	Use:   "view <id>",
	Short: "View one assessment with its forensic narrative",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		s, err := openStore(cmd, cfg)
		if err != nil {
			return fmt.Errorf("open database: %w", err)
		}
		defer s.Close()

		a, err := s.AssessmentRepo().Get(cmd.Context(), args[0])
		if err != nil {
			return fmt.Errorf("get assessment: %w", err)
		}
		if a == nil {
			return fmt.Errorf("assessment %s not found", args[0])
		}

		sep := strings.Repeat("─", 60)

		fmt.Printf("ID:         %s\n", a.ID)
		fmt.Printf("Sequence:   %d\n", a.Sequence)
		fmt.Printf("Time:       %s\n", a.Timestamp.Local().Format("2006-01-02 15:04:05"))
		if a.SubjectID != "" || a.SubjectName != "" {
			fmt.Printf("Subject:    %s %s\n", a.SubjectID, a.SubjectName)
		}
		fmt.Printf("Score:      %d\n", a.Score)
		fmt.Printf("Verdict:    %s\n", a.Verdict)
		fmt.Printf("Latency:    %s (%.0f ms)\n", a.LatencySignal, a.DeltaMs)
		fmt.Printf("Cadence:    %s (ratio %.3f)\n", a.CadenceSignal, a.CadenceVariance)
		fmt.Printf("Gaze:       %s (drift %.3f)\n", a.GazeSignal, a.GazeDrift)
		fmt.Printf("Thresholds: %s\n", a.Thresholds)

		fmt.Println()
		fmt.Println(sep)
		fmt.Println("FORENSIC REPORT")
		fmt.Println(sep)
		if a.Report != "" {
			fmt.Println(a.Report)
		} else {
			fmt.Println("(none attached)")
		}
		return nil
	},
}

func init() {
	auditsListCmd.Flags().IntP("limit", "n", 20, "Number of assessments to show")
	auditsListCmd.Flags().String("verdict", "", "Filter by verdict (GROUNDED or TERMINATED)")

	auditsCmd.AddCommand(auditsListCmd)
	auditsCmd.AddCommand(auditsViewCmd)
}
