package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vaultiqx-sentinel/VeritrustX-sub000/internal/config"
	"github.com/vaultiqx-sentinel/VeritrustX-sub000/internal/forensic"
	"github.com/vaultiqx-sentinel/VeritrustX-sub000/internal/proxyguard"
)

var scoreCmd = &cobra.Command{
	Use:   "score",
	Short: "Score telemetry samples from flags or a JSON file",
	Long: "Score one sample given on the command line, or every sample in a JSON file\n" +
		"(a single object or an array). With --save the results are stored as assessments.",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		samples, err := samplesFromCommand(cmd, cfg)
		if err != nil {
			return err
		}

		asJSON, _ := cmd.Flags().GetBool("json")
		save, _ := cmd.Flags().GetBool("save")
		subject, _ := cmd.Flags().GetString("subject")

		var results []*proxyguard.Result
		var ids []string
		if save {
			results, ids, err = scoreAndSave(cmd, cfg, subject, samples)
		} else {
			results, err = scoreOnly(cfg.Thresholds, samples)
		}
		if err != nil {
			return err
		}

		if asJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			if len(results) == 1 {
				return enc.Encode(results[0])
			}
			return enc.Encode(results)
		}

		printResults(results, ids)
		return nil
	},
}

func scoreOnly(th proxyguard.Thresholds, samples []proxyguard.Sample) ([]*proxyguard.Result, error) {
	results := make([]*proxyguard.Result, len(samples))
	for i, s := range samples {
		if err := s.CheckFinite(); err != nil {
			return nil, fmt.Errorf("sample %d: %w", i, err)
		}
		res, err := proxyguard.Evaluate(s, th)
		if err != nil {
			return nil, fmt.Errorf("sample %d: %w", i, err)
		}
		results[i] = res
	}
	return results, nil
}

func scoreAndSave(cmd *cobra.Command, cfg *config.Config, subject string, samples []proxyguard.Sample) ([]*proxyguard.Result, []string, error) {
	st, err := openStore(cmd, cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	svc := forensic.NewService(st.AssessmentRepo(), nil, forensic.Options{
		Thresholds:       cfg.Thresholds,
		BatchParallelism: cfg.Forensic.BatchParallelism,
	})
	defer svc.Close()

	inputs := make([]forensic.Input, len(samples))
	for i, s := range samples {
		inputs[i] = forensic.Input{SubjectID: subject, Sample: s}
	}
	outcomes, err := svc.EvaluateBatch(cmd.Context(), inputs)
	if err != nil {
		return nil, nil, err
	}

	results := make([]*proxyguard.Result, len(outcomes))
	ids := make([]string, len(outcomes))
	for i, o := range outcomes {
		results[i] = o.Result
		ids[i] = o.Assessment.ID
	}
	return results, ids, nil
}

// samplesFromCommand reads --file when given, otherwise builds one sample
// from the telemetry flags.
func samplesFromCommand(cmd *cobra.Command, cfg *config.Config) ([]proxyguard.Sample, error) {
	if path, _ := cmd.Flags().GetString("file"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read samples: %w", err)
		}
		return decodeSamples(data)
	}

	q, _ := cmd.Flags().GetFloat64("question-ts")
	r, _ := cmd.Flags().GetFloat64("response-ts")
	intervals, _ := cmd.Flags().GetFloat64Slice("intervals")
	gaze, _ := cmd.Flags().GetStringSlice("gaze")
	iris, _ := cmd.Flags().GetFloat64Slice("iris")

	s := proxyguard.Sample{
		QuestionTimestampMs: q,
		ResponseTimestampMs: r,
		TypingIntervalsMs:   intervals,
	}
	for _, g := range gaze {
		s.Gaze = append(s.Gaze, proxyguard.GazeTag(strings.ToUpper(strings.TrimSpace(g))))
	}
	if len(s.Gaze) == 0 && len(iris) > 0 {
		s.Gaze = proxyguard.TagIris(iris, cfg.Iris)
	}
	return []proxyguard.Sample{s}, nil
}

func decodeSamples(data []byte) ([]proxyguard.Sample, error) {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '[' {
		var many []proxyguard.Sample
		if err := json.Unmarshal(data, &many); err != nil {
			return nil, fmt.Errorf("parse samples: %w", err)
		}
		if len(many) == 0 {
			return nil, fmt.Errorf("parse samples: empty array")
		}
		return many, nil
	}

	var one proxyguard.Sample
	if err := json.Unmarshal(data, &one); err != nil {
		return nil, fmt.Errorf("parse sample: %w", err)
	}
	return []proxyguard.Sample{one}, nil
}

func printResults(results []*proxyguard.Result, ids []string) {
	fmt.Printf("%-4s  %-5s  %-10s  %-9s  %-21s  %-24s  %s\n",
		"#", "Score", "Verdict", "Latency", "Cadence", "Gaze", "ID")
	fmt.Println(strings.Repeat("─", 100))
	for i, r := range results {
		id := "-"
		if ids != nil {
			id = ids[i]
		}
		fmt.Printf("%-4d  %-5d  %-10s  %-9s  %-21s  %-24s  %s\n",
			i, r.Score, r.Verdict, r.Signals.Latency, r.Signals.Cadence, r.Signals.Gaze, id)
	}
}

func init() {
	scoreCmd.Flags().StringP("file", "f", "", "JSON file holding a sample or an array of samples")
	scoreCmd.Flags().Float64("question-ts", 0, "Question timestamp (ms)")
	scoreCmd.Flags().Float64("response-ts", 0, "Response timestamp (ms)")
	scoreCmd.Flags().Float64Slice("intervals", nil, "Keystroke intervals (ms), comma separated")
	scoreCmd.Flags().StringSlice("gaze", nil, "Gaze tags (MESH or OFF_MESH), comma separated")
	scoreCmd.Flags().Float64Slice("iris", nil, "Raw horizontal iris positions, used when --gaze is empty")
	scoreCmd.Flags().String("subject", "", "Subject ID stored with saved assessments")
	scoreCmd.Flags().Bool("save", false, "Persist results as assessments")
	scoreCmd.Flags().Bool("json", false, "Print results as JSON")
}
