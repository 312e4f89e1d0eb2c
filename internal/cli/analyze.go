package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/ppiankov/claimcheck/internal/pipeline"
)

var (
	outJSON string
	timeout time.Duration
)

// analyzeCmd represents the analyze command
var analyzeCmd = &cobra.Command{
	Use:   "analyze <url>",
	Short: "Download, transcribe and fact-check a single video",
	Long: `Analyze runs the full pipeline on one video:
- Download the video and extract its audio track
- Transcribe the audio
- Classify the transcript (music, casual speech, factual claims)
- Extract up to five false or misleading claims
- Ground each claim in a fact-check registry or academic source

Example:
  claimcheck analyze https://www.tiktok.com/@user/video/123
  claimcheck analyze https://youtube.com/shorts/abc --json report.json
  claimcheck analyze https://example.com/clip.mp4 --llm-provider ollama --llm-model llama3.1`,
	Args: cobra.ExactArgs(1),
	RunE: runAnalyze,
}

func init() {
	rootCmd.AddCommand(analyzeCmd)

	analyzeCmd.Flags().StringVar(&outJSON, "json", "", "output JSON path (default: stdout)")
	analyzeCmd.Flags().DurationVar(&timeout, "timeout", 0, "overall timeout (default: pipeline.timeout)")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	url := args[0]

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if timeout > 0 {
		cfg.Pipeline.Timeout = timeout
	}
	log := newLogger(cfg)

	if verbose {
		fmt.Fprintf(os.Stderr, "Analyzing: %s\n", url)
		fmt.Fprintf(os.Stderr, "LLM:       %s/%s\n", cfg.LLM.Provider, cfg.LLM.Model)
		fmt.Fprintf(os.Stderr, "Fetcher:   %s, transcriber: %s\n\n", cfg.Media.Fetcher, cfg.Media.Transcriber)
	}

	p, err := pipeline.NewFromConfig(cfg, log)
	if err != nil {
		return err
	}

	report, err := p.AnalyzeURL(context.Background(), url)
	if err != nil {
		return fmt.Errorf("analysis failed: %w", err)
	}

	if err := writeReport(cmd.OutOrStdout(), report, outJSON); err != nil {
		return err
	}
	printSummary(report)
	return nil
}
