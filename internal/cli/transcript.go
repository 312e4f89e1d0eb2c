package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ppiankov/claimcheck/internal/pipeline"
)

var videoID string

// transcriptCmd represents the transcript command
var transcriptCmd = &cobra.Command{
	Use:   "transcript <file|->",
	Short: "Fact-check an existing transcript",
	Long: `Transcript runs the claim pipeline on text you already have, skipping
download and transcription. Use - to read from stdin.

Example:
  claimcheck transcript captions.txt
  echo "The great wall is visible from the moon with the naked eye." | claimcheck transcript - --video-id demo`,
	Args: cobra.ExactArgs(1),
	RunE: runTranscript,
}

func init() {
	rootCmd.AddCommand(transcriptCmd)

	transcriptCmd.Flags().StringVar(&videoID, "video-id", "", "video id to put in the report (default: file name)")
	transcriptCmd.Flags().StringVar(&outJSON, "json", "", "output JSON path (default: stdout)")
}

func runTranscript(cmd *cobra.Command, args []string) error {
	text, id, err := readTranscript(args[0], cmd.InOrStdin())
	if err != nil {
		return err
	}
	if videoID != "" {
		id = videoID
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	p, err := pipeline.NewFromConfig(cfg, newLogger(cfg))
	if err != nil {
		return err
	}

	report, err := p.AnalyzeTranscript(context.Background(), id, text)
	if err != nil {
		return fmt.Errorf("analysis failed: %w", err)
	}

	if err := writeReport(cmd.OutOrStdout(), report, outJSON); err != nil {
		return err
	}
	printSummary(report)
	return nil
}

// readTranscript reads a transcript file, or stdin for "-", and derives a video id
func readTranscript(path string, stdin io.Reader) (string, string, error) {
	if path == "-" {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return "", "", fmt.Errorf("read stdin: %w", err)
		}
		return string(data), "stdin", nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", "", fmt.Errorf("read transcript: %w", err)
	}
	base := filepath.Base(path)
	return string(data), strings.TrimSuffix(base, filepath.Ext(base)), nil
}
