package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ppiankov/claimcheck/internal/model"
)

// writeReport writes the report as indented JSON to path, or to w when path is empty
func writeReport(w io.Writer, report *model.AnalysisReport, path string) error {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}
	data = append(data, '\n')

	if path == "" {
		_, err := w.Write(data)
		return err
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output directory: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	if verbose {
		fmt.Fprintf(os.Stderr, "✓ Wrote JSON: %s\n", path)
	}
	return nil
}

// printSummary prints a short human-readable summary to stderr
func printSummary(report *model.AnalysisReport) {
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "  Video:    %s\n", report.VideoID)
	fmt.Fprintf(os.Stderr, "  Status:   %s\n", report.Status)
	if report.Reason != "" {
		fmt.Fprintf(os.Stderr, "  Reason:   %s\n", report.Reason)
	}
	fmt.Fprintf(os.Stderr, "  Claims:   %d\n", len(report.Claims))
	for i, c := range report.Claims {
		source := "no source"
		if c.Source != nil {
			source = c.Source.URL
		}
		fmt.Fprintf(os.Stderr, "    %d. %s (%s)\n", i+1, c.Claim, source)
	}
	fmt.Fprintf(os.Stderr, "  Time:     %.2fs\n\n", report.ProcessingTime)
}

// sanitizeFilename makes s safe to use as a report file name
func sanitizeFilename(s string) string {
	replacer := strings.NewReplacer(
		"/", "_",
		"\\", "_",
		":", "_",
		"*", "_",
		"?", "_",
		"\"", "_",
		"<", "_",
		">", "_",
		"|", "_",
		" ", "-",
	)
	s = replacer.Replace(strings.TrimSpace(s))
	s = strings.Trim(s, ".")

	if len(s) > 100 {
		s = s[:100]
	}
	if s == "" {
		return "report"
	}
	return s
}
