package media

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
)

// YtDlpFetcher downloads videos from social platforms with yt-dlp
type YtDlpFetcher struct {
	path  string
	audio *AudioExtractor
	run   Runner
	log   logrus.FieldLogger
}

// NewYtDlpFetcher creates a fetcher invoking the yt-dlp binary at path
func NewYtDlpFetcher(path string, audio *AudioExtractor, run Runner, log logrus.FieldLogger) *YtDlpFetcher {
	if path == "" {
		path = "yt-dlp"
	}
	if run == nil {
		run = ExecRunner
	}
	return &YtDlpFetcher{path: path, audio: audio, run: run, log: log}
}

// Name returns the fetcher name
func (f *YtDlpFetcher) Name() string {
	return "ytdlp"
}

// Fetch downloads rawURL into a.Dir and extracts its audio
func (f *YtDlpFetcher) Fetch(ctx context.Context, rawURL string, a *Artifacts) error {
	if _, err := validateURL(rawURL); err != nil {
		return err
	}

	args := []string{
		"-o", filepath.Join(a.Dir, "%(id)s.%(ext)s"),
		"-f", "bestvideo+bestaudio/best",
		"--merge-output-format", "mp4",
		"--no-playlist",
		"--print", "after_move:%(id)s\t%(filepath)s",
		rawURL,
	}

	out, err := f.run(ctx, f.path, args...)
	if err != nil {
		return fmt.Errorf("yt-dlp: %w", err)
	}

	id, path, ok := parsePrinted(out)
	if !ok {
		// Older yt-dlp builds ignore --print after_move; fall back to the directory listing
		id, path, err = findDownloaded(a.Dir)
		if err != nil {
			return err
		}
	}

	a.VideoID = id
	a.VideoPath = path

	f.log.WithFields(logrus.Fields{
		"video_id": id,
		"file":     filepath.Base(path),
	}).Debug("yt-dlp download complete")

	return f.audio.Extract(ctx, a)
}

// parsePrinted reads the last "id<TAB>path" line yt-dlp printed
func parsePrinted(out []byte) (string, string, bool) {
	lines := strings.Split(strings.TrimSpace(string(out)), "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		id, path, found := strings.Cut(strings.TrimSpace(lines[i]), "\t")
		if !found || id == "" || path == "" {
			continue
		}
		if _, err := os.Stat(path); err != nil {
			continue
		}
		return sanitizeID(id), path, true
	}
	return "", "", false
}

// findDownloaded picks the first regular file in dir
func findDownloaded(dir string) (string, string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", "", fmt.Errorf("read work dir: %w", err)
	}
	for _, e := range entries {
		if e.IsDir() || strings.HasSuffix(e.Name(), ".part") {
			continue
		}
		name := e.Name()
		id := sanitizeID(strings.TrimSuffix(name, filepath.Ext(name)))
		return id, filepath.Join(dir, name), nil
	}
	return "", "", fmt.Errorf("yt-dlp produced no file")
}
