package media

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// AudioExtractor pulls the audio track out of a downloaded video with ffmpeg
type AudioExtractor struct {
	path string
	run  Runner
}

// NewAudioExtractor creates an extractor invoking the ffmpeg binary at path
func NewAudioExtractor(path string, run Runner) *AudioExtractor {
	if path == "" {
		path = "ffmpeg"
	}
	if run == nil {
		run = ExecRunner
	}
	return &AudioExtractor{path: path, run: run}
}

// Extract writes <dir>/<id>.mp3 next to the video and records it on a
func (e *AudioExtractor) Extract(ctx context.Context, a *Artifacts) error {
	if a.VideoPath == "" {
		return fmt.Errorf("extract audio: no video file")
	}

	out := filepath.Join(a.Dir, a.VideoID+".mp3")
	if out == a.VideoPath {
		out = filepath.Join(a.Dir, a.VideoID+".audio.mp3")
	}
	args := []string{"-y", "-i", a.VideoPath, "-vn", "-acodec", "mp3", out}
	if _, err := e.run(ctx, e.path, args...); err != nil {
		return fmt.Errorf("extract audio: %w", err)
	}

	if _, err := os.Stat(out); err != nil {
		return fmt.Errorf("extract audio: output missing: %w", err)
	}

	a.AudioPath = out
	return nil
}
