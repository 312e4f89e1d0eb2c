// Package media downloads short videos and extracts their audio track.
// Every download lives in its own scratch directory that is removed exactly
// once when the caller is done with it.
package media

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

var (
	// ErrUnsupportedURL is returned for URLs that are not http(s)
	ErrUnsupportedURL = errors.New("unsupported media URL")
	// ErrRobotsDisallowed is returned when robots.txt forbids the download
	ErrRobotsDisallowed = errors.New("download disallowed by robots.txt")
	// ErrTooLarge is returned when a download exceeds the configured size limit
	ErrTooLarge = errors.New("media exceeds size limit")
)

// Runner executes an external program and returns its stdout
type Runner func(ctx context.Context, name string, args ...string) ([]byte, error)

// ExecRunner runs the program with os/exec, folding stderr into the error
func ExecRunner(ctx context.Context, name string, args ...string) ([]byte, error) {
	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%s: %w (stderr: %s)", filepath.Base(name), err, strings.TrimSpace(stderr.String()))
	}
	return stdout.Bytes(), nil
}

// Artifacts are the files produced for one video
type Artifacts struct {
	VideoID   string
	Dir       string // Scratch directory owning every file below
	VideoPath string
	AudioPath string

	once       sync.Once
	releaseErr error
}

// Release removes the scratch directory. Only the first call does any work.
func (a *Artifacts) Release() error {
	a.once.Do(func() {
		if a.Dir == "" {
			return
		}
		a.releaseErr = os.RemoveAll(a.Dir)
	})
	return a.releaseErr
}

// Fetcher downloads a video into a.Dir and fills in the artifact paths
type Fetcher interface {
	Name() string
	Fetch(ctx context.Context, rawURL string, a *Artifacts) error
}

// Workspace hands out per-request scratch directories under a root
type Workspace struct {
	root string
	log  logrus.FieldLogger
}

// NewWorkspace creates a workspace rooted at dir
func NewWorkspace(dir string, log logrus.FieldLogger) *Workspace {
	if dir == "" {
		dir = os.TempDir()
	}
	return &Workspace{root: dir, log: log}
}

// Root returns the workspace root directory
func (w *Workspace) Root() string {
	return w.root
}

// Acquire fetches rawURL into a fresh scratch directory, runs fn with the
// artifacts and releases them on every exit path, including a failed fetch
// and a panic inside fn.
func (w *Workspace) Acquire(ctx context.Context, f Fetcher, rawURL string, fn func(*Artifacts) error) error {
	dir := filepath.Join(w.root, uuid.NewString())
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create work dir: %w", err)
	}

	a := &Artifacts{Dir: dir}
	defer func() {
		if err := a.Release(); err != nil {
			w.log.WithError(err).WithField("dir", dir).Warn("Failed to remove media artifacts")
		}
	}()

	if err := f.Fetch(ctx, rawURL, a); err != nil {
		return fmt.Errorf("fetch media (%s): %w", f.Name(), err)
	}

	w.log.WithFields(logrus.Fields{
		"video_id": a.VideoID,
		"fetcher":  f.Name(),
	}).Debug("Media fetched")

	return fn(a)
}

// validateURL accepts only absolute http(s) URLs
func validateURL(rawURL string) (*url.URL, error) {
	parsed, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedURL, err)
	}
	if (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedURL, rawURL)
	}
	return parsed, nil
}

// sanitizeID keeps IDs safe for use as file names
func sanitizeID(id string) string {
	var b strings.Builder
	for _, r := range id {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 {
		return "video"
	}
	return b.String()
}
