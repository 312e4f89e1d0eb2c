package media

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ppiankov/claimcheck/internal/util"
	"github.com/ppiankov/claimcheck/internal/worker"
)

// HTTPOptions configures the direct download fetcher
type HTTPOptions struct {
	Timeout    time.Duration
	UserAgent  string
	MaxBytes   int64
	Robots     *util.RobotsChecker // nil skips robots.txt
	Limiter    *worker.Limiter     // Per-host pacing, may be nil
	HTTPProxy  string
	HTTPSProxy string
	NoProxy    string
}

// HTTPFetcher downloads a media file straight from its URL
type HTTPFetcher struct {
	httpClient *http.Client
	opts       HTTPOptions
	audio      *AudioExtractor
	log        logrus.FieldLogger
}

// NewHTTPFetcher creates a fetcher for direct media links
func NewHTTPFetcher(opts HTTPOptions, audio *AudioExtractor, log logrus.FieldLogger) *HTTPFetcher {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.Proxy = util.NewProxyFunc(opts.HTTPProxy, opts.HTTPSProxy, opts.NoProxy)

	return &HTTPFetcher{
		httpClient: &http.Client{
			Timeout:   opts.Timeout,
			Transport: transport,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 3 {
					return fmt.Errorf("stopped after 3 redirects")
				}
				return nil
			},
		},
		opts:  opts,
		audio: audio,
		log:   log,
	}
}

// Name returns the fetcher name
func (f *HTTPFetcher) Name() string {
	return "http"
}

// Fetch downloads rawURL into a.Dir and extracts its audio
func (f *HTTPFetcher) Fetch(ctx context.Context, rawURL string, a *Artifacts) error {
	if _, err := validateURL(rawURL); err != nil {
		return err
	}

	if f.opts.Robots != nil {
		allowed, delay, err := f.opts.Robots.CanFetch(ctx, rawURL)
		if err != nil {
			return fmt.Errorf("robots.txt: %w", err)
		}
		if !allowed {
			return fmt.Errorf("%w: %s", ErrRobotsDisallowed, rawURL)
		}
		if delay > 0 {
			if err := worker.Sleep(ctx, delay); err != nil {
				return err
			}
		}
	}

	if f.opts.Limiter != nil {
		if err := f.opts.Limiter.Wait(ctx, rawURL); err != nil {
			return err
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", f.opts.UserAgent)
	req.Header.Set("Accept", "video/*,audio/*;q=0.9,*/*;q=0.5")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("fetch: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("unexpected status: %d %s", resp.StatusCode, resp.Status)
	}
	if f.opts.MaxBytes > 0 && resp.ContentLength > f.opts.MaxBytes {
		return fmt.Errorf("%w: %d bytes", ErrTooLarge, resp.ContentLength)
	}

	id := videoIDFromPath(resp.Request.URL.Path)
	file := filepath.Join(a.Dir, id+extensionFor(resp.Request.URL.Path, resp.Header.Get("Content-Type")))

	// Record paths first so a partial file is still owned by the artifacts
	a.VideoID = id
	a.VideoPath = file

	if err := f.save(resp.Body, file); err != nil {
		return err
	}

	f.log.WithFields(logrus.Fields{
		"video_id": id,
		"status":   resp.StatusCode,
	}).Debug("Direct download complete")

	return f.audio.Extract(ctx, a)
}

// save copies body to file, enforcing MaxBytes
func (f *HTTPFetcher) save(body io.Reader, file string) error {
	out, err := os.Create(file)
	if err != nil {
		return fmt.Errorf("create media file: %w", err)
	}
	defer func() { _ = out.Close() }()

	reader := body
	if f.opts.MaxBytes > 0 {
		reader = io.LimitReader(body, f.opts.MaxBytes+1)
	}

	n, err := io.Copy(out, reader)
	if err != nil {
		return fmt.Errorf("read body: %w", err)
	}
	if f.opts.MaxBytes > 0 && n > f.opts.MaxBytes {
		return fmt.Errorf("%w: more than %d bytes", ErrTooLarge, f.opts.MaxBytes)
	}
	return nil
}

// videoIDFromPath uses the last path segment without its extension
func videoIDFromPath(p string) string {
	last := path.Base(strings.Trim(p, "/"))
	if idx := strings.LastIndex(last, "."); idx > 0 {
		last = last[:idx]
	}
	return sanitizeID(last)
}

// extensionFor picks a file extension from the URL or content type
func extensionFor(p, contentType string) string {
	if ext := path.Ext(p); ext != "" && len(ext) <= 5 {
		return strings.ToLower(ext)
	}
	switch {
	case strings.HasPrefix(contentType, "video/webm"):
		return ".webm"
	case strings.HasPrefix(contentType, "video/quicktime"):
		return ".mov"
	case strings.HasPrefix(contentType, "audio/mpeg"):
		return ".mp3"
	default:
		return ".mp4"
	}
}
