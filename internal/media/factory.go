package media

import (
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/ppiankov/claimcheck/internal/model"
	"github.com/ppiankov/claimcheck/internal/util"
	"github.com/ppiankov/claimcheck/internal/worker"
)

// NewFetcher creates the configured fetcher
func NewFetcher(cfg model.MediaConfig, proxy model.HTTPConfig, run Runner, log logrus.FieldLogger) (Fetcher, error) {
	audio := NewAudioExtractor(cfg.FfmpegPath, run)

	switch strings.ToLower(cfg.Fetcher) {
	case "", "ytdlp", "yt-dlp":
		return NewYtDlpFetcher(cfg.YtDlpPath, audio, run, log), nil
	case "http":
		opts := HTTPOptions{
			Timeout:    cfg.FetchTimeout,
			UserAgent:  cfg.UserAgent,
			MaxBytes:   cfg.MaxBytes,
			Limiter:    worker.NewLimiter(1, 2),
			HTTPProxy:  proxy.HTTPProxy,
			HTTPSProxy: proxy.HTTPSProxy,
			NoProxy:    proxy.NoProxy,
		}
		if cfg.RespectRobots {
			opts.Robots = util.NewRobotsChecker(util.NormalizeUserAgent(cfg.UserAgent), cfg.FetchTimeout,
				util.NewProxyFunc(proxy.HTTPProxy, proxy.HTTPSProxy, proxy.NoProxy))
		}
		return NewHTTPFetcher(opts, audio, log), nil
	default:
		return nil, fmt.Errorf("unsupported media fetcher: %s", cfg.Fetcher)
	}
}
