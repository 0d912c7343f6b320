package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"

	"osudl/internal/downloader"
	"osudl/pkg/auth"
	"osudl/pkg/beatmap"
	"osudl/pkg/config"
	errs "osudl/pkg/errors"
	"osudl/pkg/logger"
	"osudl/pkg/metrics"
	"osudl/pkg/osu"
	"osudl/pkg/ratelimit"
	"osudl/pkg/scraper"
	"osudl/pkg/storage"
	"osudl/pkg/ui"
)

// Run banners
const (
	BannerStarted    = " DOWNLOADER STARTED "
	BannerFinished   = " DOWNLOADER FINISHED "
	BannerTerminated = " DOWNLOADER TERMINATED "
)

// LimitReachedLines are printed when the download loop gives up after
// maxFailures+1 failures in a row
func LimitReachedLines(maxFailures int) []string {
	return []string{
		fmt.Sprintf("Failed %d times in a row", maxFailures+1),
		"Website download limit reached",
		"Try again later",
	}
}

// Session holds everything one downloader run needs. It is created once,
// run once and closed.
type Session struct {
	ID string

	cfg      *config.Config
	creds    auth.Credentials
	client   *osu.Client
	library  *storage.Library
	scraper  *scraper.Scraper
	loop     *downloader.Loop
	metrics  *metrics.Metrics
	reporter ui.Reporter
	logger   logger.Logger
}

// NewSession wires the client, library, scraper and download loop for cfg
func NewSession(cfg *config.Config, creds auth.Credentials, log logger.Logger) (*Session, error) {
	if log == nil {
		log = logger.NewNopLogger()
	}

	id := uuid.NewString()
	log = log.WithField("run_id", id)

	var limiter ratelimit.Limiter
	if cfg.RateLimit.RequestsPerMinute > 0 {
		limiter = ratelimit.NewTokenBucket(cfg.RateLimit.RequestsPerMinute, time.Minute)
	} else {
		limiter = ratelimit.NewUnlimited()
	}

	client, err := osu.NewClient(&cfg.Osu, cfg.Download.Timeout, limiter, log)
	if err != nil {
		return nil, fmt.Errorf("failed to create osu! client: %w", err)
	}

	library, err := storage.NewLibrary(cfg.Output.LibraryRoot, log)
	if err != nil {
		return nil, err
	}

	m := metrics.New()
	client.SetMetrics(m)

	return &Session{
		ID:      id,
		cfg:     cfg,
		creds:   creds,
		client:  client,
		library: library,
		scraper: scraper.New(client, log, m),
		loop: downloader.NewLoop(downloader.LoopConfig{
			PacingDelay:            cfg.Download.PacingDelay,
			MaxConsecutiveFailures: cfg.Download.MaxConsecutiveFailures,
			Metrics:                m,
		}, log),
		metrics:  m,
		reporter: ui.NewConsoleReporter(),
		logger:   log,
	}, nil
}

// SetReporter replaces the console output of the run
func (s *Session) SetReporter(r ui.Reporter) {
	s.reporter = r
}

// Metrics returns the run metrics
func (s *Session) Metrics() *metrics.Metrics {
	return s.metrics
}

// Run logs in, scrapes the configured number of beatmap sets, drops those
// already in the library and downloads the rest.
func (s *Session) Run(ctx context.Context) (res downloader.Result, err error) {
	s.reporter.Banner(BannerStarted)
	s.logger.InfoWithFields("Downloader started", map[string]interface{}{
		"limit":        s.cfg.Download.Limit,
		"no_video":     s.cfg.Download.NoVideo,
		"library_root": s.library.Root(),
	})

	defer func() {
		if errors.Is(err, downloader.ErrDownloadLimitReached) {
			for _, line := range LimitReachedLines(s.loop.MaxConsecutiveFailures()) {
				s.reporter.Error(line, nil)
			}
		}
		if err != nil {
			s.logger.WithError(err).Error("Downloader terminated")
			s.reporter.Banner(BannerTerminated)
			return
		}
		s.logger.Info("Downloader finished")
		s.reporter.Banner(BannerFinished)
	}()

	res.State = downloader.StateAborted

	if err := s.client.Login(ctx, s.creds); err != nil {
		s.reporter.Error("Login failed", err)
		return res, err
	}
	s.reporter.Success("Login successful")
	s.logger.WithField("username", s.creds.Username).Info("Login successful")

	s.reporter.Info("Scraping beatmapsets", fmt.Sprintf("limit %d", s.cfg.Download.Limit))
	scraped, err := s.scraper.Scrape(ctx, s.cfg.Download.Limit)
	if err != nil {
		s.reporter.Error("Scraping failed", err)
		return res, err
	}
	s.reporter.Success(fmt.Sprintf("Scraped %d beatmapsets", scraped.Len()))

	pending := s.library.FilterExisting(scraped)
	s.metrics.Skipped(scraped.Len() - pending.Len())

	s.reporter.Queue(pending.Len())
	res, err = s.loop.Run(ctx, pending, s.download)
	s.reporter.Finish()
	return res, err
}

// download is the DownloadFunc of the loop. Bad statuses and broken
// transfers are per-set failures; a library write failure ends the run.
func (s *Session) download(ctx context.Context, set beatmap.Set) (bool, error) {
	log := s.logger.WithFields(map[string]interface{}{
		"beatmapset_id": set.ID,
		"beatmapset":    set.String(),
	})
	log.Info("Downloading beatmapset")

	body, _, err := s.client.DownloadArchive(ctx, set, s.cfg.Download.NoVideo)
	if err != nil {
		return s.failed(ctx, set, err)
	}
	defer body.Close()

	src := &trackingReader{r: body}
	n, err := s.library.SaveArchive(set, src)
	if err != nil {
		if src.err != nil {
			return s.failed(ctx, set, errs.Wrap(errs.ErrorTypeNetwork, "archive transfer interrupted", src.err))
		}
		return false, err
	}

	s.metrics.DownloadSucceeded(n)
	s.reporter.Downloaded(set.String(), n)
	logger.LogDownload(s.logger, set.ID, set.String(), n, nil)
	return true, nil
}

func (s *Session) failed(ctx context.Context, set beatmap.Set, err error) (bool, error) {
	if ctx.Err() != nil {
		return false, ctx.Err()
	}
	s.metrics.DownloadFailed()
	s.reporter.Failed(set.String(), err)
	logger.LogDownload(s.logger.WithField("error_type", string(errs.TypeOf(err))), set.ID, set.String(), 0, err)
	return false, nil
}

// Close writes the metrics textfile when one is configured
func (s *Session) Close() error {
	if err := s.metrics.WriteTextfile(s.cfg.Metrics.Textfile); err != nil {
		s.logger.WithError(err).Warn("Failed to write metrics")
		return err
	}
	return nil
}

// trackingReader remembers the read error of the response body so a broken
// transfer can be told apart from a failed write
type trackingReader struct {
	r   io.Reader
	err error
}

func (t *trackingReader) Read(p []byte) (int, error) {
	n, err := t.r.Read(p)
	if err != nil && err != io.EOF {
		t.err = err
	}
	return n, err
}
