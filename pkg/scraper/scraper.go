package scraper

import (
	"context"
	"fmt"

	"osudl/pkg/beatmap"
	errs "osudl/pkg/errors"
	"osudl/pkg/logger"
	"osudl/pkg/metrics"
	"osudl/pkg/osu"
)

var (
	ErrScrapeExhausted = errs.New(errs.ErrorTypeProtocol, "scrape exhausted before reaching target count")
	ErrCursorStalled   = errs.New(errs.ErrorTypeProtocol, "search cursor did not advance")
)

// Scraper walks the favourites-ordered search results with a cursor
type Scraper struct {
	client  SearchClient
	cursor  osu.Cursor
	metrics *metrics.Metrics
	logger  logger.Logger
}

// New creates a Scraper. m may be nil.
func New(client SearchClient, log logger.Logger, m *metrics.Metrics) *Scraper {
	if log == nil {
		log = logger.NewNopLogger()
	}
	return &Scraper{
		client:  client,
		cursor:  osu.InitialCursor(),
		metrics: m,
		logger:  log.WithField("component", "scraper"),
	}
}

// Cursor returns the cursor state after the last fetched page
func (s *Scraper) Cursor() osu.Cursor {
	return s.cursor
}

// Scrape collects at least target unique beatmap sets, starting from the
// most favourited. The cursor is reset on every call.
func (s *Scraper) Scrape(ctx context.Context, target int) (*beatmap.PendingSet, error) {
	pending := beatmap.NewPendingSet()
	s.cursor = osu.InitialCursor()

	if target <= 0 {
		return pending, nil
	}

	s.logger.InfoWithFields("Starting scrape", map[string]interface{}{
		"target": target,
	})

	for page := 1; pending.Len() < target; page++ {
		resp, err := s.client.Search(ctx, s.cursor)
		if err != nil {
			return nil, errs.Wrap(searchErrorType(err), fmt.Sprintf("search page %d failed", page), err)
		}

		records := resp.Beatmapsets
		if len(records) == 0 {
			s.logger.WarnWithFields("Search returned an empty page", map[string]interface{}{
				"page":   page,
				"unique": pending.Len(),
				"target": target,
			})
			return nil, ErrScrapeExhausted
		}

		for _, rec := range records {
			pending.Add(rec.Set())
		}

		last := records[len(records)-1].FavouriteCount
		if last >= s.cursor.FavouriteCount {
			s.logger.ErrorWithFields("Search cursor stalled", map[string]interface{}{
				"page":   page,
				"cursor": s.cursor.FavouriteCount,
				"last":   last,
			})
			return nil, ErrCursorStalled
		}
		s.cursor = osu.Cursor{FavouriteCount: last}

		s.metrics.PageFetched(pending.Len())
		s.logger.InfoWithFields("Fetched search page", map[string]interface{}{
			"page":   page,
			"unique": pending.Len(),
			"cursor": s.cursor.FavouriteCount,
		})
	}

	return pending, nil
}

// searchErrorType keeps network failures distinct; everything else the
// search can fail with is a protocol problem.
func searchErrorType(err error) errs.ErrorType {
	if errs.IsType(err, errs.ErrorTypeNetwork) {
		return errs.ErrorTypeNetwork
	}
	return errs.ErrorTypeProtocol
}
