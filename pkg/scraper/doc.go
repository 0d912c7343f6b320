// Package scraper collects beatmap sets from the osu! search endpoint.
//
// The search results are ordered by favourite count, highest first. The
// Scraper walks them page by page with a cursor holding the favourite count
// of the last record seen, and stops once it holds the requested number of
// unique sets. Pages are fixed-size, so the result may overshoot the target.
//
// Usage:
//
//	s := scraper.New(client, log, m)
//	pending, err := s.Scrape(ctx, 200)
//	if err != nil {
//	    return err
//	}
//
// An empty page before the target is reached fails with ErrScrapeExhausted.
// A page whose last favourite count does not drop below the previous cursor
// fails with ErrCursorStalled. Both are protocol errors and are fatal for
// the run.
package scraper
