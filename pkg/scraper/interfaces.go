package scraper

import (
	"context"

	"osudl/pkg/osu"
)

// SearchClient defines the search operation the scraper depends on
type SearchClient interface {
	Search(ctx context.Context, cursor osu.Cursor) (*osu.SearchResponse, error)
}
