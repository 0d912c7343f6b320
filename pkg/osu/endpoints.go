package osu

import (
	"net/url"
	"strings"
)

const (
	// DefaultBaseURL is the osu! website
	DefaultBaseURL = "https://osu.ppy.sh"

	// HomePath serves the page carrying the CSRF token
	HomePath = "/home"

	// SessionPath accepts the login form
	SessionPath = "/session"

	// SearchPath is the beatmap set search API
	SearchPath = "/beatmapsets/search"

	// SortFavouritesDesc orders search results by favourite count, highest first
	SortFavouritesDesc = "favourites_desc"
)

// endpoint names used for logging and request metrics
const (
	endpointHome     = "home"
	endpointLogin    = "login"
	endpointSearch   = "search"
	endpointDownload = "download"
)

// SearchQuery builds the query string for one search page
func SearchQuery(enc CursorEncoder, c Cursor) url.Values {
	q := enc.Encode(c)
	q.Set("sort", SortFavouritesDesc)
	return q
}

func joinURL(base, path string) string {
	return strings.TrimRight(base, "/") + path
}
