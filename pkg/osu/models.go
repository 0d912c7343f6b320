package osu

import (
	"net/url"

	"osudl/pkg/beatmap"
)

// SearchResponse is the body of a beatmapsets search
type SearchResponse struct {
	Beatmapsets  []BeatmapsetRecord `json:"beatmapsets"`
	CursorString string             `json:"cursor_string,omitempty"`
	Total        int                `json:"total,omitempty"`
}

// BeatmapsetRecord holds the search fields the downloader relies on
type BeatmapsetRecord struct {
	ID             int64  `json:"id"`
	Title          string `json:"title"`
	Artist         string `json:"artist"`
	FavouriteCount int64  `json:"favourite_count"`
	Video          bool   `json:"video,omitempty"`
}

// Set converts the record to a beatmap set identity
func (r BeatmapsetRecord) Set() beatmap.Set {
	return beatmap.New(r.ID, r.Artist, r.Title)
}

// LoginPayload is the form submitted to the session endpoint. It is built
// per login so the stored credentials are never touched.
type LoginPayload struct {
	Username string
	Password string
	Token    string
}

// Form encodes the payload. _token is omitted when no CSRF token was fetched.
func (p LoginPayload) Form() url.Values {
	form := url.Values{}
	form.Set("username", p.Username)
	form.Set("password", p.Password)
	if p.Token != "" {
		form.Set("_token", p.Token)
	}
	return form
}
