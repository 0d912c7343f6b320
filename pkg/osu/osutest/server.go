// Package osutest provides an in-process fake of the osu! website for tests.
package osutest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"sync"

	"osudl/pkg/osu"
)

const (
	// Token is the CSRF token embedded in the fake home page
	Token = "fake-csrf-token-0123456789"

	sessionCookie = "osu_session"
	sessionValue  = "logged-in"
)

// Server simulates the home, session, search and download endpoints
type Server struct {
	server *httptest.Server

	mu          sync.Mutex
	username    string
	password    string
	requireCSRF bool
	catalog     []osu.BeatmapsetRecord
	pageSize    int
	archives    map[int64][]byte
	failures    map[int64][]int
	failAll     int
	searchError int
	logins      []map[string]string
	searches    []map[string]string
	downloads   []DownloadRequest
}

// DownloadRequest records one archive request
type DownloadRequest struct {
	ID      int64
	NoVideo bool
	Referer string
	Status  int
}

// NewServer starts a fake site accepting the given credentials
func NewServer(username, password string) *Server {
	s := &Server{
		username:    username,
		password:    password,
		requireCSRF: true,
		pageSize:    50,
		archives:    make(map[int64][]byte),
		failures:    make(map[int64][]int),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /home", s.handleHome)
	mux.HandleFunc("POST /session", s.handleSession)
	mux.HandleFunc("GET /beatmapsets/search", s.handleSearch)
	mux.HandleFunc("GET /beatmapsets/{id}/download", s.handleDownload)

	s.server = httptest.NewServer(mux)
	return s
}

// URL returns the base URL of the fake site
func (s *Server) URL() string {
	return s.server.URL
}

// Close shuts the server down
func (s *Server) Close() {
	s.server.Close()
}

// SetRequireCSRF toggles whether login must carry the _token field
func (s *Server) SetRequireCSRF(require bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requireCSRF = require
}

// SetPageSize sets the number of records per search page
func (s *Server) SetPageSize(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pageSize = n
}

// AddBeatmapset adds a set to the searchable catalog with archive content
func (s *Server) AddBeatmapset(rec osu.BeatmapsetRecord, archive []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.catalog = append(s.catalog, rec)
	sort.SliceStable(s.catalog, func(i, j int) bool {
		return s.catalog[i].FavouriteCount > s.catalog[j].FavouriteCount
	})
	s.archives[rec.ID] = archive
}

// FailDownload makes the next downloads of id answer with the given
// statuses, one per request
func (s *Server) FailDownload(id int64, statuses ...int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[id] = append(s.failures[id], statuses...)
}

// FailAllDownloads answers every download with status; 0 turns it off
func (s *Server) FailAllDownloads(status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failAll = status
}

// FailSearch answers every search with status; 0 turns it off
func (s *Server) FailSearch(status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.searchError = status
}

// Logins returns the submitted login forms
func (s *Server) Logins() []map[string]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]map[string]string(nil), s.logins...)
}

// Searches returns the query parameters of each search request
func (s *Server) Searches() []map[string]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]map[string]string(nil), s.searches...)
}

// Downloads returns every archive request in arrival order
func (s *Server) Downloads() []DownloadRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]DownloadRequest(nil), s.downloads...)
}

func (s *Server) handleHome(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprintf(w, `<!DOCTYPE html>
<html>
<head>
    <meta charset="utf-8">
    <meta name="csrf-token"
        content="%s">
    <title>osu!</title>
</head>
<body></body>
</html>`, Token)
}

func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad form", http.StatusBadRequest)
		return
	}

	form := map[string]string{}
	for k := range r.PostForm {
		form[k] = r.PostForm.Get(k)
	}
	form["referer"] = r.Header.Get("Referer")

	s.mu.Lock()
	s.logins = append(s.logins, form)
	ok := form["username"] == s.username && form["password"] == s.password
	if s.requireCSRF && form["_token"] != Token {
		ok = false
	}
	s.mu.Unlock()

	if !ok {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnprocessableEntity)
		json.NewEncoder(w).Encode(map[string]string{"error": "Incorrect sign in"})
		return
	}

	http.SetCookie(w, &http.Cookie{Name: sessionCookie, Value: sessionValue, Path: "/"})
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{"user": map[string]string{"username": s.username}})
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	params := map[string]string{}
	for k := range q {
		params[k] = q.Get(k)
	}

	s.mu.Lock()
	s.searches = append(s.searches, params)
	status := s.searchError
	s.mu.Unlock()

	if status != 0 {
		http.Error(w, http.StatusText(status), status)
		return
	}
	if q.Get("sort") != osu.SortFavouritesDesc {
		http.Error(w, "unsupported sort", http.StatusBadRequest)
		return
	}

	cursor, err := parseCursor(q)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	page := make([]osu.BeatmapsetRecord, 0, s.pageSize)
	for _, rec := range s.catalog {
		if rec.FavouriteCount < cursor.FavouriteCount && len(page) < s.pageSize {
			page = append(page, rec)
		}
	}
	s.mu.Unlock()

	resp := osu.SearchResponse{Beatmapsets: page}
	if len(page) > 0 {
		resp.CursorString = osu.EncodeCursorString(osu.Cursor{FavouriteCount: page[len(page)-1].FavouriteCount, ID: page[len(page)-1].ID})
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

func parseCursor(q map[string][]string) (osu.Cursor, error) {
	get := func(key string) string {
		if v := q[key]; len(v) > 0 {
			return v[0]
		}
		return ""
	}

	if cs := get("cursor_string"); cs != "" {
		return osu.DecodeCursorString(cs)
	}
	if fc := get("cursor[favourite_count]"); fc != "" {
		n, err := strconv.ParseInt(fc, 10, 64)
		if err != nil {
			return osu.Cursor{}, fmt.Errorf("invalid favourite_count: %w", err)
		}
		id, _ := strconv.ParseInt(get("cursor[_id]"), 10, 64)
		return osu.Cursor{FavouriteCount: n, ID: id}, nil
	}
	return osu.InitialCursor(), nil
}

func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		http.NotFound(w, r)
		return
	}

	req := DownloadRequest{
		ID:      id,
		NoVideo: r.URL.Query().Get("noVideo") == "1",
		Referer: r.Header.Get("Referer"),
	}

	s.mu.Lock()
	archive, known := s.archives[id]
	status := http.StatusOK
	switch {
	case s.failAll != 0:
		status = s.failAll
	case len(s.failures[id]) > 0:
		status = s.failures[id][0]
		s.failures[id] = s.failures[id][1:]
	case !loggedIn(r):
		status = http.StatusUnauthorized
	case !known:
		status = http.StatusNotFound
	}
	req.Status = status
	s.downloads = append(s.downloads, req)
	s.mu.Unlock()

	if status != http.StatusOK {
		http.Error(w, http.StatusText(status), status)
		return
	}

	w.Header().Set("Content-Type", "application/x-osu-beatmap-archive")
	w.Header().Set("Content-Length", strconv.Itoa(len(archive)))
	w.Write(archive)
}

func loggedIn(r *http.Request) bool {
	c, err := r.Cookie(sessionCookie)
	return err == nil && c.Value == sessionValue
}
