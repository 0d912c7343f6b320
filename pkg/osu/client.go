package osu

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"regexp"
	"strings"
	"time"

	"golang.org/x/net/publicsuffix"

	"osudl/pkg/auth"
	"osudl/pkg/beatmap"
	"osudl/pkg/config"
	errs "osudl/pkg/errors"
	"osudl/pkg/logger"
	"osudl/pkg/metrics"
	"osudl/pkg/ratelimit"
)

// Errors returned by the client
var (
	ErrTokenNotFound = errs.New(errs.ErrorTypeAuth, "csrf token not found on home page")
	ErrLoginFailed   = errs.New(errs.ErrorTypeAuth, "login failed")
)

// csrfPattern finds the token in the <meta name="csrf-token" content="..."> tag
var csrfPattern = regexp.MustCompile(`(?s)csrf-token.*?content="(.*?)"`)

// Client talks to the osu! website. It keeps the session cookie in a jar,
// so one Client is one logged-in session.
type Client struct {
	httpClient *http.Client
	headers    map[string]string
	baseURL    string
	encoder    CursorEncoder
	csrfToken  bool
	limiter    ratelimit.Limiter
	metrics    *metrics.Metrics
	logger     logger.Logger
}

// NewClient creates a client for cfg. timeout bounds the wait for response
// headers; archive bodies may stream for longer.
func NewClient(cfg *config.OsuConfig, timeout time.Duration, limiter ratelimit.Limiter, log logger.Logger) (*Client, error) {
	encoder, err := NewCursorEncoder(cfg.CursorFormat)
	if err != nil {
		return nil, err
	}

	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, fmt.Errorf("failed to create cookie jar: %w", err)
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.ResponseHeaderTimeout = timeout

	if limiter == nil {
		limiter = ratelimit.NewUnlimited()
	}
	if log == nil {
		log = logger.NewNopLogger()
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	headers := map[string]string{
		"Accept-Language": "en-US,en;q=0.9",
		"Cache-Control":   "no-cache",
	}
	if cfg.UserAgent != "" {
		headers["User-Agent"] = cfg.UserAgent
	}

	return &Client{
		httpClient: &http.Client{
			Jar:       jar,
			Transport: transport,
		},
		headers:   headers,
		baseURL:   strings.TrimRight(baseURL, "/"),
		encoder:   encoder,
		csrfToken: cfg.CSRFToken,
		limiter:   limiter,
		logger:    log.WithField("component", "osu_client"),
	}, nil
}

// SetMetrics attaches run metrics; request latencies are recorded per endpoint
func (c *Client) SetMetrics(m *metrics.Metrics) {
	c.metrics = m
}

// doRequest waits on the rate limiter, applies the default headers and
// performs the request. Transport failures are returned as network errors.
func (c *Client) doRequest(ctx context.Context, req *http.Request, endpoint string) (*http.Response, error) {
	if !c.limiter.Allow() {
		c.logger.DebugWithFields("Request rate limit reached, waiting", map[string]interface{}{
			"endpoint": endpoint,
		})
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, errs.Wrap(errs.ErrorTypeNetwork, "rate limiter wait aborted", err)
		}
	}

	for key, value := range c.headers {
		if req.Header.Get(key) == "" {
			req.Header.Set(key, value)
		}
	}

	start := time.Now()
	c.logger.DebugWithFields("sending HTTP request", map[string]interface{}{
		"method": req.Method,
		"url":    req.URL.String(),
	})

	resp, err := c.httpClient.Do(req)
	duration := time.Since(start)
	c.metrics.ObserveRequest(endpoint, duration.Seconds())

	if err != nil {
		c.logger.ErrorWithFields("HTTP request failed", map[string]interface{}{
			"method":   req.Method,
			"url":      req.URL.String(),
			"error":    err.Error(),
			"duration": duration,
		})
		return nil, errs.Wrap(errs.ErrorTypeNetwork, fmt.Sprintf("%s %s", req.Method, endpoint), err)
	}

	c.logger.DebugWithFields("HTTP request completed", map[string]interface{}{
		"method":   req.Method,
		"url":      req.URL.String(),
		"status":   resp.StatusCode,
		"duration": duration,
	})

	return resp, nil
}

func (c *Client) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, joinURL(c.baseURL, path), body)
	if err != nil {
		return nil, errs.Wrap(errs.ErrorTypeUnknown, "failed to create request", err)
	}
	return req, nil
}

// FetchToken loads the home page and extracts the CSRF token
func (c *Client) FetchToken(ctx context.Context) (string, error) {
	req, err := c.newRequest(ctx, http.MethodGet, HomePath, nil)
	if err != nil {
		return "", err
	}

	resp, err := c.doRequest(ctx, req, endpointHome)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", errs.WithCode(errs.ErrorTypeAuth, resp.StatusCode, "home page unavailable")
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", errs.Wrap(errs.ErrorTypeNetwork, "failed to read home page", err)
	}

	match := csrfPattern.FindSubmatch(body)
	if match == nil {
		return "", ErrTokenNotFound
	}
	return string(match[1]), nil
}

// Login posts creds to the session endpoint. The session cookie set by the
// response is kept by the client for all later requests.
func (c *Client) Login(ctx context.Context, creds auth.Credentials) error {
	payload := LoginPayload{
		Username: creds.Username,
		Password: creds.Password,
	}

	if c.csrfToken {
		token, err := c.FetchToken(ctx)
		if err != nil {
			return err
		}
		payload.Token = token
	}

	req, err := c.newRequest(ctx, http.MethodPost, SessionPath, strings.NewReader(payload.Form().Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Referer", joinURL(c.baseURL, HomePath))

	resp, err := c.doRequest(ctx, req, endpointLogin)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		c.logger.WarnWithFields("login rejected", map[string]interface{}{
			"status":   resp.StatusCode,
			"username": creds.Username,
		})
		return &errs.Error{Type: errs.ErrorTypeAuth, Message: ErrLoginFailed.Message, Code: resp.StatusCode}
	}

	return nil
}

// Search fetches one page of beatmap sets ordered by favourites, starting
// below cursor.
func (c *Client) Search(ctx context.Context, cursor Cursor) (*SearchResponse, error) {
	query := SearchQuery(c.encoder, cursor)

	req, err := c.newRequest(ctx, http.MethodGet, SearchPath+"?"+query.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.doRequest(ctx, req, endpointSearch)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if err := c.checkResponseStatus(resp, errs.ErrorTypeProtocol); err != nil {
		return nil, err
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errs.Wrap(errs.ErrorTypeNetwork, "failed to read search response", err)
	}

	var result SearchResponse
	if err := json.Unmarshal(body, &result); err != nil {
		bodyPreview := string(body)
		if len(bodyPreview) > 200 {
			bodyPreview = bodyPreview[:200] + "..."
		}
		c.logger.ErrorWithFields("failed to parse search response", map[string]interface{}{
			"status":       resp.StatusCode,
			"error":        err.Error(),
			"body_preview": bodyPreview,
		})
		return nil, errs.Wrap(errs.ErrorTypeProtocol, "failed to parse search response", err)
	}

	return &result, nil
}

// DownloadArchive requests the archive of set. On success the caller owns
// the returned body and must close it; size is -1 when unknown.
func (c *Client) DownloadArchive(ctx context.Context, set beatmap.Set, noVideo bool) (io.ReadCloser, int64, error) {
	req, err := c.newRequest(ctx, http.MethodGet, set.DownloadPath(noVideo), nil)
	if err != nil {
		return nil, 0, err
	}
	req.Header.Set("Referer", joinURL(c.baseURL, set.PagePath()))

	resp, err := c.doRequest(ctx, req, endpointDownload)
	if err != nil {
		return nil, 0, err
	}

	if err := c.checkResponseStatus(resp, errs.ErrorTypeDownload); err != nil {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		resp.Body.Close()
		return nil, 0, err
	}

	return resp.Body, resp.ContentLength, nil
}

// checkResponseStatus maps a non-200 status to an error of errorType
// carrying the status code
func (c *Client) checkResponseStatus(resp *http.Response, errorType errs.ErrorType) error {
	if resp.StatusCode == http.StatusOK {
		return nil
	}

	fields := map[string]interface{}{
		"status": resp.StatusCode,
		"url":    resp.Request.URL.String(),
	}

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		c.logger.WarnWithFields("rate limit exceeded", fields)
		return errs.WithCode(errorType, resp.StatusCode, "rate limit exceeded")
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		c.logger.WarnWithFields("request not authorised", fields)
		return errs.WithCode(errorType, resp.StatusCode, "not authorised")
	case resp.StatusCode == http.StatusNotFound:
		c.logger.WarnWithFields("resource not found", fields)
		return errs.WithCode(errorType, resp.StatusCode, "resource not found")
	case resp.StatusCode >= 500:
		c.logger.ErrorWithFields("server error", fields)
		return errs.WithCode(errorType, resp.StatusCode, "server error")
	default:
		c.logger.ErrorWithFields("unexpected status", fields)
		return errs.WithCode(errorType, resp.StatusCode, fmt.Sprintf("unexpected status code: %d", resp.StatusCode))
	}
}
