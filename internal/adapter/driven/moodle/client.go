// Package moodle implements the PlatformClient port against a Moodle site's
// forms-based login and server-rendered calendar.
package moodle

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/knguessan/moodlewatch/internal/domain/model"
	"github.com/knguessan/moodlewatch/internal/domain/port/driven"
)

const (
	loginPath    = "/login/index.php"
	calendarPath = "/calendar/view.php?view=upcoming"

	// tokenField is the hidden anti-forgery input Moodle renders on the login
	// page; its value must be echoed back on the form POST.
	tokenField = "logintoken"
)

// Compile-time interface satisfaction check.
var _ driven.PlatformClient = (*Client)(nil)

// Client implements the driven.PlatformClient port by scraping the site's
// login form and calendar view. Each Login builds a fresh http.Client with
// its own cookie jar, so nothing is shared across users or runs.
type Client struct {
	baseURL string
	marker  string // logged-in marker text; locale-specific.
	timeout time.Duration
}

// NewClient creates a Client for the Moodle deployment at baseURL.
// loggedInMarker is the text that only appears in the body of an
// authenticated page (the logout label, in the site's session language).
// timeout bounds every HTTP call; an expired timeout surfaces as a
// transport error.
func NewClient(baseURL, loggedInMarker string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		marker:  loggedInMarker,
		timeout: timeout,
	}
}

// Login performs the two-step form authentication: fetch the login page,
// extract the anti-forgery token, then POST the credentials with the token,
// following redirects. Success requires both signals — the final URL has left
// the login page AND the body carries the logged-in marker. Moodle can
// redirect while re-rendering the login form with an error, and can echo
// marker text in error states, so neither signal is reliable alone.
func (c *Client) Login(ctx context.Context, username, password string) (driven.Session, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("create cookie jar: %w", err)
	}
	hc := &http.Client{Jar: jar, Timeout: c.timeout}

	token, err := c.fetchLoginToken(ctx, hc)
	if err != nil {
		return nil, err
	}

	form := url.Values{
		"username": {username},
		"password": {password},
		tokenField: {token},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+loginPath, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("build login request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := hc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("submit login form: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("login response status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read login response: %w", err)
	}

	finalURL := resp.Request.URL.String()
	if strings.Contains(finalURL, loginPath) || !strings.Contains(string(body), c.marker) {
		return nil, driven.ErrAuthenticationFailed
	}

	return &session{hc: hc, calendarURL: c.baseURL + calendarPath}, nil
}

// fetchLoginToken GETs the login page and pulls the anti-forgery token out of
// its hidden input. A missing token means the login flow changed shape, which
// is a different failure class than bad credentials.
func (c *Client) fetchLoginToken(ctx context.Context, hc *http.Client) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+loginPath, nil)
	if err != nil {
		return "", fmt.Errorf("build login page request: %w", err)
	}

	resp, err := hc.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch login page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("login page status %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return "", fmt.Errorf("parse login page: %w", err)
	}

	token, ok := doc.Find(`input[name="` + tokenField + `"]`).First().Attr("value")
	if !ok {
		return "", fmt.Errorf("%w: %s field missing from login page", driven.ErrSiteChanged, tokenField)
	}
	return token, nil
}

// session holds the cookie-backed client for one authenticated user. It must
// not outlive the login attempt that produced it.
type session struct {
	hc          *http.Client
	calendarURL string
}

var _ driven.Session = (*session)(nil)

// FetchAssignments GETs the upcoming-events view with the session cookies and
// extracts assignment records from the response body.
func (s *session) FetchAssignments(ctx context.Context) ([]model.Assignment, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.calendarURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build calendar request: %w", err)
	}

	resp, err := s.hc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch calendar: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("calendar status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read calendar: %w", err)
	}

	return Extract(string(body)), nil
}
