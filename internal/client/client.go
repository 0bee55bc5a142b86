// Package client talks to the habitkeep API. It is the persistence
// collaborator of the terminal client: habits it returns are transient
// copies whose streaks are recomputed locally.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"

	"github.com/julianstephens/habitkeep/internal/clock"
	"github.com/julianstephens/habitkeep/internal/constants"
	"github.com/julianstephens/habitkeep/internal/logger"
	"github.com/julianstephens/habitkeep/internal/models"
	"github.com/julianstephens/habitkeep/internal/storage"
	"github.com/julianstephens/habitkeep/internal/streak"
)

// ErrNoToken is returned by calls that need a login when none is configured.
var ErrNoToken = errors.New("not logged in, run 'habitkeep login'")

// APIError is a non-2xx response from the server.
type APIError struct {
	Status  int
	Code    string
	Message string
	Details map[string]any
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("api: %d %s: %s", e.Status, e.Code, e.Message)
	}
	return fmt.Sprintf("api: %d %s", e.Status, e.Code)
}

// Unwrap lets callers test 404s with errors.Is(err, storage.ErrNotFound).
func (e *APIError) Unwrap() error {
	if e.Status == http.StatusNotFound {
		return storage.ErrNotFound
	}
	return nil
}

// Options configures a Client.
type Options struct {
	BaseURL    string
	Token      string
	Timeout    time.Duration
	Clock      clock.Clock
	Location   *time.Location
	HTTPClient *http.Client
}

type Client struct {
	baseURL *url.URL
	token   string
	http    *http.Client
	clock   clock.Clock
	loc     *time.Location
}

// New validates opts and returns a Client.
func New(opts Options) (*Client, error) {
	if opts.BaseURL == "" {
		opts.BaseURL = constants.DefaultAPIURL
	}
	u, err := url.Parse(strings.TrimRight(opts.BaseURL, "/"))
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("invalid API URL %q", opts.BaseURL)
	}
	if opts.Timeout <= 0 {
		opts.Timeout = constants.DefaultHTTPTimeout
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Timeout: opts.Timeout}
	}
	if opts.Clock == nil {
		opts.Clock = clock.RealClock{}
	}
	if opts.Location == nil {
		opts.Location = time.UTC
	}

	return &Client{
		baseURL: u,
		token:   opts.Token,
		http:    opts.HTTPClient,
		clock:   opts.Clock,
		loc:     opts.Location,
	}, nil
}

// Today is the client's calendar day in the configured timezone.
func (c *Client) Today() string {
	return clock.Today(c.clock, c.loc)
}

// Identity reads the email and name claims from the stored token. The
// signature is not checked; the server does that on every request.
func (c *Client) Identity() (email, name string, err error) {
	if c.token == "" {
		return "", "", ErrNoToken
	}
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(c.token, claims); err != nil {
		return "", "", fmt.Errorf("stored token is malformed: %w", err)
	}
	email, _ = claims["email"].(string)
	name, _ = claims["name"].(string)
	if email == "" {
		return "", "", errors.New("stored token has no email claim")
	}
	return email, name, nil
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
	Message string          `json:"message"`
	Details map[string]any  `json:"details"`
}

// do sends a request and decodes the envelope's data into out (if non-nil).
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any, auth bool) error {
	if auth && c.token == "" {
		return ErrNoToken
	}

	u := *c.baseURL
	u.Path = c.baseURL.Path + path
	if query != nil {
		u.RawQuery = query.Encode()
	}

	var r io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		r = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), r)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", constants.AppName+"/"+constants.Version)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	logger.Debug("API request", "method", method, "url", u.String())
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNoContent {
		return nil
	}

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		if resp.StatusCode >= 300 {
			return &APIError{Status: resp.StatusCode, Code: http.StatusText(resp.StatusCode)}
		}
		return fmt.Errorf("failed to decode response: %w", err)
	}

	if resp.StatusCode >= 300 || !env.Success {
		return &APIError{Status: resp.StatusCode, Code: env.Error, Message: env.Message, Details: env.Details}
	}
	if out != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return fmt.Errorf("failed to decode response data: %w", err)
		}
	}
	return nil
}

// reconcile recomputes the streak from history; the stored scalar is never trusted.
func (c *Client) reconcile(h models.Habit) models.Habit {
	fixed, err := streak.Reconcile(h, c.Today())
	if err != nil {
		logger.Debug("Server streak disagrees with history", "habit", h.ID, "error", err)
	}
	return fixed
}

func (c *Client) reconcileAll(habits []models.Habit) []models.Habit {
	for i := range habits {
		habits[i] = c.reconcile(habits[i])
	}
	return habits
}

// Health is the server status.
type Health struct {
	Status   string `json:"status"`
	Today    string `json:"today"`
	Timezone string `json:"timezone"`
	Version  string `json:"version"`
}

func (c *Client) Health(ctx context.Context) (Health, error) {
	var h Health
	err := c.do(ctx, http.MethodGet, "/healthz", nil, nil, &h, false)
	return h, err
}

// ListPublic returns public habits matching filter, newest first.
func (c *Client) ListPublic(ctx context.Context, filter models.HabitFilter) ([]models.Habit, error) {
	q := url.Values{}
	if filter.Search != "" {
		q.Set("search", filter.Search)
	}
	if filter.Category != "" {
		q.Set("category", filter.Category)
	}
	if filter.Limit > 0 {
		q.Set("limit", strconv.Itoa(filter.Limit))
	}

	var habits []models.Habit
	if err := c.do(ctx, http.MethodGet, "/habits/public", q, nil, &habits, false); err != nil {
		return nil, err
	}
	return c.reconcileAll(habits), nil
}

// ListMine returns the logged-in user's habits.
func (c *Client) ListMine(ctx context.Context, includeDeleted bool) ([]models.Habit, error) {
	email, _, err := c.Identity()
	if err != nil {
		return nil, err
	}
	var q url.Values
	if includeDeleted {
		q = url.Values{"deleted": {"true"}}
	}

	var habits []models.Habit
	if err := c.do(ctx, http.MethodGet, "/habits/user/"+url.PathEscape(email), q, nil, &habits, true); err != nil {
		return nil, err
	}
	return c.reconcileAll(habits), nil
}

func (c *Client) Get(ctx context.Context, id string) (models.Habit, error) {
	var h models.Habit
	if err := c.do(ctx, http.MethodGet, "/habits/"+url.PathEscape(id), nil, nil, &h, false); err != nil {
		return models.Habit{}, err
	}
	return c.reconcile(h), nil
}

func (c *Client) Create(ctx context.Context, in models.HabitInput) (models.Habit, error) {
	var h models.Habit
	if err := c.do(ctx, http.MethodPost, "/habits", nil, in, &h, true); err != nil {
		return models.Habit{}, err
	}
	return c.reconcile(h), nil
}

func (c *Client) Update(ctx context.Context, id string, in models.HabitInput) (models.Habit, error) {
	var h models.Habit
	if err := c.do(ctx, http.MethodPut, "/habits/"+url.PathEscape(id), nil, in, &h, true); err != nil {
		return models.Habit{}, err
	}
	return c.reconcile(h), nil
}

func (c *Client) Delete(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/habits/"+url.PathEscape(id), nil, nil, nil, true)
}

func (c *Client) Restore(ctx context.Context, id string) (models.Habit, error) {
	var h models.Habit
	if err := c.do(ctx, http.MethodPost, "/habits/"+url.PathEscape(id)+"/restore", nil, nil, &h, true); err != nil {
		return models.Habit{}, err
	}
	return c.reconcile(h), nil
}

// UpdateHabitCompletion asks the server to record date for the habit. A 409
// becomes *streak.AlreadyCompletedError; every other failure, transport
// included, becomes *streak.PersistenceError and may be retried.
func (c *Client) UpdateHabitCompletion(ctx context.Context, habitID, date string) (models.Habit, error) {
	var h models.Habit
	err := c.do(ctx, http.MethodPost, "/habits/"+url.PathEscape(habitID)+"/complete", nil,
		models.CompletionRequest{HabitID: habitID, Date: date}, &h, true)
	if err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.Status == http.StatusConflict {
			return models.Habit{}, &streak.AlreadyCompletedError{HabitID: habitID, Day: date}
		}
		return models.Habit{}, &streak.PersistenceError{HabitID: habitID, Op: "complete", Err: err}
	}
	return c.reconcile(h), nil
}
