// Package wp speaks to a WordPress site's REST API: the core lookups the
// inspector needs (statuses, users, settings) and the Web Stories
// collection, with an optional on-disk response cache.
package wp

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/storylens/storylens/internal/story"
)

const (
	defaultTimeout = 15 * time.Second
	usersPerPage   = 100
)

// ErrNotFound reports a 404 from the REST API.
var ErrNotFound = errors.New("resource not found")

// APIError is a decoded WordPress REST error envelope.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"-"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("wordpress API error %s (HTTP %d): %s", e.Code, e.Status, e.Message)
}

// Status is one registered post status.
type Status struct {
	Slug       string `json:"slug"`
	Name       string `json:"name"`
	ShowInList bool   `json:"show_in_list"`
}

// User is one site user.
type User struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// Config configures a Client.
type Config struct {
	// BaseURL is the site root, e.g. https://example.com. The REST prefix
	// is appended automatically.
	BaseURL string
	// Username and AppPassword enable basic auth (WordPress application
	// passwords). Optional; unauthenticated requests reach public routes
	// only.
	Username    string
	AppPassword string
	Timeout     time.Duration
	UserAgent   string
	// Cache, when set, serves story reads from disk with conditional
	// revalidation.
	Cache *Cache
}

// Client fetches from one site's REST API.
type Client struct {
	baseURL   string
	http      *http.Client
	username  string
	password  string
	userAgent string
	cache     *Cache
}

// NewClient returns a client for the configured site.
func NewClient(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		baseURL:   strings.TrimRight(cfg.BaseURL, "/"),
		http:      &http.Client{Timeout: timeout},
		username:  cfg.Username,
		password:  cfg.AppPassword,
		userAgent: cfg.UserAgent,
		cache:     cfg.Cache,
	}
}

// BaseURL returns the configured site root.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Authenticated reports whether the client sends credentials.
func (c *Client) Authenticated() bool {
	return c.username != ""
}

func (c *Client) requestURL(path string, query url.Values) string {
	u := c.baseURL + "/wp-json/" + strings.TrimLeft(path, "/")
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	return u
}

func (c *Client) header() http.Header {
	header := make(http.Header)
	header.Set("Accept", "application/json")
	if c.userAgent != "" {
		header.Set("User-Agent", c.userAgent)
	}
	if c.username != "" {
		header.Set("Authorization", "Basic "+basicAuth(c.username, c.password))
	}
	return header
}

func (c *Client) getJSON(ctx context.Context, path string, query url.Values, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.requestURL(path, query), nil)
	if err != nil {
		return err
	}
	for name, values := range c.header() {
		req.Header[name] = values
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return decodeError(resp)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response for %s: %w", path, err)
	}
	return nil
}

// getRaw fetches the response body, through the cache when one is attached.
func (c *Client) getRaw(ctx context.Context, path string, query url.Values) ([]byte, error) {
	rawURL := c.requestURL(path, query)
	if c.cache != nil {
		return c.cache.Fetch(ctx, rawURL, c.header())
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	for name, values := range c.header() {
		req.Header[name] = values
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return nil, decodeError(resp)
	}
	return io.ReadAll(resp.Body)
}

func basicAuth(username, password string) string {
	return base64.StdEncoding.EncodeToString([]byte(username + ":" + password))
}

func decodeError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	apiErr := &APIError{Status: resp.StatusCode}
	if err := json.Unmarshal(body, apiErr); err == nil && apiErr.Code != "" {
		if resp.StatusCode == http.StatusNotFound {
			return fmt.Errorf("%w: %s", ErrNotFound, apiErr.Message)
		}
		return apiErr
	}
	if resp.StatusCode == http.StatusNotFound {
		return ErrNotFound
	}
	return fmt.Errorf("wordpress API error: %s (%s)", resp.Status, strings.TrimSpace(string(body)))
}

type restStatus struct {
	Name       string `json:"name"`
	Slug       string `json:"slug"`
	ShowInList bool   `json:"show_in_list"`
}

// ListStatuses returns the registered post statuses in slug order. The
// statuses route responds with a map keyed by slug; edit context exposes
// the list flags.
func (c *Client) ListStatuses(ctx context.Context) ([]Status, error) {
	var payload map[string]restStatus
	query := url.Values{"context": []string{"edit"}}
	if err := c.getJSON(ctx, "wp/v2/statuses", query, &payload); err != nil {
		return nil, fmt.Errorf("list statuses: %w", err)
	}

	slugs := make([]string, 0, len(payload))
	for slug := range payload {
		slugs = append(slugs, slug)
	}
	sort.Strings(slugs)

	out := make([]Status, 0, len(payload))
	for _, slug := range slugs {
		entry := payload[slug]
		if entry.Slug == "" {
			entry.Slug = slug
		}
		out = append(out, Status{Slug: entry.Slug, Name: entry.Name, ShowInList: entry.ShowInList})
	}
	return out, nil
}

// ListUsers returns all site users, paging until the API yields a short
// page.
func (c *Client) ListUsers(ctx context.Context) ([]User, error) {
	var out []User
	for page := 1; ; page++ {
		query := url.Values{
			"per_page": []string{strconv.Itoa(usersPerPage)},
			"page":     []string{strconv.Itoa(page)},
		}
		var batch []User
		if err := c.getJSON(ctx, "wp/v2/users", query, &batch); err != nil {
			return nil, fmt.Errorf("list users page %d: %w", page, err)
		}
		out = append(out, batch...)
		if len(batch) < usersPerPage {
			break
		}
	}
	return out, nil
}

// Settings returns the site settings map. The route requires auth.
func (c *Client) Settings(ctx context.Context) (map[string]any, error) {
	var payload map[string]any
	if err := c.getJSON(ctx, "wp/v2/settings", nil, &payload); err != nil {
		return nil, fmt.Errorf("fetch settings: %w", err)
	}
	return payload, nil
}

// ListStories returns the site's Web Stories. Authenticated clients read in
// edit context so unpublished stories and raw story data are included.
func (c *Client) ListStories(ctx context.Context) ([]story.Story, error) {
	query := url.Values{"per_page": []string{"100"}}
	if c.Authenticated() {
		query.Set("context", "edit")
	}
	data, err := c.getRaw(ctx, "web-stories/v1/web-story", query)
	if err != nil {
		return nil, fmt.Errorf("list stories: %w", err)
	}
	stories, err := story.ParseList(data)
	if err != nil {
		return nil, fmt.Errorf("list stories: %w", err)
	}
	return stories, nil
}

// GetStory returns one story with its page data.
func (c *Client) GetStory(ctx context.Context, id int) (*story.Story, error) {
	query := url.Values{}
	if c.Authenticated() {
		query.Set("context", "edit")
	}
	data, err := c.getRaw(ctx, fmt.Sprintf("web-stories/v1/web-story/%d", id), query)
	if err != nil {
		return nil, fmt.Errorf("fetch story %d: %w", id, err)
	}
	st, err := story.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("fetch story %d: %w", id, err)
	}
	return st, nil
}
