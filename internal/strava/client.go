package strava

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/oauth2"
)

const BaseURL = "https://www.strava.com/api/v3"

// maxPerPage is the largest page Strava serves
const maxPerPage = 200

// Client is a Strava API client limited to what ride import needs
type Client struct {
	httpClient  *http.Client
	rateLimiter *RateLimiter
	baseURL     string
}

// NewClient creates a client that authenticates through tokenSource
func NewClient(ctx context.Context, tokenSource oauth2.TokenSource) *Client {
	return &Client{
		httpClient:  oauth2.NewClient(ctx, tokenSource),
		rateLimiter: NewRateLimiter(),
		baseURL:     BaseURL,
	}
}

// newClientWithHTTP is used by tests to point at a local server
func newClientWithHTTP(httpClient *http.Client, baseURL string) *Client {
	return &Client{
		httpClient:  httpClient,
		rateLimiter: newRateLimiter(time.Now),
		baseURL:     baseURL,
	}
}

// GetActivities fetches one page of the athlete's activities, newest first.
// A zero before means "now".
func (c *Client) GetActivities(ctx context.Context, before time.Time, page, perPage int) ([]Activity, error) {
	params := url.Values{}
	if !before.IsZero() {
		params.Set("before", strconv.FormatInt(before.Unix(), 10))
	}
	params.Set("page", strconv.Itoa(page))
	params.Set("per_page", strconv.Itoa(perPage))

	var activities []Activity
	if err := c.getJSON(ctx, "/athlete/activities", params, &activities); err != nil {
		return nil, fmt.Errorf("fetching activities: %w", err)
	}
	return activities, nil
}

// RecentRides returns up to n of the most recent rides, skipping runs,
// swims and other sports. It stops after a few pages to save quota.
func (c *Client) RecentRides(ctx context.Context, n int) ([]Activity, error) {
	if n <= 0 {
		return nil, nil
	}
	perPage := min(max(n*2, 30), maxPerPage)

	var rides []Activity
	for page := 1; page <= 5 && len(rides) < n; page++ {
		activities, err := c.GetActivities(ctx, time.Time{}, page, perPage)
		if err != nil {
			return rides, err
		}
		for _, a := range activities {
			if a.IsRide() {
				rides = append(rides, a)
				if len(rides) == n {
					break
				}
			}
		}
		if len(activities) < perPage {
			break
		}
	}
	return rides, nil
}

// GetActivity fetches the summary of one activity
func (c *Client) GetActivity(ctx context.Context, activityID int64) (*Activity, error) {
	var a Activity
	path := fmt.Sprintf("/activities/%d", activityID)
	if err := c.getJSON(ctx, path, nil, &a); err != nil {
		return nil, fmt.Errorf("fetching activity %d: %w", activityID, err)
	}
	return &a, nil
}

// GetPowerStream fetches the time and watts streams of an activity
func (c *Client) GetPowerStream(ctx context.Context, activityID int64) (*PowerStream, error) {
	params := url.Values{}
	params.Set("keys", "time,watts")
	params.Set("key_by_type", "true")

	var stream PowerStream
	path := fmt.Sprintf("/activities/%d/streams", activityID)
	if err := c.getJSON(ctx, path, params, &stream); err != nil {
		return nil, fmt.Errorf("fetching power stream for %d: %w", activityID, err)
	}
	return &stream, nil
}

// RateLimitStatus returns the remaining requests per window
func (c *Client) RateLimitStatus() (shortRemaining, dailyRemaining int) {
	return c.rateLimiter.Status()
}

func (c *Client) getJSON(ctx context.Context, path string, params url.Values, v any) error {
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return err
	}

	reqURL := c.baseURL + path
	if len(params) > 0 {
		reqURL += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	c.rateLimiter.UpdateFromHeaders(resp.Header)

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("API error %d: %s", resp.StatusCode, string(body))
	}

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}
