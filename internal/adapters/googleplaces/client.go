// internal/adapters/googleplaces/client.go
package googleplaces

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"flex_reviews/internal/adapters/observability"
)

const DefaultBase = "https://maps.googleapis.com/maps/api/place"

var ErrDenied = errors.New("googleplaces: request denied")

type Client struct {
	base string
	key  string
	hc   *http.Client
	rl   *rate.Limiter
}

func New(base, key string, rps int) (*Client, error) {
	if key == "" {
		return nil, fmt.Errorf("API key is required")
	}
	if base == "" {
		base = DefaultBase
	}
	if rps <= 0 {
		rps = 5
	}
	return &Client{
		base: strings.TrimRight(base, "/"),
		key:  key,
		hc:   &http.Client{Timeout: 15 * time.Second},
		rl:   rate.NewLimiter(rate.Limit(rps), rps),
	}, nil
}

// FindPlaceID resolves a free-text query (property name + city) to a
// place id. Empty string, not an error, when nothing matches.
func (c *Client) FindPlaceID(ctx context.Context, query string) (string, error) {
	q := url.Values{
		"input":     {query},
		"inputtype": {"textquery"},
		"fields":    {"place_id,name"},
		"key":       {c.key},
	}
	var out struct {
		Status     string `json:"status"`
		Candidates []struct {
			PlaceID string `json:"place_id"`
		} `json:"candidates"`
	}
	if err := c.get(ctx, c.base+"/findplacefromtext/json?"+q.Encode(), "findplace", &out); err != nil {
		return "", err
	}
	if out.Status == "REQUEST_DENIED" {
		return "", ErrDenied
	}
	if len(out.Candidates) == 0 {
		return "", nil
	}
	return out.Candidates[0].PlaceID, nil
}

// PlaceDetails fetches name, rating and the review list for a place.
func (c *Client) PlaceDetails(ctx context.Context, placeID string) (map[string]any, error) {
	q := url.Values{
		"place_id": {placeID},
		"fields":   {"name,rating,user_ratings_total,reviews"},
		"key":      {c.key},
	}
	var out struct {
		Status string         `json:"status"`
		Result map[string]any `json:"result"`
	}
	if err := c.get(ctx, c.base+"/details/json?"+q.Encode(), "details", &out); err != nil {
		return nil, err
	}
	if out.Status == "REQUEST_DENIED" {
		return nil, ErrDenied
	}
	if out.Result == nil {
		return map[string]any{}, nil
	}
	return out.Result, nil
}

func (c *Client) get(ctx context.Context, u, endpoint string, out any) error {
	if err := c.rl.Wait(ctx); err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.hc.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return err
	}
	defer resp.Body.Close()
	observability.ObserveExternal("googleplaces", endpoint, resp.StatusCode, time.Since(start))

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("bad status %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
