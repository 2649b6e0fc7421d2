package httpserver_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	httpserver "flex_reviews/internal/adapters/http_server"
	"flex_reviews/internal/app"
	"flex_reviews/internal/domain"
)

// ---- fakes ----

type memStore struct{ decisions map[string]domain.CurationDecision }

func (m *memStore) SetApproval(ctx context.Context, d domain.CurationDecision) error {
	if m.decisions == nil {
		m.decisions = map[string]domain.CurationDecision{}
	}
	m.decisions[d.ReviewID] = d
	return nil
}

func (m *memStore) GetApproval(ctx context.Context, reviewID string) (bool, error) {
	return m.decisions[reviewID].Approved, nil
}

func (m *memStore) ApprovalsMap(ctx context.Context) (map[string]bool, error) {
	out := map[string]bool{}
	for id, d := range m.decisions {
		out[id] = d.Approved
	}
	return out, nil
}

type memCache struct{ store map[string][]byte }

func (c *memCache) Get(ctx context.Context, key string, dst any) (bool, error) {
	b, ok := c.store[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(b, dst)
}

func (c *memCache) Set(ctx context.Context, key string, v any, ttlSec int) error {
	if c.store == nil {
		c.store = map[string][]byte{}
	}
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	c.store[key] = b
	return nil
}

func (c *memCache) Del(ctx context.Context, key string) error {
	delete(c.store, key)
	return nil
}

func testServer(t *testing.T) *httptest.Server {
	t.Helper()
	mock := []map[string]any{
		{
			"id": float64(1), "listingName": "Shoreditch Heights",
			"type": "guest-to-host", "status": "published",
			"rating": float64(8.5), "submittedAt": "2021-01-01 10:00:00",
			"guestName": "Ana",
		},
		{
			"id": float64(2), "listingName": "Shoreditch Heights",
			"type": "guest-to-host", "status": "published",
			"rating": float64(9.2), "submittedAt": "2022-01-01 10:00:00",
			"guestName": "Bob",
		},
	}
	store := &memStore{}
	cache := &memCache{}
	reviews := app.NewReviewService(nil, nil, store, cache, mock, 10*time.Minute, domain.SourceMock)
	curation := app.NewCurationService(store, cache)

	srv := httpserver.New()
	srv.MountHandlers(&httpserver.Handlers{Reviews: reviews, Curation: curation})
	ts := httptest.NewServer(srv.Mux())
	t.Cleanup(ts.Close)
	return ts
}

type envelope struct {
	Status         string                    `json:"status"`
	Result         []domain.NormalizedReview `json:"result"`
	FailedChannels []string                  `json:"failed_channels"`
	Summary        *domain.Summary           `json:"summary"`
}

func getEnvelope(t *testing.T, url string) (int, envelope) {
	t.Helper()
	res, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	defer res.Body.Close()
	var env envelope
	if res.StatusCode == http.StatusOK {
		if err := json.NewDecoder(res.Body).Decode(&env); err != nil {
			t.Fatalf("decode: %v", err)
		}
	}
	return res.StatusCode, env
}

// ---- tests ----

func TestListHostaway_MockSource(t *testing.T) {
	ts := testServer(t)
	code, env := getEnvelope(t, ts.URL+"/api/reviews/hostaway?source=mock")
	if code != http.StatusOK {
		t.Fatalf("status %d", code)
	}
	if env.Status != "success" || len(env.Result) != 2 {
		t.Fatalf("unexpected envelope: %+v", env)
	}
	// newest first
	if env.Result[0].ReviewID != "2" {
		t.Fatalf("unexpected order: %+v", env.Result)
	}
	if env.Summary == nil || env.Summary.Count != 2 {
		t.Fatalf("missing summary: %+v", env.Summary)
	}
}

func TestListHostaway_MinRatingFilter(t *testing.T) {
	ts := testServer(t)
	code, env := getEnvelope(t, ts.URL+"/api/reviews/hostaway?source=mock&minRating=9")
	if code != http.StatusOK {
		t.Fatalf("status %d", code)
	}
	if len(env.Result) != 1 || env.Result[0].ReviewID != "2" {
		t.Fatalf("expected only review 2, got %+v", env.Result)
	}
}

func TestListHostaway_InvalidParams(t *testing.T) {
	ts := testServer(t)
	for _, q := range []string{"minRating=abc", "approved=maybe", "source=banana", "startDate=notadate"} {
		code, _ := getEnvelope(t, ts.URL+"/api/reviews/hostaway?"+q)
		if code != http.StatusBadRequest {
			t.Fatalf("%s: expected 400, got %d", q, code)
		}
	}
}

func TestListHostaway_LiveUnconfigured(t *testing.T) {
	ts := testServer(t)
	code, _ := getEnvelope(t, ts.URL+"/api/reviews/hostaway?source=live")
	if code != http.StatusBadGateway {
		t.Fatalf("expected 502 for unconfigured live source, got %d", code)
	}
}

func TestApproveThenSelected(t *testing.T) {
	ts := testServer(t)

	body, _ := json.Marshal(map[string]any{
		"review_id":  "2",
		"approved":   true,
		"channel":    "hostaway",
		"listing_id": "hostaway:shoreditch-heights",
	})
	res, err := http.Post(ts.URL+"/api/reviews/approve", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("POST: %v", err)
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		t.Fatalf("approve status %d", res.StatusCode)
	}
	var out map[string]string
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out["status"] != "success" {
		t.Fatalf("unexpected approve response: %+v", out)
	}

	code, env := getEnvelope(t, ts.URL+"/api/reviews/selected?listingId=hostaway:shoreditch-heights&source=mock")
	if code != http.StatusOK {
		t.Fatalf("selected status %d", code)
	}
	if len(env.Result) != 1 || env.Result[0].ReviewID != "2" || !env.Result[0].Approved {
		t.Fatalf("expected approved review 2 selected, got %+v", env.Result)
	}
}

func TestApprove_BadBody(t *testing.T) {
	ts := testServer(t)

	res, err := http.Post(ts.URL+"/api/reviews/approve", "application/json", bytes.NewReader([]byte("{not json")))
	if err != nil {
		t.Fatalf("POST: %v", err)
	}
	res.Body.Close()
	if res.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad JSON, got %d", res.StatusCode)
	}

	body, _ := json.Marshal(map[string]any{"approved": true})
	res, err = http.Post(ts.URL+"/api/reviews/approve", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("POST: %v", err)
	}
	res.Body.Close()
	if res.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for missing review_id, got %d", res.StatusCode)
	}
}

func TestListGoogle_UnconfiguredIsEmptySuccess(t *testing.T) {
	ts := testServer(t)
	code, env := getEnvelope(t, ts.URL+"/api/reviews/google?query=camden")
	if code != http.StatusOK {
		t.Fatalf("status %d", code)
	}
	if env.Status != "success" || len(env.Result) != 0 {
		t.Fatalf("expected empty success, got %+v", env)
	}
}

func TestHealthz(t *testing.T) {
	ts := testServer(t)
	res, err := http.Get(ts.URL + "/healthz")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	res.Body.Close()
	if res.StatusCode != http.StatusOK {
		t.Fatalf("status %d", res.StatusCode)
	}
}
