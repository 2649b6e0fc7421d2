package googleplaces_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"flex_reviews/internal/adapters/googleplaces"
)

func placesServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/findplacefromtext/json", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("key") == "" {
			t.Errorf("missing API key")
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"status":     "OK",
			"candidates": []map[string]any{{"place_id": "ChIJtest", "name": "Camden Lock House"}},
		})
	})
	mux.HandleFunc("/details/json", func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("place_id"); got != "ChIJtest" {
			t.Errorf("unexpected place_id %q", got)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"status": "OK",
			"result": map[string]any{
				"name":   "Camden Lock House",
				"rating": 4.6,
				"reviews": []map[string]any{
					{"rating": 5.0, "time": 1700000000.0, "text": "superb", "author_name": "Lena"},
				},
			},
		})
	})
	return httptest.NewServer(mux)
}

func TestClient_FindThenDetails(t *testing.T) {
	ts := placesServer(t)
	defer ts.Close()

	cl, err := googleplaces.New(ts.URL, "test-key", 100)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	pid, err := cl.FindPlaceID(ctx, "camden lock house london")
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if pid != "ChIJtest" {
		t.Fatalf("unexpected place id %q", pid)
	}

	place, err := cl.PlaceDetails(ctx, pid)
	if err != nil {
		t.Fatalf("details: %v", err)
	}
	if place["name"] != "Camden Lock House" {
		t.Fatalf("unexpected place: %+v", place)
	}
	reviews, ok := place["reviews"].([]any)
	if !ok || len(reviews) != 1 {
		t.Fatalf("unexpected reviews: %+v", place["reviews"])
	}
}

func TestClient_FindNoCandidates(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"status": "ZERO_RESULTS", "candidates": []any{}})
	}))
	defer ts.Close()

	cl, err := googleplaces.New(ts.URL, "test-key", 100)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	pid, err := cl.FindPlaceID(context.Background(), "nowhere at all")
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if pid != "" {
		t.Fatalf("expected empty place id, got %q", pid)
	}
}

func TestClient_RequiresKey(t *testing.T) {
	if _, err := googleplaces.New("", "", 5); err == nil {
		t.Fatalf("expected error for missing key")
	}
}
