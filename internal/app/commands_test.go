package app_test

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"flex_reviews/internal/app"
	"flex_reviews/internal/domain"
)

func TestApprove_RequiresReviewID(t *testing.T) {
	cur := app.NewCurationService(newFakeStore(), &fakeCache{})
	err := cur.Approve(context.Background(), domain.CurationDecision{ReviewID: "  "})
	if !errors.Is(err, domain.ErrInvalidFilter) {
		t.Fatalf("expected ErrInvalidFilter, got %v", err)
	}
}

func TestApprove_DefaultsChannel(t *testing.T) {
	store := newFakeStore()
	cur := app.NewCurationService(store, &fakeCache{})
	if err := cur.Approve(context.Background(), domain.CurationDecision{ReviewID: "r1", Approved: true}); err != nil {
		t.Fatalf("approve: %v", err)
	}
	if store.decisions["r1"].Channel != domain.ChannelHostaway {
		t.Fatalf("expected hostaway default, got %q", store.decisions["r1"].Channel)
	}
}

func TestApprove_Idempotent(t *testing.T) {
	store := newFakeStore()
	cur := app.NewCurationService(store, &fakeCache{})
	ctx := context.Background()

	d := domain.CurationDecision{ReviewID: "r1", Approved: true, Channel: domain.ChannelHostaway}
	if err := cur.Approve(ctx, d); err != nil {
		t.Fatalf("first approve: %v", err)
	}
	once := make(map[string]domain.CurationDecision, len(store.decisions))
	for k, v := range store.decisions {
		once[k] = v
	}

	if err := cur.Approve(ctx, d); err != nil {
		t.Fatalf("second approve: %v", err)
	}
	if !reflect.DeepEqual(once, store.decisions) {
		t.Fatalf("repeated approve changed store state: %+v vs %+v", once, store.decisions)
	}
}

func TestApprove_InvalidatesOverlayCache(t *testing.T) {
	cache := &fakeCache{}
	cur := app.NewCurationService(newFakeStore(), cache)
	if err := cur.Approve(context.Background(), domain.CurationDecision{ReviewID: "r1", Approved: true}); err != nil {
		t.Fatalf("approve: %v", err)
	}
	found := false
	for _, k := range cache.dels {
		if k == "approvals:map" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected approvals overlay eviction, got dels=%v", cache.dels)
	}
}

func TestApprove_SurfacesStoreFailure(t *testing.T) {
	store := newFakeStore()
	store.failSet = errors.New("disk full")
	cur := app.NewCurationService(store, &fakeCache{})
	err := cur.Approve(context.Background(), domain.CurationDecision{ReviewID: "r1", Approved: true})
	if err == nil {
		t.Fatalf("expected store failure to surface")
	}
}

func TestIsApproved_DefaultFalse(t *testing.T) {
	cur := app.NewCurationService(newFakeStore(), &fakeCache{})
	ok, err := cur.IsApproved(context.Background(), "never-seen")
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if ok {
		t.Fatalf("expected default false for unknown review")
	}
}
