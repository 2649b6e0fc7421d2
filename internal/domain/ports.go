package domain

import "context"

// ApprovalStore owns curation truth. Writes are atomic per review_id;
// repeated writes with the same value are effect-wise no-ops.
type ApprovalStore interface {
	SetApproval(ctx context.Context, d CurationDecision) error
	GetApproval(ctx context.Context, reviewID string) (bool, error)
	ApprovalsMap(ctx context.Context) (map[string]bool, error)
}

// HostawayClient fetches raw review items from the booking-management API.
type HostawayClient interface {
	ListReviews(ctx context.Context) ([]map[string]any, error)
}

// PlacesClient resolves and fetches public-places review data.
type PlacesClient interface {
	FindPlaceID(ctx context.Context, query string) (string, error)
	PlaceDetails(ctx context.Context, placeID string) (map[string]any, error)
}

type Cache interface {
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, v any, ttlSec int) error
	Del(ctx context.Context, key string) error
}
