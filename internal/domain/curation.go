package domain

import "time"

// CurationDecision records a manual approval toggle for one review.
// Keyed by ReviewID; last write wins on repeated toggles.
type CurationDecision struct {
	ReviewID  string
	Approved  bool
	Channel   Channel
	ListingID *string
	UpdatedAt time.Time
}

// Source selects where review data comes from.
type Source string

const (
	SourceAuto Source = "auto" // live first, mock fallback
	SourceMock Source = "mock"
	SourceLive Source = "live"
)

// ReviewsQuery is the filter set for the aggregation layer. Nil fields
// mean "no restriction".
type ReviewsQuery struct {
	Source    Source
	ListingID *string
	Type      *string
	Status    *string
	MinRating *float64
	Approved  *bool
	Start     *time.Time
	End       *time.Time
}

// ReviewsResult is a filtered, ordered result set plus degradation info:
// channels that failed (non-fatally) and malformed records dropped on
// normalization.
type ReviewsResult struct {
	Items          []NormalizedReview
	FailedChannels []string
	Dropped        int
}
