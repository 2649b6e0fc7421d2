package domain

import "time"

// Channel identifies the upstream source a review came from.
type Channel string

const (
	ChannelHostaway Channel = "hostaway"
	ChannelGoogle   Channel = "google"
)

// NormalizedReview is the canonical, channel-agnostic review record.
// Ratings use a 0–10 scale everywhere; adapters convert on ingest.
// Approved is the local curation overlay, never an upstream fact.
type NormalizedReview struct {
	ReviewID        string             `json:"review_id"`
	ListingID       string             `json:"listing_id"`
	ListingName     string             `json:"listing_name"`
	Channel         Channel            `json:"channel"`
	Type            string             `json:"type"`
	Status          string             `json:"status"`
	RatingOverall   *float64           `json:"rating_overall"`
	CategoryRatings map[string]float64 `json:"category_ratings"`
	TextPublic      *string            `json:"text_public"`
	SubmittedAt     time.Time          `json:"submitted_at"`
	AuthorName      *string            `json:"author_name"`
	Approved        bool               `json:"approved"`
}

// Summary holds the reducer values the dashboard renders (count, overall
// average, per-category averages) so consumers don't reimplement them.
type Summary struct {
	Count            int                `json:"count"`
	AverageRating    *float64           `json:"average_rating"`
	CategoryAverages map[string]float64 `json:"category_averages"`
}
