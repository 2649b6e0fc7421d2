package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"

	"flex_reviews/internal/domain"
)

const (
	hostawayLiveKey = "channel:hostaway:live"
	approvalsMapKey = "approvals:map"
)

// channelSnapshot is the cacheable pre-overlay output of one channel.
type channelSnapshot struct {
	Items   []domain.NormalizedReview `json:"items"`
	Dropped int                       `json:"dropped"`
}

// ReviewService is the aggregation and query layer: it selects a data
// source (auto/mock/live), merges normalized records with the curation
// overlay, filters and orders the result.
type ReviewService struct {
	hostaway      domain.HostawayClient // nil when live fetch is not configured
	places        domain.PlacesClient   // nil when no Places key
	store         domain.ApprovalStore
	cache         domain.Cache
	mock          []map[string]any
	cacheTTL      time.Duration
	defaultSource domain.Source
	sf            singleflight.Group
}

func NewReviewService(
	hostaway domain.HostawayClient,
	places domain.PlacesClient,
	store domain.ApprovalStore,
	cache domain.Cache,
	mock []map[string]any,
	ttl time.Duration,
	defaultSource domain.Source,
) *ReviewService {
	if defaultSource == "" {
		defaultSource = domain.SourceAuto
	}
	return &ReviewService{
		hostaway:      hostaway,
		places:        places,
		store:         store,
		cache:         cache,
		mock:          mock,
		cacheTTL:      ttl,
		defaultSource: defaultSource,
	}
}

// Reviews returns the merged, filtered, ordered result set for the
// booking-management channel. A failing live channel degrades to the mock
// dataset under auto and is reported in FailedChannels; under live it is
// surfaced as ErrChannelUnavailable.
func (s *ReviewService) Reviews(ctx context.Context, q domain.ReviewsQuery) (domain.ReviewsResult, error) {
	src := q.Source
	if src == "" {
		src = s.defaultSource
	}

	var res domain.ReviewsResult
	switch src {
	case domain.SourceMock:
		res.Items, res.Dropped = NormalizeHostaway(s.mock)

	case domain.SourceLive:
		items, dropped, err := s.liveHostaway(ctx)
		if err != nil {
			return domain.ReviewsResult{}, fmt.Errorf("%w: hostaway: %v", domain.ErrChannelUnavailable, err)
		}
		res.Items, res.Dropped = items, dropped

	case domain.SourceAuto:
		items, dropped, err := s.liveHostaway(ctx)
		switch {
		case err != nil:
			log.Warn().Err(err).Str("channel", string(domain.ChannelHostaway)).Msg("live fetch failed, using mock dataset")
			res.FailedChannels = append(res.FailedChannels, string(domain.ChannelHostaway))
			res.Items, res.Dropped = NormalizeHostaway(s.mock)
		case len(items) == 0:
			res.Items, res.Dropped = NormalizeHostaway(s.mock)
		default:
			res.Items, res.Dropped = items, dropped
		}

	default:
		return domain.ReviewsResult{}, fmt.Errorf("%w: unknown source %q", domain.ErrInvalidFilter, src)
	}

	approvals, err := s.approvalsMap(ctx)
	if err != nil {
		return domain.ReviewsResult{}, err
	}
	ApplyOverlay(res.Items, approvals)
	res.Items = Filter(res.Items, q)
	SortForDisplay(res.Items)
	return res, nil
}

// Selected is the selection index read path: currently-approved reviews,
// optionally restricted to one listing, newest first. Recomputed lazily on
// every read so a completed approval write is always visible.
func (s *ReviewService) Selected(ctx context.Context, listingID string, src domain.Source) ([]domain.NormalizedReview, error) {
	approved := true
	q := domain.ReviewsQuery{Source: src, Approved: &approved}
	if listingID != "" {
		q.ListingID = &listingID
	}
	res, err := s.Reviews(ctx, q)
	if err != nil {
		return nil, err
	}
	return res.Items, nil
}

// GoogleReviews resolves a place (by id or free-text query) and returns
// its normalized public reviews. An unconfigured Places client or an
// unresolvable query yields an empty result, not an error.
func (s *ReviewService) GoogleReviews(ctx context.Context, query, placeID, listingID string) ([]domain.NormalizedReview, error) {
	if s.places == nil {
		return []domain.NormalizedReview{}, nil
	}

	pid := placeID
	if pid == "" && query != "" {
		var err error
		pid, err = s.places.FindPlaceID(ctx, query)
		if err != nil {
			return nil, fmt.Errorf("%w: google: %v", domain.ErrChannelUnavailable, err)
		}
	}
	if pid == "" {
		return []domain.NormalizedReview{}, nil
	}

	place, err := s.places.PlaceDetails(ctx, pid)
	if err != nil {
		return nil, fmt.Errorf("%w: google: %v", domain.ErrChannelUnavailable, err)
	}
	// Details responses omit place_id; put it back for stable review ids.
	if _, ok := place["place_id"]; !ok {
		place["place_id"] = pid
	}

	items, dropped := NormalizeGoogle(place, listingID)
	if dropped > 0 {
		log.Warn().Int("dropped", dropped).Str("place_id", pid).Msg("dropped malformed google reviews")
	}

	approvals, err := s.approvalsMap(ctx)
	if err != nil {
		return nil, err
	}
	ApplyOverlay(items, approvals)
	SortForDisplay(items)
	return items, nil
}

// liveHostaway fetches and normalizes the live channel once per TTL.
// Concurrent callers collapse onto a single upstream request.
func (s *ReviewService) liveHostaway(ctx context.Context) ([]domain.NormalizedReview, int, error) {
	if s.hostaway == nil {
		return nil, 0, errors.New("live fetch not configured")
	}

	v, err, _ := s.sf.Do(hostawayLiveKey, func() (any, error) {
		var snap channelSnapshot
		if s.cache != nil {
			if ok, _ := s.cache.Get(ctx, hostawayLiveKey, &snap); ok {
				return snap, nil
			}
		}
		raw, err := s.hostaway.ListReviews(ctx)
		if err != nil {
			return nil, err
		}
		items, dropped := NormalizeHostaway(raw)
		snap = channelSnapshot{Items: items, Dropped: dropped}
		if s.cache != nil {
			_ = s.cache.Set(ctx, hostawayLiveKey, snap, int(s.cacheTTL.Seconds()))
		}
		return snap, nil
	})
	if err != nil {
		return nil, 0, err
	}

	snap := v.(channelSnapshot)
	// copy before the overlay mutates Approved; cached/shared slices must
	// stay pre-overlay
	items := make([]domain.NormalizedReview, len(snap.Items))
	copy(items, snap.Items)
	return items, snap.Dropped, nil
}

// approvalsMap reads the curation overlay, cached until the next write
// invalidates it.
func (s *ReviewService) approvalsMap(ctx context.Context) (map[string]bool, error) {
	var m map[string]bool
	if s.cache != nil {
		if ok, _ := s.cache.Get(ctx, approvalsMapKey, &m); ok {
			return m, nil
		}
	}
	m, err := s.store.ApprovalsMap(ctx)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		_ = s.cache.Set(ctx, approvalsMapKey, m, int(s.cacheTTL.Seconds()))
	}
	return m, nil
}
