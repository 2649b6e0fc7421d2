package app

import (
	"context"
	"fmt"
	"strings"

	"flex_reviews/internal/domain"
)

// CurationService owns approval writes. Every successful write evicts the
// cached approvals overlay so the selection index reflects it on the next
// read.
type CurationService struct {
	store domain.ApprovalStore
	cache domain.Cache
}

func NewCurationService(store domain.ApprovalStore, cache domain.Cache) *CurationService {
	return &CurationService{store: store, cache: cache}
}

// Approve upserts a curation decision. Idempotent: repeating the same
// value leaves the store unchanged and still succeeds. Decisions may
// reference review ids normalization has not seen yet.
func (s *CurationService) Approve(ctx context.Context, d domain.CurationDecision) error {
	if strings.TrimSpace(d.ReviewID) == "" {
		return fmt.Errorf("%w: review_id is required", domain.ErrInvalidFilter)
	}
	if d.Channel == "" {
		d.Channel = domain.ChannelHostaway
	}
	if err := s.store.SetApproval(ctx, d); err != nil {
		return fmt.Errorf("persist approval for %s: %w", d.ReviewID, err)
	}
	if s.cache != nil {
		_ = s.cache.Del(ctx, approvalsMapKey)
	}
	return nil
}

// IsApproved reads the stored decision; false when none was ever recorded.
func (s *CurationService) IsApproved(ctx context.Context, reviewID string) (bool, error) {
	return s.store.GetApproval(ctx, reviewID)
}
