package mysql

import (
	"context"
	"database/sql"

	"flex_reviews/internal/domain"
)

func valStr(p *string) any {
	if p == nil {
		return nil
	}
	return *p
}

type Repo struct{ db *sql.DB }

func New(db *sql.DB) *Repo { return &Repo{db: db} }

// EnsureSchema creates the approvals table when missing. Called once at
// startup; safe to repeat.
func (r *Repo) EnsureSchema(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, createApprovalsSQL)
	return err
}

func (r *Repo) SetApproval(ctx context.Context, d domain.CurationDecision) error {
	_, err := r.db.ExecContext(ctx, upsertApprovalSQL,
		d.ReviewID,
		d.Approved,
		string(d.Channel),
		valStr(d.ListingID),
	)
	return err
}

// GetApproval returns the recorded decision, defaulting to false when no
// decision exists for the id.
func (r *Repo) GetApproval(ctx context.Context, reviewID string) (bool, error) {
	var approved bool
	err := r.db.QueryRowContext(ctx, getApprovalSQL, reviewID).Scan(&approved)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return approved, nil
}

func (r *Repo) ApprovalsMap(ctx context.Context) (map[string]bool, error) {
	rows, err := r.db.QueryContext(ctx, listApprovalsSQL)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string]bool)
	for rows.Next() {
		var id string
		var approved bool
		if err := rows.Scan(&id, &approved); err != nil {
			return nil, err
		}
		out[id] = approved
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
