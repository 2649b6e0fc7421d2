package mysql

// Created at startup; one row per curated review, review_id is the key.
const createApprovalsSQL = `
CREATE TABLE IF NOT EXISTS approvals (
  review_id   VARCHAR(191) NOT NULL,
  approved    TINYINT(1)   NOT NULL DEFAULT 0,
  channel     VARCHAR(32)  NOT NULL DEFAULT 'hostaway',
  listing_id  VARCHAR(191) NULL,
  updated_at  TIMESTAMP    NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
  PRIMARY KEY (review_id),
  KEY idx_approvals_listing (listing_id)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4
`

// Single-row upsert: the row-level lock serializes concurrent writers on
// the same review_id, last commit wins. Writing the same value twice is a
// no-op beyond the timestamp.
const upsertApprovalSQL = `
INSERT INTO approvals (review_id, approved, channel, listing_id)
VALUES (?, ?, ?, ?)
ON DUPLICATE KEY UPDATE
  approved   = VALUES(approved),
  channel    = VALUES(channel),
  listing_id = COALESCE(VALUES(listing_id), approvals.listing_id),
  updated_at = CURRENT_TIMESTAMP
`

const getApprovalSQL = `SELECT approved FROM approvals WHERE review_id = ?`

const listApprovalsSQL = `SELECT review_id, approved FROM approvals`
