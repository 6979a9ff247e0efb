package model

import (
	"fmt"
	"time"
)

// DuplicateResolution records how a user resolved a duplicate candidate pair.
type DuplicateResolution string

const (
	// ResolutionPending means the pair has not been reviewed yet.
	ResolutionPending DuplicateResolution = "pending"
	// ResolutionKeepBoth means both transactions are genuine.
	ResolutionKeepBoth DuplicateResolution = "keep_both"
	// ResolutionMerge means the candidate duplicates the existing transaction.
	ResolutionMerge DuplicateResolution = "merge"
	// ResolutionDismiss means the candidate was discarded without merging.
	ResolutionDismiss DuplicateResolution = "dismiss"
)

// DuplicateReview links a candidate transaction with the existing transaction
// it may duplicate, together with the similarity score at scan time and the
// user's resolution.
type DuplicateReview struct {
	CreatedAt     time.Time
	ReviewedAt    *time.Time
	ID            int64
	ExistingTxnID string
	CandidateID   string
	Resolution    DuplicateResolution
	Score         int
}

// Validate ensures the review has valid data.
func (r *DuplicateReview) Validate() error {
	if r.CandidateID == "" {
		return fmt.Errorf("candidate transaction ID is required")
	}
	if r.Score < 0 || r.Score > 100 {
		return fmt.Errorf("score must be between 0 and 100")
	}

	switch r.Resolution {
	case ResolutionPending, ResolutionKeepBoth, ResolutionMerge, ResolutionDismiss:
		// Valid resolution
	default:
		return fmt.Errorf("invalid resolution: %s", r.Resolution)
	}

	return nil
}
