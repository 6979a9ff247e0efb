package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/mverde/fundflow/internal/common"
	"github.com/mverde/fundflow/internal/model"
)

// SaveDuplicateReview records a candidate duplicate pair for later review.
// Re-scanning the same pair updates its score instead of creating a second row.
func (s *SQLiteStorage) SaveDuplicateReview(ctx context.Context, review *model.DuplicateReview) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateDuplicateReview(review); err != nil {
		return err
	}
	return s.saveDuplicateReviewTx(ctx, s.db, review)
}

func (s *SQLiteStorage) saveDuplicateReviewTx(ctx context.Context, q queryer, review *model.DuplicateReview) error {
	if review.CreatedAt.IsZero() {
		review.CreatedAt = time.Now().UTC()
	}
	if review.Resolution == "" {
		review.Resolution = model.ResolutionPending
	}

	result, err := q.ExecContext(ctx, `
		INSERT INTO duplicate_reviews (
			existing_txn_id, candidate_id, score, resolution, created_at, reviewed_at
		) VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(existing_txn_id, candidate_id) DO UPDATE SET
			score = excluded.score
	`,
		nullString(review.ExistingTxnID),
		review.CandidateID,
		review.Score,
		string(review.Resolution),
		review.CreatedAt,
		nullTime(review.ReviewedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to save duplicate review: %w", err)
	}

	if id, idErr := result.LastInsertId(); idErr == nil && review.ID == 0 {
		review.ID = id
	}
	return nil
}

// GetPendingDuplicateReviews retrieves unresolved reviews, highest score first.
func (s *SQLiteStorage) GetPendingDuplicateReviews(ctx context.Context) ([]model.DuplicateReview, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	return s.getPendingDuplicateReviewsTx(ctx, s.db)
}

func (s *SQLiteStorage) getPendingDuplicateReviewsTx(ctx context.Context, q queryer) ([]model.DuplicateReview, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT id, existing_txn_id, candidate_id, score, resolution, created_at, reviewed_at
		FROM duplicate_reviews
		WHERE resolution = ?
		ORDER BY score DESC, id
	`, string(model.ResolutionPending))
	if err != nil {
		return nil, fmt.Errorf("failed to query duplicate reviews: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var reviews []model.DuplicateReview
	for rows.Next() {
		var review model.DuplicateReview
		var existingID sql.NullString
		var resolution string
		var reviewedAt sql.NullTime

		if err := rows.Scan(&review.ID, &existingID, &review.CandidateID,
			&review.Score, &resolution, &review.CreatedAt, &reviewedAt); err != nil {
			return nil, fmt.Errorf("failed to scan duplicate review: %w", err)
		}

		review.ExistingTxnID = existingID.String
		review.Resolution = model.DuplicateResolution(resolution)
		if reviewedAt.Valid {
			t := reviewedAt.Time
			review.ReviewedAt = &t
		}
		reviews = append(reviews, review)
	}
	return reviews, rows.Err()
}

// ResolveDuplicateReview records the user's resolution for a pending review.
func (s *SQLiteStorage) ResolveDuplicateReview(ctx context.Context, id int64, resolution model.DuplicateResolution) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	return s.resolveDuplicateReviewTx(ctx, s.db, id, resolution)
}

func (s *SQLiteStorage) resolveDuplicateReviewTx(ctx context.Context, q queryer, id int64, resolution model.DuplicateResolution) error {
	switch resolution {
	case model.ResolutionKeepBoth, model.ResolutionMerge, model.ResolutionDismiss:
		// Valid terminal resolution
	default:
		return fmt.Errorf("invalid resolution: %s", resolution)
	}

	result, err := q.ExecContext(ctx, `
		UPDATE duplicate_reviews SET resolution = ?, reviewed_at = ?
		WHERE id = ? AND resolution = ?
	`, string(resolution), time.Now().UTC(), id, string(model.ResolutionPending))
	if err != nil {
		return fmt.Errorf("failed to resolve duplicate review %d: %w", id, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: pending review %d", common.ErrNotFound, id)
	}
	return nil
}
