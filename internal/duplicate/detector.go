package duplicate

import (
	"context"
	"sort"
	"time"

	"github.com/mverde/fundflow/internal/model"
)

// DefaultThreshold is the minimum score at which a pair is worth surfacing
// for review.
const DefaultThreshold = 50

// DefaultDateWindow bounds how far apart two transactions can be posted and
// still be considered candidates. Anything beyond it scores 0 on the date
// term anyway, so pre-filtering on it keeps scans cheap.
const DefaultDateWindow = 7 * 24 * time.Hour

// Candidate pairs a potential duplicate with its similarity score.
type Candidate struct {
	Txn   *model.Transaction
	Score int
}

// TransactionSource is the subset of storage the detector needs.
type TransactionSource interface {
	GetTransactionsNear(ctx context.Context, date time.Time, window time.Duration) ([]model.Transaction, error)
}

// Detector scans stored transactions for likely duplicates of a reference
// transaction.
type Detector struct {
	source    TransactionSource
	threshold int
	window    time.Duration
}

// NewDetector creates a detector with the given score threshold. A threshold
// outside (0, 100] falls back to DefaultThreshold.
func NewDetector(source TransactionSource, threshold int) *Detector {
	if threshold <= 0 || threshold > 100 {
		threshold = DefaultThreshold
	}
	return &Detector{
		source:    source,
		threshold: threshold,
		window:    DefaultDateWindow,
	}
}

// FindCandidates returns stored transactions that look like duplicates of the
// reference, ordered by descending score. The reference itself (same ID or
// same dedup hash) is excluded.
func (d *Detector) FindCandidates(ctx context.Context, ref *model.Transaction) ([]Candidate, error) {
	if ref == nil {
		return nil, nil
	}

	nearby, err := d.source.GetTransactionsNear(ctx, ref.Date, d.window)
	if err != nil {
		return nil, err
	}

	refCmp := FromTransaction(ref)

	var candidates []Candidate
	for i := range nearby {
		txn := &nearby[i]
		if txn.ID == ref.ID || (ref.Hash != "" && txn.Hash == ref.Hash) {
			continue
		}

		score := Similarity(refCmp, FromTransaction(txn))
		if score >= d.threshold {
			candidates = append(candidates, Candidate{Txn: txn, Score: score})
		}
	}

	Rank(candidates)
	return candidates, nil
}

// Rank orders candidates by descending score. Ties keep their original
// relative order so repeated scans render stably.
func Rank(candidates []Candidate) {
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Score > candidates[j].Score
	})
}
