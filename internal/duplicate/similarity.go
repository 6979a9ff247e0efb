// Package duplicate scores how likely two transactions are to be the same
// real-world payment, using a weighted comparison of description, amount, and
// execution date. Scores are percentages in [0, 100].
package duplicate

import (
	"math"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mverde/fundflow/internal/model"
)

// Comparison weights. Description similarity is the strongest signal,
// then amount, then date proximity.
const (
	descriptionWeight = 3.0
	amountWeight      = 2.0
	dateWeight        = 1.0
)

// closeEditThreshold is the normalized edit distance below which two
// descriptions still count as close.
const closeEditThreshold = 0.3

// Comparable is the projection of a transaction the scorer consumes. Absent
// fields are excluded from scoring rather than treated as mismatches: an
// empty Description or a nil Amount/Date simply drops that weighted term.
type Comparable struct {
	Date        *time.Time
	Amount      *float64
	Description string
}

// FromTransaction projects a stored transaction into a Comparable. A zero
// date is treated as absent.
func FromTransaction(t *model.Transaction) *Comparable {
	if t == nil {
		return nil
	}

	c := &Comparable{Description: t.Description}
	amount := t.Amount
	c.Amount = &amount
	if !t.Date.IsZero() {
		date := t.Date
		c.Date = &date
	}
	return c
}

// Similarity returns a 0-100 score for how likely candidate duplicates
// existing. A nil existing (for instance when the referenced transaction was
// deleted upstream) or nil candidate scores 0; so does a pair with no
// comparable fields at all.
//
// The amount tolerance band is 10% of the existing transaction's amount, so
// Similarity is not symmetric in its arguments.
func Similarity(existing, candidate *Comparable) int {
	if existing == nil || candidate == nil {
		return 0
	}

	var score, total float64

	if existing.Description != "" && candidate.Description != "" {
		total += descriptionWeight
		score += descriptionScore(existing.Description, candidate.Description)
	}

	a1, ok1 := usableAmount(existing.Amount)
	a2, ok2 := usableAmount(candidate.Amount)
	if ok1 && ok2 {
		total += amountWeight
		score += amountScore(a1, a2)
	}

	if existing.Date != nil && candidate.Date != nil {
		total += dateWeight
		score += dateScore(*existing.Date, *candidate.Date)
	}

	if total == 0 {
		return 0
	}

	pct := int(math.Round(score / total * 100))
	if pct < 0 {
		pct = 0
	}
	if pct > 100 {
		pct = 100
	}
	return pct
}

func descriptionScore(d1, d2 string) float64 {
	s1 := strings.ToLower(d1)
	s2 := strings.ToLower(d2)

	if s1 == s2 {
		return 3
	}
	if strings.Contains(s1, s2) || strings.Contains(s2, s1) {
		return 2
	}

	maxLen := len(s1)
	if len(s2) > maxLen {
		maxLen = len(s2)
	}
	if maxLen > 0 && float64(levenshtein(s1, s2))/float64(maxLen) < closeEditThreshold {
		return 1
	}
	return 0
}

func amountScore(a1, a2 float64) float64 {
	diff := math.Abs(a1 - a2)
	if diff < 0.01 {
		return 2
	}
	// Tolerance measured against the first amount only.
	if diff < a1*0.1 {
		return 1
	}
	return 0
}

func dateScore(d1, d2 time.Time) float64 {
	daysDiff := calendarDaysApart(d1, d2)
	switch {
	case daysDiff == 0:
		return 1
	case daysDiff <= 1:
		return 0.7
	case daysDiff <= 7:
		return 0.3
	default:
		return 0
	}
}

// usableAmount normalizes an optional amount to its absolute value and
// reports whether it can participate in scoring. NaN amounts cannot.
func usableAmount(a *float64) (float64, bool) {
	if a == nil || math.IsNaN(*a) {
		return 0, false
	}
	return math.Abs(*a), true
}

// calendarDaysApart returns the absolute difference in calendar days,
// ignoring the time of day on either side.
func calendarDaysApart(a, b time.Time) int {
	da := time.Date(a.Year(), a.Month(), a.Day(), 0, 0, 0, 0, time.UTC)
	db := time.Date(b.Year(), b.Month(), b.Day(), 0, 0, 0, 0, time.UTC)

	days := int(db.Sub(da).Hours() / 24)
	if days < 0 {
		days = -days
	}
	return days
}

// ParseAmount normalizes a formatted amount string ("$1,234.56", "−15.99 EUR")
// to a non-negative float. Every character that is not a digit, minus sign, or
// decimal point is stripped before parsing. Returns false when nothing
// parseable remains.
func ParseAmount(s string) (float64, bool) {
	cleaned := strings.Map(func(r rune) rune {
		if (r >= '0' && r <= '9') || r == '-' || r == '.' {
			return r
		}
		return -1
	}, s)

	if cleaned == "" {
		return 0, false
	}

	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return 0, false
	}
	f, _ := d.Abs().Float64()
	return f, true
}

// levenshtein computes the minimum number of single-character insertions,
// deletions, and substitutions needed to turn a into b.
func levenshtein(a, b string) int {
	if a == b {
		return 0
	}
	if len(a) == 0 {
		return len(b)
	}
	if len(b) == 0 {
		return len(a)
	}

	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for j := 0; j <= len(b); j++ {
		prev[j] = j
	}

	for i := 1; i <= len(a); i++ {
		curr[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			curr[j] = minInt(
				prev[j]+1,      // deletion
				curr[j-1]+1,    // insertion
				prev[j-1]+cost, // substitution
			)
		}
		prev, curr = curr, prev
	}

	return prev[len(b)]
}

func minInt(values ...int) int {
	m := values[0]
	for _, v := range values[1:] {
		if v < m {
			m = v
		}
	}
	return m
}
