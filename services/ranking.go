package services

import (
	"fmt"
	"math"
	"sort"

	"bikeshare-flow/models"
)

// Order is a ranking direction.
type Order string

const (
	Asc  Order = "asc"
	Desc Order = "desc"
)

// ParseOrder accepts "asc" or "desc".
func ParseOrder(s string) (Order, error) {
	switch Order(s) {
	case Asc, Desc:
		return Order(s), nil
	}
	return "", fmt.Errorf("order %q: %w", s, ErrInvalidParameter)
}

// Entry is one key/value pair handed to RankTopK.
type Entry[K comparable, V any] struct {
	Key   K
	Value V
}

// Quantile returns the p-quantile of an ascending slice using linear
// interpolation between closest ranks (R-7, as in d3.quantile and numpy's
// default). It returns NaN for an empty slice.
func Quantile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return math.NaN()
	}
	if p <= 0 || n == 1 {
		return sorted[0]
	}
	if p >= 1 {
		return sorted[n-1]
	}
	i := float64(n-1) * p
	i0 := int(math.Floor(i))
	lo := sorted[i0]
	hi := sorted[i0+1]
	return lo + (hi-lo)*(i-float64(i0))
}

// ZoomThreshold maps a zoom level to a percentile threshold:
// clamp(0, 1, initial - (zoom - base) * sensitivity). Zooming in lowers the
// threshold and surfaces more paths.
func ZoomThreshold(policy models.ThresholdPolicy, zoom float64) float64 {
	t := policy.InitialThreshold - (zoom-policy.BaseZoom)*policy.Sensitivity
	return math.Min(1, math.Max(0, t))
}

// RankTopPercentilePaths returns every path whose count is at least the
// p-quantile of all path counts, ascending by count so that the busiest
// paths come last. Equal counts are ordered by key.
func RankTopPercentilePaths(paths map[models.PathKey]int, p float64) ([]models.PathCount, error) {
	if math.IsNaN(p) || p < 0 || p > 1 {
		return nil, fmt.Errorf("percentile %v outside [0,1]: %w", p, ErrInvalidParameter)
	}
	if len(paths) == 0 {
		return []models.PathCount{}, nil
	}

	counts := make([]float64, 0, len(paths))
	for _, c := range paths {
		counts = append(counts, float64(c))
	}
	sort.Float64s(counts)
	threshold := Quantile(counts, p)

	top := make([]models.PathCount, 0)
	for key, c := range paths {
		if float64(c) >= threshold {
			top = append(top, models.PathCount{Key: key, Count: c})
		}
	}
	sort.Slice(top, func(i, j int) bool {
		if top[i].Count != top[j].Count {
			return top[i].Count < top[j].Count
		}
		return top[i].Key < top[j].Key
	})
	return top, nil
}

// RankTopK returns the k best entries by score. The sort is stable: entries
// with equal scores keep their input order, which callers rely on for
// reproducible output. k larger than the input returns every entry.
func RankTopK[K comparable, V any](entries []Entry[K, V], score func(V) float64, k int, order Order) ([]Entry[K, V], error) {
	if k < 0 {
		return nil, fmt.Errorf("k=%d must be >= 0: %w", k, ErrInvalidParameter)
	}
	if order != Asc && order != Desc {
		return nil, fmt.Errorf("order %q: %w", order, ErrInvalidParameter)
	}

	ranked := make([]Entry[K, V], len(entries))
	copy(ranked, entries)
	sort.SliceStable(ranked, func(i, j int) bool {
		if order == Asc {
			return score(ranked[i].Value) < score(ranked[j].Value)
		}
		return score(ranked[i].Value) > score(ranked[j].Value)
	})

	if k < len(ranked) {
		ranked = ranked[:k]
	}
	return ranked, nil
}
