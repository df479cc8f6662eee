package vector

import (
	"errors"
	"math"
	"sort"
)

// Epsilon is added to every norm so near-zero vectors never divide by zero.
const Epsilon = 1e-8

var ErrDimensionMismatch = errors.New("vector dimensions do not match")

// Scored pairs a row index with its similarity to a query.
type Scored struct {
	Index int
	Score float64
}

// Norm returns the L2 magnitude of v.
func Norm(v []float32) float64 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	return math.Sqrt(sum)
}

// Normalize returns v / (||v|| + Epsilon) as a new slice.
func Normalize(v []float32) []float32 {
	denom := Norm(v) + Epsilon
	out := make([]float32, len(v))
	for i, x := range v {
		out[i] = float32(float64(x) / denom)
	}
	return out
}

// NormalizeAll normalizes every row.
func NormalizeAll(rows [][]float32) [][]float32 {
	out := make([][]float32, len(rows))
	for i, r := range rows {
		out[i] = Normalize(r)
	}
	return out
}

func Dot(a, b []float32) (float64, error) {
	if len(a) != len(b) {
		return 0, ErrDimensionMismatch
	}
	var sum float64
	for i := range a {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum, nil
}

// Cosine normalizes both sides before taking the dot product.
func Cosine(a, b []float32) (float64, error) {
	return Dot(Normalize(a), Normalize(b))
}

// ScoreAll returns the dot product of query against each already-normalized
// row, in row order.
func ScoreAll(query []float32, normalizedRows [][]float32) ([]Scored, error) {
	out := make([]Scored, len(normalizedRows))
	for i, row := range normalizedRows {
		s, err := Dot(row, query)
		if err != nil {
			return nil, err
		}
		out[i] = Scored{Index: i, Score: s}
	}
	return out, nil
}

// Rank sorts descending by score. Equal scores keep their input order.
func Rank(scores []Scored) []Scored {
	out := make([]Scored, len(scores))
	copy(out, scores)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Score > out[j].Score
	})
	return out
}

// TopK ranks scores and keeps at most k. A non-positive k keeps everything.
func TopK(scores []Scored, k int) []Scored {
	ranked := Rank(scores)
	if k > 0 && len(ranked) > k {
		ranked = ranked[:k]
	}
	return ranked
}

// AtLeast keeps entries whose score is >= min, preserving order.
func AtLeast(scores []Scored, min float64) []Scored {
	out := make([]Scored, 0, len(scores))
	for _, s := range scores {
		if s.Score >= min {
			out = append(out, s)
		}
	}
	return out
}
