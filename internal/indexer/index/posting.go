package index

import "math"

// Posting records the weight a term carries in one corpus row.
type Posting struct {
	Doc    int
	Weight float64
}

// PostingList is ordered by ascending Doc.
type PostingList []Posting

// Component is one non-zero dimension of a SparseVector.
type Component struct {
	Term   int
	Weight float64
}

// SparseVector holds the non-zero components of a TF-IDF vector ordered by
// ascending Term.
type SparseVector []Component

// Norm returns the Euclidean length of v.
func (v SparseVector) Norm() float64 {
	var sum float64
	for _, c := range v {
		sum += c.Weight * c.Weight
	}
	return math.Sqrt(sum)
}

// Dot returns the inner product of two term-ordered vectors.
func (v SparseVector) Dot(w SparseVector) float64 {
	var dot float64
	i, j := 0, 0
	for i < len(v) && j < len(w) {
		switch {
		case v[i].Term == w[j].Term:
			dot += v[i].Weight * w[j].Weight
			i++
			j++
		case v[i].Term < w[j].Term:
			i++
		default:
			j++
		}
	}
	return dot
}

// Cosine returns the cosine similarity of v and w, or 0 when either is the
// zero vector.
func Cosine(v, w SparseVector) float64 {
	nv, nw := v.Norm(), w.Norm()
	if nv == 0 || nw == 0 {
		return 0
	}
	return v.Dot(w) / (nv * nw)
}
