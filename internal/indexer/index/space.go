// Package index builds the TF-IDF vector space over the reference corpus and
// projects queries into it.
package index

import (
	"fmt"
	"math"
	"sort"

	apperrors "github.com/normsearch/normsearch/pkg/errors"
)

// Documents is the normalized text the space is fitted on, in row order.
type Documents interface {
	Len() int
	SearchableText(i int) string
}

// Options configures how text is split into terms.
type Options struct {
	Granularity Granularity
	MinFragment int
	MaxFragment int
}

// VectorSpace is a fitted TF-IDF model. It is read-only after Build and safe
// for concurrent use.
type VectorSpace struct {
	analyzer Analyzer
	vocab    map[string]int
	terms    []string
	idf      []float64
	docs     []SparseVector
	postings []PostingList
}

// Build fits the vocabulary and inverse document frequencies on docs and
// stores the L2-normalized vector of every row. It is deterministic for a
// given input. An empty vocabulary is a DataLoadError.
func Build(docs Documents, opts Options) (*VectorSpace, error) {
	analyzer, err := newAnalyzer(opts)
	if err != nil {
		return nil, err
	}
	n := docs.Len()
	if n == 0 {
		return nil, apperrors.DataLoad("cannot build a vector space over zero documents")
	}

	counts := make([]map[string]int, n)
	docFreq := make(map[string]int)
	for i := 0; i < n; i++ {
		tf := termCounts(analyzer.Terms(docs.SearchableText(i)))
		counts[i] = tf
		for term := range tf {
			docFreq[term]++
		}
	}
	if len(docFreq) == 0 {
		return nil, apperrors.DataLoad("fitted vocabulary is empty across %d documents", n)
	}

	s := &VectorSpace{
		analyzer: analyzer,
		vocab:    make(map[string]int, len(docFreq)),
		terms:    make([]string, 0, len(docFreq)),
	}
	for term := range docFreq {
		s.terms = append(s.terms, term)
	}
	sort.Strings(s.terms)
	s.idf = make([]float64, len(s.terms))
	for i, term := range s.terms {
		s.vocab[term] = i
		s.idf[i] = smoothIDF(n, docFreq[term])
	}

	s.docs = make([]SparseVector, n)
	s.postings = make([]PostingList, len(s.terms))
	for doc, tf := range counts {
		vec := s.weigh(tf)
		s.docs[doc] = vec
		for _, c := range vec {
			s.postings[c.Term] = append(s.postings[c.Term], Posting{Doc: doc, Weight: c.Weight})
		}
	}
	return s, nil
}

// Project maps normalized text into the fitted space. Terms unseen at fit
// time contribute nothing; a text made only of such terms projects to the
// zero vector.
func (s *VectorSpace) Project(text string) SparseVector {
	return s.weigh(termCounts(s.analyzer.Terms(text)))
}

// Document returns the stored vector of row i.
func (s *VectorSpace) Document(i int) SparseVector {
	return s.docs[i]
}

// Postings returns the rows containing term index t with their weights.
func (s *VectorSpace) Postings(t int) PostingList {
	return s.postings[t]
}

// Len returns the number of fitted rows.
func (s *VectorSpace) Len() int {
	return len(s.docs)
}

// VocabularySize returns the number of dimensions.
func (s *VectorSpace) VocabularySize() int {
	return len(s.terms)
}

// Term returns the term behind dimension t.
func (s *VectorSpace) Term(t int) string {
	return s.terms[t]
}

// IDF returns the fitted inverse document frequency of term, and whether the
// term is in the vocabulary.
func (s *VectorSpace) IDF(term string) (float64, bool) {
	t, ok := s.vocab[term]
	if !ok {
		return 0, false
	}
	return s.idf[t], true
}

// Granularity reports the term unit the space was fitted with.
func (s *VectorSpace) Granularity() Granularity {
	return s.analyzer.Granularity
}

func (s *VectorSpace) weigh(tf map[string]int) SparseVector {
	vec := make(SparseVector, 0, len(tf))
	for term, count := range tf {
		t, ok := s.vocab[term]
		if !ok {
			continue
		}
		vec = append(vec, Component{Term: t, Weight: float64(count) * s.idf[t]})
	}
	sort.Slice(vec, func(i, j int) bool { return vec[i].Term < vec[j].Term })
	if norm := vec.Norm(); norm > 0 {
		for i := range vec {
			vec[i].Weight /= norm
		}
	}
	return vec
}

// smoothIDF is ln((1+n)/(1+df)) + 1; it is always >= 1, so weights stay
// positive even for terms present in every row.
func smoothIDF(n, df int) float64 {
	return math.Log(float64(1+n)/float64(1+df)) + 1
}

func termCounts(terms []string) map[string]int {
	tf := make(map[string]int, len(terms))
	for _, t := range terms {
		tf[t]++
	}
	return tf
}

func newAnalyzer(opts Options) (Analyzer, error) {
	a := Analyzer{
		Granularity: opts.Granularity,
		MinFragment: opts.MinFragment,
		MaxFragment: opts.MaxFragment,
	}
	switch a.Granularity {
	case "":
		a.Granularity = Word
	case Word:
	case CharFragment:
		if a.MinFragment == 0 && a.MaxFragment == 0 {
			a.MinFragment, a.MaxFragment = 3, 5
		}
		if a.MinFragment < 1 || a.MaxFragment < a.MinFragment {
			return Analyzer{}, apperrors.InvalidInput("fragment range [%d, %d] is invalid", a.MinFragment, a.MaxFragment)
		}
	default:
		return Analyzer{}, apperrors.InvalidInput("unknown granularity %q", string(a.Granularity))
	}
	return a, nil
}

func (s *VectorSpace) String() string {
	return fmt.Sprintf("VectorSpace{granularity=%s docs=%d terms=%d}", s.analyzer.Granularity, len(s.docs), len(s.terms))
}
