package index

import "strings"

// Granularity selects the unit a vector dimension stands for.
type Granularity string

const (
	// Word dimensions are whole whitespace tokens.
	Word Granularity = "word"
	// CharFragment dimensions are overlapping character n-grams taken inside
	// space-padded words.
	CharFragment Granularity = "char"
)

// Analyzer splits normalized text into the terms of one granularity.
type Analyzer struct {
	Granularity Granularity
	MinFragment int
	MaxFragment int
}

// Terms returns the terms of text in order of appearance, duplicates kept.
func (a Analyzer) Terms(text string) []string {
	words := strings.Fields(text)
	if a.Granularity != CharFragment {
		return words
	}
	terms := make([]string, 0, len(words)*8)
	for _, w := range words {
		terms = appendFragments(terms, []rune(" "+w+" "), a.MinFragment, a.MaxFragment)
	}
	return terms
}

// appendFragments emits every n-gram of padded for n in [minN, maxN]. A word
// no longer than n yields a single fragment and stops the sweep, so short
// words are counted once.
func appendFragments(dst []string, padded []rune, minN, maxN int) []string {
	for n := minN; n <= maxN; n++ {
		end := n
		if end > len(padded) {
			end = len(padded)
		}
		dst = append(dst, string(padded[:end]))
		offset := 0
		for offset+n < len(padded) {
			offset++
			dst = append(dst, string(padded[offset:offset+n]))
		}
		if offset == 0 {
			break
		}
	}
	return dst
}
