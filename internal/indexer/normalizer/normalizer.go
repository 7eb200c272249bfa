// Package normalizer turns raw defect descriptions and reference excerpts into
// a canonical form: lower-cased, accent-free, punctuation-free and
// single-space separated.
package normalizer

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// MinTokenRunes is the shortest token kept by Normalize. Shorter tokens are
// mostly articles and prepositions ("em", "de", "na").
const MinTokenRunes = 3

// Func is a normalization pipeline.
type Func func(string) string

// Normalize runs the full pipeline and drops tokens shorter than
// MinTokenRunes. It never fails; an empty result means "no query".
func Normalize(text string) string {
	return normalize(text, true)
}

// NormalizeKeepShort runs the pipeline without the short-token drop so that
// short roots survive inside character fragments.
func NormalizeKeepShort(text string) string {
	return normalize(text, false)
}

// For returns the pipeline matching a vectorization granularity: character
// fragments keep short tokens, word tokens do not.
func For(keepShort bool) Func {
	if keepShort {
		return NormalizeKeepShort
	}
	return Normalize
}

func normalize(text string, dropShort bool) string {
	words := strings.Fields(fold(strings.ToLower(text)))
	kept := words[:0]
	for _, w := range words {
		if dropShort && utf8.RuneCountInString(w) < MinTokenRunes {
			continue
		}
		kept = append(kept, w)
	}
	return strings.Join(kept, " ")
}

func dropped(r rune) bool {
	return !unicode.IsLetter(r) && !unicode.IsNumber(r) && !unicode.IsSpace(r)
}

// fold strips accents and punctuation on the decomposed form and recomposes
// last, so token lengths are measured on the text a second pass would see.
func fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), runes.Remove(runes.Predicate(dropped)), norm.NFC)
	result, _, err := transform.String(t, s)
	if err != nil {
		return norm.NFC.String(strings.Map(func(r rune) rune {
			if dropped(r) {
				return -1
			}
			return r
		}, norm.NFD.String(s)))
	}
	return result
}
