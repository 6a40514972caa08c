// Package lexicon normalizes Hebrew words and looks them up in the lexicon.
package lexicon

import (
	"strings"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/FocuswithJustin/JuniperTorah/core/torah"
)

// isPoint reports whether r is a vowel point or dagesh-class mark that the
// lexicon keys omit. Cantillation marks are left in place.
func isPoint(r rune) bool {
	switch {
	case r >= '\u05B0' && r <= '\u05BC':
		return true
	case r == '\u05C1', r == '\u05C2', r == '\u05C4', r == '\u05C5', r == '\u05C7':
		return true
	}
	return false
}

// Normalize strips vowel points (niqqud) from a Hebrew word. Precomposed
// presentation forms such as U+FB2A are decomposed first so their points
// are removed too.
func Normalize(word string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.Predicate(isPoint)), norm.NFC)
	out, _, err := transform.String(t, strings.TrimSpace(word))
	if err != nil {
		return strings.TrimSpace(word)
	}
	return out
}

// UnknownTranslations is returned for words missing from the lexicon.
func UnknownTranslations() []torah.Translation {
	return []torah.Translation{{
		Meaning: "неизвестно",
		Context: "требует дополнительного анализа",
		Grammar: "неопределено",
	}}
}

// Index wraps a loaded lexicon.
type Index struct {
	lex torah.Lexicon
}

// NewIndex wraps lex. A nil lexicon behaves as empty.
func NewIndex(lex torah.Lexicon) *Index {
	return &Index{lex: lex}
}

// Lookup finds a word by its normalized form, then by the word as given.
func (ix *Index) Lookup(word string) (*torah.LexiconEntry, bool) {
	if e, ok := ix.lex[Normalize(word)]; ok {
		return &e, true
	}
	if e, ok := ix.lex[word]; ok {
		return &e, true
	}
	return nil, false
}

// Translations returns the meanings of word, or UnknownTranslations when the
// word is missing or has no meanings.
func (ix *Index) Translations(word string) []torah.Translation {
	if e, ok := ix.Lookup(word); ok && len(e.Meanings) > 0 {
		return e.Meanings
	}
	return UnknownTranslations()
}

// Len returns the number of entries.
func (ix *Index) Len() int { return len(ix.lex) }
