// Package resolve maps (book, chapter, verse) positions onto parashot.
//
// All functions are pure: they operate on parasha lists and the Structure
// Index already loaded by the caller.
package resolve

import (
	"github.com/FocuswithJustin/JuniperTorah/core/errors"
	"github.com/FocuswithJustin/JuniperTorah/core/torah"
)

// Range is an inclusive verse range.
type Range struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Len returns the number of verses in the range.
func (r Range) Len() int {
	if r.End < r.Start {
		return 0
	}
	return r.End - r.Start + 1
}

// Contains reports whether verse lies within the range.
func (r Range) Contains(verse int) bool {
	return verse >= r.Start && verse <= r.End
}

// Verses expands the range into a slice of verse numbers.
func (r Range) Verses() []int {
	out := make([]int, 0, r.Len())
	for v := r.Start; v <= r.End; v++ {
		out = append(out, v)
	}
	return out
}

// Candidates returns every parasha of the list whose chapter range contains
// chapter, in list order.
func Candidates(parashas []torah.Parasha, chapter int) []*torah.Parasha {
	var out []*torah.Parasha
	for i := range parashas {
		if parashas[i].ContainsChapter(chapter) {
			out = append(out, &parashas[i])
		}
	}
	return out
}

// FindParashaForChapter returns the parasha owning (chapter, verse) of a
// book. A verse of 0 means no verse was supplied.
//
// A chapter is shared by at most two consecutive parashot. When it is shared
// and verse is 0, or no candidate claims the verse, the first candidate is
// returned.
func FindParashaForChapter(book string, parashas []torah.Parasha, chapter, verse int) (*torah.Parasha, error) {
	candidates := Candidates(parashas, chapter)
	switch len(candidates) {
	case 0:
		return nil, errors.NewResolution(book, chapter, verse, "chapter outside every parasha")
	case 1:
		return candidates[0], nil
	}

	if verse > 0 {
		for _, p := range candidates {
			if claims(p, chapter, verse) {
				return p, nil
			}
		}
	}
	return candidates[0], nil
}

// claims applies the boundary rules for a chapter shared by two parashot.
// A missing EndVerse leaves the end chapter unbounded.
func claims(p *torah.Parasha, chapter, verse int) bool {
	withinEnd := p.EndVerse == nil || *p.EndVerse <= 0 || verse <= *p.EndVerse

	if chapter == p.StartChapter && verse >= p.FirstVerse() {
		if chapter == p.EndChapter {
			return withinEnd
		}
		return true
	}
	return chapter == p.EndChapter && chapter != p.StartChapter && withinEnd
}

// ParashaVerseRange returns the verses of chapter that belong to p. The
// second result is false when the chapter does not intersect p, or when the
// chapter length is needed but missing from the Structure Index.
func ParashaVerseRange(st *torah.Structure, book string, p *torah.Parasha, chapter int) (Range, bool) {
	if p == nil || !p.ContainsChapter(chapter) {
		return Range{}, false
	}

	isStart := chapter == p.StartChapter
	isEnd := chapter == p.EndChapter
	length, known := st.ChapterLength(book, chapter)

	var r Range
	switch {
	case isStart && isEnd:
		if (p.EndVerse == nil || *p.EndVerse <= 0) && !known {
			return Range{}, false
		}
		r = Range{Start: p.FirstVerse(), End: p.LastVerse(length)}
	case isStart:
		if !known {
			return Range{}, false
		}
		r = Range{Start: p.FirstVerse(), End: length}
	case isEnd:
		if (p.EndVerse == nil || *p.EndVerse <= 0) && !known {
			return Range{}, false
		}
		r = Range{Start: 1, End: p.LastVerse(length)}
	default:
		if !known {
			return Range{}, false
		}
		r = Range{Start: 1, End: length}
	}
	if r.Len() == 0 {
		return Range{}, false
	}
	return r, true
}

// AvailableVerses lists the verses of a chapter to expose for navigation.
// With a parasha it is the parasha's share of the chapter; otherwise the
// whole chapter. The second result is false when nothing can be computed.
func AvailableVerses(st *torah.Structure, book string, chapter int, p *torah.Parasha) ([]int, bool) {
	if p != nil {
		if r, ok := ParashaVerseRange(st, book, p, chapter); ok {
			return r.Verses(), true
		}
	}
	length, ok := st.ChapterLength(book, chapter)
	if !ok {
		return nil, false
	}
	return Range{Start: 1, End: length}.Verses(), true
}

// ChaptersForParasha returns the chapters of p that are listed in available,
// in ascending order.
func ChaptersForParasha(p *torah.Parasha, available []int) []int {
	if p == nil {
		return nil
	}
	set := make(map[int]bool, len(available))
	for _, c := range available {
		set[c] = true
	}
	var out []int
	for c := p.StartChapter; c <= p.EndChapter; c++ {
		if set[c] {
			out = append(out, c)
		}
	}
	return out
}
