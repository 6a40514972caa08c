package torah

import (
	"sort"
	"strconv"
	"strings"
)

// ChapterStructure is the Structure Index entry of one chapter.
// StartVerse and EndVerse are only set on synthetic split keys such as
// "6_noach".
type ChapterStructure struct {
	Verses     int `json:"verses"`
	StartVerse int `json:"startVerse,omitempty"`
	EndVerse   int `json:"endVerse,omitempty"`
}

// BookStructure holds the chapter count and per-chapter verse counts of a book.
type BookStructure struct {
	Chapters     int                         `json:"chapters"`
	TotalVerses  int                         `json:"totalVerses,omitempty"`
	ChaptersData map[string]ChapterStructure `json:"chaptersData"`
}

// Structure is the Structure Index (metadata/torah-structure.json).
type Structure struct {
	Books map[string]BookStructure `json:"books"`
}

// ChapterLength returns the number of verses in a chapter. Synthetic split
// keys are never consulted.
func (s *Structure) ChapterLength(book string, chapter int) (int, bool) {
	if s == nil {
		return 0, false
	}
	bs, ok := s.Books[strings.ToLower(book)]
	if !ok {
		return 0, false
	}
	cs, ok := bs.ChaptersData[strconv.Itoa(chapter)]
	if !ok || cs.Verses <= 0 {
		return 0, false
	}
	return cs.Verses, true
}

// ChapterCount returns the number of chapters of a book. When the explicit
// count is missing it is derived from the numeric chapter keys.
func (s *Structure) ChapterCount(book string) int {
	if s == nil {
		return 0
	}
	bs, ok := s.Books[strings.ToLower(book)]
	if !ok {
		return 0
	}
	if bs.Chapters > 0 {
		return bs.Chapters
	}
	return len(bs.NumberedChapters())
}

// NumberedChapters returns the numeric chapter keys of a book structure in order,
// skipping synthetic split keys.
func (bs BookStructure) NumberedChapters() []int {
	chapters := make([]int, 0, len(bs.ChaptersData))
	for key := range bs.ChaptersData {
		n, err := strconv.Atoi(key)
		if err != nil {
			continue
		}
		chapters = append(chapters, n)
	}
	sort.Ints(chapters)
	return chapters
}

// SplitKey returns the synthetic key used for the part of a chapter that
// belongs to a parasha, e.g. "6_noach".
func SplitKey(chapter int, parashaID string) string {
	return strconv.Itoa(chapter) + "_" + parashaID
}
