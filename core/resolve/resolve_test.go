package resolve

import (
	"reflect"
	"testing"

	"github.com/FocuswithJustin/JuniperTorah/core/errors"
	"github.com/FocuswithJustin/JuniperTorah/core/torah"
)

func intPtr(v int) *int { return &v }

// genesisParashas covers the first three parashot of Genesis; chapter 6 is
// shared between beresheet (1-8) and noach (9-22).
func genesisParashas() []torah.Parasha {
	return []torah.Parasha{
		{ID: "beresheet", Number: 1, StartChapter: 1, EndChapter: 6, EndVerse: intPtr(8)},
		{ID: "noach", Number: 2, StartChapter: 6, EndChapter: 11, StartVerse: intPtr(9), EndVerse: intPtr(32)},
		{ID: "lech_lecha", Number: 3, StartChapter: 12, EndChapter: 17},
	}
}

// numbersParashas contains a unit that starts and ends inside the same
// shared chapters: chukat ends at 22:1 and balak starts at 22:2.
func numbersParashas() []torah.Parasha {
	return []torah.Parasha{
		{ID: "korach", StartChapter: 16, EndChapter: 18},
		{ID: "chukat", StartChapter: 19, EndChapter: 22, EndVerse: intPtr(1)},
		{ID: "balak", StartChapter: 22, EndChapter: 25, StartVerse: intPtr(2), EndVerse: intPtr(9)},
		{ID: "pinchas", StartChapter: 25, EndChapter: 30, StartVerse: intPtr(10), EndVerse: intPtr(1)},
	}
}

func testStructure() *torah.Structure {
	return &torah.Structure{Books: map[string]torah.BookStructure{
		"genesis": {Chapters: 50, ChaptersData: map[string]torah.ChapterStructure{
			"1": {Verses: 31}, "2": {Verses: 25}, "5": {Verses: 32},
			"6": {Verses: 22}, "7": {Verses: 24}, "11": {Verses: 32},
			"6_noach": {Verses: 14, StartVerse: 9, EndVerse: 22},
		}},
		"numbers": {Chapters: 36, ChaptersData: map[string]torah.ChapterStructure{
			"22": {Verses: 41}, "25": {Verses: 18},
		}},
	}}
}

func TestFindParashaForChapter(t *testing.T) {
	tests := []struct {
		name     string
		parashas []torah.Parasha
		chapter  int
		verse    int
		want     string
	}{
		{"interior chapter", genesisParashas(), 3, 0, "beresheet"},
		{"interior chapter with verse", genesisParashas(), 8, 4, "noach"},
		{"non-split start chapter", genesisParashas(), 12, 1, "lech_lecha"},
		{"split chapter first half", genesisParashas(), 6, 5, "beresheet"},
		{"split chapter boundary last", genesisParashas(), 6, 8, "beresheet"},
		{"split chapter boundary first", genesisParashas(), 6, 9, "noach"},
		{"split chapter second half", genesisParashas(), 6, 22, "noach"},
		{"split chapter without verse", genesisParashas(), 6, 0, "beresheet"},
		{"end chapter of earlier unit", numbersParashas(), 22, 1, "chukat"},
		{"start chapter of later unit", numbersParashas(), 22, 2, "balak"},
		{"second shared chapter early", numbersParashas(), 25, 9, "balak"},
		{"second shared chapter late", numbersParashas(), 25, 10, "pinchas"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := FindParashaForChapter("genesis", tt.parashas, tt.chapter, tt.verse)
			if err != nil {
				t.Fatalf("FindParashaForChapter() error = %v", err)
			}
			if got.ID != tt.want {
				t.Errorf("FindParashaForChapter(%d, %d) = %s, want %s", tt.chapter, tt.verse, got.ID, tt.want)
			}
		})
	}
}

func TestFindParashaForChapterNonSplitIsUnique(t *testing.T) {
	ps := genesisParashas()
	for chapter := 1; chapter <= 17; chapter++ {
		if chapter == 6 {
			continue
		}
		if n := len(Candidates(ps, chapter)); n != 1 {
			t.Errorf("chapter %d has %d candidates, want 1", chapter, n)
		}
	}
}

func TestFindParashaForChapterOutOfRange(t *testing.T) {
	sixChapters := []torah.Parasha{{ID: "only", StartChapter: 1, EndChapter: 6}}
	got, err := FindParashaForChapter("tiny", sixChapters, 99, 1)
	if got != nil {
		t.Errorf("expected no parasha, got %s", got.ID)
	}
	var re *errors.ResolutionError
	if !errors.As(err, &re) {
		t.Fatalf("error = %v, want *ResolutionError", err)
	}
	if re.Book != "tiny" || re.Chapter != 99 {
		t.Errorf("ResolutionError = %+v", re)
	}

	if _, err := FindParashaForChapter("tiny", nil, 1, 0); !errors.IsUnresolved(err) {
		t.Errorf("empty list: error = %v, want unresolved", err)
	}
}

func TestParashaVerseRange(t *testing.T) {
	st := testStructure()
	gen := torah.Parashas{"genesis": genesisParashas(), "numbers": numbersParashas()}

	tests := []struct {
		name    string
		book    string
		parasha string
		chapter int
		want    Range
		wantOK  bool
	}{
		{"start chapter only", "genesis", "noach", 6, Range{9, 22}, true},
		{"end chapter only", "genesis", "beresheet", 6, Range{1, 8}, true},
		{"interior chapter", "genesis", "beresheet", 2, Range{1, 25}, true},
		{"first chapter without bounds", "genesis", "beresheet", 1, Range{1, 31}, true},
		{"end chapter with bound", "genesis", "noach", 11, Range{1, 32}, true},
		{"start and end chapter", "numbers", "balak", 22, Range{2, 41}, true},
		{"chapter outside parasha", "genesis", "noach", 12, Range{}, false},
		{"unknown chapter length", "genesis", "noach", 8, Range{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := gen.Find(tt.book, tt.parasha)
			got, ok := ParashaVerseRange(st, tt.book, p, tt.chapter)
			if ok != tt.wantOK || got != tt.want {
				t.Errorf("ParashaVerseRange() = %v, %v; want %v, %v", got, ok, tt.want, tt.wantOK)
			}
		})
	}

	single := &torah.Parasha{ID: "x", StartChapter: 5, EndChapter: 5, StartVerse: intPtr(3), EndVerse: intPtr(7)}
	if got, ok := ParashaVerseRange(st, "genesis", single, 5); !ok || got != (Range{3, 7}) {
		t.Errorf("single-chapter parasha range = %v, %v", got, ok)
	}
	if _, ok := ParashaVerseRange(st, "genesis", nil, 5); ok {
		t.Error("nil parasha should not be applicable")
	}
}

func TestRangeHelpers(t *testing.T) {
	r := Range{Start: 9, End: 12}
	if r.Len() != 4 {
		t.Errorf("Len() = %d", r.Len())
	}
	if !r.Contains(9) || r.Contains(13) {
		t.Error("Contains() boundaries wrong")
	}
	if got := r.Verses(); !reflect.DeepEqual(got, []int{9, 10, 11, 12}) {
		t.Errorf("Verses() = %v", got)
	}
	if (Range{Start: 5, End: 4}).Len() != 0 {
		t.Error("inverted range should be empty")
	}
}

func TestAvailableVerses(t *testing.T) {
	st := testStructure()
	ps := genesisParashas()

	got, ok := AvailableVerses(st, "genesis", 6, &ps[1])
	if !ok || len(got) != 14 || got[0] != 9 || got[13] != 22 {
		t.Errorf("AvailableVerses(noach, 6) = %v, %v", got, ok)
	}

	got, ok = AvailableVerses(st, "genesis", 7, nil)
	if !ok || len(got) != 24 {
		t.Errorf("AvailableVerses(nil, 7) = %d verses, %v", len(got), ok)
	}

	if _, ok := AvailableVerses(st, "genesis", 40, nil); ok {
		t.Error("unknown chapter should report false")
	}
}

func TestChaptersForParasha(t *testing.T) {
	ps := genesisParashas()
	got := ChaptersForParasha(&ps[1], []int{1, 2, 6, 7, 9, 12})
	if !reflect.DeepEqual(got, []int{6, 7, 9}) {
		t.Errorf("ChaptersForParasha() = %v, want [6 7 9]", got)
	}
	if ChaptersForParasha(nil, []int{1}) != nil {
		t.Error("nil parasha should yield nil")
	}
}
