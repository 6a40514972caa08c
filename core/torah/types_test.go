package torah

import (
	"encoding/json"
	"testing"
)

func intPtr(v int) *int { return &v }

func TestParashaBounds(t *testing.T) {
	tests := []struct {
		name      string
		p         Parasha
		chapLen   int
		wantFirst int
		wantLast  int
	}{
		{"no bounds", Parasha{StartChapter: 1, EndChapter: 6}, 22, 1, 22},
		{"start bound", Parasha{StartChapter: 6, EndChapter: 11, StartVerse: intPtr(9)}, 32, 9, 32},
		{"end bound", Parasha{StartChapter: 1, EndChapter: 6, EndVerse: intPtr(8)}, 22, 1, 8},
		{"zero treated as absent", Parasha{StartVerse: intPtr(0), EndVerse: intPtr(0)}, 10, 1, 10},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.p.FirstVerse(); got != tt.wantFirst {
				t.Errorf("FirstVerse() = %d, want %d", got, tt.wantFirst)
			}
			if got := tt.p.LastVerse(tt.chapLen); got != tt.wantLast {
				t.Errorf("LastVerse(%d) = %d, want %d", tt.chapLen, got, tt.wantLast)
			}
		})
	}
}

func TestTranslationUnmarshal(t *testing.T) {
	var words []Word
	data := `[
		{"position":1,"hebrew":"דָבָר","transliteration":"davar","translations":["слово","вещь"]},
		{"position":2,"hebrew":"אֱלֹהִים","transliteration":"elohim","translations":[{"meaning":"Бог","grammar":"noun"}]}
	]`
	if err := json.Unmarshal([]byte(data), &words); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if got := words[0].Translations[1].Meaning; got != "вещь" {
		t.Errorf("string translation = %q, want вещь", got)
	}
	if got := words[1].Translations[0]; got.Meaning != "Бог" || got.Grammar != "noun" {
		t.Errorf("object translation = %+v", got)
	}
}

func TestPardesLevelsUnmarshal(t *testing.T) {
	data := `{
		"pshat": {"meaning":"в начале","context":"literal"},
		"drash": [{"meaning":"ради Торы"},{"meaning":"ради Израиля"}]
	}`
	var p Pardes
	if err := json.Unmarshal([]byte(data), &p); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if len(p.Pshat) != 1 || p.Pshat[0].Meaning != "в начале" {
		t.Errorf("Pshat = %+v", p.Pshat)
	}
	if len(p.Drash) != 2 {
		t.Errorf("len(Drash) = %d, want 2", len(p.Drash))
	}
	if p.IsEmpty() {
		t.Error("IsEmpty() = true for populated pardes")
	}
	var nilPardes *Pardes
	if !nilPardes.IsEmpty() {
		t.Error("nil pardes should be empty")
	}
}

func TestStructureChapterLength(t *testing.T) {
	var st Structure
	data := `{"books":{"genesis":{"chapters":50,"chaptersData":{
		"1":{"verses":31},
		"6":{"verses":22},
		"6_noach":{"verses":14,"startVerse":9,"endVerse":22}
	}}}}`
	if err := json.Unmarshal([]byte(data), &st); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}

	if n, ok := st.ChapterLength("genesis", 6); !ok || n != 22 {
		t.Errorf("ChapterLength(genesis, 6) = %d, %v; want 22, true", n, ok)
	}
	if n, ok := st.ChapterLength("Genesis", 1); !ok || n != 31 {
		t.Errorf("ChapterLength should ignore case: got %d, %v", n, ok)
	}
	if _, ok := st.ChapterLength("genesis", 2); ok {
		t.Error("ChapterLength(genesis, 2) should be unknown")
	}
	if _, ok := st.ChapterLength("exodus", 1); ok {
		t.Error("ChapterLength(exodus, 1) should be unknown")
	}
	if got := st.ChapterCount("genesis"); got != 50 {
		t.Errorf("ChapterCount() = %d, want 50", got)
	}
	if got := st.Books["genesis"].NumberedChapters(); len(got) != 2 || got[0] != 1 || got[1] != 6 {
		t.Errorf("NumberedChapters() = %v, want [1 6]", got)
	}
	if got := SplitKey(6, "noach"); got != "6_noach" {
		t.Errorf("SplitKey() = %q", got)
	}
}

func TestNormalizeVerseFile(t *testing.T) {
	vf := &VerseFile{
		Book: "genesis", Chapter: 1, Verse: 1,
		Hebrew: []string{"בְּרֵאשִׁית"},
		Words:  []Word{{Position: 1, Hebrew: "בְּרֵאשִׁית"}},
	}
	rec, err := FromVerseFile(vf).Normalize("beresheet")
	if err != nil {
		t.Fatalf("Normalize() error = %v", err)
	}
	if rec.Parasha != "beresheet" {
		t.Errorf("Parasha = %q, want beresheet", rec.Parasha)
	}
	if rec.Layout != LayoutVerseFile {
		t.Errorf("Layout = %q", rec.Layout)
	}
}

func TestNormalizeChapterFile(t *testing.T) {
	cf := &ChapterFile{
		Book: "genesis", Chapter: 6,
		Verses: []Verse{
			{Number: 8, Hebrew: []string{"וְנֹחַ"}},
			{Number: 9, Hebrew: []string{"אֵלֶּה"}, Words: []Word{{Position: 1, Hebrew: "אֵלֶּה"}}},
		},
		Metadata: &ChapterMetadata{DataVersion: "2.0.0"},
	}

	rec, err := FromChapterFile(cf, 9).Normalize("noach")
	if err != nil {
		t.Fatalf("Normalize() error = %v", err)
	}
	if rec.Verse != 9 || rec.Parasha != "noach" || rec.Layout != LayoutChapterFile {
		t.Errorf("record = %+v", rec)
	}
	if rec.Metadata.DataVersion != "2.0.0" || rec.Metadata.ConvertedFrom != "chapter-006.json" {
		t.Errorf("metadata = %+v", rec.Metadata)
	}

	if _, err := FromChapterFile(cf, 10).Normalize("noach"); err == nil {
		t.Error("Normalize() should fail for a verse absent from the chapter")
	}
	if _, err := (Source{Kind: "bogus"}).Normalize(""); err == nil {
		t.Error("Normalize() should fail for an unknown kind")
	}
}

func TestFileNames(t *testing.T) {
	if got := VerseFileName("noach", 6, 9); got != "noach-006-009.json" {
		t.Errorf("VerseFileName() = %q", got)
	}
	if got := ChapterFileName(12); got != "chapter-012.json" {
		t.Errorf("ChapterFileName() = %q", got)
	}
}
