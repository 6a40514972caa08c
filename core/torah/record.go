package torah

import "fmt"

// Layout names the on-disk layout a verse was read from.
type Layout string

// Layout constants.
const (
	LayoutVerseFile   Layout = "verse"
	LayoutChapterFile Layout = "chapter"
)

// Record is the canonical verse shape handed to every consumer.
type Record struct {
	Book         string            `json:"book"`
	Parasha      string            `json:"parasha"`
	Chapter      int               `json:"chapter"`
	Verse        int               `json:"verse"`
	Hebrew       []string          `json:"hebrew"`
	Russian      string            `json:"russian,omitempty"`
	Words        []Word            `json:"words"`
	Commentaries map[string]string `json:"commentaries,omitempty"`
	Metadata     VerseMetadata     `json:"metadata"`
	Layout       Layout            `json:"layout"`
}

// Source is a verse as loaded, before normalization. Exactly one of
// VerseFile and Chapter is set, as indicated by Kind.
type Source struct {
	Kind      Layout
	VerseFile *VerseFile

	// Chapter and Number identify a verse entry inside a legacy chapter file.
	Chapter *ChapterFile
	Number  int
}

// FromVerseFile wraps a per-verse file.
func FromVerseFile(vf *VerseFile) Source {
	return Source{Kind: LayoutVerseFile, VerseFile: vf}
}

// FromChapterFile wraps a verse entry of a legacy chapter file.
func FromChapterFile(cf *ChapterFile, number int) Source {
	return Source{Kind: LayoutChapterFile, Chapter: cf, Number: number}
}

// Normalize produces the canonical Record. The parasha argument fills in the
// owning parasha when the source does not name one.
func (s Source) Normalize(parasha string) (*Record, error) {
	switch s.Kind {
	case LayoutVerseFile:
		if s.VerseFile == nil {
			return nil, fmt.Errorf("verse-file source without payload")
		}
		vf := s.VerseFile
		rec := &Record{
			Book:         vf.Book,
			Parasha:      vf.Parasha,
			Chapter:      vf.Chapter,
			Verse:        vf.Verse,
			Hebrew:       vf.Hebrew,
			Russian:      vf.Russian,
			Words:        vf.Words,
			Commentaries: vf.Commentaries,
			Metadata:     vf.Metadata,
			Layout:       LayoutVerseFile,
		}
		if rec.Parasha == "" {
			rec.Parasha = parasha
		}
		return rec, nil

	case LayoutChapterFile:
		if s.Chapter == nil {
			return nil, fmt.Errorf("chapter-file source without payload")
		}
		v := s.Chapter.FindVerse(s.Number)
		if v == nil {
			return nil, fmt.Errorf("verse %d not present in chapter %d", s.Number, s.Chapter.Chapter)
		}
		rec := &Record{
			Book:         s.Chapter.Book,
			Parasha:      s.Chapter.Parasha,
			Chapter:      s.Chapter.Chapter,
			Verse:        v.Number,
			Hebrew:       v.Hebrew,
			Russian:      v.Russian,
			Words:        v.Words,
			Commentaries: v.Commentaries,
			Layout:       LayoutChapterFile,
		}
		if rec.Parasha == "" {
			rec.Parasha = parasha
		}
		if md := s.Chapter.Metadata; md != nil {
			rec.Metadata = VerseMetadata{
				LastUpdated:  md.LastUpdated,
				DataVersion:  md.DataVersion,
				Completeness: md.Completeness,
			}
		}
		rec.Metadata.ConvertedFrom = ChapterFileName(s.Chapter.Chapter)
		return rec, nil
	}
	return nil, fmt.Errorf("unknown verse source kind %q", s.Kind)
}

// ChapterFileName returns the legacy file name of a chapter, e.g.
// "chapter-006.json".
func ChapterFileName(chapter int) string {
	return fmt.Sprintf("chapter-%03d.json", chapter)
}

// VerseFileName returns the per-verse file name, e.g. "noach-006-009.json".
func VerseFileName(parasha string, chapter, verse int) string {
	return fmt.Sprintf("%s-%03d-%03d.json", parasha, chapter, verse)
}
