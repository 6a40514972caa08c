package torah

import (
	"bytes"
	"encoding/json"
)

// Book is one entry of the books index (metadata/books.json).
type Book struct {
	ID                string   `json:"id"`
	English           string   `json:"english"`
	Hebrew            string   `json:"hebrew"`
	Russian           string   `json:"russian"`
	Transliteration   string   `json:"transliteration"`
	Chapters          int      `json:"chapters"`
	TotalVerses       int      `json:"totalVerses"`
	TotalParashas     int      `json:"totalParashas,omitempty"`
	AvailableParashas []string `json:"availableParashas,omitempty"`
	Description       string   `json:"description,omitempty"`
}

// BooksIndex is the top-level index of all books.
type BooksIndex struct {
	Books         []Book `json:"books"`
	TotalBooks    int    `json:"totalBooks"`
	TotalChapters int    `json:"totalChapters"`
	TotalVerses   int    `json:"totalVerses"`
	TotalParashas int    `json:"totalParashas"`
	LastUpdated   string `json:"lastUpdated,omitempty"`
}

// Find returns the book with the given id, or nil.
func (bi *BooksIndex) Find(id string) *Book {
	for i := range bi.Books {
		if bi.Books[i].ID == id {
			return &bi.Books[i]
		}
	}
	return nil
}

// Parasha is a weekly reading unit.
//
// StartVerse and EndVerse are present only when the first or last chapter
// is shared with the neighbouring unit.
type Parasha struct {
	ID           string `json:"id"`
	Number       int    `json:"number"`
	Hebrew       string `json:"hebrew"`
	Russian      string `json:"russian,omitempty"`
	English      string `json:"english"`
	StartChapter int    `json:"startChapter"`
	EndChapter   int    `json:"endChapter"`
	StartVerse   *int   `json:"startVerse,omitempty"`
	EndVerse     *int   `json:"endVerse,omitempty"`
	Theme        string `json:"theme,omitempty"`
	Description  string `json:"description,omitempty"`
}

// FirstVerse returns the verse at which the parasha begins in its start
// chapter.
func (p *Parasha) FirstVerse() int {
	if p.StartVerse != nil && *p.StartVerse > 0 {
		return *p.StartVerse
	}
	return 1
}

// LastVerse returns the verse at which the parasha ends in its end chapter,
// given the length of that chapter.
func (p *Parasha) LastVerse(chapterLen int) int {
	if p.EndVerse != nil && *p.EndVerse > 0 {
		return *p.EndVerse
	}
	return chapterLen
}

// ContainsChapter reports whether chapter lies within [StartChapter, EndChapter].
func (p *Parasha) ContainsChapter(chapter int) bool {
	return chapter >= p.StartChapter && chapter <= p.EndChapter
}

// Parashas maps a book id to its ordered list of parashot.
type Parashas map[string][]Parasha

// Find returns the parasha with the given id within a book, or nil.
func (ps Parashas) Find(book, id string) *Parasha {
	list := ps[book]
	for i := range list {
		if list[i].ID == id {
			return &list[i]
		}
	}
	return nil
}

// ChapterInfo is a per-chapter summary inside BookMetadata.
type ChapterInfo struct {
	Number  int    `json:"number"`
	Verses  int    `json:"verses"`
	Title   string `json:"title,omitempty"`
	Theme   string `json:"theme,omitempty"`
	Parasha string `json:"parasha,omitempty"`
}

// BookMetadata is {book}/metadata.json.
type BookMetadata struct {
	Book              string        `json:"book"`
	English           string        `json:"english"`
	Hebrew            string        `json:"hebrew"`
	Russian           string        `json:"russian"`
	Transliteration   string        `json:"transliteration"`
	Description       string        `json:"description,omitempty"`
	TotalChapters     int           `json:"totalChapters"`
	TotalVerses       int           `json:"totalVerses"`
	Parashas          []Parasha     `json:"parashas,omitempty"`
	Chapters          []ChapterInfo `json:"chapters,omitempty"`
	AvailableChapters []int         `json:"availableChapters"`
	AvailableParashas []string      `json:"availableParashas,omitempty"`
	LastUpdated       string        `json:"lastUpdated,omitempty"`
	DataVersion       string        `json:"dataVersion,omitempty"`
}

// ParashaMetadata is {book}/{parasha}/metadata.json.
type ParashaMetadata struct {
	ID                string `json:"id"`
	BookID            string `json:"bookId,omitempty"`
	Number            int    `json:"number,omitempty"`
	AvailableChapters []int  `json:"availableChapters"`
	TotalChapters     int    `json:"totalChapters"`
	TotalVerses       int    `json:"totalVerses"`
	LastUpdated       string `json:"lastUpdated,omitempty"`
	DataVersion       string `json:"dataVersion,omitempty"`
}

// Translation is one meaning of a word.
type Translation struct {
	Meaning      string   `json:"meaning"`
	Context      string   `json:"context,omitempty"`
	Grammar      string   `json:"grammar,omitempty"`
	Frequency    string   `json:"frequency,omitempty"`
	Etymology    string   `json:"etymology,omitempty"`
	RelatedWords []string `json:"relatedWords,omitempty"`
	Sources      []string `json:"sources,omitempty"`
}

// UnmarshalJSON accepts both the object form and the bare string form used
// by older chapter files.
func (t *Translation) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*t = Translation{Meaning: s}
		return nil
	}
	type plain Translation
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*t = Translation(p)
	return nil
}

// PardesEntry is one leveled annotation within a PaRDeS level.
type PardesEntry struct {
	Meaning     string   `json:"meaning"`
	Context     string   `json:"context,omitempty"`
	Explanation string   `json:"explanation,omitempty"`
	Gematria    string   `json:"gematria,omitempty"`
	Sefirot     string   `json:"sefirot,omitempty"`
	Source      string   `json:"source,omitempty"`
	Sources     []string `json:"sources,omitempty"`
}

// PardesLevels holds the entries of one level. The data stores a level as
// either a single object or an array; both decode into a slice.
type PardesLevels []PardesEntry

// UnmarshalJSON implements json.Unmarshaler.
func (l *PardesLevels) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '{' {
		var e PardesEntry
		if err := json.Unmarshal(data, &e); err != nil {
			return err
		}
		*l = PardesLevels{e}
		return nil
	}
	var list []PardesEntry
	if err := json.Unmarshal(data, &list); err != nil {
		return err
	}
	*l = list
	return nil
}

// Pardes is the four-level exegetical annotation of a word: literal (pshat),
// allusive (remez), interpretive (drash) and esoteric (sod).
type Pardes struct {
	Pshat PardesLevels `json:"pshat,omitempty"`
	Remez PardesLevels `json:"remez,omitempty"`
	Drash PardesLevels `json:"drash,omitempty"`
	Sod   PardesLevels `json:"sod,omitempty"`
}

// IsEmpty reports whether no level carries an entry.
func (p *Pardes) IsEmpty() bool {
	return p == nil || len(p.Pshat)+len(p.Remez)+len(p.Drash)+len(p.Sod) == 0
}

// Word is one Hebrew word of a verse.
type Word struct {
	Position        int           `json:"position"`
	Hebrew          string        `json:"hebrew"`
	Transliteration string        `json:"transliteration"`
	Root            string        `json:"root,omitempty"`
	Translations    []Translation `json:"translations"`
	Pardes          *Pardes       `json:"pardes,omitempty"`
}

// Completeness tags how much of a record has been filled in.
type Completeness struct {
	Verses       string `json:"verses,omitempty"`
	Words        string `json:"words"`
	Translations string `json:"translations"`
	Commentaries string `json:"commentaries"`
}

// Verse is one entry of a legacy chapter file.
type Verse struct {
	Number       int               `json:"number"`
	Hebrew       []string          `json:"hebrew"`
	Russian      string            `json:"russian,omitempty"`
	English      string            `json:"english,omitempty"`
	Words        []Word            `json:"words"`
	Cantillation []string          `json:"cantillation,omitempty"`
	Commentaries map[string]string `json:"commentaries,omitempty"`
}

// ChapterMetadata is the metadata block of a chapter file.
type ChapterMetadata struct {
	AvailableVerses []int        `json:"availableVerses,omitempty"`
	LastUpdated     string       `json:"lastUpdated,omitempty"`
	DataVersion     string       `json:"dataVersion,omitempty"`
	Completeness    Completeness `json:"completeness"`
}

// ChapterFile is {book}/{parasha}/chapter-{ccc}.json.
type ChapterFile struct {
	Book        string           `json:"book"`
	Parasha     string           `json:"parasha,omitempty"`
	Chapter     int              `json:"chapter"`
	Title       string           `json:"title,omitempty"`
	Theme       string           `json:"theme,omitempty"`
	TotalVerses int              `json:"totalVerses"`
	Verses      []Verse          `json:"verses"`
	Metadata    *ChapterMetadata `json:"metadata,omitempty"`
}

// FindVerse returns the verse entry with the given number, or nil.
func (c *ChapterFile) FindVerse(number int) *Verse {
	for i := range c.Verses {
		if c.Verses[i].Number == number {
			return &c.Verses[i]
		}
	}
	return nil
}

// VerseMetadata is the metadata block of a verse file.
type VerseMetadata struct {
	LastUpdated   string       `json:"lastUpdated"`
	DataVersion   string       `json:"dataVersion"`
	Completeness  Completeness `json:"completeness"`
	ConvertedFrom string       `json:"convertedFrom,omitempty"`
}

// VerseFile is {book}/{parasha}/{parasha}-{ccc}-{vvv}.json.
type VerseFile struct {
	Book         string            `json:"book"`
	Parasha      string            `json:"parasha"`
	Chapter      int               `json:"chapter"`
	Verse        int               `json:"verse"`
	Hebrew       []string          `json:"hebrew"`
	Russian      string            `json:"russian,omitempty"`
	Words        []Word            `json:"words"`
	Commentaries map[string]string `json:"commentaries,omitempty"`
	Metadata     VerseMetadata     `json:"metadata"`
}

// Commentator describes one classical commentator.
type Commentator struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	HebrewName  string `json:"hebrewName"`
	FullName    string `json:"fullName"`
	Years       string `json:"years"`
	Description string `json:"description"`
	Style       string `json:"style,omitempty"`
	Language    string `json:"language,omitempty"`
}

// CommentatorsIndex is metadata/commentators.json.
type CommentatorsIndex struct {
	Commentators []Commentator `json:"commentators"`
}

// Usage is one occurrence citation of a lexicon entry.
type Usage struct {
	Book    string `json:"book"`
	Chapter int    `json:"chapter"`
	Verse   int    `json:"verse"`
	Form    string `json:"form"`
}

// LexiconEntry is the lexicon record of one normalized word.
type LexiconEntry struct {
	Root          string        `json:"root"`
	Meanings      []Translation `json:"meanings"`
	Frequency     int           `json:"frequency"`
	RelatedWords  []string      `json:"relatedWords,omitempty"`
	BiblicalUsage []Usage       `json:"biblicalUsage,omitempty"`
}

// Lexicon maps a normalized Hebrew word to its entry.
type Lexicon map[string]LexiconEntry
