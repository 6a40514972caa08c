// Package ref parses reader references such as "genesis 6:9".
package ref

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"

	"github.com/FocuswithJustin/JuniperTorah/core/errors"
)

// Ref is a position in the Torah, optionally pinned to a parasha.
type Ref struct {
	// Book is the canonical book id (e.g., "genesis").
	Book string `json:"book"`

	// Parasha is an explicit parasha id, empty when not given.
	Parasha string `json:"parasha,omitempty"`

	// Chapter is the chapter number (0 for whole-book references).
	Chapter int `json:"chapter,omitempty"`

	// Verse is the verse number (0 for whole-chapter references).
	Verse int `json:"verse,omitempty"`
}

// bookAliases maps accepted spellings onto canonical book ids.
var bookAliases = map[string]string{
	"genesis": "genesis", "gen": "genesis", "ge": "genesis", "bereshit": "genesis", "beresheet": "genesis",
	"exodus": "exodus", "exod": "exodus", "exo": "exodus", "ex": "exodus", "shemot": "exodus", "shmot": "exodus",
	"leviticus": "leviticus", "lev": "leviticus", "le": "leviticus", "vayikra": "leviticus",
	"numbers": "numbers", "num": "numbers", "nu": "numbers", "bamidbar": "numbers", "bemidbar": "numbers",
	"deuteronomy": "deuteronomy", "deut": "deuteronomy", "deu": "deuteronomy", "dt": "deuteronomy", "devarim": "deuteronomy",
}

// Books returns the canonical book ids in canonical order.
func Books() []string {
	return []string{"genesis", "exodus", "leviticus", "numbers", "deuteronomy"}
}

// CanonicalBook resolves an alias to its canonical id.
func CanonicalBook(name string) (string, bool) {
	id, ok := bookAliases[strings.ToLower(name)]
	return id, ok
}

// refGrammar is the participle grammar for references.
// Examples: "genesis", "genesis 6", "genesis 6:9", "Gen.6.9", "genesis/noach 6:9"
//
//nolint:govet // participle grammar tags are not standard struct tags
type refGrammar struct {
	Book       string       `@Ident`
	Parasha    *string      `( "/" @Ident )?`
	ChapterRef *chapterPart `( "."? @@ )?`
}

//nolint:govet // participle grammar tags are not standard struct tags
type chapterPart struct {
	Chapter int  `@Int`
	Verse   *int `( ( ":" | "." ) @Int )?`
}

var refLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Int", Pattern: `[0-9]+`},
	{Name: "Ident", Pattern: `[A-Za-z][A-Za-z_]*`},
	{Name: "Punct", Pattern: `[.:/]`},
	{Name: "Whitespace", Pattern: `\s+`},
})

var refParser = participle.MustBuild[refGrammar](
	participle.Lexer(refLexer),
	participle.Elide("Whitespace"),
)

// Parse parses a reference string.
// Supported formats:
//   - "genesis" (book only)
//   - "genesis 6" or "genesis.6" (book and chapter)
//   - "genesis 6:9" or "Gen.6.9" (book, chapter, and verse)
//   - "genesis/noach 6:9" (pinned to a parasha)
func Parse(s string) (*Ref, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, errors.NewParse("reference", "", "empty reference string")
	}

	parsed, err := refParser.ParseString("", s)
	if err != nil {
		return nil, &errors.ParseError{Format: "reference", Message: fmt.Sprintf("invalid reference %q", s), Err: err}
	}

	book, ok := CanonicalBook(parsed.Book)
	if !ok {
		return nil, errors.NewParse("reference", "", fmt.Sprintf("unknown book %q", parsed.Book))
	}

	r := &Ref{Book: book}
	if parsed.Parasha != nil {
		r.Parasha = strings.ToLower(*parsed.Parasha)
	}
	if parsed.ChapterRef != nil {
		r.Chapter = parsed.ChapterRef.Chapter
		if parsed.ChapterRef.Verse != nil {
			r.Verse = *parsed.ChapterRef.Verse
		}
	}
	if r.Chapter < 0 || r.Verse < 0 || (r.Verse > 0 && r.Chapter == 0) {
		return nil, errors.NewParse("reference", "", fmt.Sprintf("invalid position in %q", s))
	}
	return r, nil
}

// String returns the reference in "book[/parasha] chapter:verse" form.
func (r *Ref) String() string {
	var sb strings.Builder
	sb.WriteString(r.Book)
	if r.Parasha != "" {
		sb.WriteString("/")
		sb.WriteString(r.Parasha)
	}
	if r.Chapter > 0 {
		sb.WriteString(" ")
		sb.WriteString(strconv.Itoa(r.Chapter))
		if r.Verse > 0 {
			sb.WriteString(":")
			sb.WriteString(strconv.Itoa(r.Verse))
		}
	}
	return sb.String()
}

// HasVerse reports whether the reference names a single verse.
func (r *Ref) HasVerse() bool {
	return r.Chapter > 0 && r.Verse > 0
}
