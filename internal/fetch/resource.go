package fetch

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/FocuswithJustin/JuniperTorah/core/torah"
)

// Kind names a family of data documents.
type Kind string

// Resource kinds.
const (
	KindBooks        Kind = "books"
	KindCommentators Kind = "commentators"
	KindParashas     Kind = "parashas"
	KindStructure    Kind = "structure"
	KindLexicon      Kind = "lexicon"
	KindBook         Kind = "book"
	KindParasha      Kind = "parasha"
	KindChapter      Kind = "chapter"
	KindVerse        Kind = "verse"
)

// LegacyLexiconPath is the lexicon location used before metadata/ existed.
const LegacyLexiconPath = "hebrew-lexicon.json"

// Pad formats a chapter or verse number as three digits.
func Pad(n int) string {
	return fmt.Sprintf("%03d", n)
}

// Key builds the cache key for a resource: the kind followed by the key
// parts, colon-separated, e.g. "verse:genesis:noach:006:009".
func Key(kind Kind, parts ...string) string {
	if len(parts) == 0 {
		return string(kind)
	}
	return string(kind) + ":" + strings.Join(parts, ":")
}

// ResourcePath returns the path of a resource relative to the data root.
// Chapter and verse parts may be given zero-padded or plain.
//
//	books, commentators, parashas, structure, lexicon: no parts
//	book:    book
//	parasha: book, parasha
//	chapter: book, parasha, chapter  (or book, chapter for the legacy root layout)
//	verse:   book, parasha, chapter, verse
func ResourcePath(kind Kind, parts ...string) (string, error) {
	want := map[Kind][]int{
		KindBooks: {0}, KindCommentators: {0}, KindParashas: {0}, KindStructure: {0}, KindLexicon: {0, 1},
		KindBook: {1}, KindParasha: {2}, KindChapter: {2, 3}, KindVerse: {4},
	}
	counts, ok := want[kind]
	if !ok {
		return "", fmt.Errorf("unknown resource kind %q", kind)
	}
	if !containsInt(counts, len(parts)) {
		return "", fmt.Errorf("resource %s: got %d key parts, want %v", kind, len(parts), counts)
	}

	num := func(s string) (int, error) {
		n, err := strconv.Atoi(s)
		if err != nil || n < 1 {
			return 0, fmt.Errorf("resource %s: invalid number %q", kind, s)
		}
		return n, nil
	}

	switch kind {
	case KindBooks:
		return "metadata/books.json", nil
	case KindCommentators:
		return "metadata/commentators.json", nil
	case KindParashas:
		return "metadata/parashas.json", nil
	case KindStructure:
		return "metadata/torah-structure.json", nil
	case KindLexicon:
		if len(parts) == 1 && parts[0] == "legacy" {
			return LegacyLexiconPath, nil
		}
		return "metadata/hebrew-lexicon.json", nil
	case KindBook:
		return parts[0] + "/metadata.json", nil
	case KindParasha:
		return parts[0] + "/" + parts[1] + "/metadata.json", nil
	case KindChapter:
		ch, err := num(parts[len(parts)-1])
		if err != nil {
			return "", err
		}
		if len(parts) == 2 {
			return parts[0] + "/" + torah.ChapterFileName(ch), nil
		}
		return parts[0] + "/" + parts[1] + "/" + torah.ChapterFileName(ch), nil
	case KindVerse:
		ch, err := num(parts[2])
		if err != nil {
			return "", err
		}
		v, err := num(parts[3])
		if err != nil {
			return "", err
		}
		return parts[0] + "/" + parts[1] + "/" + torah.VerseFileName(parts[1], ch, v), nil
	}
	return "", fmt.Errorf("unknown resource kind %q", kind)
}

func containsInt(list []int, n int) bool {
	for _, v := range list {
		if v == n {
			return true
		}
	}
	return false
}

// Resource identifies one document of the data tree.
type Resource struct {
	Kind  Kind
	Parts []string
}

// Key returns the cache key.
func (r Resource) Key() string { return Key(r.Kind, r.Parts...) }

// Path returns the path relative to the data root.
func (r Resource) Path() (string, error) { return ResourcePath(r.Kind, r.Parts...) }

func (r Resource) String() string { return r.Key() }

// Resource constructors.

func BooksResource() Resource        { return Resource{Kind: KindBooks} }
func CommentatorsResource() Resource { return Resource{Kind: KindCommentators} }
func ParashasResource() Resource     { return Resource{Kind: KindParashas} }
func StructureResource() Resource    { return Resource{Kind: KindStructure} }

// LexiconResource returns the lexicon; legacy selects the data-root copy.
func LexiconResource(legacy bool) Resource {
	if legacy {
		return Resource{Kind: KindLexicon, Parts: []string{"legacy"}}
	}
	return Resource{Kind: KindLexicon}
}

func BookResource(book string) Resource {
	return Resource{Kind: KindBook, Parts: []string{book}}
}

func ParashaResource(book, parasha string) Resource {
	return Resource{Kind: KindParasha, Parts: []string{book, parasha}}
}

// ChapterResource returns a chapter file; an empty parasha selects the
// legacy {book}/chapter-ccc.json layout.
func ChapterResource(book, parasha string, chapter int) Resource {
	if parasha == "" {
		return Resource{Kind: KindChapter, Parts: []string{book, Pad(chapter)}}
	}
	return Resource{Kind: KindChapter, Parts: []string{book, parasha, Pad(chapter)}}
}

func VerseResource(book, parasha string, chapter, verse int) Resource {
	return Resource{Kind: KindVerse, Parts: []string{book, parasha, Pad(chapter), Pad(verse)}}
}
