package fetch

import (
	"context"
	"encoding/json"

	"github.com/FocuswithJustin/JuniperTorah/core/errors"
	"github.com/FocuswithJustin/JuniperTorah/core/torah"
)

// decode loads r and unmarshals it into a fresh T. A document that does
// not decode is never cached.
func decode[T any](ctx context.Context, f *Fetcher, r Resource) (*T, error) {
	var out *T
	_, err := f.load(ctx, r, func(data []byte) error {
		out = new(T)
		return json.Unmarshal(data, out)
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Books returns metadata/books.json.
func (f *Fetcher) Books(ctx context.Context) (*torah.BooksIndex, error) {
	return decode[torah.BooksIndex](ctx, f, BooksResource())
}

// Commentators returns metadata/commentators.json.
func (f *Fetcher) Commentators(ctx context.Context) (*torah.CommentatorsIndex, error) {
	return decode[torah.CommentatorsIndex](ctx, f, CommentatorsResource())
}

// Parashas returns metadata/parashas.json.
func (f *Fetcher) Parashas(ctx context.Context) (torah.Parashas, error) {
	ps, err := decode[torah.Parashas](ctx, f, ParashasResource())
	if err != nil {
		return nil, err
	}
	return *ps, nil
}

// BookParashas returns the ordered parashot of one book.
func (f *Fetcher) BookParashas(ctx context.Context, book string) ([]torah.Parasha, error) {
	ps, err := f.Parashas(ctx)
	if err != nil {
		return nil, err
	}
	list, ok := ps[book]
	if !ok {
		return nil, &errors.NotFoundError{Resource: "book", ID: book}
	}
	return list, nil
}

// Structure returns metadata/torah-structure.json.
func (f *Fetcher) Structure(ctx context.Context) (*torah.Structure, error) {
	return decode[torah.Structure](ctx, f, StructureResource())
}

// Lexicon returns the lexicon from metadata/, falling back to the legacy
// copy at the data root when the new one is missing.
func (f *Fetcher) Lexicon(ctx context.Context) (torah.Lexicon, error) {
	lex, err := decode[torah.Lexicon](ctx, f, LexiconResource(false))
	if errors.IsNotFound(err) {
		lex, err = decode[torah.Lexicon](ctx, f, LexiconResource(true))
	}
	if err != nil {
		return nil, err
	}
	return *lex, nil
}

// BookMetadata returns {book}/metadata.json.
func (f *Fetcher) BookMetadata(ctx context.Context, book string) (*torah.BookMetadata, error) {
	return decode[torah.BookMetadata](ctx, f, BookResource(book))
}

// ParashaMetadata returns {book}/{parasha}/metadata.json.
func (f *Fetcher) ParashaMetadata(ctx context.Context, book, parasha string) (*torah.ParashaMetadata, error) {
	return decode[torah.ParashaMetadata](ctx, f, ParashaResource(book, parasha))
}

// Chapter returns a chapter file. An empty parasha reads the legacy
// {book}/chapter-ccc.json.
func (f *Fetcher) Chapter(ctx context.Context, book, parasha string, chapter int) (*torah.ChapterFile, error) {
	return decode[torah.ChapterFile](ctx, f, ChapterResource(book, parasha, chapter))
}

// VerseFile returns {book}/{parasha}/{parasha}-ccc-vvv.json.
func (f *Fetcher) VerseFile(ctx context.Context, book, parasha string, chapter, verse int) (*torah.VerseFile, error) {
	return decode[torah.VerseFile](ctx, f, VerseResource(book, parasha, chapter, verse))
}
