package main

import (
	"context"
	"fmt"

	"github.com/FocuswithJustin/JuniperTorah/core/errors"
	"github.com/FocuswithJustin/JuniperTorah/core/ref"
	"github.com/FocuswithJustin/JuniperTorah/core/resolve"
	"github.com/FocuswithJustin/JuniperTorah/core/torah"
	"github.com/FocuswithJustin/JuniperTorah/internal/loader"
	"github.com/FocuswithJustin/JuniperTorah/internal/lexicon"
)

// parseRef parses s and checks it names at least a chapter, or a verse when
// needVerse is set. An explicit parasha flag overrides one in the reference.
func parseRef(s, parasha string, needVerse bool) (*ref.Ref, error) {
	r, err := ref.Parse(s)
	if err != nil {
		return nil, err
	}
	if r.Chapter == 0 {
		return nil, errors.NewValidation("reference", fmt.Sprintf("%q names no chapter", s))
	}
	if needVerse && r.Verse == 0 {
		return nil, errors.NewValidation("reference", fmt.Sprintf("%q names no verse", s))
	}
	if parasha != "" {
		r.Parasha = parasha
	}
	return r, nil
}

// VerseCmd loads one verse.
type VerseCmd struct {
	Ref     string `arg:"" help:"Reference, e.g. 'genesis 6:9' or 'genesis/noach 6:9'"`
	Parasha string `help:"Parasha id to load from (corrected when it does not own the verse)"`
}

func (c *VerseCmd) Run(ctx context.Context, g *Globals) error {
	r, err := parseRef(c.Ref, c.Parasha, true)
	if err != nil {
		return err
	}
	l, release, err := g.loader(ctx)
	if err != nil {
		return err
	}
	defer release()

	rec, err := l.LoadVerse(ctx, r.Book, r.Chapter, r.Verse, r.Parasha)
	if err != nil {
		return err
	}
	return g.printJSON(rec)
}

// ChapterCmd loads a chapter file.
type ChapterCmd struct {
	Ref     string `arg:"" help:"Reference, e.g. 'genesis 6'"`
	Parasha string `help:"Parasha directory to read from"`
}

func (c *ChapterCmd) Run(ctx context.Context, g *Globals) error {
	r, err := parseRef(c.Ref, c.Parasha, false)
	if err != nil {
		return err
	}
	l, release, err := g.loader(ctx)
	if err != nil {
		return err
	}
	defer release()

	cf, err := l.LoadChapter(ctx, r.Book, r.Chapter, r.Parasha)
	if err != nil {
		return err
	}
	return g.printJSON(cf)
}

// parashaInfo is the output of the parasha command.
type parashaInfo struct {
	Parasha  *torah.Parasha `json:"parasha"`
	Range    *resolve.Range `json:"range,omitempty"`
	Chapters []int          `json:"chapters,omitempty"`
}

func lookupParasha(ctx context.Context, l *loader.Loader, r *ref.Ref) (*parashaInfo, error) {
	p, err := l.ResolveParasha(ctx, r.Book, r.Chapter, r.Verse)
	if err != nil {
		return nil, err
	}
	info := &parashaInfo{Parasha: p}
	if verses, err := l.AvailableVerses(ctx, r.Book, r.Chapter, p.ID); err == nil && len(verses) > 0 {
		info.Range = &resolve.Range{Start: verses[0], End: verses[len(verses)-1]}
	}
	if chapters, err := l.ChaptersForParasha(ctx, r.Book, p.ID); err == nil {
		info.Chapters = chapters
	}
	return info, nil
}

// ParashaCmd resolves the owning parasha.
type ParashaCmd struct {
	Ref string `arg:"" help:"Reference, e.g. 'genesis 6:9'"`
}

func (c *ParashaCmd) Run(ctx context.Context, g *Globals) error {
	r, err := parseRef(c.Ref, "", false)
	if err != nil {
		return err
	}
	l, release, err := g.loader(ctx)
	if err != nil {
		return err
	}
	defer release()

	info, err := lookupParasha(ctx, l, r)
	if err != nil {
		return err
	}
	return g.printJSON(info)
}

// VersesCmd lists the verses available for navigation.
type VersesCmd struct {
	Ref     string `arg:"" help:"Reference, e.g. 'genesis 6'"`
	Parasha string `help:"Restrict to this parasha's share of the chapter"`
}

func (c *VersesCmd) Run(ctx context.Context, g *Globals) error {
	r, err := parseRef(c.Ref, c.Parasha, false)
	if err != nil {
		return err
	}
	l, release, err := g.loader(ctx)
	if err != nil {
		return err
	}
	defer release()

	verses, err := l.AvailableVerses(ctx, r.Book, r.Chapter, r.Parasha)
	if err != nil {
		return err
	}
	return g.printJSON(verses)
}

// wordInfo is the output of the word command.
type wordInfo struct {
	Word         string              `json:"word"`
	Normalized   string              `json:"normalized"`
	Entry        *torah.LexiconEntry `json:"entry,omitempty"`
	Translations []torah.Translation `json:"translations"`
}

// WordCmd looks a word up in the lexicon.
type WordCmd struct {
	Hebrew string `arg:"" help:"Hebrew word, with or without vowel points"`
}

func (c *WordCmd) Run(ctx context.Context, g *Globals) error {
	l, release, err := g.loader(ctx)
	if err != nil {
		return err
	}
	defer release()

	info := wordInfo{Word: c.Hebrew, Normalized: lexicon.Normalize(c.Hebrew)}
	entry, err := l.SearchWord(ctx, c.Hebrew)
	switch {
	case err == nil:
		info.Entry = entry
		info.Translations = entry.Meanings
	case errors.IsNotFound(err):
		info.Translations, err = l.WordTranslations(ctx, c.Hebrew)
		if err != nil {
			return err
		}
	default:
		return err
	}
	return g.printJSON(info)
}
