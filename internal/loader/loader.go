// Package loader turns (book, chapter, verse) coordinates into normalized
// verse records. It resolves the owning parasha, reads the per-verse file
// and falls back to the legacy chapter file when the verse file is absent.
package loader

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/FocuswithJustin/JuniperTorah/core/errors"
	"github.com/FocuswithJustin/JuniperTorah/core/resolve"
	"github.com/FocuswithJustin/JuniperTorah/core/torah"
	"github.com/FocuswithJustin/JuniperTorah/internal/fetch"
	"github.com/FocuswithJustin/JuniperTorah/internal/lexicon"
	"github.com/FocuswithJustin/JuniperTorah/internal/logging"
	"github.com/FocuswithJustin/JuniperTorah/internal/validation"
)

// Load states reported through logging.LoadState.
const (
	StateResolving   = "resolving"
	StateVerseFile   = "fetching_verse_file"
	StateChapterFile = "fallback_chapter_file"
	StateDone        = "done"
	StateNotFound    = "not_found"
)

// DefaultPreloadJobs is the default concurrency of Preload.
const DefaultPreloadJobs = 4

// Loader loads verses and chapters through a Fetcher.
type Loader struct {
	fetcher *fetch.Fetcher

	// PreloadJobs bounds the concurrency of Preload.
	PreloadJobs int
}

// New creates a Loader.
func New(f *fetch.Fetcher) *Loader {
	return &Loader{fetcher: f, PreloadJobs: DefaultPreloadJobs}
}

// Fetcher returns the underlying fetcher.
func (l *Loader) Fetcher() *fetch.Fetcher { return l.fetcher }

// ResolveParasha returns the parasha owning (chapter, verse) of book.
// A verse of 0 means none was given.
func (l *Loader) ResolveParasha(ctx context.Context, book string, chapter, verse int) (*torah.Parasha, error) {
	if err := checkPosition(book, chapter, verse); err != nil {
		return nil, err
	}
	list, err := l.fetcher.BookParashas(ctx, book)
	if err != nil {
		return nil, err
	}
	return resolve.FindParashaForChapter(book, list, chapter, verse)
}

// LoadVerse loads one verse. An empty parashaID is resolved from the
// position. A supplied id that does not own the verse is corrected once; if
// the position cannot be resolved the supplied id is used as given.
func (l *Loader) LoadVerse(ctx context.Context, book string, chapter, verse int, parashaID string) (*torah.Record, error) {
	if verse < 1 {
		return nil, &errors.ValidationError{Field: "verse", Value: fmt.Sprint(verse), Message: "verse must be at least 1"}
	}
	if parashaID != "" {
		if err := validation.ValidateSlug(parashaID); err != nil {
			return nil, &errors.ValidationError{Field: "parasha", Value: parashaID, Message: err.Error(), Err: err}
		}
	}

	logging.LoadState(ctx, StateResolving, book, chapter, verse, "parasha", parashaID)
	owner, err := l.ResolveParasha(ctx, book, chapter, verse)
	switch {
	case err == nil && parashaID == "":
		parashaID = owner.ID
	case err == nil && owner.ID != parashaID:
		logging.VerseRedirect(ctx, book, chapter, verse, parashaID, owner.ID)
		parashaID = owner.ID
	case err != nil && (parashaID == "" || !errors.IsUnresolved(err)):
		return nil, err
	case err != nil:
		logging.WarnContext(ctx, "parasha not resolved, using requested parasha",
			"book", book, "chapter", chapter, "verse", verse, "parasha", parashaID, "error", err)
	}

	logging.LoadState(ctx, StateVerseFile, book, chapter, verse, "parasha", parashaID)
	vf, verseErr := l.fetcher.VerseFile(ctx, book, parashaID, chapter, verse)
	if verseErr == nil {
		return l.finish(ctx, torah.FromVerseFile(vf), book, chapter, verse, parashaID)
	}
	if !errors.IsNotFound(verseErr) {
		return nil, verseErr
	}

	logging.LoadState(ctx, StateChapterFile, book, chapter, verse, "parasha", parashaID)
	cf, chapterErr := l.LoadChapter(ctx, book, chapter, parashaID)
	if chapterErr == nil {
		if cf.FindVerse(verse) != nil {
			return l.finish(ctx, torah.FromChapterFile(cf, verse), book, chapter, verse, parashaID)
		}
		chapterErr = errors.NewNotFound("verse entry", fmt.Sprintf("%s %d:%d", book, chapter, verse))
	} else if !errors.IsNotFound(chapterErr) {
		return nil, chapterErr
	}

	logging.LoadState(ctx, StateNotFound, book, chapter, verse, "parasha", parashaID)
	return nil, &errors.NotFoundError{
		Resource: "verse",
		ID:       fmt.Sprintf("%s %d:%d", book, chapter, verse),
		Err:      errors.Join(verseErr, chapterErr),
	}
}

func (l *Loader) finish(ctx context.Context, src torah.Source, book string, chapter, verse int, parasha string) (*torah.Record, error) {
	rec, err := src.Normalize(parasha)
	if err != nil {
		return nil, errors.NewParse("JSON", fmt.Sprintf("%s %d:%d", book, chapter, verse), err.Error())
	}
	// The resolved owner wins over whatever the document claims.
	if parasha != "" && rec.Parasha != parasha {
		logging.DebugContext(ctx, "document names another parasha",
			"book", book, "chapter", chapter, "verse", verse, "document", rec.Parasha, "parasha", parasha)
		rec.Parasha = parasha
	}
	logging.LoadState(ctx, StateDone, book, chapter, verse, "parasha", rec.Parasha, "layout", string(rec.Layout))
	return rec, nil
}

// LoadChapter loads a chapter file. An empty parashaID is resolved from the
// chapter alone; when that fails the legacy book-level file is read. A
// missing parasha-level file also falls back to the legacy file. The
// returned chapter names its parasha when one is known.
func (l *Loader) LoadChapter(ctx context.Context, book string, chapter int, parashaID string) (*torah.ChapterFile, error) {
	if err := checkPosition(book, chapter, 0); err != nil {
		return nil, err
	}
	if parashaID == "" {
		p, err := l.ResolveParasha(ctx, book, chapter, 0)
		switch {
		case err == nil:
			parashaID = p.ID
		case errors.IsUnresolved(err) || errors.IsNotFound(err):
			logging.DebugContext(ctx, "chapter parasha not resolved, reading legacy layout",
				"book", book, "chapter", chapter, "error", err)
		default:
			return nil, err
		}
	}

	var (
		cf  *torah.ChapterFile
		err error = errors.NewNotFound("chapter", "")
	)
	if parashaID != "" {
		cf, err = l.fetcher.Chapter(ctx, book, parashaID, chapter)
	}
	if errors.IsNotFound(err) {
		cf, err = l.fetcher.Chapter(ctx, book, "", chapter)
	}
	if err != nil {
		return nil, err
	}

	if cf.Parasha == "" {
		cf.Parasha = parashaID
	}
	return cf, nil
}

// PreloadResult summarizes a Preload run.
type PreloadResult struct {
	Loaded int `json:"loaded"`
	Failed int `json:"failed"`
}

// Preload loads chapters concurrently so later reads hit the cache. Failures
// are logged and counted; they never abort the run.
func (l *Loader) Preload(ctx context.Context, book string, chapters []int, parashaID string) PreloadResult {
	jobs := l.PreloadJobs
	if jobs < 1 {
		jobs = 1
	}

	var (
		wg     sync.WaitGroup
		sem    = make(chan struct{}, jobs)
		loaded atomic.Int64
		failed atomic.Int64
	)
	for _, ch := range chapters {
		wg.Add(1)
		go func(ch int) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			if _, err := l.LoadChapter(ctx, book, ch, parashaID); err != nil {
				failed.Add(1)
				logging.WarnContext(ctx, "preload failed", "book", book, "chapter", ch, "error", err)
				return
			}
			loaded.Add(1)
		}(ch)
	}
	wg.Wait()
	return PreloadResult{Loaded: int(loaded.Load()), Failed: int(failed.Load())}
}

// AvailableVerses lists the verses of a chapter for navigation. With a
// parasha it is that parasha's share of the chapter.
func (l *Loader) AvailableVerses(ctx context.Context, book string, chapter int, parashaID string) ([]int, error) {
	if err := checkPosition(book, chapter, 0); err != nil {
		return nil, err
	}
	st, err := l.fetcher.Structure(ctx)
	if err != nil {
		return nil, err
	}

	var p *torah.Parasha
	if parashaID != "" {
		list, err := l.fetcher.BookParashas(ctx, book)
		if err != nil {
			return nil, err
		}
		p = torah.Parashas{book: list}.Find(book, parashaID)
	}

	verses, ok := resolve.AvailableVerses(st, book, chapter, p)
	if !ok {
		return nil, &errors.NotFoundError{Resource: "chapter structure", ID: fmt.Sprintf("%s %d", book, chapter)}
	}
	return verses, nil
}

// AvailableChapters returns the chapters of a book that have data.
func (l *Loader) AvailableChapters(ctx context.Context, book string) ([]int, error) {
	md, err := l.fetcher.BookMetadata(ctx, book)
	if err != nil {
		return nil, err
	}
	return md.AvailableChapters, nil
}

// ChaptersForParasha returns the available chapters of a book that belong to
// the parasha.
func (l *Loader) ChaptersForParasha(ctx context.Context, book, parashaID string) ([]int, error) {
	list, err := l.fetcher.BookParashas(ctx, book)
	if err != nil {
		return nil, err
	}
	p := torah.Parashas{book: list}.Find(book, parashaID)
	if p == nil {
		return nil, &errors.NotFoundError{Resource: "parasha", ID: book + "/" + parashaID}
	}
	available, err := l.AvailableChapters(ctx, book)
	if err != nil {
		return nil, err
	}
	return resolve.ChaptersForParasha(p, available), nil
}

// SearchWord looks a Hebrew word up in the lexicon, first without vowel
// points and then as given.
func (l *Loader) SearchWord(ctx context.Context, hebrew string) (*torah.LexiconEntry, error) {
	ix, err := l.lexicon(ctx)
	if err != nil {
		return nil, err
	}
	e, ok := ix.Lookup(hebrew)
	if !ok {
		return nil, &errors.NotFoundError{Resource: "word", ID: hebrew}
	}
	return e, nil
}

// WordTranslations returns the meanings of a word. Unknown words get a
// single placeholder meaning.
func (l *Loader) WordTranslations(ctx context.Context, hebrew string) ([]torah.Translation, error) {
	ix, err := l.lexicon(ctx)
	if err != nil {
		return nil, err
	}
	return ix.Translations(hebrew), nil
}

func (l *Loader) lexicon(ctx context.Context) (*lexicon.Index, error) {
	lex, err := l.fetcher.Lexicon(ctx)
	if err != nil {
		return nil, err
	}
	return lexicon.NewIndex(lex), nil
}

func checkPosition(book string, chapter, verse int) error {
	if err := validation.ValidateSlug(book); err != nil {
		return &errors.ValidationError{Field: "book", Value: book, Message: err.Error(), Err: err}
	}
	if chapter < 1 {
		return &errors.ValidationError{Field: "chapter", Value: fmt.Sprint(chapter), Message: "chapter must be at least 1"}
	}
	if verse < 0 {
		return &errors.ValidationError{Field: "verse", Value: fmt.Sprint(verse), Message: "verse must not be negative"}
	}
	return nil
}
