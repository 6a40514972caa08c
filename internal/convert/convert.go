// Package convert splits legacy chapter files into per-verse files named
// {parasha}-{ccc}-{vvv}.json.
package convert

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"time"

	"github.com/natefinch/atomic"

	"github.com/FocuswithJustin/JuniperTorah/core/errors"
	"github.com/FocuswithJustin/JuniperTorah/core/torah"
	"github.com/FocuswithJustin/JuniperTorah/internal/logging"
	"github.com/FocuswithJustin/JuniperTorah/internal/validation"
)

// DataVersion is written into every converted verse file.
const DataVersion = "3.0.0"

// Completeness values.
const (
	Complete = "complete"
	Partial  = "partial"
	Basic    = "basic"
	PaRDeS   = "pardes"
)

var chapterFilePattern = regexp.MustCompile(`^chapter-(\d+)\.json$`)

// Options configures a Converter.
type Options struct {
	// DryRun reports what would be written without touching the tree.
	DryRun bool

	// NoBackup skips the backup-chapter-ccc.json copy.
	NoBackup bool

	// Now stamps lastUpdated. Defaults to time.Now.
	Now func() time.Time
}

// Problem is a file that could not be converted.
type Problem struct {
	File    string `json:"file"`
	Message string `json:"message"`
}

// Result summarizes a conversion run.
type Result struct {
	Book       string    `json:"book"`
	Chapters   int       `json:"chapters"`
	VerseFiles int       `json:"verseFiles"`
	Backups    int       `json:"backups"`
	Problems   []Problem `json:"problems,omitempty"`
}

// Converter converts chapter files below one data root.
type Converter struct {
	root string
	opts Options
}

// New creates a converter for the data tree at root.
func New(root string, opts Options) *Converter {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Converter{root: root, opts: opts}
}

// ConvertBook converts every chapter file in every parasha directory of
// book. A failing chapter is recorded in the result and the run continues.
func (c *Converter) ConvertBook(ctx context.Context, book string) (*Result, error) {
	if err := validation.ValidateSlug(book); err != nil {
		return nil, &errors.ValidationError{Field: "book", Value: book, Message: err.Error(), Err: err}
	}
	bookDir := filepath.Join(c.root, book)
	entries, err := os.ReadDir(bookDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &errors.NotFoundError{Resource: "book directory", ID: bookDir, Err: err}
		}
		return nil, errors.NewIO("read", bookDir, err)
	}

	res := &Result{Book: book}
	for _, dir := range entries {
		if !dir.IsDir() {
			continue
		}
		parasha := dir.Name()
		chapters, err := c.chapters(book, parasha)
		if err != nil {
			res.Problems = append(res.Problems, Problem{File: book + "/" + parasha, Message: err.Error()})
			continue
		}
		for _, ch := range chapters {
			if err := ctx.Err(); err != nil {
				return res, err
			}
			written, err := c.ConvertChapter(ctx, book, parasha, ch)
			rel := book + "/" + parasha + "/" + torah.ChapterFileName(ch)
			if err != nil {
				logging.Warn("chapter conversion failed", "file", rel, "error", err)
				res.Problems = append(res.Problems, Problem{File: rel, Message: err.Error()})
				continue
			}
			res.Chapters++
			res.VerseFiles += written
			if !c.opts.NoBackup && !c.opts.DryRun {
				res.Backups++
			}
		}
	}
	logging.Info("conversion_finished",
		"book", book,
		"chapters", res.Chapters,
		"verse_files", res.VerseFiles,
		"problems", len(res.Problems),
		"dry_run", c.opts.DryRun,
	)
	return res, nil
}

// chapters lists the chapter numbers of a parasha directory in order.
func (c *Converter) chapters(book, parasha string) ([]int, error) {
	files, err := os.ReadDir(filepath.Join(c.root, book, parasha))
	if err != nil {
		return nil, err
	}
	var out []int
	for _, f := range files {
		m := chapterFilePattern.FindStringSubmatch(f.Name())
		if m == nil || f.IsDir() {
			continue
		}
		n, err := strconv.Atoi(m[1])
		if err != nil || n < 1 {
			continue
		}
		out = append(out, n)
	}
	sort.Ints(out)
	return out, nil
}

// ConvertChapter writes one verse file per verse of a chapter file and
// returns the number written. Verses without a number are skipped.
func (c *Converter) ConvertChapter(ctx context.Context, book, parasha string, chapter int) (int, error) {
	dir := filepath.Join(c.root, book, parasha)
	path := filepath.Join(dir, torah.ChapterFileName(chapter))
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, &errors.NotFoundError{Resource: "chapter", ID: path, Err: err}
		}
		return 0, errors.NewIO("read", path, err)
	}

	var cf torah.ChapterFile
	if err := json.Unmarshal(data, &cf); err != nil {
		return 0, &errors.ParseError{Format: "JSON", Path: path, Message: err.Error(), Err: err}
	}
	if cf.Verses == nil {
		return 0, errors.NewParse("JSON", path, "chapter has no verses array")
	}

	now := c.opts.Now().UTC()
	written := 0
	for _, v := range cf.Verses {
		if err := ctx.Err(); err != nil {
			return written, err
		}
		if v.Number < 1 {
			logging.Warn("verse without number skipped", "file", path)
			continue
		}
		vf := BuildVerseFile(&cf, book, parasha, chapter, v, now)
		name := torah.VerseFileName(parasha, chapter, v.Number)
		if err := c.write(filepath.Join(dir, name), vf); err != nil {
			return written, err
		}
		written++
		logging.Debug("verse file written", "file", name)
	}

	if !c.opts.NoBackup && !c.opts.DryRun {
		backup := filepath.Join(dir, "backup-"+torah.ChapterFileName(chapter))
		if err := atomic.WriteFile(backup, bytes.NewReader(data)); err != nil {
			return written, errors.NewIO("write", backup, err)
		}
	}
	return written, nil
}

func (c *Converter) write(path string, vf *torah.VerseFile) error {
	out, err := json.MarshalIndent(vf, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", path, err)
	}
	if c.opts.DryRun {
		return nil
	}
	if err := atomic.WriteFile(path, bytes.NewReader(append(out, '\n'))); err != nil {
		return errors.NewIO("write", path, err)
	}
	return nil
}

// BuildVerseFile converts one verse entry of a chapter file. Book, parasha
// and chapter from the file take precedence over the given defaults.
func BuildVerseFile(cf *torah.ChapterFile, book, parasha string, chapter int, v torah.Verse, now time.Time) *torah.VerseFile {
	vf := &torah.VerseFile{
		Book:         firstNonEmpty(cf.Book, book),
		Parasha:      firstNonEmpty(cf.Parasha, parasha),
		Chapter:      cf.Chapter,
		Verse:        v.Number,
		Hebrew:       v.Hebrew,
		Russian:      v.Russian,
		Words:        v.Words,
		Commentaries: v.Commentaries,
		Metadata: torah.VerseMetadata{
			LastUpdated:   now.Format(time.RFC3339),
			DataVersion:   DataVersion,
			Completeness:  Assess(v),
			ConvertedFrom: torah.ChapterFileName(chapter),
		},
	}
	if vf.Chapter == 0 {
		vf.Chapter = chapter
	}
	if vf.Hebrew == nil {
		vf.Hebrew = []string{}
	}
	if vf.Words == nil {
		vf.Words = []torah.Word{}
	}
	return vf
}

// Assess tags how complete a verse entry is.
func Assess(v torah.Verse) torah.Completeness {
	c := torah.Completeness{Words: Partial, Translations: Basic, Commentaries: Partial}
	if len(v.Words) > 0 {
		c.Words = Complete
	}
	for _, w := range v.Words {
		if w.Pardes != nil {
			c.Translations = PaRDeS
			break
		}
	}
	if len(v.Commentaries) > 0 {
		c.Commentaries = Complete
	}
	return c
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
