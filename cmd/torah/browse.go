package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/peterh/liner"

	"github.com/FocuswithJustin/JuniperTorah/core/errors"
	"github.com/FocuswithJustin/JuniperTorah/core/ref"
	"github.com/FocuswithJustin/JuniperTorah/core/torah"
	"github.com/FocuswithJustin/JuniperTorah/internal/loader"
)

const historyName = ".torah_history"

var browseCommands = []string{"help", "next", "prev", "parasha", "verses", "word", "cache", "quit"}

// BrowseCmd starts the interactive reader.
type BrowseCmd struct {
	Start string `arg:"" optional:"" help:"Reference to open first" default:"genesis 1:1"`
}

func (c *BrowseCmd) Run(ctx context.Context, g *Globals) error {
	l, release, err := g.loader(ctx)
	if err != nil {
		return err
	}
	defer release()

	line := liner.NewLiner()
	defer line.Close()
	line.SetCtrlCAborts(true)
	line.SetCompleter(completeCommand)

	history := historyFile()
	if f, err := os.Open(history); err == nil {
		line.ReadHistory(f)
		f.Close()
	}
	defer func() {
		if history == "" {
			return
		}
		if f, err := os.Create(history); err == nil {
			line.WriteHistory(f)
			f.Close()
		}
	}()

	b := &browser{loader: l, out: g.out}
	fmt.Fprintln(g.out, "Type a reference such as 'genesis 6:9', or 'help'.")
	if err := b.exec(ctx, c.Start); err != nil {
		fmt.Fprintln(g.out, "error:", err)
	}

	for {
		input, err := line.Prompt(b.prompt())
		if err != nil {
			if err == liner.ErrPromptAborted || err == io.EOF {
				return nil
			}
			return fmt.Errorf("reading input: %w", err)
		}
		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}
		line.AppendHistory(input)

		if err := b.exec(ctx, input); err != nil {
			if err == errQuit {
				return nil
			}
			fmt.Fprintln(b.out, "error:", err)
		}
	}
}

func historyFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, historyName)
}

func completeCommand(line string) []string {
	var out []string
	for _, c := range browseCommands {
		if strings.HasPrefix(c, strings.ToLower(line)) {
			out = append(out, c)
		}
	}
	for _, b := range ref.Books() {
		if strings.HasPrefix(b, strings.ToLower(line)) {
			out = append(out, b+" ")
		}
	}
	return out
}

var errQuit = errors.New("quit")

// browser holds the reader position between commands.
type browser struct {
	loader *loader.Loader
	out    io.Writer

	book    string
	parasha string
	chapter int
	verse   int
}

func (b *browser) prompt() string {
	if b.book == "" {
		return "torah> "
	}
	return fmt.Sprintf("%s/%s %d:%d> ", b.book, b.parasha, b.chapter, b.verse)
}

// exec runs one input line.
func (b *browser) exec(ctx context.Context, input string) error {
	fields := strings.Fields(input)
	if len(fields) == 0 {
		return nil
	}
	args := strings.Join(fields[1:], " ")

	switch strings.ToLower(fields[0]) {
	case "quit", "exit", "q":
		return errQuit
	case "help", "?":
		b.help()
		return nil
	case "next", "n":
		return b.step(ctx, 1)
	case "prev", "p":
		return b.step(ctx, -1)
	case "parasha":
		return b.showParasha(ctx)
	case "verses":
		return b.showVerses(ctx)
	case "word", "w":
		return b.showWord(ctx, args)
	case "cache":
		return b.showCache(ctx)
	}

	r, err := ref.Parse(input)
	if err != nil {
		return err
	}
	if r.Chapter == 0 {
		r.Chapter = 1
	}
	if r.Verse == 0 {
		r.Verse = 1
	}
	return b.open(ctx, r.Book, r.Chapter, r.Verse, r.Parasha)
}

func (b *browser) help() {
	fmt.Fprint(b.out, `  <reference>     open a verse, e.g. 'genesis 6:9' or 'gen 7'
  next, prev      move one verse
  parasha         show the current parasha
  verses          list the verses of the current chapter
  word <hebrew>   look a word up in the lexicon
  cache           show cache counters
  quit            leave
`)
}

func (b *browser) open(ctx context.Context, book string, chapter, verse int, parasha string) error {
	rec, err := b.loader.LoadVerse(ctx, book, chapter, verse, parasha)
	if err != nil {
		return err
	}
	b.book, b.parasha, b.chapter, b.verse = rec.Book, rec.Parasha, rec.Chapter, rec.Verse
	b.print(rec)
	return nil
}

func (b *browser) print(rec *torah.Record) {
	fmt.Fprintf(b.out, "%s %d:%d (%s)\n", rec.Book, rec.Chapter, rec.Verse, rec.Parasha)
	if len(rec.Hebrew) > 0 {
		fmt.Fprintf(b.out, "  %s\n", strings.Join(rec.Hebrew, " "))
	}
	if rec.Russian != "" {
		fmt.Fprintf(b.out, "  %s\n", rec.Russian)
	}
	for _, w := range rec.Words {
		meaning := ""
		if len(w.Translations) > 0 {
			meaning = w.Translations[0].Meaning
		}
		fmt.Fprintf(b.out, "    %-12s %-10s %s\n", w.Hebrew, w.Transliteration, meaning)
	}
	names := make([]string, 0, len(rec.Commentaries))
	for name := range rec.Commentaries {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(b.out, "  [%s] %s\n", name, rec.Commentaries[name])
	}
}

// step moves by delta verses, crossing chapter boundaries.
func (b *browser) step(ctx context.Context, delta int) error {
	if b.book == "" {
		return errors.NewValidation("position", "open a verse first")
	}
	chapter, verse := b.chapter, b.verse+delta

	if verse < 1 {
		if chapter == 1 {
			return errors.NewValidation("position", "already at the first verse")
		}
		chapter--
		verses, err := b.loader.AvailableVerses(ctx, b.book, chapter, "")
		if err != nil {
			return err
		}
		verse = verses[len(verses)-1]
		return b.open(ctx, b.book, chapter, verse, "")
	}

	verses, err := b.loader.AvailableVerses(ctx, b.book, chapter, "")
	if err != nil {
		return err
	}
	if verse > verses[len(verses)-1] {
		chapter, verse = chapter+1, 1
	}
	return b.open(ctx, b.book, chapter, verse, b.parasha)
}

func (b *browser) showParasha(ctx context.Context) error {
	if b.book == "" {
		return errors.NewValidation("position", "open a verse first")
	}
	info, err := lookupParasha(ctx, b.loader, &ref.Ref{Book: b.book, Chapter: b.chapter, Verse: b.verse})
	if err != nil {
		return err
	}
	p := info.Parasha
	fmt.Fprintf(b.out, "%d. %s (%s) %s, chapters %d-%d\n", p.Number, p.English, p.Hebrew, p.Russian, p.StartChapter, p.EndChapter)
	if info.Range != nil {
		fmt.Fprintf(b.out, "  in chapter %d: verses %d-%d\n", b.chapter, info.Range.Start, info.Range.End)
	}
	return nil
}

func (b *browser) showVerses(ctx context.Context) error {
	if b.book == "" {
		return errors.NewValidation("position", "open a verse first")
	}
	verses, err := b.loader.AvailableVerses(ctx, b.book, b.chapter, b.parasha)
	if err != nil {
		return err
	}
	fmt.Fprintf(b.out, "%s %d (%s): %d-%d\n", b.book, b.chapter, b.parasha, verses[0], verses[len(verses)-1])
	return nil
}

func (b *browser) showWord(ctx context.Context, word string) error {
	if word == "" {
		return errors.NewValidation("word", "usage: word <hebrew>")
	}
	translations, err := b.loader.WordTranslations(ctx, word)
	if err != nil {
		return err
	}
	for _, t := range translations {
		fmt.Fprintf(b.out, "  %s: %s (%s)\n", word, t.Meaning, t.Grammar)
	}
	return nil
}

func (b *browser) showCache(ctx context.Context) error {
	st, err := b.loader.Fetcher().Stats(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(b.out, "  memo %d entries, %d hits, %d misses; store %d entries; %d fetches\n",
		st.Memo.Size, st.Memo.Hits, st.Memo.Misses, st.Store.Entries, st.Fetches)
	return nil
}
