// Package validate checks a local data tree offline and produces a report of
// errors and warnings. Validation never stops at the first problem.
package validate

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/FocuswithJustin/JuniperTorah/core/resolve"
	"github.com/FocuswithJustin/JuniperTorah/core/torah"
	"github.com/FocuswithJustin/JuniperTorah/internal/fetch"
	"github.com/FocuswithJustin/JuniperTorah/internal/logging"
)

// ReportVersion is the report format version.
const ReportVersion = "1.0.0"

// Placeholder marks content that still has to be filled in.
const Placeholder = "[ТРЕБУЕТСЯ_ЗАПОЛНЕНИЕ]"

// placeholderPrefix matches any placeholder variant inside commentary text.
const placeholderPrefix = "[ТРЕБУЕТСЯ"

// Finding levels.
const (
	LevelError   = "error"
	LevelWarning = "warning"
)

// requiredCommentators must have a non-placeholder commentary on every verse.
var requiredCommentators = []string{"rashi", "ramban", "ibn_ezra"}

var verseFilePattern = regexp.MustCompile(`^([a-z][a-z0-9_-]*)-(\d{3})-(\d{3})\.json$`)

// Finding is one error or warning.
type Finding struct {
	Level     string    `json:"level" yaml:"level"`
	Message   string    `json:"message" yaml:"message"`
	File      string    `json:"file,omitempty" yaml:"file,omitempty"`
	Timestamp time.Time `json:"timestamp" yaml:"timestamp"`
}

// Stats counts what was checked.
type Stats struct {
	Books               int `json:"books" yaml:"books"`
	Chapters            int `json:"chapters" yaml:"chapters"`
	Verses              int `json:"verses" yaml:"verses"`
	VerseFiles          int `json:"verseFiles" yaml:"verseFiles"`
	Words               int `json:"words" yaml:"words"`
	EmptyVerses         int `json:"emptyVerses" yaml:"emptyVerses"`
	MissingTranslations int `json:"missingTranslations" yaml:"missingTranslations"`
	MissingCommentaries int `json:"missingCommentaries" yaml:"missingCommentaries"`
	Commentators        int `json:"commentators" yaml:"commentators"`
	LexiconWords        int `json:"lexiconWords" yaml:"lexiconWords"`
}

// Report is the outcome of a validation run.
type Report struct {
	ID             string    `json:"id" yaml:"id"`
	Version        string    `json:"version" yaml:"version"`
	DataDir        string    `json:"dataDir" yaml:"dataDir"`
	GeneratedAt    time.Time `json:"generatedAt" yaml:"generatedAt"`
	Success        bool      `json:"success" yaml:"success"`
	Errors         []Finding `json:"errors" yaml:"errors"`
	Warnings       []Finding `json:"warnings" yaml:"warnings"`
	Stats          Stats     `json:"stats" yaml:"stats"`
	CompletionRate float64   `json:"completionRate" yaml:"completionRate"`
}

// ExitCode returns 0 for a report without errors and 1 otherwise.
func (r *Report) ExitCode() int {
	if r.Success {
		return 0
	}
	return 1
}

// Validator walks one data tree.
type Validator struct {
	root     string
	now      func() time.Time
	report   *Report
	parashas torah.Parashas
}

// New creates a validator for the data tree at root.
func New(root string) *Validator {
	return &Validator{root: root, now: time.Now}
}

// Run validates the whole tree. The returned report is complete even when
// ctx is canceled part way; the cancellation is recorded as an error.
func (v *Validator) Run(ctx context.Context) *Report {
	v.report = &Report{
		ID:          uuid.New().String(),
		Version:     ReportVersion,
		DataDir:     v.root,
		GeneratedAt: v.now().UTC(),
		Errors:      []Finding{},
		Warnings:    []Finding{},
	}
	logging.Info("validation_started", "data_dir", v.root, "report_id", v.report.ID)

	v.loadParashas()
	if books := v.validateBooksIndex(); books != nil {
		for _, book := range books {
			if err := ctx.Err(); err != nil {
				v.log(LevelError, fmt.Sprintf("validation interrupted: %v", err), "")
				break
			}
			v.validateBook(book)
		}
	} else {
		v.log(LevelError, "books index could not be loaded", "")
	}
	v.validateCommentators()
	v.validateLexicon()

	r := v.report
	r.Success = len(r.Errors) == 0
	if r.Stats.Verses > 0 {
		rate := float64(r.Stats.Verses-r.Stats.EmptyVerses) / float64(r.Stats.Verses) * 100
		r.CompletionRate = math.Round(rate*10) / 10
	}
	logging.Info("validation_finished",
		"report_id", r.ID,
		"errors", len(r.Errors),
		"warnings", len(r.Warnings),
		"completion_rate", r.CompletionRate,
	)
	return r
}

func (v *Validator) log(level, message, file string) {
	f := Finding{Level: level, Message: message, File: file, Timestamp: v.now().UTC()}
	if level == LevelError {
		v.report.Errors = append(v.report.Errors, f)
	} else {
		v.report.Warnings = append(v.report.Warnings, f)
	}
	logging.ValidationFinding(level, message, file)
}

// readJSON decodes rel into out. Missing files and malformed JSON are
// recorded as errors when what is non-empty.
func (v *Validator) readJSON(rel, what string, out any) bool {
	data, err := os.ReadFile(filepath.Join(v.root, filepath.FromSlash(rel)))
	if err != nil {
		if what != "" {
			if os.IsNotExist(err) {
				v.log(LevelError, "missing "+what, rel)
			} else {
				v.log(LevelError, fmt.Sprintf("cannot read %s: %v", what, err), rel)
			}
		}
		return false
	}
	if err := json.Unmarshal(data, out); err != nil {
		v.log(LevelError, fmt.Sprintf("invalid JSON: %v", err), rel)
		return false
	}
	return true
}

func (v *Validator) exists(rel string) bool {
	_, err := os.Stat(filepath.Join(v.root, filepath.FromSlash(rel)))
	return err == nil
}

// loadParashas reads the parasha list used to locate chapter files. Without
// it only the legacy layout is checked.
func (v *Validator) loadParashas() {
	rel, _ := fetch.ResourcePath(fetch.KindParashas)
	var ps torah.Parashas
	if !v.exists(rel) {
		v.log(LevelWarning, "parasha index missing, checking legacy chapter layout only", rel)
		return
	}
	if v.readJSON(rel, "parasha index", &ps) {
		v.parashas = ps
	}
}

// truthy mirrors the presence test used by the data tooling: missing, null,
// empty string, zero and false all count as absent.
func truthy(obj map[string]any, field string) bool {
	switch val := obj[field].(type) {
	case nil:
		return false
	case string:
		return val != ""
	case float64:
		return val != 0
	case bool:
		return val
	default:
		return true
	}
}

func stringField(obj map[string]any, field string) string {
	s, _ := obj[field].(string)
	return s
}

func (v *Validator) requireFields(obj map[string]any, fields []string, where, rel string) {
	for _, field := range fields {
		if !truthy(obj, field) {
			v.log(LevelError, fmt.Sprintf("missing field %s in %s", field, where), rel)
		}
	}
}

func (v *Validator) validateBooksIndex() []string {
	rel, _ := fetch.ResourcePath(fetch.KindBooks)
	var index map[string]any
	if !v.readJSON(rel, "books index", &index) {
		return nil
	}
	books, ok := index["books"].([]any)
	if !ok {
		v.log(LevelError, "books index has no books array", rel)
		return nil
	}

	v.report.Stats.Books = len(books)
	var ids []string
	for _, item := range books {
		book, _ := item.(map[string]any)
		id := stringField(book, "id")
		name := id
		if name == "" {
			name = "unknown"
		}
		v.requireFields(book, []string{"id", "english", "hebrew", "russian", "chapters", "totalVerses"}, "book "+name, rel)
		if id != "" {
			ids = append(ids, id)
		}
	}
	logging.Debug("books index validated", "books", len(books))
	return ids
}

func (v *Validator) validateBook(book string) {
	rel, err := fetch.ResourcePath(fetch.KindBook, book)
	if err != nil {
		v.log(LevelError, err.Error(), "")
		return
	}
	var md map[string]any
	if !v.readJSON(rel, "metadata of "+book, &md) {
		return
	}
	v.requireFields(md, []string{"book", "english", "hebrew", "russian", "totalChapters", "availableChapters"}, "book metadata", rel)

	if list, ok := md["availableChapters"].([]any); ok {
		for _, item := range list {
			n, ok := item.(float64)
			if !ok || n < 1 || n != math.Trunc(n) {
				v.log(LevelError, fmt.Sprintf("invalid chapter number %v in availableChapters", item), rel)
				continue
			}
			v.validateChapter(book, int(n))
		}
	}
	v.validateVerseFiles(book)
}

// chapterFiles lists the existing files of one chapter: one per owning
// parasha directory, plus the legacy book-level file.
func (v *Validator) chapterFiles(book string, chapter int) []string {
	var out []string
	for _, p := range resolve.Candidates(v.parashas[book], chapter) {
		rel, _ := fetch.ChapterResource(book, p.ID, chapter).Path()
		if v.exists(rel) {
			out = append(out, rel)
		}
	}
	rel, _ := fetch.ChapterResource(book, "", chapter).Path()
	if v.exists(rel) {
		out = append(out, rel)
	}
	return out
}

func (v *Validator) validateChapter(book string, chapter int) {
	files := v.chapterFiles(book, chapter)
	if len(files) == 0 {
		v.log(LevelError, fmt.Sprintf("missing chapter file for %s chapter %d", book, chapter), book+"/"+torah.ChapterFileName(chapter))
		return
	}
	for _, rel := range files {
		v.validateChapterFile(rel)
	}
}

func (v *Validator) validateChapterFile(rel string) {
	var doc map[string]any
	if !v.readJSON(rel, "chapter file", &doc) {
		return
	}
	v.report.Stats.Chapters++

	verses, ok := doc["verses"].([]any)
	if !ok {
		v.log(LevelError, "chapter has no verses array", rel)
		return
	}
	for _, item := range verses {
		verse, _ := item.(map[string]any)
		v.validateVerse(verse, rel)
	}
}

func verseLabel(verse map[string]any) string {
	if n, ok := verse["number"].(float64); ok {
		return strconv.FormatFloat(n, 'f', -1, 64)
	}
	return "?"
}

func (v *Validator) validateVerse(verse map[string]any, rel string) {
	st := &v.report.Stats
	st.Verses++
	label := verseLabel(verse)

	if !truthy(verse, "number") {
		v.log(LevelError, "verse without number", rel)
	}
	if _, ok := verse["hebrew"].([]any); !ok {
		v.log(LevelError, "missing hebrew text in verse "+label, rel)
	}
	if !truthy(verse, "russian") {
		v.log(LevelWarning, "missing russian translation in verse "+label, rel)
		st.MissingTranslations++
	}

	if words, ok := verse["words"].([]any); !ok {
		v.log(LevelWarning, "missing word analysis in verse "+label, rel)
	} else if v.validateWords(words, label, rel) {
		st.EmptyVerses++
	}

	commentaries, ok := verse["commentaries"].(map[string]any)
	if !ok {
		v.log(LevelWarning, "missing commentaries in verse "+label, rel)
		st.MissingCommentaries++
		return
	}
	for _, id := range requiredCommentators {
		text := stringField(commentaries, id)
		if text == "" || strings.Contains(text, placeholderPrefix) {
			v.log(LevelWarning, fmt.Sprintf("missing %s commentary in verse %s", id, label), rel)
		}
	}
}

// validateWords checks the word analysis of one verse and reports whether
// any word is still a placeholder.
func (v *Validator) validateWords(words []any, label, rel string) bool {
	st := &v.report.Stats
	stub := false
	for i, item := range words {
		st.Words++
		word, _ := item.(map[string]any)
		hebrew := stringField(word, "hebrew")
		if hebrew == "" {
			v.log(LevelError, fmt.Sprintf("missing hebrew word at position %d of verse %s", i+1, label), rel)
		}
		if hebrew == Placeholder {
			v.log(LevelWarning, fmt.Sprintf("word at position %d of verse %s needs filling in", i+1, label), rel)
			stub = true
		}
		if tr, ok := word["translations"].([]any); !ok || len(tr) == 0 {
			v.log(LevelWarning, fmt.Sprintf("missing translations for word %s", hebrew), rel)
		}
	}
	return stub
}

// validateVerseFiles checks every {parasha}-ccc-vvv.json below the parasha
// directories of a book.
func (v *Validator) validateVerseFiles(book string) {
	entries, err := os.ReadDir(filepath.Join(v.root, book))
	if err != nil {
		return
	}
	for _, dir := range entries {
		if !dir.IsDir() {
			continue
		}
		files, err := os.ReadDir(filepath.Join(v.root, book, dir.Name()))
		if err != nil {
			v.log(LevelError, fmt.Sprintf("cannot list parasha directory: %v", err), book+"/"+dir.Name())
			continue
		}
		names := make([]string, 0, len(files))
		for _, f := range files {
			names = append(names, f.Name())
		}
		sort.Strings(names)
		for _, name := range names {
			if m := verseFilePattern.FindStringSubmatch(name); m != nil {
				v.validateVerseFile(book, dir.Name(), name, m)
			}
		}
	}
}

func (v *Validator) validateVerseFile(book, parasha, name string, m []string) {
	rel := book + "/" + parasha + "/" + name
	var doc map[string]any
	if !v.readJSON(rel, "verse file", &doc) {
		return
	}
	v.report.Stats.VerseFiles++

	chapter, _ := strconv.Atoi(m[2])
	verse, _ := strconv.Atoi(m[3])
	if m[1] != parasha {
		v.log(LevelError, fmt.Sprintf("verse file prefix %q does not match directory %q", m[1], parasha), rel)
	}

	num := func(field string) int {
		n, _ := doc[field].(float64)
		return int(n)
	}
	if stringField(doc, "book") != book || stringField(doc, "parasha") != parasha || num("chapter") != chapter || num("verse") != verse {
		v.log(LevelError, fmt.Sprintf("verse file coordinate %s/%s %d:%d does not match its name",
			stringField(doc, "book"), stringField(doc, "parasha"), num("chapter"), num("verse")), rel)
	}

	if words, ok := doc["words"].([]any); !ok {
		v.log(LevelError, "verse file has no words array", rel)
	} else {
		for i, item := range words {
			word, _ := item.(map[string]any)
			if stringField(word, "hebrew") == "" {
				v.log(LevelError, fmt.Sprintf("missing hebrew word at position %d", i+1), rel)
			}
		}
	}
}

func (v *Validator) validateCommentators() {
	rel, _ := fetch.ResourcePath(fetch.KindCommentators)
	var index map[string]any
	if !v.readJSON(rel, "commentators index", &index) {
		return
	}
	list, ok := index["commentators"].([]any)
	if !ok {
		v.log(LevelError, "commentators index has no commentators array", rel)
		return
	}
	v.report.Stats.Commentators = len(list)
	for _, item := range list {
		c, _ := item.(map[string]any)
		name := stringField(c, "id")
		if name == "" {
			name = "unknown"
		}
		v.requireFields(c, []string{"id", "name", "hebrewName", "fullName", "years", "description"}, "commentator "+name, rel)
	}
}

func (v *Validator) validateLexicon() {
	current, _ := fetch.ResourcePath(fetch.KindLexicon)
	legacy := fetch.LegacyLexiconPath

	var rel string
	switch {
	case v.exists(current):
		rel = current
	case v.exists(legacy):
		rel = legacy
		v.log(LevelWarning, "lexicon found at legacy location, move it to metadata/", legacy)
	default:
		v.log(LevelError, "lexicon not found in any expected location", "")
		return
	}

	var lex map[string]json.RawMessage
	if v.readJSON(rel, "lexicon", &lex) {
		v.report.Stats.LexiconWords = len(lex)
	}
}
