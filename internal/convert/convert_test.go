package convert

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/FocuswithJustin/JuniperTorah/core/errors"
	"github.com/FocuswithJustin/JuniperTorah/core/torah"
	"github.com/FocuswithJustin/JuniperTorah/internal/fetch"
	"github.com/FocuswithJustin/JuniperTorah/internal/loader"
	"github.com/FocuswithJustin/JuniperTorah/internal/testutil"
)

var stamp = time.Date(2024, 6, 1, 8, 30, 0, 0, time.UTC)

func newConverter(t *testing.T, opts Options) (*Converter, string) {
	t.Helper()
	dir := testutil.DataDir(t)
	opts.Now = func() time.Time { return stamp }
	return New(dir, opts), dir
}

func readVerseFile(t *testing.T, path string) *torah.VerseFile {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	var vf torah.VerseFile
	if err := json.Unmarshal(data, &vf); err != nil {
		t.Fatalf("decode %s: %v", path, err)
	}
	return &vf
}

func TestConvertBook(t *testing.T) {
	c, dir := newConverter(t, Options{})

	res, err := c.ConvertBook(context.Background(), "genesis")
	if err != nil {
		t.Fatalf("ConvertBook() error = %v", err)
	}
	want := &Result{Book: "genesis", Chapters: 2, VerseFiles: 3, Backups: 2}
	if diff := cmp.Diff(want, res); diff != "" {
		t.Errorf("ConvertBook() mismatch (-want +got):\n%s", diff)
	}

	vf := readVerseFile(t, filepath.Join(dir, "genesis", "noach", "noach-006-010.json"))
	if vf.Book != "genesis" || vf.Parasha != "noach" || vf.Chapter != 6 || vf.Verse != 10 {
		t.Errorf("coordinate = %s/%s %d:%d", vf.Book, vf.Parasha, vf.Chapter, vf.Verse)
	}
	wantMeta := torah.VerseMetadata{
		LastUpdated:   "2024-06-01T08:30:00Z",
		DataVersion:   DataVersion,
		Completeness:  torah.Completeness{Words: Complete, Translations: Basic, Commentaries: Complete},
		ConvertedFrom: "chapter-006.json",
	}
	if diff := cmp.Diff(wantMeta, vf.Metadata); diff != "" {
		t.Errorf("metadata mismatch (-want +got):\n%s", diff)
	}
	if vf.Russian != "И родил Ноах" {
		t.Errorf("Russian = %q", vf.Russian)
	}

	for _, backup := range []string{"genesis/noach/backup-chapter-006.json", "genesis/beresheet/backup-chapter-006.json"} {
		if _, err := os.Stat(filepath.Join(dir, backup)); err != nil {
			t.Errorf("backup %s missing: %v", backup, err)
		}
	}
	if _, err := os.Stat(filepath.Join(dir, "genesis", "chapter-007.json")); err != nil {
		t.Error("legacy book-level chapter file should be left alone")
	}
}

func TestConvertedFilesMatchChapterFallback(t *testing.T) {
	c, dir := newConverter(t, Options{NoBackup: true})
	ctx := context.Background()

	fromChapter := loader.New(fetch.New(fetch.NewDirSource(dir), nil, fetch.Options{SchemaVersion: "1.0.0"}))
	want, err := fromChapter.LoadVerse(ctx, "genesis", 6, 10, "")
	if err != nil {
		t.Fatal(err)
	}
	if want.Layout != torah.LayoutChapterFile {
		t.Fatalf("expected chapter layout before conversion, got %s", want.Layout)
	}

	if _, err := c.ConvertBook(ctx, "genesis"); err != nil {
		t.Fatal(err)
	}

	fromVerse := loader.New(fetch.New(fetch.NewDirSource(dir), nil, fetch.Options{SchemaVersion: "1.0.0"}))
	got, err := fromVerse.LoadVerse(ctx, "genesis", 6, 10, "")
	if err != nil {
		t.Fatal(err)
	}
	if got.Layout != torah.LayoutVerseFile {
		t.Errorf("Layout = %s, want verse", got.Layout)
	}
	if diff := cmp.Diff(want.Words, got.Words); diff != "" {
		t.Errorf("words differ after conversion (-chapter +verse):\n%s", diff)
	}
	if diff := cmp.Diff(want.Commentaries, got.Commentaries); diff != "" {
		t.Errorf("commentaries differ after conversion (-chapter +verse):\n%s", diff)
	}
}

func TestConvertDryRun(t *testing.T) {
	c, dir := newConverter(t, Options{DryRun: true})

	res, err := c.ConvertBook(context.Background(), "genesis")
	if err != nil {
		t.Fatal(err)
	}
	if res.VerseFiles != 3 || res.Backups != 0 {
		t.Errorf("Result = %+v", res)
	}
	if _, err := os.Stat(filepath.Join(dir, "genesis", "noach", "noach-006-010.json")); !os.IsNotExist(err) {
		t.Errorf("dry run wrote a verse file: %v", err)
	}
}

func TestConvertReportsProblemsAndContinues(t *testing.T) {
	c, dir := newConverter(t, Options{NoBackup: true})
	testutil.WriteTree(t, dir, map[string]string{
		"genesis/lech_lecha/chapter-012.json": `{"book":"genesis","chapter":12,"verses":[`,
		"genesis/lech_lecha/chapter-013.json": `{"book":"genesis","chapter":13}`,
		"genesis/lech_lecha/chapter-014.json": `{"book":"genesis","chapter":14,"verses":[{"hebrew":["א"]},{"number":2,"hebrew":["ב"]}]}`,
	})

	res, err := c.ConvertBook(context.Background(), "genesis")
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Problems) != 2 {
		t.Fatalf("Problems = %+v", res.Problems)
	}
	if res.Problems[0].File != "genesis/lech_lecha/chapter-012.json" || res.Problems[1].File != "genesis/lech_lecha/chapter-013.json" {
		t.Errorf("Problems = %+v", res.Problems)
	}
	if res.Chapters != 3 || res.VerseFiles != 4 {
		t.Errorf("Result = %+v", res)
	}

	vf := readVerseFile(t, filepath.Join(dir, "genesis", "lech_lecha", "lech_lecha-014-002.json"))
	if vf.Parasha != "lech_lecha" || len(vf.Words) != 0 || vf.Words == nil {
		t.Errorf("verse file = %+v", vf)
	}
	if vf.Metadata.Completeness != (torah.Completeness{Words: Partial, Translations: Basic, Commentaries: Partial}) {
		t.Errorf("Completeness = %+v", vf.Metadata.Completeness)
	}
}

func TestConvertBookErrors(t *testing.T) {
	c, _ := newConverter(t, Options{})
	ctx := context.Background()

	if _, err := c.ConvertBook(ctx, "exodus"); !errors.IsNotFound(err) {
		t.Errorf("missing book error = %v", err)
	}
	var ve *errors.ValidationError
	if _, err := c.ConvertBook(ctx, "../genesis"); !errors.As(err, &ve) {
		t.Errorf("bad book error = %v", err)
	}
	if _, err := c.ConvertChapter(ctx, "genesis", "noach", 40); !errors.IsNotFound(err) {
		t.Errorf("missing chapter error = %v", err)
	}
}

func TestAssess(t *testing.T) {
	tests := []struct {
		name string
		v    torah.Verse
		want torah.Completeness
	}{
		{"empty", torah.Verse{}, torah.Completeness{Words: Partial, Translations: Basic, Commentaries: Partial}},
		{"words", torah.Verse{Words: []torah.Word{{Hebrew: "א"}}}, torah.Completeness{Words: Complete, Translations: Basic, Commentaries: Partial}},
		{"pardes", torah.Verse{Words: []torah.Word{{Hebrew: "א"}, {Hebrew: "ב", Pardes: &torah.Pardes{}}}}, torah.Completeness{Words: Complete, Translations: PaRDeS, Commentaries: Partial}},
		{"commentaries", torah.Verse{Commentaries: map[string]string{"rashi": "..."}}, torah.Completeness{Words: Partial, Translations: Basic, Commentaries: Complete}},
	}
	for _, tt := range tests {
		if got := Assess(tt.v); got != tt.want {
			t.Errorf("Assess(%s) = %+v, want %+v", tt.name, got, tt.want)
		}
	}
}
