package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/alecthomas/kong"
	"github.com/google/go-cmp/cmp"

	"github.com/FocuswithJustin/JuniperTorah/core/torah"
	"github.com/FocuswithJustin/JuniperTorah/internal/fetch"
	"github.com/FocuswithJustin/JuniperTorah/internal/lexicon"
	"github.com/FocuswithJustin/JuniperTorah/internal/loader"
	"github.com/FocuswithJustin/JuniperTorah/internal/testutil"
)

// run executes the CLI with args and returns what it printed.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var cli CLI
	var out bytes.Buffer
	parser, err := newParser(&cli, &out, kong.Exit(func(code int) {
		t.Fatalf("unexpected exit(%d)", code)
	}))
	if err != nil {
		t.Fatalf("newParser() error = %v", err)
	}
	kctx, err := parser.Parse(args)
	if err != nil {
		return out.String(), err
	}
	err = kctx.Run()
	return out.String(), err
}

// reader returns flags reading the fixture tree with an in-memory cache.
func reader(t *testing.T) []string {
	t.Helper()
	return []string{"--data-root", testutil.DataDir(t), "--cache-backend", "memory", "--log-level", "error"}
}

func TestVersion(t *testing.T) {
	out, err := run(t, "version")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, version) {
		t.Errorf("output = %q", out)
	}
}

func TestVerseCommand(t *testing.T) {
	tests := []struct {
		name        string
		args        []string
		wantParasha string
		wantLayout  torah.Layout
	}{
		{"resolved", []string{"verse", "genesis 6:9"}, "noach", torah.LayoutVerseFile},
		{"alias", []string{"verse", "gen.6.10"}, "noach", torah.LayoutChapterFile},
		{"corrected parasha", []string{"verse", "genesis 6:10", "--parasha", "beresheet"}, "noach", torah.LayoutChapterFile},
		{"pinned in reference", []string{"verse", "genesis/beresheet 6:8"}, "beresheet", torah.LayoutChapterFile},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := run(t, append(reader(t), tt.args...)...)
			if err != nil {
				t.Fatalf("verse error = %v", err)
			}
			var rec torah.Record
			if err := json.Unmarshal([]byte(out), &rec); err != nil {
				t.Fatalf("output is not a record: %v\n%s", err, out)
			}
			if rec.Parasha != tt.wantParasha || rec.Layout != tt.wantLayout {
				t.Errorf("record = %s/%s, want %s/%s", rec.Parasha, rec.Layout, tt.wantParasha, tt.wantLayout)
			}
		})
	}
}

func TestVerseCommandErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"no verse", []string{"verse", "genesis 6"}, "names no verse"},
		{"unknown book", []string{"verse", "judges 1:1"}, "unknown book"},
		{"unresolved", []string{"verse", "genesis 99:1"}, "parasha not found"},
		{"missing", []string{"verse", "genesis 7:5"}, "not found"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := run(t, append(reader(t), tt.args...)...)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error = %v, want %q", err, tt.want)
			}
		})
	}
}

func TestChapterCommand(t *testing.T) {
	out, err := run(t, append(reader(t), "chapter", "genesis 7")...)
	if err != nil {
		t.Fatal(err)
	}
	var cf torah.ChapterFile
	if err := json.Unmarshal([]byte(out), &cf); err != nil {
		t.Fatal(err)
	}
	if cf.Parasha != "noach" || cf.FindVerse(1) == nil {
		t.Errorf("chapter = %+v", cf)
	}
}

func TestParashaCommand(t *testing.T) {
	tests := []struct {
		ref       string
		wantID    string
		wantStart int
		wantEnd   int
	}{
		{"genesis 6:5", "beresheet", 1, 8},
		{"genesis 6:9", "noach", 9, 22},
	}
	for _, tt := range tests {
		t.Run(tt.ref, func(t *testing.T) {
			out, err := run(t, append(reader(t), "parasha", tt.ref)...)
			if err != nil {
				t.Fatal(err)
			}
			var info parashaInfo
			if err := json.Unmarshal([]byte(out), &info); err != nil {
				t.Fatal(err)
			}
			if info.Parasha.ID != tt.wantID || info.Range == nil || info.Range.Start != tt.wantStart || info.Range.End != tt.wantEnd {
				t.Errorf("parasha = %s %+v", info.Parasha.ID, info.Range)
			}
		})
	}
}

func TestVersesCommand(t *testing.T) {
	out, err := run(t, append(reader(t), "verses", "genesis 6", "--parasha", "beresheet")...)
	if err != nil {
		t.Fatal(err)
	}
	var verses []int
	if err := json.Unmarshal([]byte(out), &verses); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]int{1, 2, 3, 4, 5, 6, 7, 8}, verses); diff != "" {
		t.Errorf("verses mismatch (-want +got):\n%s", diff)
	}
}

func TestWordCommand(t *testing.T) {
	out, err := run(t, append(reader(t), "word", "\u05E0\u05B9\u05D7\u05B7")...)
	if err != nil {
		t.Fatal(err)
	}
	var info wordInfo
	if err := json.Unmarshal([]byte(out), &info); err != nil {
		t.Fatal(err)
	}
	if info.Normalized != "נח" || info.Entry == nil || info.Translations[0].Meaning != "Ной" {
		t.Errorf("word = %+v", info)
	}

	out, err = run(t, append(reader(t), "word", "אבג")...)
	if err != nil {
		t.Fatal(err)
	}
	info = wordInfo{}
	if err := json.Unmarshal([]byte(out), &info); err != nil {
		t.Fatal(err)
	}
	if info.Entry != nil {
		t.Errorf("unknown word has an entry: %+v", info.Entry)
	}
	if diff := cmp.Diff(lexicon.UnknownTranslations(), info.Translations); diff != "" {
		t.Errorf("placeholder mismatch (-want +got):\n%s", diff)
	}
}

func TestCacheCommandsPersist(t *testing.T) {
	for _, backend := range []string{"sqlite", "bolt"} {
		t.Run(backend, func(t *testing.T) {
			flags := []string{"--data-root", testutil.DataDir(t), "--cache-dir", t.TempDir(), "--cache-backend", backend, "--log-level", "error"}

			if _, err := run(t, append(flags, "verse", "genesis 6:9")...); err != nil {
				t.Fatal(err)
			}

			out, err := run(t, append(flags, "cache", "stats", "--json")...)
			if err != nil {
				t.Fatal(err)
			}
			var st fetch.Stats
			if err := json.Unmarshal([]byte(out), &st); err != nil {
				t.Fatal(err)
			}
			if st.Store.Entries == 0 {
				t.Errorf("no entries persisted by a previous run: %+v", st.Store)
			}

			out, err = run(t, append(flags, "cache", "stats")...)
			if err != nil || !strings.Contains(out, "entries") {
				t.Errorf("stats table = %q, err = %v", out, err)
			}

			if _, err := run(t, append(flags, "cache", "clear")...); err != nil {
				t.Fatal(err)
			}
			out, err = run(t, append(flags, "cache", "stats", "--json")...)
			if err != nil {
				t.Fatal(err)
			}
			st = fetch.Stats{}
			if err := json.Unmarshal([]byte(out), &st); err != nil {
				t.Fatal(err)
			}
			if st.Store.Entries != 0 {
				t.Errorf("entries after clear = %d", st.Store.Entries)
			}
		})
	}
}

func TestValidateCommand(t *testing.T) {
	dir := testutil.DataDir(t)
	report := filepath.Join(t.TempDir(), "report.yaml")

	out, err := run(t, "--log-level", "error", "--cache-backend", "memory", "validate", dir, "--out", report, "--format", "yaml")
	if err == nil {
		t.Fatal("fixture tree has gaps; want a validation failure")
	}
	if !strings.Contains(out, "Report written to") {
		t.Errorf("output = %q", out)
	}
	data, err := os.ReadFile(report)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "completionRate:") {
		t.Errorf("report is not YAML:\n%s", data)
	}
}

func TestConvertCommandDryRun(t *testing.T) {
	dir := testutil.DataDir(t)
	out, err := run(t, "--log-level", "error", "--cache-backend", "memory", "convert", dir, "--book", "genesis", "--dry-run")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(out, "Would convert") {
		t.Errorf("output = %q", out)
	}
	if _, err := os.Stat(filepath.Join(dir, "genesis/noach/noach-006-010.json")); !os.IsNotExist(err) {
		t.Errorf("dry run wrote a verse file: %v", err)
	}

	if _, err := run(t, "--log-level", "error", "convert", dir, "--book", "../etc"); err == nil {
		t.Error("bad book id accepted")
	}
}

func newBrowser(t *testing.T) (*browser, *bytes.Buffer) {
	t.Helper()
	f := fetch.New(fetch.NewDirSource(testutil.DataDir(t)), nil, fetch.Options{SchemaVersion: "1.0.0"})
	t.Cleanup(func() { f.Close() })
	var out bytes.Buffer
	return &browser{loader: loader.New(f), out: &out}, &out
}

func TestBrowserNavigation(t *testing.T) {
	ctx := context.Background()
	b, out := newBrowser(t)

	if err := b.exec(ctx, "genesis 6:8"); err != nil {
		t.Fatal(err)
	}
	if b.prompt() != "genesis/beresheet 6:8> " {
		t.Errorf("prompt = %q", b.prompt())
	}

	if err := b.exec(ctx, "next"); err != nil {
		t.Fatal(err)
	}
	if b.parasha != "noach" || b.verse != 9 {
		t.Errorf("after next: %s %d:%d", b.parasha, b.chapter, b.verse)
	}
	if !strings.Contains(out.String(), "genesis 6:9 (noach)") {
		t.Errorf("output = %q", out.String())
	}

	if err := b.exec(ctx, "prev"); err != nil {
		t.Fatal(err)
	}
	if b.parasha != "beresheet" || b.verse != 8 {
		t.Errorf("after prev: %s %d:%d", b.parasha, b.chapter, b.verse)
	}

	out.Reset()
	if err := b.exec(ctx, "genesis 6:10"); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.String(), "[rashi] Три сына") {
		t.Errorf("commentary missing from %q", out.String())
	}
}

func TestBrowserCommands(t *testing.T) {
	ctx := context.Background()
	b, out := newBrowser(t)

	if err := b.exec(ctx, "parasha"); err == nil {
		t.Error("parasha without a position succeeded")
	}
	if err := b.exec(ctx, "genesis 6:9"); err != nil {
		t.Fatal(err)
	}

	out.Reset()
	if err := b.exec(ctx, "parasha"); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.String(), "Noach") || !strings.Contains(out.String(), "verses 9-22") {
		t.Errorf("parasha output = %q", out.String())
	}

	out.Reset()
	if err := b.exec(ctx, "word ברא"); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.String(), "сотворил") {
		t.Errorf("word output = %q", out.String())
	}

	out.Reset()
	if err := b.exec(ctx, "cache"); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.String(), "fetches") {
		t.Errorf("cache output = %q", out.String())
	}

	if err := b.exec(ctx, "quit"); err != errQuit {
		t.Errorf("quit = %v", err)
	}
	if err := b.exec(ctx, "nonsense 1:1"); err == nil {
		t.Error("unknown book accepted")
	}
}

func TestCompleteCommand(t *testing.T) {
	got := completeCommand("ge")
	if diff := cmp.Diff([]string{"genesis "}, got); diff != "" {
		t.Errorf("completion mismatch (-want +got):\n%s", diff)
	}
	if got := completeCommand("pa"); len(got) != 1 || got[0] != "parasha" {
		t.Errorf("completeCommand(pa) = %v", got)
	}
}
