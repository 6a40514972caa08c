// Command torah reads, serves, validates and converts a Torah data tree.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/alecthomas/kong"

	"github.com/FocuswithJustin/JuniperTorah/internal/config"
	"github.com/FocuswithJustin/JuniperTorah/internal/fetch"
	"github.com/FocuswithJustin/JuniperTorah/internal/loader"
	"github.com/FocuswithJustin/JuniperTorah/internal/logging"
	"github.com/FocuswithJustin/JuniperTorah/internal/store"
	"github.com/FocuswithJustin/JuniperTorah/internal/store/boltstore"
	"github.com/FocuswithJustin/JuniperTorah/internal/store/sqlitestore"
)

const version = "0.4.0"

// Globals are flags shared by every command.
type Globals struct {
	Config       string `name:"config" short:"c" help:"Config file (default: ./torah.jsonc if present)" type:"path"`
	DataRoot     string `name:"data-root" short:"d" help:"Data tree: a directory or an http(s) URL" env:"TORAH_DATA_ROOT"`
	BasePath     string `name:"base-path" help:"Deployment prefix joined with an http(s) data root, e.g. /torah-v2/"`
	CacheDir     string `name:"cache-dir" help:"Persistent cache directory" type:"path" env:"TORAH_CACHE_DIR"`
	CacheBackend string `name:"cache-backend" help:"Persistent cache backend (sqlite, bolt, memory)"`
	LogLevel     string `name:"log-level" help:"Log level (debug, info, warn, error)"`
	LogFormat    string `name:"log-format" help:"Log format (json, text)"`

	out io.Writer
	cfg *config.Config
}

// CLI defines the command-line interface for torah.
type CLI struct {
	Globals

	Verse    VerseCmd    `cmd:"" help:"Load one verse"`
	Chapter  ChapterCmd  `cmd:"" help:"Load a chapter file"`
	Parasha  ParashaCmd  `cmd:"" help:"Show the parasha owning a position"`
	Verses   VersesCmd   `cmd:"" help:"List the verses of a chapter available for navigation"`
	Word     WordCmd     `cmd:"" help:"Look a word up in the lexicon"`
	Cache    CacheGroup  `cmd:"" help:"Cache operations"`
	Validate ValidateCmd `cmd:"" help:"Validate a local data tree"`
	Convert  ConvertCmd  `cmd:"" help:"Split chapter files of a book into verse files"`
	Serve    ServeCmd    `cmd:"" help:"Serve the data tree and the reader API"`
	Browse   BrowseCmd   `cmd:"" help:"Interactive reader"`
	Version  VersionCmd  `cmd:"" help:"Print version information"`
}

// CacheGroup contains cache operations.
type CacheGroup struct {
	Clear CacheClearCmd `cmd:"" help:"Empty the memo and the persistent cache"`
	Stats CacheStatsCmd `cmd:"" help:"Show cache statistics"`
}

// config loads the configuration once and applies the global flags.
func (g *Globals) config() (*config.Config, error) {
	if g.cfg != nil {
		return g.cfg, nil
	}
	wd, err := os.Getwd()
	if err != nil {
		return nil, err
	}
	cfg, file, err := config.Load(wd, g.Config)
	if err != nil {
		return nil, err
	}
	cfg.Apply(config.Overrides{
		DataRoot:     g.DataRoot,
		BasePath:     g.BasePath,
		CacheDir:     g.CacheDir,
		CacheBackend: g.CacheBackend,
		LogLevel:     g.LogLevel,
		LogFormat:    g.LogFormat,
	})
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	level, err := logging.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	format, err := logging.ParseFormat(cfg.LogFormat)
	if err != nil {
		return nil, err
	}
	logging.InitLogger(level, format)
	if file != "" {
		logging.Debug("config loaded", "file", file)
	}

	g.cfg = &cfg
	return g.cfg, nil
}

// openStore opens the configured persistent cache backend.
func openStore(ctx context.Context, cfg *config.Config) (store.Store, error) {
	switch cfg.CacheBackend {
	case config.BackendMemory:
		return store.NewMemory(), nil
	case config.BackendBolt:
		return boltstore.Open(cfg.CacheDir)
	default:
		return sqlitestore.Open(ctx, cfg.CacheDir)
	}
}

// fetcher builds and initializes the fetcher described by the configuration.
func (g *Globals) fetcher(ctx context.Context) (*fetch.Fetcher, error) {
	cfg, err := g.config()
	if err != nil {
		return nil, err
	}
	src, err := fetch.NewSource(cfg.DataRoot, cfg.BasePath, time.Duration(cfg.HTTPTimeout))
	if err != nil {
		return nil, err
	}
	st, err := openStore(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("open %s cache: %w", cfg.CacheBackend, err)
	}
	f := fetch.New(src, st, fetch.Options{
		SchemaVersion: cfg.SchemaVersion,
		StaleAfter:    time.Duration(cfg.StaleAfter),
		MemoSize:      cfg.MemoSize,
	})
	if err := f.Init(ctx); err != nil {
		f.Close()
		return nil, err
	}
	return f, nil
}

// loader returns a loader and a release function.
func (g *Globals) loader(ctx context.Context) (*loader.Loader, func(), error) {
	f, err := g.fetcher(ctx)
	if err != nil {
		return nil, nil, err
	}
	release := func() {
		if err := f.Close(); err != nil {
			logging.Warn("close cache", "error", err)
		}
	}
	return loader.New(f), release, nil
}

func (g *Globals) printJSON(v any) error {
	enc := json.NewEncoder(g.out)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}

func (g *Globals) printf(format string, args ...any) {
	fmt.Fprintf(g.out, format, args...)
}

// VersionCmd prints the version.
type VersionCmd struct{}

func (c *VersionCmd) Run(g *Globals) error {
	g.printf("torah version %s\n", version)
	return nil
}

func newParser(cli *CLI, out io.Writer, options ...kong.Option) (*kong.Kong, error) {
	cli.out = out
	options = append([]kong.Option{
		kong.Name("torah"),
		kong.Description("Torah reader - verses, parashot and commentaries from a JSON data tree"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{Compact: true}),
		kong.Bind(&cli.Globals),
		kong.BindTo(context.Background(), (*context.Context)(nil)),
	}, options...)
	return kong.New(cli, options...)
}

func main() {
	var cli CLI
	parser, err := newParser(&cli, os.Stdout)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	ctx, err := parser.Parse(os.Args[1:])
	parser.FatalIfErrorf(err)
	err = ctx.Run()
	ctx.FatalIfErrorf(err)
}
