package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"text/tabwriter"

	"github.com/dustin/go-humanize"

	"github.com/FocuswithJustin/JuniperTorah/internal/api"
	"github.com/FocuswithJustin/JuniperTorah/internal/convert"
	"github.com/FocuswithJustin/JuniperTorah/internal/logging"
	"github.com/FocuswithJustin/JuniperTorah/internal/validate"
	"github.com/FocuswithJustin/JuniperTorah/internal/validation"
	"github.com/FocuswithJustin/JuniperTorah/internal/watch"
)

// CacheClearCmd empties the cache.
type CacheClearCmd struct{}

func (c *CacheClearCmd) Run(ctx context.Context, g *Globals) error {
	f, err := g.fetcher(ctx)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := f.Clear(ctx); err != nil {
		return err
	}
	g.printf("cache cleared\n")
	return nil
}

// CacheStatsCmd prints cache statistics.
type CacheStatsCmd struct {
	JSON bool `help:"Print raw JSON"`
}

func (c *CacheStatsCmd) Run(ctx context.Context, g *Globals) error {
	f, err := g.fetcher(ctx)
	if err != nil {
		return err
	}
	defer f.Close()

	st, err := f.Stats(ctx)
	if err != nil {
		return err
	}
	if c.JSON {
		return g.printJSON(st)
	}

	tw := tabwriter.NewWriter(g.out, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "schema version\t%s\n", st.SchemaVersion)
	fmt.Fprintf(tw, "backend\t%s\n", st.Store.Backend)
	fmt.Fprintf(tw, "entries\t%s\n", humanize.Comma(int64(st.Store.Entries)))
	fmt.Fprintf(tw, "size on disk\t%s\n", humanize.Bytes(uint64(st.Store.Bytes)))
	fmt.Fprintf(tw, "payload\t%s\n", humanize.Bytes(uint64(st.Store.RawBytes)))
	if st.Store.RawBytes > 0 {
		fmt.Fprintf(tw, "compression\t%s%%\n", humanize.FtoaWithDigits(100*float64(st.Store.Bytes)/float64(st.Store.RawBytes), 1))
	}
	return tw.Flush()
}

// ValidateCmd validates a local data tree and writes a report.
type ValidateCmd struct {
	Dir    string `arg:"" help:"Data tree root" type:"existingdir"`
	Out    string `help:"Report path (default: <dir>/metadata/validation-report.<format>)" type:"path"`
	Format string `help:"Report format" enum:"json,yaml" default:"json"`
}

func (c *ValidateCmd) Run(ctx context.Context, g *Globals) error {
	if _, err := g.config(); err != nil {
		return err
	}
	format, err := validate.ParseFormat(c.Format)
	if err != nil {
		return err
	}

	report := validate.New(c.Dir).Run(ctx)

	out := c.Out
	if out == "" {
		out = validate.DefaultReportPath(c.Dir, format)
	}
	if err := report.WriteFile(out, format); err != nil {
		return err
	}

	g.printf("Validated %s: %d errors, %d warnings, %s%% complete\n",
		c.Dir, len(report.Errors), len(report.Warnings), humanize.FtoaWithDigits(report.CompletionRate, 1))
	g.printf("Books %d, chapters %d, verses %d, verse files %d, words %s\n",
		report.Stats.Books, report.Stats.Chapters, report.Stats.Verses, report.Stats.VerseFiles,
		humanize.Comma(int64(report.Stats.Words)))
	g.printf("Report written to %s\n", out)

	if code := report.ExitCode(); code != 0 {
		return fmt.Errorf("validation failed with %d errors", len(report.Errors))
	}
	return nil
}

// ConvertCmd splits chapter files into verse files.
type ConvertCmd struct {
	Dir      string `arg:"" help:"Data tree root" type:"existingdir"`
	Book     string `required:"" help:"Book id, e.g. genesis"`
	DryRun   bool   `help:"Report what would be written without touching the tree"`
	NoBackup bool   `help:"Skip backup-chapter-NNN.json copies"`
}

func (c *ConvertCmd) Run(ctx context.Context, g *Globals) error {
	if _, err := g.config(); err != nil {
		return err
	}
	if err := validation.ValidateSlug(c.Book); err != nil {
		return err
	}

	res, err := convert.New(c.Dir, convert.Options{DryRun: c.DryRun, NoBackup: c.NoBackup}).ConvertBook(ctx, c.Book)
	if err != nil {
		return err
	}

	verb := "Converted"
	if c.DryRun {
		verb = "Would convert"
	}
	g.printf("%s %d chapters of %s into %d verse files (%d backups)\n", verb, res.Chapters, res.Book, res.VerseFiles, res.Backups)
	for _, p := range res.Problems {
		g.printf("  %s: %s\n", p.File, p.Message)
	}
	if len(res.Problems) > 0 {
		return fmt.Errorf("%d chapter files could not be converted", len(res.Problems))
	}
	return nil
}

// ServeCmd serves the data tree and the reader API.
type ServeCmd struct {
	Port           int      `help:"HTTP server port" default:"8080"`
	Watch          bool     `help:"Watch a local data tree and push changes to websocket clients"`
	AllowedOrigins []string `name:"allowed-origin" help:"Allowed CORS and websocket origin (repeatable; default: all)"`
	APIKey         string   `name:"api-key" help:"Require this X-API-Key for DELETE requests" env:"TORAH_API_KEY"`
	RateLimit      int      `help:"Requests per minute per client (0 = unlimited)"`
	RateBurst      int      `help:"Rate limit burst size"`
	TLSCert        string   `name:"tls-cert" help:"TLS certificate file" type:"existingfile"`
	TLSKey         string   `name:"tls-key" help:"TLS key file" type:"existingfile"`
}

func (c *ServeCmd) Run(ctx context.Context, g *Globals) error {
	cfg, err := g.config()
	if err != nil {
		return err
	}
	if c.Watch && cfg.IsRemote() {
		return fmt.Errorf("--watch needs a local data root, got %s", cfg.DataRoot)
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	l, release, err := g.loader(ctx)
	if err != nil {
		return err
	}
	defer release()

	apiCfg := api.Config{
		Port:              c.Port,
		RateLimitRequests: c.RateLimit,
		RateLimitBurst:    c.RateBurst,
		Auth:              api.AuthConfig{Enabled: c.APIKey != "", APIKey: c.APIKey},
		TLS:               api.TLSConfig{Enabled: c.TLSCert != "", CertFile: c.TLSCert, KeyFile: c.TLSKey},
		AllowedOrigins:    c.AllowedOrigins,
	}
	if !cfg.IsRemote() {
		apiCfg.DataDir = cfg.DataRoot
	}
	srv, err := api.New(apiCfg, l, version)
	if err != nil {
		return err
	}

	if c.Watch {
		w, err := watch.New(cfg.DataRoot, l.Fetcher(), srv.Hub())
		if err != nil {
			return err
		}
		defer w.Close()
		if err := w.Start(ctx); err != nil {
			return err
		}
	}

	err = srv.ListenAndServe(ctx)
	logging.Info("serve finished", "error", err)
	return err
}
