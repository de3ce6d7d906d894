package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"text/tabwriter"
	"time"

	"feed-scraper/internal/app"
	"feed-scraper/internal/config"
	"feed-scraper/internal/domain/entity"
	hauth "feed-scraper/internal/handler/http/auth"
	"feed-scraper/internal/infra/db"
	entryUC "feed-scraper/internal/usecase/entry"
	feedUC "feed-scraper/internal/usecase/feed"
	"feed-scraper/internal/usecase/scrape"
)

type cli struct {
	out      io.Writer
	logger   *slog.Logger
	cfg      *config.AppConfig
	stores   *app.Stores
	feeds    *feedUC.Service
	entries  *entryUC.Service
	engine   *scrape.Engine
	schedule scrape.SchedulerConfig
	loc      *time.Location
}

func newCLI(cfg *config.AppConfig, stores *app.Stores, out io.Writer, logger *slog.Logger) *cli {
	feeds, entries := app.Services(cfg, stores, "")
	return &cli{
		out:      out,
		logger:   logger,
		cfg:      cfg,
		stores:   stores,
		feeds:    feeds,
		entries:  entries,
		engine:   app.NewScraping(cfg, stores).Engine,
		schedule: scrape.SchedulerConfig{Parallelism: 1},
		loc:      cfg.OutputLocation(),
	}
}

func (c *cli) dispatch(ctx context.Context, args []string) error {
	cmd, rest := args[0], args[1:]
	switch cmd {
	case "import":
		return c.cmdImport(ctx, rest)
	case "list":
		return c.cmdList(ctx, rest)
	case "scrape":
		return c.cmdScrape(ctx, rest)
	case "check":
		return c.cmdCheck(ctx, rest)
	case "latest":
		return c.cmdLatest(ctx, rest)
	case "reset":
		return c.cmdReset(ctx, rest)
	default:
		return fmt.Errorf("%w: unknown command %q", errUsage, cmd)
	}
}

func newFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	return fs
}

func (c *cli) fmtTime(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return t.In(c.loc).Format(time.RFC3339)
}

func (c *cli) writeJSON(v any) error {
	enc := json.NewEncoder(c.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

/* ───────── import ───────── */

func (c *cli) cmdImport(ctx context.Context, args []string) error {
	fs := newFlagSet("import")
	noScrape := fs.Bool("no-scrape", false, "register only")
	if err := fs.Parse(args); err != nil || fs.NArg() != 1 {
		return errUsage
	}

	created, err := app.SeedFromFile(ctx, c.logger, c.feeds, fs.Arg(0))
	fmt.Fprintf(c.out, "registered %d feed(s)\n", len(created))
	if err != nil {
		return err
	}
	if *noScrape {
		return nil
	}
	for _, f := range created {
		res, err := c.engine.Scrape(ctx, f)
		if err != nil {
			return err
		}
		fmt.Fprintf(c.out, "  %s\n", res)
	}
	return nil
}

/* ───────── list ───────── */

type feedRow struct {
	ID         int64   `json:"id"`
	Name       string  `json:"name"`
	URL        string  `json:"url"`
	IsValid    bool    `json:"is_valid"`
	LastScrape *string `json:"last_scrape"`
}

func (c *cli) cmdList(ctx context.Context, args []string) error {
	fs := newFlagSet("list")
	asJSON := fs.Bool("json", false, "JSON output")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}

	feeds, err := c.feeds.List(ctx)
	if err != nil {
		return err
	}
	if *asJSON {
		rows := make([]feedRow, 0, len(feeds))
		for _, f := range feeds {
			r := feedRow{ID: f.ID, Name: f.Name, URL: f.URL, IsValid: f.IsValid}
			if f.LastScrape != nil {
				s := c.fmtTime(f.LastScrape)
				r.LastScrape = &s
			}
			rows = append(rows, r)
		}
		return c.writeJSON(rows)
	}

	tw := tabwriter.NewWriter(c.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tVALID\tLAST SCRAPE\tURL")
	for _, f := range feeds {
		fmt.Fprintf(tw, "%d\t%s\t%t\t%s\t%s\n", f.ID, f.Name, f.IsValid, c.fmtTime(f.LastScrape), f.URL)
	}
	return tw.Flush()
}

/* ───────── scrape ───────── */

func (c *cli) cmdScrape(ctx context.Context, args []string) error {
	fs := newFlagSet("scrape")
	id := fs.Int64("feed", 0, "feed ID; omit to scrape every feed")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}

	if *id != 0 {
		f, err := c.feeds.Load(ctx, *id)
		if err != nil {
			return err
		}
		res, err := c.engine.Scrape(ctx, f)
		if err != nil {
			return err
		}
		fmt.Fprintln(c.out, res)
		return nil
	}

	stats, err := scrape.NewScheduler(c.stores.Feeds, c.engine, c.schedule).RunCycle(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.out, "%d feed(s): %d ok, %d failed (%d fetch, %d parse), %d error(s); %d new, %d skipped, %d duplicate in %s\n",
		stats.Feeds, stats.Succeeded, stats.Failed, stats.FetchFailures, stats.ParseFailures, stats.Errors,
		stats.NewEntries, stats.Skipped, stats.Duplicates, stats.Duration.Round(time.Millisecond))
	if stats.Aborted {
		return errors.New("cycle aborted before every feed was scraped")
	}
	return nil
}

/* ───────── check ───────── */

type checkRow struct {
	FeedID       int64    `json:"feed_id,omitempty"`
	URL          string   `json:"url"`
	OK           bool     `json:"ok"`
	Error        string   `json:"error,omitempty"`
	Title        string   `json:"title,omitempty"`
	Items        int      `json:"items"`
	ValidDates   int      `json:"valid_dates"`
	InvalidDates []string `json:"invalid_dates,omitempty"`
	Newest       string   `json:"newest,omitempty"`
	Oldest       string   `json:"oldest,omitempty"`
	Bytes        int      `json:"bytes"`
}

func (c *cli) check(ctx context.Context, feedID int64, url string) checkRow {
	row := checkRow{FeedID: feedID, URL: url}
	rep, err := c.engine.Check(ctx, url)
	if err != nil {
		row.Error = err.Error()
		return row
	}
	row.OK = true
	row.Title, row.Items, row.Bytes = rep.Title, rep.Items, rep.Bytes
	row.ValidDates, row.InvalidDates = rep.ValidDates, rep.InvalidDates
	if rep.Newest != nil {
		row.Newest = c.fmtTime(rep.Newest)
	}
	if rep.Oldest != nil {
		row.Oldest = c.fmtTime(rep.Oldest)
	}
	return row
}

func (c *cli) cmdCheck(ctx context.Context, args []string) error {
	fs := newFlagSet("check")
	all := fs.Bool("all", false, "check every registered feed")
	asJSON := fs.Bool("json", false, "JSON output")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}

	var rows []checkRow
	switch {
	case *all && fs.NArg() == 0:
		feeds, err := c.feeds.List(ctx)
		if err != nil {
			return err
		}
		for _, f := range feeds {
			rows = append(rows, c.check(ctx, f.ID, f.URL))
		}
	case !*all && fs.NArg() == 1:
		if err := entity.ValidateURL(fs.Arg(0)); err != nil {
			return err
		}
		rows = append(rows, c.check(ctx, 0, fs.Arg(0)))
	default:
		return errUsage
	}

	failed := 0
	for _, r := range rows {
		if !r.OK {
			failed++
		}
	}
	if *asJSON {
		if err := c.writeJSON(rows); err != nil {
			return err
		}
		return checkFailures(failed, len(rows))
	}

	for _, r := range rows {
		if !r.OK {
			fmt.Fprintf(c.out, "FAIL %s: %s\n", r.URL, r.Error)
			continue
		}
		fmt.Fprintf(c.out, "OK   %s: %q, %d item(s), %d dated, %d bad date(s), newest %s\n",
			r.URL, r.Title, r.Items, r.ValidDates, len(r.InvalidDates), orDash(r.Newest))
		for _, d := range r.InvalidDates {
			fmt.Fprintf(c.out, "       unparsable pubDate %q\n", d)
		}
	}
	return checkFailures(failed, len(rows))
}

// checkFailures makes any failed check a non-zero exit in both output modes.
func checkFailures(failed, total int) error {
	if failed > 0 {
		return fmt.Errorf("%d of %d feed(s) failed", failed, total)
	}
	return nil
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

/* ───────── latest ───────── */

func (c *cli) cmdLatest(ctx context.Context, args []string) error {
	fs := newFlagSet("latest")
	amount := fs.Int("amount", 0, "number of entries (default LATEST_ENTRIES_DEFAULT)")
	if err := fs.Parse(args); err != nil || *amount < 0 {
		return errUsage
	}

	list, err := c.entries.Latest(ctx, *amount)
	if err != nil {
		return err
	}
	for _, ef := range list {
		e := ef.Entry
		fmt.Fprintf(c.out, "%s  [%s] %s\n    %s\n", c.fmtTime(&e.PublishedAt), ef.FeedName, e.Title, e.SourceURL)
	}
	return nil
}

/* ───────── reset ───────── */

func (c *cli) cmdReset(ctx context.Context, args []string) error {
	fs := newFlagSet("reset")
	withFeeds := fs.Bool("feeds", false, "also delete every feed")
	schema := fs.Bool("schema", false, "drop and recreate all tables")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}

	if *schema {
		if err := db.MigrateDown(c.stores.DB.DB); err != nil {
			return err
		}
		if err := db.MigrateUp(c.stores.DB.DB, c.stores.Dialect); err != nil {
			return err
		}
		fmt.Fprintln(c.out, "schema recreated")
		return nil
	}

	n, err := c.entries.Reset(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.out, "deleted %d entr(y/ies)\n", n)
	if !*withFeeds {
		return nil
	}

	feeds, err := c.feeds.List(ctx)
	if err != nil {
		return err
	}
	for _, f := range feeds {
		if err := c.feeds.Delete(ctx, f.ID); err != nil && !errors.Is(err, feedUC.ErrFeedNotFound) {
			return err
		}
	}
	fmt.Fprintf(c.out, "deleted %d feed(s)\n", len(feeds))
	return nil
}

/* ───────── token ───────── */

func cmdToken(out io.Writer, cfg *config.AppConfig, args []string) error {
	fs := newFlagSet("token")
	sub := fs.String("sub", "feedctl", "token subject")
	ttl := fs.Duration("ttl", 24*time.Hour, "token lifetime")
	role := fs.String("role", hauth.RoleAdmin, "role claim")
	if err := fs.Parse(args); err != nil || *ttl <= 0 {
		return errUsage
	}
	if err := cfg.API.ValidateJWTSecret(); err != nil {
		return err
	}
	tok, err := hauth.IssueToken([]byte(cfg.API.JWTSecret), *sub, *role, *ttl, time.Now())
	if err != nil {
		return err
	}
	fmt.Fprintln(out, tok)
	return nil
}
