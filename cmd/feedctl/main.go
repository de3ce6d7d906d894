// Command feedctl administers the feed store from the command line.
//
//	feedctl import feeds.yaml         register the listed feeds and scrape the new ones
//	feedctl list [-json]              show every feed
//	feedctl scrape [-feed ID]         scrape one feed, or run one full cycle
//	feedctl check URL | -all [-json]  fetch and parse without storing anything
//	feedctl latest [-amount N]        show the newest entries
//	feedctl reset [-feeds] [-schema]  delete entries (and feeds, or the whole schema)
//	feedctl token [-sub NAME] [-ttl 24h] [-role admin]
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"feed-scraper/internal/app"
	"feed-scraper/internal/config"
	"feed-scraper/internal/observability/logging"
	envcfg "feed-scraper/pkg/config"
)

const usage = `usage: feedctl <command> [flags]

commands:
  import <file.yaml>   register feeds from a YAML list and scrape the new ones
  list                 list feeds
  scrape               scrape one feed (-feed ID) or run a full cycle
  check                dry-run fetch+parse of a URL, or of every feed with -all
  latest               print the newest entries (-amount N)
  reset                delete all entries (-feeds also deletes feeds, -schema recreates tables)
  token                issue an admin JWT signed with JWT_SECRET
`

var errUsage = errors.New("invalid usage")

func main() {
	// 標準出力はコマンド結果用。ログは stderr に出す
	logger := logging.NewTextLogger()
	if envcfg.GetEnvBool("LOG_JSON", false) {
		logger = logging.NewLoggerTo(os.Stderr)
	}
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout, logger); err != nil {
		if errors.Is(err, errUsage) {
			fmt.Fprint(os.Stderr, usage)
			os.Exit(2)
		}
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, out io.Writer, logger *slog.Logger) error {
	if len(args) == 0 {
		return errUsage
	}
	cfg := config.Load(logger, nil)

	// token はDB不要
	if args[0] == "token" {
		return cmdToken(out, cfg, args[1:])
	}

	stores, err := app.OpenStoresFromEnv(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = stores.Close() }()

	return newCLI(cfg, stores, out, logger).dispatch(ctx, args)
}
