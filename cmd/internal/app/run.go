package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"slices"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"homeworksync/cmd/internal/homework"
	"homeworksync/cmd/internal/report"
	"homeworksync/cmd/security/token"
)

// ErrUsage is returned for unknown commands and bad flags.
var ErrUsage = errors.New("usage")

const usage = `usage: homeworksync <command> [flags]

commands:
  serve     run the HTTP API, live feed and optional sync scheduler
  sync      fetch new homework and merge it into the record store
  render    build the HTML progress report from stored records
  session   acquire a portal session and print its metadata
`

// Run is the CLI entrypoint used by cmd/homeworksync. It returns an error
// instead of calling os.Exit so deferred cleanup always runs.
func Run(args []string) error {
	return run(args, os.Stdout, os.Stderr)
}

func run(args []string, stdout, stderr io.Writer) error {
	if len(args) == 0 || args[0] == "-h" || args[0] == "--help" || args[0] == "help" {
		_, _ = io.WriteString(stderr, usage)
		if len(args) == 0 {
			return ErrUsage
		}
		return nil
	}

	cmd, rest := args[0], args[1:]
	fs := pflag.NewFlagSet(cmd, pflag.ContinueOnError)
	fs.SetOutput(stderr)

	var (
		addr     string
		csvPath  string
		htmlOut  string
		once     bool
		interval time.Duration
	)
	switch cmd {
	case "serve":
		fs.StringVar(&addr, "addr", "", "listen address (overrides HOMEWORK_HTTP_ADDR)")
		fs.DurationVar(&interval, "sync-interval", -1, "background sync interval, 0 disables (overrides HOMEWORK_SYNC_INTERVAL)")
	case "sync":
		fs.StringVar(&csvPath, "csv", "", "CSV object path (overrides HOMEWORK_CSV_PATH)")
		fs.BoolVar(&once, "once", true, "run a single pass; with --once=false repeat every --interval")
		fs.DurationVar(&interval, "interval", 30*time.Minute, "delay between passes when --once=false")
	case "render":
		fs.StringVar(&csvPath, "csv", "", "CSV object path (overrides HOMEWORK_CSV_PATH)")
		fs.StringVar(&htmlOut, "html", "", "write the page to this local file instead of publishing it")
	case "session":
	default:
		_, _ = io.WriteString(stderr, usage)
		return fmt.Errorf("%w: unknown command %q", ErrUsage, cmd)
	}
	if err := fs.Parse(rest); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return fmt.Errorf("%w: %v", ErrUsage, err)
	}

	cfg, err := LoadConfig()
	if err != nil {
		return err
	}
	if addr != "" {
		cfg.HTTPAddr = addr
	}
	if cmd == "serve" && interval >= 0 {
		cfg.SyncInterval = interval
	}
	if csvPath = strings.TrimSpace(csvPath); csvPath != "" {
		cfg.CSVPath = csvPath
	}
	log := NewLogger(cfg.LogLevel, cfg.LogFormat)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	a, err := New(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := a.Close(closeCtx); err != nil {
			log.Warn("app.close.fail", "err", err)
		}
	}()

	switch cmd {
	case "serve":
		return a.Serve(ctx)
	case "sync":
		if once {
			return a.syncOnce(ctx, stdout)
		}
		if interval <= 0 {
			return fmt.Errorf("%w: --interval must be positive", ErrUsage)
		}
		a.schedule(ctx, interval)
		return nil
	case "render":
		return a.render(ctx, stdout, htmlOut)
	default:
		return a.printSession(ctx, stdout)
	}
}

func (a *App) syncOnce(ctx context.Context, out io.Writer) error {
	res, err := a.Sync(ctx)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(out, "run %s: %d new, %d total, saved=%t (%s)\n",
		res.RunID, res.NewItems, res.TotalItems, res.Saved, res.Duration.Round(time.Millisecond))
	return err
}

// render builds the report from the record store, writing the records back
// first when they are not in due-date order. With an output path the page is
// written locally; otherwise it is published to the blob store.
func (a *App) render(ctx context.Context, out io.Writer, htmlOut string) error {
	snap, err := a.records.Load(ctx)
	if err != nil {
		return err
	}
	if len(snap.Records) == 0 {
		return homework.ErrNotFound
	}

	now := time.Now()
	sorted := slices.Clone(snap.Records)
	homework.SortByDueDesc(sorted)
	if !slices.Equal(sorted, snap.Records) {
		snap.Records = sorted
		if err := a.records.Save(ctx, snap, "Sort homework by due date - "+now.Format(homework.CommitTimeLayout)); err != nil {
			return fmt.Errorf("save sorted records: %w", err)
		}
		a.log.Info("render.records.sorted", "records", len(sorted))
	}

	page, err := report.HTML(report.Build(snap.Records, now, report.Options{
		Title: a.apiCfg.ReportTitle,
		Owner: a.apiCfg.ReportOwner,
	}))
	if err != nil {
		return err
	}

	if htmlOut != "" {
		if err := os.WriteFile(htmlOut, page, 0o644); err != nil {
			return err
		}
		_, err = fmt.Fprintf(out, "wrote %s (%d records)\n", htmlOut, len(snap.Records))
		return err
	}

	url, err := report.Publish(ctx, a.blobs, a.apiCfg.HTMLPath, page,
		"Generate HTML report - "+now.Format(homework.CommitTimeLayout))
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(out, "published %s (%d records)\n", url, len(snap.Records))
	return err
}

// printSession never prints the identifier itself, only its fingerprint.
func (a *App) printSession(ctx context.Context, out io.Writer) error {
	sess, err := a.sessions.Get(ctx)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(out, "origin=%s expires_at=%s fingerprint=%s\n",
		sess.Origin, sess.ExpiresAt.Format(time.RFC3339), token.Fingerprint(sess.ID))
	return err
}
