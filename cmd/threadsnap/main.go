// Command threadsnap extracts discussion threads and saves each one as
// reddit-thread-<id>.json.
//
//	threadsnap [flags] <url>...
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/WessleyAI/threadsnap/engine/export"
	"github.com/WessleyAI/threadsnap/engine/thread"
	"github.com/WessleyAI/threadsnap/engine/worker"
	"github.com/WessleyAI/threadsnap/pkg/config"
	"github.com/WessleyAI/threadsnap/pkg/fetch"
	"github.com/WessleyAI/threadsnap/pkg/fn"
	"github.com/WessleyAI/threadsnap/pkg/logx"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

type options struct {
	cfg    config.Config
	remote bool
	urls   []string
}

func parseArgs(args []string, stderr io.Writer) (options, error) {
	fs := flag.NewFlagSet("threadsnap", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprintln(stderr, "usage: threadsnap [flags] <url>...")
		fs.PrintDefaults()
	}
	configPath := fs.String("config", "", "YAML config file")
	outDir := fs.String("out", "", `output directory ("-" writes to stdout)`)
	natsURL := fs.String("nats", "", "NATS URL; publishes each document when set")
	subject := fs.String("subject", "", "NATS subject for published documents")
	neo4jURL := fs.String("neo4j", "", "neo4j URL; stores each document as a graph when set")
	timeout := fs.Duration("timeout", 0, "per-request HTTP timeout (0 = none)")
	workers := fs.Int("workers", 0, "concurrent extractions")
	remote := fs.Bool("remote", false, "send requests to a threadsnap-worker over NATS")
	if err := fs.Parse(args); err != nil {
		return options{}, err
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return options{}, err
	}
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "out":
			cfg.OutDir = *outDir
		case "nats":
			cfg.NATS.URL = *natsURL
		case "subject":
			cfg.NATS.Subject = *subject
		case "neo4j":
			cfg.Neo4j.URL = *neo4jURL
		case "timeout":
			cfg.Timeout = *timeout
		case "workers":
			cfg.Workers = *workers
		}
	})
	if err := cfg.Validate(); err != nil {
		return options{}, fmt.Errorf("validate config: %w", err)
	}
	if fs.NArg() == 0 {
		fs.Usage()
		return options{}, errors.New("at least one url is required")
	}
	if *remote && cfg.NATS.URL == "" {
		return options{}, errors.New("-remote requires a NATS URL")
	}
	return options{cfg: cfg, remote: *remote, urls: fs.Args()}, nil
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	opts, err := parseArgs(args, stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return thread.ExitOK
		}
		fmt.Fprintln(stderr, "threadsnap:", err)
		return thread.ExitFailure
	}
	cfg := opts.cfg
	logger := logx.New(stderr, cfg.LogLevel, cfg.LogFormat)

	var nc *nats.Conn
	if cfg.NATS.URL != "" {
		nc, err = nats.Connect(cfg.NATS.URL, nats.Name("threadsnap"))
		if err != nil {
			logger.Error("nats connect failed", "url", cfg.NATS.URL, "err", err)
			return thread.ExitFailure
		}
		defer nc.Close()
	}

	if opts.remote {
		return runRemote(ctx, worker.NewClient(nc, cfg.NATS.RequestSubject), opts.urls, cfg, logger)
	}

	savers := []thread.Saver{localSaver(cfg.OutDir, stdout)}
	if nc != nil {
		savers = append(savers, export.NewNATSSaver(nc, cfg.NATS.Subject))
		logger.Info("publishing to nats", "subject", cfg.NATS.Subject)
	}
	if cfg.Neo4j.URL != "" {
		driver, err := neo4j.NewDriverWithContext(cfg.Neo4j.URL, neo4j.BasicAuth(cfg.Neo4j.User, cfg.Neo4j.Pass, ""))
		if err != nil {
			logger.Error("neo4j driver failed", "url", cfg.Neo4j.URL, "err", err)
			return thread.ExitFailure
		}
		defer driver.Close(context.Background())
		savers = append(savers, export.NewGraphSaver(driver))
	}

	ex := thread.New(
		fetch.New(fetch.Options{Timeout: cfg.Timeout, UserAgent: cfg.UserAgent}),
		export.Multi(savers...),
		thread.WithLogger(logger),
	)
	errs := fn.ParMap(opts.urls, cfg.Workers, func(u string) error {
		_, err := ex.Run(ctx, u)
		return err
	})
	return firstExitCode(errs, thread.ExitCode)
}

func localSaver(outDir string, stdout io.Writer) thread.Saver {
	if outDir == "-" {
		return &export.WriterSaver{W: stdout}
	}
	return export.FileSaver{Dir: outDir}
}

func runRemote(ctx context.Context, c *worker.Client, urls []string, cfg config.Config, logger *slog.Logger) int {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = time.Minute
	}
	errs := fn.ParMap(urls, cfg.Workers, func(u string) error {
		rctx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()
		reply, err := c.Extract(rctx, u)
		if err != nil {
			logger.Error("remote scrape failed", "url", u, "err", err)
			return err
		}
		logger.Info("remote scrape completed", "id", reply.ID, "count", reply.TotalComments, "filename", reply.Filename)
		return nil
	})
	return firstExitCode(errs, worker.ExitCode)
}

// firstExitCode returns the first non-zero code in argument order.
func firstExitCode(errs []error, code func(error) int) int {
	for _, c := range fn.Map(errs, code) {
		if c != thread.ExitOK {
			return c
		}
	}
	return thread.ExitOK
}
