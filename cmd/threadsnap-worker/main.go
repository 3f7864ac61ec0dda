// Command threadsnap-worker serves thread extraction requests over NATS and
// exposes /healthz and /metrics over HTTP.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/WessleyAI/threadsnap/engine/export"
	"github.com/WessleyAI/threadsnap/engine/thread"
	"github.com/WessleyAI/threadsnap/engine/worker"
	"github.com/WessleyAI/threadsnap/pkg/config"
	"github.com/WessleyAI/threadsnap/pkg/fetch"
	"github.com/WessleyAI/threadsnap/pkg/logx"
	"github.com/WessleyAI/threadsnap/pkg/metrics"
	"github.com/WessleyAI/threadsnap/pkg/mid"
)

func main() {
	configPath := flag.String("config", "", "YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "threadsnap-worker:", err)
		os.Exit(1)
	}
	logger := logx.New(os.Stdout, cfg.LogLevel, cfg.LogFormat)
	slog.SetDefault(logger)

	if err := run(cfg, logger); err != nil {
		logger.Error("worker exited with error", "err", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.NATS.URL == "" {
		return errors.New("NATS_URL is required")
	}

	// --- Savers that outlive the NATS connection ---
	var graph thread.Saver
	if cfg.Neo4j.URL != "" {
		driver, err := neo4j.NewDriverWithContext(cfg.Neo4j.URL, neo4j.BasicAuth(cfg.Neo4j.User, cfg.Neo4j.Pass, ""))
		if err != nil {
			return fmt.Errorf("neo4j driver: %w", err)
		}
		defer driver.Close(context.Background())
		graph = export.NewGraphSaver(driver)
	}

	// --- Connect to NATS ---
	closed := make(chan struct{})
	nc, err := nats.Connect(cfg.NATS.URL,
		nats.Name("threadsnap-worker"),
		nats.ClosedHandler(func(*nats.Conn) { close(closed) }),
	)
	if err != nil {
		return fmt.Errorf("nats connect: %w", err)
	}
	defer func() {
		if err := drain(nc, closed, drainTimeout); err != nil {
			logger.Warn("nats drain failed", "err", err)
		}
	}()

	// Runs in flight are cancelled before the connection drains.
	runCtx, cancelRuns := context.WithCancel(ctx)
	defer cancelRuns()

	savers := []thread.Saver{export.NewNATSSaver(nc, cfg.NATS.Subject)}
	if cfg.OutDir != "-" {
		savers = append(savers, export.FileSaver{Dir: cfg.OutDir})
	}
	if graph != nil {
		savers = append(savers, graph)
	}

	// --- Metrics ---
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	recorder := metrics.NewRecorder(reg)

	ex := thread.New(
		fetch.New(fetch.Options{Timeout: cfg.Timeout, UserAgent: cfg.UserAgent}),
		export.Multi(savers...),
		thread.WithLogger(logger),
		thread.WithObserver(recorder),
	)
	err = worker.Serve(runCtx, nc, worker.Config{
		Subject:      cfg.NATS.RequestSubject,
		EventSubject: cfg.NATS.EventSubject,
		Logger:       logger,
	}, ex)
	if err != nil {
		return err
	}
	logger.Info("serving extraction requests",
		"subject", cfg.NATS.RequestSubject,
		"publish", cfg.NATS.Subject,
		"events", cfg.NATS.EventSubject,
	)

	// --- HTTP server ---
	srv := &http.Server{
		Addr:         cfg.Worker.HTTPAddr,
		Handler:      newHandler(reg, nc, logger),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// --- Graceful shutdown ---
	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server starting", "addr", cfg.Worker.HTTPAddr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	}

	shutCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutCtx)
}

const drainTimeout = 10 * time.Second

type drainer interface {
	Drain() error
}

// drain starts draining nc and waits until closed is signalled.
func drain(nc drainer, closed <-chan struct{}, timeout time.Duration) error {
	if err := nc.Drain(); err != nil {
		return err
	}
	select {
	case <-closed:
		return nil
	case <-time.After(timeout):
		return fmt.Errorf("drain did not finish within %s", timeout)
	}
}

// statusChecker reports whether the NATS connection is usable.
type statusChecker interface {
	IsConnected() bool
}

func newHandler(g prometheus.Gatherer, nc statusChecker, logger *slog.Logger) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", handleHealth(nc))
	mux.Handle("/metrics", metrics.Handler(g))

	return mid.Chain(mux,
		mid.Recover(logger),
		mid.Logger(logger),
		mid.OTel("threadsnap-worker"),
		mid.Methods(http.MethodGet, http.MethodHead),
	)
}

func handleHealth(nc statusChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if !nc.IsConnected() {
			w.WriteHeader(http.StatusServiceUnavailable)
			json.NewEncoder(w).Encode(map[string]string{"status": "nats disconnected"})
			return
		}
		json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	}
}
