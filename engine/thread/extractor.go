package thread

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/WessleyAI/threadsnap/pkg/fn"
)

// Response is the result of a single GET.
type Response struct {
	Status int
	Body   []byte
}

// Fetcher performs a single HTTP GET.
type Fetcher interface {
	Get(ctx context.Context, url string) (*Response, error)
}

// Saver hands serialized bytes to a storage or delivery target.
type Saver interface {
	Save(ctx context.Context, data []byte, filename, mimeType string) error
}

// Observer is notified once per Run with the outcome.
type Observer interface {
	ObserveExtraction(outcome string, comments int, took time.Duration)
}

// Run outcomes reported to the Observer.
const (
	OutcomeSuccess           = "success"
	OutcomeMissingIdentifier = "missing_identifier"
	OutcomeHTTPError         = "http_error"
	OutcomeParseError        = "parse_error"
	OutcomeExportError       = "export_error"
	OutcomeError             = "error"
)

// Outcome classifies err for metrics.
func Outcome(err error) string {
	var httpErr *HTTPError
	switch {
	case err == nil:
		return OutcomeSuccess
	case errors.Is(err, ErrMissingIdentifier):
		return OutcomeMissingIdentifier
	case errors.As(err, &httpErr):
		return OutcomeHTTPError
	case errors.Is(err, ErrParse):
		return OutcomeParseError
	case errors.Is(err, ErrExport):
		return OutcomeExportError
	default:
		return OutcomeError
	}
}

// Extractor runs the fetch → parse → flatten → export pipeline.
type Extractor struct {
	fetcher  Fetcher
	saver    Saver
	now      func() time.Time
	logger   *slog.Logger
	observer Observer
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithClock overrides the clock used for metadata.scraped_at.
func WithClock(now func() time.Time) Option {
	return func(e *Extractor) { e.now = now }
}

// WithLogger sets the diagnostics logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Extractor) { e.logger = l }
}

// WithObserver registers an outcome observer.
func WithObserver(o Observer) Option {
	return func(e *Extractor) { e.observer = o }
}

// New creates an Extractor. saver may be nil when only Extract is used.
func New(fetcher Fetcher, saver Saver, opts ...Option) *Extractor {
	e := &Extractor{
		fetcher: fetcher,
		saver:   saver,
		now:     time.Now,
		logger:  slog.Default(),
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

// request is the state threaded through the pipeline stages.
type request struct {
	pageURL string
	body    []byte
	listing *Listing
}

// Extract fetches pageURL's thread and builds the export document without
// saving it.
func (e *Extractor) Extract(ctx context.Context, pageURL string) (*Document, error) {
	if _, err := IDFromURL(pageURL); err != nil {
		return nil, err
	}
	return e.pipeline()(ctx, request{pageURL: pageURL}).Unwrap()
}

func (e *Extractor) pipeline() fn.Stage[request, *Document] {
	fetch := fn.TracedStage("thread.fetch", fn.Lift(e.fetch))
	decode := fn.TracedStage("thread.decode", fn.Lift(decodeStage))
	build := fn.TracedStage("thread.build", fn.Lift(e.build))
	return fn.Then(fn.Then(fetch, decode), build)
}

func (e *Extractor) fetch(ctx context.Context, r request) (request, error) {
	endpoint, err := JSONURL(r.pageURL)
	if err != nil {
		return r, err
	}
	resp, err := e.fetcher.Get(ctx, endpoint)
	if err != nil {
		return r, fmt.Errorf("get %s: %w", endpoint, err)
	}
	if resp.Status < 200 || resp.Status > 299 {
		return r, &HTTPError{Status: resp.Status, URL: endpoint}
	}
	r.body = resp.Body
	return r, nil
}

func decodeStage(_ context.Context, r request) (request, error) {
	l, err := Decode(r.body)
	if err != nil {
		return r, err
	}
	r.listing = l
	r.body = nil
	return r, nil
}

func (e *Extractor) build(_ context.Context, r request) (*Document, error) {
	post, err := NormalizePost(r.listing)
	if err != nil {
		return nil, err
	}
	comments := Flatten(r.listing.Comments)
	return &Document{
		Post:     post,
		Comments: comments,
		Metadata: Metadata{
			URL:           r.pageURL,
			ScrapedAt:     FormatTime(e.now()),
			TotalComments: len(comments),
		},
	}, nil
}

// Run extracts pageURL's thread and hands it to the saver. On any failure it
// returns a nil document and nothing is saved.
func (e *Extractor) Run(ctx context.Context, pageURL string) (doc *Document, err error) {
	start := time.Now()
	defer func() {
		if e.observer == nil {
			return
		}
		n := 0
		if doc != nil {
			n = len(doc.Comments)
		}
		e.observer.ObserveExtraction(Outcome(err), n, time.Since(start))
	}()

	id, err := IDFromURL(pageURL)
	if err != nil {
		e.logger.Error("could not find thread id", "url", pageURL)
		return nil, err
	}

	doc, err = e.pipeline()(ctx, request{pageURL: pageURL}).Unwrap()
	if err == nil {
		err = e.export(ctx, id, doc)
	}
	if err != nil {
		e.logger.Error("scrape failed", "url", pageURL, "err", err)
		return nil, err
	}

	e.logger.Info("scraped comments", "id", id, "count", len(doc.Comments))
	e.logger.Info("scrape completed", "id", id)
	return doc, nil
}

func (e *Extractor) export(ctx context.Context, id string, doc *Document) error {
	name := Filename(id)
	if e.saver == nil {
		return &ExportError{Filename: name, Err: errors.New("no saver configured")}
	}
	data, err := Marshal(doc)
	if err != nil {
		return &ExportError{Filename: name, Err: err}
	}
	if err := e.saver.Save(ctx, data, name, MimeType); err != nil {
		return &ExportError{Filename: name, Err: err}
	}
	return nil
}
