// Package worker exposes the thread extractor as a NATS request/reply
// service and provides the matching client.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/WessleyAI/threadsnap/engine/thread"
	"github.com/WessleyAI/threadsnap/pkg/natsutil"
)

// Default subjects for requests and completion events.
const (
	DefaultSubject      = "threadsnap.extract"
	DefaultEventSubject = "threadsnap.extracted"
)

// ExtractRequest asks a worker to extract and save one thread.
type ExtractRequest struct {
	URL string `json:"url"`
}

// ExtractReply reports the result of one extraction.
type ExtractReply struct {
	ID            string `json:"id,omitempty"`
	TotalComments int    `json:"total_comments"`
	Filename      string `json:"filename,omitempty"`
	Error         string `json:"error,omitempty"`
	ExitCode      int    `json:"exit_code"`
}

// Err returns the reply's failure as an error, or nil on success.
func (r ExtractReply) Err() error {
	if r.ExitCode == thread.ExitOK && r.Error == "" {
		return nil
	}
	return &RemoteError{Code: r.ExitCode, Msg: r.Error}
}

// Event is published after every handled request, successful or not.
type Event struct {
	URL string `json:"url"`
	ExtractReply
}

// RemoteError is a failure reported by a worker.
type RemoteError struct {
	Code int
	Msg  string
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("remote extraction failed (exit %d): %s", e.Code, e.Msg)
}

// Runner is satisfied by *thread.Extractor.
type Runner interface {
	Run(ctx context.Context, pageURL string) (*thread.Document, error)
}

// Handler turns a Runner into a natsutil.Serve handler. Every request goes
// through Run so its diagnostics and metrics cover all outcomes.
func Handler(r Runner) func(context.Context, ExtractRequest) ExtractReply {
	return func(ctx context.Context, req ExtractRequest) ExtractReply {
		id, _ := thread.IDFromURL(req.URL)
		doc, err := r.Run(ctx, req.URL)
		if err != nil {
			return ExtractReply{ID: id, Error: err.Error(), ExitCode: thread.ExitCode(err)}
		}
		return ExtractReply{
			ID:            id,
			TotalComments: doc.Metadata.TotalComments,
			Filename:      thread.Filename(id),
		}
	}
}

// Config configures Serve. Empty subjects fall back to the defaults.
type Config struct {
	Subject      string
	EventSubject string
	Logger       *slog.Logger
}

// Serve subscribes Handler(r) on cfg.Subject and publishes an Event on
// cfg.EventSubject for each request. Cancelling ctx cancels in-flight runs.
func Serve(ctx context.Context, nc natsutil.Conn, cfg Config, r Runner) error {
	if cfg.Subject == "" {
		cfg.Subject = DefaultSubject
	}
	if cfg.EventSubject == "" {
		cfg.EventSubject = DefaultEventSubject
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	handle := Handler(r)
	_, err := natsutil.Serve(ctx, nc, cfg.Subject, func(ctx context.Context, req ExtractRequest) ExtractReply {
		reply := handle(ctx, req)
		if err := natsutil.Publish(ctx, nc, cfg.EventSubject, Event{URL: req.URL, ExtractReply: reply}); err != nil {
			cfg.Logger.Warn("publish extraction event failed", "subject", cfg.EventSubject, "err", err)
		}
		return reply
	})
	if err != nil {
		return fmt.Errorf("subscribe %s: %w", cfg.Subject, err)
	}
	return nil
}

// Client sends extraction requests to a worker.
type Client struct {
	conn    natsutil.Conn
	subject string
}

// NewClient creates a Client. An empty subject uses DefaultSubject.
func NewClient(nc natsutil.Conn, subject string) *Client {
	if subject == "" {
		subject = DefaultSubject
	}
	return &Client{conn: nc, subject: subject}
}

// Extract asks a worker to process pageURL. Transport failures and remote
// failures are both returned as errors; ExitCode maps them.
func (c *Client) Extract(ctx context.Context, pageURL string) (ExtractReply, error) {
	reply, err := natsutil.Request[ExtractRequest, ExtractReply](ctx, c.conn, c.subject, ExtractRequest{URL: pageURL})
	if err != nil {
		return reply, fmt.Errorf("request %s: %w", c.subject, err)
	}
	return reply, reply.Err()
}

// ExitCode maps an error from Client.Extract to a process exit code.
func ExitCode(err error) int {
	var re *RemoteError
	if errors.As(err, &re) {
		if re.Code == thread.ExitOK {
			return thread.ExitFailure
		}
		return re.Code
	}
	return thread.ExitCode(err)
}
