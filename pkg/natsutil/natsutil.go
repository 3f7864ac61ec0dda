// Package natsutil provides typed NATS publish/serve/request helpers
// with OpenTelemetry trace propagation.
package natsutil

import (
	"context"
	"encoding/json"

	"github.com/nats-io/nats.go"
	"go.opentelemetry.io/otel"
)

// Conn is the subset of *nats.Conn used here.
type Conn interface {
	PublishMsg(msg *nats.Msg) error
	RequestMsgWithContext(ctx context.Context, msg *nats.Msg) (*nats.Msg, error)
	Subscribe(subject string, cb nats.MsgHandler) (*nats.Subscription, error)
}

var _ Conn = (*nats.Conn)(nil)

// natsHeaderCarrier adapts nats.Msg headers for OTel TextMapCarrier.
type natsHeaderCarrier nats.Msg

func (c *natsHeaderCarrier) Get(key string) string {
	if c.Header == nil {
		return ""
	}
	return c.Header.Get(key)
}

func (c *natsHeaderCarrier) Set(key, val string) {
	if c.Header == nil {
		c.Header = make(nats.Header)
	}
	c.Header.Set(key, val)
}

func (c *natsHeaderCarrier) Keys() []string {
	if c.Header == nil {
		return nil
	}
	keys := make([]string, 0, len(c.Header))
	for k := range c.Header {
		keys = append(keys, k)
	}
	return keys
}

func inject(ctx context.Context, msg *nats.Msg) {
	otel.GetTextMapPropagator().Inject(ctx, (*natsHeaderCarrier)(msg))
}

func extract(ctx context.Context, msg *nats.Msg) context.Context {
	return otel.GetTextMapPropagator().Extract(ctx, (*natsHeaderCarrier)(msg))
}

// Publish serializes v as JSON and publishes to the given subject.
func Publish[T any](ctx context.Context, nc Conn, subject string, v T) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return PublishBytes(ctx, nc, subject, data, nil)
}

// PublishBytes publishes pre-encoded data with optional headers.
// Trace context from ctx is injected into the message headers.
func PublishBytes(ctx context.Context, nc Conn, subject string, data []byte, header nats.Header) error {
	msg := &nats.Msg{
		Subject: subject,
		Data:    data,
		Header:  header,
	}
	inject(ctx, msg)
	return nc.PublishMsg(msg)
}

// Serve registers a request/reply handler: each request is decoded as Req
// and handler's result is sent back as JSON on the reply subject.
// Malformed requests and requests without a reply subject are dropped.
// Handler contexts derive from ctx, so cancelling it aborts in-flight work.
func Serve[Req, Resp any](ctx context.Context, nc Conn, subject string, handler func(context.Context, Req) Resp) (*nats.Subscription, error) {
	return nc.Subscribe(subject, replyHandler(ctx, nc, handler))
}

func replyHandler[Req, Resp any](base context.Context, nc Conn, handler func(context.Context, Req) Resp) nats.MsgHandler {
	return func(msg *nats.Msg) {
		if msg.Reply == "" {
			return
		}
		var req Req
		if err := json.Unmarshal(msg.Data, &req); err != nil {
			return // drop malformed messages
		}
		ctx := extract(base, msg)
		data, err := json.Marshal(handler(ctx, req))
		if err != nil {
			return
		}
		reply := &nats.Msg{Subject: msg.Reply, Data: data}
		inject(ctx, reply)
		_ = nc.PublishMsg(reply)
	}
}

// Request sends a JSON-encoded request and decodes the response. ctx must
// carry a deadline or be cancellable.
func Request[Req, Resp any](ctx context.Context, nc Conn, subject string, req Req) (Resp, error) {
	var zero Resp
	data, err := json.Marshal(req)
	if err != nil {
		return zero, err
	}
	msg := &nats.Msg{
		Subject: subject,
		Data:    data,
	}
	inject(ctx, msg)
	resp, err := nc.RequestMsgWithContext(ctx, msg)
	if err != nil {
		return zero, err
	}
	var result Resp
	if err := json.Unmarshal(resp.Data, &result); err != nil {
		return zero, err
	}
	return result, nil
}
