package export

import (
	"context"
	"fmt"

	"github.com/nats-io/nats.go"

	"github.com/WessleyAI/threadsnap/pkg/natsutil"
)

// DefaultSubject is where NATSSaver publishes unless configured otherwise.
const DefaultSubject = "threadsnap.threads"

// NATSSaver publishes each document on a subject. The file name and content
// type travel as message headers.
type NATSSaver struct {
	conn    natsutil.Conn
	subject string
}

// NewNATSSaver creates a NATSSaver. An empty subject uses DefaultSubject.
func NewNATSSaver(nc natsutil.Conn, subject string) *NATSSaver {
	if subject == "" {
		subject = DefaultSubject
	}
	return &NATSSaver{conn: nc, subject: subject}
}

func (s *NATSSaver) Save(ctx context.Context, data []byte, filename, mimeType string) error {
	h := nats.Header{}
	h.Set("Filename", filename)
	h.Set("Content-Type", mimeType)
	if err := natsutil.PublishBytes(ctx, s.conn, s.subject, data, h); err != nil {
		return fmt.Errorf("publish %s: %w", s.subject, err)
	}
	return nil
}
