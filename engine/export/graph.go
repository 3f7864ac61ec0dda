package export

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/WessleyAI/threadsnap/engine/thread"
	"github.com/WessleyAI/threadsnap/pkg/repo"
)

// Relationship types written by GraphSaver.
const (
	RelReplyTo  = "REPLY_TO"
	RelInThread = "IN_THREAD"
)

// nodeStore is the part of repo.Neo4jRepo GraphSaver needs.
type nodeStore[T any] interface {
	Merge(ctx context.Context, entity T) error
	Link(ctx context.Context, id string, rel string, to repo.Ref) error
	Ref(id string) repo.Ref
}

// threadNode is a thread keyed by its page URL.
type threadNode struct {
	URL       string
	Post      thread.Post
	ScrapedAt string
	Total     int
}

// GraphSaver stores a document as (:Thread) and (:Comment) nodes joined by
// REPLY_TO and IN_THREAD relationships.
type GraphSaver struct {
	threads  nodeStore[threadNode]
	comments nodeStore[thread.Comment]
}

// NewGraphSaver creates a GraphSaver on top of a neo4j driver.
func NewGraphSaver(driver neo4j.DriverWithContext) *GraphSaver {
	return &GraphSaver{
		threads: repo.NewNeo4jRepo[threadNode, string](driver, "Thread",
			func(t threadNode) string { return t.URL },
			threadProps,
			repo.WithIDKey[threadNode, string]("url"),
		),
		comments: repo.NewNeo4jRepo[thread.Comment, string](driver, "Comment",
			func(c thread.Comment) string { return c.ID },
			commentProps,
		),
	}
}

func threadProps(t threadNode) map[string]any {
	return map[string]any{
		"url":            t.URL,
		"title":          t.Post.Title,
		"content":        t.Post.Content,
		"author":         t.Post.Author,
		"timestamp":      t.Post.Timestamp,
		"score":          t.Post.Score,
		"upvote_ratio":   t.Post.UpvoteRatio,
		"scraped_at":     t.ScrapedAt,
		"total_comments": t.Total,
	}
}

func commentProps(c thread.Comment) map[string]any {
	return map[string]any{
		"id":        c.ID,
		"author":    c.Author,
		"content":   c.Content,
		"timestamp": c.Timestamp,
		"score":     c.Score,
		"parent_id": c.ParentID,
		"depth":     c.Depth,
	}
}

// Save decodes the JSON document and upserts it. Comments arrive in
// pre-order, so a reply's parent is always merged before the reply.
func (s *GraphSaver) Save(ctx context.Context, data []byte, _, mimeType string) error {
	if mimeType != thread.MimeType {
		return fmt.Errorf("graph saver: unsupported content type %q", mimeType)
	}
	var doc thread.Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("graph saver: decode document: %w", err)
	}

	t := threadNode{
		URL:       doc.Metadata.URL,
		Post:      doc.Post,
		ScrapedAt: doc.Metadata.ScrapedAt,
		Total:     doc.Metadata.TotalComments,
	}
	if err := s.threads.Merge(ctx, t); err != nil {
		return err
	}
	threadRef := s.threads.Ref(t.URL)

	for _, c := range doc.Comments {
		if err := s.comments.Merge(ctx, c); err != nil {
			return err
		}
		if err := s.comments.Link(ctx, c.ID, RelInThread, threadRef); err != nil {
			return err
		}
		parent := threadRef
		if id, ok := strings.CutPrefix(c.ParentID, "t1_"); ok {
			parent = s.comments.Ref(id)
		}
		if err := s.comments.Link(ctx, c.ID, RelReplyTo, parent); err != nil {
			return err
		}
	}
	return nil
}
