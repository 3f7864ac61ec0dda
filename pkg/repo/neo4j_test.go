package repo

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

type mockResult struct {
	records []*neo4j.Record
	idx     int
}

func (m *mockResult) Next(ctx context.Context) bool {
	if m.idx < len(m.records) {
		m.idx++
		return true
	}
	return false
}

func (m *mockResult) Record() *neo4j.Record {
	return m.records[m.idx-1]
}

type mockRunner struct {
	err     error
	cyphers []string
	params  []map[string]any
	closed  int
}

func (m *mockRunner) Run(ctx context.Context, cypher string, params map[string]any) (result, error) {
	m.cyphers = append(m.cyphers, cypher)
	m.params = append(m.params, params)
	if m.err != nil {
		return nil, m.err
	}
	return &mockResult{}, nil
}

func (m *mockRunner) Close(ctx context.Context) error {
	m.closed++
	return nil
}

type entity struct {
	ID   string
	Name string
}

func newTestRepo(r *mockRunner, label string, opts ...Neo4jOption[entity, string]) *Neo4jRepo[entity, string] {
	repo := NewNeo4jRepo[entity, string](
		nil, label,
		func(e entity) string { return e.ID },
		func(e entity) map[string]any { return map[string]any{"id": e.ID, "name": e.Name} },
		opts...,
	)
	repo.newSession = func(ctx context.Context) runner { return r }
	return repo
}

func TestNewNeo4jRepoDefaults(t *testing.T) {
	r := NewNeo4jRepo[entity, string](nil, "Node", nil, nil)
	if r.idKey != "id" {
		t.Fatalf("expected default idKey=id, got %s", r.idKey)
	}
	if r.newSession != nil {
		t.Fatal("newSession should be nil by default")
	}
	r = NewNeo4jRepo[entity, string](nil, "Bad Label!", nil, nil, WithIDKey[entity, string]("url"))
	if r.label != "BadLabel" || r.idKey != "url" {
		t.Fatalf("unexpected label/idKey: %s %s", r.label, r.idKey)
	}
}

func TestMerge(t *testing.T) {
	m := &mockRunner{}
	repo := newTestRepo(m, "Comment")

	if err := repo.Merge(context.Background(), entity{ID: "c1", Name: "x"}); err != nil {
		t.Fatal(err)
	}
	if want := "MERGE (n:Comment {id: $id}) SET n += $props"; m.cyphers[0] != want {
		t.Fatalf("got %q, want %q", m.cyphers[0], want)
	}
	if m.params[0]["id"] != "c1" {
		t.Fatalf("unexpected params: %v", m.params[0])
	}
	if m.closed != 1 {
		t.Fatalf("expected session closed once, got %d", m.closed)
	}
}

func TestMergeError(t *testing.T) {
	m := &mockRunner{err: errors.New("db down")}
	repo := newTestRepo(m, "Comment")
	err := repo.Merge(context.Background(), entity{ID: "c1"})
	if err == nil || !strings.Contains(err.Error(), "db down") {
		t.Fatalf("expected db down, got %v", err)
	}
	if m.closed != 1 {
		t.Fatal("session should be closed on error")
	}
}

func TestLink(t *testing.T) {
	m := &mockRunner{}
	threads := newTestRepo(m, "Thread", WithIDKey[entity, string]("url"))
	comments := newTestRepo(m, "Comment")

	if err := comments.Link(context.Background(), "c2", "reply_to", threads.Ref("https://x")); err != nil {
		t.Fatal(err)
	}
	want := "MATCH (a:Comment {id: $from}), (b:Thread {url: $to}) MERGE (a)-[:REPLY_TO]->(b)"
	if m.cyphers[0] != want {
		t.Fatalf("got %q, want %q", m.cyphers[0], want)
	}
	if m.params[0]["from"] != "c2" || m.params[0]["to"] != "https://x" {
		t.Fatalf("unexpected params: %v", m.params[0])
	}
}

func TestLinkSanitizesRelType(t *testing.T) {
	m := &mockRunner{}
	comments := newTestRepo(m, "Comment")
	if err := comments.Link(context.Background(), "a", "}]-() DETACH DELETE", Ref{Label: "Comment", Key: "id", ID: "b"}); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(m.cyphers[0], "[:DETACHDELETE]") {
		t.Fatalf("rel type not sanitized: %q", m.cyphers[0])
	}
	if got := sanitizeRelType("!!"); got != "RELATED_TO" {
		t.Fatalf("expected fallback, got %q", got)
	}
}
