package thread

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Reddit JSON API kinds.
const (
	kindComment = "t1"
	kindLink    = "t3"
	kindMore    = "more"
)

// NodeKind tags a decoded listing child.
type NodeKind int

const (
	KindUnknown NodeKind = iota
	KindComment
	KindStub
)

func (k NodeKind) String() string {
	switch k {
	case KindComment:
		return "comment"
	case KindStub:
		return "stub"
	default:
		return "unknown"
	}
}

// Node is one child of a listing. Only comment nodes carry data and replies.
type Node struct {
	Kind    NodeKind
	Raw     string // kind as sent by the API
	Comment CommentData
	Replies []Node
}

// CommentData holds the comment fields the extractor relies on.
type CommentData struct {
	ID         string  `json:"id"`
	Author     string  `json:"author"`
	Body       string  `json:"body"`
	Score      int     `json:"score"`
	CreatedUTC float64 `json:"created_utc"`
	ParentID   string  `json:"parent_id"`
	Depth      int     `json:"depth"`
}

// PostData holds the post fields the extractor relies on. Pointers mark
// fields that must be present.
type PostData struct {
	Title       *string  `json:"title"`
	SelfText    string   `json:"selftext"`
	Author      *string  `json:"author"`
	CreatedUTC  *float64 `json:"created_utc"`
	Score       int      `json:"score"`
	UpvoteRatio float64  `json:"upvote_ratio"`
}

// Listing is the decoded two-element thread document.
type Listing struct {
	Posts    []PostData
	Comments []Node
}

// Reddit JSON API response types

type wrapper struct {
	Kind string `json:"kind"`
	Data *struct {
		Children []json.RawMessage `json:"children"`
	} `json:"data"`
}

type child struct {
	Kind string          `json:"kind"`
	Data json.RawMessage `json:"data"`
}

type commentPayload struct {
	CommentData
	Replies json.RawMessage `json:"replies"`
}

// Decode parses a thread response body: [postWrapper, commentWrapper, ...].
func Decode(body []byte) (*Listing, error) {
	var wrappers []json.RawMessage
	if err := json.Unmarshal(body, &wrappers); err != nil {
		return nil, parseErr("body", err)
	}
	if len(wrappers) < 2 {
		return nil, parseErr("body", fmt.Errorf("expected 2 listings, got %d", len(wrappers)))
	}

	postChildren, err := decodeWrapper(wrappers[0], "[0]")
	if err != nil {
		return nil, err
	}
	posts := make([]PostData, 0, len(postChildren))
	for i, raw := range postChildren {
		var c child
		if err := json.Unmarshal(raw, &c); err != nil {
			return nil, parseErr(fmt.Sprintf("[0].data.children[%d]", i), err)
		}
		if c.Kind != kindLink {
			continue
		}
		var p PostData
		if err := json.Unmarshal(c.Data, &p); err != nil {
			return nil, parseErr(fmt.Sprintf("[0].data.children[%d].data", i), err)
		}
		posts = append(posts, p)
	}

	commentChildren, err := decodeWrapper(wrappers[1], "[1]")
	if err != nil {
		return nil, err
	}
	comments, err := decodeNodes(commentChildren, "[1]")
	if err != nil {
		return nil, err
	}
	return &Listing{Posts: posts, Comments: comments}, nil
}

func decodeWrapper(raw json.RawMessage, path string) ([]json.RawMessage, error) {
	var w wrapper
	if err := json.Unmarshal(raw, &w); err != nil {
		return nil, parseErr(path, err)
	}
	if w.Data == nil {
		return nil, parseErr(path+".data", errMissing)
	}
	return w.Data.Children, nil
}

func decodeNodes(children []json.RawMessage, path string) ([]Node, error) {
	nodes := make([]Node, 0, len(children))
	for i, raw := range children {
		at := fmt.Sprintf("%s.data.children[%d]", path, i)
		var c child
		if err := json.Unmarshal(raw, &c); err != nil {
			return nil, parseErr(at, err)
		}
		switch c.Kind {
		case kindComment:
			n, err := decodeComment(c.Data, at)
			if err != nil {
				return nil, err
			}
			nodes = append(nodes, n)
		case kindMore:
			nodes = append(nodes, Node{Kind: KindStub, Raw: c.Kind})
		default:
			nodes = append(nodes, Node{Kind: KindUnknown, Raw: c.Kind})
		}
	}
	return nodes, nil
}

func decodeComment(data json.RawMessage, path string) (Node, error) {
	var p commentPayload
	if err := json.Unmarshal(data, &p); err != nil {
		return Node{}, parseErr(path+".data", err)
	}
	n := Node{Kind: KindComment, Raw: kindComment, Comment: p.CommentData}

	// replies is "" when a comment has none, otherwise a listing wrapper.
	replies := bytes.TrimSpace(p.Replies)
	if len(replies) == 0 || bytes.Equal(replies, []byte(`""`)) || bytes.Equal(replies, []byte("null")) {
		return n, nil
	}
	if replies[0] != '{' {
		return Node{}, parseErr(path+".data.replies", fmt.Errorf("unexpected %s", truncate(replies, 32)))
	}
	children, err := decodeWrapper(replies, path+".data.replies")
	if err != nil {
		return Node{}, err
	}
	if n.Replies, err = decodeNodes(children, path+".data.replies"); err != nil {
		return Node{}, err
	}
	return n, nil
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
