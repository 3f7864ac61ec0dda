package thread

import (
	"encoding/json"
	"testing"
)

// Builders for Reddit-shaped JSON fixtures.

func listingJSON(children ...map[string]any) map[string]any {
	if children == nil {
		children = []map[string]any{}
	}
	return map[string]any{"kind": "Listing", "data": map[string]any{"children": children}}
}

func postNode() map[string]any {
	return map[string]any{
		"kind": "t3",
		"data": map[string]any{
			"id":           "abc123",
			"title":        "Brake squeal on 2018 Civic",
			"selftext":     "My brakes squeal when cold",
			"author":       "testuser",
			"created_utc":  1700000000.0,
			"score":        42,
			"upvote_ratio": 0.97,
		},
	}
}

func commentNode(id string, depth int, replies ...map[string]any) map[string]any {
	data := map[string]any{
		"id":          id,
		"author":      "user_" + id,
		"body":        "body " + id,
		"score":       depth + 1,
		"created_utc": 1700001000.0,
		"parent_id":   "t3_abc123",
		"depth":       depth,
		"replies":     "",
	}
	if len(replies) > 0 {
		data["replies"] = listingJSON(replies...)
	}
	return map[string]any{"kind": "t1", "data": data}
}

func moreNode(children ...string) map[string]any {
	return map[string]any{
		"kind": "more",
		"data": map[string]any{"id": "more1", "count": len(children), "children": children},
	}
}

func threadBody(t *testing.T, comments ...map[string]any) []byte {
	t.Helper()
	b, err := json.Marshal([]any{listingJSON(postNode()), listingJSON(comments...)})
	if err != nil {
		t.Fatalf("marshal fixture: %v", err)
	}
	return b
}

func commentIDs(cs []Comment) []string {
	ids := make([]string, len(cs))
	for i, c := range cs {
		ids[i] = c.ID
	}
	return ids
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
