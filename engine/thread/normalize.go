package thread

import (
	"fmt"
	"math"
	"time"
)

// timestampLayout is ISO-8601 UTC with millisecond precision.
const timestampLayout = "2006-01-02T15:04:05.000Z"

// Four-digit years only; FormatTimestamp clamps to this range.
var (
	minTimestampMilli = time.Date(0, 1, 1, 0, 0, 0, 0, time.UTC).UnixMilli()
	maxTimestampMilli = time.Date(9999, 12, 31, 23, 59, 59, 999e6, time.UTC).UnixMilli()
)

// FormatTimestamp converts Unix epoch seconds to an ISO-8601 UTC string.
// Sub-millisecond fractions are truncated. Values outside years 0000-9999
// (and NaN) are clamped to the nearest bound.
func FormatTimestamp(epochSeconds float64) string {
	ms := epochSeconds * 1000
	var milli int64
	switch {
	case math.IsNaN(ms) || ms < float64(minTimestampMilli):
		milli = minTimestampMilli
	case ms > float64(maxTimestampMilli):
		milli = maxTimestampMilli
	default:
		milli = int64(ms)
	}
	return time.UnixMilli(milli).UTC().Format(timestampLayout)
}

// FormatTime formats t the same way FormatTimestamp does.
func FormatTime(t time.Time) string {
	return t.UTC().Format(timestampLayout)
}

// NormalizePost projects the root post of a listing.
func NormalizePost(l *Listing) (Post, error) {
	if len(l.Posts) != 1 {
		return Post{}, parseErr("[0].data.children", fmt.Errorf("expected 1 post, got %d", len(l.Posts)))
	}
	d := l.Posts[0]
	switch {
	case d.Title == nil:
		return Post{}, parseErr("post.title", errMissing)
	case d.Author == nil:
		return Post{}, parseErr("post.author", errMissing)
	case d.CreatedUTC == nil:
		return Post{}, parseErr("post.created_utc", errMissing)
	}
	return Post{
		Title:       *d.Title,
		Content:     d.SelfText,
		Author:      *d.Author,
		Timestamp:   FormatTimestamp(*d.CreatedUTC),
		Score:       d.Score,
		UpvoteRatio: d.UpvoteRatio,
	}, nil
}

func normalizeComment(d CommentData) Comment {
	return Comment{
		Author:    d.Author,
		Content:   d.Body,
		Timestamp: FormatTimestamp(d.CreatedUTC),
		Score:     d.Score,
		ID:        d.ID,
		ParentID:  d.ParentID,
		Depth:     d.Depth,
	}
}
