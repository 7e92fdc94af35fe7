package discovery

import (
	"encoding/base64"
	"fmt"
	"strconv"
)

// PageView is one page of scored results plus pagination metadata.
// Present does pure slicing; no additional filtering happens here.
type PageView struct {
	Items []ScoredResult
	// HasMore reports whether another page of merged results exists.
	HasMore bool
	// TotalKnown is the number of merged results. When TotalIsExact is
	// false the value is a lower bound: the remote source was not fully
	// drained (page ceiling or partial failure).
	TotalKnown   int
	TotalIsExact bool
	// NextCursor is an opaque cursor for the next page; empty when HasMore
	// is false.
	NextCursor string
}

// Present slices the merged result list into one page.
// cursor is an opaque offset cursor from a previous page, or empty for the
// first page. totalIsExact is the caller's statement that every descriptor
// drained its remote source.
func Present(results []ScoredResult, pageSize int, cursor string, totalIsExact bool) (*PageView, error) {
	if pageSize <= 0 {
		pageSize = 25
	}

	offset, err := DecodeCursor(cursor)
	if err != nil {
		return nil, err
	}
	if offset < 0 || offset > len(results) {
		offset = len(results)
	}

	end := offset + pageSize
	if end > len(results) {
		end = len(results)
	}

	view := &PageView{
		Items:        results[offset:end],
		HasMore:      end < len(results),
		TotalKnown:   len(results),
		TotalIsExact: totalIsExact,
	}
	if view.HasMore {
		view.NextCursor = EncodeCursor(end)
	}
	return view, nil
}

// EncodeCursor creates an opaque cursor from a result offset.
func EncodeCursor(offset int) string {
	return base64.URLEncoding.EncodeToString([]byte(strconv.Itoa(offset)))
}

// DecodeCursor decodes a cursor back to a result offset.
// An empty cursor means the first page.
func DecodeCursor(cursor string) (int, error) {
	if cursor == "" {
		return 0, nil
	}
	decoded, err := base64.URLEncoding.DecodeString(cursor)
	if err != nil {
		return 0, fmt.Errorf("invalid cursor: %w", err)
	}
	offset, err := strconv.Atoi(string(decoded))
	if err != nil {
		return 0, fmt.Errorf("invalid cursor: %w", err)
	}
	return offset, nil
}
