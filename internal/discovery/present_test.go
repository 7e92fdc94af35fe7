package discovery

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scenescout/scenescout-server/internal/catalog"
)

func scoredResults(n int) []ScoredResult {
	out := make([]ScoredResult, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, ScoredResult{Scene: catalog.Scene{ID: fmt.Sprintf("s-%02d", i)}})
	}
	return out
}

func TestPresent_FirstPage(t *testing.T) {
	view, err := Present(scoredResults(10), 4, "", true)
	require.NoError(t, err)

	assert.Len(t, view.Items, 4)
	assert.Equal(t, "s-00", view.Items[0].Scene.ID)
	assert.True(t, view.HasMore)
	assert.Equal(t, 10, view.TotalKnown)
	assert.True(t, view.TotalIsExact)
	assert.NotEmpty(t, view.NextCursor)
}

func TestPresent_CursorWalksAllPages(t *testing.T) {
	results := scoredResults(10)

	var seen []string
	cursor := ""
	for {
		view, err := Present(results, 4, cursor, true)
		require.NoError(t, err)
		for _, item := range view.Items {
			seen = append(seen, item.Scene.ID)
		}
		if !view.HasMore {
			assert.Empty(t, view.NextCursor)
			break
		}
		cursor = view.NextCursor
	}

	require.Len(t, seen, 10, "pagination covers every result exactly once")
	for i, id := range seen {
		assert.Equal(t, fmt.Sprintf("s-%02d", i), id)
	}
}

func TestPresent_LowerBoundTotal(t *testing.T) {
	view, err := Present(scoredResults(3), 10, "", false)
	require.NoError(t, err)

	assert.False(t, view.HasMore)
	assert.Equal(t, 3, view.TotalKnown)
	assert.False(t, view.TotalIsExact, "partial fetch means the total is a lower bound")
}

func TestPresent_InvalidCursor(t *testing.T) {
	_, err := Present(scoredResults(3), 10, "not base64!!", true)
	assert.Error(t, err)
}

func TestPresent_OffsetPastEnd(t *testing.T) {
	view, err := Present(scoredResults(3), 10, EncodeCursor(50), true)
	require.NoError(t, err)
	assert.Empty(t, view.Items)
	assert.False(t, view.HasMore)
}

func TestPresent_EmptyResults(t *testing.T) {
	view, err := Present(nil, 10, "", true)
	require.NoError(t, err)
	assert.Empty(t, view.Items)
	assert.False(t, view.HasMore)
	assert.Equal(t, 0, view.TotalKnown)
}

func TestCursorRoundTrip(t *testing.T) {
	for _, offset := range []int{0, 1, 25, 1000} {
		got, err := DecodeCursor(EncodeCursor(offset))
		require.NoError(t, err)
		assert.Equal(t, offset, got)
	}

	got, err := DecodeCursor("")
	require.NoError(t, err)
	assert.Equal(t, 0, got)
}
