package discovery

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scenescout/scenescout-server/internal/domain"
)

// fakeLibrary is an in-memory LibraryReader that counts calls so tests can
// verify the session caches are built once.
type fakeLibrary struct {
	owned     map[string]map[string]struct{}            // endpoint -> scene external IDs
	favorites map[domain.EntityType]map[string][]string // type -> endpoint -> external IDs

	ownedCalls    int
	favoriteCalls int
}

func (f *fakeLibrary) ListOwnedExternalIDs(_ context.Context, endpoint string) (map[string]struct{}, error) {
	f.ownedCalls++
	out := make(map[string]struct{})
	for id := range f.owned[endpoint] {
		out[id] = struct{}{}
	}
	return out, nil
}

func (f *fakeLibrary) ListFavoriteExternalIDs(_ context.Context, t domain.EntityType, endpoint string, limit int) ([]string, int, error) {
	f.favoriteCalls++
	all := f.favorites[t][endpoint]
	total := len(all)
	if len(all) > limit {
		all = all[:limit]
	}
	return all, total, nil
}

func ownedSet(ids ...string) map[string]struct{} {
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}

const fakeEndpoint = "https://catalog.example.com/graphql"

func TestOwnershipIndex_EmptyLibrary(t *testing.T) {
	lib := &fakeLibrary{}
	idx, err := BuildOwnershipIndex(context.Background(), lib, fakeEndpoint)
	require.NoError(t, err)

	assert.Equal(t, 0, idx.Size())
	assert.False(t, idx.IsOwned("anything"))
}

func TestOwnershipIndex_Lookup(t *testing.T) {
	lib := &fakeLibrary{owned: map[string]map[string]struct{}{
		fakeEndpoint: ownedSet("s1", "s2"),
	}}
	idx, err := BuildOwnershipIndex(context.Background(), lib, fakeEndpoint)
	require.NoError(t, err)

	assert.True(t, idx.IsOwned("s1"))
	assert.True(t, idx.IsOwned("s2"))
	assert.False(t, idx.IsOwned("s3"))
}

func TestSession_OwnershipBuiltOnce(t *testing.T) {
	lib := &fakeLibrary{owned: map[string]map[string]struct{}{
		fakeEndpoint: ownedSet("s1"),
	}}
	sess := NewSession(lib, fakeEndpoint, 100)
	ctx := context.Background()

	first, err := sess.Ownership(ctx)
	require.NoError(t, err)
	second, err := sess.Ownership(ctx)
	require.NoError(t, err)

	assert.Same(t, first, second)
	assert.Equal(t, 1, lib.ownedCalls, "index is built once and reused")
}

func TestSession_FavoritesCachedPerType(t *testing.T) {
	lib := &fakeLibrary{favorites: map[domain.EntityType]map[string][]string{
		domain.EntityPerformer: {fakeEndpoint: {"p1", "p2"}},
		domain.EntityTag:       {fakeEndpoint: {"t1"}},
	}}
	sess := NewSession(lib, fakeEndpoint, 100)
	ctx := context.Background()

	perfs, err := sess.Favorites(ctx, domain.EntityPerformer)
	require.NoError(t, err)
	assert.True(t, perfs.Contains("p1"))
	assert.False(t, perfs.Truncated)

	_, err = sess.Favorites(ctx, domain.EntityPerformer)
	require.NoError(t, err)
	_, err = sess.Favorites(ctx, domain.EntityTag)
	require.NoError(t, err)

	assert.Equal(t, 2, lib.favoriteCalls, "one fetch per (type, endpoint)")
}

func TestSession_FavoriteTruncationFlagged(t *testing.T) {
	lib := &fakeLibrary{favorites: map[domain.EntityType]map[string][]string{
		domain.EntityPerformer: {fakeEndpoint: {"p1", "p2", "p3"}},
	}}
	sess := NewSession(lib, fakeEndpoint, 2)

	set, err := sess.Favorites(context.Background(), domain.EntityPerformer)
	require.NoError(t, err)

	assert.True(t, set.Truncated)
	assert.Equal(t, 3, set.Total)
	assert.Len(t, set.IDs, 2)
}

func TestSession_ResetInvalidatesCaches(t *testing.T) {
	lib := &fakeLibrary{
		owned: map[string]map[string]struct{}{
			fakeEndpoint: ownedSet("s1"),
			"other":      ownedSet("s9"),
		},
	}
	sess := NewSession(lib, fakeEndpoint, 100)
	ctx := context.Background()

	idx, err := sess.Ownership(ctx)
	require.NoError(t, err)
	assert.True(t, idx.IsOwned("s1"))

	sess.Reset("other")
	assert.Equal(t, "other", sess.Endpoint())

	idx, err = sess.Ownership(ctx)
	require.NoError(t, err)
	assert.False(t, idx.IsOwned("s1"))
	assert.True(t, idx.IsOwned("s9"))
	assert.Equal(t, 2, lib.ownedCalls, "reset forces a rebuild")
}
