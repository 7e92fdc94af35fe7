package discovery

import (
	"context"
	"fmt"
	"sync"

	"github.com/scenescout/scenescout-server/internal/domain"
)

// LibraryReader is the read-only slice of the local library the discovery
// engine consumes.
type LibraryReader interface {
	// ListOwnedExternalIDs returns the catalog scene IDs already present in
	// the local library for the given endpoint.
	ListOwnedExternalIDs(ctx context.Context, endpoint string) (map[string]struct{}, error)
	// ListFavoriteExternalIDs returns favorited, endpoint-linked entity IDs
	// of the given type, truncated to limit, plus the untruncated total.
	ListFavoriteExternalIDs(ctx context.Context, t domain.EntityType, endpoint string, limit int) ([]string, int, error)
}

// OwnershipIndex maps catalog scene IDs already present in the local library.
// Built once per session and frozen; IsOwned is O(1).
type OwnershipIndex struct {
	owned map[string]struct{}
}

// BuildOwnershipIndex fetches all local scene-to-catalog links for the
// endpoint. An empty library produces an empty index, never an error.
func BuildOwnershipIndex(ctx context.Context, reader LibraryReader, endpoint string) (*OwnershipIndex, error) {
	owned, err := reader.ListOwnedExternalIDs(ctx, endpoint)
	if err != nil {
		return nil, fmt.Errorf("build ownership index: %w", err)
	}
	if owned == nil {
		owned = make(map[string]struct{})
	}
	return &OwnershipIndex{owned: owned}, nil
}

// IsOwned reports whether the catalog scene ID is already in the library.
func (i *OwnershipIndex) IsOwned(externalID string) bool {
	_, ok := i.owned[externalID]
	return ok
}

// Size returns the number of owned catalog IDs in the index.
func (i *OwnershipIndex) Size() int {
	return len(i.owned)
}

// FavoriteSet is the frozen set of favorited, endpoint-linked external IDs
// for one entity type. Truncated flags that the true favorite count exceeded
// the configured limit; that is caller-visible messaging, not an error.
type FavoriteSet struct {
	IDs       map[string]struct{}
	Total     int
	Truncated bool
}

// Contains reports membership of an external ID in the favorite set.
func (f *FavoriteSet) Contains(externalID string) bool {
	_, ok := f.IDs[externalID]
	return ok
}

// Session holds the per-discovery-session caches: the ownership index and
// the favorite sets. Caches are built once and then frozen for the life of
// the session (read-many, write-once discipline); the only invalidation
// trigger is an explicit endpoint switch via Reset.
type Session struct {
	library       LibraryReader
	favoriteLimit int

	mu        sync.Mutex
	endpoint  string
	ownership *OwnershipIndex
	favorites map[domain.EntityType]*FavoriteSet
}

// NewSession creates a session bound to an endpoint. Caches build lazily on
// first use.
func NewSession(library LibraryReader, endpoint string, favoriteLimit int) *Session {
	return &Session{
		library:       library,
		favoriteLimit: favoriteLimit,
		endpoint:      endpoint,
		favorites:     make(map[domain.EntityType]*FavoriteSet),
	}
}

// Endpoint returns the endpoint the session caches are bound to.
func (s *Session) Endpoint() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.endpoint
}

// Reset drops all caches and rebinds the session to a new endpoint.
func (s *Session) Reset(endpoint string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.endpoint = endpoint
	s.ownership = nil
	s.favorites = make(map[domain.EntityType]*FavoriteSet)
}

// Ownership returns the ownership index, building it on first use.
func (s *Session) Ownership(ctx context.Context) (*OwnershipIndex, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ownership != nil {
		return s.ownership, nil
	}
	idx, err := BuildOwnershipIndex(ctx, s.library, s.endpoint)
	if err != nil {
		return nil, err
	}
	s.ownership = idx
	return idx, nil
}

// Favorites returns the favorite set for an entity type, building it on
// first use. The set is a frozen snapshot; favorites changed mid-session are
// not observed until Reset.
func (s *Session) Favorites(ctx context.Context, t domain.EntityType) (*FavoriteSet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if set, ok := s.favorites[t]; ok {
		return set, nil
	}

	ids, total, err := s.library.ListFavoriteExternalIDs(ctx, t, s.endpoint, s.favoriteLimit)
	if err != nil {
		return nil, fmt.Errorf("resolve %s favorites: %w", t, err)
	}

	set := &FavoriteSet{
		IDs:       make(map[string]struct{}, len(ids)),
		Total:     total,
		Truncated: total > len(ids),
	}
	for _, extID := range ids {
		set.IDs[extID] = struct{}{}
	}
	s.favorites[t] = set
	return set, nil
}
