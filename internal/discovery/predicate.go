package discovery

import (
	"github.com/scenescout/scenescout-server/internal/catalog"
	"github.com/scenescout/scenescout-server/internal/domain"
)

// Predicate decides whether a candidate catalog scene counts toward the
// fetch-until-full quota.
type Predicate func(scene *catalog.Scene) bool

// BuildPredicate composes the candidate filter: not already owned, AND
// member of every active favorite set, AND not carrying an excluded external
// tag ID.
//
// Filtering runs before the "enough results" decision; see FetchUntilFull.
func BuildPredicate(
	ownership *OwnershipIndex,
	favorites map[domain.EntityType]*FavoriteSet,
	excludedExternalIDs []string,
) Predicate {
	excluded := make(map[string]struct{}, len(excludedExternalIDs))
	for _, id := range excludedExternalIDs {
		excluded[id] = struct{}{}
	}

	return func(scene *catalog.Scene) bool {
		if ownership.IsOwned(scene.ID) {
			return false
		}
		if len(excluded) > 0 && scene.HasAnyTag(excluded) {
			return false
		}
		for t, set := range favorites {
			if !sceneReferencesFavorite(scene, t, set) {
				return false
			}
		}
		return true
	}
}

// sceneReferencesFavorite reports whether the scene references at least one
// favorited entity of the given type.
func sceneReferencesFavorite(scene *catalog.Scene, t domain.EntityType, set *FavoriteSet) bool {
	switch t {
	case domain.EntityPerformer:
		for _, p := range scene.Performers {
			if set.Contains(p.ID) {
				return true
			}
		}
	case domain.EntityStudio:
		return scene.Studio != nil && set.Contains(scene.Studio.ID)
	case domain.EntityTag:
		for _, tag := range scene.Tags {
			if set.Contains(tag.ID) {
				return true
			}
		}
	}
	return false
}
