package discovery

import (
	"sort"

	"github.com/scenescout/scenescout-server/internal/catalog"
	"github.com/scenescout/scenescout-server/internal/domain"
)

// ScoreWeights are the per-dimension points added for each matched anchor
// entity on a candidate scene.
type ScoreWeights struct {
	Studio    int
	Performer int
	Tag       int
}

// DefaultScoreWeights returns the default additive weights.
func DefaultScoreWeights() ScoreWeights {
	return ScoreWeights{Studio: 3, Performer: 2, Tag: 1}
}

// ScoredResult is a deduplicated catalog scene with its derived relevance.
// Score, MatchedDimensions, and AlreadyOwned are recomputed on every merge
// and never cached across sessions.
type ScoredResult struct {
	Scene             catalog.Scene
	Score             int
	MatchedDimensions []domain.EntityType
	AlreadyOwned      bool
}

// DescriptorScenes pairs one descriptor's dimension with the scenes it
// collected.
type DescriptorScenes struct {
	Dimension catalog.Dimension
	Scenes    []catalog.Scene
}

// Merge combines per-descriptor result lists into one deduplicated, scored,
// deterministically ordered list.
//
// Dedup key is the scene's external ID; MatchedDimensions accumulates every
// dimension that produced the scene. Scoring is additive over matched anchor
// entities (+Studio for a studio match, +Performer per distinct matched
// performer, +Tag per distinct matched tag). Already-owned scenes are scored
// and kept: ownership demotes, it never hides.
//
// Ordering: AlreadyOwned ascending, Score descending, ReleaseDate
// descending, external ID ascending. Identical inputs always produce
// identical output order.
func Merge(
	results []DescriptorScenes,
	spec domain.AnchorSpec,
	ownership *OwnershipIndex,
	weights ScoreWeights,
) []ScoredResult {
	anchors := anchorSets(spec)

	merged := make(map[string]*ScoredResult)
	var order []string

	for _, dr := range results {
		entityType, scoped := dr.Dimension.EntityType()
		for i := range dr.Scenes {
			scene := dr.Scenes[i]
			sr, seen := merged[scene.ID]
			if !seen {
				sr = &ScoredResult{
					Scene:        scene,
					AlreadyOwned: ownership.IsOwned(scene.ID),
				}
				merged[scene.ID] = sr
				order = append(order, scene.ID)
			}
			if scoped && !hasDimension(sr.MatchedDimensions, entityType) {
				sr.MatchedDimensions = append(sr.MatchedDimensions, entityType)
			}
		}
	}

	out := make([]ScoredResult, 0, len(order))
	for _, sceneID := range order {
		sr := merged[sceneID]
		sr.Score = scoreScene(&sr.Scene, anchors, weights)
		sortDimensions(sr.MatchedDimensions)
		out = append(out, *sr)
	}

	sort.Slice(out, func(i, j int) bool {
		a, b := &out[i], &out[j]
		if a.AlreadyOwned != b.AlreadyOwned {
			return !a.AlreadyOwned // not-owned first
		}
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if a.Scene.ReleaseDate != b.Scene.ReleaseDate {
			return a.Scene.ReleaseDate > b.Scene.ReleaseDate
		}
		return a.Scene.ID < b.Scene.ID
	})

	return out
}

// anchorSets indexes the spec's anchor external IDs by entity type.
func anchorSets(spec domain.AnchorSpec) map[domain.EntityType]map[string]struct{} {
	sets := make(map[domain.EntityType]map[string]struct{})
	for _, ref := range spec.EntityRefs {
		set := sets[ref.Type]
		if set == nil {
			set = make(map[string]struct{})
			sets[ref.Type] = set
		}
		set[ref.ExternalID] = struct{}{}
	}
	return sets
}

// scoreScene computes the additive relevance score for one scene.
func scoreScene(scene *catalog.Scene, anchors map[domain.EntityType]map[string]struct{}, weights ScoreWeights) int {
	score := 0

	if studios := anchors[domain.EntityStudio]; scene.Studio != nil {
		if _, ok := studios[scene.Studio.ID]; ok {
			score += weights.Studio
		}
	}

	if performers := anchors[domain.EntityPerformer]; len(performers) > 0 {
		seen := make(map[string]struct{})
		for _, p := range scene.Performers {
			if _, ok := performers[p.ID]; !ok {
				continue
			}
			if _, dup := seen[p.ID]; dup {
				continue
			}
			seen[p.ID] = struct{}{}
			score += weights.Performer
		}
	}

	if tags := anchors[domain.EntityTag]; len(tags) > 0 {
		seen := make(map[string]struct{})
		for _, tag := range scene.Tags {
			if _, ok := tags[tag.ID]; !ok {
				continue
			}
			if _, dup := seen[tag.ID]; dup {
				continue
			}
			seen[tag.ID] = struct{}{}
			score += weights.Tag
		}
	}

	return score
}

func hasDimension(dims []domain.EntityType, t domain.EntityType) bool {
	for _, d := range dims {
		if d == t {
			return true
		}
	}
	return false
}

// sortDimensions orders matched dimensions in the stable entity-type order
// so equal inputs render identically.
func sortDimensions(dims []domain.EntityType) {
	rank := map[domain.EntityType]int{
		domain.EntityPerformer: 0,
		domain.EntityStudio:    1,
		domain.EntityTag:       2,
	}
	sort.Slice(dims, func(i, j int) bool {
		return rank[dims[i]] < rank[dims[j]]
	})
}
