package discovery

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scenescout/scenescout-server/internal/catalog"
	"github.com/scenescout/scenescout-server/internal/domain"
)

func emptyOwnership() *OwnershipIndex {
	return &OwnershipIndex{owned: map[string]struct{}{}}
}

// Scenario: performer and studio descriptors both return scene s1.
// Merged score = 2 (performer) + 3 (studio) = 5, dimensions = both.
func TestMerge_DedupAcrossDescriptors(t *testing.T) {
	spec := domain.AnchorSpec{
		EntityRefs: []domain.EntityRef{
			{Type: domain.EntityPerformer, ExternalID: "p1"},
			{Type: domain.EntityStudio, ExternalID: "stu1"},
		},
	}
	s1 := catalog.Scene{
		ID:         "s1",
		Performers: []catalog.NamedRef{{ID: "p1"}},
		Studio:     &catalog.NamedRef{ID: "stu1"},
	}

	merged := Merge([]DescriptorScenes{
		{Dimension: catalog.DimensionPerformers, Scenes: []catalog.Scene{s1}},
		{Dimension: catalog.DimensionStudios, Scenes: []catalog.Scene{s1}},
	}, spec, emptyOwnership(), DefaultScoreWeights())

	require.Len(t, merged, 1, "same external ID merges to one result")
	assert.Equal(t, 5, merged[0].Score)
	assert.Equal(t,
		[]domain.EntityType{domain.EntityPerformer, domain.EntityStudio},
		merged[0].MatchedDimensions,
		"dimensions are the union of producing descriptors")
}

func TestMerge_ScoresDistinctEntities(t *testing.T) {
	spec := domain.AnchorSpec{
		EntityRefs: []domain.EntityRef{
			{Type: domain.EntityPerformer, ExternalID: "p1"},
			{Type: domain.EntityPerformer, ExternalID: "p2"},
			{Type: domain.EntityTag, ExternalID: "t1"},
			{Type: domain.EntityTag, ExternalID: "t2"},
		},
	}
	scene := catalog.Scene{
		ID:         "s1",
		Performers: []catalog.NamedRef{{ID: "p1"}, {ID: "p2"}, {ID: "p-other"}},
		Tags:       []catalog.NamedRef{{ID: "t1"}, {ID: "t-other"}},
	}

	merged := Merge([]DescriptorScenes{
		{Dimension: catalog.DimensionPerformers, Scenes: []catalog.Scene{scene}},
	}, spec, emptyOwnership(), DefaultScoreWeights())

	require.Len(t, merged, 1)
	// 2 matched performers x2 + 1 matched tag x1.
	assert.Equal(t, 5, merged[0].Score)
}

func TestMerge_OwnedScenesScoredNotDropped(t *testing.T) {
	spec := domain.AnchorSpec{
		EntityRefs: []domain.EntityRef{{Type: domain.EntityStudio, ExternalID: "stu1"}},
	}
	scenes := []catalog.Scene{
		{ID: "s-owned", Studio: &catalog.NamedRef{ID: "stu1"}},
		{ID: "s-new", Studio: &catalog.NamedRef{ID: "stu1"}},
	}

	idx := &OwnershipIndex{owned: ownedSet("s-owned")}
	merged := Merge([]DescriptorScenes{
		{Dimension: catalog.DimensionStudios, Scenes: scenes},
	}, spec, idx, DefaultScoreWeights())

	require.Len(t, merged, 2, "ownership demotes, never hides")
	assert.Equal(t, "s-new", merged[0].Scene.ID, "not-owned precedes owned")
	assert.Equal(t, "s-owned", merged[1].Scene.ID)
	assert.True(t, merged[1].AlreadyOwned)
	assert.Equal(t, 3, merged[1].Score, "owned scenes still carry a score")
}

// Ordering law: a not-owned result precedes an owned one regardless of score.
func TestMerge_OrderingLawOwnershipBeatsScore(t *testing.T) {
	spec := domain.AnchorSpec{
		EntityRefs: []domain.EntityRef{
			{Type: domain.EntityStudio, ExternalID: "stu1"},
			{Type: domain.EntityPerformer, ExternalID: "p1"},
		},
	}
	scenes := []catalog.Scene{
		// Owned, high score: studio + performer.
		{ID: "a-owned", Studio: &catalog.NamedRef{ID: "stu1"}, Performers: []catalog.NamedRef{{ID: "p1"}}},
		// Not owned, zero score.
		{ID: "z-new"},
	}

	merged := Merge([]DescriptorScenes{
		{Dimension: catalog.DimensionStudios, Scenes: scenes},
	}, spec, &OwnershipIndex{owned: ownedSet("a-owned")}, DefaultScoreWeights())

	require.Len(t, merged, 2)
	assert.Equal(t, "z-new", merged[0].Scene.ID)
	assert.Equal(t, 0, merged[0].Score)
	assert.Equal(t, "a-owned", merged[1].Scene.ID)
	assert.Equal(t, 5, merged[1].Score)
}

func TestMerge_TiebreaksAreDeterministic(t *testing.T) {
	spec := domain.AnchorSpec{}
	scenes := []catalog.Scene{
		{ID: "s-b", ReleaseDate: "2024-01-01"},
		{ID: "s-a", ReleaseDate: "2024-01-01"},
		{ID: "s-c", ReleaseDate: "2024-06-01"},
	}

	merged := Merge([]DescriptorScenes{
		{Dimension: catalog.DimensionNone, Scenes: scenes},
	}, spec, emptyOwnership(), DefaultScoreWeights())

	require.Len(t, merged, 3)
	// Newer release first, then external ID ascending.
	assert.Equal(t, "s-c", merged[0].Scene.ID)
	assert.Equal(t, "s-a", merged[1].Scene.ID)
	assert.Equal(t, "s-b", merged[2].Scene.ID)
}

// Determinism: merging the same inputs twice produces identical ordering.
func TestMerge_Determinism(t *testing.T) {
	spec := domain.AnchorSpec{
		EntityRefs: []domain.EntityRef{
			{Type: domain.EntityPerformer, ExternalID: "p1"},
			{Type: domain.EntityTag, ExternalID: "t1"},
		},
	}

	var scenes []catalog.Scene
	for i := 0; i < 50; i++ {
		sc := catalog.Scene{
			ID:          fmt.Sprintf("s-%02d", i),
			ReleaseDate: fmt.Sprintf("2024-%02d-01", (i%12)+1),
		}
		if i%3 == 0 {
			sc.Performers = []catalog.NamedRef{{ID: "p1"}}
		}
		if i%4 == 0 {
			sc.Tags = []catalog.NamedRef{{ID: "t1"}}
		}
		scenes = append(scenes, sc)
	}

	input := []DescriptorScenes{
		{Dimension: catalog.DimensionPerformers, Scenes: scenes[:30]},
		{Dimension: catalog.DimensionTags, Scenes: scenes[15:]},
	}
	idx := &OwnershipIndex{owned: ownedSet("s-03", "s-27", "s-44")}

	first := Merge(input, spec, idx, DefaultScoreWeights())
	second := Merge(input, spec, idx, DefaultScoreWeights())

	require.Equal(t, len(first), len(second))
	for i := range first {
		assert.Equal(t, first[i].Scene.ID, second[i].Scene.ID, "position %d", i)
		assert.Equal(t, first[i].Score, second[i].Score)
		assert.Equal(t, first[i].MatchedDimensions, second[i].MatchedDimensions)
	}
}

func TestMerge_CustomWeights(t *testing.T) {
	spec := domain.AnchorSpec{
		EntityRefs: []domain.EntityRef{
			{Type: domain.EntityStudio, ExternalID: "stu1"},
			{Type: domain.EntityTag, ExternalID: "t1"},
		},
	}
	scene := catalog.Scene{
		ID:     "s1",
		Studio: &catalog.NamedRef{ID: "stu1"},
		Tags:   []catalog.NamedRef{{ID: "t1"}},
	}

	merged := Merge([]DescriptorScenes{
		{Dimension: catalog.DimensionStudios, Scenes: []catalog.Scene{scene}},
	}, spec, emptyOwnership(), ScoreWeights{Studio: 10, Performer: 5, Tag: 2})

	require.Len(t, merged, 1)
	assert.Equal(t, 12, merged[0].Score)
}
