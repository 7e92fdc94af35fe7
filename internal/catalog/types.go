package catalog

import (
	"github.com/scenescout/scenescout-server/internal/domain"
)

// Dimension is the relation the remote catalog filters scenes by.
// The remote API supports at most one relation filter per call.
type Dimension string

// Filter dimensions accepted by the remote catalog.
const (
	DimensionPerformers Dimension = "performers"
	DimensionStudios    Dimension = "studios"
	DimensionTags       Dimension = "tags"
	// DimensionNone is an unscoped browse (no relation filter).
	DimensionNone Dimension = ""
)

// DimensionFor maps a local entity type to its catalog filter dimension.
func DimensionFor(t domain.EntityType) Dimension {
	switch t {
	case domain.EntityPerformer:
		return DimensionPerformers
	case domain.EntityStudio:
		return DimensionStudios
	case domain.EntityTag:
		return DimensionTags
	}
	return DimensionNone
}

// EntityType maps a dimension back to its local entity type.
func (d Dimension) EntityType() (domain.EntityType, bool) {
	switch d {
	case DimensionPerformers:
		return domain.EntityPerformer, true
	case DimensionStudios:
		return domain.EntityStudio, true
	case DimensionTags:
		return domain.EntityTag, true
	}
	return "", false
}

// Modifier is the inclusion semantics of a relation filter.
type Modifier string

// Modifiers accepted by the remote catalog.
const (
	ModifierIncludes Modifier = "INCLUDES"
	ModifierExcludes Modifier = "EXCLUDES"
)

// SceneQuery describes one page fetch against the remote catalog.
// EntityIDs within one query combine with includes-any (OR) semantics.
type SceneQuery struct {
	Dimension Dimension
	EntityIDs []string
	Modifier  Modifier
	Page      int
	PerPage   int
	Sort      domain.SortField
	Direction domain.SortDirection
}

// NamedRef is a catalog entity reference on a scene.
type NamedRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Scene is a scene as known by the remote catalog.
// It is an immutable snapshot and is never mutated locally.
type Scene struct {
	ID              string     `json:"id"`
	Title           string     `json:"title"`
	ReleaseDate     string     `json:"release_date"`
	DurationSeconds int        `json:"duration"`
	ThumbnailURL    string     `json:"image_url"`
	Studio          *NamedRef  `json:"studio"`
	Performers      []NamedRef `json:"performers"`
	Tags            []NamedRef `json:"tags"`
}

// HasTag reports whether the scene carries the given external tag ID.
func (s *Scene) HasTag(externalID string) bool {
	for _, t := range s.Tags {
		if t.ID == externalID {
			return true
		}
	}
	return false
}

// HasAnyTag reports whether the scene carries any of the given tag IDs.
func (s *Scene) HasAnyTag(externalIDs map[string]struct{}) bool {
	for _, t := range s.Tags {
		if _, ok := externalIDs[t.ID]; ok {
			return true
		}
	}
	return false
}

// Page is one fetch from the remote catalog.
type Page struct {
	Items      []Scene
	TotalCount int
	PageNumber int
	IsLast     bool
}
