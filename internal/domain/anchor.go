package domain

// SortField selects the remote catalog ordering for discovery queries.
type SortField string

// Sort fields accepted by the remote catalog.
const (
	SortDate      SortField = "date"
	SortTitle     SortField = "title"
	SortCreatedAt SortField = "created_at"
	SortUpdatedAt SortField = "updated_at"
	SortTrending  SortField = "trending"
)

// Valid reports whether the sort field is one the remote catalog accepts.
func (f SortField) Valid() bool {
	switch f {
	case SortDate, SortTitle, SortCreatedAt, SortUpdatedAt, SortTrending:
		return true
	}
	return false
}

// SortDirection is the order direction for a sort field.
type SortDirection string

// Sort directions.
const (
	SortAsc  SortDirection = "asc"
	SortDesc SortDirection = "desc"
)

// SortSpec is a sort field plus direction.
type SortSpec struct {
	Field     SortField     `json:"field"`
	Direction SortDirection `json:"direction"`
}

// DefaultSort returns the default discovery ordering: newest releases first.
func DefaultSort() SortSpec {
	return SortSpec{Field: SortDate, Direction: SortDesc}
}

// EntityRef names one anchor entity: a local entity plus its resolved
// external ID for the chosen catalog endpoint.
type EntityRef struct {
	Type       EntityType `json:"type"`
	LocalID    string     `json:"local_id"`
	ExternalID string     `json:"external_id"`
}

// FavoriteFilters requires candidate scenes to reference at least one
// locally-favorited, endpoint-linked entity of each enabled type.
type FavoriteFilters struct {
	Performers bool `json:"performers"`
	Studios    bool `json:"studios"`
	Tags       bool `json:"tags"`
}

// Any reports whether at least one favorite filter is enabled.
func (f FavoriteFilters) Any() bool {
	return f.Performers || f.Studios || f.Tags
}

// Enabled reports whether the filter for the given entity type is enabled.
func (f FavoriteFilters) Enabled(t EntityType) bool {
	switch t {
	case EntityPerformer:
		return f.Performers
	case EntityStudio:
		return f.Studios
	case EntityTag:
		return f.Tags
	}
	return false
}

// ActiveTypes lists the entity types whose favorite filter is enabled,
// in stable order.
func (f FavoriteFilters) ActiveTypes() []EntityType {
	var types []EntityType
	for _, t := range EntityTypes() {
		if f.Enabled(t) {
			types = append(types, t)
		}
	}
	return types
}

// AnchorSpec is the basis of one discovery request.
//
// An AnchorSpec with no entity refs and no favorite filters denotes an
// unscoped browse of the remote catalog; that is valid, not an error.
type AnchorSpec struct {
	EntityRefs          []EntityRef     `json:"entity_refs,omitempty"`
	ExcludedExternalIDs []string        `json:"excluded_external_ids,omitempty"`
	FavoriteFilters     FavoriteFilters `json:"favorite_filters"`
	Sort                SortSpec        `json:"sort"`
}

// Unscoped reports whether the spec denotes an unscoped browse.
func (s AnchorSpec) Unscoped() bool {
	return len(s.EntityRefs) == 0 && !s.FavoriteFilters.Any()
}

// RefsByType groups entity refs by type, preserving order within each group.
func (s AnchorSpec) RefsByType() map[EntityType][]EntityRef {
	grouped := make(map[EntityType][]EntityRef)
	for _, ref := range s.EntityRefs {
		grouped[ref.Type] = append(grouped[ref.Type], ref)
	}
	return grouped
}
