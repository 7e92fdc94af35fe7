// Package discovery implements the scene discovery and reconciliation engine:
// planning remote queries from anchor entities, fetching pages until a
// post-filter quota is met, and merging, scoring, and presenting the results.
package discovery

import (
	"github.com/scenescout/scenescout-server/internal/catalog"
	"github.com/scenescout/scenescout-server/internal/domain"
)

// QueryDescriptor is one concrete remote query.
//
// The remote API supports only one relation-type filter per call, so the
// planner emits at most one descriptor per entity type; multiple entities of
// the same type combine with includes-any (OR) semantics inside one
// descriptor.
type QueryDescriptor struct {
	Dimension           catalog.Dimension
	Values              []string
	ExcludedExternalIDs []string
	Sort                domain.SortSpec
}

// Unscoped reports whether the descriptor carries no relation filter.
func (d QueryDescriptor) Unscoped() bool {
	return d.Dimension == catalog.DimensionNone
}

// Plan builds the remote query descriptors for an anchor spec.
// Pure function, no I/O.
//
// Entity refs are grouped by type, one descriptor per non-empty group, in
// stable type order. An empty ref list yields exactly one unscoped
// descriptor carrying only the exclusion list and sort order.
func Plan(spec domain.AnchorSpec) []QueryDescriptor {
	sort := spec.Sort
	if sort.Field == "" {
		sort = domain.DefaultSort()
	}

	if len(spec.EntityRefs) == 0 {
		return []QueryDescriptor{{
			Dimension:           catalog.DimensionNone,
			ExcludedExternalIDs: spec.ExcludedExternalIDs,
			Sort:                sort,
		}}
	}

	grouped := spec.RefsByType()

	var descriptors []QueryDescriptor
	for _, t := range domain.EntityTypes() {
		refs := grouped[t]
		if len(refs) == 0 {
			continue
		}
		values := make([]string, 0, len(refs))
		for _, ref := range refs {
			values = append(values, ref.ExternalID)
		}
		descriptors = append(descriptors, QueryDescriptor{
			Dimension:           catalog.DimensionFor(t),
			Values:              values,
			ExcludedExternalIDs: spec.ExcludedExternalIDs,
			Sort:                sort,
		})
	}
	return descriptors
}
