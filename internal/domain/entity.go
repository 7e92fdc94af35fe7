package domain

import "time"

// EntityType identifies the kind of a local library entity.
type EntityType string

// Entity types known to the library.
const (
	EntityPerformer EntityType = "performer"
	EntityStudio    EntityType = "studio"
	EntityTag       EntityType = "tag"
)

// Valid reports whether the entity type is one of the known types.
func (t EntityType) Valid() bool {
	switch t {
	case EntityPerformer, EntityStudio, EntityTag:
		return true
	}
	return false
}

// EntityTypes lists all entity types in a stable order.
func EntityTypes() []EntityType {
	return []EntityType{EntityPerformer, EntityStudio, EntityTag}
}

// CatalogLink binds a local record to a record in a specific remote catalog.
type CatalogLink struct {
	Endpoint   string `json:"endpoint"`
	ExternalID string `json:"external_id"`
}

// Entity is a local library performer, studio, or tag.
type Entity struct {
	ID           string        `json:"id"`
	Type         EntityType    `json:"type"`
	Name         string        `json:"name"`
	Favorite     bool          `json:"favorite"`
	SceneCount   int           `json:"scene_count"`
	CatalogLinks []CatalogLink `json:"catalog_links,omitempty"`
	CreatedAt    time.Time     `json:"created_at"`
	UpdatedAt    time.Time     `json:"updated_at"`
}

// LinkFor returns the entity's external ID for the given catalog endpoint.
func (e *Entity) LinkFor(endpoint string) (string, bool) {
	for _, l := range e.CatalogLinks {
		if l.Endpoint == endpoint {
			return l.ExternalID, true
		}
	}
	return "", false
}

// Scene is a locally owned scene. Only its catalog links matter to the
// discovery engine; media details live elsewhere.
type Scene struct {
	ID           string        `json:"id"`
	Title        string        `json:"title"`
	ReleaseDate  string        `json:"release_date,omitempty"`
	CatalogLinks []CatalogLink `json:"catalog_links,omitempty"`
	CreatedAt    time.Time     `json:"created_at"`
	UpdatedAt    time.Time     `json:"updated_at"`
}
