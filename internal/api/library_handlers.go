package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/scenescout/scenescout-server/internal/domain"
	"github.com/scenescout/scenescout-server/internal/service"
)

func (s *Server) registerLibraryRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "seedLibrary",
		Method:      http.MethodPost,
		Path:        "/api/v1/library/seed",
		Summary:     "Seed the library",
		Description: "Bulk-inserts entities and owned scenes into the local library",
		Tags:        []string{"Library"},
	}, s.handleSeedLibrary)

	huma.Register(s.api, huma.Operation{
		OperationID: "libraryStats",
		Method:      http.MethodGet,
		Path:        "/api/v1/library/stats",
		Summary:     "Library statistics",
		Description: "Returns counts for the local library",
		Tags:        []string{"Library"},
	}, s.handleLibraryStats)
}

// === DTOs ===

type SeedLinkRequest struct {
	Endpoint   string `json:"endpoint" validate:"required,url" doc:"Catalog endpoint URL"`
	ExternalID string `json:"external_id" validate:"required" doc:"ID in that catalog"`
}

type SeedEntityRequest struct {
	Type     string            `json:"type" validate:"required,oneof=performer studio tag" doc:"Entity type"`
	Name     string            `json:"name" validate:"required,min=1,max=200" doc:"Display name"`
	Favorite bool              `json:"favorite,omitempty" doc:"Favorite flag"`
	Links    []SeedLinkRequest `json:"links,omitempty" validate:"dive" doc:"Catalog links"`
}

type SeedSceneRequest struct {
	Title       string            `json:"title" validate:"required,min=1,max=500" doc:"Scene title"`
	ReleaseDate string            `json:"release_date,omitempty" doc:"Release date (YYYY-MM-DD)"`
	Links       []SeedLinkRequest `json:"links,omitempty" validate:"dive" doc:"Catalog links"`
}

type SeedRequest struct {
	Entities []SeedEntityRequest `json:"entities,omitempty" validate:"dive" doc:"Entities to insert"`
	Scenes   []SeedSceneRequest  `json:"scenes,omitempty" validate:"dive" doc:"Owned scenes to insert"`
}

type SeedInput struct {
	Body SeedRequest
}

type SeedResponse struct {
	EntityIDs []string `json:"entity_ids,omitempty" doc:"IDs assigned to inserted entities"`
	SceneIDs  []string `json:"scene_ids,omitempty" doc:"IDs assigned to inserted scenes"`
}

type SeedOutput struct {
	Body SeedResponse
}

func (s *Server) handleSeedLibrary(ctx context.Context, input *SeedInput) (*SeedOutput, error) {
	if err := s.validator.Validate(input.Body); err != nil {
		return nil, err
	}

	entities := make([]service.SeedEntity, 0, len(input.Body.Entities))
	for _, e := range input.Body.Entities {
		entities = append(entities, service.SeedEntity{
			Type:     domain.EntityType(e.Type),
			Name:     e.Name,
			Favorite: e.Favorite,
			Links:    toCatalogLinks(e.Links),
		})
	}

	scenes := make([]service.SeedScene, 0, len(input.Body.Scenes))
	for _, sc := range input.Body.Scenes {
		scenes = append(scenes, service.SeedScene{
			Title:       sc.Title,
			ReleaseDate: sc.ReleaseDate,
			Links:       toCatalogLinks(sc.Links),
		})
	}

	summary, err := s.services.Library.Seed(ctx, entities, scenes)
	if err != nil {
		return nil, err
	}

	return &SeedOutput{Body: SeedResponse{
		EntityIDs: summary.EntityIDs,
		SceneIDs:  summary.SceneIDs,
	}}, nil
}

type LibraryStatsResponse struct {
	SceneCount int `json:"scene_count" doc:"Owned scenes in the library"`
}

type LibraryStatsOutput struct {
	Body LibraryStatsResponse
}

func (s *Server) handleLibraryStats(ctx context.Context, _ *struct{}) (*LibraryStatsOutput, error) {
	count, err := s.store.CountScenes(ctx)
	if err != nil {
		return nil, err
	}
	return &LibraryStatsOutput{Body: LibraryStatsResponse{SceneCount: count}}, nil
}

func toCatalogLinks(links []SeedLinkRequest) []domain.CatalogLink {
	if len(links) == 0 {
		return nil
	}
	out := make([]domain.CatalogLink, 0, len(links))
	for _, l := range links {
		out = append(out, domain.CatalogLink{
			Endpoint:   l.Endpoint,
			ExternalID: l.ExternalID,
		})
	}
	return out
}
