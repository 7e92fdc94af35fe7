package api

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/scenescout/scenescout-server/internal/domain"
)

func (s *Server) registerEntityRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "getEntity",
		Method:      http.MethodGet,
		Path:        "/api/v1/entities/{type}/{id}",
		Summary:     "Get entity",
		Description: "Returns a performer, studio, or tag with its catalog links",
		Tags:        []string{"Entities"},
	}, s.handleGetEntity)

	huma.Register(s.api, huma.Operation{
		OperationID: "setEntityFavorite",
		Method:      http.MethodPut,
		Path:        "/api/v1/entities/{type}/{id}/favorite",
		Summary:     "Set favorite flag",
		Description: "Marks or unmarks an entity as a favorite",
		Tags:        []string{"Entities"},
	}, s.handleSetFavorite)
}

// === DTOs ===

type CatalogLinkResponse struct {
	Endpoint   string `json:"endpoint" doc:"Catalog endpoint URL"`
	ExternalID string `json:"external_id" doc:"Entity ID in that catalog"`
}

type EntityResponse struct {
	ID           string                `json:"id" doc:"Local entity ID"`
	Type         string                `json:"type" doc:"Entity type: performer, studio, or tag"`
	Name         string                `json:"name" doc:"Display name"`
	Favorite     bool                  `json:"favorite" doc:"Favorite flag"`
	SceneCount   int                   `json:"scene_count" doc:"Owned scenes referencing this entity"`
	CatalogLinks []CatalogLinkResponse `json:"catalog_links,omitempty" doc:"Links into remote catalogs"`
	CreatedAt    time.Time             `json:"created_at" doc:"Creation time"`
	UpdatedAt    time.Time             `json:"updated_at" doc:"Last update time"`
}

type GetEntityInput struct {
	Type string `path:"type" doc:"Entity type: performer, studio, or tag"`
	ID   string `path:"id" doc:"Local entity ID"`
}

type EntityOutput struct {
	Body EntityResponse
}

func (s *Server) handleGetEntity(ctx context.Context, input *GetEntityInput) (*EntityOutput, error) {
	entity, err := s.services.Library.GetEntity(ctx, domain.EntityType(input.Type), input.ID)
	if err != nil {
		return nil, err
	}
	return &EntityOutput{Body: toEntityResponse(entity)}, nil
}

type SetFavoriteRequest struct {
	Favorite bool `json:"favorite" doc:"New favorite state"`
}

type SetFavoriteInput struct {
	Type string `path:"type" doc:"Entity type: performer, studio, or tag"`
	ID   string `path:"id" doc:"Local entity ID"`
	Body SetFavoriteRequest
}

func (s *Server) handleSetFavorite(ctx context.Context, input *SetFavoriteInput) (*EntityOutput, error) {
	entityType := domain.EntityType(input.Type)
	if err := s.services.Library.SetFavorite(ctx, entityType, input.ID, input.Body.Favorite); err != nil {
		return nil, err
	}
	entity, err := s.services.Library.GetEntity(ctx, entityType, input.ID)
	if err != nil {
		return nil, err
	}
	return &EntityOutput{Body: toEntityResponse(entity)}, nil
}

func toEntityResponse(e *domain.Entity) EntityResponse {
	resp := EntityResponse{
		ID:         e.ID,
		Type:       string(e.Type),
		Name:       e.Name,
		Favorite:   e.Favorite,
		SceneCount: e.SceneCount,
		CreatedAt:  e.CreatedAt,
		UpdatedAt:  e.UpdatedAt,
	}
	for _, link := range e.CatalogLinks {
		resp.CatalogLinks = append(resp.CatalogLinks, CatalogLinkResponse{
			Endpoint:   link.Endpoint,
			ExternalID: link.ExternalID,
		})
	}
	return resp
}
