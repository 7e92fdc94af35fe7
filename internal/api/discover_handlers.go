package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/scenescout/scenescout-server/internal/catalog"
	"github.com/scenescout/scenescout-server/internal/discovery"
	"github.com/scenescout/scenescout-server/internal/domain"
	"github.com/scenescout/scenescout-server/internal/service"
)

func (s *Server) registerDiscoverRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "discoverScenes",
		Method:      http.MethodPost,
		Path:        "/api/v1/discover",
		Summary:     "Discover scenes",
		Description: "Queries the remote catalog for scenes related to the given anchors that are missing from the local library",
		Tags:        []string{"Discovery"},
	}, s.handleDiscover)

	huma.Register(s.api, huma.Operation{
		OperationID: "switchEndpoint",
		Method:      http.MethodPut,
		Path:        "/api/v1/discover/endpoint",
		Summary:     "Switch catalog endpoint",
		Description: "Rebinds discovery to a different catalog endpoint, dropping cached state",
		Tags:        []string{"Discovery"},
	}, s.handleSwitchEndpoint)
}

// === DTOs ===

type AnchorRequest struct {
	Type string `json:"type" validate:"required,oneof=performer studio tag" doc:"Entity type: performer, studio, or tag"`
	ID   string `json:"id" validate:"required" doc:"Local entity ID"`
}

type DiscoverRequestBody struct {
	Anchors             []AnchorRequest `json:"anchors,omitempty" validate:"dive" doc:"Anchor entities to discover around; empty means unscoped browse"`
	ExcludedExternalIDs []string        `json:"excluded_external_ids,omitempty" doc:"External tag IDs to exclude"`
	FavoritePerformers  bool            `json:"favorite_performers,omitempty" doc:"Only scenes featuring a favorite performer"`
	FavoriteStudios     bool            `json:"favorite_studios,omitempty" doc:"Only scenes from a favorite studio"`
	FavoriteTags        bool            `json:"favorite_tags,omitempty" doc:"Only scenes carrying a favorite tag"`
	SortBy              string          `json:"sort_by,omitempty" validate:"omitempty,oneof=date title created_at updated_at trending" doc:"Remote sort field"`
	SortDirection       string          `json:"sort_direction,omitempty" validate:"omitempty,oneof=asc desc" doc:"Remote sort direction"`
	PageSize            int             `json:"page_size,omitempty" validate:"omitempty,gte=1,lte=100" doc:"Response page size"`
	Cursor              string          `json:"cursor,omitempty" doc:"Opaque cursor from a previous response"`
}

type DiscoverInput struct {
	Body DiscoverRequestBody
}

type NamedRefResponse struct {
	ID   string `json:"id" doc:"External ID"`
	Name string `json:"name,omitempty" doc:"Display name"`
}

type SceneResponse struct {
	ExternalID      string             `json:"external_id" doc:"Scene ID in the remote catalog"`
	Title           string             `json:"title" doc:"Scene title"`
	ReleaseDate     string             `json:"release_date,omitempty" doc:"Release date (YYYY-MM-DD)"`
	DurationSeconds int                `json:"duration_seconds,omitempty" doc:"Duration in seconds"`
	ThumbnailURL    string             `json:"thumbnail_url,omitempty" doc:"Thumbnail image URL"`
	Studio          *NamedRefResponse  `json:"studio,omitempty" doc:"Producing studio"`
	Performers      []NamedRefResponse `json:"performers,omitempty" doc:"Featured performers"`
	Tags            []NamedRefResponse `json:"tags,omitempty" doc:"Scene tags"`
}

type DiscoverResultResponse struct {
	Scene             SceneResponse `json:"scene" doc:"The discovered scene"`
	Score             int           `json:"score" doc:"Relevance score"`
	MatchedDimensions []string      `json:"matched_dimensions,omitempty" doc:"Anchor types that produced this scene"`
	AlreadyOwned      bool          `json:"already_owned" doc:"Whether a matching scene exists locally"`
}

type DiscoverResponse struct {
	Results        []DiscoverResultResponse `json:"results" doc:"Ranked discovery results"`
	HasMore        bool                     `json:"has_more" doc:"Whether more pages exist"`
	Total          int                      `json:"total" doc:"Total results known"`
	TotalIsExact   bool                     `json:"total_is_exact" doc:"Whether total is exact or a lower bound"`
	NextCursor     string                   `json:"next_cursor,omitempty" doc:"Cursor for the next page"`
	Warnings       []string                 `json:"warnings,omitempty" doc:"Non-fatal issues encountered"`
	NoUsableAnchor bool                     `json:"no_usable_anchor,omitempty" doc:"Anchors were given but none is linked to the catalog"`
	RequestID      string                   `json:"request_id" doc:"Correlation ID for this request"`
}

type DiscoverOutput struct {
	Body DiscoverResponse
}

func (s *Server) handleDiscover(ctx context.Context, input *DiscoverInput) (*DiscoverOutput, error) {
	if err := s.validator.Validate(input.Body); err != nil {
		return nil, err
	}

	req := service.DiscoverRequest{
		ExcludedExternalIDs: input.Body.ExcludedExternalIDs,
		FavoriteFilters: domain.FavoriteFilters{
			Performers: input.Body.FavoritePerformers,
			Studios:    input.Body.FavoriteStudios,
			Tags:       input.Body.FavoriteTags,
		},
		Sort: domain.SortSpec{
			Field:     domain.SortField(input.Body.SortBy),
			Direction: domain.SortDirection(input.Body.SortDirection),
		},
		PageSize: input.Body.PageSize,
		Cursor:   input.Body.Cursor,
	}
	for _, a := range input.Body.Anchors {
		req.Anchors = append(req.Anchors, service.AnchorInput{
			Type:    domain.EntityType(a.Type),
			LocalID: a.ID,
		})
	}

	result, err := s.services.Discovery.Discover(ctx, req)
	if err != nil {
		s.logger.Error("discovery request failed", "error", err)
		return nil, err
	}

	return &DiscoverOutput{Body: toDiscoverResponse(result)}, nil
}

type SwitchEndpointRequest struct {
	Endpoint string `json:"endpoint" validate:"required,url" doc:"New catalog endpoint URL"`
}

type SwitchEndpointInput struct {
	Body SwitchEndpointRequest
}

type SwitchEndpointResponse struct {
	Endpoint string `json:"endpoint" doc:"The now-active catalog endpoint"`
}

type SwitchEndpointOutput struct {
	Body SwitchEndpointResponse
}

func (s *Server) handleSwitchEndpoint(ctx context.Context, input *SwitchEndpointInput) (*SwitchEndpointOutput, error) {
	if err := s.validator.Validate(input.Body); err != nil {
		return nil, err
	}

	if s.services.Catalog != nil {
		s.services.Catalog.SetEndpoint(input.Body.Endpoint)
	}
	s.services.Discovery.SwitchEndpoint(input.Body.Endpoint)
	s.logger.Info("catalog endpoint switched", "endpoint", input.Body.Endpoint)

	return &SwitchEndpointOutput{
		Body: SwitchEndpointResponse{Endpoint: input.Body.Endpoint},
	}, nil
}

// === Mapping ===

func toDiscoverResponse(result *service.DiscoverResult) DiscoverResponse {
	resp := DiscoverResponse{
		Results:        make([]DiscoverResultResponse, 0, len(result.Page.Items)),
		HasMore:        result.Page.HasMore,
		Total:          result.Page.TotalKnown,
		TotalIsExact:   result.Page.TotalIsExact,
		NextCursor:     result.Page.NextCursor,
		Warnings:       result.Warnings,
		NoUsableAnchor: result.NoUsableAnchor,
		RequestID:      result.RequestID,
	}
	for _, item := range result.Page.Items {
		resp.Results = append(resp.Results, toResultResponse(item))
	}
	return resp
}

func toResultResponse(item discovery.ScoredResult) DiscoverResultResponse {
	dims := make([]string, 0, len(item.MatchedDimensions))
	for _, d := range item.MatchedDimensions {
		dims = append(dims, string(d))
	}
	return DiscoverResultResponse{
		Scene:             toSceneResponse(item.Scene),
		Score:             item.Score,
		MatchedDimensions: dims,
		AlreadyOwned:      item.AlreadyOwned,
	}
}

func toSceneResponse(sc catalog.Scene) SceneResponse {
	resp := SceneResponse{
		ExternalID:      sc.ID,
		Title:           sc.Title,
		ReleaseDate:     sc.ReleaseDate,
		DurationSeconds: sc.DurationSeconds,
		ThumbnailURL:    sc.ThumbnailURL,
		Performers:      toNamedRefs(sc.Performers),
		Tags:            toNamedRefs(sc.Tags),
	}
	if sc.Studio != nil {
		resp.Studio = &NamedRefResponse{ID: sc.Studio.ID, Name: sc.Studio.Name}
	}
	return resp
}

func toNamedRefs(refs []catalog.NamedRef) []NamedRefResponse {
	if len(refs) == 0 {
		return nil
	}
	out := make([]NamedRefResponse, 0, len(refs))
	for _, r := range refs {
		out = append(out, NamedRefResponse{ID: r.ID, Name: r.Name})
	}
	return out
}
