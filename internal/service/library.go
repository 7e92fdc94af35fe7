package service

import (
	"context"
	"log/slog"

	"github.com/scenescout/scenescout-server/internal/domain"
	"github.com/scenescout/scenescout-server/internal/errors"
	"github.com/scenescout/scenescout-server/internal/id"
	"github.com/scenescout/scenescout-server/internal/store"
)

// LibraryStore is the store surface the library service consumes.
type LibraryStore interface {
	GetEntity(ctx context.Context, t domain.EntityType, entityID string) (*domain.Entity, error)
	CreateEntity(ctx context.Context, e *domain.Entity) error
	SetFavorite(ctx context.Context, t domain.EntityType, entityID string, favorite bool) error
	CreateScene(ctx context.Context, sc *domain.Scene) error
	GetScene(ctx context.Context, sceneID string) (*domain.Scene, error)
	CountScenes(ctx context.Context) (int, error)
}

// LibraryService exposes read and seed operations on the local library.
type LibraryService struct {
	store  LibraryStore
	logger *slog.Logger
}

// NewLibraryService creates a library service.
func NewLibraryService(store LibraryStore, logger *slog.Logger) *LibraryService {
	return &LibraryService{store: store, logger: logger}
}

// GetEntity fetches an entity with its catalog links and favorite flag.
func (s *LibraryService) GetEntity(ctx context.Context, t domain.EntityType, entityID string) (*domain.Entity, error) {
	if !t.Valid() {
		return nil, errors.Validationf("unknown entity type %q", t)
	}
	entity, err := s.store.GetEntity(ctx, t, entityID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, errors.NotFoundf("%s %s not found", t, entityID)
		}
		return nil, errors.Wrap(err, errors.CodeInternal, "get entity")
	}
	return entity, nil
}

// SetFavorite flips the favorite flag on an entity.
func (s *LibraryService) SetFavorite(ctx context.Context, t domain.EntityType, entityID string, favorite bool) error {
	if !t.Valid() {
		return errors.Validationf("unknown entity type %q", t)
	}
	if err := s.store.SetFavorite(ctx, t, entityID, favorite); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return errors.NotFoundf("%s %s not found", t, entityID)
		}
		return errors.Wrap(err, errors.CodeInternal, "set favorite")
	}
	return nil
}

// SeedEntity is one entity to insert during seeding.
type SeedEntity struct {
	Type     domain.EntityType
	Name     string
	Favorite bool
	Links    []domain.CatalogLink
}

// SeedScene is one owned scene to insert during seeding.
type SeedScene struct {
	Title       string
	ReleaseDate string
	Links       []domain.CatalogLink
}

// SeedSummary reports what a seed run inserted.
type SeedSummary struct {
	EntityIDs []string
	SceneIDs  []string
}

// Seed bulk-inserts entities and owned scenes. Intended for bootstrapping a
// library and for integration tests; IDs are generated server-side.
func (s *LibraryService) Seed(ctx context.Context, entities []SeedEntity, scenes []SeedScene) (*SeedSummary, error) {
	summary := &SeedSummary{}

	for _, se := range entities {
		if !se.Type.Valid() {
			return nil, errors.Validationf("unknown entity type %q", se.Type)
		}
		if se.Name == "" {
			return nil, errors.Validation("entity name is required")
		}
		entity := &domain.Entity{
			ID:           id.MustGenerate(prefixFor(se.Type)),
			Type:         se.Type,
			Name:         se.Name,
			Favorite:     se.Favorite,
			CatalogLinks: se.Links,
		}
		if err := s.store.CreateEntity(ctx, entity); err != nil {
			return nil, errors.Wrapf(err, errors.CodeInternal, "seed %s %q", se.Type, se.Name)
		}
		summary.EntityIDs = append(summary.EntityIDs, entity.ID)
	}

	for _, sc := range scenes {
		if sc.Title == "" {
			return nil, errors.Validation("scene title is required")
		}
		scene := &domain.Scene{
			ID:           id.MustGenerate(id.PrefixScene),
			Title:        sc.Title,
			ReleaseDate:  sc.ReleaseDate,
			CatalogLinks: sc.Links,
		}
		if err := s.store.CreateScene(ctx, scene); err != nil {
			return nil, errors.Wrapf(err, errors.CodeInternal, "seed scene %q", sc.Title)
		}
		summary.SceneIDs = append(summary.SceneIDs, scene.ID)
	}

	s.logger.Info("library seeded",
		"entities", len(summary.EntityIDs),
		"scenes", len(summary.SceneIDs),
	)
	return summary, nil
}

func prefixFor(t domain.EntityType) string {
	switch t {
	case domain.EntityPerformer:
		return id.PrefixPerformer
	case domain.EntityStudio:
		return id.PrefixStudio
	default:
		return id.PrefixTag
	}
}
