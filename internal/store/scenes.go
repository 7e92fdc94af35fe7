package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/scenescout/scenescout-server/internal/domain"
)

// CreateScene inserts an owned scene and its catalog links.
// Returns ErrAlreadyExists on duplicate ID.
func (s *Store) CreateScene(ctx context.Context, sc *domain.Scene) error {
	now := time.Now()
	if sc.CreatedAt.IsZero() {
		sc.CreatedAt = now
	}
	if sc.UpdatedAt.IsZero() {
		sc.UpdatedAt = now
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO scenes (id, title, release_date, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)`,
		sc.ID,
		sc.Title,
		sc.ReleaseDate,
		formatTime(sc.CreatedAt),
		formatTime(sc.UpdatedAt),
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return ErrAlreadyExists
		}
		return fmt.Errorf("insert scene: %w", err)
	}

	for _, link := range sc.CatalogLinks {
		if err := s.UpsertCatalogLink(ctx, sceneLinkType, sc.ID, link); err != nil {
			return err
		}
	}
	return nil
}

// GetScene fetches an owned scene by ID, including catalog links.
func (s *Store) GetScene(ctx context.Context, sceneID string) (*domain.Scene, error) {
	var (
		sc        domain.Scene
		release   sql.NullString
		createdAt string
		updatedAt string
	)

	err := s.db.QueryRowContext(ctx, `
		SELECT id, title, release_date, created_at, updated_at
		FROM scenes WHERE id = ?`, sceneID).
		Scan(&sc.ID, &sc.Title, &release, &createdAt, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get scene %s: %w", sceneID, err)
	}

	sc.ReleaseDate = release.String
	sc.CreatedAt, err = parseTime(createdAt)
	if err != nil {
		return nil, err
	}
	sc.UpdatedAt, err = parseTime(updatedAt)
	if err != nil {
		return nil, err
	}

	sc.CatalogLinks, err = s.listCatalogLinks(ctx, sceneLinkType, sc.ID)
	if err != nil {
		return nil, err
	}
	return &sc, nil
}

// ListOwnedExternalIDs returns the set of catalog scene IDs already present
// in the local library for the given endpoint. An empty library yields an
// empty set, never an error.
func (s *Store) ListOwnedExternalIDs(ctx context.Context, endpoint string) (map[string]struct{}, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT external_id FROM catalog_links
		WHERE entity_type = ? AND endpoint = ?`,
		sceneLinkType, endpoint)
	if err != nil {
		return nil, fmt.Errorf("list owned external ids: %w", err)
	}
	defer rows.Close()

	owned := make(map[string]struct{})
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		owned[id] = struct{}{}
	}
	return owned, rows.Err()
}

// CountScenes returns the number of owned scenes.
func (s *Store) CountScenes(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM scenes`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count scenes: %w", err)
	}
	return n, nil
}
