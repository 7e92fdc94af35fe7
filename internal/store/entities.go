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

// entityColumns is the ordered list of columns selected in entity queries.
// Must match the scan order in scanEntity.
const entityColumns = `id, name, favorite, scene_count, created_at, updated_at`

// scanEntity scans a sql.Row (or sql.Rows via its Scan method) into a
// domain.Entity. Catalog links are loaded separately.
func scanEntity(scanner interface{ Scan(dest ...any) error }, t domain.EntityType) (*domain.Entity, error) {
	var (
		e         domain.Entity
		favorite  int
		createdAt string
		updatedAt string
	)

	err := scanner.Scan(
		&e.ID,
		&e.Name,
		&favorite,
		&e.SceneCount,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	e.Type = t
	e.Favorite = favorite != 0

	e.CreatedAt, err = parseTime(createdAt)
	if err != nil {
		return nil, err
	}
	e.UpdatedAt, err = parseTime(updatedAt)
	if err != nil {
		return nil, err
	}

	return &e, nil
}

// CreateEntity inserts a new entity and its catalog links.
// Returns ErrAlreadyExists on duplicate ID.
func (s *Store) CreateEntity(ctx context.Context, e *domain.Entity) error {
	table, err := tableFor(e.Type)
	if err != nil {
		return err
	}

	now := time.Now()
	if e.CreatedAt.IsZero() {
		e.CreatedAt = now
	}
	if e.UpdatedAt.IsZero() {
		e.UpdatedAt = now
	}

	favorite := 0
	if e.Favorite {
		favorite = 1
	}

	_, err = s.db.ExecContext(ctx, fmt.Sprintf(`
		INSERT INTO %s (id, name, favorite, scene_count, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)`, table),
		e.ID,
		e.Name,
		favorite,
		e.SceneCount,
		formatTime(e.CreatedAt),
		formatTime(e.UpdatedAt),
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return ErrAlreadyExists
		}
		return fmt.Errorf("insert %s: %w", table, err)
	}

	for _, link := range e.CatalogLinks {
		if err := s.UpsertCatalogLink(ctx, string(e.Type), e.ID, link); err != nil {
			return err
		}
	}
	return nil
}

// GetEntity fetches an entity by type and ID, including its catalog links.
// Returns ErrNotFound if no such entity exists.
func (s *Store) GetEntity(ctx context.Context, t domain.EntityType, entityID string) (*domain.Entity, error) {
	table, err := tableFor(t)
	if err != nil {
		return nil, err
	}

	row := s.db.QueryRowContext(ctx, fmt.Sprintf(
		`SELECT %s FROM %s WHERE id = ?`, entityColumns, table), entityID)

	e, err := scanEntity(row, t)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get %s %s: %w", t, entityID, err)
	}

	e.CatalogLinks, err = s.listCatalogLinks(ctx, string(t), entityID)
	if err != nil {
		return nil, err
	}
	return e, nil
}

// SetFavorite flips the favorite flag on an entity.
func (s *Store) SetFavorite(ctx context.Context, t domain.EntityType, entityID string, favorite bool) error {
	table, err := tableFor(t)
	if err != nil {
		return err
	}

	fav := 0
	if favorite {
		fav = 1
	}

	res, err := s.db.ExecContext(ctx, fmt.Sprintf(
		`UPDATE %s SET favorite = ?, updated_at = ? WHERE id = ?`, table),
		fav, formatTime(time.Now()), entityID)
	if err != nil {
		return fmt.Errorf("set favorite on %s %s: %w", t, entityID, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// UpsertCatalogLink stores or replaces a catalog link for an entity or scene.
func (s *Store) UpsertCatalogLink(ctx context.Context, entityType, entityID string, link domain.CatalogLink) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO catalog_links (entity_type, entity_id, endpoint, external_id)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(entity_type, entity_id, endpoint)
		DO UPDATE SET external_id = excluded.external_id`,
		entityType, entityID, link.Endpoint, link.ExternalID)
	if err != nil {
		return fmt.Errorf("upsert catalog link: %w", err)
	}
	return nil
}

// listCatalogLinks loads all catalog links for one record.
func (s *Store) listCatalogLinks(ctx context.Context, entityType, entityID string) ([]domain.CatalogLink, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT endpoint, external_id FROM catalog_links
		WHERE entity_type = ? AND entity_id = ?
		ORDER BY endpoint`,
		entityType, entityID)
	if err != nil {
		return nil, fmt.Errorf("list catalog links: %w", err)
	}
	defer rows.Close()

	var links []domain.CatalogLink
	for rows.Next() {
		var l domain.CatalogLink
		if err := rows.Scan(&l.Endpoint, &l.ExternalID); err != nil {
			return nil, err
		}
		links = append(links, l)
	}
	return links, rows.Err()
}

// ListFavoriteExternalIDs returns the external IDs of favorited entities of
// the given type that carry a catalog link for the endpoint, plus the total
// favorite-with-link count before truncation.
//
// Ordering is type-specific: performers by recent activity, studios and tags
// by library content count.
func (s *Store) ListFavoriteExternalIDs(ctx context.Context, t domain.EntityType, endpoint string, limit int) ([]string, int, error) {
	table, err := tableFor(t)
	if err != nil {
		return nil, 0, err
	}

	orderBy := "e.scene_count DESC, e.id ASC"
	if t == domain.EntityPerformer {
		orderBy = "e.updated_at DESC, e.id ASC"
	}

	var total int
	err = s.db.QueryRowContext(ctx, fmt.Sprintf(`
		SELECT COUNT(*)
		FROM %s e
		JOIN catalog_links cl
		  ON cl.entity_type = ? AND cl.entity_id = e.id AND cl.endpoint = ?
		WHERE e.favorite = 1`, table),
		string(t), endpoint).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("count favorite %s: %w", table, err)
	}

	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(`
		SELECT cl.external_id
		FROM %s e
		JOIN catalog_links cl
		  ON cl.entity_type = ? AND cl.entity_id = e.id AND cl.endpoint = ?
		WHERE e.favorite = 1
		ORDER BY %s
		LIMIT ?`, table, orderBy),
		string(t), endpoint, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("list favorite %s: %w", table, err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, 0, err
		}
		ids = append(ids, id)
	}
	return ids, total, rows.Err()
}
