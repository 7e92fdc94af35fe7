// Package service orchestrates the discovery engine over the local library
// store and the remote catalog client.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/scenescout/scenescout-server/internal/catalog"
	"github.com/scenescout/scenescout-server/internal/discovery"
	"github.com/scenescout/scenescout-server/internal/domain"
	"github.com/scenescout/scenescout-server/internal/errors"
	"github.com/scenescout/scenescout-server/internal/id"
)

// DiscoveryStore is the slice of the library store the discovery service
// consumes.
type DiscoveryStore interface {
	discovery.LibraryReader
	GetEntity(ctx context.Context, t domain.EntityType, entityID string) (*domain.Entity, error)
}

// DiscoveryConfig tunes one discovery deployment.
type DiscoveryConfig struct {
	// Endpoint is the remote catalog endpoint. Empty means discovery is
	// unconfigured and every request fails with NO_ENDPOINT.
	Endpoint string
	// PerPage is the remote page size per fetch.
	PerPage int
	// TargetCount is the post-filter quota per descriptor.
	TargetCount int
	// MaxPages bounds pages fetched per descriptor.
	MaxPages int
	// FavoriteLimit truncates each favorite set.
	FavoriteLimit int
	// ExcludedTagIDs is the global denylist of external tag IDs.
	ExcludedTagIDs []string
	// Weights are the merge scoring weights.
	Weights discovery.ScoreWeights
}

func (c *DiscoveryConfig) applyDefaults() {
	if c.PerPage <= 0 {
		c.PerPage = 25
	}
	if c.TargetCount <= 0 {
		c.TargetCount = 200
	}
	if c.MaxPages <= 0 {
		c.MaxPages = 20
	}
	if c.FavoriteLimit <= 0 {
		c.FavoriteLimit = 100
	}
	if c.Weights == (discovery.ScoreWeights{}) {
		c.Weights = discovery.DefaultScoreWeights()
	}
}

// AnchorInput names one anchor entity by local ID.
type AnchorInput struct {
	Type    domain.EntityType
	LocalID string
}

// DiscoverRequest is one page request against the discovery engine.
type DiscoverRequest struct {
	Anchors             []AnchorInput
	ExcludedExternalIDs []string
	FavoriteFilters     domain.FavoriteFilters
	Sort                domain.SortSpec
	PageSize            int
	Cursor              string
}

// DiscoverResult is the read model returned to the API layer.
type DiscoverResult struct {
	Page     *discovery.PageView
	Warnings []string
	// NoUsableAnchor is set when anchors were provided but none resolved to
	// a catalog link for the endpoint and no favorite filter is active.
	// Distinct from an unscoped browse, which provides no anchors at all.
	NoUsableAnchor bool
	RequestID      string
}

// DiscoveryService runs discovery requests: plan, fetch concurrently per
// descriptor, merge, present.
type DiscoveryService struct {
	store   DiscoveryStore
	fetcher discovery.PageFetcher
	cfg     DiscoveryConfig
	logger  *slog.Logger

	mu      sync.Mutex
	session *discovery.Session
}

// NewDiscoveryService creates a discovery service.
func NewDiscoveryService(store DiscoveryStore, fetcher discovery.PageFetcher, cfg DiscoveryConfig, logger *slog.Logger) *DiscoveryService {
	cfg.applyDefaults()
	return &DiscoveryService{
		store:   store,
		fetcher: fetcher,
		cfg:     cfg,
		logger:  logger,
		session: discovery.NewSession(store, cfg.Endpoint, cfg.FavoriteLimit),
	}
}

// SwitchEndpoint rebinds the service to a new catalog endpoint, dropping the
// session caches. The caller is responsible for pointing the page fetcher at
// the same endpoint.
func (s *DiscoveryService) SwitchEndpoint(endpoint string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cfg.Endpoint = endpoint
	s.session.Reset(endpoint)
}

// HasEndpoint reports whether a catalog endpoint is configured.
func (s *DiscoveryService) HasEndpoint() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cfg.Endpoint != ""
}

// endpoint returns the current catalog endpoint.
func (s *DiscoveryService) endpoint() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cfg.Endpoint
}

// Discover runs one discovery page request.
//
// Retryable remote errors never abort the request outright: each descriptor
// keeps its partial results and the response carries a "results may be
// incomplete" warning. Only a request where every descriptor failed before
// collecting anything returns an error.
func (s *DiscoveryService) Discover(ctx context.Context, req DiscoverRequest) (*DiscoverResult, error) {
	endpoint := s.endpoint()
	if endpoint == "" {
		return nil, errors.ErrNoEndpoint
	}

	requestID := id.MustGenerate(id.PrefixRequest)
	log := s.logger.With("request_id", requestID)

	result := &DiscoverResult{RequestID: requestID}

	spec, noUsable, err := s.resolveAnchors(ctx, req, endpoint, log)
	if err != nil {
		return nil, err
	}
	if noUsable {
		log.Info("no usable anchor", "anchors", len(req.Anchors))
		result.NoUsableAnchor = true
		result.Page = &discovery.PageView{TotalIsExact: true}
		return result, nil
	}

	ownership, favorites, warnings, err := s.buildCaches(ctx, spec)
	if err != nil {
		return nil, err
	}
	result.Warnings = warnings

	descriptors := discovery.Plan(spec)
	pred := discovery.BuildPredicate(ownership, favorites, spec.ExcludedExternalIDs)

	// Independent descriptors fetch concurrently; pages within one
	// descriptor stay sequential. The wait is the merge barrier.
	fetchResults := make([]discovery.FetchResult, len(descriptors))
	var g errgroup.Group
	for i, desc := range descriptors {
		g.Go(func() error {
			fetchResults[i] = discovery.FetchUntilFull(
				ctx, s.fetcher, desc, pred,
				s.cfg.TargetCount, s.cfg.MaxPages, s.cfg.PerPage, log,
			)
			return nil
		})
	}
	_ = g.Wait()

	perDescriptor := make([]discovery.DescriptorScenes, 0, len(descriptors))
	exact := true
	failed := 0
	var firstErr error
	for i, fr := range fetchResults {
		perDescriptor = append(perDescriptor, discovery.DescriptorScenes{
			Dimension: descriptors[i].Dimension,
			Scenes:    fr.Collected,
		})
		if fr.Err != nil {
			failed++
			exact = false
			if firstErr == nil {
				firstErr = fr.Err
			}
			log.Warn("descriptor fetch degraded",
				"dimension", descriptors[i].Dimension,
				"pages_used", fr.PagesUsed,
				"collected", len(fr.Collected),
				"error", fr.Err,
			)
		} else if !fr.Exhausted {
			exact = false
		}
	}

	for _, fr := range fetchResults {
		// A malformed payload is a contract defect, not degradation; it
		// propagates immediately rather than hiding behind a warning.
		if errors.Is(fr.Err, catalog.ErrInvalidResponse) {
			return nil, remoteError(fr.Err)
		}
	}

	if failed == len(descriptors) && totalCollected(fetchResults) == 0 {
		// Nothing succeeded at all: surface the failure so the caller can
		// offer a retry instead of an empty page.
		return nil, remoteError(firstErr)
	}
	if failed > 0 {
		result.Warnings = append(result.Warnings, "results may be incomplete: the remote catalog could not be fully queried")
	}

	merged := discovery.Merge(perDescriptor, spec, ownership, s.cfg.Weights)

	view, err := discovery.Present(merged, req.PageSize, req.Cursor, exact)
	if err != nil {
		return nil, errors.Validation(err.Error())
	}
	result.Page = view

	log.Info("discovery completed",
		"descriptors", len(descriptors),
		"merged", len(merged),
		"page_items", len(view.Items),
		"exact_total", exact,
	)
	return result, nil
}

// resolveAnchors turns anchor inputs into an AnchorSpec. Entities without a
// catalog link for the endpoint are dropped, not errors. The second return
// reports NoUsableAnchor semantics.
func (s *DiscoveryService) resolveAnchors(ctx context.Context, req DiscoverRequest, endpoint string, log *slog.Logger) (domain.AnchorSpec, bool, error) {
	spec := domain.AnchorSpec{
		FavoriteFilters: req.FavoriteFilters,
		Sort:            req.Sort,
	}

	// Global denylist plus per-request exclusions.
	spec.ExcludedExternalIDs = append(spec.ExcludedExternalIDs, s.cfg.ExcludedTagIDs...)
	spec.ExcludedExternalIDs = append(spec.ExcludedExternalIDs, req.ExcludedExternalIDs...)

	for _, anchor := range req.Anchors {
		if !anchor.Type.Valid() {
			return spec, false, errors.Validationf("unknown entity type %q", anchor.Type)
		}
		entity, err := s.store.GetEntity(ctx, anchor.Type, anchor.LocalID)
		if err != nil {
			return spec, false, errors.Wrapf(err, errors.CodeNotFound, "anchor %s/%s", anchor.Type, anchor.LocalID)
		}
		externalID, ok := entity.LinkFor(endpoint)
		if !ok {
			log.Debug("anchor has no catalog link, dropping",
				"type", anchor.Type,
				"local_id", anchor.LocalID,
			)
			continue
		}
		spec.EntityRefs = append(spec.EntityRefs, domain.EntityRef{
			Type:       anchor.Type,
			LocalID:    anchor.LocalID,
			ExternalID: externalID,
		})
	}

	noUsable := len(req.Anchors) > 0 &&
		len(spec.EntityRefs) == 0 &&
		!spec.FavoriteFilters.Any()
	return spec, noUsable, nil
}

// buildCaches prepares the session's ownership index and the favorite sets
// for every active filter, collecting truncation warnings.
func (s *DiscoveryService) buildCaches(ctx context.Context, spec domain.AnchorSpec) (*discovery.OwnershipIndex, map[domain.EntityType]*discovery.FavoriteSet, []string, error) {
	ownership, err := s.session.Ownership(ctx)
	if err != nil {
		return nil, nil, nil, errors.Wrap(err, errors.CodeInternal, "build ownership index")
	}

	var warnings []string
	favorites := make(map[domain.EntityType]*discovery.FavoriteSet)
	for _, t := range spec.FavoriteFilters.ActiveTypes() {
		set, err := s.session.Favorites(ctx, t)
		if err != nil {
			return nil, nil, nil, errors.Wrapf(err, errors.CodeInternal, "resolve %s favorites", t)
		}
		favorites[t] = set
		if set.Truncated {
			warnings = append(warnings, fmt.Sprintf(
				"favorite %s set truncated to top %d of %d", t, len(set.IDs), set.Total))
		}
	}
	return ownership, favorites, warnings, nil
}

func totalCollected(results []discovery.FetchResult) int {
	n := 0
	for _, r := range results {
		n += len(r.Collected)
	}
	return n
}

// remoteError maps catalog sentinels onto domain error codes.
func remoteError(err error) error {
	switch {
	case errors.Is(err, catalog.ErrRateLimited):
		return errors.ErrRateLimited.WithCause(err)
	case errors.Is(err, catalog.ErrServer):
		return errors.ErrRemoteUnavailable.WithCause(err)
	case errors.Is(err, catalog.ErrNetwork):
		return errors.ErrNetwork.WithCause(err)
	case errors.Is(err, catalog.ErrInvalidResponse):
		return errors.ErrInvalidResponse.WithCause(err)
	default:
		return errors.Wrap(err, errors.CodeInternal, "discovery failed")
	}
}
