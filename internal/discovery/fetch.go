package discovery

import (
	"context"
	"log/slog"

	"github.com/scenescout/scenescout-server/internal/catalog"
)

// PageFetcher fetches one page of catalog scenes. *catalog.Client satisfies
// it; tests substitute fakes.
type PageFetcher interface {
	FetchPage(ctx context.Context, query catalog.SceneQuery) (*catalog.Page, error)
}

// FetchResult is the outcome of one fetch-until-full run.
//
// Invariant: len(Collected) >= the requested target count, OR Exhausted is
// true, OR PagesUsed reached the page ceiling, OR Err is set. Partial
// results always survive an error; progress is never discarded.
type FetchResult struct {
	Collected []catalog.Scene
	Exhausted bool
	PagesUsed int
	Err       error
}

// fetchPhase is the controller's state machine state.
type fetchPhase int

const (
	phaseFetching fetchPhase = iota
	phaseEvaluating
	phaseSatisfied
	phaseExhausted
	phaseFailed
)

// FetchUntilFull drives the catalog client page by page, applying the
// predicate to every item, until targetCount filtered items are collected,
// the remote reports its last page, or maxPages is reached.
//
// Naive page-count pagination under-returns once ownership and favorite
// filters remove a large fraction of each page, so the quota is evaluated on
// post-filter items only. Pages are fetched in increasing order and items
// appended in page order. Cancellation aborts promptly, returning whatever
// was collected.
func FetchUntilFull(
	ctx context.Context,
	fetcher PageFetcher,
	desc QueryDescriptor,
	pred Predicate,
	targetCount int,
	maxPages int,
	perPage int,
	logger *slog.Logger,
) FetchResult {
	var (
		result  FetchResult
		current *catalog.Page
	)

	pageNumber := 1
	phase := phaseFetching

	for {
		switch phase {
		case phaseFetching:
			if err := ctx.Err(); err != nil {
				result.Err = err
				phase = phaseFailed
				continue
			}

			page, err := fetcher.FetchPage(ctx, catalog.SceneQuery{
				Dimension: desc.Dimension,
				EntityIDs: desc.Values,
				Modifier:  catalog.ModifierIncludes,
				Page:      pageNumber,
				PerPage:   perPage,
				Sort:      desc.Sort.Field,
				Direction: desc.Sort.Direction,
			})
			if err != nil {
				result.Err = err
				phase = phaseFailed
				continue
			}

			current = page
			result.PagesUsed++
			phase = phaseEvaluating

		case phaseEvaluating:
			for i := range current.Items {
				if pred(&current.Items[i]) {
					result.Collected = append(result.Collected, current.Items[i])
				}
			}

			switch {
			case current.IsLast:
				// The remote is drained even if the quota was met on this
				// page; exhausted wins so callers can report exact totals.
				phase = phaseExhausted
			case len(result.Collected) >= targetCount:
				phase = phaseSatisfied
			case result.PagesUsed >= maxPages:
				// Hard ceiling against catalogs with few matching-but-unowned
				// scenes. Not exhausted: more remote pages may exist.
				logger.Debug("fetch page ceiling reached",
					"dimension", desc.Dimension,
					"pages_used", result.PagesUsed,
					"collected", len(result.Collected),
				)
				return result
			default:
				pageNumber++
				phase = phaseFetching
			}

		case phaseSatisfied:
			return result

		case phaseExhausted:
			result.Exhausted = true
			return result

		case phaseFailed:
			// Keep whatever was collected; the caller decides how to degrade.
			logger.Warn("fetch failed with partial results",
				"dimension", desc.Dimension,
				"pages_used", result.PagesUsed,
				"collected", len(result.Collected),
				"error", result.Err,
			)
			return result
		}
	}
}
