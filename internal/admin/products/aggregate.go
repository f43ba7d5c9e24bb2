package products

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/AquaViinaDev/front-admin/internal/admin/catalog"
	"github.com/AquaViinaDev/front-admin/internal/admin/observability"
)

const (
	// DefaultPageSize is the page size requested while walking a listing.
	DefaultPageSize = 100
	// DefaultMaxPages caps the number of pages fetched in one aggregation.
	DefaultMaxPages = 1000
)

// PageFetcher retrieves a single listing page.
type PageFetcher func(ctx context.Context, page, limit int) (ListEnvelope, error)

// AggregateOptions tunes AggregatePages. Zero values select the defaults.
type AggregateOptions struct {
	PageSize int
	MaxPages int
	Logger   *zap.Logger
}

// AggregatePages fetches pages one after another, starting at page 1, and
// concatenates their items. It continues while the reported totalPages says
// more pages exist or, when the backend never reports totalPages, while pages
// come back full. Hitting MaxPages logs a warning and returns what was
// collected. Any fetch error aborts the walk.
func AggregatePages(ctx context.Context, fetch PageFetcher, opts AggregateOptions) (ListEnvelope, error) {
	pageSize := opts.PageSize
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	maxPages := opts.MaxPages
	if maxPages <= 0 {
		maxPages = DefaultMaxPages
	}
	logger := opts.Logger
	if logger == nil {
		logger = observability.FromContext(ctx)
	}

	var (
		first      *ListEnvelope
		items      = []catalog.Record{}
		total      *int
		totalPages *int
		limit      = pageSize
		page       = 1
	)
	for {
		if err := ctx.Err(); err != nil {
			return ListEnvelope{}, fmt.Errorf("products: aggregate pages: %w", err)
		}
		env, err := fetch(ctx, page, pageSize)
		if err != nil {
			return ListEnvelope{}, fmt.Errorf("products: fetch page %d: %w", page, err)
		}
		if first == nil {
			first = &env
		}
		items = append(items, env.Items...)
		if env.Total != nil {
			total = env.Total
		}
		if env.TotalPages != nil {
			totalPages = env.TotalPages
		}
		if env.Limit != nil && *env.Limit > 0 {
			limit = *env.Limit
		}

		var hasMore bool
		if totalPages != nil {
			hasMore = page+1 <= *totalPages
		} else {
			hasMore = len(env.Items) == limit
		}
		if !hasMore {
			break
		}
		if page >= maxPages {
			logger.Warn("product listing truncated at page ceiling",
				zap.Int("max_pages", maxPages),
				zap.Int("items", len(items)),
			)
			break
		}
		page++
	}

	result := ListEnvelope{
		Items: items,
		Extra: first.Extra,
		Limit: intPtr(limit),
		Page:  intPtr(1),
	}
	resolvedTotal := len(items)
	if total != nil {
		resolvedTotal = *total
	}
	result.Total = intPtr(resolvedTotal)
	if totalPages != nil {
		result.TotalPages = intPtr(*totalPages)
	} else {
		result.TotalPages = intPtr((resolvedTotal + limit - 1) / limit)
	}
	return result, nil
}
