package catalog

import (
	"context"
	"fmt"
	"time"

	errs "pfpharvest/pkg/errors"
	"pfpharvest/pkg/logger"
	"pfpharvest/pkg/models"
	"pfpharvest/pkg/ratelimit"
)

// Lister fetches a single page of collections
type Lister interface {
	ListCollections(ctx context.Context, cursor string) (*Page, error)
}

// Paginator walks the catalog page by page until it has enough eligible records
type Paginator struct {
	lister   Lister
	eligible EligibilityPolicy
	pause    time.Duration
	logger   logger.Logger
}

// NewPaginator creates a paginator. A nil policy defaults to HasURIScheme.
func NewPaginator(lister Lister, policy EligibilityPolicy, pause time.Duration, log logger.Logger) *Paginator {
	if policy == nil {
		policy = HasURIScheme
	}
	if log == nil {
		log = logger.GetLogger()
	}

	return &Paginator{
		lister:   lister,
		eligible: policy,
		pause:    pause,
		logger:   log.WithField("component", "paginator"),
	}
}

// Crawl collects up to target eligible records.
// It stops as soon as target is reached or the catalog has no next cursor, and
// returns fewer records than target only when the catalog ran out. Any page
// failure aborts the crawl.
func (p *Paginator) Crawl(ctx context.Context, target int) ([]models.CollectionRecord, error) {
	if target <= 0 {
		return nil, nil
	}

	if err := ratelimit.Pause(ctx, p.pause); err != nil {
		return nil, err
	}

	records := make([]models.CollectionRecord, 0, target)
	cursor := ""
	pages := 0
	skipped := 0

	for {
		page, err := p.lister.ListCollections(ctx, cursor)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch catalog page %d: %w", pages+1, err)
		}
		pages++

		for _, rec := range page.Records {
			if !p.eligible(rec) {
				skipped++
				continue
			}
			records = append(records, rec)
		}

		p.logger.DebugWithFields("catalog page processed", map[string]interface{}{
			"page":      pages,
			"collected": len(records),
			"target":    target,
		})

		if len(records) >= target {
			records = records[:target]
			break
		}
		if page.Next == "" {
			break
		}
		if page.Next == cursor {
			return nil, &errs.CatalogError{Message: fmt.Sprintf("cursor %q did not advance", cursor)}
		}
		cursor = page.Next
	}

	fields := map[string]interface{}{
		"pages":     pages,
		"collected": len(records),
		"skipped":   skipped,
		"target":    target,
	}
	if len(records) < target {
		p.logger.WarnWithFields("catalog exhausted before reaching target", fields)
	} else {
		p.logger.InfoWithFields("catalog crawl complete", fields)
	}

	if err := ratelimit.Pause(ctx, p.pause); err != nil {
		return nil, err
	}

	return records, nil
}
