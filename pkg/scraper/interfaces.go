package scraper

import (
	"context"

	"pfpharvest/pkg/models"
)

// Crawler collects eligible catalog records
type Crawler interface {
	Crawl(ctx context.Context, target int) ([]models.CollectionRecord, error)
}

// ImageFetcher returns the raw bytes behind an image reference
type ImageFetcher interface {
	Fetch(ctx context.Context, ref string) ([]byte, error)
}

// Persister writes a record's image as a thumbnail and returns the written path
type Persister interface {
	Persist(rec *models.CollectionRecord) (string, error)
}
