// Package catalog reads NFT collection listings from an OpenSea-compatible API.
//
// The Client issues GET {base}/collections?limit=100[&next=cursor] with the
// X-API-KEY header and validates the response shape at the boundary. Any
// non-200 status becomes an errors.CatalogError; connection failures become an
// errors.TransportError. Neither is retried.
//
// The Paginator follows the next cursor, filters records through an
// EligibilityPolicy and stops once the requested number of records is reached:
//
//	client := catalog.NewClient(cfg.Catalog, log)
//	policy, _ := catalog.PolicyByName(cfg.Catalog.Eligibility)
//	records, err := catalog.NewPaginator(client, policy, time.Second/2, log).Crawl(ctx, 2000)
package catalog
