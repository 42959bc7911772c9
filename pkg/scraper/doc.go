// Package scraper drives a harvest run from catalog crawl to persisted thumbnails.
//
// A run moves through Crawling, Sampling, Fetching, Persisting and Done, in that
// order. Fetching and Persisting repeat once per sampled record. Only the crawl
// and the sampling step can abort a run; a record that fails to fetch, decode or
// write is logged and dropped while the loop continues with the next one.
//
// Usage:
//
//	s, err := scraper.New(cfg, log)
//	if err != nil {
//	    return err
//	}
//
//	report, err := s.Run(ctx)
//	if err != nil {
//	    return err
//	}
//	fmt.Println(report.Persisted, "thumbnails written")
//
// Fetches are spaced by rate_limit.fetch_interval regardless of outcome.
package scraper
