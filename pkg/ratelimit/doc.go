// Package ratelimit keeps pfpharvest polite towards the catalog API and image hosts.
//
// Interval wraps golang.org/x/time/rate with a burst of one, so consecutive
// image fetches are spaced by the configured fetch interval (500ms by default).
// Pause is a context-aware sleep used around the catalog crawl.
//
// Usage:
//
//	limiter := ratelimit.NewInterval(500 * time.Millisecond)
//	for _, rec := range records {
//	    if err := limiter.Wait(ctx); err != nil {
//	        return err
//	    }
//	    // fetch rec
//	}
package ratelimit
