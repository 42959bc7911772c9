package gateway

import (
	"context"
	"errors"
	"net/http"
	"time"

	errs "pfpharvest/pkg/errors"
	"pfpharvest/pkg/logger"
)

// Fetcher retrieves image bytes for a record's image reference
type Fetcher struct {
	resolver   *Resolver
	timeout    time.Duration
	httpClient *http.Client
	logger     logger.Logger
}

// NewFetcher creates a fetcher that sends content-addressed refs through resolver
// and fetches everything else directly with the given timeout
func NewFetcher(resolver *Resolver, timeout time.Duration, log logger.Logger) *Fetcher {
	if log == nil {
		log = logger.GetLogger()
	}

	return &Fetcher{
		resolver:   resolver,
		timeout:    timeout,
		httpClient: &http.Client{},
		logger:     log.WithField("component", "fetcher"),
	}
}

// SetHTTPClient replaces the HTTP client used for direct and mirror requests
func (f *Fetcher) SetHTTPClient(hc *http.Client) {
	f.httpClient = hc
	f.resolver.SetHTTPClient(hc)
}

// Fetch returns the raw bytes behind ref.
// Failures are ImageFetchErrors; a cancelled ctx is returned as is.
func (f *Fetcher) Fetch(ctx context.Context, raw string) ([]byte, error) {
	ref := ParseRef(raw)

	if ref.ContentAddressed {
		data, err := f.resolver.Resolve(ctx, ref.CID)
		if err != nil {
			var fetchErr *errs.ImageFetchError
			if errors.As(err, &fetchErr) {
				fetchErr.Ref = raw
			}
			return nil, err
		}
		return data, nil
	}

	return f.fetchDirect(ctx, raw)
}

func (f *Fetcher) fetchDirect(ctx context.Context, url string) ([]byte, error) {
	start := time.Now()
	data, code, err := boundedGet(ctx, f.httpClient, url, f.timeout)
	logger.LogRequest(f.logger, http.MethodGet, url, code, time.Since(start))

	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, &errs.ImageFetchError{
			Kind: errs.ClassifyTransport(err),
			Ref:  url,
			Code: code,
			Err:  err,
		}
	}

	if code != http.StatusOK {
		return nil, &errs.ImageFetchError{
			Kind: errs.KindNetwork,
			Ref:  url,
			Code: code,
		}
	}

	return data, nil
}
