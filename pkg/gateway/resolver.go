package gateway

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	errs "pfpharvest/pkg/errors"
	"pfpharvest/pkg/logger"
)

// Resolver fetches content-addressed data by trying mirror hosts in a fixed order
type Resolver struct {
	hosts      []string
	timeout    time.Duration
	httpClient *http.Client
	logger     logger.Logger
}

// NewResolver creates a resolver over hosts, tried in the given order.
// Each attempt is bounded by timeout.
func NewResolver(hosts []string, timeout time.Duration, log logger.Logger) *Resolver {
	if log == nil {
		log = logger.GetLogger()
	}

	ordered := make([]string, len(hosts))
	copy(ordered, hosts)

	return &Resolver{
		hosts:      ordered,
		timeout:    timeout,
		httpClient: &http.Client{},
		logger:     log.WithField("component", "gateway"),
	}
}

// SetHTTPClient replaces the underlying HTTP client
func (r *Resolver) SetHTTPClient(hc *http.Client) {
	r.httpClient = hc
}

// Hosts returns the mirror hosts in resolution order
func (r *Resolver) Hosts() []string {
	out := make([]string, len(r.hosts))
	copy(out, r.hosts)
	return out
}

// Resolve returns the body of the first mirror answering 200 for cid.
// Later mirrors are not contacted once one succeeds. When every mirror fails
// the error is an ImageFetchError of kind exhausted.
func (r *Resolver) Resolve(ctx context.Context, cid string) ([]byte, error) {
	if cid == "" {
		return nil, &errs.ImageFetchError{Kind: errs.KindExhausted, Err: fmt.Errorf("empty content identifier")}
	}

	var lastErr error
	lastCode := 0
	attempts := 0

	for _, host := range r.hosts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		attempts++
		url := fmt.Sprintf("https://%s/%s", host, cid)

		data, code, err := boundedGet(ctx, r.httpClient, url, r.timeout)
		logger.LogFetchAttempt(r.logger, host, cid, code, err)

		if err == nil && code == http.StatusOK {
			r.logger.DebugWithFields("resolved content via gateway", map[string]interface{}{
				"host":     host,
				"cid":      cid,
				"attempts": attempts,
				"bytes":    len(data),
			})
			return data, nil
		}

		if code != 0 {
			lastCode = code
		}
		if err != nil {
			lastErr = err
		} else {
			lastErr = fmt.Errorf("%s returned status %d", host, code)
		}
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return nil, &errs.ImageFetchError{
		Kind:     errs.KindExhausted,
		Ref:      cid,
		Attempts: attempts,
		Code:     lastCode,
		Err:      lastErr,
	}
}

// boundedGet issues GET url with the whole exchange, body included, limited to timeout.
// Non-200 bodies are discarded.
func boundedGet(ctx context.Context, hc *http.Client, url string, timeout time.Duration) ([]byte, int, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, 0, err
	}
	req.Header.Set("User-Agent", "pfpharvest/1.0")
	req.Header.Set("Accept", "image/*,*/*;q=0.8")

	resp, err := hc.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
		return nil, resp.StatusCode, nil
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, err
	}

	return data, resp.StatusCode, nil
}
