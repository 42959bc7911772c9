package scraper

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"pfpharvest/pkg/catalog"
	"pfpharvest/pkg/config"
	errs "pfpharvest/pkg/errors"
	"pfpharvest/pkg/gateway"
	"pfpharvest/pkg/logger"
	"pfpharvest/pkg/models"
	"pfpharvest/pkg/ratelimit"
	"pfpharvest/pkg/sampler"
	"pfpharvest/pkg/storage"
)

// State is a phase of a harvest run
type State int

const (
	Crawling State = iota
	Sampling
	Fetching
	Persisting
	Done
)

func (s State) String() string {
	switch s {
	case Crawling:
		return "crawling"
	case Sampling:
		return "sampling"
	case Fetching:
		return "fetching"
	case Persisting:
		return "persisting"
	case Done:
		return "done"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Report summarizes a run
type Report struct {
	RunID     string
	Crawled   int
	Sampled   int
	Fetched   int
	Persisted int
	// Failures counts dropped records by errs.FailureKind
	Failures map[string]int
	// States lists each phase in the order it was first entered
	States   []State
	Paths    []string
	Duration time.Duration
}

// Dropped returns how many sampled records were not persisted
func (r *Report) Dropped() int {
	total := 0
	for _, n := range r.Failures {
		total += n
	}
	return total
}

// Components lets callers replace the collaborators of a Scraper
type Components struct {
	Crawler   Crawler
	Fetcher   ImageFetcher
	Persister Persister
	Limiter   ratelimit.Limiter
	Rand      *rand.Rand
}

// Scraper runs the crawl, sample, fetch and persist pipeline
type Scraper struct {
	crawler    Crawler
	fetcher    ImageFetcher
	persister  Persister
	limiter    ratelimit.Limiter
	rng        *rand.Rand
	sampleSize int
	target     int
	logger     logger.Logger
	state      State
	report     *Report
}

// New builds a Scraper wired to the live catalog, the mirror hosts and the output directory
func New(cfg *config.Config, log logger.Logger) (*Scraper, error) {
	if log == nil {
		log = logger.GetLogger()
	}

	policy, err := catalog.PolicyByName(cfg.Catalog.Eligibility)
	if err != nil {
		return nil, err
	}

	client := catalog.NewClient(cfg.Catalog, log)
	resolver := gateway.NewResolver(cfg.Gateway.Hosts, cfg.Gateway.Timeout, log)

	store, err := storage.NewManager(cfg.Output, log)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage manager: %w", err)
	}

	return NewWithComponents(cfg, log, Components{
		Crawler:   catalog.NewPaginator(client, policy, cfg.RateLimit.CrawlPause, log),
		Fetcher:   gateway.NewFetcher(resolver, cfg.Gateway.Timeout, log),
		Persister: store,
		Limiter:   ratelimit.NewInterval(cfg.RateLimit.FetchInterval),
		Rand:      sampler.NewRand(cfg.Sampling.Seed),
	}), nil
}

// NewWithComponents builds a Scraper from explicit collaborators.
// A nil Limiter means no pacing and a nil Rand is seeded from cfg.
func NewWithComponents(cfg *config.Config, log logger.Logger, c Components) *Scraper {
	if log == nil {
		log = logger.GetLogger()
	}
	if c.Limiter == nil {
		c.Limiter = ratelimit.Unlimited{}
	}
	if c.Rand == nil {
		c.Rand = sampler.NewRand(cfg.Sampling.Seed)
	}

	return &Scraper{
		crawler:    c.Crawler,
		fetcher:    c.Fetcher,
		persister:  c.Persister,
		limiter:    c.Limiter,
		rng:        c.Rand,
		sampleSize: cfg.Sampling.Size,
		target:     cfg.Catalog.TargetCount,
		logger:     log.WithField("component", "scraper"),
	}
}

// State returns the phase the scraper is currently in
func (s *Scraper) State() State {
	return s.state
}

// Run executes one harvest. The returned report is non-nil even when err is set
// and reflects how far the run got.
func (s *Scraper) Run(ctx context.Context) (*Report, error) {
	start := time.Now()
	s.report = &Report{
		RunID:    logger.RunID(),
		Failures: make(map[string]int),
	}
	defer func() { s.report.Duration = time.Since(start) }()

	logger.LogComponentStart(s.logger, "pipeline", map[string]interface{}{
		"target_count": s.target,
		"sample_size":  s.sampleSize,
	})

	s.enter(Crawling)
	records, err := s.crawler.Crawl(ctx, s.target)
	if err != nil {
		s.logger.WithError(err).Error("Crawl failed, aborting run")
		return s.report, fmt.Errorf("crawl: %w", err)
	}
	s.report.Crawled = len(records)
	s.logger.InfoWithFields("Crawl complete", map[string]interface{}{
		"records": len(records),
		"target":  s.target,
	})

	s.enter(Sampling)
	sample, err := sampler.Sample(records, s.sampleSize, s.rng)
	if err != nil {
		s.logger.WithError(err).Error("Sampling failed, aborting run")
		return s.report, fmt.Errorf("sample: %w", err)
	}
	s.report.Sampled = len(sample)

	for i := range sample {
		if err := s.processRecord(ctx, &sample[i]); err != nil {
			s.logger.WithError(err).ErrorWithFields("Harvest stopped", map[string]interface{}{
				"index": i,
				"fatal": errs.IsFatal(err),
			})
			return s.report, err
		}
		logger.LogProgress(s.logger, "harvest", i+1, len(sample))
	}

	s.enter(Done)
	s.logger.InfoWithFields("Run complete", map[string]interface{}{
		"persisted": s.report.Persisted,
		"sampled":   s.report.Sampled,
		"dropped":   s.report.Dropped(),
	})
	logger.LogComponentStop(s.logger, "pipeline", "done")

	return s.report, nil
}

// processRecord fetches and persists one record. Item-scoped failures are
// logged and counted; any other error is returned and stops the run.
func (s *Scraper) processRecord(ctx context.Context, rec *models.CollectionRecord) error {
	if err := s.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}

	s.enter(Fetching)
	data, err := s.fetcher.Fetch(ctx, rec.ImageRef)
	if err == nil && len(data) == 0 {
		err = emptyImageError(rec.ImageRef)
	}
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return s.skipOrAbort(rec, "", err)
	}
	s.report.Fetched++
	rec.ImageBytes = data

	s.enter(Persisting)
	path, err := s.persister.Persist(rec)
	rec.ImageBytes = nil
	if err != nil {
		return s.skipOrAbort(rec, path, err)
	}

	s.report.Persisted++
	s.report.Paths = append(s.report.Paths, path)
	s.logger.DebugWithFields("Persisted thumbnail", map[string]interface{}{
		"name": rec.DisplayName(),
		"path": path,
	})
	return nil
}

// emptyImageError reports a fetch that succeeded without any bytes
func emptyImageError(raw string) error {
	kind := errs.KindNetwork
	if gateway.ParseRef(raw).ContentAddressed {
		kind = errs.KindExhausted
	}
	return &errs.ImageFetchError{Kind: kind, Ref: raw, Err: errors.New("empty image body")}
}

func (s *Scraper) skipOrAbort(rec *models.CollectionRecord, path string, err error) error {
	if !errs.IsItemScoped(err) {
		return fmt.Errorf("record %q: %w", rec.DisplayName(), err)
	}
	s.drop(rec, path, err)
	return nil
}

func (s *Scraper) drop(rec *models.CollectionRecord, path string, err error) {
	kind := errs.FailureKind(err)
	s.report.Failures[kind]++

	fields := map[string]interface{}{
		"name":      rec.DisplayName(),
		"image_ref": rec.ImageRef,
		"kind":      kind,
	}
	var ioErr *errs.IOError
	if errors.As(err, &ioErr) {
		path = ioErr.Path
	}
	if path != "" {
		fields["path"] = path
	}
	s.logger.WithError(err).WarnWithFields("Skipping record", fields)
}

func (s *Scraper) enter(state State) {
	s.state = state
	for _, seen := range s.report.States {
		if seen == state {
			return
		}
	}
	s.report.States = append(s.report.States, state)
}
