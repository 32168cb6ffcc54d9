package provider

import (
	"context"
	"sync"

	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"
)

// maxInFlight bounds how many concurrent provider requests a single batch
// may issue. Providers that need a tighter bound can additionally throttle
// via their own limiter; this is a ceiling, not a target.
const maxInFlight = 10

// Outcome classifies what BatchEnsureRecords did for one RecordConfig.
type Outcome string

const (
	OutcomeCreated  Outcome = "created"
	OutcomeUpdated  Outcome = "updated"
	OutcomeUpToDate Outcome = "up_to_date"
	OutcomeError    Outcome = "error"
)

// Result is the per-input outcome of a batch-upsert run, returned in the
// same order as the input RecordConfig slice.
type Result struct {
	Config  RecordConfig
	Record  Record // zero value (tombstone) on error
	Outcome Outcome
	Err     error
}

// limiters throttle outbound requests per provider instance so a
// large batch doesn't hammer a rate-limited API (e.g. Cloudflare).
var (
	limiterMu sync.Mutex
	limiters  = make(map[string]*rate.Limiter)
)

func limiterFor(providerName string) *rate.Limiter {
	limiterMu.Lock()
	defer limiterMu.Unlock()
	l, ok := limiters[providerName]
	if !ok {
		l = rate.NewLimiter(rate.Limit(20), 20) // 20 req/s, burst 20
		limiters[providerName] = l
	}
	return l
}

// BatchEnsureRecords drives p to match every desired RecordConfig in cfgs,
// creating or updating records as needed and leaving records that already
// match untouched. Concurrency is bounded to maxInFlight in-flight requests
// and outbound requests are throttled per provider. Results are returned in
// input order; a failed entry carries a zero Record and a non-nil Err so
// callers never lose track of which input failed.
func BatchEnsureRecords(ctx context.Context, p Provider, cache *ZoneCache, cfgs []RecordConfig) ([]Result, error) {
	results := make([]Result, len(cfgs))
	sem := semaphore.NewWeighted(maxInFlight)
	limiter := limiterFor(p.Name())
	caps := p.Capabilities()

	var wg sync.WaitGroup
	for i, cfg := range cfgs {
		if err := sem.Acquire(ctx, 1); err != nil {
			results[i] = Result{Config: cfg, Outcome: OutcomeError, Err: err}
			continue
		}
		wg.Add(1)
		go func(i int, cfg RecordConfig) {
			defer wg.Done()
			defer sem.Release(1)

			if err := limiter.Wait(ctx); err != nil {
				results[i] = Result{Config: cfg, Outcome: OutcomeError, Err: err}
				return
			}
			results[i] = ensureOne(ctx, p, cache, cfg, caps)
		}(i, cfg)
	}
	wg.Wait()

	return results, nil
}

func ensureOne(ctx context.Context, p Provider, cache *ZoneCache, cfg RecordConfig, caps Capabilities) Result {
	if err := cfg.Validate(); err != nil {
		return Result{Config: cfg, Outcome: OutcomeError, Err: err}
	}

	if existing, ok := cache.findByNameType(cfg.Name, cfg.Type); ok {
		if Equal(existing, cfg, caps) {
			return Result{Config: cfg, Record: existing, Outcome: OutcomeUpToDate}
		}
		updated, err := p.Update(ctx, existing.ID, cfg)
		if err != nil {
			return Result{Config: cfg, Outcome: OutcomeError, Err: err}
		}
		cache.put(updated)
		return Result{Config: cfg, Record: updated, Outcome: OutcomeUpdated}
	}

	created, err := p.Create(ctx, cfg)
	if err != nil {
		return Result{Config: cfg, Outcome: OutcomeError, Err: err}
	}
	cache.put(created)
	return Result{Config: cfg, Record: created, Outcome: OutcomeCreated}
}
