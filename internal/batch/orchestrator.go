// Package batch implements the BatchOrchestrator: fanning a single
// candidate out across many jobs (or a single job across many candidates)
// through the MatchEngine, per spec §4.10.
package batch

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/panjf2000/ants/v2"

	"github.com/Bapt252/nextvision/internal/domain"
	"github.com/Bapt252/nextvision/internal/scoring"
	"github.com/Bapt252/nextvision/pkg/config"
)

const (
	defaultMaxConcurrency = 10
	defaultChunkSize      = 50
)

// pair is one (candidate, job) to be matched at a given output position.
type pair struct {
	candidate domain.CandidateProfile
	job       domain.JobRequirement
}

// chunkRange is a contiguous slice of a pairs/results array processed as a
// unit, with its own timeout and cancellation scope.
type chunkRange struct {
	start, end int
}

// Orchestrator implements spec §4.10. It selects a concurrency strategy
// from the input size, probes the MatchEngine's result cache before
// scheduling every live match, and preserves input-position ordering in its
// output regardless of completion order.
type Orchestrator struct {
	engine *scoring.MatchEngine
	cfg    config.BatchConfig
}

// New builds an Orchestrator over engine using cfg's concurrency/chunking
// thresholds.
func New(engine *scoring.MatchEngine, cfg config.BatchConfig) *Orchestrator {
	return &Orchestrator{engine: engine, cfg: cfg}
}

// MatchCandidateAgainstJobs scores one candidate against many jobs.
func (o *Orchestrator) MatchCandidateAgainstJobs(ctx context.Context, candidate domain.CandidateProfile, jobs []domain.JobRequirement, departure time.Time) domain.BatchResult {
	pairs := make([]pair, len(jobs))
	for i, j := range jobs {
		pairs[i] = pair{candidate: candidate, job: j}
	}
	return o.run(ctx, pairs, departure)
}

// MatchJobAgainstCandidates scores one job against many candidates.
func (o *Orchestrator) MatchJobAgainstCandidates(ctx context.Context, job domain.JobRequirement, candidates []domain.CandidateProfile, departure time.Time) domain.BatchResult {
	pairs := make([]pair, len(candidates))
	for i, c := range candidates {
		pairs[i] = pair{candidate: c, job: job}
	}
	return o.run(ctx, pairs, departure)
}

// run selects a mode by input size, per spec §4.10: very small (< pooled
// threshold) runs cooperatively in the calling goroutine; small (< parallel
// threshold) uses a fixed worker pool; large (<= huge threshold) chunks the
// input and runs chunks one after another; huge (> huge threshold) fans the
// chunks themselves out in parallel.
func (o *Orchestrator) run(ctx context.Context, pairs []pair, departure time.Time) domain.BatchResult {
	start := time.Now()
	n := len(pairs)
	results := make([]domain.BatchItemResult, n)

	var counters counters
	switch {
	case n < o.cfg.PooledThreshold:
		o.runCooperative(ctx, pairs, results, departure, &counters)
	case n < o.cfg.ParallelThreshold:
		o.runPooled(ctx, pairs, results, departure, &counters)
	case n <= o.cfg.HugeThreshold:
		o.runChunked(ctx, pairs, results, departure, &counters, false)
	default:
		o.runChunked(ctx, pairs, results, departure, &counters, true)
	}

	return domain.BatchResult{
		Results: results,
		Stats: domain.BatchStats{
			Total:     n,
			CacheHits: int(atomic.LoadInt32(&counters.cacheHits)),
			Errors:    int(atomic.LoadInt32(&counters.errs)),
			Cancelled: int(atomic.LoadInt32(&counters.cancelled)),
			Duration:  time.Since(start),
		},
	}
}

// counters accumulates batch stats across concurrent workers.
type counters struct {
	cacheHits int32
	errs      int32
	cancelled int32
}

// matchOne probes the cache, then invokes the engine, honoring ctx
// cancellation both before scheduling and after the match returns, per
// spec §5's cancellation-marker contract.
func (o *Orchestrator) matchOne(ctx context.Context, p pair, departure time.Time, c *counters) domain.BatchItemResult {
	select {
	case <-ctx.Done():
		atomic.AddInt32(&c.cancelled, 1)
		return domain.BatchItemResult{Cancelled: true}
	default:
	}

	if cached, ok := o.engine.Probe(ctx, p.candidate, p.job); ok {
		atomic.AddInt32(&c.cacheHits, 1)
		return domain.BatchItemResult{Result: cached}
	}

	result := o.engine.Match(ctx, p.candidate, p.job, departure)
	if ctx.Err() != nil {
		atomic.AddInt32(&c.cancelled, 1)
		return domain.BatchItemResult{Cancelled: true}
	}
	if !domain.WeightsSumToOne(result.WeightsUsed) {
		atomic.AddInt32(&c.errs, 1)
		return domain.BatchItemResult{Err: "weights used do not sum to 1"}
	}
	return domain.BatchItemResult{Result: result}
}

func (o *Orchestrator) runCooperative(ctx context.Context, pairs []pair, results []domain.BatchItemResult, departure time.Time, c *counters) {
	for i, p := range pairs {
		results[i] = o.matchOne(ctx, p, departure, c)
	}
}

// runPooled bounds concurrency to a fixed set of workers pulling from a
// shared channel of indices, matched with the channel-of-tasks idiom used
// elsewhere for parallel simulation runs. Each worker only ever writes to
// the index it is handed, so results needs no synchronization.
func (o *Orchestrator) runPooled(ctx context.Context, pairs []pair, results []domain.BatchItemResult, departure time.Time, c *counters) {
	workers := o.cfg.MaxConcurrency
	if workers <= 0 {
		workers = defaultMaxConcurrency
	}
	if workers > len(pairs) {
		workers = len(pairs)
	}
	if workers == 0 {
		return
	}

	indices := make(chan int, len(pairs))
	for i := range pairs {
		indices <- i
	}
	close(indices)

	var wg sync.WaitGroup
	wg.Add(workers)
	for w := 0; w < workers; w++ {
		go func() {
			defer wg.Done()
			for i := range indices {
				results[i] = o.matchOne(ctx, pairs[i], departure, c)
			}
		}()
	}
	wg.Wait()
}

// runChunked splits pairs into chunk-sized ranges, each bounded by its own
// timeout derived from the parent context, so a chunk that times out cancels
// only its own remaining matches. outerParallel selects whether the chunks
// themselves run concurrently (huge batches) or one after another (large
// batches); when they run one after another, a slow chunk delays the chunks
// after it.
func (o *Orchestrator) runChunked(ctx context.Context, pairs []pair, results []domain.BatchItemResult, departure time.Time, c *counters, outerParallel bool) {
	chunkSize := o.cfg.ChunkSize
	if chunkSize <= 0 {
		chunkSize = defaultChunkSize
	}

	var chunks []chunkRange
	for start := 0; start < len(pairs); start += chunkSize {
		end := start + chunkSize
		if end > len(pairs) {
			end = len(pairs)
		}
		chunks = append(chunks, chunkRange{start: start, end: end})
	}

	runChunk := func(cr chunkRange) {
		chunkCtx := ctx
		if o.cfg.ChunkTimeout > 0 {
			var cancel context.CancelFunc
			chunkCtx, cancel = context.WithTimeout(ctx, o.cfg.ChunkTimeout)
			defer cancel()
		}
		o.runPooled(chunkCtx, pairs[cr.start:cr.end], results[cr.start:cr.end], departure, c)
	}

	if !outerParallel {
		for _, cr := range chunks {
			runChunk(cr)
		}
		return
	}

	o.runChunksConcurrently(chunks, runChunk)
}

// runChunksConcurrently fans chunks out in parallel. When configured, it
// uses an ants pool sized to the chunk count so huge batches don't pay for
// one goroutine-spawn burst per chunk; otherwise it falls back to a plain
// WaitGroup fan-out.
func (o *Orchestrator) runChunksConcurrently(chunks []chunkRange, runChunk func(chunkRange)) {
	if o.cfg.UseAntsPool {
		pool, err := ants.NewPool(len(chunks), ants.WithPreAlloc(true))
		if err == nil {
			defer pool.Release()
			var wg sync.WaitGroup
			wg.Add(len(chunks))
			for _, cr := range chunks {
				cr := cr
				if submitErr := pool.Submit(func() {
					defer wg.Done()
					runChunk(cr)
				}); submitErr != nil {
					wg.Done()
					runChunk(cr)
				}
			}
			wg.Wait()
			return
		}
	}

	var wg sync.WaitGroup
	wg.Add(len(chunks))
	for _, cr := range chunks {
		cr := cr
		go func() {
			defer wg.Done()
			runChunk(cr)
		}()
	}
	wg.Wait()
}
