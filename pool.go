package qsim

import (
	"context"
	"fmt"
	"math/rand/v2"
	"sync"
	"sync/atomic"
	"time"

	"github.com/theapemachine/errnie"
)

/*
Pool runs sampling campaigns: many shots of one circuit spread over a fixed
set of workers. Each job owns its random source and the gate list is shared
read-only, so workers never contend on simulation state.
*/
type Pool struct {
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	jobs    chan Job
	metrics *Metrics
	config  *Config
	seq     atomic.Uint64
	closed  atomic.Bool

	workerMu   sync.Mutex
	workerList []*Worker
}

// NewPool starts config.Workers workers; a nil config uses NewConfig.
// Fields of config that fail Validate fall back to their NewConfig defaults
// on a copy, and the fallback is logged; use LoadConfig or Validate first to
// reject such a config instead.
func NewPool(ctx context.Context, config *Config) *Pool {
	defaults := NewConfig()
	if config == nil {
		config = defaults
	}

	if err := config.Validate(); err != nil {
		errnie.Info("invalid pool config, using defaults where needed: %v", err)

		clone := *config
		if clone.Workers < 1 {
			clone.Workers = defaults.Workers
		}
		if clone.BatchSize < 1 {
			clone.BatchSize = defaults.BatchSize
		}
		if clone.SchedulingTimeout <= 0 {
			clone.SchedulingTimeout = defaults.SchedulingTimeout
		}
		config = &clone
	}

	ctx, cancel := context.WithCancel(ctx)
	p := &Pool{
		ctx:     ctx,
		cancel:  cancel,
		jobs:    make(chan Job, config.Workers*10),
		metrics: NewMetrics(),
		config:  config,
	}

	for i := 0; i < config.Workers; i++ {
		p.startWorker()
	}

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		p.collectMetrics()
	}()

	return p
}

func (p *Pool) startWorker() {
	p.workerMu.Lock()
	worker := &Worker{id: len(p.workerList), pool: p}
	p.workerList = append(p.workerList, worker)
	p.workerMu.Unlock()

	p.metrics.mu.Lock()
	p.metrics.WorkerCount++
	count := p.metrics.WorkerCount
	p.metrics.mu.Unlock()

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		worker.run()
	}()

	errnie.Info("started sampling worker %d, total workers: %d", worker.id, count)
}

func (p *Pool) collectMetrics() {
	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-p.ctx.Done():
			return
		case <-ticker.C:
			p.metrics.mu.Lock()
			p.metrics.JobQueueSize = len(p.jobs)
			p.metrics.mu.Unlock()
		}
	}
}

/*
Schedule queues a job and returns the channel its outcome arrives on. When
no worker takes the job within the scheduling timeout, or the pool is
closed, the outcome carries the error instead.
*/
func (p *Pool) Schedule(job Job) <-chan Outcome {
	if job.result == nil {
		job.result = make(chan Outcome, 1)
	}
	if job.ctx == nil {
		job.ctx = p.ctx
	}
	if job.rng == nil {
		job.rng = NewRand(nil)
	}

	if p.closed.Load() {
		job.result <- job.fail(ErrPoolClosed)
		return job.result
	}

	job.StartTime = time.Now()

	timer := time.NewTimer(p.config.SchedulingTimeout)
	defer timer.Stop()

	select {
	case p.jobs <- job:
	case <-timer.C:
		p.metrics.recordSchedulingFailure()
		job.result <- job.fail(fmt.Errorf("%w for job %s", ErrSchedulingTimeout, job.ID))
	case <-p.ctx.Done():
		job.result <- job.fail(ErrPoolClosed)
	case <-job.ctx.Done():
		job.result <- job.fail(job.ctx.Err())
	}

	return job.result
}

/*
Sample runs shots executions of c, split into batches of config.BatchSize.
With a configured seed every batch gets a source derived from the seed and
its position in the campaign, so a campaign's tally is reproducible whatever
the worker interleaving.

The campaign is all or nothing: on the first failure the remaining batches
are cancelled, the error is returned and the circuit history is untouched.
On success every shot's record is appended to the circuit's history.
*/
func (p *Pool) Sample(ctx context.Context, c *Circuit, shots int) (*Histogram, error) {
	gates, err := c.snapshot()
	if err != nil {
		return nil, err
	}

	if shots < 0 {
		return nil, fmt.Errorf("sample: shots cannot be negative, got %d", shots)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	campaign := p.seq.Add(1)
	errnie.Info("campaign %d: %d shots of %d gates", campaign, shots, len(gates))

	var pending []<-chan Outcome
	for batch := 0; batch*p.config.BatchSize < shots; batch++ {
		size := min(p.config.BatchSize, shots-batch*p.config.BatchSize)
		id := fmt.Sprintf("campaign-%d-batch-%d", campaign, batch)
		pending = append(pending, p.Schedule(NewJob(ctx, id, gates, size, p.batchRand(batch))))
	}

	var (
		records  []MeasurementRecord
		firstErr error
	)

	for _, ch := range pending {
		var outcome Outcome
		select {
		case outcome = <-ch:
		case <-p.ctx.Done():
			outcome = Outcome{Error: ErrPoolClosed}
		}

		if outcome.Error != nil {
			if firstErr == nil {
				firstErr = outcome.Error
				cancel()
			}
			continue
		}
		records = append(records, outcome.Records...)
	}

	if firstErr != nil {
		errnie.Info("campaign %d failed: %v", campaign, firstErr)
		return nil, firstErr
	}

	histogram := &Histogram{Shots: shots, Counts: make(map[string]int)}
	for _, r := range records {
		c.history.Append(r)
		histogram.Counts[r.Key()]++
	}

	errnie.Info("campaign %d: done, %d distinct outcomes", campaign, len(histogram.Counts))
	return histogram, nil
}

func (p *Pool) batchRand(batch int) *rand.Rand {
	if p.config.Seed == nil {
		return NewRand(nil)
	}

	seed := *p.config.Seed + uint64(batch)*0x9e3779b97f4a7c15
	return NewRand(&seed)
}

// Metrics exposes the pool's counters.
func (p *Pool) Metrics() *Metrics {
	return p.metrics
}

// Close stops the workers, waits for them to exit and fails every job still
// queued with ErrPoolClosed.
func (p *Pool) Close() {
	if p == nil || !p.closed.CompareAndSwap(false, true) {
		return
	}

	errnie.Info("closing sampling pool")
	p.cancel()
	p.wg.Wait()

	for {
		select {
		case job := <-p.jobs:
			job.result <- job.fail(ErrPoolClosed)
		default:
			errnie.Info("sampling pool closed")
			return
		}
	}
}

// Histogram is the tally of a sampling campaign.
type Histogram struct {
	Shots  int
	Counts map[string]int
}

// MostCommon returns the k most frequent outcomes, ties broken by key.
func (h *Histogram) MostCommon(k int) []Count {
	return mostCommon(h.Counts, k)
}
