package render

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/tilestack/maprender/internal/placer"
)

// JobResult is what a worker reports back after attempting a job.
type JobResult struct {
	Placed placer.Result
	Err    error
}

type workItem struct {
	job    Job
	pois   []POI
	ways   []Way
	result chan<- JobResult
}

// layerWorker owns one Renderer (and, transitively, one dependency cache)
// and drains a single bounded job queue to completion, one job at a time
// (spec.md §5: "exactly one worker thread per tile layer ... drives one
// full render pipeline to completion before taking the next job").
type layerWorker struct {
	jobs     chan workItem
	renderer *Renderer
}

// Pool runs one worker goroutine per tile layer (spec.md §5), built on
// golang.org/x/sync/errgroup (SPEC_FULL §5 addition). A render-job failure
// only discards that job's output — it is reported via JobResult.Err, not
// returned from Run, which only fails on cancellation.
type Pool struct {
	layers []*layerWorker
}

// NewPool creates a pool with one worker per renderer, each backed by a
// queue of the given bound.
func NewPool(renderers []*Renderer, queueSize int) *Pool {
	p := &Pool{}
	for _, r := range renderers {
		p.layers = append(p.layers, &layerWorker{jobs: make(chan workItem, queueSize), renderer: r})
	}
	return p
}

// Run starts every layer worker and blocks until Close is called and all
// queues drain, or ctx is canceled. Cancellation only stops a worker from
// taking its *next* job — a job already in flight always runs to
// completion (spec.md §5 "no mid-pipeline cancellation").
func (p *Pool) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)
	for _, lw := range p.layers {
		lw := lw
		g.Go(func() error {
			for {
				select {
				case <-gctx.Done():
					return gctx.Err()
				case item, ok := <-lw.jobs:
					if !ok {
						return nil
					}
					placed, err := lw.renderer.Render(item.job, item.pois, item.ways)
					item.result <- JobResult{Placed: placed, Err: err}
				}
			}
		})
	}
	return g.Wait()
}

// Submit enqueues a job on the given layer's queue, blocking if that
// queue is full, and returns a channel that receives exactly one JobResult.
func (p *Pool) Submit(layer int, job Job, pois []POI, ways []Way) <-chan JobResult {
	result := make(chan JobResult, 1)
	p.layers[layer].jobs <- workItem{job: job, pois: pois, ways: ways, result: result}
	return result
}

// Close signals every worker to exit once its queue drains. Run's error
// group then returns.
func (p *Pool) Close() {
	for _, lw := range p.layers {
		close(lw.jobs)
	}
}
