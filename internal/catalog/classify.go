package catalog

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/mrtommyb/K2fov/internal/fov"
	"github.com/mrtommyb/K2fov/internal/metrics"
)

// Options are the thresholds used to classify a target.
type Options struct {
	Padding        float64 // pixels, see fov.IsOnSilicon
	NearSiliconSep float64 // degrees from the boresight
}

// DefaultOptions returns the standard padding and near-silicon radius.
func DefaultOptions() Options {
	return Options{Padding: fov.DefaultPadding, NearSiliconSep: fov.DefaultNearSiliconSep}
}

// Classify returns the silicon flag of one target.
func Classify(f *fov.FieldOfView, t Target, opts Options) Flag {
	if f.IsOnSilicon(t.RA, t.Dec, opts.Padding) {
		return OnSilicon
	}
	if f.NearSilicon(t.RA, t.Dec, opts.NearSiliconSep) {
		return NearSilicon
	}
	return NotOnSilicon
}

// classifyJob is one target and its position in the input.
type classifyJob struct {
	idx    int
	target Target
}

// WorkerPool classifies targets on a fixed number of goroutines.
type WorkerPool struct {
	workers int
	logger  *slog.Logger
}

// NewWorkerPool creates a worker pool with the given number of workers.
func NewWorkerPool(workers int, logger *slog.Logger) *WorkerPool {
	if workers < 1 {
		workers = 1
	}
	return &WorkerPool{
		workers: workers,
		logger:  logger,
	}
}

// Workers returns the pool size.
func (wp *WorkerPool) Workers() int {
	return wp.workers
}

// ClassifyBatch classifies every target, keeping input order. If ctx is
// cancelled before every target has been classified, ctx.Err() is returned
// with no results.
func (wp *WorkerPool) ClassifyBatch(ctx context.Context, f *fov.FieldOfView, targets []Target, opts Options) ([]Classified, error) {
	if len(targets) == 0 {
		return nil, nil
	}

	start := time.Now()
	out := make([]Classified, len(targets))
	done := make([]bool, len(targets))
	jobs := make(chan classifyJob, wp.workers*2)

	// Each index is written by exactly one worker.
	var wg sync.WaitGroup
	for i := 0; i < wp.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for job := range jobs {
				out[job.idx] = Classified{Target: job.target, Flag: Classify(f, job.target, opts)}
				done[job.idx] = true
			}
		}()
	}

	func() {
		defer close(jobs)
		for i, t := range targets {
			select {
			case jobs <- classifyJob{idx: i, target: t}:
			case <-ctx.Done():
				return
			}
		}
	}()
	wg.Wait()

	if err := ctx.Err(); err != nil {
		for _, ok := range done {
			if !ok {
				return nil, err
			}
		}
	}

	var counts [3]int
	for _, c := range out {
		counts[c.Flag]++
	}
	duration := time.Since(start)
	metrics.RecordBatch(duration, counts)

	wp.logger.Debug("catalog classified",
		"targets", len(targets),
		"on_silicon", counts[OnSilicon],
		"near_silicon", counts[NearSilicon],
		"workers", wp.workers,
		"duration_ms", duration.Milliseconds(),
	)
	return out, nil
}
