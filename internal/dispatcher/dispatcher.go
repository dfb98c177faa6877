/**
 * Dispatcher - bounded worker pool for per-page recognition jobs
 *
 * Issues one job per (page index, engine) pair and reassembles completed
 * results by page, regardless of completion order. Each submitted job carries
 * its (page, engine) tag; the tag, not submission order, routes the output.
 *
 * Every worker owns its own engine instances for its whole lifetime, so
 * expensive engine initialization is amortized across all jobs the worker
 * executes instead of being paid per job.
 */

package dispatcher

import (
	"context"
	"errors"
	"runtime"
	"sync"

	"github.com/pagesift/outline-worker/internal/detection"
	"github.com/pagesift/outline-worker/internal/logging"
	"github.com/pagesift/outline-worker/internal/recognizer"
)

// ErrNoPages reports that a document produced no page images at all. This is
// a document-fatal condition, distinct from individual job failures which
// only degrade single pages.
var ErrNoPages = errors.New("dispatcher: no pages to process")

// job is one (page, engine) unit of work.
type job struct {
	page   int
	engine int // index into the configured factories
	image  []byte
}

// jobResult carries a completed job's output together with its routing tag.
type jobResult struct {
	page   int
	engine string
	boxes  []detection.Detection
}

// Dispatcher schedules recognition jobs across a bounded worker pool.
type Dispatcher struct {
	poolSize  int
	factories []recognizer.Factory
	logger    *logging.Logger
}

// New creates a dispatcher. A non-positive poolSize falls back to
// min(available cores, 8).
func New(poolSize int, factories []recognizer.Factory) *Dispatcher {
	if poolSize <= 0 {
		poolSize = boundedPoolSize()
	}
	return &Dispatcher{
		poolSize:  poolSize,
		factories: factories,
		logger:    logging.NewLogger("dispatcher"),
	}
}

// EngineNames returns the configured engine names in submission order. The
// consensus stage flattens per-page results in this order so clustering is
// deterministic run to run.
func (d *Dispatcher) EngineNames() []string {
	names := make([]string, len(d.factories))
	for i, f := range d.factories {
		names[i] = f.Name
	}
	return names
}

// Dispatch runs one recognition job per (page, engine) pair and returns the
// per-page results keyed by page index. All pages in the returned map are
// complete: every configured engine has reported for them. A job failure
// contributes an empty detection list for its (page, engine) key and never
// aborts the document.
func (d *Dispatcher) Dispatch(ctx context.Context, pages [][]byte) (map[int]*PageResult, error) {
	if len(pages) == 0 {
		return nil, ErrNoPages
	}

	total := len(pages) * len(d.factories)
	jobs := make(chan job)
	results := make(chan jobResult, total)

	var wg sync.WaitGroup
	for w := 0; w < d.poolSize; w++ {
		wg.Add(1)
		go d.worker(ctx, w, jobs, results, &wg)
	}

	go func() {
		defer close(jobs)
		for page, image := range pages {
			for engine := range d.factories {
				select {
				case jobs <- job{page: page, engine: engine, image: image}:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	assembled := assemble(results, len(d.factories))
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return assembled, nil
}

// worker drains the job channel with a private set of engine instances.
func (d *Dispatcher) worker(ctx context.Context, id int, jobs <-chan job, results chan<- jobResult, wg *sync.WaitGroup) {
	defer wg.Done()

	engines := make([]recognizer.Recognizer, len(d.factories))
	for i, f := range d.factories {
		engines[i] = f.New()
	}
	defer func() {
		for _, e := range engines {
			if err := e.Close(); err != nil {
				d.logger.Warn("Failed to close engine", "worker", id, "engine", e.Name(), "error", err)
			}
		}
	}()

	for j := range jobs {
		if ctx.Err() != nil {
			// Still emit the tagged result so the collector sees every key.
			results <- jobResult{page: j.page, engine: engines[j.engine].Name()}
			continue
		}
		boxes := d.runJob(ctx, engines[j.engine], j.image)
		results <- jobResult{page: j.page, engine: engines[j.engine].Name(), boxes: boxes}
	}
}

// runJob executes a single recognition job. A panicking engine degrades to an
// empty result for that (page, engine) key instead of cancelling siblings.
func (d *Dispatcher) runJob(ctx context.Context, engine recognizer.Recognizer, image []byte) (boxes []detection.Detection) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("Recognition job panicked", "engine", engine.Name(), "panic", r)
			boxes = nil
		}
	}()
	return engine.Detect(ctx, image)
}

// assemble routes completed jobs into per-page results using each result's
// tag. Arrival order is irrelevant: feeding completions in any permutation
// yields an identical mapping.
func assemble(results <-chan jobResult, enginesPerPage int) map[int]*PageResult {
	byPage := make(map[int]*PageResult)
	for res := range results {
		pr, ok := byPage[res.page]
		if !ok {
			pr = newPageResult(enginesPerPage)
			byPage[res.page] = pr
		}
		pr.add(res.engine, res.boxes)
	}
	return byPage
}

func boundedPoolSize() int {
	cores := runtime.NumCPU()
	if cores > 8 {
		return 8
	}
	if cores < 1 {
		return 1
	}
	return cores
}
