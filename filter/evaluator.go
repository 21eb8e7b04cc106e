package filter

import (
	"context"
	"runtime"
	"sync"

	"github.com/hashicorp/go-multierror"
	"golang.org/x/sync/errgroup"
)

// EvaluatorOption configures an evaluator
type EvaluatorOption func(*ConcurrentEvaluator)

// WithWorkers sets the number of concurrent goroutines
func WithWorkers(workers int) EvaluatorOption {
	return func(e *ConcurrentEvaluator) {
		if workers > 0 {
			e.workerCount = workers
		}
	}
}

// WithBatchSize sets the chunk size below which evaluation stays sequential
func WithBatchSize(size int) EvaluatorOption {
	return func(e *ConcurrentEvaluator) {
		if size > 0 {
			e.batchSize = size
		}
	}
}

// ConcurrentEvaluator implements both Evaluator and BatchEvaluator.
// Documents that fail to evaluate are treated as non-matching; their errors
// are collected and returned alongside the matches.
type ConcurrentEvaluator struct {
	workerCount int
	batchSize   int
}

// NewConcurrentEvaluator creates a new concurrent evaluator
func NewConcurrentEvaluator(opts ...EvaluatorOption) *ConcurrentEvaluator {
	e := &ConcurrentEvaluator{
		workerCount: runtime.GOMAXPROCS(0),
		batchSize:   100,
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// Evaluate evaluates a single filter against all documents, preserving order
func (e *ConcurrentEvaluator) Evaluate(ctx context.Context, filter CompiledFilter, docs []Document) ([]Document, error) {
	if len(docs) == 0 {
		return []Document{}, nil
	}

	if len(docs) < e.batchSize {
		matches, errs := evaluateChunk(filter, docs)
		return matches, errs.ErrorOrNil()
	}

	return e.evaluateConcurrent(ctx, filter, docs)
}

// EvaluateBatch evaluates multiple filters against documents concurrently
func (e *ConcurrentEvaluator) EvaluateBatch(ctx context.Context, filters map[string]CompiledFilter, docs []Document) (map[string][]Document, error) {
	results := make(map[string][]Document, len(filters))
	if len(filters) == 0 || len(docs) == 0 {
		return results, nil
	}

	var (
		mu   sync.Mutex
		errs *multierror.Error
	)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(e.workerCount)

	for name, filter := range filters {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}

			matches, err := e.Evaluate(ctx, filter, docs)
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}

			mu.Lock()
			results[name] = matches
			if err != nil {
				errs = multierror.Append(errs, err)
			}
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return results, errs.ErrorOrNil()
}

// evaluateConcurrent splits documents into chunks evaluated in parallel
func (e *ConcurrentEvaluator) evaluateConcurrent(ctx context.Context, filter CompiledFilter, docs []Document) ([]Document, error) {
	chunkSize := max(len(docs)/e.workerCount, e.batchSize)
	chunks := (len(docs) + chunkSize - 1) / chunkSize

	matches := make([][]Document, chunks)
	errs := make([]*multierror.Error, chunks)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(e.workerCount)

	for i := range chunks {
		start := i * chunkSize
		end := min(start+chunkSize, len(docs))

		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			matches[i], errs[i] = evaluateChunk(filter, docs[start:end])
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	total := 0
	for _, m := range matches {
		total += len(m)
	}

	all := make([]Document, 0, total)
	var merr *multierror.Error
	for i := range chunks {
		all = append(all, matches[i]...)
		if errs[i] != nil {
			merr = multierror.Append(merr, errs[i].Errors...)
		}
	}

	return all, merr.ErrorOrNil()
}

func evaluateChunk(filter CompiledFilter, docs []Document) ([]Document, *multierror.Error) {
	var errs *multierror.Error
	matches := make([]Document, 0, len(docs)/10)
	for _, doc := range docs {
		ok, err := filter.Match(doc)
		if err != nil {
			errs = multierror.Append(errs, err)
			continue
		}
		if ok {
			matches = append(matches, doc)
		}
	}
	return matches, errs
}
