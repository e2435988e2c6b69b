package bulk

import (
	"context"
	"errors"
	"log/slog"
	"runtime"
	"sync"

	"github.com/panjf2000/ants/v2"

	"github.com/poiesic/stilbar/core"
	"github.com/poiesic/stilbar/resolver"
)

// Row is the outcome of resolving one batch input.
type Row struct {
	Input      string
	Found      bool
	Structure  string
	Strategy   resolver.Strategy
	Confidence float64
	Identity   core.ID
	Name       string
	Error      string
}

// Runner resolves batches of codes over a worker pool.
type Runner struct {
	resolver *resolver.Resolver
	pool     *ants.Pool
	logger   *slog.Logger
}

// Option configures a Runner.
type Option func(*Runner) error

// WithPoolSize sets the worker pool size for concurrent resolution.
// Default is runtime.NumCPU() / 2, with a minimum of 1.
func WithPoolSize(size int) Option {
	return func(r *Runner) error {
		if size < 1 {
			size = 1
		}

		if r.pool != nil {
			r.pool.Release()
		}

		pool, err := ants.NewPool(size)
		if err != nil {
			return err
		}
		r.pool = pool
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(r *Runner) error {
		if logger == nil {
			logger = slog.Default()
		}
		r.logger = logger
		return nil
	}
}

// NewRunner creates a new batch runner.
func NewRunner(res *resolver.Resolver, opts ...Option) (*Runner, error) {
	if res == nil {
		return nil, ErrResolverRequired
	}

	poolSize := runtime.NumCPU() / 2
	if poolSize < 1 {
		poolSize = 1
	}

	pool, err := ants.NewPool(poolSize)
	if err != nil {
		return nil, err
	}

	r := &Runner{
		resolver: res,
		pool:     pool,
		logger:   slog.Default(),
	}

	for _, opt := range opts {
		if optErr := opt(r); optErr != nil {
			r.Release()
			return nil, optErr
		}
	}

	return r, nil
}

// Run resolves every input and returns one row per input, in input order.
// A code that fails to resolve produces a row with Found false rather than
// failing the batch.
func (r *Runner) Run(ctx context.Context, inputs []string) []*Row {
	rows := make([]*Row, len(inputs))

	var wg sync.WaitGroup
	for i, input := range inputs {
		wg.Add(1)
		task := func() {
			defer wg.Done()
			rows[i] = r.resolveOne(ctx, input)
		}
		if err := r.pool.Submit(task); err != nil {
			// Pool saturated or released; fall back to running inline.
			r.logger.Warn("batch task submission failed, running inline", "err", err)
			task()
		}
	}
	wg.Wait()

	return rows
}

// resolveOne builds the outcome row for a single input.
func (r *Runner) resolveOne(ctx context.Context, input string) *Row {
	row := &Row{Input: input}

	result, err := r.resolver.Resolve(ctx, input)
	if err != nil {
		if !errors.Is(err, resolver.ErrNotFound) {
			r.logger.Error("batch lookup failed", "input", input, "err", err)
		}
		row.Error = err.Error()
		if result != nil {
			row.Strategy = result.Metadata.Strategy
		}
		return row
	}

	row.Found = true
	row.Structure = result.Structure
	row.Strategy = result.Metadata.Strategy
	row.Confidence = result.Metadata.Confidence
	row.Identity = result.Metadata.Identity
	row.Name = result.Metadata.Name
	return row
}

// Release releases the worker pool.
// The runner should not be used after calling Release.
func (r *Runner) Release() {
	if r.pool != nil {
		r.pool.Release()
	}
}
