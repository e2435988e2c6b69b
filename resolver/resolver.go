package resolver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/poiesic/stilbar/core"
	"github.com/poiesic/stilbar/storage"
)

// Strategy names the lookup path that produced a result.
type Strategy string

const (
	StrategyExact      Strategy = "exact"
	StrategyNormalized Strategy = "normalized"
	StrategyPartial    Strategy = "partial"
	StrategyIndex      Strategy = "index"
	StrategyDuplicate  Strategy = "duplicate"
	StrategyFallback   Strategy = "fallback"
	StrategyNotFound   Strategy = "not_found"
)

// partialConfidence marks fragment matches, which may resolve to the wrong
// member of a family sharing the fragment.
const partialConfidence = 0.8

// fragmentBracket delimits linkage fragments in the StilBAR notation.
const fragmentBracket = "|"

// Metadata describes how a lookup was (or was not) resolved.
type Metadata struct {
	Strategy   Strategy
	Confidence float64

	// Matched record, when the strategy resolved to a catalog entry.
	Identity core.ID
	Name     string

	// MatchedCode is the stored code key the input resolved to. For
	// partial and duplicate matches it differs from the input.
	MatchedCode string

	// Ambiguous is set when the match is one of several records sharing
	// the same code.
	Ambiguous bool

	// Index is the 1-based catalog position, for index matches.
	Index int

	// Attempted normalizations, always present.
	Input      string
	Cleaned    string
	Normalized string

	// Catalog set sizes, populated on failed lookups for diagnosis.
	CodeKeyCount int
	RecordCount  int
}

// Result is a successful lookup: the structure plus its provenance.
type Result struct {
	Structure string
	Metadata  Metadata
}

// Resolver maps free-form StilBAR input to compound structures by trying a
// fixed priority order of lookup strategies.
type Resolver struct {
	repository storage.CompoundRepository
	logger     *slog.Logger
}

// Option configures a Resolver.
type Option func(*Resolver) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(r *Resolver) error {
		if logger == nil {
			logger = slog.Default()
		}
		r.logger = logger
		return nil
	}
}

// NewResolver creates a new resolver over the given repository.
func NewResolver(repository storage.CompoundRepository, opts ...Option) (*Resolver, error) {
	if repository == nil {
		return nil, ErrRepositoryRequired
	}

	r := &Resolver{
		repository: repository,
		logger:     slog.Default(),
	}

	for _, opt := range opts {
		if err := opt(r); err != nil {
			return nil, err
		}
	}

	return r, nil
}

// Resolve looks up a StilBAR code, linkage fragment, or catalog position.
func (r *Resolver) Resolve(ctx context.Context, input string) (*Result, error) {
	return r.ResolveWithMonitor(ctx, input, nil)
}

// ResolveWithMonitor looks up input with monitoring. The monitor receives
// callbacks as each strategy is tried. On failure the returned result still
// carries the attempted normalizations and catalog sizes in its metadata,
// alongside ErrNotFound.
func (r *Resolver) ResolveWithMonitor(ctx context.Context, input string, monitor ResolveMonitor) (*Result, error) {
	if monitor == nil {
		monitor = &noopMonitor{}
	}

	monitor.Start(input)

	cleaned := core.CleanCode(input)
	normalized := core.NormalizeCode(input)
	monitor.AfterNormalization(cleaned, normalized)

	meta := Metadata{
		Input:      input,
		Cleaned:    cleaned,
		Normalized: normalized,
	}

	// 1. Exact match on the code as typed.
	if compound, err := r.findByKey(ctx, cleaned); err != nil {
		return nil, err
	} else if compound != nil {
		return r.hit(monitor, StrategyExact, compound, meta, compound.NormalizedCode(), 1.0)
	}

	// 2. Dash-normalized match.
	if normalized != cleaned {
		if compound, err := r.findByKey(ctx, normalized); err != nil {
			return nil, err
		} else if compound != nil {
			return r.hit(monitor, StrategyNormalized, compound, meta, normalized, 1.0)
		}
	}

	// 3. Partial match on a bracketed fragment.
	if isFragment(cleaned) {
		result, err := r.resolveFragment(ctx, monitor, meta)
		if err != nil {
			return nil, err
		}
		if result != nil {
			return result, nil
		}
	}

	// 4. Purely numeric input is a 1-based catalog position. Atoi alone
	// would also admit signed input like "+5".
	if index, err := strconv.Atoi(cleaned); err == nil && index > 0 && allDigits(cleaned) {
		result, err := r.resolveIndex(ctx, monitor, meta, index)
		if err != nil {
			return nil, err
		}
		if result != nil {
			return result, nil
		}
	}

	// 5. First suffixed duplicate key, as a last resort.
	if normalized != "" {
		duplicateKey := normalized + storage.CodeSuffixSeparator + "2"
		if compound, err := r.findByKey(ctx, duplicateKey); err != nil {
			return nil, err
		} else if compound != nil {
			dupMeta := meta
			dupMeta.Ambiguous = true
			return r.hit(monitor, StrategyDuplicate, compound, dupMeta, duplicateKey, 1.0)
		}
	}

	// 6. Built-in monomer table.
	if structure, ok := monomerFallback[cleaned]; ok {
		monitor.FallbackUsed(cleaned)
		meta.Strategy = StrategyFallback
		meta.Confidence = 1.0
		result := &Result{Structure: structure, Metadata: meta}
		monitor.Finish(result, nil)
		return result, nil
	}

	return r.notFound(ctx, monitor, meta)
}

// findByKey probes the code index, treating a miss as nil rather than an
// error so the chain can continue.
func (r *Resolver) findByKey(ctx context.Context, key string) (*core.Compound, error) {
	if key == "" {
		return nil, nil
	}
	compound, err := r.repository.FindByCodeKey(ctx, key)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, nil
		}
		r.logger.Error("error probing code index", "key", key, "err", err)
		return nil, err
	}
	return compound, nil
}

// allDigits reports whether s is non-empty and contains only '0' to '9'.
func allDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// isFragment reports whether input is a bracketed linkage fragment.
func isFragment(input string) bool {
	return len(input) > 1 &&
		strings.HasPrefix(input, fragmentBracket) &&
		strings.HasSuffix(input, fragmentBracket)
}

// resolveFragment scans the stored code keys for the first one containing
// the fragment, in either its raw or normalized form.
func (r *Resolver) resolveFragment(ctx context.Context, monitor ResolveMonitor, meta Metadata) (*Result, error) {
	keys, err := r.repository.CodeKeys(ctx)
	if err != nil {
		r.logger.Error("error listing code keys", "err", err)
		return nil, err
	}

	for _, key := range keys {
		if !strings.Contains(key, meta.Cleaned) && !strings.Contains(key, meta.Normalized) {
			continue
		}
		monitor.PartialCandidate(meta.Cleaned, key)

		compound, err := r.findByKey(ctx, key)
		if err != nil {
			return nil, err
		}
		if compound == nil {
			continue
		}
		return r.hit(monitor, StrategyPartial, compound, meta, key, partialConfidence)
	}
	return nil, nil
}

// resolveIndex interprets index as a 1-based position into the catalog's
// stable order.
func (r *Resolver) resolveIndex(ctx context.Context, monitor ResolveMonitor, meta Metadata, index int) (*Result, error) {
	records, err := r.repository.All(ctx)
	if err != nil {
		r.logger.Error("error listing records", "err", err)
		return nil, err
	}
	if index > len(records) {
		return nil, nil
	}

	compound := records[index-1]
	meta.Index = index
	return r.hit(monitor, StrategyIndex, compound, meta, compound.NormalizedCode(), 1.0)
}

// hit builds a successful result from a matched compound.
func (r *Resolver) hit(monitor ResolveMonitor, strategy Strategy, compound *core.Compound, meta Metadata, matchedCode string, confidence float64) (*Result, error) {
	meta.Strategy = strategy
	meta.Confidence = confidence
	meta.Identity = compound.Identity
	meta.Name = compound.Name
	meta.MatchedCode = matchedCode

	monitor.StrategyMatched(strategy, compound)

	result := &Result{Structure: compound.Structure, Metadata: meta}
	monitor.Finish(result, nil)
	return result, nil
}

// notFound builds the failure result, with catalog sizes for diagnosis.
func (r *Resolver) notFound(ctx context.Context, monitor ResolveMonitor, meta Metadata) (*Result, error) {
	meta.Strategy = StrategyNotFound

	if keys, err := r.repository.CodeKeys(ctx); err == nil {
		meta.CodeKeyCount = len(keys)
	}
	if count, err := r.repository.Count(ctx); err == nil {
		meta.RecordCount = count
	}

	r.logger.Info("lookup exhausted all strategies",
		"input", meta.Input, "normalized", meta.Normalized,
		"codeKeys", meta.CodeKeyCount, "records", meta.RecordCount)

	result := &Result{Metadata: meta}
	err := fmt.Errorf("%w: %q", ErrNotFound, meta.Input)
	monitor.Finish(result, err)
	return result, err
}
