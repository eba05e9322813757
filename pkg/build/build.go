// Package build runs the list pipeline: it loads every source, carves allow
// entries out of the block rules, dedupes and sorts the result and writes the
// artifact.
package build

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/afero"
	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"

	"domainkit/pkg/dedupe"
	"domainkit/pkg/domain"
	"domainkit/pkg/filtering"
	"domainkit/pkg/metrics"
)

const maxConcurrentLoads = 8

// ErrNoSources is returned when every enabled source failed to load.
var ErrNoSources = errors.New("no list could be loaded")

// Options configures a Builder.
type Options struct {
	Sources     []filtering.Source
	CacheDir    string
	Allowlist   *filtering.Allowlist
	DebugDomain string
	// ErrorLimit caps logged rejections per source; see filtering.NewDiagnostics.
	ErrorLimit int
	Rejected   filtering.RejectionSink
	Output     Output
	// MetricsTextfile is written after every build when Metrics is set.
	MetricsTextfile string
	Metrics         *metrics.Collector
	Normalizer      *domain.Normalizer
	Fs              afero.Fs
	Logger          *slog.Logger
}

// Result is the outcome of one build.
type Result struct {
	// Domains is the final, deduped and sorted block list.
	Domains []string
	Block   *filtering.DomainSet
	// Allow holds allow rules from the lists plus the allowlist.
	Allow      *filtering.DomainSet
	Stats      filtering.ParseStats
	Rejections map[string]int
	// Failures aggregates per-source load errors; see multierr.Errors.
	Failures error
	Written  bool
	Finished time.Time
}

// Builder runs builds with fixed options. It is safe to call Run from one
// goroutine at a time.
type Builder struct {
	opts   Options
	log    *slog.Logger
	parser *filtering.ListParser
	sorter *dedupe.Sorter
}

type sourceResult struct {
	id    string
	sets  *filtering.RuleSets
	stats filtering.ParseStats
	diag  *filtering.Diagnostics
	err   error
}

// New creates a Builder.
func New(opts Options) *Builder {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Normalizer == nil {
		opts.Normalizer = domain.NewNormalizer()
	}
	if opts.Fs == nil {
		opts.Fs = afero.NewOsFs()
	}
	return &Builder{
		opts:   opts,
		log:    opts.Logger,
		parser: filtering.NewListParser(filtering.NewClassifier(opts.Normalizer)),
		sorter: dedupe.NewSorter(opts.Normalizer.Apex),
	}
}

// Run performs one build. Sources load concurrently and fail independently;
// their errors end up in Result.Failures. Run only fails when the context is
// cancelled, a list yields an invalid directive, every source failed, or the
// artifact cannot be written.
func (b *Builder) Run(ctx context.Context) (*Result, error) {
	start := time.Now()
	cacheDir := filtering.EnsureCacheDir(b.opts.CacheDir, b.log)

	var sources []filtering.Source
	for _, s := range b.opts.Sources {
		if s.Enabled {
			sources = append(sources, s)
		}
	}

	results := make([]sourceResult, len(sources))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentLoads)
	for i, source := range sources {
		g.Go(func() error {
			diag := filtering.NewDiagnostics(source.ID, b.log, b.opts.ErrorLimit).WithSink(b.opts.Rejected)
			sets, stats, err := filtering.LoadSource(gctx, source, b.parser, filtering.LoadOptions{
				CacheDir:    cacheDir,
				Logger:      b.log,
				Diagnostics: diag,
				DebugDomain: b.opts.DebugDomain,
			})
			results[i] = sourceResult{id: source.ID, sets: sets, stats: stats, diag: diag, err: err}
			if errors.Is(err, filtering.ErrInvalidDirective) {
				return fmt.Errorf("list %s: %w", source.ID, err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	res := &Result{Rejections: make(map[string]int)}
	merged := filtering.NewRuleSets()
	loaded := 0
	for _, r := range results {
		if r.err != nil {
			b.log.Error("failed to load list", "list", r.id, "error", r.err)
			res.Failures = multierr.Append(res.Failures, fmt.Errorf("%s: %w", r.id, r.err))
			if b.opts.Metrics != nil {
				b.opts.Metrics.SourceFailed(r.id)
			}
			continue
		}
		loaded++
		merged.Merge(r.sets)
		res.Stats.Add(r.stats)
		counts := r.diag.Counts()
		for stage, n := range counts {
			res.Rejections[stage] += n
		}
		if b.opts.Metrics != nil {
			b.opts.Metrics.ObserveList(r.id, r.stats.TotalLines, r.stats.Allow, r.stats.Block, counts)
		}
	}
	if loaded == 0 && len(sources) > 0 {
		return nil, fmt.Errorf("%w: %w", ErrNoSources, res.Failures)
	}

	safe := merged.Allow.Domains()
	if b.opts.Allowlist != nil {
		safe = append(safe, b.opts.Allowlist.Domains()...)
	}
	domains := dedupe.Subtract(merged.Block.Domains(), safe)
	domains = dedupe.Dedupe(domains)
	b.sorter.Sort(domains)

	res.Domains = domains
	res.Block = filtering.NewDomainSetFrom(domains)
	res.Allow = filtering.NewDomainSetFrom(safe)

	if b.opts.Output.Path != "" {
		data, err := Render(b.opts.Output, domains)
		if err != nil {
			return nil, err
		}
		res.Written, err = WriteArtifact(b.opts.Fs, b.opts.Output.Path, data)
		if err != nil {
			return nil, err
		}
	}

	res.Finished = time.Now()
	took := res.Finished.Sub(start)
	if b.opts.Metrics != nil {
		b.opts.Metrics.BuildCompleted(len(domains), res.Finished, took)
		if err := b.opts.Metrics.WriteTextfile(b.opts.MetricsTextfile); err != nil {
			b.log.Warn("failed to write metrics", "error", err)
		}
	}

	b.log.Info("build finished",
		"lists", loaded,
		"failed", len(multierr.Errors(res.Failures)),
		"lines", res.Stats.TotalLines,
		"allow", res.Stats.Allow,
		"block", res.Stats.Block,
		"rejected", res.Stats.Rejected,
		"domains", len(domains),
		"written", res.Written,
		"took", took,
	)
	return res, nil
}
