package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/singleflight"

	"github.com/matzehuels/forkline/pkg/cache"
	"github.com/matzehuels/forkline/pkg/graph"
	"github.com/matzehuels/forkline/pkg/observability"
)

const keyTypeLayout = "layout"

// Runner executes layout passes with caching.
//
// The Runner holds no pass state. Concurrent Execute calls with the same
// input and options share one pass; each caller gets its own Result whose
// Layout slices are shared and must be treated as read-only.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger

	group singleflight.Group
}

// NewRunner creates a runner. A nil cache disables caching, a nil keyer
// selects the default keyer and a nil logger selects log.Default().
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{Cache: c, Keyer: keyer, Logger: logger}
}

// Execute lays out in, serving the layout from the cache when possible.
func (r *Runner) Execute(ctx context.Context, in Input, opts Options) (*Result, error) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
	opts.SetDefaults()
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	hash, err := in.Hash()
	if err != nil {
		return nil, err
	}
	key := r.Keyer.LayoutKey(hash, opts.LayoutKeyOpts())

	if !opts.NoCache {
		if l, ok := r.lookup(ctx, key); ok {
			opts.Logger.Debug("layout cache hit", "key", key)
			res := &Result{Layout: l, HistoryHash: hash, CacheHit: true, Stats: StatsOf(l)}
			if len(l.MainLine) > 0 {
				res.Tip = l.MainLine[0]
			}
			observability.Layout().OnPassComplete(ctx, observability.PassStats{
				Commits:  res.Stats.Commits,
				Loops:    res.Stats.Loops,
				Columns:  res.Stats.Columns,
				CacheHit: true,
			}, nil)
			return res, nil
		}
	}

	v, err, shared := r.group.Do(key, func() (any, error) {
		res, err := Run(ctx, in, opts)
		if err != nil {
			return nil, err
		}
		if !opts.NoCache {
			r.store(ctx, key, res.Layout, opts.Logger)
		}
		return res, nil
	})
	if err != nil {
		return nil, fmt.Errorf("layout: %w", err)
	}

	res := *v.(*Result)
	res.HistoryHash = hash
	opts.Logger.Info("computed layout",
		"commits", res.Stats.Commits,
		"loops", res.Stats.Loops,
		"columns", res.Stats.Columns,
		"duration", res.Stats.Total.Round(time.Microsecond),
		"shared", shared)
	return &res, nil
}

func (r *Runner) lookup(ctx context.Context, key string) (graph.Layout, bool) {
	hooks := observability.Cache()
	data, hit, err := r.Cache.Get(ctx, key)
	if err != nil || !hit {
		if err != nil {
			r.Logger.Warn("layout cache read failed", "err", err)
		}
		hooks.OnCacheMiss(ctx, keyTypeLayout)
		return graph.Layout{}, false
	}
	l, err := graph.UnmarshalLayout(data)
	if err != nil {
		// A corrupt entry is recomputed and overwritten.
		hooks.OnCacheMiss(ctx, keyTypeLayout)
		return graph.Layout{}, false
	}
	hooks.OnCacheHit(ctx, keyTypeLayout)
	return l, true
}

func (r *Runner) store(ctx context.Context, key string, l graph.Layout, logger *log.Logger) {
	data, err := graph.MarshalLayout(l)
	if err != nil {
		logger.Warn("layout not cached", "err", err)
		return
	}
	if err := r.Cache.Set(ctx, key, data, cache.TTLLayout); err != nil {
		logger.Warn("layout cache write failed", "err", err)
		return
	}
	observability.Cache().OnCacheSet(ctx, keyTypeLayout, len(data))
}

// Close releases the cache.
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}
