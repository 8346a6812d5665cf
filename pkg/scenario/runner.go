package scenario

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/matzehuels/pqtree/pkg/cache"
	"github.com/matzehuels/pqtree/pkg/errors"
	pqio "github.com/matzehuels/pqtree/pkg/io"
	"github.com/matzehuels/pqtree/pkg/observability"
	"github.com/matzehuels/pqtree/pkg/pq"
)

// DefaultTTL is how long successful results stay cached.
const DefaultTTL = 24 * time.Hour

// Result is the record of a scenario run.
type Result struct {
	RunID string        `json:"run_id"`
	Name  string        `json:"name"`
	Steps []Step        `json:"steps"`
	Final string        `json:"final"`
	Tree  pqio.NodeSpec `json:"tree"`
	DOT   string        `json:"dot"`
}

// Build reconstructs the final tree of the run.
func (r *Result) Build() (*pqio.Tree, error) {
	return pqio.Build(r.Tree)
}

// Runner executes scenarios and caches the results of whole documents.
//
// The Runner holds no per-run state, so one Runner can serve concurrent runs.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger
	TTL    time.Duration
}

// NewRunner creates a runner with the given cache and keyer.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
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
	return &Runner{Cache: c, Keyer: keyer, Logger: logger, TTL: DefaultTTL}
}

// Run applies every op of s. On failure the returned Result holds the steps
// applied so far, including the failing one, and the tree as it was left.
func (r *Runner) Run(ctx context.Context, s *Scenario) (*Result, error) {
	runID := uuid.NewString()
	logger := r.Logger.With("run", runID[:8], "scenario", s.Name)
	hooks := observability.Scenario()

	hooks.OnScenarioStart(ctx, s.Name, len(s.Ops))
	start := time.Now()
	res, err := r.run(ctx, s, runID, logger)
	hooks.OnScenarioComplete(ctx, s.Name, len(res.Steps), time.Since(start), err)

	if err != nil {
		logger.Debug("scenario failed", "steps", len(res.Steps), "err", err)
		return res, err
	}
	logger.Debug("scenario complete", "steps", len(res.Steps), "duration", time.Since(start).Round(time.Microsecond))
	return res, nil
}

func (r *Runner) run(ctx context.Context, s *Scenario, runID string, logger *log.Logger) (*Result, error) {
	res := &Result{RunID: runID, Name: s.Name, Steps: []Step{}}
	hooks := observability.Scenario()

	sess, err := NewSession(s)
	if err != nil {
		return res, err
	}
	defer res.capture(sess.Tree())

	for !sess.Done() {
		if err := ctx.Err(); err != nil {
			return res, errors.Wrap(errors.ErrCodeCanceled, err, "scenario %q stopped after %d steps", s.Name, sess.Pos())
		}
		step, err := sess.Next()
		res.Steps = append(res.Steps, step)
		hooks.OnStep(ctx, step.Op, len(step.Removed), step.Duration, err)
		if err != nil {
			return res, err
		}
		logger.Debug("applied", "step", step.Index, "op", step.Op, "target", step.Target, "tree", step.Tree)
	}
	return res, nil
}

func (res *Result) capture(t *pqio.Tree) {
	res.Final = t.String()
	res.Tree = pqio.Spec(t, t.Root)
	res.DOT = pq.ToDOT(t.Root, t.Name)
}

// RunDocument parses a scenario document and runs it, serving successful
// results from the cache. The second return value reports a cache hit.
func (r *Runner) RunDocument(ctx context.Context, data []byte, format string) (*Result, bool, error) {
	key := r.Keyer.ScenarioKey(cache.Hash(append([]byte(format+"\n"), data...)))
	hooks := observability.Cache()

	cached, hit, err := r.Cache.Get(ctx, key)
	if err != nil {
		r.Logger.Warn("scenario cache read failed", "err", err)
	}
	if err == nil && hit {
		var res Result
		if err := json.Unmarshal(cached, &res); err == nil {
			hooks.OnCacheHit(ctx, cache.KeyTypeScenario)
			return &res, true, nil
		}
		r.Logger.Warn("discarding corrupt cached scenario result", "key", key)
	}
	hooks.OnCacheMiss(ctx, cache.KeyTypeScenario)

	s, err := Parse(data, format)
	if err != nil {
		return nil, false, err
	}
	res, err := r.Run(ctx, s)
	if err != nil {
		return res, false, err
	}

	encoded, err := json.Marshal(res)
	if err != nil {
		return nil, false, fmt.Errorf("encode result: %w", err)
	}
	if err := r.Cache.Set(ctx, key, encoded, r.TTL); err != nil {
		r.Logger.Warn("scenario cache write failed", "err", err)
	} else {
		hooks.OnCacheSet(ctx, cache.KeyTypeScenario, len(encoded))
	}
	return res, false, nil
}
