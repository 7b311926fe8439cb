package match

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"sync"

	"github.com/lehigh-university-libraries/fuzzymatch/internal/normalize"
	"github.com/lehigh-university-libraries/fuzzymatch/internal/similarity"
	"golang.org/x/sync/errgroup"
)

// Options configures an Engine. The zero value of Scorer selects the indel
// ratio and a non-positive Workers uses one worker per CPU.
type Options struct {
	Mode     normalize.Mode
	Level    PeriodLevel
	Scorer   similarity.Scorer
	MinScore float64
	Workers  int

	// Progress is called once per finished row. Calls are serialized.
	Progress func()
}

// Engine holds the normalized reference dataset. It is immutable after
// NewEngine returns and safe for concurrent use.
type Engine struct {
	opts      Options
	reference []Record
	keys      []string
	all       []int
	byPeriod  map[string][]int

	progressMu sync.Mutex
}

// NewEngine normalizes every reference record once and indexes them by
// period. Reference rows whose name normalizes to an empty key, or whose
// period cannot be parsed when filtering is enabled, are never candidates.
func NewEngine(reference []Record, opts Options) (*Engine, error) {
	if !opts.Mode.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidMode, opts.Mode)
	}
	if len(reference) == 0 {
		return nil, fmt.Errorf("reference: %w", ErrEmptyDataset)
	}
	if opts.Scorer == nil {
		opts.Scorer = similarity.NewRatio()
	}
	if opts.Workers <= 0 {
		opts.Workers = runtime.NumCPU()
	}

	e := &Engine{
		opts:      opts,
		reference: reference,
		keys:      make([]string, len(reference)),
		byPeriod:  make(map[string][]int),
	}

	emptyKeys, badPeriods := 0, 0
	for i, r := range reference {
		key := normalize.Normalize(r.Name, opts.Mode)
		e.keys[i] = key
		if key == "" {
			emptyKeys++
			continue
		}

		e.all = append(e.all, i)

		if opts.Level == PeriodNone {
			continue
		}
		p, err := ParsePeriod(r, opts.Level)
		if err != nil {
			badPeriods++
			slog.Debug("Reference row has malformed period", "row", i, "id", r.ID, "error", err)
			continue
		}
		k := p.key(opts.Level)
		e.byPeriod[k] = append(e.byPeriod[k], i)
	}

	if emptyKeys > 0 {
		slog.Warn("Reference rows with empty canonical key are not candidates", "rows", emptyKeys)
	}
	if badPeriods > 0 {
		slog.Warn("Reference rows with malformed period are not candidates", "rows", badPeriods, "period_level", opts.Level.String())
	}

	slog.Debug("Reference index built",
		"rows", len(reference),
		"candidates", len(e.all),
		"periods", len(e.byPeriod),
		"mode", opts.Mode.String(),
		"period_level", opts.Level.String())

	return e, nil
}

// Key returns the canonical key of reference row i.
func (e *Engine) Key(i int) string {
	return e.keys[i]
}

// Candidates returns the indexes of the reference rows eligible for q, in
// reference order. The slice is shared and must not be modified.
func (e *Engine) Candidates(q Record) ([]int, error) {
	if e.opts.Level == PeriodNone {
		return e.all, nil
	}

	p, err := ParsePeriod(q, e.opts.Level)
	if err != nil {
		return nil, err
	}

	return e.byPeriod[p.key(e.opts.Level)], nil
}

// MatchRecord matches a single query record. It never fails: problems with
// the row are recorded on the result and the row is reported as unmatched.
func (e *Engine) MatchRecord(row int, q Record) (res Result) {
	res = Result{Row: row, processed: true}

	defer func() {
		if r := recover(); r != nil {
			res = Result{Row: row, QueryKey: res.QueryKey, Err: fmt.Errorf("unexpected failure: %v", r), processed: true}
		}
		if res.Err != nil {
			slog.Warn("Row downgraded to no match", "row", row, "id", q.ID, "error", res.Err)
		}
	}()

	res.QueryKey = normalize.Normalize(q.Name, e.opts.Mode)
	if res.QueryKey == "" {
		slog.Debug("Empty canonical key, skipping row", "row", row, "name", q.Name)
		return res
	}

	candidates, err := e.Candidates(q)
	if err != nil {
		res.Err = err
		return res
	}
	if len(candidates) == 0 {
		slog.Debug("No candidates for row", "row", row, "year", q.Year, "quarter", q.Quarter)
		return res
	}

	keys := make([]string, len(candidates))
	for i, idx := range candidates {
		keys[i] = e.keys[idx]
	}

	best, ok := similarity.BestMatch(res.QueryKey, keys, e.opts.Scorer)
	if !ok || best.Score < e.opts.MinScore {
		slog.Debug("No candidate above minimum score", "row", row, "key", res.QueryKey, "best_score", best.Score)
		return res
	}

	res.Matched = true
	res.MatchKey = best.Key
	res.Score = best.Score
	res.IDs, res.Names = e.aggregate(candidates, best.Key)

	return res
}

// aggregate collects every eligible reference row sharing key, in reference order.
func (e *Engine) aggregate(candidates []int, key string) (ids, names []string) {
	for _, idx := range candidates {
		if e.keys[idx] != key {
			continue
		}
		ids = append(ids, e.reference[idx].ID)
		names = append(names, e.reference[idx].Name)
	}
	return ids, names
}

// Match matches every query record and returns one result per record in
// input order. Rows are processed in parallel; a cancelled ctx stops the run
// between rows and returns the results produced so far together with the
// context error. Rows that were not reached report Processed() == false.
// A cancellation that arrives after every row finished is not an error.
func (e *Engine) Match(ctx context.Context, query []Record) ([]Result, error) {
	results := make([]Result, len(query))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.opts.Workers)

	for i := range query {
		if gctx.Err() != nil {
			break
		}

		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = e.MatchRecord(i, query[i])
			e.tick()
			return nil
		})
	}

	err := g.Wait()
	if err == nil && ctx.Err() != nil && !allProcessed(results) {
		err = ctx.Err()
	}
	if err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
		return results, fmt.Errorf("failed to match rows: %w", err)
	}

	return results, err
}

func allProcessed(results []Result) bool {
	for _, r := range results {
		if !r.Processed() {
			return false
		}
	}
	return true
}

func (e *Engine) tick() {
	if e.opts.Progress == nil {
		return
	}
	e.progressMu.Lock()
	defer e.progressMu.Unlock()
	e.opts.Progress()
}
