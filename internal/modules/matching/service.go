// README: Match engine: candidate filter, per-candidate evaluation, ranking.
package matching

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"taskhive/internal/config"
	"taskhive/internal/metrics"
	"taskhive/internal/modules/doer"
	"taskhive/internal/modules/task"
	"taskhive/internal/types"
)

// CandidateSource is the identity-store slice the engine queries: a coarse
// GEO pre-filter followed by attribute-filtered record loads.
type CandidateSource interface {
	NearbyDoerIDs(ctx context.Context, origin types.Point, radiusKm float64) ([]types.ID, error)
	LoadCandidates(ctx context.Context, ids []types.ID, category string) ([]*doer.Doer, error)
}

// HistorySource supplies a doer's most recent completed tasks, newest first.
type HistorySource interface {
	CompletedByDoer(ctx context.Context, doerID types.ID, limit int) ([]task.HistoryRecord, error)
}

type Service struct {
	candidates CandidateSource
	history    HistorySource
	cfg        config.MatchingConfig
	log        zerolog.Logger
	metrics    *metrics.Matching
}

func NewService(candidates CandidateSource, history HistorySource, cfg config.MatchingConfig, log zerolog.Logger, m *metrics.Matching) *Service {
	if cfg.GeofenceKm <= 0 {
		cfg.GeofenceKm = 50
	}
	if cfg.HistoryLimit <= 0 {
		cfg.HistoryLimit = 50
	}
	if cfg.EvalWorkers <= 0 {
		cfg.EvalWorkers = 8
	}
	if cfg.RecommendLimit <= 0 {
		cfg.RecommendLimit = 5
	}
	return &Service{
		candidates: candidates,
		history:    history,
		cfg:        cfg,
		log:        log.With().Str("component", "matching").Logger(),
		metrics:    m,
	}
}

// evaluated is one candidate that passed the radius and availability checks.
type evaluated struct {
	doer       *doer.Doer
	score      float64
	distanceKm float64
	order      int
}

// FindBestMatch returns the highest-scoring eligible doer, or nil when none
// qualifies. A nil result is a normal outcome, not an error.
func (s *Service) FindBestMatch(ctx context.Context, in Input) (*doer.Doer, error) {
	results, err := s.evaluate(ctx, in, modeBestMatch)
	if err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, nil
	}

	// Strictly-highest score wins; on ties the first-encountered candidate
	// (store iteration order) is kept.
	best := results[0]
	for _, r := range results[1:] {
		if r.score > best.score {
			best = r
		}
	}
	return best.doer, nil
}

// FindBestMatches returns up to limit eligible doers ranked by descending
// score, projected to the public summary view.
func (s *Service) FindBestMatches(ctx context.Context, in Input, limit int) ([]Match, error) {
	if limit <= 0 {
		limit = s.cfg.RecommendLimit
	}
	results, err := s.evaluate(ctx, in, modeRecommend)
	if err != nil {
		return nil, err
	}

	sortByScoreDesc(results, func(e evaluated) float64 { return e.score })
	if len(results) > limit {
		results = results[:limit]
	}

	matches := make([]Match, len(results))
	for i, r := range results {
		matches[i] = Match{
			Doer:       summarize(r.doer),
			Score:      r.score,
			DistanceKm: r.distanceKm,
		}
	}
	return matches, nil
}

// evaluate runs the shared pipeline: validate, filter, then score each
// candidate concurrently. Store failures abort the pass; a failure evaluating
// a single candidate only drops that candidate.
func (s *Service) evaluate(ctx context.Context, in Input, mode scoreMode) ([]evaluated, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	started := time.Now()
	defer func() { s.metrics.ObserveLatency(time.Since(started)) }()

	ids, err := s.candidates.NearbyDoerIDs(ctx, in.Location, s.cfg.GeofenceKm)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		s.metrics.ObserveCandidates(0)
		s.metrics.IncNoMatch()
		return nil, nil
	}

	pool, err := s.candidates.LoadCandidates(ctx, ids, in.Category)
	if err != nil {
		return nil, err
	}
	s.metrics.ObserveCandidates(len(pool))
	if len(pool) == 0 {
		s.metrics.IncNoMatch()
		return nil, nil
	}

	// Candidate evaluations are independent and side-effect-free, so they run
	// on a bounded worker pool to avoid N sequential history round trips.
	workers := s.cfg.EvalWorkers
	if workers > len(pool) {
		workers = len(pool)
	}

	type job struct {
		d     *doer.Doer
		order int
	}
	jobs := make(chan job)
	var (
		mu      sync.Mutex
		results []evaluated
		wg      sync.WaitGroup
	)
	now := time.Now()

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range jobs {
				r, ok := s.evaluateOne(ctx, in, j.d, mode, now)
				if !ok {
					continue
				}
				r.order = j.order
				mu.Lock()
				results = append(results, r)
				mu.Unlock()
			}
		}()
	}
	for i, d := range pool {
		jobs <- job{d: d, order: i}
	}
	close(jobs)
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// Restore the store's iteration order so tie-breaks stay stable no matter
	// which worker finished first.
	sortByScoreDesc(results, func(e evaluated) float64 { return -float64(e.order) })

	if len(results) == 0 {
		s.metrics.IncNoMatch()
	}
	return results, nil
}

// evaluateOne applies the exact-radius and availability checks and scores the
// candidate. Errors are isolated: the candidate is skipped, logged, counted.
func (s *Service) evaluateOne(ctx context.Context, in Input, d *doer.Doer, mode scoreMode, now time.Time) (evaluated, bool) {
	dist := haversineKm(
		in.Location.Lat, in.Location.Lng,
		d.Profile.CurrentLocation.Lat, d.Profile.CurrentLocation.Lng,
	)
	if dist > d.Profile.EffectiveServiceRadiusKm() {
		return evaluated{}, false
	}
	if !isAvailableAt(d.Profile, in.ScheduledAt) {
		return evaluated{}, false
	}

	history, err := s.history.CompletedByDoer(ctx, d.ID, s.cfg.HistoryLimit)
	if err != nil {
		s.log.Warn().Err(err).
			Str("doer_id", string(d.ID)).
			Str("task_id", string(in.TaskID)).
			Msg("history lookup failed; skipping candidate")
		s.metrics.IncEvalError()
		return evaluated{}, false
	}

	score := scoreCandidate(in, d, history, dist, mode, now)
	s.metrics.ObserveScore(score)
	return evaluated{doer: d, score: score, distanceKm: dist}, true
}
