package stats

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/sourcegraph/conc"

	"github.com/soniCaH/kcvv-data/internal/platform/cache"
	"github.com/soniCaH/kcvv-data/internal/platform/logging"
	"github.com/soniCaH/kcvv-data/internal/platform/resilience"
)

const (
	defaultShortTTL   = 2 * time.Minute
	defaultLongTTL    = 30 * time.Minute
	defaultMaxEntries = 512
	warmupWorkers     = 4
)

type ServiceConfig struct {
	ShortTTL   time.Duration
	LongTTL    time.Duration
	MaxEntries int
	Logger     *logging.Logger
}

// Service fronts the provider client with a normalized-value cache. TTLs
// differ per volatility class: upcoming fixtures stay fresh on the short
// TTL, settled rankings and historical data live on the long one. Live
// match detail is never cached.
type Service struct {
	client   *Client
	store    *cache.Store
	shortTTL time.Duration
	longTTL  time.Duration
	flight   resilience.SingleFlight
	logger   *logging.Logger
}

func NewService(client *Client, cfg ServiceConfig) *Service {
	shortTTL := cfg.ShortTTL
	if shortTTL <= 0 {
		shortTTL = defaultShortTTL
	}
	longTTL := cfg.LongTTL
	if longTTL <= 0 {
		longTTL = defaultLongTTL
	}
	maxEntries := cfg.MaxEntries
	if maxEntries <= 0 {
		maxEntries = defaultMaxEntries
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}

	return &Service{
		client:   client,
		store:    cache.NewStore(longTTL, maxEntries),
		shortTTL: shortTTL,
		longTTL:  longTTL,
		logger:   logger,
	}
}

func (s *Service) MatchesByTeam(ctx context.Context, teamID int64) ([]Match, error) {
	key := fmt.Sprintf("matches:team:%d", teamID)
	out, err := s.store.GetOrLoadTTL(ctx, key, s.longTTL, func(ctx context.Context) (any, error) {
		return s.client.MatchesByTeam(ctx, teamID)
	})
	if err != nil {
		return nil, err
	}
	return out.([]Match), nil
}

func (s *Service) NextMatches(ctx context.Context) ([]Match, error) {
	out, err := s.store.GetOrLoadTTL(ctx, "matches:next", s.shortTTL, func(ctx context.Context) (any, error) {
		return s.client.NextMatches(ctx)
	})
	if err != nil {
		return nil, err
	}
	return out.([]Match), nil
}

func (s *Service) Ranking(ctx context.Context, teamID int64) ([]RankingEntry, error) {
	key := fmt.Sprintf("ranking:team:%d", teamID)
	out, err := s.store.GetOrLoadTTL(ctx, key, s.longTTL, func(ctx context.Context) (any, error) {
		return s.client.Ranking(ctx, teamID)
	})
	if err != nil {
		return nil, err
	}
	return out.([]RankingEntry), nil
}

func (s *Service) Stats(ctx context.Context, teamID int64) (TeamStats, error) {
	key := fmt.Sprintf("stats:team:%d", teamID)
	out, err := s.store.GetOrLoadTTL(ctx, key, s.longTTL, func(ctx context.Context) (any, error) {
		return s.client.Stats(ctx, teamID)
	})
	if err != nil {
		return TeamStats{}, err
	}
	return out.(TeamStats), nil
}

// MatchDetail caches finished and scheduled matches but passes live ones
// straight through on every call; their content changes by the minute.
// Concurrent lookups for the same match still coalesce into one upstream
// call.
func (s *Service) MatchDetail(ctx context.Context, matchID int64) (MatchDetail, error) {
	key := fmt.Sprintf("match:detail:%d", matchID)
	if cached, ok := s.store.Get(ctx, key); ok {
		return cached.(MatchDetail), nil
	}

	out, err, _ := s.flight.Do(ctx, key, func() (any, error) {
		detail, err := s.client.MatchDetail(ctx, matchID)
		if err != nil {
			return MatchDetail{}, err
		}
		if detail.General.Status != StatusLive {
			s.store.SetTTL(ctx, key, detail, s.detailTTL(detail))
		}
		return detail, nil
	})
	if err != nil {
		return MatchDetail{}, err
	}
	return out.(MatchDetail), nil
}

func (s *Service) detailTTL(detail MatchDetail) time.Duration {
	if detail.General.Status == StatusFinished {
		return s.longTTL
	}
	return s.shortTTL
}

// Flush drops every cached value. Blunt and immediate; meant for tests and
// the admin refresh route.
func (s *Service) Flush(ctx context.Context) {
	s.store.Flush(ctx)
}

// warmupPool is the slice of the ants pool surface WarmupTeams uses.
type warmupPool interface {
	Submit(task func()) error
	Release()
}

var newWarmupPool = func(size int) (warmupPool, error) {
	return ants.NewPool(size)
}

// WarmupTeams prefetches the per-team reads over a bounded worker pool so
// a cold cache does not stampede the provider at startup. Failures are
// logged and skipped; warmup is best effort. The call returns only after
// every submitted task has finished, even when a later submission fails.
func (s *Service) WarmupTeams(ctx context.Context, teamIDs []int64) error {
	if len(teamIDs) == 0 {
		return nil
	}

	pool, err := newWarmupPool(warmupWorkers)
	if err != nil {
		return fmt.Errorf("create warmup pool: %w", err)
	}
	defer pool.Release()

	var workers sync.WaitGroup
	for _, teamID := range teamIDs {
		teamID := teamID
		workers.Add(1)
		if err := pool.Submit(func() {
			defer workers.Done()
			if _, err := s.MatchesByTeam(ctx, teamID); err != nil {
				s.logger.WarnContext(ctx, "warmup matches failed", "team_id", teamID, "error", err)
			}
			if _, err := s.Ranking(ctx, teamID); err != nil {
				s.logger.WarnContext(ctx, "warmup ranking failed", "team_id", teamID, "error", err)
			}
			if _, err := s.Stats(ctx, teamID); err != nil {
				s.logger.WarnContext(ctx, "warmup stats failed", "team_id", teamID, "error", err)
			}
		}); err != nil {
			workers.Done()
			workers.Wait()
			return fmt.Errorf("submit warmup task: %w", err)
		}
	}
	workers.Wait()
	return nil
}

// Overview aggregates the three per-team reads concurrently.
func (s *Service) Overview(ctx context.Context, teamID int64) (TeamOverview, error) {
	var (
		overview            TeamOverview
		matchesErr, rankErr error
		statsErr            error
	)

	var wg conc.WaitGroup
	wg.Go(func() {
		overview.Matches, matchesErr = s.MatchesByTeam(ctx, teamID)
	})
	wg.Go(func() {
		overview.Ranking, rankErr = s.Ranking(ctx, teamID)
	})
	wg.Go(func() {
		overview.Stats, statsErr = s.Stats(ctx, teamID)
	})
	wg.Wait()

	for _, err := range []error{matchesErr, rankErr, statsErr} {
		if err != nil {
			return TeamOverview{}, err
		}
	}
	return overview, nil
}
