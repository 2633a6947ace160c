package stats

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/soniCaH/kcvv-data/internal/platform/logging"
)

func newTestService(t *testing.T, handler http.Handler) (*Service, *atomic.Int32) {
	t.Helper()
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		handler.ServeHTTP(w, r)
	}))
	t.Cleanup(server.Close)

	client := NewClient(ClientConfig{
		BaseURL:      server.URL,
		LogoTemplate: "https://cdn.example.be/logo/%d.jpg",
		MaxRetries:   -1,
		Logger:       logging.NewNop(),
	})
	service := NewService(client, ServiceConfig{
		ShortTTL: 100 * time.Millisecond,
		LongTTL:  time.Minute,
		Logger:   logging.NewNop(),
	})
	return service, &hits
}

func matchListBody(status int) string {
	return fmt.Sprintf(`[{"id": 771, "date": "2026-08-23 15:00", "status": %d,
		"homeClub": {"id": 30035, "name": "KCVV Elewijt"},
		"awayClub": {"id": 77, "name": "FC Zemst"}}]`, status)
}

func matchDetailBody(status int) string {
	return fmt.Sprintf(`{"general": {"id": 771, "date": "2026-08-23 15:00", "status": %d,
		"homeClub": {"id": 30035, "name": "KCVV Elewijt"},
		"awayClub": {"id": 77, "name": "FC Zemst"}}}`, status)
}

func TestService_ConcurrentLookupsCoalesce(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	service, hits := newTestService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
		fmt.Fprint(w, matchListBody(0))
	}))

	const workers = 8
	var wg sync.WaitGroup
	errs := make([]error, workers)
	for i := 0; i < workers; i++ {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = service.MatchesByTeam(context.Background(), 2)
		}()
	}
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			t.Fatalf("worker %d: %v", i, err)
		}
	}
	if got := hits.Load(); got != 1 {
		t.Fatalf("upstream hit %d times, want 1", got)
	}
}

func TestService_CachedAfterFirstLookup(t *testing.T) {
	t.Parallel()

	service, hits := newTestService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, matchListBody(1))
	}))

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		if _, err := service.MatchesByTeam(ctx, 2); err != nil {
			t.Fatalf("lookup %d: %v", i, err)
		}
	}
	if got := hits.Load(); got != 1 {
		t.Fatalf("upstream hit %d times, want 1", got)
	}
}

func TestService_LiveMatchDetailBypassesCache(t *testing.T) {
	t.Parallel()

	service, hits := newTestService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, matchDetailBody(2))
	}))

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		detail, err := service.MatchDetail(ctx, 771)
		if err != nil {
			t.Fatalf("lookup %d: %v", i, err)
		}
		if detail.General.Status != StatusLive {
			t.Fatalf("status = %q", detail.General.Status)
		}
	}
	if got := hits.Load(); got != 3 {
		t.Fatalf("upstream hit %d times, want 3 (no caching for live)", got)
	}
}

func TestService_FinishedMatchDetailCached(t *testing.T) {
	t.Parallel()

	service, hits := newTestService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, matchDetailBody(1))
	}))

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		if _, err := service.MatchDetail(ctx, 771); err != nil {
			t.Fatalf("lookup %d: %v", i, err)
		}
	}
	if got := hits.Load(); got != 1 {
		t.Fatalf("upstream hit %d times, want 1", got)
	}
}

func TestService_FlushForcesRefetch(t *testing.T) {
	t.Parallel()

	service, hits := newTestService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, matchListBody(1))
	}))

	ctx := context.Background()
	if _, err := service.MatchesByTeam(ctx, 2); err != nil {
		t.Fatalf("first lookup: %v", err)
	}
	service.Flush(ctx)
	if _, err := service.MatchesByTeam(ctx, 2); err != nil {
		t.Fatalf("second lookup: %v", err)
	}
	if got := hits.Load(); got != 2 {
		t.Fatalf("upstream hit %d times, want 2", got)
	}
}

func TestService_Overview(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("/teams/2/matches", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, matchListBody(1))
	})
	mux.HandleFunc("/teams/2/ranking", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `[{"position": 1, "team": {"id": 30035, "name": "KCVV Elewijt"}, "points": 13}]`)
	})
	mux.HandleFunc("/teams/2/stats", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"teamId": 2, "matchesPlayed": 5, "wins": 4}`)
	})
	service, _ := newTestService(t, mux)

	overview, err := service.Overview(context.Background(), 2)
	if err != nil {
		t.Fatalf("Overview: %v", err)
	}
	if len(overview.Matches) != 1 || len(overview.Ranking) != 1 {
		t.Fatalf("overview = %+v", overview)
	}
	if overview.Stats.Wins != 4 {
		t.Fatalf("stats = %+v", overview.Stats)
	}
}

func TestService_WarmupTeams(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	for _, teamID := range []int64{1, 2, 3} {
		teamID := teamID
		mux.HandleFunc(fmt.Sprintf("/teams/%d/matches", teamID), func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, matchListBody(0))
		})
		mux.HandleFunc(fmt.Sprintf("/teams/%d/ranking", teamID), func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `[{"position": 1, "team": {"id": 30035, "name": "KCVV Elewijt"}, "points": 3}]`)
		})
		mux.HandleFunc(fmt.Sprintf("/teams/%d/stats", teamID), func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `{"teamId": 1, "matchesPlayed": 1}`)
		})
	}
	service, hits := newTestService(t, mux)

	if err := service.WarmupTeams(context.Background(), []int64{1, 2, 3}); err != nil {
		t.Fatalf("WarmupTeams: %v", err)
	}
	warmupHits := hits.Load()
	if warmupHits != 9 {
		t.Fatalf("warmup hit upstream %d times, want 9", warmupHits)
	}

	// Subsequent reads come from the warmed cache.
	if _, err := service.MatchesByTeam(context.Background(), 1); err != nil {
		t.Fatalf("MatchesByTeam after warmup: %v", err)
	}
	if got := hits.Load(); got != warmupHits {
		t.Fatalf("warmed read hit upstream: %d -> %d", warmupHits, got)
	}
}

// stubWarmupPool accepts a fixed number of submissions, holding their tasks
// until the first rejected submission releases them.
type stubWarmupPool struct {
	submitted int
	limit     int
	release   chan struct{}
}

func (p *stubWarmupPool) Submit(task func()) error {
	if p.submitted >= p.limit {
		close(p.release)
		return errors.New("pool exhausted")
	}
	p.submitted++
	go func() {
		<-p.release
		task()
	}()
	return nil
}

func (p *stubWarmupPool) Release() {}

func TestService_WarmupWaitsForSubmittedTasksOnSubmitFailure(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/teams/1/matches", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, matchListBody(0))
	})
	mux.HandleFunc("/teams/1/ranking", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `[{"position": 1, "team": {"id": 30035, "name": "KCVV Elewijt"}, "points": 3}]`)
	})
	mux.HandleFunc("/teams/1/stats", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"teamId": 1, "matchesPlayed": 1}`)
	})
	service, hits := newTestService(t, mux)

	orig := newWarmupPool
	newWarmupPool = func(size int) (warmupPool, error) {
		return &stubWarmupPool{limit: 1, release: make(chan struct{})}, nil
	}
	defer func() { newWarmupPool = orig }()

	if err := service.WarmupTeams(context.Background(), []int64{1, 2}); err == nil {
		t.Fatal("expected the rejected submission to surface as an error")
	}
	if got := hits.Load(); got != 3 {
		t.Fatalf("submitted task incomplete at return: %d upstream hits, want 3", got)
	}
}
