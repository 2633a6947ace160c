package stats

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	crerr "github.com/cockroachdb/errors"

	"github.com/soniCaH/kcvv-data/internal/fetch"
	"github.com/soniCaH/kcvv-data/internal/platform/logging"
	"github.com/soniCaH/kcvv-data/internal/platform/resilience"
)

func newTestProvider(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	return NewClient(ClientConfig{
		BaseURL:      server.URL,
		LogoTemplate: "https://cdn.example.be/logo/%d.jpg",
		MaxRetries:   -1,
		Logger:       logging.NewNop(),
	})
}

func TestMatchesByTeam_Normalized(t *testing.T) {
	t.Parallel()

	client := newTestProvider(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/teams/2/matches" {
			t.Errorf("path = %q", r.URL.Path)
		}
		fmt.Fprint(w, `[
			{"id": 771, "date": "2026-08-23 15:00", "status": 1,
			 "homeClub": {"id": 30035, "name": "KCVV Elewijt"},
			 "awayClub": {"id": 77, "name": "FC Zemst"},
			 "goalsHomeTeam": 3, "goalsAwayTeam": 1},
			{"id": 772, "date": "2026-08-30 20:00", "status": 0,
			 "homeClub": {"id": 88, "name": "Sporting"},
			 "awayClub": {"id": 30035, "name": "KCVV Elewijt"}}
		]`)
	}))

	matches, err := client.MatchesByTeam(context.Background(), 2)
	if err != nil {
		t.Fatalf("MatchesByTeam: %v", err)
	}
	if len(matches) != 2 {
		t.Fatalf("matches = %d, want 2", len(matches))
	}
	if matches[0].Status != StatusFinished || matches[1].Status != StatusScheduled {
		t.Fatalf("statuses = %q, %q", matches[0].Status, matches[1].Status)
	}
	if matches[1].HomeGoals != nil {
		t.Fatalf("unplayed match has goals: %v", matches[1].HomeGoals)
	}
	if matches[0].Away.LogoURL != "https://cdn.example.be/logo/77.jpg" {
		t.Fatalf("away logo = %q", matches[0].Away.LogoURL)
	}
}

func TestMatchDetail_NotFound(t *testing.T) {
	t.Parallel()

	client := newTestProvider(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "unknown match", http.StatusNotFound)
	}))

	_, err := client.MatchDetail(context.Background(), 999)
	if !crerr.Is(err, fetch.ErrNotFound) {
		t.Fatalf("err = %v, want not found", err)
	}
}

func TestRanking_Normalized(t *testing.T) {
	t.Parallel()

	client := newTestProvider(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `[
			{"position": 1, "team": {"id": 30035, "name": "KCVV Elewijt"},
			 "matches": 5, "wins": 4, "draws": 1, "losses": 0,
			 "goalsFor": 12, "goalsAgainst": 3, "points": 13}
		]`)
	}))

	ranking, err := client.Ranking(context.Background(), 2)
	if err != nil {
		t.Fatalf("Ranking: %v", err)
	}
	if len(ranking) != 1 || ranking[0].Position != 1 || ranking[0].Points != 13 {
		t.Fatalf("ranking = %+v", ranking)
	}
	if ranking[0].Club.LogoURL == "" {
		t.Fatal("club logo missing")
	}
}

func TestDoJSON_CircuitOpenShortCircuits(t *testing.T) {
	t.Parallel()

	var hits atomic.Int32
	client := newTestProvider(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	client.breaker = resilience.NewCircuitBreaker(resilience.CircuitBreakerConfig{
		FailureThreshold: 2,
		OpenTimeout:      time.Minute,
		HalfOpenMaxReq:   1,
	})
	client.circuitEnabled = true

	ctx := context.Background()
	for i := 0; i < 2; i++ {
		if _, err := client.NextMatches(ctx); err == nil {
			t.Fatal("expected upstream failure")
		}
	}
	before := hits.Load()

	_, err := client.NextMatches(ctx)
	if !crerr.Is(err, ErrUnavailable) {
		t.Fatalf("err = %v, want circuit rejection", err)
	}
	if got := hits.Load(); got != before {
		t.Fatalf("open breaker still hit upstream: %d -> %d", before, got)
	}
}

func TestDoJSON_RetryDecodesIntoFreshValue(t *testing.T) {
	t.Parallel()

	var hits atomic.Int32
	client := newTestProvider(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) == 1 {
			// Malformed body whose leading fields still decode.
			fmt.Fprint(w, `{"wins": 7, "draws": }`)
			return
		}
		fmt.Fprint(w, `{"teamId": 9}`)
	}))
	header := http.Header{}
	header.Set("Accept", "application/json")
	client.fetch = fetch.NewClient(fetch.Config{
		MaxRetries: 1,
		Backoff:    2 * time.Millisecond,
		Header:     header,
	})

	stats, err := client.Stats(context.Background(), 9)
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if got := hits.Load(); got != 2 {
		t.Fatalf("upstream hits = %d, want 2", got)
	}
	if stats.Wins != 0 {
		t.Fatalf("wins = %d leaked from the failed attempt, want 0", stats.Wins)
	}
	if stats.TeamID != 9 {
		t.Fatalf("team id = %d, want 9", stats.TeamID)
	}
}

func TestDoJSON_ParseFailureSurfaced(t *testing.T) {
	t.Parallel()

	client := newTestProvider(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"not": "an array"`)
	}))

	_, err := client.NextMatches(context.Background())
	if !crerr.Is(err, fetch.ErrParse) {
		t.Fatalf("err = %v, want parse failure", err)
	}
}
