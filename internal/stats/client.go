package stats

import (
	"context"
	"fmt"
	"net/http"
	"reflect"
	"strings"
	"time"

	crerr "github.com/cockroachdb/errors"

	"github.com/soniCaH/kcvv-data/internal/fetch"
	"github.com/soniCaH/kcvv-data/internal/platform/logging"
	"github.com/soniCaH/kcvv-data/internal/platform/resilience"
)

const (
	defaultBaseURL      = "https://api.kcvvelewijt.be/stats"
	defaultLogoTemplate = "https://static.belgianfootball.be/project/publiek/clublogo/%d.jpg"
)

// ErrUnavailable reports that the circuit breaker is open and no request
// was attempted.
var ErrUnavailable = crerr.New("stats provider is temporarily unavailable")

type ClientConfig struct {
	HTTPClient     *http.Client
	BaseURL        string
	LogoTemplate   string
	Timeout        time.Duration
	MaxRetries     int
	Logger         *logging.Logger
	CircuitBreaker resilience.CircuitBreakerConfig
}

// Client reads the stats provider and normalizes its bespoke shapes into
// the internal vocabulary. All reads are plain GETs, no auth.
type Client struct {
	fetch          *fetch.Client
	baseURL        string
	logoTemplate   string
	logger         *logging.Logger
	breaker        *resilience.CircuitBreaker
	circuitEnabled bool
	flight         resilience.SingleFlight
}

func NewClient(cfg ClientConfig) *Client {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}

	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	logoTemplate := strings.TrimSpace(cfg.LogoTemplate)
	if logoTemplate == "" {
		logoTemplate = defaultLogoTemplate
	}

	header := http.Header{}
	header.Set("Accept", "application/json")

	breakerCfg := resilience.NormalizeCircuitBreakerConfig(cfg.CircuitBreaker)
	return &Client{
		fetch: fetch.NewClient(fetch.Config{
			HTTPClient: cfg.HTTPClient,
			MaxRetries: cfg.MaxRetries,
			Timeout:    cfg.Timeout,
			Header:     header,
		}),
		baseURL:        baseURL,
		logoTemplate:   logoTemplate,
		logger:         logger,
		breaker:        resilience.NewCircuitBreaker(breakerCfg),
		circuitEnabled: breakerCfg.Enabled,
	}
}

// MatchesByTeam returns the full fixture list of one team.
func (c *Client) MatchesByTeam(ctx context.Context, teamID int64) ([]Match, error) {
	var wires []wireMatch
	path := fmt.Sprintf("/teams/%d/matches", teamID)
	if err := c.doJSON(ctx, path, &wires); err != nil {
		return nil, err
	}
	return normalizeMatches(wires, c.logoTemplate)
}

// NextMatches returns the club-wide upcoming fixtures across all teams.
func (c *Client) NextMatches(ctx context.Context) ([]Match, error) {
	var wires []wireMatch
	if err := c.doJSON(ctx, "/matches/next", &wires); err != nil {
		return nil, err
	}
	return normalizeMatches(wires, c.logoTemplate)
}

// Ranking returns the league table of the division one team plays in.
func (c *Client) Ranking(ctx context.Context, teamID int64) ([]RankingEntry, error) {
	var wires []wireRankingEntry
	path := fmt.Sprintf("/teams/%d/ranking", teamID)
	if err := c.doJSON(ctx, path, &wires); err != nil {
		return nil, err
	}
	return normalizeRanking(wires, c.logoTemplate)
}

// Stats returns the aggregate season statistics of one team.
func (c *Client) Stats(ctx context.Context, teamID int64) (TeamStats, error) {
	var wire wireTeamStats
	path := fmt.Sprintf("/teams/%d/stats", teamID)
	if err := c.doJSON(ctx, path, &wire); err != nil {
		return TeamStats{}, err
	}
	stats := normalizeTeamStats(wire)
	if stats.TeamID == 0 {
		stats.TeamID = teamID
	}
	return stats, nil
}

// MatchDetail returns the {general, lineup, events} envelope of one match.
func (c *Client) MatchDetail(ctx context.Context, matchID int64) (MatchDetail, error) {
	var wire wireMatchDetail
	path := fmt.Sprintf("/matches/%d", matchID)
	if err := c.doJSON(ctx, path, &wire); err != nil {
		if status, ok := fetch.StatusCode(err); ok && status == http.StatusNotFound {
			return MatchDetail{}, fetch.NewNotFoundError("match", fmt.Sprintf("%d", matchID))
		}
		return MatchDetail{}, err
	}
	return normalizeMatchDetail(wire, c.logoTemplate)
}

// doJSON runs one provider read through the breaker, coalescing concurrent
// identical requests, and decodes the raw body into target.
func (c *Client) doJSON(ctx context.Context, path string, target any) error {
	if c.circuitEnabled {
		if err := c.breaker.Allow(); err != nil {
			c.logger.WarnContext(ctx, "stats circuit breaker rejected request", "state", c.breaker.State())
			return crerr.Mark(err, ErrUnavailable)
		}
	}

	fullURL := c.baseURL + path
	out, err, shared := c.flight.Do(ctx, path, func() (any, error) {
		var raw []byte
		reqErr := c.fetch.GetJSON(ctx, fullURL, func(body []byte) error {
			// Decoding inside the fetch callback keeps parse failures
			// within the retry loop. Each attempt decodes into a fresh
			// value so fields half-written by a failed attempt cannot
			// leak into the next one.
			fresh := reflect.New(reflect.TypeOf(target).Elem())
			if err := fetch.DecodeJSON(body, fresh.Interface()); err != nil {
				return err
			}
			reflect.ValueOf(target).Elem().Set(fresh.Elem())
			raw = append(raw[:0], body...)
			return nil
		})
		if c.circuitEnabled {
			if reqErr != nil && isCircuitFailure(reqErr) {
				c.breaker.RecordFailure()
			} else {
				c.breaker.RecordSuccess()
			}
		}
		return raw, reqErr
	})
	if err != nil {
		return err
	}
	if !shared {
		return nil
	}

	// A coalesced caller shares the winner's raw bytes and decodes its own
	// copy of the payload.
	raw, ok := out.([]byte)
	if !ok {
		return crerr.Newf("unexpected response payload type %T", out)
	}
	return fetch.DecodeJSON(raw, target)
}

// isCircuitFailure reports whether an error should count against the
// breaker. Deterministic outcomes like a 404 or a schema violation say
// nothing about provider health.
func isCircuitFailure(err error) bool {
	if crerr.Is(err, fetch.ErrTransport) || crerr.Is(err, fetch.ErrTimeout) {
		return true
	}
	if status, ok := fetch.StatusCode(err); ok {
		return status >= http.StatusInternalServerError
	}
	return false
}
