package httpapi

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/soniCaH/kcvv-data/internal/cms"
	"github.com/soniCaH/kcvv-data/internal/platform/logging"
	"github.com/soniCaH/kcvv-data/internal/stats"
)

type Handler struct {
	content   *cms.Client
	stats     *stats.Service
	logger    *logging.Logger
	validator *validator.Validate
}

func NewHandler(content *cms.Client, statsService *stats.Service, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{
		content:   content,
		stats:     statsService,
		logger:    logger,
		validator: validator.New(),
	}
}

func (h *Handler) validateRequest(ctx context.Context, payload any) error {
	if err := h.validator.StructCtx(ctx, payload); err != nil {
		return fmt.Errorf("%w: validation failed: %v", errInvalidInput, err)
	}
	return nil
}

func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(r.Context(), w, http.StatusOK, map[string]string{"status": "ok"})
}

// --- content routes -------------------------------------------------------

type listArticlesQuery struct {
	Offset int `validate:"gte=0"`
}

type articleListDTO struct {
	Articles []cms.Article `json:"articles"`
	HasMore  bool          `json:"has_more"`
	Offset   int           `json:"offset"`
}

func (h *Handler) ListArticles(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListArticles")
	defer span.End()

	offset, err := queryInt(r, "offset", 0)
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	query := listArticlesQuery{Offset: offset}
	if err := h.validateRequest(ctx, query); err != nil {
		writeError(ctx, w, err)
		return
	}

	articles, hasMore, err := h.content.ListArticles(ctx, query.Offset)
	if err != nil {
		h.logger.WarnContext(ctx, "list articles failed", "offset", query.Offset, "error", err)
		writeError(ctx, w, err)
		return
	}
	writeSuccess(ctx, w, http.StatusOK, articleListDTO{
		Articles: articles,
		HasMore:  hasMore,
		Offset:   query.Offset,
	})
}

func (h *Handler) GetArticle(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetArticle")
	defer span.End()

	id := strings.TrimSpace(r.PathValue("articleID"))
	article, err := h.content.GetArticle(ctx, id)
	if err != nil {
		h.logger.WarnContext(ctx, "get article failed", "article_id", id, "error", err)
		writeError(ctx, w, err)
		return
	}
	writeSuccess(ctx, w, http.StatusOK, article)
}

func (h *Handler) GetArticleBySlug(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetArticleBySlug")
	defer span.End()

	slug := strings.TrimSpace(r.PathValue("slug"))
	if slug == "" {
		writeError(ctx, w, fmt.Errorf("%w: slug is required", errInvalidInput))
		return
	}

	article, err := h.content.GetArticleByAlias(ctx, slug)
	if err != nil {
		h.logger.WarnContext(ctx, "get article by slug failed", "slug", slug, "error", err)
		writeError(ctx, w, err)
		return
	}
	writeSuccess(ctx, w, http.StatusOK, article)
}

func (h *Handler) ListTeams(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListTeams")
	defer span.End()

	teams, err := h.content.ListTeams(ctx)
	if err != nil {
		h.logger.WarnContext(ctx, "list teams failed", "error", err)
		writeError(ctx, w, err)
		return
	}
	writeSuccess(ctx, w, http.StatusOK, teams)
}

func (h *Handler) GetTeam(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetTeam")
	defer span.End()

	id := strings.TrimSpace(r.PathValue("teamID"))
	team, err := h.content.GetTeam(ctx, id)
	if err != nil {
		h.logger.WarnContext(ctx, "get team failed", "team_id", id, "error", err)
		writeError(ctx, w, err)
		return
	}
	writeSuccess(ctx, w, http.StatusOK, team)
}

func (h *Handler) GetTeamByPath(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetTeamByPath")
	defer span.End()

	path := strings.TrimSpace(r.URL.Query().Get("path"))
	if path == "" {
		writeError(ctx, w, fmt.Errorf("%w: path query parameter is required", errInvalidInput))
		return
	}

	team, err := h.content.GetTeamByAlias(ctx, path)
	if err != nil {
		h.logger.WarnContext(ctx, "get team by path failed", "path", path, "error", err)
		writeError(ctx, w, err)
		return
	}
	writeSuccess(ctx, w, http.StatusOK, team)
}

func (h *Handler) ListTeamPlayers(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListTeamPlayers")
	defer span.End()

	teamID := strings.TrimSpace(r.PathValue("teamID"))
	players, err := h.content.ListPlayersByTeam(ctx, teamID)
	if err != nil {
		h.logger.WarnContext(ctx, "list team players failed", "team_id", teamID, "error", err)
		writeError(ctx, w, err)
		return
	}
	writeSuccess(ctx, w, http.StatusOK, players)
}

func (h *Handler) GetPlayer(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetPlayer")
	defer span.End()

	id := strings.TrimSpace(r.PathValue("playerID"))
	player, err := h.content.GetPlayer(ctx, id)
	if err != nil {
		h.logger.WarnContext(ctx, "get player failed", "player_id", id, "error", err)
		writeError(ctx, w, err)
		return
	}
	writeSuccess(ctx, w, http.StatusOK, player)
}

func (h *Handler) GetEvent(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetEvent")
	defer span.End()

	id := strings.TrimSpace(r.PathValue("eventID"))
	event, err := h.content.GetEvent(ctx, id)
	if err != nil {
		h.logger.WarnContext(ctx, "get event failed", "event_id", id, "error", err)
		writeError(ctx, w, err)
		return
	}
	writeSuccess(ctx, w, http.StatusOK, event)
}

func (h *Handler) ListEvents(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListEvents")
	defer span.End()

	events, err := h.content.ListEvents(ctx, time.Now())
	if err != nil {
		h.logger.WarnContext(ctx, "list events failed", "error", err)
		writeError(ctx, w, err)
		return
	}
	writeSuccess(ctx, w, http.StatusOK, events)
}

func (h *Handler) ListSponsors(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListSponsors")
	defer span.End()

	sponsors, err := h.content.ListSponsors(ctx)
	if err != nil {
		h.logger.WarnContext(ctx, "list sponsors failed", "error", err)
		writeError(ctx, w, err)
		return
	}
	writeSuccess(ctx, w, http.StatusOK, sponsors)
}

// --- stats routes ---------------------------------------------------------

func (h *Handler) ListNextMatches(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListNextMatches")
	defer span.End()

	matches, err := h.stats.NextMatches(ctx)
	if err != nil {
		h.logger.WarnContext(ctx, "list next matches failed", "error", err)
		writeError(ctx, w, err)
		return
	}
	writeSuccess(ctx, w, http.StatusOK, matches)
}

func (h *Handler) ListTeamMatches(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListTeamMatches")
	defer span.End()

	teamID, err := pathInt64(r, "teamRefID")
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	matches, err := h.stats.MatchesByTeam(ctx, teamID)
	if err != nil {
		h.logger.WarnContext(ctx, "list team matches failed", "team_ref_id", teamID, "error", err)
		writeError(ctx, w, err)
		return
	}
	writeSuccess(ctx, w, http.StatusOK, matches)
}

func (h *Handler) GetTeamRanking(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetTeamRanking")
	defer span.End()

	teamID, err := pathInt64(r, "teamRefID")
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	ranking, err := h.stats.Ranking(ctx, teamID)
	if err != nil {
		h.logger.WarnContext(ctx, "get ranking failed", "team_ref_id", teamID, "error", err)
		writeError(ctx, w, err)
		return
	}
	writeSuccess(ctx, w, http.StatusOK, ranking)
}

func (h *Handler) GetTeamStats(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetTeamStats")
	defer span.End()

	teamID, err := pathInt64(r, "teamRefID")
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	teamStats, err := h.stats.Stats(ctx, teamID)
	if err != nil {
		h.logger.WarnContext(ctx, "get team stats failed", "team_ref_id", teamID, "error", err)
		writeError(ctx, w, err)
		return
	}
	writeSuccess(ctx, w, http.StatusOK, teamStats)
}

func (h *Handler) GetTeamOverview(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetTeamOverview")
	defer span.End()

	teamID, err := pathInt64(r, "teamRefID")
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	overview, err := h.stats.Overview(ctx, teamID)
	if err != nil {
		h.logger.WarnContext(ctx, "get team overview failed", "team_ref_id", teamID, "error", err)
		writeError(ctx, w, err)
		return
	}
	writeSuccess(ctx, w, http.StatusOK, overview)
}

func (h *Handler) GetMatchDetail(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetMatchDetail")
	defer span.End()

	matchID, err := pathInt64(r, "matchID")
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	detail, err := h.stats.MatchDetail(ctx, matchID)
	if err != nil {
		h.logger.WarnContext(ctx, "get match detail failed", "match_id", matchID, "error", err)
		writeError(ctx, w, err)
		return
	}
	writeSuccess(ctx, w, http.StatusOK, detail)
}

// FlushCache drops all cached stats reads; internal route.
func (h *Handler) FlushCache(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.FlushCache")
	defer span.End()

	h.stats.Flush(ctx)
	h.logger.InfoContext(ctx, "stats cache flushed")
	writeSuccess(ctx, w, http.StatusOK, map[string]string{"status": "flushed"})
}

// --- request parsing helpers ----------------------------------------------

func queryInt(r *http.Request, name string, fallback int) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return fallback, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: %s must be an integer", errInvalidInput, name)
	}
	return value, nil
}

func pathInt64(r *http.Request, name string) (int64, error) {
	raw := strings.TrimSpace(r.PathValue(name))
	value, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || value <= 0 {
		return 0, fmt.Errorf("%w: %s must be a positive integer", errInvalidInput, name)
	}
	return value, nil
}
