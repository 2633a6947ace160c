package httpapi

import (
	"log/slog"
	"net/http"
)

func NewRouter(
	handler *Handler,
	logger *slog.Logger,
	corsAllowedOrigins []string,
	adminToken string,
) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}

	mux := http.NewServeMux()
	registerSystemRoutes(mux, handler)
	registerContentRoutes(mux, handler)
	registerStatsRoutes(mux, handler)
	registerInternalRoutes(mux, handler, adminToken)

	return RequestTracing(RequestLogging(logger, CORS(corsAllowedOrigins, recoverPanic(logger, mux))))
}

func registerSystemRoutes(mux *http.ServeMux, handler *Handler) {
	mux.HandleFunc("GET /healthz", handler.Healthz)
}

func registerContentRoutes(mux *http.ServeMux, handler *Handler) {
	mux.HandleFunc("GET /v1/news", handler.ListArticles)
	mux.HandleFunc("GET /v1/news/{articleID}", handler.GetArticle)
	mux.HandleFunc("GET /v1/news/slug/{slug...}", handler.GetArticleBySlug)
	mux.HandleFunc("GET /v1/teams", handler.ListTeams)
	mux.HandleFunc("GET /v1/teams/by-path", handler.GetTeamByPath)
	mux.HandleFunc("GET /v1/teams/{teamID}", handler.GetTeam)
	mux.HandleFunc("GET /v1/teams/{teamID}/players", handler.ListTeamPlayers)
	mux.HandleFunc("GET /v1/players/{playerID}", handler.GetPlayer)
	mux.HandleFunc("GET /v1/events", handler.ListEvents)
	mux.HandleFunc("GET /v1/events/{eventID}", handler.GetEvent)
	mux.HandleFunc("GET /v1/sponsors", handler.ListSponsors)
}

func registerStatsRoutes(mux *http.ServeMux, handler *Handler) {
	mux.HandleFunc("GET /v1/matches/next", handler.ListNextMatches)
	mux.HandleFunc("GET /v1/matches/{matchID}", handler.GetMatchDetail)
	mux.HandleFunc("GET /v1/stats/teams/{teamRefID}/matches", handler.ListTeamMatches)
	mux.HandleFunc("GET /v1/stats/teams/{teamRefID}/ranking", handler.GetTeamRanking)
	mux.HandleFunc("GET /v1/stats/teams/{teamRefID}/stats", handler.GetTeamStats)
	mux.HandleFunc("GET /v1/stats/teams/{teamRefID}/overview", handler.GetTeamOverview)
}

func registerInternalRoutes(mux *http.ServeMux, handler *Handler, adminToken string) {
	mux.Handle("POST /v1/internal/cache/flush", RequireAdminToken(adminToken, http.HandlerFunc(handler.FlushCache)))
}

func recoverPanic(logger *slog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		defer func() {
			if rec := recover(); rec != nil {
				logger.ErrorContext(ctx, "panic recovered", "panic", rec)
				writeInternalError(ctx, w)
			}
		}()
		next.ServeHTTP(w, r)
	})
}
