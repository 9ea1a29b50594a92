package api

import (
	"net/http"
	"net/http/pprof"

	"github.com/gorilla/mux"

	"barrage/handlers"
)

// corsMiddleware handles CORS for API routes
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "*")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// localhostOnlyMiddleware restricts access to localhost requests only
func localhostOnlyMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		host := r.Host
		for i := len(host) - 1; i >= 0; i-- {
			if host[i] == ':' {
				host = host[:i]
				break
			}
		}
		if host != "localhost" && host != "127.0.0.1" && host != "::1" {
			http.Error(w, "Debug endpoints only accessible from localhost", http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Register mounts API endpoints onto the provided router.
func Register(
	r *mux.Router,
	commentHandler *handlers.CommentHandler,
	searchHandler *handlers.SearchHandler,
	bangumiHandler *handlers.BangumiHandler,
	matchHandler *handlers.MatchHandler,
	cacheHandler *handlers.CacheHandler,
) {
	api := r.PathPrefix("/api").Subrouter()
	api.Use(corsMiddleware)

	v2 := api.PathPrefix("/v2").Subrouter()
	v2.HandleFunc("/comment/{commentId}", commentHandler.GetComments).Methods(http.MethodGet, http.MethodOptions)
	v2.HandleFunc("/search/anime", searchHandler.SearchAnime).Methods(http.MethodGet, http.MethodOptions)
	v2.HandleFunc("/search/episodes", searchHandler.SearchEpisodes).Methods(http.MethodGet, http.MethodOptions)
	v2.HandleFunc("/bangumi/{animeId}", bangumiHandler.GetBangumi).Methods(http.MethodGet, http.MethodOptions)
	v2.HandleFunc("/match", matchHandler.Match).Methods(http.MethodPost, http.MethodOptions)

	api.HandleFunc("/cache/stats", cacheHandler.Stats).Methods(http.MethodGet, http.MethodOptions)
	api.HandleFunc("/cache/clear", cacheHandler.Clear).Methods(http.MethodPost, http.MethodOptions)

	// Debug endpoints (localhost only)
	debug := r.PathPrefix("/debug").Subrouter()
	debug.Use(localhostOnlyMiddleware)
	debug.HandleFunc("/pprof/", pprof.Index)
	debug.HandleFunc("/pprof/cmdline", pprof.Cmdline)
	debug.HandleFunc("/pprof/profile", pprof.Profile)
	debug.HandleFunc("/pprof/symbol", pprof.Symbol)
	debug.HandleFunc("/pprof/trace", pprof.Trace)
	debug.PathPrefix("/pprof/").Handler(http.HandlerFunc(pprof.Index))
}
