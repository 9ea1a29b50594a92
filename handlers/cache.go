package handlers

import (
	"encoding/json"
	"log"
	"net/http"

	"barrage/services/search"
	"barrage/services/store"
)

type CacheHandler struct {
	Search *search.Service
	Store  *store.Store
}

func NewCacheHandler(svc *search.Service, st *store.Store) *CacheHandler {
	return &CacheHandler{Search: svc, Store: st}
}

// Stats serves GET /api/cache/stats.
func (h *CacheHandler) Stats(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	programs, episodes := h.Store.Stats()
	json.NewEncoder(w).Encode(map[string]int{
		"programs":      programs,
		"episodes":      episodes,
		"searchEntries": h.Search.CacheEntries(),
	})
}

// Clear serves POST /api/cache/clear: drops the identifier store and the
// search response cache.
func (h *CacheHandler) Clear(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	h.Store.Clear()
	h.Search.ClearCache()
	log.Printf("[cache] cleared by %s", r.RemoteAddr)
	json.NewEncoder(w).Encode(map[string]bool{"success": true})
}
