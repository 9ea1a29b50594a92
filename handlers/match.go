package handlers

import (
	"encoding/json"
	"log"
	"net/http"
	"strconv"

	"barrage/models"
	"barrage/services/search"
	"barrage/services/store"
)

type MatchHandler struct {
	Service *search.Service
	Store   *store.Store
}

func NewMatchHandler(svc *search.Service, st *store.Store) *MatchHandler {
	return &MatchHandler{Service: svc, Store: st}
}

type matchRequest struct {
	FileName string `json:"fileName"`
}

type matchResponse struct {
	ErrorCode    int                  `json:"errorCode"`
	Success      bool                 `json:"success"`
	ErrorMessage string               `json:"errorMessage"`
	IsMatched    bool                 `json:"isMatched"`
	Matches      []models.MatchResult `json:"matches"`
}

// Match serves POST /api/v2/match: parse the episode filename, search the
// title with its season, and line candidate programs up against the
// requested episode number.
func (h *MatchHandler) Match(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	var req matchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.FileName == "" {
		json.NewEncoder(w).Encode(matchResponse{
			ErrorCode:    400,
			ErrorMessage: "fileName is required",
			Matches:      []models.MatchResult{},
		})
		return
	}

	parsed, ok := search.ParseFileName(req.FileName)
	if !ok {
		json.NewEncoder(w).Encode(matchResponse{Success: true, Matches: []models.MatchResult{}})
		return
	}
	log.Printf("[match] %q -> title=%q season=%d episode=%d", req.FileName, parsed.Title, parsed.Season, parsed.Episode)

	results, err := h.Service.Search(r.Context(), search.Request{
		Keyword: parsed.Title,
		Season:  parsed.Season,
	})
	if err != nil {
		json.NewEncoder(w).Encode(matchResponse{
			ErrorCode:    500,
			ErrorMessage: err.Error(),
			Matches:      []models.MatchResult{},
		})
		return
	}

	matches := []models.MatchResult{}
	for _, result := range results {
		link, ok := episodeLink(result, parsed.Episode)
		if !ok {
			continue
		}
		if h.Store != nil {
			h.Store.PutProgram(result)
		}
		episodeID := 0
		if h.Store != nil {
			episodeID = h.Store.PutEpisode(result, link)
		}
		matches = append(matches, models.MatchResult{
			EpisodeID:       episodeID,
			AnimeID:         result.ProgramID,
			AnimeTitle:      result.Title,
			EpisodeTitle:    link.Label,
			Type:            result.Category,
			TypeDescription: result.CategoryLabel,
			ImageURL:        result.CoverURL,
		})
	}
	json.NewEncoder(w).Encode(matchResponse{
		Success:   true,
		IsMatched: len(matches) == 1,
		Matches:   matches,
	})
}

func episodeLink(result models.SearchResult, episode int) (models.PlayLink, bool) {
	if episode <= 0 {
		return models.PlayLink{}, false
	}
	want := strconv.Itoa(episode)
	for _, link := range result.PlayLinks {
		if link.Episode == want {
			return link, true
		}
	}
	if episode <= len(result.PlayLinks) {
		return result.PlayLinks[episode-1], true
	}
	return models.PlayLink{}, false
}
