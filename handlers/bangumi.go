package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"barrage/models"
	"barrage/services/store"
)

type BangumiHandler struct {
	Store *store.Store
}

func NewBangumiHandler(st *store.Store) *BangumiHandler {
	return &BangumiHandler{Store: st}
}

type bangumiResponse struct {
	ErrorCode    int                   `json:"errorCode"`
	Success      bool                  `json:"success"`
	ErrorMessage string                `json:"errorMessage"`
	Bangumi      *models.BangumiDetail `json:"bangumi"`
}

// GetBangumi serves GET /api/v2/bangumi/{animeId} from the identifier
// store: one season block plus the stored episodes with their surrogate
// ids.
func (h *BangumiHandler) GetBangumi(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	animeID, err := strconv.ParseInt(mux.Vars(r)["animeId"], 10, 64)
	if err != nil {
		json.NewEncoder(w).Encode(bangumiResponse{ErrorCode: 400, ErrorMessage: "invalid anime id"})
		return
	}

	program, ok := h.Store.Program(animeID)
	if !ok {
		json.NewEncoder(w).Encode(bangumiResponse{ErrorCode: 404, ErrorMessage: "anime not found"})
		return
	}
	episodes := h.Store.EpisodesOf(animeID)

	detail := &models.BangumiDetail{
		AnimeID:         program.ProgramID,
		BangumiID:       program.ExternalID,
		AnimeTitle:      program.Title,
		ImageURL:        program.CoverURL,
		IsOnAir:         false,
		IsFavorited:     program.IsFavorited,
		Rating:          program.Rating,
		Type:            program.Category,
		TypeDescription: program.CategoryLabel,
		Seasons: []models.BangumiSeason{{
			ID:           program.ExternalID,
			AirDate:      program.FirstAirDate,
			Name:         program.Title,
			EpisodeCount: len(episodes),
		}},
		Episodes: make([]models.BangumiEpisode, 0, len(episodes)),
	}
	for _, ep := range episodes {
		title := ep.Label
		if title == "" {
			title = ep.Number
		}
		detail.Episodes = append(detail.Episodes, models.BangumiEpisode{
			SeasonID:      program.ExternalID,
			EpisodeID:     ep.ID,
			EpisodeTitle:  title,
			EpisodeNumber: ep.Number,
			AirDate:       program.FirstAirDate,
		})
	}
	json.NewEncoder(w).Encode(bangumiResponse{Success: true, Bangumi: detail})
}
