package handlers

import (
	"encoding/json"
	"log"
	"net/http"
	"strconv"
	"strings"

	"barrage/models"
	"barrage/services/search"
	"barrage/services/store"
)

type SearchHandler struct {
	Service *search.Service
	Store   *store.Store
}

func NewSearchHandler(svc *search.Service, st *store.Store) *SearchHandler {
	return &SearchHandler{Service: svc, Store: st}
}

type searchResponse struct {
	ErrorCode    int                  `json:"errorCode"`
	Success      bool                 `json:"success"`
	ErrorMessage string               `json:"errorMessage"`
	Animes       []models.ProgramInfo `json:"animes"`
}

// SearchAnime serves GET /api/v2/search/anime. Results are registered in
// the identifier store before provider internals are stripped from the
// response, so a follow-up bangumi or comment call can resolve them.
func (h *SearchHandler) SearchAnime(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	q := r.URL.Query()

	keyword := q.Get("keyword")
	if keyword == "" {
		keyword = q.Get("anime")
	}
	if strings.TrimSpace(keyword) == "" {
		json.NewEncoder(w).Encode(searchResponse{
			ErrorCode:    400,
			ErrorMessage: "keyword is required",
			Animes:       []models.ProgramInfo{},
		})
		return
	}

	req := search.Request{
		Keyword: keyword,
		NoCache: q.Get("nocache") == "true",
	}
	if providers := q.Get("providers"); providers != "" {
		req.Providers = strings.Split(providers, ",")
	}
	if season := q.Get("season"); season != "" {
		req.Season, _ = strconv.Atoi(season)
	}
	if max := q.Get("maxResults"); max != "" {
		req.MaxResults, _ = strconv.Atoi(max)
	}

	results, err := h.Service.Search(r.Context(), req)
	if err != nil {
		log.Printf("[search] %q failed: %v", keyword, err)
		json.NewEncoder(w).Encode(searchResponse{
			ErrorCode:    500,
			ErrorMessage: err.Error(),
			Animes:       []models.ProgramInfo{},
		})
		return
	}

	animes := make([]models.ProgramInfo, 0, len(results))
	for _, result := range results {
		if h.Store != nil {
			h.Store.PutProgram(result)
			for _, link := range result.PlayLinks {
				h.Store.PutEpisode(result, link)
			}
		}
		animes = append(animes, result.APIView())
	}
	json.NewEncoder(w).Encode(searchResponse{Success: true, Animes: animes})
}

// maxEpisodeListing caps the unfiltered episode listing per program.
const maxEpisodeListing = 50

type episodeRef struct {
	EpisodeID    int    `json:"episodeId"`
	EpisodeTitle string `json:"episodeTitle"`
}

type episodeGroup struct {
	AnimeID         int64        `json:"animeId"`
	AnimeTitle      string       `json:"animeTitle"`
	Type            string       `json:"type"`
	TypeDescription string       `json:"typeDescription"`
	Episodes        []episodeRef `json:"episodes"`
}

type episodesResponse struct {
	ErrorCode    int            `json:"errorCode"`
	Success      bool           `json:"success"`
	ErrorMessage string         `json:"errorMessage"`
	HasMore      bool           `json:"hasMore"`
	Animes       []episodeGroup `json:"animes"`
}

// SearchEpisodes serves GET /api/v2/search/episodes. It searches by
// program title, registers the hits so the returned episode ids stay
// resolvable, and optionally narrows to one episode number ("episode=3")
// or to films ("episode=movie").
func (h *SearchHandler) SearchEpisodes(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	q := r.URL.Query()

	anime := strings.TrimSpace(q.Get("anime"))
	if anime == "" {
		json.NewEncoder(w).Encode(episodesResponse{
			ErrorCode:    400,
			ErrorMessage: "anime is required",
			Animes:       []episodeGroup{},
		})
		return
	}
	episode := strings.TrimSpace(q.Get("episode"))

	results, err := h.Service.Search(r.Context(), search.Request{Keyword: anime})
	if err != nil {
		log.Printf("[search] episodes for %q failed: %v", anime, err)
		json.NewEncoder(w).Encode(episodesResponse{
			ErrorCode:    500,
			ErrorMessage: err.Error(),
			Animes:       []episodeGroup{},
		})
		return
	}

	animes := make([]episodeGroup, 0, len(results))
	for _, result := range results {
		var eps []store.Episode
		if h.Store != nil {
			h.Store.PutProgram(result)
			for _, link := range result.PlayLinks {
				h.Store.PutEpisode(result, link)
			}
			eps = h.Store.EpisodesOf(result.ProgramID)
		}

		eps = filterEpisodes(result, eps, episode)
		if len(eps) == 0 {
			continue
		}
		group := episodeGroup{
			AnimeID:         result.ProgramID,
			AnimeTitle:      result.Title,
			Type:            result.Category,
			TypeDescription: result.CategoryLabel,
		}
		for _, ep := range eps {
			title := ep.Label
			if title == "" {
				title = ep.Title
			}
			group.Episodes = append(group.Episodes, episodeRef{EpisodeID: ep.ID, EpisodeTitle: title})
		}
		animes = append(animes, group)
	}
	json.NewEncoder(w).Encode(episodesResponse{Success: true, Animes: animes})
}

// filterEpisodes applies the episode query parameter: empty lists
// everything (capped), "movie" keeps film-typed programs only, a number
// keeps the matching episode.
func filterEpisodes(result models.SearchResult, eps []store.Episode, episode string) []store.Episode {
	switch {
	case episode == "":
		if len(eps) > maxEpisodeListing {
			eps = eps[:maxEpisodeListing]
		}
		return eps
	case episode == "movie":
		if !looksLikeFilm(result) || len(eps) == 0 {
			return nil
		}
		return eps[:1]
	default:
		n, err := strconv.Atoi(episode)
		if err != nil || n <= 0 {
			return nil
		}
		for _, ep := range eps {
			if ep.Number == episode {
				return []store.Episode{ep}
			}
		}
		if n <= len(eps) {
			return []store.Episode{eps[n-1]}
		}
		return nil
	}
}

func looksLikeFilm(r models.SearchResult) bool {
	return strings.Contains(r.Category, "movie") ||
		strings.Contains(r.CategoryLabel, "电影") ||
		strings.Contains(r.CategoryLabel, "剧场版") ||
		strings.Contains(strings.ToLower(r.Title), "movie") ||
		strings.Contains(r.Title, "剧场版")
}
