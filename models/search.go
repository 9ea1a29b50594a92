package models

// ProviderTag identifies a program catalog source.
type ProviderTag string

const (
	Provider360Kan  ProviderTag = "360kan"
	ProviderVod     ProviderTag = "vod"
	ProviderRenren  ProviderTag = "renren"
	ProviderHanjuTV ProviderTag = "hanjutv"
)

// PlayLink is one watchable episode reference discovered by search.
// RemoteRef is the opaque upstream reference (URL, cid or pid) the comment
// router resolves later; SurrogateID is assigned when the link is inserted
// into the episode store.
type PlayLink struct {
	SurrogateID int    `json:"id,omitempty"`
	Label       string `json:"name"`
	RemoteRef   string `json:"url"`
	Title       string `json:"title"`
	PlatformTag string `json:"platform,omitempty"`
	Episode     string `json:"episode,omitempty"`
}

// SearchResult is a provider-tagged candidate program.
type SearchResult struct {
	Provider      ProviderTag `json:"provider"`
	ProgramID     int64       `json:"animeId"`
	ExternalID    string      `json:"bangumiId"`
	Title         string      `json:"animeTitle"`
	Category      string      `json:"type"`
	CategoryLabel string      `json:"typeDescription"`
	CoverURL      string      `json:"imageUrl"`
	FirstAirDate  string      `json:"startDate"`
	EpisodeCount  int         `json:"episodeCount"`
	Rating        float64     `json:"rating"`
	Season        int         `json:"season,omitempty"`
	Year          string      `json:"year,omitempty"`
	IsFavorited   bool        `json:"isFavorited"`
	PlayLinks     []PlayLink  `json:"links,omitempty"`
}

// ProgramInfo is the outward-facing view of a SearchResult with provider
// internals stripped, matching the dandanplay search payload field for field.
type ProgramInfo struct {
	AnimeID         int64   `json:"animeId"`
	BangumiID       string  `json:"bangumiId"`
	AnimeTitle      string  `json:"animeTitle"`
	Type            string  `json:"type"`
	TypeDescription string  `json:"typeDescription"`
	ImageURL        string  `json:"imageUrl"`
	StartDate       string  `json:"startDate"`
	EpisodeCount    int     `json:"episodeCount"`
	Rating          float64 `json:"rating"`
	IsFavorited     bool    `json:"isFavorited"`
}

// APIView converts a SearchResult to its outward representation.
func (r SearchResult) APIView() ProgramInfo {
	return ProgramInfo{
		AnimeID:         r.ProgramID,
		BangumiID:       r.ExternalID,
		AnimeTitle:      r.Title,
		Type:            r.Category,
		TypeDescription: r.CategoryLabel,
		ImageURL:        r.CoverURL,
		StartDate:       r.FirstAirDate,
		EpisodeCount:    r.EpisodeCount,
		Rating:          r.Rating,
		IsFavorited:     r.IsFavorited,
	}
}

// BangumiSeason is one season block in the bangumi detail payload.
type BangumiSeason struct {
	ID           string `json:"id"`
	AirDate      string `json:"airDate"`
	Name         string `json:"name"`
	EpisodeCount int    `json:"episodeCount"`
}

// BangumiEpisode is one episode row in the bangumi detail payload.
type BangumiEpisode struct {
	SeasonID      string `json:"seasonId"`
	EpisodeID     int    `json:"episodeId"`
	EpisodeTitle  string `json:"episodeTitle"`
	EpisodeNumber string `json:"episodeNumber"`
	AirDate       string `json:"airDate"`
}

// BangumiDetail is the full program view served by the bangumi endpoint.
type BangumiDetail struct {
	AnimeID         int64            `json:"animeId"`
	BangumiID       string           `json:"bangumiId"`
	AnimeTitle      string           `json:"animeTitle"`
	ImageURL        string           `json:"imageUrl"`
	IsOnAir         bool             `json:"isOnAir"`
	AirDay          int              `json:"airDay"`
	IsFavorited     bool             `json:"isFavorited"`
	Rating          float64          `json:"rating"`
	Type            string           `json:"type"`
	TypeDescription string           `json:"typeDescription"`
	Seasons         []BangumiSeason  `json:"seasons"`
	Episodes        []BangumiEpisode `json:"episodes"`
}

// MatchResult is one candidate returned by the filename match endpoint.
type MatchResult struct {
	EpisodeID       int     `json:"episodeId"`
	AnimeID         int64   `json:"animeId"`
	AnimeTitle      string  `json:"animeTitle"`
	EpisodeTitle    string  `json:"episodeTitle"`
	Type            string  `json:"type"`
	TypeDescription string  `json:"typeDescription"`
	Shift           float64 `json:"shift"`
	ImageURL        string  `json:"imageUrl"`
}
