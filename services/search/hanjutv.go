package search

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"strconv"

	"barrage/internal/upstream"
	"barrage/models"
)

// HanjuTVProvider searches the hanjutv aggregate endpoint and expands
// each series into its episode list. Series ids are opaque strings, so
// the numeric program id is a hash of the sid.
type HanjuTVProvider struct {
	httpc   *upstream.Client
	baseURL string
}

func NewHanjuTVProvider(httpc *upstream.Client) *HanjuTVProvider {
	return &HanjuTVProvider{httpc: httpc, baseURL: "https://hxqapi.hiyun.tv"}
}

func (p *HanjuTVProvider) Name() models.ProviderTag { return models.ProviderHanjuTV }

type hanjutvSeries struct {
	Sid       string  `json:"sid"`
	Name      string  `json:"name"`
	PostImage string  `json:"postImage"`
	Score     float64 `json:"score"`
	Year      int     `json:"year"`
	Category  int     `json:"category"`
}

func (p *HanjuTVProvider) Search(ctx context.Context, keyword string) ([]models.SearchResult, error) {
	u := fmt.Sprintf("%s/api/wapi/search/aggregate/search?keyword=%s&scope=&page=1",
		p.baseURL, url.QueryEscape(keyword))
	var resp struct {
		Data struct {
			SeriesList []hanjutvSeries `json:"seriesList"`
		} `json:"data"`
	}
	if err := p.httpc.GetJSON(ctx, u, nil, &resp); err != nil {
		return nil, err
	}

	var out []models.SearchResult
	for _, s := range resp.Data.SeriesList {
		if s.Sid == "" {
			continue
		}
		links, err := p.episodeLinks(ctx, s.Sid, s.Name)
		if err != nil || len(links) == 0 {
			continue
		}
		year := ""
		if s.Year > 0 {
			year = strconv.Itoa(s.Year)
		}
		out = append(out, models.SearchResult{
			Provider:      models.ProviderHanjuTV,
			ProgramID:     hashID(s.Sid),
			ExternalID:    s.Sid,
			Title:         s.Name,
			Category:      "tvseries",
			CategoryLabel: "韩剧",
			CoverURL:      s.PostImage,
			FirstAirDate:  year,
			EpisodeCount:  len(links),
			Rating:        s.Score,
			Year:          year,
			IsFavorited:   true,
			PlayLinks:     links,
		})
	}
	return out, nil
}

// episodeLinks loads the series detail; episodes arrive unordered and
// are sorted by serial number. Each episode sid is the comment
// reference for the hanjutv protocol client.
func (p *HanjuTVProvider) episodeLinks(ctx context.Context, sid, seriesName string) ([]models.PlayLink, error) {
	u := fmt.Sprintf("%s/api/wapi/series/detail?sid=%s", p.baseURL, url.QueryEscape(sid))
	var resp struct {
		Data struct {
			Dramas []struct {
				Sid      string `json:"sid"`
				SerialNo int    `json:"serialNo"`
				Title    string `json:"title"`
			} `json:"dramas"`
		} `json:"data"`
	}
	if err := p.httpc.GetJSON(ctx, u, nil, &resp); err != nil {
		return nil, err
	}

	dramas := resp.Data.Dramas
	sort.Slice(dramas, func(i, j int) bool { return dramas[i].SerialNo < dramas[j].SerialNo })

	links := make([]models.PlayLink, 0, len(dramas))
	for _, d := range dramas {
		if d.Sid == "" {
			continue
		}
		label := d.Title
		if label == "" {
			label = fmt.Sprintf("第%d集", d.SerialNo)
		}
		links = append(links, models.PlayLink{
			Label:       label,
			RemoteRef:   d.Sid,
			Title:       seriesName,
			PlatformTag: "hanjutv",
			Episode:     strconv.Itoa(d.SerialNo),
		})
	}
	return links, nil
}
