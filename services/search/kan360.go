package search

import (
	"context"
	"fmt"
	"log"
	"net/url"
	"strconv"

	"barrage/internal/upstream"
	"barrage/models"
)

// Kan360Provider searches the 360kan index. Play links come in three
// shapes depending on the category: movies carry one link per platform,
// series carry an ordered episode array, and variety shows need a
// paginated per-period listing.
type Kan360Provider struct {
	httpc   *upstream.Client
	baseURL string
	allowed map[string]bool
}

func NewKan360Provider(httpc *upstream.Client, allowedPlatforms []string) *Kan360Provider {
	allowed := make(map[string]bool, len(allowedPlatforms))
	for _, p := range allowedPlatforms {
		allowed[p] = true
	}
	return &Kan360Provider{httpc: httpc, baseURL: "https://api.so.360kan.com", allowed: allowed}
}

func (p *Kan360Provider) Name() models.ProviderTag { return models.Provider360Kan }

type kan360Row struct {
	ID              string         `json:"id"`
	En              string         `json:"en"`
	TitleTxt        string         `json:"titleTxt"`
	CatName         string         `json:"cat_name"`
	Cover           string         `json:"cover"`
	Year            any            `json:"year"`
	Playlinks       map[string]any `json:"playlinks"`
	SeriesSite      string         `json:"seriesSite"`
	SeriesPlaylinks []struct {
		URL string `json:"url"`
	} `json:"seriesPlaylinks"`
}

type kan360IndexResp struct {
	Data struct {
		LongData struct {
			Rows []kan360Row `json:"rows"`
		} `json:"longData"`
	} `json:"data"`
}

func (p *Kan360Provider) Search(ctx context.Context, keyword string) ([]models.SearchResult, error) {
	u := fmt.Sprintf("%s/index?force_v=1&kw=%s&from=&pageno=1&v_ap=1&tab=all", p.baseURL, url.QueryEscape(keyword))
	var resp kan360IndexResp
	if err := p.httpc.GetJSON(ctx, u, map[string]string{"Referer": "https://so.360kan.com"}, &resp); err != nil {
		return nil, err
	}

	var out []models.SearchResult
	for _, row := range resp.Data.LongData.Rows {
		links := p.playLinks(ctx, row)
		if len(links) == 0 {
			continue
		}

		year := yearString(row.Year)
		title := row.TitleTxt
		if year != "" {
			title = fmt.Sprintf("%s(%s)", row.TitleTxt, year)
		}
		out = append(out, models.SearchResult{
			Provider:      models.Provider360Kan,
			ProgramID:     hashID("360kan:" + row.ID),
			ExternalID:    row.ID,
			Title:         title,
			Category:      categoryCode(row.CatName),
			CategoryLabel: row.CatName,
			CoverURL:      row.Cover,
			FirstAirDate:  year,
			EpisodeCount:  len(links),
			Rating:        0,
			Year:          year,
			IsFavorited:   true,
			PlayLinks:     links,
		})
	}
	return out, nil
}

func (p *Kan360Provider) playLinks(ctx context.Context, row kan360Row) []models.PlayLink {
	switch row.CatName {
	case "电影":
		var links []models.PlayLink
		for site, v := range row.Playlinks {
			u, _ := v.(string)
			if u == "" || !p.allowed[site] {
				continue
			}
			links = append(links, models.PlayLink{
				Label:       row.TitleTxt,
				RemoteRef:   u,
				Title:       row.TitleTxt,
				PlatformTag: site,
				Episode:     "1",
			})
		}
		return links

	case "电视剧", "动漫":
		if !p.allowed[row.SeriesSite] {
			return nil
		}
		links := make([]models.PlayLink, 0, len(row.SeriesPlaylinks))
		for i, ep := range row.SeriesPlaylinks {
			if ep.URL == "" {
				continue
			}
			n := strconv.Itoa(i + 1)
			links = append(links, models.PlayLink{
				Label:       fmt.Sprintf("第%s集", n),
				RemoteRef:   ep.URL,
				Title:       row.TitleTxt,
				PlatformTag: row.SeriesSite,
				Episode:     n,
			})
		}
		return links

	case "综艺":
		for site := range row.Playlinks {
			if p.allowed[site] {
				return p.varietyEpisodes(ctx, row, site)
			}
		}
		return nil
	}
	return nil
}

// varietyEpisodes pages through the per-period listing; the upstream
// serves 20 entries a page and the player never loads more than 10 pages.
func (p *Kan360Provider) varietyEpisodes(ctx context.Context, row kan360Row, site string) []models.PlayLink {
	var links []models.PlayLink
	for page := 0; page < 10; page++ {
		u := fmt.Sprintf("%s/episodeszongyi?entid=%s&site=%s&y=%s&count=20&offset=%d",
			p.baseURL, row.ID, site, yearString(row.Year), page*20)
		var resp struct {
			Data struct {
				List []struct {
					ID     string `json:"id"`
					URL    string `json:"url"`
					Name   string `json:"name"`
					Period string `json:"period"`
				} `json:"list"`
			} `json:"data"`
		}
		if err := p.httpc.GetJSON(ctx, u, nil, &resp); err != nil {
			log.Printf("[360kan] zongyi page %d for %s failed: %v", page, row.ID, err)
			break
		}
		if len(resp.Data.List) == 0 {
			break
		}
		for _, ep := range resp.Data.List {
			ref := ep.URL
			if ref == "" {
				ref = ep.ID
			}
			if ref == "" {
				continue
			}
			links = append(links, models.PlayLink{
				Label:       fmt.Sprintf("%s %s", ep.Period, ep.Name),
				RemoteRef:   ref,
				Title:       row.TitleTxt,
				PlatformTag: site,
				Episode:     ep.Period,
			})
		}
		if len(resp.Data.List) < 20 {
			break
		}
	}
	return links
}

// yearString tolerates the index serving year as either a number or a
// string depending on category.
func yearString(v any) string {
	switch y := v.(type) {
	case string:
		return y
	case float64:
		return strconv.Itoa(int(y))
	}
	return ""
}

func categoryCode(catName string) string {
	switch catName {
	case "电影":
		return "movie"
	case "动漫":
		return "anime"
	case "综艺":
		return "variety"
	default:
		return "tvseries"
	}
}
