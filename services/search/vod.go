package search

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"barrage/internal/upstream"
	"barrage/models"
)

// platformAlias maps a vod collection site name onto the tag the rest of
// the pipeline uses (360kan naming).
var platformAlias = map[string]string{
	"mgtv":     "imgo",
	"bilibili": "bilibili1",
}

// VodProvider queries a maccms-style collection server. Play URLs arrive
// in the flattened "$$$"/"#"/"$" grammar: platforms split by "$$$",
// episodes by "#", label and url by "$".
type VodProvider struct {
	httpc   *upstream.Client
	server  string
	allowed map[string]bool
}

func NewVodProvider(httpc *upstream.Client, server string, allowedPlatforms []string) *VodProvider {
	allowed := make(map[string]bool, len(allowedPlatforms))
	for _, p := range allowedPlatforms {
		allowed[p] = true
	}
	return &VodProvider{httpc: httpc, server: strings.TrimRight(server, "/"), allowed: allowed}
}

func (p *VodProvider) Name() models.ProviderTag { return models.ProviderVod }

type vodItem struct {
	VodID       int64  `json:"vod_id"`
	VodName     string `json:"vod_name"`
	VodPic      string `json:"vod_pic"`
	VodYear     string `json:"vod_year"`
	TypeName    string `json:"type_name"`
	VodScore    string `json:"vod_score"`
	VodPlayFrom string `json:"vod_play_from"`
	VodPlayURL  string `json:"vod_play_url"`
}

func (p *VodProvider) Search(ctx context.Context, keyword string) ([]models.SearchResult, error) {
	if p.server == "" {
		return nil, fmt.Errorf("vod server not configured")
	}
	u := fmt.Sprintf("%s/api.php/provide/vod/?ac=detail&wd=%s", p.server, url.QueryEscape(keyword))
	var resp struct {
		List []vodItem `json:"list"`
	}
	if err := p.httpc.GetJSON(ctx, u, nil, &resp); err != nil {
		return nil, err
	}

	var out []models.SearchResult
	for _, item := range resp.List {
		links := p.playLinks(item)
		if len(links) == 0 {
			continue
		}
		rating, _ := strconv.ParseFloat(item.VodScore, 64)
		out = append(out, models.SearchResult{
			Provider:      models.ProviderVod,
			ProgramID:     item.VodID,
			ExternalID:    strconv.FormatInt(item.VodID, 10),
			Title:         item.VodName,
			Category:      categoryCode(item.TypeName),
			CategoryLabel: item.TypeName,
			CoverURL:      item.VodPic,
			FirstAirDate:  item.VodYear,
			EpisodeCount:  len(links),
			Rating:        rating,
			Year:          item.VodYear,
			IsFavorited:   true,
			PlayLinks:     links,
		})
	}
	return out, nil
}

func (p *VodProvider) playLinks(item vodItem) []models.PlayLink {
	froms := strings.Split(item.VodPlayFrom, "$$$")
	groups := strings.Split(item.VodPlayURL, "$$$")

	var links []models.PlayLink
	for i, from := range froms {
		if i >= len(groups) {
			break
		}
		site := strings.TrimSpace(from)
		if alias, ok := platformAlias[site]; ok {
			site = alias
		}
		if !p.allowed[site] {
			continue
		}

		for n, ep := range strings.Split(groups[i], "#") {
			label, ref, ok := strings.Cut(ep, "$")
			if !ok || !strings.HasPrefix(ref, "http") {
				continue
			}
			links = append(links, models.PlayLink{
				Label:       label,
				RemoteRef:   ref,
				Title:       item.VodName,
				PlatformTag: site,
				Episode:     strconv.Itoa(n + 1),
			})
		}
	}
	return links
}
