package search

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"barrage/internal/upstream"
	"barrage/models"
	"barrage/utils/sign"
)

var emTagRe = regexp.MustCompile(`</?em[^>]*>`)

// RenrenProvider talks to the renren m-station API. Every request is
// signed with an HMAC over the method, client identity headers and the
// sorted query string; the device id is minted once per process. The
// upstream rate limits aggressively, so requests are spaced out.
type RenrenProvider struct {
	httpc      *upstream.Client
	baseURL    string
	signSecret string
	aesKey     string
	deviceID   string

	mu       sync.Mutex
	lastCall time.Time
}

const renrenThrottle = 400 * time.Millisecond

func NewRenrenProvider(httpc *upstream.Client, signSecret, aesKey string) *RenrenProvider {
	return &RenrenProvider{
		httpc:      httpc,
		baseURL:    "https://api.rrmj.plus",
		signSecret: signSecret,
		aesKey:     aesKey,
		deviceID:   uuid.NewString(),
	}
}

func (p *RenrenProvider) Name() models.ProviderTag { return models.ProviderRenren }

type renrenDrama struct {
	ID           json.Number `json:"id"`
	Title        string      `json:"title"`
	Cover        string      `json:"cover"`
	Year         json.Number `json:"year"`
	Score        json.Number `json:"score"`
	EpisodeTotal int         `json:"episodeTotal"`
	ClassifyName string      `json:"classify"`
}

func (p *RenrenProvider) Search(ctx context.Context, keyword string) ([]models.SearchResult, error) {
	params := map[string]string{
		"keywords":             keyword,
		"size":                 "20",
		"order":                "match",
		"search_after":         "",
		"isExecuteVipActivity": "true",
	}
	var payload struct {
		Data struct {
			SearchDramaList []renrenDrama `json:"searchDramaList"`
		} `json:"data"`
	}
	if err := p.signedGet(ctx, "/m-station/search/drama", params, &payload); err != nil {
		return nil, err
	}

	var out []models.SearchResult
	for _, d := range payload.Data.SearchDramaList {
		dramaID, err := strconv.ParseInt(d.ID.String(), 10, 64)
		if err != nil {
			continue
		}
		links, err := p.episodeLinks(ctx, d.ID.String())
		if err != nil || len(links) == 0 {
			continue
		}
		rating, _ := d.Score.Float64()
		out = append(out, models.SearchResult{
			Provider:      models.ProviderRenren,
			ProgramID:     dramaID,
			ExternalID:    d.ID.String(),
			Title:         emTagRe.ReplaceAllString(d.Title, ""),
			Category:      "tvseries",
			CategoryLabel: d.ClassifyName,
			CoverURL:      d.Cover,
			FirstAirDate:  d.Year.String(),
			EpisodeCount:  len(links),
			Rating:        rating,
			Year:          d.Year.String(),
			IsFavorited:   true,
			PlayLinks:     links,
		})
	}
	return out, nil
}

// episodeLinks loads the drama page; each episode sid doubles as the
// comment reference for the renren protocol client.
func (p *RenrenProvider) episodeLinks(ctx context.Context, dramaID string) ([]models.PlayLink, error) {
	params := map[string]string{
		"hsdrOpen":   "0",
		"isAgeLimit": "false",
		"dramaId":    dramaID,
		"hevcOpen":   "1",
	}
	var payload struct {
		Data struct {
			DramaInfo struct {
				Title string `json:"title"`
			} `json:"dramaInfo"`
			EpisodeList []struct {
				Sid   json.Number `json:"sid"`
				Order int         `json:"order"`
				Title string      `json:"title"`
			} `json:"episodeList"`
		} `json:"data"`
	}
	if err := p.signedGet(ctx, "/m-station/drama/page", params, &payload); err != nil {
		return nil, err
	}

	links := make([]models.PlayLink, 0, len(payload.Data.EpisodeList))
	for _, ep := range payload.Data.EpisodeList {
		if ep.Sid.String() == "" {
			continue
		}
		label := ep.Title
		if label == "" {
			label = fmt.Sprintf("第%d集", ep.Order)
		}
		links = append(links, models.PlayLink{
			Label:       label,
			RemoteRef:   ep.Sid.String(),
			Title:       payload.Data.DramaInfo.Title,
			PlatformTag: "renren",
			Episode:     strconv.Itoa(ep.Order),
		})
	}
	return links, nil
}

// signedGet performs a throttled GET with the x-ca-sign header scheme.
func (p *RenrenProvider) signedGet(ctx context.Context, path string, params map[string]string, v any) error {
	p.throttle()

	t := strconv.FormatInt(time.Now().UnixMilli(), 10)
	aliID := p.deviceID
	signStr := strings.Join([]string{
		"GET",
		"aliId:" + aliID,
		"ct:web_pc",
		"cv:1.0.0",
		"t:" + t,
		path + "?" + sign.SortedQuery(params),
	}, "\n")

	headers := map[string]string{
		"clientVersion": "1.0.0",
		"deviceId":      p.deviceID,
		"clientType":    "web_pc",
		"t":             t,
		"aliId":         aliID,
		"umid":          p.deviceID,
		"token":         "",
		"cv":            "1.0.0",
		"ct":            "web_pc",
		"x-ca-sign":     sign.HMACSHA256Base64(p.signSecret, signStr),
		"Origin":        "https://rrsp.com.cn",
		"Referer":       "https://rrsp.com.cn/",
	}

	q := url.Values{}
	for k, val := range params {
		q.Set(k, val)
	}
	resp, err := p.httpc.Get(ctx, p.baseURL+path+"?"+q.Encode(), headers)
	if err != nil {
		return err
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("renren %s: status %d", path, resp.StatusCode)
	}
	return decodeRenrenBody(resp.Body, p.aesKey, v)
}

// decodeRenrenBody handles both plain JSON and AES-encrypted responses,
// trying JSON first.
func decodeRenrenBody(body []byte, aesKey string, v any) error {
	if err := json.Unmarshal(body, v); err == nil {
		return nil
	}
	cipherText := strings.TrimSpace(string(body))
	var quoted string
	if err := json.Unmarshal(body, &quoted); err == nil {
		cipherText = quoted
	}
	plain, err := sign.AESDecryptECB(cipherText, aesKey)
	if err != nil {
		return fmt.Errorf("renren: undecodable response: %w", err)
	}
	if err := json.Unmarshal(plain, v); err != nil {
		return fmt.Errorf("renren: decrypted response not json: %w", err)
	}
	return nil
}

func (p *RenrenProvider) throttle() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if wait := renrenThrottle - time.Since(p.lastCall); wait > 0 {
		time.Sleep(wait)
	}
	p.lastCall = time.Now()
}
