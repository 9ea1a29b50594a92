package comment

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strconv"
	"strings"

	"barrage/internal/upstream"
	"barrage/models"
	"barrage/utils/sign"
)

// RenrenClient fetches episode danmaku from the static CDN. The endpoint
// answers either plain JSON or an AES-ECB encrypted base64 blob depending
// on the episode, so decoding tries JSON first (autodecode).
type RenrenClient struct {
	httpc  *upstream.Client
	aesKey string
}

func NewRenrenClient(httpc *upstream.Client, aesKey string) *RenrenClient {
	return &RenrenClient{httpc: httpc, aesKey: aesKey}
}

func (c *RenrenClient) Platform() models.Platform { return models.PlatformRenren }

// renrenItem is one bundle record. The CDN carries the text in "d";
// older mirrors use "m".
type renrenItem struct {
	P string `json:"p"`
	D string `json:"d"`
	M string `json:"m"`
}

func (it renrenItem) text() string {
	if it.D != "" {
		return it.D
	}
	return it.M
}

func (c *RenrenClient) Fetch(ctx context.Context, ref string) ([]models.RawComment, error) {
	u := "https://static-dm.rrmj.plus/v1/produce/danmu/EPISODE/" + ref
	resp, err := c.httpc.Get(ctx, u, map[string]string{"Referer": "https://rrsp.com.cn"})
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("renren danmu: status %d for episode %s", resp.StatusCode, ref)
	}

	items, err := c.decodeItems(resp.Body)
	if err != nil {
		return nil, err
	}
	log.Printf("[renren] episode=%s items=%d", ref, len(items))
	return collapseRenren(items), nil
}

// decodeItems tries plain JSON, then a JSON-quoted base64 string, then a
// bare base64 body, decrypting the latter two with the product AES key.
// The bundle is either a bare array or wrapped in a data envelope.
func (c *RenrenClient) decodeItems(body []byte) ([]renrenItem, error) {
	if items, ok := unwrapRenren(body); ok {
		return items, nil
	}

	cipherText := strings.TrimSpace(string(body))
	var quoted string
	if err := json.Unmarshal(body, &quoted); err == nil {
		cipherText = quoted
	}

	plain, err := sign.AESDecryptECB(cipherText, c.aesKey)
	if err != nil {
		return nil, fmt.Errorf("renren danmu: undecodable body: %w", err)
	}
	items, ok := unwrapRenren(plain)
	if !ok {
		return nil, fmt.Errorf("renren danmu: decrypted body not json")
	}
	return items, nil
}

func unwrapRenren(body []byte) ([]renrenItem, bool) {
	var items []renrenItem
	if err := json.Unmarshal(body, &items); err == nil {
		return items, true
	}
	var wrapped struct {
		Data []renrenItem `json:"data"`
	}
	if err := json.Unmarshal(body, &wrapped); err == nil && wrapped.Data != nil {
		return wrapped.Data, true
	}
	return nil, false
}

// collapseRenren removes duplicate submissions and merges identical texts.
// Duplicates share the contentId carried in the p attribute; identical
// texts from different users are merged into one record at the earliest
// timestamp with a "×N" suffix.
func collapseRenren(items []renrenItem) []models.RawComment {
	type parsed struct {
		time  float64
		mode  int
		color int
		text  string
	}

	seen := make(map[string]bool)
	order := make([]string, 0, len(items))
	groups := make(map[string][]parsed)

	for _, item := range items {
		text := item.text()
		parts := strings.Split(item.P, ",")
		if len(parts) < 4 || text == "" {
			continue
		}
		t, err := strconv.ParseFloat(parts[0], 64)
		if err != nil {
			continue
		}
		mode, _ := strconv.Atoi(parts[1])
		color, _ := strconv.Atoi(parts[3])

		if len(parts) > 7 {
			contentID := parts[7]
			if contentID != "" && seen[contentID] {
				continue
			}
			seen[contentID] = true
		}

		if _, ok := groups[text]; !ok {
			order = append(order, text)
		}
		groups[text] = append(groups[text], parsed{time: t, mode: mode, color: color, text: text})
	}

	out := make([]models.RawComment, 0, len(order))
	for _, text := range order {
		g := groups[text]
		first := g[0]
		for _, p := range g[1:] {
			if p.time < first.time {
				first.time = p.time
			}
		}
		display := text
		if len(g) > 1 {
			display = fmt.Sprintf("%s ×%d", text, len(g))
		}
		out = append(out, models.RawComment{
			TimePoint: first.time,
			CT:        first.mode,
			Color:     first.color,
			Content:   display,
		})
	}
	return out
}
