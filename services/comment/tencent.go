package comment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/sourcegraph/conc/pool"

	"barrage/internal/upstream"
	"barrage/models"
)

var tencentVidRe = regexp.MustCompile(`/x/(?:cover/[^/]+/|page/)(\w+)\.html`)

// TencentClient pulls the danmaku segment index for a vid and then each
// segment. The page itself is only fetched for its title, which is useful
// in logs when debugging a bad vid.
type TencentClient struct {
	httpc   *upstream.Client
	baseURL string
}

func NewTencentClient(httpc *upstream.Client) *TencentClient {
	return &TencentClient{httpc: httpc, baseURL: "https://dm.video.qq.com"}
}

func (c *TencentClient) Platform() models.Platform { return models.PlatformTencent }

type tencentBaseResp struct {
	SegmentIndex map[string]struct {
		SegmentName string `json:"segment_name"`
	} `json:"segment_index"`
}

type tencentSegmentResp struct {
	BarrageList []struct {
		Content      string `json:"content"`
		TimeOffset   string `json:"time_offset"`
		ContentStyle string `json:"content_style"`
	} `json:"barrage_list"`
}

func (c *TencentClient) Fetch(ctx context.Context, ref string) ([]models.RawComment, error) {
	m := tencentVidRe.FindStringSubmatch(ref)
	if m == nil {
		return nil, fmt.Errorf("unrecognized tencent url: %s", ref)
	}
	vid := m[1]

	if title := c.pageTitle(ctx, ref); title != "" {
		log.Printf("[tencent] vid=%s title=%q", vid, title)
	}

	var base tencentBaseResp
	if err := c.httpc.GetJSON(ctx, c.baseURL+"/barrage/base/"+vid, nil, &base); err != nil {
		return nil, err
	}
	if len(base.SegmentIndex) == 0 {
		return nil, fmt.Errorf("tencent: no segments for vid %s", vid)
	}

	names := make([]string, 0, len(base.SegmentIndex))
	for _, seg := range base.SegmentIndex {
		names = append(names, seg.SegmentName)
	}

	p := pool.NewWithResults[[]models.RawComment]().WithContext(ctx).WithMaxGoroutines(4)
	for _, name := range names {
		segName := name
		p.Go(func(ctx context.Context) ([]models.RawComment, error) {
			var seg tencentSegmentResp
			u := fmt.Sprintf("%s/barrage/segment/%s/%s", c.baseURL, vid, segName)
			if err := c.httpc.GetJSON(ctx, u, nil, &seg); err != nil {
				log.Printf("[tencent] segment %s failed: %v", segName, err)
				return nil, nil
			}
			out := make([]models.RawComment, 0, len(seg.BarrageList))
			for _, item := range seg.BarrageList {
				ms, _ := strconv.ParseFloat(item.TimeOffset, 64)
				out = append(out, models.RawComment{
					TimePoint: ms / 1000.0,
					CT:        models.ModeScroll,
					Color:     tencentColor(item.ContentStyle),
					Content:   item.Content,
				})
			}
			return out, nil
		})
	}
	chunks, err := p.Wait()
	if err != nil {
		return nil, err
	}

	var out []models.RawComment
	for _, chunk := range chunks {
		out = append(out, chunk...)
	}
	return out, nil
}

func (c *TencentClient) pageTitle(ctx context.Context, pageURL string) string {
	resp, err := c.httpc.Get(ctx, pageURL, nil)
	if err != nil || resp.StatusCode >= 400 {
		return ""
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(resp.Body))
	if err != nil {
		return ""
	}
	title := strings.TrimSpace(doc.Find("title").First().Text())
	return strings.TrimSuffix(title, "_腾讯视频")
}

// tencentColor parses the content_style JSON a vip danmaku carries; a
// gradient uses its first stop, plain styles use color. Both are hex.
func tencentColor(style string) int {
	if style == "" {
		return models.DefaultColor
	}
	var s struct {
		Color          string   `json:"color"`
		GradientColors []string `json:"gradient_colors"`
	}
	if err := json.Unmarshal([]byte(style), &s); err != nil {
		return models.DefaultColor
	}
	hex := s.Color
	if len(s.GradientColors) > 0 {
		hex = s.GradientColors[0]
	}
	hex = strings.TrimPrefix(hex, "#")
	v, err := strconv.ParseInt(hex, 16, 64)
	if err != nil || v <= 0 {
		return models.DefaultColor
	}
	return int(v)
}
