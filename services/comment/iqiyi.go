package comment

import (
	"context"
	"fmt"
	"log"
	"math"
	"regexp"
	"strconv"

	"github.com/sourcegraph/conc/pool"

	"barrage/internal/upstream"
	"barrage/models"
)

const iqiyiSegmentSeconds = 300

var (
	iqiyiVidRe     = regexp.MustCompile(`/v_(\w+)\.html`)
	iqiyiBulletRe  = regexp.MustCompile(`(?s)<bulletInfo>.*?</bulletInfo>`)
	iqiyiContentRe = regexp.MustCompile(`<content>(?s)(.*?)</content>`)
	iqiyiTimeRe    = regexp.MustCompile(`<showTime>(\d+)</showTime>`)
	iqiyiColorRe   = regexp.MustCompile(`<color>([0-9a-fA-F]+)</color>`)
)

// IqiyiClient decodes the page's short video id to a numeric tvid, reads
// the duration, then pulls the zlib-compressed 5-minute bullet segments.
type IqiyiClient struct {
	httpc *upstream.Client
}

func NewIqiyiClient(httpc *upstream.Client) *IqiyiClient {
	return &IqiyiClient{httpc: httpc}
}

func (c *IqiyiClient) Platform() models.Platform { return models.PlatformIqiyi }

func (c *IqiyiClient) Fetch(ctx context.Context, ref string) ([]models.RawComment, error) {
	m := iqiyiVidRe.FindStringSubmatch(ref)
	if m == nil {
		return nil, fmt.Errorf("unrecognized iqiyi url: %s", ref)
	}

	tvid, err := c.decodeTvid(ctx, m[1])
	if err != nil {
		return nil, err
	}
	if len(tvid) < 4 {
		return nil, fmt.Errorf("iqiyi: implausible tvid %q", tvid)
	}
	duration, err := c.duration(ctx, tvid)
	if err != nil {
		return nil, err
	}

	pages := int(math.Ceil(float64(duration) / iqiyiSegmentSeconds))
	if pages < 1 {
		pages = 1
	}
	log.Printf("[iqiyi] tvid=%s duration=%ds pages=%d", tvid, duration, pages)

	p := pool.NewWithResults[[]models.RawComment]().WithContext(ctx).WithMaxGoroutines(4)
	for i := 1; i <= pages; i++ {
		page := i
		p.Go(func(ctx context.Context) ([]models.RawComment, error) {
			u := fmt.Sprintf("https://cmts.iqiyi.com/bullet/%s/%s/%s_300_%d.z",
				tvid[len(tvid)-4:len(tvid)-2], tvid[len(tvid)-2:], tvid, page)
			raw, err := c.httpc.GetInflate(ctx, u, nil)
			if err != nil {
				log.Printf("[iqiyi] segment %d failed: %v", page, err)
				return nil, nil
			}
			return parseIqiyiSegment(raw), nil
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

func (c *IqiyiClient) decodeTvid(ctx context.Context, vid string) (string, error) {
	var resp struct {
		Code string `json:"code"`
		Data int64  `json:"data"`
	}
	u := fmt.Sprintf("https://pcw-api.iq.com/api/decode/%s?platformId=3&modeCode=intl&langCode=sg", vid)
	if err := c.httpc.GetJSON(ctx, u, nil, &resp); err != nil {
		return "", err
	}
	if resp.Data == 0 {
		return "", fmt.Errorf("iqiyi decode failed for %s (code %s)", vid, resp.Code)
	}
	return strconv.FormatInt(resp.Data, 10), nil
}

func (c *IqiyiClient) duration(ctx context.Context, tvid string) (int, error) {
	var resp struct {
		Code string `json:"code"`
		Data struct {
			DurationSec int `json:"durationSec"`
		} `json:"data"`
	}
	u := "https://pcw-api.iqiyi.com/video/video/baseinfo/" + tvid
	if err := c.httpc.GetJSON(ctx, u, nil, &resp); err != nil {
		return 0, err
	}
	if resp.Data.DurationSec == 0 {
		return 0, fmt.Errorf("iqiyi baseinfo missing duration for %s", tvid)
	}
	return resp.Data.DurationSec, nil
}

// parseIqiyiSegment extracts records from the inflated XML. The payload is
// not always well formed, so fields are pulled per bulletInfo block with
// regexes instead of an XML decoder.
func parseIqiyiSegment(data []byte) []models.RawComment {
	var out []models.RawComment
	for _, block := range iqiyiBulletRe.FindAll(data, -1) {
		cm := iqiyiContentRe.FindSubmatch(block)
		tm := iqiyiTimeRe.FindSubmatch(block)
		if cm == nil || tm == nil {
			continue
		}
		secs, _ := strconv.Atoi(string(tm[1]))
		color := models.DefaultColor
		if col := iqiyiColorRe.FindSubmatch(block); col != nil {
			if v, err := strconv.ParseInt(string(col[1]), 16, 64); err == nil {
				color = int(v)
			}
		}
		out = append(out, models.RawComment{
			TimePoint: float64(secs),
			CT:        models.ModeScroll,
			Color:     color,
			Content:   string(cm[1]),
		})
	}
	return out
}
