package comment

import (
	"context"
	"fmt"
	"log"
	"regexp"
	"strconv"
	"strings"

	"github.com/sourcegraph/conc/pool"

	"barrage/internal/upstream"
	"barrage/models"
)

const mangoWindowMs = 60000

var mangoPathRe = regexp.MustCompile(`/b/(\d+)/(\d+)\.html`)

// MangoClient reads the video duration and requests one barrage window
// per minute of playback.
type MangoClient struct {
	httpc *upstream.Client
}

func NewMangoClient(httpc *upstream.Client) *MangoClient {
	return &MangoClient{httpc: httpc}
}

func (c *MangoClient) Platform() models.Platform { return models.PlatformMango }

type mangoInfoResp struct {
	Data struct {
		Info struct {
			Time string `json:"time"` // "HH:MM:SS"
		} `json:"info"`
	} `json:"data"`
}

type mangoBarrageResp struct {
	Data struct {
		Items []struct {
			Time    int64  `json:"time"` // ms
			Content string `json:"content"`
			V2Color *struct {
				ColorLeft struct {
					R int `json:"r"`
					G int `json:"g"`
					B int `json:"b"`
				} `json:"color_left"`
			} `json:"v2_color"`
		} `json:"items"`
	} `json:"data"`
}

func (c *MangoClient) Fetch(ctx context.Context, ref string) ([]models.RawComment, error) {
	m := mangoPathRe.FindStringSubmatch(ref)
	if m == nil {
		return nil, fmt.Errorf("unrecognized mango url: %s", ref)
	}
	cid, vid := m[1], m[2]

	var info mangoInfoResp
	u := fmt.Sprintf("https://pcweb.api.mgtv.com/video/info?cid=%s&vid=%s", cid, vid)
	if err := c.httpc.GetJSON(ctx, u, nil, &info); err != nil {
		return nil, err
	}
	durationMs := parseClockMs(info.Data.Info.Time)
	if durationMs == 0 {
		return nil, fmt.Errorf("mango: missing duration for vid %s", vid)
	}
	log.Printf("[mango] cid=%s vid=%s duration=%dms", cid, vid, durationMs)

	p := pool.NewWithResults[[]models.RawComment]().WithContext(ctx).WithMaxGoroutines(4)
	for t := int64(0); t < durationMs; t += mangoWindowMs {
		offset := t
		p.Go(func(ctx context.Context) ([]models.RawComment, error) {
			var seg mangoBarrageResp
			u := fmt.Sprintf("https://galaxy.bz.mgtv.com/rdbarrage?vid=%s&cid=%s&time=%d", vid, cid, offset)
			if err := c.httpc.GetJSON(ctx, u, nil, &seg); err != nil {
				log.Printf("[mango] window %dms failed: %v", offset, err)
				return nil, nil
			}
			out := make([]models.RawComment, 0, len(seg.Data.Items))
			for _, item := range seg.Data.Items {
				color := models.DefaultColor
				if item.V2Color != nil {
					cl := item.V2Color.ColorLeft
					color = cl.R<<16 | cl.G<<8 | cl.B
				}
				out = append(out, models.RawComment{
					TimePoint: float64(item.Time) / 1000.0,
					CT:        models.ModeScroll,
					Color:     color,
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

// parseClockMs converts "HH:MM:SS" (or "MM:SS") to milliseconds.
func parseClockMs(clock string) int64 {
	parts := strings.Split(strings.TrimSpace(clock), ":")
	var secs int64
	for _, p := range parts {
		v, err := strconv.ParseInt(p, 10, 64)
		if err != nil {
			return 0
		}
		secs = secs*60 + v
	}
	return secs * 1000
}
