package comment

import (
	"context"
	"fmt"
	"log"

	"barrage/internal/upstream"
	"barrage/models"
)

// hanjutvAxisMax is the upper cursor bound the app itself sends; it is
// far past the end of any episode.
const hanjutvAxisMax = 100000000

// HanjuTVClient pages through the barrage list with a time-axis cursor
// until the upstream returns an empty page.
type HanjuTVClient struct {
	httpc   *upstream.Client
	baseURL string
}

func NewHanjuTVClient(httpc *upstream.Client) *HanjuTVClient {
	return &HanjuTVClient{httpc: httpc, baseURL: "https://hxqapi.zmdcq.com"}
}

func (c *HanjuTVClient) Platform() models.Platform { return models.PlatformHanjuTV }

type hanjutvBarrageResp struct {
	Data struct {
		BarrageList []struct {
			T   int64  `json:"t"`  // ms offset
			Tp  int    `json:"tp"` // display mode
			Sc  int    `json:"sc"` // color
			Con string `json:"con"`
		} `json:"barrageList"`
	} `json:"data"`
}

func (c *HanjuTVClient) Fetch(ctx context.Context, ref string) ([]models.RawComment, error) {
	var out []models.RawComment
	fromAxis := int64(0)

	for page := 0; page < 500; page++ {
		u := fmt.Sprintf("%s/api/wapi/dm/barrage/list?fromAxis=%d&sid=%s&toAxis=%d",
			c.baseURL, fromAxis, ref, hanjutvAxisMax)
		var resp hanjutvBarrageResp
		if err := c.httpc.GetJSON(ctx, u, nil, &resp); err != nil {
			if len(out) > 0 {
				log.Printf("[hanjutv] cursor %d failed, keeping %d comments: %v", fromAxis, len(out), err)
				break
			}
			return nil, err
		}
		if len(resp.Data.BarrageList) == 0 {
			break
		}

		for _, item := range resp.Data.BarrageList {
			out = append(out, models.RawComment{
				TimePoint: float64(item.T) / 1000.0,
				CT:        item.Tp,
				Color:     item.Sc,
				Content:   item.Con,
			})
		}

		last := resp.Data.BarrageList[len(resp.Data.BarrageList)-1].T
		if last+1 <= fromAxis || last+1 >= hanjutvAxisMax {
			break
		}
		fromAxis = last + 1
	}

	log.Printf("[hanjutv] sid=%s comments=%d", ref, len(out))
	return out, nil
}
