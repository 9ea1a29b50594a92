package comment

import (
	"context"
	"fmt"
	"log"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/sourcegraph/conc/pool"

	"barrage/internal/upstream"
	"barrage/models"
)

const biliSegmentSeconds = 360

var (
	biliBvidRe = regexp.MustCompile(`/video/(BV[0-9A-Za-z]+|av\d+)`)
	biliEpRe   = regexp.MustCompile(`/bangumi/play/(ep|ss)(\d+)`)
)

// BilibiliClient resolves a video or bangumi page to its cid and pulls the
// binary comment segments.
type BilibiliClient struct {
	httpc   *upstream.Client
	baseURL string
	cookie  string
}

func NewBilibiliClient(httpc *upstream.Client, cookie string) *BilibiliClient {
	return &BilibiliClient{
		httpc:   httpc,
		baseURL: "https://api.bilibili.com",
		cookie:  cookie,
	}
}

func (c *BilibiliClient) Platform() models.Platform { return models.PlatformBilibili }

type biliViewResp struct {
	Code int `json:"code"`
	Data struct {
		Cid      int64 `json:"cid"`
		Duration int   `json:"duration"`
		Pages    []struct {
			Cid      int64 `json:"cid"`
			Page     int   `json:"page"`
			Duration int   `json:"duration"`
		} `json:"pages"`
	} `json:"data"`
}

type biliSeasonResp struct {
	Code   int `json:"code"`
	Result struct {
		Episodes []struct {
			ID       int64 `json:"id"`
			Cid      int64 `json:"cid"`
			Duration int64 `json:"duration"` // milliseconds
		} `json:"episodes"`
	} `json:"result"`
}

func (c *BilibiliClient) Fetch(ctx context.Context, ref string) ([]models.RawComment, error) {
	cid, duration, err := c.resolve(ctx, ref)
	if err != nil {
		return nil, err
	}

	segments := duration/biliSegmentSeconds + 1
	log.Printf("[bilibili] cid=%d duration=%ds segments=%d", cid, duration, segments)

	headers := map[string]string{"Referer": "https://www.bilibili.com"}
	if c.cookie != "" {
		headers["Cookie"] = c.cookie
	}

	p := pool.NewWithResults[[]models.RawComment]().WithContext(ctx).WithMaxGoroutines(4)
	for i := 1; i <= segments; i++ {
		seg := i
		p.Go(func(ctx context.Context) ([]models.RawComment, error) {
			u := fmt.Sprintf("%s/x/v2/dm/web/seg.so?type=1&oid=%d&segment_index=%d", c.baseURL, cid, seg)
			resp, err := c.httpc.Get(ctx, u, headers)
			if err != nil || resp.StatusCode >= 400 {
				log.Printf("[bilibili] segment %d failed: %v", seg, err)
				return nil, nil
			}
			return decodeBiliSegment(resp.Body), nil
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

// resolve maps a page URL to (cid, duration in seconds).
func (c *BilibiliClient) resolve(ctx context.Context, ref string) (int64, int, error) {
	if m := biliEpRe.FindStringSubmatch(ref); m != nil {
		return c.resolveSeason(ctx, m[1], m[2])
	}
	m := biliBvidRe.FindStringSubmatch(ref)
	if m == nil {
		return 0, 0, fmt.Errorf("unrecognized bilibili url: %s", ref)
	}

	q := url.Values{}
	if strings.HasPrefix(m[1], "BV") {
		q.Set("bvid", m[1])
	} else {
		q.Set("aid", strings.TrimPrefix(m[1], "av"))
	}

	var view biliViewResp
	if err := c.httpc.GetJSON(ctx, c.baseURL+"/x/web-interface/view?"+q.Encode(), nil, &view); err != nil {
		return 0, 0, err
	}
	if view.Code != 0 {
		return 0, 0, fmt.Errorf("bilibili view api code %d", view.Code)
	}

	// multi-part videos select the page via ?p=N on the original URL
	if page := pageParam(ref); page > 1 && page <= len(view.Data.Pages) {
		p := view.Data.Pages[page-1]
		return p.Cid, p.Duration, nil
	}
	return view.Data.Cid, view.Data.Duration, nil
}

func (c *BilibiliClient) resolveSeason(ctx context.Context, kind, id string) (int64, int, error) {
	q := url.Values{}
	if kind == "ep" {
		q.Set("ep_id", id)
	} else {
		q.Set("season_id", id)
	}

	var season biliSeasonResp
	if err := c.httpc.GetJSON(ctx, c.baseURL+"/pgc/view/web/season?"+q.Encode(), nil, &season); err != nil {
		return 0, 0, err
	}
	if season.Code != 0 || len(season.Result.Episodes) == 0 {
		return 0, 0, fmt.Errorf("bilibili season api code %d", season.Code)
	}

	ep := season.Result.Episodes[0]
	if kind == "ep" {
		want, _ := strconv.ParseInt(id, 10, 64)
		for _, e := range season.Result.Episodes {
			if e.ID == want {
				ep = e
				break
			}
		}
	}
	return ep.Cid, int(ep.Duration / 1000), nil
}

func pageParam(ref string) int {
	u, err := url.Parse(ref)
	if err != nil {
		return 0
	}
	p, _ := strconv.Atoi(u.Query().Get("p"))
	return p
}
