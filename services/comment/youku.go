package comment

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/sourcegraph/conc/pool"

	"barrage/internal/upstream"
	"barrage/models"
	"barrage/utils/sign"
)

const (
	youkuAppKey        = "24679788"
	youkuTokenAttempts = 5
)

var youkuVidRe = regexp.MustCompile(`id_([\w=]+)`)

// YoukuClient drives the mtop danmaku API. Every request is double
// signed: the inner msg payload with the fixed product key, the outer
// query with the _m_h5_tk token issued by acs.youku.com.
type YoukuClient struct {
	httpc       *upstream.Client
	msgSignKey  string
	concurrency int
}

func NewYoukuClient(httpc *upstream.Client, msgSignKey string, concurrency int) *YoukuClient {
	if concurrency <= 0 {
		concurrency = 8
	}
	return &YoukuClient{httpc: httpc, msgSignKey: msgSignKey, concurrency: concurrency}
}

func (c *YoukuClient) Platform() models.Platform { return models.PlatformYouku }

type youkuSession struct {
	cna    string
	token  string // full _m_h5_tk cookie value
	tokEnc string
}

func (c *YoukuClient) Fetch(ctx context.Context, ref string) ([]models.RawComment, error) {
	m := youkuVidRe.FindStringSubmatch(ref)
	if m == nil {
		return nil, fmt.Errorf("unrecognized youku url: %s", ref)
	}
	vid := m[1]

	duration, err := c.videoDuration(ctx, vid)
	if err != nil {
		return nil, err
	}
	sess, err := c.openSession(ctx)
	if err != nil {
		return nil, err
	}

	windows := int(duration)/60 + 1
	log.Printf("[youku] vid=%s duration=%.0fs windows=%d", vid, duration, windows)

	p := pool.NewWithResults[[]models.RawComment]().WithContext(ctx).WithMaxGoroutines(c.concurrency)
	for i := 0; i < windows; i++ {
		mat := i
		p.Go(func(ctx context.Context) ([]models.RawComment, error) {
			out, err := c.fetchWindow(ctx, sess, vid, mat)
			if err != nil {
				log.Printf("[youku] window %d failed: %v", mat, err)
				return nil, nil
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

func (c *YoukuClient) videoDuration(ctx context.Context, vid string) (float64, error) {
	var resp struct {
		Duration string `json:"duration"`
	}
	u := fmt.Sprintf("https://openapi.youku.com/v2/videos/show.json?client_id=53e6cc67237fc59a&video_id=%s&package=com.huawei.hwvplayer.youku&ext=show", vid)
	if err := c.httpc.GetJSON(ctx, u, nil, &resp); err != nil {
		return 0, err
	}
	d, err := strconv.ParseFloat(resp.Duration, 64)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("youku: missing duration for %s", vid)
	}
	return d, nil
}

// openSession obtains the cna device cookie and the h5 api token.
func (c *YoukuClient) openSession(ctx context.Context) (*youkuSession, error) {
	resp, err := c.httpc.Get(ctx, "https://log.mmstat.com/eg.js", nil)
	if err != nil {
		return nil, fmt.Errorf("youku cna: %w", err)
	}
	cna := strings.Trim(resp.Header.Get("Etag"), `"`)

	// the token endpoint drops requests under load, so keep asking
	var tokResp *upstream.Response
	err = retry.Do(
		func() error {
			var rerr error
			tokResp, rerr = c.httpc.Get(ctx,
				"https://acs.youku.com/h5/mtop.com.youku.aplatform.weakget/1.0/?jsv=2.5.1&appKey="+youkuAppKey,
				map[string]string{"Cookie": "cna=" + cna})
			if rerr != nil {
				return rerr
			}
			if tokResp.StatusCode >= 400 {
				return fmt.Errorf("status %d", tokResp.StatusCode)
			}
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(youkuTokenAttempts),
		retry.Delay(500*time.Millisecond),
		retry.DelayType(retry.FixedDelay),
		retry.LastErrorOnly(true),
	)
	if err != nil {
		return nil, fmt.Errorf("youku token: %w", err)
	}

	sess := &youkuSession{cna: cna}
	for _, sc := range tokResp.Header.Values("Set-Cookie") {
		pair := strings.SplitN(strings.SplitN(sc, ";", 2)[0], "=", 2)
		if len(pair) != 2 {
			continue
		}
		switch pair[0] {
		case "_m_h5_tk":
			sess.token = pair[1]
		case "_m_h5_tk_enc":
			sess.tokEnc = pair[1]
		}
	}
	if sess.token == "" {
		return nil, fmt.Errorf("youku: no _m_h5_tk cookie issued")
	}
	return sess, nil
}

func (c *YoukuClient) fetchWindow(ctx context.Context, sess *youkuSession, vid string, mat int) ([]models.RawComment, error) {
	msg := map[string]any{
		"ctime":  time.Now().UnixMilli(),
		"ctype":  10004,
		"cver":   "v1.0",
		"guid":   sess.cna,
		"mat":    mat,
		"mcount": 1,
		"pid":    0,
		"sver":   "3.1.0",
		"type":   1,
		"vid":    vid,
	}
	msgJSON, err := json.Marshal(msg)
	if err != nil {
		return nil, err
	}
	enc, err := sign.Latin1Base64(string(msgJSON))
	if err != nil {
		return nil, err
	}
	msg["msg"] = enc
	msg["sign"] = sign.MD5Hex(enc + c.msgSignKey)

	data, err := json.Marshal(msg)
	if err != nil {
		return nil, err
	}

	t := strconv.FormatInt(time.Now().UnixMilli(), 10)
	tk := sess.token
	if len(tk) > 32 {
		tk = tk[:32]
	}
	q := url.Values{
		"jsv":            {"2.5.6"},
		"appKey":         {youkuAppKey},
		"t":              {t},
		"sign":           {sign.MD5Hex(tk + "&" + t + "&" + youkuAppKey + "&" + string(data))},
		"api":            {"mopen.youku.danmu.list"},
		"v":              {"1.0"},
		"type":           {"originaljson"},
		"dataType":       {"jsonp"},
		"timeout":        {"20000"},
		"jsonpIncPrefix": {"utility"},
	}

	headers := map[string]string{
		"Cookie":  fmt.Sprintf("_m_h5_tk=%s; _m_h5_tk_enc=%s; cna=%s", sess.token, sess.tokEnc, sess.cna),
		"Referer": "https://v.youku.com",
	}
	resp, err := c.httpc.PostForm(ctx,
		"https://acs.youku.com/h5/mopen.youku.danmu.list/1.0/?"+q.Encode(),
		"data="+url.QueryEscape(string(data)), headers)
	if err != nil {
		return nil, err
	}

	var outer struct {
		Data struct {
			Result string `json:"result"`
		} `json:"data"`
	}
	if err := json.Unmarshal(resp.Body, &outer); err != nil {
		return nil, fmt.Errorf("youku window %d: %w", mat, err)
	}

	var inner struct {
		Data struct {
			Result []struct {
				Playat    int64  `json:"playat"` // ms
				Content   string `json:"content"`
				Propertis string `json:"propertis"`
			} `json:"result"`
		} `json:"data"`
	}
	if err := json.Unmarshal([]byte(outer.Data.Result), &inner); err != nil {
		return nil, fmt.Errorf("youku window %d result: %w", mat, err)
	}

	out := make([]models.RawComment, 0, len(inner.Data.Result))
	for _, item := range inner.Data.Result {
		color, mode := youkuStyle(item.Propertis)
		out = append(out, models.RawComment{
			TimePoint: float64(item.Playat) / 1000.0,
			CT:        mode,
			Color:     color,
			Content:   item.Content,
		})
	}
	return out, nil
}

// youkuStyle decodes the propertis JSON string: pos 1 renders at the top,
// pos 2 at the bottom, anything else scrolls.
func youkuStyle(propertis string) (color, mode int) {
	color, mode = models.DefaultColor, models.ModeScroll
	if propertis == "" {
		return
	}
	var p struct {
		Color int `json:"color"`
		Pos   int `json:"pos"`
	}
	if err := json.Unmarshal([]byte(propertis), &p); err != nil {
		return
	}
	if p.Color > 0 {
		color = p.Color
	}
	switch p.Pos {
	case 1:
		mode = models.ModeTop
	case 2:
		mode = models.ModeBottom
	}
	return
}
