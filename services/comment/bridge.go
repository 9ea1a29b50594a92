package comment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"

	"barrage/internal/upstream"
	"barrage/models"
)

var errBridgeEmpty = errors.New("bridge returned no comments")

var bridgeXMLRe = regexp.MustCompile(`<d p="([^"]+)"[^>]*>([^<]*)</d>`)

// Bridge forwards a video URL to an external danmaku server when no
// native client produced comments. An empty response is treated as a
// retryable failure; the delay grows linearly per attempt.
type Bridge struct {
	httpc    *upstream.Client
	baseURL  string
	attempts int
}

func NewBridge(httpc *upstream.Client, baseURL string, attempts int) *Bridge {
	if attempts <= 0 {
		attempts = 3
	}
	return &Bridge{httpc: httpc, baseURL: strings.TrimRight(baseURL, "/"), attempts: attempts}
}

// Fetch asks the bridge server for comments on the original input URL.
func (b *Bridge) Fetch(ctx context.Context, videoURL string) ([]models.RawComment, error) {
	if b.baseURL == "" {
		return nil, errors.New("bridge server not configured")
	}

	var raws []models.RawComment
	err := retry.Do(
		func() error {
			resp, err := b.httpc.Get(ctx, fmt.Sprintf("%s/?url=%s&ac=dm", b.baseURL, url.QueryEscape(videoURL)), nil)
			if err != nil {
				return err
			}
			if resp.StatusCode >= 400 {
				return fmt.Errorf("bridge status %d", resp.StatusCode)
			}
			raws = parseBridgeBody(resp.Body)
			if len(raws) == 0 {
				return errBridgeEmpty
			}
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(uint(b.attempts)),
		retry.DelayType(func(n uint, _ error, _ *retry.Config) time.Duration {
			return time.Duration(n+1) * time.Second
		}),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			log.Printf("[bridge] attempt %d failed: %v", n+1, err)
		}),
	)
	if err != nil {
		return nil, err
	}
	return raws, nil
}

// parseBridgeBody accepts the three response shapes bridge servers ship:
// a danmuku tuple array, an object array, or a bilibili style XML string.
func parseBridgeBody(body []byte) []models.RawComment {
	var tuples struct {
		Danmuku [][]any `json:"danmuku"`
	}
	if err := json.Unmarshal(body, &tuples); err == nil && len(tuples.Danmuku) > 0 {
		out := make([]models.RawComment, 0, len(tuples.Danmuku))
		for _, t := range tuples.Danmuku {
			if len(t) < 5 {
				continue
			}
			text, _ := t[4].(string)
			if text == "" {
				continue
			}
			out = append(out, models.RawComment{
				TimePoint: anyFloat(t[0]),
				CT:        bridgeMode(t[1]),
				Color:     bridgeColor(t[2]),
				Content:   text,
			})
		}
		return out
	}

	var objects []struct {
		P         string  `json:"p"`
		M         string  `json:"m"`
		TimePoint float64 `json:"timepoint"`
		CT        int     `json:"ct"`
		Color     int     `json:"color"`
		Content   string  `json:"content"`
	}
	if err := json.Unmarshal(body, &objects); err == nil && len(objects) > 0 {
		out := make([]models.RawComment, 0, len(objects))
		for _, o := range objects {
			if o.P != "" {
				out = append(out, models.RawComment{Attr: o.P, Text: o.M})
				continue
			}
			if o.Content == "" {
				continue
			}
			out = append(out, models.RawComment{
				TimePoint: o.TimePoint,
				CT:        o.CT,
				Color:     o.Color,
				Content:   o.Content,
			})
		}
		return out
	}

	text := string(body)
	var quoted string
	if err := json.Unmarshal(body, &quoted); err == nil {
		text = quoted
	}
	var out []models.RawComment
	for _, m := range bridgeXMLRe.FindAllStringSubmatch(text, -1) {
		out = append(out, models.RawComment{Attr: m[1], Text: m[2]})
	}
	return out
}

func anyFloat(v any) float64 {
	switch x := v.(type) {
	case float64:
		return x
	case string:
		f, _ := strconv.ParseFloat(x, 64)
		return f
	}
	return 0
}

func bridgeMode(v any) int {
	s, _ := v.(string)
	switch s {
	case "top":
		return models.ModeTop
	case "bottom":
		return models.ModeBottom
	}
	return models.ModeScroll
}

func bridgeColor(v any) int {
	s, _ := v.(string)
	s = strings.TrimPrefix(s, "#")
	if n, err := strconv.ParseInt(s, 16, 64); err == nil && n > 0 {
		return int(n)
	}
	return models.DefaultColor
}
