package comment

import (
	"context"
	"fmt"
	"log"
	"regexp"
	"strings"

	"barrage/models"
)

// BridgePlatform tags comments that came from the fallback server rather
// than a native client.
const BridgePlatform models.Platform = "other_server"

var (
	// protocol-optional: "www.bilibili.com/video/BV..." is still a URL
	urlShapeRe = regexp.MustCompile(`(?i)^(https?://)?([\w.-]+)\.([a-z]{2,})(/.*)?$`)

	digitsOnlyRe = regexp.MustCompile(`^\d+$`)
	hanjutvSidRe = regexp.MustCompile(`^[0-9a-zA-Z]{21}$`)

	platformRules = []struct {
		platform models.Platform
		host     string
		path     *regexp.Regexp
	}{
		{models.PlatformBilibili, "bilibili.com", regexp.MustCompile(`video\/|bangumi\/`)},
		{models.PlatformIqiyi, "iqiyi.com", regexp.MustCompile(`/v_`)},
		{models.PlatformTencent, "qq.com", regexp.MustCompile(`\/x\/cover\/|\/x\/page\/`)},
		{models.PlatformMango, "mgtv.com", regexp.MustCompile(`\/b\/`)},
		{models.PlatformYouku, "youku.com", regexp.MustCompile(`v_show|video/`)},
	}

	youkuShortRe = regexp.MustCompile(`youku\.com/video/id_([\w=]+)`)
)

// Identify classifies an input as a platform plus the reference the
// platform client consumes. Bare numeric ids are renren episodes and
// 21-character ids are hanjutv sids; everything else must be a URL
// matching one of the platform rules.
func Identify(input string) (models.Platform, string, bool) {
	input = strings.TrimSpace(input)

	if !urlShapeRe.MatchString(input) {
		if digitsOnlyRe.MatchString(input) {
			return models.PlatformRenren, input, true
		}
		if hanjutvSidRe.MatchString(input) {
			return models.PlatformHanjuTV, input, true
		}
		return "", "", false
	}

	for _, rule := range platformRules {
		if strings.Contains(input, rule.host) && rule.path.MatchString(input) {
			return rule.platform, rewriteRef(rule.platform, input), true
		}
	}
	return "", "", false
}

// rewriteRef maps share-link forms onto the canonical page URL the client
// expects. Only youku needs this: its /video/id_X share links resolve to
// the v_show player page.
func rewriteRef(platform models.Platform, input string) string {
	if platform != models.PlatformYouku {
		return input
	}
	if m := youkuShortRe.FindStringSubmatch(input); m != nil && !strings.Contains(input, "v_show") {
		return "https://v.youku.com/v_show/id_" + m[1] + ".html"
	}
	return input
}

// Router dispatches an input to its platform client and falls back to the
// bridge server when the native path fails or comes back empty.
type Router struct {
	clients map[models.Platform]Client
	bridge  *Bridge
}

func NewRouter(bridge *Bridge, clients ...Client) *Router {
	m := make(map[models.Platform]Client, len(clients))
	for _, c := range clients {
		m[c.Platform()] = c
	}
	return &Router{clients: m, bridge: bridge}
}

// FetchResult is the outcome of a routed fetch. FallbackUsed reports
// that the bridge served the comments; Err carries the native client's
// failure when one was attempted first.
type FetchResult struct {
	Platform     models.Platform
	Comments     []models.Comment
	FallbackUsed bool
	Err          string
}

// FetchComments resolves an input to canonical comments. The bridge is
// always handed the original input, not the rewritten reference, because
// bridge servers do their own URL handling.
func (r *Router) FetchComments(ctx context.Context, input string) (FetchResult, error) {
	var nativeErr string
	platform, ref, ok := Identify(input)
	if ok {
		client, exists := r.clients[platform]
		if exists {
			raws, err := client.Fetch(ctx, ref)
			if err == nil && len(raws) > 0 {
				return FetchResult{Platform: platform, Comments: Normalize(raws, platform)}, nil
			}
			if err != nil {
				nativeErr = err.Error()
				log.Printf("[router] %s client failed, trying bridge: %v", platform, err)
			} else {
				log.Printf("[router] %s client returned no comments, trying bridge", platform)
			}
		}
	}

	if r.bridge == nil {
		return FetchResult{}, fmt.Errorf("no client for input and no bridge configured: %s", input)
	}
	raws, err := r.bridge.Fetch(ctx, input)
	if err != nil {
		return FetchResult{}, fmt.Errorf("bridge fetch: %w", err)
	}
	return FetchResult{
		Platform:     BridgePlatform,
		Comments:     Normalize(raws, BridgePlatform),
		FallbackUsed: true,
		Err:          nativeErr,
	}, nil
}
