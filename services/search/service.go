package search

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/sourcegraph/conc/pool"

	"barrage/internal/kv"
	"barrage/models"
)

const cachePrefix = "search:"

var errEmptyKeyword = errors.New("empty search keyword")

// Request is one aggregated search.
type Request struct {
	Keyword    string
	Providers  []string // empty means all registered providers
	Season     int      // 0 means no season filter
	MaxResults int
	NoCache    bool
}

// Service fans a keyword out to the registered providers, merges and
// ranks what settles, and caches the merged result.
type Service struct {
	providers  []Provider
	cache      kv.Store
	cacheTTL   time.Duration
	maxResults int
}

func NewService(cache kv.Store, cacheTTL time.Duration, maxResults int, providers ...Provider) *Service {
	if maxResults <= 0 {
		maxResults = 50
	}
	if cacheTTL <= 0 {
		cacheTTL = 30 * time.Minute
	}
	return &Service{providers: providers, cache: cache, cacheTTL: cacheTTL, maxResults: maxResults}
}

// Search runs the fan-out. Provider failures are logged and skipped; the
// call fails only when the keyword is empty.
func (s *Service) Search(ctx context.Context, req Request) ([]models.SearchResult, error) {
	keyword := strings.TrimSpace(req.Keyword)
	if keyword == "" {
		return nil, errEmptyKeyword
	}

	enabled := s.enabledProviders(req.Providers)
	if len(enabled) == 0 {
		return nil, nil
	}
	key := cacheKey(keyword, enabled, req.Season)

	if !req.NoCache && s.cache != nil {
		if data, ok := s.cache.Get(key); ok {
			var cached []models.SearchResult
			if err := json.Unmarshal(data, &cached); err == nil {
				log.Printf("[search] cache hit for %q (%d results)", keyword, len(cached))
				return cached, nil
			}
			s.cache.Delete(key)
		}
	}

	p := pool.NewWithResults[[]models.SearchResult]().WithContext(ctx).WithMaxGoroutines(len(enabled))
	for _, provider := range enabled {
		prov := provider
		p.Go(func(ctx context.Context) ([]models.SearchResult, error) {
			results, err := prov.Search(ctx, keyword)
			if err != nil {
				log.Printf("[search] provider %s failed: %v", prov.Name(), err)
				return nil, nil
			}
			log.Printf("[search] provider %s: %d results", prov.Name(), len(results))
			return results, nil
		})
	}
	chunks, err := p.Wait()
	if err != nil {
		return nil, err
	}

	var merged []models.SearchResult
	for _, chunk := range chunks {
		merged = append(merged, chunk...)
	}

	merged = dedupe(merged)
	if req.Season > 0 {
		merged = filterSeason(merged, req.Season)
	}
	rank(merged, keyword)

	max := req.MaxResults
	if max <= 0 || max > s.maxResults {
		max = s.maxResults
	}
	if len(merged) > max {
		merged = merged[:max]
	}

	if s.cache != nil {
		if data, err := json.Marshal(merged); err == nil {
			s.cache.Set(key, data, s.cacheTTL)
		}
	}
	return merged, nil
}

// CacheEntries reports how many search responses are currently cached.
func (s *Service) CacheEntries() int {
	if s.cache == nil {
		return 0
	}
	return len(s.cache.Keys(cachePrefix))
}

// ClearCache drops all cached search responses.
func (s *Service) ClearCache() {
	if s.cache == nil {
		return
	}
	for _, k := range s.cache.Keys(cachePrefix) {
		s.cache.Delete(k)
	}
}

func (s *Service) enabledProviders(names []string) []Provider {
	if len(names) == 0 {
		return s.providers
	}
	want := make(map[string]bool, len(names))
	for _, n := range names {
		want[strings.ToLower(strings.TrimSpace(n))] = true
	}
	var out []Provider
	for _, p := range s.providers {
		if want[string(p.Name())] {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return s.providers
	}
	return out
}

// cacheKey is lower(keyword) | sorted provider tags | season ("all" when
// unfiltered), so equivalent requests share an entry.
func cacheKey(keyword string, providers []Provider, season int) string {
	tags := make([]string, 0, len(providers))
	for _, p := range providers {
		tags = append(tags, string(p.Name()))
	}
	sort.Strings(tags)

	seasonPart := "all"
	if season > 0 {
		seasonPart = strconv.Itoa(season)
	}
	return cachePrefix + strings.ToLower(keyword) + "|" + strings.Join(tags, ",") + "|" + seasonPart
}

func dedupe(results []models.SearchResult) []models.SearchResult {
	type dedupeKey struct {
		provider models.ProviderTag
		id       int64
	}
	seen := make(map[dedupeKey]bool, len(results))
	out := results[:0]
	for _, r := range results {
		k := dedupeKey{r.Provider, r.ProgramID}
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, r)
	}
	return out
}

func filterSeason(results []models.SearchResult, season int) []models.SearchResult {
	out := results[:0]
	for _, r := range results {
		if MatchSeason(r.Title, season) {
			out = append(out, r)
		}
	}
	return out
}

// rank orders by exact title match, then title prefix, then rating, year
// and episode count descending. Sorting is stable so provider order
// breaks remaining ties.
func rank(results []models.SearchResult, keyword string) {
	kw := strings.ToLower(keyword)
	score := func(r models.SearchResult) int {
		title := strings.ToLower(baseTitle(r.Title))
		switch {
		case title == kw:
			return 2
		case strings.HasPrefix(title, kw):
			return 1
		}
		return 0
	}
	sort.SliceStable(results, func(i, j int) bool {
		si, sj := score(results[i]), score(results[j])
		if si != sj {
			return si > sj
		}
		if results[i].Rating != results[j].Rating {
			return results[i].Rating > results[j].Rating
		}
		if results[i].Year != results[j].Year {
			return results[i].Year > results[j].Year
		}
		return results[i].EpisodeCount > results[j].EpisodeCount
	})
}

// baseTitle strips the "(year)" suffix 360kan titles carry.
func baseTitle(title string) string {
	if i := strings.LastIndex(title, "("); i > 0 && strings.HasSuffix(title, ")") {
		return strings.TrimSpace(title[:i])
	}
	return title
}
