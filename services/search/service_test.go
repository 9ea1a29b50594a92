package search

import (
	"context"
	"errors"
	"testing"
	"time"

	"barrage/internal/kv"
	"barrage/models"
)

type fakeProvider struct {
	tag     models.ProviderTag
	results []models.SearchResult
	err     error
	calls   int
}

func (f *fakeProvider) Name() models.ProviderTag { return f.tag }

func (f *fakeProvider) Search(context.Context, string) ([]models.SearchResult, error) {
	f.calls++
	return f.results, f.err
}

func result(provider models.ProviderTag, id int64, title string, rating float64) models.SearchResult {
	return models.SearchResult{Provider: provider, ProgramID: id, Title: title, Rating: rating}
}

func TestSearchSettleAll(t *testing.T) {
	ok := &fakeProvider{tag: models.Provider360Kan, results: []models.SearchResult{
		result(models.Provider360Kan, 1, "庆余年", 8),
	}}
	down := &fakeProvider{tag: models.ProviderVod, err: errors.New("upstream down")}

	svc := NewService(kv.NewMemoryStore(), time.Minute, 50, ok, down)
	got, err := svc.Search(context.Background(), Request{Keyword: "庆余年"})
	if err != nil {
		t.Fatalf("one failing provider must not fail the search: %v", err)
	}
	if len(got) != 1 || got[0].Title != "庆余年" {
		t.Errorf("unexpected results: %+v", got)
	}
}

func TestSearchDedupe(t *testing.T) {
	dup := &fakeProvider{tag: models.Provider360Kan, results: []models.SearchResult{
		result(models.Provider360Kan, 7, "庆余年", 8),
		result(models.Provider360Kan, 7, "庆余年", 8),
		result(models.Provider360Kan, 8, "庆余年第二季", 8),
	}}
	svc := NewService(nil, time.Minute, 50, dup)
	got, err := svc.Search(context.Background(), Request{Keyword: "庆余年"})
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Errorf("expected 2 after dedupe, got %d", len(got))
	}
}

func TestSearchSeasonFilter(t *testing.T) {
	p := &fakeProvider{tag: models.Provider360Kan, results: []models.SearchResult{
		result(models.Provider360Kan, 1, "庆余年", 8),
		result(models.Provider360Kan, 2, "庆余年第二季", 8),
		result(models.Provider360Kan, 3, "庆余年第三季", 8),
	}}
	svc := NewService(nil, time.Minute, 50, p)

	got, err := svc.Search(context.Background(), Request{Keyword: "庆余年", Season: 2})
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].ProgramID != 2 {
		t.Errorf("season 2 filter kept %+v", got)
	}

	// the bare title is season 1
	got, err = svc.Search(context.Background(), Request{Keyword: "庆余年", Season: 1})
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].ProgramID != 1 {
		t.Errorf("season 1 filter kept %+v", got)
	}
}

func TestSearchRanking(t *testing.T) {
	p := &fakeProvider{tag: models.Provider360Kan, results: []models.SearchResult{
		result(models.Provider360Kan, 1, "不相关但高分", 9.9),
		result(models.Provider360Kan, 2, "庆余年传", 5),
		result(models.Provider360Kan, 3, "庆余年(2019)", 7),
	}}
	svc := NewService(nil, time.Minute, 50, p)

	got, err := svc.Search(context.Background(), Request{Keyword: "庆余年"})
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 results, got %d", len(got))
	}
	// exact (year-stripped) beats prefix beats rating
	if got[0].ProgramID != 3 || got[1].ProgramID != 2 || got[2].ProgramID != 1 {
		t.Errorf("wrong order: %d %d %d", got[0].ProgramID, got[1].ProgramID, got[2].ProgramID)
	}
}

func TestSearchTruncates(t *testing.T) {
	var many []models.SearchResult
	for i := int64(1); i <= 10; i++ {
		many = append(many, result(models.Provider360Kan, i, "剧集", 5))
	}
	svc := NewService(nil, time.Minute, 50, &fakeProvider{tag: models.Provider360Kan, results: many})

	got, err := svc.Search(context.Background(), Request{Keyword: "剧集", MaxResults: 3})
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 3 {
		t.Errorf("expected 3 results, got %d", len(got))
	}
}

func TestSearchCaching(t *testing.T) {
	p := &fakeProvider{tag: models.Provider360Kan, results: []models.SearchResult{
		result(models.Provider360Kan, 1, "庆余年", 8),
	}}
	svc := NewService(kv.NewMemoryStore(), time.Minute, 50, p)

	for i := 0; i < 3; i++ {
		if _, err := svc.Search(context.Background(), Request{Keyword: "庆余年"}); err != nil {
			t.Fatal(err)
		}
	}
	if p.calls != 1 {
		t.Errorf("expected 1 upstream call with warm cache, got %d", p.calls)
	}
	if svc.CacheEntries() != 1 {
		t.Errorf("expected 1 cache entry, got %d", svc.CacheEntries())
	}

	// bypass goes upstream again
	if _, err := svc.Search(context.Background(), Request{Keyword: "庆余年", NoCache: true}); err != nil {
		t.Fatal(err)
	}
	if p.calls != 2 {
		t.Errorf("expected bypass to call upstream, got %d calls", p.calls)
	}

	svc.ClearCache()
	if svc.CacheEntries() != 0 {
		t.Errorf("expected empty cache after clear, got %d", svc.CacheEntries())
	}
}

func TestSearchProviderSelection(t *testing.T) {
	a := &fakeProvider{tag: models.Provider360Kan}
	b := &fakeProvider{tag: models.ProviderVod}
	svc := NewService(nil, time.Minute, 50, a, b)

	if _, err := svc.Search(context.Background(), Request{Keyword: "x", Providers: []string{"vod"}}); err != nil {
		t.Fatal(err)
	}
	if a.calls != 0 || b.calls != 1 {
		t.Errorf("provider selection wrong: 360kan=%d vod=%d", a.calls, b.calls)
	}
}

func TestSearchEmptyKeyword(t *testing.T) {
	svc := NewService(nil, time.Minute, 50)
	if _, err := svc.Search(context.Background(), Request{Keyword: "  "}); err == nil {
		t.Fatal("expected error for empty keyword")
	}
}
