package comment

import (
	"strings"
	"testing"

	"barrage/models"
)

func TestNormalizeAttrShape(t *testing.T) {
	raws := []models.RawComment{
		{Attr: "12.5,1,25,16777215,1700000000", Text: "hello"},
	}
	got := Normalize(raws, models.PlatformBilibili)
	if len(got) != 1 {
		t.Fatalf("expected 1 comment, got %d", len(got))
	}
	if got[0].P != "12.50,1,16777215,[bilibili]" {
		t.Errorf("unexpected p: %s", got[0].P)
	}
	if got[0].M != "hello" {
		t.Errorf("unexpected m: %s", got[0].M)
	}
}

func TestNormalizeTimePointShape(t *testing.T) {
	raws := []models.RawComment{
		{TimePoint: 3.456, CT: 5, Color: 255, Content: "top one"},
	}
	got := Normalize(raws, models.PlatformYouku)
	if len(got) != 1 {
		t.Fatalf("expected 1 comment, got %d", len(got))
	}
	if got[0].P != "3.46,5,255,[youku]" {
		t.Errorf("unexpected p: %s", got[0].P)
	}
}

func TestNormalizeProgressShape(t *testing.T) {
	raws := []models.RawComment{
		{HasProgress: true, Progress: 61500, Mode: 0, Color: 0, Content: "late"},
	}
	got := Normalize(raws, models.PlatformBilibili)
	if len(got) != 1 {
		t.Fatalf("expected 1 comment, got %d", len(got))
	}
	// millisecond progress converts to seconds; zero mode and color fall
	// back to scrolling white
	if got[0].P != "61.50,1,16777215,[bilibili]" {
		t.Errorf("unexpected p: %s", got[0].P)
	}
}

func TestNormalizeSkipsMalformed(t *testing.T) {
	raws := []models.RawComment{
		{Attr: "notanumber,1,25,123", Text: "bad time"},
		{Attr: "1.0,1", Text: "too few fields"},
		{}, // fits no shape
		{TimePoint: 1, CT: 1, Color: 1, Content: "good"},
	}
	got := Normalize(raws, models.PlatformIqiyi)
	if len(got) != 1 {
		t.Fatalf("expected only the valid record, got %d", len(got))
	}
	if got[0].M != "good" {
		t.Errorf("kept wrong record: %s", got[0].M)
	}
}

func TestNormalizeDenseSequenceIDs(t *testing.T) {
	raws := []models.RawComment{
		{TimePoint: 1, CT: 1, Content: "a"},
		{Attr: "bad"},
		{TimePoint: 2, CT: 1, Content: "b"},
		{TimePoint: 3, CT: 1, Content: "c"},
	}
	got := Normalize(raws, models.PlatformMango)
	if len(got) != 3 {
		t.Fatalf("expected 3 comments, got %d", len(got))
	}
	for i, c := range got {
		if c.CID != i+1 {
			t.Errorf("comment %d: cid = %d, want %d", i, c.CID, i+1)
		}
	}
}

func TestNormalizePlatformTag(t *testing.T) {
	raws := []models.RawComment{{TimePoint: 1, CT: 1, Content: "x"}}
	got := Normalize(raws, BridgePlatform)
	if !strings.HasSuffix(got[0].P, ",[other_server]") {
		t.Errorf("missing bridge tag: %s", got[0].P)
	}
}
