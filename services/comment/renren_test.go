package comment

import (
	"testing"
)

func TestCollapseRenrenDropsDuplicateContentIDs(t *testing.T) {
	items := []renrenItem{
		{P: "10.5,1,25,16777215,0,0,u1,c1", M: "hello"},
		{P: "10.5,1,25,16777215,0,0,u1,c1", M: "hello"}, // resubmission
		{P: "20.0,1,25,255,0,0,u2,c2", M: "world"},
	}
	got := collapseRenren(items)
	if len(got) != 2 {
		t.Fatalf("expected 2 comments, got %d", len(got))
	}
	if got[0].Content != "hello" || got[1].Content != "world" {
		t.Errorf("unexpected contents: %+v", got)
	}
}

func TestCollapseRenrenMergesIdenticalTexts(t *testing.T) {
	items := []renrenItem{
		{P: "30.0,1,25,255,0,0,u1,c1", M: "666"},
		{P: "12.0,1,25,255,0,0,u2,c2", M: "666"},
		{P: "18.0,1,25,255,0,0,u3,c3", M: "666"},
		{P: "5.0,1,25,16777215,0,0,u4,c4", M: "unique"},
	}
	got := collapseRenren(items)
	if len(got) != 2 {
		t.Fatalf("expected 2 comments, got %d", len(got))
	}
	merged := got[0]
	if merged.Content != "666 ×3" {
		t.Errorf("merged text = %q, want %q", merged.Content, "666 ×3")
	}
	if merged.TimePoint != 12.0 {
		t.Errorf("merged timestamp = %v, want earliest 12.0", merged.TimePoint)
	}
	if got[1].Content != "unique" {
		t.Errorf("unique text mangled: %q", got[1].Content)
	}
}

func TestCollapseRenrenSkipsMalformed(t *testing.T) {
	items := []renrenItem{
		{P: "bad,1,25,255", M: "no timestamp"},
		{P: "1.0,1", M: "too short"},
		{P: "1.0,1,25,255", M: ""},
		{P: "2.0,4,25,255,0,0,u1,c1", M: "kept"},
	}
	got := collapseRenren(items)
	if len(got) != 1 {
		t.Fatalf("expected 1 comment, got %d", len(got))
	}
	if got[0].Content != "kept" || got[0].CT != 4 {
		t.Errorf("unexpected record: %+v", got[0])
	}
}

func TestCollapseRenrenReadsUpstreamTextField(t *testing.T) {
	c := NewRenrenClient(nil, "3b744389882a4067")
	items, err := c.decodeItems([]byte(`[{"p":"10.5,1,25,16777215,0,0,u1,c1","d":"hello from upstream"}]`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got := collapseRenren(items)
	if len(got) != 1 {
		t.Fatalf("expected 1 comment, got %d", len(got))
	}
	if got[0].Content != "hello from upstream" || got[0].TimePoint != 10.5 {
		t.Errorf("unexpected record: %+v", got[0])
	}
}

func TestRenrenDecodeItemsDataEnvelope(t *testing.T) {
	c := NewRenrenClient(nil, "3b744389882a4067")
	items, err := c.decodeItems([]byte(`{"data":[{"p":"1.0,1,25,255,0,0,u,c","d":"wrapped"}]}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(items) != 1 || items[0].D != "wrapped" {
		t.Errorf("unexpected items: %+v", items)
	}
}

func TestRenrenDecodeItemsPlainJSON(t *testing.T) {
	c := NewRenrenClient(nil, "3b744389882a4067")
	items, err := c.decodeItems([]byte(`[{"p":"1.0,1,25,255,0,0,u,c","m":"plain"}]`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(items) != 1 || items[0].M != "plain" {
		t.Errorf("unexpected items: %+v", items)
	}
}

func TestRenrenDecodeItemsGarbage(t *testing.T) {
	c := NewRenrenClient(nil, "3b744389882a4067")
	if _, err := c.decodeItems([]byte("!!not json or base64!!")); err == nil {
		t.Fatal("expected error for undecodable body")
	}
}
