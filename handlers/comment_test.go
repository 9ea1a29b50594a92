package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/mux"

	"barrage/models"
	"barrage/services/comment"
	"barrage/services/store"
)

type fakeResolver struct {
	comments []models.Comment
	err      error
	gotInput string
}

func (f *fakeResolver) FetchComments(_ context.Context, input string) (comment.FetchResult, error) {
	f.gotInput = input
	return comment.FetchResult{Comments: f.comments}, f.err
}

func commentRequest(h *CommentHandler, id string) *httptest.ResponseRecorder {
	r := mux.NewRouter()
	r.HandleFunc("/api/v2/comment/{commentId}", h.GetComments)
	req := httptest.NewRequest(http.MethodGet, "/api/v2/comment/"+id, nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestGetCommentsResolvesSurrogateID(t *testing.T) {
	st := store.New(10, 10)
	prog := models.SearchResult{Provider: models.ProviderRenren, ProgramID: 42, Title: "剧"}
	st.PutProgram(prog)
	st.PutEpisode(prog, models.PlayLink{Label: "第1集", RemoteRef: "91001"})

	resolver := &fakeResolver{comments: []models.Comment{{P: "1.00,1,255,[renren]", M: "hi", CID: 1}}}
	h := &CommentHandler{Router: resolver, Store: st, Timeout: time.Second}

	rec := commentRequest(h, "10001")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if resolver.gotInput != "91001" {
		t.Errorf("router got %q, want the stored remote ref", resolver.gotInput)
	}

	var resp struct {
		Count    int              `json:"count"`
		Comments []models.Comment `json:"comments"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Count != 1 || len(resp.Comments) != 1 {
		t.Errorf("unexpected payload: %+v", resp)
	}
}

func TestGetCommentsUnknownIDStays200(t *testing.T) {
	h := &CommentHandler{Router: &fakeResolver{}, Store: store.New(10, 10), Timeout: time.Second}

	rec := commentRequest(h, "19999")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var resp struct {
		Count    int              `json:"count"`
		Comments []models.Comment `json:"comments"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Count != 0 || resp.Comments == nil {
		t.Errorf("expected empty comments array, got %s", rec.Body.String())
	}
}

func TestGetCommentsFetchErrorStays200(t *testing.T) {
	resolver := &fakeResolver{err: errors.New("all upstreams down")}
	h := &CommentHandler{Router: resolver, Store: store.New(10, 10), Timeout: time.Second}

	rec := commentRequest(h, "123456")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if resolver.gotInput != "123456" {
		t.Errorf("non-surrogate input should pass through, got %q", resolver.gotInput)
	}
	var resp struct {
		Count int `json:"count"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Count != 0 {
		t.Errorf("expected zero count, got %d", resp.Count)
	}
}
