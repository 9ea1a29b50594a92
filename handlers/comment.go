package handlers

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"barrage/models"
	"barrage/services/comment"
	"barrage/services/store"
)

// CommentResolver is what the handler needs from the comment router.
type CommentResolver interface {
	FetchComments(ctx context.Context, input string) (comment.FetchResult, error)
}

type CommentHandler struct {
	Router  CommentResolver
	Store   *store.Store
	Timeout time.Duration
}

func NewCommentHandler(router *comment.Router, st *store.Store, timeout time.Duration) *CommentHandler {
	if timeout <= 0 {
		timeout = 90 * time.Second
	}
	return &CommentHandler{Router: router, Store: st, Timeout: timeout}
}

type commentResponse struct {
	Count    int              `json:"count"`
	Comments []models.Comment `json:"comments"`
}

// GetComments serves GET /api/v2/comment/{commentId}. Players treat any
// non-200 as fatal, so failures degrade to an empty list.
func (h *CommentHandler) GetComments(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	input := h.resolveInput(mux.Vars(r)["commentId"])
	if input == "" {
		json.NewEncoder(w).Encode(commentResponse{Comments: []models.Comment{}})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.Timeout)
	defer cancel()

	res, err := h.Router.FetchComments(ctx, input)
	if err != nil {
		log.Printf("[comment] fetch for %q failed: %v", input, err)
	}
	if res.FallbackUsed {
		if res.Err != "" {
			log.Printf("[comment] bridge served %q after native failure: %s", input, res.Err)
		} else {
			log.Printf("[comment] bridge served %q", input)
		}
	}
	comments := res.Comments
	if comments == nil {
		comments = []models.Comment{}
	}
	json.NewEncoder(w).Encode(commentResponse{Count: len(comments), Comments: comments})
}

// resolveInput maps a surrogate episode id back to its remote reference.
// Anything that is not a stored surrogate id passes through untouched so
// direct URLs and platform ids keep working.
func (h *CommentHandler) resolveInput(raw string) string {
	if h.Store != nil {
		if id, err := strconv.Atoi(raw); err == nil && id >= store.FirstEpisodeID {
			if ep, ok := h.Store.Episode(id); ok {
				return ep.RemoteRef
			}
			// not one of ours; may still be a platform-native numeric id
			log.Printf("[comment] id %d not in store, passing through", id)
		}
	}
	return raw
}
