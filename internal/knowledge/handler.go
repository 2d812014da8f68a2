package knowledge

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/dentalcare/aftercare/internal/api"
)

const maxPreviewLimit = 10

// Searcher is satisfied by *Retriever.
type Searcher interface {
	Search(ctx context.Context, query string, limit int) ([]string, error)
}

// Handler serves the knowledge preview endpoint.
type Handler struct {
	searcher     Searcher
	defaultLimit int
}

func NewHandler(searcher Searcher, defaultLimit int) *Handler {
	return &Handler{searcher: searcher, defaultLimit: defaultLimit}
}

// Search runs the retriever for ?q= and returns the snippets it would feed
// into a prompt.
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	q := strings.TrimSpace(r.URL.Query().Get("q"))
	if q == "" {
		api.HandleError(w, api.NewBadRequestError("query parameter q is required"))
		return
	}

	limit := h.defaultLimit
	if l := r.URL.Query().Get("limit"); l != "" {
		v, err := strconv.Atoi(l)
		if err != nil || v < 1 || v > maxPreviewLimit {
			api.HandleError(w, api.NewBadRequestError("limit must be between 1 and 10"))
			return
		}
		limit = v
	}

	snippets, err := h.searcher.Search(r.Context(), q, limit)
	if err != nil {
		slog.Error("searching knowledge", "error", err)
		api.HandleError(w, api.ErrInternalServer)
		return
	}

	api.JSON(w, http.StatusOK, SearchResponse{Query: q, Limit: limit, Snippets: snippets})
}
