package schedule

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/openprocurement/openprocurement.auctions.lease/internal/platform/httpx"
)

// Reader is the read side of the store used by Handler.
type Reader interface {
	Load(ctx context.Context, auctionID string) (Entry, error)
	Due(ctx context.Context, until time.Time, limit int64) ([]string, error)
}

// Handler serves stored schedules to operators.
type Handler struct {
	store Reader
	clock func() time.Time
}

// NewHandler constructs the schedule handler.
func NewHandler(store Reader) *Handler {
	return &Handler{store: store, clock: time.Now}
}

// MountRoutes attaches schedule routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/due", h.due)
	r.Get("/{auctionID}", h.get)
}

type entryView struct {
	AuctionID        string `json:"auctionId"`
	NextCheck        string `json:"next_check,omitempty"`
	ShouldStartAfter string `json:"shouldStartAfter,omitempty"`
	Source           string `json:"source"`
	EvaluatedAt      string `json:"evaluatedAt"`
	DeliveredAt      string `json:"deliveredAt,omitempty"`
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(chi.URLParam(r, "auctionID"))
	entry, err := h.store.Load(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	view := entryView{
		AuctionID:        entry.AuctionID,
		NextCheck:        entry.NextCheck,
		ShouldStartAfter: entry.ShouldStartAfter,
		Source:           string(entry.Source),
		EvaluatedAt:      entry.EvaluatedAt.Format(time.RFC3339Nano),
	}
	if !entry.DeliveredAt.IsZero() {
		view.DeliveredAt = entry.DeliveredAt.Format(time.RFC3339Nano)
	}
	httpx.JSON(w, http.StatusOK, view)
}

// due lists auctions whose next check passed, optionally up to ?until=RFC3339.
func (h *Handler) due(w http.ResponseWriter, r *http.Request) {
	until := h.clock()
	if raw := r.URL.Query().Get("until"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Bad Request", "until must be RFC 3339")
			return
		}
		until = parsed
	}
	ids, err := h.store.Due(r.Context(), until, 0)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	if ids == nil {
		ids = []string{}
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"until": until.Format(time.RFC3339), "auctions": ids})
}
