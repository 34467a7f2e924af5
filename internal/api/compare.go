package api

import (
	"context"
	"log/slog"
	"net/http"

	"biotimeline/pkg/articleproc"
	"biotimeline/pkg/benchmark"
	"biotimeline/pkg/config"
	"biotimeline/pkg/model"
	"biotimeline/pkg/store"
)

// Comparer runs several strategies and ranks them.
type Comparer interface {
	Compare(ctx context.Context, req benchmark.CompareRequest) (*benchmark.Comparison, error)
}

// CompareRequest is the body of POST /api/compare. The reference is given inline or
// by ReferenceID; a stored reference also supplies the biography and locale when the
// request leaves them empty.
type CompareRequest struct {
	Text        string                    `json:"text"`
	Locale      string                    `json:"locale,omitempty"`
	APIKey      string                    `json:"apiKey,omitempty"`
	Strategies  []string                  `json:"strategies,omitempty"`
	Reference   []model.GoldStandardEvent `json:"reference,omitempty"`
	ReferenceID string                    `json:"referenceId,omitempty"`
}

// CompareHandler serves strategy comparisons.
type CompareHandler struct {
	bench Comparer
	refs  store.ReferenceStore
	cfg   config.Provider
}

// NewCompareHandler creates a new CompareHandler. refs and cfg may be nil.
func NewCompareHandler(b Comparer, refs store.ReferenceStore, cfg config.Provider) *CompareHandler {
	return &CompareHandler{bench: b, refs: refs, cfg: cfg}
}

// HandleCompare runs the requested strategies and scores them against the reference.
func (h *CompareHandler) HandleCompare(w http.ResponseWriter, r *http.Request) {
	var req CompareRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeBadRequest(w, "Invalid JSON")
		return
	}

	if req.ReferenceID != "" {
		ref, ok := lookupReference(w, r, h.refs, req.ReferenceID)
		if !ok {
			return
		}
		if len(req.Reference) == 0 {
			req.Reference = ref.Events
		}
		if req.Text == "" {
			req.Text = ref.Biography
		}
		if req.Locale == "" {
			req.Locale = string(ref.Locale)
		}
	}

	text, err := articleproc.Normalize(req.Text)
	if err != nil {
		writeBadRequest(w, "Unreadable HTML: "+err.Error())
		return
	}

	ctx, cancel := withRunTimeout(r.Context(), h.cfg)
	defer cancel()

	cmp, err := h.bench.Compare(ctx, benchmark.CompareRequest{
		Text:       text,
		Locale:     req.Locale,
		Credential: credential(ctx, req.APIKey, h.cfg),
		Reference:  req.Reference,
		Strategies: req.Strategies,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, cmp)
}

// lookupReference loads a stored reference, writing the error response when it
// cannot be served.
func lookupReference(w http.ResponseWriter, r *http.Request, refs store.ReferenceStore, id string) (*model.Reference, bool) {
	if refs == nil {
		writeJSON(w, http.StatusNotFound, ErrorResponse{Error: "reference store unavailable", Kind: "not_found"})
		return nil, false
	}
	ref, err := refs.GetReference(r.Context(), id)
	if err != nil {
		slog.Error("Failed to load reference", "id", id, "error", err)
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: "failed to load reference", Kind: "internal"})
		return nil, false
	}
	if ref == nil {
		writeJSON(w, http.StatusNotFound, ErrorResponse{Error: "unknown reference " + id, Kind: "not_found"})
		return nil, false
	}
	return ref, true
}
