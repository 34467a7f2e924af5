package api

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"biotimeline/pkg/locale"
	"biotimeline/pkg/model"
	"biotimeline/pkg/store"
)

// ReferenceHandler serves the gold-standard reference store.
type ReferenceHandler struct {
	store store.ReferenceStore
}

// NewReferenceHandler creates a new ReferenceHandler.
func NewReferenceHandler(st store.ReferenceStore) *ReferenceHandler {
	return &ReferenceHandler{store: st}
}

// ReferenceRequest is the body of POST /api/references.
type ReferenceRequest struct {
	Name      string                    `json:"name"`
	Locale    string                    `json:"locale"`
	Biography string                    `json:"biography,omitempty"`
	Events    []model.GoldStandardEvent `json:"events"`
}

func (h *ReferenceHandler) storeOrNil() store.ReferenceStore {
	if h == nil || h.store == nil {
		return nil
	}
	return h.store
}

// HandleList returns every reference without its biography.
func (h *ReferenceHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	refs, err := h.store.ListReferences(r.Context())
	if err != nil {
		slog.Error("Failed to list references", "error", err)
		http.Error(w, "failed to list references", http.StatusInternalServerError)
		return
	}
	if refs == nil {
		refs = []*model.Reference{}
	}
	writeJSON(w, http.StatusOK, refs)
}

// HandleGet returns one reference including its biography.
func (h *ReferenceHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ref, ok := lookupReference(w, r, h.store, r.PathValue("id"))
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, ref)
}

// HandleCreate stores a user reference.
func (h *ReferenceHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req ReferenceRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeBadRequest(w, "Invalid JSON")
		return
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		writeBadRequest(w, "name is required")
		return
	}
	loc, err := locale.Parse(req.Locale, model.LocaleItalian)
	if err != nil {
		writeError(w, err)
		return
	}
	events := model.NormalizeGoldStandard(req.Events)
	if len(events) == 0 {
		writeBadRequest(w, "reference has no event with both a date and a title")
		return
	}

	existing, err := h.store.FindReference(r.Context(), name, loc)
	if err != nil {
		slog.Error("Failed to look up reference", "name", name, "error", err)
		http.Error(w, "failed to save reference", http.StatusInternalServerError)
		return
	}
	if existing != nil {
		writeJSON(w, http.StatusConflict, ErrorResponse{Error: "reference already exists: " + existing.ID, Kind: "conflict"})
		return
	}

	ref := &model.Reference{
		Name:      name,
		Locale:    loc,
		Biography: req.Biography,
		Events:    events,
		Source:    "api",
	}
	if err := h.store.SaveReference(r.Context(), ref); err != nil {
		slog.Error("Failed to save reference", "name", name, "error", err)
		http.Error(w, "failed to save reference", http.StatusInternalServerError)
		return
	}
	slog.Info("Reference saved", "id", ref.ID, "name", ref.Name, "events", len(ref.Events))
	writeJSON(w, http.StatusCreated, ref)
}

// HandleDelete removes a user reference. Built-in references are refused.
func (h *ReferenceHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	err := h.store.DeleteReference(r.Context(), id)
	if errors.Is(err, store.ErrBuiltinReference) {
		writeJSON(w, http.StatusForbidden, ErrorResponse{Error: err.Error(), Kind: "builtin_reference"})
		return
	}
	if err != nil {
		slog.Error("Failed to delete reference", "id", id, "error", err)
		http.Error(w, "failed to delete reference", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
