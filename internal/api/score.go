package api

import (
	"net/http"

	"biotimeline/pkg/model"
	"biotimeline/pkg/scorer"
)

// ScoreRequest is the body of POST /api/score: a generated timeline and a reference,
// inline or stored.
type ScoreRequest struct {
	Timeline    []model.TimelineEvent     `json:"timeline"`
	Reference   []model.GoldStandardEvent `json:"reference,omitempty"`
	ReferenceID string                    `json:"referenceId,omitempty"`
}

func handleScore(refs *ReferenceHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req ScoreRequest
		if err := decodeBody(w, r, &req); err != nil {
			writeBadRequest(w, "Invalid JSON")
			return
		}

		reference := req.Reference
		if req.ReferenceID != "" {
			st := refs.storeOrNil()
			ref, ok := lookupReference(w, r, st, req.ReferenceID)
			if !ok {
				return
			}
			reference = ref.Events
		}

		// an empty reference is not an error: recall is zero
		writeJSON(w, http.StatusOK, scorer.Score(req.Timeline, model.PrepareReference(reference)))
	}
}
