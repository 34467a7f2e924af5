package api

import (
	"context"
	"net/http"

	"biotimeline/pkg/analysis"
	"biotimeline/pkg/articleproc"
	"biotimeline/pkg/config"
	"biotimeline/pkg/model"
)

// Runner executes one extraction run.
type Runner interface {
	Run(ctx context.Context, req analysis.Request) (*model.AnalysisResult, error)
}

// AnalyzeRequest is the body of POST /api/analyze.
type AnalyzeRequest struct {
	Text     string `json:"text"`
	Strategy string `json:"strategy"`
	Locale   string `json:"locale,omitempty"`
	APIKey   string `json:"apiKey,omitempty"`
}

// AnalysisHandler serves single extraction runs.
type AnalysisHandler struct {
	runner Runner
	cfg    config.Provider
}

// NewAnalysisHandler creates a new AnalysisHandler. cfg may be nil.
func NewAnalysisHandler(r Runner, cfg config.Provider) *AnalysisHandler {
	return &AnalysisHandler{runner: r, cfg: cfg}
}

// HandleAnalyze runs one strategy over the posted biography.
func (h *AnalysisHandler) HandleAnalyze(w http.ResponseWriter, r *http.Request) {
	var req AnalyzeRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeBadRequest(w, "Invalid JSON")
		return
	}

	text, err := articleproc.Normalize(req.Text)
	if err != nil {
		writeBadRequest(w, "Unreadable HTML: "+err.Error())
		return
	}

	ctx, cancel := withRunTimeout(r.Context(), h.cfg)
	defer cancel()

	res, err := h.runner.Run(ctx, analysis.Request{
		Text:       text,
		Strategy:   req.Strategy,
		Credential: credential(ctx, req.APIKey, h.cfg),
		Locale:     req.Locale,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func withRunTimeout(ctx context.Context, cfg config.Provider) (context.Context, context.CancelFunc) {
	if cfg == nil {
		return context.WithCancel(ctx)
	}
	if d := cfg.RunTimeout(ctx); d > 0 {
		return context.WithTimeout(ctx, d)
	}
	return context.WithCancel(ctx)
}
