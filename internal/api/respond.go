package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"biotimeline/pkg/config"
	"biotimeline/pkg/model"
)

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 8 << 20

// ErrorResponse is the body of every failed analysis, comparison or scoring call.
type ErrorResponse struct {
	Error string   `json:"error"`
	Kind  string   `json:"kind"`
	Logs  []string `json:"logs,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, err error) {
	status, kind := classify(err)
	resp := ErrorResponse{Error: err.Error(), Kind: kind}
	var run *model.RunError
	if errors.As(err, &run) {
		resp.Logs = run.Logs
	}
	if status >= http.StatusInternalServerError {
		slog.Warn("Request failed", "kind", kind, "status", status, "error", err)
	}
	writeJSON(w, status, resp)
}

func writeBadRequest(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: msg, Kind: "bad_request"})
}

// decodeBody reads a bounded JSON body into v.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		return err
	}
	defer func() { _ = r.Body.Close() }()
	return json.Unmarshal(body, v)
}

// classify maps a run error to an HTTP status and a stable kind tag.
func classify(err error) (int, string) {
	var (
		missing   *model.MissingCredentialError
		strategy  *model.UnsupportedStrategyError
		loc       *model.UnsupportedLocaleError
		external  *model.ExternalServiceError
		malformed *model.MalformedResponseError
		shape     *model.JSONShapeError
	)
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "timeout"
	case errors.As(err, &missing):
		return http.StatusBadRequest, "missing_credential"
	case errors.As(err, &strategy):
		return http.StatusBadRequest, "unsupported_strategy"
	case errors.As(err, &loc):
		return http.StatusBadRequest, "unsupported_locale"
	case errors.As(err, &external):
		return http.StatusBadGateway, "external_service"
	case errors.As(err, &malformed):
		return http.StatusBadGateway, "malformed_response"
	case errors.As(err, &shape):
		return http.StatusBadGateway, "json_shape"
	case errors.Is(err, context.Canceled):
		return http.StatusServiceUnavailable, "canceled"
	}
	return http.StatusInternalServerError, "internal"
}

// credential returns the request key, falling back to the configured one.
func credential(ctx context.Context, requested string, cfg config.Provider) string {
	if requested != "" || cfg == nil {
		return requested
	}
	return cfg.Credential(ctx)
}
