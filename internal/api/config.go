package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sort"
	"strconv"
	"strings"

	"biotimeline/pkg/config"
	"biotimeline/pkg/locale"
	"biotimeline/pkg/model"
	"biotimeline/pkg/store"
)

// ConfigHandler handles configuration API requests.
type ConfigHandler struct {
	store   store.StateStore
	cfgProv config.Provider
	appCfg  *config.Config
}

// NewConfigHandler creates a new ConfigHandler.
func NewConfigHandler(st store.StateStore, cfg config.Provider) *ConfigHandler {
	return &ConfigHandler{
		store:   st,
		cfgProv: cfg,
		appCfg:  cfg.AppConfig(),
	}
}

// ConfigResponse represents the config API response. The key itself is never echoed.
type ConfigResponse struct {
	LLMProvider        string `json:"llm_provider"`
	LLMModel           string `json:"llm_model"`
	LLMKeySet          bool   `json:"llm_key_set"`
	DefaultLocale      string `json:"default_locale"`
	MaxSeedEvents      int    `json:"max_seed_events"`
	CompareParallelism int    `json:"compare_parallelism"`
	RunTimeout         string `json:"run_timeout"`
	CacheSize          int    `json:"cache_size"`
}

// ConfigRequest represents the config API request for updates.
// Pointers distinguish missing fields from zero values; an empty llm_key clears the
// runtime override.
type ConfigRequest struct {
	LLMKey             *string `json:"llm_key,omitempty"`
	LLMModel           *string `json:"llm_model,omitempty"`
	DefaultLocale      *string `json:"default_locale,omitempty"`
	MaxSeedEvents      *int    `json:"max_seed_events,omitempty"`
	CompareParallelism *int    `json:"compare_parallelism,omitempty"`
}

var errInvalidValue = errors.New("invalid value")

// HandleConfig is a unified handler for all config-related methods, facilitating CORS/OPTIONS.
func (h *ConfigHandler) HandleConfig(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "GET, PUT, POST, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusOK)
		return
	}

	switch r.Method {
	case http.MethodGet:
		h.HandleGetConfig(w, r)
	case http.MethodPut, http.MethodPost:
		h.HandleSetConfig(w, r)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// HandleGetConfig returns the current configuration.
func (h *ConfigHandler) HandleGetConfig(w http.ResponseWriter, r *http.Request) {
	resp := h.getConfigResponse(r.Context())

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		slog.Error("Failed to encode config response", "error", err)
	}
}

func (h *ConfigHandler) getConfigResponse(ctx context.Context) ConfigResponse {
	return ConfigResponse{
		LLMProvider:        h.appCfg.LLM.Provider,
		LLMModel:           h.cfgProv.Model(ctx),
		LLMKeySet:          h.cfgProv.Credential(ctx) != "",
		DefaultLocale:      h.cfgProv.DefaultLocale(ctx),
		MaxSeedEvents:      h.cfgProv.MaxSeedEvents(ctx),
		CompareParallelism: h.cfgProv.CompareParallelism(ctx),
		RunTimeout:         h.cfgProv.RunTimeout(ctx).String(),
		CacheSize:          h.appCfg.Analysis.CacheSize,
	}
}

// HandleSetConfig updates the runtime overrides.
func (h *ConfigHandler) HandleSetConfig(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "Failed to read body", http.StatusBadRequest)
		return
	}
	defer func() { _ = r.Body.Close() }()

	var req ConfigRequest
	if err := json.Unmarshal(body, &req); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}
	if key, ok := firstImmutableKey(body); ok {
		http.Error(w, fmt.Sprintf("%s cannot be changed at runtime", key), http.StatusBadRequest)
		return
	}

	ctx := context.Background()

	// Validate everything before writing anything
	if err := validateConfigRequest(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if req.LLMKey != nil {
		h.updateStringState(ctx, config.KeyLLMKey, *req.LLMKey)
	}
	if req.LLMModel != nil {
		h.updateStringState(ctx, config.KeyLLMModel, *req.LLMModel)
	}
	if req.DefaultLocale != nil {
		h.updateStringState(ctx, config.KeyDefaultLocale, *req.DefaultLocale)
	}
	if req.MaxSeedEvents != nil {
		h.updateIntState(ctx, config.KeyMaxSeedEvents, *req.MaxSeedEvents)
	}
	if req.CompareParallelism != nil {
		h.updateIntState(ctx, config.KeyParallelism, *req.CompareParallelism)
	}

	// Return updated config
	h.HandleGetConfig(w, r)
}

func firstImmutableKey(body []byte) (string, bool) {
	var m map[string]json.RawMessage
	if err := json.Unmarshal(body, &m); err != nil {
		return "", false
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if !config.IsMutable(k) {
			return k, true
		}
	}
	return "", false
}

func validateConfigRequest(req *ConfigRequest) error {
	if req.DefaultLocale != nil {
		loc, err := locale.Parse(*req.DefaultLocale, "")
		if err != nil || loc == "" {
			return fmt.Errorf("default_locale: %w", errInvalidValue)
		}
		s := string(loc)
		req.DefaultLocale = &s
	}
	if req.MaxSeedEvents != nil && *req.MaxSeedEvents < 0 {
		return fmt.Errorf("max_seed_events: %w", errInvalidValue)
	}
	if req.CompareParallelism != nil && (*req.CompareParallelism < 1 || *req.CompareParallelism > len(model.Strategies)) {
		return fmt.Errorf("compare_parallelism: %w", errInvalidValue)
	}
	return nil
}

func (h *ConfigHandler) updateStringState(ctx context.Context, key, val string) {
	val = strings.TrimSpace(val)
	if val == "" {
		if err := h.store.DeleteState(ctx, key); err != nil {
			slog.Error("Failed to clear state", "key", key, "error", err)
		} else {
			slog.Debug("Config override cleared", "key", key)
		}
		return
	}
	if err := h.store.SetState(ctx, key, val); err != nil {
		slog.Error("Failed to save state", "key", key, "error", err)
		return
	}
	if key == config.KeyLLMKey {
		slog.Debug("Config updated", "key", key)
		return
	}
	slog.Debug("Config updated", key, val)
}

func (h *ConfigHandler) updateIntState(ctx context.Context, key string, val int) {
	strVal := strconv.Itoa(val)
	if err := h.store.SetState(ctx, key, strVal); err != nil {
		slog.Error("Failed to save state", "key", key, "error", err)
	} else {
		slog.Debug("Config updated", key, strVal)
	}
}
