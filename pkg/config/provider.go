package config

import (
	"context"
	"strconv"
	"time"

	"biotimeline/pkg/store"
)

// Provider defines the interface for accessing unified configuration.
type Provider interface {
	// LLM
	Credential(ctx context.Context) string
	Model(ctx context.Context) string

	// Analysis
	DefaultLocale(ctx context.Context) string
	MaxSeedEvents(ctx context.Context) int
	RunTimeout(ctx context.Context) time.Duration
	CompareParallelism(ctx context.Context) int

	// Raw access (for components that need deep access)
	AppConfig() *Config
}

// UnifiedProvider implements Provider by bridging static Config and persistent Store.
// Runtime overrides stored under the Key* names take precedence over the file.
type UnifiedProvider struct {
	base  *Config
	store store.StateStore
}

// NewProvider creates a new UnifiedProvider. st may be nil.
func NewProvider(base *Config, st store.StateStore) *UnifiedProvider {
	return &UnifiedProvider{
		base:  base,
		store: st,
	}
}

func (p *UnifiedProvider) AppConfig() *Config { return p.base }

func (p *UnifiedProvider) Credential(ctx context.Context) string {
	return p.getString(ctx, KeyLLMKey, p.base.LLM.Key)
}

func (p *UnifiedProvider) Model(ctx context.Context) string {
	return p.getString(ctx, KeyLLMModel, p.base.LLM.Model)
}

func (p *UnifiedProvider) DefaultLocale(ctx context.Context) string {
	return p.getString(ctx, KeyDefaultLocale, p.base.Analysis.DefaultLocale)
}

func (p *UnifiedProvider) MaxSeedEvents(ctx context.Context) int {
	n := p.getInt(ctx, KeyMaxSeedEvents, p.base.Narrative.MaxSeedEvents)
	if n < 0 {
		return 0
	}
	return n
}

func (p *UnifiedProvider) RunTimeout(ctx context.Context) time.Duration {
	return p.base.Analysis.RunTimeout.Std()
}

func (p *UnifiedProvider) CompareParallelism(ctx context.Context) int {
	n := p.getInt(ctx, KeyParallelism, p.base.Compare.Parallelism)
	if n < 1 {
		return 1
	}
	return n
}

// --- Helpers ---

func (p *UnifiedProvider) getString(ctx context.Context, key, fallback string) string {
	if p.store != nil {
		if val, ok := p.store.GetState(ctx, key); ok && val != "" {
			return val
		}
	}
	return fallback
}

func (p *UnifiedProvider) getInt(ctx context.Context, key string, fallback int) int {
	if p.store != nil {
		if val, ok := p.store.GetState(ctx, key); ok && val != "" {
			if i, err := strconv.Atoi(val); err == nil {
				return i
			}
		}
	}
	return fallback
}
