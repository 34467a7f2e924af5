package config

import (
	"context"
	"testing"
	"time"
)

// MockStateStore implements store.StateStore for testing.
type MockStateStore struct {
	data map[string]string
}

func NewMockStateStore() *MockStateStore {
	return &MockStateStore{data: make(map[string]string)}
}

func (m *MockStateStore) GetState(ctx context.Context, key string) (string, bool) {
	val, ok := m.data[key]
	return val, ok
}

func (m *MockStateStore) SetState(ctx context.Context, key, val string) error {
	m.data[key] = val
	return nil
}

func (m *MockStateStore) DeleteState(ctx context.Context, key string) error {
	delete(m.data, key)
	return nil
}

func TestUnifiedProvider(t *testing.T) {
	ctx := context.Background()
	base := DefaultConfig()
	base.LLM.Key = "file-key"
	base.Analysis.RunTimeout = Duration(45 * time.Second)

	st := NewMockStateStore()
	p := NewProvider(base, st)

	t.Run("Fallbacks", func(t *testing.T) {
		if got := p.Credential(ctx); got != "file-key" {
			t.Errorf("Credential() = %q, want file-key", got)
		}
		if got := p.Model(ctx); got != "gpt-4o-mini" {
			t.Errorf("Model() = %q", got)
		}
		if got := p.DefaultLocale(ctx); got != "it" {
			t.Errorf("DefaultLocale() = %q", got)
		}
		if got := p.MaxSeedEvents(ctx); got != 0 {
			t.Errorf("MaxSeedEvents() = %d", got)
		}
		if got := p.RunTimeout(ctx); got != 45*time.Second {
			t.Errorf("RunTimeout() = %v", got)
		}
		if got := p.CompareParallelism(ctx); got != 1 {
			t.Errorf("CompareParallelism() = %d", got)
		}
	})

	t.Run("Overrides", func(t *testing.T) {
		_ = st.SetState(ctx, KeyLLMKey, "stored-key")
		_ = st.SetState(ctx, KeyDefaultLocale, "en")
		_ = st.SetState(ctx, KeyMaxSeedEvents, "12")
		_ = st.SetState(ctx, KeyParallelism, "3")

		if got := p.Credential(ctx); got != "stored-key" {
			t.Errorf("Credential() = %q, want stored-key", got)
		}
		if got := p.DefaultLocale(ctx); got != "en" {
			t.Errorf("DefaultLocale() = %q", got)
		}
		if got := p.MaxSeedEvents(ctx); got != 12 {
			t.Errorf("MaxSeedEvents() = %d", got)
		}
		if got := p.CompareParallelism(ctx); got != 3 {
			t.Errorf("CompareParallelism() = %d", got)
		}
	})

	t.Run("InvalidOverridesIgnored", func(t *testing.T) {
		_ = st.SetState(ctx, KeyMaxSeedEvents, "many")
		_ = st.SetState(ctx, KeyParallelism, "-2")

		if got := p.MaxSeedEvents(ctx); got != 0 {
			t.Errorf("MaxSeedEvents() = %d, want fallback 0", got)
		}
		if got := p.CompareParallelism(ctx); got != 1 {
			t.Errorf("CompareParallelism() = %d, want floor 1", got)
		}
	})

	t.Run("NilStore", func(t *testing.T) {
		np := NewProvider(base, nil)
		if got := np.Credential(ctx); got != "file-key" {
			t.Errorf("Credential() = %q", got)
		}
	})
}

func TestIsMutable(t *testing.T) {
	if !IsMutable(KeyLLMKey) {
		t.Error("llm_key must be mutable")
	}
	if IsMutable("db_path") {
		t.Error("db_path must not be mutable")
	}
}
