package probe

import (
	"context"
	"errors"
	"fmt"

	"biotimeline/pkg/config"
	"biotimeline/pkg/llm/prompts"
	"biotimeline/pkg/model"
	"biotimeline/pkg/store"
)

// ErrNoCredential reports that no LLM key is configured.
var ErrNoCredential = errors.New("no llm key configured; narrative and combined runs need a per-request key")

// References passes when the reference store answers and holds at least one reference.
func References(st store.ReferenceStore) CheckFunc {
	return func(ctx context.Context) error {
		refs, err := st.ListReferences(ctx)
		if err != nil {
			return err
		}
		if len(refs) == 0 {
			return errors.New("reference store is empty")
		}
		return nil
	}
}

// Templates passes when every prompt of every supported locale renders.
func Templates(pm *prompts.Manager) CheckFunc {
	return func(ctx context.Context) error {
		data := map[string]string{"Biography": "probe", "Seed": "{}"}
		for _, loc := range []model.Locale{model.LocaleItalian, model.LocaleEnglish} {
			for _, name := range []string{"standalone", "enrichment", "system_standalone", "system_enrichment"} {
				tmpl := fmt.Sprintf("%s/%s.tmpl", loc, name)
				if _, err := pm.Render(tmpl, data); err != nil {
					return fmt.Errorf("%s: %w", tmpl, err)
				}
			}
		}
		return nil
	}
}

// Credential passes when an LLM key is configured.
func Credential(cfg config.Provider) CheckFunc {
	return func(ctx context.Context) error {
		if cfg.Credential(ctx) == "" {
			return ErrNoCredential
		}
		return nil
	}
}
