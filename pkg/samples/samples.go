// Package samples ships the built-in test biographies and their gold-standard timelines.
package samples

import (
	_ "embed"
	"fmt"
	"sync"

	"gopkg.in/yaml.v3"

	"biotimeline/pkg/model"
)

//go:embed samples.yaml
var rawSamples []byte

// Sample is a test biography with its reference timeline.
type Sample struct {
	Key          string                    `yaml:"key" json:"key"`
	Name         string                    `yaml:"name" json:"name"`
	Locale       model.Locale              `yaml:"locale" json:"locale"`
	Description  string                    `yaml:"description" json:"description"`
	Period       string                    `yaml:"period" json:"period"`
	Text         string                    `yaml:"text" json:"text"`
	GoldStandard []model.GoldStandardEvent `yaml:"gold_standard" json:"goldStandard"`
}

var (
	loadOnce sync.Once
	loaded   []Sample
	loadErr  error
)

// All returns the built-in samples in file order.
func All() ([]Sample, error) {
	loadOnce.Do(func() {
		loaded, loadErr = Parse(rawSamples)
	})
	return loaded, loadErr
}

// Parse decodes a samples document and normalises the gold standards.
func Parse(data []byte) ([]Sample, error) {
	var out []Sample
	if err := yaml.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("failed to parse samples: %w", err)
	}
	for i := range out {
		if out[i].Key == "" {
			return nil, fmt.Errorf("sample %d has no key", i)
		}
		out[i].GoldStandard = model.NormalizeGoldStandard(out[i].GoldStandard)
	}
	return out, nil
}

// Get returns the sample with the given key.
func Get(key string) (Sample, bool) {
	all, err := All()
	if err != nil {
		return Sample{}, false
	}
	for _, s := range all {
		if s.Key == key {
			return s, true
		}
	}
	return Sample{}, false
}

// Reference converts the sample into a stored reference with a stable ID.
func (s *Sample) Reference() *model.Reference {
	events := make([]model.GoldStandardEvent, len(s.GoldStandard))
	copy(events, s.GoldStandard)
	return &model.Reference{
		ID:        "builtin-" + s.Key,
		Name:      s.Name,
		Locale:    s.Locale,
		Biography: s.Text,
		Events:    events,
		Builtin:   true,
	}
}
