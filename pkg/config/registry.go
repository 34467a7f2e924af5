package config

// Persistent state keys (Registry)
const (
	KeyLLMKey        = "llm_key"
	KeyLLMModel      = "llm_model"
	KeyDefaultLocale = "default_locale"
	KeyMaxSeedEvents = "max_seed_events"
	KeyParallelism   = "compare_parallelism"
)

// MutableKeys lists the keys that may be changed at runtime through the API.
var MutableKeys = []string{KeyLLMKey, KeyLLMModel, KeyDefaultLocale, KeyMaxSeedEvents, KeyParallelism}

// IsMutable reports whether key may be changed at runtime.
func IsMutable(key string) bool {
	for _, k := range MutableKeys {
		if k == key {
			return true
		}
	}
	return false
}
