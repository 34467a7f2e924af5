package llm

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// HistoryLog appends prompt/response transcripts to a file. A nil HistoryLog or an
// empty path disables it.
type HistoryLog struct {
	path string
	mu   sync.Mutex
	now  func() time.Time
}

// NewHistoryLog creates a transcript writer for path.
func NewHistoryLog(path string) *HistoryLog {
	return &HistoryLog{path: path, now: time.Now}
}

// Record appends one exchange. Failed exchanges only record the reason.
func (h *HistoryLog) Record(provider, name, prompt, response string, err error) {
	if h == nil || h.path == "" {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(h.path), 0o755); err != nil {
		return
	}
	f, fErr := os.OpenFile(h.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if fErr != nil {
		return
	}
	defer f.Close()

	timestamp := h.now().Format("2006-01-02 15:04:05")
	var entry string
	if err != nil {
		entry = fmt.Sprintf("[%s][%s] ERROR: %s - %v\n%s\n",
			timestamp, strings.ToUpper(provider), name, err, strings.Repeat("-", 80))
	} else {
		entry = fmt.Sprintf("[%s][%s] PROMPT: %s\nPROMPT_TEXT:\n%s\n\nRESPONSE:\n%s\n%s\n",
			timestamp, strings.ToUpper(provider), name, TruncateParagraphs(prompt, 80), WordWrap(response, 80), strings.Repeat("-", 80))
	}

	_, _ = f.WriteString(entry)
}
