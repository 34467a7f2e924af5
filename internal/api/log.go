package api

import (
	"net/http"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"biotimeline/pkg/logging"
)

const (
	maxLogLines   = 64
	maxParamRunes = 24
)

var logPair = regexp.MustCompile(`([a-zA-Z0-9_\-.]+)=(?:"((?:[^"\\]|\\.)*)"|([^ ]+))`)

// LogResponse is the body of GET /api/log/latest.
type LogResponse struct {
	Log   string   `json:"log"`
	Lines []string `json:"lines,omitempty"`
}

// handleLatestLog returns the last server log line, and the last ?n= lines when asked.
func handleLatestLog(w http.ResponseWriter, r *http.Request) {
	resp := LogResponse{Log: formatLogLine(logging.Capture.Last())}

	if raw := r.URL.Query().Get("n"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			writeBadRequest(w, "n must be a positive integer")
			return
		}
		tail := logging.Capture.Tail(min(n, maxLogLines))
		resp.Lines = make([]string, len(tail))
		for i, l := range tail {
			resp.Lines[i] = formatLogLine(l)
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

// formatLogLine condenses a slog text line to "HH:MM:SS [LEVEL] msg (k=v, ...)".
// INFO is implied. Run ids are cut to their first block and long values are elided.
func formatLogLine(raw string) string {
	matches := logPair.FindAllStringSubmatch(raw, -1)
	if len(matches) == 0 {
		return raw
	}

	var clock, level, msg string
	var params []string
	for _, m := range matches {
		key, val := m[1], m[2]
		if val == "" {
			val = m[3]
		}
		val = strings.TrimSpace(val)

		switch key {
		case "time":
			if t, err := time.Parse(time.RFC3339, val); err == nil {
				clock = t.Format("15:04:05")
			}
		case "level":
			if val != "INFO" {
				level = val
			}
		case "msg":
			msg = val
		case "source":
		case "run_id":
			if i := strings.IndexByte(val, '-'); i > 0 {
				val = val[:i]
			}
			params = append(params, key+"="+val)
		default:
			if r := []rune(val); len(r) > maxParamRunes {
				val = string(r[:maxParamRunes]) + "..."
			}
			params = append(params, key+"="+val)
		}
	}
	if msg == "" {
		return raw
	}
	sort.Strings(params)

	var b strings.Builder
	if clock != "" {
		b.WriteString(clock)
		b.WriteByte(' ')
	}
	if level != "" {
		b.WriteString("[" + level + "] ")
	}
	b.WriteString(msg)
	if len(params) > 0 {
		b.WriteString(" (" + strings.Join(params, ", ") + ")")
	}
	return b.String()
}
