package llm

import (
	"strings"
)

// WordWrap wraps text at the specified width.
func WordWrap(text string, width int) string {
	if width <= 0 {
		return text
	}

	var result strings.Builder
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		if i > 0 {
			result.WriteString("\n")
		}

		words := strings.Fields(line)
		if len(words) == 0 {
			continue
		}

		currentLineLength := 0
		for j, word := range words {
			if j > 0 {
				if currentLineLength+len(word)+1 > width {
					result.WriteString("\n")
					currentLineLength = 0
				} else {
					result.WriteString(" ")
					currentLineLength++
				}
			}
			result.WriteString(word)
			currentLineLength += len(word)
		}
	}

	return result.String()
}

// TruncateParagraphs truncates lines within the biography block of a prompt to maxLen
// and removes empty lines within that block. This is primarily used for logging prompts.
func TruncateParagraphs(text string, maxLen int) string {
	if text == "" {
		return ""
	}

	lines := strings.Split(text, "\n")
	var result []string
	inBioBlock := false

	for _, line := range lines {
		trimmed := strings.TrimSpace(line)

		if isBlockStart(trimmed) {
			inBioBlock = true
			result = append(result, line)
			continue
		}

		if inBioBlock && isBlockEnd(trimmed) {
			inBioBlock = false
		}

		if inBioBlock {
			if trimmed == "" {
				continue // Skip empty lines in biography block
			}
			runes := []rune(trimmed)
			if len(runes) > maxLen {
				result = append(result, string(runes[:maxLen])+"...")
			} else {
				result = append(result, trimmed)
			}
		} else {
			result = append(result, line)
		}
	}

	return strings.Join(result, "\n")
}

var (
	blockStarts = []string{"BIOGRAFIA:", "BIOGRAPHY:", "BIOGRAFIA ORIGINALE:", "ORIGINAL BIOGRAPHY:"}
	blockEnds   = []string{"DATI GIÀ ESTRATTI:", "ALREADY EXTRACTED DATA:", "Restituisci", "Return a JSON"}
)

func isBlockStart(line string) bool {
	for _, m := range blockStarts {
		if line == m {
			return true
		}
	}
	return false
}

func isBlockEnd(line string) bool {
	for _, m := range blockEnds {
		if strings.HasPrefix(line, m) {
			return true
		}
	}
	return false
}

// ExtractJSONObject returns the span from the first '{' to the last '}' of text.
// The match is greedy: prose between two objects is included and left for the decoder
// to reject. It returns false when no such span exists.
func ExtractJSONObject(text string) (string, bool) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start == -1 || end < start {
		return "", false
	}
	return text[start : end+1], true
}
