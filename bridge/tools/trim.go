package tools

import "unicode/utf8"

const (
	trimMaxLines = 200
	trimMaxBytes = 16 * 1024
)

// tailTrim keeps the last lines of captured output within line and byte
// limits. The newest output is the interesting part of a diagnostic run. May
// return a partial first line when that line alone exceeds the byte limit.
func tailTrim(content string) (string, bool) {
	lines := splitLines(content)
	totalLines := len(lines)
	totalBytes := len(content)

	if totalLines <= trimMaxLines && totalBytes <= trimMaxBytes {
		return content, false
	}

	out := make([]string, 0, min(totalLines, trimMaxLines))
	outputBytes := 0
	for i := totalLines - 1; i >= 0 && len(out) < trimMaxLines; i-- {
		line := lines[i]
		lineBytes := len(line)
		if len(out) > 0 {
			lineBytes++ // newline
		}
		if outputBytes+lineBytes > trimMaxBytes {
			if len(out) == 0 {
				out = append(out, tailBytes(line, trimMaxBytes))
			}
			break
		}
		out = append([]string{line}, out...)
		outputBytes += lineBytes
	}

	return joinLines(out), true
}

func splitLines(content string) []string {
	if content == "" {
		return []string{""}
	}
	lines := make([]string, 0, 16)
	start := 0
	for i := 0; i < len(content); i++ {
		if content[i] == '\n' {
			lines = append(lines, content[start:i])
			start = i + 1
		}
	}
	return append(lines, content[start:])
}

func joinLines(lines []string) string {
	total := 0
	for _, line := range lines {
		total += len(line) + 1
	}
	buf := make([]byte, 0, total)
	for i, line := range lines {
		if i > 0 {
			buf = append(buf, '\n')
		}
		buf = append(buf, line...)
	}
	return string(buf)
}

// tailBytes keeps the last maxBytes of value without splitting a UTF-8 rune.
func tailBytes(value string, maxBytes int) string {
	if maxBytes <= 0 {
		return ""
	}
	raw := []byte(value)
	if len(raw) <= maxBytes {
		return value
	}
	start := len(raw) - maxBytes
	for start < len(raw) && (raw[start]&0xC0) == 0x80 {
		start++
	}
	if start >= len(raw) {
		r, size := utf8.DecodeLastRune(raw)
		if r == utf8.RuneError && size == 0 {
			return ""
		}
		return string(raw[len(raw)-size:])
	}
	return string(raw[start:])
}
