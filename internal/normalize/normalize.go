// Package normalize produces whitespace-canonicalized copies of source
// artifacts so that diff metrics can separate formatting churn from real
// divergence. Normalization is purely lexical: string and character
// literals are preserved byte for byte, so the output stays syntactically
// equivalent to the input.
package normalize

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Text canonicalizes the formatting of src: CRLF becomes LF, runs of
// spaces and tabs outside literals collapse to a single space, leading and
// trailing whitespace is stripped, and blank lines are dropped. The result
// is deterministic for a given input.
func Text(src string) string {
	var out []string
	for _, line := range strings.Split(strings.ReplaceAll(src, "\r\n", "\n"), "\n") {
		n := collapseLine(line)
		if n == "" {
			continue
		}
		out = append(out, n)
	}
	if len(out) == 0 {
		return ""
	}
	return strings.Join(out, "\n") + "\n"
}

// Copy writes a normalized copy of the file at path into the same
// directory, named <stem>_normalized<ext>, and returns the copy's path.
func Copy(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read artifact: %w", err)
	}

	ext := filepath.Ext(path)
	stem := strings.TrimSuffix(filepath.Base(path), ext)
	dst := filepath.Join(filepath.Dir(path), stem+"_normalized"+ext)

	if err := os.WriteFile(dst, []byte(Text(string(data))), 0o644); err != nil {
		return "", fmt.Errorf("write normalized copy: %w", err)
	}
	return dst, nil
}

// collapseLine squeezes whitespace runs to single spaces, skipping over
// double- and single-quoted literals (with backslash escapes). The line is
// trimmed on both ends.
func collapseLine(line string) string {
	var sb strings.Builder
	var quote byte // 0 when outside a literal
	escaped := false
	pendingSpace := false

	for i := 0; i < len(line); i++ {
		ch := line[i]

		if quote != 0 {
			sb.WriteByte(ch)
			if escaped {
				escaped = false
			} else if ch == '\\' {
				escaped = true
			} else if ch == quote {
				quote = 0
			}
			continue
		}

		if ch == ' ' || ch == '\t' {
			pendingSpace = sb.Len() > 0
			continue
		}
		if pendingSpace {
			sb.WriteByte(' ')
			pendingSpace = false
		}
		sb.WriteByte(ch)
		if ch == '"' || ch == '\'' {
			quote = ch
		}
	}
	return sb.String()
}
