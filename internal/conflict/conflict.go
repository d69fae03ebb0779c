// Package conflict parses merge-tool output into structured conflict regions.
package conflict

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
)

// Conflict markers as emitted by git-style merge tools. A marker counts as
// such when it prefixes the line; anything after it (branch labels, commit
// ids) is ignored.
const (
	StartMarker = "<<<<<<<"
	MidMarker   = "======="
	EndMarker   = ">>>>>>>"
)

// MergeConflict is one unresolved region: the lines contributed by the left
// revision and the lines contributed by the right revision, in document
// order. Values are immutable once returned by Parse.
type MergeConflict struct {
	Left  []string
	Right []string
}

// NumLines is the total amount of conflicting lines.
func (c MergeConflict) NumLines() int {
	return len(c.Left) + len(c.Right)
}

// String re-renders the conflict with its markers.
func (c MergeConflict) String() string {
	var sb strings.Builder
	sb.WriteString(StartMarker)
	sb.WriteByte('\n')
	for _, line := range c.Left {
		sb.WriteString(line)
		sb.WriteByte('\n')
	}
	sb.WriteString(MidMarker)
	sb.WriteByte('\n')
	for _, line := range c.Right {
		sb.WriteString(line)
		sb.WriteByte('\n')
	}
	sb.WriteString(EndMarker)
	return sb.String()
}

// Parse scans the artifact and returns its conflict regions in document
// order. Collection for a side stops at the very next mid/end marker, so
// conflicts never nest. Input is assumed well formed: a start marker whose
// mid or end marker never arrives silently absorbs the remaining lines
// rather than failing.
func Parse(r io.Reader) ([]MergeConflict, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	var conflicts []MergeConflict
	for scanner.Scan() {
		if !strings.HasPrefix(scanner.Text(), StartMarker) {
			continue
		}
		var c MergeConflict
		for scanner.Scan() && !strings.HasPrefix(scanner.Text(), MidMarker) {
			c.Left = append(c.Left, scanner.Text())
		}
		for scanner.Scan() && !strings.HasPrefix(scanner.Text(), EndMarker) {
			c.Right = append(c.Right, scanner.Text())
		}
		conflicts = append(conflicts, c)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan artifact: %w", err)
	}
	return conflicts, nil
}

// ParseFile parses the conflicts contained in the file at path.
func ParseFile(path string) ([]MergeConflict, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open artifact: %w", err)
	}
	defer f.Close()
	return Parse(f)
}
