// Package classfile maps source units to their compiled classfiles and
// decides behavioral equivalence of compiled units via external bytecode
// tooling. Matching by name prefix is fundamentally a heuristic: it returns
// a best-effort candidate set filtered by provenance, declared package and
// build-module scope, never a guaranteed bijection.
package classfile

import (
	"path/filepath"
	"strings"
)

// ExpectedClassfile is a compiled unit's expected identity: the staged copy
// of the classfile, its path relative to the build root, and the evaluation
// base directory it was staged under. The staged copy is expected to live
// under <CopyBaseDir>/expected/<package path>/.
type ExpectedClassfile struct {
	CopyAbsPath     string
	OriginalRelPath string
	CopyBaseDir     string
}

// ClassfilePair pairs an expected classfile with the corresponding path in
// the replayed build output. The replayed path may not exist.
type ClassfilePair struct {
	Expected ExpectedClassfile
	Replayed string
}

// Verdict is the three-valued outcome of an equivalence check. Unknown
// means the comparison could not be performed, which is distinct from a
// negative result.
type Verdict int

const (
	VerdictUnknown Verdict = iota
	VerdictEqual
	VerdictNotEqual
)

func (v Verdict) String() string {
	switch v {
	case VerdictEqual:
		return "equal"
	case VerdictNotEqual:
		return "not-equal"
	default:
		return "unknown"
	}
}

// Pairs matches each expected classfile with its counterpart in the
// replayed build output by relative path.
func Pairs(expected []ExpectedClassfile, replayedBase string) []ClassfilePair {
	pairs := make([]ClassfilePair, 0, len(expected))
	for _, exp := range expected {
		pairs = append(pairs, ClassfilePair{
			Expected: exp,
			Replayed: filepath.Join(replayedBase, exp.OriginalRelPath),
		})
	}
	return pairs
}

// stem returns the file's base name without its extension.
func stem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
