package classfile

import (
	"context"
	"fmt"
	"path/filepath"
)

// StageExpected locates the compiled units for src in the expected build
// output and stages each into the expected tree under evalDir, returning
// the identities to compare a replayed build against. An empty result
// means the source has no runtime-meaningful compiled output.
func (m *Matcher) StageExpected(ctx context.Context, src, buildBase, evalDir string) ([]ExpectedClassfile, error) {
	matches, pkg, err := m.Locate(ctx, src, buildBase)
	if err != nil {
		return nil, err
	}

	base := filepath.Join(evalDir, expectedTree)
	var expected []ExpectedClassfile
	for _, match := range matches {
		staged, err := stageToPackageDir(match, pkg, base)
		if err != nil {
			return nil, fmt.Errorf("stage expected classfile: %w", err)
		}
		rel, err := filepath.Rel(buildBase, match)
		if err != nil {
			return nil, err
		}
		expected = append(expected, ExpectedClassfile{
			CopyAbsPath:     staged,
			OriginalRelPath: rel,
			CopyBaseDir:     evalDir,
		})
	}
	return expected, nil
}
