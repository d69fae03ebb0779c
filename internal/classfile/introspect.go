package classfile

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"mergebench/internal/tools"
)

// introspector wraps the package/provenance utilities shared by the
// matcher and the equivalence checker.
type introspector struct {
	cfg    tools.Config
	runner tools.Runner
	log    *slog.Logger
}

// extractPackage returns the package declared by a .java or .class file.
// An invocation failure (timeout, missing binary) is logged and yields an
// empty package; a non-zero exit from the utility itself is an error,
// since it means the file could not be analyzed.
func (in introspector) extractPackage(ctx context.Context, path string) (string, error) {
	res, err := in.runner.Run(ctx, in.cfg.PkgExtract.Invocation(path))
	if err != nil {
		in.log.Warn("package extraction failed", "path", path, "err", err)
		return "", nil
	}
	if res.ExitCode != 0 {
		return "", fmt.Errorf("extract package from %s: exit %d: %s",
			path, res.ExitCode, strings.TrimSpace(res.Stderr))
	}
	return strings.TrimSpace(res.Stdout), nil
}

// compiledFrom reports whether the classfile's embedded provenance names
// exactly the given source file. This guards against the remote collision
// where Something.java and Something$.java both exist: the latter's
// classfiles would otherwise be taken for nested types of the former.
// Any tool failure means "no match".
func (in introspector) compiledFrom(ctx context.Context, classfile, srcName string) bool {
	res, err := in.runner.Run(ctx, in.cfg.Javap.Invocation(classfile))
	if err != nil || res.ExitCode != 0 {
		in.log.Warn("classfile provenance check failed", "classfile", classfile, "err", err)
		return false
	}

	first, _, _ := strings.Cut(res.Stdout, "\n")
	return strings.TrimSpace(first) == fmt.Sprintf("Compiled from %q", srcName)
}
