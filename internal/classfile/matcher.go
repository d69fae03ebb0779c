package classfile

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"mergebench/internal/logging"
	"mergebench/internal/tools"
)

// Matcher locates the compiled classfiles that originate from a given
// source unit.
type Matcher struct {
	introspector
}

// NewMatcher creates a Matcher. A nil runner defaults to executing real
// subprocesses.
func NewMatcher(cfg tools.Config, runner tools.Runner) *Matcher {
	if runner == nil {
		runner = tools.ExecRunner{}
	}
	return &Matcher{introspector{cfg: cfg, runner: runner, log: logging.New("matcher")}}
}

// Locate returns the sorted classfiles under basedir that were compiled
// from src, plus the package src declares. A source file with nested or
// non-public types generates several classfiles, all named with the source
// stem or the stem followed by '$'.
//
// A missing source file returns an empty result with a warning: this is
// typically caused by a rename the version-control diff could not track.
// An empty result after filtering is likewise expected, not exceptional:
// some source files produce no runtime-meaningful output.
func (m *Matcher) Locate(ctx context.Context, src, basedir string) ([]string, string, error) {
	if info, err := os.Stat(src); err != nil || info.IsDir() {
		m.log.Warn("source file not on disk; typically caused by renaming that the diff cannot detect",
			"src", src, "basedir", basedir)
		return nil, "", nil
	}

	candidates, err := m.candidatesByName(ctx, src, basedir)
	if err != nil {
		return nil, "", err
	}

	expectedPkg, err := m.extractPackage(ctx, src)
	if err != nil {
		return nil, "", err
	}
	srcPom, err := closestModuleMarker(src)
	if err != nil {
		return nil, "", err
	}

	var classfiles []string
	for _, candidate := range candidates {
		ok, err := m.samePackage(ctx, candidate, expectedPkg)
		if err != nil {
			return nil, "", err
		}
		if !ok {
			continue
		}
		ok, err = sameModule(candidate, srcPom)
		if err != nil {
			return nil, "", err
		}
		if ok {
			classfiles = append(classfiles, candidate)
		}
	}

	if len(classfiles) == 0 {
		m.log.Warn("no classfiles correspond to source file", "src", src, "basedir", basedir)
	}

	sort.Strings(classfiles)
	return classfiles, expectedPkg, nil
}

// candidatesByName walks the compiled output tree collecting classfiles
// whose stem is the source stem or has it as a '$'-separated prefix, then
// confirms each candidate's embedded provenance.
func (m *Matcher) candidatesByName(ctx context.Context, src, basedir string) ([]string, error) {
	name := stem(src)
	nestedPrefix := name + "$"
	srcName := filepath.Base(src)

	var candidates []string
	err := filepath.WalkDir(basedir, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() || filepath.Ext(path) != ".class" {
			return err
		}
		s := stem(path)
		if s != name && !strings.HasPrefix(s, nestedPrefix) {
			return nil
		}
		if m.compiledFrom(ctx, path, srcName) {
			candidates = append(candidates, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk compiled output %s: %w", basedir, err)
	}
	return candidates, nil
}

// samePackage checks that the candidate classfile declares the expected
// package.
func (m *Matcher) samePackage(ctx context.Context, candidate, expectedPkg string) (bool, error) {
	pkg, err := m.extractPackage(ctx, candidate)
	if err != nil {
		return false, err
	}
	return pkg == expectedPkg, nil
}

// sameModule checks that the candidate resolves to the same nearest
// enclosing build-module marker as the source file. This scopes matching
// to one build module when several modules reuse class and package names.
func sameModule(candidate, srcMarker string) (bool, error) {
	marker, err := closestModuleMarker(candidate)
	if err != nil {
		return false, err
	}
	return marker == srcMarker, nil
}

// closestModuleMarker walks parent directories upward until it finds one
// containing a pom.xml and returns that marker's path.
func closestModuleMarker(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	for dir := filepath.Dir(abs); ; dir = filepath.Dir(dir) {
		marker := filepath.Join(dir, "pom.xml")
		if _, err := os.Stat(marker); err == nil {
			return marker, nil
		}
		if dir == filepath.Dir(dir) {
			return "", fmt.Errorf("%s has no enclosing build-module marker", path)
		}
	}
}

// FindTargetDirs returns the Maven build output directories under root:
// directories named "target" that contain a classes or test-classes
// subdirectory.
func FindTargetDirs(root string) ([]string, error) {
	var dirs []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil || !d.IsDir() || d.Name() != "target" {
			return err
		}
		for _, sub := range []string{"classes", "test-classes"} {
			if info, err := os.Stat(filepath.Join(path, sub)); err == nil && info.IsDir() {
				dirs = append(dirs, path)
				break
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", root, err)
	}
	return dirs, nil
}
