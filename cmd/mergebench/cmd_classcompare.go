package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"mergebench/internal/classfile"
	"mergebench/internal/format"
	"mergebench/internal/logging"
	"mergebench/internal/tools"
)

var classcompareFlags struct {
	src           string
	expectedBuild string
	replayedBuild string
	evalDir       string
	tool          string
	toolsCfg      string
}

var classcompareCmd = &cobra.Command{
	Use:   "classcompare",
	Short: "Check compiled classfiles of a merged source for behavioral equivalence",
	Long: `Classcompare locates the compiled units of a source file in the expected
build output, stages them next to their counterparts from a replayed
build, and checks each pair for bytecode equivalence. Exits 0 only if no
pair is proven not equivalent.`,
	RunE: runClasscompare,
}

func init() {
	f := classcompareCmd.Flags()
	f.StringVar(&classcompareFlags.src, "src", "", "Source file whose compiled units to compare")
	f.StringVar(&classcompareFlags.expectedBuild, "expected-build", "", "Build output directory of the expected revision")
	f.StringVar(&classcompareFlags.replayedBuild, "replayed-build", "", "Build output directory of the replayed merge")
	f.StringVar(&classcompareFlags.evalDir, "eval-dir", "", "Staging directory for the comparison trees")
	f.StringVar(&classcompareFlags.tool, "tool", "", "Name of the merge tool that produced the replayed build")
	f.StringVar(&classcompareFlags.toolsCfg, "tools", "", "Path to the external tools config (default: built-in)")
	_ = classcompareCmd.MarkFlagRequired("src")
	_ = classcompareCmd.MarkFlagRequired("expected-build")
	_ = classcompareCmd.MarkFlagRequired("replayed-build")
	_ = classcompareCmd.MarkFlagRequired("eval-dir")
	_ = classcompareCmd.MarkFlagRequired("tool")
}

func runClasscompare(cmd *cobra.Command, _ []string) error {
	log := logging.New("classcompare")

	cfg := tools.DefaultConfig()
	if classcompareFlags.toolsCfg != "" {
		var err error
		cfg, err = tools.LoadConfig(classcompareFlags.toolsCfg)
		if err != nil {
			return err
		}
	}
	runner := tools.ExecRunner{}

	matcher := classfile.NewMatcher(cfg, runner)
	expected, err := matcher.StageExpected(cmd.Context(),
		classcompareFlags.src, classcompareFlags.expectedBuild, classcompareFlags.evalDir)
	if err != nil {
		return err
	}
	if len(expected) == 0 {
		fmt.Fprintf(cmd.OutOrStdout(), "%s: no compiled units to compare\n", classcompareFlags.src)
		return nil
	}

	checker := classfile.NewChecker(cfg, runner)
	verdicts, err := checker.CompareAll(cmd.Context(), expected,
		classcompareFlags.replayedBuild, classcompareFlags.tool)
	if err != nil {
		return err
	}

	tbl := format.NewTable(format.ASCII)
	tbl.Header("Classfile", "Verdict")
	notEqual := 0
	for _, v := range verdicts {
		tbl.Row(filepath.Base(v.Pair.Expected.CopyAbsPath), v.Verdict.String())
		if v.Verdict == classfile.VerdictNotEqual {
			notEqual++
		}
	}
	fmt.Fprintln(cmd.OutOrStdout(), tbl.String())

	if notEqual > 0 {
		log.Warn("compiled units are not equivalent", "pairs", notEqual)
		os.Exit(1)
	}
	return nil
}
