package cmd

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/zjrosen/nativepage/internal/presentation"
	"github.com/zjrosen/nativepage/internal/site"
)

// errStale makes `build --check` exit non-zero.
var errStale = errors.New("site is out of date")

var (
	buildCheck   bool
	buildForce   bool
	buildJSON    bool
	buildWorkers int
)

var buildCmd = &cobra.Command{
	Use:   "build <source-dir> [out-dir]",
	Short: "Render every C source file in a tree",
	Long: `Render every tracked source under <source-dir> into a mirrored tree of
pages under <out-dir> (default build.out_dir).

When <out-dir> does not exist it is created together with an index.html
that redirects to site.redirect. Hidden entries and directories listed in
build.skip_dirs are skipped.

Examples:
  # Render the whole tree
  nativepage build src html

  # Report stale pages without writing, exit 1 if any
  nativepage build src html --check

  # Machine-readable summary
  nativepage build src html --json | jq .rendered`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runBuild,
}

func init() {
	buildCmd.Flags().BoolVar(&buildCheck, "check", false, "report stale pages without writing anything")
	buildCmd.Flags().BoolVar(&buildForce, "force", false, "re-render pages even when unchanged")
	buildCmd.Flags().BoolVar(&buildJSON, "json", false, "print the result as JSON")
	buildCmd.Flags().IntVarP(&buildWorkers, "workers", "j", 0, "parallel renders (overrides build.workers)")
	rootCmd.AddCommand(buildCmd)
}

func outDirArg(args []string) string {
	if len(args) == 2 {
		return args[1]
	}
	return cfg.Build.OutDir
}

func runBuild(cmd *cobra.Command, args []string) error {
	provider, err := loadConfig()
	if err != nil {
		return err
	}
	defer shutdownTracing(cmd.Context(), provider)

	builder, err := site.NewBuilder(cfg, site.WithForce(buildForce), site.WithWorkers(buildWorkers))
	if err != nil {
		return err
	}

	srcRoot, outRoot := args[0], outDirArg(args)
	if buildCheck {
		return runCheck(cmd, builder, srcRoot, outRoot)
	}

	res, err := builder.Build(cmd.Context(), srcRoot, outRoot)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if buildJSON {
		return presentation.NewFormatter(out).FormatBuild(presentation.FromBuildResult(res))
	}
	printBuildResult(cmd, res, outRoot)
	return nil
}

func printBuildResult(cmd *cobra.Command, res site.Result, outRoot string) {
	out := cmd.OutOrStdout()
	if res.Created {
		printMuted(out, "created %s", outRoot)
	}
	for _, src := range res.Unterminated {
		printWarn(out, "%s ends inside a string or escape sequence", src)
	}
	printSuccess(out, "rendered %d, unchanged %d in %s", res.Rendered, res.Skipped, res.Duration.Round(time.Millisecond))
}

func runCheck(cmd *cobra.Command, builder *site.Builder, srcRoot, outRoot string) error {
	stale, err := builder.Check(cmd.Context(), srcRoot, outRoot)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if buildJSON {
		if err := presentation.NewFormatter(out).FormatStale(presentation.FromStale(stale)); err != nil {
			return err
		}
	} else {
		for _, s := range stale {
			if s.Missing {
				printWarn(out, "%s is missing", s.Output)
				continue
			}
			printWarn(out, "%s is stale", s.Output)
			printDiff(out, s.Diff)
		}
		if len(stale) == 0 {
			printSuccess(out, "all pages up to date")
		}
	}

	if len(stale) > 0 {
		return fmt.Errorf("%w: %d stale pages", errStale, len(stale))
	}
	return nil
}
