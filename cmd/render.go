package cmd

import (
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/zjrosen/nativepage/internal/page"
)

var renderCmd = &cobra.Command{
	Use:   "render <file.c> [out-dir]",
	Short: "Render one C source file to an HTML page",
	Long: `Render one C source file to <out-dir>/<name>.html.

The output directory must already exist. It defaults to build.out_dir.

Examples:
  nativepage render src/main.c
  nativepage render src/main.c public`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runRender,
}

func init() {
	rootCmd.AddCommand(renderCmd)
}

func runRender(cmd *cobra.Command, args []string) error {
	provider, err := loadConfig()
	if err != nil {
		return err
	}
	defer shutdownTracing(cmd.Context(), provider)

	src := args[0]
	outDir := cfg.Build.OutDir
	if len(args) == 2 {
		outDir = args[1]
	}

	if err := page.CheckSource(src, cfg.Build.Extensions); err != nil {
		return err
	}

	asm, err := page.NewAssembler(cfg.Site)
	if err != nil {
		return err
	}

	dst := filepath.Join(outDir, page.PageName(src)+page.PageExt)
	stats, err := page.RenderFile(cmd.Context(), src, dst, asm, cfg.RenderOptions())
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	printSuccess(out, "%s → %s (%d lines)", src, dst, stats.Lines)
	if stats.Unterminated {
		printWarn(out, "%s ends inside a string or escape sequence", src)
	}
	return nil
}
