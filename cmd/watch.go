package cmd

import (
	"os"
	"os/signal"
	"slices"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/zjrosen/nativepage/internal/log"
	"github.com/zjrosen/nativepage/internal/site"
	"github.com/zjrosen/nativepage/internal/watcher"
)

var watchCmd = &cobra.Command{
	Use:   "watch <source-dir> [out-dir]",
	Short: "Build a tree, then rebuild whenever sources change",
	Long: `Build like 'nativepage build', then keep watching <source-dir> and
re-render changed sources until interrupted. Only pages whose source
changed are rewritten. Bursts of writes are coalesced (watch.debounce).`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	provider, err := loadConfig()
	if err != nil {
		return err
	}
	defer shutdownTracing(cmd.Context(), provider)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	builder, err := site.NewBuilder(cfg)
	if err != nil {
		return err
	}

	srcRoot, outRoot := args[0], outDirArg(args)
	res, err := builder.Build(ctx, srcRoot, outRoot)
	if err != nil {
		return err
	}
	printBuildResult(cmd, res, outRoot)

	wcfg := watcher.DefaultConfig(srcRoot)
	if cfg.Watch.Debounce > 0 {
		wcfg.DebounceDur = cfg.Watch.Debounce
	}
	wcfg.Filter = func(path string) bool {
		return site.Tracks(srcRoot, path, cfg.Build)
	}
	wcfg.SkipDir = func(name string) bool {
		return strings.HasPrefix(name, ".") || slices.Contains(cfg.Build.SkipDirs, name)
	}
	w, err := watcher.New(wcfg)
	if err != nil {
		return err
	}
	defer func() { _ = w.Stop() }()

	changes, err := w.Start()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	printMuted(out, "watching %s (ctrl+c to stop)", srcRoot)

	for {
		select {
		case <-ctx.Done():
			printMuted(out, "stopped")
			return nil
		case changed, ok := <-changes:
			if !ok {
				return nil
			}
			log.Info(log.CatWatcher, "sources changed", "count", len(changed), "paths", changed)
			for _, path := range changed {
				printMuted(out, "changed %s", path)
			}

			res, err := builder.Build(ctx, srcRoot, outRoot)
			if err != nil {
				// Keep watching; the next save may fix it
				printWarn(out, "build failed: %v", err)
				continue
			}
			printBuildResult(cmd, res, outRoot)
		}
	}
}
