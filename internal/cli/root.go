// Package cli implements the management command surface. The proxy path
// never goes through here; dispatch is decided in main before cobra runs.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"nvup/internal/adapter/builder"
	"nvup/internal/adapter/config"
	"nvup/internal/adapter/downloader"
	"nvup/internal/adapter/extractor"
	"nvup/internal/adapter/logger"
	"nvup/internal/adapter/registry"
	"nvup/internal/adapter/release"
	"nvup/internal/adapter/rollback"
	"nvup/internal/app"
)

// env carries the wired service and configuration shared by all commands.
type env struct {
	svc *app.Service
	cfg config.Config
}

// Execute wires the adapters from configuration and runs the root command.
// Returns the process exit code.
func Execute(args []string) int {
	log := logger.NewStderr()

	cfg, err := config.Load()
	if err != nil {
		log.Error("configuration invalid", "err", err)
		return 1
	}

	reg := registry.New(cfg.InstallDir, cfg.DownloadsDir, log)
	store := rollback.New(reg, cfg.RollbackLimit, log)
	reg.SetArchiver(store)

	svc := app.NewService(
		release.NewClient(),
		downloader.NewHTTPDownloader(cfg.DownloadsDir, cfg.GithubMirror, log),
		extractor.NewArchiveExtractor(log),
		builder.NewSourceBuilder(cfg.DownloadsDir, cfg.GithubMirror, log),
		reg,
		store,
		log,
		app.Config{SyncVersionFile: cfg.SyncVersionFile},
	)

	root := newRootCmd(&env{svc: svc, cfg: cfg})
	root.SetArgs(args)
	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "nvup: %v\n", err)
		return 1
	}
	return 0
}

func newRootCmd(e *env) *cobra.Command {
	root := &cobra.Command{
		Use:           "nvup",
		Short:         "Version manager for Neovim",
		Long:          "nvup installs, switches, and rolls back Neovim versions, and transparently proxies nvim invocations to the active one.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(
		newUseCmd(e),
		newInstallCmd(e),
		newUninstallCmd(e),
		newSyncCmd(e),
		newRollbackCmd(e),
		newEraseCmd(e),
		newListCmd(e),
		newListRemoteCmd(e),
		newRunCmd(e),
	)
	return root
}
