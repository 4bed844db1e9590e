package main

import (
	"fmt"
	"os"

	"nvup/internal/adapter/config"
	"nvup/internal/adapter/platform"
	"nvup/internal/adapter/proxy"
	"nvup/internal/adapter/registry"
	"nvup/internal/cli"
)

// manageName is the command name under which the full management surface
// is exposed. Any other invoked name is proxied to the active install.
const manageName = "nvup"

func main() {
	if platform.CommandName(os.Args[0]) == manageName {
		os.Exit(cli.Execute(os.Args[1:]))
	}
	dispatch()
}

// dispatch hands the invocation to the active installation's binary of the
// same name. Configuration failures fall back to defaults: a broken config
// file must not take the editor down with it.
func dispatch() {
	cfg, err := config.Load()
	if err != nil {
		cfg, err = config.Defaults()
		if err != nil {
			fatal(err)
		}
	}

	reg := registry.New(cfg.InstallDir, cfg.DownloadsDir, nil)
	d := proxy.NewDispatcher(reg)
	if err := d.Dispatch(os.Args[0], os.Args[1:]); err != nil {
		fatal(err)
	}
}

func fatal(err error) {
	fmt.Fprintf(os.Stderr, "nvup: %v\n", err)
	os.Exit(1)
}
