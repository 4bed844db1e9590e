// Package proxy turns the managing binary into a stand-in for the managed
// editor. Invoked under a proxied name, it resolves the active
// installation's binary of the same name and hands execution over to it.
package proxy

import (
	"os"
	"path/filepath"

	"nvup/internal/adapter/platform"
	"nvup/internal/domain"
)

// ActiveResolver reports the currently active installation. Dispatch only
// reads; it never takes the installation lock, so launches stay fast and
// are never blocked by a concurrent install.
type ActiveResolver interface {
	Active() (domain.InstalledVersion, error)
}

// Dispatcher resolves proxied invocations to binaries of the active
// installation.
type Dispatcher struct {
	active ActiveResolver
}

// NewDispatcher creates a dispatcher over the given resolver.
func NewDispatcher(active ActiveResolver) *Dispatcher {
	return &Dispatcher{active: active}
}

// BinPath resolves a command name to the matching binary in the active
// installation's bin directory. Any binary that exists there is
// dispatchable, not just the editor itself.
func (d *Dispatcher) BinPath(name string) (string, error) {
	active, err := d.active.Active()
	if err != nil {
		return "", err
	}
	binDir := filepath.Join(active.InstallPath, "bin")
	bin := filepath.Join(binDir, platform.ExeName(name))
	if info, err := os.Stat(bin); err != nil || info.IsDir() {
		return "", &domain.BinaryMissingError{Name: name, Dir: binDir}
	}
	return bin, nil
}

// Dispatch derives the command name from how the proxy was invoked and
// replaces the current process with the resolved binary. It only returns
// on error.
func (d *Dispatcher) Dispatch(invoked string, args []string) error {
	name := platform.CommandName(invoked)
	bin, err := d.BinPath(name)
	if err != nil {
		return err
	}
	return Exec(bin, args)
}
