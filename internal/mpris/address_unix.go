//go:build unix

package mpris

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// SessionBusAddress returns DBUS_SESSION_BUS_ADDRESS, falling back to the
// systemd user bus socket for the current uid. Daemons started outside a
// desktop session (systemd user units, ssh) often lack the variable.
func SessionBusAddress() string {
	if addr := os.Getenv("DBUS_SESSION_BUS_ADDRESS"); addr != "" {
		return addr
	}
	return fmt.Sprintf("unix:path=/run/user/%d/bus", unix.Getuid())
}
