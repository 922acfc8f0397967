//go:build !unix

package mpris

import "os"

// SessionBusAddress returns DBUS_SESSION_BUS_ADDRESS.
func SessionBusAddress() string {
	return os.Getenv("DBUS_SESSION_BUS_ADDRESS")
}
