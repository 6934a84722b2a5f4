package radio

import (
	"errors"
	"net"
)

// ErrOffline is returned when no network interface is up.
var ErrOffline = errors.New("no network connection")

// Probe reports whether the host has network connectivity.
type Probe func() bool

// InterfacesUp is the default Probe: true when any non-loopback interface
// is up.
func InterfacesUp() bool {
	ifaces, err := net.Interfaces()
	if err != nil {
		// Unknown; let the connection attempt decide.
		return true
	}
	for _, iface := range ifaces {
		if iface.Flags&net.FlagUp != 0 && iface.Flags&net.FlagLoopback == 0 {
			return true
		}
	}
	return false
}

// CheckOnline returns ErrOffline when probe reports no connectivity.
// A nil probe always passes.
func CheckOnline(probe Probe) error {
	if probe == nil || probe() {
		return nil
	}
	return ErrOffline
}
