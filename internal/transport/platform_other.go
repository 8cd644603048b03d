//go:build !linux && !darwin && !windows

package transport

import "syscall"

// platformControl is a no-op on platforms without a dedicated
// SO_REUSEADDR/SO_REUSEPORT implementation here. The socket still
// binds; it just won't coexist with another mDNS responder on the
// same port.
func platformControl(_, _ string, _ syscall.RawConn) error {
	return nil
}
