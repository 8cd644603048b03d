// Package network selects which interfaces and addresses the mDNS
// responder listens and replies on.
package network

import (
	"net"
)

// DefaultInterfaces returns interfaces suitable for mDNS multicast: up,
// multicast-capable, non-loopback, and not a VPN or container interface.
// Callers wanting different behavior supply their own interface list
// instead of calling this.
func DefaultInterfaces() ([]net.Interface, error) {
	allIfaces, err := net.Interfaces()
	if err != nil {
		return nil, err
	}

	filtered := make([]net.Interface, 0, len(allIfaces))
	for _, iface := range allIfaces {
		if iface.Flags&net.FlagUp == 0 {
			continue
		}
		if iface.Flags&net.FlagMulticast == 0 {
			continue
		}
		if iface.Flags&net.FlagLoopback != 0 {
			continue
		}
		if isVPN(iface.Name) {
			continue
		}
		if isDocker(iface.Name) {
			continue
		}
		filtered = append(filtered, iface)
	}

	return filtered, nil
}

// isVPN reports whether name matches a common VPN interface naming
// pattern (utun/tun, ppp, WireGuard, Tailscale).
func isVPN(name string) bool {
	vpnPrefixes := []string{"utun", "tun", "ppp", "wg", "tailscale", "wireguard"}
	for _, prefix := range vpnPrefixes {
		if len(name) >= len(prefix) && name[:len(prefix)] == prefix {
			return true
		}
	}
	return false
}

// isDocker reports whether name matches a Docker-managed interface.
func isDocker(name string) bool {
	if name == "docker0" {
		return true
	}
	dockerPrefixes := []string{"veth", "br-"}
	for _, prefix := range dockerPrefixes {
		if len(name) >= len(prefix) && name[:len(prefix)] == prefix {
			return true
		}
	}
	return false
}

// LocalAddresses collects the addresses the mDNS responder should
// answer A/AAAA questions with: every IPv4 address, every link-local
// IPv6 address, and (only when includeGlobalV6 is set) every global
// unicast IPv6 address, gathered across ifaces.
func LocalAddresses(ifaces []net.Interface, includeGlobalV6 bool) ([]net.IP, error) {
	var addrs []net.IP
	for _, iface := range ifaces {
		ifaceAddrs, err := iface.Addrs()
		if err != nil {
			return nil, err
		}
		for _, a := range ifaceAddrs {
			ip := addrIP(a)
			if ip == nil {
				continue
			}
			switch {
			case ip.To4() != nil:
				addrs = append(addrs, ip)
			case ip.IsLinkLocalUnicast():
				addrs = append(addrs, ip)
			case includeGlobalV6 && ip.IsGlobalUnicast():
				addrs = append(addrs, ip)
			}
		}
	}
	return addrs, nil
}

func addrIP(a net.Addr) net.IP {
	switch v := a.(type) {
	case *net.IPNet:
		return v.IP
	case *net.IPAddr:
		return v.IP
	default:
		return nil
	}
}
