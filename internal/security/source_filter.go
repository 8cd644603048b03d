package security

import (
	"net"
)

// SourceFilter validates a packet's source address before it is parsed,
// rejecting anything outside mDNS's link-local scope (RFC 6762 §2):
// neither IPv4 nor IPv6 link-local, nor on the receiving interface's
// own subnet.
type SourceFilter struct {
	iface      net.Interface
	ifaceAddrs []net.IPNet
}

// NewSourceFilter builds a filter for packets arriving on iface, caching
// its addresses so IsValid avoids a syscall per packet.
func NewSourceFilter(iface net.Interface) (*SourceFilter, error) {
	addrs, err := iface.Addrs()
	if err != nil {
		return &SourceFilter{iface: iface, ifaceAddrs: []net.IPNet{}}, nil
	}

	var ipnets []net.IPNet
	for _, addr := range addrs {
		if ipnet, ok := addr.(*net.IPNet); ok {
			ipnets = append(ipnets, *ipnet)
		}
	}

	return &SourceFilter{iface: iface, ifaceAddrs: ipnets}, nil
}

// IsValid reports whether srcIP is an acceptable mDNS source: IPv4 or
// IPv6 link-local, or within one of the receiving interface's subnets.
func (sf *SourceFilter) IsValid(srcIP net.IP) bool {
	if srcIP.IsLinkLocalUnicast() {
		return true
	}

	for _, ipnet := range sf.ifaceAddrs {
		if ipnet.Contains(srcIP) {
			return true
		}
	}

	return false
}

// isPrivate reports whether ip falls in an RFC 1918 private IPv4 range.
func isPrivate(ip net.IP) bool {
	ip4 := ip.To4()
	if ip4 == nil {
		return false
	}
	if ip4[0] == 10 {
		return true
	}
	if ip4[0] == 172 && ip4[1] >= 16 && ip4[1] <= 31 {
		return true
	}
	if ip4[0] == 192 && ip4[1] == 168 {
		return true
	}
	return false
}
