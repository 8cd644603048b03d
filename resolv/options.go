package resolv

import (
	"net"
	"time"

	"github.com/dak664/nanoresolv/internal/errors"
	"github.com/dak664/nanoresolv/internal/protocol"
)

// Option is a functional option for configuring a Resolver.
//
// Example:
//
//	r, err := resolv.New(
//	    resolv.WithHostname("mydevice"),
//	    resolv.WithFamily(resolv.IPv6),
//	)
type Option func(*config) error

// config accumulates option values before New builds the Resolver. It
// mirrors the fields a Resolver needs at construction time; once built,
// the Resolver itself is the source of truth.
type config struct {
	family              protocol.AddressFamily
	server              net.IP
	hostname            string
	entries             int
	maxNameLen          int
	maxRetries          int
	maxMDNSRetries      int
	mdnsResponder       bool
	includeGlobalV6     bool
	ifaces              []net.Interface
	interfaceFilter     func(net.Interface) bool
	rateLimitEnabled    bool
	rateLimitThreshold  int
	rateLimitCooldown   time.Duration
}

func defaultConfig() *config {
	return &config{
		family:             protocol.IPv4,
		hostname:           "contiki",
		entries:            protocol.ResolvEntries,
		maxNameLen:         protocol.MaxDomainNameSize,
		maxRetries:         protocol.MaxRetries,
		maxMDNSRetries:     protocol.MaxMDNSRetries,
		mdnsResponder:      true,
		includeGlobalV6:    false,
		rateLimitEnabled:   true,
		rateLimitThreshold: 100,
		rateLimitCooldown:  60 * time.Second,
	}
}

// WithFamily selects IPv4 or IPv6 operation: which address record the
// query engine resolves and which record type the mDNS responder
// answers with. Default IPv4.
func WithFamily(family protocol.AddressFamily) Option {
	return func(c *config) error {
		c.family = family
		return nil
	}
}

// WithServer sets the upstream unicast DNS resolver. If omitted, the
// family's default (8.8.8.8 for IPv4, 2001:470:20::2 for IPv6) is used.
func WithServer(addr net.IP) Option {
	return func(c *config) error {
		if addr == nil {
			return &errors.ValidationError{
				Field:   "server",
				Message: "server address cannot be nil",
			}
		}
		c.server = addr
		return nil
	}
}

// WithHostname sets the local host name the mDNS responder answers
// questions for (without the ".local" suffix). Default "contiki".
func WithHostname(name string) Option {
	return func(c *config) error {
		if name == "" {
			return &errors.ValidationError{
				Field:   "hostname",
				Message: "hostname cannot be empty",
			}
		}
		c.hostname = name
		return nil
	}
}

// WithEntries sets the name table's slot capacity. Default 4.
func WithEntries(entries int) Option {
	return func(c *config) error {
		if entries <= 0 {
			return &errors.ValidationError{
				Field:   "entries",
				Value:   entries,
				Message: "entries must be greater than 0",
			}
		}
		c.entries = entries
		return nil
	}
}

// WithMaxDomainNameSize bounds the length of a name stored in a slot;
// longer names are truncated at store time. Default 32.
func WithMaxDomainNameSize(size int) Option {
	return func(c *config) error {
		if size <= 0 {
			return &errors.ValidationError{
				Field:   "maxDomainNameSize",
				Value:   size,
				Message: "maxDomainNameSize must be greater than 0",
			}
		}
		c.maxNameLen = size
		return nil
	}
}

// WithMaxRetries sets the unicast retransmit cap passed through to the
// query engine. Default 8.
func WithMaxRetries(n int) Option {
	return func(c *config) error {
		if n <= 0 {
			return &errors.ValidationError{
				Field:   "maxRetries",
				Value:   n,
				Message: "maxRetries must be greater than 0",
			}
		}
		c.maxRetries = n
		return nil
	}
}

// WithMaxMDNSRetries sets the mDNS retransmit cap passed through to the
// query engine. Default 3.
func WithMaxMDNSRetries(n int) Option {
	return func(c *config) error {
		if n <= 0 {
			return &errors.ValidationError{
				Field:   "maxMDNSRetries",
				Value:   n,
				Message: "maxMDNSRetries must be greater than 0",
			}
		}
		c.maxMDNSRetries = n
		return nil
	}
}

// WithMDNSResponder enables or disables answering inbound mDNS
// questions for the local host name. Default enabled.
func WithMDNSResponder(enabled bool) Option {
	return func(c *config) error {
		c.mdnsResponder = enabled
		return nil
	}
}

// WithIncludeGlobalV6Addrs includes global-unicast IPv6 addresses (not
// just link-local) in mDNS responses. Default off.
func WithIncludeGlobalV6Addrs(enabled bool) Option {
	return func(c *config) error {
		c.includeGlobalV6 = enabled
		return nil
	}
}

// WithInterfaces restricts the mDNS responder to the given interfaces,
// overriding the default selection (excludes loopback, VPN, and Docker
// interfaces). Returns an error if ifaces is empty.
func WithInterfaces(ifaces []net.Interface) Option {
	return func(c *config) error {
		if len(ifaces) == 0 {
			return &errors.ValidationError{
				Field:   "interfaces",
				Message: "interface list cannot be empty",
			}
		}
		c.ifaces = ifaces
		return nil
	}
}

// WithInterfaceFilter selects interfaces via a predicate instead of the
// default VPN/Docker/loopback exclusion list. Ignored if WithInterfaces
// is also given.
func WithInterfaceFilter(filter func(net.Interface) bool) Option {
	return func(c *config) error {
		if filter == nil {
			return &errors.ValidationError{
				Field:   "interfaceFilter",
				Message: "filter function cannot be nil",
			}
		}
		c.interfaceFilter = filter
		return nil
	}
}

// WithRateLimit enables or disables per-source-IP rate limiting of
// inbound mDNS questions. Default enabled.
func WithRateLimit(enabled bool) Option {
	return func(c *config) error {
		c.rateLimitEnabled = enabled
		return nil
	}
}

// WithRateLimitThreshold sets the query rate threshold (queries/second
// per source IP) before a source enters cooldown. Default 100.
func WithRateLimitThreshold(threshold int) Option {
	return func(c *config) error {
		if threshold <= 0 {
			return &errors.ValidationError{
				Field:   "rateLimitThreshold",
				Value:   threshold,
				Message: "threshold must be greater than 0",
			}
		}
		c.rateLimitThreshold = threshold
		return nil
	}
}

// WithRateLimitCooldown sets how long a source that exceeded the rate
// limit is dropped for. Default 60s.
func WithRateLimitCooldown(cooldown time.Duration) Option {
	return func(c *config) error {
		if cooldown <= 0 {
			return &errors.ValidationError{
				Field:   "rateLimitCooldown",
				Value:   cooldown,
				Message: "cooldown must be greater than 0",
			}
		}
		c.rateLimitCooldown = cooldown
		return nil
	}
}
