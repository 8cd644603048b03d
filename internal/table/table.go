// Package table implements the fixed-capacity name table: one slot per
// pending or resolved lookup, states UNUSED/NEW/ASKING/DONE/ERROR, LRU
// eviction by a wraparound-tolerant sequence number.
package table

import (
	"net"
	"regexp"
	"strconv"
	"strings"

	"github.com/dak664/nanoresolv/internal/protocol"
)

// State is a slot's position in its lifecycle.
type State int

const (
	StateUnused State = iota
	StateNew
	StateAsking
	StateDone
	StateError
)

func (s State) String() string {
	switch s {
	case StateUnused:
		return "UNUSED"
	case StateNew:
		return "NEW"
	case StateAsking:
		return "ASKING"
	case StateDone:
		return "DONE"
	case StateError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// Slot is one row of the name table.
type Slot struct {
	State State

	// Name is the canonical (no trailing dot) host name this slot tracks.
	Name string

	// Addr is the resolved address. Meaningful only when State == StateDone.
	Addr net.IP

	// Tmr counts down ticks until the next retransmit.
	Tmr int

	// Retries counts retransmissions issued for this slot.
	Retries int

	// Seqno is the table-wide counter value stamped when this slot was
	// (re)claimed, used to find the least-recently-touched slot.
	Seqno uint8

	// Err holds the low nibble of the last rcode seen, when State == StateError.
	Err uint8

	// IsMDNS is true when this slot's name ends in ".local" and so is
	// queried over the mDNS multicast group instead of the unicast server.
	IsMDNS bool
}

// Table is the fixed-capacity name table.
type Table struct {
	slots       []Slot
	seqnoGlobal uint8
	maxNameLen  int
}

// New constructs a Table with the given slot capacity and maximum stored
// name length (names longer than this are truncated at store time).
func New(capacity, maxNameLen int) *Table {
	return &Table{
		slots:      make([]Slot, capacity),
		maxNameLen: maxNameLen,
	}
}

// Len returns the table's slot capacity.
func (t *Table) Len() int {
	return len(t.slots)
}

// Slot returns a pointer to the slot at index i. The caller must treat
// index as having come from FindOrEvict or protocol.DecodeTxnID.
func (t *Table) Slot(i int) *Slot {
	if i < 0 || i >= len(t.slots) {
		return nil
	}
	return &t.slots[i]
}

// canonicalize strips a trailing dot and truncates to the table's maximum
// stored name length, mirroring the original's strncpy-style store
// without its missing-terminator bug: Go strings need no terminator, so
// a length-bounded copy is the entire fix.
func (t *Table) canonicalize(name string) string {
	name = strings.TrimSuffix(name, ".")
	if len(name) > t.maxNameLen {
		name = name[:t.maxNameLen]
	}
	return name
}

// FindOrEvict selects a slot for name: the first slot, in index order,
// that is either UNUSED or already holds the canonical name, or otherwise
// the slot with the oldest seqno under modular (wraparound-tolerant)
// uint8 comparison. It stamps the slot with name, State = StateNew, and a
// fresh seqno, and reports whether an existing occupant was evicted (as
// opposed to reused by name match or claimed while UNUSED).
func (t *Table) FindOrEvict(name string) (index int, evictedName string, evicted bool) {
	name = t.canonicalize(name)

	for i := range t.slots {
		if t.slots[i].State == StateUnused || t.slots[i].Name == name {
			t.claim(i, name)
			return i, "", false
		}
	}

	victim := 0
	oldest := uint8(0)
	for i := range t.slots {
		age := t.seqnoGlobal - t.slots[i].Seqno
		if i == 0 || age > oldest {
			oldest = age
			victim = i
		}
	}

	evictedName = t.slots[victim].Name
	t.claim(victim, name)
	return victim, evictedName, true
}

func (t *Table) claim(index int, name string) {
	t.slots[index] = Slot{
		State:  StateNew,
		Name:   name,
		Seqno:  t.seqnoGlobal,
		IsMDNS: strings.HasSuffix(strings.ToLower(name), protocol.LocalDomainSuffix),
	}
	t.seqnoGlobal++
}

// FindDone scans for a StateDone slot whose name matches (case-sensitive,
// as the original's resolv_lookup does) and returns its address.
func (t *Table) FindDone(name string) (net.IP, bool) {
	name = t.canonicalize(name)
	for i := range t.slots {
		if t.slots[i].State == StateDone && t.slots[i].Name == name {
			return t.slots[i].Addr, true
		}
	}
	return nil, false
}

// renameSuffix matches a trailing "-N" suffix for RenameHostname.
var renameSuffix = regexp.MustCompile(`^(.+)-(\d+)$`)

// RenameHostname appends "-2" to hostname, or increments an existing "-N"
// suffix, truncating the base name (never the suffix) to fit within
// maxLen bytes. Adapted from the teacher's Service.Rename/truncateToFit,
// used here to resolve an mDNS hostname collision instead of a service
// instance name collision.
func RenameHostname(hostname string, maxLen int) string {
	var renamed string
	if matches := renameSuffix.FindStringSubmatch(hostname); matches != nil {
		base := matches[1]
		suffix, _ := strconv.Atoi(matches[2])
		renamed = base + "-" + strconv.Itoa(suffix+1)
	} else {
		renamed = hostname + "-2"
	}
	return truncateToFit(renamed, maxLen)
}

// truncateToFit shortens name to maxLen bytes, preserving a trailing
// "-N" suffix by trimming the base name instead.
func truncateToFit(name string, maxLen int) string {
	if len(name) <= maxLen {
		return name
	}

	if matches := renameSuffix.FindStringSubmatch(name); matches != nil {
		base := matches[1]
		suffix := "-" + matches[2]
		maxBaseLen := maxLen - len(suffix)
		if maxBaseLen < 1 {
			return name[:maxLen]
		}
		return base[:maxBaseLen] + suffix
	}

	return name[:maxLen]
}
