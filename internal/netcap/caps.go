// Package netcap defines the capability, bearer, and link-property value
// types shared by suppliers and connectivity requests. These are plain value
// types; all matching logic lives with the request tracker.
package netcap

import (
	"sort"
	"strings"
)

// Cap is a single network capability.
type Cap uint

// Capability values. The numeric gaps mirror the platform capability space so
// dumps stay comparable with agent-side logs.
const (
	CapMMS        Cap = 0
	CapSUPL       Cap = 1
	CapDUN        Cap = 2
	CapNotMetered Cap = 11
	CapInternet   Cap = 12
	CapNotVPN     Cap = 15
	CapValidated  Cap = 16
	CapPortal     Cap = 17

	capMax = 18
)

var capNames = map[Cap]string{
	CapMMS:        "MMS",
	CapSUPL:       "SUPL",
	CapDUN:        "DUN",
	CapNotMetered: "NOT_METERED",
	CapInternet:   "INTERNET",
	CapNotVPN:     "NOT_VPN",
	CapValidated:  "VALIDATED",
	CapPortal:     "CAPTIVE_PORTAL",
}

func (c Cap) String() string {
	if s, ok := capNames[c]; ok {
		return s
	}
	return "UNKNOWN"
}

// CapSet is an immutable capability set packed into a bitmask. The zero value
// is the empty set; With/Without return modified copies.
type CapSet uint64

// NewCapSet builds a set from individual capabilities.
func NewCapSet(caps ...Cap) CapSet {
	var s CapSet
	for _, c := range caps {
		s = s.With(c)
	}
	return s
}

func (s CapSet) Has(c Cap) bool       { return s&(1<<c) != 0 }
func (s CapSet) With(c Cap) CapSet    { return s | 1<<c }
func (s CapSet) Without(c Cap) CapSet { return s &^ (1 << c) }

// ContainsAll reports whether every capability in req is present in s.
func (s CapSet) ContainsAll(req CapSet) bool { return s&req == req }

// Empty reports whether the set holds no capabilities.
func (s CapSet) Empty() bool { return s == 0 }

// Slice returns the capabilities in ascending order.
func (s CapSet) Slice() []Cap {
	var out []Cap
	for c := Cap(0); c < capMax; c++ {
		if s.Has(c) {
			out = append(out, c)
		}
	}
	return out
}

func (s CapSet) String() string {
	caps := s.Slice()
	names := make([]string, 0, len(caps))
	for _, c := range caps {
		names = append(names, c.String())
	}
	sort.Strings(names)
	return strings.Join(names, "|")
}

// Bearer identifies the physical or logical medium a supplier represents.
type Bearer uint

const (
	BearerCellular Bearer = iota
	BearerWiFi
	BearerBluetooth
	BearerEthernet
	BearerVPN
	BearerWiFiAware
	BearerDistributed

	bearerCount
)

var bearerNames = [...]string{
	BearerCellular:    "cellular",
	BearerWiFi:        "wifi",
	BearerBluetooth:   "bluetooth",
	BearerEthernet:    "ethernet",
	BearerVPN:         "vpn",
	BearerWiFiAware:   "wifi-aware",
	BearerDistributed: "distributed",
}

func (b Bearer) String() string {
	if b < bearerCount {
		return bearerNames[b]
	}
	return "unknown"
}

// Valid reports whether b is a recognized bearer type.
func (b Bearer) Valid() bool { return b < bearerCount }

// Wireless reports whether the bearer is disabled by airplane mode.
func (b Bearer) Wireless() bool {
	return b == BearerCellular || b == BearerWiFi || b == BearerWiFiAware
}

// BearerSet is an immutable bearer-type set packed into a bitmask.
type BearerSet uint32

// NewBearerSet builds a set from individual bearers.
func NewBearerSet(bearers ...Bearer) BearerSet {
	var s BearerSet
	for _, b := range bearers {
		s = s.With(b)
	}
	return s
}

func (s BearerSet) Has(b Bearer) bool       { return s&(1<<b) != 0 }
func (s BearerSet) With(b Bearer) BearerSet { return s | 1<<b }
func (s BearerSet) Empty() bool             { return s == 0 }

// Slice returns the bearers in ascending order.
func (s BearerSet) Slice() []Bearer {
	var out []Bearer
	for b := Bearer(0); b < bearerCount; b++ {
		if s.Has(b) {
			out = append(out, b)
		}
	}
	return out
}

func (s BearerSet) String() string {
	bearers := s.Slice()
	names := make([]string, 0, len(bearers))
	for _, b := range bearers {
		names = append(names, b.String())
	}
	return strings.Join(names, "|")
}

// AllCapabilities is the full capability snapshot a supplier advertises:
// capability set, bearer set, and optional bandwidth figures in kbps.
type AllCapabilities struct {
	Caps         CapSet
	Bearers      BearerSet
	LinkUpKbps   uint32
	LinkDownKbps uint32
}

func (a AllCapabilities) String() string {
	var sb strings.Builder
	sb.WriteString("caps=")
	sb.WriteString(a.Caps.String())
	sb.WriteString(" bearers=")
	sb.WriteString(a.Bearers.String())
	return sb.String()
}
