package netcap

import (
	"net/netip"
	"strings"
)

// Addr is one interface address with its prefix length. HostName carries the
// resolver domain for DNS entries and is empty for interface addresses.
type Addr struct {
	IP        netip.Addr
	PrefixLen int
	HostName  string
}

// Route is one kernel route owned by a network.
type Route struct {
	Iface   string
	Dest    netip.Prefix
	Gateway netip.Addr
}

// LinkInfo is the link-layer properties a supplier reports for its network:
// interface name, addresses, routes, DNS servers, and MTU. It is copied by
// value into the Network that owns it.
type LinkInfo struct {
	IfaceName string
	Domain    string
	Addrs     []Addr
	Routes    []Route
	DNS       []Addr
	MTU       int
}

// Empty reports whether the link info carries no interface at all.
func (l LinkInfo) Empty() bool {
	return l.IfaceName == "" && len(l.Addrs) == 0 && len(l.Routes) == 0
}

// Clone returns a deep copy so callers can hold a snapshot across handler
// turns without aliasing the registry's slices.
func (l LinkInfo) Clone() LinkInfo {
	out := LinkInfo{
		IfaceName: l.IfaceName,
		Domain:    l.Domain,
		MTU:       l.MTU,
	}
	out.Addrs = append([]Addr(nil), l.Addrs...)
	out.Routes = append([]Route(nil), l.Routes...)
	out.DNS = append([]Addr(nil), l.DNS...)
	return out
}

func (l LinkInfo) String() string {
	var sb strings.Builder
	sb.WriteString("iface=")
	sb.WriteString(l.IfaceName)
	sb.WriteString(" addrs=[")
	for i, a := range l.Addrs {
		if i > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteString(a.IP.String())
	}
	sb.WriteString("]")
	return sb.String()
}
