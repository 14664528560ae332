// Package testutil holds shared fakes for engine tests.
package testutil

import (
	"fmt"
	"net/netip"
	"sync"
)

// FakeNetsys implements netsys.Client, recording each call as a formatted
// op string. Tests assert on the op log or inject failures per op name.
type FakeNetsys struct {
	mu   sync.Mutex
	ops  []string
	fail map[string]error
}

func NewFakeNetsys() *FakeNetsys {
	return &FakeNetsys{fail: make(map[string]error)}
}

// FailWith makes every future call of the named op (e.g. "AddRoute") return err.
func (f *FakeNetsys) FailWith(op string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fail[op] = err
}

// Ops returns a copy of the recorded op log.
func (f *FakeNetsys) Ops() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.ops...)
}

// Reset clears the op log.
func (f *FakeNetsys) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ops = f.ops[:0]
}

// Contains reports whether any recorded op equals s.
func (f *FakeNetsys) Contains(s string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, op := range f.ops {
		if op == s {
			return true
		}
	}
	return false
}

func (f *FakeNetsys) record(op string, format string, args ...any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail[op]; err != nil {
		return err
	}
	f.ops = append(f.ops, fmt.Sprintf(format, args...))
	return nil
}

func (f *FakeNetsys) NetworkCreatePhysical(netID int32) error {
	return f.record("CreatePhysical", "create %d", netID)
}

func (f *FakeNetsys) NetworkDestroy(netID int32) error {
	return f.record("Destroy", "destroy %d", netID)
}

func (f *FakeNetsys) NetworkAddInterface(netID int32, iface string) error {
	return f.record("AddInterface", "addiface %d %s", netID, iface)
}

func (f *FakeNetsys) NetworkRemoveInterface(netID int32, iface string) error {
	return f.record("RemoveInterface", "rmiface %d %s", netID, iface)
}

func (f *FakeNetsys) InterfaceAddAddress(iface string, addr netip.Addr, prefixLen int) error {
	return f.record("AddAddress", "addaddr %s %s/%d", iface, addr, prefixLen)
}

func (f *FakeNetsys) InterfaceDelAddress(iface string, addr netip.Addr, prefixLen int) error {
	return f.record("DelAddress", "deladdr %s %s/%d", iface, addr, prefixLen)
}

func (f *FakeNetsys) InterfaceSetMTU(iface string, mtu int) error {
	return f.record("SetMTU", "mtu %s %d", iface, mtu)
}

func (f *FakeNetsys) NetworkAddRoute(netID int32, iface string, dest netip.Prefix, gateway netip.Addr) error {
	return f.record("AddRoute", "addroute %d %s %s %s", netID, iface, dest, gateway)
}

func (f *FakeNetsys) NetworkRemoveRoute(netID int32, iface string, dest netip.Prefix, gateway netip.Addr) error {
	return f.record("RemoveRoute", "rmroute %d %s %s %s", netID, iface, dest, gateway)
}

func (f *FakeNetsys) SetResolverConfig(netID int32, domain string, servers []string) error {
	return f.record("SetResolver", "resolver %d %q %v", netID, domain, servers)
}

func (f *FakeNetsys) SetDefaultNetwork(netID int32) error {
	return f.record("SetDefault", "setdefault %d", netID)
}

func (f *FakeNetsys) ClearDefaultNetwork() error {
	return f.record("ClearDefault", "cleardefault")
}

func (f *FakeNetsys) BindSocketToNetwork(fd int, netID int32) error {
	return f.record("BindSocket", "bind %d %d", fd, netID)
}

func (f *FakeNetsys) CloseSocketsForUid(netID int32, uid uint32) error {
	return f.record("CloseSockets", "closesockets %d %d", netID, uid)
}
