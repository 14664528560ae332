// Package network owns the runtime handle for one supplier's network: its
// id, the host-side programming derived from link updates, and the
// detection verdict the probe loop maintains.
package network

import (
	"fmt"
	"log"
	"sync"

	"github.com/arbiternet/arbiter/internal/netcap"
	"github.com/arbiternet/arbiter/internal/netsys"
)

// DetectState is the probe loop's verdict for a network.
type DetectState int

const (
	DetectIdle DetectState = iota
	DetectProbing
	DetectVerified
	DetectPortal
	DetectUnverified
)

func (s DetectState) String() string {
	switch s {
	case DetectProbing:
		return "probing"
	case DetectVerified:
		return "verified"
	case DetectPortal:
		return "portal"
	case DetectUnverified:
		return "unverified"
	default:
		return "idle"
	}
}

// Network is the runtime handle for one supplier's network. Link updates are
// applied as diffs against the previous snapshot so the host layer only sees
// what actually changed.
type Network struct {
	netID      int32
	supplierID uint32
	sys        netsys.Client
	log        *log.Logger

	mu      sync.Mutex
	created bool
	link    netcap.LinkInfo
	detect  DetectState
}

func New(netID int32, supplierID uint32, sys netsys.Client, logger *log.Logger) *Network {
	return &Network{
		netID:      netID,
		supplierID: supplierID,
		sys:        sys,
		log:        logger,
	}
}

func (n *Network) NetID() int32       { return n.netID }
func (n *Network) SupplierID() uint32 { return n.supplierID }

// IsCreated reports whether the physical network exists on the host side.
func (n *Network) IsCreated() bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.created
}

// LinkInfo returns a copy of the last applied link snapshot.
func (n *Network) LinkInfo() netcap.LinkInfo {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.link.Clone()
}

// DetectStatus returns the current probe verdict.
func (n *Network) DetectStatus() DetectState {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.detect
}

// SetDetectStatus records the probe verdict and reports whether it changed.
func (n *Network) SetDetectStatus(st DetectState) bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.detect == st {
		return false
	}
	n.detect = st
	return true
}

// Create brings the physical network into existence. Idempotent.
func (n *Network) Create() error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.created {
		return nil
	}
	if err := n.sys.NetworkCreatePhysical(n.netID); err != nil {
		return fmt.Errorf("create network %d: %w", n.netID, err)
	}
	n.created = true
	return nil
}

// Release tears the network down and forgets its link state. Idempotent.
func (n *Network) Release() error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if !n.created {
		return nil
	}
	if n.link.IfaceName != "" {
		if err := n.sys.NetworkRemoveInterface(n.netID, n.link.IfaceName); err != nil {
			n.log.Printf("network %d: remove interface %s: %v", n.netID, n.link.IfaceName, err)
		}
	}
	if err := n.sys.NetworkDestroy(n.netID); err != nil {
		return fmt.Errorf("destroy network %d: %w", n.netID, err)
	}
	n.created = false
	n.link = netcap.LinkInfo{}
	n.detect = DetectIdle
	return nil
}

// UpdateLink diffs the new snapshot against the previous one and programs
// only the delta: interface membership, addresses, routes, resolver, MTU.
// The network is created on demand if the supplier went available without
// an explicit create.
func (n *Network) UpdateLink(info netcap.LinkInfo) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if !n.created {
		if err := n.sys.NetworkCreatePhysical(n.netID); err != nil {
			return fmt.Errorf("create network %d: %w", n.netID, err)
		}
		n.created = true
	}
	old := n.link
	next := info.Clone()

	n.applyInterfaces(old, next)
	n.applyAddrs(old, next)
	n.applyRoutes(old, next)
	n.applyDNS(next)
	n.applyMTU(old, next)

	n.link = next
	return nil
}

func (n *Network) applyInterfaces(old, next netcap.LinkInfo) {
	if old.IfaceName == next.IfaceName {
		return
	}
	if old.IfaceName != "" {
		if err := n.sys.NetworkRemoveInterface(n.netID, old.IfaceName); err != nil {
			n.log.Printf("network %d: remove interface %s: %v", n.netID, old.IfaceName, err)
		}
	}
	if next.IfaceName != "" {
		if err := n.sys.NetworkAddInterface(n.netID, next.IfaceName); err != nil {
			n.log.Printf("network %d: add interface %s: %v", n.netID, next.IfaceName, err)
		}
	}
}

func (n *Network) applyAddrs(old, next netcap.LinkInfo) {
	for _, a := range old.Addrs {
		if !containsAddr(next.Addrs, a) {
			if err := n.sys.InterfaceDelAddress(old.IfaceName, a.IP, a.PrefixLen); err != nil {
				n.log.Printf("network %d: del address %s: %v", n.netID, a.IP, err)
			}
		}
	}
	for _, a := range next.Addrs {
		if !containsAddr(old.Addrs, a) {
			if err := n.sys.InterfaceAddAddress(next.IfaceName, a.IP, a.PrefixLen); err != nil {
				n.log.Printf("network %d: add address %s: %v", n.netID, a.IP, err)
			}
		}
	}
}

func (n *Network) applyRoutes(old, next netcap.LinkInfo) {
	for _, r := range old.Routes {
		if !containsRoute(next.Routes, r) {
			if err := n.sys.NetworkRemoveRoute(n.netID, r.Iface, r.Dest, r.Gateway); err != nil {
				n.log.Printf("network %d: remove route %s: %v", n.netID, r.Dest, err)
			}
		}
	}
	for _, r := range next.Routes {
		if !containsRoute(old.Routes, r) {
			if err := n.sys.NetworkAddRoute(n.netID, r.Iface, r.Dest, r.Gateway); err != nil {
				n.log.Printf("network %d: add route %s: %v", n.netID, r.Dest, err)
			}
		}
	}
}

func (n *Network) applyDNS(next netcap.LinkInfo) {
	servers := make([]string, 0, len(next.DNS))
	for _, d := range next.DNS {
		servers = append(servers, d.IP.String())
	}
	if err := n.sys.SetResolverConfig(n.netID, next.Domain, servers); err != nil {
		n.log.Printf("network %d: set resolver: %v", n.netID, err)
	}
}

func (n *Network) applyMTU(old, next netcap.LinkInfo) {
	if next.MTU == 0 || next.MTU == old.MTU || next.IfaceName == "" {
		return
	}
	if err := n.sys.InterfaceSetMTU(next.IfaceName, next.MTU); err != nil {
		n.log.Printf("network %d: set mtu %d: %v", n.netID, next.MTU, err)
	}
}

func containsAddr(list []netcap.Addr, a netcap.Addr) bool {
	for _, x := range list {
		if x.IP == a.IP && x.PrefixLen == a.PrefixLen {
			return true
		}
	}
	return false
}

func containsRoute(list []netcap.Route, r netcap.Route) bool {
	for _, x := range list {
		if x.Iface == r.Iface && x.Dest == r.Dest && x.Gateway == r.Gateway {
			return true
		}
	}
	return false
}
