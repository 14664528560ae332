// Package netsys is the boundary to the host networking layer. The engine
// programs interfaces, addresses, routes, and resolver state through this
// interface and never touches the platform directly, so tests and
// non-privileged deployments can substitute their own implementation.
package netsys

import (
	"log"
	"net/netip"
)

// Client is the set of host-side operations the engine needs. Implementations
// must be safe for concurrent use; calls for distinct networks may overlap.
type Client interface {
	NetworkCreatePhysical(netID int32) error
	NetworkDestroy(netID int32) error

	NetworkAddInterface(netID int32, iface string) error
	NetworkRemoveInterface(netID int32, iface string) error

	InterfaceAddAddress(iface string, addr netip.Addr, prefixLen int) error
	InterfaceDelAddress(iface string, addr netip.Addr, prefixLen int) error
	InterfaceSetMTU(iface string, mtu int) error

	NetworkAddRoute(netID int32, iface string, dest netip.Prefix, gateway netip.Addr) error
	NetworkRemoveRoute(netID int32, iface string, dest netip.Prefix, gateway netip.Addr) error

	SetResolverConfig(netID int32, domain string, servers []string) error

	SetDefaultNetwork(netID int32) error
	ClearDefaultNetwork() error

	BindSocketToNetwork(fd int, netID int32) error
	CloseSocketsForUid(netID int32, uid uint32) error
}

// LogClient is a Client that records every call through a logger and always
// succeeds. It is the default when no platform integration is wired up.
type LogClient struct {
	Log *log.Logger
}

var _ Client = (*LogClient)(nil)

func (c *LogClient) NetworkCreatePhysical(netID int32) error {
	c.Log.Printf("netsys: create physical network %d", netID)
	return nil
}

func (c *LogClient) NetworkDestroy(netID int32) error {
	c.Log.Printf("netsys: destroy network %d", netID)
	return nil
}

func (c *LogClient) NetworkAddInterface(netID int32, iface string) error {
	c.Log.Printf("netsys: network %d add interface %s", netID, iface)
	return nil
}

func (c *LogClient) NetworkRemoveInterface(netID int32, iface string) error {
	c.Log.Printf("netsys: network %d remove interface %s", netID, iface)
	return nil
}

func (c *LogClient) InterfaceAddAddress(iface string, addr netip.Addr, prefixLen int) error {
	c.Log.Printf("netsys: %s add address %s/%d", iface, addr, prefixLen)
	return nil
}

func (c *LogClient) InterfaceDelAddress(iface string, addr netip.Addr, prefixLen int) error {
	c.Log.Printf("netsys: %s del address %s/%d", iface, addr, prefixLen)
	return nil
}

func (c *LogClient) InterfaceSetMTU(iface string, mtu int) error {
	c.Log.Printf("netsys: %s set mtu %d", iface, mtu)
	return nil
}

func (c *LogClient) NetworkAddRoute(netID int32, iface string, dest netip.Prefix, gateway netip.Addr) error {
	c.Log.Printf("netsys: network %d add route %s via %s dev %s", netID, dest, gateway, iface)
	return nil
}

func (c *LogClient) NetworkRemoveRoute(netID int32, iface string, dest netip.Prefix, gateway netip.Addr) error {
	c.Log.Printf("netsys: network %d remove route %s via %s dev %s", netID, dest, gateway, iface)
	return nil
}

func (c *LogClient) SetResolverConfig(netID int32, domain string, servers []string) error {
	c.Log.Printf("netsys: network %d resolver domain=%q servers=%v", netID, domain, servers)
	return nil
}

func (c *LogClient) SetDefaultNetwork(netID int32) error {
	c.Log.Printf("netsys: set default network %d", netID)
	return nil
}

func (c *LogClient) ClearDefaultNetwork() error {
	c.Log.Print("netsys: clear default network")
	return nil
}

func (c *LogClient) BindSocketToNetwork(fd int, netID int32) error {
	c.Log.Printf("netsys: bind socket %d to network %d", fd, netID)
	return nil
}

func (c *LogClient) CloseSocketsForUid(netID int32, uid uint32) error {
	c.Log.Printf("netsys: close sockets of uid %d on network %d", uid, netID)
	return nil
}
