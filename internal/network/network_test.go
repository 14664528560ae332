package network

import (
	"io"
	"log"
	"net/netip"
	"testing"

	"github.com/arbiternet/arbiter/internal/netcap"
	"github.com/arbiternet/arbiter/internal/testutil"
)

func addr(s string, plen int) netcap.Addr {
	return netcap.Addr{IP: netip.MustParseAddr(s), PrefixLen: plen}
}

func route(iface, dest, gw string) netcap.Route {
	return netcap.Route{
		Iface:   iface,
		Dest:    netip.MustParsePrefix(dest),
		Gateway: netip.MustParseAddr(gw),
	}
}

func testNetwork(sys *testutil.FakeNetsys) *Network {
	return New(100, 1, sys, log.New(io.Discard, "", 0))
}

func TestIDPoolWalksForward(t *testing.T) {
	p := NewIDPool()
	a, err := p.Acquire()
	if err != nil || a != MinNetID {
		t.Fatalf("first grant: got (%d,%v) want (%d,nil)", a, err, MinNetID)
	}
	b, _ := p.Acquire()
	if b != MinNetID+1 {
		t.Fatalf("second grant: got %d want %d", b, MinNetID+1)
	}
	// Released ids are not reused until the cursor wraps around.
	p.Release(a)
	c, _ := p.Acquire()
	if c == a {
		t.Fatal("released id reused immediately")
	}
	if !p.InUse(b) || p.InUse(a) {
		t.Fatal("in-use tracking wrong after release")
	}
}

func TestIDPoolInternalRange(t *testing.T) {
	p := NewIDPool()
	id, err := p.AcquireInternal()
	if err != nil {
		t.Fatalf("AcquireInternal: %v", err)
	}
	if id < MinInternalNetID || id > MaxInternalNetID {
		t.Fatalf("internal id %d outside reserved range", id)
	}
	ord, _ := p.Acquire()
	if ord < MinNetID {
		t.Fatalf("ordinary id %d leaked into internal range", ord)
	}
}

func TestIDPoolExhaustion(t *testing.T) {
	p := NewIDPool()
	span := int(MaxInternalNetID - MinInternalNetID + 1)
	for i := 0; i < span; i++ {
		if _, err := p.AcquireInternal(); err != nil {
			t.Fatalf("grant %d: %v", i, err)
		}
	}
	if _, err := p.AcquireInternal(); err != ErrNetIDExhausted {
		t.Fatalf("expected exhaustion, got %v", err)
	}
}

func TestCreateIdempotent(t *testing.T) {
	sys := testutil.NewFakeNetsys()
	n := testNetwork(sys)
	if err := n.Create(); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := n.Create(); err != nil {
		t.Fatalf("second Create: %v", err)
	}
	if got := len(sys.Ops()); got != 1 {
		t.Fatalf("create programmed %d times, want 1", got)
	}
}

func TestUpdateLinkProgramsFullSnapshot(t *testing.T) {
	sys := testutil.NewFakeNetsys()
	n := testNetwork(sys)
	info := netcap.LinkInfo{
		IfaceName: "wlan0",
		Addrs:     []netcap.Addr{addr("192.168.1.5", 24)},
		DNS:       []netcap.Addr{addr("8.8.8.8", 32)},
		Routes:    []netcap.Route{route("wlan0", "0.0.0.0/0", "192.168.1.1")},
		MTU:       1500,
	}
	if err := n.UpdateLink(info); err != nil {
		t.Fatalf("UpdateLink: %v", err)
	}
	for _, want := range []string{
		"create 100",
		"addiface 100 wlan0",
		"addaddr wlan0 192.168.1.5/24",
		"addroute 100 wlan0 0.0.0.0/0 192.168.1.1",
		"mtu wlan0 1500",
	} {
		if !sys.Contains(want) {
			t.Fatalf("missing op %q in %v", want, sys.Ops())
		}
	}
}

func TestUpdateLinkProgramsOnlyDelta(t *testing.T) {
	sys := testutil.NewFakeNetsys()
	n := testNetwork(sys)
	base := netcap.LinkInfo{
		IfaceName: "wlan0",
		Addrs:     []netcap.Addr{addr("192.168.1.5", 24)},
		Routes:    []netcap.Route{route("wlan0", "0.0.0.0/0", "192.168.1.1")},
		MTU:       1500,
	}
	if err := n.UpdateLink(base); err != nil {
		t.Fatalf("UpdateLink: %v", err)
	}
	sys.Reset()

	next := base.Clone()
	next.Addrs = []netcap.Addr{addr("192.168.1.9", 24)}
	if err := n.UpdateLink(next); err != nil {
		t.Fatalf("UpdateLink delta: %v", err)
	}
	if !sys.Contains("deladdr wlan0 192.168.1.5/24") || !sys.Contains("addaddr wlan0 192.168.1.9/24") {
		t.Fatalf("address delta not programmed: %v", sys.Ops())
	}
	for _, op := range sys.Ops() {
		if op == "addiface 100 wlan0" || op == "addroute 100 wlan0 0.0.0.0/0 192.168.1.1" || op == "mtu wlan0 1500" {
			t.Fatalf("unchanged state reprogrammed: %s", op)
		}
	}
}

func TestUpdateLinkInterfaceSwap(t *testing.T) {
	sys := testutil.NewFakeNetsys()
	n := testNetwork(sys)
	if err := n.UpdateLink(netcap.LinkInfo{IfaceName: "wlan0"}); err != nil {
		t.Fatalf("UpdateLink: %v", err)
	}
	sys.Reset()
	if err := n.UpdateLink(netcap.LinkInfo{IfaceName: "wlan1"}); err != nil {
		t.Fatalf("UpdateLink swap: %v", err)
	}
	if !sys.Contains("rmiface 100 wlan0") || !sys.Contains("addiface 100 wlan1") {
		t.Fatalf("interface swap not programmed: %v", sys.Ops())
	}
}

func TestReleaseTearsDownAndResets(t *testing.T) {
	sys := testutil.NewFakeNetsys()
	n := testNetwork(sys)
	if err := n.UpdateLink(netcap.LinkInfo{IfaceName: "eth0"}); err != nil {
		t.Fatalf("UpdateLink: %v", err)
	}
	n.SetDetectStatus(DetectVerified)
	if err := n.Release(); err != nil {
		t.Fatalf("Release: %v", err)
	}
	if !sys.Contains("rmiface 100 eth0") || !sys.Contains("destroy 100") {
		t.Fatalf("teardown ops missing: %v", sys.Ops())
	}
	if n.IsCreated() || !n.LinkInfo().Empty() || n.DetectStatus() != DetectIdle {
		t.Fatal("release did not reset state")
	}
	if err := n.Release(); err != nil {
		t.Fatalf("second Release: %v", err)
	}
}

func TestSetDetectStatusReportsChange(t *testing.T) {
	sys := testutil.NewFakeNetsys()
	n := testNetwork(sys)
	if !n.SetDetectStatus(DetectProbing) {
		t.Fatal("first transition not reported")
	}
	if n.SetDetectStatus(DetectProbing) {
		t.Fatal("no-op transition reported as change")
	}
	if !n.SetDetectStatus(DetectVerified) {
		t.Fatal("verified transition not reported")
	}
}
