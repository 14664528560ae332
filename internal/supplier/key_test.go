package supplier

import (
	"testing"

	"github.com/arbiternet/arbiter/internal/netcap"
)

func TestKeyOfStable(t *testing.T) {
	caps := netcap.NewCapSet(netcap.CapInternet)
	a := KeyOf(netcap.BearerWiFi, "wlan0", caps)
	b := KeyOf(netcap.BearerWiFi, "wlan0", caps)
	if a != b {
		t.Fatalf("same inputs hashed differently: %s vs %s", a, b)
	}
	if a == ZeroKey {
		t.Fatal("key collides with zero value")
	}
}

func TestKeyOfDiscriminates(t *testing.T) {
	caps := netcap.NewCapSet(netcap.CapInternet)
	base := KeyOf(netcap.BearerWiFi, "wlan0", caps)
	if KeyOf(netcap.BearerCellular, "wlan0", caps) == base {
		t.Fatal("bearer not part of identity")
	}
	if KeyOf(netcap.BearerWiFi, "wlan1", caps) == base {
		t.Fatal("ident not part of identity")
	}
	if KeyOf(netcap.BearerWiFi, "wlan0", caps.With(netcap.CapMMS)) == base {
		t.Fatal("caps not part of identity")
	}
}
