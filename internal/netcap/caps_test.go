package netcap

import "testing"

func TestCapSetOps(t *testing.T) {
	s := NewCapSet(CapInternet, CapMMS)
	if !s.Has(CapInternet) || !s.Has(CapMMS) {
		t.Fatalf("expected INTERNET and MMS in %v", s)
	}
	if s.Has(CapSUPL) {
		t.Fatalf("SUPL should not be in %v", s)
	}

	s2 := s.Without(CapMMS)
	if s2.Has(CapMMS) {
		t.Fatalf("Without did not remove MMS: %v", s2)
	}
	if !s.Has(CapMMS) {
		t.Fatal("Without mutated the receiver")
	}

	if !s.ContainsAll(NewCapSet(CapInternet)) {
		t.Fatal("ContainsAll failed for subset")
	}
	if s.ContainsAll(NewCapSet(CapInternet, CapSUPL)) {
		t.Fatal("ContainsAll passed for non-subset")
	}
}

func TestCapSetSliceOrdered(t *testing.T) {
	s := NewCapSet(CapValidated, CapMMS, CapInternet)
	got := s.Slice()
	want := []Cap{CapMMS, CapInternet, CapValidated}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}

func TestBearerValidity(t *testing.T) {
	for b := Bearer(0); b < bearerCount; b++ {
		if !b.Valid() {
			t.Fatalf("bearer %d should be valid", b)
		}
	}
	if Bearer(bearerCount).Valid() {
		t.Fatal("out-of-range bearer reported valid")
	}
}

func TestBearerWireless(t *testing.T) {
	wireless := []Bearer{BearerCellular, BearerWiFi, BearerWiFiAware}
	for _, b := range wireless {
		if !b.Wireless() {
			t.Errorf("%v should be wireless", b)
		}
	}
	for _, b := range []Bearer{BearerEthernet, BearerVPN, BearerBluetooth} {
		if b.Wireless() {
			t.Errorf("%v should not be wireless", b)
		}
	}
}

func TestSpecifierMatchCaps(t *testing.T) {
	internetOnly := NewCapSet(CapInternet)
	mmsOnly := NewCapSet(CapMMS)

	// Empty requirement demands INTERNET.
	var anySpec Specifier
	if !anySpec.MatchCaps(internetOnly) {
		t.Fatal("empty specifier should match internet-capable supplier")
	}
	if anySpec.MatchCaps(mmsOnly) {
		t.Fatal("empty specifier should not match supplier without INTERNET")
	}

	mmsSpec := Specifier{Caps: NewCapSet(CapMMS)}
	if !mmsSpec.MatchCaps(NewCapSet(CapMMS, CapInternet)) {
		t.Fatal("MMS specifier should match supplier offering MMS")
	}
	if mmsSpec.MatchCaps(internetOnly) {
		t.Fatal("MMS specifier should not match internet-only supplier")
	}
}

func TestSpecifierMatchBearerAndIdent(t *testing.T) {
	spec := Specifier{
		Ident:   "carrier-1",
		Bearers: NewBearerSet(BearerCellular, BearerWiFi),
	}
	if !spec.MatchBearer(BearerCellular) || !spec.MatchBearer(BearerWiFi) {
		t.Fatal("listed bearers should match")
	}
	if spec.MatchBearer(BearerEthernet) {
		t.Fatal("unlisted bearer should not match")
	}
	if !spec.MatchIdent("carrier-1") {
		t.Fatal("same ident should match")
	}
	if !spec.MatchIdent("") {
		t.Fatal("empty supplier ident is a wildcard")
	}
	if spec.MatchIdent("carrier-2") {
		t.Fatal("different ident should not match")
	}

	var anySpec Specifier
	if !anySpec.MatchBearer(BearerVPN) || !anySpec.MatchIdent("whatever") {
		t.Fatal("zero specifier should accept any bearer and ident")
	}
}

func TestSpecifierMatchBandwidth(t *testing.T) {
	spec := Specifier{LinkUpKbps: 100, LinkDownKbps: 1000}
	if !spec.MatchBandwidth(100, 1000) {
		t.Fatal("exact bandwidth should pass")
	}
	if spec.MatchBandwidth(99, 5000) {
		t.Fatal("upstream below floor should fail")
	}
	var anySpec Specifier
	if !anySpec.MatchBandwidth(0, 0) {
		t.Fatal("unset floors should always pass")
	}
}
