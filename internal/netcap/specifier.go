package netcap

// Specifier declares what a connectivity request demands: an optional carrier
// or interface identity, required capabilities, acceptable bearers, and
// minimum bandwidth. The zero value (no ident, empty sets) is the "any
// internet-capable network" specifier used by the default request.
type Specifier struct {
	Ident        string
	Caps         CapSet
	Bearers      BearerSet
	LinkUpKbps   uint32
	LinkDownKbps uint32
}

// MatchCaps reports whether a supplier advertising caps satisfies the
// required capability set. An empty requirement falls back to demanding
// INTERNET, so a bare specifier never matches capability-less suppliers.
func (s *Specifier) MatchCaps(caps CapSet) bool {
	if s.Caps.Empty() {
		return caps.Has(CapInternet)
	}
	return caps.ContainsAll(s.Caps)
}

// MatchBearer reports whether the supplier's bearer is acceptable.
// An empty bearer set accepts any bearer.
func (s *Specifier) MatchBearer(b Bearer) bool {
	return s.Bearers.Empty() || s.Bearers.Has(b)
}

// MatchIdent reports whether the supplier's identity string is acceptable.
// Either side being empty is a wildcard.
func (s *Specifier) MatchIdent(ident string) bool {
	return s.Ident == "" || ident == "" || s.Ident == ident
}

// MatchBandwidth reports whether the advertised bandwidth meets the
// specifier's floor. Unset floors (zero) always pass.
func (s *Specifier) MatchBandwidth(upKbps, downKbps uint32) bool {
	return upKbps >= s.LinkUpKbps && downKbps >= s.LinkDownKbps
}
