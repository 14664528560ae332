package conn

import (
	"github.com/arbiternet/arbiter/internal/model"
	"github.com/arbiternet/arbiter/internal/netcap"
	"github.com/arbiternet/arbiter/internal/network"
	"github.com/arbiternet/arbiter/internal/request"
	"github.com/arbiternet/arbiter/internal/supplier"
)

// Snapshot views for the diagnostics API. These read concurrently and may
// be slightly stale with respect to in-flight handler tasks.

// SupplierViews lists every registered supplier.
func (s *Service) SupplierViews() []model.SupplierView {
	var out []model.SupplierView
	s.suppliers.Range(func(_ uint32, sup *supplier.Supplier) bool {
		out = append(out, s.supplierView(sup))
		return true
	})
	return out
}

func (s *Service) supplierView(sup *supplier.Supplier) model.SupplierView {
	v := model.SupplierView{
		ID:           sup.ID(),
		Bearer:       sup.Bearer().String(),
		Ident:        sup.Ident(),
		Key:          sup.Key().Hex(),
		NetID:        sup.NetID(),
		Available:    sup.IsAvailable(),
		Validated:    sup.Validated(),
		Quality:      sup.Quality().String(),
		BaseScore:    sup.Score(),
		RealScore:    sup.RealScore(),
		IfaceName:    sup.LinkInfo().IfaceName,
		BestRequests: sup.BestRequests(),
		UID:          sup.UID(),
		DetectState:  network.DetectIdle.String(),
	}
	for _, c := range sup.AllCaps().Caps.Slice() {
		v.Caps = append(v.Caps, c.String())
	}
	if netw := sup.Network(); netw != nil {
		v.DetectState = netw.DetectStatus().String()
	}
	return v
}

// RequestViews lists every live request.
func (s *Service) RequestViews() []model.RequestView {
	var out []model.RequestView
	s.requests.Range(func(reqID uint32, req *request.Activate) bool {
		spec := req.Specifier()
		v := model.RequestView{
			ID:           reqID,
			UID:          req.UID(),
			IsDefault:    req.IsDefault(),
			Ident:        spec.Ident,
			LastCallback: s.dispatcher.Last(reqID).String(),
		}
		for _, c := range spec.Caps.Slice() {
			v.Caps = append(v.Caps, c.String())
		}
		for _, b := range spec.Bearers.Slice() {
			v.Bearers = append(v.Bearers, b.String())
		}
		if supID, ok := req.BoundSupplier(); ok {
			v.BoundSupplier = supID
			v.Bound = true
		}
		out = append(out, v)
		return true
	})
	return out
}

// NetworkViews lists every created network.
func (s *Service) NetworkViews() []model.NetworkView {
	defaultSup := s.defaultSupplier.Load()
	var out []model.NetworkView
	s.suppliers.Range(func(_ uint32, sup *supplier.Supplier) bool {
		netw := sup.Network()
		if netw == nil || !netw.IsCreated() {
			return true
		}
		link := netw.LinkInfo()
		v := model.NetworkView{
			NetID:       netw.NetID(),
			SupplierID:  sup.ID(),
			Bearer:      sup.Bearer().String(),
			IfaceName:   link.IfaceName,
			MTU:         link.MTU,
			DetectState: netw.DetectStatus().String(),
			IsDefault:   sup.ID() == defaultSup,
		}
		for _, d := range link.DNS {
			v.DNS = append(v.DNS, d.IP.String())
		}
		out = append(out, v)
		return true
	})
	return out
}

// DefaultNetView describes the current default selection.
func (s *Service) DefaultNetView() model.DefaultNetView {
	supID := s.defaultSupplier.Load()
	if supID == 0 {
		return model.DefaultNetView{Metered: true}
	}
	sup, ok := s.suppliers.Load(supID)
	if !ok {
		return model.DefaultNetView{Metered: true}
	}
	return model.DefaultNetView{
		HasDefault: true,
		NetID:      sup.NetID(),
		SupplierID: sup.ID(),
		Bearer:     sup.Bearer().String(),
		Metered:    !sup.AllCaps().Caps.Has(netcap.CapNotMetered),
	}
}

// Counts returns registry sizes for the system info surface.
func (s *Service) Counts() (suppliers, requests int) {
	return s.suppliers.Size(), s.requests.Size()
}

// AirplaneMode reports the live airplane-mode flag.
func (s *Service) AirplaneMode() bool {
	var on bool
	_ = s.call(func() { on = s.airplane })
	return on
}
