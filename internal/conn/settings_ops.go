package conn

import (
	"github.com/arbiternet/arbiter/internal/metrics"
	"github.com/arbiternet/arbiter/internal/netcap"
	"github.com/arbiternet/arbiter/internal/settings"
	"github.com/arbiternet/arbiter/internal/supplier"
	"golang.org/x/net/http/httpproxy"
)

// SetAirplaneMode persists the flag and grounds or restores all wireless
// bearers.
func (s *Service) SetAirplaneMode(c Caller, on bool) error {
	if !c.Has(PermSettings) {
		return ErrPermissionDenied
	}
	if s.store != nil {
		if _, err := s.store.SetAirplaneMode(on); err != nil {
			s.log.Printf("conn: persist airplane mode: %v", err)
		}
	}
	return s.call(func() {
		if s.airplane == on {
			return
		}
		s.airplane = on
		s.log.Printf("conn: airplane mode %v", on)
		s.rematchAll()
	})
}

// RestrictBackground toggles background data restriction. Requests served by
// a metered network get a block-status notification on every flip.
func (s *Service) RestrictBackground(c Caller, on bool) error {
	if !c.Has(PermSettings) {
		return ErrPermissionDenied
	}
	return s.call(func() {
		if s.restrictBackground == on {
			return
		}
		s.restrictBackground = on
		s.suppliers.Range(func(_ uint32, sup *supplier.Supplier) bool {
			if sup.AllCaps().Caps.Has(netcap.CapNotMetered) {
				return true
			}
			for _, reqID := range sup.BestRequests() {
				s.dispatcher.NotifyBlockStatus(reqID, sup.NetID(), on)
				s.met.RecordCallback(metrics.CallbackBlockStatus)
			}
			return true
		})
		s.log.Printf("conn: restrict background %v", on)
	})
}

// SetGlobalHTTPProxy persists the global proxy configuration.
func (s *Service) SetGlobalHTTPProxy(c Caller, p settings.HTTPProxy) error {
	if !c.Has(PermSettings) {
		return ErrPermissionDenied
	}
	if s.store == nil {
		return ErrOperationFailed
	}
	return s.store.SetProxy(p)
}

// GlobalHTTPProxy returns the persisted proxy as a transport-consumable
// config, nil when disabled or persistence is off.
func (s *Service) GlobalHTTPProxy(c Caller) (*httpproxy.Config, error) {
	if !c.Has(PermQuery) {
		return nil, ErrPermissionDenied
	}
	if s.store == nil {
		return nil, nil
	}
	return s.store.ProxyConfig(), nil
}

// SetPACURL persists the proxy auto-config url.
func (s *Service) SetPACURL(c Caller, u string) error {
	if !c.Has(PermSettings) {
		return ErrPermissionDenied
	}
	if s.store == nil {
		return ErrOperationFailed
	}
	return s.store.SetPACURL(u)
}

// SettingsSnapshot returns the persisted settings.
func (s *Service) SettingsSnapshot(c Caller) (settings.Settings, error) {
	if !c.Has(PermQuery) {
		return settings.Settings{}, ErrPermissionDenied
	}
	if s.store == nil {
		return settings.Settings{}, nil
	}
	return s.store.Snapshot(), nil
}

// FactoryReset wipes persisted settings and restores matching-relevant flags
// to defaults.
func (s *Service) FactoryReset(c Caller) error {
	if !c.Has(PermSettings) {
		return ErrPermissionDenied
	}
	if s.store != nil {
		if err := s.store.FactoryReset(); err != nil {
			return err
		}
	}
	return s.call(func() {
		changed := s.airplane || s.restrictBackground
		s.airplane = false
		s.restrictBackground = false
		s.log.Print("conn: factory reset")
		if changed {
			s.rematchAll()
		}
	})
}

// TriggerNetDetection forces an immediate validation probe for a network.
func (s *Service) TriggerNetDetection(c Caller, netID int32) error {
	if !c.Has(PermSettings) {
		return ErrPermissionDenied
	}
	sup, ok := s.supplierByNetID(netID)
	if !ok {
		return ErrNetIdNotFound
	}
	if s.det == nil || !s.det.Kick(sup.ID()) {
		return ErrOperationFailed
	}
	return nil
}

// RequestBlocked reports whether a request's traffic is currently blocked by
// background restriction.
func (s *Service) RequestBlocked(c Caller, reqID uint32) (bool, error) {
	if !c.Has(PermQuery) {
		return false, ErrPermissionDenied
	}
	var (
		blocked bool
		err     error
	)
	if cerr := s.call(func() {
		req, ok := s.requests.Load(reqID)
		if !ok {
			err = ErrNoSuchRequest
			return
		}
		if !s.restrictBackground {
			return
		}
		supID, bound := req.BoundSupplier()
		if !bound {
			return
		}
		if sup, ok := s.suppliers.Load(supID); ok {
			blocked = !sup.AllCaps().Caps.Has(netcap.CapNotMetered)
		}
	}); cerr != nil {
		return false, cerr
	}
	return blocked, err
}
