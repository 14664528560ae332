package conn

import (
	"github.com/arbiternet/arbiter/internal/metrics"
	"github.com/arbiternet/arbiter/internal/netcap"
	"github.com/arbiternet/arbiter/internal/network"
	"github.com/arbiternet/arbiter/internal/request"
	"github.com/arbiternet/arbiter/internal/supplier"
)

// admissible reports whether a supplier may serve requests at all: it must
// be agent-declared available, and airplane mode grounds every wireless
// bearer.
func (s *Service) admissible(sup *supplier.Supplier) bool {
	if !sup.IsAvailable() {
		return false
	}
	if s.airplane && sup.Bearer().Wireless() {
		return false
	}
	return true
}

// matches reports whether sup can serve req. VPN networks are opt-in: a
// request whose specifier does not name the VPN bearer never routes onto
// one, so a uid-owned tunnel cannot capture the default request and leak
// foreign traffic.
func (s *Service) matches(req *request.Activate, sup *supplier.Supplier) bool {
	if sup.Bearer() == netcap.BearerVPN && !req.Specifier().Bearers.Has(netcap.BearerVPN) {
		return false
	}
	return req.MatchSupplier(sup.Bearer(), sup.Ident(), sup.AllCaps())
}

// findBest returns the admissible supplier with the highest real score that
// matches the request, or nil. Ties go to the earlier registration.
func (s *Service) findBest(req *request.Activate) *supplier.Supplier {
	var (
		best      *supplier.Supplier
		bestScore int32
	)
	s.suppliers.Range(func(_ uint32, sup *supplier.Supplier) bool {
		if !s.admissible(sup) {
			return true
		}
		if !s.matches(req, sup) {
			return true
		}
		score := sup.RealScore()
		if best == nil || score > bestScore || (score == bestScore && sup.Seq() < best.Seq()) {
			best, bestScore = sup, score
		}
		return true
	})
	return best
}

// rematchAll re-evaluates every request after a registry mutation and
// applies the resulting transitions: switches, losses, and default-network
// changes.
func (s *Service) rematchAll() {
	s.met.RecordRematch()
	s.requests.Range(func(reqID uint32, req *request.Activate) bool {
		best := s.findBest(req)
		oldID, hadOld := req.BoundSupplier()

		switch {
		case best == nil:
			if hadOld {
				if oldSup, ok := s.suppliers.Load(oldID); ok {
					s.dispatcher.NotifyLost(reqID, oldSup.NetID())
					s.met.RecordCallback(metrics.CallbackLost)
					oldSup.RemoveBest(reqID)
				}
				req.UnbindSupplier()
				if req.IsDefault() {
					s.setDefault(nil)
				}
			}
			// Nobody serves this request; ask the remaining agents to
			// bring a network up rather than letting it starve.
			s.askSuppliersToConnect(req)
		case !hadOld || oldID != best.ID():
			var oldSup *supplier.Supplier
			if hadOld {
				oldSup, _ = s.suppliers.Load(oldID)
			}
			s.bindRequest(req, best, oldSup)
			s.broadcastBestScore(reqID, best)
		}
		return true
	})
}

// askSuppliersToConnect tells every agent whose supplier could satisfy req
// to bring its network up. Suppliers already connecting or connected absorb
// the repeat without another agent round trip.
func (s *Service) askSuppliersToConnect(req *request.Activate) {
	s.suppliers.Range(func(_ uint32, sup *supplier.Supplier) bool {
		if s.airplane && sup.Bearer().Wireless() {
			return true
		}
		if s.matches(req, sup) {
			if err := sup.RequestToConnect(req.ID()); err != nil {
				s.log.Printf("conn: supplier %d connect request: %v", sup.ID(), err)
			}
		}
		return true
	})
}

// bindRequest routes a request onto a supplier and fires the availability
// triplet. On a switch the dispatcher closes the old session with Lost
// before the fresh Available, so the consumer never sees two Availables
// back to back.
func (s *Service) bindRequest(req *request.Activate, sup *supplier.Supplier, oldSup *supplier.Supplier) {
	reqID := req.ID()
	if oldSup != nil {
		oldSup.RemoveBest(reqID)
		s.met.RecordCallback(metrics.CallbackLost)
	}
	sup.SelectAsBest(reqID)
	req.BindSupplier(sup.ID())

	s.dispatcher.NotifyAvailable(reqID, sup.NetID(), sup.AllCaps(), sup.LinkInfo())
	s.met.RecordCallback(metrics.CallbackAvailable)
	s.met.RecordCallback(metrics.CallbackCapsChange)
	s.met.RecordCallback(metrics.CallbackLinkChange)

	if req.IsDefault() {
		s.setDefault(sup)
	}
}

// broadcastBestScore tells every other supplier who won a request, so losers
// can drop it and release idle networks.
func (s *Service) broadcastBestScore(reqID uint32, best *supplier.Supplier) {
	score := best.RealScore()
	s.suppliers.Range(func(_ uint32, sup *supplier.Supplier) bool {
		if sup.ID() != best.ID() {
			sup.ReceiveBestScore(reqID, score, best.ID())
		}
		return true
	})
}

// setDefault points the host's default network at the supplier's network, or
// clears it for nil.
func (s *Service) setDefault(sup *supplier.Supplier) {
	oldID := s.defaultSupplier.Load()
	var newID uint32
	if sup != nil {
		newID = sup.ID()
	}
	if oldID == newID {
		return
	}

	oldNetID := network.InvalidNetID
	if oldSup, ok := s.suppliers.Load(oldID); ok {
		oldNetID = oldSup.NetID()
	}
	newNetID := network.InvalidNetID

	if sup == nil {
		if err := s.sys.ClearDefaultNetwork(); err != nil {
			s.log.Printf("conn: clear default network: %v", err)
		}
	} else {
		newNetID = sup.NetID()
		if err := s.sys.SetDefaultNetwork(newNetID); err != nil {
			s.log.Printf("conn: set default network %d: %v", newNetID, err)
		}
	}
	s.defaultSupplier.Store(newID)
	s.met.RecordDefaultSwitch(oldNetID, newNetID)
	s.log.Printf("conn: default network %d -> %d", oldNetID, newNetID)
}
