package conn

import (
	"github.com/arbiternet/arbiter/internal/detect"
	"github.com/arbiternet/arbiter/internal/metrics"
	"github.com/arbiternet/arbiter/internal/network"
	"github.com/arbiternet/arbiter/internal/supplier"
)

// DetectionSink receives raw detection verdicts for one network. Unlike the
// request callbacks it carries no session state; every applied verdict is
// forwarded.
type DetectionSink interface {
	NetDetectionResult(netID int32, status detect.Status, portalURL string)
}

// RegisterNetDetectionCallback subscribes sink to detection verdicts for the
// network identified by netID.
func (s *Service) RegisterNetDetectionCallback(c Caller, netID int32, sink DetectionSink) error {
	if !c.Has(PermUseNetwork) {
		return ErrPermissionDenied
	}
	if sink == nil {
		return ErrInvalidParameter
	}
	var err error
	if cerr := s.call(func() {
		if _, ok := s.supplierByNetID(netID); !ok {
			err = ErrNetIdNotFound
			return
		}
		sinks, _ := s.detectSinks.Load(netID)
		s.detectSinks.Store(netID, append(sinks, sink))
	}); cerr != nil {
		return cerr
	}
	return err
}

// UnRegisterNetDetectionCallback removes a previously registered sink.
func (s *Service) UnRegisterNetDetectionCallback(c Caller, netID int32, sink DetectionSink) error {
	if !c.Has(PermUseNetwork) {
		return ErrPermissionDenied
	}
	if sink == nil {
		return ErrInvalidParameter
	}
	return s.call(func() {
		sinks, ok := s.detectSinks.Load(netID)
		if !ok {
			return
		}
		kept := sinks[:0:0]
		for _, sk := range sinks {
			if sk != sink {
				kept = append(kept, sk)
			}
		}
		if len(kept) == 0 {
			s.detectSinks.Delete(netID)
			return
		}
		s.detectSinks.Store(netID, kept)
	})
}

// HandleDetectionResult ingests a probe verdict for a supplier's network.
// Wire it as the detect manager's OnResult callback; it is asynchronous and
// safe to drop after shutdown.
func (s *Service) HandleDetectionResult(supplierID uint32, res detect.Result, q detect.QualityVerdict) {
	s.post(func() { s.applyDetection(supplierID, res, q) })
}

func (s *Service) applyDetection(supplierID uint32, res detect.Result, q detect.QualityVerdict) {
	sup, ok := s.suppliers.Load(supplierID)
	if !ok {
		return
	}

	s.met.RecordVerdict(sup.Bearer().String(), verdictKind(res.Status), res.RTT)

	netw := sup.Network()
	if netw != nil {
		netw.SetDetectStatus(detectState(res.Status))
	}

	wasValidated := sup.Validated()
	wasQuality := sup.Quality()
	sup.SetValidated(res.Status == detect.StatusValid)
	sup.SetQuality(quality(q))

	if res.Status == detect.StatusPortal {
		s.log.Printf("conn: supplier %d behind portal %s", supplierID, res.PortalURL)
	}

	if sinks, ok := s.detectSinks.Load(sup.NetID()); ok {
		for _, sk := range sinks {
			sk.NetDetectionResult(sup.NetID(), res.Status, res.PortalURL)
		}
	}

	changed := wasValidated != sup.Validated() || wasQuality != sup.Quality()
	if !changed {
		return
	}
	// The VALIDATED bit lives in the capability set, so served requests see
	// the flip as a capability change before any re-selection happens.
	for _, reqID := range sup.BestRequests() {
		s.dispatcher.NotifyCapsChanged(reqID, sup.NetID(), sup.AllCaps())
		s.met.RecordCallback(metrics.CallbackCapsChange)
	}
	s.rematchAll()
}

func verdictKind(st detect.Status) metrics.VerdictKind {
	switch st {
	case detect.StatusValid:
		return metrics.VerdictValid
	case detect.StatusPortal:
		return metrics.VerdictPortal
	default:
		return metrics.VerdictInvalid
	}
}

func detectState(st detect.Status) network.DetectState {
	switch st {
	case detect.StatusValid:
		return network.DetectVerified
	case detect.StatusPortal:
		return network.DetectPortal
	default:
		return network.DetectUnverified
	}
}

func quality(q detect.QualityVerdict) supplier.Quality {
	switch q {
	case detect.QualityGood:
		return supplier.QualityGood
	case detect.QualityPoor:
		return supplier.QualityPoor
	default:
		return supplier.QualityUnknown
	}
}
