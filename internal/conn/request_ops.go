package conn

import (
	"time"

	"github.com/google/uuid"

	"github.com/arbiternet/arbiter/internal/dispatch"
	"github.com/arbiternet/arbiter/internal/metrics"
	"github.com/arbiternet/arbiter/internal/netcap"
	"github.com/arbiternet/arbiter/internal/request"
	"github.com/arbiternet/arbiter/internal/supplier"
)

// RegisterNetConnCallback registers a connectivity request with its
// notification sink. With a positive timeout, a request that stays unmatched
// gets a single Unavailable callback when it elapses; binding cancels the
// timer. The returned handle guards UnregisterNetConnCallback against stale
// unregisters.
func (s *Service) RegisterNetConnCallback(c Caller, spec netcap.Specifier, sink dispatch.NotificationSink, timeout time.Duration) (uint32, uuid.UUID, error) {
	if !c.Has(PermUseNetwork) {
		return 0, uuid.Nil, ErrPermissionDenied
	}
	if sink == nil {
		return 0, uuid.Nil, ErrInvalidParameter
	}
	var (
		reqID  uint32
		handle uuid.UUID
		err    error
	)
	if cerr := s.call(func() { reqID, handle, err = s.registerRequest(c.UID, spec, sink, timeout) }); cerr != nil {
		return 0, uuid.Nil, cerr
	}
	return reqID, handle, err
}

func (s *Service) registerRequest(uid uint32, spec netcap.Specifier, sink dispatch.NotificationSink, timeout time.Duration) (uint32, uuid.UUID, error) {
	if s.uidCounts[uid] >= s.quota {
		return 0, uuid.Nil, ErrOverMaxRequestNum
	}
	reqID := s.nextRequestID.Add(1)
	req := request.New(reqID, uid, spec)
	s.requests.Store(reqID, req)
	s.uidCounts[uid]++
	handle := s.dispatcher.Register(reqID, sink)
	s.met.RecordRequest(true)

	best := s.findBest(req)
	if best != nil {
		s.bindRequest(req, best, nil)
		s.broadcastBestScore(reqID, best)
	} else {
		// No network serves this yet: ask every matching agent to bring
		// one up, and arm the activation timer.
		s.askSuppliersToConnect(req)
		req.StartTimeout(timeout, func() {
			s.post(func() { s.handleRequestTimeout(reqID) })
		})
	}
	s.log.Printf("conn: registered request %d uid=%d", reqID, uid)
	return reqID, handle, nil
}

// handleRequestTimeout destroys a request whose activation window elapsed
// without a match: the sink gets its one Unavailable, every agent the
// request was routed to is told to stand down, and the uid's quota slot is
// returned.
func (s *Service) handleRequestTimeout(reqID uint32) {
	req, ok := s.requests.Load(reqID)
	if !ok {
		return
	}
	if _, bound := req.BoundSupplier(); bound {
		return
	}
	s.dispatcher.NotifyUnavailable(reqID)
	s.met.RecordCallback(metrics.CallbackUnavailable)
	s.dispatcher.Unregister(reqID, uuid.Nil)
	s.suppliers.Range(func(_ uint32, sup *supplier.Supplier) bool {
		sup.CancelRequest(reqID)
		return true
	})
	s.requests.Delete(reqID)
	if s.uidCounts[req.UID()] > 0 {
		s.uidCounts[req.UID()]--
	}
	s.met.RecordRequest(false)
	s.log.Printf("conn: request %d timed out", reqID)
}

// UnregisterNetConnCallback releases a request. Only the owning uid (or a
// caller holding PermSettings) may release it; the default request cannot be
// released.
func (s *Service) UnregisterNetConnCallback(c Caller, reqID uint32, handle uuid.UUID) error {
	if !c.Has(PermUseNetwork) {
		return ErrPermissionDenied
	}
	if reqID == request.DefaultID {
		return ErrInvalidParameter
	}
	var err error
	if cerr := s.call(func() { err = s.unregisterRequest(c, reqID, handle) }); cerr != nil {
		return cerr
	}
	return err
}

func (s *Service) unregisterRequest(c Caller, reqID uint32, handle uuid.UUID) error {
	req, ok := s.requests.Load(reqID)
	if !ok {
		return ErrNoSuchRequest
	}
	if req.UID() != c.UID && !c.Has(PermSettings) {
		return ErrPermissionDenied
	}
	if !s.dispatcher.Unregister(reqID, handle) && s.dispatcher.Registered(reqID) {
		// A live sink under a different handle means the caller's handle
		// is stale; leave the registration alone.
		return ErrInvalidParameter
	}
	req.StopTimeout()
	s.suppliers.Range(func(_ uint32, sup *supplier.Supplier) bool {
		sup.CancelRequest(reqID)
		return true
	})
	req.UnbindSupplier()
	s.requests.Delete(reqID)
	if s.uidCounts[req.UID()] > 0 {
		s.uidCounts[req.UID()]--
	}
	s.met.RecordRequest(false)
	s.log.Printf("conn: unregistered request %d", reqID)
	return nil
}
