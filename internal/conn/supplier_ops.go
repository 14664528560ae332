package conn

import (
	"github.com/arbiternet/arbiter/internal/detect"
	"github.com/arbiternet/arbiter/internal/metrics"
	"github.com/arbiternet/arbiter/internal/netcap"
	"github.com/arbiternet/arbiter/internal/network"
	"github.com/arbiternet/arbiter/internal/supplier"
)

// RegisterNetSupplier registers a network-providing agent. Registering the
// same (bearer, ident, caps) identity again returns the existing supplier id.
func (s *Service) RegisterNetSupplier(c Caller, bearer netcap.Bearer, ident string, caps netcap.CapSet) (uint32, error) {
	if !c.Has(PermManageSuppliers) {
		return 0, ErrPermissionDenied
	}
	if !bearer.Valid() {
		return 0, ErrNetTypeNotFound
	}
	var (
		id  uint32
		err error
	)
	if cerr := s.call(func() { id, err = s.registerSupplier(bearer, ident, caps, c.UID) }); cerr != nil {
		return 0, cerr
	}
	return id, err
}

func (s *Service) registerSupplier(bearer netcap.Bearer, ident string, caps netcap.CapSet, uid uint32) (uint32, error) {
	key := supplier.KeyOf(bearer, ident, caps)
	if existing, ok := s.byKey.Load(key); ok {
		s.log.Printf("conn: supplier %s/%s already registered as %d", bearer, ident, existing)
		return existing, nil
	}

	netID, err := s.idPool.Acquire()
	if err != nil {
		return 0, err
	}
	id := s.nextSupplierID.Add(1)
	sup := supplier.New(id, s.regSeq.Add(1), bearer, ident, caps, s.scores)
	sup.UpdateInfo(supplier.Info{UID: uid})
	sup.SetNetwork(network.New(netID, id, s.sys, s.log))

	// A supplier re-registering on a recently verified carrier starts from
	// its last verdict instead of the unvalidated penalty.
	if s.det != nil {
		if res, ok := s.det.CachedVerdict(ident); ok && res.Status == detect.StatusValid {
			sup.SetValidated(true)
		}
	}

	s.suppliers.Store(id, sup)
	s.byKey.Store(key, id)
	s.met.RecordSupplier(bearer.String(), true)
	s.log.Printf("conn: registered supplier %d bearer=%s ident=%s net=%d", id, bearer, ident, netID)
	return id, nil
}

// UnregisterNetSupplier removes a supplier, tearing down its network and
// notifying every request it served.
func (s *Service) UnregisterNetSupplier(c Caller, supplierID uint32) error {
	if !c.Has(PermManageSuppliers) {
		return ErrPermissionDenied
	}
	var err error
	if cerr := s.call(func() { err = s.unregisterSupplier(supplierID) }); cerr != nil {
		return cerr
	}
	return err
}

func (s *Service) unregisterSupplier(supplierID uint32) error {
	sup, ok := s.suppliers.Load(supplierID)
	if !ok {
		return ErrNoSuchSupplier
	}
	s.tearDownSupplier(sup)

	netw := sup.Network()
	s.suppliers.Delete(supplierID)
	s.byKey.Delete(sup.Key())
	if netw != nil {
		s.idPool.Release(netw.NetID())
	}
	s.met.RecordSupplier(sup.Bearer().String(), false)
	s.log.Printf("conn: unregistered supplier %d", supplierID)
	s.rematchAll()
	return nil
}

// tearDownSupplier notifies served requests, releases the host network, and
// stops detection. Shared by unregister and availability loss.
func (s *Service) tearDownSupplier(sup *supplier.Supplier) {
	if s.det != nil {
		s.det.StopMonitor(sup.ID())
	}
	netID := sup.NetID()
	for _, reqID := range sup.BestRequests() {
		s.dispatcher.NotifyLost(reqID, netID)
		s.met.RecordCallback(metrics.CallbackLost)
		sup.RemoveBest(reqID)
		if req, ok := s.requests.Load(reqID); ok {
			req.UnbindSupplier()
		}
	}
	if s.defaultSupplier.Load() == sup.ID() {
		s.setDefault(nil)
	}
	if netw := sup.Network(); netw != nil {
		if err := netw.Release(); err != nil {
			s.log.Printf("conn: release network %d: %v", netID, err)
		}
	}
	// A dying VPN must not leave its owner's sockets leaking onto other nets.
	if sup.Bearer() == netcap.BearerVPN {
		if err := s.sys.CloseSocketsForUid(netID, sup.UID()); err != nil {
			s.log.Printf("conn: close sockets for uid %d: %v", sup.UID(), err)
		}
	}
	s.detectSinks.Delete(netID)
	sup.SetValidated(false)
	sup.SetQuality(supplier.QualityUnknown)
}

// RegisterNetSupplierCallback attaches the agent-side sink used to ask the
// supplier to bring its network up or release it.
func (s *Service) RegisterNetSupplierCallback(c Caller, supplierID uint32, sink supplier.Sink) error {
	if !c.Has(PermManageSuppliers) {
		return ErrPermissionDenied
	}
	if sink == nil {
		return ErrInvalidParameter
	}
	var err error
	if cerr := s.call(func() {
		sup, ok := s.suppliers.Load(supplierID)
		if !ok {
			err = ErrNoSuchSupplier
			return
		}
		sup.RegisterSink(sink)
	}); cerr != nil {
		return cerr
	}
	return err
}

// UpdateNetSupplierInfo applies an agent state report. Availability flips
// drive network setup or teardown plus a full re-match.
func (s *Service) UpdateNetSupplierInfo(c Caller, supplierID uint32, info supplier.Info) error {
	if !c.Has(PermManageSuppliers) {
		return ErrPermissionDenied
	}
	var err error
	if cerr := s.call(func() { err = s.updateSupplierInfo(supplierID, info) }); cerr != nil {
		return cerr
	}
	return err
}

func (s *Service) updateSupplierInfo(supplierID uint32, info supplier.Info) error {
	sup, ok := s.suppliers.Load(supplierID)
	if !ok {
		return ErrNoSuchSupplier
	}
	changed := sup.UpdateInfo(info)
	switch {
	case changed && info.IsAvailable:
		if netw := sup.Network(); netw != nil {
			if err := netw.Create(); err != nil {
				s.log.Printf("conn: supplier %d network create: %v", supplierID, err)
			}
		}
		if s.det != nil {
			s.det.StartMonitor(supplierID, sup.Ident())
		}
		s.log.Printf("conn: supplier %d available", supplierID)
	case changed && !info.IsAvailable:
		s.tearDownSupplier(sup)
		s.log.Printf("conn: supplier %d lost", supplierID)
	}
	s.rematchAll()
	return nil
}

// UpdateNetLinkInfo applies a link snapshot: the host network is programmed
// with the delta and served requests get a link-change notification.
func (s *Service) UpdateNetLinkInfo(c Caller, supplierID uint32, link netcap.LinkInfo) error {
	if !c.Has(PermManageSuppliers) {
		return ErrPermissionDenied
	}
	var err error
	if cerr := s.call(func() { err = s.updateLinkInfo(supplierID, link) }); cerr != nil {
		return cerr
	}
	return err
}

func (s *Service) updateLinkInfo(supplierID uint32, link netcap.LinkInfo) error {
	sup, ok := s.suppliers.Load(supplierID)
	if !ok {
		return ErrNoSuchSupplier
	}
	netw := sup.Network()
	if netw == nil {
		return ErrNetIdNotFound
	}
	if err := netw.UpdateLink(link); err != nil {
		s.log.Printf("conn: supplier %d link update: %v", supplierID, err)
		return ErrOperationFailed
	}
	sup.SetLinkInfo(link)
	for _, reqID := range sup.BestRequests() {
		s.dispatcher.NotifyLinkChanged(reqID, netw.NetID(), sup.LinkInfo())
		s.met.RecordCallback(metrics.CallbackLinkChange)
	}
	return nil
}

// UpdateNetCaps replaces a supplier's capability set and re-evaluates every
// request against it.
func (s *Service) UpdateNetCaps(c Caller, supplierID uint32, caps netcap.CapSet) error {
	if !c.Has(PermManageSuppliers) {
		return ErrPermissionDenied
	}
	var err error
	if cerr := s.call(func() { err = s.updateCaps(supplierID, caps) }); cerr != nil {
		return cerr
	}
	return err
}

func (s *Service) updateCaps(supplierID uint32, caps netcap.CapSet) error {
	sup, ok := s.suppliers.Load(supplierID)
	if !ok {
		return ErrNoSuchSupplier
	}
	s.byKey.Delete(sup.Key())
	sup.SetCaps(caps)
	s.byKey.Store(sup.Key(), supplierID)
	for _, reqID := range sup.BestRequests() {
		s.dispatcher.NotifyCapsChanged(reqID, sup.NetID(), sup.AllCaps())
		s.met.RecordCallback(metrics.CallbackCapsChange)
	}
	s.rematchAll()
	return nil
}
