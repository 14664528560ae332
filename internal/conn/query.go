package conn

import (
	"sort"

	"github.com/arbiternet/arbiter/internal/netcap"
	"github.com/arbiternet/arbiter/internal/network"
	"github.com/arbiternet/arbiter/internal/supplier"
)

// Queries read through the concurrent registries and the entities' guarded
// accessors; they never enter the handler queue.

// GetDefaultNet returns the default network's id, or ErrNetIdNotFound when
// no default is selected.
func (s *Service) GetDefaultNet(c Caller) (int32, error) {
	if !c.Has(PermQuery) {
		return network.InvalidNetID, ErrPermissionDenied
	}
	supID := s.defaultSupplier.Load()
	if supID == 0 {
		return network.InvalidNetID, ErrNetIdNotFound
	}
	sup, ok := s.suppliers.Load(supID)
	if !ok {
		return network.InvalidNetID, ErrNetIdNotFound
	}
	return sup.NetID(), nil
}

// HasDefaultNet reports whether a default network is selected.
func (s *Service) HasDefaultNet(c Caller) (bool, error) {
	if !c.Has(PermQuery) {
		return false, ErrPermissionDenied
	}
	return s.defaultSupplier.Load() != 0, nil
}

// IsDefaultNetMetered reports whether the default network is metered. With
// no default selected it conservatively reports metered.
func (s *Service) IsDefaultNetMetered(c Caller) (bool, error) {
	if !c.Has(PermQuery) {
		return false, ErrPermissionDenied
	}
	sup, ok := s.suppliers.Load(s.defaultSupplier.Load())
	if !ok {
		return true, nil
	}
	return !sup.AllCaps().Caps.Has(netcap.CapNotMetered), nil
}

// GetAllNets lists the ids of every live network, ascending.
func (s *Service) GetAllNets(c Caller) ([]int32, error) {
	if !c.Has(PermQuery) {
		return nil, ErrPermissionDenied
	}
	var out []int32
	s.suppliers.Range(func(_ uint32, sup *supplier.Supplier) bool {
		if sup.IsAvailable() {
			if netw := sup.Network(); netw != nil && netw.IsCreated() {
				out = append(out, netw.NetID())
			}
		}
		return true
	})
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out, nil
}

// GetSpecificNet lists live network ids for one bearer.
func (s *Service) GetSpecificNet(c Caller, bearer netcap.Bearer) ([]int32, error) {
	if !c.Has(PermQuery) {
		return nil, ErrPermissionDenied
	}
	if !bearer.Valid() {
		return nil, ErrNetTypeNotFound
	}
	var out []int32
	s.suppliers.Range(func(_ uint32, sup *supplier.Supplier) bool {
		if sup.Bearer() == bearer && sup.IsAvailable() {
			if netw := sup.Network(); netw != nil && netw.IsCreated() {
				out = append(out, netw.NetID())
			}
		}
		return true
	})
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out, nil
}

// GetSpecificUidNet resolves the network a uid's traffic should use: a live
// VPN owned by that uid wins over the default network.
func (s *Service) GetSpecificUidNet(c Caller, uid uint32) (int32, error) {
	if !c.Has(PermQuery) {
		return network.InvalidNetID, ErrPermissionDenied
	}
	var vpnNet int32 = network.InvalidNetID
	s.suppliers.Range(func(_ uint32, sup *supplier.Supplier) bool {
		if sup.Bearer() == netcap.BearerVPN && sup.UID() == uid && sup.IsAvailable() {
			vpnNet = sup.NetID()
			return false
		}
		return true
	})
	if vpnNet != network.InvalidNetID {
		return vpnNet, nil
	}
	return s.GetDefaultNet(c)
}

// GetConnectionProperties returns the link snapshot for a network id.
func (s *Service) GetConnectionProperties(c Caller, netID int32) (netcap.LinkInfo, error) {
	if !c.Has(PermQuery) {
		return netcap.LinkInfo{}, ErrPermissionDenied
	}
	sup, ok := s.supplierByNetID(netID)
	if !ok {
		return netcap.LinkInfo{}, ErrNetIdNotFound
	}
	return sup.LinkInfo(), nil
}

// GetNetCapabilities returns the capability snapshot for a network id.
func (s *Service) GetNetCapabilities(c Caller, netID int32) (netcap.AllCapabilities, error) {
	if !c.Has(PermQuery) {
		return netcap.AllCapabilities{}, ErrPermissionDenied
	}
	sup, ok := s.supplierByNetID(netID)
	if !ok {
		return netcap.AllCapabilities{}, ErrNetIdNotFound
	}
	return sup.AllCaps(), nil
}

// GetIfaceNameByType returns the interface name of the live supplier with
// the given bearer and ident.
func (s *Service) GetIfaceNameByType(c Caller, bearer netcap.Bearer, ident string) (string, error) {
	if !c.Has(PermQuery) {
		return "", ErrPermissionDenied
	}
	if !bearer.Valid() {
		return "", ErrNetTypeNotFound
	}
	var iface string
	found := false
	s.suppliers.Range(func(_ uint32, sup *supplier.Supplier) bool {
		if sup.Bearer() == bearer && sup.Ident() == ident {
			iface = sup.LinkInfo().IfaceName
			found = true
			return false
		}
		return true
	})
	if !found {
		return "", ErrNetTypeNotFound
	}
	return iface, nil
}

// BindSocket pins an fd's traffic to one network.
func (s *Service) BindSocket(c Caller, fd int, netID int32) error {
	if !c.Has(PermUseNetwork) {
		return ErrPermissionDenied
	}
	if _, ok := s.supplierByNetID(netID); !ok {
		return ErrNetIdNotFound
	}
	if err := s.sys.BindSocketToNetwork(fd, netID); err != nil {
		s.log.Printf("conn: bind socket %d to %d: %v", fd, netID, err)
		return ErrOperationFailed
	}
	return nil
}
