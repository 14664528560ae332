package supplier

import (
	"sync"

	"github.com/arbiternet/arbiter/internal/netcap"
	"github.com/arbiternet/arbiter/internal/network"
)

// ConnState tracks the supplier agent's connection progress. It is
// bookkeeping for the supplier-side sink (connect/release decisions), not an
// input to request matching.
type ConnState int

const (
	ConnStateUnknown ConnState = iota
	ConnStateIdle
	ConnStateConnecting
	ConnStateConnected
	ConnStateDisconnecting
	ConnStateDisconnected
)

func (s ConnState) String() string {
	switch s {
	case ConnStateIdle:
		return "idle"
	case ConnStateConnecting:
		return "connecting"
	case ConnStateConnected:
		return "connected"
	case ConnStateDisconnecting:
		return "disconnecting"
	case ConnStateDisconnected:
		return "disconnected"
	default:
		return "unknown"
	}
}

// Info is the mutable state a supplier agent reports through
// UpdateNetSupplierInfo. Score zero means "use the bearer base score".
type Info struct {
	IsAvailable  bool
	IsRoaming    bool
	Strength     int8
	Frequency    uint16
	UID          uint32
	Score        int32
	LinkUpKbps   uint32
	LinkDownKbps uint32
}

// Sink is the supplier-side callback surface: the engine asks the owning
// agent to bring its network up when a request wants it and to release it
// when the last request leaves. Implementations live at the transport
// boundary and must tolerate concurrent calls.
type Sink interface {
	RequestNetwork(ident string, caps netcap.CapSet) error
	ReleaseNetwork(ident string, caps netcap.CapSet) error
}

// Supplier is one registered network-providing agent. Identity fields are
// immutable after construction; dynamic state is guarded by mu so diagnostic
// reads may run off the handler goroutine. The dedup key tracks the caps, so
// it lives with the dynamic state.
type Supplier struct {
	id     uint32
	seq    uint64
	bearer netcap.Bearer
	ident  string
	scores ScoreTable

	mu        sync.RWMutex
	key       Key
	caps      netcap.CapSet
	allCaps   netcap.AllCapabilities
	info      Info
	linkInfo  netcap.LinkInfo
	state     ConnState
	validated bool
	quality   Quality
	net       *network.Network
	sink      Sink

	// Request bookkeeping, owned by the matching engine. requests holds
	// every request routed to this supplier; best holds the subset this
	// supplier currently serves as the selected network.
	requests map[uint32]struct{}
	best     map[uint32]struct{}
}

// New creates a Supplier. seq is the registration sequence used for
// deterministic tie-breaking; lower wins on equal scores.
func New(id uint32, seq uint64, bearer netcap.Bearer, ident string, caps netcap.CapSet, scores ScoreTable) *Supplier {
	return &Supplier{
		id:     id,
		seq:    seq,
		bearer: bearer,
		ident:  ident,
		key:    KeyOf(bearer, ident, caps),
		scores: scores,
		caps:   caps,
		allCaps: netcap.AllCapabilities{
			Caps:    caps,
			Bearers: netcap.NewBearerSet(bearer),
		},
		requests: make(map[uint32]struct{}),
		best:     make(map[uint32]struct{}),
	}
}

func (s *Supplier) ID() uint32            { return s.id }
func (s *Supplier) Seq() uint64           { return s.seq }
func (s *Supplier) Bearer() netcap.Bearer { return s.bearer }
func (s *Supplier) Ident() string         { return s.ident }

// Key returns the current dedup key. SetCaps re-derives it, so callers that
// index by key must re-read it after a caps update.
func (s *Supplier) Key() Key {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.key
}

// Caps returns the current capability set.
func (s *Supplier) Caps() netcap.CapSet {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.caps
}

// AllCaps returns the full capability snapshot including the VALIDATED bit
// and bandwidth figures.
func (s *Supplier) AllCaps() netcap.AllCapabilities {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.allCaps
}

// SetCaps replaces the capability set, preserving the VALIDATED bit derived
// from detection state. The dedup key follows the new caps.
func (s *Supplier) SetCaps(caps netcap.CapSet) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.caps = caps
	s.key = KeyOf(s.bearer, s.ident, caps)
	s.allCaps.Caps = caps.Without(netcap.CapValidated)
	if s.validated {
		s.allCaps.Caps = s.allCaps.Caps.With(netcap.CapValidated)
	}
}

// UpdateInfo applies a NetSupplierInfo report and returns whether the
// availability flag flipped (which drives network setup/teardown).
func (s *Supplier) UpdateInfo(info Info) (availabilityChanged bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	changed := s.info.IsAvailable != info.IsAvailable
	s.info = info
	s.allCaps.LinkUpKbps = info.LinkUpKbps
	s.allCaps.LinkDownKbps = info.LinkDownKbps
	if changed && !info.IsAvailable {
		s.state = ConnStateDisconnected
		s.linkInfo = netcap.LinkInfo{}
	}
	return changed
}

// Info returns the last reported supplier info.
func (s *Supplier) Info() Info {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.info
}

// IsAvailable reports the agent-declared availability flag.
func (s *Supplier) IsAvailable() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.info.IsAvailable
}

// UID returns the owning process uid, for VPN ownership checks.
func (s *Supplier) UID() uint32 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.info.UID
}

// Score returns the base score: the agent-reported override if set,
// otherwise the bearer's table score.
func (s *Supplier) Score() int32 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.baseScoreLocked()
}

func (s *Supplier) baseScoreLocked() int32 {
	if s.info.Score != 0 {
		return s.info.Score
	}
	return s.scores.Base(s.bearer)
}

// RealScore computes the effective comparison score from the base score,
// detection result, and quality verdict. It is never cached.
func (s *Supplier) RealScore() int32 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return realScore(s.baseScoreLocked(), s.validated, s.quality)
}

// SetValidated records the detection verdict and mirrors it into the
// VALIDATED capability bit.
func (s *Supplier) SetValidated(ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.validated = ok
	s.allCaps.Caps = s.allCaps.Caps.Without(netcap.CapValidated)
	if ok {
		s.allCaps.Caps = s.allCaps.Caps.With(netcap.CapValidated)
	}
}

// Validated reports whether the last detection verdict was a pass.
func (s *Supplier) Validated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.validated
}

// SetQuality records the quality-probe verdict.
func (s *Supplier) SetQuality(q Quality) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.quality = q
}

// Quality returns the last quality-probe verdict.
func (s *Supplier) Quality() Quality {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.quality
}

// SetNetwork binds the runtime Network handle created for this supplier.
func (s *Supplier) SetNetwork(n *network.Network) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.net = n
}

// Network returns the bound Network handle, nil before registration
// completes network creation.
func (s *Supplier) Network() *network.Network {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.net
}

// NetID returns the bound network's id, or network.InvalidNetID.
func (s *Supplier) NetID() int32 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.net == nil {
		return network.InvalidNetID
	}
	return s.net.NetID()
}

// SetLinkInfo stores the supplier-level link snapshot handed to callbacks.
func (s *Supplier) SetLinkInfo(li netcap.LinkInfo) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.linkInfo = li
	s.state = ConnStateConnected
}

// LinkInfo returns a copy of the last link snapshot.
func (s *Supplier) LinkInfo() netcap.LinkInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.linkInfo.Clone()
}

// UpdateConnState transitions the connection-progress state.
func (s *Supplier) UpdateConnState(st ConnState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = st
}

// ConnState returns the connection-progress state.
func (s *Supplier) ConnState() ConnState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// RegisterSink attaches the supplier-side callback surface.
func (s *Supplier) RegisterSink(sink Sink) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sink = sink
}

// RequestToConnect routes a request to this supplier and, if the network is
// neither connected nor connecting, asks the agent to bring it up.
func (s *Supplier) RequestToConnect(reqID uint32) error {
	s.mu.Lock()
	s.requests[reqID] = struct{}{}
	if s.state == ConnStateConnecting || s.state == ConnStateConnected {
		s.mu.Unlock()
		return nil
	}
	s.state = ConnStateIdle
	sink := s.sink
	ident, caps := s.ident, s.caps
	s.mu.Unlock()

	if sink == nil {
		return nil
	}
	if err := sink.RequestNetwork(ident, caps); err != nil {
		return err
	}
	s.UpdateConnState(ConnStateConnecting)
	return nil
}

// ReceiveBestScore tells this supplier the winning score for a request. A
// supplier that lost the comparison drops the request; when its last request
// leaves it asks the agent to release the network.
func (s *Supplier) ReceiveBestScore(reqID uint32, bestScore int32, bestSupplierID uint32) {
	s.mu.Lock()
	if len(s.requests) == 0 {
		sink, ident, caps := s.sink, s.ident, s.caps
		active := s.state == ConnStateConnecting || s.state == ConnStateConnected
		s.mu.Unlock()
		releaseIfNeeded(sink, ident, caps, active)
		return
	}
	if _, ok := s.requests[reqID]; !ok {
		s.mu.Unlock()
		return
	}
	if bestSupplierID == s.id || realScore(s.baseScoreLocked(), s.validated, s.quality) >= bestScore {
		s.mu.Unlock()
		return
	}
	delete(s.requests, reqID)
	delete(s.best, reqID)
	empty := len(s.requests) == 0
	sink, ident, caps := s.sink, s.ident, s.caps
	active := s.state == ConnStateConnecting || s.state == ConnStateConnected
	s.mu.Unlock()
	if empty {
		releaseIfNeeded(sink, ident, caps, active)
	}
}

// CancelRequest detaches a request from this supplier. Returns false if the
// request was never routed here.
func (s *Supplier) CancelRequest(reqID uint32) bool {
	s.mu.Lock()
	if _, ok := s.requests[reqID]; !ok {
		s.mu.Unlock()
		return false
	}
	delete(s.requests, reqID)
	delete(s.best, reqID)
	empty := len(s.requests) == 0
	sink, ident, caps := s.sink, s.ident, s.caps
	active := s.state == ConnStateConnecting || s.state == ConnStateConnected
	s.mu.Unlock()
	if empty {
		releaseIfNeeded(sink, ident, caps, active)
	}
	return true
}

func releaseIfNeeded(sink Sink, ident string, caps netcap.CapSet, active bool) {
	if sink == nil || !active {
		return
	}
	_ = sink.ReleaseNetwork(ident, caps)
}

// SelectAsBest marks this supplier as the selected network for a request.
func (s *Supplier) SelectAsBest(reqID uint32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests[reqID] = struct{}{}
	s.best[reqID] = struct{}{}
}

// RemoveBest demotes this supplier for a request without detaching it.
func (s *Supplier) RemoveBest(reqID uint32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.best, reqID)
}

// BestRequests returns the ids of requests this supplier currently serves.
func (s *Supplier) BestRequests() []uint32 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]uint32, 0, len(s.best))
	for id := range s.best {
		out = append(out, id)
	}
	return out
}

// ServesRequest reports whether this supplier is selected for reqID.
func (s *Supplier) ServesRequest(reqID uint32) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.best[reqID]
	return ok
}
