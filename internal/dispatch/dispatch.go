// Package dispatch delivers connectivity callbacks to registered observers,
// enforcing the per-request ordering contract: Available opens a session,
// change notifications only flow inside one, and Lost closes it.
package dispatch

import (
	"log"

	"github.com/google/uuid"
	"github.com/puzpuzpuz/xsync/v4"

	"github.com/arbiternet/arbiter/internal/netcap"
)

// CallbackType identifies one notification kind. It doubles as the
// per-request "last delivered" marker used to keep the stream well formed.
type CallbackType int

const (
	CallbackNone CallbackType = iota
	CallbackAvailable
	CallbackLost
	CallbackUnavailable
	CallbackCapsChanged
	CallbackLinkChanged
	CallbackBlockStatus
)

func (t CallbackType) String() string {
	switch t {
	case CallbackAvailable:
		return "available"
	case CallbackLost:
		return "lost"
	case CallbackUnavailable:
		return "unavailable"
	case CallbackCapsChanged:
		return "capabilities-changed"
	case CallbackLinkChanged:
		return "link-changed"
	case CallbackBlockStatus:
		return "block-status"
	default:
		return "none"
	}
}

// NotificationSink receives the callbacks for one request. Implementations
// must not block; slow consumers should hand off to their own queue.
type NotificationSink interface {
	Available(netID int32)
	CapabilitiesChanged(netID int32, caps netcap.AllCapabilities)
	LinkPropertiesChanged(netID int32, link netcap.LinkInfo)
	Lost(netID int32)
	Unavailable()
	BlockStatusChanged(netID int32, blocked bool)
}

type entry struct {
	handle uuid.UUID
	sink   NotificationSink
	last   CallbackType
	inUse  bool  // Available delivered, Lost not yet
	netID  int32 // network of the open session
}

// Dispatcher routes notifications to per-request sinks. All Notify methods
// run on the engine's single handler goroutine, which is what makes the
// in-place session-state updates safe; Register and Unregister may race
// them, so the table itself is a concurrent map.
type Dispatcher struct {
	entries *xsync.Map[uint32, *entry]
	log     *log.Logger
}

// NewDispatcher creates an empty dispatcher logging through logger.
func NewDispatcher(logger *log.Logger) *Dispatcher {
	return &Dispatcher{
		entries: xsync.NewMap[uint32, *entry](),
		log:     logger,
	}
}

// Register attaches sink to reqID and returns an opaque handle; a later
// Register for the same request replaces the previous sink and resets the
// delivery state.
func (d *Dispatcher) Register(reqID uint32, sink NotificationSink) uuid.UUID {
	handle := uuid.New()
	d.entries.Store(reqID, &entry{handle: handle, sink: sink})
	return handle
}

// Unregister detaches the sink for reqID. With a non-nil handle it only
// removes the matching registration, so a stale unregister cannot tear down
// a replacement sink.
func (d *Dispatcher) Unregister(reqID uint32, handle uuid.UUID) bool {
	removed := false
	d.entries.Compute(reqID, func(e *entry, loaded bool) (*entry, xsync.ComputeOp) {
		if !loaded || (handle != uuid.Nil && e.handle != handle) {
			return e, xsync.CancelOp
		}
		removed = true
		return e, xsync.DeleteOp
	})
	return removed
}

// Registered reports whether reqID has an attached sink.
func (d *Dispatcher) Registered(reqID uint32) bool {
	_, ok := d.entries.Load(reqID)
	return ok
}

// NotifyAvailable opens a session for reqID against netID and delivers the
// canonical triplet: Available, then CapabilitiesChanged, then
// LinkPropertiesChanged. A repeat Available for the same network inside an
// open session is suppressed. A different network is a switch: the open
// session is closed with Lost for the old network first, so no sink ever
// sees two Availables without an intervening Lost.
func (d *Dispatcher) NotifyAvailable(reqID uint32, netID int32, caps netcap.AllCapabilities, link netcap.LinkInfo) {
	e, ok := d.entries.Load(reqID)
	if !ok {
		return
	}
	if e.inUse && e.netID == netID {
		d.log.Printf("dispatch: suppressing duplicate available for request %d", reqID)
		return
	}
	if e.inUse {
		e.sink.Lost(e.netID)
	}
	e.inUse = true
	e.netID = netID
	e.last = CallbackLinkChanged
	e.sink.Available(netID)
	e.sink.CapabilitiesChanged(netID, caps)
	e.sink.LinkPropertiesChanged(netID, link)
}

// NotifyLost closes the session for reqID. Without an open session the
// notification is dropped, keeping Lost paired one-to-one with Available.
func (d *Dispatcher) NotifyLost(reqID uint32, netID int32) {
	e, ok := d.entries.Load(reqID)
	if !ok || !e.inUse {
		return
	}
	e.inUse = false
	e.last = CallbackLost
	e.sink.Lost(netID)
}

// NotifyUnavailable reports an activation timeout. It only fires for
// requests that never got a network, so a served request cannot see
// Unavailable after Available.
func (d *Dispatcher) NotifyUnavailable(reqID uint32) {
	e, ok := d.entries.Load(reqID)
	if !ok || e.inUse {
		return
	}
	e.last = CallbackUnavailable
	e.sink.Unavailable()
}

// NotifyCapsChanged delivers a capability update inside an open session.
func (d *Dispatcher) NotifyCapsChanged(reqID uint32, netID int32, caps netcap.AllCapabilities) {
	e, ok := d.entries.Load(reqID)
	if !ok || !e.inUse {
		return
	}
	e.last = CallbackCapsChanged
	e.sink.CapabilitiesChanged(netID, caps)
}

// NotifyLinkChanged delivers a link-properties update inside an open session.
func (d *Dispatcher) NotifyLinkChanged(reqID uint32, netID int32, link netcap.LinkInfo) {
	e, ok := d.entries.Load(reqID)
	if !ok || !e.inUse {
		return
	}
	e.last = CallbackLinkChanged
	e.sink.LinkPropertiesChanged(netID, link)
}

// NotifyBlockStatus delivers a block-status flip inside an open session.
func (d *Dispatcher) NotifyBlockStatus(reqID uint32, netID int32, blocked bool) {
	e, ok := d.entries.Load(reqID)
	if !ok || !e.inUse {
		return
	}
	e.last = CallbackBlockStatus
	e.sink.BlockStatusChanged(netID, blocked)
}

// Last returns the most recent callback type delivered to reqID.
func (d *Dispatcher) Last(reqID uint32) CallbackType {
	e, ok := d.entries.Load(reqID)
	if !ok {
		return CallbackNone
	}
	return e.last
}

// Count returns the number of registered sinks.
func (d *Dispatcher) Count() int {
	return d.entries.Size()
}
