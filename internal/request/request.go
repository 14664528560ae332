// Package request models one registered connectivity request: its
// specifier, owner, optional activation timeout, and the supplier it is
// currently bound to.
package request

import (
	"sync"
	"time"

	"github.com/arbiternet/arbiter/internal/netcap"
)

// DefaultID is the request id reserved for the system default request that
// keeps the best internet-capable network selected at all times.
const DefaultID uint32 = 0

// Activate is one live request. Identity fields are immutable; binding and
// timer state are guarded so the timeout callback may race API calls.
type Activate struct {
	id         uint32
	uid        uint32
	spec       netcap.Specifier
	registered time.Time

	mu          sync.Mutex
	timer       *time.Timer
	supplierID  uint32
	hasSupplier bool
}

// New creates a request owned by uid with the given specifier.
func New(id, uid uint32, spec netcap.Specifier) *Activate {
	return &Activate{
		id:         id,
		uid:        uid,
		spec:       spec,
		registered: time.Now(),
	}
}

func (a *Activate) ID() uint32                  { return a.id }
func (a *Activate) UID() uint32                 { return a.uid }
func (a *Activate) Specifier() netcap.Specifier { return a.spec }
func (a *Activate) Registered() time.Time       { return a.registered }

// IsDefault reports whether this is the system default request.
func (a *Activate) IsDefault() bool { return a.id == DefaultID }

// MatchSupplier reports whether a supplier with the given identity and
// capability snapshot satisfies this request's specifier. All four axes
// (capabilities, bearer, ident, bandwidth) must pass.
func (a *Activate) MatchSupplier(bearer netcap.Bearer, ident string, caps netcap.AllCapabilities) bool {
	return a.spec.MatchCaps(caps.Caps) &&
		a.spec.MatchBearer(bearer) &&
		a.spec.MatchIdent(ident) &&
		a.spec.MatchBandwidth(caps.LinkUpKbps, caps.LinkDownKbps)
}

// BindSupplier records the supplier currently serving this request and
// cancels any pending activation timeout.
func (a *Activate) BindSupplier(supplierID uint32) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.supplierID = supplierID
	a.hasSupplier = true
	a.stopTimerLocked()
}

// UnbindSupplier clears the binding, returning the supplier that was bound.
func (a *Activate) UnbindSupplier() (uint32, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	id, ok := a.supplierID, a.hasSupplier
	a.supplierID = 0
	a.hasSupplier = false
	return id, ok
}

// BoundSupplier returns the serving supplier id, if any.
func (a *Activate) BoundSupplier() (uint32, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.supplierID, a.hasSupplier
}

// StartTimeout arms the activation timer. fire runs on the timer goroutine
// after d elapses unless the request binds a supplier or is torn down first.
// A non-positive d leaves the request waiting forever.
func (a *Activate) StartTimeout(d time.Duration, fire func()) {
	if d <= 0 {
		return
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.stopTimerLocked()
	a.timer = time.AfterFunc(d, fire)
}

// StopTimeout cancels a pending activation timer.
func (a *Activate) StopTimeout() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.stopTimerLocked()
}

func (a *Activate) stopTimerLocked() {
	if a.timer != nil {
		a.timer.Stop()
		a.timer = nil
	}
}
