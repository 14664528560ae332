package metrics

import (
	"sync"
	"sync/atomic"
	"time"
)

// Collector holds hot-path atomic counters for global and per-bearer
// metrics. All fields are updated with atomic operations for lock-free
// recording from the handler goroutine and probe workers.
type Collector struct {
	global *counters
	bearer sync.Map // string -> *counters

	switchMu     sync.Mutex
	switchRing   []DefaultSwitchEvent
	switchCursor int
}

// counters holds atomic counters for one measurement scope.
type counters struct {
	supplierRegs   atomic.Int64
	supplierUnregs atomic.Int64
	requestRegs    atomic.Int64
	requestUnregs  atomic.Int64
	rematches      atomic.Int64

	callbacks sync.Map // CallbackKind -> *atomic.Int64
	verdicts  sync.Map // VerdictKind -> *atomic.Int64

	// Probe RTT histogram: bucket[i] = count of probes with rtt in
	// [i*binWidth, (i+1)*binWidth). The last bucket is overflow.
	rttBuckets []atomic.Int64
	rttBinMs   int
	rttOverMs  int
}

// Snapshot is a point-in-time copy of one scope's counters.
type Snapshot struct {
	SupplierRegistrations   int64                  `json:"supplier_registrations"`
	SupplierUnregistrations int64                  `json:"supplier_unregistrations"`
	RequestRegistrations    int64                  `json:"request_registrations"`
	RequestUnregistrations  int64                  `json:"request_unregistrations"`
	Rematches               int64                  `json:"rematches"`
	Callbacks               map[CallbackKind]int64 `json:"callbacks"`
	Verdicts                map[VerdictKind]int64  `json:"verdicts"`
	RTTBuckets              []int64                `json:"rtt_buckets"`
	RTTBinMs                int                    `json:"rtt_bin_ms"`
	RTTOverMs               int                    `json:"rtt_over_ms"`
}

const defaultSwitchRingSize = 64

// NewCollector creates a Collector with the given probe RTT histogram shape.
func NewCollector(rttBinMs, rttOverflowMs int) *Collector {
	if rttBinMs <= 0 {
		rttBinMs = 50
	}
	if rttOverflowMs <= 0 {
		rttOverflowMs = 5000
	}
	return &Collector{
		global:     newCounters(rttBinMs, rttOverflowMs),
		switchRing: make([]DefaultSwitchEvent, 0, defaultSwitchRingSize),
	}
}

func newCounters(binMs, overMs int) *counters {
	regular := (overMs + binMs - 1) / binMs
	if regular <= 0 {
		regular = 1
	}
	return &counters{
		rttBuckets: make([]atomic.Int64, regular+1),
		rttBinMs:   binMs,
		rttOverMs:  overMs,
	}
}

func (c *Collector) perBearer(bearer string) *counters {
	if bearer == "" {
		return nil
	}
	if v, ok := c.bearer.Load(bearer); ok {
		return v.(*counters)
	}
	nc := newCounters(c.global.rttBinMs, c.global.rttOverMs)
	actual, _ := c.bearer.LoadOrStore(bearer, nc)
	return actual.(*counters)
}

// RecordSupplier records a supplier registration or unregistration.
func (c *Collector) RecordSupplier(bearer string, registered bool) {
	scopes := []*counters{c.global}
	if bc := c.perBearer(bearer); bc != nil {
		scopes = append(scopes, bc)
	}
	for _, ct := range scopes {
		if registered {
			ct.supplierRegs.Add(1)
		} else {
			ct.supplierUnregs.Add(1)
		}
	}
}

// RecordRequest records a request registration or release.
func (c *Collector) RecordRequest(registered bool) {
	if registered {
		c.global.requestRegs.Add(1)
	} else {
		c.global.requestUnregs.Add(1)
	}
}

// RecordRematch records one full re-evaluation pass.
func (c *Collector) RecordRematch() {
	c.global.rematches.Add(1)
}

// RecordCallback records one consumer notification.
func (c *Collector) RecordCallback(kind CallbackKind) {
	bump(&c.global.callbacks, kind)
}

// RecordVerdict records one detection outcome with its probe RTT.
func (c *Collector) RecordVerdict(bearer string, kind VerdictKind, rtt time.Duration) {
	bump(&c.global.verdicts, kind)
	c.recordRTT(c.global, rtt)
	if bc := c.perBearer(bearer); bc != nil {
		bump(&bc.verdicts, kind)
		c.recordRTT(bc, rtt)
	}
}

// RecordDefaultSwitch appends a default-network change to the bounded ring.
func (c *Collector) RecordDefaultSwitch(oldNetID, newNetID int32) {
	ev := DefaultSwitchEvent{OldNetID: oldNetID, NewNetID: newNetID, UnixNano: time.Now().UnixNano()}
	c.switchMu.Lock()
	defer c.switchMu.Unlock()
	if len(c.switchRing) < defaultSwitchRingSize {
		c.switchRing = append(c.switchRing, ev)
		return
	}
	c.switchRing[c.switchCursor] = ev
	c.switchCursor = (c.switchCursor + 1) % defaultSwitchRingSize
}

// DefaultSwitches returns the recorded default-network changes, oldest first.
func (c *Collector) DefaultSwitches() []DefaultSwitchEvent {
	c.switchMu.Lock()
	defer c.switchMu.Unlock()
	out := make([]DefaultSwitchEvent, 0, len(c.switchRing))
	out = append(out, c.switchRing[c.switchCursor:]...)
	out = append(out, c.switchRing[:c.switchCursor]...)
	return out
}

func bump(m *sync.Map, key any) {
	if v, ok := m.Load(key); ok {
		v.(*atomic.Int64).Add(1)
		return
	}
	nv := &atomic.Int64{}
	actual, _ := m.LoadOrStore(key, nv)
	actual.(*atomic.Int64).Add(1)
}

func (c *Collector) recordRTT(ct *counters, rtt time.Duration) {
	if rtt <= 0 {
		return
	}
	ms := rtt.Milliseconds()
	overflowIdx := len(ct.rttBuckets) - 1
	if ms >= int64(ct.rttOverMs) {
		ct.rttBuckets[overflowIdx].Add(1)
		return
	}
	idx := int(ms / int64(ct.rttBinMs))
	if idx >= overflowIdx {
		idx = overflowIdx - 1
	}
	ct.rttBuckets[idx].Add(1)
}

// SnapshotGlobal returns a snapshot of the global counters.
func (c *Collector) SnapshotGlobal() Snapshot {
	return snapshotOf(c.global)
}

// SnapshotBearer returns a snapshot for one bearer scope.
func (c *Collector) SnapshotBearer(bearer string) (Snapshot, bool) {
	v, ok := c.bearer.Load(bearer)
	if !ok {
		return Snapshot{}, false
	}
	return snapshotOf(v.(*counters)), true
}

// SnapshotBearers returns snapshots for every bearer seen so far.
func (c *Collector) SnapshotBearers() map[string]Snapshot {
	out := make(map[string]Snapshot)
	c.bearer.Range(func(key, value any) bool {
		out[key.(string)] = snapshotOf(value.(*counters))
		return true
	})
	return out
}

func snapshotOf(ct *counters) Snapshot {
	s := Snapshot{
		SupplierRegistrations:   ct.supplierRegs.Load(),
		SupplierUnregistrations: ct.supplierUnregs.Load(),
		RequestRegistrations:    ct.requestRegs.Load(),
		RequestUnregistrations:  ct.requestUnregs.Load(),
		Rematches:               ct.rematches.Load(),
		Callbacks:               make(map[CallbackKind]int64),
		Verdicts:                make(map[VerdictKind]int64),
		RTTBuckets:              make([]int64, len(ct.rttBuckets)),
		RTTBinMs:                ct.rttBinMs,
		RTTOverMs:               ct.rttOverMs,
	}
	ct.callbacks.Range(func(key, value any) bool {
		s.Callbacks[key.(CallbackKind)] = value.(*atomic.Int64).Load()
		return true
	})
	ct.verdicts.Range(func(key, value any) bool {
		s.Verdicts[key.(VerdictKind)] = value.(*atomic.Int64).Load()
		return true
	})
	for i := range ct.rttBuckets {
		s.RTTBuckets[i] = ct.rttBuckets[i].Load()
	}
	return s
}
