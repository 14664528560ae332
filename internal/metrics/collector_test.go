package metrics

import (
	"testing"
	"time"
)

func TestCollectorScopes(t *testing.T) {
	c := NewCollector(50, 5000)
	c.RecordSupplier("wifi", true)
	c.RecordSupplier("wifi", true)
	c.RecordSupplier("cellular", true)
	c.RecordSupplier("wifi", false)
	c.RecordRequest(true)
	c.RecordRematch()
	c.RecordCallback(CallbackAvailable)
	c.RecordCallback(CallbackAvailable)
	c.RecordCallback(CallbackLost)

	g := c.SnapshotGlobal()
	if g.SupplierRegistrations != 3 || g.SupplierUnregistrations != 1 {
		t.Fatalf("supplier counters: %+v", g)
	}
	if g.Callbacks[CallbackAvailable] != 2 || g.Callbacks[CallbackLost] != 1 {
		t.Fatalf("callback counters: %v", g.Callbacks)
	}

	wifi, ok := c.SnapshotBearer("wifi")
	if !ok || wifi.SupplierRegistrations != 2 || wifi.SupplierUnregistrations != 1 {
		t.Fatalf("wifi scope: %+v ok=%v", wifi, ok)
	}
	if _, ok := c.SnapshotBearer("bluetooth"); ok {
		t.Fatal("unseen bearer has a scope")
	}
}

func TestVerdictHistogram(t *testing.T) {
	c := NewCollector(50, 200)
	c.RecordVerdict("wifi", VerdictValid, 30*time.Millisecond)    // bucket 0
	c.RecordVerdict("wifi", VerdictValid, 120*time.Millisecond)   // bucket 2
	c.RecordVerdict("wifi", VerdictInvalid, 900*time.Millisecond) // overflow
	c.RecordVerdict("wifi", VerdictPortal, 0)                     // no rtt sample

	g := c.SnapshotGlobal()
	if g.Verdicts[VerdictValid] != 2 || g.Verdicts[VerdictInvalid] != 1 || g.Verdicts[VerdictPortal] != 1 {
		t.Fatalf("verdict counts: %v", g.Verdicts)
	}
	last := len(g.RTTBuckets) - 1
	if g.RTTBuckets[0] != 1 || g.RTTBuckets[2] != 1 || g.RTTBuckets[last] != 1 {
		t.Fatalf("rtt buckets: %v", g.RTTBuckets)
	}
	var total int64
	for _, b := range g.RTTBuckets {
		total += b
	}
	if total != 3 {
		t.Fatalf("rtt samples: got %d want 3", total)
	}
}

func TestDefaultSwitchRing(t *testing.T) {
	c := NewCollector(50, 5000)
	for i := int32(0); i < defaultSwitchRingSize+5; i++ {
		c.RecordDefaultSwitch(i, i+1)
	}
	events := c.DefaultSwitches()
	if len(events) != defaultSwitchRingSize {
		t.Fatalf("ring size: got %d want %d", len(events), defaultSwitchRingSize)
	}
	if events[0].OldNetID != 5 {
		t.Fatalf("oldest event: got %d want 5", events[0].OldNetID)
	}
	if last := events[len(events)-1]; last.NewNetID != defaultSwitchRingSize+5 {
		t.Fatalf("newest event: got %d", last.NewNetID)
	}
}
