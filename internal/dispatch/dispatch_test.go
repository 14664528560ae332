package dispatch

import (
	"io"
	"log"
	"testing"

	"github.com/google/uuid"

	"github.com/arbiternet/arbiter/internal/netcap"
)

type recordedCall struct {
	kind  CallbackType
	netID int32
}

type recordingSink struct {
	calls []recordedCall
}

func (r *recordingSink) Available(netID int32) {
	r.calls = append(r.calls, recordedCall{CallbackAvailable, netID})
}

func (r *recordingSink) CapabilitiesChanged(netID int32, _ netcap.AllCapabilities) {
	r.calls = append(r.calls, recordedCall{CallbackCapsChanged, netID})
}

func (r *recordingSink) LinkPropertiesChanged(netID int32, _ netcap.LinkInfo) {
	r.calls = append(r.calls, recordedCall{CallbackLinkChanged, netID})
}

func (r *recordingSink) Lost(netID int32) {
	r.calls = append(r.calls, recordedCall{CallbackLost, netID})
}

func (r *recordingSink) Unavailable() {
	r.calls = append(r.calls, recordedCall{CallbackUnavailable, 0})
}

func (r *recordingSink) BlockStatusChanged(netID int32, _ bool) {
	r.calls = append(r.calls, recordedCall{CallbackBlockStatus, netID})
}

func (r *recordingSink) kinds() []CallbackType {
	out := make([]CallbackType, len(r.calls))
	for i, c := range r.calls {
		out[i] = c.kind
	}
	return out
}

func testDispatcher() *Dispatcher {
	return NewDispatcher(log.New(io.Discard, "", 0))
}

func sameKinds(got, want []CallbackType) bool {
	if len(got) != len(want) {
		return false
	}
	for i := range got {
		if got[i] != want[i] {
			return false
		}
	}
	return true
}

func TestAvailableDeliversTriplet(t *testing.T) {
	d := testDispatcher()
	sink := &recordingSink{}
	d.Register(1, sink)

	d.NotifyAvailable(1, 100, netcap.AllCapabilities{}, netcap.LinkInfo{})
	want := []CallbackType{CallbackAvailable, CallbackCapsChanged, CallbackLinkChanged}
	if !sameKinds(sink.kinds(), want) {
		t.Fatalf("triplet: got %v want %v", sink.kinds(), want)
	}
	for _, c := range sink.calls {
		if c.netID != 100 {
			t.Fatalf("netID leaked: %+v", c)
		}
	}
}

func TestDuplicateAvailableSuppressed(t *testing.T) {
	d := testDispatcher()
	sink := &recordingSink{}
	d.Register(1, sink)

	d.NotifyAvailable(1, 100, netcap.AllCapabilities{}, netcap.LinkInfo{})
	d.NotifyAvailable(1, 100, netcap.AllCapabilities{}, netcap.LinkInfo{})
	if n := len(sink.calls); n != 3 {
		t.Fatalf("duplicate available delivered: %d calls", n)
	}
	d.NotifyLost(1, 100)
	d.NotifyAvailable(1, 101, netcap.AllCapabilities{}, netcap.LinkInfo{})
	want := []CallbackType{
		CallbackAvailable, CallbackCapsChanged, CallbackLinkChanged,
		CallbackLost,
		CallbackAvailable, CallbackCapsChanged, CallbackLinkChanged,
	}
	if !sameKinds(sink.kinds(), want) {
		t.Fatalf("sequence: got %v want %v", sink.kinds(), want)
	}
}

func TestSwitchClosesOldSessionFirst(t *testing.T) {
	d := testDispatcher()
	sink := &recordingSink{}
	d.Register(1, sink)

	d.NotifyAvailable(1, 100, netcap.AllCapabilities{}, netcap.LinkInfo{})
	d.NotifyAvailable(1, 101, netcap.AllCapabilities{}, netcap.LinkInfo{})
	want := []CallbackType{
		CallbackAvailable, CallbackCapsChanged, CallbackLinkChanged,
		CallbackLost,
		CallbackAvailable, CallbackCapsChanged, CallbackLinkChanged,
	}
	if !sameKinds(sink.kinds(), want) {
		t.Fatalf("switch sequence: got %v want %v", sink.kinds(), want)
	}
	if sink.calls[3].netID != 100 {
		t.Fatalf("lost for net %d, want 100", sink.calls[3].netID)
	}
	if sink.calls[4].netID != 101 {
		t.Fatalf("switch available for net %d, want 101", sink.calls[4].netID)
	}
}

func TestChangeNotificationsNeedOpenSession(t *testing.T) {
	d := testDispatcher()
	sink := &recordingSink{}
	d.Register(1, sink)

	d.NotifyCapsChanged(1, 100, netcap.AllCapabilities{})
	d.NotifyLinkChanged(1, 100, netcap.LinkInfo{})
	d.NotifyBlockStatus(1, 100, true)
	d.NotifyLost(1, 100)
	if len(sink.calls) != 0 {
		t.Fatalf("notifications delivered outside a session: %v", sink.kinds())
	}
}

func TestUnavailableOnlyBeforeAvailable(t *testing.T) {
	d := testDispatcher()
	sink := &recordingSink{}
	d.Register(1, sink)

	d.NotifyAvailable(1, 100, netcap.AllCapabilities{}, netcap.LinkInfo{})
	d.NotifyUnavailable(1)
	for _, c := range sink.calls {
		if c.kind == CallbackUnavailable {
			t.Fatal("unavailable delivered to a served request")
		}
	}

	other := &recordingSink{}
	d.Register(2, other)
	d.NotifyUnavailable(2)
	if !sameKinds(other.kinds(), []CallbackType{CallbackUnavailable}) {
		t.Fatalf("unserved request: got %v", other.kinds())
	}
}

func TestUnregisterHandleGuard(t *testing.T) {
	d := testDispatcher()
	first := &recordingSink{}
	stale := d.Register(1, first)

	second := &recordingSink{}
	d.Register(1, second)
	if d.Unregister(1, stale) {
		t.Fatal("stale handle removed the replacement sink")
	}
	if !d.Registered(1) {
		t.Fatal("replacement sink gone")
	}
	if !d.Unregister(1, uuid.Nil) {
		t.Fatal("wildcard unregister failed")
	}
	if d.Count() != 0 {
		t.Fatalf("count after unregister: %d", d.Count())
	}
}
