package supplier

import (
	"sync"
	"testing"

	"github.com/arbiternet/arbiter/internal/netcap"
)

type sinkRecorder struct {
	mu       sync.Mutex
	requests []string
	releases []string
}

func (r *sinkRecorder) RequestNetwork(ident string, _ netcap.CapSet) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.requests = append(r.requests, ident)
	return nil
}

func (r *sinkRecorder) ReleaseNetwork(ident string, _ netcap.CapSet) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.releases = append(r.releases, ident)
	return nil
}

func newTestSupplier() *Supplier {
	caps := netcap.NewCapSet(netcap.CapInternet)
	return New(1, 1, netcap.BearerWiFi, "wlan0", caps, DefaultScores())
}

func TestUpdateInfoAvailabilityEdge(t *testing.T) {
	s := newTestSupplier()
	if changed := s.UpdateInfo(Info{IsAvailable: true}); !changed {
		t.Fatal("first available report should flip availability")
	}
	if changed := s.UpdateInfo(Info{IsAvailable: true, Strength: -40}); changed {
		t.Fatal("repeat report should not flip availability")
	}
	if changed := s.UpdateInfo(Info{IsAvailable: false}); !changed {
		t.Fatal("loss report should flip availability")
	}
	if st := s.ConnState(); st != ConnStateDisconnected {
		t.Fatalf("loss should force disconnected, got %v", st)
	}
	if !s.LinkInfo().Empty() {
		t.Fatal("loss should clear link info")
	}
}

func TestScoreOverrideAndRealScore(t *testing.T) {
	s := newTestSupplier()
	if got := s.RealScore(); got != 60 {
		t.Fatalf("unvalidated wifi real score: got %d want 60", got)
	}
	s.SetValidated(true)
	if got := s.RealScore(); got != 70 {
		t.Fatalf("validated wifi real score: got %d want 70", got)
	}
	s.SetQuality(QualityPoor)
	if got := s.RealScore(); got != 50 {
		t.Fatalf("poor quality real score: got %d want 50", got)
	}
	s.UpdateInfo(Info{IsAvailable: true, Score: 90})
	s.SetQuality(QualityUnknown)
	if got := s.RealScore(); got != 90 {
		t.Fatalf("score override real score: got %d want 90", got)
	}
}

func TestValidatedMirrorsCapBit(t *testing.T) {
	s := newTestSupplier()
	if s.AllCaps().Caps.Has(netcap.CapValidated) {
		t.Fatal("fresh supplier should not carry VALIDATED")
	}
	s.SetValidated(true)
	if !s.AllCaps().Caps.Has(netcap.CapValidated) {
		t.Fatal("validation pass should set VALIDATED")
	}
	s.SetCaps(netcap.NewCapSet(netcap.CapInternet, netcap.CapNotMetered))
	if !s.AllCaps().Caps.Has(netcap.CapValidated) {
		t.Fatal("cap replacement should preserve VALIDATED")
	}
	s.SetValidated(false)
	if s.AllCaps().Caps.Has(netcap.CapValidated) {
		t.Fatal("validation failure should clear VALIDATED")
	}
}

func TestRequestToConnectAsksAgentOnce(t *testing.T) {
	s := newTestSupplier()
	rec := &sinkRecorder{}
	s.RegisterSink(rec)

	if err := s.RequestToConnect(10); err != nil {
		t.Fatalf("RequestToConnect: %v", err)
	}
	if st := s.ConnState(); st != ConnStateConnecting {
		t.Fatalf("expected connecting, got %v", st)
	}
	if err := s.RequestToConnect(11); err != nil {
		t.Fatalf("RequestToConnect: %v", err)
	}
	if len(rec.requests) != 1 {
		t.Fatalf("agent asked %d times, want 1", len(rec.requests))
	}
}

func TestCancelLastRequestReleasesNetwork(t *testing.T) {
	s := newTestSupplier()
	rec := &sinkRecorder{}
	s.RegisterSink(rec)

	s.RequestToConnect(10)
	s.RequestToConnect(11)
	if !s.CancelRequest(10) {
		t.Fatal("cancel of routed request should succeed")
	}
	if len(rec.releases) != 0 {
		t.Fatal("release fired while requests remain")
	}
	if !s.CancelRequest(11) {
		t.Fatal("cancel of routed request should succeed")
	}
	if len(rec.releases) != 1 {
		t.Fatalf("release fired %d times, want 1", len(rec.releases))
	}
	if s.CancelRequest(12) {
		t.Fatal("cancel of unknown request should report false")
	}
}

func TestReceiveBestScoreDropsLosers(t *testing.T) {
	s := newTestSupplier() // unvalidated wifi, real score 60
	rec := &sinkRecorder{}
	s.RegisterSink(rec)
	s.RequestToConnect(10)

	// Winner is this supplier: keep the request.
	s.ReceiveBestScore(10, 60, s.ID())
	if !s.CancelRequest(10) {
		t.Fatal("request dropped although supplier won")
	}

	s.RequestToConnect(10)
	// A stronger foreign supplier won: drop and release.
	s.ReceiveBestScore(10, 80, 99)
	if s.CancelRequest(10) {
		t.Fatal("request kept although supplier lost")
	}
	if len(rec.releases) != 1 {
		t.Fatalf("release fired %d times, want 1", len(rec.releases))
	}
}

func TestBestRequestBookkeeping(t *testing.T) {
	s := newTestSupplier()
	s.SelectAsBest(10)
	s.SelectAsBest(11)
	if !s.ServesRequest(10) || !s.ServesRequest(11) {
		t.Fatal("selected requests not tracked")
	}
	if got := len(s.BestRequests()); got != 2 {
		t.Fatalf("best count: got %d want 2", got)
	}
	s.RemoveBest(10)
	if s.ServesRequest(10) {
		t.Fatal("demoted request still tracked as best")
	}
	if !s.CancelRequest(10) {
		t.Fatal("demotion must not detach the request")
	}
}
