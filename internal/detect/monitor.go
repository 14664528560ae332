package detect

import (
	"context"
	"log"
	"sync"
	"time"
)

// Probe cadence. A fresh network is probed quickly; a verified one settles
// to a slow heartbeat; a portal is rechecked at a middle rate waiting for
// sign-in; failures back off exponentially.
const (
	initialInterval  = 8 * time.Second
	verifiedInterval = 30 * time.Second
	portalInterval   = 60 * time.Second
	maxFailInterval  = 300 * time.Second
)

// nextInterval picks the wait before the next probe given the last verdict
// and the consecutive failure count.
func nextInterval(st Status, fails int) time.Duration {
	switch st {
	case StatusValid:
		return verifiedInterval
	case StatusPortal:
		return portalInterval
	default:
		d := initialInterval << fails
		if d > maxFailInterval || d <= 0 {
			return maxFailInterval
		}
		return d
	}
}

// Monitor probes one network until stopped and reports each verdict.
type Monitor struct {
	supplierID uint32
	ident      string
	probeURL   func() string
	prober     Prober
	pingHost   string
	onResult   func(supplierID uint32, r Result, q QualityVerdict)
	log        *log.Logger

	stopCh chan struct{}
	wg     sync.WaitGroup

	mu    sync.Mutex
	kick  chan struct{}
	fails int
	last  Result
}

// NewMonitor creates a monitor for one supplier's network. probeURL is a
// closure so config reloads take effect on the next cycle. pingHost may be
// empty to skip quality grading.
func NewMonitor(supplierID uint32, ident string, probeURL func() string, prober Prober, pingHost string, onResult func(uint32, Result, QualityVerdict), logger *log.Logger) *Monitor {
	return &Monitor{
		supplierID: supplierID,
		ident:      ident,
		probeURL:   probeURL,
		prober:     prober,
		pingHost:   pingHost,
		onResult:   onResult,
		log:        logger,
		stopCh:     make(chan struct{}),
		kick:       make(chan struct{}, 1),
	}
}

// Start launches the probe loop. The first probe waits the initial interval
// after link-up; Kick forces one sooner.
func (m *Monitor) Start() {
	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		m.loop()
	}()
}

// Stop halts the loop and waits for the in-flight probe to finish.
func (m *Monitor) Stop() {
	close(m.stopCh)
	m.wg.Wait()
}

// Kick schedules an immediate re-probe, collapsing concurrent kicks.
func (m *Monitor) Kick() {
	select {
	case m.kick <- struct{}{}:
	default:
	}
}

// Last returns the most recent verdict.
func (m *Monitor) Last() Result {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.last
}

func (m *Monitor) loop() {
	timer := time.NewTimer(initialInterval)
	defer timer.Stop()
	for {
		select {
		case <-m.stopCh:
			return
		case <-m.kick:
			if !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
		case <-timer.C:
		}

		st := m.probeOnce()
		m.mu.Lock()
		fails := m.fails
		m.mu.Unlock()
		timer.Reset(nextInterval(st, fails))
	}
}

func (m *Monitor) probeOnce() Status {
	ctx, cancel := context.WithTimeout(context.Background(), ProbeTimeout)
	defer cancel()

	res, err := m.prober(ctx, m.probeURL())
	if err != nil {
		m.log.Printf("detect: probe %s (supplier %d): %v", m.ident, m.supplierID, err)
		res = Result{Status: StatusInvalid}
	}

	quality := QualityUnknown
	if m.pingHost != "" && res.Status == StatusValid {
		rtt, perr := PingFunc(m.pingHost)
		quality = GradeRTT(rtt, perr)
	}

	m.mu.Lock()
	if res.Status == StatusInvalid {
		m.fails++
	} else {
		m.fails = 0
	}
	m.last = res
	m.mu.Unlock()

	if m.onResult != nil {
		m.onResult(m.supplierID, res, quality)
	}
	return res.Status
}
