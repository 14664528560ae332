package detect

import (
	"log"
	"sync"
	"time"

	"github.com/maypok86/otter"
	"github.com/robfig/cron/v3"
)

// Manager owns one Monitor per detected network, remembers recent verdicts
// per carrier identity, and sweeps all monitors on a schedule so long-lived
// networks get revalidated even outside their own cadence.
type Manager struct {
	probeURL func() string
	prober   Prober
	pingHost string
	onResult func(supplierID uint32, r Result, q QualityVerdict)
	log      *log.Logger

	mu       sync.Mutex
	monitors map[uint32]*Monitor

	verdicts otter.Cache[string, Result]
	cron     *cron.Cron
}

// ManagerConfig configures a Manager. ProbeURL is a closure for hot-reload.
type ManagerConfig struct {
	ProbeURL func() string
	Prober   Prober
	PingHost string
	OnResult func(supplierID uint32, r Result, q QualityVerdict)
	Log      *log.Logger

	// SweepSpec is a cron spec for the periodic revalidation sweep.
	// Empty disables the sweep.
	SweepSpec string

	// VerdictTTL bounds how long a cached per-ident verdict is trusted.
	VerdictTTL time.Duration
}

func NewManager(cfg ManagerConfig) (*Manager, error) {
	ttl := cfg.VerdictTTL
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	verdicts, err := otter.MustBuilder[string, Result](256).
		Cost(func(_ string, _ Result) uint32 { return 1 }).
		WithTTL(ttl).
		Build()
	if err != nil {
		return nil, err
	}

	m := &Manager{
		probeURL: cfg.ProbeURL,
		prober:   cfg.Prober,
		pingHost: cfg.PingHost,
		onResult: cfg.OnResult,
		log:      cfg.Log,
		monitors: make(map[uint32]*Monitor),
		verdicts: verdicts,
	}
	if cfg.SweepSpec != "" {
		m.cron = cron.New()
		if _, err := m.cron.AddFunc(cfg.SweepSpec, m.KickAll); err != nil {
			verdicts.Close()
			return nil, err
		}
	}
	return m, nil
}

// Start begins the sweep schedule. Monitors start individually as networks
// appear.
func (m *Manager) Start() {
	if m.cron != nil {
		m.cron.Start()
	}
}

// Stop halts the sweep and every monitor.
func (m *Manager) Stop() {
	if m.cron != nil {
		<-m.cron.Stop().Done()
	}
	m.mu.Lock()
	monitors := make([]*Monitor, 0, len(m.monitors))
	for _, mon := range m.monitors {
		monitors = append(monitors, mon)
	}
	m.monitors = make(map[uint32]*Monitor)
	m.mu.Unlock()
	for _, mon := range monitors {
		mon.Stop()
	}
	m.verdicts.Close()
}

// StartMonitor begins validation for a supplier's network. A monitor already
// running for the supplier is kicked instead of replaced.
func (m *Manager) StartMonitor(supplierID uint32, ident string) {
	m.mu.Lock()
	if mon, ok := m.monitors[supplierID]; ok {
		m.mu.Unlock()
		mon.Kick()
		return
	}
	mon := NewMonitor(supplierID, ident, m.probeURL, m.prober, m.pingHost, m.recordResult, m.log)
	m.monitors[supplierID] = mon
	m.mu.Unlock()
	mon.Start()
}

// StopMonitor halts validation for a supplier's network.
func (m *Manager) StopMonitor(supplierID uint32) {
	m.mu.Lock()
	mon, ok := m.monitors[supplierID]
	delete(m.monitors, supplierID)
	m.mu.Unlock()
	if ok {
		mon.Stop()
	}
}

// Kick forces an immediate re-probe for one supplier.
func (m *Manager) Kick(supplierID uint32) bool {
	m.mu.Lock()
	mon, ok := m.monitors[supplierID]
	m.mu.Unlock()
	if ok {
		mon.Kick()
	}
	return ok
}

// KickAll forces an immediate re-probe of every monitored network.
func (m *Manager) KickAll() {
	m.mu.Lock()
	monitors := make([]*Monitor, 0, len(m.monitors))
	for _, mon := range m.monitors {
		monitors = append(monitors, mon)
	}
	m.mu.Unlock()
	for _, mon := range monitors {
		mon.Kick()
	}
}

// CachedVerdict returns the recent verdict for a carrier identity, letting a
// re-registering supplier start from its last known state instead of
// an unvalidated score.
func (m *Manager) CachedVerdict(ident string) (Result, bool) {
	return m.verdicts.Get(ident)
}

// Monitored reports whether a monitor is running for the supplier.
func (m *Manager) Monitored(supplierID uint32) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.monitors[supplierID]
	return ok
}

func (m *Manager) recordResult(supplierID uint32, r Result, q QualityVerdict) {
	m.mu.Lock()
	var ident string
	if mon, ok := m.monitors[supplierID]; ok {
		ident = mon.ident
	}
	m.mu.Unlock()
	if ident != "" {
		m.verdicts.Set(ident, r)
	}
	if m.onResult != nil {
		m.onResult(supplierID, r, q)
	}
}
