// Package conn implements the connectivity arbitration engine: supplier and
// request registries, score-based matching, default-network selection, and
// callback fanout. All registry mutation happens on a single handler
// goroutine fed by a task queue; read paths go through concurrent maps and
// the entities' own guarded accessors.
package conn

import (
	"log"
	"sync"
	"sync/atomic"

	"github.com/puzpuzpuz/xsync/v4"

	"github.com/arbiternet/arbiter/internal/detect"
	"github.com/arbiternet/arbiter/internal/dispatch"
	"github.com/arbiternet/arbiter/internal/metrics"
	"github.com/arbiternet/arbiter/internal/netcap"
	"github.com/arbiternet/arbiter/internal/netsys"
	"github.com/arbiternet/arbiter/internal/network"
	"github.com/arbiternet/arbiter/internal/request"
	"github.com/arbiternet/arbiter/internal/settings"
	"github.com/arbiternet/arbiter/internal/supplier"
)

// MaxRequestsPerUID is the default per-uid request quota.
const MaxRequestsPerUID = 2000

const taskQueueDepth = 256

// Config assembles a Service. Netsys and Log are required; the rest may be
// nil to disable the corresponding integration.
type Config struct {
	Netsys   netsys.Client
	Detect   *detect.Manager
	Settings *settings.Store
	Metrics  *metrics.Collector
	Scores   supplier.ScoreTable
	Log      *log.Logger

	// RequestQuota overrides MaxRequestsPerUID when positive.
	RequestQuota int
}

// Service is the engine. Public methods are callable from any goroutine.
type Service struct {
	sys    netsys.Client
	det    *detect.Manager
	store  *settings.Store
	met    *metrics.Collector
	scores supplier.ScoreTable
	log    *log.Logger
	quota  int

	dispatcher *dispatch.Dispatcher

	suppliers   *xsync.Map[uint32, *supplier.Supplier]
	requests    *xsync.Map[uint32, *request.Activate]
	byKey       *xsync.Map[supplier.Key, uint32]
	detectSinks *xsync.Map[int32, []DetectionSink]

	idPool *network.IDPool

	nextSupplierID atomic.Uint32
	nextRequestID  atomic.Uint32
	regSeq         atomic.Uint64

	defaultSupplier atomic.Uint32 // 0 = none

	tasks   chan func()
	stopCh  chan struct{}
	stopped atomic.Bool
	wg      sync.WaitGroup

	// Handler-goroutine state. Touched only from the task loop.
	uidCounts          map[uint32]int
	airplane           bool
	restrictBackground bool
}

// NewService builds the engine. Call Start before use.
func NewService(cfg Config) *Service {
	scores := cfg.Scores
	if scores == nil {
		scores = supplier.DefaultScores()
	}
	quota := cfg.RequestQuota
	if quota <= 0 {
		quota = MaxRequestsPerUID
	}
	met := cfg.Metrics
	if met == nil {
		met = metrics.NewCollector(0, 0)
	}
	s := &Service{
		sys:         cfg.Netsys,
		det:         cfg.Detect,
		store:       cfg.Settings,
		met:         met,
		scores:      scores,
		log:         cfg.Log,
		quota:       quota,
		dispatcher:  dispatch.NewDispatcher(cfg.Log),
		suppliers:   xsync.NewMap[uint32, *supplier.Supplier](),
		requests:    xsync.NewMap[uint32, *request.Activate](),
		byKey:       xsync.NewMap[supplier.Key, uint32](),
		detectSinks: xsync.NewMap[int32, []DetectionSink](),
		idPool:      network.NewIDPool(),
		tasks:       make(chan func(), taskQueueDepth),
		stopCh:      make(chan struct{}),
		uidCounts:   make(map[uint32]int),
	}
	return s
}

// Start launches the handler loop, seeds the system default request, and
// restores persisted settings that shape matching.
func (s *Service) Start() {
	s.requests.Store(request.DefaultID, request.New(request.DefaultID, 0, netcap.Specifier{}))
	if s.store != nil {
		s.airplane = s.store.AirplaneMode()
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.loop()
	}()
}

// Stop halts the handler loop. Calls after Stop return ErrStopped.
func (s *Service) Stop() {
	if !s.stopped.CompareAndSwap(false, true) {
		return
	}
	close(s.stopCh)
	s.wg.Wait()
}

func (s *Service) loop() {
	for {
		select {
		case <-s.stopCh:
			return
		case fn := <-s.tasks:
			fn()
		}
	}
}

// post queues fn for the handler goroutine.
func (s *Service) post(fn func()) bool {
	select {
	case s.tasks <- fn:
		return true
	case <-s.stopCh:
		return false
	}
}

// call runs fn on the handler goroutine and waits for it.
func (s *Service) call(fn func()) error {
	done := make(chan struct{})
	if !s.post(func() {
		defer close(done)
		fn()
	}) {
		return ErrStopped
	}
	select {
	case <-done:
		return nil
	case <-s.stopCh:
		return ErrStopped
	}
}

// Dispatcher exposes the callback dispatcher for diagnostics.
func (s *Service) Dispatcher() *dispatch.Dispatcher { return s.dispatcher }

// Metrics exposes the engine's collector.
func (s *Service) Metrics() *metrics.Collector { return s.met }

func (s *Service) supplierByNetID(netID int32) (*supplier.Supplier, bool) {
	var found *supplier.Supplier
	s.suppliers.Range(func(_ uint32, sup *supplier.Supplier) bool {
		if sup.NetID() == netID {
			found = sup
			return false
		}
		return true
	})
	return found, found != nil
}
