package prometheus

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/hlavacs/vgjs-go/core"
	prom "github.com/prometheus/client_golang/prometheus"
)

// PoolSnapshotProvider provides a point-in-time core.Pool.Stats() snapshot.
// core.Pool itself satisfies this.
type PoolSnapshotProvider interface {
	Stats() core.PoolStats
}

// SnapshotPoller periodically pulls a Pool's Stats() into gauges, since the
// queue-depth walks in core.localQueue.len/core.sharedQueue.len are
// best-effort and too costly to run on every push/pop (spec.md §4.F). Several
// pools may be registered under distinct names against one poller.
type SnapshotPoller struct {
	interval time.Duration

	poolsMu sync.RWMutex
	pools   map[string]PoolSnapshotProvider

	workers      *prom.GaugeVec
	centralDepth *prom.GaugeVec
	recycleDepth *prom.GaugeVec
	localDepth   *prom.GaugeVec

	stateMu sync.Mutex
	running bool
	cancel  context.CancelFunc
	done    chan struct{}
}

// NewSnapshotPoller creates a snapshot poller and registers its collectors.
func NewSnapshotPoller(reg prom.Registerer, interval time.Duration) (*SnapshotPoller, error) {
	if reg == nil {
		reg = prom.DefaultRegisterer
	}
	if interval <= 0 {
		interval = time.Second
	}

	workers := prom.NewGaugeVec(prom.GaugeOpts{
		Namespace: "vgjs",
		Name:      "pool_workers",
		Help:      "Worker count per pool.",
	}, []string{"pool"})
	centralDepth := prom.NewGaugeVec(prom.GaugeOpts{
		Namespace: "vgjs",
		Name:      "pool_central_queue_depth",
		Help:      "Central (shared fallback) queue depth per pool.",
	}, []string{"pool"})
	recycleDepth := prom.NewGaugeVec(prom.GaugeOpts{
		Namespace: "vgjs",
		Name:      "pool_recycle_queue_depth",
		Help:      "Recycle queue depth per pool.",
	}, []string{"pool"})
	localDepth := prom.NewGaugeVec(prom.GaugeOpts{
		Namespace: "vgjs",
		Name:      "pool_local_queue_depth",
		Help:      "Per-worker local queue depth.",
	}, []string{"pool", "worker"})

	var err error
	if workers, err = registerCollector(reg, workers); err != nil {
		return nil, err
	}
	if centralDepth, err = registerCollector(reg, centralDepth); err != nil {
		return nil, err
	}
	if recycleDepth, err = registerCollector(reg, recycleDepth); err != nil {
		return nil, err
	}
	if localDepth, err = registerCollector(reg, localDepth); err != nil {
		return nil, err
	}

	return &SnapshotPoller{
		interval:     interval,
		pools:        make(map[string]PoolSnapshotProvider),
		workers:      workers,
		centralDepth: centralDepth,
		recycleDepth: recycleDepth,
		localDepth:   localDepth,
	}, nil
}

// AddPool adds or replaces a pool snapshot provider by name.
func (p *SnapshotPoller) AddPool(name string, provider PoolSnapshotProvider) {
	if p == nil || provider == nil {
		return
	}
	name = normalizeLabel(name, "pool")
	p.poolsMu.Lock()
	p.pools[name] = provider
	p.poolsMu.Unlock()
}

// Start begins periodic polling; repeated calls are no-ops.
func (p *SnapshotPoller) Start(ctx context.Context) {
	if p == nil {
		return
	}

	p.stateMu.Lock()
	if p.running {
		p.stateMu.Unlock()
		return
	}
	pollCtx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	p.done = make(chan struct{})
	p.running = true
	p.stateMu.Unlock()

	go p.loop(pollCtx)
}

// Stop stops periodic polling; repeated calls are safe.
func (p *SnapshotPoller) Stop() {
	if p == nil {
		return
	}

	p.stateMu.Lock()
	if !p.running {
		p.stateMu.Unlock()
		return
	}
	cancel := p.cancel
	done := p.done
	p.stateMu.Unlock()

	if cancel != nil {
		cancel()
	}
	if done != nil {
		<-done
	}

	p.stateMu.Lock()
	p.running = false
	p.cancel = nil
	p.done = nil
	p.stateMu.Unlock()
}

func (p *SnapshotPoller) loop(ctx context.Context) {
	defer close(p.done)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.collectOnce()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.collectOnce()
		}
	}
}

func (p *SnapshotPoller) collectOnce() {
	p.poolsMu.RLock()
	defer p.poolsMu.RUnlock()

	for name, provider := range p.pools {
		stats := provider.Stats()
		p.workers.WithLabelValues(name).Set(float64(stats.Workers))
		p.centralDepth.WithLabelValues(name).Set(float64(stats.CentralDepth))
		p.recycleDepth.WithLabelValues(name).Set(float64(stats.RecycleDepth))
		for i, depth := range stats.LocalDepths {
			p.localDepth.WithLabelValues(name, strconv.Itoa(i)).Set(float64(depth))
		}
	}
}
