// Package health provides Kubernetes-style liveness and readiness probe
// support.
//
// Each registered probe runs in its own background goroutine at a fixed
// interval. Probes use consecutive failure/success thresholds, as Kubernetes
// probes do, so a single blip never flips the reported state: a probe must
// fail failAfter times in a row to go unhealthy and pass passAfter times in
// a row to recover.
package health

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"sync/atomic"
	"time"
)

// CheckFunc probes one component. It returns nil when the component is
// healthy or an error describing the problem.
type CheckFunc func(ctx context.Context) error

// probe couples a CheckFunc with its thresholds and runtime state.
//
// observe() runs from exactly one goroutine (the ticker), so the streak
// counters need no synchronization. The up flag and lastErr are read by
// HTTP handlers from arbitrary goroutines and use atomics.
type probe struct {
	name      string
	timeout   time.Duration
	check     CheckFunc
	failAfter int
	passAfter int

	up      atomic.Bool
	lastErr atomic.Pointer[error]

	// streak counters, touched only by observe().
	fails  int
	passes int
}

func newProbe(name string, timeout time.Duration, check CheckFunc) *probe {
	p := &probe{
		name:      name,
		timeout:   timeout,
		check:     check,
		failAfter: 3,
		passAfter: 1,
	}
	p.up.Store(true) // assume healthy until proven otherwise
	return p
}

// observe runs the check once and updates the streaks. Must be called from
// a single goroutine.
func (p *probe) observe(ctx context.Context) {
	checkCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	err := p.check(checkCtx)
	p.lastErr.Store(&err)

	if err != nil {
		p.passes = 0
		p.fails++
		if p.fails >= p.failAfter {
			p.up.Store(false)
		}
		return
	}
	p.fails = 0
	p.passes++
	if p.passes >= p.passAfter {
		p.up.Store(true)
	}
}

func (p *probe) healthy() bool {
	return p.up.Load()
}

func (p *probe) err() error {
	if e := p.lastErr.Load(); e != nil {
		return *e
	}
	return nil
}

// Health manages liveness and readiness probes for a service.
type Health struct {
	accepting atomic.Bool

	// mu protects the probe slices and cancel. Registration happens before
	// Start; HTTP handlers snapshot the slices under RLock and release
	// immediately.
	mu     sync.RWMutex
	live   []*probe
	ready  []*probe
	cancel context.CancelFunc
}

// New creates a Health instance. The service starts not ready; call
// SetReady(true) once initialization is done.
func New() *Health {
	return &Health{}
}

// AddLivenessCheck registers a probe deciding whether the process is alive
// at all. Typical checks: goroutine count, GC pause duration.
func (h *Health) AddLivenessCheck(name string, timeout time.Duration, check CheckFunc) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.live = append(h.live, newProbe(name, timeout, check))
}

// AddReadinessCheck registers a probe deciding whether the service can take
// traffic. Typical checks: database connectivity, dependent services.
func (h *Health) AddReadinessCheck(name string, timeout time.Duration, check CheckFunc) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.ready = append(h.ready, newProbe(name, timeout, check))
}

// Start launches one goroutine per registered probe, each running the check
// at the given interval until ctx is cancelled or Stop is called. Register
// all probes before calling Start.
func (h *Health) Start(ctx context.Context, interval time.Duration) {
	ctx, cancel := context.WithCancel(ctx)

	h.mu.Lock()
	h.cancel = cancel
	probes := make([]*probe, 0, len(h.live)+len(h.ready))
	probes = append(probes, h.live...)
	probes = append(probes, h.ready...)
	h.mu.Unlock()

	for _, p := range probes {
		go func(p *probe) {
			ticker := time.NewTicker(interval)
			defer ticker.Stop()

			// First observation immediately, not one interval later.
			p.observe(ctx)
			for {
				select {
				case <-ctx.Done():
					return
				case <-ticker.C:
					p.observe(ctx)
				}
			}
		}(p)
	}
}

// Stop cancels all probe goroutines. Safe to call more than once.
func (h *Health) Stop() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.cancel != nil {
		h.cancel()
		h.cancel = nil
	}
}

// SetReady flips the manual readiness gate. Typically called with true after
// startup and with false at the start of graceful shutdown so load balancers
// stop routing new traffic here.
func (h *Health) SetReady(ready bool) {
	h.accepting.Store(ready)
}

// IsReady reports whether the service should receive traffic: the manual
// gate must be open and every readiness probe passing.
func (h *Health) IsReady() bool {
	if !h.accepting.Load() {
		return false
	}

	h.mu.RLock()
	probes := h.ready
	h.mu.RUnlock()

	for _, p := range probes {
		if !p.healthy() {
			return false
		}
	}
	return true
}

// statusResponse is the JSON body for the probe endpoints.
type statusResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

// LiveEndpoint serves /livez: 200 {"status":"ok"} while all liveness probes
// pass, 503 with per-probe failures otherwise.
func (h *Health) LiveEndpoint(w http.ResponseWriter, _ *http.Request) {
	h.mu.RLock()
	probes := make([]*probe, len(h.live))
	copy(probes, h.live)
	h.mu.RUnlock()

	writeStatus(w, failures(probes))
}

// ReadyEndpoint serves /readyz: 200 only when the manual gate is open and
// every readiness probe passes.
func (h *Health) ReadyEndpoint(w http.ResponseWriter, _ *http.Request) {
	accepting := h.accepting.Load()

	h.mu.RLock()
	probes := make([]*probe, len(h.ready))
	copy(probes, h.ready)
	h.mu.RUnlock()

	failed := failures(probes)
	if !accepting {
		failed["_readiness"] = "service is not ready"
	}
	writeStatus(w, failed)
}

// failures maps each unhealthy probe to its last error message. The stored
// error is used rather than re-running the check, so the endpoints stay
// cheap no matter how often they are polled.
func failures(probes []*probe) map[string]string {
	failed := make(map[string]string)
	for _, p := range probes {
		if p.healthy() {
			continue
		}
		if err := p.err(); err != nil {
			failed[p.name] = err.Error()
		} else {
			failed[p.name] = "check is unhealthy"
		}
	}
	return failed
}

func writeStatus(w http.ResponseWriter, failed map[string]string) {
	w.Header().Set("Content-Type", "application/json")

	resp := statusResponse{Status: "ok"}
	status := http.StatusOK
	if len(failed) > 0 {
		resp.Status = "unhealthy"
		resp.Checks = failed
		status = http.StatusServiceUnavailable
	}

	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(resp)
}
