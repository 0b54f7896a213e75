package monitor

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

const probeTimeout = 3 * time.Second

// Check is one named dependency probe. A failing Critical check makes the
// service report itself unhealthy.
type Check struct {
	Name     string
	Critical bool
	Probe    func(ctx context.Context) error
}

// Monitor polls its checks in the background and serves the last result.
type Monitor struct {
	checks []Check

	status   Status
	mu       sync.RWMutex
	interval time.Duration
	stopCh   chan struct{}
	stopOnce sync.Once
	logger   *zap.Logger
}

func New(checks []Check, interval time.Duration, logger *zap.Logger) *Monitor {
	if interval <= 0 {
		interval = 10 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Monitor{
		checks:   checks,
		interval: interval,
		stopCh:   make(chan struct{}),
		logger:   logger,
	}
}

// Start runs one synchronous refresh and then polls until Stop.
func (m *Monitor) Start() {
	m.Refresh()
	go m.loop()
}

func (m *Monitor) Stop() {
	m.stopOnce.Do(func() { close(m.stopCh) })
}

func (m *Monitor) IsHealthy() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.status.Healthy
}

func (m *Monitor) GetStatus() Status {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := m.status
	out.Checks = make(map[string]bool, len(m.status.Checks))
	for k, v := range m.status.Checks {
		out.Checks[k] = v
	}
	return out
}

func (m *Monitor) loop() {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.Refresh()
		case <-m.stopCh:
			return
		}
	}
}

// Refresh probes every check once.
func (m *Monitor) Refresh() {
	status := Status{
		Healthy:   true,
		Checks:    make(map[string]bool, len(m.checks)),
		LastCheck: time.Now().UTC(),
	}
	for _, check := range m.checks {
		ok := m.probe(check)
		status.Checks[check.Name] = ok
		if !ok && check.Critical {
			status.Healthy = false
		}
	}

	m.mu.Lock()
	previous := m.status
	m.status = status
	m.mu.Unlock()

	if previous.Checks != nil && previous.Healthy != status.Healthy {
		m.logger.Info("health changed", zap.Bool("healthy", status.Healthy), zap.Any("checks", status.Checks))
	}
}

func (m *Monitor) probe(check Check) bool {
	ctx, cancel := context.WithTimeout(context.Background(), probeTimeout)
	defer cancel()
	if err := check.Probe(ctx); err != nil {
		m.logger.Warn("health probe failed", zap.String("check", check.Name), zap.Error(err))
		return false
	}
	return true
}
