package device

import (
	"sync"
	"time"
)

// Monitor polls device enumeration for hotplug changes, adapting its
// poll interval between baseInterval and maxInterval depending on how
// recently a change was observed, across malgo's cross-platform device
// enumeration.
type Monitor struct {
	engine *Engine

	mu        sync.RWMutex
	running   bool
	stop      chan struct{}

	baseInterval    time.Duration
	maxInterval     time.Duration
	currentInterval time.Duration
	noChangeCount   int

	lastPlaybackCount int
	lastCaptureCount  int

	onDeviceListChanged func()
}

func newMonitor(e *Engine) *Monitor {
	return &Monitor{
		engine:          e,
		baseInterval:    50 * time.Millisecond,
		maxInterval:     200 * time.Millisecond,
		currentInterval: 50 * time.Millisecond,
	}
}

// OnDeviceListChanged registers a callback fired whenever playback or
// capture device counts change between polls.
func (m *Monitor) OnDeviceListChanged(fn func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onDeviceListChanged = fn
}

// Start begins polling at the base interval, in a background goroutine.
func (m *Monitor) Start() error {
	m.mu.Lock()
	if m.running {
		m.mu.Unlock()
		return nil
	}
	playback, _ := m.engine.ListPlaybackDevices()
	capture, _ := m.engine.ListCaptureDevices()
	m.lastPlaybackCount = len(playback)
	m.lastCaptureCount = len(capture)
	m.running = true
	m.stop = make(chan struct{})
	m.mu.Unlock()

	go m.loop()
	return nil
}

// Stop halts polling.
func (m *Monitor) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.running {
		return
	}
	m.running = false
	close(m.stop)
}

func (m *Monitor) loop() {
	m.mu.RLock()
	interval := m.currentInterval
	stop := m.stop
	m.mu.RUnlock()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			m.check()

			m.mu.RLock()
			next := m.currentInterval
			m.mu.RUnlock()
			if next != interval {
				ticker.Stop()
				ticker = time.NewTicker(next)
				interval = next
			}
		}
	}
}

func (m *Monitor) check() {
	playback, err := m.engine.ListPlaybackDevices()
	if err != nil {
		return
	}
	capture, err := m.engine.ListCaptureDevices()
	if err != nil {
		return
	}

	m.mu.Lock()
	changed := len(playback) != m.lastPlaybackCount || len(capture) != m.lastCaptureCount
	m.lastPlaybackCount = len(playback)
	m.lastCaptureCount = len(capture)
	if changed {
		m.adaptiveSpeedup()
	} else {
		m.adaptiveSlowdown()
	}
	cb := m.onDeviceListChanged
	m.mu.Unlock()

	if changed && cb != nil {
		cb()
	}
}

// adaptiveSlowdown increases the poll interval towards maxInterval after
// 10 consecutive no-change polls, trading latency for idle CPU.
func (m *Monitor) adaptiveSlowdown() {
	m.noChangeCount++
	if m.noChangeCount <= 10 {
		return
	}
	next := time.Duration(float64(m.currentInterval) * 1.1)
	if next > m.maxInterval {
		next = m.maxInterval
	}
	m.currentInterval = next
}

// adaptiveSpeedup resets to the base interval once a change is observed.
func (m *Monitor) adaptiveSpeedup() {
	m.noChangeCount = 0
	m.currentInterval = m.baseInterval
}
