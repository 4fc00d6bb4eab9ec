package syncengine

import "sync"

// OnlineDetector reports connectivity and notifies subscribers on
// transitions. Implementations are platform-bound in production
// (browser online/offline events, OS network reachability); this
// package only depends on the interface.
type OnlineDetector interface {
	IsOnline() bool
	Subscribe(fn func(online bool))
}

// ManualDetector is a test/manual OnlineDetector: the caller flips
// state explicitly via SetOnline.
type ManualDetector struct {
	mu          sync.Mutex
	online      bool
	subscribers []func(bool)
}

func NewManualDetector(initiallyOnline bool) *ManualDetector {
	return &ManualDetector{online: initiallyOnline}
}

func (d *ManualDetector) IsOnline() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.online
}

func (d *ManualDetector) Subscribe(fn func(online bool)) {
	d.mu.Lock()
	d.subscribers = append(d.subscribers, fn)
	d.mu.Unlock()
}

// SetOnline updates state and, on an actual transition, notifies
// subscribers synchronously.
func (d *ManualDetector) SetOnline(online bool) {
	d.mu.Lock()
	changed := d.online != online
	d.online = online
	subs := append([]func(bool){}, d.subscribers...)
	d.mu.Unlock()

	if !changed {
		return
	}
	for _, fn := range subs {
		fn(online)
	}
}

// PollingDetector starts online and flips offline after failThreshold
// consecutive ReportOutcome(true) calls, flipping back online on the
// next ReportOutcome(false). It does not poll or watch outbound sync
// itself; its caller reports each attempt's outcome via ReportOutcome.
type PollingDetector struct {
	mu              sync.Mutex
	online          bool
	subscribers     []func(bool)
	consecutiveFail int
	threshold       int
}

// NewPollingDetector builds a detector that declares itself offline
// after failThreshold consecutive transient-failure reports.
func NewPollingDetector(failThreshold int) *PollingDetector {
	if failThreshold <= 0 {
		failThreshold = 3
	}
	return &PollingDetector{online: true, threshold: failThreshold}
}

func (d *PollingDetector) IsOnline() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.online
}

func (d *PollingDetector) Subscribe(fn func(online bool)) {
	d.mu.Lock()
	d.subscribers = append(d.subscribers, fn)
	d.mu.Unlock()
}

// ReportOutcome feeds one outbound-sync attempt's result back into the
// detector. transientFailure marks the whole attempt as having failed
// to reach the server at all (as opposed to individual event
// rejections, which do not affect connectivity).
func (d *PollingDetector) ReportOutcome(transientFailure bool) {
	d.mu.Lock()
	wasOnline := d.online
	if transientFailure {
		d.consecutiveFail++
		if d.consecutiveFail >= d.threshold {
			d.online = false
		}
	} else {
		d.consecutiveFail = 0
		d.online = true
	}
	nowOnline := d.online
	subs := append([]func(bool){}, d.subscribers...)
	d.mu.Unlock()

	if wasOnline != nowOnline {
		for _, fn := range subs {
			fn(nowOnline)
		}
	}
}
