package audio

import (
	"sync"
	"time"
)

const nullPeriodFrames = 256

// nullSink drains the ring at the device rate without producing sound. In
// manual mode nothing drains and the cursor moves only through Output.Advance.
type nullSink struct {
	realtime bool

	mu       sync.Mutex
	stopCh   chan struct{}
	feedDone chan struct{}
}

func (n *nullSink) negotiate(*Format) {}

func (n *nullSink) open(f Format, r *Ring, _ *DeviceInfo) error {
	if !n.realtime {
		return nil
	}
	n.mu.Lock()
	defer n.mu.Unlock()

	n.stopCh = make(chan struct{})
	n.feedDone = make(chan struct{})
	interval := time.Duration(nullPeriodFrames) * time.Second / time.Duration(f.Rate)
	samples := nullPeriodFrames * f.Channels
	stop := n.stopCh
	done := n.feedDone

	go func() {
		defer close(done)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				r.Advance(samples)
			}
		}
	}()
	return nil
}

func (n *nullSink) close() {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.stopCh == nil {
		return
	}
	select {
	case <-n.stopCh:
	default:
		close(n.stopCh)
	}
	<-n.feedDone
	n.stopCh = nil
}
