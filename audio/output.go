package audio

import (
	"fmt"
	"strings"
	"sync"

	"omegasnd/log"
)

// Backends lists the names accepted by NewOutput, besides "auto".
var Backends = []string{platformBackend, "oto", "null"}

// Output is a playable DMA ring: the mixer paints into it between
// BeginPainting and Submit while a backend drains it.
type Output struct {
	backend string
	want    Format
	device  *DeviceInfo

	mu     sync.Mutex
	format Format
	ring   *Ring
	sink   sink
	open   bool
}

// NewOutput prepares an output for the named backend. Nothing is opened
// until Init.
func NewOutput(backend string, want Format, device *DeviceInfo) (*Output, error) {
	backend = strings.ToLower(strings.TrimSpace(backend))
	if backend == "" {
		backend = "auto"
	}
	if backend != "auto" {
		if _, err := newSink(backend); err != nil {
			return nil, err
		}
	}
	return &Output{backend: backend, want: want, device: device}, nil
}

// NewManualOutput returns an output whose play cursor only moves through
// Advance, for tests and offline rendering.
func NewManualOutput(want Format) *Output {
	return &Output{backend: "manual", want: want}
}

func newSink(name string) (sink, error) {
	switch name {
	case platformBackend:
		return newPlatformSink(), nil
	case "oto":
		return &otoSink{}, nil
	case "null":
		return &nullSink{realtime: true}, nil
	case "manual":
		return &nullSink{}, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, name)
}

// Init opens the backend. "auto" tries the platform backend, then oto,
// then falls back to the null backend so the mixer keeps running.
func (o *Output) Init() (Format, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.open {
		return o.format, nil
	}

	candidates := []string{o.backend}
	if o.backend == "auto" {
		candidates = Backends
	}

	var lastErr error
	for _, name := range candidates {
		s, err := newSink(name)
		if err != nil {
			return Format{}, err
		}
		f := o.want
		if f.Channels <= 0 {
			f = DefaultFormat(f.Rate)
		}
		s.negotiate(&f)
		r := NewRing(f)
		if err := s.open(f, r, o.device); err != nil {
			log.Warnf("audio backend %s unavailable: %v", name, err)
			lastErr = err
			continue
		}
		o.backend = name
		o.format = f
		o.ring = r
		o.sink = s
		o.open = true
		return f, nil
	}
	return Format{}, fmt.Errorf("no audio backend: %w", lastErr)
}

// Backend is the name of the backend that Init opened.
func (o *Output) Backend() string {
	return o.backend
}

func (o *Output) DeviceName() string {
	if o.device != nil {
		return o.device.Name
	}
	return "system default"
}

func (o *Output) Format() Format {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.format
}

// PlayCursor returns the backend's read position in raw samples.
func (o *Output) PlayCursor() uint32 {
	if o.ring == nil {
		return 0
	}
	return o.ring.Cursor()
}

func (o *Output) BeginPainting() {
	o.ring.Lock()
}

func (o *Output) Buffer() []byte {
	return o.ring.Bytes()
}

func (o *Output) Submit() {
	o.ring.Unlock()
}

// Advance consumes raw samples as if a backend had played them.
func (o *Output) Advance(samples int) {
	if o.ring != nil {
		o.ring.Advance(samples)
	}
}

// Read drains the ring like a backend would.
func (o *Output) Read(p []byte) (int, error) {
	if o.ring == nil {
		return 0, ErrNotInitialized
	}
	return o.ring.Read(p)
}

func (o *Output) Shutdown() {
	o.mu.Lock()
	defer o.mu.Unlock()
	if !o.open {
		return
	}
	o.sink.close()
	o.open = false
}
