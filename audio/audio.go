package audio

import (
	"errors"
	"strings"
)

// Format describes the DMA ring a backend plays from.
type Format struct {
	Rate              int
	Channels          int
	SampleBits        int
	IsFloat           bool
	BufferFullSamples int // sample-pairs held by the ring
	SubmissionChunk   int
}

// BufferSamples is the ring size in raw samples (pairs times channels).
func (f Format) BufferSamples() int {
	return f.BufferFullSamples * f.Channels
}

func (f Format) BytesPerSample() int {
	return f.SampleBits / 8
}

// DefaultFormat sizes the ring to roughly half a second of audio.
func DefaultFormat(rate int) Format {
	return Format{
		Rate:              rate,
		Channels:          2,
		SampleBits:        16,
		BufferFullSamples: nextPow2(rate / 2),
		SubmissionChunk:   256,
	}
}

func nextPow2(n int) int {
	p := 1
	for p < n {
		p <<= 1
	}
	return p
}

var btKeywords = []string{
	"airpods", "beats", "bose", "wh-1000", "wf-1000",
	"sony wh-", "sony wf-",
	"jabra", "galaxy buds", "pixel buds", "powerbeats",
	"jbl ", "sennheiser momentum", "plantronics",
	"tozo", "anker soundcore", "skullcandy",
	"bluetooth", " bt ", " bt)", " bt]",
}

// IsBluetooth guesses from the sink name; bluetooth sinks add latency the
// mix-ahead setting has to cover.
func IsBluetooth(name string) bool {
	lower := strings.ToLower(name)
	for _, kw := range btKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

type DeviceInfo struct {
	ID   string // opaque platform-specific identifier
	Name string
}

// Context enumerates output devices.
type Context interface {
	Devices() ([]DeviceInfo, error)
	Close()
}

// sink pulls from a Ring on its own goroutine or callback. negotiate
// rewrites the requested format to one the backend can play before the ring
// is allocated.
type sink interface {
	negotiate(f *Format)
	open(f Format, r *Ring, dev *DeviceInfo) error
	close()
}

var (
	ErrUnknownBackend = errors.New("unknown audio backend")
	ErrNotInitialized = errors.New("audio output not initialized")
)
