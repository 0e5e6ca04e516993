//go:build linux

package audio

import (
	"fmt"
	"sync"

	"github.com/jfreymuth/pulse"
	"github.com/jfreymuth/pulse/proto"
)

const platformBackend = "pulse"

type pulseContext struct {
	client *pulse.Client
}

func NewContext() (Context, error) {
	c, err := pulse.NewClient()
	if err != nil {
		return nil, fmt.Errorf("pulse: %w", err)
	}
	return &pulseContext{client: c}, nil
}

func (p *pulseContext) Devices() ([]DeviceInfo, error) {
	sinks, err := p.client.ListSinks()
	if err != nil {
		return nil, fmt.Errorf("pulse list sinks: %w", err)
	}
	var devices []DeviceInfo
	for _, s := range sinks {
		devices = append(devices, DeviceInfo{
			ID:   s.ID(),
			Name: s.Name(),
		})
	}
	return devices, nil
}

func (p *pulseContext) Close() {
	p.client.Close()
}

func newPlatformSink() sink {
	return &pulseSink{}
}

// pulseSink plays the ring through a pulse playback stream. Pulse pulls
// int16 samples from its own goroutine, which is what moves the cursor.
type pulseSink struct {
	mu     sync.Mutex
	client *pulse.Client
	stream *pulse.PlaybackStream
}

// Only int16 streams are opened.
func (s *pulseSink) negotiate(f *Format) {
	f.SampleBits = 16
	f.IsFloat = false
}

func (s *pulseSink) open(f Format, r *Ring, dev *DeviceInfo) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, err := pulse.NewClient()
	if err != nil {
		return fmt.Errorf("pulse: %w", err)
	}

	reader := pulse.Int16Reader(func(buf []int16) (int, error) {
		return r.ReadInt16(buf), nil
	})

	layout := pulse.PlaybackStereo
	if f.Channels == 1 {
		layout = pulse.PlaybackMono
	}
	opts := []pulse.PlaybackOption{
		layout,
		pulse.PlaybackSampleRate(f.Rate),
		pulse.PlaybackLatency(0.05),
		pulse.PlaybackRawOption(func(p *proto.CreatePlaybackStream) {
			vols := make(proto.ChannelVolumes, f.Channels)
			for i := range vols {
				vols[i] = uint32(proto.VolumeNorm)
			}
			p.ChannelVolumes = vols
		}),
	}
	if dev != nil {
		target, err := c.SinkByID(dev.ID)
		if err == nil && target != nil {
			opts = append(opts, pulse.PlaybackSink(target))
		}
	}

	stream, err := c.NewPlayback(reader, opts...)
	if err != nil {
		c.Close()
		return fmt.Errorf("pulse playback: %w", err)
	}
	stream.Start()

	s.client = c
	s.stream = stream
	return nil
}

func (s *pulseSink) close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stream != nil {
		s.stream.Stop()
		s.stream.Close()
		s.stream = nil
	}
	if s.client != nil {
		s.client.Close()
		s.client = nil
	}
}
