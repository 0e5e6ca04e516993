package audio

import (
	"fmt"
	"sync"
	"time"

	"github.com/ebitengine/oto/v3"
)

// oto allows one context per process, so every oto output shares it and
// must agree on its format.
var (
	otoCtx     *oto.Context
	otoOnce    sync.Once
	otoInitErr error
	otoFormat  Format
)

func otoContext(f Format) (*oto.Context, error) {
	otoOnce.Do(func() {
		sampleFormat := oto.FormatSignedInt16LE
		switch {
		case f.IsFloat:
			sampleFormat = oto.FormatFloat32LE
		case f.SampleBits == 8:
			sampleFormat = oto.FormatUnsignedInt8
		}
		op := &oto.NewContextOptions{
			SampleRate:   f.Rate,
			ChannelCount: f.Channels,
			Format:       sampleFormat,
			BufferSize:   50 * time.Millisecond,
		}
		var ready chan struct{}
		otoCtx, ready, otoInitErr = oto.NewContext(op)
		if otoInitErr == nil {
			<-ready
			otoFormat = f
		}
	})
	if otoInitErr != nil {
		return nil, otoInitErr
	}
	if otoFormat.Rate != f.Rate || otoFormat.Channels != f.Channels ||
		otoFormat.SampleBits != f.SampleBits || otoFormat.IsFloat != f.IsFloat {
		return nil, fmt.Errorf("oto context already open at %d Hz, %d channels", otoFormat.Rate, otoFormat.Channels)
	}
	return otoCtx, nil
}

type otoSink struct {
	player *oto.Player
}

func (s *otoSink) negotiate(f *Format) {
	if f.SampleBits == 8 || f.IsFloat && f.SampleBits == 32 {
		return
	}
	f.SampleBits = 16
	f.IsFloat = false
}

// The device is chosen by the OS; oto has no enumeration.
func (s *otoSink) open(f Format, r *Ring, _ *DeviceInfo) error {
	ctx, err := otoContext(f)
	if err != nil {
		return fmt.Errorf("oto: %w", err)
	}
	s.player = ctx.NewPlayer(r)
	s.player.Play()
	return nil
}

func (s *otoSink) close() {
	if s.player != nil {
		s.player.Pause()
		s.player.Close()
		s.player = nil
	}
}
