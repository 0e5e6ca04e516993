package snd

import (
	"encoding/binary"

	"omegasnd/log"
)

const (
	MaxRawStreams = 129
	RawCapacity   = 16384 // sample-pairs, power of two
	MusicStream   = 0
)

// Pair is one stereo sample scaled by the stream volume (256 = unity).
type Pair struct {
	Left, Right int32
}

// RawStream is a ring of decoded sample-pairs at device rate. End is an
// absolute time; the pair for time t lives at Samples[t & (RawCapacity-1)].
type RawStream struct {
	Samples []Pair
	End     int32
}

// At returns the pair written for time t.
func (r *RawStream) At(t int32) Pair {
	return r.Samples[t&(RawCapacity-1)]
}

// RawSamples queues count source samples of PCM on stream, resampled to the
// device rate by nearest neighbour. An emitter in entity range is
// spatialised against the listener; pass -1 for none.
func (s *System) RawSamples(stream, count, rate, width, channels int, data []byte, volume float32, emitter int) {
	if !s.started || s.muted {
		return
	}
	if stream < 0 || stream >= MaxRawStreams {
		return
	}
	if count <= 0 || rate <= 0 {
		return
	}
	if (width != 1 && width != 2) || (channels != 1 && channels != 2) {
		log.Warnf("RawSamples: unsupported format, width %d channels %d", width, channels)
		return
	}
	if need := count * width * channels; len(data) < need {
		log.Warnf("RawSamples: %d bytes for %d samples", len(data), count)
		count = len(data) / (width * channels)
	}

	leftVol, rightVol := int32(0), int32(0)
	if !s.cfg.Muted {
		v := int32(volume * 256)
		leftVol, rightVol = v, v
	}
	if emitter >= 0 && emitter < MaxEntities && emitter != s.listener.entity {
		l, r := Spatialize(s.loops.entries[emitter].Origin, s.listener.origin, s.listener.axes, 256, s.format.Channels)
		leftVol = leftVol * int32(l) / 256
		rightVol = rightVol * int32(r) / 256
	}
	if width == 1 {
		leftVol *= 256
		rightVol *= 256
	}

	rs := &s.raw[stream]
	if rs.Samples == nil {
		rs.Samples = make([]Pair, RawCapacity)
	}
	if rs.End-s.clock.soundTime < 0 {
		log.Debugf("RawSamples: %v on stream %d, resetting", ErrStreamUnderrun, stream)
		rs.End = s.clock.soundTime
	}

	sample := func(i, ch int) int32 {
		if channels == 1 {
			ch = 0
		}
		idx := i*channels + ch
		if width == 1 {
			return int32(data[idx]) - 128
		}
		return int32(int16(binary.LittleEndian.Uint16(data[idx*2:])))
	}
	put := func(src int) {
		dst := rs.End & (RawCapacity - 1)
		rs.End++
		rs.Samples[dst] = Pair{
			Left:  sample(src, 0) * leftVol,
			Right: sample(src, 1) * rightVol,
		}
	}

	if rate == s.format.Rate {
		for i := 0; i < count; i++ {
			put(i)
		}
	} else {
		scale := float32(rate) / float32(s.format.Rate)
		for i := 0; ; i++ {
			src := int(float32(i) * scale)
			if src >= count {
				break
			}
			put(src)
		}
	}

	if rs.End-s.clock.soundTime > RawCapacity {
		log.Overflow(stream, rs.End, s.clock.soundTime)
	}
}

func (s *System) resetRaw() {
	for i := range s.raw {
		s.raw[i].End = s.clock.soundTime
	}
}
