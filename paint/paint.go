// Package paint mixes the channels, loops and raw streams chosen by snd into
// the device ring.
package paint

import (
	"encoding/binary"
	"math"

	"omegasnd/snd"
)

// bufferPairs is how much is mixed per pass before transfer.
const bufferPairs = 4096

type stereo struct {
	left, right int32
}

// Painter is the default snd.Painter. It accumulates into an int32 buffer
// at 8 extra bits of headroom and clamps on transfer.
type Painter struct {
	buf []stereo

	painted uint64
	clipped uint64
}

func New() *Painter {
	return &Painter{buf: make([]stereo, bufferPairs)}
}

// Stats returns pairs painted and samples clipped since creation.
func (p *Painter) Stats() (painted, clipped uint64) {
	return p.painted, p.clipped
}

func (p *Painter) Paint(job *snd.PaintJob) {
	sndVol := int32(job.Volume * 255)
	for t := job.Start; t-job.End < 0; {
		end := min(job.End, t+bufferPairs)
		buf := p.buf[:end-t]
		clear(buf)

		mixRaw(buf, job.Raw, t, end)
		for i := range job.Channels {
			mixChannel(buf, &job.Channels[i], sndVol, t, end)
		}
		for i := range job.LoopChannels {
			mixLoop(buf, &job.LoopChannels[i], sndVol, t, end)
		}
		p.transfer(job, buf, t)
		p.painted += uint64(len(buf))
		t = end
	}
}

// mixRaw adds every stream's queued pairs that fall inside [t, end).
func mixRaw(buf []stereo, raw []snd.RawStream, t, end int32) {
	for i := range raw {
		rs := &raw[i]
		if rs.Samples == nil || rs.End-t <= 0 {
			continue
		}
		from := t
		if oldest := rs.End - snd.RawCapacity; oldest-from > 0 {
			from = oldest
		}
		stop := min(end, rs.End)
		for s := from; s < stop; s++ {
			pair := rs.At(s)
			buf[s-t].left += pair.Left
			buf[s-t].right += pair.Right
		}
	}
}

func mixChannel(buf []stereo, ch *snd.Channel, sndVol int32, t, end int32) {
	x := ch.Sfx
	if x == nil || x.Data == nil || (ch.LeftVol == 0 && ch.RightVol == 0) {
		return
	}
	if ch.StartSample == snd.StartImmediate {
		return
	}
	from := max(t, ch.StartSample)
	stop := min(end, ch.StartSample+int32(len(x.Data)))
	if stop-from <= 0 {
		return
	}
	left := int64(ch.LeftVol) * int64(sndVol)
	right := int64(ch.RightVol) * int64(sndVol)
	for s := from; s < stop; s++ {
		data := x.Data[s-ch.StartSample]
		buf[s-t].left += gain(data, left)
		buf[s-t].right += gain(data, right)
	}
}

// mixLoop plays a loop phase-locked to absolute time so that merged
// emitters stay in step.
func mixLoop(buf []stereo, ch *snd.Channel, sndVol int32, t, end int32) {
	x := ch.Sfx
	if x == nil || len(x.Data) == 0 || (ch.LeftVol == 0 && ch.RightVol == 0) {
		return
	}
	left := int64(ch.LeftVol) * int64(sndVol)
	right := int64(ch.RightVol) * int64(sndVol)
	length := int32(len(x.Data))

	if ch.Doppler && ch.DopplerScale != 1 {
		mixDoppler(buf, ch, left, right, t, end)
		return
	}
	for s := t; s < end; s++ {
		off := s % length
		if off < 0 {
			off += length
		}
		data := x.Data[off]
		buf[s-t].left += gain(data, left)
		buf[s-t].right += gain(data, right)
	}
}

// mixDoppler steps through the effect faster than real time, averaging the
// samples skipped by each output pair. The step eases from last frame's
// scale to this frame's across the span.
func mixDoppler(buf []stereo, ch *snd.Channel, left, right int64, t, end int32) {
	data := ch.Sfx.Data
	length := float64(len(data))
	old := float64(ch.OldDopplerScale)
	if old <= 0 {
		old = 1
	}
	scale := float64(ch.DopplerScale)
	n := float64(end - t)

	pos := math.Mod(float64(t)*old, length)
	if pos < 0 {
		pos += length
	}
	for i := range buf[:end-t] {
		step := old + (scale-old)*float64(i)/n
		a := pos
		pos += step
		var sum int64
		count := int64(0)
		for j := int64(a); j < int64(pos); j++ {
			sum += int64(data[int(j%int64(length))])
			count++
		}
		if count == 0 {
			continue
		}
		avg := int16(sum / count)
		buf[i].left += gain(avg, left)
		buf[i].right += gain(avg, right)
		pos = math.Mod(pos, length)
	}
}

// gain scales data by vol, a channel volume times the master volume, keeping
// the result within the accumulator's headroom.
func gain(data int16, vol int64) int32 {
	v := int64(data) * vol >> 8
	return int32(min(max(v, math.MinInt32/4), math.MaxInt32/4))
}

func clamp16(v int32) (int16, bool) {
	switch {
	case v > math.MaxInt16:
		return math.MaxInt16, true
	case v < math.MinInt16:
		return math.MinInt16, true
	}
	return int16(v), false
}

// transfer writes buf, which starts at time t, into the device ring.
func (p *Painter) transfer(job *snd.PaintJob, buf []stereo, t int32) {
	f := job.Format
	ring := f.BufferSamples()
	if ring == 0 || len(job.Buffer) == 0 {
		return
	}
	bps := f.BytesPerSample()

	pos := int(int64(t) * int64(f.Channels) % int64(ring))
	if pos < 0 {
		pos += ring
	}
	for i, v := range buf {
		l, lc := clamp16(v.left >> 8)
		r, rc := clamp16(v.right >> 8)
		if lc {
			p.clipped++
		}
		if rc {
			p.clipped++
		}
		if job.Capture != nil {
			k := 2 * (int(t-job.Start) + i)
			job.Capture[k] = l
			job.Capture[k+1] = r
		}

		putSample(job.Buffer[pos*bps:], f.SampleBits, f.IsFloat, l)
		pos++
		if f.Channels >= 2 {
			putSample(job.Buffer[pos*bps:], f.SampleBits, f.IsFloat, r)
			pos += f.Channels - 1
		}
		if pos >= ring {
			pos -= ring
		}
	}
}

func putSample(dst []byte, bits int, isFloat bool, v int16) {
	switch {
	case isFloat:
		binary.LittleEndian.PutUint32(dst, math.Float32bits(float32(v)/32768))
	case bits == 8:
		dst[0] = byte(int(v>>8) + 128)
	default:
		binary.LittleEndian.PutUint16(dst, uint16(v))
	}
}
