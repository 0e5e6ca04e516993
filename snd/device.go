package snd

import "omegasnd/audio"

// Device owns the DMA ring the painter writes into. PlayCursor is in raw
// samples within the ring, not sample-pairs.
type Device interface {
	Init() (audio.Format, error)
	PlayCursor() uint32
	BeginPainting()
	Buffer() []byte // valid between BeginPainting and Submit
	Submit()
	Shutdown()
}

// Decoder loads effects and opens music streams.
type Decoder interface {
	// Load decodes name to mono samples at rate.
	Load(name string, rate int, compressed bool) ([]int16, error)
	OpenStream(name string) (Stream, error)
	Free(samples []int16)
}

type StreamInfo struct {
	Rate     int
	Width    int // bytes per sample
	Channels int
}

// Stream yields interleaved little-endian PCM. Read returns io.EOF once the
// file is exhausted.
type Stream interface {
	Info() StreamInfo
	Read(dst []byte) (int, error)
	Close() error
}

// Painter mixes one span of the timeline into the device buffer.
type Painter interface {
	Paint(job *PaintJob)
}

// RecordingClock switches the clock to fixed steps per video frame.
type RecordingClock interface {
	IsRecording() bool
	FPS() float64
}

// FrameSink receives the painted output while recording. A RecordingClock
// that also implements FrameSink gets every painted span.
type FrameSink interface {
	WriteFrames(start int32, pairs []int16)
}

// WallClock returns milliseconds from an arbitrary epoch.
type WallClock func() int32

// PaintJob is everything a Painter reads for the span [Start, End).
type PaintJob struct {
	Start, End int32
	Format     audio.Format
	Buffer     []byte
	Volume     float32

	Channels     []Channel // free slots have a nil Sfx
	LoopChannels []Channel
	Raw          []RawStream

	// Capture, when non-nil, receives 2*(End-Start) clamped int16 samples
	// of the mixed output.
	Capture []int16
}

// Frames is the number of sample-pairs to paint.
func (j *PaintJob) Frames() int {
	return int(j.End - j.Start)
}
