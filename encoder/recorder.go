package encoder

import (
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"omegasnd/log"
)

var ErrStopped = errors.New("recorder stopped")

// maxGapSeconds bounds how much silence is inserted for a hole in the
// painted timeline.
const maxGapSeconds = 1

// Recorder drives the mixer clock at a fixed frame rate and encodes every
// painted span. It satisfies snd.RecordingClock and snd.FrameSink.
type Recorder struct {
	mu        sync.Mutex
	enc       Encoder
	rate      int
	fps       float64
	recording bool
	started   bool
	next      int32 // expected start of the next span
	pending   []int16
	err       error
}

func NewRecorder(enc Encoder, rate int, fps float64) *Recorder {
	return &Recorder{
		enc:       enc,
		rate:      rate,
		fps:       fps,
		recording: true,
		pending:   make([]int16, 0, BlockSize*Channels),
	}
}

// Create records FLAC to path.
func Create(path string, rate int, fps float64) (*Recorder, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("creating recording: %w", err)
	}
	enc, err := NewFlac(f, rate)
	if err != nil {
		f.Close()
		return nil, err
	}
	log.Infof("recording %s at %d Hz, %.0f fps", path, rate, fps)
	return NewRecorder(enc, rate, fps), nil
}

func (r *Recorder) IsRecording() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.recording
}

func (r *Recorder) FPS() float64 { return r.fps }

// WriteFrames appends a painted span. Overlap with what was already written
// is dropped and short holes are filled with silence.
func (r *Recorder) WriteFrames(start int32, pairs []int16) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.recording || r.err != nil {
		return
	}

	end := start + int32(len(pairs)/Channels)
	if r.started {
		switch gap := start - r.next; {
		case gap < 0:
			skip := min(int(-gap)*Channels, len(pairs))
			pairs = pairs[skip:]
		case gap > 0:
			fill := min(int(gap), r.rate*maxGapSeconds)
			log.Warnf("recording: %d sample gap at %d, filling %d", gap, r.next, fill)
			r.append(make([]int16, fill*Channels))
		}
	}
	if !r.started || end-r.next > 0 {
		r.next = end
	}
	r.started = true
	r.append(pairs[:len(pairs)/Channels*Channels])
}

func (r *Recorder) append(pairs []int16) {
	for len(pairs) > 0 && r.err == nil {
		room := BlockSize*Channels - len(r.pending)
		n := min(room, len(pairs))
		r.pending = append(r.pending, pairs[:n]...)
		pairs = pairs[n:]
		if len(r.pending) == BlockSize*Channels {
			r.flush()
		}
	}
}

func (r *Recorder) flush() {
	if len(r.pending) == 0 {
		return
	}
	t0 := time.Now()
	if err := r.enc.EncodeBlock(r.pending); err != nil {
		r.err = err
		log.Errorf("recording: %v", err)
	}
	r.enc.AddEncodeTime(time.Since(t0))
	r.pending = r.pending[:0]
}

// Stop flushes the partial block and closes the encoder. The mixer clock
// returns to real time on its next update.
func (r *Recorder) Stop() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.recording {
		return ErrStopped
	}
	r.recording = false
	r.flush()
	cerr := r.enc.Close()
	log.Infof("recording stopped: %d frames, encode time %s", r.enc.TotalFrames(), r.enc.EncodeTime())
	if r.err != nil {
		return r.err
	}
	if cerr != nil {
		return fmt.Errorf("closing recording: %w", cerr)
	}
	return nil
}

// Frames is the number of sample-pairs encoded so far.
func (r *Recorder) Frames() uint64 { return r.enc.TotalFrames() }

func (r *Recorder) Err() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.err
}
