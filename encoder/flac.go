package encoder

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/mewkiz/flac"
	"github.com/mewkiz/flac/frame"
	"github.com/mewkiz/flac/meta"
)

type FlacEncoder struct {
	enc         *flac.Encoder
	rate        int
	left, right []int32
	totalFrames uint64
	encodeTime  time.Duration
	mu          sync.Mutex
}

// NewFlac writes a 16-bit stereo stream to w. Close closes w when it is an
// io.Closer.
func NewFlac(w io.Writer, rate int) (*FlacEncoder, error) {
	e := &FlacEncoder{
		rate:  rate,
		left:  make([]int32, BlockSize),
		right: make([]int32, BlockSize),
	}
	info := &meta.StreamInfo{
		BlockSizeMin:  BlockSize,
		BlockSizeMax:  BlockSize,
		SampleRate:    uint32(rate),
		NChannels:     Channels,
		BitsPerSample: BitsPerSample,
		NSamples:      0,
	}
	enc, err := flac.NewEncoder(w, info)
	if err != nil {
		return nil, fmt.Errorf("creating flac encoder: %w", err)
	}
	enc.EnablePredictionAnalysis(true)
	e.enc = enc
	return e, nil
}

func (e *FlacEncoder) EncodeBlock(block []int16) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	n := len(block) / Channels
	if n == 0 {
		return nil
	}
	if n > BlockSize {
		return fmt.Errorf("block of %d pairs exceeds %d", n, BlockSize)
	}
	left, right := e.left[:n], e.right[:n]
	for i := 0; i < n; i++ {
		left[i] = int32(block[2*i])
		right[i] = int32(block[2*i+1])
	}

	subframes := make([]*frame.Subframe, Channels)
	for c, samples := range [][]int32{left, right} {
		subframes[c] = &frame.Subframe{
			SubHeader: frame.SubHeader{
				Pred: frame.PredVerbatim,
			},
			Samples:  samples,
			NSamples: n,
		}
	}

	f := &frame.Frame{
		Header: frame.Header{
			BlockSize:     uint16(n),
			SampleRate:    uint32(e.rate),
			Channels:      frame.ChannelsLR,
			BitsPerSample: BitsPerSample,
		},
		Subframes: subframes,
	}

	if err := e.enc.WriteFrame(f); err != nil {
		return fmt.Errorf("writing flac frame: %w", err)
	}
	e.totalFrames += uint64(n)
	return nil
}

func (e *FlacEncoder) Close() error {
	return e.enc.Close()
}

func (e *FlacEncoder) TotalFrames() uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.totalFrames
}

func (e *FlacEncoder) AddEncodeTime(d time.Duration) {
	e.mu.Lock()
	e.encodeTime += d
	e.mu.Unlock()
}

func (e *FlacEncoder) EncodeTime() time.Duration {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.encodeTime
}
