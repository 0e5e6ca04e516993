package snd

// clock reconciles the device play cursor with the painted cursor. All
// times are sample-pairs and compare by signed delta.
type clock struct {
	soundTime   int32
	paintedTime int32
	frameEnd    int32 // recording mode: end of the current video frame

	wraps     int32
	oldCursor uint32
	carry     float64

	lastSoundTime int32
	ticked        bool // soundTime observed by at least one Update
	lastWall      int32
}

// RecordingMaxFPS caps the recording clock's frame rate.
const RecordingMaxFPS = 1000

func (s *System) recording() bool {
	return s.recorder != nil && s.recorder.IsRecording()
}

// advanceClock derives soundTime and paintedTime for this Update.
func (s *System) advanceClock() {
	c := &s.clock
	rate := s.format.Rate

	if s.recording() {
		fps := min(s.recorder.FPS(), RecordingMaxFPS)
		step := 1.0
		if fps > 0 {
			step = max(float64(rate)/fps, 1)
		}
		d := step + c.carry
		whole := int32(d)
		c.carry = d - float64(whole)
		c.soundTime += whole
		c.paintedTime = c.soundTime + int32(s.cfg.MixOffset*float64(rate))
		c.frameEnd = c.paintedTime + whole
		return
	}

	full := int32(s.format.BufferFullSamples)
	cursor := s.device.PlayCursor()
	if cursor < c.oldCursor {
		c.wraps++
		if c.paintedTime > 1<<30 {
			// cursors near 32-bit range; restart the timeline
			c.wraps = 0
			c.paintedTime = full
			s.StopAllSounds()
		}
	}
	c.oldCursor = cursor
	c.soundTime = c.wraps*full + int32(cursor)/int32(s.format.Channels)

	if s.format.SubmissionChunk < 256 {
		c.paintedTime = c.soundTime + int32(s.cfg.MixOffset*float64(rate))
	} else {
		c.paintedTime = c.soundTime + int32(s.format.SubmissionChunk)
	}
}

// mixAhead is how far past paintedTime this Update paints.
func (s *System) mixAhead(elapsedMs int32) int32 {
	rate := float64(s.format.Rate)
	primary := s.cfg.MixAhead * rate
	sanity := float64(max(elapsedMs, 11)) * 0.0015 * rate
	return int32(max(primary, sanity))
}

// endTime rounds the horizon up to the submission chunk, never more than one
// full device buffer past paintedTime.
func (s *System) endTime(ahead int32) int32 {
	painted := s.clock.paintedTime
	end := painted + ahead
	if chunk := int32(s.format.SubmissionChunk); chunk > 1 {
		end = (end + chunk - 1) / chunk * chunk
	}
	if full := int32(s.format.BufferFullSamples); end-painted > full {
		end = painted + full
	}
	return end
}
