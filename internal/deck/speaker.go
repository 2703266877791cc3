package deck

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/mp3"
	"github.com/gopxl/beep/v2/speaker"
	"github.com/gopxl/beep/v2/wav"
)

// SpeakerOutput plays a decoded track on the default audio device.
type SpeakerOutput struct {
	stream beep.StreamSeekCloser
	ctrl   *beep.Ctrl
	format beep.Format
}

// OpenFile decodes an mp3 or wav asset and attaches it, paused, to the speaker.
// The speaker is initialized with the track's sample rate.
func OpenFile(path string) (*SpeakerOutput, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open audio asset: %w", err)
	}

	var (
		stream beep.StreamSeekCloser
		format beep.Format
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".mp3":
		stream, format, err = mp3.Decode(f)
	case ".wav":
		stream, format, err = wav.Decode(f)
	default:
		f.Close()
		return nil, fmt.Errorf("unsupported audio format %q", filepath.Ext(path))
	}
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}

	if err := speaker.Init(format.SampleRate, format.SampleRate.N(time.Second/10)); err != nil {
		stream.Close()
		return nil, fmt.Errorf("init speaker: %w", err)
	}

	ctrl := newTrack(stream)
	speaker.Play(ctrl)

	return &SpeakerOutput{
		stream: stream,
		ctrl:   ctrl,
		format: format,
	}, nil
}

// SetPaused suspends or resumes rendering.
func (o *SpeakerOutput) SetPaused(paused bool) {
	speaker.Lock()
	o.ctrl.Paused = paused
	speaker.Unlock()
}

// Seek moves the playhead, clamped to the track.
func (o *SpeakerOutput) Seek(pos time.Duration) error {
	n := o.format.SampleRate.N(pos)
	if n < 0 {
		n = 0
	}

	speaker.Lock()
	defer speaker.Unlock()

	if length := o.stream.Len(); n > length {
		n = length
	}
	return o.stream.Seek(n)
}

// Position returns the playhead.
func (o *SpeakerOutput) Position() time.Duration {
	speaker.Lock()
	n := o.stream.Position()
	speaker.Unlock()
	return o.format.SampleRate.D(n)
}

// Length returns the track duration.
func (o *SpeakerOutput) Length() time.Duration {
	return o.format.SampleRate.D(o.stream.Len())
}

// Close detaches the track from the speaker and closes it.
func (o *SpeakerOutput) Close() error {
	speaker.Clear()
	return o.stream.Close()
}

// newTrack wraps stream in a paused Ctrl that stays attached to the mixer
// after the track ends, so a rewind can play it again.
func newTrack(stream beep.StreamSeeker) *beep.Ctrl {
	return &beep.Ctrl{Streamer: held{stream}, Paused: true}
}

// held pads the end of a track with silence instead of draining.
type held struct {
	s beep.StreamSeeker
}

func (h held) Stream(samples [][2]float64) (int, bool) {
	filled := 0
	for filled < len(samples) {
		n, ok := h.s.Stream(samples[filled:])
		filled += n
		if !ok || n == 0 {
			break
		}
	}
	clear(samples[filled:])
	return len(samples), true
}

func (h held) Err() error {
	return h.s.Err()
}
