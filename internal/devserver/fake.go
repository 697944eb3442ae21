package devserver

import (
	"encoding/binary"
	"fmt"
	"time"

	"captioner/internal/subtitles"
)

// CueLength is the on-screen time of each generated caption.
const CueLength = 2 * time.Second

const maxCues = 500

// AudioDuration reads the duration of a PCM WAV payload. Anything that is not
// a recognisable WAV file yields zero.
func AudioDuration(audio []byte) time.Duration {
	if len(audio) < 44 || string(audio[0:4]) != "RIFF" || string(audio[8:12]) != "WAVE" {
		return 0
	}
	byteRate := binary.LittleEndian.Uint32(audio[28:32])
	dataSize := binary.LittleEndian.Uint32(audio[40:44])
	if byteRate == 0 {
		return 0
	}
	return time.Duration(float64(dataSize) / float64(byteRate) * float64(time.Second))
}

// PlaceholderCues covers duration with numbered captions of CueLength. Audio
// shorter than one cue still yields a single caption.
func PlaceholderCues(duration time.Duration) []subtitles.Cue {
	if duration < CueLength {
		duration = CueLength
	}
	var cues []subtitles.Cue
	for start := time.Duration(0); start < duration && len(cues) < maxCues; start += CueLength {
		end := start + CueLength
		if end > duration {
			end = duration
		}
		n := len(cues) + 1
		cues = append(cues, subtitles.Cue{
			Index: n,
			Start: start,
			End:   end,
			Text:  fmt.Sprintf("Caption %d", n),
		})
	}
	return cues
}
