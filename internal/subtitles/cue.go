package subtitles

import (
	"fmt"
	"strings"
	"time"
)

// Cue is a single caption with timing and text.
type Cue struct {
	Index int
	Start time.Duration
	End   time.Duration
	Text  string
}

// Duration reports how long the cue stays on screen.
func (c Cue) Duration() time.Duration {
	if c.End < c.Start {
		return 0
	}
	return c.End - c.Start
}

// Validate reports format issues in a cue list. An empty result means the
// cues are usable.
func Validate(cues []Cue) []string {
	if len(cues) == 0 {
		return []string{"empty_subtitle_file"}
	}
	var issues []string
	var prevEnd time.Duration
	for i, cue := range cues {
		if cue.End <= cue.Start {
			issues = append(issues, fmt.Sprintf("cue %d: end %s not after start %s", i+1, FormatTimestamp(cue.End), FormatTimestamp(cue.Start)))
		}
		if cue.Start < prevEnd {
			issues = append(issues, fmt.Sprintf("cue %d: overlaps previous cue", i+1))
		}
		if strings.TrimSpace(cue.Text) == "" {
			issues = append(issues, fmt.Sprintf("cue %d: empty text", i+1))
		}
		prevEnd = cue.End
	}
	return issues
}
