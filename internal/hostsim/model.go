package hostsim

import "time"

// Caption is one item on a caption track.
type Caption struct {
	Start time.Duration
	End   time.Duration
	Text  string
}

// CaptionTrack holds captions in insertion order.
type CaptionTrack struct {
	Captions []Caption
}

// Sequence is a simulated timeline.
type Sequence struct {
	Name          string
	DurationTicks uint64
	VideoTracks   int
	AudioTracks   int
	CaptionTracks []*CaptionTrack
	// Temporary marks sequences created during an XML import.
	Temporary bool
}

// Project is a simulated open project. Path is the project file.
type Project struct {
	Name      string
	Path      string
	Sequences []*Sequence
	Active    int
	Saves     int
}

func (p *Project) activeSequence() *Sequence {
	if p == nil || p.Active < 0 || p.Active >= len(p.Sequences) {
		return nil
	}
	return p.Sequences[p.Active]
}

func (p *Project) removeSequence(target *Sequence) {
	for i, seq := range p.Sequences {
		if seq != target {
			continue
		}
		p.Sequences = append(p.Sequences[:i], p.Sequences[i+1:]...)
		if p.Active > i {
			p.Active--
		}
		return
	}
}

// Snapshot is a copy of simulated state for assertions.
type Snapshot struct {
	ProjectOpen    bool
	SequenceCount  int
	ActiveSequence string
	CaptionTracks  int
	Captions       []Caption
	Saves          int
}
