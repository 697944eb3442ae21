package subtitles

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// TicksPerSecond is the editor timebase used in xmeml timing fields.
const TicksPerSecond = 254016000000

// DefaultSequenceName names the caption sequence in generated XML.
const DefaultSequenceName = "AI Generated Subtitles"

type xmeml struct {
	XMLName xml.Name   `xml:"xmeml"`
	Version string     `xml:"version,attr"`
	Project xmlProject `xml:"project"`
}

type xmlProject struct {
	Sequence xmlSequence `xml:"sequence"`
}

type xmlSequence struct {
	ID    string   `xml:"id,attr"`
	Name  string   `xml:"name"`
	Media xmlMedia `xml:"media"`
}

type xmlMedia struct {
	Video xmlVideo `xml:"video"`
}

type xmlVideo struct {
	Track xmlTrack `xml:"track"`
}

type xmlTrack struct {
	Clips []xmlClip `xml:"clipitem"`
}

type xmlClip struct {
	ID       string  `xml:"id,attr"`
	Name     string  `xml:"name"`
	Duration int64   `xml:"duration"`
	Start    int64   `xml:"start"`
	End      int64   `xml:"end"`
	In       int64   `xml:"in"`
	Out      int64   `xml:"out"`
	File     xmlFile `xml:"file"`
}

type xmlFile struct {
	ID         string        `xml:"id,attr"`
	Name       string        `xml:"name"`
	Properties xmlProperties `xml:"properties"`
}

type xmlProperties struct {
	Property []xmlProperty `xml:"property"`
}

type xmlProperty struct {
	ID    string `xml:"id,attr"`
	Value string `xml:",chardata"`
}

// FormatXML renders cues as an xmeml caption sequence.
func FormatXML(cues []Cue, sequenceName string) ([]byte, error) {
	if strings.TrimSpace(sequenceName) == "" {
		sequenceName = DefaultSequenceName
	}
	doc := xmeml{Version: "4"}
	doc.Project.Sequence = xmlSequence{ID: "sequence-1", Name: sequenceName}
	clips := make([]xmlClip, 0, len(cues))
	for i, cue := range cues {
		n := strconv.Itoa(i + 1)
		start, end := toTicks(cue.Start), toTicks(cue.End)
		clips = append(clips, xmlClip{
			ID:       "clipitem-" + n,
			Name:     "Subtitle " + n,
			Duration: end - start,
			Start:    start,
			End:      end,
			Out:      end - start,
			File: xmlFile{
				ID:         "file-" + n,
				Name:       "subtitle_" + n + ".txt",
				Properties: xmlProperties{Property: []xmlProperty{{ID: "text", Value: strings.TrimSpace(cue.Text)}}},
			},
		})
	}
	doc.Project.Sequence.Media.Video.Track.Clips = clips

	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	enc := xml.NewEncoder(&buf)
	enc.Indent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return nil, fmt.Errorf("encode xml: %w", err)
	}
	buf.WriteByte('\n')
	return buf.Bytes(), nil
}

// ParseXML reads the caption clips of an xmeml sequence. The sequence name is
// returned alongside the cues.
func ParseXML(data []byte) (string, []Cue, error) {
	var doc xmeml
	if err := xml.Unmarshal(data, &doc); err != nil {
		return "", nil, fmt.Errorf("parse xml: %w", err)
	}
	seq := doc.Project.Sequence
	cues := make([]Cue, 0, len(seq.Media.Video.Track.Clips))
	for i, clip := range seq.Media.Video.Track.Clips {
		text := ""
		for _, prop := range clip.File.Properties.Property {
			if prop.ID == "text" {
				text = strings.TrimSpace(prop.Value)
				break
			}
		}
		cues = append(cues, Cue{
			Index: i + 1,
			Start: fromTicks(clip.Start),
			End:   fromTicks(clip.End),
			Text:  text,
		})
	}
	return seq.Name, cues, nil
}

func toTicks(d time.Duration) int64 {
	return int64(d.Seconds() * TicksPerSecond)
}

func fromTicks(t int64) time.Duration {
	return time.Duration(float64(t) / TicksPerSecond * float64(time.Second)).Round(time.Millisecond)
}
