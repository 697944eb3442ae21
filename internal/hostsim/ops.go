package hostsim

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"captioner/internal/host"
	"captioner/internal/subtitles"
)

func (h *Host) getCurrentSequence(json.RawMessage) (map[string]any, *failure) {
	seq, fail := h.requireSequence()
	if fail != nil {
		return nil, fail
	}
	return map[string]any{
		"name":        seq.Name,
		"duration":    strconv.FormatUint(seq.DurationTicks, 10),
		"tracks":      seq.VideoTracks + seq.AudioTracks,
		"videoTracks": seq.VideoTracks,
		"audioTracks": seq.AudioTracks,
	}, nil
}

type exportRequest struct {
	Encoding   string `json:"encoding"`
	SampleRate int    `json:"sampleRate"`
	BitDepth   int    `json:"bitDepth"`
	Channels   int    `json:"channels"`
}

func (h *Host) exportSequenceAudio(params json.RawMessage) (map[string]any, *failure) {
	seq, fail := h.requireSequence()
	if fail != nil {
		return nil, fail
	}
	req := exportRequest{Encoding: host.ExportEncoding, SampleRate: host.ExportSampleRate, BitDepth: host.ExportBitDepth, Channels: host.ExportChannels}
	if fail := decodeParams(params, &req); fail != nil {
		return nil, fail
	}
	if req.Encoding != host.ExportEncoding || req.BitDepth != 16 || req.SampleRate <= 0 || req.Channels <= 0 {
		return nil, invalidParams("unsupported export profile %s/%d/%d/%d", req.Encoding, req.SampleRate, req.BitDepth, req.Channels)
	}

	path := host.AudioExportPath(h.project.Path, h.project.Name)
	seconds := float64(seq.DurationTicks) / ticksPerSecond
	if err := writeSilentWAV(path, req.SampleRate, req.Channels, seconds); err != nil {
		return nil, &failure{message: "audio encoder failed: " + err.Error()}
	}
	return map[string]any{"path": path}, nil
}

type importRequest struct {
	Path   string `json:"path"`
	Format string `json:"format"`
}

func (h *Host) importSubtitles(params json.RawMessage) (map[string]any, *failure) {
	seq, fail := h.requireSequence()
	if fail != nil {
		return nil, fail
	}
	var req importRequest
	if fail := decodeParams(params, &req); fail != nil {
		return nil, fail
	}
	if trimmed(req.Path) == "" {
		return nil, invalidParams("path is required")
	}
	data, err := os.ReadFile(req.Path)
	if err != nil {
		return nil, &failure{message: "import failed: " + err.Error()}
	}

	var copied int
	switch req.Format {
	case string(host.FormatSRT):
		cues, err := subtitles.ParseSRT(data)
		if err != nil {
			return nil, &failure{message: "caption import failed: " + err.Error()}
		}
		track := ensureTrack(seq)
		for _, cue := range cues {
			track.Captions = append(track.Captions, Caption{Start: cue.Start, End: cue.End, Text: cue.Text})
		}
		copied = len(cues)
	case string(host.FormatXML):
		n, fail := h.importXML(seq, data)
		if fail != nil {
			return nil, fail
		}
		copied = n
	default:
		return nil, invalidParams("unsupported format %q", req.Format)
	}
	return map[string]any{"path": req.Path, "captions": copied}, nil
}

// importXML loads the file as a temporary sequence and copies its captions
// into the active sequence. The temporary sequence is always removed, and a
// failed copy truncates the target track back to its previous length.
func (h *Host) importXML(target *Sequence, data []byte) (int, *failure) {
	name, cues, err := subtitles.ParseXML(data)
	if err != nil {
		return 0, &failure{message: "sequence import failed: " + err.Error()}
	}
	temp := &Sequence{Name: name, Temporary: true, CaptionTracks: []*CaptionTrack{{}}}
	for _, cue := range cues {
		temp.CaptionTracks[0].Captions = append(temp.CaptionTracks[0].Captions, Caption{Start: cue.Start, End: cue.End, Text: cue.Text})
	}
	h.project.Sequences = append(h.project.Sequences, temp)
	defer h.project.removeSequence(temp)

	source := temp.CaptionTracks[0]
	if len(source.Captions) == 0 {
		return 0, nil
	}
	track := ensureTrack(target)
	before := len(track.Captions)
	for i, caption := range source.Captions {
		if h.copyLimit >= 0 && i >= h.copyLimit {
			track.Captions = track.Captions[:before]
			return 0, &failure{message: fmt.Sprintf("caption copy failed at item %d", i+1)}
		}
		track.Captions = append(track.Captions, caption)
	}
	return len(source.Captions), nil
}

func ensureTrack(seq *Sequence) *CaptionTrack {
	if len(seq.CaptionTracks) == 0 {
		seq.CaptionTracks = append(seq.CaptionTracks, &CaptionTrack{})
	}
	return seq.CaptionTracks[0]
}

func (h *Host) ensureCaptionTrack(json.RawMessage) (map[string]any, *failure) {
	seq, fail := h.requireSequence()
	if fail != nil {
		return nil, fail
	}
	created := len(seq.CaptionTracks) == 0
	ensureTrack(seq)
	return map[string]any{"tracks": len(seq.CaptionTracks), "created": created}, nil
}

func (h *Host) getProjectInfo(json.RawMessage) (map[string]any, *failure) {
	if h.project == nil {
		return nil, h.noProject()
	}
	var active any
	if seq := h.project.activeSequence(); seq != nil {
		active = seq.Name
	}
	return map[string]any{
		"name":           h.project.Name,
		"path":           h.project.Path,
		"sequences":      len(h.project.Sequences),
		"activeSequence": active,
	}, nil
}

func (h *Host) saveProject(json.RawMessage) (map[string]any, *failure) {
	if h.project == nil {
		return nil, h.noProject()
	}
	h.project.Saves++
	return map[string]any{"message": "Project saved"}, nil
}

func (h *Host) getSequenceTracks(json.RawMessage) (map[string]any, *failure) {
	seq, fail := h.requireSequence()
	if fail != nil {
		return nil, fail
	}
	return map[string]any{"tracks": map[string]int{
		"video":    seq.VideoTracks,
		"audio":    seq.AudioTracks,
		"captions": len(seq.CaptionTracks),
	}}, nil
}

type writeRequest struct {
	Path    string `json:"path"`
	Content string `json:"content"`
}

func (h *Host) writeTextFile(params json.RawMessage) (map[string]any, *failure) {
	var req writeRequest
	if fail := decodeParams(params, &req); fail != nil {
		return nil, fail
	}
	if trimmed(req.Path) == "" {
		return nil, invalidParams("path is required")
	}
	if err := os.MkdirAll(filepath.Dir(req.Path), 0o755); err != nil {
		return nil, &failure{message: "write failed: " + err.Error()}
	}
	if err := os.WriteFile(req.Path, []byte(req.Content), 0o644); err != nil {
		return nil, &failure{message: "write failed: " + err.Error()}
	}
	return map[string]any{"path": req.Path, "bytes": len(req.Content)}, nil
}

func (h *Host) readTextFile(params json.RawMessage) (map[string]any, *failure) {
	var req struct {
		Path string `json:"path"`
	}
	if fail := decodeParams(params, &req); fail != nil {
		return nil, fail
	}
	data, err := os.ReadFile(req.Path)
	if err != nil {
		return nil, &failure{message: "read failed: " + err.Error()}
	}
	return map[string]any{"path": req.Path, "content": string(data)}, nil
}

// writeSilentWAV writes a 16-bit PCM WAV file of the given length. Length is
// capped so dev exports stay small.
func writeSilentWAV(path string, sampleRate, channels int, seconds float64) error {
	if seconds > 1 {
		seconds = 1
	}
	const bytesPerSample = 2
	frames := int(float64(sampleRate) * seconds)
	dataSize := frames * channels * bytesPerSample

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	header := []any{
		[4]byte{'R', 'I', 'F', 'F'},
		uint32(36 + dataSize),
		[4]byte{'W', 'A', 'V', 'E'},
		[4]byte{'f', 'm', 't', ' '},
		uint32(16),
		uint16(1),
		uint16(channels),
		uint32(sampleRate),
		uint32(sampleRate * channels * bytesPerSample),
		uint16(channels * bytesPerSample),
		uint16(8 * bytesPerSample),
		[4]byte{'d', 'a', 't', 'a'},
		uint32(dataSize),
	}
	for _, field := range header {
		if err := binary.Write(file, binary.LittleEndian, field); err != nil {
			return err
		}
	}
	if _, err := file.Write(make([]byte, dataSize)); err != nil {
		return err
	}
	return file.Close()
}
