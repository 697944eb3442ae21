package transcription

// HealthInfo is the /health payload.
type HealthInfo struct {
	Status        string `json:"status"`
	Model         string `json:"model"`
	FasterWhisper bool   `json:"faster_whisper"`
}

// Healthy reports whether the service declared itself usable.
func (h HealthInfo) Healthy() bool {
	return h.Status == "healthy" || h.Status == "ok"
}

// ModelList is the /models payload.
type ModelList struct {
	CurrentModel    string   `json:"current_model"`
	AvailableModels []string `json:"available_models"`
	FasterWhisper   bool     `json:"faster_whisper"`
}

// Transcript is the subtitle document returned by /transcribe.
type Transcript struct {
	Content     []byte
	ContentType string
}

type errorBody struct {
	Error string `json:"error"`
}
