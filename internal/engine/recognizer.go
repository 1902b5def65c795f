package engine

import "context"

// Segment is one timed portion of recognized speech.
type Segment struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

// Result is the output of one speech-to-text call.
type Result struct {
	Text     string    `json:"text"`
	Language string    `json:"language,omitempty"`
	Duration float64   `json:"duration,omitempty"`
	Segments []Segment `json:"segments,omitempty"`
}

// Recognizer abstracts the speech-to-text capability: given an audio file and
// a language hint, return text plus segment metadata, or fail. The call may
// take minutes; the engine applies no timeout of its own, the implementation's
// HTTP client policy governs.
type Recognizer interface {
	Transcribe(ctx context.Context, audioPath, language string) (*Result, error)
}
