package engine

import "context"

// StubRecognizer returns canned text without calling any external service.
// Used when no API key is configured, so the pipeline stays exercisable in
// development.
type StubRecognizer struct {
	// Text overrides the default canned output when set.
	Text string
}

// Transcribe returns the stub text.
func (s *StubRecognizer) Transcribe(_ context.Context, _, language string) (*Result, error) {
	text := s.Text
	if text == "" {
		text = "This is a stub transcription. Configure OPENAI_API_KEY to enable real speech recognition."
	}
	return &Result{
		Text:     text,
		Language: language,
		Segments: []Segment{{Start: 0, End: 0, Text: text}},
	}, nil
}
