package storage

import "testing"

func TestValidateAudioFileType(t *testing.T) {
	tests := []struct {
		name        string
		contentType string
		filename    string
		want        bool
	}{
		{"webm by type", "audio/webm", "clip.bin", true},
		{"webm with codecs param", "audio/webm;codecs=opus", "clip", true},
		{"video container from recorder", "video/webm", "clip.webm", true},
		{"mp3 by extension only", "application/octet-stream", "recording.mp3", true},
		{"uppercase extension", "", "RECORDING.M4A", true},
		{"wav", "audio/wav", "a.wav", true},
		{"pdf rejected", "application/pdf", "doc.pdf", false},
		{"no hints", "", "file", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ValidateAudioFileType(tt.contentType, tt.filename); got != tt.want {
				t.Errorf("ValidateAudioFileType(%q, %q) = %v, want %v", tt.contentType, tt.filename, got, tt.want)
			}
		})
	}
}

func TestContentTypeForFilename(t *testing.T) {
	if got := ContentTypeForFilename("meeting.webm"); got != "audio/webm" {
		t.Errorf("ContentTypeForFilename(meeting.webm) = %q", got)
	}
	if got := ContentTypeForFilename("unknown.xyz"); got != "application/octet-stream" {
		t.Errorf("ContentTypeForFilename(unknown.xyz) = %q", got)
	}
}

func TestAudioKey(t *testing.T) {
	got := AudioKey("4f1c", "a.webm")
	if got != "uploads/4f1c/a.webm" {
		t.Errorf("AudioKey = %q", got)
	}
	// Path components in the filename must not escape the user prefix.
	got = AudioKey("4f1c", "../../etc/passwd")
	if got != "uploads/4f1c/passwd" {
		t.Errorf("AudioKey with traversal = %q", got)
	}
}
