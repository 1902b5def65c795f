package models

import "testing"

func TestIsTerminal(t *testing.T) {
	for status, want := range map[string]bool{
		TranscriptStatusQueued:     false,
		TranscriptStatusProcessing: false,
		TranscriptStatusCompleted:  true,
		TranscriptStatusFailed:     true,
	} {
		tr := Transcript{Status: status}
		if got := tr.IsTerminal(); got != want {
			t.Errorf("IsTerminal(%s) = %v, want %v", status, got, want)
		}
	}
}

func TestTextPrefersEdited(t *testing.T) {
	tr := Transcript{OriginalText: "original", EditedText: "edited"}
	if got := tr.Text(); got != "edited" {
		t.Errorf("Text = %q, want edited", got)
	}
	tr.EditedText = ""
	if got := tr.Text(); got != "original" {
		t.Errorf("Text = %q, want original", got)
	}
}
