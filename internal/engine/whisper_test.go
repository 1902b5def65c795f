package engine

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeTempAudio(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "clip.webm")
	if err := os.WriteFile(path, []byte("not really audio"), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestWhisperTranscribe(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/audio/transcriptions" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("Authorization = %q", got)
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Fatalf("parse multipart: %v", err)
		}
		if got := r.FormValue("model"); got != "whisper-1" {
			t.Errorf("model = %q", got)
		}
		if got := r.FormValue("response_format"); got != "verbose_json" {
			t.Errorf("response_format = %q", got)
		}
		if got := r.FormValue("language"); got != "zh" {
			t.Errorf("language = %q", got)
		}
		if _, fh, err := r.FormFile("file"); err != nil || fh.Filename != "clip.webm" {
			t.Errorf("file part: %v, %v", fh, err)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"text":"大家好","language":"zh","duration":4.2,"segments":[{"start":0,"end":4.2,"text":"大家好"}]}`))
	}))
	defer srv.Close()

	rec := NewWhisperRecognizer("test-key", srv.URL, "")
	result, err := rec.Transcribe(context.Background(), writeTempAudio(t), "zh")
	if err != nil {
		t.Fatalf("Transcribe: %v", err)
	}
	if result.Text != "大家好" {
		t.Errorf("Text = %q", result.Text)
	}
	if result.Duration != 4.2 || len(result.Segments) != 1 {
		t.Errorf("metadata = %+v", result)
	}
}

func TestWhisperHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, `{"error":{"message":"invalid file"}}`, http.StatusBadRequest)
	}))
	defer srv.Close()

	rec := NewWhisperRecognizer("test-key", srv.URL, "whisper-1")
	_, err := rec.Transcribe(context.Background(), writeTempAudio(t), "")
	if err == nil {
		t.Fatal("expected error on HTTP 400")
	}
	if !strings.Contains(err.Error(), "400") {
		t.Errorf("err = %v, want status code in message", err)
	}
}
