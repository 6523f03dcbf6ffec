package whisper

import (
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/voxprep/voxprep/pkg/provider/stt"
)

// ---- helpers ----------------------------------------------------------------

// newMockServer creates a test server that responds to POST /inference with a
// JSON body containing the provided responseText. It increments *callCount on
// every matched request and captures the multipart form into *gotForm.
func newMockServer(t *testing.T, responseText string, callCount *atomic.Int32, gotForm *multipart.Form) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/inference" {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		if callCount != nil {
			callCount.Add(1)
		}
		if gotForm != nil {
			if err := r.ParseMultipartForm(1 << 20); err != nil {
				http.Error(w, "bad form", http.StatusBadRequest)
				return
			}
			*gotForm = *r.MultipartForm
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{"text": responseText})
	}))
}

func wavRequest() stt.Request {
	return stt.Request{MIME: "audio/wav", Audio: []byte("RIFFxxxxWAVEfake")}
}

// ---- provider construction --------------------------------------------------

func TestNew_EmptyServerURL_ReturnsError(t *testing.T) {
	t.Parallel()
	_, err := New("")
	if err == nil {
		t.Fatal("expected error for empty serverURL, got nil")
	}
}

func TestNew_WithOptions_DoesNotError(t *testing.T) {
	t.Parallel()
	p, err := New("http://localhost:8080",
		WithModel("small"),
		WithLanguage("de"),
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p == nil {
		t.Fatal("expected non-nil Provider")
	}
}

// ---- transcription ----------------------------------------------------------

func TestTranscribe_ReturnsServerText(t *testing.T) {
	t.Parallel()
	var calls atomic.Int32
	srv := newMockServer(t, "hello world", &calls, nil)
	defer srv.Close()

	p, _ := New(srv.URL)
	result, err := p.Transcribe(context.Background(), wavRequest())
	if err != nil {
		t.Fatalf("Transcribe: %v", err)
	}
	if result.Text != "hello world" {
		t.Errorf("Text = %q, want %q", result.Text, "hello world")
	}
	if calls.Load() != 1 {
		t.Errorf("server calls = %d, want 1", calls.Load())
	}
}

func TestTranscribe_SendsLanguageAndModelFields(t *testing.T) {
	t.Parallel()
	var form multipart.Form
	srv := newMockServer(t, "ok", nil, &form)
	defer srv.Close()

	p, _ := New(srv.URL, WithModel("small"), WithLanguage("de"))
	if _, err := p.Transcribe(context.Background(), wavRequest()); err != nil {
		t.Fatalf("Transcribe: %v", err)
	}

	if got := form.Value["language"]; len(got) != 1 || got[0] != "de" {
		t.Errorf("language field = %v, want [de]", got)
	}
	if got := form.Value["model"]; len(got) != 1 || got[0] != "small" {
		t.Errorf("model field = %v, want [small]", got)
	}
	if got := form.File["file"]; len(got) != 1 {
		t.Errorf("file field count = %d, want 1", len(got))
	}
}

func TestTranscribe_RequestLanguageOverridesDefault(t *testing.T) {
	t.Parallel()
	var form multipart.Form
	srv := newMockServer(t, "ok", nil, &form)
	defer srv.Close()

	p, _ := New(srv.URL, WithLanguage("en"))
	req := wavRequest()
	req.Language = "fr"
	if _, err := p.Transcribe(context.Background(), req); err != nil {
		t.Fatalf("Transcribe: %v", err)
	}

	if got := form.Value["language"]; len(got) != 1 || got[0] != "fr" {
		t.Errorf("language field = %v, want [fr]", got)
	}
}

func TestTranscribe_EmptyAudio_ReturnsErrEmptyAudio(t *testing.T) {
	t.Parallel()
	p, _ := New("http://localhost:8080")
	_, err := p.Transcribe(context.Background(), stt.Request{MIME: "audio/wav"})
	if err == nil {
		t.Fatal("expected error for empty audio, got nil")
	}
}

func TestTranscribe_ServerError_ReturnsError(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	p, _ := New(srv.URL)
	if _, err := p.Transcribe(context.Background(), wavRequest()); err == nil {
		t.Fatal("expected error for HTTP 500, got nil")
	}
}

func TestTranscribe_InvalidJSON_ReturnsError(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("not json"))
	}))
	defer srv.Close()

	p, _ := New(srv.URL)
	if _, err := p.Transcribe(context.Background(), wavRequest()); err == nil {
		t.Fatal("expected error for invalid JSON, got nil")
	}
}

func TestTranscribe_CancelledContext_ReturnsError(t *testing.T) {
	t.Parallel()
	srv := newMockServer(t, "late", nil, nil)
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p, _ := New(srv.URL)
	if _, err := p.Transcribe(ctx, wavRequest()); err == nil {
		t.Fatal("expected error for cancelled context, got nil")
	}
}
