package deepgram

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/voxprep/voxprep/pkg/provider/stt"
)

const sampleResponse = `{
  "results": {
    "channels": [
      {
        "alternatives": [
          {"transcript": "tell me about yourself", "confidence": 0.98}
        ]
      }
    ]
  }
}`

func newServer(t *testing.T, body string, gotReq **http.Request, gotBody *[]byte) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if gotReq != nil {
			clone := r.Clone(r.Context())
			*gotReq = clone
		}
		if gotBody != nil {
			data, _ := io.ReadAll(r.Body)
			*gotBody = data
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	}))
}

func TestNew_EmptyAPIKey_ReturnsError(t *testing.T) {
	t.Parallel()
	_, err := New("")
	if err == nil {
		t.Fatal("expected error for empty apiKey, got nil")
	}
}

func TestTranscribe_ReturnsTranscriptAndConfidence(t *testing.T) {
	t.Parallel()
	srv := newServer(t, sampleResponse, nil, nil)
	defer srv.Close()

	p, _ := New("key", WithBaseURL(srv.URL))
	result, err := p.Transcribe(context.Background(), stt.Request{MIME: "audio/wav", Audio: []byte("abc")})
	if err != nil {
		t.Fatalf("Transcribe: %v", err)
	}
	if result.Text != "tell me about yourself" {
		t.Errorf("Text = %q", result.Text)
	}
	if result.Confidence != 0.98 {
		t.Errorf("Confidence = %f, want 0.98", result.Confidence)
	}
}

func TestTranscribe_SendsAuthAndContentType(t *testing.T) {
	t.Parallel()
	var gotReq *http.Request
	var gotBody []byte
	srv := newServer(t, sampleResponse, &gotReq, &gotBody)
	defer srv.Close()

	p, _ := New("secret", WithBaseURL(srv.URL))
	audio := []byte("wav-bytes")
	if _, err := p.Transcribe(context.Background(), stt.Request{MIME: "audio/wav", Audio: audio}); err != nil {
		t.Fatalf("Transcribe: %v", err)
	}

	if got := gotReq.Header.Get("Authorization"); got != "Token secret" {
		t.Errorf("Authorization = %q, want %q", got, "Token secret")
	}
	if got := gotReq.Header.Get("Content-Type"); got != "audio/wav" {
		t.Errorf("Content-Type = %q, want %q", got, "audio/wav")
	}
	if string(gotBody) != string(audio) {
		t.Errorf("body = %q, want %q", gotBody, audio)
	}
}

func TestTranscribe_SetsModelAndLanguageQuery(t *testing.T) {
	t.Parallel()
	var gotReq *http.Request
	srv := newServer(t, sampleResponse, &gotReq, nil)
	defer srv.Close()

	p, _ := New("key", WithBaseURL(srv.URL), WithModel("base"), WithLanguage("de"))
	if _, err := p.Transcribe(context.Background(), stt.Request{MIME: "audio/wav", Audio: []byte("x")}); err != nil {
		t.Fatalf("Transcribe: %v", err)
	}

	q := gotReq.URL.Query()
	if got := q.Get("model"); got != "base" {
		t.Errorf("model query = %q, want %q", got, "base")
	}
	if got := q.Get("language"); got != "de" {
		t.Errorf("language query = %q, want %q", got, "de")
	}
}

func TestTranscribe_EmptyAudio_ReturnsError(t *testing.T) {
	t.Parallel()
	p, _ := New("key")
	if _, err := p.Transcribe(context.Background(), stt.Request{MIME: "audio/wav"}); err == nil {
		t.Fatal("expected error for empty audio, got nil")
	}
}

func TestTranscribe_NoAlternatives_ReturnsError(t *testing.T) {
	t.Parallel()
	srv := newServer(t, `{"results":{"channels":[]}}`, nil, nil)
	defer srv.Close()

	p, _ := New("key", WithBaseURL(srv.URL))
	if _, err := p.Transcribe(context.Background(), stt.Request{MIME: "audio/wav", Audio: []byte("x")}); err == nil {
		t.Fatal("expected error for empty channels, got nil")
	}
}

func TestTranscribe_ServerError_ReturnsError(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	p, _ := New("key", WithBaseURL(srv.URL))
	if _, err := p.Transcribe(context.Background(), stt.Request{MIME: "audio/wav", Audio: []byte("x")}); err == nil {
		t.Fatal("expected error for HTTP 429, got nil")
	}
}
