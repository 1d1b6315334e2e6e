package tts

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"dialdesk/internal/config"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *ElevenLabsClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewElevenLabsClient(config.ElevenLabsConfig{
		APIKey:         "xi-key",
		RequestTimeout: 5 * time.Second,
	}, nil, WithBaseURL(srv.URL))
}

func TestSynthesize(t *testing.T) {
	audio := []byte("mp3-bytes")
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/text-to-speech/"+DefaultVoiceID {
			t.Errorf("path = %q", r.URL.Path)
		}
		if got := r.Header.Get("xi-api-key"); got != "xi-key" {
			t.Errorf("xi-api-key = %q", got)
		}
		var body map[string]any
		json.NewDecoder(r.Body).Decode(&body)
		if body["text"] != "hello there" {
			t.Errorf("text = %v", body["text"])
		}
		w.Write(audio)
	})

	got, err := c.Synthesize(context.Background(), "hello there", "")
	if err != nil {
		t.Fatalf("Synthesize: %v", err)
	}
	if !bytes.Equal(got, audio) {
		t.Errorf("audio = %q", got)
	}
}

func TestSynthesizeEmptyText(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("server should not be called")
	})
	if _, err := c.Synthesize(context.Background(), "   ", ""); !errors.Is(err, ErrEmptyText) {
		t.Fatalf("error = %v, want ErrEmptyText", err)
	}
}

func TestSynthesizeUpstreamError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota exceeded", http.StatusTooManyRequests)
	})
	if _, err := c.Synthesize(context.Background(), "hello", ""); !errors.Is(err, ErrUnavailable) {
		t.Fatalf("error = %v, want ErrUnavailable", err)
	}
}

func TestCampaignMessage(t *testing.T) {
	var gotText string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		json.NewDecoder(r.Body).Decode(&body)
		gotText, _ = body["text"].(string)
		w.Write([]byte("audio"))
	})

	if _, err := c.CampaignMessage(context.Background(), "Hi {name}, checking in.", "Dana", ""); err != nil {
		t.Fatalf("CampaignMessage: %v", err)
	}
	if gotText != "Hi Dana, checking in." {
		t.Errorf("text = %q", gotText)
	}

	long := strings.Repeat("x", 900)
	if _, err := c.CampaignMessage(context.Background(), long, "Dana", ""); err != nil {
		t.Fatalf("CampaignMessage long: %v", err)
	}
	if len(gotText) != maxMessageChars {
		t.Errorf("len(text) = %d, want %d", len(gotText), maxMessageChars)
	}
}

func TestVoices(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/voices" {
			t.Errorf("path = %q", r.URL.Path)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"voices": []map[string]string{
				{"voice_id": "v1", "name": "Rachel"},
				{"voice_id": "v2", "name": "Adam"},
			},
		})
	})

	voices, err := c.Voices(context.Background())
	if err != nil {
		t.Fatalf("Voices: %v", err)
	}
	if len(voices) != 2 || voices[0].Name != "Rachel" {
		t.Errorf("voices = %+v", voices)
	}
}
