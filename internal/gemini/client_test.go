package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"product-mockup-studio/internal/apperr"
	"product-mockup-studio/internal/imagedata"
	"product-mockup-studio/internal/schema"
)

func TestGenerateMissingKeyMakesNoRequest(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer srv.Close()

	c := New(Options{BaseURL: srv.URL, HTTPClient: srv.Client()})
	_, err := c.Generate(context.Background(), Request{Model: DefaultTextModel, Parts: []Part{Text("hi")}})
	if apperr.KindOf(err) != apperr.KindConfiguration {
		t.Fatalf("expected configuration error, got %v", err)
	}
	if called {
		t.Fatalf("server must not be called without an API key")
	}
}

func TestGenerateImageRequestShape(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1beta/models/gemini-2.5-flash-image:generateContent" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.Header.Get("x-goog-api-key") != "k" {
			t.Errorf("missing api key header")
		}
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &got)
		_, _ = io.WriteString(w, `{"candidates":[{"finishReason":"STOP","content":{"parts":[{"text":"ok"},{"inlineData":{"mimeType":"image/png","data":"aGVsbG8="}}]}}]}`)
	}))
	defer srv.Close()

	c := New(Options{APIKey: "k", BaseURL: srv.URL, HTTPClient: srv.Client()})
	product := imagedata.Image{MediaType: "image/jpeg", Base64: "AAAA"}
	resp, err := c.Generate(context.Background(), Request{
		Model:       DefaultImageModel,
		Mode:        ModeImage,
		AspectRatio: "4:5",
		Parts:       []Part{Image(product), Text("make a mockup")},
	})
	if err != nil {
		t.Fatalf("Generate error: %v", err)
	}
	if len(resp.Images) != 1 || resp.Images[0].MediaType != "image/png" || resp.Text != "ok" {
		t.Fatalf("unexpected response: %+v", resp)
	}

	cfg := got["generationConfig"].(map[string]any)
	if mods := cfg["responseModalities"].([]any); len(mods) != 1 || mods[0] != "IMAGE" {
		t.Fatalf("unexpected modalities: %v", mods)
	}
	if ar := cfg["imageConfig"].(map[string]any)["aspectRatio"]; ar != "4:5" {
		t.Fatalf("unexpected aspect ratio: %v", ar)
	}
	parts := got["contents"].([]any)[0].(map[string]any)["parts"].([]any)
	if _, ok := parts[0].(map[string]any)["inlineData"]; !ok {
		t.Fatalf("expected image first, got %v", parts[0])
	}
	if parts[1].(map[string]any)["text"] != "make a mockup" {
		t.Fatalf("expected prompt second, got %v", parts[1])
	}
}

func TestGenerateJSONModeSendsSchema(t *testing.T) {
	var raw string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		raw = string(body)
		_, _ = io.WriteString(w, `{"candidates":[{"content":{"parts":[{"text":"{}"}]}}]}`)
	}))
	defer srv.Close()

	c := New(Options{APIKey: "k", BaseURL: srv.URL, HTTPClient: srv.Client()})
	_, err := c.Generate(context.Background(), Request{
		Model:  DefaultTextModel,
		Mode:   ModeJSON,
		Schema: &schema.Schema{Type: schema.Object},
		Parts:  []Part{Text("x")},
	})
	if err != nil {
		t.Fatalf("Generate error: %v", err)
	}
	if !strings.Contains(raw, `"responseMimeType":"application/json"`) || !strings.Contains(raw, `"responseSchema":{"type":"OBJECT"}`) {
		t.Fatalf("unexpected payload: %s", raw)
	}
}

func TestGenerateUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = io.WriteString(w, `{"error":{"code":429,"message":"quota exceeded"}}`)
	}))
	defer srv.Close()

	c := New(Options{APIKey: "k", BaseURL: srv.URL, HTTPClient: srv.Client()})
	_, err := c.Generate(context.Background(), Request{Model: DefaultTextModel, Parts: []Part{Text("x")}})
	var e *apperr.Error
	if !errors.As(err, &e) || e.Kind != apperr.KindUpstream {
		t.Fatalf("expected upstream error, got %v", err)
	}
	if !strings.Contains(err.Error(), "quota exceeded") {
		t.Fatalf("expected upstream message, got %v", err)
	}
}
