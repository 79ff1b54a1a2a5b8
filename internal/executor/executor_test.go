package executor

import (
	"context"
	"errors"
	"testing"

	"product-mockup-studio/internal/apperr"
	"product-mockup-studio/internal/gemini"
	"product-mockup-studio/internal/imagedata"
	"product-mockup-studio/internal/schema"
)

type stubModel struct {
	resp  gemini.Response
	err   error
	calls []gemini.Request
}

func (s *stubModel) Generate(_ context.Context, req gemini.Request) (gemini.Response, error) {
	s.calls = append(s.calls, req)
	return s.resp, s.err
}

var nameSchema = &schema.Schema{
	Type:       schema.Object,
	Properties: map[string]*schema.Schema{"name": {Type: schema.String}},
	Required:   []string{"name"},
}

func TestJSONDecodesValidatedResponse(t *testing.T) {
	m := &stubModel{resp: gemini.Response{Text: "```json\n{\"name\":\"aloe\"}\n```"}}
	ex := New(Options{Model: m})

	var out struct {
		Name string `json:"name"`
	}
	if err := ex.JSON(context.Background(), []gemini.Part{gemini.Text("x")}, nameSchema, &out); err != nil {
		t.Fatalf("JSON error: %v", err)
	}
	if out.Name != "aloe" {
		t.Fatalf("unexpected decode: %+v", out)
	}
	if len(m.calls) != 1 || m.calls[0].Mode != gemini.ModeJSON || m.calls[0].Schema != nameSchema || m.calls[0].Model != gemini.DefaultTextModel {
		t.Fatalf("unexpected request: %+v", m.calls)
	}
}

func TestJSONInvalidIsResponseFormat(t *testing.T) {
	for _, raw := range []string{"", "not json", `{"other":1}`} {
		m := &stubModel{resp: gemini.Response{Text: raw}}
		var out map[string]any
		err := New(Options{Model: m}).JSON(context.Background(), []gemini.Part{gemini.Text("x")}, nameSchema, &out)
		if apperr.KindOf(err) != apperr.KindResponseFormat {
			t.Fatalf("%q: expected response format error, got %v", raw, err)
		}
		if len(m.calls) != 1 {
			t.Fatalf("%q: expected exactly one call, got %d", raw, len(m.calls))
		}
	}
}

func TestImageWithoutImageIsEmptyResult(t *testing.T) {
	m := &stubModel{resp: gemini.Response{Text: "I cannot do that", FinishReason: "SAFETY"}}
	_, err := New(Options{Model: m, ImageModel: "img-model"}).Image(context.Background(), []gemini.Part{gemini.Text("x")}, "1:1")
	if apperr.KindOf(err) != apperr.KindEmptyResult {
		t.Fatalf("expected empty result error, got %v", err)
	}
	if m.calls[0].Model != "img-model" || m.calls[0].AspectRatio != "1:1" || m.calls[0].Mode != gemini.ModeImage {
		t.Fatalf("unexpected request: %+v", m.calls[0])
	}
}

func TestImageReturnsFirst(t *testing.T) {
	first := imagedata.Image{MediaType: "image/png", Base64: "AAAA"}
	m := &stubModel{resp: gemini.Response{Images: []imagedata.Image{first, {MediaType: "image/png", Base64: "BBBB"}}}}
	img, err := New(Options{Model: m}).Image(context.Background(), []gemini.Part{gemini.Text("x")}, "")
	if err != nil || !img.Equal(first) {
		t.Fatalf("unexpected result %+v %v", img, err)
	}
}

func TestTransportErrorsAreUpstream(t *testing.T) {
	m := &stubModel{err: errors.New("connection reset")}
	_, err := New(Options{Model: m}).Text(context.Background(), []gemini.Part{gemini.Text("x")})
	if apperr.KindOf(err) != apperr.KindUpstream {
		t.Fatalf("expected upstream error, got %v", err)
	}

	m = &stubModel{err: apperr.Configuration("missing key")}
	_, err = New(Options{Model: m}).Text(context.Background(), []gemini.Part{gemini.Text("x")})
	if apperr.KindOf(err) != apperr.KindConfiguration {
		t.Fatalf("expected configuration error to pass through, got %v", err)
	}
}
