package analysis

import (
	"context"
	"strings"
	"testing"

	"product-mockup-studio/internal/executor"
	"product-mockup-studio/internal/gemini"
	"product-mockup-studio/internal/imagedata"
)

type fakeModel struct {
	text string
	last gemini.Request
}

func (f *fakeModel) Generate(_ context.Context, req gemini.Request) (gemini.Response, error) {
	f.last = req
	return gemini.Response{Text: f.text}, nil
}

var pixel = imagedata.Image{MediaType: "image/png", Base64: "AAAA"}

func newAnalyzer(text string) (*Analyzer, *fakeModel) {
	m := &fakeModel{text: text}
	return New(Options{Executor: executor.New(executor.Options{Model: m})}), m
}

func TestInstructionsCarryExclusions(t *testing.T) {
	if !strings.Contains(StyleReferenceInstruction, "Do NOT describe any products, text, or brands") {
		t.Fatalf("style instruction must exclude product content")
	}
	if !strings.Contains(ProductVibeInstruction, "Do NOT describe the product itself or any text/labels") {
		t.Fatalf("vibe instruction must exclude product content")
	}
	if !strings.Contains(LabelTextInstruction, "Do not alter, rewrite, or correct anything") ||
		!strings.Contains(LabelTextInstruction, "Do not invent") {
		t.Fatalf("label instruction must forbid altering and inventing text")
	}
}

func TestStyleReferenceDefaultsAndFormat(t *testing.T) {
	a, m := newAnalyzer(`{"Environment":"Marble bathroom","Lighting":"","Colors":"Cream","Camera framing":"Eye level","Texture & materials":" ","Atmosphere":"Calm"}`)
	got, err := a.StyleReference(context.Background(), pixel)
	if err != nil {
		t.Fatalf("StyleReference error: %v", err)
	}
	if got.Lighting != "N/A" || got.TextureMaterials != "N/A" {
		t.Fatalf("expected N/A defaults, got %+v", got)
	}
	want := "- Environment: Marble bathroom\n- Lighting: N/A\n- Colors: Cream\n- Camera framing: Eye level\n- Texture & materials: N/A\n- Atmosphere: Calm"
	if got.String() != want {
		t.Fatalf("unexpected format:\n%s", got.String())
	}
	if m.last.Parts[0].Image == nil || m.last.Mode != gemini.ModeJSON {
		t.Fatalf("expected image-first JSON request, got %+v", m.last)
	}
}

func TestProductVibeTrimsQuotes(t *testing.T) {
	a, _ := newAnalyzer("  \"fresh, nature, green\"\n")
	got, err := a.ProductVibe(context.Background(), pixel)
	if err != nil || got != "fresh, nature, green" {
		t.Fatalf("unexpected vibe %q %v", got, err)
	}
}

func TestLabelTextRequiresImage(t *testing.T) {
	a, m := newAnalyzer(`{"extractedText":"ALOE"}`)
	if _, err := a.LabelText(context.Background(), imagedata.Image{}); err == nil {
		t.Fatalf("expected precondition error")
	}
	if len(m.last.Parts) != 0 {
		t.Fatalf("model must not be called without an image")
	}
	got, err := a.LabelText(context.Background(), pixel)
	if err != nil || got != "ALOE" {
		t.Fatalf("unexpected label %q %v", got, err)
	}
}
