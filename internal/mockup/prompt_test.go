package mockup

import (
	"encoding/json"
	"reflect"
	"strings"
	"testing"

	"product-mockup-studio/internal/catalog"
	"product-mockup-studio/internal/imagedata"
)

var (
	productImg = imagedata.Image{MediaType: "image/png", Base64: "UFJPRA=="}
	styleImg   = imagedata.Image{MediaType: "image/jpeg", Base64: "U1RZTEU="}
)

func baseSettings() Settings {
	return Settings{
		ProductImage: productImg,
		Selection:    catalog.Default().Defaults(),
	}
}

func TestPromptBlocksForEveryCombination(t *testing.T) {
	for mask := 0; mask < 32; mask++ {
		s := baseSettings()
		hasStyleImage := mask&1 != 0
		hasAnalysis := mask&2 != 0
		useStyle := mask&4 != 0
		matchVibe := mask&8 != 0
		hasVibe := mask&16 != 0
		if hasStyleImage {
			s.StyleImage = styleImg
		}
		if hasAnalysis {
			s.StyleAnalysis = "- Environment: Marble"
		}
		s.UseStyleReference = useStyle
		s.MatchProductVibe = matchVibe
		if hasVibe {
			s.ProductVibe = "fresh, nature, green"
		}

		p := ComposePrompt(s)
		wantStyle := useStyle && hasStyleImage && hasAnalysis
		wantVibe := useStyle && matchVibe && hasVibe

		if got := strings.Contains(p, "-- STYLE REFERENCE --"); got != wantStyle {
			t.Fatalf("mask %05b: style block present=%v want %v", mask, got, wantStyle)
		}
		if got := strings.Contains(p, "-- PRODUCT VIBE"); got != wantVibe {
			t.Fatalf("mask %05b: vibe block present=%v want %v", mask, got, wantVibe)
		}
		if !wantStyle && strings.Contains(p, "Marble") {
			t.Fatalf("mask %05b: analysis text leaked without style block", mask)
		}
		if !wantVibe && strings.Contains(p, "fresh, nature, green") {
			t.Fatalf("mask %05b: vibe text leaked without vibe block", mask)
		}
	}
}

func TestPromptBlockOrder(t *testing.T) {
	s := baseSettings()
	s.StyleImage = styleImg
	s.StyleAnalysis = "- Environment: Marble"
	s.UseStyleReference = true
	s.MatchProductVibe = true
	s.ProductVibe = "warm"

	want := []string{"rules", "negative", "aspect_ratio", "scene", "style_reference", "product_vibe", "closing"}
	if got := PromptBlocks(s); !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v want %v", got, want)
	}

	p := ComposePrompt(s)
	markers := []string{"CRITICAL RULES", "NEGATIVE PROMPT", "ASPECT RATIO", "Camera & Composition", "Lighting & Mood", "**Environment:**", "STYLE REFERENCE", "PRODUCT VIBE", "Generate the final image"}
	last := -1
	for _, m := range markers {
		idx := strings.Index(p, m)
		if idx <= last {
			t.Fatalf("marker %q out of order (idx %d, prev %d)", m, idx, last)
		}
		last = idx
	}
}

func TestReflectionClause(t *testing.T) {
	s := baseSettings()
	s.Reflection = "None"
	if strings.Contains(ComposePrompt(s), "The surface has") {
		t.Fatalf("reflection clause must be absent for None")
	}
	s.Reflection = "Subtle reflection"
	if !strings.Contains(ComposePrompt(s), "The surface has subtle reflection.") {
		t.Fatalf("reflection clause missing")
	}
}

func TestPNGReflectionNoStyleScenario(t *testing.T) {
	s := baseSettings()
	s.OutputPNG = true
	s.Reflection = "Strong glossy reflection"
	s.StyleImage = styleImg
	s.StyleAnalysis = "- Environment: Marble"
	s.UseStyleReference = false

	p := ComposePrompt(s)
	if !strings.Contains(p, "transparent background (PNG)") {
		t.Fatalf("transparency directive missing")
	}
	if !strings.Contains(p, "strong glossy reflection") {
		t.Fatalf("reflection clause missing")
	}
	if strings.Contains(p, "STYLE REFERENCE") || strings.Contains(p, "PRODUCT VIBE") {
		t.Fatalf("style and vibe blocks must be absent")
	}
	if !strings.Contains(p, "4:5 aspect ratio") {
		t.Fatalf("aspect ratio missing")
	}
}

func TestEffectiveKeepsReceiver(t *testing.T) {
	s := baseSettings()
	s.MatchProductVibe = true
	s.ProductVibe = "warm"
	eff := s.Effective()
	if eff.MatchProductVibe || eff.ProductVibe != "" {
		t.Fatalf("vibe must be inert without style reference: %+v", eff)
	}
	if !s.MatchProductVibe || s.ProductVibe != "warm" {
		t.Fatalf("receiver must keep its vibe")
	}
}

func TestSummaryExcludesImages(t *testing.T) {
	s := baseSettings()
	s.StyleImage = styleImg
	s.UseStyleReference = true
	s.StyleAnalysis = "- Environment: Marble"
	raw := Summary(s)
	if strings.Contains(raw, productImg.Base64) || strings.Contains(raw, styleImg.Base64) {
		t.Fatalf("summary leaked image bytes: %s", raw)
	}
	var decoded map[string]any
	if err := json.Unmarshal([]byte(raw), &decoded); err != nil {
		t.Fatalf("summary is not JSON: %v", err)
	}
	if decoded["lens"] != "50mm" || decoded["styleReferencePrompt"] != "- Environment: Marble" || decoded["productVibePrompt"] != nil {
		t.Fatalf("unexpected summary: %v", decoded)
	}
}

func TestModificationPrompt(t *testing.T) {
	got := ComposeModificationPrompt("Add water droplets.")
	if !strings.HasPrefix(got, "Add water droplets. Important: Preserve the core product") {
		t.Fatalf("unexpected modification prompt %q", got)
	}
}
