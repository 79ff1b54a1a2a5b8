package mockup

import (
	"encoding/json"
	"strings"

	"product-mockup-studio/internal/catalog"
	"product-mockup-studio/internal/imagedata"
)

// Settings captures one mockup request.
type Settings struct {
	ProductImage      imagedata.Image
	StyleImage        imagedata.Image
	StyleAnalysis     string
	UseStyleReference bool
	MatchProductVibe  bool
	ProductVibe       string
	catalog.Selection
	OutputPNG bool
}

// Effective returns the copy that is actually sent: style and vibe inputs are
// blanked unless style-reference use is on, and the vibe phrase is blanked
// unless vibe matching is on. The receiver keeps its values.
func (s Settings) Effective() Settings {
	if !s.UseStyleReference {
		s.StyleImage = imagedata.Image{}
		s.StyleAnalysis = ""
		s.MatchProductVibe = false
	}
	if !s.MatchProductVibe {
		s.ProductVibe = ""
	}
	return s
}

func (s Settings) hasStyleReference() bool {
	return !s.StyleImage.IsZero() && strings.TrimSpace(s.StyleAnalysis) != ""
}

func (s Settings) hasVibe() bool {
	return s.MatchProductVibe && strings.TrimSpace(s.ProductVibe) != ""
}

type summary struct {
	StyleReferencePrompt *string `json:"styleReferencePrompt"`
	MatchProductVibe     bool    `json:"matchProductVibe"`
	ProductVibePrompt    *string `json:"productVibePrompt"`
	catalog.Selection
	OutputPNG bool `json:"outputPng"`
}

// Summary is the JSON projection of the effective settings without image data.
func Summary(s Settings) string {
	s = s.Effective()
	out := summary{
		StyleReferencePrompt: nonEmpty(s.StyleAnalysis),
		MatchProductVibe:     s.MatchProductVibe,
		ProductVibePrompt:    nonEmpty(s.ProductVibe),
		Selection:            s.Selection,
		OutputPNG:            s.OutputPNG,
	}
	raw, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return "{}"
	}
	return string(raw)
}

func nonEmpty(s string) *string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return &s
}
