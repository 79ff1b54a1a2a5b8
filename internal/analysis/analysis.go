package analysis

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"product-mockup-studio/internal/apperr"
	"product-mockup-studio/internal/gemini"
	"product-mockup-studio/internal/imagedata"
	"product-mockup-studio/internal/schema"
)

type Executor interface {
	JSON(ctx context.Context, parts []gemini.Part, s *schema.Schema, out any) error
	Text(ctx context.Context, parts []gemini.Part) (string, error)
}

type Options struct {
	Executor Executor
	Logger   *slog.Logger
}

// Analyzer runs the single-image analyses. Each method makes one model call.
type Analyzer struct {
	exec   Executor
	logger *slog.Logger
}

func New(opts Options) *Analyzer {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Analyzer{exec: opts.Executor, logger: logger}
}

const notAvailable = "N/A"

// StyleReference describes the aesthetics of a reference image.
type StyleReference struct {
	Environment      string `json:"Environment"`
	Lighting         string `json:"Lighting"`
	Colors           string `json:"Colors"`
	CameraFraming    string `json:"Camera framing"`
	TextureMaterials string `json:"Texture & materials"`
	Atmosphere       string `json:"Atmosphere"`
}

// String renders the bullet list embedded in the mockup prompt.
func (s StyleReference) String() string {
	lines := []struct{ key, value string }{
		{"Environment", s.Environment},
		{"Lighting", s.Lighting},
		{"Colors", s.Colors},
		{"Camera framing", s.CameraFraming},
		{"Texture & materials", s.TextureMaterials},
		{"Atmosphere", s.Atmosphere},
	}
	var sb strings.Builder
	for i, l := range lines {
		if i > 0 {
			sb.WriteByte('\n')
		}
		fmt.Fprintf(&sb, "- %s: %s", l.key, orNA(l.value))
	}
	return sb.String()
}

func (s StyleReference) withDefaults() StyleReference {
	s.Environment = orNA(s.Environment)
	s.Lighting = orNA(s.Lighting)
	s.Colors = orNA(s.Colors)
	s.CameraFraming = orNA(s.CameraFraming)
	s.TextureMaterials = orNA(s.TextureMaterials)
	s.Atmosphere = orNA(s.Atmosphere)
	return s
}

// StyleReferenceInstruction forbids describing products, text or brands so
// that nothing from the reference leaks into the product domain.
const StyleReferenceInstruction = `Analyze this image to extract ONLY its aesthetic qualities. Do NOT describe any products, text, or brands from the image.
Focus strictly on:
- Lighting style
- Color palette
- Camera angle
- Depth of field
- Background structure
- Scene elements (excluding any products, text, or labels)

Rewrite the extracted style into a clean, safe, structured JSON object with the following keys. If a category is not discernible, use "N/A".
{
  "Environment": "Description of the background and overall setting",
  "Lighting": "Description of the lighting style and direction",
  "Colors": "Description of the main color palette and mood",
  "Camera framing": "Description of camera angle, depth of field, and composition",
  "Texture & materials": "Description of prominent textures and materials in the scene",
  "Atmosphere": "Description of the overall mood or feeling"
}
Return ONLY the JSON object.`

// ProductVibeInstruction asks for mood keywords and forbids describing the
// product or its label.
const ProductVibeInstruction = `Analyze this product image and describe its inherent mood, theme, natural elements, and color emotions in 3-5 keywords or a very short phrase. Do NOT describe the product itself or any text/labels.
Examples:
- Aloe product: "fresh, nature, green, water droplets, soothing"
- Honey jar: "warm, golden, cozy, natural, sweet"
- Citrus drink: "bright, energetic, refreshing, vibrant"
- Vitamin bottle: "clean, clinical, minimal white, health"
Return ONLY the keywords/phrase, e.g., "fresh, nature, green, water droplets".`

// LabelTextInstruction requires verbatim extraction with nothing invented.
const LabelTextInstruction = `Extract the text exactly as it appears on the label of the provided product image. Do not alter, rewrite, or correct anything. Do not invent or complete text that is not legible. Preserve all product text in its original form. Return ONLY a valid JSON object with one key: "extractedText".`

var StyleReferenceSchema = &schema.Schema{
	Type: schema.Object,
	Properties: map[string]*schema.Schema{
		"Environment":         {Type: schema.String},
		"Lighting":            {Type: schema.String},
		"Colors":              {Type: schema.String},
		"Camera framing":      {Type: schema.String},
		"Texture & materials": {Type: schema.String},
		"Atmosphere":          {Type: schema.String},
	},
	Required: []string{"Environment", "Lighting", "Colors", "Camera framing", "Texture & materials", "Atmosphere"},
}

var LabelTextSchema = &schema.Schema{
	Type: schema.Object,
	Properties: map[string]*schema.Schema{
		"extractedText": {Type: schema.String, Description: "The verbatim text extracted from the product label."},
	},
	Required: []string{"extractedText"},
}

func (a *Analyzer) StyleReference(ctx context.Context, img imagedata.Image) (StyleReference, error) {
	if err := requireImage(img, "style reference"); err != nil {
		return StyleReference{}, err
	}
	var out StyleReference
	if err := a.exec.JSON(ctx, []gemini.Part{gemini.Image(img), gemini.Text(StyleReferenceInstruction)}, StyleReferenceSchema, &out); err != nil {
		a.logger.Warn("style analysis failed", "err", err)
		return StyleReference{}, err
	}
	return out.withDefaults(), nil
}

func (a *Analyzer) ProductVibe(ctx context.Context, img imagedata.Image) (string, error) {
	if err := requireImage(img, "product"); err != nil {
		return "", err
	}
	text, err := a.exec.Text(ctx, []gemini.Part{gemini.Image(img), gemini.Text(ProductVibeInstruction)})
	if err != nil {
		a.logger.Warn("vibe analysis failed", "err", err)
		return "", err
	}
	return strings.Trim(strings.TrimSpace(text), `"`), nil
}

func (a *Analyzer) LabelText(ctx context.Context, img imagedata.Image) (string, error) {
	if err := requireImage(img, "product"); err != nil {
		return "", err
	}
	var out struct {
		ExtractedText string `json:"extractedText"`
	}
	if err := a.exec.JSON(ctx, []gemini.Part{gemini.Image(img), gemini.Text(LabelTextInstruction)}, LabelTextSchema, &out); err != nil {
		a.logger.Warn("label extraction failed", "err", err)
		return "", err
	}
	return out.ExtractedText, nil
}

func requireImage(img imagedata.Image, what string) error {
	if img.IsZero() {
		return apperr.Precondition(fmt.Sprintf("Please upload a %s image first.", what))
	}
	return nil
}

func orNA(s string) string {
	if strings.TrimSpace(s) == "" {
		return notAvailable
	}
	return strings.TrimSpace(s)
}
