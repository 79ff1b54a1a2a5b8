package gemini

import (
	"product-mockup-studio/internal/imagedata"
	"product-mockup-studio/internal/schema"
)

type Mode int

const (
	ModeText Mode = iota
	ModeJSON
	ModeImage
)

func (m Mode) String() string {
	switch m {
	case ModeJSON:
		return "json"
	case ModeImage:
		return "image"
	default:
		return "text"
	}
}

// Part is one ordered request part: either text or an inline image.
type Part struct {
	Text  string
	Image *imagedata.Image
}

func Text(s string) Part { return Part{Text: s} }

func Image(img imagedata.Image) Part { return Part{Image: &img} }

type Request struct {
	Model       string
	Parts       []Part
	Mode        Mode
	Schema      *schema.Schema
	AspectRatio string
	Temperature *float64
}

type Response struct {
	Text         string
	Images       []imagedata.Image
	FinishReason string
	BlockReason  string
}

type generateContentRequest struct {
	Contents         []content         `json:"contents"`
	GenerationConfig *generationConfig `json:"generationConfig,omitempty"`
}

type generationConfig struct {
	Temperature        *float64       `json:"temperature,omitempty"`
	ResponseMimeType   string         `json:"responseMimeType,omitempty"`
	ResponseSchema     *schema.Schema `json:"responseSchema,omitempty"`
	ResponseModalities []string       `json:"responseModalities,omitempty"`
	ImageConfig        *imageConfig   `json:"imageConfig,omitempty"`
}

type imageConfig struct {
	AspectRatio string `json:"aspectRatio,omitempty"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type part struct {
	Text       string           `json:"text,omitempty"`
	InlineData *imagedata.Image `json:"inlineData,omitempty"`
}

type generateContentResponse struct {
	Candidates     []candidate     `json:"candidates"`
	PromptFeedback *promptFeedback `json:"promptFeedback,omitempty"`
}

type candidate struct {
	Content      content `json:"content"`
	FinishReason string  `json:"finishReason,omitempty"`
}

type promptFeedback struct {
	BlockReason string `json:"blockReason,omitempty"`
}
