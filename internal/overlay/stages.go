package overlay

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"product-mockup-studio/internal/apperr"
	"product-mockup-studio/internal/gemini"
	"product-mockup-studio/internal/imagedata"
	"product-mockup-studio/internal/schema"
)

type JSONExecutor interface {
	JSON(ctx context.Context, parts []gemini.Part, s *schema.Schema, out any) error
}

type ImageExecutor interface {
	Image(ctx context.Context, parts []gemini.Part, aspectRatio string) (imagedata.Image, error)
}

// Compositor draws the given blocks onto base. It only ever receives blocks
// that have content in opts.Language.
type Compositor interface {
	Compose(ctx context.Context, base imagedata.Image, layout Layout, blocks []ContentBlock, opts RenderOptions) (imagedata.Image, error)
}

type StagesOptions struct {
	Executor   JSONExecutor
	Compositor Compositor
	Logger     *slog.Logger
}

// Stages implements the four overlay steps. Each method is one model call
// followed by deterministic validation.
type Stages struct {
	exec       JSONExecutor
	compositor Compositor
	logger     *slog.Logger
}

func NewStages(opts StagesOptions) *Stages {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Stages{exec: opts.Executor, compositor: opts.Compositor, logger: logger}
}

func (s *Stages) AnalyzeLayout(ctx context.Context, styleImage imagedata.Image) (Layout, error) {
	if styleImage.IsZero() {
		return Layout{}, apperr.Precondition("Please upload a Text Overlay Style Reference image in Step 1.")
	}
	var layout Layout
	if err := s.exec.JSON(ctx, []gemini.Part{gemini.Image(styleImage), gemini.Text(LayoutInstruction)}, LayoutSchema, &layout); err != nil {
		return Layout{}, err
	}
	if err := layout.Validate(); err != nil {
		return Layout{}, err
	}
	s.logger.Debug("overlay layout analyzed", "blocks", len(layout.Blocks))
	return layout, nil
}

func (s *Stages) ExtractProductInfo(ctx context.Context, productImage imagedata.Image) (ProductInfo, error) {
	if productImage.IsZero() {
		return ProductInfo{}, apperr.Precondition("Please ensure a product image is available (from generator or uploaded here).")
	}
	var info ProductInfo
	if err := s.exec.JSON(ctx, []gemini.Part{gemini.Image(productImage), gemini.Text(ProductInfoInstruction)}, ProductInfoSchema, &info); err != nil {
		return ProductInfo{}, err
	}
	return info.normalized(), nil
}

// GenerateContent asks for localized text and then applies the layout,
// compatibility and repetition guards.
func (s *Stages) GenerateContent(ctx context.Context, info ProductInfo, layout Layout, lang string) (Content, error) {
	lang, err := NormalizeLanguage(lang)
	if err != nil {
		return Content{}, err
	}
	text, err := composeContentPrompt(info, layout, lang)
	if err != nil {
		return Content{}, err
	}

	var content Content
	if err := s.exec.JSON(ctx, []gemini.Part{gemini.Text(text)}, ContentSchema(lang), &content); err != nil {
		return Content{}, err
	}

	raw := len(content.Blocks)
	content = RestrictToLayout(content, layout)
	if err := content.Validate(); err != nil {
		return Content{}, err
	}
	content = FilterIncompatible(content, info)
	content = Deduplicate(content, info)
	s.logger.Debug("overlay content generated",
		"lang", lang,
		"blocks", raw,
		"in_layout", len(content.Blocks),
		"renderable", len(RenderableBlocks(content, lang)),
	)
	return content, nil
}

type RenderInput struct {
	Base    imagedata.Image
	Layout  Layout
	Content Content
	RenderOptions
}

func (s *Stages) Render(ctx context.Context, in RenderInput) (imagedata.Image, error) {
	if in.Base.IsZero() {
		return imagedata.Image{}, apperr.Precondition("Please complete all previous steps before rendering.")
	}
	lang, err := NormalizeLanguage(in.Language)
	if err != nil {
		return imagedata.Image{}, err
	}
	in.Language = lang

	blocks := RenderableBlocks(in.Content, lang)
	if len(blocks) == 0 {
		return imagedata.Image{}, apperr.Precondition(fmt.Sprintf("No text block has %s content to render.", languageName(lang)))
	}
	if s.compositor == nil {
		return imagedata.Image{}, apperr.Configuration("overlay compositor is not configured")
	}
	return s.compositor.Compose(ctx, in.Base, in.Layout, blocks, in.RenderOptions)
}

// ModelCompositor renders through the image model.
type ModelCompositor struct {
	exec ImageExecutor
}

func NewModelCompositor(exec ImageExecutor) *ModelCompositor {
	return &ModelCompositor{exec: exec}
}

func (m *ModelCompositor) Compose(ctx context.Context, base imagedata.Image, layout Layout, blocks []ContentBlock, opts RenderOptions) (imagedata.Image, error) {
	content := Content{FontHint: layout.FontHint, ColorPalette: layout.ColorPalette, Blocks: blocks}.Project(opts.Language)
	text, err := composeRenderPrompt(layout, content, opts)
	if err != nil {
		return imagedata.Image{}, err
	}
	return m.exec.Image(ctx, []gemini.Part{gemini.Image(base), gemini.Text(text)}, "")
}
