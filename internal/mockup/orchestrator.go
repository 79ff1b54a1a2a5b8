package mockup

import (
	"context"
	"io"
	"log/slog"
	"strings"

	"golang.org/x/sync/errgroup"

	"product-mockup-studio/internal/apperr"
	"product-mockup-studio/internal/catalog"
	"product-mockup-studio/internal/gemini"
	"product-mockup-studio/internal/imagedata"
)

type ImageExecutor interface {
	Image(ctx context.Context, parts []gemini.Part, aspectRatio string) (imagedata.Image, error)
}

type LabelReader interface {
	LabelText(ctx context.Context, img imagedata.Image) (string, error)
}

type Options struct {
	Executor ImageExecutor
	Labels   LabelReader
	Catalog  *catalog.Catalog
	Logger   *slog.Logger
}

type Orchestrator struct {
	exec    ImageExecutor
	labels  LabelReader
	catalog *catalog.Catalog
	logger  *slog.Logger
}

func New(opts Options) *Orchestrator {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	cat := opts.Catalog
	if cat == nil {
		cat = catalog.Default()
	}
	return &Orchestrator{
		exec:    opts.Executor,
		labels:  opts.Labels,
		catalog: cat,
		logger:  logger,
	}
}

type Result struct {
	Image         imagedata.Image
	Prompt        string
	Summary       string
	ExtractedText string
	// ExtractionErr is set when label extraction failed; it never fails Generate.
	ExtractionErr error
}

// Generate extracts label text and renders the mockup concurrently. The
// returned Result carries whatever was obtained even when err is non-nil.
func (o *Orchestrator) Generate(ctx context.Context, s Settings) (Result, error) {
	if s.ProductImage.IsZero() {
		return Result{}, apperr.Precondition("Please upload a product image first.")
	}
	if err := o.catalog.Validate(s.Selection); err != nil {
		return Result{}, err
	}

	eff := s.Effective()
	res := Result{
		Prompt:  ComposePrompt(s),
		Summary: Summary(s),
	}

	var g errgroup.Group
	if o.labels != nil {
		g.Go(func() error {
			text, err := o.labels.LabelText(ctx, s.ProductImage)
			if err != nil {
				o.logger.Warn("label extraction failed", "err", err)
				res.ExtractionErr = apperr.Wrap("extract text content", err)
				return nil
			}
			res.ExtractedText = text
			return nil
		})
	}

	var generated imagedata.Image
	g.Go(func() error {
		parts := []gemini.Part{gemini.Text(res.Prompt), gemini.Image(eff.ProductImage)}
		if !eff.StyleImage.IsZero() {
			parts = append(parts, gemini.Image(eff.StyleImage))
		}
		img, err := o.exec.Image(ctx, parts, eff.AspectRatio)
		if err != nil {
			return err
		}
		generated = img
		return nil
	})

	if err := g.Wait(); err != nil {
		o.logger.Error("mockup generation failed", "err", err)
		return res, apperr.Wrap("generate", err)
	}
	res.Image = generated

	o.logger.Info("mockup generated",
		"aspect_ratio", eff.AspectRatio,
		"style_reference", !eff.StyleImage.IsZero(),
		"vibe", eff.MatchProductVibe,
		"png", eff.OutputPNG,
		"blocks", strings.Join(PromptBlocks(s), ","),
	)
	return res, nil
}

// Modify requests one edited image. The caller keeps its current image on error.
func (o *Orchestrator) Modify(ctx context.Context, base imagedata.Image, instruction string) (imagedata.Image, error) {
	if base.IsZero() {
		return imagedata.Image{}, apperr.Precondition("Please generate or upload an image to modify first.")
	}
	if strings.TrimSpace(instruction) == "" {
		return imagedata.Image{}, apperr.Precondition("Please describe the modification.")
	}

	parts := []gemini.Part{gemini.Image(base), gemini.Text(ComposeModificationPrompt(instruction))}
	img, err := o.exec.Image(ctx, parts, "")
	if err != nil {
		o.logger.Error("image modification failed", "err", err)
		return imagedata.Image{}, apperr.Wrap("modify image", err)
	}
	return img, nil
}
