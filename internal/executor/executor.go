package executor

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"

	"product-mockup-studio/internal/apperr"
	"product-mockup-studio/internal/gemini"
	"product-mockup-studio/internal/imagedata"
	"product-mockup-studio/internal/schema"
)

// Model is the single capability the executor needs from the external API.
type Model interface {
	Generate(ctx context.Context, req gemini.Request) (gemini.Response, error)
}

type Options struct {
	Model      Model
	TextModel  string
	ImageModel string
	Logger     *slog.Logger
}

// Executor issues exactly one model request per call and classifies the outcome.
type Executor struct {
	model      Model
	textModel  string
	imageModel string
	logger     *slog.Logger
}

func New(opts Options) *Executor {
	textModel := strings.TrimSpace(opts.TextModel)
	if textModel == "" {
		textModel = gemini.DefaultTextModel
	}
	imageModel := strings.TrimSpace(opts.ImageModel)
	if imageModel == "" {
		imageModel = gemini.DefaultImageModel
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Executor{
		model:      opts.Model,
		textModel:  textModel,
		imageModel: imageModel,
		logger:     logger,
	}
}

// JSON requests a schema-constrained answer and decodes it into out.
func (e *Executor) JSON(ctx context.Context, parts []gemini.Part, s *schema.Schema, out any) error {
	resp, err := e.call(ctx, gemini.Request{
		Model:  e.textModel,
		Mode:   gemini.ModeJSON,
		Schema: s,
		Parts:  parts,
	})
	if err != nil {
		return err
	}
	if strings.TrimSpace(resp.Text) == "" {
		return apperr.ResponseFormat("model returned an empty response%s", reasonSuffix(resp))
	}
	if err := schema.Decode(resp.Text, s, out); err != nil {
		e.logger.Debug("schema validation failed", "err", err, "raw_len", len(resp.Text))
		return apperr.ResponseFormat("model response did not match the expected format: %v", err)
	}
	return nil
}

// Text requests a plain-text answer.
func (e *Executor) Text(ctx context.Context, parts []gemini.Part) (string, error) {
	resp, err := e.call(ctx, gemini.Request{
		Model: e.textModel,
		Mode:  gemini.ModeText,
		Parts: parts,
	})
	if err != nil {
		return "", err
	}
	text := strings.TrimSpace(resp.Text)
	if text == "" {
		return "", apperr.ResponseFormat("model returned an empty response%s", reasonSuffix(resp))
	}
	return text, nil
}

// Image requests image output and returns the first inline image.
func (e *Executor) Image(ctx context.Context, parts []gemini.Part, aspectRatio string) (imagedata.Image, error) {
	resp, err := e.call(ctx, gemini.Request{
		Model:       e.imageModel,
		Mode:        gemini.ModeImage,
		AspectRatio: aspectRatio,
		Parts:       parts,
	})
	if err != nil {
		return imagedata.Image{}, err
	}
	if len(resp.Images) == 0 {
		return imagedata.Image{}, apperr.EmptyResult("no image was generated in the response%s", reasonSuffix(resp))
	}
	return resp.Images[0], nil
}

func (e *Executor) call(ctx context.Context, req gemini.Request) (gemini.Response, error) {
	if e.model == nil {
		return gemini.Response{}, apperr.Configuration("model client is not configured")
	}
	resp, err := e.model.Generate(ctx, req)
	if err != nil {
		var classified *apperr.Error
		if errors.As(err, &classified) {
			return gemini.Response{}, err
		}
		return gemini.Response{}, apperr.Upstream(err)
	}
	return resp, nil
}

func reasonSuffix(resp gemini.Response) string {
	switch {
	case resp.BlockReason != "":
		return " (blocked: " + resp.BlockReason + ")"
	case resp.FinishReason != "" && resp.FinishReason != "STOP":
		return " (finish reason: " + resp.FinishReason + ")"
	default:
		return ""
	}
}
