package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"product-mockup-studio/internal/apperr"
	"product-mockup-studio/internal/imagedata"
)

const (
	DefaultTextModel  = "gemini-2.5-flash"
	DefaultImageModel = "gemini-2.5-flash-image"
)

type Options struct {
	APIKey     string
	BaseURL    string
	APIVersion string
	HTTPClient *http.Client
	Logger     *slog.Logger
}

type Client struct {
	apiKey     string
	baseURL    string
	apiVersion string
	httpClient *http.Client
	logger     *slog.Logger
}

func New(opts Options) *Client {
	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://generativelanguage.googleapis.com"
	}

	apiVersion := strings.TrimSpace(opts.APIVersion)
	if apiVersion == "" {
		apiVersion = "v1beta"
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	return &Client{
		apiKey:     strings.TrimSpace(opts.APIKey),
		baseURL:    baseURL,
		apiVersion: apiVersion,
		httpClient: httpClient,
		logger:     logger,
	}
}

// Generate performs exactly one generateContent call.
func (c *Client) Generate(ctx context.Context, req Request) (Response, error) {
	if c.apiKey == "" {
		return Response{}, apperr.Configuration("API key is missing; set GEMINI_API_KEY")
	}
	if strings.TrimSpace(req.Model) == "" {
		return Response{}, apperr.Configuration("model name is empty")
	}
	if len(req.Parts) == 0 {
		return Response{}, errors.New("request has no parts")
	}

	payload := generateContentRequest{
		Contents:         []content{{Role: "user", Parts: buildParts(req.Parts)}},
		GenerationConfig: buildConfig(req),
	}

	started := time.Now()
	resp, err := c.generateContent(ctx, req.Model, payload)
	if err != nil {
		c.logger.Warn("gemini call failed", "model", req.Model, "mode", req.Mode, "err", err)
		return Response{}, err
	}
	c.logger.Debug("gemini call done",
		"model", req.Model,
		"mode", req.Mode,
		"images", len(resp.Images),
		"text_len", len(resp.Text),
		"finish", resp.FinishReason,
		"took", time.Since(started),
	)
	return resp, nil
}

func buildParts(in []Part) []part {
	out := make([]part, 0, len(in))
	for _, p := range in {
		if p.Image != nil {
			img := *p.Image
			out = append(out, part{InlineData: &img})
			continue
		}
		out = append(out, part{Text: p.Text})
	}
	return out
}

func buildConfig(req Request) *generationConfig {
	cfg := &generationConfig{Temperature: req.Temperature}
	switch req.Mode {
	case ModeJSON:
		cfg.ResponseMimeType = "application/json"
		cfg.ResponseSchema = req.Schema
	case ModeImage:
		cfg.ResponseModalities = []string{"IMAGE"}
		if ar := strings.TrimSpace(req.AspectRatio); ar != "" {
			cfg.ImageConfig = &imageConfig{AspectRatio: ar}
		}
	default:
		if cfg.Temperature == nil {
			return nil
		}
	}
	return cfg
}

func (c *Client) generateContent(ctx context.Context, model string, payload generateContentRequest) (Response, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return Response{}, fmt.Errorf("marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/%s/models/%s:generateContent", c.baseURL, c.apiVersion, model)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return Response{}, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("content-type", "application/json")
	httpReq.Header.Set("x-goog-api-key", c.apiKey)

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return Response{}, apperr.Upstream(fmt.Errorf("request: %w", err))
	}
	defer httpResp.Body.Close()

	rawBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return Response{}, apperr.Upstream(fmt.Errorf("read response: %w", err))
	}

	if httpResp.StatusCode >= 400 {
		return Response{}, apperr.Upstream(fmt.Errorf("gemini API %s: %s", httpResp.Status, upstreamMessage(rawBody)))
	}

	var decoded generateContentResponse
	if err := json.Unmarshal(rawBody, &decoded); err != nil {
		return Response{}, apperr.ResponseFormat("decode response: %v", err)
	}

	return extractParts(decoded), nil
}

func extractParts(resp generateContentResponse) Response {
	var out Response
	if resp.PromptFeedback != nil {
		out.BlockReason = resp.PromptFeedback.BlockReason
	}
	if len(resp.Candidates) == 0 {
		return out
	}

	first := resp.Candidates[0]
	out.FinishReason = first.FinishReason

	var textBuilder strings.Builder
	for _, p := range first.Content.Parts {
		if p.Text != "" {
			textBuilder.WriteString(p.Text)
		}
		if p.InlineData != nil && p.InlineData.Base64 != "" && p.InlineData.MediaType != "" {
			out.Images = append(out.Images, imagedata.Image{
				MediaType: p.InlineData.MediaType,
				Base64:    p.InlineData.Base64,
			})
		}
	}
	out.Text = textBuilder.String()
	return out
}

// upstreamMessage prefers the API's error.message over the raw body.
func upstreamMessage(raw []byte) string {
	var envelope struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(raw, &envelope); err == nil && strings.TrimSpace(envelope.Error.Message) != "" {
		return strings.TrimSpace(envelope.Error.Message)
	}
	msg := strings.TrimSpace(string(raw))
	if len(msg) > 512 {
		msg = msg[:512] + "..."
	}
	return msg
}
