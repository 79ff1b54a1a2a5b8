package overlay

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"product-mockup-studio/internal/apperr"
	"product-mockup-studio/internal/imagedata"
	"product-mockup-studio/internal/slot"
)

// ErrSuperseded is returned when an input changed while a stage was running;
// the stage result was discarded.
var ErrSuperseded = errors.New("overlay input changed while the stage was running")

type Stage string

const (
	StageLayout  Stage = "layout"
	StageInfo    Stage = "info"
	StageContent Stage = "content"
	StageRender  Stage = "render"
)

var AllStages = []Stage{StageLayout, StageInfo, StageContent, StageRender}

func ParseStage(s string) (Stage, error) {
	for _, st := range AllStages {
		if string(st) == s {
			return st, nil
		}
	}
	return "", apperr.Precondition(fmt.Sprintf("Unknown overlay stage %q.", s))
}

// Op is the user-facing name of the stage used in error messages.
func (s Stage) Op() string {
	switch s {
	case StageLayout:
		return "analyze layout"
	case StageInfo:
		return "extract product info"
	case StageContent:
		return "generate text content"
	default:
		return "render overlay"
	}
}

type State int

const (
	Idle State = iota
	LayoutReady
	InfoReady
	InputsReady
	ContentReady
	Rendered
)

func (s State) String() string {
	switch s {
	case LayoutReady:
		return "layout_ready"
	case InfoReady:
		return "info_ready"
	case InputsReady:
		return "inputs_ready"
	case ContentReady:
		return "content_ready"
	case Rendered:
		return "rendered"
	default:
		return "idle"
	}
}

func (s State) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

func (s *State) UnmarshalText(text []byte) error {
	for st := Idle; st <= Rendered; st++ {
		if st.String() == string(text) {
			*s = st
			return nil
		}
	}
	return fmt.Errorf("unknown overlay state %q", text)
}

// Runner is the set of stage operations a Pipeline drives.
type Runner interface {
	AnalyzeLayout(ctx context.Context, styleImage imagedata.Image) (Layout, error)
	ExtractProductInfo(ctx context.Context, productImage imagedata.Image) (ProductInfo, error)
	GenerateContent(ctx context.Context, info ProductInfo, layout Layout, lang string) (Content, error)
	Render(ctx context.Context, in RenderInput) (imagedata.Image, error)
}

type PipelineOptions struct {
	Runner   Runner
	Language string
	Logger   *slog.Logger
}

// Pipeline keeps the overlay artifacts of one session. Changing an input
// image clears every artifact derived from it, and results computed for a
// superseded image are dropped.
type Pipeline struct {
	runner Runner
	logger *slog.Logger

	mu      sync.Mutex
	product imagedata.Image
	style   imagedata.Image
	opts    RenderOptions

	layout  slot.Slot[Layout]
	info    slot.Slot[ProductInfo]
	content slot.Slot[Content]
	render  slot.Slot[imagedata.Image]
}

func NewPipeline(opts PipelineOptions) *Pipeline {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	lang, err := NormalizeLanguage(opts.Language)
	if err != nil {
		lang = DefaultLanguage
	}
	return &Pipeline{
		runner: opts.Runner,
		logger: logger,
		opts:   RenderOptions{Language: lang},
	}
}

// SetProduct replaces the base image; info, content and render are cleared.
func (p *Pipeline) SetProduct(img imagedata.Image) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.product.Equal(img) {
		return
	}
	p.product = img
	p.info.Reset()
	p.content.Reset()
	p.render.Reset()
}

// SetStyle replaces the overlay style reference; layout, content and render
// are cleared.
func (p *Pipeline) SetStyle(img imagedata.Image) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.style.Equal(img) {
		return
	}
	p.style = img
	p.layout.Reset()
	p.content.Reset()
	p.render.Reset()
}

func (p *Pipeline) SetOptions(opts RenderOptions) error {
	lang, err := NormalizeLanguage(opts.Language)
	if err != nil {
		return err
	}
	opts.Language = lang
	p.mu.Lock()
	defer p.mu.Unlock()
	p.opts = opts
	return nil
}

func (p *Pipeline) Options() RenderOptions {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.opts
}

func (p *Pipeline) Product() imagedata.Image {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.product
}

func (p *Pipeline) State() State {
	_, hasLayout := p.layout.Get()
	_, hasInfo := p.info.Get()
	_, hasContent := p.content.Get()
	_, hasRender := p.render.Get()
	switch {
	case hasLayout && hasInfo && hasContent && hasRender:
		return Rendered
	case hasLayout && hasInfo && hasContent:
		return ContentReady
	case hasLayout && hasInfo:
		return InputsReady
	case hasLayout:
		return LayoutReady
	case hasInfo:
		return InfoReady
	default:
		return Idle
	}
}

// Ready reports whether every input of stage is present, and if not, the
// message explaining what is missing.
func (p *Pipeline) Ready(stage Stage) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.readyLocked(stage)
}

func (p *Pipeline) readyLocked(stage Stage) error {
	_, hasLayout := p.layout.Get()
	_, hasInfo := p.info.Get()
	_, hasContent := p.content.Get()
	switch stage {
	case StageLayout:
		if p.style.IsZero() {
			return apperr.Precondition("Please upload a Text Overlay Style Reference image in Step 1.")
		}
	case StageInfo:
		if p.product.IsZero() {
			return apperr.Precondition("Please ensure a product image is available (from generator or uploaded here).")
		}
	case StageContent:
		if !hasLayout || !hasInfo {
			return apperr.Precondition("Please complete Step 1 (Layout) and Step 2 (Product Info) first.")
		}
	case StageRender:
		if p.product.IsZero() || !hasLayout || !hasContent {
			return apperr.Precondition("Please complete all previous steps before rendering.")
		}
	default:
		return apperr.Precondition(fmt.Sprintf("Unknown overlay stage %q.", stage))
	}
	return nil
}

// RunStage runs one stage against the current artifacts.
func (p *Pipeline) RunStage(ctx context.Context, stage Stage) error {
	p.mu.Lock()
	if err := p.readyLocked(stage); err != nil {
		p.mu.Unlock()
		return err
	}
	run := p.prepareLocked(stage)
	p.mu.Unlock()

	if err := run(ctx); err != nil {
		if !errors.Is(err, ErrSuperseded) {
			p.logger.Warn("overlay stage failed", "stage", stage, "err", err)
		}
		return apperr.Wrap(stage.Op(), err)
	}
	return nil
}

// prepareLocked snapshots the stage inputs and claims a ticket on the output
// slot. The returned func performs the model call and commits.
func (p *Pipeline) prepareLocked(stage Stage) func(context.Context) error {
	switch stage {
	case StageLayout:
		style := p.style
		p.content.Reset()
		p.render.Reset()
		ticket := p.layout.Begin()
		return func(ctx context.Context) error {
			layout, err := p.runner.AnalyzeLayout(ctx, style)
			return commit(&p.layout, ticket, layout, err)
		}
	case StageInfo:
		product := p.product
		p.content.Reset()
		p.render.Reset()
		ticket := p.info.Begin()
		return func(ctx context.Context) error {
			info, err := p.runner.ExtractProductInfo(ctx, product)
			return commit(&p.info, ticket, info, err)
		}
	case StageContent:
		layout, _ := p.layout.Get()
		info, _ := p.info.Get()
		lang := p.opts.Language
		p.render.Reset()
		ticket := p.content.Begin()
		return func(ctx context.Context) error {
			content, err := p.runner.GenerateContent(ctx, info, layout, lang)
			return commit(&p.content, ticket, content, err)
		}
	default:
		in := RenderInput{Base: p.product, RenderOptions: p.opts}
		in.Layout, _ = p.layout.Get()
		in.Content, _ = p.content.Get()
		ticket := p.render.Begin()
		return func(ctx context.Context) error {
			img, err := p.runner.Render(ctx, in)
			return commit(&p.render, ticket, img, err)
		}
	}
}

func commit[T any](s *slot.Slot[T], ticket slot.Ticket, value T, err error) error {
	if !s.Commit(ticket, value, err) {
		return ErrSuperseded
	}
	return err
}

// RunAll recomputes layout, info, content and render in that order and stops
// at the first failure, keeping the artifacts produced so far.
func (p *Pipeline) RunAll(ctx context.Context) error {
	return p.run(ctx, AllStages)
}

// RunMissing reuses a layout and product info that are already present for
// the current images and recomputes everything else.
func (p *Pipeline) RunMissing(ctx context.Context) error {
	var stages []Stage
	if _, ok := p.layout.Get(); !ok {
		stages = append(stages, StageLayout)
	}
	if _, ok := p.info.Get(); !ok {
		stages = append(stages, StageInfo)
	}
	return p.run(ctx, append(stages, StageContent, StageRender))
}

func (p *Pipeline) run(ctx context.Context, stages []Stage) error {
	p.mu.Lock()
	product, style := p.product, p.style
	p.mu.Unlock()
	if product.IsZero() {
		return apperr.Precondition("Please provide a product image (from the generator or uploaded in Step 0).")
	}
	if style.IsZero() {
		return apperr.Precondition("Please upload a Text Overlay Style Reference image in Step 1.")
	}

	for _, stage := range stages {
		if err := p.RunStage(ctx, stage); err != nil {
			p.logger.Warn("overlay run stopped", "stage", stage, "state", p.State(), "err", err)
			return apperr.Wrap("complete overlay generation", err)
		}
	}
	p.logger.Info("overlay rendered", "lang", p.Options().Language, "stages", len(stages))
	return nil
}

// Snapshot is a consistent read of the pipeline artifacts.
type Snapshot struct {
	State   State
	Options RenderOptions
	Layout  slot.State[Layout]
	Info    slot.State[ProductInfo]
	Content slot.State[Content]
	Render  slot.State[imagedata.Image]
}

func (p *Pipeline) Snapshot() Snapshot {
	p.mu.Lock()
	defer p.mu.Unlock()
	return Snapshot{
		State:   p.State(),
		Options: p.opts,
		Layout:  p.layout.State(),
		Info:    p.info.State(),
		Content: p.content.State(),
		Render:  p.render.State(),
	}
}
