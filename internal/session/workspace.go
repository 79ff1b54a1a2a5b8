package session

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"maps"
	"slices"
	"sync"

	"product-mockup-studio/internal/analysis"
	"product-mockup-studio/internal/apperr"
	"product-mockup-studio/internal/catalog"
	"product-mockup-studio/internal/history"
	"product-mockup-studio/internal/imagedata"
	"product-mockup-studio/internal/mockup"
	"product-mockup-studio/internal/overlay"
	"product-mockup-studio/internal/slot"
)

type Analyzer interface {
	StyleReference(ctx context.Context, img imagedata.Image) (analysis.StyleReference, error)
	ProductVibe(ctx context.Context, img imagedata.Image) (string, error)
}

type Mockups interface {
	Generate(ctx context.Context, s mockup.Settings) (mockup.Result, error)
	Modify(ctx context.Context, base imagedata.Image, instruction string) (imagedata.Image, error)
}

// Deps are the collaborators shared by every workspace.
type Deps struct {
	Analyzer Analyzer
	Mockups  Mockups
	Overlay  overlay.Runner
	Catalog  *catalog.Catalog
	Logger   *slog.Logger
}

type WorkspaceOptions struct {
	ID       string
	Deps     Deps
	History  *history.Store
	Language string
}

// Workspace is one user's editing session: uploaded images, their analyses,
// the chosen options, the current generated image and the overlay pipeline.
// Model calls run outside the lock.
type Workspace struct {
	ID string

	deps    Deps
	logger  *slog.Logger
	history *history.Store
	overlay *overlay.Pipeline

	bg     context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu                sync.Mutex
	product           imagedata.Image
	style             imagedata.Image
	useStyleReference bool
	matchProductVibe  bool
	outputPNG         bool
	selection         catalog.Selection
	current           imagedata.Image
	lastGeneration    *Generation
	lastError         string
	overlayExplicit   bool

	styleAnalysis slot.Slot[analysis.StyleReference]
	vibe          slot.Slot[string]
}

// Generation is what the workspace keeps from the latest generate call.
type Generation struct {
	Prompt          string `json:"prompt"`
	Summary         string `json:"settingsSummary"`
	ExtractedText   string `json:"extractedText,omitempty"`
	ExtractionError string `json:"extractionError,omitempty"`
}

func NewWorkspace(opts WorkspaceOptions) *Workspace {
	deps := opts.Deps
	if deps.Catalog == nil {
		deps.Catalog = catalog.Default()
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	logger = logger.With("session", opts.ID)

	hist := opts.History
	if hist == nil {
		hist = history.New(history.Options{Logger: logger})
	}

	bg, cancel := context.WithCancel(context.Background())
	return &Workspace{
		ID:        opts.ID,
		deps:      deps,
		logger:    logger,
		history:   hist,
		overlay:   overlay.NewPipeline(overlay.PipelineOptions{Runner: deps.Overlay, Language: opts.Language, Logger: logger}),
		bg:        bg,
		cancel:    cancel,
		selection: deps.Catalog.Defaults(),
	}
}

// Close cancels background analyses.
func (w *Workspace) Close() {
	w.cancel()
}

// Wait blocks until every background analysis started so far has finished.
func (w *Workspace) Wait() {
	w.wg.Wait()
}

// AwaitAnalyses is Wait bounded by ctx.
func (w *Workspace) AwaitAnalyses(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		w.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (w *Workspace) History() *history.Store { return w.history }

func (w *Workspace) Overlay() *overlay.Pipeline { return w.overlay }

// SetProduct replaces the product image, clears generation outputs and
// starts a fresh vibe analysis.
func (w *Workspace) SetProduct(img imagedata.Image) {
	w.mu.Lock()
	w.product = img
	w.clearOutputsLocked()
	if img.IsZero() {
		w.vibe.Reset()
		w.mu.Unlock()
		return
	}
	ticket := w.vibe.Begin()
	w.mu.Unlock()

	w.goAnalyze("analyze product vibe", func(ctx context.Context) error {
		vibe, err := w.deps.Analyzer.ProductVibe(ctx, img)
		w.dropped(w.vibe.Commit(ticket, vibe, err), "vibe")
		return err
	})
}

// SetStyle replaces the style reference and starts a fresh style analysis.
func (w *Workspace) SetStyle(img imagedata.Image) {
	w.mu.Lock()
	w.style = img
	if img.IsZero() {
		w.styleAnalysis.Reset()
		w.mu.Unlock()
		return
	}
	ticket := w.styleAnalysis.Begin()
	w.mu.Unlock()

	w.goAnalyze("analyze style reference", func(ctx context.Context) error {
		ref, err := w.deps.Analyzer.StyleReference(ctx, img)
		w.dropped(w.styleAnalysis.Commit(ticket, ref, err), "style")
		return err
	})
}

func (w *Workspace) dropped(applied bool, name string) {
	if !applied {
		w.logger.Debug("stale analysis dropped", "slot", name)
	}
}

func (w *Workspace) goAnalyze(op string, fn func(ctx context.Context) error) {
	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		if err := fn(w.bg); err != nil && !errors.Is(err, context.Canceled) {
			w.logger.Warn("background analysis failed", "op", op, "err", err)
		}
	}()
}

// SettingsPatch changes only the non-nil fields. Options maps catalog field
// names to values.
type SettingsPatch struct {
	UseStyleReference *bool             `json:"useStyleReference,omitempty"`
	MatchProductVibe  *bool             `json:"matchProductVibe,omitempty"`
	OutputPNG         *bool             `json:"outputPng,omitempty"`
	Options           map[string]string `json:"options,omitempty"`
}

// UpdateSettings applies patch atomically: on error nothing changes.
func (w *Workspace) UpdateSettings(patch SettingsPatch) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	sel := w.selection
	for _, field := range slices.Sorted(maps.Keys(patch.Options)) {
		if err := w.deps.Catalog.Set(&sel, field, patch.Options[field]); err != nil {
			return err
		}
	}

	w.selection = sel
	if patch.UseStyleReference != nil {
		w.useStyleReference = *patch.UseStyleReference
	}
	if patch.MatchProductVibe != nil {
		w.matchProductVibe = *patch.MatchProductVibe
	}
	if patch.OutputPNG != nil {
		w.outputPNG = *patch.OutputPNG
	}
	return nil
}

// Settings builds the request settings from the current state. Analyses
// still in flight are treated as absent.
func (w *Workspace) Settings() mockup.Settings {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.settingsLocked()
}

func (w *Workspace) settingsLocked() mockup.Settings {
	s := mockup.Settings{
		ProductImage:      w.product,
		StyleImage:        w.style,
		UseStyleReference: w.useStyleReference,
		MatchProductVibe:  w.matchProductVibe,
		Selection:         w.selection,
		OutputPNG:         w.outputPNG,
	}
	if ref, ok := w.styleAnalysis.Get(); ok {
		s.StyleAnalysis = ref.String()
	}
	if vibe, ok := w.vibe.Get(); ok {
		s.ProductVibe = vibe
	}
	return s
}

// Generate renders a mockup from the current state. On success the result
// becomes the current image and is added to history.
func (w *Workspace) Generate(ctx context.Context) (imagedata.Image, *Generation, error) {
	w.mu.Lock()
	settings := w.settingsLocked()
	w.clearOutputsLocked()
	w.mu.Unlock()

	res, err := w.deps.Mockups.Generate(ctx, settings)

	gen := &Generation{
		Prompt:        res.Prompt,
		Summary:       res.Summary,
		ExtractedText: res.ExtractedText,
	}
	if res.ExtractionErr != nil {
		gen.ExtractionError = res.ExtractionErr.Error()
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.product.Equal(settings.ProductImage) {
		return imagedata.Image{}, nil, ErrProductChanged
	}
	if err != nil {
		w.lastError = ErrorMessage("generate", err)
		if res.Prompt != "" {
			w.lastGeneration = gen
		}
		return imagedata.Image{}, gen, err
	}
	w.lastGeneration = gen
	w.setCurrentLocked(res.Image, "generate")
	return res.Image, gen, nil
}

// ErrProductChanged is returned when the product image was replaced while a
// generation was running; its result is discarded.
var ErrProductChanged = errors.New("product image changed during generation")

// Modify edits base, or the current image when base is zero. On failure the
// current image is left unchanged.
func (w *Workspace) Modify(ctx context.Context, base imagedata.Image, instruction string) (imagedata.Image, error) {
	w.mu.Lock()
	if base.IsZero() {
		base = w.current
	}
	w.lastError = ""
	w.mu.Unlock()

	img, err := w.deps.Mockups.Modify(ctx, base, instruction)

	w.mu.Lock()
	defer w.mu.Unlock()
	if err != nil {
		w.lastError = ErrorMessage("modify image", err)
		return imagedata.Image{}, err
	}
	w.setCurrentLocked(img, "modify")
	return img, nil
}

func (w *Workspace) Current() imagedata.Image {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.current
}

func (w *Workspace) setCurrentLocked(img imagedata.Image, source string) {
	w.current = img
	w.history.Append(img, source)
	if !w.overlayExplicit {
		w.overlay.SetProduct(img)
	}
}

func (w *Workspace) clearOutputsLocked() {
	w.current = imagedata.Image{}
	w.lastGeneration = nil
	w.lastError = ""
	if !w.overlayExplicit {
		w.overlay.SetProduct(imagedata.Image{})
	}
}

// SetOverlayProduct sets an explicit overlay base. A zero image falls back to
// the current generated image.
func (w *Workspace) SetOverlayProduct(img imagedata.Image) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.overlayExplicit = !img.IsZero()
	if img.IsZero() {
		img = w.current
	}
	w.overlay.SetProduct(img)
}

// SetOverlayStyle replaces the overlay style reference and starts layout
// analysis in the background.
func (w *Workspace) SetOverlayStyle(img imagedata.Image) {
	w.overlay.SetStyle(img)
	if img.IsZero() {
		return
	}
	w.goAnalyze("analyze layout", func(ctx context.Context) error {
		err := w.overlay.RunStage(ctx, overlay.StageLayout)
		if errors.Is(err, overlay.ErrSuperseded) {
			w.logger.Debug("stale layout dropped")
			return nil
		}
		return err
	})
}

func (w *Workspace) SetOverlayOptions(opts overlay.RenderOptions) error {
	return w.overlay.SetOptions(opts)
}

func (w *Workspace) RunOverlayStage(ctx context.Context, stage overlay.Stage) error {
	err := w.overlay.RunStage(ctx, stage)
	w.recordError(err)
	return err
}

func (w *Workspace) RunOverlay(ctx context.Context) error {
	err := w.overlay.RunAll(ctx)
	w.recordError(err)
	return err
}

// ContinueOverlay completes the overlay, reusing the layout and product info
// already analyzed for the current images.
func (w *Workspace) ContinueOverlay(ctx context.Context) error {
	err := w.overlay.RunMissing(ctx)
	w.recordError(err)
	return err
}

func (w *Workspace) recordError(err error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err == nil {
		w.lastError = ""
		return
	}
	w.lastError = err.Error()
}

// ErrorMessage renders err for display, keeping an operation prefix that the
// error already carries.
func ErrorMessage(op string, err error) string {
	var e *apperr.Error
	if errors.As(err, &e) && e.Op != "" {
		return err.Error()
	}
	return apperr.Message(op, err)
}
