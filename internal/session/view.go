package session

import (
	"product-mockup-studio/internal/analysis"
	"product-mockup-studio/internal/apperr"
	"product-mockup-studio/internal/catalog"
	"product-mockup-studio/internal/imagedata"
	"product-mockup-studio/internal/overlay"
	"product-mockup-studio/internal/slot"
)

// AnalysisView is the display form of one background analysis.
type AnalysisView struct {
	Pending bool   `json:"pending"`
	Value   string `json:"value,omitempty"`
	Error   string `json:"error,omitempty"`
}

type OverlayView struct {
	State         overlay.State            `json:"state"`
	Options       overlay.RenderOptions    `json:"options"`
	Base          *imagedata.Image         `json:"baseImage,omitempty"`
	Layout        *overlay.Layout          `json:"layout,omitempty"`
	ProductInfo   *overlay.ProductInfo     `json:"productInfo,omitempty"`
	Content       *overlay.Content         `json:"content,omitempty"`
	Result        *imagedata.Image         `json:"resultImage,omitempty"`
	StageErrors   map[overlay.Stage]string `json:"stageErrors,omitempty"`
	PendingStages []overlay.Stage          `json:"pendingStages,omitempty"`
}

// View is a read-only snapshot of a workspace. Images are included so a
// client can redraw from it alone.
type View struct {
	ID                string            `json:"id"`
	ProductImage      *imagedata.Image  `json:"productImage,omitempty"`
	StyleImage        *imagedata.Image  `json:"styleImage,omitempty"`
	StyleAnalysis     AnalysisView      `json:"styleAnalysis"`
	ProductVibe       AnalysisView      `json:"productVibe"`
	UseStyleReference bool              `json:"useStyleReference"`
	MatchProductVibe  bool              `json:"matchProductVibe"`
	OutputPNG         bool              `json:"outputPng"`
	Selection         catalog.Selection `json:"selection"`
	CurrentImage      *imagedata.Image  `json:"currentImage,omitempty"`
	Generation        *Generation       `json:"generation,omitempty"`
	Error             string            `json:"error,omitempty"`
	Overlay           OverlayView       `json:"overlay"`
}

func (w *Workspace) View() View {
	w.mu.Lock()
	v := View{
		ID:                w.ID,
		ProductImage:      imagePtr(w.product),
		StyleImage:        imagePtr(w.style),
		UseStyleReference: w.useStyleReference,
		MatchProductVibe:  w.matchProductVibe,
		OutputPNG:         w.outputPNG,
		Selection:         w.selection,
		CurrentImage:      imagePtr(w.current),
		Generation:        w.lastGeneration,
		Error:             w.lastError,
	}
	w.mu.Unlock()

	v.StyleAnalysis = analysisView(w.styleAnalysis.State(), "analyze style reference", analysis.StyleReference.String)
	v.ProductVibe = analysisView(w.vibe.State(), "analyze product vibe", func(s string) string { return s })
	v.Overlay = overlayView(w.overlay)
	return v
}

func analysisView[T any](st slot.State[T], op string, render func(T) string) AnalysisView {
	v := AnalysisView{Pending: st.Pending}
	if st.Present {
		v.Value = render(st.Value)
	}
	if st.Err != nil {
		v.Error = apperr.Message(op, st.Err)
	}
	return v
}

func overlayView(p *overlay.Pipeline) OverlayView {
	snap := p.Snapshot()
	v := OverlayView{
		State:       snap.State,
		Options:     snap.Options,
		Base:        imagePtr(p.Product()),
		Layout:      present(snap.Layout),
		ProductInfo: present(snap.Info),
		Content:     present(snap.Content),
		Result:      present(snap.Render),
		StageErrors: map[overlay.Stage]string{},
	}
	stageErr := func(stage overlay.Stage, pending bool, err error) {
		if pending {
			v.PendingStages = append(v.PendingStages, stage)
		}
		if err != nil {
			v.StageErrors[stage] = apperr.Wrap(stage.Op(), err).Error()
		}
	}
	stageErr(overlay.StageLayout, snap.Layout.Pending, snap.Layout.Err)
	stageErr(overlay.StageInfo, snap.Info.Pending, snap.Info.Err)
	stageErr(overlay.StageContent, snap.Content.Pending, snap.Content.Err)
	stageErr(overlay.StageRender, snap.Render.Pending, snap.Render.Err)
	if len(v.StageErrors) == 0 {
		v.StageErrors = nil
	}
	return v
}

func present[T any](st slot.State[T]) *T {
	if !st.Present {
		return nil
	}
	value := st.Value
	return &value
}

func imagePtr(img imagedata.Image) *imagedata.Image {
	if img.IsZero() {
		return nil
	}
	return &img
}
