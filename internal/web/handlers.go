package web

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"product-mockup-studio/internal/imagedata"
	"product-mockup-studio/internal/overlay"
	"product-mockup-studio/internal/session"
)

const maxUploadBytes = 25 << 20

func (s *Server) handleOptions(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"options":  s.catalog.Options(),
		"defaults": s.catalog.Defaults(),
	})
}

func (s *Server) handleCreateSession(w http.ResponseWriter, _ *http.Request) {
	ws := s.sessions.Create()
	writeJSON(w, http.StatusCreated, ws.View())
}

func (s *Server) handleView(w http.ResponseWriter, _ *http.Request, ws *session.Workspace) {
	writeJSON(w, http.StatusOK, ws.View())
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	s.sessions.Delete(chi.URLParam(r, "id"))
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSetProduct(w http.ResponseWriter, r *http.Request, ws *session.Workspace) {
	img, ok := s.readImage(w, r)
	if !ok {
		return
	}
	ws.SetProduct(img)
	writeJSON(w, http.StatusOK, ws.View())
}

func (s *Server) handleClearProduct(w http.ResponseWriter, _ *http.Request, ws *session.Workspace) {
	ws.SetProduct(imagedata.Image{})
	writeJSON(w, http.StatusOK, ws.View())
}

func (s *Server) handleSetStyle(w http.ResponseWriter, r *http.Request, ws *session.Workspace) {
	img, ok := s.readImage(w, r)
	if !ok {
		return
	}
	ws.SetStyle(img)
	writeJSON(w, http.StatusOK, ws.View())
}

func (s *Server) handleClearStyle(w http.ResponseWriter, _ *http.Request, ws *session.Workspace) {
	ws.SetStyle(imagedata.Image{})
	writeJSON(w, http.StatusOK, ws.View())
}

func (s *Server) handleSettings(w http.ResponseWriter, r *http.Request, ws *session.Workspace) {
	var patch session.SettingsPatch
	if !decodeBody(w, r, &patch) {
		return
	}
	if err := ws.UpdateSettings(patch); err != nil {
		s.writeError(w, "update settings", err)
		return
	}
	writeJSON(w, http.StatusOK, ws.View())
}

type generateResponse struct {
	Image      imagedata.Image     `json:"image"`
	Generation *session.Generation `json:"generation"`
}

func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request, ws *session.Workspace) {
	ctx, cancel := s.modelContext(r)
	defer cancel()

	img, gen, err := ws.Generate(ctx)
	if err != nil {
		s.writeError(w, "generate", err)
		return
	}
	writeJSON(w, http.StatusOK, generateResponse{Image: img, Generation: gen})
}

type modifyRequest struct {
	Instruction string `json:"instruction"`
	// Image optionally overrides the base; the current image is used otherwise.
	Image string `json:"image,omitempty"`
}

func (s *Server) handleModify(w http.ResponseWriter, r *http.Request, ws *session.Workspace) {
	var req modifyRequest
	if !decodeBody(w, r, &req) {
		return
	}
	var base imagedata.Image
	if strings.TrimSpace(req.Image) != "" {
		img, err := imagedata.Parse(req.Image)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, apiError{Error: err.Error()})
			return
		}
		base = img
	}

	ctx, cancel := s.modelContext(r)
	defer cancel()

	img, err := ws.Modify(ctx, base, req.Instruction)
	if err != nil {
		s.writeError(w, "modify image", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"image": img})
}

func (s *Server) handleSetOverlayProduct(w http.ResponseWriter, r *http.Request, ws *session.Workspace) {
	img, ok := s.readImage(w, r)
	if !ok {
		return
	}
	ws.SetOverlayProduct(img)
	writeJSON(w, http.StatusOK, ws.View().Overlay)
}

func (s *Server) handleClearOverlayProduct(w http.ResponseWriter, _ *http.Request, ws *session.Workspace) {
	ws.SetOverlayProduct(imagedata.Image{})
	writeJSON(w, http.StatusOK, ws.View().Overlay)
}

func (s *Server) handleSetOverlayStyle(w http.ResponseWriter, r *http.Request, ws *session.Workspace) {
	img, ok := s.readImage(w, r)
	if !ok {
		return
	}
	ws.SetOverlayStyle(img)
	writeJSON(w, http.StatusAccepted, ws.View().Overlay)
}

func (s *Server) handleClearOverlayStyle(w http.ResponseWriter, _ *http.Request, ws *session.Workspace) {
	ws.SetOverlayStyle(imagedata.Image{})
	writeJSON(w, http.StatusOK, ws.View().Overlay)
}

func (s *Server) handleOverlayOptions(w http.ResponseWriter, r *http.Request, ws *session.Workspace) {
	opts := ws.Overlay().Options()
	if !decodeBody(w, r, &opts) {
		return
	}
	if err := ws.SetOverlayOptions(opts); err != nil {
		s.writeError(w, "update overlay options", err)
		return
	}
	writeJSON(w, http.StatusOK, ws.View().Overlay)
}

func (s *Server) handleOverlayStage(w http.ResponseWriter, r *http.Request, ws *session.Workspace) {
	stage, err := overlay.ParseStage(chi.URLParam(r, "stage"))
	if err != nil {
		s.writeError(w, "run overlay stage", err)
		return
	}

	ctx, cancel := s.modelContext(r)
	defer cancel()

	if err := ws.RunOverlayStage(ctx, stage); err != nil {
		s.writeError(w, stage.Op(), err)
		return
	}
	writeJSON(w, http.StatusOK, ws.View().Overlay)
}

func (s *Server) handleOverlayRun(w http.ResponseWriter, r *http.Request, ws *session.Workspace) {
	ctx, cancel := s.modelContext(r)
	defer cancel()

	if err := ws.RunOverlay(ctx); err != nil {
		s.writeError(w, "complete overlay generation", err)
		return
	}
	writeJSON(w, http.StatusOK, ws.View().Overlay)
}

func (s *Server) handleHistory(w http.ResponseWriter, _ *http.Request, ws *session.Workspace) {
	writeJSON(w, http.StatusOK, map[string]any{"entries": ws.History().List()})
}

func (s *Server) handleClearHistory(w http.ResponseWriter, _ *http.Request, ws *session.Workspace) {
	ws.History().Clear()
	w.WriteHeader(http.StatusNoContent)
}

type imageRequest struct {
	Image string `json:"image"`
}

// readImage accepts a JSON body {"image": "data:..."} or a multipart form
// with an "image" file field. It writes the error response itself.
func (s *Server) readImage(w http.ResponseWriter, r *http.Request) (imagedata.Image, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)

	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/") {
		if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
			writeJSON(w, http.StatusBadRequest, apiError{Error: "invalid multipart form"})
			return imagedata.Image{}, false
		}
		file, header, err := r.FormFile("image")
		if err != nil {
			writeJSON(w, http.StatusBadRequest, apiError{Error: "missing image"})
			return imagedata.Image{}, false
		}
		defer file.Close()

		data, err := io.ReadAll(file)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, apiError{Error: "failed to read image"})
			return imagedata.Image{}, false
		}
		return imagedata.FromBytes(data, header.Header.Get("Content-Type")), true
	}

	var req imageRequest
	if !decodeBody(w, r, &req) {
		return imagedata.Image{}, false
	}
	img, err := imagedata.Parse(req.Image)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, apiError{Error: err.Error()})
		return imagedata.Image{}, false
	}
	return img, true
}

func decodeBody(w http.ResponseWriter, r *http.Request, out any) bool {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(out); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeJSON(w, http.StatusRequestEntityTooLarge, apiError{Error: "request body too large"})
			return false
		}
		writeJSON(w, http.StatusBadRequest, apiError{Error: "invalid payload"})
		return false
	}
	return true
}
