package cli

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"product-mockup-studio/internal/app"
	"product-mockup-studio/internal/config"
	"product-mockup-studio/internal/gemini"
	"product-mockup-studio/internal/imagedata"
)

type stubModel struct {
	prompts []string
}

func (m *stubModel) Generate(_ context.Context, req gemini.Request) (gemini.Response, error) {
	if req.Mode == gemini.ModeImage {
		for _, p := range req.Parts {
			if p.Text != "" {
				m.prompts = append(m.prompts, p.Text)
			}
		}
		return gemini.Response{Images: []imagedata.Image{imagedata.FromBytes([]byte("\x89PNG\r\n\x1a\nout"), "image/png")}}, nil
	}
	return gemini.Response{Text: "minimal"}, nil
}

func useStub(t *testing.T) *stubModel {
	t.Helper()
	model := &stubModel{}
	prev := buildApp
	buildApp = func(cfg config.Config, logger *slog.Logger) *app.App {
		return app.Wire(cfg, logger, model)
	}
	t.Cleanup(func() { buildApp = prev })
	return model
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestOptionsCommand(t *testing.T) {
	out, err := run(t, "options")
	if err != nil {
		t.Fatalf("options: %v", err)
	}
	if !strings.Contains(out, "lighting_type") || !strings.Contains(out, "composition") {
		t.Fatalf("unexpected output:\n%s", out)
	}

	out, err = run(t, "options", "surface")
	if err != nil || !strings.Contains(out, "Light oak") {
		t.Fatalf("options surface: %v\n%s", err, out)
	}

	if _, err := run(t, "options", "flash"); err == nil {
		t.Fatalf("expected error for unknown option")
	}
}

func TestGenerateWritesImage(t *testing.T) {
	model := useStub(t)
	dir := t.TempDir()
	product := filepath.Join(dir, "bottle.jpg")
	if err := os.WriteFile(product, []byte("\xff\xd8\xff\xe0jpeg"), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	outPath := filepath.Join(dir, "out.png")

	out, err := run(t, "generate", "--product", product, "--png", "--set", "surface=glass", "-o", outPath)
	if err != nil {
		t.Fatalf("generate: %v\n%s", err, out)
	}
	if _, err := os.Stat(outPath); err != nil {
		t.Fatalf("output not written: %v", err)
	}
	if len(model.prompts) != 1 || !strings.Contains(model.prompts[0], "glass surface") || !strings.Contains(model.prompts[0], "transparent background") {
		t.Fatalf("prompt did not carry the settings: %v", model.prompts)
	}
}

func TestGenerateRejectsBadOption(t *testing.T) {
	useStub(t)
	dir := t.TempDir()
	product := filepath.Join(dir, "bottle.jpg")
	if err := os.WriteFile(product, []byte("jpeg"), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	_, err := run(t, "generate", "--product", product, "--set", "lens=fisheye")
	if err == nil || !strings.Contains(err.Error(), "Invalid lens") {
		t.Fatalf("err = %v", err)
	}
}

func TestModifyRequiresInstruction(t *testing.T) {
	useStub(t)
	if _, err := run(t, "modify", "--image", "x.png"); err == nil {
		t.Fatalf("expected an argument error")
	}
}
