package catalog

import (
	"testing"

	"product-mockup-studio/internal/apperr"
)

func TestDefaults(t *testing.T) {
	sel := Default().Defaults()
	want := Selection{
		AspectRatio:       "4:5",
		Resolution:        "1080x1350",
		CameraAngle:       "45° hero angle",
		Lens:              "50mm",
		Aperture:          "f/5.6",
		LightingType:      "Natural window light",
		LightingDirection: "Left",
		Surface:           "Marble (white or grey)",
		Background:        "Off-white studio",
		Shadow:            "Soft contact shadow",
		Reflection:        "None",
		ColorStyle:        "Neutral",
		Composition:       "Center framed",
	}
	if sel != want {
		t.Fatalf("unexpected defaults:\n got %+v\nwant %+v", sel, want)
	}
	if err := Default().Validate(sel); err != nil {
		t.Fatalf("defaults must validate: %v", err)
	}
}

func TestValidateRejectsUnknownValue(t *testing.T) {
	sel := Default().Defaults()
	sel.Lens = "12mm"
	err := Default().Validate(sel)
	if apperr.KindOf(err) != apperr.KindPrecondition {
		t.Fatalf("expected precondition error, got %v", err)
	}
}

func TestSetResolvesInput(t *testing.T) {
	c := Default()
	sel := c.Defaults()

	if err := c.Set(&sel, "reflection", "subtle"); err != nil {
		t.Fatalf("Set prefix: %v", err)
	}
	if sel.Reflection != "Subtle reflection" {
		t.Fatalf("unexpected reflection %q", sel.Reflection)
	}
	if err := c.Set(&sel, "Aspect-Ratio", "1:1"); err != nil || sel.AspectRatio != "1:1" {
		t.Fatalf("Set exact: %v %q", err, sel.AspectRatio)
	}
	if err := c.Set(&sel, "composition", "r"); err == nil {
		t.Fatalf("expected ambiguous prefix to fail")
	}
	if err := c.Set(&sel, "flash", "on"); err == nil {
		t.Fatalf("expected unknown field to fail")
	}
	if v, ok := sel.Get("aspect_ratio"); !ok || v != "1:1" {
		t.Fatalf("Get: %q %v", v, ok)
	}
}

func TestParseRejectsBadDefault(t *testing.T) {
	_, err := Parse([]byte(`- field: lens
  label: Lens
  default: 12mm
  values: [35mm]
`))
	if err == nil {
		t.Fatalf("expected error for default outside values")
	}
}

func TestFieldNameForms(t *testing.T) {
	c := Default()
	for _, name := range []string{"lighting_type", "lightingType", "Lighting Type", "lighting-type", "LIGHTING_TYPE"} {
		opt, ok := c.Option(name)
		if !ok || opt.Field != "lighting_type" {
			t.Fatalf("Option(%q) = %+v, %v", name, opt, ok)
		}
	}
}
