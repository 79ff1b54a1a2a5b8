package catalog

import (
	_ "embed"
	"fmt"
	"strings"
	"sync"
	"unicode"

	"gopkg.in/yaml.v3"

	"product-mockup-studio/internal/apperr"
)

//go:embed options.yaml
var optionsYAML []byte

// Option is one enumerated photographic parameter.
type Option struct {
	Field   string   `yaml:"field" json:"field"`
	Label   string   `yaml:"label" json:"label"`
	Default string   `yaml:"default" json:"default"`
	Values  []string `yaml:"values" json:"values"`
}

type Catalog struct {
	options []Option
	byField map[string]int
}

// Selection holds one chosen value per option field.
type Selection struct {
	AspectRatio       string `json:"aspectRatio"`
	Resolution        string `json:"resolution"`
	CameraAngle       string `json:"cameraAngle"`
	Lens              string `json:"lens"`
	Aperture          string `json:"aperture"`
	LightingType      string `json:"lightingType"`
	LightingDirection string `json:"lightingDirection"`
	Surface           string `json:"surface"`
	Background        string `json:"background"`
	Shadow            string `json:"shadow"`
	Reflection        string `json:"reflection"`
	ColorStyle        string `json:"colorStyle"`
	Composition       string `json:"composition"`
}

var Fields = []string{
	"aspect_ratio",
	"resolution",
	"camera_angle",
	"lens",
	"aperture",
	"lighting_type",
	"lighting_direction",
	"surface",
	"background",
	"shadow",
	"reflection",
	"color_style",
	"composition",
}

var defaultCatalog = sync.OnceValue(func() *Catalog {
	c, err := Parse(optionsYAML)
	if err != nil {
		panic(fmt.Sprintf("catalog: embedded options: %v", err))
	}
	return c
})

// Default returns the catalog shipped with the binary.
func Default() *Catalog { return defaultCatalog() }

func Parse(data []byte) (*Catalog, error) {
	var options []Option
	if err := yaml.Unmarshal(data, &options); err != nil {
		return nil, fmt.Errorf("parse options: %w", err)
	}

	c := &Catalog{options: options, byField: make(map[string]int, len(options))}
	for i, opt := range options {
		if _, dup := c.byField[opt.Field]; dup {
			return nil, fmt.Errorf("option %q declared twice", opt.Field)
		}
		if fieldRef(&Selection{}, opt.Field) == nil {
			return nil, fmt.Errorf("unknown option field %q", opt.Field)
		}
		if !contains(opt.Values, opt.Default) {
			return nil, fmt.Errorf("option %q: default %q is not an allowed value", opt.Field, opt.Default)
		}
		c.byField[opt.Field] = i
	}
	for _, field := range Fields {
		if _, ok := c.byField[field]; !ok {
			return nil, fmt.Errorf("option %q is missing", field)
		}
	}
	return c, nil
}

func (c *Catalog) Options() []Option {
	out := make([]Option, len(c.options))
	for i, opt := range c.options {
		opt.Values = append([]string(nil), opt.Values...)
		out[i] = opt
	}
	return out
}

func (c *Catalog) Option(field string) (Option, bool) {
	i, ok := c.byField[normalizeField(field)]
	if !ok {
		return Option{}, false
	}
	return c.options[i], true
}

func (c *Catalog) Defaults() Selection {
	var sel Selection
	for _, opt := range c.options {
		*fieldRef(&sel, opt.Field) = opt.Default
	}
	return sel
}

// Validate reports the first field whose value is not in the catalog.
func (c *Catalog) Validate(sel Selection) error {
	for _, field := range Fields {
		opt := c.options[c.byField[field]]
		value := *fieldRef(&sel, field)
		if !contains(opt.Values, value) {
			return apperr.Precondition(fmt.Sprintf("Invalid %s %q. Allowed: %s.", strings.ToLower(opt.Label), value, strings.Join(opt.Values, ", ")))
		}
	}
	return nil
}

// Set assigns value to field, matching values case-insensitively and
// accepting an unambiguous prefix.
func (c *Catalog) Set(sel *Selection, field, value string) error {
	opt, ok := c.Option(field)
	if !ok {
		return apperr.Precondition(fmt.Sprintf("Unknown option %q. Options: %s.", field, strings.Join(Fields, ", ")))
	}
	resolved, ok := resolve(opt.Values, value)
	if !ok {
		return apperr.Precondition(fmt.Sprintf("Invalid %s %q. Allowed: %s.", strings.ToLower(opt.Label), value, strings.Join(opt.Values, ", ")))
	}
	*fieldRef(sel, opt.Field) = resolved
	return nil
}

// Get returns the selected value of field.
func (s Selection) Get(field string) (string, bool) {
	ref := fieldRef(&s, normalizeField(field))
	if ref == nil {
		return "", false
	}
	return *ref, true
}

func fieldRef(sel *Selection, field string) *string {
	switch field {
	case "aspect_ratio":
		return &sel.AspectRatio
	case "resolution":
		return &sel.Resolution
	case "camera_angle":
		return &sel.CameraAngle
	case "lens":
		return &sel.Lens
	case "aperture":
		return &sel.Aperture
	case "lighting_type":
		return &sel.LightingType
	case "lighting_direction":
		return &sel.LightingDirection
	case "surface":
		return &sel.Surface
	case "background":
		return &sel.Background
	case "shadow":
		return &sel.Shadow
	case "reflection":
		return &sel.Reflection
	case "color_style":
		return &sel.ColorStyle
	case "composition":
		return &sel.Composition
	default:
		return nil
	}
}

// normalizeField accepts snake_case, kebab-case, spaced and camelCase names.
func normalizeField(field string) string {
	var b strings.Builder
	prev := rune(0)
	for _, r := range strings.TrimSpace(field) {
		switch {
		case r == '-' || r == ' ':
			b.WriteByte('_')
		case unicode.IsUpper(r):
			if unicode.IsLower(prev) || unicode.IsDigit(prev) {
				b.WriteByte('_')
			}
			b.WriteRune(unicode.ToLower(r))
		default:
			b.WriteRune(r)
		}
		prev = r
	}
	return b.String()
}

func resolve(values []string, input string) (string, bool) {
	input = strings.TrimSpace(input)
	if input == "" {
		return "", false
	}
	for _, v := range values {
		if strings.EqualFold(v, input) {
			return v, true
		}
	}
	match := ""
	for _, v := range values {
		if strings.HasPrefix(strings.ToLower(v), strings.ToLower(input)) {
			if match != "" {
				return "", false
			}
			match = v
		}
	}
	return match, match != ""
}

func contains(values []string, v string) bool {
	for _, candidate := range values {
		if candidate == v {
			return true
		}
	}
	return false
}
