package overlay

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"product-mockup-studio/internal/apperr"
)

type Role string

const (
	RoleHeadline           Role = "headline"
	RoleSubheadline        Role = "subheadline"
	RoleBulletList         Role = "bullet_list"
	RoleSpecsVolume        Role = "specs_volume"
	RoleTagline            Role = "tagline"
	RoleBackgroundHeadline Role = "background_headline"
)

var (
	roles       = []string{"headline", "subheadline", "bullet_list", "specs_volume", "tagline", "background_headline"}
	alignments  = []string{"left", "center", "right"}
	sizeHints   = []string{"xl", "lg", "md", "sm", "xs"}
	weightHints = []string{"bold", "medium", "light"}
)

// TextBlock is one positioned text region. AnchorBox is [x1, y1, x2, y2] in
// relative coordinates.
type TextBlock struct {
	ID         string     `json:"id"`
	Role       Role       `json:"role"`
	AnchorBox  [4]float64 `json:"anchor_box"`
	Align      string     `json:"align"`
	SizeHint   string     `json:"size_hint"`
	WeightHint string     `json:"weight_hint"`
}

type Layout struct {
	FontHint     string      `json:"font_hint"`
	ColorPalette []string    `json:"color_palette"`
	Blocks       []TextBlock `json:"blocks"`
}

// Validate checks what the response schema cannot express: unique ids and
// ordered box corners.
func (l Layout) Validate() error {
	seen := make(map[string]bool, len(l.Blocks))
	for i, b := range l.Blocks {
		if err := b.validate(); err != nil {
			return apperr.ResponseFormat("blocks[%d]: %v", i, err)
		}
		if seen[b.ID] {
			return apperr.ResponseFormat("blocks[%d]: duplicate id %q", i, b.ID)
		}
		seen[b.ID] = true
	}
	return nil
}

func (l Layout) Block(id string) (TextBlock, bool) {
	for _, b := range l.Blocks {
		if b.ID == id {
			return b, true
		}
	}
	return TextBlock{}, false
}

func (b TextBlock) validate() error {
	if strings.TrimSpace(b.ID) == "" {
		return fmt.Errorf("empty id")
	}
	box := b.AnchorBox
	for _, v := range box {
		if v < 0 || v > 1 {
			return fmt.Errorf("anchor_box %v outside [0,1]", box)
		}
	}
	if box[0] >= box[2] || box[1] >= box[3] {
		return fmt.Errorf("anchor_box %v has unordered corners", box)
	}
	return nil
}

// ProductInfo holds only what is legible on the label; nil means not legible.
type ProductInfo struct {
	Brand            *string  `json:"brand"`
	ProductName      *string  `json:"product_name"`
	ProductType      *string  `json:"product_type"`
	VisibleClaims    []string `json:"visible_claims"`
	Volume           *string  `json:"volume"`
	LanguageDetected string   `json:"language_detected"`
}

func (p ProductInfo) normalized() ProductInfo {
	p.Brand = cleanOptional(p.Brand)
	p.ProductName = cleanOptional(p.ProductName)
	p.ProductType = cleanOptional(p.ProductType)
	p.Volume = cleanOptional(p.Volume)
	claims := make([]string, 0, len(p.VisibleClaims))
	for _, c := range p.VisibleClaims {
		if c = strings.TrimSpace(c); c != "" && !isNullWord(c) {
			claims = append(claims, c)
		}
	}
	p.VisibleClaims = claims
	p.LanguageDetected = strings.ToLower(strings.TrimSpace(p.LanguageDetected))
	return p
}

// labelFacts lists every literal string read from the label.
func (p ProductInfo) labelFacts() []string {
	var facts []string
	for _, v := range []*string{p.Brand, p.ProductName, p.ProductType, p.Volume} {
		if v != nil {
			facts = append(facts, *v)
		}
	}
	return append(facts, p.VisibleClaims...)
}

func cleanOptional(v *string) *string {
	if v == nil {
		return nil
	}
	s := strings.TrimSpace(*v)
	if s == "" || isNullWord(s) {
		return nil
	}
	return &s
}

func isNullWord(s string) bool {
	switch strings.ToLower(s) {
	case "null", "none", "n/a", "unknown":
		return true
	}
	return false
}

// ContentBlock is a layout block carrying localized text. Text and Items are
// keyed by language code and hold only non-empty values; a block without an
// entry for a language is not rendered in that language.
type ContentBlock struct {
	TextBlock
	Text  map[string]string
	Items map[string][]string
}

func (b ContentBlock) TextIn(lang string) string { return b.Text[lang] }

func (b ContentBlock) ItemsIn(lang string) []string { return b.Items[lang] }

func (b ContentBlock) HasContent(lang string) bool {
	return strings.TrimSpace(b.Text[lang]) != "" || len(b.Items[lang]) > 0
}

func (b *ContentBlock) setText(lang, text string) {
	text = strings.TrimSpace(text)
	if text == "" {
		delete(b.Text, lang)
		return
	}
	if b.Text == nil {
		b.Text = make(map[string]string)
	}
	b.Text[lang] = text
}

func (b *ContentBlock) setItems(lang string, items []string) {
	kept := make([]string, 0, len(items))
	for _, item := range items {
		if item = strings.TrimSpace(item); item != "" {
			kept = append(kept, item)
		}
	}
	if len(kept) == 0 {
		delete(b.Items, lang)
		return
	}
	if b.Items == nil {
		b.Items = make(map[string][]string)
	}
	b.Items[lang] = kept
}

func (b ContentBlock) MarshalJSON() ([]byte, error) {
	out := map[string]any{
		"id":          b.ID,
		"role":        b.Role,
		"anchor_box":  b.AnchorBox,
		"align":       b.Align,
		"size_hint":   b.SizeHint,
		"weight_hint": b.WeightHint,
	}
	for lang, text := range b.Text {
		out["text_"+lang] = text
	}
	for lang, items := range b.Items {
		out["items_"+lang] = items
	}
	return json.Marshal(out)
}

func (b *ContentBlock) UnmarshalJSON(data []byte) error {
	var block TextBlock
	if err := json.Unmarshal(data, &block); err != nil {
		return err
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}

	*b = ContentBlock{TextBlock: block}
	for key, raw := range fields {
		if lang, ok := strings.CutPrefix(key, "text_"); ok && lang != "" {
			var text *string
			if err := json.Unmarshal(raw, &text); err != nil {
				return fmt.Errorf("%s: %w", key, err)
			}
			if text != nil {
				b.setText(lang, *text)
			}
			continue
		}
		if lang, ok := strings.CutPrefix(key, "items_"); ok && lang != "" {
			var items []string
			if err := json.Unmarshal(raw, &items); err != nil {
				return fmt.Errorf("%s: %w", key, err)
			}
			b.setItems(lang, items)
		}
	}
	return nil
}

// Languages lists the language codes present in the block, sorted.
func (b ContentBlock) Languages() []string {
	set := make(map[string]bool)
	for lang := range b.Text {
		set[lang] = true
	}
	for lang := range b.Items {
		set[lang] = true
	}
	out := make([]string, 0, len(set))
	for lang := range set {
		out = append(out, lang)
	}
	sort.Strings(out)
	return out
}

type Content struct {
	FontHint     string         `json:"font_hint"`
	ColorPalette []string       `json:"color_palette"`
	Blocks       []ContentBlock `json:"blocks"`
}

func (c Content) Validate() error {
	seen := make(map[string]bool, len(c.Blocks))
	for i, b := range c.Blocks {
		if err := b.validate(); err != nil {
			return apperr.ResponseFormat("blocks[%d]: %v", i, err)
		}
		if seen[b.ID] {
			return apperr.ResponseFormat("blocks[%d]: duplicate id %q", i, b.ID)
		}
		seen[b.ID] = true
	}
	return nil
}

// Project keeps only the given language in every block.
func (c Content) Project(lang string) Content {
	out := c.clone()
	for i := range out.Blocks {
		b := &out.Blocks[i]
		text, items := b.Text[lang], b.Items[lang]
		b.Text, b.Items = nil, nil
		b.setText(lang, text)
		b.setItems(lang, items)
	}
	return out
}

func (c Content) clone() Content {
	out := Content{
		FontHint:     c.FontHint,
		ColorPalette: append([]string(nil), c.ColorPalette...),
		Blocks:       make([]ContentBlock, len(c.Blocks)),
	}
	for i, b := range c.Blocks {
		nb := ContentBlock{TextBlock: b.TextBlock}
		for lang, text := range b.Text {
			nb.setText(lang, text)
		}
		for lang, items := range b.Items {
			nb.setItems(lang, items)
		}
		out.Blocks[i] = nb
	}
	return out
}
