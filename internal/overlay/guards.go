package overlay

import (
	"regexp"
	"sort"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
)

var supplementTypeWords = []string{"supplement", "suplement", "vitamin", "capsule", "kapsul", "tablet", "softgel", "probiotic", "probiotik"}

// supplementWording matches dosage and supplement-only phrasing in English
// and Albanian.
var supplementWording = regexp.MustCompile(`(?i)(\bcapsules?\b|\bkapsul\w*|\btablets?\b|\btableta?\b|\bsoftgels?\b|\d+\s*mg\b|\bdos(e|es|age)\b|\bdoz[ëe]\w*|\babsorption\b|\babsorbim\w*|bio-?availab\w*|biodisponueshm\w*|\bx\s?\d+\b|\b\d+\s?x\b|\bsupplement\w*|\bsuplement\w*|\bcycles?\b|\bcikl\w*)`)

var percentage = regexp.MustCompile(`\d+(?:[.,]\d+)?\s*%`)

func isSupplement(info ProductInfo) bool {
	if info.ProductType == nil {
		return false
	}
	t := strings.ToLower(*info.ProductType)
	for _, w := range supplementTypeWords {
		if strings.Contains(t, w) {
			return true
		}
	}
	return false
}

// FilterIncompatible removes supplement and dosage wording, and percentages
// that are not on the label, unless the product is a supplement.
func FilterIncompatible(c Content, info ProductInfo) Content {
	out := c.clone()
	if isSupplement(info) {
		return out
	}
	label := strings.ToLower(strings.Join(info.labelFacts(), " "))
	incompatible := func(s string) bool {
		if supplementWording.MatchString(s) {
			return true
		}
		for _, pct := range percentage.FindAllString(s, -1) {
			if !strings.Contains(compact(label), compact(strings.ToLower(pct))) {
				return true
			}
		}
		return false
	}

	for i := range out.Blocks {
		b := &out.Blocks[i]
		for lang, text := range b.Text {
			if incompatible(text) {
				b.setText(lang, "")
			}
		}
		for lang, items := range b.Items {
			kept := items[:0:0]
			for _, item := range items {
				if !incompatible(item) {
					kept = append(kept, item)
				}
			}
			b.setItems(lang, kept)
		}
	}
	return out
}

var prominence = map[Role]int{
	RoleHeadline:    0,
	RoleSubheadline: 1,
	RoleBulletList:  2,
	RoleSpecsVolume: 3,
	RoleTagline:     4,
}

// Deduplicate drops text already emitted by a more prominent block, per
// language. The volume counts as emitted once any entry mentions it.
// Background headlines are exempt: they may repeat the product name.
func Deduplicate(c Content, info ProductInfo) Content {
	out := c.clone()

	order := make([]int, 0, len(out.Blocks))
	for i, b := range out.Blocks {
		if b.Role != RoleBackgroundHeadline {
			order = append(order, i)
		}
	}
	sort.SliceStable(order, func(a, b int) bool {
		return rank(out.Blocks[order[a]].Role) < rank(out.Blocks[order[b]].Role)
	})

	volume := ""
	if info.Volume != nil {
		volume = compact(normalizeFact(*info.Volume))
	}

	seen := make(map[string]map[string]bool)
	volumeSeen := make(map[string]bool)
	duplicate := func(lang, s string) bool {
		key := normalizeFact(s)
		if key == "" {
			return false
		}
		if seen[lang] == nil {
			seen[lang] = make(map[string]bool)
		}
		if seen[lang][key] {
			return true
		}
		if volume != "" && strings.Contains(compact(key), volume) {
			if volumeSeen[lang] {
				return true
			}
			volumeSeen[lang] = true
		}
		seen[lang][key] = true
		return false
	}

	for _, idx := range order {
		b := &out.Blocks[idx]
		for _, lang := range b.Languages() {
			if text, ok := b.Text[lang]; ok && duplicate(lang, text) {
				b.setText(lang, "")
			}
			if items, ok := b.Items[lang]; ok {
				kept := items[:0:0]
				for _, item := range items {
					if !duplicate(lang, item) {
						kept = append(kept, item)
					}
				}
				b.setItems(lang, kept)
			}
		}
	}
	return out
}

func rank(r Role) int {
	if p, ok := prominence[r]; ok {
		return p
	}
	return len(prominence)
}

// RestrictToLayout drops blocks the layout does not define and pins the
// geometry of the rest to the layout's.
func RestrictToLayout(c Content, layout Layout) Content {
	out := c.clone()
	kept := out.Blocks[:0]
	for _, b := range out.Blocks {
		lb, ok := layout.Block(b.ID)
		if !ok {
			continue
		}
		b.TextBlock = lb
		kept = append(kept, b)
	}
	out.Blocks = kept
	if out.FontHint == "" {
		out.FontHint = layout.FontHint
	}
	if len(out.ColorPalette) == 0 {
		out.ColorPalette = append([]string(nil), layout.ColorPalette...)
	}
	return out
}

// RenderableBlocks keeps only blocks with content in lang.
func RenderableBlocks(c Content, lang string) []ContentBlock {
	var out []ContentBlock
	for _, b := range c.clone().Blocks {
		if b.HasContent(lang) {
			out = append(out, b)
		}
	}
	return out
}

func normalizeFact(s string) string {
	s = cases.Fold().String(strings.TrimSpace(s))
	var sb strings.Builder
	space := false
	for _, r := range s {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r) || r == '%':
			if space && sb.Len() > 0 {
				sb.WriteByte(' ')
			}
			space = false
			sb.WriteRune(r)
		default:
			space = true
		}
	}
	return sb.String()
}

func compact(s string) string {
	return strings.Join(strings.Fields(s), "")
}
