package overlay

import (
	"encoding/json"
	"fmt"

	"product-mockup-studio/internal/prompt"
)

// LayoutInstruction treats any text in the reference as a placeholder.
const LayoutInstruction = `Analyze the provided style reference image and extract ONLY the visual layout structure for text overlays.
You MUST detect:
- placement of headline
- placement of subheadline
- placement of bullet callouts
- placement of specs/badges
- text alignment and hierarchy
- approximate font style (e.g., geometric_sans_bold, thin_sans, serif_elegant)
- color palette (main text colors)
- spacing proportions
- approximate bounding boxes for each text block (as relative coordinates from 0 to 1, [x1, y1, x2, y2] with x1 < x2 and y1 < y2)
- If the style reference includes a large text behind the product, categorize it as 'background_headline'.

You MUST NOT:
- copy any words, letters, or text from the style reference, especially any foreign language text (e.g., Russian, Arabic, Greek, etc.). Treat all detected foreign text as layout placeholders, NOT as content.
- use any trademarked or copyrighted slogans
- infer product type from the style reference
- generate text in any language based on the style reference. Focus purely on layout.

Every block needs a unique id, e.g. "headline_main", "callouts_left".
Return ONLY the JSON object. Ensure all coordinates are between 0 and 1.`

// ProductInfoInstruction forbids guessing: unreadable fields are null.
const ProductInfoInstruction = `Read ONLY the product image provided.
Extract:
- brand
- product name
- product type
- readable claims (short phrases or keywords)
- readable benefits (short phrases or keywords)
- readable volume (e.g., "250ml", "10 fl oz")
- readable text only
- detected language of label (ISO 639-1 code, e.g., "sq" for Albanian, "en" for English)

Rules:
- Never guess or hallucinate missing text.
- If unreadable or unclear, use null.
- Never change numbers.
- Do not infer extra ingredients or claims.

Return ONLY the JSON object.`

type contentPrompt struct {
	lang     string
	name     string
	info     string
	layout   string
	fallback []string
}

var contentBlocks = []prompt.Block[contentPrompt]{
	{Name: "role", Render: func(contentPrompt) string {
		return "You are an advanced text generation engine for product overlays."
	}},
	{Name: "rules", Render: renderContentRules},
	{Name: "spelling_guard_sq", When: func(p contentPrompt) bool { return p.lang == "sq" }, Render: func(contentPrompt) string {
		return `**-- ALBANIAN SPELLING & GRAMMAR GUARD --**
Before finalizing text, auto-correct misspellings (e.g., "XLOE" → "XHEL", "Naturale" → "Natyrale", "Me Aloe Dhe Mango" → "Me Aloe dhe Mango") and ensure grammar is clean and natural in Albanian. Pick the simplest grammatically correct form if uncertain.`
	}},
	{Name: "spelling_guard", When: func(p contentPrompt) bool { return p.lang != "sq" }, Render: func(p contentPrompt) string {
		return fmt.Sprintf(`**-- SPELLING & GRAMMAR GUARD --**
Before finalizing text, auto-correct misspellings and ensure grammar and casing are clean and natural in %s. Pick the simplest grammatically correct form if uncertain.`, p.name)
	}},
	{Name: "fallback", When: func(p contentPrompt) bool { return len(p.fallback) > 0 }, Render: func(p contentPrompt) string {
		return "**-- FALLBACK CONTENT --**\nIf the product info is minimal or unclear, use safe, generic phrases for applicable blocks like:\n" + prompt.Bullets(p.fallback)
	}},
	{Name: "block_logic", Render: renderBlockLogic},
	{Name: "inputs", Render: func(p contentPrompt) string {
		return fmt.Sprintf("**-- INPUTS --**\n<product_data>\n%s\n</product_data>\n<text_layout_structure>\n%s\n</text_layout_structure>", p.info, p.layout)
	}},
	{Name: "quality_check", Render: renderContentQualityCheck},
}

var fallbackPhrases = map[string][]string{
	"sq": {"Pije Freskuese", "Me Aloe Vera", "Pa Konservues", "Shije Tropikale", "Për Çdo Ditë"},
}

func composeContentPrompt(info ProductInfo, layout Layout, lang string) (string, error) {
	infoJSON, err := json.Marshal(info)
	if err != nil {
		return "", fmt.Errorf("marshal product info: %w", err)
	}
	layoutJSON, err := json.Marshal(layout)
	if err != nil {
		return "", fmt.Errorf("marshal layout: %w", err)
	}
	return prompt.Assemble(contentBlocks, contentPrompt{
		lang:     lang,
		name:     languageName(lang),
		info:     string(infoJSON),
		layout:   string(layoutJSON),
		fallback: fallbackPhrases[lang],
	}), nil
}

func renderContentRules(p contentPrompt) string {
	textKey, itemsKey := "text_"+p.lang, "items_"+p.lang
	secondary := "English text ('text_en' or 'items_en') may only be produced as a secondary output."
	if p.lang == "en" {
		secondary = "Do not produce any other language."
	}
	return fmt.Sprintf(`**-- CRITICAL RULES --**
1.  **Language Strictness:** All generated text must ALWAYS be produced in clean, correct %[1]s for '%[2]s' or '%[3]s'. %[4]s Ignore any languages detected in the style reference (e.g., Russian, Arabic, Greek). Never copy foreign words from the style reference into generated text.
2.  **Product Info Only:** Use ONLY the provided product data from <product_data> to generate content. Do NOT invent benefits, claims, or ingredients.
3.  **Layout Only:** Use ONLY the provided text layout structure from <text_layout_structure> to understand block roles and positions. Do NOT generate text for blocks that are not defined in the layout. Keep every block's id unchanged.
4.  **Auto-Simplification & Block Relevance:**
    *   If the text layout contains more blocks than the product information can reasonably support, keep ONLY the essential blocks: headline, subheadline, 1-2 bullet lists, 1 spec block.
    *   Automatically ignore (set '%[2]s': null or '%[3]s': []) irrelevant blocks such as: x30 badges, dosage circles, capsule icons, "95%% absorption" text, supplement-only badges, scientific icons, or medical claims, ESPECIALLY if the 'product_type' is a 'drink' or 'cosmetic'.
5.  **Anti-Repetition Rule:** Do NOT repeat the same fact, claim, or volume in multiple blocks. If a volume appears once, it must not appear again. Product name appears only once unless stylistically necessary.
6.  **Style Compatibility Logic:** If the product type is a 'drink', avoid generating text that belongs to 'capsules', 'mg dosage units', 'supplement cycles', 'bio-availability', or percentages not on the label. Only use visible label information or safe marketing language.`, p.name, textKey, itemsKey, secondary)
}

func renderBlockLogic(p contentPrompt) string {
	return fmt.Sprintf(`**-- SPECIFIC BLOCK GENERATION LOGIC --**
- **BACKGROUND HEADLINE (if present in layout):** Use product name, product range, or a key ingredient (e.g., "Aloe Vera") as a large, bold text. Keep it concise.
- **SUBHEADLINE (if present in layout):** Short (2-4 words), clean, always in %[1]s. Auto-chosen based on product info: if 'product_type' is visible, use it; if a flavor is visible, use it; if unclear, use a neutral tagline.
- **SIDE BULLET BLOCKS (for 'bullet_list' role):** Use categories like: ingredients (visible or known from product name), product type or category, target audience, flavor, claims. Maximum 3 bullets per side.
- **GENERAL:** No emojis, no unnecessary decoration. For blocks where content cannot be generated relevantly, set 'text_%[2]s': null or 'items_%[2]s': [].`, p.name, p.lang)
}

func renderContentQualityCheck(p contentPrompt) string {
	return fmt.Sprintf(`**-- FINAL QUALITY CHECK --**
Before outputting, verify:
- No misspellings in %[1]s.
- No irrelevant supplement-style blocks for the product type.
- No duplicated text.
- Product name appears only once unless stylistically necessary (e.g., in headline and then in a background element, but not in two prominent foreground blocks).
- No hallucinated claims were added.
- Layout is simplified if too dense for the product type.
- All null or empty blocks are correctly marked.

Output the content in the SAME JSON structure as the text layout, filling in the 'text_%[2]s' or 'items_%[2]s' fields for each block.
Return ONLY the JSON object.`, p.name, p.lang)
}

// RenderOptions are the additive render toggles.
type RenderOptions struct {
	Language             string `json:"language"`
	AddVibeElements      bool   `json:"addVibeElements"`
	MatchStyleBackground bool   `json:"matchStyleBackground"`
}

type renderPrompt struct {
	RenderOptions
	name    string
	layout  string
	content string
}

var renderBlocks = []prompt.Block[renderPrompt]{
	{Name: "role", Render: func(renderPrompt) string {
		return `You are a STRICT text overlay compositor and design engine. Your ONLY job is to take the provided base product image and accurately place the given text content on top of it according to the specified layout, while applying brand design refinements.`
	}},
	{Name: "rules", Render: renderRenderRules},
	{Name: "inputs", Render: func(p renderPrompt) string {
		return fmt.Sprintf(`**-- INPUTS --**
<base_image> (The product image on which to overlay text)
<text_layout_json> (Defines positions, sizes, alignments, and general text aesthetics)
%s
</text_layout_json>
<text_content_json> (Contains the actual text strings to be rendered)
%s
</text_content_json>`, p.layout, p.content)
	}},
	{Name: "instructions", Render: func(p renderPrompt) string {
		return fmt.Sprintf(`**-- RENDERING INSTRUCTIONS --**
- Render the text content from <text_content_json> onto the <base_image>.
- For each block, use its 'id' to match content with layout.
- Apply the 'anchor_box' coordinates (relative 0-1), 'align', 'size_hint', and 'weight_hint' from <text_layout_json> to guide position and style, but prioritize layout harmonization rules.
- Use the 'color_palette' from <text_layout_json> as a guide for text colors.
- Maintain the original resolution of the base image.
- Render ONLY the blocks present in <text_content_json>; any layout block without content MUST NOT be rendered.
- Use only the 'text_%[1]s' and 'items_%[1]s' fields.`, p.Language)
	}},
	{Name: "vibe_elements", When: func(p renderPrompt) bool { return p.AddVibeElements }, Render: func(renderPrompt) string {
		return "- **Vibe Elements Handling:** If the style reference includes decorative items (e.g., flowers, fruits, aloe leaves, herbs), you MUST add 1-2 matching, subtle, and realistic elements. Place them harmonically near the product, but NEVER block the product's label or overpower the composition. If the style reference has no such elements, add none."
	}},
	{Name: "match_background", When: func(p renderPrompt) bool { return p.MatchStyleBackground }, Render: func(renderPrompt) string {
		return "- **Match Style Background:** Adopt the color palette or a soft background tone from the style reference. However, you MUST NOT replace or regenerate the background fully. Preserve the existing background structure, shadows, and product realism, only subtly blending the style reference's background aesthetic."
	}},
	{Name: "quality_check", Render: func(renderPrompt) string {
		return `**-- FINAL QUALITY CHECK BEFORE RENDERING --**
You MUST verify:
- Text fits inside its harmonized placement, respecting the general area of 'anchor_box'.
- No text overlaps with other text blocks or the product's label/important features.
- No duplicated facts.
- No supplement badges unless the product is a supplement.
- No invented numbers or claims appear.
- The product is untouched, undistorted, and its label is perfectly preserved.
- Correct spacing and alignment between text blocks and from product edges.

Return ONLY the final harmonized image with the text overlay.`
	}},
}

func composeRenderPrompt(layout Layout, content Content, opts RenderOptions) (string, error) {
	layoutJSON, err := json.Marshal(layout)
	if err != nil {
		return "", fmt.Errorf("marshal layout: %w", err)
	}
	contentJSON, err := json.Marshal(content)
	if err != nil {
		return "", fmt.Errorf("marshal content: %w", err)
	}
	return prompt.Assemble(renderBlocks, renderPrompt{
		RenderOptions: opts,
		name:          languageName(opts.Language),
		layout:        string(layoutJSON),
		content:       string(contentJSON),
	}), nil
}

func renderRenderRules(p renderPrompt) string {
	return fmt.Sprintf(`**-- CRITICAL RENDERING RULES --**
1.  **NO BASE IMAGE MODIFICATION:** DO NOT alter, repaint, modify, enhance, or change the original base product image in any way (including its product, label, colors, lighting, shadows, reflections, angle, or rotation). Never distort, tilt, bend, warp, or rotate the product. The product MUST remain upright.
2.  **FIXED BRAND FONTS:** Apply these fonts consistently, overriding any 'font_hint':
    *   Headline: Montserrat ExtraBold (or similar geometric sans bold)
    *   Subheadline: Montserrat SemiBold (or similar)
    *   Bullets: Inter Regular (or similar)
    *   Small info text (specs, volume, taglines): Inter Light or Inter Regular (or similar)
3.  **LAYOUT HARMONIZATION:** Follow the positions ('anchor_box', 'align', 'size_hint', 'weight_hint') from the layout, but adjust spacing, fix misalignment, balance left and right blocks, avoid overcrowding, and never let text touch the product. If the layout is overcrowded, fall back to: headline top-left or top-center; subheadline near the headline; bullet lists (max 3 items) left and right; ingredients bottom-left; volume bottom-right.
4.  **LANGUAGE STRICTNESS:** All rendered text MUST ONLY be in %[1]s, using the 'text_%[2]s' or 'items_%[2]s' fields. DO NOT translate, rewrite, or infer any other language.
5.  **NO CREATIVE ELEMENTS:** DO NOT introduce new creative elements, shapes, icons, or graphics that are not part of the provided text content or layout, unless an instruction below explicitly allows it.
6.  **TEXT STYLE:** Text MUST be crisp and fully readable. DO NOT curve, bend, distort, or morph text. DO NOT add glow, shadows, gradients, textures, outlines, or 3D effects. If needed for readability, apply ONLY a soft 10–20%% white or black translucent panel behind the text, using the 'color_palette' as a guide.
7.  **BIG BACKGROUND HEADLINE:** If a block with role 'background_headline' has content, render it as a large, bold text behind the product.`, p.name, p.Language)
}
