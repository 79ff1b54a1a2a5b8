package mockup

import (
	"fmt"
	"strings"

	"product-mockup-studio/internal/prompt"
)

var mockupBlocks = []prompt.Block[Settings]{
	{Name: "rules", Render: renderRules},
	{Name: "negative", Render: renderNegative},
	{Name: "aspect_ratio", Render: renderAspectRatio},
	{Name: "scene", Render: renderScene},
	{Name: "style_reference", When: Settings.hasStyleReference, Render: renderStyleReference},
	{Name: "product_vibe", When: Settings.hasVibe, Render: renderVibe},
	{Name: "closing", Render: func(Settings) string {
		return "Generate the final image based on all these instructions."
	}},
}

// ComposePrompt renders the mockup instruction for the effective settings.
func ComposePrompt(s Settings) string {
	return prompt.Assemble(mockupBlocks, s.Effective())
}

// PromptBlocks names the blocks ComposePrompt emits for s, in order.
func PromptBlocks(s Settings) []string {
	return prompt.Included(mockupBlocks, s.Effective())
}

const modificationClause = "Important: Preserve the core product and any text labels on it exactly as they are in the original image. Only modify the background or add elements as requested."

func ComposeModificationPrompt(instruction string) string {
	instruction = strings.TrimRight(strings.TrimSpace(instruction), ".")
	return instruction + ". " + modificationClause
}

func renderRules(Settings) string {
	return `You are an expert AI Product Mockup Generator. Your job is to generate a clean, photorealistic product mockup.

**-- CRITICAL RULES (MUST be followed) --**
1.  **PRESERVE THE ORIGINAL PRODUCT:** Use automatic masking to perfectly isolate the product from the user-provided product image. The product's label, text, colors, geometry, cap, and logos MUST remain UNCHANGED. Do NOT alter, repaint, relabel, rewrite, or regenerate anything inside the product mask. The original product image must be the *only* product appearing in the final shot.
2.  **CREATE A NEW SCENE:** Place the preserved original product into a new, photorealistic scene based *only* on the Scene Description below. The product from the style reference image (if provided) MUST NOT appear in the final image. The scene should adopt the *style* of the reference, not its specific product content.`
}

func renderNegative(Settings) string {
	return "3.  **NEGATIVE PROMPT (Apply ALWAYS):** Do not alter or repaint any text or logos on the product. Do not distort the product. Do not generate multiple products, floating labels, warped geometry, artificial halos, noise, exaggerated glow, stickers, glitter, or hands. No extra objects or props, unless explicitly requested in scene description."
}

func renderAspectRatio(s Settings) string {
	return fmt.Sprintf("4.  **ASPECT RATIO:** The final image must have a %s aspect ratio.", s.AspectRatio)
}

func renderScene(s Settings) string {
	lines := []string{
		fmt.Sprintf("- **Camera & Composition:** An image captured from a %s with a %s lens at %s. The product is framed using a %s composition.",
			s.CameraAngle, s.Lens, s.Aperture, s.Composition),
		lightingLine(s),
		fmt.Sprintf("- **Environment:** The product is placed on a %s surface with a %s background.",
			strings.ToLower(s.Surface), strings.ToLower(s.Background)),
	}
	if s.OutputPNG {
		lines = append(lines, "- **Output Format:** The output should have a transparent background (PNG).")
	}
	return "**-- SCENE DESCRIPTION --**\n" + strings.Join(lines, "\n")
}

func lightingLine(s Settings) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "- **Lighting & Mood:** The scene uses %s with light coming from the %s. The shadows are %s.",
		s.LightingType, s.LightingDirection, strings.ToLower(s.Shadow))
	if s.Reflection != "" && s.Reflection != "None" {
		fmt.Fprintf(&sb, " The surface has %s.", strings.ToLower(s.Reflection))
	}
	fmt.Fprintf(&sb, " The color style is %s.", strings.ToLower(s.ColorStyle))
	return sb.String()
}

func renderStyleReference(s Settings) string {
	return `**-- STYLE REFERENCE --**
A style reference image has been provided. You MUST adopt its lighting, composition, photographic angle, color palette, and overall mood. However, do NOT copy or recreate any text, graphics, logos, or product shapes from the style reference. Only copy the vibe. The reference is described as:
` + strings.TrimSpace(s.StyleAnalysis)
}

func renderVibe(s Settings) string {
	return fmt.Sprintf(`**-- PRODUCT VIBE (Merge with Style Reference) --**
The original product has a vibe that can be described as: "%s".
The generated scene MUST match and complement this vibe. Do NOT make the scene contradict the product's natural essence. For example, if the product is 'aloe', ensure the scene suggests 'fresh, nature, green'. This vibe should intelligently merge with the style reference without contradicting it.`, strings.TrimSpace(s.ProductVibe))
}
