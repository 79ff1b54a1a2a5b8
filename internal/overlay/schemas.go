package overlay

import "product-mockup-studio/internal/schema"

func blockProperties() map[string]*schema.Schema {
	return map[string]*schema.Schema{
		"id":   {Type: schema.String},
		"role": {Type: schema.String, Enum: roles},
		"anchor_box": {
			Type:     schema.Array,
			Items:    &schema.Schema{Type: schema.Number, Minimum: schema.Ptr(0.0), Maximum: schema.Ptr(1.0)},
			MinItems: schema.Ptr(4),
			MaxItems: schema.Ptr(4),
		},
		"align":       {Type: schema.String, Enum: alignments},
		"size_hint":   {Type: schema.String, Enum: sizeHints},
		"weight_hint": {Type: schema.String, Enum: weightHints},
	}
}

var blockRequired = []string{"id", "role", "anchor_box", "align", "size_hint", "weight_hint"}

var LayoutSchema = &schema.Schema{
	Type: schema.Object,
	Properties: map[string]*schema.Schema{
		"font_hint":     {Type: schema.String},
		"color_palette": {Type: schema.Array, Items: &schema.Schema{Type: schema.String}},
		"blocks": {
			Type: schema.Array,
			Items: &schema.Schema{
				Type:       schema.Object,
				Properties: blockProperties(),
				Required:   blockRequired,
			},
		},
	},
	Required: []string{"font_hint", "color_palette", "blocks"},
}

var ProductInfoSchema = &schema.Schema{
	Type: schema.Object,
	Properties: map[string]*schema.Schema{
		"brand":             {Type: schema.String, Nullable: true},
		"product_name":      {Type: schema.String, Nullable: true},
		"product_type":      {Type: schema.String, Nullable: true},
		"visible_claims":    {Type: schema.Array, Items: &schema.Schema{Type: schema.String}},
		"volume":            {Type: schema.String, Nullable: true},
		"language_detected": {Type: schema.String},
	},
	Required: []string{"brand", "product_name", "product_type", "visible_claims", "volume", "language_detected"},
}

// ContentSchema declares text_<lang>/items_<lang> for the target language and
// for English, the secondary rendering.
func ContentSchema(lang string) *schema.Schema {
	props := blockProperties()
	for _, l := range contentLanguages(lang) {
		props["text_"+l] = &schema.Schema{Type: schema.String, Nullable: true}
		props["items_"+l] = &schema.Schema{Type: schema.Array, Items: &schema.Schema{Type: schema.String}, Nullable: true}
	}
	return &schema.Schema{
		Type: schema.Object,
		Properties: map[string]*schema.Schema{
			"font_hint":     {Type: schema.String},
			"color_palette": {Type: schema.Array, Items: &schema.Schema{Type: schema.String}},
			"blocks": {
				Type: schema.Array,
				Items: &schema.Schema{
					Type:       schema.Object,
					Properties: props,
					Required:   blockRequired,
				},
			},
		},
		Required: []string{"font_hint", "color_palette", "blocks"},
	}
}

func contentLanguages(lang string) []string {
	if lang == "en" {
		return []string{"en"}
	}
	return []string{lang, "en"}
}
