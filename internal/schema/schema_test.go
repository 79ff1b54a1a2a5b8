package schema

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

var testSchema = &Schema{
	Type: Object,
	Properties: map[string]*Schema{
		"name":  {Type: String},
		"role":  {Type: String, Enum: []string{"headline", "tagline"}},
		"note":  {Type: String, Nullable: true},
		"box":   {Type: Array, Items: &Schema{Type: Number, Minimum: Ptr(0.0), Maximum: Ptr(1.0)}, MinItems: Ptr(4), MaxItems: Ptr(4)},
		"count": {Type: Integer},
		"tags":  {Type: Array, Items: &Schema{Type: String}},
	},
	Required: []string{"name", "role", "note", "box"},
}

type testValue struct {
	Name  string    `json:"name"`
	Role  string    `json:"role"`
	Note  *string   `json:"note"`
	Box   []float64 `json:"box"`
	Count int       `json:"count"`
	Tags  []string  `json:"tags"`
}

func TestDecodeValid(t *testing.T) {
	raw := "```json\n{\"name\":\"a\",\"role\":\"tagline\",\"note\":null,\"box\":[0,0.1,0.5,1],\"count\":3,\"tags\":[\"x\"]}\n```"
	var v testValue
	if err := Decode(raw, testSchema, &v); err != nil {
		t.Fatalf("Decode error: %v", err)
	}
	if v.Name != "a" || v.Role != "tagline" || v.Note != nil || len(v.Box) != 4 || v.Count != 3 {
		t.Fatalf("unexpected value: %+v", v)
	}
}

func TestDecodeRejects(t *testing.T) {
	cases := map[string]string{
		"missing required": `{"name":"a","role":"tagline","box":[0,0,1,1]}`,
		"enum":             `{"name":"a","role":"footer","note":null,"box":[0,0,1,1]}`,
		"null":             `{"name":null,"role":"tagline","note":null,"box":[0,0,1,1]}`,
		"item type":        `{"name":"a","role":"tagline","note":null,"box":[0,"x",1,1]}`,
		"item range":       `{"name":"a","role":"tagline","note":null,"box":[0,0,1.5,1]}`,
		"item count":       `{"name":"a","role":"tagline","note":null,"box":[0,0,1]}`,
		"integer":          `{"name":"a","role":"tagline","note":null,"box":[0,0,1,1],"count":1.5}`,
		"string items":     `{"name":"a","role":"tagline","note":null,"box":[0,0,1,1],"tags":[1]}`,
		"not json":         `sorry, I cannot help`,
		"empty":            "  ",
		"not object":       `[1,2]`,
	}
	for name, raw := range cases {
		var v testValue
		err := Decode(raw, testSchema, &v)
		var verr *ValidationError
		if !errors.As(err, &verr) {
			t.Fatalf("%s: expected ValidationError, got %v", name, err)
		}
	}
}

func TestValidationErrorPath(t *testing.T) {
	err := Decode(`{"name":"a","role":"tagline","note":null,"box":[0,0,1,7]}`, testSchema, nil)
	if err == nil || !strings.HasPrefix(err.Error(), "box[3]:") {
		t.Fatalf("expected path box[3], got %v", err)
	}
}

func TestSchemaMarshalsForGemini(t *testing.T) {
	raw, err := json.Marshal(testSchema)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	s := string(raw)
	for _, want := range []string{`"type":"OBJECT"`, `"enum":["headline","tagline"]`, `"nullable":true`, `"minItems":4`, `"required":["name","role","note","box"]`} {
		if !strings.Contains(s, want) {
			t.Fatalf("marshaled schema missing %s: %s", want, s)
		}
	}
}
