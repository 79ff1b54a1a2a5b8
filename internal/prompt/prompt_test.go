package prompt

import (
	"reflect"
	"testing"
)

type input struct {
	name  string
	extra bool
}

var blocks = []Block[input]{
	{Name: "intro", Render: func(in input) string { return "Hello " + in.name }},
	{Name: "extra", When: func(in input) bool { return in.extra }, Render: func(input) string { return "Extra" }},
	{Name: "blank", Render: func(input) string { return "  " }},
	{Name: "outro", Render: func(input) string { return "Bye" }},
}

func TestAssembleOrderAndPredicates(t *testing.T) {
	got := Assemble(blocks, input{name: "a"})
	if got != "Hello a\n\nBye" {
		t.Fatalf("unexpected prompt %q", got)
	}
	got = Assemble(blocks, input{name: "a", extra: true})
	if got != "Hello a\n\nExtra\n\nBye" {
		t.Fatalf("unexpected prompt %q", got)
	}
}

func TestIncluded(t *testing.T) {
	got := Included(blocks, input{extra: true})
	want := []string{"intro", "extra", "blank", "outro"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v want %v", got, want)
	}
}

func TestBullets(t *testing.T) {
	if got := Bullets([]string{"a", " ", "b"}); got != "- a\n- b" {
		t.Fatalf("unexpected bullets %q", got)
	}
}
