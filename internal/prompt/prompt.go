package prompt

import "strings"

// Block is one prompt section: Render runs only when When reports true.
// A nil When means the block is always included.
type Block[T any] struct {
	Name   string
	When   func(T) bool
	Render func(T) string
}

func (b Block[T]) included(v T) bool {
	return b.When == nil || b.When(v)
}

// Assemble renders the included blocks in declaration order, separated by
// blank lines. Blocks rendering only whitespace are skipped.
func Assemble[T any](blocks []Block[T], v T) string {
	var sb strings.Builder
	for _, b := range blocks {
		if !b.included(v) {
			continue
		}
		text := strings.TrimSpace(b.Render(v))
		if text == "" {
			continue
		}
		if sb.Len() > 0 {
			sb.WriteString("\n\n")
		}
		sb.WriteString(text)
	}
	return sb.String()
}

// Included lists the names of the blocks that apply to v, in order.
func Included[T any](blocks []Block[T], v T) []string {
	var names []string
	for _, b := range blocks {
		if b.included(v) {
			names = append(names, b.Name)
		}
	}
	return names
}

// Bullets renders "- item" lines, skipping blanks.
func Bullets(items []string) string {
	var sb strings.Builder
	for _, item := range items {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		if sb.Len() > 0 {
			sb.WriteByte('\n')
		}
		sb.WriteString("- ")
		sb.WriteString(item)
	}
	return sb.String()
}
