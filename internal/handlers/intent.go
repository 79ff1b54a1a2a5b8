package handlers

import (
	"fmt"
	"strings"
)

type photoRole int

const (
	roleProduct photoRole = iota
	roleStyle
	roleLayout
	roleOverlayBase
)

func (r photoRole) String() string {
	switch r {
	case roleStyle:
		return "style reference"
	case roleLayout:
		return "text overlay style reference"
	case roleOverlayBase:
		return "overlay base image"
	default:
		return "product image"
	}
}

// captionRole reads the first word of a photo caption. Anything unrecognised
// is a product photo.
func captionRole(caption string) photoRole {
	word, _, _ := strings.Cut(strings.ToLower(strings.TrimSpace(caption)), " ")
	word = strings.Trim(word, "#/.,!:")
	switch word {
	case "style", "reference", "ref":
		return roleStyle
	case "layout", "overlay-style", "textstyle":
		return roleLayout
	case "base", "overlay":
		return roleOverlayBase
	default:
		return roleProduct
	}
}

func parseToggle(arg string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(arg)) {
	case "on", "true", "1", "yes", "enable":
		return true, nil
	case "off", "false", "0", "no", "disable":
		return false, nil
	default:
		return false, fmt.Errorf("expected on or off, got %q", arg)
	}
}

// splitSetArgs splits "/set lighting_type golden hour" into field and value.
func splitSetArgs(args string) (field, value string, ok bool) {
	field, value, ok = strings.Cut(strings.TrimSpace(args), " ")
	field, value = strings.TrimSpace(field), strings.TrimSpace(value)
	return field, value, ok && field != "" && value != ""
}
