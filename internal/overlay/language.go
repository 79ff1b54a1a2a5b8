package overlay

import (
	"fmt"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"

	"product-mockup-studio/internal/apperr"
)

const DefaultLanguage = "sq"

// NormalizeLanguage reduces a BCP 47 tag to its base language code.
// Empty input yields DefaultLanguage.
func NormalizeLanguage(code string) (string, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return DefaultLanguage, nil
	}
	tag, err := language.Parse(code)
	if err != nil {
		return "", apperr.Precondition(fmt.Sprintf("Unsupported overlay language %q.", code))
	}
	base, conf := tag.Base()
	if conf == language.No || base.String() == "und" {
		return "", apperr.Precondition(fmt.Sprintf("Unsupported overlay language %q.", code))
	}
	return base.String(), nil
}

// languageName renders e.g. "Albanian (shqip)".
func languageName(code string) string {
	tag, err := language.Parse(code)
	if err != nil {
		return code
	}
	english := display.English.Languages().Name(tag)
	if english == "" {
		english = code
	}
	self := display.Self.Name(tag)
	if self == "" || strings.EqualFold(self, english) {
		return english
	}
	return fmt.Sprintf("%s (%s)", english, self)
}
