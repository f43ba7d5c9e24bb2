package helpers

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var strictPolicy = bluemonday.StrictPolicy()

// DescriptionPreview strips any markup from a product description and returns
// at most limit runes of collapsed plain text.
func DescriptionPreview(description string, limit int) string {
	text := html.UnescapeString(strictPolicy.Sanitize(description))
	return Truncate(strings.Join(strings.Fields(text), " "), limit)
}
