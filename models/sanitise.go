package models

import (
	"html"

	"github.com/microcosm-cc/bluemonday"
)

var textPolicy = bluemonday.StripTagsPolicy()

// maxSanitisePasses bounds how many layers of entity encoding are unwrapped
const maxSanitisePasses = 4

// SanitiseText strips all HTML tags from text and returns plain text.
//
// bluemonday escapes the text it keeps, and markup hidden behind entities
// (&lt;script&gt;) survives a single pass as text. Each pass therefore decodes,
// strips and decodes again until the result stops changing. Input that is
// still changing after maxSanitisePasses is returned in bluemonday's escaped
// form, which can never be read back as a tag.
func SanitiseText(s string) string {
	for i := 0; i < maxSanitisePasses; i++ {
		next := html.UnescapeString(textPolicy.Sanitize(html.UnescapeString(s)))
		if next == s {
			return s
		}
		s = next
	}
	return textPolicy.Sanitize(s)
}
