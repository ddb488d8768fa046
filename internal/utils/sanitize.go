package utils

import (
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var policy = bluemonday.UGCPolicy()

func init() {
	// Allow images
	policy.AllowImages()
	// Force links to open in new tab
	policy.AddTargetBlankToFullyQualifiedLinks(true)
	policy.RequireNoReferrerOnLinks(true)
}

// SanitizeHTML strips scripts, event handlers and other unsafe markup from
// user-submitted rich text. Plain text passes through unchanged.
func SanitizeHTML(s string) string {
	return strings.TrimSpace(policy.Sanitize(s))
}
