package plugins

import (
	"bytes"
	"html"
	"sync"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
)

var (
	policyOnce sync.Once
	policy     *bluemonday.Policy
	markdown   = goldmark.New()
)

func sanitizer() *bluemonday.Policy {
	policyOnce.Do(func() {
		policy = bluemonday.UGCPolicy()
		policy.AllowAttrs("class").Globally()
	})
	return policy
}

// SanitizeHTML strips scripts, event handlers and unsafe URLs from merchant
// supplied HTML.
func SanitizeHTML(s string) string {
	return sanitizer().Sanitize(s)
}

// Markdown converts merchant markdown to sanitised HTML. On conversion
// failure the source is shown escaped.
func Markdown(s string) string {
	var buf bytes.Buffer
	if err := markdown.Convert([]byte(s), &buf); err != nil {
		return html.EscapeString(s)
	}
	return SanitizeHTML(buf.String())
}
