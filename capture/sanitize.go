package capture

import "github.com/microcosm-cc/bluemonday"

var policy = func() *bluemonday.Policy {
	p := bluemonday.UGCPolicy()
	// class and id feed the features and the root selectors
	p.AllowAttrs("class", "id", "datetime", "role", "aria-label").Globally()
	p.AllowElements("article", "section", "header", "footer", "nav", "aside", "main", "time", "button")
	return p
}()

// Sanitize strips scripts, styles, event handlers and unknown elements from
// body while keeping the structural markup the detector walks.
func Sanitize(body []byte) []byte {
	return policy.SanitizeBytes(body)
}
