package capture

import (
	"bytes"
	"unicode"
	"unicode/utf8"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

var spaShells = [][]byte{
	[]byte(`<div id="root"></div>`),
	[]byte(`<div id="app"></div>`),
	[]byte(`<div id="__next"></div>`),
	[]byte("<noscript>you need to enable javascript"),
	[]byte("<noscript>enable javascript"),
}

// IsSufficient reports whether body carries enough visible text to be
// analysed as is. Short bodies, bodies under 10% text, bodies with fewer
// than 200 visible characters and known SPA shells need rendering.
func IsSufficient(body []byte) bool {
	if len(body) < 256 {
		return false
	}
	text := visibleText(body)
	if text < 200 || float64(text)/float64(len(body)) < 0.10 {
		return false
	}
	lower := bytes.ToLower(body)
	for _, s := range spaShells {
		if bytes.Contains(lower, s) {
			return false
		}
	}
	return true
}

// visibleText counts non-space text bytes outside script and style.
func visibleText(body []byte) int {
	z := html.NewTokenizer(bytes.NewReader(body))
	skip := 0
	n := 0
	for {
		switch z.Next() {
		case html.ErrorToken:
			// io.EOF or a read error; either way the count so far stands
			return n
		case html.StartTagToken:
			name, _ := z.TagName()
			if a := atom.Lookup(name); a == atom.Script || a == atom.Style {
				skip++
			}
		case html.EndTagToken:
			name, _ := z.TagName()
			if a := atom.Lookup(name); (a == atom.Script || a == atom.Style) && skip > 0 {
				skip--
			}
		case html.TextToken:
			if skip > 0 {
				continue
			}
			for _, r := range string(z.Text()) {
				if !unicode.IsSpace(r) {
					n += utf8.RuneLen(r)
				}
			}
		}
	}
}
