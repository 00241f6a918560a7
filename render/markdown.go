package render

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/table"

	"github.com/hazyhaar/domcore/domtree"
)

// Previewer renders subtrees as markdown.
type Previewer struct {
	conv   *converter.Converter
	domain string
	max    int
}

// NewPreviewer returns a Previewer. domain resolves relative links; maxLen
// truncates the output (0 keeps everything).
func NewPreviewer(domain string, maxLen int) *Previewer {
	return &Previewer{
		conv: converter.NewConverter(
			converter.WithPlugins(
				base.NewBasePlugin(),
				commonmark.NewCommonmarkPlugin(),
				table.NewTablePlugin(),
			),
		),
		domain: domain,
		max:    maxLen,
	}
}

// Markdown converts the subtree at n.
func (p *Previewer) Markdown(d *domtree.Document, n domtree.NodeID) (string, error) {
	src, err := d.Render(n)
	if err != nil {
		return "", err
	}
	var md string
	if p.domain != "" {
		md, err = p.conv.ConvertString(src, converter.WithDomain(p.domain))
	} else {
		md, err = p.conv.ConvertString(src)
	}
	if err != nil {
		return "", fmt.Errorf("render: markdown: %w", err)
	}
	md = strings.TrimSpace(md)
	if p.max > 0 && len(md) > p.max {
		cut := p.max
		for cut > 0 && !utf8.RuneStart(md[cut]) {
			cut--
		}
		md = md[:cut] + "…"
	}
	return md, nil
}

// Markdown converts the subtree at n with a default Previewer.
func Markdown(d *domtree.Document, n domtree.NodeID) (string, error) {
	return NewPreviewer("", 0).Markdown(d, n)
}
