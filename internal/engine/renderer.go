package engine

import (
	"html"
	"strings"

	"fwbuilder-report/internal/parser"
)

// Options controls how rules are rendered.
type Options struct {
	// Firewall is the name of the firewall the policy is deployed on.
	Firewall string
	// Services links service names to glossary entries.
	Services bool
}

// Renderer turns policy rules of one document into HTML prose.
type Renderer struct {
	doc  *parser.Document
	opts Options
}

func NewRenderer(doc *parser.Document, opts Options) *Renderer {
	return &Renderer{doc: doc, opts: opts}
}

// isSelf reports whether n is the firewall the report is generated for.
func (r *Renderer) isSelf(n *parser.Node) bool {
	return n.Kind() == parser.KindFirewall && n.Attr("name") == r.opts.Firewall
}

func esc(s string) string {
	return html.EscapeString(s)
}

func trimmed(n *parser.Node, attr string) string {
	return strings.TrimSpace(n.Attr(attr))
}

func withComment(desc string, n *parser.Node) string {
	if comment := trimmed(n, "comment"); comment != "" {
		return desc + " <em>(" + esc(comment) + ")</em>"
	}
	return desc
}
