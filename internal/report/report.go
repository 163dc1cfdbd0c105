package report

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"fwbuilder-report/internal/engine"
	"fwbuilder-report/internal/model"
	"fwbuilder-report/internal/parser"
)

// AnyObjectID is the id fwbuilder gives the universal network object.
const AnyObjectID = "sysid0"

// DeletedObjectsID is the id of the library holding deleted objects.
const DeletedObjectsID = "sysid99"

const (
	DefaultTitle   = "Firewall report"
	rootPolicyName = "Policy"
	anyDisplayName = "Anything"
)

type Options struct {
	Firewall string
	Title    string
	Services bool
}

// FindFirewall returns the single firewall (or cluster) called name.
// Copies kept in the deleted objects library are ignored.
func FindFirewall(doc *parser.Document, name string) (*parser.Node, error) {
	matches := doc.Find(func(n *parser.Node) bool {
		return n.Kind() == parser.KindFirewall && n.Attr("name") == name && !deleted(n)
	})
	switch len(matches) {
	case 0:
		return nil, &parser.NotFoundError{Kind: "firewall", Name: name}
	case 1:
		return matches[0], nil
	default:
		return nil, &parser.AmbiguousError{Kind: "firewall", Name: name, Count: len(matches)}
	}
}

func deleted(n *parser.Node) bool {
	for p := n.Parent; p != nil; p = p.Parent {
		if p.Tag == "Library" && p.Attr("id") == DeletedObjectsID {
			return true
		}
	}
	return false
}

// RootPolicy returns the firewall's policy named "Policy".
func RootPolicy(fw *parser.Node) (*parser.Node, error) {
	var matches []*parser.Node
	for _, p := range fw.Children("Policy") {
		if p.Attr("name") == rootPolicyName {
			matches = append(matches, p)
		}
	}
	switch len(matches) {
	case 0:
		return nil, &parser.NotFoundError{Kind: "policy", Name: rootPolicyName}
	case 1:
		return matches[0], nil
	default:
		return nil, &parser.AmbiguousError{Kind: "policy", Name: rootPolicyName, Count: len(matches)}
	}
}

// Build walks the root policy of the named firewall.
func Build(doc *parser.Document, opts Options) (*model.Report, error) {
	fw, err := FindFirewall(doc, opts.Firewall)
	if err != nil {
		return nil, err
	}
	policy, err := RootPolicy(fw)
	if err != nil {
		return nil, fmt.Errorf("firewall %q: %w", opts.Firewall, err)
	}

	r := engine.NewRenderer(doc, engine.Options{Firewall: opts.Firewall, Services: opts.Services})
	frag, err := r.Walk(policy, 0)
	if err != nil {
		return nil, fmt.Errorf("firewall %q: %w", opts.Firewall, err)
	}
	frag.Refs.Rename(AnyObjectID, anyDisplayName)

	title := opts.Title
	if title == "" {
		title = DefaultTitle
	}
	slog.Info("Report built", "firewall", opts.Firewall, "rules", len(frag.Rules), "definitions", frag.Refs.Len())
	return &model.Report{Title: title, Firewall: opts.Firewall, Policy: frag}, nil
}

// Render writes the complete HTML document in a single write.
func Render(w io.Writer, rep *model.Report) error {
	var b strings.Builder
	heading := esc(fmt.Sprintf("%s for '%s'", rep.Title, rep.Firewall))

	b.WriteString("<!doctype html>\n<html>\n<head>\n<meta charset=\"utf-8\">\n")
	fmt.Fprintf(&b, "<title>%s</title>\n", heading)
	b.WriteString(stylesheet)
	b.WriteString("</head>\n<body>\n")
	fmt.Fprintf(&b, "<h1>%s</h1>\n", heading)
	b.WriteString("<h2>Policy</h2>\n")
	b.WriteString(rep.Policy.HTML)
	b.WriteString("<h2>Definitions</h2>\n<dl>\n")
	for _, ref := range rep.Policy.Refs.All() {
		fmt.Fprintf(&b, "<dt id=\"%s\" class=\"ref-%s\">%s</dt>\n<dd>%s</dd>\n", esc(ref.ID), ref.Kind, ref.Name, strings.Join(ref.Addresses, "<br>"))
	}
	b.WriteString("</dl>\n</body>\n</html>\n")

	_, err := io.WriteString(w, b.String())
	return err
}
