package parser

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// Namespace is the XML namespace of fwbuilder object databases.
const Namespace = "http://www.fwbuilder.org/1.0/"

// Kind classifies a node by its element tag.
type Kind int

const (
	KindUnknown Kind = iota
	KindFirewall
	KindAddressTable
	KindNetwork
	KindHost
	KindAddress
	KindAddressRange
	KindDNSName
	KindGroup
	KindAny
	KindService
	KindInterface
	KindPolicy
	KindRule
)

var kindNames = map[Kind]string{
	KindUnknown:      "unknown",
	KindFirewall:     "firewall",
	KindAddressTable: "address-table",
	KindNetwork:      "network",
	KindHost:         "host",
	KindAddress:      "address",
	KindAddressRange: "address-range",
	KindDNSName:      "dns-name",
	KindGroup:        "group",
	KindAny:          "any",
	KindService:      "service",
	KindInterface:    "interface",
	KindPolicy:       "policy",
	KindRule:         "rule",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

var tagKinds = map[string]Kind{
	"Firewall":      KindFirewall,
	"Cluster":       KindFirewall,
	"AddressTable":  KindAddressTable,
	"Network":       KindNetwork,
	"NetworkIPv6":   KindNetwork,
	"Host":          KindHost,
	"IPv4":          KindAddress,
	"IPv6":          KindAddress,
	"AddressRange":  KindAddressRange,
	"DNSName":       KindDNSName,
	"ObjectGroup":   KindGroup,
	"ServiceGroup":  KindGroup,
	"IntervalGroup": KindGroup,
	"TCPService":    KindService,
	"UDPService":    KindService,
	"ICMPService":   KindService,
	"ICMP6Service":  KindService,
	"IPService":     KindService,
	"CustomService": KindService,
	"TagService":    KindService,
	"UserService":   KindService,
	"Interface":     KindInterface,
	"Policy":        KindPolicy,
	"PolicyRule":    KindRule,
}

// Node is one element of the parsed document.
type Node struct {
	Tag    string
	Space  string
	Parent *Node

	attrs    map[string]string
	children []*Node
	text     strings.Builder
}

// Attr returns the named attribute, or "" when it is absent.
func (n *Node) Attr(name string) string {
	return n.attrs[name]
}

// LookupAttr returns the named attribute and whether it is present.
func (n *Node) LookupAttr(name string) (string, bool) {
	v, ok := n.attrs[name]
	return v, ok
}

// Bool reports whether the named attribute holds a true value.
func (n *Node) Bool(name string) bool {
	switch strings.ToLower(n.attrs[name]) {
	case "true", "1":
		return true
	}
	return false
}

// Text returns the trimmed character data directly inside the element.
func (n *Node) Text() string {
	return strings.TrimSpace(n.text.String())
}

// Elements returns all child elements in document order.
func (n *Node) Elements() []*Node {
	return n.children
}

// Children returns the child elements with the given tag.
func (n *Node) Children(tag string) []*Node {
	var out []*Node
	for _, c := range n.children {
		if c.Tag == tag {
			out = append(out, c)
		}
	}
	return out
}

// Child returns the first child element with the given tag, or nil.
func (n *Node) Child(tag string) *Node {
	for _, c := range n.children {
		if c.Tag == tag {
			return c
		}
	}
	return nil
}

// Kind classifies the node by tag. Every tag starting with "Any" is the
// universal object of its domain.
func (n *Node) Kind() Kind {
	if k, ok := tagKinds[n.Tag]; ok {
		return k
	}
	if strings.HasPrefix(n.Tag, "Any") {
		return KindAny
	}
	return KindUnknown
}

// Label names the node for error messages.
func (n *Node) Label() string {
	if name := n.Attr("name"); name != "" {
		return fmt.Sprintf("%s %q", n.Tag, name)
	}
	if id := n.Attr("id"); id != "" {
		return fmt.Sprintf("%s %s", n.Tag, id)
	}
	return n.Tag
}

// Document is a parsed fwbuilder object database.
type Document struct {
	Root  *Node
	index map[string][]*Node
}

// ParseFile reads and parses the document at path.
func ParseFile(path string) (*Document, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, &LoadError{Path: path, Err: err}
	}
	defer file.Close()

	doc, err := Parse(file)
	if err != nil {
		var le *LoadError
		if errors.As(err, &le) {
			le.Path = path
		}
		return nil, err
	}
	return doc, nil
}

// Parse decodes a whole XML document and indexes every element carrying an id.
func Parse(r io.Reader) (*Document, error) {
	dec := xml.NewDecoder(r)
	doc := &Document{index: make(map[string][]*Node)}
	var stack []*Node

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, &LoadError{Err: err}
		}

		switch t := tok.(type) {
		case xml.StartElement:
			n := &Node{
				Tag:   t.Name.Local,
				Space: t.Name.Space,
				attrs: make(map[string]string, len(t.Attr)),
			}
			for _, a := range t.Attr {
				if a.Name.Space == "xmlns" || a.Name.Local == "xmlns" {
					continue
				}
				n.attrs[a.Name.Local] = a.Value
			}
			if len(stack) > 0 {
				parent := stack[len(stack)-1]
				n.Parent = parent
				parent.children = append(parent.children, n)
			} else if doc.Root != nil {
				return nil, &LoadError{Err: fmt.Errorf("multiple root elements: %s follows %s", n.Tag, doc.Root.Tag)}
			} else {
				doc.Root = n
			}
			if id, ok := n.attrs["id"]; ok {
				doc.index[id] = append(doc.index[id], n)
			}
			stack = append(stack, n)
		case xml.EndElement:
			stack = stack[:len(stack)-1]
		case xml.CharData:
			if len(stack) > 0 {
				stack[len(stack)-1].text.Write(t)
			}
		}
	}

	if doc.Root == nil {
		return nil, &LoadError{Err: errors.New("document has no root element")}
	}
	if len(stack) != 0 {
		return nil, &LoadError{Err: io.ErrUnexpectedEOF}
	}
	return doc, nil
}

// FindByID returns the single element whose id attribute equals id.
func (d *Document) FindByID(id string) (*Node, error) {
	nodes := d.index[id]
	switch len(nodes) {
	case 0:
		return nil, &ReferenceError{ID: id, Reason: ReasonUnresolved}
	case 1:
		return nodes[0], nil
	default:
		return nil, &ReferenceError{ID: id, Reason: ReasonDuplicate, Detail: fmt.Sprintf("%d elements share this id", len(nodes))}
	}
}

// Deref resolves every direct child of n that carries a ref attribute, in
// child order. It returns an empty slice when n has no such children.
func (d *Document) Deref(n *Node) ([]*Node, error) {
	var targets []*Node
	for _, c := range n.children {
		ref, ok := c.attrs["ref"]
		if !ok {
			continue
		}
		target, err := d.FindByID(ref)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", n.Label(), err)
		}
		targets = append(targets, target)
	}
	return targets, nil
}

// Find returns every element, in document order, for which match is true.
func (d *Document) Find(match func(*Node) bool) []*Node {
	var out []*Node
	var visit func(*Node)
	visit = func(n *Node) {
		if match(n) {
			out = append(out, n)
		}
		for _, c := range n.children {
			visit(c)
		}
	}
	visit(d.Root)
	return out
}

// RuleOption returns the text of the rule's PolicyRuleOptions/Option with
// the given name attribute.
func RuleOption(rule *Node, name string) (string, bool) {
	opts := rule.Child("PolicyRuleOptions")
	if opts == nil {
		return "", false
	}
	for _, opt := range opts.Children("Option") {
		if opt.Attr("name") == name {
			return opt.Text(), true
		}
	}
	return "", false
}
