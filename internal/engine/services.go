package engine

import (
	"fmt"
	"strconv"

	"fwbuilder-report/internal/model"
	"fwbuilder-report/internal/parser"
	"fwbuilder-report/pkg/wellknown"
)

// AnyService is the description of the universal service object.
const AnyService = "Any service"

// ServiceDescriptions flattens a service or service group into one
// description per concrete service.
func (r *Renderer) ServiceDescriptions(n *parser.Node) ([]string, error) {
	return r.services(n, make(map[*parser.Node]bool))
}

func (r *Renderer) services(n *parser.Node, visited map[*parser.Node]bool) ([]string, error) {
	switch n.Kind() {
	case parser.KindAny:
		return []string{AnyService}, nil
	case parser.KindService:
		return []string{withComment(describeService(n), n)}, nil
	}

	if visited[n] {
		return nil, &parser.ReferenceError{ID: n.Attr("id"), Reason: parser.ReasonCycle, Detail: n.Label() + " contains itself"}
	}
	visited[n] = true
	defer delete(visited, n)

	targets, err := r.doc.Deref(n)
	if err != nil {
		return nil, err
	}
	var out []string
	for _, target := range targets {
		nested, err := r.services(target, visited)
		if err != nil {
			return nil, err
		}
		out = append(out, nested...)
	}
	return out, nil
}

func describeService(n *parser.Node) string {
	name := esc(trimmed(n, "name"))
	switch n.Tag {
	case "TCPService":
		return describePorts(n, name, model.TCP)
	case "UDPService":
		return describePorts(n, name, model.UDP)
	case "ICMPService", "ICMP6Service":
		proto := "icmp"
		if n.Tag == "ICMP6Service" {
			proto = "icmp6"
		}
		return fmt.Sprintf("%s <tt>%s</tt>", name, icmpMatch(proto, n.Attr("type"), n.Attr("code")))
	case "IPService":
		return fmt.Sprintf("%s <tt>ip proto %s</tt>", name, esc(n.Attr("protocol_num")))
	case "CustomService":
		return fmt.Sprintf("%s <tt>custom</tt>", name)
	case "TagService":
		return fmt.Sprintf("%s <tt>tag %s</tt>", name, esc(n.Attr("tagcode")))
	case "UserService":
		return fmt.Sprintf("%s <tt>user %s</tt>", name, esc(n.Attr("userid")))
	}
	return name
}

func describePorts(n *parser.Node, name string, proto model.Protocol) string {
	start, _ := strconv.Atoi(n.Attr("dst_range_start"))
	end, _ := strconv.Atoi(n.Attr("dst_range_end"))
	if end < start {
		end = start
	}

	desc := fmt.Sprintf("%s <tt>%s/%s</tt>", name, proto, portRange(start, end))
	if start == end && start != 0 {
		if wk, ok := wellknown.PortName(start, proto); ok && wk != trimmed(n, "name") {
			desc += " [" + esc(wk) + "]"
		}
	}

	srcStart, _ := strconv.Atoi(n.Attr("src_range_start"))
	srcEnd, _ := strconv.Atoi(n.Attr("src_range_end"))
	if srcStart != 0 || srcEnd != 0 {
		if srcEnd < srcStart {
			srcEnd = srcStart
		}
		desc += fmt.Sprintf(" from source port <tt>%s</tt>", portRange(srcStart, srcEnd))
	}
	return desc
}

func portRange(start, end int) string {
	switch {
	case start == 0 && end == 0:
		return "any"
	case start == end:
		return strconv.Itoa(start)
	default:
		return fmt.Sprintf("%d-%d", start, end)
	}
}

func icmpMatch(proto, typ, code string) string {
	if typ == "" || typ == "-1" {
		return proto + " any"
	}
	match := fmt.Sprintf("%s type %s", proto, esc(typ))
	if code != "" && code != "-1" {
		match += " code " + esc(code)
	}
	return match
}
