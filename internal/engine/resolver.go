package engine

import (
	"fmt"

	"fwbuilder-report/internal/parser"
)

// AnyAddress is the description of the universal address object.
const AnyAddress = "Any address"

// Addresses flattens n into one human-readable description per address
// reachable from it, in reference order. Reaching the universal "any"
// object replaces everything collected at that level with AnyAddress.
func (r *Renderer) Addresses(n *parser.Node) ([]string, error) {
	return r.addresses(n, make(map[*parser.Node]bool))
}

func (r *Renderer) addresses(n *parser.Node, visited map[*parser.Node]bool) ([]string, error) {
	switch n.Kind() {
	case parser.KindFirewall:
		if r.isSelf(n) {
			return []string{"The server on which this firewall is deployed"}, nil
		}
		return []string{fmt.Sprintf("The firewall %s", esc(trimmed(n, "name")))}, nil
	case parser.KindAddressTable:
		if n.Bool("run_time") {
			return []string{fmt.Sprintf("Address table <tt>%s</tt> loaded from the firewall", esc(n.Attr("filename")))}, nil
		}
		return []string{fmt.Sprintf("Address table <tt>%s</tt> loaded during compile time", esc(n.Attr("filename")))}, nil
	case parser.KindAddressRange:
		desc := fmt.Sprintf("%s <tt>%s - %s</tt>", esc(trimmed(n, "name")), esc(n.Attr("start_address")), esc(n.Attr("end_address")))
		return []string{withComment(desc, n)}, nil
	case parser.KindDNSName:
		desc := fmt.Sprintf("%s <tt>%s</tt>", esc(trimmed(n, "name")), esc(n.Attr("dnsrec")))
		return []string{withComment(desc, n)}, nil
	case parser.KindAny:
		return []string{AnyAddress}, nil
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
	if len(targets) == 0 {
		if address := n.Attr("address"); address != "" {
			return []string{describeAddress(n, address)}, nil
		}
		if n.Kind() == parser.KindHost {
			return hostAddresses(n), nil
		}
	}

	var out []string
	for _, target := range targets {
		if target.Kind() == parser.KindAny {
			return []string{AnyAddress}, nil
		}
		if address := target.Attr("address"); address != "" {
			out = append(out, describeAddress(target, address))
			continue
		}
		nested, err := r.addresses(target, visited)
		if err != nil {
			return nil, err
		}
		out = append(out, nested...)
	}
	return out, nil
}

func describeAddress(n *parser.Node, address string) string {
	if netmask := n.Attr("netmask"); netmask != "" && n.Kind() == parser.KindNetwork {
		address = address + "/" + netmask
	}
	return withComment(fmt.Sprintf("%s <tt>%s</tt>", esc(trimmed(n, "name")), esc(address)), n)
}

// hostAddresses describes a host by the addresses configured on its
// interfaces.
func hostAddresses(host *parser.Node) []string {
	var out []string
	for _, itf := range host.Children("Interface") {
		for _, addr := range itf.Elements() {
			if addr.Kind() != parser.KindAddress || addr.Attr("address") == "" {
				continue
			}
			desc := fmt.Sprintf("%s <tt>%s</tt>", esc(trimmed(host, "name")), esc(addr.Attr("address")))
			out = append(out, withComment(desc, host))
		}
	}
	return out
}
