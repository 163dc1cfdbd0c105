package engine

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"fwbuilder-report/internal/model"
	"fwbuilder-report/internal/parser"
	"fwbuilder-report/internal/utils"
)

// DefaultDenyText describes the implicit final rule of every firewall.
const DefaultDenyText = "Deny any packets that remain"

const defaultDenyItem = `<li><span class="rule-discard">Deny</span> any packets that remain</li>`

// Walk renders the rules of policy as an ordered list. Branch rules are
// followed into their target policy, which is rendered as a nested list
// right after the branch item. Only the top-level walk (depth 0) ends with
// the implicit default deny.
func (r *Renderer) Walk(policy *parser.Node, depth int) (*model.Fragment, error) {
	return r.walk(policy, depth, "", make(map[string]bool))
}

func (r *Renderer) walk(policy *parser.Node, depth int, prefix string, visiting map[string]bool) (*model.Fragment, error) {
	id := policy.Attr("id")
	name := policy.Attr("name")
	if visiting[id] {
		return nil, &parser.ReferenceError{ID: id, Reason: parser.ReasonCycle, Detail: fmt.Sprintf("policy %q branches back into itself", name)}
	}
	visiting[id] = true
	defer delete(visiting, id)

	slog.Debug("Walking policy", "policy", name, "id", id, "depth", depth)

	frag := &model.Fragment{Refs: model.NewRefTable()}
	var b strings.Builder
	b.WriteString(utils.Indent("<ol>", depth))

	for i, rule := range policy.Children("PolicyRule") {
		pos := position(prefix, i+1)
		rendered, err := r.FormatRule(rule, frag.Refs)
		if err != nil {
			return nil, fmt.Errorf("policy %q rule %s: %w", name, pos, err)
		}
		rendered.Policy = name
		rendered.Position = pos
		b.WriteString(utils.Indent(rendered.HTML, depth+1))
		frag.Rules = append(frag.Rules, rendered)

		if rendered.Action != "Branch" {
			continue
		}
		target, err := r.branchPolicy(policy, rendered.BranchID)
		if err != nil {
			return nil, fmt.Errorf("policy %q rule %s: %w", name, pos, err)
		}
		sub, err := r.walk(target, depth+1, pos, visiting)
		if err != nil {
			return nil, err
		}
		b.WriteString(sub.HTML)
		frag.Refs.Merge(sub.Refs)
		frag.Rules = append(frag.Rules, sub.Rules...)
	}

	if depth == 0 {
		b.WriteString(utils.Indent(defaultDenyItem, depth+1))
		frag.Rules = append(frag.Rules, model.RenderedRule{
			Policy:   name,
			Position: position(prefix, len(policy.Children("PolicyRule"))+1),
			Action:   "Deny",
			Class:    "discard",
			HTML:     defaultDenyItem,
			Text:     DefaultDenyText,
		})
	}
	b.WriteString(utils.Indent("</ol>", depth))

	frag.HTML = b.String()
	return frag, nil
}

// branchPolicy resolves a branch target, which must be a policy sharing the
// parent of the policy that branches to it.
func (r *Renderer) branchPolicy(policy *parser.Node, branchID string) (*parser.Node, error) {
	target, err := r.doc.FindByID(branchID)
	if err != nil {
		return nil, err
	}
	if target.Kind() != parser.KindPolicy || target.Parent != policy.Parent {
		return nil, &parser.ReferenceError{ID: branchID, Reason: parser.ReasonUnresolved, Detail: fmt.Sprintf("%s is not a policy next to %s", target.Label(), policy.Label())}
	}
	return target, nil
}

func position(prefix string, n int) string {
	if prefix == "" {
		return strconv.Itoa(n)
	}
	return prefix + "." + strconv.Itoa(n)
}
