package engine

import (
	"fmt"
	"strings"

	"fwbuilder-report/internal/model"
	"fwbuilder-report/internal/parser"
	"fwbuilder-report/internal/utils"
)

const (
	anySource      = "any source"
	anyDestination = "any destination"
	selfPhrase     = "this firewall server"

	optionBranchID    = "branch_id"
	optionFirewallAny = "firewall_is_part_of_any_and_networks"
)

// endpoint is a resolved Src or Dst slot of a rule.
type endpoint struct {
	wrapper *parser.Node
	first   *parser.Node
	phrase  string
	generic bool
}

func (e *endpoint) id() string {
	return e.first.Attr("id")
}

// FormatRule renders one rule as a list item. Objects the rule links to are
// recorded in refs unless already present.
func (r *Renderer) FormatRule(rule *parser.Node, refs *model.RefTable) (model.RenderedRule, error) {
	out := model.RenderedRule{ID: rule.Attr("id")}

	action, ok := rule.LookupAttr("action")
	if !ok || strings.TrimSpace(action) == "" {
		return out, missing(rule, "action attribute")
	}
	direction, ok := rule.LookupAttr("direction")
	if !ok {
		return out, missing(rule, "direction attribute")
	}

	src, err := r.endpoint(rule, "Src", anySource)
	if err != nil {
		return out, err
	}
	dst, err := r.endpoint(rule, "Dst", anyDestination)
	if err != nil {
		return out, err
	}

	itf, anyItf, err := r.interfacePhrase(rule)
	if err != nil {
		return out, err
	}

	if direction == "Both" {
		direction = ""
	}

	var subject string
	switch {
	case !src.generic || !dst.generic:
		if err := r.register(refs, src); err != nil {
			return out, err
		}
		if err := r.register(refs, dst); err != nil {
			return out, err
		}
		from := link(src.id(), src.phrase)
		if !strings.Contains(dst.first.Tag, "Address") {
			from = "packets from " + from
		}
		subject = from + " to " + link(dst.id(), dst.phrase)
	case forwardOnly(rule):
		subject = "any packets <em>forwarded through</em> this firewall"
	default:
		if err := r.register(refs, src); err != nil {
			return out, err
		}
		subject = link(src.id(), "any packets")
	}

	services, err := r.servicePhrase(rule, refs)
	if err != nil {
		return out, err
	}

	label := action
	var anchor, connector string
	switch {
	case action == "Branch":
		branchID, ok := parser.RuleOption(rule, optionBranchID)
		if !ok || branchID == "" {
			return out, missing(rule, optionBranchID+" option")
		}
		target, err := r.doc.FindByID(branchID)
		if err != nil {
			return out, fmt.Errorf("%s branch target: %w", rule.Label(), err)
		}
		name := esc(target.Attr("name"))
		label = fmt.Sprintf("Branch to policy <strong>%s</strong>", name)
		anchor = fmt.Sprintf(`<a id="branch-%s"></a>`, name)
		connector = "for"
		out.BranchID = branchID
	case action == "Continue" && rule.Bool("log"):
		label = "Log"
	}
	class := strings.ToLower(strings.Fields(label)[0])
	if action == "Accept" {
		label = "Allow"
	}

	switch {
	case anyItf && action == "Branch":
		itf = "via any interface"
	case anyItf:
		itf = ""
	default:
		itf = "via interface " + itf
	}

	var comment string
	if c := trimmed(rule, "comment"); c != "" {
		comment = "<em>(" + esc(c) + ")</em>"
	}

	classes := "rule-" + class
	var disabled string
	if rule.Bool("disabled") {
		classes += " rule-disabled"
		disabled = "<em>(disabled)</em>"
		out.Disabled = true
	}

	head := fmt.Sprintf(`<span class="rule-%s">%s</span>%s`, class, label, anchor)
	body := utils.JoinNonEmpty(" ", head, connector, subject, strings.ToLower(direction), itf, services, comment, disabled)

	out.Action = action
	out.Class = class
	out.HTML = fmt.Sprintf(`<li class="%s">%s</li>`, classes, body)
	out.Text = utils.StripMarkup(body)
	return out, nil
}

// endpoint resolves the Src or Dst slot. The phrase is "any source"/"any
// destination" for the universal object, "this firewall server" when the
// first object is the deploying firewall, prefixed with "not " when negated.
func (r *Renderer) endpoint(rule *parser.Node, tag, anyPhrase string) (*endpoint, error) {
	wrapper := rule.Child(tag)
	if wrapper == nil {
		return nil, missing(rule, tag+" element")
	}
	targets, err := r.doc.Deref(wrapper)
	if err != nil {
		return nil, err
	}
	if len(targets) == 0 {
		return nil, missing(rule, tag+" object reference")
	}

	names := make([]string, len(targets))
	for i, t := range targets {
		names[i] = t.Attr("name")
	}
	joined := strings.Join(names, ", ")

	phrase := esc(joined)
	if joined == "Any" {
		phrase = anyPhrase
	}
	if r.isSelf(targets[0]) {
		phrase = selfPhrase
	}
	if wrapper.Bool("neg") {
		phrase = "not " + phrase
	}

	return &endpoint{
		wrapper: wrapper,
		first:   targets[0],
		phrase:  phrase,
		generic: phrase == anyPhrase,
	}, nil
}

// register adds the endpoint's first object to refs with the addresses of
// the whole slot.
func (r *Renderer) register(refs *model.RefTable, e *endpoint) error {
	if refs.Has(e.id()) {
		return nil
	}
	addresses, err := r.Addresses(e.wrapper)
	if err != nil {
		return err
	}
	refs.Add(model.Reference{ID: e.id(), Name: e.phrase, Addresses: addresses, Kind: model.RefAddress})
	return nil
}

// interfacePhrase returns the interface name markup and whether it is the
// universal "any" interface.
func (r *Renderer) interfacePhrase(rule *parser.Node) (string, bool, error) {
	wrapper := rule.Child("Itf")
	if wrapper == nil {
		return "", false, missing(rule, "Itf element")
	}
	targets, err := r.doc.Deref(wrapper)
	if err != nil {
		return "", false, err
	}
	if len(targets) == 0 {
		return "", false, missing(rule, "Itf object reference")
	}

	name := targets[0].Attr("name")
	label := targets[0].Attr("label")
	if label != "" {
		return fmt.Sprintf("<tt>%s</tt> <em>(%s)</em>", esc(name), esc(label)), false, nil
	}
	return fmt.Sprintf("<tt>%s</tt>", esc(name)), name == "Any", nil
}

func (r *Renderer) servicePhrase(rule *parser.Node, refs *model.RefTable) (string, error) {
	wrapper := rule.Child("Srv")
	if wrapper == nil {
		return "", missing(rule, "Srv element")
	}
	targets, err := r.doc.Deref(wrapper)
	if err != nil {
		return "", err
	}
	if len(targets) == 0 || (len(targets) == 1 && targets[0].Attr("name") == "Any") {
		return "", nil
	}

	names := make([]string, len(targets))
	for i, t := range targets {
		names[i] = "<tt>" + esc(t.Attr("name")) + "</tt>"
		if !r.opts.Services {
			continue
		}
		id := t.Attr("id")
		if !refs.Has(id) {
			descriptions, err := r.ServiceDescriptions(t)
			if err != nil {
				return "", err
			}
			refs.Add(model.Reference{ID: id, Name: esc(t.Attr("name")), Addresses: descriptions, Kind: model.RefService})
		}
		names[i] = link(id, names[i])
	}

	noun := "service"
	if len(names) > 1 {
		noun = "services"
	}
	return fmt.Sprintf("for %s %s", noun, strings.Join(names, ", ")), nil
}

func forwardOnly(rule *parser.Node) bool {
	v, ok := parser.RuleOption(rule, optionFirewallAny)
	return ok && v == "0"
}

func link(id, text string) string {
	return fmt.Sprintf(`<a href="#%s">%s</a>`, esc(id), text)
}

func missing(rule *parser.Node, what string) error {
	return &parser.ReferenceError{ID: rule.Attr("id"), Reason: parser.ReasonMissing, Detail: "rule has no " + what}
}
