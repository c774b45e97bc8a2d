package css

import (
	"regexp"
	"strings"

	"bennypowers.dev/cajoler/internal/message"
	"bennypowers.dev/cajoler/internal/position"
	"bennypowers.dev/cajoler/internal/uripolicy"
)

// VdocContainerClass marks the element that stands in for a gadget's
// document. Selectors rooted at it are scoped in place.
const VdocContainerClass = "vdoc-container___"

var (
	safeSelectorPart = regexp.MustCompile(`^[#!.]?[a-zA-Z][_a-zA-Z0-9\-]*$`)
	safeMediaQuery   = regexp.MustCompile(`^[a-zA-Z0-9\s(),:.\-]*$`)

	allowedPseudoClasses = map[string]bool{
		"active": true, "after": true, "before": true, "blank": true,
		"checked": true, "default": true, "disabled": true, "drop": true,
		"empty": true, "enabled": true, "first": true, "first-child": true,
		"first-letter": true, "first-line": true, "first-of-type": true,
		"fullscreen": true, "focus": true, "hover": true, "in-range": true,
		"indeterminate": true, "invalid": true, "last-child": true,
		"last-of-type": true, "left": true, "only-child": true,
		"only-of-type": true, "optional": true, "out-of-range": true,
		"placeholder-shown": true, "read-only": true, "read-write": true,
		"required": true, "right": true, "root": true, "scope": true,
		"user-error": true, "valid": true,
	}
)

// Rewriter makes validated CSS safe to embed in a container page.
type Rewriter struct {
	opts  options
	queue *message.Queue
}

// NewRewriter returns a rewriter reporting to queue.
func NewRewriter(queue *message.Queue, opts ...Option) *Rewriter {
	return &Rewriter{opts: newOptions(opts), queue: queue}
}

// Rewrite rewrites a validated Stylesheet or DeclarationGroup in place. The
// passes run in a fixed order; each relies on what the previous ones left.
func (r *Rewriter) Rewrite(root *Node) {
	r.splitHistorySensitiveRuleSets(root)
	r.quoteLooseWords(root)
	r.fixTerms(root)
	r.removeUnsafeConstructs(root)
	r.removeEmptyDeclarationsAndSelectors(root)
	r.removeEmptyRuleSets(root)
	r.removeForbiddenIdents(root)
	r.renameVirtualizedElements(root)
	r.suffixIDs(root)
	r.restrictToGadgetSubtree(root)
	// Renaming and scoping add selector parts, so check them again.
	r.removeUnsafeConstructs(root)
	r.translateURLs(root)
}

func (r *Rewriter) invalid(t message.Type, pos position.FilePosition, parts ...string) {
	r.queue.AddAt(t, r.opts.invalidLevel, pos, parts...)
}

// ruleSets calls fn for each RuleSet with the node holding it.
func ruleSets(root *Node, fn func(rs, parent *Node)) {
	Walk(root, func(n, parent *Node) bool {
		switch n.Kind {
		case KindStylesheet, KindMedia:
			return true
		case KindRuleSet:
			fn(n, parent)
		}
		return false
	})
}

// selectors returns the leading Selector children of a RuleSet.
func selectors(rs *Node) []*Node {
	var out []*Node
	for _, c := range rs.Children {
		if c.Kind != KindSelector {
			break
		}
		out = append(out, c)
	}
	return out
}

func declarations(rs *Node) []*Node {
	var out []*Node
	for _, c := range rs.Children {
		if c.Kind.IsDeclaration() {
			out = append(out, c)
		}
	}
	return out
}

func isLinkPseudo(n *Node) bool {
	if n.Kind != KindPseudo || n.Children[0].Kind != KindIdentLiteral {
		return false
	}
	switch strings.ToLower(n.Children[0].StringValue()) {
	case "link", "visited":
		return true
	}
	return false
}

func hasLinkPseudo(ss *Node) bool {
	for _, c := range ss.Children {
		if isLinkPseudo(c) {
			return true
		}
	}
	return false
}

// splitHistorySensitiveRuleSets moves selectors that use :link or :visited
// into a RuleSet of their own so that the properties allowed with them can
// be restricted without touching the other selectors. Those selectors are
// also restricted to anchors.
func (r *Rewriter) splitHistorySensitiveRuleSets(root *Node) {
	ruleSets(root, func(rs, parent *Node) {
		var linky, other []*Node
		for _, sel := range selectors(rs) {
			if r.restrictLinkSelectorToAnchors(sel) {
				linky = append(linky, sel)
			} else {
				other = append(other, sel)
			}
		}
		if len(linky) == 0 || len(other) == 0 || parent == nil {
			return
		}
		split := rs.Mutate()
		children := make([]*Node, 0, len(rs.Children))
		for _, sel := range linky {
			split.Remove(sel)
			children = append(children, sel)
		}
		split.Execute()
		for _, d := range declarations(rs) {
			children = append(children, d.Clone())
		}
		linkRules := MustBuild(KindRuleSet, nil, rs.Pos, children...)
		parent.InsertBefore(linkRules, nextSibling(parent, rs))
	})
}

func nextSibling(parent, n *Node) *Node {
	for i, c := range parent.Children {
		if c == n && i+1 < len(parent.Children) {
			return parent.Children[i+1]
		}
	}
	return nil
}

// restrictLinkSelectorToAnchors reports whether sel uses :link or :visited,
// and makes each simple selector that does so require an a element.
func (r *Rewriter) restrictLinkSelectorToAnchors(sel *Node) bool {
	linky := false
	for _, ss := range sel.Children {
		if ss.Kind != KindSimpleSelector || !hasLinkPseudo(ss) {
			continue
		}
		linky = true
		anchor := MustBuild(KindIdentLiteral, "a", ss.Pos)
		switch first := ss.Children[0]; first.Kind {
		case KindWildcardElement:
			ss.ReplaceChild(anchor, first)
		case KindIdentLiteral:
			if !strings.EqualFold(first.StringValue(), "a") {
				r.invalid(message.CSSLinkPseudoSelectorNotAllowedOnNonanchor, first.Pos)
				sel.Attrs.Invalid = true
			}
		default:
			ss.InsertBefore(anchor, first)
		}
	}
	return linky
}

// quoteLooseWords turns runs of unquoted words that fill the same property
// part, like the words of a font family name, into one string.
func (r *Rewriter) quoteLooseWords(root *Node) {
	Walk(root, func(n, _ *Node) bool {
		if n.Kind != KindExpr {
			return true
		}
		var runs [][]*Node
		var run []*Node
		for i := 0; i < len(n.Children); i += 2 {
			term := n.Children[i]
			if !isLooseWord(term) {
				if run != nil {
					runs = append(runs, run)
				}
				run = nil
				continue
			}
			if run != nil && (n.Children[i-1].Value != OpNone || term.Attrs.PropertyPart != run[0].Attrs.PropertyPart) {
				runs = append(runs, run)
				run = nil
			}
			run = append(run, term)
		}
		if run != nil {
			runs = append(runs, run)
		}
		for _, run := range runs {
			r.quoteRun(n, run)
		}
		return false
	})
}

func isLooseWord(term *Node) bool {
	return term.Kind == KindTerm && term.Attrs.PartType == PartLooseWord &&
		term.StringValue() == "" && term.Children[0].Kind == KindIdentLiteral
}

func (r *Rewriter) quoteRun(expr *Node, run []*Node) {
	words := make([]string, len(run))
	for i, t := range run {
		words[i] = t.Children[0].StringValue()
	}
	text := strings.Join(words, " ")
	first := run[0]
	pos := position.Span(first.Pos, run[len(run)-1].Pos)
	first.ReplaceChild(MustBuild(KindStringLiteral, text, pos), first.Children[0])
	first.Attrs.PartType = PartString
	if len(run) == 1 {
		return
	}
	r.queue.Add(message.QuotedCSSValue, pos, text)
	m := expr.Mutate()
	for _, t := range run[1:] {
		m.Remove(operatorBefore(expr, t))
		m.Remove(t)
	}
	m.Execute()
}

func operatorBefore(expr, term *Node) *Node {
	for i, c := range expr.Children {
		if c == term {
			return expr.Children[i-1]
		}
	}
	return nil
}

// fixTerms adds the px unit to unitless lengths other than zero.
func (r *Rewriter) fixTerms(root *Node) {
	Walk(root, func(n, _ *Node) bool {
		if n.Kind != KindTerm || n.Attrs.PartType != PartLength {
			return true
		}
		atom := n.Children[0]
		if atom.Kind != KindQuantityLiteral {
			return false
		}
		num, unit, ok := SplitQuantity(atom.StringValue())
		if ok && unit == "" && !isZero(num) {
			r.queue.Add(message.AssumingPixelsForLength, atom.Pos, atom.StringValue())
			n.ReplaceChild(MustBuild(KindQuantityLiteral, num+"px", atom.Pos), atom)
		}
		return false
	})
}

// removeUnsafeConstructs marks selectors, declarations and rules that cannot
// be made safe, removes them, then removes what was left empty.
func (r *Rewriter) removeUnsafeConstructs(root *Node) {
	Walk(root, func(n, parent *Node) bool {
		switch n.Kind {
		case KindAtRule:
			r.invalid(message.UnsupportedCSSConstruct, n.Pos, "@"+n.StringValue())
			n.Attrs.Invalid = true
			return false
		case KindMedia:
			if !safeMediaQuery.MatchString(n.StringValue()) {
				r.invalid(message.UnsupportedCSSConstruct, n.Pos, "@media "+n.StringValue())
				n.Attrs.Invalid = true
				return false
			}
		case KindRuleSet:
			for _, sel := range selectors(n) {
				Walk(sel, func(ss, _ *Node) bool {
					if ss.Kind == KindSimpleSelector {
						r.checkSimpleSelector(ss, n)
					}
					return ss.Kind == KindSelector
				})
			}
		case KindSelector:
			return false
		case KindPropertyDeclaration:
			r.checkDeclaration(n)
			return false
		}
		return true
	})
	removeInvalidNodes(root)
	removeEmptySelectors(root)
	r.removeEmptyRuleSets(root)
}

func (r *Rewriter) checkSimpleSelector(ss, ruleSet *Node) {
	for _, part := range ss.Children {
		var value string
		switch part.Kind {
		case KindWildcardElement, KindSuffixedSelectorPart:
			continue
		case KindPseudo:
			value = part.Children[0].StringValue()
		default:
			value = part.StringValue()
		}
		if !safeSelectorPart.MatchString(value) {
			r.invalid(message.UnsafeCSSIdentifier, part.Pos, value)
			ss.Attrs.Invalid = true
			continue
		}
		if part.Kind == KindPseudo {
			r.checkPseudo(part, ss, ruleSet)
		}
	}
}

func (r *Rewriter) checkPseudo(pseudo, ss, ruleSet *Node) {
	if pseudo.Children[0].Kind == KindIdentLiteral {
		name := strings.ToLower(pseudo.Children[0].StringValue())
		if allowedPseudoClasses[name] {
			return
		}
		if isLinkPseudo(pseudo) {
			r.stripPropertiesBannedInLinkClasses(ruleSet, pseudo)
			return
		}
	}
	r.invalid(message.UnsafeCSSPseudoSelector, pseudo.Pos, pseudo.StringValue()+Render(pseudo.Children[0], ""))
	ss.Attrs.Invalid = true
}

// stripPropertiesBannedInLinkClasses removes the declarations of a RuleSet
// with :link or :visited selectors that could reveal which links were
// visited, either by loading a resource or by changing layout.
func (r *Rewriter) stripPropertiesBannedInLinkClasses(ruleSet, pseudo *Node) {
	m := ruleSet.Mutate()
	for _, d := range declarations(ruleSet) {
		if d.Kind != KindPropertyDeclaration {
			continue
		}
		name := strings.ToLower(d.Children[0].StringValue())
		if r.opts.schema.IsLinkSafe(name) && !mightContainURL(d.Children[1]) {
			continue
		}
		r.invalid(message.DisallowedCSSPropertyInSelector, d.Pos, name, ":"+pseudo.Children[0].StringValue())
		m.Remove(d)
	}
	if m.Len() > 0 {
		m.Execute()
	}
}

func mightContainURL(expr *Node) bool {
	for i := 0; i < len(expr.Children); i += 2 {
		switch expr.Children[i].Children[0].Kind {
		case KindIdentLiteral, KindQuantityLiteral, KindHashLiteral:
		default:
			return true
		}
	}
	return false
}

func (r *Rewriter) checkDeclaration(decl *Node) {
	if decl.Children[0].Attrs.Invalid {
		decl.Attrs.Invalid = true
		return
	}
	prop := strings.ToLower(decl.Children[0].StringValue())
	Walk(decl.Children[1], func(n, _ *Node) bool {
		if n.Kind != KindURILiteral || decl.Attrs.Invalid {
			return true
		}
		if _, ok := r.approveURI(n, prop); !ok {
			r.invalid(message.DisallowedURI, n.Pos, n.StringValue())
			decl.Attrs.Invalid = true
		}
		return false
	})
}

// approveURI resolves a URI literal and asks the policy about it. Without a
// policy every well formed URI is approved and left to the runtime.
func (r *Rewriter) approveURI(n *Node, prop string) (string, bool) {
	u, err := uripolicy.Resolve(r.opts.base, n.StringValue())
	if err != nil {
		return "", false
	}
	if r.opts.policy == nil {
		return u.String(), true
	}
	return r.opts.policy.Rewrite(
		uripolicy.ExternalReference{URI: u, Pos: n.Pos},
		uripolicy.SameDocument, uripolicy.Sandboxed,
		uripolicy.Hints{uripolicy.HintCSSProperty: prop},
	)
}

// removeInvalidNodes drops every node marked invalid. A node that cannot be
// dropped from its parent without breaking the parent's shape invalidates
// the parent instead, up to the nearest removable node.
func removeInvalidNodes(n *Node) {
	for _, c := range n.Children {
		removeInvalidNodes(c)
	}
	var m *Mutation
	for _, c := range n.Children {
		if !c.Attrs.Invalid {
			continue
		}
		if !removable(n.Kind, c.Kind) {
			n.Attrs.Invalid = true
			continue
		}
		if m == nil {
			m = n.Mutate()
		}
		m.Remove(c)
	}
	if m != nil {
		m.Execute()
	}
}

func removable(parent, child Kind) bool {
	switch parent {
	case KindStylesheet:
		return true
	case KindMedia:
		return child == KindRuleSet
	case KindRuleSet:
		return child == KindSelector || child.IsDeclaration()
	case KindDeclarationGroup:
		return child.IsDeclaration()
	}
	return false
}

// removeEmptyDeclarationsAndSelectors drops empty declarations and selectors
// that do not start with a simple selector.
func (r *Rewriter) removeEmptyDeclarationsAndSelectors(root *Node) {
	Walk(root, func(n, _ *Node) bool {
		switch n.Kind {
		case KindRuleSet, KindDeclarationGroup:
			m := n.Mutate()
			for _, c := range n.Children {
				if c.Kind == KindEmptyDeclaration ||
					c.Kind == KindSelector && (len(c.Children) == 0 || c.Children[0].Kind != KindSimpleSelector) {
					m.Remove(c)
				}
			}
			if m.Len() > 0 {
				m.Execute()
			}
			return false
		}
		return true
	})
}

func removeEmptySelectors(root *Node) {
	ruleSets(root, func(rs, _ *Node) {
		m := rs.Mutate()
		for _, sel := range selectors(rs) {
			if len(sel.Children) == 0 {
				m.Remove(sel)
			}
		}
		if m.Len() > 0 {
			m.Execute()
		}
	})
}

// removeEmptyRuleSets drops rules without selectors or declarations, and
// media blocks left without rules.
func (r *Rewriter) removeEmptyRuleSets(root *Node) {
	var prune func(n *Node)
	prune = func(n *Node) {
		if n.Kind != KindStylesheet && n.Kind != KindMedia {
			return
		}
		m := n.Mutate()
		for _, c := range n.Children {
			prune(c)
			switch c.Kind {
			case KindRuleSet:
				if len(c.Children) == 0 || c.Children[0].Kind != KindSelector || len(declarations(c)) == 0 {
					m.Remove(c)
				}
			case KindMedia:
				if len(c.Children) == 0 {
					m.Remove(c)
				}
			}
		}
		if m.Len() > 0 {
			m.Execute()
		}
	}
	prune(root)
}

// removeForbiddenIdents rejects class and id names ending in a double
// underscore, which the container reserves for its own names.
func (r *Rewriter) removeForbiddenIdents(root *Node) {
	Walk(root, func(n, parent *Node) bool {
		if n.Kind != KindClassLiteral && n.Kind != KindIDLiteral {
			return true
		}
		name := n.StringValue()[1:]
		if strings.HasSuffix(name, "__") && !(n.Kind == KindClassLiteral && name == VdocContainerClass) {
			r.invalid(message.UnsafeCSSIdentifier, n.Pos, n.StringValue())
			parent.Attrs.Invalid = true
		}
		return false
	})
}

// renameVirtualizedElements rewrites element names that the container
// virtualizes, matching the renaming applied to markup.
func (r *Rewriter) renameVirtualizedElements(root *Node) {
	v := r.opts.virtualizer
	if v == nil {
		return
	}
	Walk(root, func(n, _ *Node) bool {
		if n.Kind != KindSimpleSelector {
			return n.Kind != KindDeclarationGroup && n.Kind != KindPropertyDeclaration
		}
		el := n.Children[0]
		if el.Kind == KindIdentLiteral && v.IsElementVirtualized(strings.ToLower(el.StringValue())) {
			name := v.VirtualToRealElementName(strings.ToLower(el.StringValue()))
			n.ReplaceChild(MustBuild(KindIdentLiteral, name, el.Pos), el)
		}
		return false
	})
}

// suffixIDs wraps id selectors so the gadget's id suffix is added when the
// stylesheet is rendered.
func (r *Rewriter) suffixIDs(root *Node) {
	Walk(root, func(n, parent *Node) bool {
		switch n.Kind {
		case KindIDLiteral:
			if parent.Kind == KindSimpleSelector {
				parent.ReplaceChild(MustBuild(KindSuffixedSelectorPart, nil, n.Pos, n), n)
			}
			return false
		case KindSuffixedSelectorPart, KindDeclarationGroup, KindPropertyDeclaration:
			return false
		}
		return true
	})
}

// restrictToGadgetSubtree makes every selector require an ancestor carrying
// the gadget's class. Selectors that already do are left alone, so the pass
// can be applied to its own output.
func (r *Rewriter) restrictToGadgetSubtree(root *Node) {
	ruleSets(root, func(rs, _ *Node) {
		for _, sel := range selectors(rs) {
			scopeSelector(sel)
		}
	})
}

func scopeSelector(sel *Node) {
	if len(sel.Children) == 0 || isScoped(sel) {
		return
	}
	base := sel.Children[0]
	if startsWithVdocContainer(base) {
		if !hasGadgetMarker(base) {
			base.InsertBefore(gadgetMarker(base.Pos), nil)
		}
		return
	}
	pos := position.StartOf(base.Pos)
	m := sel.Mutate()
	m.InsertBefore(MustBuild(KindSimpleSelector, nil, pos, gadgetMarker(pos)), base)
	m.InsertBefore(MustBuild(KindCombination, Descendant, pos), base)
	m.Execute()
}

func gadgetMarker(pos position.FilePosition) *Node {
	return MustBuild(KindSuffixedSelectorPart, nil, pos)
}

func isGadgetMarker(n *Node) bool {
	return n.Kind == KindSuffixedSelectorPart && len(n.Children) == 0
}

func isScoped(sel *Node) bool {
	if len(sel.Children) < 3 {
		return false
	}
	ss, comb := sel.Children[0], sel.Children[1]
	return ss.Kind == KindSimpleSelector && len(ss.Children) == 1 && isGadgetMarker(ss.Children[0]) &&
		comb.Kind == KindCombination && comb.Value == Descendant
}

func startsWithVdocContainer(ss *Node) bool {
	return len(ss.Children) > 0 && ss.Children[0].Kind == KindClassLiteral &&
		ss.Children[0].StringValue() == "."+VdocContainerClass
}

func hasGadgetMarker(ss *Node) bool {
	for _, c := range ss.Children {
		if isGadgetMarker(c) {
			return true
		}
	}
	return false
}

// translateURLs replaces each URI with the policy's rewrite, or marks it for
// rewriting at runtime when there is no policy.
func (r *Rewriter) translateURLs(root *Node) {
	var prop string
	Walk(root, func(n, _ *Node) bool {
		switch n.Kind {
		case KindPropertyDeclaration:
			prop = strings.ToLower(n.Children[0].StringValue())
		case KindTerm:
			atom := n.Children[0]
			if atom.Kind != KindURILiteral {
				return false
			}
			uri, ok := r.approveURI(atom, prop)
			kind := KindUnsafeURILiteral
			if r.opts.policy != nil {
				kind = KindSafeURILiteral
			}
			if !ok {
				// Approved earlier; only a policy that changed its mind
				// gets here.
				r.invalid(message.DisallowedURI, atom.Pos, atom.StringValue())
				uri, kind = "about:blank", KindSafeURILiteral
			}
			n.ReplaceChild(MustBuild(kind, uri, atom.Pos), atom)
			return false
		}
		return true
	})
}
