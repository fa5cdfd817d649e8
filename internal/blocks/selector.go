package blocks

import (
	"fmt"
	"strings"

	"golang.org/x/net/html"
)

// The selector grammar is deliberately small: tag names with optional .class
// and #id predicates, joined by descendant (space), child (>), adjacent
// sibling (+) and general sibling (~) combinators. It compiles to a direct
// walk over the parsed fragment, so the markup engine stays swappable.

type combinator byte

const (
	combDescendant combinator = ' '
	combChild      combinator = '>'
	combAdjacent   combinator = '+'
	combSibling    combinator = '~'
)

type simpleSelector struct {
	comb    combinator // relation to the previous step; descendant for the first
	tag     string     // empty or "*" matches any element
	id      string
	classes []string
}

// Selector is a compiled selector chain.
type Selector struct {
	steps []simpleSelector
}

// CompileSelector parses the restricted selector grammar.
func CompileSelector(src string) (*Selector, error) {
	fields := tokenizeSelector(src)
	if len(fields) == 0 {
		return nil, fmt.Errorf("empty selector %q", src)
	}
	sel := &Selector{}
	comb := combDescendant
	for _, f := range fields {
		switch f {
		case ">", "+", "~":
			if len(sel.steps) == 0 {
				return nil, fmt.Errorf("selector %q starts with combinator", src)
			}
			comb = combinator(f[0])
			continue
		}
		step, err := parseSimple(f)
		if err != nil {
			return nil, fmt.Errorf("selector %q: %w", src, err)
		}
		step.comb = comb
		sel.steps = append(sel.steps, step)
		comb = combDescendant
	}
	return sel, nil
}

func tokenizeSelector(src string) []string {
	src = strings.ReplaceAll(src, ">", " > ")
	src = strings.ReplaceAll(src, "+", " + ")
	src = strings.ReplaceAll(src, "~", " ~ ")
	return strings.Fields(src)
}

func parseSimple(tok string) (simpleSelector, error) {
	var s simpleSelector
	rest := tok
	for rest != "" {
		switch rest[0] {
		case '.':
			rest = rest[1:]
			name, tail := cutName(rest)
			if name == "" {
				return s, fmt.Errorf("bad class in %q", tok)
			}
			s.classes = append(s.classes, name)
			rest = tail
		case '#':
			rest = rest[1:]
			name, tail := cutName(rest)
			if name == "" {
				return s, fmt.Errorf("bad id in %q", tok)
			}
			s.id = name
			rest = tail
		default:
			name, tail := cutName(rest)
			if name == "" {
				return s, fmt.Errorf("bad tag in %q", tok)
			}
			s.tag = strings.ToLower(name)
			rest = tail
		}
	}
	return s, nil
}

func cutName(s string) (name, rest string) {
	for i := 0; i < len(s); i++ {
		if s[i] == '.' || s[i] == '#' {
			return s[:i], s[i:]
		}
	}
	return s, ""
}

// MatchFirst returns the first element in document order under container
// (inclusive of its children) matching the chain, or nil.
func (sel *Selector) MatchFirst(container *html.Node) *html.Node {
	if container == nil {
		return nil
	}
	var found *html.Node
	var walk func(n *html.Node) bool
	walk = func(n *html.Node) bool {
		if n.Type == html.ElementNode && sel.matches(n, container) {
			found = n
			return true
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if walk(c) {
				return true
			}
		}
		return false
	}
	for c := container.FirstChild; c != nil; c = c.NextSibling {
		if walk(c) {
			break
		}
	}
	return found
}

// matches evaluates the chain right to left from n, never escaping container.
func (sel *Selector) matches(n *html.Node, container *html.Node) bool {
	return sel.matchFrom(n, len(sel.steps)-1, container)
}

func (sel *Selector) matchFrom(n *html.Node, idx int, container *html.Node) bool {
	step := sel.steps[idx]
	if !matchSimple(n, step) {
		return false
	}
	if idx == 0 {
		// first step anchors anywhere inside the container
		return true
	}
	switch step.comb {
	case combChild:
		p := n.Parent
		if p == nil || p == container || p.Type != html.ElementNode {
			return false
		}
		return sel.matchFrom(p, idx-1, container)
	case combDescendant:
		for p := n.Parent; p != nil && p != container; p = p.Parent {
			if p.Type == html.ElementNode && sel.matchFrom(p, idx-1, container) {
				return true
			}
		}
		return false
	case combAdjacent:
		for s := n.PrevSibling; s != nil; s = s.PrevSibling {
			if s.Type == html.ElementNode {
				return sel.matchFrom(s, idx-1, container)
			}
		}
		return false
	case combSibling:
		for s := n.PrevSibling; s != nil; s = s.PrevSibling {
			if s.Type == html.ElementNode && sel.matchFrom(s, idx-1, container) {
				return true
			}
		}
		return false
	}
	return false
}

func matchSimple(n *html.Node, s simpleSelector) bool {
	if n.Type != html.ElementNode {
		return false
	}
	if s.tag != "" && s.tag != "*" && !strings.EqualFold(n.Data, s.tag) {
		return false
	}
	if s.id != "" && attrValue(n, "id") != s.id {
		return false
	}
	if len(s.classes) > 0 {
		have := strings.Fields(attrValue(n, "class"))
		for _, want := range s.classes {
			ok := false
			for _, c := range have {
				if c == want {
					ok = true
					break
				}
			}
			if !ok {
				return false
			}
		}
	}
	return true
}

func attrValue(n *html.Node, name string) string {
	for _, a := range n.Attr {
		if strings.EqualFold(a.Key, name) {
			return a.Val
		}
	}
	return ""
}

func hasAttr(n *html.Node, name string) bool {
	for _, a := range n.Attr {
		if strings.EqualFold(a.Key, name) {
			return true
		}
	}
	return false
}
