package blocks

import (
	"context"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/headwaycms/headway/internal/content"
)

// MediaFunc resolves an attachment id to its projected descriptor.
type MediaFunc func(ctx context.Context, mediaID int) map[string]any

// FieldsFunc resolves the owning node's flattened custom-field payload, for
// field-group-bearing blocks.
type FieldsFunc func(ctx context.Context, nodeID int) map[string]any

// Projector turns serialized block markup into structured block JSON.
type Projector struct {
	store    content.Store
	reg      *Registry
	media    MediaFunc
	fields   FieldsFunc
	maxDepth int
	log      *slog.Logger

	selectors sync.Map // selector string -> *Selector
}

type Option func(*Projector)

func WithMediaFunc(fn MediaFunc) Option   { return func(p *Projector) { p.media = fn } }
func WithFieldsFunc(fn FieldsFunc) Option { return func(p *Projector) { p.fields = fn } }
func WithLogger(log *slog.Logger) Option  { return func(p *Projector) { p.log = log } }
func WithMaxDepth(d int) Option           { return func(p *Projector) { p.maxDepth = d } }

func NewProjector(store content.Store, reg *Registry, opts ...Option) *Projector {
	p := &Projector{store: store, reg: reg, maxDepth: 8, log: slog.New(slog.DiscardHandler)}
	for _, o := range opts {
		o(p)
	}
	return p
}

// Project parses a node's raw content and projects every named block.
// Markup without block delimiters yields an empty list.
func (p *Projector) Project(ctx context.Context, src string, nodeID int) []map[string]any {
	out := []map[string]any{}
	for _, b := range Parse(src) {
		if b.Name == "" {
			continue
		}
		out = append(out, p.projectBlock(ctx, b, nodeID, p.maxDepth))
	}
	return out
}

func (p *Projector) projectBlock(ctx context.Context, b *Block, nodeID, depth int) map[string]any {
	rendered := p.render(ctx, b)
	container, root := parseFragment(rendered)

	attrs := p.resolveAttrs(ctx, b, container, root, nodeID)

	out := map[string]any{
		"blockName": b.Name,
		"attrs":     attrs,
		"innerHtml": innerHTMLOf(root, rendered),
	}

	if len(b.InnerBlocks) > 0 && depth > 0 {
		inner := make([]map[string]any, 0, len(b.InnerBlocks))
		for _, ib := range b.InnerBlocks {
			if ib.Name == "" {
				continue
			}
			inner = append(inner, p.projectBlock(ctx, ib, nodeID, depth-1))
		}
		out["innerBlocks"] = inner
	}

	// known embed-producing block types; the attachment id comes from the raw
	// delimiter attrs, since extraction may rebind "id" to the HTML attribute
	if b.Name == "core/image" && p.media != nil {
		if id, ok := asInt(b.Attrs["id"]); ok && id != 0 {
			out["embed"] = p.media(ctx, id)
		}
	}

	if t := p.reg.Get(b.Name); t != nil && t.UsesFields && p.fields != nil {
		out["acf"] = p.fields(ctx, nodeID)
	}

	return out
}

// resolveAttrs merges delimiter attributes with the declared attribute schema
// and extracts sourced values from the rendered fragment. Keys are normalized
// to camelCase; map marshaling keeps the serialized order sorted.
func (p *Projector) resolveAttrs(ctx context.Context, b *Block, container, root *html.Node, nodeID int) map[string]any {
	attrs := make(map[string]any, len(b.Attrs)+2)
	for k, v := range b.Attrs {
		attrs[camelKey(k)] = v
	}

	declared := map[string]AttributeSchema{}
	if t := p.reg.Get(b.Name); t != nil {
		for name, as := range t.Attributes {
			declared[name] = as
		}
	}
	// id and tagName are mandatory on every block
	declared["id"] = AttributeSchema{Type: "string", Source: SourceAttribute, Attribute: "id"}
	declared["tagName"] = AttributeSchema{Type: "string", Source: SourceTag}

	names := make([]string, 0, len(declared))
	for name := range declared {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		as := declared[name]
		key := camelKey(name)

		if as.Source == "" {
			if _, ok := attrs[key]; !ok && as.Default != nil {
				attrs[key] = as.Default
			}
			continue
		}

		selected := root
		if as.Selector != "" {
			selected = nil
			if sel := p.compiled(as.Selector); sel != nil {
				selected = sel.MatchFirst(container)
			}
		}

		value := p.extract(ctx, as, selected, nodeID)
		if value == nil {
			value = as.Default
		}
		if value == nil {
			// keep a delimiter-provided value over an empty extraction
			if _, ok := attrs[key]; ok {
				continue
			}
		}
		attrs[key] = value
	}
	return attrs
}

func (p *Projector) extract(ctx context.Context, as AttributeSchema, selected *html.Node, nodeID int) any {
	if as.Source == SourceMeta {
		if v, ok, err := p.store.NodeMeta(ctx, nodeID, as.Meta); err == nil && ok {
			return v
		}
		return nil
	}
	if selected == nil {
		return nil
	}
	switch as.Source {
	case SourceAttribute, SourceProperty:
		if as.Type == "boolean" {
			return hasAttr(selected, as.Attribute)
		}
		if !hasAttr(selected, as.Attribute) {
			return nil
		}
		return attrValue(selected, as.Attribute)
	case SourceText:
		return textOf(selected)
	case SourceHTML, SourceRichText:
		return innerHTMLOf(selected, "")
	case SourceTag:
		return strings.ToLower(selected.Data)
	}
	return nil
}

func (p *Projector) compiled(selector string) *Selector {
	if v, ok := p.selectors.Load(selector); ok {
		return v.(*Selector)
	}
	sel, err := CompileSelector(selector)
	if err != nil {
		p.log.Warn("bad block attribute selector", "selector", selector, "error", err)
		return nil
	}
	p.selectors.Store(selector, sel)
	return sel
}

func (p *Projector) render(ctx context.Context, b *Block) string {
	rendered, err := p.store.RenderBlock(ctx, b.Name, b.Attrs, b.InnerHTML)
	if err != nil || strings.TrimSpace(rendered) == "" {
		return b.InnerHTML
	}
	return rendered
}

// parseFragment parses markup in body context and returns the container plus
// the first element node, which stands in for the block's root element.
func parseFragment(markup string) (container, root *html.Node) {
	body := &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
	nodes, err := html.ParseFragment(strings.NewReader(strings.TrimSpace(markup)), body)
	if err != nil {
		return nil, nil
	}
	container = &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
	for _, n := range nodes {
		container.AppendChild(n)
	}
	for c := container.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode {
			return container, c
		}
	}
	return container, nil
}

func textOf(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return sb.String()
}

func innerHTMLOf(n *html.Node, fallback string) string {
	if n == nil {
		return fallback
	}
	var sb strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if err := html.Render(&sb, c); err != nil {
			return fallback
		}
	}
	return sb.String()
}

func camelKey(k string) string {
	if !strings.ContainsAny(k, "-_") {
		return k
	}
	parts := strings.FieldsFunc(k, func(r rune) bool { return r == '-' || r == '_' })
	if len(parts) == 0 {
		return k
	}
	var sb strings.Builder
	sb.WriteString(parts[0])
	for _, p := range parts[1:] {
		if p == "" {
			continue
		}
		sb.WriteString(strings.ToUpper(p[:1]))
		sb.WriteString(p[1:])
	}
	return sb.String()
}

func asInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		return int(n), true
	}
	return 0, false
}
