package projector

import (
	"context"
	"errors"
	"strings"

	"github.com/headwaycms/headway/internal/content"
	"github.com/headwaycms/headway/pkg/metrics"
)

// Project produces the canonical JSON shape of a node. Requested relation
// fields expand with the inherited subset {acf, terms} forwarded into related
// nodes; the children relation additionally honors the depth and pagination
// parameters. Returns content.ErrForbidden when the node is not readable.
func (p *Projector) Project(ctx context.Context, n *content.Node, fields FieldSet, params Params) (map[string]any, error) {
	if !p.readable(ctx, n) {
		return nil, content.ErrForbidden
	}
	metrics.ProjectionsTotal.WithLabelValues(n.Type).Inc()
	return p.project(ctx, n, fields, params), nil
}

// ProjectByID is Project after a store lookup.
func (p *Projector) ProjectByID(ctx context.Context, id int, fields FieldSet, params Params) (map[string]any, error) {
	n, err := p.store.NodeByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return p.Project(ctx, n, fields, params)
}

func (p *Projector) project(ctx context.Context, n *content.Node, fields FieldSet, params Params) map[string]any {
	data := p.projectBase(ctx, n, p.acfDepth(params))

	if fields.Has("acf") {
		data["acf"] = p.flattenObjectFields(ctx, n.ID, p.acfDepth(params))
	}
	if fields.Has("terms") {
		data["terms"] = p.projectNodeTerms(ctx, n)
	}
	if fields.Has("blocks") {
		data["blocks"] = p.projectBlocks(ctx, n)
	}

	inherited := fields.Inherit()

	if fields.Has("siblings") {
		data["siblings"] = p.projectSiblings(ctx, n, inherited, params)
	}
	if fields.Has("children") {
		data["children"] = p.projectChildren(ctx, n, inherited, params)
	}
	if fields.Has("parent") {
		data["parent"] = p.projectParent(ctx, n, inherited, params)
	}
	if fields.Has("ancestors") {
		data["ancestors"] = p.projectAncestors(ctx, n, inherited, params)
	}
	if fields.Has("next") {
		data["next"] = p.projectNeighbor(ctx, n, true, inherited, params)
	}
	if fields.Has("prev") {
		data["prev"] = p.projectNeighbor(ctx, n, false, inherited, params)
	}

	return data
}

// projectBase builds the always-present keys. acfDepth only affects the
// featured-media descriptor's own custom-field payload.
func (p *Projector) projectBase(ctx context.Context, n *content.Node, acfDepth int) map[string]any {
	var media any
	if n.FeaturedMediaID != 0 {
		if m := p.projectMedia(ctx, n.FeaturedMediaID, acfDepth); m != nil {
			media = m
		}
	}
	return map[string]any{
		"id":             n.ID,
		"guid":           n.GUID,
		"title":          n.Title,
		"content":        n.Content,
		"excerpt":        n.Excerpt,
		"slug":           n.Slug,
		"url":            p.absoluteURL(n.Path),
		"uri":            "/" + trimSlashes(n.Path),
		"status":         n.Status,
		"date":           timestamp(n.Date),
		"modified":       timestamp(n.Modified),
		"type":           n.Type,
		"author_id":      n.AuthorID,
		"featured_media": media,
	}
}

// projectChildren expands direct same-type children with pagination and a
// depth budget. Above depth 1 the children tag is re-added to the inherited
// set for the next level with the budget decremented; at or below 1 children
// are leaf-projected.
func (p *Projector) projectChildren(ctx context.Context, n *content.Node, inherited FieldSet, params Params) map[string]any {
	orderBy, dir := p.childOrder(n.Type)
	list, err := p.store.Children(ctx, content.ChildrenQuery{
		ParentID: n.ID,
		Type:     n.Type,
		Statuses: p.visibleStatuses(ctx, n.Type, true),
		OrderBy:  orderBy,
		OrderDir: dir,
		Page:     params.Page,
		PerPage:  params.PerPage,
	})
	if err != nil {
		p.log.Warn("children lookup failed", "node", n.ID, "error", err)
		return nil
	}

	childFields := inherited
	childParams := params
	if params.Depth > 1 {
		childFields = inherited.With("children")
		childParams.Depth = params.Depth - 1
		childParams.Page = 0
	} else {
		childParams.Depth = 0
		if params.Depth == 1 {
			metrics.DepthTruncationsTotal.WithLabelValues("children").Inc()
		}
	}

	items := make([]map[string]any, 0, len(list.Items))
	for _, c := range list.Items {
		if !p.readable(ctx, c) {
			continue
		}
		items = append(items, p.project(ctx, c, childFields, childParams))
	}
	return map[string]any{
		"list":        items,
		"total":       list.Total,
		"total_pages": list.TotalPages,
	}
}

// siblings share parent and type and use the child ordering, excluding the
// node itself.
func (p *Projector) projectSiblings(ctx context.Context, n *content.Node, inherited FieldSet, params Params) []map[string]any {
	sibs := p.siblingList(ctx, n)
	out := make([]map[string]any, 0, len(sibs))
	for _, s := range sibs {
		if s.ID == n.ID || !p.readable(ctx, s) {
			continue
		}
		out = append(out, p.project(ctx, s, inherited, leafParams(params)))
	}
	return out
}

// projectNeighbor finds the positional neighbor within the sibling ordering.
// The ordering wraps around: next of the last sibling is the first, prev of
// the first is the last. A node without siblings has null neighbors.
func (p *Projector) projectNeighbor(ctx context.Context, n *content.Node, next bool, inherited FieldSet, params Params) map[string]any {
	sibs := p.siblingList(ctx, n)
	idx := -1
	for i, s := range sibs {
		if s.ID == n.ID {
			idx = i
			break
		}
	}
	if idx < 0 || len(sibs) < 2 {
		return nil
	}
	var target *content.Node
	if next {
		target = sibs[(idx+1)%len(sibs)]
	} else {
		target = sibs[(idx-1+len(sibs))%len(sibs)]
	}
	if !p.readable(ctx, target) {
		return nil
	}
	return p.project(ctx, target, inherited, leafParams(params))
}

// siblingList returns the full ordered sibling list including the node.
func (p *Projector) siblingList(ctx context.Context, n *content.Node) []*content.Node {
	orderBy, dir := p.childOrder(n.Type)
	list, err := p.store.Children(ctx, content.ChildrenQuery{
		ParentID: n.ParentID,
		Type:     n.Type,
		Statuses: p.visibleStatuses(ctx, n.Type, true),
		OrderBy:  orderBy,
		OrderDir: dir,
	})
	if err != nil {
		p.log.Warn("sibling lookup failed", "node", n.ID, "error", err)
		return nil
	}
	return list.Items
}

func (p *Projector) projectParent(ctx context.Context, n *content.Node, inherited FieldSet, params Params) map[string]any {
	if n.ParentID == 0 {
		return nil
	}
	parent, err := p.store.NodeByID(ctx, n.ParentID)
	if err != nil || !p.readable(ctx, parent) {
		return nil
	}
	return p.project(ctx, parent, inherited, leafParams(params))
}

// projectAncestors walks the store's parent chain; the store's documented
// order is authoritative.
func (p *Projector) projectAncestors(ctx context.Context, n *content.Node, inherited FieldSet, params Params) []map[string]any {
	chain, err := p.store.Ancestors(ctx, n.ID)
	if err != nil {
		p.log.Warn("ancestor lookup failed", "node", n.ID, "error", err)
		return nil
	}
	out := make([]map[string]any, 0, len(chain))
	for _, a := range chain {
		if !p.readable(ctx, a) {
			continue
		}
		out = append(out, p.project(ctx, a, inherited, leafParams(params)))
	}
	return out
}

// projectNodeTerms maps every taxonomy applicable to the node's type to its
// term descriptors, null when a taxonomy has no assignment, and null overall
// when no taxonomy applies.
func (p *Projector) projectNodeTerms(ctx context.Context, n *content.Node) map[string]any {
	taxos, err := p.store.Taxonomies(ctx, n.Type)
	if err != nil || len(taxos) == 0 {
		return nil
	}
	out := make(map[string]any, len(taxos))
	for _, taxonomy := range taxos {
		terms, err := p.store.Terms(ctx, n.ID, taxonomy)
		if err != nil || len(terms) == 0 {
			out[taxonomy] = nil
			continue
		}
		descs := make([]map[string]any, 0, len(terms))
		for _, t := range terms {
			if d := p.projectTerm(ctx, t, maxTermDepth); d != nil {
				descs = append(descs, d)
			}
		}
		out[taxonomy] = descs
	}
	return out
}

func (p *Projector) projectBlocks(ctx context.Context, n *content.Node) []map[string]any {
	if p.blocks == nil {
		return []map[string]any{}
	}
	return p.blocks.Project(ctx, n.Content, n.ID)
}

// ObjectFields projects an object's custom fields as a plain map, nil when
// it has none. Block projection uses it for blocks that carry field groups.
func (p *Projector) ObjectFields(ctx context.Context, objectID, depth int) map[string]any {
	fields, _ := p.flattenObjectFields(ctx, objectID, depth).(map[string]any)
	return fields
}

// flattenObjectFields projects an object's custom fields, null when no
// custom-field system is configured for it.
func (p *Projector) flattenObjectFields(ctx context.Context, objectID, depth int) any {
	fs, err := p.store.FieldSchemas(ctx, objectID)
	if err != nil {
		if !errors.Is(err, content.ErrNotFound) {
			p.log.Warn("field schema lookup failed", "object", objectID, "error", err)
		}
		return nil
	}
	if fs == nil {
		return nil
	}
	return p.FlattenFields(ctx, fs, depth)
}

// leafParams strips expansion budgets for relation projections that must not
// recurse further on their own.
func leafParams(params Params) Params {
	return Params{ACFDepth: params.ACFDepth}
}

func trimSlashes(s string) string {
	return strings.Trim(s, "/")
}
