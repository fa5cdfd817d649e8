package projector

import (
	"context"
	"strconv"

	"github.com/headwaycms/headway/internal/content"
	"github.com/headwaycms/headway/pkg/metrics"
)

// FlattenFields walks a custom-field schema and flattens it into plain JSON.
// depth is the remaining node-relation budget: every hop through a
// post_object/relationship/page_link field decrements it, and at zero the
// referenced nodes keep their base JSON but stop expanding their own fields.
// That bounds cycles in self-referential relation schemas.
//
// A field whose raw value is absent projects as null without kind-specific
// resolution.
func (p *Projector) FlattenFields(ctx context.Context, fields map[string]content.FieldSchema, depth int) map[string]any {
	data := make(map[string]any, len(fields))
	for name, field := range fields {
		if field.Value == nil {
			data[name] = nil
			continue
		}
		data[name] = p.flattenField(ctx, field, depth)
	}
	return data
}

func (p *Projector) flattenField(ctx context.Context, field content.FieldSchema, depth int) any {
	switch field.Kind {
	case content.FieldImage:
		id := p.resolveMediaID(ctx, field)
		if id == 0 {
			return nil
		}
		return p.projectMedia(ctx, id, depth)

	case content.FieldPostObject, content.FieldRelationship:
		if field.Multiple || field.Kind == content.FieldRelationship {
			return p.relatedNodes(ctx, asList(field.Value), depth)
		}
		return p.relatedNode(ctx, field.Value, depth)

	case content.FieldTaxonomy:
		refs := asList(field.Value)
		out := make([]map[string]any, 0, len(refs))
		for _, ref := range refs {
			if d := p.resolveTermRef(ctx, ref); d != nil {
				out = append(out, d)
			}
		}
		return out

	case content.FieldPageLink:
		if field.Multiple {
			paths := asList(field.Value)
			out := make([]map[string]any, 0, len(paths))
			for _, raw := range paths {
				if s, ok := raw.(string); ok {
					out = append(out, p.nodeByLink(ctx, s, depth))
				}
			}
			return out
		}
		if s, ok := field.Value.(string); ok {
			return p.nodeByLink(ctx, s, depth)
		}
		return nil

	case content.FieldGroup:
		values, _ := field.Value.(map[string]any)
		return p.flattenGroup(ctx, field.SubFields, values, depth)

	case content.FieldRepeater:
		rows := asList(field.Value)
		out := make([]map[string]any, 0, len(rows))
		for _, raw := range rows {
			values, _ := raw.(map[string]any)
			out = append(out, p.flattenGroup(ctx, field.SubFields, values, depth))
		}
		return out

	case content.FieldGallery:
		refs := asList(field.Value)
		out := make([]map[string]any, 0, len(refs))
		for _, ref := range refs {
			id := p.resolveMediaRef(ctx, field.ReturnFormat, ref)
			if id == 0 {
				continue
			}
			if item := p.projectGalleryItem(ctx, id, depth); item != nil {
				out = append(out, item)
			}
		}
		return out

	default:
		// unknown kinds are scalars; the raw value passes through unchanged
		return field.Value
	}
}

// flattenGroup recursively flattens a nested sub-schema against one object of
// sub-values; missing sub-values project as null.
func (p *Projector) flattenGroup(ctx context.Context, subFields map[string]content.FieldSchema, values map[string]any, depth int) map[string]any {
	bound := make(map[string]content.FieldSchema, len(subFields))
	for name, sub := range subFields {
		sub.Value = values[name]
		bound[name] = sub
	}
	return p.FlattenFields(ctx, bound, depth)
}

// relatedNode projects a node referenced from a custom field: base JSON with
// an empty relation field set, plus its own flattened fields while the depth
// budget lasts.
func (p *Projector) relatedNode(ctx context.Context, ref any, depth int) map[string]any {
	id, ok := toInt(ref)
	if !ok || id == 0 {
		return nil
	}
	n, err := p.store.NodeByID(ctx, id)
	if err != nil || !p.readable(ctx, n) {
		return nil
	}
	return p.projectRelated(ctx, n, depth)
}

func (p *Projector) relatedNodes(ctx context.Context, refs []any, depth int) []map[string]any {
	out := make([]map[string]any, 0, len(refs))
	for _, ref := range refs {
		if d := p.relatedNode(ctx, ref, depth); d != nil {
			out = append(out, d)
		}
	}
	return out
}

func (p *Projector) projectRelated(ctx context.Context, n *content.Node, depth int) map[string]any {
	data := p.projectBase(ctx, n, 0)
	if depth > 0 {
		if acf := p.flattenObjectFields(ctx, n.ID, depth-1); acf != nil {
			data["acf"] = acf
		}
	} else {
		metrics.DepthTruncationsTotal.WithLabelValues("acf").Inc()
	}
	return data
}

func (p *Projector) nodeByLink(ctx context.Context, path string, depth int) map[string]any {
	n, err := p.store.NodeByPath(ctx, path, p.cfg.ExposedTypes)
	if err != nil || !p.readable(ctx, n) {
		return nil
	}
	return p.projectRelated(ctx, n, depth)
}

// resolveMediaID resolves an image field's raw value to an attachment id per
// its return format: a direct id, an embedded id property, or a reverse
// URL-to-id lookup.
func (p *Projector) resolveMediaID(ctx context.Context, field content.FieldSchema) int {
	return p.resolveMediaRef(ctx, field.ReturnFormat, field.Value)
}

func (p *Projector) resolveMediaRef(ctx context.Context, returnFormat string, ref any) int {
	switch returnFormat {
	case "array":
		if m, ok := ref.(map[string]any); ok {
			if id, ok := toInt(m["id"]); ok {
				return id
			}
		}
		return 0
	case "url":
		if s, ok := ref.(string); ok {
			id, err := p.store.MediaIDByURL(ctx, s)
			if err != nil {
				return 0
			}
			return id
		}
		return 0
	default: // "id" and unhinted numeric values
		if id, ok := toInt(ref); ok {
			return id
		}
		return 0
	}
}

func toInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int32:
		return int(n), true
	case int64:
		return int(n), true
	case float64:
		return int(n), true
	case string:
		i, err := strconv.Atoi(n)
		if err != nil {
			return 0, false
		}
		return i, true
	}
	return 0, false
}

func asList(v any) []any {
	switch l := v.(type) {
	case []any:
		return l
	case nil:
		return nil
	default:
		return []any{v}
	}
}
