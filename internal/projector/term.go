package projector

import (
	"context"

	"github.com/headwaycms/headway/internal/content"
)

// maxTermDepth bounds the parent walk in case of corrupted term data.
const maxTermDepth = 16

// projectTerm builds a term descriptor with its recursive parent chain.
func (p *Projector) projectTerm(ctx context.Context, t *content.Term, depth int) map[string]any {
	if t == nil {
		return nil
	}
	data := map[string]any{
		"id":   t.ID,
		"name": t.Name,
		"slug": t.Slug,
		"uri":  "/" + trimSlashes(t.Path),
	}
	var parent any
	if t.ParentID != 0 && depth > 0 {
		if pt, err := p.store.TermByID(ctx, t.ParentID); err == nil {
			parent = p.projectTerm(ctx, pt, depth-1)
		}
	}
	data["parent"] = parent
	return data
}

// resolveTermRef accepts either an already-resolved term or a numeric lookup
// key and returns its descriptor, nil when unresolvable.
func (p *Projector) resolveTermRef(ctx context.Context, ref any) map[string]any {
	switch v := ref.(type) {
	case *content.Term:
		return p.projectTerm(ctx, v, maxTermDepth)
	case content.Term:
		return p.projectTerm(ctx, &v, maxTermDepth)
	default:
		id, ok := toInt(ref)
		if !ok || id == 0 {
			return nil
		}
		t, err := p.store.TermByID(ctx, id)
		if err != nil {
			return nil
		}
		return p.projectTerm(ctx, t, maxTermDepth)
	}
}
