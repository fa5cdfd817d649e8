package projector

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/headwaycms/headway/internal/content"
)

// CollectionRequest describes a filtered, ordered, paginated query over one
// content type.
type CollectionRequest struct {
	Type       string
	Fields     FieldSet
	ParentPath string
	TermSlug   string
	Search     string
	Slugs      []string
	OrderBy    string
	Order      string
	PerPage    int
	Page       int
	Params     Params
}

// CollectionResult carries the projected page plus the totals computed
// before unreadable items were dropped.
type CollectionResult struct {
	Items      []map[string]any
	Total      int
	TotalPages int
}

var collectionOrderings = map[string]string{
	"date":       content.OrderByDate,
	"modified":   content.OrderByModified,
	"title":      content.OrderByTitle,
	"slug":       content.OrderBySlug,
	"id":         content.OrderByID,
	"menu_order": content.OrderByMenuOrder,
}

// Collection runs a typed query and projects every readable hit. The type
// must be one of the exposed types; unknown types and unknown orderings are
// query errors rather than empty results.
func (p *Projector) Collection(ctx context.Context, req CollectionRequest) (*CollectionResult, error) {
	if !p.typeExposed(req.Type) {
		return nil, fmt.Errorf("%w: type %q is not served", content.ErrInvalidQuery, req.Type)
	}

	filter := content.Filter{
		Type:     req.Type,
		Search:   req.Search,
		Slugs:    req.Slugs,
		Statuses: p.visibleStatuses(ctx, req.Type, false),
		PerPage:  req.PerPage,
		Page:     req.Page,
	}

	if req.TermSlug != "" {
		term, err := p.store.TermBySlug(ctx, req.TermSlug)
		if err != nil {
			if errors.Is(err, content.ErrNotFound) {
				return nil, fmt.Errorf("%w: unknown term %q", content.ErrInvalidQuery, req.TermSlug)
			}
			return nil, err
		}
		taxos, err := p.store.Taxonomies(ctx, req.Type)
		if err != nil {
			return nil, err
		}
		applies := false
		for _, name := range taxos {
			if name == term.Taxonomy {
				applies = true
				break
			}
		}
		if !applies {
			return nil, fmt.Errorf("%w: taxonomy %q does not apply to %q", content.ErrInvalidQuery, term.Taxonomy, req.Type)
		}
		filter.TermSlug = req.TermSlug
	}

	orderBy, order, err := p.ordering(req)
	if err != nil {
		return nil, err
	}
	filter.OrderBy = orderBy
	filter.OrderDir = order

	if req.ParentPath != "" {
		parent, err := p.store.NodeByPath(ctx, trimSlashes(req.ParentPath), p.cfg.ExposedTypes)
		if err != nil {
			if errors.Is(err, content.ErrNotFound) {
				return nil, fmt.Errorf("%w: parent %q not found", content.ErrInvalidQuery, req.ParentPath)
			}
			return nil, err
		}
		filter.ParentID = &parent.ID
	}

	list, err := p.store.QueryNodes(ctx, filter)
	if err != nil {
		return nil, err
	}

	items := make([]map[string]any, 0, len(list.Items))
	for _, n := range list.Items {
		if !p.readable(ctx, n) {
			continue
		}
		items = append(items, p.project(ctx, n, req.Fields, req.Params))
	}
	return &CollectionResult{Items: items, Total: list.Total, TotalPages: list.TotalPages}, nil
}

func (p *Projector) ordering(req CollectionRequest) (string, string, error) {
	orderBy := content.OrderByDate
	if req.OrderBy != "" {
		mapped, ok := collectionOrderings[strings.ToLower(req.OrderBy)]
		if !ok {
			return "", "", fmt.Errorf("%w: cannot order by %q", content.ErrInvalidQuery, req.OrderBy)
		}
		orderBy = mapped
	}

	order := content.OrderDesc
	switch strings.ToLower(req.Order) {
	case "":
	case content.OrderAsc, content.OrderDesc:
		order = strings.ToLower(req.Order)
	default:
		return "", "", fmt.Errorf("%w: order must be asc or desc", content.ErrInvalidQuery)
	}
	return orderBy, order, nil
}
