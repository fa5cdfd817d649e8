package repository

import (
	"context"
	"math"
	"sort"
	"strings"
	"sync"

	"github.com/headwaycms/headway/internal/content"
)

// Memory is an in-memory content store used for unit tests and local
// development. Seed it with the Add/Set methods before serving reads.
type Memory struct {
	mu         sync.RWMutex
	nodes      map[int]*content.Node
	media      map[int]*content.MediaRecord
	terms      map[int]*content.Term
	nodeTerms  map[int]map[string][]int // node id -> taxonomy -> term ids
	taxonomies map[string][]string      // node type -> taxonomy names
	fields     map[int]map[string]content.FieldSchema
	menus      map[string][]*content.MenuItem
	options    map[string]any
	optFields  map[string]map[string]content.FieldSchema
	meta       map[int]map[string]any
	render     func(name string, attrs map[string]any, inner string) string
}

func NewMemory() *Memory {
	return &Memory{
		nodes:      make(map[int]*content.Node),
		media:      make(map[int]*content.MediaRecord),
		terms:      make(map[int]*content.Term),
		nodeTerms:  make(map[int]map[string][]int),
		taxonomies: make(map[string][]string),
		fields:     make(map[int]map[string]content.FieldSchema),
		menus:      make(map[string][]*content.MenuItem),
		options:    make(map[string]any),
		optFields:  make(map[string]map[string]content.FieldSchema),
		meta:       make(map[int]map[string]any),
	}
}

func (m *Memory) AddNode(n *content.Node) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nodes[n.ID] = n
}

func (m *Memory) AddMedia(r *content.MediaRecord) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.media[r.ID] = r
}

func (m *Memory) AddTerm(t *content.Term) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.terms[t.ID] = t
}

// AssignTerms attaches terms of one taxonomy to a node, replacing any
// previous assignment for that taxonomy.
func (m *Memory) AssignTerms(nodeID int, taxonomy string, termIDs ...int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.nodeTerms[nodeID] == nil {
		m.nodeTerms[nodeID] = make(map[string][]int)
	}
	m.nodeTerms[nodeID][taxonomy] = termIDs
}

func (m *Memory) SetTaxonomies(nodeType string, names ...string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.taxonomies[nodeType] = names
}

func (m *Memory) SetFieldSchemas(objectID int, fs map[string]content.FieldSchema) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fields[objectID] = fs
}

func (m *Memory) SetMenu(name string, items []*content.MenuItem) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.menus[name] = items
}

func (m *Memory) SetOption(name string, v any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.options[name] = v
}

func (m *Memory) SetOptionFields(group string, fs map[string]content.FieldSchema) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.optFields[group] = fs
}

func (m *Memory) SetNodeMeta(nodeID int, key string, v any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.meta[nodeID] == nil {
		m.meta[nodeID] = make(map[string]any)
	}
	m.meta[nodeID][key] = v
}

// SetRenderFunc installs a block markup renderer. Without one, RenderBlock
// returns the inner markup unchanged.
func (m *Memory) SetRenderFunc(fn func(name string, attrs map[string]any, inner string) string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.render = fn
}

func (m *Memory) NodeByID(ctx context.Context, id int) (*content.Node, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if n, ok := m.nodes[id]; ok {
		return n, nil
	}
	return nil, content.ErrNotFound
}

func (m *Memory) NodeByPath(ctx context.Context, path string, types []string) (*content.Node, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	path = "/" + strings.Trim(path, "/")
	for _, n := range m.nodes {
		if "/"+strings.Trim(n.Path, "/") != path {
			continue
		}
		if len(types) == 0 || containsString(types, n.Type) {
			return n, nil
		}
	}
	return nil, content.ErrNotFound
}

func (m *Memory) QueryNodes(ctx context.Context, f content.Filter) (*content.NodeList, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var items []*content.Node
	for _, n := range m.nodes {
		if f.Type != "" && n.Type != f.Type {
			continue
		}
		if f.ParentID != nil && n.ParentID != *f.ParentID {
			continue
		}
		if f.TermSlug != "" && !m.hasTermSlug(n.ID, f.TermSlug) {
			continue
		}
		if len(f.Slugs) > 0 && !containsString(f.Slugs, n.Slug) {
			continue
		}
		if f.Search != "" && !matchesSearch(n, f.Search) {
			continue
		}
		if len(f.Statuses) > 0 && !containsString(f.Statuses, n.Status) {
			continue
		}
		items = append(items, n)
	}
	sortNodes(items, f.OrderBy, f.OrderDir)
	return paginate(items, f.Page, f.PerPage), nil
}

func (m *Memory) Children(ctx context.Context, q content.ChildrenQuery) (*content.NodeList, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var items []*content.Node
	for _, n := range m.nodes {
		if n.ParentID != q.ParentID || n.ID == q.ParentID {
			continue
		}
		if q.Type != "" && n.Type != q.Type {
			continue
		}
		if len(q.Statuses) > 0 && !containsString(q.Statuses, n.Status) {
			continue
		}
		items = append(items, n)
	}
	sortNodes(items, q.OrderBy, q.OrderDir)
	return paginate(items, q.Page, q.PerPage), nil
}

func (m *Memory) Ancestors(ctx context.Context, id int) ([]*content.Node, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var chain []*content.Node
	n, ok := m.nodes[id]
	if !ok {
		return nil, content.ErrNotFound
	}
	seen := map[int]bool{id: true}
	for n.ParentID != 0 && !seen[n.ParentID] {
		p, ok := m.nodes[n.ParentID]
		if !ok {
			break
		}
		seen[p.ID] = true
		chain = append(chain, p)
		n = p
	}
	return chain, nil
}

func (m *Memory) FieldSchemas(ctx context.Context, objectID int) (map[string]content.FieldSchema, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.fields[objectID], nil
}

func (m *Memory) Taxonomies(ctx context.Context, nodeType string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.taxonomies[nodeType], nil
}

func (m *Memory) Terms(ctx context.Context, nodeID int, taxonomy string) ([]*content.Term, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ids := m.nodeTerms[nodeID][taxonomy]
	if len(ids) == 0 {
		return nil, nil
	}
	out := make([]*content.Term, 0, len(ids))
	for _, id := range ids {
		if t, ok := m.terms[id]; ok {
			out = append(out, t)
		}
	}
	return out, nil
}

func (m *Memory) TermByID(ctx context.Context, id int) (*content.Term, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if t, ok := m.terms[id]; ok {
		return t, nil
	}
	return nil, content.ErrNotFound
}

func (m *Memory) TermBySlug(ctx context.Context, slug string) (*content.Term, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, t := range m.terms {
		if t.Slug == slug {
			return t, nil
		}
	}
	return nil, content.ErrNotFound
}

func (m *Memory) Media(ctx context.Context, id int) (*content.MediaRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if r, ok := m.media[id]; ok {
		return r, nil
	}
	return nil, content.ErrNotFound
}

func (m *Memory) MediaIDByURL(ctx context.Context, url string) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, r := range m.media {
		if r.URL == url {
			return r.ID, nil
		}
	}
	return 0, nil
}

func (m *Memory) Menu(ctx context.Context, name string) ([]*content.MenuItem, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	items, ok := m.menus[name]
	if !ok {
		return nil, content.ErrNotFound
	}
	return items, nil
}

func (m *Memory) Option(ctx context.Context, name string) (any, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.options[name], nil
}

func (m *Memory) OptionFields(ctx context.Context, group string) (map[string]content.FieldSchema, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.optFields[group], nil
}

func (m *Memory) NodeMeta(ctx context.Context, nodeID int, key string) (any, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.meta[nodeID][key]
	return v, ok, nil
}

func (m *Memory) RenderBlock(ctx context.Context, name string, attrs map[string]any, inner string) (string, error) {
	m.mu.RLock()
	render := m.render
	m.mu.RUnlock()
	if render == nil {
		return inner, nil
	}
	return render(name, attrs, inner), nil
}

func (m *Memory) hasTermSlug(nodeID int, slug string) bool {
	for _, ids := range m.nodeTerms[nodeID] {
		for _, id := range ids {
			if t, ok := m.terms[id]; ok && t.Slug == slug {
				return true
			}
		}
	}
	return false
}

func sortNodes(items []*content.Node, orderBy, dir string) {
	desc := strings.EqualFold(dir, content.OrderDesc)
	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i], items[j]
		if desc {
			a, b = b, a
		}
		switch orderBy {
		case content.OrderByMenuOrder:
			if a.MenuOrder != b.MenuOrder {
				return a.MenuOrder < b.MenuOrder
			}
		case content.OrderByTitle:
			if a.Title != b.Title {
				return a.Title < b.Title
			}
		case content.OrderBySlug:
			if a.Slug != b.Slug {
				return a.Slug < b.Slug
			}
		case content.OrderByModified:
			if !a.Modified.Equal(b.Modified) {
				return a.Modified.Before(b.Modified)
			}
		case content.OrderByID:
		default: // date
			if !a.Date.Equal(b.Date) {
				return a.Date.Before(b.Date)
			}
		}
		return a.ID < b.ID
	})
}

func paginate(items []*content.Node, page, perPage int) *content.NodeList {
	total := len(items)
	if perPage <= 0 {
		return &content.NodeList{Items: items, Total: total, TotalPages: 1}
	}
	totalPages := int(math.Ceil(float64(total) / float64(perPage)))
	if page < 1 {
		page = 1
	}
	start := (page - 1) * perPage
	if start > total {
		start = total
	}
	end := start + perPage
	if end > total {
		end = total
	}
	return &content.NodeList{Items: items[start:end], Total: total, TotalPages: totalPages}
}

func matchesSearch(n *content.Node, q string) bool {
	q = strings.ToLower(q)
	return strings.Contains(strings.ToLower(n.Title), q) ||
		strings.Contains(strings.ToLower(n.Content), q) ||
		strings.Contains(strings.ToLower(n.Excerpt), q)
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
