// Package menu turns flat navigation records into a nested forest the way
// front-end menus consume them.
package menu

import (
	"github.com/headwaycms/headway/internal/content"
)

// Item is one projected menu entry. Children are nested rather than linked
// by id, so the JSON is ready to render directly.
type Item struct {
	ID        int     `json:"id"`
	Title     string  `json:"title"`
	Slug      string  `json:"slug"`
	MenuOrder int     `json:"menu_order"`
	URL       string  `json:"url"`
	URI       string  `json:"uri,omitempty"`
	Target    string  `json:"target"`
	ParentID  int     `json:"parent_id"`
	Type      string  `json:"type"`
	Children  []*Item `json:"children"`
}

// BuildForest nests flat menu records under their parents, preserving the
// input order at every level. relativeURL maps an absolute URL onto a
// site-relative URI; it may be nil. Links it leaves unchanged, such as
// off-site custom links, carry no URI at all.
//
// Records pointing at a missing parent, or at themselves, become roots.
func BuildForest(records []*content.MenuItem, relativeURL func(string) string) []*Item {
	items := make([]*Item, 0, len(records))
	byID := make(map[int]*Item, len(records))
	for _, r := range records {
		it := &Item{
			ID:        r.ID,
			Title:     r.Title,
			Slug:      r.Slug,
			MenuOrder: r.Order,
			URL:       r.URL,
			Target:    r.Target,
			ParentID:  r.ParentID,
			Type:      r.Type,
			Children:  []*Item{},
		}
		if relativeURL != nil {
			if rel := relativeURL(r.URL); rel != r.URL {
				it.URI = rel
			}
		}
		items = append(items, it)
		byID[it.ID] = it
	}

	roots := make([]*Item, 0, len(items))
	for _, it := range items {
		parent := byID[it.ParentID]
		if parent == nil || parent == it {
			roots = append(roots, it)
			continue
		}
		parent.Children = append(parent.Children, it)
	}
	return roots
}
