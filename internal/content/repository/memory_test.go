package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/headwaycms/headway/internal/content"
)

func day(n int) time.Time {
	return time.Date(2024, 3, n, 0, 0, 0, 0, time.UTC)
}

func TestNodeLookups(t *testing.T) {
	m := NewMemory()
	m.AddNode(&content.Node{ID: 1, Type: "page", Status: content.StatusPublished, Path: "/about/"})
	ctx := context.Background()

	n, err := m.NodeByID(ctx, 1)
	require.NoError(t, err)
	require.Equal(t, 1, n.ID)

	_, err = m.NodeByID(ctx, 2)
	require.ErrorIs(t, err, content.ErrNotFound)

	for _, path := range []string{"/about/", "about", "about/"} {
		n, err = m.NodeByPath(ctx, path, nil)
		require.NoError(t, err, path)
		require.Equal(t, 1, n.ID)
	}

	_, err = m.NodeByPath(ctx, "/about/", []string{"post"})
	require.ErrorIs(t, err, content.ErrNotFound, "type filter applies to path lookups")
}

func TestQueryNodesOrderingAndPaging(t *testing.T) {
	m := NewMemory()
	m.AddNode(&content.Node{ID: 1, Type: "post", Slug: "c", Title: "C", Date: day(1)})
	m.AddNode(&content.Node{ID: 2, Type: "post", Slug: "a", Title: "A", Date: day(3)})
	m.AddNode(&content.Node{ID: 3, Type: "post", Slug: "b", Title: "B", Date: day(2)})
	m.AddNode(&content.Node{ID: 4, Type: "page", Slug: "z", Date: day(4)})
	ctx := context.Background()

	list, err := m.QueryNodes(ctx, content.Filter{Type: "post", OrderBy: content.OrderByDate, OrderDir: content.OrderDesc})
	require.NoError(t, err)
	require.Equal(t, 3, list.Total)
	require.Equal(t, []int{2, 3, 1}, ids(list))

	list, err = m.QueryNodes(ctx, content.Filter{Type: "post", OrderBy: content.OrderByTitle, OrderDir: content.OrderAsc})
	require.NoError(t, err)
	require.Equal(t, []int{2, 3, 1}, ids(list))

	list, err = m.QueryNodes(ctx, content.Filter{Type: "post", OrderBy: content.OrderByDate, OrderDir: content.OrderDesc, PerPage: 2, Page: 2})
	require.NoError(t, err)
	require.Equal(t, 3, list.Total)
	require.Equal(t, 2, list.TotalPages)
	require.Equal(t, []int{1}, ids(list))
}

func TestQueryNodesStableTieBreak(t *testing.T) {
	m := NewMemory()
	same := day(1)
	m.AddNode(&content.Node{ID: 3, Type: "post", Date: same})
	m.AddNode(&content.Node{ID: 1, Type: "post", Date: same})
	m.AddNode(&content.Node{ID: 2, Type: "post", Date: same})

	list, err := m.QueryNodes(context.Background(), content.Filter{Type: "post", OrderBy: content.OrderByDate, OrderDir: content.OrderAsc})
	require.NoError(t, err)
	require.Equal(t, []int{1, 2, 3}, ids(list), "equal keys fall back to id order")
}

func TestQueryNodesSlugAndSearchFilters(t *testing.T) {
	m := NewMemory()
	m.AddNode(&content.Node{ID: 1, Type: "post", Slug: "alpha", Title: "Release notes", Date: day(1)})
	m.AddNode(&content.Node{ID: 2, Type: "post", Slug: "beta", Content: "deep dive into releases", Date: day(2)})
	m.AddNode(&content.Node{ID: 3, Type: "post", Slug: "gamma", Excerpt: "unrelated", Date: day(3)})
	ctx := context.Background()

	list, err := m.QueryNodes(ctx, content.Filter{Type: "post", Slugs: []string{"alpha", "gamma"}})
	require.NoError(t, err)
	require.ElementsMatch(t, []int{1, 3}, ids(list))

	list, err = m.QueryNodes(ctx, content.Filter{Type: "post", Search: "release"})
	require.NoError(t, err)
	require.ElementsMatch(t, []int{1, 2}, ids(list))
}

func TestQueryNodesByTermSlug(t *testing.T) {
	m := NewMemory()
	m.AddNode(&content.Node{ID: 1, Type: "post"})
	m.AddNode(&content.Node{ID: 2, Type: "post"})
	m.AddTerm(&content.Term{ID: 10, Taxonomy: "category", Slug: "news"})
	m.AssignTerms(1, "category", 10)

	list, err := m.QueryNodes(context.Background(), content.Filter{Type: "post", TermSlug: "news"})
	require.NoError(t, err)
	require.Equal(t, []int{1}, ids(list))
}

func TestQueryNodesByStatus(t *testing.T) {
	m := NewMemory()
	m.AddNode(&content.Node{ID: 1, Type: "post", Status: content.StatusPublished, Date: day(1)})
	m.AddNode(&content.Node{ID: 2, Type: "post", Status: content.StatusDraft, Date: day(2)})
	m.AddNode(&content.Node{ID: 3, ParentID: 1, Type: "post", Status: content.StatusPrivate, Date: day(3)})
	ctx := context.Background()

	list, err := m.QueryNodes(ctx, content.Filter{Type: "post", Statuses: []string{content.StatusPublished}})
	require.NoError(t, err)
	require.Equal(t, []int{1}, ids(list))
	require.Equal(t, 1, list.Total)

	children, err := m.Children(ctx, content.ChildrenQuery{ParentID: 1, Statuses: []string{content.StatusPublished, content.StatusInherit}})
	require.NoError(t, err)
	require.Empty(t, children.Items)
	require.Zero(t, children.Total)
}

func TestTermBySlug(t *testing.T) {
	m := NewMemory()
	m.AddTerm(&content.Term{ID: 10, Taxonomy: "category", Slug: "news"})

	term, err := m.TermBySlug(context.Background(), "news")
	require.NoError(t, err)
	require.Equal(t, 10, term.ID)

	_, err = m.TermBySlug(context.Background(), "missing")
	require.ErrorIs(t, err, content.ErrNotFound)
}

func TestChildrenAndAncestors(t *testing.T) {
	m := NewMemory()
	m.AddNode(&content.Node{ID: 1, Type: "page"})
	m.AddNode(&content.Node{ID: 2, ParentID: 1, Type: "page", MenuOrder: 2})
	m.AddNode(&content.Node{ID: 3, ParentID: 1, Type: "page", MenuOrder: 1})
	m.AddNode(&content.Node{ID: 4, ParentID: 2, Type: "page"})
	ctx := context.Background()

	list, err := m.Children(ctx, content.ChildrenQuery{ParentID: 1, Type: "page", OrderBy: content.OrderByMenuOrder, OrderDir: content.OrderAsc})
	require.NoError(t, err)
	require.Equal(t, []int{3, 2}, ids(list))

	chain, err := m.Ancestors(ctx, 4)
	require.NoError(t, err)
	require.Len(t, chain, 2)
	require.Equal(t, 2, chain[0].ID)
	require.Equal(t, 1, chain[1].ID)
}

func TestPaginateAllWhenPerPageZero(t *testing.T) {
	m := NewMemory()
	for i := 1; i <= 4; i++ {
		m.AddNode(&content.Node{ID: i, Type: "post", Date: day(i)})
	}

	list, err := m.QueryNodes(context.Background(), content.Filter{Type: "post"})
	require.NoError(t, err)
	require.Len(t, list.Items, 4)
	require.Equal(t, 1, list.TotalPages)
}

func TestOptionsMenusAndMeta(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	m.SetOption("blogname", "Acme")
	v, err := m.Option(ctx, "blogname")
	require.NoError(t, err)
	require.Equal(t, "Acme", v)

	m.SetMenu("main", []*content.MenuItem{{ID: 1, Title: "Home"}})
	items, err := m.Menu(ctx, "main")
	require.NoError(t, err)
	require.Len(t, items, 1)

	_, err = m.Menu(ctx, "missing")
	require.ErrorIs(t, err, content.ErrNotFound)

	m.SetNodeMeta(1, "subtitle", "hi")
	mv, ok, err := m.NodeMeta(ctx, 1, "subtitle")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "hi", mv)

	_, ok, err = m.NodeMeta(ctx, 1, "other")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestMediaIDByURL(t *testing.T) {
	m := NewMemory()
	m.AddMedia(&content.MediaRecord{ID: 5, URL: "https://example.com/x.png"})
	ctx := context.Background()

	id, err := m.MediaIDByURL(ctx, "https://example.com/x.png")
	require.NoError(t, err)
	require.Equal(t, 5, id)

	id, err = m.MediaIDByURL(ctx, "https://example.com/none.png")
	require.NoError(t, err)
	require.Zero(t, id, "unknown URLs resolve to zero, not an error")
}

func ids(list *content.NodeList) []int {
	out := make([]int, 0, len(list.Items))
	for _, n := range list.Items {
		out = append(out, n.ID)
	}
	return out
}
