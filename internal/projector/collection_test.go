package projector

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/headwaycms/headway/internal/content"
	"github.com/headwaycms/headway/internal/content/repository"
)

func TestCollectionDefaultsToDateDesc(t *testing.T) {
	mem := repository.NewMemory()
	seedPosts(mem, 3)
	p := New(mem, testConfig())

	res, err := p.Collection(context.Background(), CollectionRequest{Type: "post", Params: Params{ACFDepth: -1}})
	require.NoError(t, err)
	require.Equal(t, 3, res.Total)
	require.Equal(t, 1, res.TotalPages)
	require.Equal(t, 3, res.Items[0]["id"])
	require.Equal(t, 1, res.Items[2]["id"])
}

func TestCollectionPagination(t *testing.T) {
	mem := repository.NewMemory()
	seedPosts(mem, 5)
	p := New(mem, testConfig())

	res, err := p.Collection(context.Background(), CollectionRequest{
		Type: "post", PerPage: 2, Page: 3, Params: Params{ACFDepth: -1},
	})
	require.NoError(t, err)
	require.Equal(t, 5, res.Total)
	require.Equal(t, 3, res.TotalPages)
	require.Len(t, res.Items, 1)
	require.Equal(t, 1, res.Items[0]["id"])
}

func TestCollectionRejectsUnknownType(t *testing.T) {
	mem := repository.NewMemory()
	p := New(mem, testConfig())

	_, err := p.Collection(context.Background(), CollectionRequest{Type: "revision"})
	require.ErrorIs(t, err, content.ErrInvalidQuery)
}

func TestCollectionRejectsUnknownOrdering(t *testing.T) {
	mem := repository.NewMemory()
	p := New(mem, testConfig())
	ctx := context.Background()

	_, err := p.Collection(ctx, CollectionRequest{Type: "post", OrderBy: "rand"})
	require.ErrorIs(t, err, content.ErrInvalidQuery)

	_, err = p.Collection(ctx, CollectionRequest{Type: "post", Order: "sideways"})
	require.ErrorIs(t, err, content.ErrInvalidQuery)
}

func TestCollectionOrderByTitleAsc(t *testing.T) {
	mem := repository.NewMemory()
	seedPosts(mem, 3)
	p := New(mem, testConfig())

	res, err := p.Collection(context.Background(), CollectionRequest{
		Type: "post", OrderBy: "title", Order: "asc", Params: Params{ACFDepth: -1},
	})
	require.NoError(t, err)
	require.Equal(t, "Post A", res.Items[0]["title"])
	require.Equal(t, "Post C", res.Items[2]["title"])
}

func TestCollectionParentPath(t *testing.T) {
	mem := repository.NewMemory()
	mem.AddNode(&content.Node{ID: 1, Type: "page", Status: content.StatusPublished, Path: "/docs/"})
	mem.AddNode(&content.Node{ID: 2, ParentID: 1, Type: "page", Status: content.StatusPublished, Path: "/docs/intro/", MenuOrder: 1})
	mem.AddNode(&content.Node{ID: 3, Type: "page", Status: content.StatusPublished, Path: "/other/"})
	p := New(mem, testConfig())
	ctx := context.Background()

	res, err := p.Collection(ctx, CollectionRequest{Type: "page", ParentPath: "/docs/", Params: Params{ACFDepth: -1}})
	require.NoError(t, err)
	require.Equal(t, 1, res.Total)
	require.Equal(t, 2, res.Items[0]["id"])

	_, err = p.Collection(ctx, CollectionRequest{Type: "page", ParentPath: "/missing/"})
	require.ErrorIs(t, err, content.ErrInvalidQuery)
}

func TestCollectionFiltersBySlugAndSearch(t *testing.T) {
	mem := repository.NewMemory()
	mem.AddNode(&content.Node{ID: 1, Type: "post", Status: content.StatusPublished, Slug: "alpha", Title: "Alpha launch", Path: "/alpha/", Date: day(1)})
	mem.AddNode(&content.Node{ID: 2, Type: "post", Status: content.StatusPublished, Slug: "beta", Title: "Beta news", Path: "/beta/", Date: day(2)})
	p := New(mem, testConfig())
	ctx := context.Background()

	res, err := p.Collection(ctx, CollectionRequest{Type: "post", Slugs: []string{"beta"}, Params: Params{ACFDepth: -1}})
	require.NoError(t, err)
	require.Equal(t, 1, res.Total)
	require.Equal(t, 2, res.Items[0]["id"])

	res, err = p.Collection(ctx, CollectionRequest{Type: "post", Search: "launch", Params: Params{ACFDepth: -1}})
	require.NoError(t, err)
	require.Equal(t, 1, res.Total)
	require.Equal(t, 1, res.Items[0]["id"])
}

func TestCollectionHidesUnreadable(t *testing.T) {
	mem := repository.NewMemory()
	seedPosts(mem, 2)
	mem.AddNode(&content.Node{ID: 3, Type: "post", Status: content.StatusDraft, Path: "/draft/", Date: day(3)})
	p := New(mem, testConfig())

	res, err := p.Collection(context.Background(), CollectionRequest{Type: "post", Params: Params{ACFDepth: -1}})
	require.NoError(t, err)
	require.Len(t, res.Items, 2)
	require.Equal(t, 2, res.Total, "totals count only readable nodes")
	require.Equal(t, 1, res.TotalPages)
}

func TestCollectionTotalsStayPairedAcrossPages(t *testing.T) {
	mem := repository.NewMemory()
	seedPosts(mem, 4)
	mem.AddNode(&content.Node{ID: 5, Type: "post", Status: content.StatusDraft, Path: "/draft/", Date: day(5)})
	p := New(mem, testConfig())
	ctx := context.Background()

	var seen int
	for page := 1; page <= 2; page++ {
		res, err := p.Collection(ctx, CollectionRequest{Type: "post", PerPage: 2, Page: page, Params: Params{ACFDepth: -1}})
		require.NoError(t, err)
		require.Equal(t, 4, res.Total)
		require.Equal(t, 2, res.TotalPages)
		require.Len(t, res.Items, 2, "every page in range is full")
		seen += len(res.Items)
	}
	require.Equal(t, 4, seen)
}

func TestCollectionCapabilityWidensTotals(t *testing.T) {
	mem := repository.NewMemory()
	seedPosts(mem, 2)
	mem.AddNode(&content.Node{ID: 3, Type: "post", Status: content.StatusPrivate, Path: "/secret/", Date: day(3)})
	allow := func(ctx context.Context, n *content.Node) bool { return true }
	p := New(mem, testConfig(), WithCapability(allow))

	res, err := p.Collection(context.Background(), CollectionRequest{Type: "post", Params: Params{ACFDepth: -1}})
	require.NoError(t, err)
	require.Len(t, res.Items, 3)
	require.Equal(t, 3, res.Total)
}

func TestCollectionFiltersByTermSlug(t *testing.T) {
	mem := repository.NewMemory()
	seedPosts(mem, 3)
	mem.SetTaxonomies("post", "category")
	mem.AddTerm(&content.Term{ID: 10, Taxonomy: "category", Name: "News", Slug: "news", Path: "/category/news/"})
	mem.AssignTerms(1, "category", 10)
	mem.AssignTerms(3, "category", 10)
	p := New(mem, testConfig())

	res, err := p.Collection(context.Background(), CollectionRequest{Type: "post", TermSlug: "news", Params: Params{ACFDepth: -1}})
	require.NoError(t, err)
	require.Equal(t, 2, res.Total)
	require.Equal(t, 3, res.Items[0]["id"])
	require.Equal(t, 1, res.Items[1]["id"])
}

func TestCollectionRejectsUnknownTermSlug(t *testing.T) {
	mem := repository.NewMemory()
	seedPosts(mem, 1)
	mem.SetTaxonomies("post", "category")
	mem.AddTerm(&content.Term{ID: 10, Taxonomy: "genre", Name: "Jazz", Slug: "jazz", Path: "/genre/jazz/"})
	p := New(mem, testConfig())
	ctx := context.Background()

	_, err := p.Collection(ctx, CollectionRequest{Type: "post", TermSlug: "nope"})
	require.ErrorIs(t, err, content.ErrInvalidQuery)

	_, err = p.Collection(ctx, CollectionRequest{Type: "post", TermSlug: "jazz"})
	require.ErrorIs(t, err, content.ErrInvalidQuery, "the term's taxonomy must apply to the queried type")
}
