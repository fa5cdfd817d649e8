package projector

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/headwaycms/headway/internal/content"
	"github.com/headwaycms/headway/internal/content/repository"
)

func TestFlattenScalarAndNull(t *testing.T) {
	mem := repository.NewMemory()
	p := New(mem, testConfig())

	out := p.FlattenFields(context.Background(), map[string]content.FieldSchema{
		"headline": {Name: "headline", Value: "Breaking"},
		"count":    {Name: "count", Value: float64(7)},
		"missing":  {Name: "missing", Kind: content.FieldImage, Value: nil},
	}, 2)

	require.Equal(t, "Breaking", out["headline"])
	require.Equal(t, float64(7), out["count"])
	require.Contains(t, out, "missing")
	require.Nil(t, out["missing"], "absent raw values project as null without resolution")
}

func TestFlattenImageReturnFormats(t *testing.T) {
	mem := repository.NewMemory()
	mem.AddMedia(&content.MediaRecord{ID: 9, URL: "https://example.com/up/a.jpg", Width: 800, Height: 600, MimeType: "image/jpeg"})
	p := New(mem, testConfig())
	ctx := context.Background()

	byID := p.FlattenFields(ctx, map[string]content.FieldSchema{
		"hero": {Name: "hero", Kind: content.FieldImage, ReturnFormat: "id", Value: float64(9)},
	}, 2)
	require.Equal(t, 9, byID["hero"].(map[string]any)["id"])

	byURL := p.FlattenFields(ctx, map[string]content.FieldSchema{
		"hero": {Name: "hero", Kind: content.FieldImage, ReturnFormat: "url", Value: "https://example.com/up/a.jpg"},
	}, 2)
	require.Equal(t, 9, byURL["hero"].(map[string]any)["id"])

	byArray := p.FlattenFields(ctx, map[string]content.FieldSchema{
		"hero": {Name: "hero", Kind: content.FieldImage, ReturnFormat: "array", Value: map[string]any{"id": float64(9), "url": "ignored"}},
	}, 2)
	require.Equal(t, 9, byArray["hero"].(map[string]any)["id"])

	unknown := p.FlattenFields(ctx, map[string]content.FieldSchema{
		"hero": {Name: "hero", Kind: content.FieldImage, ReturnFormat: "id", Value: float64(404)},
	}, 2)
	require.Contains(t, unknown, "hero")
	require.Nil(t, unknown["hero"])
}

func TestFlattenRelationsRespectDepthBudget(t *testing.T) {
	mem := repository.NewMemory()
	mem.AddNode(&content.Node{ID: 1, Type: "post", Status: content.StatusPublished, Slug: "a", Path: "/a/"})
	mem.AddNode(&content.Node{ID: 2, Type: "post", Status: content.StatusPublished, Slug: "b", Path: "/b/"})
	// mutual references
	mem.SetFieldSchemas(1, map[string]content.FieldSchema{
		"related": {Name: "related", Kind: content.FieldPostObject, Value: float64(2)},
	})
	mem.SetFieldSchemas(2, map[string]content.FieldSchema{
		"related": {Name: "related", Kind: content.FieldPostObject, Value: float64(1)},
	})
	p := New(mem, testConfig())

	data, err := p.ProjectByID(context.Background(), 1, ParseFieldSet("acf"), Params{ACFDepth: 2})
	require.NoError(t, err)

	related := data["acf"].(map[string]any)["related"].(map[string]any)
	require.Equal(t, 2, related["id"])
	inner := related["acf"].(map[string]any)["related"].(map[string]any)
	require.Equal(t, 1, inner["id"])
	last := inner["acf"].(map[string]any)["related"].(map[string]any)
	require.Equal(t, 2, last["id"])
	require.NotContains(t, last, "acf", "an exhausted budget stops the mutual reference walk")
}

func TestFlattenRelationship(t *testing.T) {
	mem := repository.NewMemory()
	mem.AddNode(&content.Node{ID: 1, Type: "post", Status: content.StatusPublished, Path: "/a/"})
	mem.AddNode(&content.Node{ID: 2, Type: "post", Status: content.StatusDraft, Path: "/b/"})
	mem.AddNode(&content.Node{ID: 3, Type: "post", Status: content.StatusPublished, Path: "/c/"})
	p := New(mem, testConfig())

	out := p.FlattenFields(context.Background(), map[string]content.FieldSchema{
		"picks": {Name: "picks", Kind: content.FieldRelationship, Multiple: true, Value: []any{float64(1), float64(2), float64(3)}},
	}, 1)

	picks := out["picks"].([]map[string]any)
	require.Len(t, picks, 2, "unreadable relations are dropped")
	require.Equal(t, 1, picks[0]["id"])
	require.Equal(t, 3, picks[1]["id"])
}

func TestFlattenTaxonomyField(t *testing.T) {
	mem := repository.NewMemory()
	mem.AddTerm(&content.Term{ID: 5, Taxonomy: "genre", Name: "Jazz", Slug: "jazz", Path: "/genre/jazz/"})
	p := New(mem, testConfig())

	out := p.FlattenFields(context.Background(), map[string]content.FieldSchema{
		"genres": {Name: "genres", Kind: content.FieldTaxonomy, Value: []any{float64(5), float64(404)}},
	}, 2)

	genres := out["genres"].([]map[string]any)
	require.Len(t, genres, 1)
	require.Equal(t, "jazz", genres[0]["slug"])
}

func TestFlattenPageLink(t *testing.T) {
	mem := repository.NewMemory()
	mem.AddNode(&content.Node{ID: 4, Type: "page", Status: content.StatusPublished, Slug: "about", Path: "/about/"})
	p := New(mem, testConfig())

	out := p.FlattenFields(context.Background(), map[string]content.FieldSchema{
		"cta": {Name: "cta", Kind: content.FieldPageLink, Value: "/about/"},
	}, 1)

	require.Equal(t, 4, out["cta"].(map[string]any)["id"])
}

func TestFlattenGroupAndRepeater(t *testing.T) {
	mem := repository.NewMemory()
	p := New(mem, testConfig())

	sub := map[string]content.FieldSchema{
		"label": {Name: "label"},
		"score": {Name: "score"},
	}
	out := p.FlattenFields(context.Background(), map[string]content.FieldSchema{
		"box": {Name: "box", Kind: content.FieldGroup, SubFields: sub, Value: map[string]any{"label": "one"}},
		"rows": {Name: "rows", Kind: content.FieldRepeater, SubFields: sub, Value: []any{
			map[string]any{"label": "r1", "score": float64(1)},
			map[string]any{"label": "r2", "score": float64(2)},
		}},
	}, 2)

	box := out["box"].(map[string]any)
	require.Equal(t, "one", box["label"])
	require.Nil(t, box["score"], "missing sub-values stay null")

	rows := out["rows"].([]map[string]any)
	require.Len(t, rows, 2)
	require.Equal(t, "r2", rows[1]["label"])
	require.Equal(t, float64(2), rows[1]["score"])
}

func TestFlattenGalleryDispatchesByMime(t *testing.T) {
	mem := repository.NewMemory()
	mem.AddMedia(&content.MediaRecord{ID: 1, URL: "https://example.com/a.jpg", Width: 100, MimeType: "image/jpeg"})
	mem.AddMedia(&content.MediaRecord{ID: 2, URL: "https://example.com/b.mp4", MimeType: "video/mp4"})
	mem.AddMedia(&content.MediaRecord{ID: 3, URL: "https://example.com/c.pdf", MimeType: "application/pdf"})
	p := New(mem, testConfig())

	out := p.FlattenFields(context.Background(), map[string]content.FieldSchema{
		"gallery": {Name: "gallery", Kind: content.FieldGallery, ReturnFormat: "id", Value: []any{float64(1), float64(2), float64(3)}},
	}, 1)

	items := out["gallery"].([]map[string]any)
	require.Len(t, items, 3)
	require.Contains(t, items[0], "srcset")
	require.Equal(t, "video/mp4", items[1]["mime_type"])
	require.Equal(t, "application/pdf", items[2]["mime_type"])
}
