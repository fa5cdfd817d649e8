package blocks

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseEmpty(t *testing.T) {
	require.Nil(t, Parse(""))
	require.Nil(t, Parse("  \n "))
}

func TestParseFreeform(t *testing.T) {
	out := Parse("<p>plain classic markup</p>")
	require.Len(t, out, 1)
	require.Equal(t, "", out[0].Name)
	require.Equal(t, "<p>plain classic markup</p>", out[0].InnerHTML)
}

func TestParseSimpleBlock(t *testing.T) {
	src := `<!-- wp:paragraph {"dropCap":true} --><p>Hi</p><!-- /wp:paragraph -->`
	out := Parse(src)
	require.Len(t, out, 1)
	b := out[0]
	require.Equal(t, "core/paragraph", b.Name, "bare names get the core namespace")
	require.Equal(t, "<p>Hi</p>", b.InnerHTML)
	require.Equal(t, true, b.Attrs["dropCap"])
}

func TestParseSelfClosing(t *testing.T) {
	out := Parse(`<!-- wp:spacer {"height":40} /-->`)
	require.Len(t, out, 1)
	require.Equal(t, "core/spacer", out[0].Name)
	require.Equal(t, int64(40), out[0].Attrs["height"])
	require.Empty(t, out[0].InnerHTML)
}

func TestParseNamespacedName(t *testing.T) {
	out := Parse(`<!-- wp:acme/banner --><div></div><!-- /wp:acme/banner -->`)
	require.Len(t, out, 1)
	require.Equal(t, "acme/banner", out[0].Name)
}

func TestParseNested(t *testing.T) {
	src := `<!-- wp:columns --><div class="cols">` +
		`<!-- wp:column --><div class="col"><!-- wp:paragraph --><p>a</p><!-- /wp:paragraph --></div><!-- /wp:column -->` +
		`<!-- wp:column --><div class="col"></div><!-- /wp:column -->` +
		`</div><!-- /wp:columns -->`
	out := Parse(src)
	require.Len(t, out, 1)

	cols := out[0]
	require.Equal(t, "core/columns", cols.Name)
	require.Len(t, cols.InnerBlocks, 2)
	require.Equal(t, "core/column", cols.InnerBlocks[0].Name)
	require.Equal(t, "core/paragraph", cols.InnerBlocks[0].InnerBlocks[0].Name)
	require.Equal(t, "<p>a</p>", cols.InnerBlocks[0].InnerBlocks[0].InnerHTML)

	// text around nested delimiters accrues to the enclosing block
	require.Contains(t, cols.InnerHTML, `<div class="cols">`)
	require.NotContains(t, cols.InnerHTML, "<p>a</p>")
}

func TestParseDropsUnbalancedCloser(t *testing.T) {
	out := Parse(`<!-- /wp:paragraph --><!-- wp:heading --><h2>t</h2><!-- /wp:heading -->`)
	require.Len(t, out, 1)
	require.Equal(t, "core/heading", out[0].Name)
}

func TestParseFreeformBetweenBlocks(t *testing.T) {
	src := `<!-- wp:paragraph --><p>a</p><!-- /wp:paragraph -->stray text<!-- wp:paragraph --><p>b</p><!-- /wp:paragraph -->`
	out := Parse(src)
	require.Len(t, out, 3)
	require.Equal(t, "", out[1].Name)
	require.Equal(t, "stray text", out[1].InnerHTML)
}

func TestParseBadAttrsJSON(t *testing.T) {
	out := Parse(`<!-- wp:paragraph {not json,} --><p>x</p><!-- /wp:paragraph -->`)
	require.Len(t, out, 1)
	require.Nil(t, out[0].Attrs)
}
