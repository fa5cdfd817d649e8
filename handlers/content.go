package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/headwaycms/headway/internal/content"
	"github.com/headwaycms/headway/internal/menu"
	"github.com/headwaycms/headway/internal/projector"
	"github.com/headwaycms/headway/pkg/middleware"
)

const (
	defaultPerPage = 10
	maxPerPage     = 100
)

// ContentHandler serves the read API: single nodes by URI, typed
// collections, menus, site settings and option fields.
type ContentHandler struct {
	proj  *projector.Projector
	store content.Store
}

func NewContentHandler(proj *projector.Projector, store content.Store) *ContentHandler {
	return &ContentHandler{proj: proj, store: store}
}

// Register routes under the given group.
func (h *ContentHandler) Register(rg *gin.RouterGroup) {
	rg.GET("/page", h.Page)
	rg.GET("/posts", h.Posts)
	rg.GET("/menus", h.Menus)
	rg.GET("/settings", h.Settings)
	rg.GET("/user", h.User)
	rg.GET("/acf-options", h.ACFOptions)
}

// Page resolves a front-end URI to one node and projects it with the
// requested field expansions. Nodes the caller may not read respond 404,
// matching missing ones, so probing for private paths learns nothing.
func (h *ContentHandler) Page(c *gin.Context) {
	ctx := c.Request.Context()
	n, err := h.proj.ResolvePath(ctx, c.Query("uri"))
	if err != nil {
		writeError(c, err)
		return
	}

	fields := projector.ParseFieldSet(c.Query("fields"))
	data, err := h.proj.Project(ctx, n, fields, h.params(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, data)
}

// Posts serves a typed collection. Totals go out as X-Total and
// X-Total-Pages headers with the projected page as the body array.
func (h *ContentHandler) Posts(c *gin.Context) {
	req := projector.CollectionRequest{
		Type:       c.DefaultQuery("post_type", "post"),
		Fields:     projector.ParseFieldSet(c.Query("fields")),
		ParentPath: c.Query("parent"),
		TermSlug:   c.Query("term_slug"),
		Search:     c.Query("search"),
		OrderBy:    c.Query("orderby"),
		Order:      c.Query("order"),
		PerPage:    clampPerPage(intQuery(c, "per_page", defaultPerPage)),
		Page:       intQuery(c, "page", 1),
		Params:     h.params(c),
	}
	if slugs := c.Query("slug"); slugs != "" {
		req.Slugs = strings.Split(slugs, ",")
	}

	res, err := h.proj.Collection(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.Header("X-Total", strconv.Itoa(res.Total))
	c.Header("X-Total-Pages", strconv.Itoa(res.TotalPages))
	c.JSON(http.StatusOK, res.Items)
}

// Menus returns one named menu as a nested forest.
func (h *ContentHandler) Menus(c *gin.Context) {
	name := c.Query("name")
	if name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "name is required"})
		return
	}
	records, err := h.store.Menu(c.Request.Context(), name)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, menu.BuildForest(records, h.proj.RelativeURL))
}

// Settings exposes the general site options the front end boots from.
func (h *ContentHandler) Settings(c *gin.Context) {
	ctx := c.Request.Context()
	out := gin.H{}
	for _, name := range []string{"blogname", "blogdescription", "page_on_front", "page_for_posts", "posts_per_page"} {
		v, err := h.store.Option(ctx, name)
		if err != nil {
			writeError(c, err)
			return
		}
		out[name] = v
	}
	c.JSON(http.StatusOK, out)
}

// User reflects the verified identity back to the caller; anonymous
// requests get the guest shape rather than an error.
func (h *ContentHandler) User(c *gin.Context) {
	claims := middleware.ClaimsFromContext(c)
	if claims == nil {
		c.JSON(http.StatusOK, gin.H{"id": 0, "nicename": "", "avatar": nil})
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": claims.UserID, "nicename": claims.Nicename, "avatar": claims.Avatar})
}

// ACFOptions serves a global option field group, flattened the same way
// node fields are.
func (h *ContentHandler) ACFOptions(c *gin.Context) {
	ctx := c.Request.Context()
	group := c.DefaultQuery("group", "options")
	schemas, err := h.store.OptionFields(ctx, group)
	if err != nil {
		writeError(c, err)
		return
	}
	if schemas == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown option group"})
		return
	}
	c.JSON(http.StatusOK, h.proj.FlattenFields(ctx, schemas, h.proj.ACFDepth(h.params(c))))
}

func (h *ContentHandler) params(c *gin.Context) projector.Params {
	return projector.Params{
		Depth:    intQuery(c, "depth", 1),
		PerPage:  clampPerPage(intQuery(c, "per_page", defaultPerPage)),
		Page:     intQuery(c, "page", 1),
		ACFDepth: intQuery(c, "acf_depth", -1),
	}
}

func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, content.ErrNotFound), errors.Is(err, content.ErrForbidden):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	case errors.Is(err, content.ErrInvalidQuery):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, content.ErrUnavailable):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "content store unavailable"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

func intQuery(c *gin.Context, name string, fallback int) int {
	raw := c.Query(name)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return v
}

func clampPerPage(v int) int {
	if v > maxPerPage {
		return maxPerPage
	}
	return v
}
