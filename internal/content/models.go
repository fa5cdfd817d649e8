package content

import "time"

// Node is a single content item (post, page, or custom type). Nodes of a
// hierarchical type form a tree through ParentID; ParentID is 0 for roots.
type Node struct {
	ID              int       `json:"id" bson:"id"`
	GUID            string    `json:"guid" bson:"guid"`
	ParentID        int       `json:"parent_id" bson:"parent_id"`
	Type            string    `json:"type" bson:"type"`
	Status          string    `json:"status" bson:"status"`
	Slug            string    `json:"slug" bson:"slug"`
	Title           string    `json:"title" bson:"title"`
	Content         string    `json:"content" bson:"content"`
	Excerpt         string    `json:"excerpt" bson:"excerpt"`
	Path            string    `json:"path" bson:"path"`
	MenuOrder       int       `json:"menu_order" bson:"menu_order"`
	Date            time.Time `json:"date" bson:"date"`
	Modified        time.Time `json:"modified" bson:"modified"`
	AuthorID        int       `json:"author_id" bson:"author_id"`
	FeaturedMediaID int       `json:"featured_media_id" bson:"featured_media_id"`
}

// Node statuses. The set is open; these are the ones with fixed semantics.
const (
	StatusPublished = "publish"
	StatusDraft     = "draft"
	StatusPrivate   = "private"
	StatusInherit   = "inherit"
)

// MediaSize is one registered rendition of an attachment.
type MediaSize struct {
	Name   string `json:"name" bson:"name"`
	URL    string `json:"url" bson:"url"`
	Width  int    `json:"width" bson:"width"`
	Height int    `json:"height" bson:"height"`
}

// MediaRecord is the stored form of an attachment. InlineData carries
// base64-encoded content for vector formats that are embedded directly.
type MediaRecord struct {
	ID          int            `json:"id" bson:"id"`
	URL         string         `json:"url" bson:"url"`
	Width       int            `json:"width" bson:"width"`
	Height      int            `json:"height" bson:"height"`
	Alt         string         `json:"alt" bson:"alt"`
	Caption     string         `json:"caption" bson:"caption"`
	Title       string         `json:"title" bson:"title"`
	Description string         `json:"description" bson:"description"`
	MimeType    string         `json:"mime_type" bson:"mime_type"`
	InlineData  string         `json:"inline_data,omitempty" bson:"inline_data,omitempty"`
	Sizes       []MediaSize    `json:"sizes" bson:"sizes"`
	Meta        map[string]any `json:"meta" bson:"meta"`
}

// Term is a taxonomy term. Terms form a tree per taxonomy through ParentID.
type Term struct {
	ID       int    `json:"id" bson:"id"`
	Taxonomy string `json:"taxonomy" bson:"taxonomy"`
	Name     string `json:"name" bson:"name"`
	Slug     string `json:"slug" bson:"slug"`
	Path     string `json:"path" bson:"path"`
	ParentID int    `json:"parent_id" bson:"parent_id"`
}

// MenuItem is one flat entry of a navigation menu, before reparenting.
// Type is "custom" for external links, else the linked node's type.
type MenuItem struct {
	ID       int    `json:"id" bson:"id"`
	Title    string `json:"title" bson:"title"`
	Slug     string `json:"slug" bson:"slug"`
	Order    int    `json:"order" bson:"order"`
	URL      string `json:"url" bson:"url"`
	Target   string `json:"target" bson:"target"`
	ParentID int    `json:"parent_id" bson:"parent_id"`
	Type     string `json:"type" bson:"type"`
}

// Field kinds with dedicated flattening rules. Any other kind is treated as a
// scalar and its raw value passes through unchanged.
const (
	FieldImage        = "image"
	FieldPostObject   = "post_object"
	FieldRelationship = "relationship"
	FieldTaxonomy     = "taxonomy"
	FieldPageLink     = "page_link"
	FieldGroup        = "group"
	FieldRepeater     = "repeater"
	FieldGallery      = "gallery"
)

// FieldSchema describes one custom field attached to an object, together with
// its raw stored value. The value shape depends on Kind and ReturnFormat.
type FieldSchema struct {
	Name         string                 `json:"name" bson:"name"`
	Kind         string                 `json:"kind" bson:"kind"`
	Multiple     bool                   `json:"multiple" bson:"multiple"`
	ReturnFormat string                 `json:"return_format" bson:"return_format"`
	SubFields    map[string]FieldSchema `json:"sub_fields,omitempty" bson:"sub_fields,omitempty"`
	Value        any                    `json:"value" bson:"value"`
}

// Filter selects nodes for a collection query. An empty Statuses list matches
// every status; a non-empty one constrains the query so Total/TotalPages count
// only matching nodes.
type Filter struct {
	Type     string
	ParentID *int
	TermSlug string
	Search   string
	Slugs    []string
	Statuses []string
	OrderBy  string
	OrderDir string
	Page     int
	PerPage  int
}

// ChildrenQuery selects direct children of a node. PerPage <= 0 returns all.
// Statuses behaves as in Filter.
type ChildrenQuery struct {
	ParentID int
	Type     string
	Statuses []string
	OrderBy  string
	OrderDir string
	Page     int
	PerPage  int
}

// NodeList is a page of query results with totals across all pages.
type NodeList struct {
	Items      []*Node
	Total      int
	TotalPages int
}

// Sort fields accepted by QueryNodes and Children.
const (
	OrderByDate      = "date"
	OrderByMenuOrder = "menu_order"
	OrderByTitle     = "title"
	OrderBySlug      = "slug"
	OrderByID        = "id"
	OrderByModified  = "modified"

	OrderAsc  = "asc"
	OrderDesc = "desc"
)
