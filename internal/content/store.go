package content

import "context"

// Store is the read-side query surface of the content system. Implementations
// live in repository (memory, mongo); cache wraps any Store with a
// read-through layer. All methods return ErrNotFound for missing records and
// wrap transport failures in ErrUnavailable.
type Store interface {
	// NodeByID fetches a single node.
	NodeByID(ctx context.Context, id int) (*Node, error)

	// NodeByPath fetches the node whose canonical path matches, restricted to
	// the given types. An empty type list matches any type.
	NodeByPath(ctx context.Context, path string, types []string) (*Node, error)

	// QueryNodes runs a filtered, sorted, paginated collection query.
	QueryNodes(ctx context.Context, f Filter) (*NodeList, error)

	// Children returns direct children of a node.
	Children(ctx context.Context, q ChildrenQuery) (*NodeList, error)

	// Ancestors returns the parent chain of a node, nearest-first.
	Ancestors(ctx context.Context, id int) ([]*Node, error)

	// FieldSchemas returns the custom-field schema (with values) attached to
	// an object, or nil when no custom-field system is configured for it.
	FieldSchemas(ctx context.Context, objectID int) (map[string]FieldSchema, error)

	// Taxonomies lists the taxonomy names applicable to a node type.
	Taxonomies(ctx context.Context, nodeType string) ([]string, error)

	// Terms returns the terms of one taxonomy assigned to a node, or nil when
	// none are assigned.
	Terms(ctx context.Context, nodeID int, taxonomy string) ([]*Term, error)

	// TermByID fetches a single term.
	TermByID(ctx context.Context, id int) (*Term, error)

	// TermBySlug fetches a single term by its slug.
	TermBySlug(ctx context.Context, slug string) (*Term, error)

	// Media fetches an attachment record.
	Media(ctx context.Context, id int) (*MediaRecord, error)

	// MediaIDByURL reverse-maps an attachment URL to its id, 0 when unknown.
	MediaIDByURL(ctx context.Context, url string) (int, error)

	// Menu returns the flat ordered item list of a named menu.
	Menu(ctx context.Context, name string) ([]*MenuItem, error)

	// Option returns a site-wide option value, nil when unset.
	Option(ctx context.Context, name string) (any, error)

	// OptionFields returns the custom-field schema of a named option group,
	// or nil when the group does not exist.
	OptionFields(ctx context.Context, group string) (map[string]FieldSchema, error)

	// NodeMeta returns one metadata value of a node and whether it exists.
	NodeMeta(ctx context.Context, nodeID int, key string) (any, bool, error)

	// RenderBlock delegates markup rendering of a block to the host renderer.
	// Implementations without a renderer return inner unchanged.
	RenderBlock(ctx context.Context, name string, attrs map[string]any, inner string) (string, error)
}

// CapabilityFunc decides whether the caller in ctx may read a node beyond the
// public statuses. Supplied by the host; the projection layer never evaluates
// permissions itself.
type CapabilityFunc func(ctx context.Context, node *Node) bool
