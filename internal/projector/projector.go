// Package projector turns content-store entities into their client-facing
// JSON shape. Every projection is built fresh per request; recursive
// expansions (children, ancestors, custom fields, blocks) are depth-first
// walks bounded by explicit budgets carried through each recursive call.
package projector

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/headwaycms/headway/internal/blocks"
	"github.com/headwaycms/headway/internal/content"
)

// Config carries the site-level knobs of the projection layer.
type Config struct {
	// BaseURL prefixes canonical relative paths to form absolute URLs.
	BaseURL string
	// HomePath is the canonical path served for the empty/root request path.
	HomePath string
	// ExposedTypes is the allow-list of publicly served node types.
	ExposedTypes []string
	// HierarchicalTypes order their children by explicit menu order; all
	// other types order by creation time.
	HierarchicalTypes []string
	// DefaultACFDepth bounds custom-field relation expansion when the
	// request does not say otherwise.
	DefaultACFDepth int
	// Rewrites are "pattern => replacement" regular-expression pairs tried
	// when a direct path lookup misses.
	Rewrites []string
}

// Params are the per-request expansion parameters.
type Params struct {
	// Depth is the children recursion budget; at 1 or below children are
	// leaf-projected.
	Depth int
	// PerPage/Page paginate the children relation. PerPage <= 0 disables
	// pagination.
	PerPage int
	Page    int
	// ACFDepth bounds node-relation traversal inside custom fields. A
	// negative value selects the configured default.
	ACFDepth int
}

// Projector projects nodes, media, terms and custom fields. It holds no
// per-request state; one instance serves all requests.
type Projector struct {
	store    content.Store
	cfg      Config
	canRead  content.CapabilityFunc
	blocks   *blocks.Projector
	rewrites []rewriteRule
	log      *slog.Logger
}

type Option func(*Projector)

// WithCapability installs the host capability predicate consulted for
// non-public statuses.
func WithCapability(fn content.CapabilityFunc) Option {
	return func(p *Projector) { p.canRead = fn }
}

// WithBlocks installs the block projector backing the "blocks" field.
func WithBlocks(bp *blocks.Projector) Option {
	return func(p *Projector) { p.blocks = bp }
}

func WithLogger(log *slog.Logger) Option {
	return func(p *Projector) { p.log = log }
}

func New(store content.Store, cfg Config, opts ...Option) *Projector {
	if cfg.DefaultACFDepth <= 0 {
		cfg.DefaultACFDepth = 2
	}
	p := &Projector{
		store:    store,
		cfg:      cfg,
		rewrites: compileRewrites(cfg.Rewrites),
		log:      slog.New(slog.DiscardHandler),
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

func (p *Projector) typeExposed(t string) bool {
	for _, v := range p.cfg.ExposedTypes {
		if v == t {
			return true
		}
	}
	return false
}

func (p *Projector) typeHierarchical(t string) bool {
	for _, v := range p.cfg.HierarchicalTypes {
		if v == t {
			return true
		}
	}
	return false
}

// childOrder is the canonical sibling/children ordering of a node type.
func (p *Projector) childOrder(t string) (orderBy, dir string) {
	if p.typeHierarchical(t) {
		return content.OrderByMenuOrder, content.OrderAsc
	}
	return content.OrderByDate, content.OrderDesc
}

func (p *Projector) relativeURL(full string) string {
	return strings.TrimPrefix(full, strings.TrimRight(p.cfg.BaseURL, "/"))
}

// RelativeURL strips the configured base URL off an absolute link. External
// links come back unchanged.
func (p *Projector) RelativeURL(full string) string {
	return p.relativeURL(full)
}

func (p *Projector) absoluteURL(path string) string {
	return strings.TrimRight(p.cfg.BaseURL, "/") + "/" + strings.Trim(path, "/")
}

// timestamp formats a stored time for output; the zero sentinel projects as
// null.
func timestamp(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t.UTC().Format(time.RFC3339)
}

// ACFDepth resolves the effective custom-field depth budget for a request.
func (p *Projector) ACFDepth(params Params) int {
	return p.acfDepth(params)
}

// acfDepth resolves the effective custom-field depth budget.
func (p *Projector) acfDepth(params Params) int {
	if params.ACFDepth < 0 {
		return p.cfg.DefaultACFDepth
	}
	return params.ACFDepth
}

// readable applies the read rule: the type must be exposed, and the node
// must be published, readable via the capability predicate, or an inherit
// status resolving through its parent chain. A parentless inherit is treated
// as published.
func (p *Projector) readable(ctx context.Context, n *content.Node) bool {
	if !p.typeExposed(n.Type) {
		return false
	}
	return p.statusReadable(ctx, n, 0)
}

// visibleStatuses is the status constraint pushed into store queries so
// pagination totals count only nodes the caller can read. Callers whose
// capability grants non-public reads of the type get no constraint.
// withInherit admits inherit-status nodes, which resolve readable through the
// already-readable parent being expanded.
func (p *Projector) visibleStatuses(ctx context.Context, nodeType string, withInherit bool) []string {
	if p.canRead != nil && p.canRead(ctx, &content.Node{Type: nodeType, Status: content.StatusPrivate}) {
		return nil
	}
	if withInherit {
		return []string{content.StatusPublished, content.StatusInherit}
	}
	return []string{content.StatusPublished}
}

const maxInheritHops = 16

func (p *Projector) statusReadable(ctx context.Context, n *content.Node, hops int) bool {
	if n.Status == content.StatusPublished {
		return true
	}
	if p.canRead != nil && p.canRead(ctx, n) {
		return true
	}
	if n.Status == content.StatusInherit {
		if n.ParentID == 0 {
			return true
		}
		if hops >= maxInheritHops {
			return false
		}
		parent, err := p.store.NodeByID(ctx, n.ParentID)
		if err != nil {
			return true
		}
		return p.statusReadable(ctx, parent, hops+1)
	}
	return false
}
