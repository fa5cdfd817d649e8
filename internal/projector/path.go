package projector

import (
	"context"
	"errors"
	"regexp"
	"strings"

	"github.com/headwaycms/headway/internal/content"
)

// rewriteRule is one configured fallback for paths that resolve to nothing,
// expressed as a regular expression over the normalized path and a
// replacement template.
type rewriteRule struct {
	pattern *regexp.Regexp
	replace string
}

// compileRewrites parses "pattern => replacement" pairs. Invalid entries are
// skipped rather than failing startup; the projector logs them once compiled.
func compileRewrites(rules []string) []rewriteRule {
	out := make([]rewriteRule, 0, len(rules))
	for _, raw := range rules {
		pattern, replace, ok := strings.Cut(raw, "=>")
		if !ok {
			continue
		}
		re, err := regexp.Compile(strings.TrimSpace(pattern))
		if err != nil {
			continue
		}
		out = append(out, rewriteRule{pattern: re, replace: strings.TrimSpace(replace)})
	}
	return out
}

// ResolvePath maps a front-end URI onto a content node. Query strings and
// fragments are stripped and slashes trimmed before lookup; the empty path
// resolves to the configured home node. When the direct lookup misses, each
// configured rewrite is tried in order against the normalized path.
func (p *Projector) ResolvePath(ctx context.Context, uri string) (*content.Node, error) {
	path := normalizePath(uri)
	if path == "" {
		return p.homeNode(ctx)
	}

	n, err := p.store.NodeByPath(ctx, path, p.cfg.ExposedTypes)
	if err == nil {
		return n, nil
	}
	if !errors.Is(err, content.ErrNotFound) {
		return nil, err
	}

	for _, rule := range p.rewrites {
		if !rule.pattern.MatchString(path) {
			continue
		}
		rewritten := normalizePath(rule.pattern.ReplaceAllString(path, rule.replace))
		if rewritten == path {
			continue
		}
		n, err := p.store.NodeByPath(ctx, rewritten, p.cfg.ExposedTypes)
		if err == nil {
			p.log.Debug("path rewrite hit", "from", path, "to", rewritten)
			return n, nil
		}
		if !errors.Is(err, content.ErrNotFound) {
			return nil, err
		}
	}
	return nil, content.ErrNotFound
}

func (p *Projector) homeNode(ctx context.Context) (*content.Node, error) {
	if p.cfg.HomePath != "" {
		return p.store.NodeByPath(ctx, trimSlashes(p.cfg.HomePath), p.cfg.ExposedTypes)
	}
	front, err := p.store.Option(ctx, "page_on_front")
	if err != nil {
		return nil, content.ErrNotFound
	}
	id, ok := toInt(front)
	if !ok || id == 0 {
		return nil, content.ErrNotFound
	}
	return p.store.NodeByID(ctx, id)
}

func normalizePath(uri string) string {
	if i := strings.IndexAny(uri, "?#"); i >= 0 {
		uri = uri[:i]
	}
	return trimSlashes(uri)
}
