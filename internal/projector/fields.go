package projector

import (
	"sort"
	"strings"
)

// FieldSet is the set of optional relation fields requested for a projection.
type FieldSet map[string]struct{}

// The fixed vocabulary of requestable fields. Anything else is dropped at
// parse time.
var fieldVocabulary = map[string]struct{}{
	"acf":       {},
	"terms":     {},
	"blocks":    {},
	"siblings":  {},
	"children":  {},
	"parent":    {},
	"ancestors": {},
	"next":      {},
	"prev":      {},
}

// Fields inherited into related-node projections. Relation fields themselves
// are never forwarded; that is what keeps sibling/children expansion bounded.
var inheritedFields = []string{"acf", "terms"}

// ParseFieldSet parses a comma separated field list. Dotted entries such as
// "children.acf" are accepted but only the top-level tag participates in
// inclusion; the suffix is not interpreted as a sub-selector.
func ParseFieldSet(csv string) FieldSet {
	fs := FieldSet{}
	for _, part := range strings.Split(csv, ",") {
		name := strings.TrimSpace(part)
		if i := strings.IndexByte(name, '.'); i >= 0 {
			name = name[:i]
		}
		if _, ok := fieldVocabulary[name]; ok {
			fs[name] = struct{}{}
		}
	}
	return fs
}

func (fs FieldSet) Has(name string) bool {
	_, ok := fs[name]
	return ok
}

// Inherit returns the subset forwarded into related-node lookups.
func (fs FieldSet) Inherit() FieldSet {
	out := FieldSet{}
	for _, name := range inheritedFields {
		if fs.Has(name) {
			out[name] = struct{}{}
		}
	}
	return out
}

// With returns a copy with one extra field added.
func (fs FieldSet) With(name string) FieldSet {
	out := FieldSet{}
	for k := range fs {
		out[k] = struct{}{}
	}
	out[name] = struct{}{}
	return out
}

// Names returns the fields in stable order, for logging.
func (fs FieldSet) Names() []string {
	out := make([]string, 0, len(fs))
	for k := range fs {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
