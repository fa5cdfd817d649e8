package blocks

import "sync"

// Attribute sources. Sourceless attributes come from the serialized comment
// delimiter JSON, everything else is extracted from the rendered markup.
const (
	SourceAttribute = "attribute"
	SourceProperty  = "property"
	SourceText      = "text"
	SourceHTML      = "html"
	SourceRichText  = "rich-text"
	SourceTag       = "tag"
	SourceMeta      = "meta"
)

// AttributeSchema declares how one block attribute is resolved.
type AttributeSchema struct {
	Type      string // string, boolean, number, ...
	Source    string // empty means delimiter-JSON only
	Selector  string // restricted CSS selector into the rendered fragment
	Attribute string // HTML attribute name for SourceAttribute/SourceProperty
	Meta      string // metadata key for SourceMeta
	Default   any
}

// BlockType is one registered block definition.
type BlockType struct {
	Name       string
	Attributes map[string]AttributeSchema
	// UsesFields marks field-group-bearing blocks; they carry a flattened
	// custom-field payload in the projection.
	UsesFields bool
}

// Registry holds block type definitions. It is populated once at startup and
// only read afterwards, so concurrent reads need no further coordination.
type Registry struct {
	mu    sync.RWMutex
	types map[string]*BlockType
}

func NewRegistry() *Registry {
	return &Registry{types: make(map[string]*BlockType)}
}

func (r *Registry) Register(t *BlockType) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.types[t.Name] = t
}

func (r *Registry) Get(name string) *BlockType {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.types[name]
}

// DefaultRegistry registers the core block vocabulary.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(&BlockType{
		Name: "core/image",
		Attributes: map[string]AttributeSchema{
			"url":     {Type: "string", Source: SourceAttribute, Selector: "img", Attribute: "src"},
			"alt":     {Type: "string", Source: SourceAttribute, Selector: "img", Attribute: "alt", Default: ""},
			"caption": {Type: "string", Source: SourceHTML, Selector: "figcaption"},
			"id":      {Type: "number"},
		},
	})
	r.Register(&BlockType{
		Name: "core/paragraph",
		Attributes: map[string]AttributeSchema{
			"content": {Type: "string", Source: SourceHTML},
			"dropCap": {Type: "boolean", Default: false},
		},
	})
	r.Register(&BlockType{
		Name: "core/heading",
		Attributes: map[string]AttributeSchema{
			"content": {Type: "string", Source: SourceHTML},
			"level":   {Type: "string", Source: SourceTag},
		},
	})
	r.Register(&BlockType{
		Name: "core/quote",
		Attributes: map[string]AttributeSchema{
			"value":    {Type: "string", Source: SourceHTML, Selector: "blockquote"},
			"citation": {Type: "string", Source: SourceHTML, Selector: "cite"},
		},
	})
	r.Register(&BlockType{
		Name: "core/button",
		Attributes: map[string]AttributeSchema{
			"text":       {Type: "string", Source: SourceHTML, Selector: "a"},
			"url":        {Type: "string", Source: SourceAttribute, Selector: "a", Attribute: "href"},
			"linkTarget": {Type: "string", Source: SourceAttribute, Selector: "a", Attribute: "target"},
		},
	})
	r.Register(&BlockType{
		Name: "core/video",
		Attributes: map[string]AttributeSchema{
			"src":      {Type: "string", Source: SourceAttribute, Selector: "video", Attribute: "src"},
			"autoplay": {Type: "boolean", Source: SourceAttribute, Selector: "video", Attribute: "autoplay"},
			"loop":     {Type: "boolean", Source: SourceAttribute, Selector: "video", Attribute: "loop"},
			"muted":    {Type: "boolean", Source: SourceAttribute, Selector: "video", Attribute: "muted"},
		},
	})
	r.Register(&BlockType{Name: "core/columns"})
	r.Register(&BlockType{Name: "core/column"})
	r.Register(&BlockType{
		Name: "core/list",
		Attributes: map[string]AttributeSchema{
			"values":  {Type: "string", Source: SourceHTML},
			"ordered": {Type: "boolean", Default: false},
		},
	})
	return r
}
