package blocks

import (
	"regexp"
	"strings"

	"github.com/ohler55/ojg/oj"
)

// Block is one parsed unit of serialized block markup. Freeform text between
// delimiters parses as a block with an empty Name.
type Block struct {
	Name        string
	Attrs       map[string]any
	InnerHTML   string
	InnerBlocks []*Block
}

// Delimiter comments: <!-- wp:name {json} --> ... <!-- /wp:name --> or the
// self-closing <!-- wp:name {json} /-->. Names without a namespace default to
// the core namespace.
var delimRe = regexp.MustCompile(`<!--\s*(/)?wp:([a-z][a-z0-9_-]*(?:/[a-z][a-z0-9_-]*)?)(\s+\{[\s\S]*?\})?\s*(/)?-->`)

// Parse splits serialized markup into a block tree. Markup without any block
// delimiters yields a single freeform block (or nothing when empty).
func Parse(src string) []*Block {
	matches := delimRe.FindAllStringSubmatchIndex(src, -1)
	if len(matches) == 0 {
		if strings.TrimSpace(src) == "" {
			return nil
		}
		return []*Block{{Name: "", InnerHTML: src}}
	}

	var roots []*Block
	var stack []*Block
	pos := 0

	appendText := func(text string) {
		if text == "" {
			return
		}
		if len(stack) > 0 {
			top := stack[len(stack)-1]
			top.InnerHTML += text
			return
		}
		if strings.TrimSpace(text) != "" {
			roots = append(roots, &Block{Name: "", InnerHTML: text})
		}
	}

	push := func(b *Block) {
		if len(stack) > 0 {
			top := stack[len(stack)-1]
			top.InnerBlocks = append(top.InnerBlocks, b)
		} else {
			roots = append(roots, b)
		}
	}

	for _, m := range matches {
		appendText(src[pos:m[0]])
		pos = m[1]

		closer := m[2] >= 0
		name := qualify(src[m[4]:m[5]])
		selfClosing := m[8] >= 0

		if closer {
			// pop to the matching opener; unbalanced closers are dropped
			for i := len(stack) - 1; i >= 0; i-- {
				if stack[i].Name == name {
					stack = stack[:i]
					break
				}
			}
			continue
		}

		b := &Block{Name: name}
		if m[6] >= 0 {
			b.Attrs = parseAttrs(src[m[6]:m[7]])
		}
		push(b)
		if !selfClosing {
			stack = append(stack, b)
		}
	}
	appendText(src[pos:])
	return roots
}

func qualify(name string) string {
	if strings.Contains(name, "/") {
		return name
	}
	return "core/" + name
}

func parseAttrs(raw string) map[string]any {
	v, err := oj.ParseString(strings.TrimSpace(raw))
	if err != nil {
		return nil
	}
	attrs, ok := v.(map[string]any)
	if !ok {
		return nil
	}
	return attrs
}
