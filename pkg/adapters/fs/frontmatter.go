package fs

import (
	"bytes"
	"fmt"
	"regexp"

	"gopkg.in/yaml.v3"

	"github.com/aretw0/sediment/pkg/core"
)

// frontMatterPattern matches `---\n<yaml>\n---\n<body>`. The body may be empty.
var frontMatterPattern = regexp.MustCompile(`(?s)\A---\s*\n(.*?)\n---\s*\n(.*)\z`)

// FrontMatter reads and writes Markdown notes with a YAML front matter block.
type FrontMatter struct {
	// Indent is the YAML indentation used when rendering. Defaults to 2.
	Indent int
}

// NewFrontMatter creates a FrontMatter codec with default settings.
func NewFrontMatter() *FrontMatter {
	return &FrontMatter{Indent: 2}
}

// Parse implements core.Parser.
// The body is returned exactly as it follows the closing fence.
func (f *FrontMatter) Parse(path, content string) (core.Note, error) {
	m := frontMatterPattern.FindStringSubmatch(content)
	if m == nil {
		return core.Note{}, core.ErrNoFrontMatter
	}

	var node yaml.Node
	if err := yaml.Unmarshal([]byte(m[1]), &node); err != nil {
		return core.Note{}, fmt.Errorf("%w: %v", core.ErrInvalidFrontMatter, err)
	}

	meta := make(core.Metadata)
	if len(node.Content) > 0 {
		if node.Content[0].Kind != yaml.MappingNode {
			return core.Note{}, core.ErrInvalidFrontMatter
		}
		if err := node.Decode(&meta); err != nil {
			return core.Note{}, fmt.Errorf("%w: %v", core.ErrInvalidFrontMatter, err)
		}
	}

	return core.Note{
		Path:     path,
		Metadata: meta,
		Body:     m[2],
		Raw:      &node,
	}, nil
}

// Render produces `---\n<yaml>---\n\n<body>`.
// When the note still carries the node it was parsed from, that node is
// encoded so key order and scalar styles survive.
func (f *FrontMatter) Render(n core.Note, body string) ([]byte, error) {
	var v any = n.Metadata
	if node, ok := n.Raw.(*yaml.Node); ok && len(node.Content) > 0 {
		v = node
	}

	indent := f.Indent
	if indent <= 0 {
		indent = 2
	}

	var buf bytes.Buffer
	buf.WriteString("---\n")
	encoder := yaml.NewEncoder(&buf)
	encoder.SetIndent(indent)
	if err := encoder.Encode(v); err != nil {
		return nil, fmt.Errorf("failed to encode front matter: %w", err)
	}
	if err := encoder.Close(); err != nil {
		return nil, fmt.Errorf("failed to encode front matter: %w", err)
	}
	buf.WriteString("---\n\n")
	buf.WriteString(body)
	return buf.Bytes(), nil
}

var _ core.Parser = (*FrontMatter)(nil)
