package parser

import (
	"bytes"
	"fmt"
	"io"

	"github.com/yuin/goldmark"
)

// MarkdownParser handles Markdown files using goldmark. The rendered HTML
// goes straight to the splitter; headings and lists survive as elements
// rather than flattened text.
type MarkdownParser struct{}

func (p *MarkdownParser) Parse(r io.Reader, filename string) (string, error) {
	src, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := goldmark.New().Convert(src, &buf); err != nil {
		return "", fmt.Errorf("convert markdown: %w", err)
	}
	return buf.String(), nil
}
