package parser

import (
	"fmt"
	"io"
)

// HTMLParser handles HTML files. The input is already the format the
// splitter consumes, so it passes through untouched; structural recovery
// for sloppy markup is the splitter's parser's job.
type HTMLParser struct{}

func (p *HTMLParser) Parse(r io.Reader, filename string) (string, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("read html: %w", err)
	}
	return string(b), nil
}
