package parser

import (
	"bufio"
	"io"
	"strings"

	"golang.org/x/net/html"
)

// TextParser handles plain text files. Blank-line separated paragraphs
// become <p> elements so the splitter can break between them.
type TextParser struct{}

func (p *TextParser) Parse(r io.Reader, filename string) (string, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var paragraphs []string
	var current strings.Builder

	for scanner.Scan() {
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			if current.Len() > 0 {
				paragraphs = append(paragraphs, current.String())
				current.Reset()
			}
		} else {
			if current.Len() > 0 {
				current.WriteString("\n")
			}
			current.WriteString(line)
		}
	}
	if current.Len() > 0 {
		paragraphs = append(paragraphs, current.String())
	}

	if err := scanner.Err(); err != nil {
		return "", err
	}

	var out strings.Builder
	for _, para := range paragraphs {
		out.WriteString("<p>")
		out.WriteString(html.EscapeString(para))
		out.WriteString("</p>")
	}
	return out.String(), nil
}
