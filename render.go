package msgsplit

import (
	"strings"

	"golang.org/x/net/html"
)

// openTag serializes the start tag of an element with attributes in source
// order, matching the format html.Render produces.
func openTag(n *html.Node) string {
	var b strings.Builder
	b.WriteByte('<')
	b.WriteString(n.Data)
	for _, a := range n.Attr {
		b.WriteByte(' ')
		if a.Namespace != "" {
			b.WriteString(a.Namespace)
			b.WriteByte(':')
		}
		b.WriteString(a.Key)
		b.WriteString(`="`)
		b.WriteString(html.EscapeString(a.Val))
		b.WriteByte('"')
	}
	b.WriteByte('>')
	return b.String()
}

func closeTag(n *html.Node) string {
	return "</" + n.Data + ">"
}

// renderNode serializes a node and its whole subtree to canonical HTML.
// Atomic elements go through here so their output is byte-identical to
// what measuring saw.
func renderNode(n *html.Node) (string, error) {
	var b strings.Builder
	if err := html.Render(&b, n); err != nil {
		return "", err
	}
	return b.String(), nil
}

// escapedLen returns the serialized character count of a single text
// rune: one for most runes, the entity length for the six characters
// html.EscapeString replaces.
func escapedLen(r rune) int {
	switch r {
	case '&':
		return len("&amp;")
	case '\'':
		return len("&#39;")
	case '<':
		return len("&lt;")
	case '>':
		return len("&gt;")
	case '"':
		return len("&#34;")
	case '\r':
		return len("&#13;")
	}
	return 1
}

// fitPrefix returns the byte offset ending the longest prefix of text
// whose escaped form fits within budget characters, along with the byte
// index of the last whitespace rune inside that prefix (-1 if none).
func fitPrefix(text string, budget int) (fit int, lastSpace int) {
	used := 0
	lastSpace = -1
	for i, r := range text {
		n := escapedLen(r)
		if used+n > budget {
			return i, lastSpace
		}
		used += n
		if r == ' ' || r == '\t' || r == '\n' {
			lastSpace = i
		}
	}
	return len(text), lastSpace
}
