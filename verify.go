package msgsplit

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// voidElements have no close tag and never affect tag balance.
var voidElements = map[string]bool{
	"area": true, "base": true, "br": true, "col": true, "embed": true,
	"hr": true, "img": true, "input": true, "link": true, "meta": true,
	"source": true, "track": true, "wbr": true,
}

// Verify checks a split result against the budget and confirms every
// fragment parses on its own with balanced tags. It is a post-hoc gate:
// Split is expected to always pass, and tests lean on this to prove it.
func Verify(fragments []string, maxLen int) error {
	for i, frag := range fragments {
		if n := utf8.RuneCountInString(frag); n > maxLen {
			return fmt.Errorf("fragment %d: %d chars exceeds max_len %d", i, n, maxLen)
		}
		if err := checkBalanced(frag); err != nil {
			return fmt.Errorf("fragment %d: %w", i, err)
		}
	}
	return nil
}

// TextContent returns the concatenated text of every text node in an HTML
// source, structural tags ignored. Used to check that splitting preserves
// message content.
func TextContent(source string) string {
	ctx := &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
	nodes, err := html.ParseFragment(strings.NewReader(source), ctx)
	if err != nil {
		return ""
	}
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	for _, n := range nodes {
		walk(n)
	}
	return b.String()
}

// checkBalanced tokenizes a fragment and verifies every open tag is closed
// in order. The tree parser auto-repairs imbalance, so this works on the
// raw token stream instead.
func checkBalanced(frag string) error {
	z := html.NewTokenizer(strings.NewReader(frag))
	var stack []string
	for {
		switch z.Next() {
		case html.ErrorToken:
			if len(stack) > 0 {
				return fmt.Errorf("unclosed tag <%s>", stack[len(stack)-1])
			}
			return nil
		case html.StartTagToken:
			name, _ := z.TagName()
			tag := strings.ToLower(string(name))
			if !voidElements[tag] {
				stack = append(stack, tag)
			}
		case html.EndTagToken:
			name, _ := z.TagName()
			tag := strings.ToLower(string(name))
			if len(stack) == 0 {
				return fmt.Errorf("unmatched closing tag </%s>", tag)
			}
			if stack[len(stack)-1] != tag {
				return fmt.Errorf("closing tag </%s> does not match open <%s>", tag, stack[len(stack)-1])
			}
			stack = stack[:len(stack)-1]
		}
	}
}
