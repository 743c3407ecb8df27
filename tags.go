package msgsplit

import (
	"strings"

	"golang.org/x/net/html"
)

// blockTags lists elements whose content may be distributed across fragment
// boundaries, re-opening the same tag and attributes in each fragment.
// Every other element is atomic: emitted whole in one fragment or not at
// all. Unknown tags default to atomic so the splitter never produces
// invalid markup for elements whose semantics it doesn't know.
var blockTags = map[string]bool{
	"p":      true,
	"b":      true,
	"strong": true,
	"i":      true,
	"ul":     true,
	"ol":     true,
	"div":    true,
	"span":   true,
}

func isBlock(n *html.Node) bool {
	return n.Type == html.ElementNode && blockTags[strings.ToLower(n.Data)]
}
