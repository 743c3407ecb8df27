// Package msgsplit splits HTML messages into fragments bounded by a
// character budget, keeping every fragment independently well-formed.
// Block-level tags open at a split point are closed at the end of the
// fragment and re-opened, attributes intact, at the start of the next one.
package msgsplit

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// DefaultMaxLen is the fragment budget used by SplitMessage.
const DefaultMaxLen = 4096

// SplitMessage splits source with the default budget.
func SplitMessage(source string) ([]string, error) {
	return Split(source, DefaultMaxLen)
}

// Split breaks an HTML source into ordered fragments, each at most maxLen
// characters (Unicode code points, not bytes). Whitespace-only input
// yields no fragments. Text that starts a new fragment has its leading
// whitespace trimmed, and whitespace left hanging at a split point is
// dropped before the closing tags; whitespace inside a fragment is
// preserved. The call is all-or-nothing: any failure returns no fragments.
func Split(source string, maxLen int) ([]string, error) {
	if maxLen <= 0 {
		return nil, fmt.Errorf("max_len must be positive, got %d", maxLen)
	}

	ctx := &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
	nodes, err := html.ParseFragment(strings.NewReader(source), ctx)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	f := &fragmenter{maxLen: maxLen}
	for _, n := range nodes {
		if err := f.walk(n); err != nil {
			return nil, err
		}
	}
	f.boundary()
	return f.fragments, nil
}

// openElem is one entry of the fragmenter's ancestor stack. Open tags are
// written lazily: an element materializes into the current fragment only
// when content beneath it does, so a block whose remaining content went to
// earlier fragments is not re-opened for nothing.
type openElem struct {
	node     *html.Node
	open     string
	close    string
	openLen  int  // character count of open
	closeLen int  // character count of close
	written  bool // open tag present in the current fragment
	emitted  bool // open tag has appeared in at least one fragment
}

type fragmenter struct {
	maxLen    int
	fragments []string
	cur       strings.Builder
	curLen    int         // characters in cur, not bytes
	stack     []*openElem // block ancestors, innermost last
}

// avail is the room left for content in the current fragment after
// reserving the open tags not yet written and the close tags of every
// ancestor on the stack. It is transiently negative right after a block is
// pushed onto a nearly full fragment; both consumption paths handle that
// with a boundary.
func (f *fragmenter) avail() int {
	n := f.maxLen - f.curLen
	for _, e := range f.stack {
		if !e.written {
			n -= e.openLen
		}
		n -= e.closeLen
	}
	return n
}

// contextLen is the unavoidable open+close overhead of the current
// ancestor stack.
func (f *fragmenter) contextLen() int {
	n := 0
	for _, e := range f.stack {
		n += e.openLen + e.closeLen
	}
	return n
}

// freshAvail is the content room a brand-new fragment would have once the
// ancestor stack is re-opened.
func (f *fragmenter) freshAvail() int {
	return f.maxLen - f.contextLen()
}

func (f *fragmenter) atStart() bool {
	return f.curLen == 0
}

// materialize writes the open tags of every not-yet-written ancestor,
// outermost first.
func (f *fragmenter) materialize() {
	for _, e := range f.stack {
		if !e.written {
			f.cur.WriteString(e.open)
			f.curLen += e.openLen
			e.written = true
			e.emitted = true
		}
	}
}

// boundary finishes the current fragment and starts the next one. The
// fragment is emitted only if it holds actual content; whitespace left
// hanging at the split point is dropped, then the close tags for every
// materialized ancestor are appended innermost out, so the emitted text
// parses on its own.
func (f *fragmenter) boundary() {
	if f.curLen > 0 {
		var b strings.Builder
		b.WriteString(strings.TrimRight(f.cur.String(), " \t\n"))
		for i := len(f.stack) - 1; i >= 0; i-- {
			if f.stack[i].written {
				b.WriteString(f.stack[i].close)
			}
		}
		f.fragments = append(f.fragments, b.String())
	}
	f.cur.Reset()
	f.curLen = 0
	for _, e := range f.stack {
		e.written = false
	}
}

// write places an already-serialized piece of content into the current
// fragment, inserting a boundary first when it doesn't fit. Callers verify
// the piece fits a fresh fragment.
func (f *fragmenter) write(s string) error {
	n := utf8.RuneCountInString(s)
	if n > f.avail() {
		if n > f.freshAvail() {
			return fmt.Errorf("content of %d chars cannot fit max_len %d with %d chars of tag context", n, f.maxLen, f.contextLen())
		}
		f.boundary()
	}
	f.materialize()
	f.cur.WriteString(s)
	f.curLen += n
	return nil
}

func (f *fragmenter) walk(n *html.Node) error {
	switch n.Type {
	case html.TextNode:
		return f.writeText(n.Data)
	case html.ElementNode:
		if isBlock(n) {
			return f.walkBlock(n)
		}
		return f.writeAtomic(n)
	}
	// Comments and doctypes carry no message content.
	return nil
}

// walkBlock opens a splittable element, walks its children in document
// order and closes it. The open tag is deferred until content arrives; a
// boundary between two children closes every materialized ancestor and the
// next fragment re-opens the stack before continuing.
func (f *fragmenter) walkBlock(n *html.Node) error {
	e := &openElem{node: n, open: openTag(n), close: closeTag(n)}
	e.openLen = utf8.RuneCountInString(e.open)
	e.closeLen = utf8.RuneCountInString(e.close)
	if e.openLen+e.closeLen > f.freshAvail() {
		return &UnsplittableElementError{
			Tag:         n.Data,
			RequiredLen: f.contextLen() + e.openLen + e.closeLen,
			MaxLen:      f.maxLen,
		}
	}
	f.stack = append(f.stack, e)

	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if err := f.walk(c); err != nil {
			return err
		}
	}

	if !e.written && !e.emitted {
		// The element was empty in the source; keep it rather than drop it.
		if f.avail() < 0 {
			f.boundary()
		}
		f.materialize()
	}
	f.stack = f.stack[:len(f.stack)-1]
	if e.written {
		f.cur.WriteString(e.close)
		f.curLen += e.closeLen
	}
	return nil
}

// writeAtomic emits an unsplittable element whole: into the current
// fragment when it fits, into a fresh one when only that helps, or fails
// when not even a fresh fragment can hold it.
func (f *fragmenter) writeAtomic(n *html.Node) error {
	s, err := renderNode(n)
	if err != nil {
		return fmt.Errorf("render element: %w", err)
	}
	size := utf8.RuneCountInString(s)
	if size > f.freshAvail() {
		return &UnsplittableElementError{
			Tag:         n.Data,
			RequiredLen: size + f.contextLen(),
			MaxLen:      f.maxLen,
		}
	}
	return f.write(s)
}

// writeText appends escaped text, splitting it across fragments when
// needed. Splits prefer the last whitespace that fits; a single word
// longer than a whole fresh fragment is cut at a character boundary.
func (f *fragmenter) writeText(text string) error {
	for {
		if f.atStart() {
			text = strings.TrimLeft(text, " \t\r\n")
		}
		if text == "" {
			return nil
		}
		fit, lastSpace := fitPrefix(text, f.avail())
		if fit == len(text) {
			return f.write(html.EscapeString(text))
		}
		switch {
		case lastSpace >= 0:
			cut := lastSpace + 1
			if err := f.write(html.EscapeString(text[:cut])); err != nil {
				return err
			}
			text = text[cut:]
		case f.atStart():
			if fit == 0 {
				return fmt.Errorf("tag context of %d chars leaves no room for text within max_len %d", f.contextLen(), f.maxLen)
			}
			if err := f.write(html.EscapeString(text[:fit])); err != nil {
				return err
			}
			text = text[fit:]
		default:
			f.boundary()
		}
	}
}
