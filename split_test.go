package msgsplit

import (
	"errors"
	"strings"
	"testing"
	"unicode/utf8"
)

func TestSplit_ShortMessageSingleFragment(t *testing.T) {
	frags, err := Split("<p>Hello, world</p>", 4096)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(frags) != 1 {
		t.Fatalf("expected 1 fragment, got %d", len(frags))
	}
	if frags[0] != "<p>Hello, world</p>" {
		t.Errorf("unexpected fragment: %q", frags[0])
	}
}

func TestSplit_EmptyInput(t *testing.T) {
	for _, src := range []string{"", "   \n\t  "} {
		frags, err := Split(src, 4096)
		if err != nil {
			t.Fatalf("input %q: unexpected error: %v", src, err)
		}
		if len(frags) != 0 {
			t.Errorf("input %q: expected no fragments, got %d", src, len(frags))
		}
	}
}

func TestSplit_InvalidMaxLen(t *testing.T) {
	if _, err := Split("<p>x</p>", 0); err == nil {
		t.Fatal("expected error for max_len 0")
	}
	if _, err := Split("<p>x</p>", -5); err == nil {
		t.Fatal("expected error for negative max_len")
	}
}

func TestSplit_BlockSplitKeepsWrapper(t *testing.T) {
	src := "<div>" + strings.Repeat("word ", 500) + "</div>"
	frags, err := Split(src, 100)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(frags) < 2 {
		t.Fatalf("expected multiple fragments, got %d", len(frags))
	}
	if err := Verify(frags, 100); err != nil {
		t.Fatalf("verify failed: %v", err)
	}
	for i, frag := range frags {
		if !strings.HasPrefix(frag, "<div>") {
			t.Errorf("fragment %d does not start with <div>: %q", i, frag)
		}
		if !strings.HasSuffix(frag, "</div>") {
			t.Errorf("fragment %d does not end with </div>: %q", i, frag)
		}
	}

	var got []string
	for _, frag := range frags {
		got = append(got, strings.Fields(TextContent(frag))...)
	}
	want := strings.Fields(TextContent(src))
	if len(got) != len(want) {
		t.Fatalf("word count mismatch: got %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("word %d: got %q, want %q", i, got[i], want[i])
		}
	}
}

func TestSplit_NestedBlocksReopened(t *testing.T) {
	src := "<div><p>" + strings.Repeat("alpha beta ", 20) + "</p></div>"
	frags, err := Split(src, 40)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(frags) < 2 {
		t.Fatalf("expected multiple fragments, got %d", len(frags))
	}
	if err := Verify(frags, 40); err != nil {
		t.Fatalf("verify failed: %v", err)
	}
	for i, frag := range frags {
		if !strings.HasPrefix(frag, "<div><p>") {
			t.Errorf("fragment %d missing reopened ancestors: %q", i, frag)
		}
		if !strings.HasSuffix(frag, "</p></div>") {
			t.Errorf("fragment %d missing closing ancestors: %q", i, frag)
		}
	}
}

func TestSplit_AttributesPreservedOnReopen(t *testing.T) {
	open := `<div class="note" data-id="7">`
	src := open + strings.Repeat("lorem ipsum ", 10) + "</div>"
	frags, err := Split(src, 80)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(frags) < 2 {
		t.Fatalf("expected multiple fragments, got %d", len(frags))
	}
	for i, frag := range frags {
		if !strings.HasPrefix(frag, open) {
			t.Errorf("fragment %d lost attributes: %q", i, frag)
		}
	}
}

func TestSplit_AtomicOverflowFails(t *testing.T) {
	src := "<a href='x'>" + strings.Repeat("y", 5000) + "</a>"
	frags, err := Split(src, 4096)
	if err == nil {
		t.Fatal("expected an error for oversized atomic element")
	}
	if frags != nil {
		t.Errorf("expected no fragments on failure, got %d", len(frags))
	}
	var unsplit *UnsplittableElementError
	if !errors.As(err, &unsplit) {
		t.Fatalf("expected UnsplittableElementError, got %T: %v", err, err)
	}
	if unsplit.Tag != "a" {
		t.Errorf("expected tag a, got %q", unsplit.Tag)
	}
	if unsplit.RequiredLen <= unsplit.MaxLen {
		t.Errorf("required %d should exceed max_len %d", unsplit.RequiredLen, unsplit.MaxLen)
	}
	if unsplit.MaxLen != 4096 {
		t.Errorf("expected max_len 4096, got %d", unsplit.MaxLen)
	}
}

func TestSplit_AtomicInsideBlockOverflow(t *testing.T) {
	src := `<div><a href="u">` + strings.Repeat("y", 3000) + "</a></div>"
	_, err := Split(src, 1000)
	var unsplit *UnsplittableElementError
	if !errors.As(err, &unsplit) {
		t.Fatalf("expected UnsplittableElementError, got %v", err)
	}
	if unsplit.Tag != "a" {
		t.Errorf("expected tag a, got %q", unsplit.Tag)
	}
	// Required length counts the ancestor <div> overhead too.
	if unsplit.RequiredLen <= 3000 {
		t.Errorf("required length %d should include tag overhead", unsplit.RequiredLen)
	}
}

func TestSplit_SplitsBetweenAtomicsNeverInside(t *testing.T) {
	code := "<code>" + strings.Repeat("a", 30) + "</code>"
	src := "<div>" + code + code + code + "</div>"
	frags, err := Split(src, 60)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(frags) != 3 {
		t.Fatalf("expected 3 fragments, got %d", len(frags))
	}
	if err := Verify(frags, 60); err != nil {
		t.Fatalf("verify failed: %v", err)
	}
	total := 0
	for i, frag := range frags {
		opens := strings.Count(frag, "<code>")
		closes := strings.Count(frag, "</code>")
		if opens != closes {
			t.Errorf("fragment %d splits inside <code>: %q", i, frag)
		}
		total += opens
	}
	if total != 3 {
		t.Errorf("expected 3 intact code spans across fragments, got %d", total)
	}
}

func TestSplit_UnknownTagIsAtomic(t *testing.T) {
	body := strings.Repeat("z", 100)
	_, err := Split("<blockquote>"+body+"</blockquote>", 50)
	var unsplit *UnsplittableElementError
	if !errors.As(err, &unsplit) {
		t.Fatalf("expected UnsplittableElementError for unknown tag, got %v", err)
	}
	if unsplit.Tag != "blockquote" {
		t.Errorf("expected tag blockquote, got %q", unsplit.Tag)
	}

	// The same content inside a splittable tag succeeds.
	frags, err := Split("<div>"+body+"</div>", 50)
	if err != nil {
		t.Fatalf("unexpected error for block tag: %v", err)
	}
	if len(frags) < 2 {
		t.Errorf("expected block content to split, got %d fragments", len(frags))
	}
}

func TestSplit_EmptyElementKept(t *testing.T) {
	frags, err := Split("<p></p>", 4096)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(frags) != 1 || frags[0] != "<p></p>" {
		t.Fatalf("expected single <p></p> fragment, got %v", frags)
	}
}

func TestSplit_PlainTextWordBoundaries(t *testing.T) {
	frags, err := Split("one two three four five six", 20)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(frags) != 2 {
		t.Fatalf("expected 2 fragments, got %d: %v", len(frags), frags)
	}
	if frags[0] != "one two three four" {
		t.Errorf("boundary whitespace not trimmed: %q", frags[0])
	}
	for i, frag := range frags {
		if len(frag) > 20 {
			t.Errorf("fragment %d too long: %d chars", i, len(frag))
		}
		if strings.Contains(frag, "<") {
			t.Errorf("fragment %d contains markup: %q", i, frag)
		}
	}
	got := strings.Fields(strings.Join(frags, " "))
	want := []string{"one", "two", "three", "four", "five", "six"}
	if len(got) != len(want) {
		t.Fatalf("word sequence mismatch: got %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("word %d: got %q, want %q", i, got[i], want[i])
		}
	}
}

func TestSplit_LongWordHardCut(t *testing.T) {
	frags, err := Split(strings.Repeat("x", 50), 20)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(frags) != 3 {
		t.Fatalf("expected 3 fragments, got %d", len(frags))
	}
	joined := strings.Join(frags, "")
	if joined != strings.Repeat("x", 50) {
		t.Errorf("hard cut lost characters: %q", joined)
	}
	for i, frag := range frags {
		if len(frag) > 20 {
			t.Errorf("fragment %d too long: %d", i, len(frag))
		}
	}
}

func TestSplit_MultibyteAtomicCountedInCharacters(t *testing.T) {
	// 2,066 characters but over 4,096 bytes: must fit a 4096 budget.
	src := "<a href='x'>" + strings.Repeat("я", 2050) + "</a>"
	frags, err := Split(src, 4096)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(frags) != 1 {
		t.Fatalf("expected 1 fragment, got %d", len(frags))
	}
	if n := utf8.RuneCountInString(frags[0]); n > 4096 {
		t.Errorf("fragment is %d chars, budget 4096", n)
	}
	if len(frags[0]) <= 4096 {
		t.Fatalf("test input no longer exceeds the budget in bytes (%d)", len(frags[0]))
	}
}

func TestSplit_MultibyteTextCountedInCharacters(t *testing.T) {
	src := "<div>" + strings.Repeat("слово ", 40) + "</div>"
	frags, err := Split(src, 100)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(frags) < 2 {
		t.Fatalf("expected multiple fragments, got %d", len(frags))
	}
	if err := Verify(frags, 100); err != nil {
		t.Fatalf("verify failed: %v", err)
	}
	overByteBudget := false
	for _, frag := range frags {
		if len(frag) > 100 {
			overByteBudget = true
		}
	}
	if !overByteBudget {
		t.Error("expected at least one fragment over 100 bytes while within 100 chars")
	}

	var got []string
	for _, frag := range frags {
		got = append(got, strings.Fields(TextContent(frag))...)
	}
	if len(got) != 40 {
		t.Fatalf("expected 40 words across fragments, got %d", len(got))
	}
	for i, w := range got {
		if w != "слово" {
			t.Fatalf("word %d: got %q", i, w)
		}
	}
}

func TestSplit_SplitPointSpaceDropped(t *testing.T) {
	text := strings.TrimRight(strings.Repeat("ab ", 50), " ")
	frags, err := Split("<div>"+text+"</div>", 30)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(frags) < 2 {
		t.Fatalf("expected multiple fragments, got %d", len(frags))
	}
	for i, frag := range frags {
		if strings.Contains(frag, " </div>") {
			t.Errorf("fragment %d keeps a hanging space before the close tag: %q", i, frag)
		}
	}
}

func TestSplit_EscapesTextConsistently(t *testing.T) {
	frags, err := Split("<p>a &amp; b</p>", 4096)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(frags) != 1 {
		t.Fatalf("expected 1 fragment, got %d", len(frags))
	}
	if frags[0] != "<p>a &amp; b</p>" {
		t.Errorf("unexpected fragment: %q", frags[0])
	}
	if got := TextContent(frags[0]); got != "a & b" {
		t.Errorf("text content: got %q, want %q", got, "a & b")
	}
}

func TestSplit_CommentsDropped(t *testing.T) {
	frags, err := Split("<p>hi<!-- note --></p>", 4096)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(frags) != 1 || frags[0] != "<p>hi</p>" {
		t.Fatalf("expected [<p>hi</p>], got %v", frags)
	}
}

func TestSplitMessage_DefaultBudget(t *testing.T) {
	frags, err := SplitMessage("<b>ok</b>")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(frags) != 1 {
		t.Fatalf("expected 1 fragment, got %d", len(frags))
	}
	if len(frags[0]) > DefaultMaxLen {
		t.Errorf("fragment exceeds default budget")
	}
}
