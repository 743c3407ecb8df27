package msgsplit

import "fmt"

// UnsplittableElementError reports an atomic element whose serialized form
// cannot fit a single fragment, even with minimal surrounding context.
// RequiredLen includes the unavoidable open/close overhead of the block
// ancestors that would have to be re-opened around the element.
type UnsplittableElementError struct {
	Tag         string
	RequiredLen int
	MaxLen      int
}

func (e *UnsplittableElementError) Error() string {
	return fmt.Sprintf("unsplittable element <%s> requires %d chars, max_len is %d", e.Tag, e.RequiredLen, e.MaxLen)
}
