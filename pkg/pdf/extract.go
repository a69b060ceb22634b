package pdf

import (
	"strconv"
	"strings"
)

// ExtractPages returns a new document holding the pages at the given
// zero-based indices, in the order given. Indices may repeat; repeated
// pages share their resources. All indices are validated before anything
// is copied.
func ExtractPages(doc *Document, indices []int) (*Document, error) {
	if doc == nil || len(indices) == 0 {
		return nil, errAt(KindEmptyInput, -1, "no pages to extract")
	}
	for _, i := range indices {
		if i < 0 || i >= len(doc.pages) {
			return nil, errPage(KindPageIndexOutOfRange, i, "document has %d pages", len(doc.pages))
		}
	}

	b := NewBuilder(doc.Version())
	catalogRef := b.Reserve()
	pagesRef := b.Reserve()

	selected := make(map[int]bool, len(indices))
	for _, i := range indices {
		selected[doc.pages[i].ref.ObjectNumber] = true
	}

	c := newClosureCopier(doc, b, pagesRef, selected)
	kids := make(Array, 0, len(indices))
	for _, i := range indices {
		ref, err := c.copyPage(i)
		if err != nil {
			return nil, err
		}
		kids = append(kids, ref)
	}

	b.Set(pagesRef, newPagesNode(kids))
	b.Set(catalogRef, Dictionary{
		"Type":  Name("Catalog"),
		"Pages": pagesRef,
	})
	return b.Build(catalogRef)
}

// SplitDocument returns one single-page document per page of doc. It is
// exactly NumPages calls of ExtractPages with one index each.
func SplitDocument(doc *Document) ([]*Document, error) {
	if doc == nil || doc.NumPages() == 0 {
		return nil, errAt(KindEmptyInput, -1, "document has no pages")
	}
	out := make([]*Document, 0, doc.NumPages())
	for i := 0; i < doc.NumPages(); i++ {
		page, err := ExtractPages(doc, []int{i})
		if err != nil {
			return nil, err
		}
		out = append(out, page)
	}
	return out, nil
}

// ParsePageRanges converts a 1-based range list such as "1-3,5,8-" into
// zero-based page indices. An open end runs to the last page.
func ParsePageRanges(ranges string, pageCount int) ([]int, error) {
	var indices []int
	for _, part := range strings.Split(ranges, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		first, last := part, part
		if dash := strings.Index(part, "-"); dash >= 0 {
			first, last = strings.TrimSpace(part[:dash]), strings.TrimSpace(part[dash+1:])
			if first == "" {
				first = "1"
			}
			if last == "" {
				last = strconv.Itoa(pageCount)
			}
		}

		lo, err := strconv.Atoi(first)
		if err != nil {
			return nil, errAt(KindPageIndexOutOfRange, -1, "invalid page number %q", first)
		}
		hi, err := strconv.Atoi(last)
		if err != nil {
			return nil, errAt(KindPageIndexOutOfRange, -1, "invalid page number %q", last)
		}
		for _, n := range []int{lo, hi} {
			if n < 1 || n > pageCount {
				return nil, errPage(KindPageIndexOutOfRange, n-1, "page %d not in 1-%d", n, pageCount)
			}
		}

		step := 1
		if hi < lo {
			step = -1
		}
		for n := lo; ; n += step {
			indices = append(indices, n-1)
			if n == hi {
				break
			}
		}
	}
	if len(indices) == 0 {
		return nil, errAt(KindEmptyInput, -1, "page range %q selects no pages", ranges)
	}
	return indices, nil
}
