package pdf

// MergeDocuments combines docs into a new document whose pages are the
// pages of each input in order. Every input gets its own renumbering map,
// so passing the same document twice yields two independent copies. The
// inputs are not modified.
func MergeDocuments(docs []*Document) (*Document, error) {
	if len(docs) == 0 {
		return nil, errAt(KindEmptyInput, -1, "no documents to merge")
	}

	version := ""
	for i, doc := range docs {
		if doc == nil {
			return nil, errAt(KindEmptyInput, -1, "document %d is nil", i)
		}
		if compareVersions(doc.Version(), version) > 0 {
			version = doc.Version()
		}
	}

	b := NewBuilder(version)
	catalogRef := b.Reserve()
	pagesRef := b.Reserve()

	kids := Array{}
	for _, doc := range docs {
		selected := make(map[int]bool, len(doc.pages))
		for _, p := range doc.pages {
			selected[p.ref.ObjectNumber] = true
		}

		c := newClosureCopier(doc, b, pagesRef, selected)
		for i := range doc.pages {
			ref, err := c.copyPage(i)
			if err != nil {
				return nil, err
			}
			kids = append(kids, ref)
		}
	}

	b.Set(pagesRef, newPagesNode(kids))
	b.Set(catalogRef, Dictionary{
		"Type":  Name("Catalog"),
		"Pages": pagesRef,
	})
	return b.Build(catalogRef)
}

// newPagesNode returns a flat page tree root over kids
func newPagesNode(kids Array) Dictionary {
	return Dictionary{
		"Type":  Name("Pages"),
		"Kids":  kids,
		"Count": Integer(len(kids)),
	}
}
