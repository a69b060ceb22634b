package pdf

// closureCopier copies page closures from one source document into a
// Builder. refs is the renumbering map for this source: every source
// object is copied at most once, so resources shared by several pages stay
// shared in the output.
type closureCopier struct {
	src    *Document
	b      *Builder
	parent Reference // the new Pages node

	refs map[int]Reference
	// source pages that are part of the output
	selected map[int]bool
	// source pages whose first copy already fills a page tree slot
	placed map[int]bool
}

func newClosureCopier(src *Document, b *Builder, parent Reference, selected map[int]bool) *closureCopier {
	return &closureCopier{
		src:      src,
		b:        b,
		parent:   parent,
		refs:     make(map[int]Reference),
		selected: selected,
		placed:   make(map[int]bool),
	}
}

// copyPage copies page i with its closure and returns the reference to put
// in the new page tree. A page listed twice gets a second page object that
// shares everything else with the first.
func (c *closureCopier) copyPage(i int) (Reference, error) {
	num := c.src.pages[i].ref.ObjectNumber
	if ref, ok := c.refs[num]; ok && !c.placed[num] {
		c.placed[num] = true
		return ref, nil
	}

	ref := c.b.Reserve()
	if _, ok := c.refs[num]; !ok {
		c.refs[num] = ref
	}
	c.placed[num] = true
	if err := c.fillPage(ref, i); err != nil {
		return Reference{}, err
	}
	return ref, nil
}

// fillPage stores the translated page dictionary of page i under ref
func (c *closureCopier) fillPage(ref Reference, i int) error {
	dict := c.src.effectivePage(i)
	delete(dict, "Parent")

	out, err := rewriteRefs(dict, c.mapRef)
	if err != nil {
		return err
	}
	page := out.(Dictionary)
	page["Type"] = Name("Page")
	page["Parent"] = c.parent
	c.b.Set(ref, page)
	return nil
}

// mapRef translates a source reference into the output, copying the
// referenced object on first sight. The new number is reserved before the
// object is translated so reference cycles terminate.
func (c *closureCopier) mapRef(ref Reference) (Object, error) {
	num := ref.ObjectNumber

	// catalog and page tree scaffolding is rebuilt, never copied
	if c.src.treeNodes[num] {
		return Null{}, nil
	}
	if newRef, ok := c.refs[num]; ok {
		return newRef, nil
	}

	if idx, isPage := c.src.pageIndex[num]; isPage {
		if !c.selected[num] {
			return Null{}, nil
		}
		newRef := c.b.Reserve()
		c.refs[num] = newRef
		if err := c.fillPage(newRef, idx); err != nil {
			return nil, err
		}
		return newRef, nil
	}

	obj, ok := c.src.Lookup(ref)
	if !ok {
		return nil, errObject(KindUnresolvableReference, num, "source object missing during copy")
	}

	newRef := c.b.Reserve()
	c.refs[num] = newRef
	out, err := rewriteRefs(obj, c.mapRef)
	if err != nil {
		return nil, err
	}
	c.b.Set(newRef, out)
	return newRef, nil
}
