package pdf

// inheritableKeys are page attributes a Page may take from its ancestors
var inheritableKeys = []Name{"Resources", "MediaBox", "CropBox", "Rotate"}

// extraPageVisits is how many visits beyond one per object a page tree walk
// may make. Shared nodes are walked once per parent, so without a bound a
// small tree of shared kids can take exponential time.
const extraPageVisits = 1 << 16

// pageEntry is one page of the page list with the attributes it inherits
type pageEntry struct {
	ref       Reference
	inherited Dictionary
}

// buildPageList walks the page tree depth first from the catalog. A node
// that appears again on its own path is a cycle and fails the walk.
func (d *Document) buildPageList() error {
	cat, ok := d.objects[d.root.ObjectNumber].Value.(Dictionary)
	if !ok {
		return errObject(KindMissingRoot, d.root.ObjectNumber, "root is not a dictionary")
	}

	d.pages = nil
	d.treeNodes = map[int]bool{d.root.ObjectNumber: true}
	d.pageIndex = make(map[int]int)

	pagesRef, ok := cat.GetRef("Pages")
	if !ok {
		if _, direct := cat["Pages"]; direct {
			return errObject(KindMalformedObject, d.root.ObjectNumber, "catalog /Pages must be an indirect reference")
		}
		// a catalog without a page tree is a document with no pages
		return nil
	}

	onPath := map[int]bool{d.root.ObjectNumber: true}
	budget := 2*len(d.objects) + extraPageVisits
	return d.walkPageNode(pagesRef, Dictionary{}, onPath, &budget)
}

func (d *Document) walkPageNode(ref Reference, inherited Dictionary, onPath map[int]bool, budget *int) error {
	num := ref.ObjectNumber
	if *budget <= 0 {
		return errObject(KindMalformedObject, num, "page tree visits too many nodes")
	}
	*budget--
	if onPath[num] {
		return errObject(KindCyclicPageTree, num, "page tree node %s revisited on its own path", ref)
	}

	node, ok := d.objects[num].Value.(Dictionary)
	if !ok {
		if _, exists := d.objects[num]; !exists {
			return errObject(KindDanglingReference, num, "page tree node %s does not exist", ref)
		}
		return errObject(KindMalformedObject, num, "page tree node is not a dictionary")
	}

	nodeType, _ := node.GetName("Type")
	kids, hasKids := d.Resolve(node.Get("Kids")).(Array)
	if nodeType == "Page" || (nodeType != "Pages" && !hasKids) {
		if _, seen := d.pageIndex[num]; !seen {
			d.pageIndex[num] = len(d.pages)
		}
		d.pages = append(d.pages, pageEntry{ref: ref, inherited: inherited})
		return nil
	}

	d.treeNodes[num] = true
	onPath[num] = true
	defer delete(onPath, num)

	// the attributes this node passes down to its kids
	next := inherited
	copied := false
	for _, key := range inheritableKeys {
		v, ok := node[key]
		if !ok {
			continue
		}
		if !copied {
			next = copyDict(inherited)
			copied = true
		}
		next[key] = v
	}

	for _, kid := range kids {
		kidRef, ok := kid.(Reference)
		if !ok {
			return errObject(KindMalformedObject, num, "page tree kid is not an indirect reference")
		}
		if err := d.walkPageNode(kidRef, next, onPath, budget); err != nil {
			return err
		}
	}
	return nil
}

func copyDict(d Dictionary) Dictionary {
	out := make(Dictionary, len(d)+1)
	for k, v := range d {
		out[k] = v
	}
	return out
}

// NumPages returns the number of pages
func (d *Document) NumPages() int {
	return len(d.pages)
}

// PageRef returns the reference of the page at zero-based index i
func (d *Document) PageRef(i int) (Reference, error) {
	if i < 0 || i >= len(d.pages) {
		return Reference{}, errPage(KindPageIndexOutOfRange, i, "document has %d pages", len(d.pages))
	}
	return d.pages[i].ref, nil
}

// Page is a read-only view of one page
type Page struct {
	// Index is the zero-based position in the page list
	Index int
	Ref   Reference
	// Dictionary is the page dictionary with inherited attributes filled in
	Dictionary Dictionary

	doc *Document
}

// Rectangle represents a PDF rectangle
type Rectangle struct {
	LLX, LLY, URX, URY float64
}

// Width returns the rectangle width
func (r Rectangle) Width() float64 { return r.URX - r.LLX }

// Height returns the rectangle height
func (r Rectangle) Height() float64 { return r.URY - r.LLY }

// Page returns the page at zero-based index i
func (d *Document) Page(i int) (*Page, error) {
	if i < 0 || i >= len(d.pages) {
		return nil, errPage(KindPageIndexOutOfRange, i, "document has %d pages", len(d.pages))
	}
	return &Page{Index: i, Ref: d.pages[i].ref, Dictionary: d.effectivePage(i), doc: d}, nil
}

// effectivePage returns a fresh copy of the page dictionary with inherited
// attributes it does not set itself
func (d *Document) effectivePage(i int) Dictionary {
	entry := d.pages[i]
	own, _ := d.objects[entry.ref.ObjectNumber].Value.(Dictionary)
	out := make(Dictionary, len(own)+len(entry.inherited))
	for k, v := range entry.inherited {
		out[k] = v
	}
	for k, v := range own {
		out[k] = v
	}
	return out
}

// MediaBox returns the page media box, US Letter when absent
func (p *Page) MediaBox() Rectangle {
	if arr, ok := p.doc.Resolve(p.Dictionary.Get("MediaBox")).(Array); ok && len(arr) == 4 {
		return p.arrayToRectangle(arr)
	}
	return Rectangle{0, 0, 612, 792}
}

// CropBox returns the page crop box, defaulting to the media box
func (p *Page) CropBox() Rectangle {
	if arr, ok := p.doc.Resolve(p.Dictionary.Get("CropBox")).(Array); ok && len(arr) == 4 {
		return p.arrayToRectangle(arr)
	}
	return p.MediaBox()
}

// Rotate returns the page rotation in degrees, normalized to 0..270
func (p *Page) Rotate() int {
	r, ok := p.doc.Resolve(p.Dictionary.Get("Rotate")).(Integer)
	if !ok {
		return 0
	}
	deg := int(r) % 360
	if deg < 0 {
		deg += 360
	}
	return deg
}

// arrayToRectangle converts a PDF array to a Rectangle
func (p *Page) arrayToRectangle(arr Array) Rectangle {
	return Rectangle{
		LLX: objectToFloat(p.doc.Resolve(arr[0])),
		LLY: objectToFloat(p.doc.Resolve(arr[1])),
		URX: objectToFloat(p.doc.Resolve(arr[2])),
		URY: objectToFloat(p.doc.Resolve(arr[3])),
	}
}
