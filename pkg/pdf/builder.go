package pdf

import "sort"

// Builder constructs a Document from scratch. Object numbers are handed
// out contiguously from 1 in the order they are reserved.
type Builder struct {
	version string
	objects map[int]IndirectObject
	next    int
	info    Reference
}

// NewBuilder returns a Builder for a document with the given version
func NewBuilder(version string) *Builder {
	if version == "" {
		version = DefaultVersion
	}
	return &Builder{
		version: version,
		objects: make(map[int]IndirectObject),
		next:    1,
	}
}

// Reserve allocates the next object number. The object must be stored with
// Set before Build.
func (b *Builder) Reserve() Reference {
	ref := Reference{ObjectNumber: b.next}
	b.next++
	return ref
}

// Set stores obj under ref
func (b *Builder) Set(ref Reference, obj Object) {
	b.objects[ref.ObjectNumber] = IndirectObject{Reference: ref, Value: obj}
}

// Add stores obj under a newly reserved number
func (b *Builder) Add(obj Object) Reference {
	ref := b.Reserve()
	b.Set(ref, obj)
	return ref
}

// SetInfo names the document information dictionary
func (b *Builder) SetInfo(ref Reference) {
	b.info = ref
}

// Build validates the graph and returns the Document rooted at root. A
// reserved number that was never set, or any reference outside the graph,
// fails with KindUnresolvableReference.
func (b *Builder) Build(root Reference) (*Document, error) {
	for num := 1; num < b.next; num++ {
		if _, ok := b.objects[num]; !ok {
			return nil, errObject(KindUnresolvableReference, num, "reserved object was never set")
		}
	}

	nums := make([]int, 0, len(b.objects))
	for num := range b.objects {
		nums = append(nums, num)
	}
	sort.Ints(nums)
	for _, num := range nums {
		err := visitRefs(b.objects[num].Value, func(ref Reference) error {
			if _, ok := b.objects[ref.ObjectNumber]; !ok {
				return errObject(KindUnresolvableReference, num, "reference to missing object %s", ref)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	if _, ok := b.objects[root.ObjectNumber]; !ok {
		return nil, errObject(KindMissingRoot, root.ObjectNumber, "root was never set")
	}
	if b.info.ObjectNumber > 0 {
		if _, ok := b.objects[b.info.ObjectNumber]; !ok {
			return nil, errObject(KindUnresolvableReference, b.info.ObjectNumber, "info dictionary was never set")
		}
	}

	doc := &Document{
		version: b.version,
		root:    root,
		info:    b.info,
		objects: b.objects,
	}
	// the builder must not be able to mutate a built document
	b.objects = make(map[int]IndirectObject)
	b.next = 1

	if err := doc.buildPageList(); err != nil {
		return nil, err
	}
	return doc, nil
}
