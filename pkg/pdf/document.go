package pdf

import (
	"bytes"
	"log/slog"
	"sort"

	"github.com/pkg/errors"
)

// DefaultVersion is used when the header carries no readable version
const DefaultVersion = "1.4"

// ParseOptions configures ParseDocument. The zero value is strict parsing.
type ParseOptions struct {
	// Lenient replaces references to free or missing objects with null and
	// drops objects whose bodies cannot be parsed, instead of rejecting the
	// document.
	Lenient bool
}

// Document is an immutable PDF object graph: an arena of indirect objects
// keyed by object number, the catalog reference and the derived page list.
// A Document must not be modified once constructed; it may be shared by
// any number of goroutines.
type Document struct {
	version string
	root    Reference
	info    Reference
	objects map[int]IndirectObject

	pages     []pageEntry
	treeNodes map[int]bool // catalog and intermediate page tree nodes
	pageIndex map[int]int  // leaf page object number -> first page index
}

// docParser carries the per-document parse state
type docParser struct {
	data    []byte
	opts    ParseOptions
	xref    map[int]xrefEntry
	trailer Dictionary
	rebuilt bool

	objects    map[int]IndirectObject
	objStreams map[int]*objectStream
	structural map[int]bool // xref and object streams
	resolving  map[int]bool
}

func newDocParser(data []byte, opts ParseOptions) *docParser {
	return &docParser{
		data:       data,
		opts:       opts,
		xref:       make(map[int]xrefEntry),
		objects:    make(map[int]IndirectObject),
		objStreams: make(map[int]*objectStream),
		structural: make(map[int]bool),
		resolving:  make(map[int]bool),
	}
}

// NewDocument parses PDF data with default options
func NewDocument(data []byte) (*Document, error) {
	return ParseDocument(data, ParseOptions{})
}

// ParseDocument parses a complete PDF file into a Document. Either the
// whole document resolves or an error is returned; stream payloads are
// copied so data may be reused after the call.
func ParseDocument(data []byte, opts ParseOptions) (*Document, error) {
	if !hasTrailer(data) {
		return nil, errAt(KindTrailerNotFound, int64(len(data)), "no trailer or startxref keyword")
	}

	dp := newDocParser(data, opts)
	if err := dp.loadXRef(); err != nil {
		return nil, err
	}
	if _, ok := dp.trailer["Encrypt"]; ok {
		return nil, errAt(KindEncrypted, -1, "decryption is not supported")
	}

	if err := dp.loadObjects(); err != nil {
		if dp.rebuilt {
			return nil, err
		}
		slog.Debug("object table unusable, rebuilding", slog.Any("err", err))
		if rerr := dp.rebuild(); rerr != nil {
			return nil, err
		}
		if err := dp.loadObjects(); err != nil {
			return nil, err
		}
	}

	rootRef, ok := dp.trailer.GetRef("Root")
	if !ok {
		return nil, errAt(KindMissingRoot, -1, "trailer has no /Root reference")
	}
	if _, ok := dp.objects[rootRef.ObjectNumber]; !ok {
		return nil, errObject(KindMissingRoot, rootRef.ObjectNumber, "root reference does not resolve")
	}

	if err := dp.checkReferences(); err != nil {
		return nil, err
	}

	doc := &Document{
		version: dp.version(),
		root:    rootRef,
		objects: dp.objects,
	}
	if infoRef, ok := dp.trailer.GetRef("Info"); ok {
		if _, exists := dp.objects[infoRef.ObjectNumber]; exists {
			doc.info = infoRef
		} else {
			slog.Debug("dropping unresolvable /Info", slog.Int("object", infoRef.ObjectNumber))
		}
	}

	if err := doc.buildPageList(); err != nil {
		return nil, err
	}
	return doc, nil
}

// loadXRef reads the cross-reference chain, falling back to a rebuild
func (dp *docParser) loadXRef() error {
	offset, ok := findStartXRef(dp.data)
	if ok {
		sections, err := dp.loadXRefChain(offset)
		if err == nil {
			dp.mergeSections(sections)
			if dp.trailer != nil {
				return nil
			}
		} else {
			slog.Debug("cross-reference chain unreadable", slog.Int64("startxref", offset), slog.Any("err", err))
		}
	}
	return dp.rebuild()
}

func (dp *docParser) rebuild() error {
	dp.rebuilt = true
	dp.xref = make(map[int]xrefEntry)
	dp.trailer = nil
	dp.objects = make(map[int]IndirectObject)
	dp.objStreams = make(map[int]*objectStream)
	dp.structural = make(map[int]bool)

	sec, err := dp.rebuildXRef()
	if err != nil {
		return err
	}
	dp.mergeSections([]xrefSection{sec})
	return nil
}

// mergeSections folds sections (newest first) into the parser state. The
// most recent entry for an object number wins.
func (dp *docParser) mergeSections(sections []xrefSection) {
	for _, sec := range sections {
		for num, entry := range sec.entries {
			if _, seen := dp.xref[num]; !seen {
				dp.xref[num] = entry
			}
		}
		if sec.streamObj > 0 {
			dp.structural[sec.streamObj] = true
		}
		if dp.trailer == nil {
			dp.trailer = make(Dictionary, len(sec.trailer))
		}
		for k, v := range sec.trailer {
			if _, exists := dp.trailer[k]; !exists {
				dp.trailer[k] = v
			}
		}
	}
}

// loadObjects eagerly parses every live cross-reference entry
func (dp *docParser) loadObjects() error {
	nums := make([]int, 0, len(dp.xref))
	for num := range dp.xref {
		nums = append(nums, num)
	}
	sort.Ints(nums)

	for _, num := range nums {
		entry := dp.xref[num]
		if !entry.InUse || dp.structural[num] {
			continue
		}
		if _, done := dp.objects[num]; done {
			continue
		}

		obj, err := dp.loadObject(num, entry)
		if err != nil {
			if dp.opts.Lenient {
				slog.Debug("dropping unparsable object", slog.Int("object", num), slog.Any("err", err))
				continue
			}
			return withObject(err, num)
		}
		if isStructural(obj) {
			dp.structural[num] = true
			continue
		}
		dp.objects[num] = IndirectObject{
			Reference: Reference{ObjectNumber: num, GenerationNumber: entry.Generation},
			Value:     obj,
		}
	}

	for num := range dp.structural {
		delete(dp.objects, num)
	}
	return nil
}

// loadObject parses the object described by entry
func (dp *docParser) loadObject(num int, entry xrefEntry) (Object, error) {
	if entry.compressed() {
		return dp.compressedObject(num, entry)
	}
	if entry.Offset < 0 || entry.Offset >= int64(len(dp.data)) {
		return nil, errObject(KindMalformedXRef, num, "offset %d outside the file", entry.Offset)
	}

	p := newParserAt(dp.data, entry.Offset)
	p.resolveLength = dp.lengthResolver()
	ref, obj, err := p.ParseIndirectObject()
	if err != nil {
		return nil, err
	}
	if ref.ObjectNumber != num {
		e := errObject(KindMalformedXRef, num, "entry points at object %d", ref.ObjectNumber)
		e.Offset = entry.Offset
		return nil, e
	}
	return obj, nil
}

// lengthResolver resolves indirect stream lengths on demand
func (dp *docParser) lengthResolver() func(Reference) (int64, bool) {
	return func(ref Reference) (int64, bool) {
		num := ref.ObjectNumber
		if obj, ok := dp.objects[num]; ok {
			n, ok := obj.Value.(Integer)
			return int64(n), ok
		}
		entry, ok := dp.xref[num]
		if !ok || !entry.InUse || dp.resolving[num] {
			return 0, false
		}
		dp.resolving[num] = true
		defer delete(dp.resolving, num)

		var (
			obj Object
			err error
		)
		if entry.compressed() {
			obj, err = dp.compressedObject(num, entry)
		} else if entry.Offset >= 0 && entry.Offset < int64(len(dp.data)) {
			_, obj, err = newParserAt(dp.data, entry.Offset).ParseIndirectObject()
		} else {
			return 0, false
		}
		if err != nil {
			return 0, false
		}
		n, ok := obj.(Integer)
		return int64(n), ok
	}
}

// checkReferences enforces that every reference resolves inside the arena
func (dp *docParser) checkReferences() error {
	nums := make([]int, 0, len(dp.objects))
	for num := range dp.objects {
		nums = append(nums, num)
	}
	sort.Ints(nums)

	for _, num := range nums {
		iobj := dp.objects[num]
		if dp.opts.Lenient {
			iobj.Value = nullDangling(iobj.Value, dp.objects, num)
			dp.objects[num] = iobj
			continue
		}
		err := visitRefs(iobj.Value, func(ref Reference) error {
			if _, ok := dp.objects[ref.ObjectNumber]; !ok {
				return errObject(KindDanglingReference, num, "reference to missing object %s", ref)
			}
			return nil
		})
		if err != nil {
			return err
		}
	}
	return nil
}

// nullDangling replaces references to missing objects with null
func nullDangling(obj Object, objects map[int]IndirectObject, holder int) Object {
	out, _ := rewriteRefs(obj, func(ref Reference) (Object, error) {
		if _, ok := objects[ref.ObjectNumber]; ok {
			return ref, nil
		}
		slog.Debug("nulling dangling reference", slog.Int("object", holder), slog.String("ref", ref.String()))
		return Null{}, nil
	})
	return out
}

// version reads the header version, raised by a catalog /Version entry
func (dp *docParser) version() string {
	version := DefaultVersion
	head := dp.data
	if len(head) > 1024 {
		head = head[:1024]
	}
	if idx := bytes.Index(head, []byte("%PDF-")); idx >= 0 {
		start := idx + len("%PDF-")
		end := start
		for end < len(head) && (isDigit(head[end]) || head[end] == '.') {
			end++
		}
		if end > start {
			version = string(head[start:end])
		}
	}
	if rootRef, ok := dp.trailer.GetRef("Root"); ok {
		if cat, ok := dp.objects[rootRef.ObjectNumber].Value.(Dictionary); ok {
			if v, ok := cat.GetName("Version"); ok && compareVersions(string(v), version) > 0 {
				version = string(v)
			}
		}
	}
	return version
}

// isStructural reports objects that only exist to index other objects
func isStructural(obj Object) bool {
	s, ok := obj.(Stream)
	if !ok {
		return false
	}
	t, _ := s.Dictionary.GetName("Type")
	return t == "XRef" || t == "ObjStm"
}

// withObject attaches an object number to an engine error
func withObject(err error, num int) error {
	var e *Error
	if errors.As(err, &e) {
		if e.Object == 0 {
			cp := *e
			cp.Object = num
			return &cp
		}
		return err
	}
	return errors.Wrapf(err, "object %d", num)
}

// Version returns the PDF version, e.g. "1.7"
func (d *Document) Version() string {
	return d.version
}

// Root returns the reference of the document catalog
func (d *Document) Root() Reference {
	return d.root
}

// Catalog returns the document catalog dictionary
func (d *Document) Catalog() Dictionary {
	cat, _ := d.objects[d.root.ObjectNumber].Value.(Dictionary)
	return cat
}

// InfoRef returns the reference of the document information dictionary
func (d *Document) InfoRef() (Reference, bool) {
	return d.info, d.info.ObjectNumber > 0
}

// Lookup returns the object stored under ref's object number
func (d *Document) Lookup(ref Reference) (Object, bool) {
	iobj, ok := d.objects[ref.ObjectNumber]
	if !ok {
		return nil, false
	}
	return iobj.Value, true
}

// Resolve follows references until a direct object is reached. Missing
// objects resolve to Null.
func (d *Document) Resolve(obj Object) Object {
	for i := 0; i < 32; i++ {
		ref, ok := obj.(Reference)
		if !ok {
			return obj
		}
		next, ok := d.Lookup(ref)
		if !ok {
			return Null{}
		}
		obj = next
	}
	return Null{}
}

// Len returns the number of indirect objects in the document
func (d *Document) Len() int {
	return len(d.objects)
}

// ObjectNumbers returns all object numbers in ascending order
func (d *Document) ObjectNumbers() []int {
	nums := make([]int, 0, len(d.objects))
	for num := range d.objects {
		nums = append(nums, num)
	}
	sort.Ints(nums)
	return nums
}

// IndirectObject returns the stored object with the given number
func (d *Document) IndirectObject(num int) (IndirectObject, bool) {
	iobj, ok := d.objects[num]
	return iobj, ok
}

// compareVersions compares dotted PDF versions numerically
func compareVersions(a, b string) int {
	amaj, amin := splitVersion(a)
	bmaj, bmin := splitVersion(b)
	switch {
	case amaj != bmaj:
		return amaj - bmaj
	default:
		return amin - bmin
	}
}

func splitVersion(v string) (int, int) {
	major, minor := 0, 0
	i := 0
	for ; i < len(v) && isDigit(v[i]); i++ {
		major = major*10 + int(v[i]-'0')
	}
	if i < len(v) && v[i] == '.' {
		for i++; i < len(v) && isDigit(v[i]); i++ {
			minor = minor*10 + int(v[i]-'0')
		}
	}
	return major, minor
}
