package pdf

import (
	"bytes"
	"strconv"

	"golang.org/x/crypto/blake2b"
)

// PageFingerprint digests page i and everything it references in a form
// that does not depend on object numbering. Pages copied by MergeDocuments
// or ExtractPages keep the fingerprint of their source page.
//
// References are written in depth-first visit order, page tree nodes and
// other pages are treated as null, and /Parent is left out.
func PageFingerprint(doc *Document, i int) ([32]byte, error) {
	if i < 0 || i >= len(doc.pages) {
		return [32]byte{}, errPage(KindPageIndexOutOfRange, i, "document has %d pages", len(doc.pages))
	}

	page := doc.effectivePage(i)
	delete(page, "Parent")
	page["Type"] = Name("Page")

	self := doc.pages[i].ref.ObjectNumber
	f := &fingerprinter{
		doc:  doc,
		self: self,
		ids:  map[int]int{self: 0},
	}
	if err := f.write(page); err != nil {
		return [32]byte{}, err
	}
	return blake2b.Sum256(f.buf.Bytes()), nil
}

type fingerprinter struct {
	doc  *Document
	self int
	ids  map[int]int
	buf  bytes.Buffer
}

// isNull reports values that a page copy would not carry
func (f *fingerprinter) isNull(obj Object) bool {
	switch v := obj.(type) {
	case nil, Null:
		return true
	case Reference:
		num := v.ObjectNumber
		if num == f.self {
			return false
		}
		if f.doc.treeNodes[num] {
			return true
		}
		if _, isPage := f.doc.pageIndex[num]; isPage {
			return true
		}
		_, ok := f.doc.Lookup(v)
		return !ok
	}
	return false
}

func (f *fingerprinter) write(obj Object) error {
	if f.isNull(obj) {
		f.buf.WriteString("null")
		return nil
	}

	switch v := obj.(type) {
	case Reference:
		id, seen := f.ids[v.ObjectNumber]
		if seen {
			f.buf.WriteString("@" + strconv.Itoa(id))
			return nil
		}
		id = len(f.ids)
		f.ids[v.ObjectNumber] = id
		f.buf.WriteString("@" + strconv.Itoa(id) + "{")
		target, _ := f.doc.Lookup(v)
		if err := f.write(target); err != nil {
			return err
		}
		f.buf.WriteByte('}')
	case Array:
		f.buf.WriteByte('[')
		for _, item := range v {
			if err := f.write(item); err != nil {
				return err
			}
			f.buf.WriteByte(' ')
		}
		f.buf.WriteByte(']')
	case Dictionary:
		f.buf.WriteString("<<")
		for _, k := range v.Keys() {
			if f.isNull(v[k]) {
				continue
			}
			writeName(&f.buf, k)
			f.buf.WriteByte(' ')
			if err := f.write(v[k]); err != nil {
				return err
			}
			f.buf.WriteByte(' ')
		}
		f.buf.WriteString(">>")
	case Stream:
		dict := copyDict(v.Dictionary)
		dict["Length"] = Integer(len(v.Data))
		if err := f.write(dict); err != nil {
			return err
		}
		f.buf.WriteString("stream ")
		f.buf.WriteString(strconv.Itoa(len(v.Data)))
		f.buf.WriteByte(' ')
		f.buf.Write(v.Data)
	default:
		return writeObject(&f.buf, obj)
	}
	return nil
}
