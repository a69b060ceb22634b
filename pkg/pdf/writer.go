package pdf

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/pkg/errors"
	"golang.org/x/crypto/blake2b"
)

// WriteOptions configures SerializeDocument. The zero value writes a
// classic cross-reference table and leaves stream payloads untouched.
type WriteOptions struct {
	// XRefStream writes a compressed cross-reference stream instead of a
	// classic table.
	XRefStream bool
	// Compress flate-encodes streams that carry no filter.
	Compress bool
}

// binaryMarker follows the header so transfer tools treat the file as binary
const binaryMarker = "%\xe2\xe3\xcf\xd3\n"

// SerializeDocument renders doc as a complete PDF file. The output depends
// only on doc and opts. A reference to an object outside the document
// fails with KindUnresolvableReference and no bytes are returned.
func SerializeDocument(doc *Document, opts WriteOptions) ([]byte, error) {
	if doc == nil {
		return nil, errAt(KindEmptyInput, -1, "no document to serialize")
	}
	w := &writer{doc: doc, opts: opts}
	if err := w.checkClosed(); err != nil {
		return nil, err
	}
	if err := w.write(); err != nil {
		return nil, err
	}
	return w.buf.Bytes(), nil
}

// WriteTo serializes the document with default options
func (d *Document) WriteTo(out io.Writer) (int64, error) {
	data, err := SerializeDocument(d, WriteOptions{})
	if err != nil {
		return 0, err
	}
	n, err := out.Write(data)
	return int64(n), errors.Wrap(err, "write pdf")
}

// WriteFile serializes doc and writes it to name
func WriteFile(doc *Document, name string, opts WriteOptions) error {
	data, err := SerializeDocument(doc, opts)
	if err != nil {
		return err
	}
	return errors.Wrapf(os.WriteFile(name, data, 0644), "write %s", name)
}

type writer struct {
	doc  *Document
	opts WriteOptions
	buf  bytes.Buffer

	nums    []int
	offsets map[int]int64
}

// checkClosed verifies that every reference resolves inside the document
func (w *writer) checkClosed() error {
	w.nums = w.doc.ObjectNumbers()
	refs := []Reference{w.doc.root}
	if w.doc.info.ObjectNumber > 0 {
		refs = append(refs, w.doc.info)
	}
	for _, ref := range refs {
		if _, ok := w.doc.objects[ref.ObjectNumber]; !ok {
			return errObject(KindUnresolvableReference, ref.ObjectNumber, "trailer references missing object")
		}
	}
	for _, num := range w.nums {
		err := visitRefs(w.doc.objects[num].Value, func(ref Reference) error {
			if _, ok := w.doc.objects[ref.ObjectNumber]; !ok {
				return errObject(KindUnresolvableReference, num, "reference to missing object %s", ref)
			}
			return nil
		})
		if err != nil {
			return err
		}
	}
	return nil
}

func (w *writer) write() error {
	w.offsets = make(map[int]int64, len(w.nums))

	w.buf.WriteString("%PDF-")
	w.buf.WriteString(w.doc.version)
	w.buf.WriteByte('\n')
	w.buf.WriteString(binaryMarker)

	for _, num := range w.nums {
		w.offsets[num] = int64(w.buf.Len())
		if err := w.writeIndirect(w.doc.objects[num]); err != nil {
			return err
		}
	}

	id := w.fileID()
	if w.opts.XRefStream {
		return w.writeXRefStream(id)
	}
	w.writeXRefTable(id)
	return nil
}

// writeIndirect writes one "N G obj ... endobj" block
func (w *writer) writeIndirect(iobj IndirectObject) error {
	fmt.Fprintf(&w.buf, "%d %d obj\n", iobj.Reference.ObjectNumber, iobj.Reference.GenerationNumber)

	stream, isStream := iobj.Value.(Stream)
	if !isStream {
		if err := writeObject(&w.buf, iobj.Value); err != nil {
			return errors.Wrapf(err, "object %d", iobj.Reference.ObjectNumber)
		}
		w.buf.WriteString("\nendobj\n")
		return nil
	}

	dict, data := w.streamPayload(stream)
	if err := writeObject(&w.buf, dict); err != nil {
		return errors.Wrapf(err, "object %d", iobj.Reference.ObjectNumber)
	}
	w.buf.WriteString("\nstream\n")
	w.buf.Write(data)
	w.buf.WriteString("\nendstream\nendobj\n")
	return nil
}

// streamPayload returns the dictionary and bytes to write for s, with
// /Length set to the payload size
func (w *writer) streamPayload(s Stream) (Dictionary, []byte) {
	dict := copyDict(s.Dictionary)
	data := s.Data
	if w.opts.Compress && len(s.Filters()) == 0 && len(data) > 0 {
		data = flateEncode(data)
		dict["Filter"] = FilterFlate
		delete(dict, "DecodeParms")
	}
	dict["Length"] = Integer(len(data))
	return dict, data
}

// fileID digests the body written so far
func (w *writer) fileID() String {
	h, _ := blake2b.New(16, nil)
	h.Write(w.buf.Bytes())
	return String{Value: h.Sum(nil), IsHex: true}
}

// size is one more than the highest object number
func (w *writer) size() int {
	if len(w.nums) == 0 {
		return 1
	}
	return w.nums[len(w.nums)-1] + 1
}

// freeList links the unused numbers below size, starting from object 0.
// The result maps each free number to the next one, the last back to 0.
func (w *writer) freeList(size int) map[int]int {
	var free []int
	for num := 1; num < size; num++ {
		if _, ok := w.doc.objects[num]; !ok {
			free = append(free, num)
		}
	}
	sort.Ints(free)

	next := make(map[int]int, len(free)+1)
	prev := 0
	for _, num := range free {
		next[prev] = num
		prev = num
	}
	next[prev] = 0
	return next
}

func (w *writer) trailer(size int, id String) Dictionary {
	t := Dictionary{
		"Size": Integer(size),
		"Root": w.doc.root,
		"ID":   Array{id, id},
	}
	if w.doc.info.ObjectNumber > 0 {
		t["Info"] = w.doc.info
	}
	return t
}

func (w *writer) writeXRefTable(id String) {
	size := w.size()
	free := w.freeList(size)

	xrefOffset := w.buf.Len()
	w.buf.WriteString("xref\n")
	fmt.Fprintf(&w.buf, "0 %d\n", size)
	fmt.Fprintf(&w.buf, "%010d 65535 f \n", free[0])
	for num := 1; num < size; num++ {
		iobj, ok := w.doc.objects[num]
		if !ok {
			fmt.Fprintf(&w.buf, "%010d 00000 f \n", free[num])
			continue
		}
		fmt.Fprintf(&w.buf, "%010d %05d n \n", w.offsets[num], iobj.Reference.GenerationNumber)
	}

	w.buf.WriteString("trailer\n")
	writeObject(&w.buf, w.trailer(size, id))
	fmt.Fprintf(&w.buf, "\nstartxref\n%d\n%%%%EOF\n", xrefOffset)
}

// writeXRefStream appends the cross-reference stream as the last object
func (w *writer) writeXRefStream(id String) error {
	xrefNum := w.size()
	size := xrefNum + 1
	free := w.freeList(xrefNum)
	xrefOffset := int64(w.buf.Len())

	maxField2, maxField3 := xrefOffset, int64(0)
	for _, num := range w.nums {
		if g := int64(w.doc.objects[num].Reference.GenerationNumber); g > maxField3 {
			maxField3 = g
		}
	}
	if maxField3 < 0xFFFF {
		maxField3 = 0xFFFF
	}
	widths := []int{1, byteWidth(maxField2), byteWidth(maxField3)}

	var rows bytes.Buffer
	row := func(typ, f2, f3 int64) {
		putField(&rows, typ, widths[0])
		putField(&rows, f2, widths[1])
		putField(&rows, f3, widths[2])
	}
	row(0, int64(free[0]), 0xFFFF)
	for num := 1; num < xrefNum; num++ {
		iobj, ok := w.doc.objects[num]
		if !ok {
			row(0, int64(free[num]), 0)
			continue
		}
		row(1, w.offsets[num], int64(iobj.Reference.GenerationNumber))
	}
	row(1, xrefOffset, 0)

	dict := w.trailer(size, id)
	dict["Type"] = Name("XRef")
	dict["W"] = Array{Integer(widths[0]), Integer(widths[1]), Integer(widths[2])}
	dict["Filter"] = FilterFlate
	data := flateEncode(rows.Bytes())
	dict["Length"] = Integer(len(data))

	fmt.Fprintf(&w.buf, "%d 0 obj\n", xrefNum)
	if err := writeObject(&w.buf, dict); err != nil {
		return errors.Wrap(err, "cross-reference stream")
	}
	w.buf.WriteString("\nstream\n")
	w.buf.Write(data)
	w.buf.WriteString("\nendstream\nendobj\n")
	fmt.Fprintf(&w.buf, "startxref\n%d\n%%%%EOF\n", xrefOffset)
	return nil
}

// byteWidth is the number of bytes needed to hold v big-endian
func byteWidth(v int64) int {
	n := 1
	for v > 0xFF {
		v >>= 8
		n++
	}
	return n
}

func putField(buf *bytes.Buffer, v int64, width int) {
	for i := width - 1; i >= 0; i-- {
		buf.WriteByte(byte(v >> (8 * uint(i))))
	}
}
