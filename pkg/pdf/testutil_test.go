package pdf

import (
	"bytes"
	"fmt"
	"sort"
	"testing"
)

// pdfFile assembles a classic PDF file from numbered object bodies so
// tests never depend on checked-in binaries.
type pdfFile struct {
	version string
	objects map[int]string
	// trailer entries besides /Size; defaults to /Root 1 0 R
	trailer string
}

func (f pdfFile) bytes() []byte {
	var buf bytes.Buffer
	version := f.version
	if version == "" {
		version = "1.4"
	}
	fmt.Fprintf(&buf, "%%PDF-%s\n%%\xe2\xe3\xcf\xd3\n", version)

	nums := make([]int, 0, len(f.objects))
	for num := range f.objects {
		nums = append(nums, num)
	}
	sort.Ints(nums)
	size := 1
	if len(nums) > 0 {
		size = nums[len(nums)-1] + 1
	}

	offsets := make(map[int]int)
	for _, num := range nums {
		offsets[num] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", num, f.objects[num])
	}

	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n0000000000 65535 f \n", size)
	for num := 1; num < size; num++ {
		if off, ok := offsets[num]; ok {
			fmt.Fprintf(&buf, "%010d 00000 n \n", off)
		} else {
			buf.WriteString("0000000000 00000 f \n")
		}
	}
	trailer := f.trailer
	if trailer == "" {
		trailer = "/Root 1 0 R"
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d %s >>\nstartxref\n%d\n%%%%EOF\n", size, trailer, xref)
	return buf.Bytes()
}

// streamBody returns an object body for a stream with a correct /Length
func streamBody(dict, data string) string {
	return fmt.Sprintf("<< %s /Length %d >>\nstream\n%s\nendstream", dict, len(data), data)
}

// pageContent is the content stream of page i of a sample document
func pageContent(label string, i int) string {
	return fmt.Sprintf("BT /F1 12 Tf 72 720 Td (%s%d) Tj ET", label, i+1)
}

// sampleFile returns an n-page document whose pages show label1..labelN.
// MediaBox and Resources are inherited from the page tree root and all
// pages share one font object.
//
//	1 Catalog, 2 Pages, 3 Font, 4+2i Page i, 5+2i contents of page i
func sampleFile(label string, n int) pdfFile {
	objects := map[int]string{
		1: "<< /Type /Catalog /Pages 2 0 R >>",
		3: "<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica >>",
	}
	var kids []string
	for i := 0; i < n; i++ {
		pageNum := 4 + 2*i
		kids = append(kids, fmt.Sprintf("%d 0 R", pageNum))
		objects[pageNum] = fmt.Sprintf("<< /Type /Page /Parent 2 0 R /Contents %d 0 R >>", pageNum+1)
		objects[pageNum+1] = streamBody("", pageContent(label, i))
	}
	objects[2] = fmt.Sprintf(
		"<< /Type /Pages /Kids [%s] /Count %d /MediaBox [0 0 612 792] /Resources << /Font << /F1 3 0 R >> >> >>",
		joinRefs(kids), n)
	return pdfFile{objects: objects}
}

func joinRefs(refs []string) string {
	var b bytes.Buffer
	for i, r := range refs {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(r)
	}
	return b.String()
}

func mustParse(t *testing.T, data []byte) *Document {
	t.Helper()
	doc, err := NewDocument(data)
	if err != nil {
		t.Fatalf("NewDocument failed: %v", err)
	}
	return doc
}

func mustSerialize(t *testing.T, doc *Document, opts WriteOptions) []byte {
	t.Helper()
	data, err := SerializeDocument(doc, opts)
	if err != nil {
		t.Fatalf("SerializeDocument failed: %v", err)
	}
	return data
}

// contentOf returns the decoded content stream of page i
func contentOf(t *testing.T, doc *Document, i int) string {
	t.Helper()
	page, err := doc.Page(i)
	if err != nil {
		t.Fatalf("Page(%d) failed: %v", i, err)
	}
	s, ok := doc.Resolve(page.Dictionary.Get("Contents")).(Stream)
	if !ok {
		t.Fatalf("page %d has no content stream", i)
	}
	data, err := s.Decode()
	if err != nil {
		t.Fatalf("decode page %d contents: %v", i, err)
	}
	return string(data)
}

// contents returns the content of every page in order
func contents(t *testing.T, doc *Document) []string {
	t.Helper()
	out := make([]string, doc.NumPages())
	for i := range out {
		out[i] = contentOf(t, doc, i)
	}
	return out
}

func fingerprints(t *testing.T, doc *Document) [][32]byte {
	t.Helper()
	out := make([][32]byte, doc.NumPages())
	for i := range out {
		fp, err := PageFingerprint(doc, i)
		if err != nil {
			t.Fatalf("PageFingerprint(%d) failed: %v", i, err)
		}
		out[i] = fp
	}
	return out
}

// xrefStreamFile builds a document whose cross-reference data lives in an
// xref stream and whose page and font objects sit in a compressed object
// stream.
//
//	1 Catalog, 2 Pages, 3 ObjStm holding 4 (Page) and 5 (Font),
//	6 contents, 7 XRef stream
func xrefStreamFile(content string) []byte {
	page := "<< /Type /Page /Parent 2 0 R /MediaBox [0 0 200 100] /Contents 6 0 R /Resources << /Font << /F1 5 0 R >> >> >>"
	font := "<< /Type /Font /Subtype /Type1 /BaseFont /Courier >>"
	header := fmt.Sprintf("4 0 5 %d ", len(page)+1)
	packed := flateEncode([]byte(header + page + " " + font))

	var buf bytes.Buffer
	buf.WriteString("%PDF-1.5\n%\xe2\xe3\xcf\xd3\n")
	offsets := make(map[int]int)
	put := func(num int, body string) {
		offsets[num] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", num, body)
	}
	put(1, "<< /Type /Catalog /Pages 2 0 R >>")
	put(2, "<< /Type /Pages /Kids [4 0 R] /Count 1 >>")
	put(3, fmt.Sprintf("<< /Type /ObjStm /N 2 /First %d /Filter /FlateDecode /Length %d >>\nstream\n%s\nendstream",
		len(header), len(packed), packed))
	put(6, streamBody("", content))

	xrefOffset := buf.Len()
	var rows bytes.Buffer
	row := func(typ byte, f2 uint32, f3 uint16) {
		rows.WriteByte(typ)
		rows.Write([]byte{byte(f2 >> 24), byte(f2 >> 16), byte(f2 >> 8), byte(f2)})
		rows.Write([]byte{byte(f3 >> 8), byte(f3)})
	}
	row(0, 0, 65535)
	row(1, uint32(offsets[1]), 0)
	row(1, uint32(offsets[2]), 0)
	row(1, uint32(offsets[3]), 0)
	row(2, 3, 0)
	row(2, 3, 1)
	row(1, uint32(offsets[6]), 0)
	row(1, uint32(xrefOffset), 0)

	fmt.Fprintf(&buf, "7 0 obj\n<< /Type /XRef /Size 8 /W [1 4 2] /Root 1 0 R /Length %d >>\nstream\n", rows.Len())
	buf.Write(rows.Bytes())
	fmt.Fprintf(&buf, "\nendstream\nendobj\nstartxref\n%d\n%%%%EOF\n", xrefOffset)
	return buf.Bytes()
}

// appendUpdate appends an incremental update redefining the given objects
func appendUpdate(base []byte, objects map[int]string, size int) []byte {
	prev, _ := findStartXRef(base)

	buf := bytes.NewBuffer(append([]byte(nil), base...))
	nums := make([]int, 0, len(objects))
	for num := range objects {
		nums = append(nums, num)
	}
	sort.Ints(nums)

	offsets := make(map[int]int)
	for _, num := range nums {
		offsets[num] = buf.Len()
		fmt.Fprintf(buf, "%d 0 obj\n%s\nendobj\n", num, objects[num])
	}
	xref := buf.Len()
	buf.WriteString("xref\n0 1\n0000000000 65535 f \n")
	for _, num := range nums {
		fmt.Fprintf(buf, "%d 1\n%010d 00000 n \n", num, offsets[num])
	}
	fmt.Fprintf(buf, "trailer\n<< /Size %d /Root 1 0 R /Prev %d >>\nstartxref\n%d\n%%%%EOF\n", size, prev, xref)
	return buf.Bytes()
}
