package pdf

import (
	"bytes"
	"log/slog"
	"regexp"
	"strconv"
)

// xrefEntry represents an entry in the cross-reference table
type xrefEntry struct {
	Offset     int64
	Generation int
	InUse      bool
	// For compressed objects
	StreamObjNum int
	Index        int
}

func (e xrefEntry) compressed() bool { return e.InUse && e.StreamObjNum > 0 }

// xrefSection is one cross-reference section with its trailer
type xrefSection struct {
	entries map[int]xrefEntry
	trailer Dictionary
	// object number of the cross-reference stream, 0 for a classic table
	streamObj int
}

// findStartXRef returns the offset named by the last startxref keyword
func findStartXRef(data []byte) (int64, bool) {
	idx := bytes.LastIndex(data, []byte("startxref"))
	if idx < 0 {
		return 0, false
	}
	tok, _, err := NextToken(data, idx+len("startxref"))
	if err != nil || tok.Type != TokenInteger {
		return 0, false
	}
	return tok.Value.(int64), true
}

// hasTrailer reports whether the data contains any trailer section at all
func hasTrailer(data []byte) bool {
	return bytes.Contains(data, []byte("startxref")) || bytes.Contains(data, []byte("trailer"))
}

// loadXRefChain reads the section at offset and every section reachable
// through /Prev. Sections are returned newest first.
func (dp *docParser) loadXRefChain(offset int64) ([]xrefSection, error) {
	var sections []xrefSection
	visited := make(map[int64]bool)

	for {
		if visited[offset] {
			slog.Debug("cross-reference /Prev loop", slog.Int64("offset", offset))
			break
		}
		visited[offset] = true

		sec, err := dp.parseXRefSection(offset)
		if err != nil {
			return nil, err
		}
		sections = append(sections, sec)

		prev, ok := sec.trailer.GetInt("Prev")
		if !ok {
			break
		}
		offset = prev
	}
	return sections, nil
}

// parseXRefSection parses the classic table or cross-reference stream at offset
func (dp *docParser) parseXRefSection(offset int64) (xrefSection, error) {
	if offset < 0 || offset >= int64(len(dp.data)) {
		return xrefSection{}, errAt(KindMalformedXRef, offset, "offset outside the file")
	}
	pos := skipWhitespace(dp.data, int(offset))
	if bytes.HasPrefix(dp.data[pos:], []byte("xref")) {
		return dp.parseXRefTable(int64(pos))
	}
	return dp.parseXRefStream(int64(pos))
}

// parseXRefTable parses a traditional xref table and its trailer
func (dp *docParser) parseXRefTable(offset int64) (xrefSection, error) {
	sec := xrefSection{entries: make(map[int]xrefEntry)}
	p := newParserAt(dp.data, offset)

	// xref keyword
	if tok, err := p.nextToken(); err != nil || tok.Type != TokenXRef {
		return sec, errAt(KindMalformedXRef, offset, "expected xref keyword")
	}

	for {
		tok, err := p.nextToken()
		if err != nil {
			return sec, err
		}
		if tok.Type == TokenTrailer {
			break
		}
		if tok.Type != TokenInteger {
			return sec, errAt(KindMalformedXRef, tok.Pos, "expected subsection header or trailer")
		}
		countTok, err := p.nextToken()
		if err != nil {
			return sec, err
		}
		if countTok.Type != TokenInteger {
			return sec, errAt(KindMalformedXRef, countTok.Pos, "expected subsection count")
		}
		start := int(tok.Value.(int64))
		count := int(countTok.Value.(int64))

		for i := 0; i < count; i++ {
			entry, err := readTableEntry(p)
			if err != nil {
				return sec, err
			}
			objNum := start + i
			if objNum == 0 {
				// object 0 always heads the free list
				continue
			}
			if _, exists := sec.entries[objNum]; !exists {
				sec.entries[objNum] = entry
			}
		}
	}

	trailerObj, err := p.ParseObject()
	if err != nil {
		return sec, err
	}
	trailer, ok := trailerObj.(Dictionary)
	if !ok {
		return sec, errAt(KindMalformedXRef, p.lexer.Position(), "trailer is not a dictionary")
	}
	sec.trailer = trailer

	// hybrid files keep compressed objects in a side cross-reference stream
	if stmOffset, ok := trailer.GetInt("XRefStm"); ok {
		side, err := dp.parseXRefStream(stmOffset)
		if err != nil {
			slog.Debug("ignoring unreadable XRefStm", slog.Int64("offset", stmOffset), slog.Any("err", err))
			return sec, nil
		}
		for num, entry := range side.entries {
			if cur, exists := sec.entries[num]; !exists || !cur.InUse {
				sec.entries[num] = entry
			}
		}
	}

	return sec, nil
}

// readTableEntry reads one "offset generation n|f" entry
func readTableEntry(p *Parser) (xrefEntry, error) {
	offTok, err := p.nextToken()
	if err != nil {
		return xrefEntry{}, err
	}
	genTok, err := p.nextToken()
	if err != nil {
		return xrefEntry{}, err
	}
	kindTok, err := p.nextToken()
	if err != nil {
		return xrefEntry{}, err
	}
	if offTok.Type != TokenInteger || genTok.Type != TokenInteger || kindTok.Type != TokenKeyword {
		return xrefEntry{}, errAt(KindMalformedXRef, offTok.Pos, "invalid cross-reference entry")
	}
	switch kindTok.Value.(string) {
	case "n":
		return xrefEntry{Offset: offTok.Value.(int64), Generation: int(genTok.Value.(int64)), InUse: true}, nil
	case "f":
		return xrefEntry{Generation: int(genTok.Value.(int64))}, nil
	}
	return xrefEntry{}, errAt(KindMalformedXRef, kindTok.Pos, "entry type must be n or f")
}

// parseXRefStream parses an xref stream
func (dp *docParser) parseXRefStream(offset int64) (xrefSection, error) {
	sec := xrefSection{entries: make(map[int]xrefEntry)}

	p := newParserAt(dp.data, offset)
	ref, obj, err := p.ParseIndirectObject()
	if err != nil {
		return sec, err
	}

	stream, ok := obj.(Stream)
	if !ok {
		return sec, errAt(KindMalformedXRef, offset, "xref stream expected")
	}
	if t, _ := stream.Dictionary.GetName("Type"); t != "XRef" {
		return sec, errAt(KindMalformedXRef, offset, "stream is not a cross-reference stream")
	}
	sec.streamObj = ref.ObjectNumber
	sec.trailer = stream.Dictionary

	data, err := stream.Decode()
	if err != nil {
		return sec, err
	}

	wArray, ok := stream.Dictionary.GetArray("W")
	if !ok || len(wArray) != 3 {
		return sec, errAt(KindMalformedXRef, offset, "invalid xref stream W array")
	}
	w := make([]int, 3)
	for i, item := range wArray {
		n, ok := item.(Integer)
		if !ok || n < 0 || n > 8 {
			return sec, errAt(KindMalformedXRef, offset, "invalid xref stream field width")
		}
		w[i] = int(n)
	}

	var indices []int
	if indexArray, ok := stream.Dictionary.GetArray("Index"); ok {
		for _, item := range indexArray {
			if n, ok := item.(Integer); ok {
				indices = append(indices, int(n))
			}
		}
	} else if size, ok := stream.Dictionary.GetInt("Size"); ok {
		indices = []int{0, int(size)}
	}
	if len(indices)%2 != 0 {
		return sec, errAt(KindMalformedXRef, offset, "odd xref stream Index array")
	}

	entrySize := w[0] + w[1] + w[2]
	if entrySize == 0 {
		return sec, errAt(KindMalformedXRef, offset, "empty xref stream entries")
	}
	pos := 0

	for i := 0; i < len(indices); i += 2 {
		start, count := indices[i], indices[i+1]
		if start < 0 || count < 0 {
			return sec, errAt(KindMalformedXRef, offset, "negative xref stream Index entry")
		}
		count = min(count, (len(data)-pos)/entrySize)

		for j := 0; j < count; j++ {
			entry := data[pos : pos+entrySize]
			pos += entrySize

			field1 := readXRefField(entry, 0, w[0])
			field2 := readXRefField(entry, w[0], w[1])
			field3 := readXRefField(entry, w[0]+w[1], w[2])

			// Default type is 1 if w[0] is 0
			entryType := field1
			if w[0] == 0 {
				entryType = 1
			}

			if field2 < 0 || field3 < 0 {
				return sec, errAt(KindMalformedXRef, offset, "xref stream field out of range")
			}

			objNum := start + j
			if objNum == 0 {
				continue
			}
			switch entryType {
			case 0:
				sec.entries[objNum] = xrefEntry{Generation: int(field3)}
			case 1:
				sec.entries[objNum] = xrefEntry{Offset: field2, Generation: int(field3), InUse: true}
			case 2:
				sec.entries[objNum] = xrefEntry{StreamObjNum: int(field2), Index: int(field3), InUse: true}
			default:
				slog.Debug("invalid xref stream type", slog.Int64("type", field1), slog.Int("object", objNum))
			}
		}
	}

	return sec, nil
}

// readXRefField reads a big-endian field from an xref stream entry
func readXRefField(data []byte, offset, width int) int64 {
	var result int64
	for i := 0; i < width; i++ {
		result = result<<8 | int64(data[offset+i])
	}
	return result
}

var objHeaderRe = regexp.MustCompile(`(?m)(?:^|[\s>\]})])(\d+)[ \t\r\n\f\x00]+(\d+)[ \t\r\n\f\x00]+obj\b`)

// rebuildXRef reconstructs the cross-reference table by scanning for
// object headers. The last definition of an object number wins.
func (dp *docParser) rebuildXRef() (xrefSection, error) {
	sec := xrefSection{entries: make(map[int]xrefEntry)}

	for _, m := range objHeaderRe.FindAllSubmatchIndex(dp.data, -1) {
		num, err1 := strconv.Atoi(string(dp.data[m[2]:m[3]]))
		gen, err2 := strconv.Atoi(string(dp.data[m[4]:m[5]]))
		if err1 != nil || err2 != nil || num <= 0 {
			continue
		}
		sec.entries[num] = xrefEntry{Offset: int64(m[2]), Generation: gen, InUse: true}
	}

	if idx := bytes.LastIndex(dp.data, []byte("trailer")); idx >= 0 {
		p := newParserAt(dp.data, int64(idx+len("trailer")))
		if obj, err := p.ParseObject(); err == nil {
			if dict, ok := obj.(Dictionary); ok {
				sec.trailer = dict
			}
		}
	}

	if sec.trailer == nil {
		// files written with xref streams only carry the trailer keys there
		for num := range sec.entries {
			p := newParserAt(dp.data, sec.entries[num].Offset)
			_, obj, err := p.ParseIndirectObject()
			if err != nil {
				continue
			}
			if s, ok := obj.(Stream); ok {
				if t, _ := s.Dictionary.GetName("Type"); t == "XRef" {
					if _, hasRoot := s.Dictionary["Root"]; hasRoot && (sec.trailer == nil || num > sec.streamObj) {
						sec.trailer = s.Dictionary
						sec.streamObj = num
					}
				}
			}
		}
	}

	if sec.trailer == nil {
		return sec, errAt(KindTrailerNotFound, -1, "no usable trailer while rebuilding cross-reference table")
	}
	slog.Debug("rebuilt cross-reference table", slog.Int("objects", len(sec.entries)))
	return sec, nil
}
