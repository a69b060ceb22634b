package pdf

import (
	"bytes"
	"compress/lzw"
	"compress/zlib"
	"encoding/ascii85"
	"io"
	"log/slog"

	tifflzw "golang.org/x/image/tiff/lzw"
)

// Filters the engine can decode. Anything else is carried opaquely.
const (
	FilterFlate     Name = "FlateDecode"
	FilterLZW       Name = "LZWDecode"
	FilterASCIIHex  Name = "ASCIIHexDecode"
	FilterASCII85   Name = "ASCII85Decode"
	FilterRunLength Name = "RunLengthDecode"
	FilterDCT       Name = "DCTDecode"
)

// filterAbbreviations maps the short names allowed in inline images and
// tolerated elsewhere to the full filter names
var filterAbbreviations = map[Name]Name{
	"Fl":  FilterFlate,
	"LZW": FilterLZW,
	"AHx": FilterASCIIHex,
	"A85": FilterASCII85,
	"RL":  FilterRunLength,
	"DCT": FilterDCT,
}

// canonicalFilter returns the full name of filter
func canonicalFilter(filter Name) Name {
	if full, ok := filterAbbreviations[filter]; ok {
		return full
	}
	return filter
}

// decodable reports whether the engine implements filter
func decodable(filter Name) bool {
	switch canonicalFilter(filter) {
	case FilterFlate, FilterLZW, FilterASCIIHex, FilterASCII85, FilterRunLength:
		return true
	}
	return false
}

// Filters returns the filter chain declared by the stream, in application order
func (s Stream) Filters() []Name {
	switch f := s.Dictionary.Get("Filter").(type) {
	case Name:
		return []Name{f}
	case Array:
		var filters []Name
		for _, item := range f {
			if n, ok := item.(Name); ok {
				filters = append(filters, n)
			}
		}
		return filters
	}
	return nil
}

// decodeParms returns the /DecodeParms entry for the i-th filter
func (s Stream) decodeParms(i int) Dictionary {
	switch p := s.Dictionary.Get("DecodeParms").(type) {
	case Dictionary:
		if i == 0 {
			return p
		}
	case Array:
		if i < len(p) {
			if d, ok := p[i].(Dictionary); ok {
				return d
			}
		}
	}
	return Dictionary{}
}

// Decode decodes the stream data based on filters. A filter the engine
// cannot decode yields an error of kind KindUnsupportedStreamFilter; the
// stream itself stays usable as an opaque payload.
func (s Stream) Decode() ([]byte, error) {
	data := s.Data
	for i, filter := range s.Filters() {
		var err error
		data, err = applyFilter(data, filter, s.decodeParms(i))
		if err != nil {
			return nil, err
		}
	}
	return data, nil
}

// CanDecode reports whether every filter on the stream is supported
func (s Stream) CanDecode() bool {
	for _, f := range s.Filters() {
		if !decodable(f) {
			return false
		}
	}
	return true
}

// applyFilter applies a single filter to decode data
func applyFilter(data []byte, filter Name, params Dictionary) ([]byte, error) {
	var (
		out []byte
		err error
	)
	switch canonicalFilter(filter) {
	case FilterFlate:
		out, err = flateDecode(data)
	case FilterLZW:
		out, err = lzwDecode(data, params)
	case FilterASCIIHex:
		out, err = asciiHexDecode(data)
	case FilterASCII85:
		out, err = ascii85Decode(data)
	case FilterRunLength:
		out, err = runLengthDecode(data)
	default:
		slog.Debug("stream filter left encoded", slog.String("filter", string(filter)))
		e := newError(KindUnsupportedStreamFilter)
		e.Filter = filter
		return nil, e
	}
	if err != nil {
		e := newError(KindMalformedObject)
		e.Detail = "decoding " + string(filter)
		e.Err = err
		return nil, e
	}
	if f := canonicalFilter(filter); f == FilterFlate || f == FilterLZW {
		return applyPredictor(out, params)
	}
	return out, nil
}

// flateDecode decompresses zlib/deflate data
func flateDecode(data []byte) ([]byte, error) {
	r, err := zlib.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer r.Close()

	decoded, err := io.ReadAll(r)
	if err != nil && len(decoded) == 0 {
		return nil, err
	}
	// truncated streams are common; keep what inflated cleanly
	return decoded, nil
}

// flateEncode compresses data with zlib at the default level
func flateEncode(data []byte) []byte {
	var buf bytes.Buffer
	w := zlib.NewWriter(&buf)
	w.Write(data)
	w.Close()
	return buf.Bytes()
}

// lzwDecode decodes LZW data. EarlyChange 1 (the default) is the TIFF
// variant of the code width switch.
func lzwDecode(data []byte, params Dictionary) ([]byte, error) {
	earlyChange := int64(1)
	if ec, ok := params.GetInt("EarlyChange"); ok {
		earlyChange = ec
	}

	var r io.ReadCloser
	if earlyChange == 1 {
		r = tifflzw.NewReader(bytes.NewReader(data), tifflzw.MSB, 8)
	} else {
		r = lzw.NewReader(bytes.NewReader(data), lzw.MSB, 8)
	}
	defer r.Close()
	return io.ReadAll(r)
}

// applyPredictor applies PNG predictor to decoded data
func applyPredictor(data []byte, params Dictionary) ([]byte, error) {
	predictor, _ := params.GetInt("Predictor")
	if predictor < 10 {
		// 1 is no prediction; TIFF predictor 2 is not supported
		return data, nil
	}

	columns, ok := params.GetInt("Columns")
	if !ok {
		columns = 1
	}
	colors, ok := params.GetInt("Colors")
	if !ok {
		colors = 1
	}
	bitsPerComponent, ok := params.GetInt("BitsPerComponent")
	if !ok {
		bitsPerComponent = 8
	}

	bytesPerPixel := int((colors*bitsPerComponent + 7) / 8)
	rowBytes := int((columns*colors*bitsPerComponent + 7) / 8)
	rowBytesWithFilter := rowBytes + 1

	if rowBytes <= 0 || len(data)%rowBytesWithFilter != 0 {
		return data, nil
	}

	rows := len(data) / rowBytesWithFilter
	result := make([]byte, rows*rowBytes)
	prevRow := make([]byte, rowBytes)

	for row := 0; row < rows; row++ {
		srcOffset := row * rowBytesWithFilter
		dstOffset := row * rowBytes
		filterType := data[srcOffset]
		rowData := data[srcOffset+1 : srcOffset+rowBytesWithFilter]

		switch filterType {
		case 0: // None
			copy(result[dstOffset:], rowData)
		case 1: // Sub
			for i := 0; i < rowBytes; i++ {
				left := byte(0)
				if i >= bytesPerPixel {
					left = result[dstOffset+i-bytesPerPixel]
				}
				result[dstOffset+i] = rowData[i] + left
			}
		case 2: // Up
			for i := 0; i < rowBytes; i++ {
				result[dstOffset+i] = rowData[i] + prevRow[i]
			}
		case 3: // Average
			for i := 0; i < rowBytes; i++ {
				left := byte(0)
				if i >= bytesPerPixel {
					left = result[dstOffset+i-bytesPerPixel]
				}
				result[dstOffset+i] = rowData[i] + byte((int(left)+int(prevRow[i]))/2)
			}
		case 4: // Paeth
			for i := 0; i < rowBytes; i++ {
				left := byte(0)
				upLeft := byte(0)
				if i >= bytesPerPixel {
					left = result[dstOffset+i-bytesPerPixel]
					upLeft = prevRow[i-bytesPerPixel]
				}
				result[dstOffset+i] = rowData[i] + paethPredictor(left, prevRow[i], upLeft)
			}
		default:
			copy(result[dstOffset:], rowData)
		}

		copy(prevRow, result[dstOffset:dstOffset+rowBytes])
	}

	return result, nil
}

// paethPredictor implements the Paeth predictor algorithm
func paethPredictor(a, b, c byte) byte {
	p := int(a) + int(b) - int(c)
	pa := abs(p - int(a))
	pb := abs(p - int(b))
	pc := abs(p - int(c))
	if pa <= pb && pa <= pc {
		return a
	} else if pb <= pc {
		return b
	}
	return c
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

// asciiHexDecode decodes ASCII hex encoded data
func asciiHexDecode(data []byte) ([]byte, error) {
	var result []byte
	var nibble byte
	var hasNibble bool

	for _, b := range data {
		if b == '>' {
			break
		}
		if isWhitespace(b) {
			continue
		}

		val, ok := hexValue(b)
		if !ok {
			return nil, errAt(KindMalformedToken, -1, "invalid hex character %q", b)
		}

		if hasNibble {
			result = append(result, nibble<<4|val)
			hasNibble = false
		} else {
			nibble = val
			hasNibble = true
		}
	}

	if hasNibble {
		result = append(result, nibble<<4)
	}

	return result, nil
}

// ascii85Decode decodes ASCII85 encoded data up to the ~> terminator
func ascii85Decode(data []byte) ([]byte, error) {
	if i := bytes.Index(data, []byte("~>")); i >= 0 {
		data = data[:i]
	}
	data = bytes.TrimPrefix(bytes.TrimSpace(data), []byte("<~"))

	dst := make([]byte, 4*len(data)+4)
	n, _, err := ascii85.Decode(dst, data, true)
	if err != nil {
		return nil, err
	}
	return dst[:n], nil
}

// runLengthDecode decodes run-length encoded data
func runLengthDecode(data []byte) ([]byte, error) {
	var result []byte

	for i := 0; i < len(data); {
		length := int(data[i])
		i++

		if length == 128 {
			break // EOD
		}

		if length < 128 {
			n := length + 1
			if i+n > len(data) {
				return nil, errAt(KindMalformedObject, int64(i), "unexpected end of run-length data")
			}
			result = append(result, data[i:i+n]...)
			i += n
		} else {
			if i >= len(data) {
				return nil, errAt(KindMalformedObject, int64(i), "unexpected end of run-length data")
			}
			n := 257 - length
			result = append(result, bytes.Repeat(data[i:i+1], n)...)
			i++
		}
	}

	return result, nil
}
