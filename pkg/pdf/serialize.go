package pdf

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// byteWriter is satisfied by both bytes.Buffer and strings.Builder
type byteWriter interface {
	WriteString(s string) (int, error)
	WriteByte(c byte) error
}

const hexDigits = "0123456789ABCDEF"

// writeObject writes obj in canonical PDF syntax. Dictionary keys are
// emitted in sorted order so the same object always produces the same bytes.
// Stream payloads are not written here; the Writer frames them.
func writeObject(w byteWriter, obj Object) error {
	switch v := obj.(type) {
	case nil:
		w.WriteString("null")
	case Null:
		w.WriteString("null")
	case Boolean:
		w.WriteString(v.String())
	case Integer:
		w.WriteString(strconv.FormatInt(int64(v), 10))
	case Real:
		w.WriteString(formatReal(float64(v)))
	case String:
		writeString(w, v)
	case Name:
		writeName(w, v)
	case Array:
		w.WriteByte('[')
		for i, item := range v {
			if i > 0 {
				w.WriteByte(' ')
			}
			if err := writeObject(w, item); err != nil {
				return err
			}
		}
		w.WriteByte(']')
	case Dictionary:
		w.WriteString("<<")
		for _, k := range v.Keys() {
			w.WriteByte(' ')
			writeName(w, k)
			w.WriteByte(' ')
			if err := writeObject(w, v[k]); err != nil {
				return err
			}
		}
		w.WriteString(" >>")
	case Stream:
		return writeObject(w, v.Dictionary)
	case Reference:
		w.WriteString(strconv.Itoa(v.ObjectNumber))
		w.WriteByte(' ')
		w.WriteString(strconv.Itoa(v.GenerationNumber))
		w.WriteString(" R")
	default:
		return fmt.Errorf("cannot serialize object of type %T", obj)
	}
	return nil
}

// formatReal never uses exponent notation, which PDF does not allow. A
// whole value keeps its ".0" so it reads back as a Real.
func formatReal(f float64) string {
	if math.IsNaN(f) || math.IsInf(f, 0) || f == 0 {
		return "0.0"
	}
	s := strconv.FormatFloat(f, 'f', -1, 64)
	if s == "-0" {
		return "0.0"
	}
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}

func isRegularNameByte(c byte) bool {
	if c < 0x21 || c > 0x7E || c == '#' {
		return false
	}
	return !isDelimiter(c)
}

func writeName(w byteWriter, n Name) {
	w.WriteByte('/')
	for i := 0; i < len(n); i++ {
		c := n[i]
		if isRegularNameByte(c) {
			w.WriteByte(c)
			continue
		}
		w.WriteByte('#')
		w.WriteByte(hexDigits[c>>4])
		w.WriteByte(hexDigits[c&0x0F])
	}
}

func writeString(w byteWriter, s String) {
	if s.IsHex {
		w.WriteByte('<')
		for _, c := range s.Value {
			w.WriteByte(hexDigits[c>>4])
			w.WriteByte(hexDigits[c&0x0F])
		}
		w.WriteByte('>')
		return
	}
	w.WriteByte('(')
	for _, c := range s.Value {
		switch c {
		case '(', ')', '\\':
			w.WriteByte('\\')
			w.WriteByte(c)
		case '\n':
			w.WriteString(`\n`)
		case '\r':
			w.WriteString(`\r`)
		case '\t':
			w.WriteString(`\t`)
		case '\b':
			w.WriteString(`\b`)
		case '\f':
			w.WriteString(`\f`)
		default:
			if c < 0x20 || c >= 0x7F {
				w.WriteByte('\\')
				w.WriteByte('0' + c>>6)
				w.WriteByte('0' + (c>>3)&7)
				w.WriteByte('0' + c&7)
			} else {
				w.WriteByte(c)
			}
		}
	}
	w.WriteByte(')')
}
