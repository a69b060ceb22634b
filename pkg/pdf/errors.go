package pdf

import (
	"fmt"
	"strings"
)

// ErrorKind classifies engine failures
type ErrorKind int

const (
	KindMalformedToken ErrorKind = iota + 1
	KindMalformedObject
	KindMalformedXRef
	KindTrailerNotFound
	KindMissingRoot
	KindCyclicPageTree
	KindDanglingReference
	KindEmptyInput
	KindPageIndexOutOfRange
	KindUnresolvableReference
	KindUnsupportedStreamFilter
	KindEncrypted
)

var kindNames = map[ErrorKind]string{
	KindMalformedToken:          "malformed token",
	KindMalformedObject:         "malformed object",
	KindMalformedXRef:           "malformed cross-reference section",
	KindTrailerNotFound:         "trailer not found",
	KindMissingRoot:             "missing root catalog",
	KindCyclicPageTree:          "cyclic page tree",
	KindDanglingReference:       "dangling reference",
	KindEmptyInput:              "empty input",
	KindPageIndexOutOfRange:     "page index out of range",
	KindUnresolvableReference:   "unresolvable reference",
	KindUnsupportedStreamFilter: "unsupported stream filter",
	KindEncrypted:               "encrypted document",
}

func (k ErrorKind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("error kind %d", int(k))
}

// Error is the error type returned by the engine. Offset, Object and Page
// locate the failure when they apply; unset locations are -1 or zero.
type Error struct {
	Kind   ErrorKind
	Offset int64  // byte offset in the input, -1 if unknown
	Object int    // object number, 0 if not tied to an object
	Page   int    // zero-based page index, -1 if not tied to a page
	Filter Name   // offending filter for KindUnsupportedStreamFilter
	Detail string // free-form detail
	Err    error  // underlying cause
}

// Sentinels for use with errors.Is. They match any *Error of the same kind.
var (
	ErrMalformedToken          = &Error{Kind: KindMalformedToken}
	ErrMalformedObject         = &Error{Kind: KindMalformedObject}
	ErrMalformedXRef           = &Error{Kind: KindMalformedXRef}
	ErrTrailerNotFound         = &Error{Kind: KindTrailerNotFound}
	ErrMissingRoot             = &Error{Kind: KindMissingRoot}
	ErrCyclicPageTree          = &Error{Kind: KindCyclicPageTree}
	ErrDanglingReference       = &Error{Kind: KindDanglingReference}
	ErrEmptyInput              = &Error{Kind: KindEmptyInput}
	ErrPageIndexOutOfRange     = &Error{Kind: KindPageIndexOutOfRange}
	ErrUnresolvableReference   = &Error{Kind: KindUnresolvableReference}
	ErrUnsupportedStreamFilter = &Error{Kind: KindUnsupportedStreamFilter}
	ErrEncrypted               = &Error{Kind: KindEncrypted}
)

func newError(kind ErrorKind) *Error {
	return &Error{Kind: kind, Offset: -1, Page: -1}
}

func errAt(kind ErrorKind, offset int64, format string, args ...interface{}) *Error {
	e := newError(kind)
	e.Offset = offset
	e.Detail = fmt.Sprintf(format, args...)
	return e
}

func errObject(kind ErrorKind, objNum int, format string, args ...interface{}) *Error {
	e := newError(kind)
	e.Object = objNum
	e.Detail = fmt.Sprintf(format, args...)
	return e
}

func errPage(kind ErrorKind, page int, format string, args ...interface{}) *Error {
	e := newError(kind)
	e.Page = page
	e.Detail = fmt.Sprintf(format, args...)
	return e
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString("pdf: ")
	b.WriteString(e.Kind.String())
	if e.Object > 0 {
		fmt.Fprintf(&b, " (object %d)", e.Object)
	}
	if e.Page >= 0 {
		fmt.Fprintf(&b, " (page index %d)", e.Page)
	}
	if e.Offset >= 0 {
		fmt.Fprintf(&b, " at offset %d", e.Offset)
	}
	if e.Filter != "" {
		fmt.Fprintf(&b, " %s", e.Filter.String())
	}
	if e.Detail != "" {
		b.WriteString(": ")
		b.WriteString(e.Detail)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports whether target is an *Error of the same kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}
