package pdf

import (
	"strconv"
	"strings"
	"time"
)

// DocumentInfo holds the document information dictionary and a few
// catalog facts
type DocumentInfo struct {
	Title           string
	Author          string
	Subject         string
	Keywords        string
	Creator         string
	Producer        string
	CreationDate    time.Time
	ModDate         time.Time
	CreationDateRaw string
	ModDateRaw      string
	Custom          map[string]string
	Tagged          bool
	PDFVersion      string
	Pages           int
}

var standardInfoKeys = map[Name]bool{
	"Title": true, "Author": true, "Subject": true, "Keywords": true,
	"Creator": true, "Producer": true, "CreationDate": true, "ModDate": true,
	"Trapped": true,
}

// Info returns document metadata. Documents without an information
// dictionary return only the catalog facts.
func (d *Document) Info() DocumentInfo {
	info := DocumentInfo{
		Custom:     make(map[string]string),
		PDFVersion: d.version,
		Pages:      len(d.pages),
	}

	if dict, ok := d.Resolve(d.info).(Dictionary); ok && d.info.ObjectNumber > 0 {
		info.Title = d.textValue(dict.Get("Title"))
		info.Author = d.textValue(dict.Get("Author"))
		info.Subject = d.textValue(dict.Get("Subject"))
		info.Keywords = d.textValue(dict.Get("Keywords"))
		info.Creator = d.textValue(dict.Get("Creator"))
		info.Producer = d.textValue(dict.Get("Producer"))
		info.CreationDateRaw = d.textValue(dict.Get("CreationDate"))
		info.CreationDate, _ = ParseDate(info.CreationDateRaw)
		info.ModDateRaw = d.textValue(dict.Get("ModDate"))
		info.ModDate, _ = ParseDate(info.ModDateRaw)

		for _, key := range dict.Keys() {
			if !standardInfoKeys[key] {
				info.Custom[string(key)] = d.textValue(dict[key])
			}
		}
	}

	if mark, ok := d.Resolve(d.Catalog().Get("MarkInfo")).(Dictionary); ok {
		if marked, ok := d.Resolve(mark.Get("Marked")).(Boolean); ok {
			info.Tagged = bool(marked)
		}
	}
	return info
}

// textValue renders a string or name value as text
func (d *Document) textValue(obj Object) string {
	switch v := d.Resolve(obj).(type) {
	case String:
		return v.Text()
	case Name:
		return string(v)
	}
	return ""
}

// ParseDate parses a PDF date string (D:YYYYMMDDHHmmSSOHH'mm'). Only the
// year is required; missing fields take their earliest value.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "D:")
	if len(s) < 4 {
		return time.Time{}, false
	}

	field := func(from, to, def int) (int, bool) {
		if len(s) < to {
			return def, true
		}
		n, err := strconv.Atoi(s[from:to])
		return n, err == nil
	}

	year, ok := field(0, 4, 0)
	if !ok {
		return time.Time{}, false
	}
	month, ok1 := field(4, 6, 1)
	day, ok2 := field(6, 8, 1)
	hour, ok3 := field(8, 10, 0)
	min, ok4 := field(10, 12, 0)
	sec, ok5 := field(12, 14, 0)
	if !ok1 || !ok2 || !ok3 || !ok4 || !ok5 {
		return time.Time{}, false
	}

	offset := 0
	if len(s) >= 15 && (s[14] == '+' || s[14] == '-') {
		tzHour, tzMin := 0, 0
		if len(s) >= 17 {
			tzHour, _ = strconv.Atoi(s[15:17])
		}
		if len(s) >= 20 && s[17] == '\'' {
			tzMin, _ = strconv.Atoi(s[18:20])
		}
		offset = tzHour*3600 + tzMin*60
		if s[14] == '-' {
			offset = -offset
		}
	}
	return time.Date(year, time.Month(month), day, hour, min, sec, 0, time.FixedZone("", offset)), true
}
