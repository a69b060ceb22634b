package pdf

import (
	"os"

	"github.com/edsrzf/mmap-go"
	"github.com/pkg/errors"
)

// Open memory-maps filename and parses it with default options. The
// mapping is released before Open returns; the Document owns copies of
// everything it needs.
func Open(filename string) (*Document, error) {
	return OpenWithOptions(filename, ParseOptions{})
}

// OpenWithOptions is Open with explicit parse options
func OpenWithOptions(filename string, opts ParseOptions) (*Document, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, errors.Wrap(err, "open pdf")
	}
	defer f.Close()

	fi, err := f.Stat()
	if err != nil {
		return nil, errors.Wrapf(err, "stat %s", filename)
	}
	// zero-length files cannot be mapped
	if fi.Size() == 0 {
		return ParseDocument(nil, opts)
	}

	m, err := mmap.Map(f, mmap.RDONLY, 0)
	if err != nil {
		return nil, errors.Wrapf(err, "map %s", filename)
	}
	defer m.Unmap()

	doc, err := ParseDocument(m, opts)
	if err != nil {
		return nil, errors.Wrapf(err, "parse %s", filename)
	}
	return doc, nil
}
