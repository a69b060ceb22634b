// Package imagepdf wraps a single raster image in a one-page PDF.
package imagepdf

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"log/slog"
	"strings"

	"github.com/pkg/errors"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/novvoo/go-pdftools/pkg/pdf"
)

// DefaultDPI is the resolution used when Options.DPI is zero
const DefaultDPI = 100

// ErrUnsupportedFormat is returned for image formats with no decoder
var ErrUnsupportedFormat = errors.New("unsupported image format")

// Options controls the conversion
type Options struct {
	// DPI maps image pixels to page points. Zero means DefaultDPI.
	DPI float64
}

func (o Options) dpi() float64 {
	if o.DPI <= 0 {
		return DefaultDPI
	}
	return o.DPI
}

// Convert returns a serialized one-page PDF showing the image. format is
// the image format name ("jpeg", "png", "gif", "bmp", "tiff", "webp"); an
// empty format is detected from the data.
func Convert(data []byte, format string, opts Options) ([]byte, error) {
	doc, err := ConvertDocument(data, format, opts)
	if err != nil {
		return nil, err
	}
	return pdf.SerializeDocument(doc, pdf.WriteOptions{Compress: true})
}

// ConvertDocument is Convert without the final serialization. Decoded
// pixel data is stored unfiltered and compressed when written.
func ConvertDocument(data []byte, format string, opts Options) (*pdf.Document, error) {
	cfg, detected, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		if errors.Is(err, image.ErrFormat) {
			return nil, errors.Wrapf(ErrUnsupportedFormat, "format %q", format)
		}
		return nil, errors.Wrap(err, "decode image header")
	}

	format = normalizeFormat(format)
	if format == "" {
		format = detected
	}
	if format != detected {
		return nil, errors.Wrapf(ErrUnsupportedFormat, "data is %s, not %s", detected, format)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, errors.Errorf("image has no pixels (%dx%d)", cfg.Width, cfg.Height)
	}

	var xobj pdf.Stream
	if format == "jpeg" {
		xobj = jpegXObject(data, cfg)
	} else {
		img, _, err := image.Decode(bytes.NewReader(data))
		if err != nil {
			return nil, errors.Wrapf(err, "decode %s", format)
		}
		xobj = rasterXObject(img)
	}

	slog.Debug("converting image",
		slog.String("format", format),
		slog.Int("width", cfg.Width),
		slog.Int("height", cfg.Height))

	return buildPage(xobj, cfg.Width, cfg.Height, opts.dpi())
}

func normalizeFormat(format string) string {
	format = strings.ToLower(strings.TrimPrefix(format, "."))
	switch format {
	case "jpg", "jpe", "jfif":
		return "jpeg"
	case "tif":
		return "tiff"
	}
	return format
}

// jpegXObject embeds the JPEG bytes unchanged
func jpegXObject(data []byte, cfg image.Config) pdf.Stream {
	dict := imageDict(cfg.Width, cfg.Height)
	dict["Filter"] = pdf.FilterDCT

	switch cfg.ColorModel {
	case color.GrayModel, color.Gray16Model:
		dict["ColorSpace"] = pdf.Name("DeviceGray")
	case color.CMYKModel:
		dict["ColorSpace"] = pdf.Name("DeviceCMYK")
		// CMYK JPEGs carry Adobe's inverted samples
		dict["Decode"] = pdf.Array{
			pdf.Integer(1), pdf.Integer(0), pdf.Integer(1), pdf.Integer(0),
			pdf.Integer(1), pdf.Integer(0), pdf.Integer(1), pdf.Integer(0),
		}
	default:
		dict["ColorSpace"] = pdf.Name("DeviceRGB")
	}

	return pdf.Stream{Dictionary: dict, Data: append([]byte(nil), data...)}
}

// rasterXObject flattens img onto white. Gray images stay one component.
func rasterXObject(img image.Image) pdf.Stream {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	dict := imageDict(w, h)

	gray := img.ColorModel() == color.GrayModel || img.ColorModel() == color.Gray16Model
	components := 3
	if gray {
		components = 1
		dict["ColorSpace"] = pdf.Name("DeviceGray")
	} else {
		dict["ColorSpace"] = pdf.Name("DeviceRGB")
	}

	out := make([]byte, 0, w*h*components)
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			r, g, b, a := img.At(x, y).RGBA()
			// premultiplied, so adding the uncovered part gives white
			bg := 0xffff - a
			r, g, b = (r+bg)>>8, (g+bg)>>8, (b+bg)>>8
			if gray {
				out = append(out, byte(r))
				continue
			}
			out = append(out, byte(r), byte(g), byte(b))
		}
	}

	return pdf.Stream{Dictionary: dict, Data: out}
}

func imageDict(w, h int) pdf.Dictionary {
	return pdf.Dictionary{
		"Type":             pdf.Name("XObject"),
		"Subtype":          pdf.Name("Image"),
		"Width":            pdf.Integer(w),
		"Height":           pdf.Integer(h),
		"BitsPerComponent": pdf.Integer(8),
	}
}

// buildPage places the image over a whole page sized w*72/dpi by h*72/dpi
func buildPage(xobj pdf.Stream, w, h int, dpi float64) (*pdf.Document, error) {
	width := pdf.Real(float64(w) * 72 / dpi)
	height := pdf.Real(float64(h) * 72 / dpi)

	b := pdf.NewBuilder("")
	catalog := b.Reserve()
	pages := b.Reserve()
	im := b.Add(xobj)
	content := b.Add(pdf.Stream{
		Dictionary: pdf.Dictionary{},
		Data:       []byte(fmt.Sprintf("q %s 0 0 %s 0 0 cm /Im0 Do Q", width, height)),
	})
	page := b.Add(pdf.Dictionary{
		"Type":     pdf.Name("Page"),
		"Parent":   pages,
		"MediaBox": pdf.Array{pdf.Integer(0), pdf.Integer(0), width, height},
		"Resources": pdf.Dictionary{
			"XObject": pdf.Dictionary{"Im0": im},
		},
		"Contents": content,
	})
	b.Set(pages, pdf.Dictionary{
		"Type":  pdf.Name("Pages"),
		"Kids":  pdf.Array{page},
		"Count": pdf.Integer(1),
	})
	b.Set(catalog, pdf.Dictionary{
		"Type":  pdf.Name("Catalog"),
		"Pages": pages,
	})
	b.SetInfo(b.Add(pdf.Dictionary{
		"Producer": pdf.String{Value: []byte("go-pdftools imgtopdf")},
	}))

	doc, err := b.Build(catalog)
	if err != nil {
		return nil, errors.Wrap(err, "build image page")
	}
	return doc, nil
}
