package main

import (
	"encoding/hex"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"time"

	"github.com/novvoo/go-pdftools/pkg/pdf"
)

var (
	firstPage    int
	lastPage     int
	box          bool
	rawDates     bool
	fingerprints bool
	lenient      bool
	debug        bool
	printVersion bool
	printHelp    bool
)

func init() {
	flag.IntVar(&firstPage, "f", 1, "first page to examine")
	flag.IntVar(&lastPage, "l", 0, "last page to examine")
	flag.BoolVar(&box, "box", false, "print the page bounding boxes")
	flag.BoolVar(&rawDates, "rawdates", false, "print the raw (undecoded) date strings")
	flag.BoolVar(&fingerprints, "fingerprints", false, "print a content fingerprint for each page")
	flag.BoolVar(&lenient, "lenient", false, "treat references to missing objects as null")
	flag.BoolVar(&debug, "debug", false, "log parser recoveries to stderr")
	flag.BoolVar(&printVersion, "v", false, "print copyright and version info")
	flag.BoolVar(&printHelp, "h", false, "print usage information")
	flag.BoolVar(&printHelp, "help", false, "print usage information")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "pdfinfo version 1.1.0\n")
		fmt.Fprintf(os.Stderr, "Usage: pdfinfo [options] <PDF-file>\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		fmt.Fprintf(os.Stderr, "  -f <int>          : first page to examine\n")
		fmt.Fprintf(os.Stderr, "  -l <int>          : last page to examine\n")
		fmt.Fprintf(os.Stderr, "  -box              : print the page bounding boxes\n")
		fmt.Fprintf(os.Stderr, "  -rawdates         : print the raw (undecoded) date strings\n")
		fmt.Fprintf(os.Stderr, "  -fingerprints     : print a content fingerprint for each page\n")
		fmt.Fprintf(os.Stderr, "  -lenient          : treat references to missing objects as null\n")
		fmt.Fprintf(os.Stderr, "  -debug            : log parser recoveries to stderr\n")
		fmt.Fprintf(os.Stderr, "  -v                : print copyright and version info\n")
		fmt.Fprintf(os.Stderr, "  -h                : print usage information\n")
		fmt.Fprintf(os.Stderr, "  -help             : print usage information\n")
	}
}

func main() {
	flag.Parse()

	if printVersion {
		fmt.Println("pdfinfo version 1.1.0")
		os.Exit(0)
	}

	if printHelp {
		flag.Usage()
		os.Exit(0)
	}

	level := slog.LevelWarn
	if debug {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	args := flag.Args()
	if len(args) < 1 {
		flag.Usage()
		os.Exit(1)
	}

	inputFile := args[0]

	// Open PDF
	doc, err := pdf.OpenWithOptions(inputFile, pdf.ParseOptions{Lenient: lenient})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: Couldn't open file '%s': %v\n", inputFile, err)
		os.Exit(1)
	}

	info := doc.Info()
	numPages := doc.NumPages()

	fmt.Printf("Title:          %s\n", info.Title)
	fmt.Printf("Subject:        %s\n", info.Subject)
	fmt.Printf("Keywords:       %s\n", info.Keywords)
	fmt.Printf("Author:         %s\n", info.Author)
	fmt.Printf("Creator:        %s\n", info.Creator)
	fmt.Printf("Producer:       %s\n", info.Producer)

	// Print dates
	if rawDates {
		fmt.Printf("CreationDate:   %s\n", info.CreationDateRaw)
		fmt.Printf("ModDate:        %s\n", info.ModDateRaw)
	} else {
		if !info.CreationDate.IsZero() {
			fmt.Printf("CreationDate:   %s\n", formatDate(info.CreationDate))
		}
		if !info.ModDate.IsZero() {
			fmt.Printf("ModDate:        %s\n", formatDate(info.ModDate))
		}
	}

	// Custom metadata
	if len(info.Custom) > 0 {
		keys := make([]string, 0, len(info.Custom))
		for k := range info.Custom {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		fmt.Println("Custom Metadata:")
		for _, k := range keys {
			fmt.Printf("  %s: %s\n", k, info.Custom[k])
		}
	}

	fmt.Printf("Tagged:         %s\n", boolToYesNo(info.Tagged))
	fmt.Printf("Pages:          %d\n", numPages)
	fmt.Printf("Objects:        %d\n", doc.Len())

	if numPages > 0 {
		page, err := doc.Page(0)
		if err == nil {
			mediaBox := page.MediaBox()
			fmt.Printf("Page size:      %.2f x %.2f pts", mediaBox.Width(), mediaBox.Height())
			if paperSize := detectPaperSize(mediaBox.Width(), mediaBox.Height()); paperSize != "" {
				fmt.Printf(" (%s)", paperSize)
			}
			fmt.Println()
			fmt.Printf("Page rot:       %d\n", page.Rotate())
		}
	}

	fileInfo, err := os.Stat(inputFile)
	if err == nil {
		fmt.Printf("File size:      %d bytes\n", fileInfo.Size())
	}

	fmt.Printf("PDF version:    %s\n", info.PDFVersion)

	if !box && !fingerprints {
		return
	}

	first := firstPage
	if first < 1 {
		first = 1
	}
	last := lastPage
	if last == 0 || last > numPages {
		last = numPages
	}

	for n := first; n <= last; n++ {
		page, err := doc.Page(n - 1)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: page %d: %v\n", n, err)
			os.Exit(1)
		}
		if box {
			printPageBoxes(n, page)
		}
		if fingerprints {
			sum, err := pdf.PageFingerprint(doc, n-1)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error: page %d: %v\n", n, err)
				os.Exit(1)
			}
			fmt.Printf("Page %4d hash: %s\n", n, hex.EncodeToString(sum[:]))
		}
	}
}

func formatDate(t time.Time) string {
	return t.Format("Mon Jan 2 15:04:05 2006 MST")
}

func boolToYesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func detectPaperSize(width, height float64) string {
	// Common paper sizes in points
	sizes := []struct {
		name string
		w, h float64
	}{
		{"letter", 612, 792},
		{"legal", 612, 1008},
		{"A4", 595.276, 841.89},
		{"A3", 841.89, 1190.55},
		{"A5", 419.528, 595.276},
		{"executive", 522, 756},
		{"tabloid", 792, 1224},
	}

	tolerance := 5.0

	for _, size := range sizes {
		// Check both orientations
		if (abs(width-size.w) < tolerance && abs(height-size.h) < tolerance) ||
			(abs(width-size.h) < tolerance && abs(height-size.w) < tolerance) {
			orientation := "portrait"
			if width > height {
				orientation = "landscape"
			}
			return fmt.Sprintf("%s, %s", size.name, orientation)
		}
	}

	return ""
}

func abs(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}

func printPageBoxes(n int, page *pdf.Page) {
	mediaBox := page.MediaBox()
	cropBox := page.CropBox()

	fmt.Printf("Page %4d MediaBox: %8.2f %8.2f %8.2f %8.2f\n", n,
		mediaBox.LLX, mediaBox.LLY, mediaBox.URX, mediaBox.URY)
	fmt.Printf("Page %4d CropBox:  %8.2f %8.2f %8.2f %8.2f\n", n,
		cropBox.LLX, cropBox.LLY, cropBox.URX, cropBox.URY)
	fmt.Printf("Page %4d rot:      %d\n", n, page.Rotate())
}
