// pdfseparate - PDF page separator
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/novvoo/go-pdftools/pkg/pdf"
)

var (
	firstPage  = flag.Int("f", 1, "first page to extract")
	lastPage   = flag.Int("l", 0, "last page to extract")
	pageRanges = flag.String("pages", "", "page ranges to extract, e.g. 1-3,5 (overrides -f and -l)")
	single     = flag.Bool("single", false, "write the selected pages to one file instead of one file per page")
	xrefStream = flag.Bool("xrefstream", false, "write compressed cross-reference streams")
	debug      = flag.Bool("debug", false, "log parser recoveries to stderr")
	printHelp  = flag.Bool("h", false, "print usage information")
	printVer   = flag.Bool("v", false, "print version information")
)

func usage() {
	fmt.Fprintf(os.Stderr, "pdfseparate version 0.2.0\n")
	fmt.Fprintf(os.Stderr, "Usage: pdfseparate [options] <PDF-file> <PDF-file-pattern>\n")
	fmt.Fprintf(os.Stderr, "\nThe PDF-file-pattern should contain %%d (or %%nd) for page number\n")
	fmt.Fprintf(os.Stderr, "With -single it names the one output file\n")
	fmt.Fprintf(os.Stderr, "\nOptions:\n")
	flag.PrintDefaults()
}

func main() {
	flag.Usage = usage
	flag.Parse()

	if *printHelp {
		usage()
		os.Exit(0)
	}

	if *printVer {
		fmt.Println("pdfseparate version 0.2.0")
		os.Exit(0)
	}

	level := slog.LevelWarn
	if *debug {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	args := flag.Args()
	if len(args) < 2 {
		usage()
		os.Exit(1)
	}

	pdfFile := args[0]
	pattern := args[1]

	if !*single && !strings.Contains(pattern, "%") {
		fmt.Fprintf(os.Stderr, "Error: PDF-file-pattern must contain %%d for page number\n")
		os.Exit(1)
	}

	doc, err := pdf.Open(pdfFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	indices, err := selectPages(doc.NumPages())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	opts := pdf.WriteOptions{XRefStream: *xrefStream}

	if *single {
		out, err := pdf.ExtractPages(doc, indices)
		if err == nil {
			err = pdf.WriteFile(out, pattern, opts)
		}
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Extracted %d pages into %s\n", len(indices), pattern)
		return
	}

	failed := 0
	for _, idx := range indices {
		outputFile := fmt.Sprintf(pattern, idx+1)

		out, err := pdf.ExtractPages(doc, []int{idx})
		if err == nil {
			err = pdf.WriteFile(out, outputFile, opts)
		}
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error extracting page %d: %v\n", idx+1, err)
			failed++
			continue
		}
	}

	fmt.Printf("Extracted %d pages\n", len(indices)-failed)
	if failed > 0 {
		os.Exit(1)
	}
}

// selectPages turns the page flags into zero-based indices
func selectPages(numPages int) ([]int, error) {
	if *pageRanges != "" {
		return pdf.ParsePageRanges(*pageRanges, numPages)
	}

	first := *firstPage
	last := *lastPage
	if last == 0 || last > numPages {
		last = numPages
	}
	if first < 1 {
		first = 1
	}
	if first > last {
		return nil, fmt.Errorf("no pages selected (document has %d pages)", numPages)
	}
	return pdf.ParsePageRanges(fmt.Sprintf("%d-%d", first, last), numPages)
}
