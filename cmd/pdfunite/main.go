// pdfunite - PDF merger
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/novvoo/go-pdftools/pkg/pdf"
)

var (
	xrefStream = flag.Bool("xrefstream", false, "write a compressed cross-reference stream")
	compress   = flag.Bool("compress", false, "flate-encode uncompressed streams")
	debug      = flag.Bool("debug", false, "log parser recoveries to stderr")
	printHelp  = flag.Bool("h", false, "print usage information")
	printVer   = flag.Bool("v", false, "print version information")
)

func usage() {
	fmt.Fprintf(os.Stderr, "pdfunite version 0.2.0\n")
	fmt.Fprintf(os.Stderr, "Usage: pdfunite [options] <PDF-file-1> ... <PDF-file-n> <output-PDF-file>\n")
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
		fmt.Println("pdfunite version 0.2.0")
		os.Exit(0)
	}

	setupLogging(*debug)

	args := flag.Args()
	if len(args) < 2 {
		usage()
		os.Exit(1)
	}

	// Last argument is output file
	outputFile := args[len(args)-1]
	inputFiles := args[:len(args)-1]

	var docs []*pdf.Document
	for _, inputFile := range inputFiles {
		doc, err := pdf.Open(inputFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error opening %s: %v\n", inputFile, err)
			os.Exit(1)
		}
		slog.Debug("opened input", slog.String("file", inputFile), slog.Int("pages", doc.NumPages()))
		docs = append(docs, doc)
	}

	merged, err := pdf.MergeDocuments(docs)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error merging PDFs: %v\n", err)
		os.Exit(1)
	}

	opts := pdf.WriteOptions{XRefStream: *xrefStream, Compress: *compress}
	if err := pdf.WriteFile(merged, outputFile, opts); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing %s: %v\n", outputFile, err)
		os.Exit(1)
	}

	fmt.Printf("Merged %d files (%d pages) into %s\n", len(inputFiles), merged.NumPages(), outputFile)
}

func setupLogging(debug bool) {
	level := slog.LevelWarn
	if debug {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
}
