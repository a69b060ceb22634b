// imgtopdf - image to PDF converter
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/novvoo/go-pdftools/pkg/imagepdf"
)

var (
	dpi       = flag.Float64("dpi", imagepdf.DefaultDPI, "image resolution in pixels per inch")
	format    = flag.String("format", "", "image format (jpeg, png, gif, bmp, tiff, webp); default from file extension")
	debug     = flag.Bool("debug", false, "log conversion details to stderr")
	printHelp = flag.Bool("h", false, "print usage information")
	printVer  = flag.Bool("v", false, "print version information")
)

func usage() {
	fmt.Fprintf(os.Stderr, "imgtopdf version 0.2.0\n")
	fmt.Fprintf(os.Stderr, "Usage: imgtopdf [options] <image-file> <output-PDF-file>\n")
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
		fmt.Println("imgtopdf version 0.2.0")
		os.Exit(0)
	}

	level := slog.LevelWarn
	if *debug {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	args := flag.Args()
	if len(args) != 2 {
		usage()
		os.Exit(1)
	}
	imageFile, outputFile := args[0], args[1]

	data, err := os.ReadFile(imageFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	f := *format
	if f == "" {
		f = filepath.Ext(imageFile)
	}

	out, err := imagepdf.Convert(data, f, imagepdf.Options{DPI: *dpi})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error converting %s: %v\n", imageFile, err)
		os.Exit(1)
	}

	if err := os.WriteFile(outputFile, out, 0644); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing %s: %v\n", outputFile, err)
		os.Exit(1)
	}

	fmt.Printf("Converted %s into %s\n", imageFile, outputFile)
}
