// Command pdfnup merges multiple PDF files into one, optionally tiling
// several source pages onto each output page (N-up layout).
//
// Usage:
//
//	pdfnup -o merged.pdf a.pdf b.pdf c.pdf
//	pdfnup --input-dir ./scans -o merged.pdf --pages-per-sheet 4
//	pdfnup -o merged.pdf --nup-rows 2 --nup-cols 3 --orientation landscape a.pdf b.pdf
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/longhao666/pdfnup/internal/merge"
	"github.com/longhao666/pdfnup/internal/nup"
)

func main() {
	log.SetFlags(0)

	opts, err := parseFlags(os.Args[1:])
	if err == nil {
		var outputPath string
		outputPath, err = merge.Run(opts)
		if err == nil {
			fmt.Printf("Created: %s\n", outputPath)
			return
		}
	}
	fmt.Fprintf(os.Stderr, "Merge failed: %v\n", err)
	os.Exit(1)
}

func parseFlags(args []string) (merge.Options, error) {
	fs := flag.NewFlagSet("pdfnup", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	var opts merge.Options
	var orientation string

	fs.StringVar(&opts.Output, "output", "", "output PDF file path (required)")
	fs.StringVar(&opts.Output, "o", "", "shorthand for --output")
	fs.StringVar(&opts.InputDir, "input-dir", "", "directory of PDF files to merge, sorted by filename")
	fs.IntVar(&opts.PagesPerSheet, "pages-per-sheet", 0, "source pages per output page (default 1)")
	fs.IntVar(&opts.Rows, "nup-rows", 0, "grid rows per sheet (requires --nup-cols)")
	fs.IntVar(&opts.Cols, "nup-cols", 0, "grid columns per sheet (requires --nup-rows)")
	fs.StringVar(&orientation, "orientation", "portrait", "sheet orientation: portrait or landscape")
	fs.BoolVar(&opts.Overwrite, "overwrite", false, "replace the output file if it already exists")
	fs.StringVar(&opts.Password, "password", "", "user password for encrypted inputs")
	fs.BoolVar(&opts.Verbose, "verbose", false, "log per-document progress")

	if err := fs.Parse(args); err != nil {
		return merge.Options{}, err
	}
	opts.Inputs = fs.Args()

	// A zero value normally means "flag not supplied"; reject it when the
	// user passed it explicitly.
	var explicitZero error
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "pages-per-sheet", "nup-rows", "nup-cols":
			if f.Value.String() == "0" {
				explicitZero = fmt.Errorf("%w: --%s must be a positive integer", nup.ErrInvalidArgument, f.Name)
			}
		}
	})
	if explicitZero != nil {
		return merge.Options{}, explicitZero
	}

	var err error
	opts.Orientation, err = nup.ParseOrientation(orientation)
	if err != nil {
		return merge.Options{}, err
	}
	return opts, nil
}
