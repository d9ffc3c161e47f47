// Package merge drives the whole run: it resolves and opens the source
// documents, lays their pages out onto output sheets, and serializes the
// result. All PDF byte handling is delegated to pdfcpu; the layout math lives
// in internal/nup.
package merge

import (
	"bytes"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"github.com/longhao666/pdfnup/internal/nup"
)

// ErrAlreadyExists reports an output path that exists while overwriting was
// not requested.
var ErrAlreadyExists = errors.New("already exists")

// Options are the resolved command-line options for one merge run. A zero
// PagesPerSheet, Rows, or Cols means the flag was not supplied.
type Options struct {
	Inputs   []string
	InputDir string
	Output   string

	PagesPerSheet int
	Rows          int
	Cols          int
	Orientation   nup.Orientation

	Overwrite bool
	Password  string
	Verbose   bool
}

// Run merges the inputs into one output document and returns the resolved
// output path. Every validation step runs before composition, and the whole
// document is composed in memory before the first byte reaches the output
// file, so a failing run never leaves partial output behind.
func Run(opts Options) (string, error) {
	outputPath, err := resolveOutput(opts.Output, opts.Overwrite)
	if err != nil {
		return "", err
	}

	grid, err := nup.ResolveGrid(opts.PagesPerSheet, opts.Rows, opts.Cols, opts.Orientation)
	if err != nil {
		return "", err
	}

	paths, err := ResolveInputs(opts.InputDir, opts.Inputs, outputPath)
	if err != nil {
		return "", err
	}

	conf := newConfiguration(opts.Password)

	// Opened documents stay referenced through set until the output file is
	// fully written: sheets read page content lazily from the source bytes.
	set, err := OpenDocuments(paths, conf)
	if err != nil {
		return "", err
	}
	if opts.Verbose {
		for _, d := range set.Documents() {
			log.Printf("loaded %s (%d pages)", d.Path, d.Pages)
		}
		log.Printf("layout: %d pages per sheet, %dx%d grid, %s",
			grid.PagesPerSheet, grid.Rows, grid.Cols, grid.Orientation)
	}

	var out bytes.Buffer
	if grid.PagesPerSheet == 1 {
		err = writeLinear(set, conf, &out)
	} else {
		err = writeNUp(set, grid, conf, &out)
	}
	if err != nil {
		return "", err
	}

	if err := os.WriteFile(outputPath, out.Bytes(), 0644); err != nil {
		return "", fmt.Errorf("writing %s: %w", outputPath, err)
	}
	return outputPath, nil
}

// resolveOutput validates the output path before any work happens.
func resolveOutput(output string, overwrite bool) (string, error) {
	if output == "" {
		return "", fmt.Errorf("%w: an output path is required", nup.ErrInvalidArgument)
	}
	p, err := absPath(output)
	if err != nil {
		return "", err
	}
	if _, err := os.Stat(p); err == nil && !overwrite {
		return "", fmt.Errorf("%w: output file already exists: %s (use --overwrite to replace it)",
			ErrAlreadyExists, p)
	}
	if info, err := os.Stat(filepath.Dir(p)); err != nil || !info.IsDir() {
		return "", fmt.Errorf("%w: output directory does not exist: %s", ErrNotFound, filepath.Dir(p))
	}
	return p, nil
}

// newConfiguration builds the pdfcpu configuration shared by all reads of a
// run. Relaxed validation keeps slightly malformed scans mergeable.
func newConfiguration(password string) *model.Configuration {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	if password != "" {
		conf.UserPW = password
		conf.OwnerPW = password
	}
	return conf
}
