package merge

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	pdfapi "github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"github.com/longhao666/pdfnup/internal/nup"
)

var (
	// ErrNotFound reports a missing input file or directory.
	ErrNotFound = errors.New("not found")

	// ErrEmptyInput reports that the resolved inputs contain zero pages.
	ErrEmptyInput = errors.New("no pages")
)

// PageRef identifies one source page in the flattened page sequence. Nr is
// its 1-based position across all inputs in merge order; Width and Height are
// the page's media box dimensions in points.
type PageRef struct {
	Nr     int
	Width  float64
	Height float64
}

// Document is one opened source PDF. The raw bytes stay resident so the
// composition and serialization steps can re-read page content later.
type Document struct {
	Path  string
	Pages int

	data []byte
	ctx  *model.Context
}

// DocumentSet owns every opened source document for the duration of a run.
// Sheets reference pages inside these documents rather than copying them, so
// the set must outlive the final write.
type DocumentSet struct {
	docs []*Document
	refs []PageRef
}

// ResolveInputs expands the directory scan and the explicit file arguments
// into one ordered list of source paths: directory entries first, sorted
// case-insensitively by filename, then the explicit files in the order given.
// The resolved output path is excluded from the directory scan so a previous
// merge result is never folded into the next one.
func ResolveInputs(dir string, explicit []string, outputPath string) ([]string, error) {
	var paths []string

	if dir != "" {
		d, err := absPath(dir)
		if err != nil {
			return nil, err
		}
		info, err := os.Stat(d)
		if err != nil || !info.IsDir() {
			return nil, fmt.Errorf("%w: input directory does not exist: %s", ErrNotFound, d)
		}
		entries, err := os.ReadDir(d)
		if err != nil {
			return nil, fmt.Errorf("reading directory %s: %w", d, err)
		}
		var fromDir []string
		for _, e := range entries {
			if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ".pdf") {
				continue
			}
			p := filepath.Join(d, e.Name())
			if p == outputPath {
				continue
			}
			fromDir = append(fromDir, p)
		}
		sort.SliceStable(fromDir, func(i, j int) bool {
			return strings.ToLower(filepath.Base(fromDir[i])) < strings.ToLower(filepath.Base(fromDir[j]))
		})
		if len(fromDir) == 0 {
			return nil, fmt.Errorf("%w: no PDF files found in directory: %s", ErrNotFound, d)
		}
		paths = append(paths, fromDir...)
	}

	for _, raw := range explicit {
		p, err := absPath(raw)
		if err != nil {
			return nil, err
		}
		info, err := os.Stat(p)
		if err != nil || info.IsDir() {
			return nil, fmt.Errorf("%w: input file not found: %s", ErrNotFound, p)
		}
		if !strings.EqualFold(filepath.Ext(p), ".pdf") {
			return nil, fmt.Errorf("%w: input file is not a PDF: %s", nup.ErrInvalidArgument, p)
		}
		paths = append(paths, p)
	}

	if len(paths) < 2 {
		return nil, fmt.Errorf("%w: provide at least two PDF files via arguments or the input directory",
			nup.ErrInvalidArgument)
	}
	return paths, nil
}

// OpenDocuments eagerly opens and validates every source before any
// composition begins, and flattens their pages into one ordered sequence.
func OpenDocuments(paths []string, conf *model.Configuration) (*DocumentSet, error) {
	set := &DocumentSet{}
	nr := 0
	for _, p := range paths {
		data, err := os.ReadFile(p)
		if err != nil {
			return nil, fmt.Errorf("%w: input file not found: %s", ErrNotFound, p)
		}
		ctx, err := pdfapi.ReadValidateAndOptimize(bytes.NewReader(data), conf)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", p, err)
		}
		if err := ctx.EnsurePageCount(); err != nil {
			return nil, fmt.Errorf("reading %s: %w", p, err)
		}

		doc := &Document{Path: p, Pages: ctx.PageCount, data: data, ctx: ctx}
		for i := 1; i <= ctx.PageCount; i++ {
			_, _, inh, err := ctx.PageDict(i, false)
			if err != nil {
				return nil, fmt.Errorf("reading page %d of %s: %w", i, p, err)
			}
			box := inh.MediaBox
			if box == nil {
				box = inh.CropBox
			}
			if box == nil {
				return nil, fmt.Errorf("page %d of %s has no media box", i, p)
			}
			nr++
			set.refs = append(set.refs, PageRef{Nr: nr, Width: box.Width(), Height: box.Height()})
		}
		set.docs = append(set.docs, doc)
	}

	if len(set.refs) == 0 {
		return nil, fmt.Errorf("%w: no PDF pages found in the provided inputs", ErrEmptyInput)
	}
	return set, nil
}

// PageRefs returns the flat ordered page sequence, preserving document order
// and in-document page order.
func (s *DocumentSet) PageRefs() []PageRef { return s.refs }

// Documents returns the opened sources in merge order.
func (s *DocumentSet) Documents() []*Document { return s.docs }

// Readers returns fresh readers over the kept source bytes, one per document,
// in merge order.
func (s *DocumentSet) Readers() []io.ReadSeeker {
	rs := make([]io.ReadSeeker, len(s.docs))
	for i, d := range s.docs {
		rs[i] = bytes.NewReader(d.data)
	}
	return rs
}

// absPath expands a leading ~ and resolves the path to an absolute one.
func absPath(p string) (string, error) {
	if p == "~" || strings.HasPrefix(p, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolving %s: %w", p, err)
		}
		p = filepath.Join(home, strings.TrimPrefix(p, "~"))
	}
	abs, err := filepath.Abs(p)
	if err != nil {
		return "", fmt.Errorf("resolving %s: %w", p, err)
	}
	return abs, nil
}
