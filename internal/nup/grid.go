// Package nup computes N-up sheet layouts: how many source pages tile onto
// one output page, which grid cell each page lands in, and the affine
// transform that scales and centers it there. The package is pure math; all
// PDF I/O lives in internal/merge.
package nup

import (
	"errors"
	"fmt"
	"math"
)

var (
	// ErrInvalidArgument reports a bad grid option combination or a
	// non-positive numeric value.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrInvalidGeometry reports a zero-sized page or sheet that would break
	// the scale computation.
	ErrInvalidGeometry = errors.New("invalid geometry")
)

// Orientation selects the physical sheet orientation for N-up output.
type Orientation string

const (
	Portrait  Orientation = "portrait"
	Landscape Orientation = "landscape"
)

// ParseOrientation validates an orientation given on the command line.
func ParseOrientation(s string) (Orientation, error) {
	switch Orientation(s) {
	case Portrait:
		return Portrait, nil
	case Landscape:
		return Landscape, nil
	}
	return "", fmt.Errorf("%w: unsupported orientation %q", ErrInvalidArgument, s)
}

// Grid is a resolved N-up layout: PagesPerSheet source pages tile onto each
// sheet in a Rows x Cols grid. Invariant: Rows*Cols >= PagesPerSheet.
type Grid struct {
	PagesPerSheet int
	Rows          int
	Cols          int
	Orientation   Orientation
}

// ResolveGrid turns the raw layout options into a validated Grid. A zero
// value means the option was not supplied.
//
// With neither pagesPerSheet nor rows/cols given the result is the 1-up
// identity layout. With only pagesPerSheet given, the grid is derived as
// cols = ceil(sqrt(n)), rows = ceil(n/cols); in portrait the grid is then
// biased taller than wide by swapping rows and cols when rows < cols.
// rows and cols must be supplied together, and when pagesPerSheet is also
// given it must equal rows*cols exactly.
func ResolveGrid(pagesPerSheet, rows, cols int, orientation Orientation) (Grid, error) {
	if orientation == "" {
		orientation = Portrait
	}
	if orientation != Portrait && orientation != Landscape {
		return Grid{}, fmt.Errorf("%w: unsupported orientation %q", ErrInvalidArgument, orientation)
	}

	if rows == 0 && cols == 0 {
		if pagesPerSheet == 0 {
			pagesPerSheet = 1
		}
		if pagesPerSheet < 1 {
			return Grid{}, fmt.Errorf("%w: pages per sheet must be a positive integer", ErrInvalidArgument)
		}
		c := int(math.Ceil(math.Sqrt(float64(pagesPerSheet))))
		r := int(math.Ceil(float64(pagesPerSheet) / float64(c)))
		if orientation == Portrait && pagesPerSheet > 1 && r < c {
			r, c = c, r
		}
		return Grid{PagesPerSheet: pagesPerSheet, Rows: r, Cols: c, Orientation: orientation}, nil
	}

	if rows == 0 || cols == 0 {
		return Grid{}, fmt.Errorf("%w: rows and cols must be used together", ErrInvalidArgument)
	}
	if rows < 1 || cols < 1 {
		return Grid{}, fmt.Errorf("%w: rows and cols must be positive integers", ErrInvalidArgument)
	}

	switch {
	case pagesPerSheet == 0:
		pagesPerSheet = rows * cols
	case pagesPerSheet < 1:
		return Grid{}, fmt.Errorf("%w: pages per sheet must be a positive integer", ErrInvalidArgument)
	case pagesPerSheet != rows*cols:
		return Grid{}, fmt.Errorf("%w: pages per sheet (%d) must equal rows*cols (%d)",
			ErrInvalidArgument, pagesPerSheet, rows*cols)
	}

	return Grid{PagesPerSheet: pagesPerSheet, Rows: rows, Cols: cols, Orientation: orientation}, nil
}

// SheetSize returns the oriented output sheet dimensions derived from a base
// page size: portrait yields (min, max), landscape (max, min), regardless of
// the base page's own orientation.
func (g Grid) SheetSize(w, h float64) (float64, float64) {
	if g.Orientation == Landscape {
		return math.Max(w, h), math.Min(w, h)
	}
	return math.Min(w, h), math.Max(w, h)
}
