package nup

import (
	"fmt"
	"math"
)

// Placement positions one scaled source page on a sheet. Offsets are in PDF
// points relative to the sheet's bottom-left origin.
type Placement struct {
	Scale   float64
	OffsetX float64
	OffsetY float64
}

// Matrix returns the placement as a PDF current-transformation matrix
// [a b c d e f], i.e. scale-then-translate.
func (p Placement) Matrix() [6]float64 {
	return [6]float64{p.Scale, 0, 0, p.Scale, p.OffsetX, p.OffsetY}
}

// cell maps a 0-based chunk index to its grid column and row counted from the
// top. Portrait sheets fill column by column, top to bottom within a column;
// landscape sheets fill row by row, left to right.
func (g Grid) cell(idx int) (col, rowFromTop int) {
	if g.Orientation == Landscape {
		return idx % g.Cols, idx / g.Cols
	}
	return idx / g.Rows, idx % g.Rows
}

// Place computes the transform for the page at position idx within a sheet's
// chunk. The page is scaled uniformly to fit its cell, preserving aspect
// ratio, and centered in the cell both horizontally and vertically. The row
// index counted from the top is converted to a bottom-up offset because the
// PDF coordinate origin sits at the bottom-left corner of the sheet.
func (g Grid) Place(idx int, sheetW, sheetH, pageW, pageH float64) (Placement, error) {
	if idx < 0 || idx >= g.Rows*g.Cols {
		return Placement{}, fmt.Errorf("%w: page index %d outside %dx%d grid",
			ErrInvalidArgument, idx, g.Rows, g.Cols)
	}
	if sheetW <= 0 || sheetH <= 0 {
		return Placement{}, fmt.Errorf("%w: sheet size %.2fx%.2f", ErrInvalidGeometry, sheetW, sheetH)
	}
	if pageW <= 0 || pageH <= 0 {
		return Placement{}, fmt.Errorf("%w: page size %.2fx%.2f", ErrInvalidGeometry, pageW, pageH)
	}

	cellW := sheetW / float64(g.Cols)
	cellH := sheetH / float64(g.Rows)
	scale := math.Min(cellW/pageW, cellH/pageH)

	col, rowFromTop := g.cell(idx)
	rowFromBottom := g.Rows - 1 - rowFromTop

	return Placement{
		Scale:   scale,
		OffsetX: float64(col)*cellW + (cellW-pageW*scale)/2,
		OffsetY: float64(rowFromBottom)*cellH + (cellH-pageH*scale)/2,
	}, nil
}
