package merge

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	pdfapi "github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"

	"github.com/longhao666/pdfnup/internal/nup"
)

// writeLinear streams the source documents straight into one output document,
// page for page, with no transforms and no blank-page allocation. This is the
// pass-through path for the 1-up layout.
func writeLinear(set *DocumentSet, conf *model.Configuration, w io.Writer) error {
	return pdfapi.MergeRaw(set.Readers(), w, false, conf)
}

// writeNUp composes the flattened page sequence into N-up sheets and writes
// the resulting document.
//
// The sources are first concatenated into a single in-memory document so that
// every page lives in one xref space. Each chunk of grid.PagesPerSheet pages
// then becomes one sheet: the chunk's pages turn into Form XObjects and a
// fresh page invokes them under their placement transforms. Finally the page
// tree is rewritten to hold only the composed sheets.
func writeNUp(set *DocumentSet, grid nup.Grid, conf *model.Configuration, w io.Writer) error {
	var merged bytes.Buffer
	if err := pdfapi.MergeRaw(set.Readers(), &merged, false, conf); err != nil {
		return fmt.Errorf("concatenating inputs: %w", err)
	}

	// The merged document is unencrypted regardless of input passwords.
	ctx, err := pdfapi.ReadValidateAndOptimize(bytes.NewReader(merged.Bytes()), newConfiguration(""))
	if err != nil {
		return fmt.Errorf("reading merged document: %w", err)
	}
	if err := ctx.EnsurePageCount(); err != nil {
		return err
	}

	refs := set.PageRefs()
	if ctx.PageCount != len(refs) {
		return fmt.Errorf("merged document has %d pages, expected %d", ctx.PageCount, len(refs))
	}

	catalog, err := ctx.Catalog()
	if err != nil {
		return err
	}
	pagesRef := catalog.IndirectRefEntry("Pages")
	if pagesRef == nil {
		return errors.New("merged document has no page tree")
	}
	pagesDict, err := ctx.DereferenceDict(catalog["Pages"])
	if err != nil {
		return err
	}

	kids := types.Array{}
	for start := 0; start < len(refs); start += grid.PagesPerSheet {
		end := start + grid.PagesPerSheet
		if end > len(refs) {
			end = len(refs)
		}
		sheetRef, err := composeSheet(ctx, refs[start:end], grid, *pagesRef)
		if err != nil {
			return err
		}
		kids = append(kids, *sheetRef)
	}

	pagesDict["Kids"] = kids
	pagesDict["Count"] = types.Integer(len(kids))
	// Strip inheritable page attributes left over from the source pages so
	// they cannot leak onto the composed sheets.
	pagesDict.Delete("MediaBox")
	pagesDict.Delete("CropBox")
	pagesDict.Delete("Resources")
	pagesDict.Delete("Rotate")
	ctx.PageCount = len(kids)

	return pdfapi.WriteContext(ctx, w)
}

// composeSheet builds one output page from a chunk of consecutive source
// pages and returns an indirect reference to the new page dict. The sheet's
// dimensions come from the chunk's first page, adjusted for the grid's
// orientation.
func composeSheet(ctx *model.Context, chunk []PageRef, grid nup.Grid, parent types.IndirectRef) (*types.IndirectRef, error) {
	first := chunk[0]
	sheetW, sheetH := grid.SheetSize(first.Width, first.Height)
	if sheetW <= 0 || sheetH <= 0 {
		return nil, fmt.Errorf("%w: page %d has zero size", nup.ErrInvalidGeometry, first.Nr)
	}

	var content bytes.Buffer
	xObjects := types.Dict{}

	for idx, ref := range chunk {
		p, err := grid.Place(idx, sheetW, sheetH, ref.Width, ref.Height)
		if err != nil {
			return nil, fmt.Errorf("placing page %d: %w", ref.Nr, err)
		}

		formRef, err := pageToFormXObject(ctx, ref.Nr)
		if err != nil {
			return nil, err
		}

		name := fmt.Sprintf("Fm%d", idx)
		xObjects[name] = *formRef

		m := p.Matrix()
		fmt.Fprintf(&content, "q %.5f %.5f %.5f %.5f %.5f %.5f cm /%s Do Q ",
			m[0], m[1], m[2], m[3], m[4], m[5], name)
	}

	contentDict, err := ctx.NewStreamDictForBuf(content.Bytes())
	if err != nil {
		return nil, err
	}
	if err := contentDict.Encode(); err != nil {
		return nil, err
	}
	contentRef, err := ctx.IndRefForNewObject(*contentDict)
	if err != nil {
		return nil, err
	}

	sheet := types.Dict{
		"Type":      types.Name("Page"),
		"Parent":    parent,
		"MediaBox":  types.RectForWidthAndHeight(0, 0, sheetW, sheetH).Array(),
		"Resources": types.Dict{"XObject": xObjects},
		"Contents":  *contentRef,
	}
	return ctx.IndRefForNewObject(sheet)
}

// pageToFormXObject wraps a source page's content stream into a Form XObject
// so its resources stay self-contained when several pages share one sheet.
// A non-zero media box origin is folded into the form matrix, which keeps the
// outer placement transform a plain scale-then-translate.
func pageToFormXObject(ctx *model.Context, pageNr int) (*types.IndirectRef, error) {
	pageDict, _, inh, err := ctx.PageDict(pageNr, false)
	if err != nil {
		return nil, fmt.Errorf("reading page %d: %w", pageNr, err)
	}

	box := inh.MediaBox
	if box == nil {
		box = inh.CropBox
	}
	if box == nil {
		return nil, fmt.Errorf("page %d has no media box", pageNr)
	}

	content, err := ctx.PageContent(pageDict, pageNr)
	if err != nil && !errors.Is(err, model.ErrNoContent) {
		return nil, fmt.Errorf("reading content of page %d: %w", pageNr, err)
	}

	sd, err := ctx.NewStreamDictForBuf(content)
	if err != nil {
		return nil, err
	}
	sd.Insert("Type", types.Name("XObject"))
	sd.Insert("Subtype", types.Name("Form"))
	sd.Insert("FormType", types.Integer(1))
	sd.Insert("BBox", box.Array())
	if box.LL.X != 0 || box.LL.Y != 0 {
		sd.Insert("Matrix", types.NewNumberArray(1, 0, 0, 1, -box.LL.X, -box.LL.Y))
	}
	if len(inh.Resources) > 0 {
		sd.Insert("Resources", inh.Resources)
	}
	if err := sd.Encode(); err != nil {
		return nil, err
	}
	return ctx.IndRefForNewObject(*sd)
}
