package merge

import (
	"bytes"
	"fmt"
	"os"
	"strings"
	"testing"

	pdfapi "github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/stretchr/testify/require"
)

// minimalPDF hand-builds a valid single-xref PDF with the given number of
// equally sized pages. Object layout: 1 catalog, 2 page tree, then one page
// dict and one content stream per page.
func minimalPDF(pages int, w, h float64) []byte {
	var buf bytes.Buffer
	var offsets []int
	addObj := func(body string) {
		offsets = append(offsets, buf.Len())
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", len(offsets), body)
	}

	buf.WriteString("%PDF-1.4\n")
	addObj("<</Type/Catalog/Pages 2 0 R>>")

	kids := make([]string, pages)
	for i := range kids {
		kids[i] = fmt.Sprintf("%d 0 R", 3+2*i)
	}
	addObj(fmt.Sprintf("<</Type/Pages/Kids[%s]/Count %d>>", strings.Join(kids, " "), pages))

	for i := 0; i < pages; i++ {
		addObj(fmt.Sprintf("<</Type/Page/Parent 2 0 R/MediaBox[0 0 %g %g]/Resources<<>>/Contents %d 0 R>>",
			w, h, 4+2*i))
		stream := fmt.Sprintf("0 0 %g %g re f", w/2, h/2)
		addObj(fmt.Sprintf("<</Length %d>>\nstream\n%s\nendstream", len(stream), stream))
	}

	xrefOffset := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n", len(offsets)+1)
	fmt.Fprintf(&buf, "%010d %05d f \r\n", 0, 65535)
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d %05d n \r\n", off, 0)
	}
	fmt.Fprintf(&buf, "trailer\n<</Size %d/Root 1 0 R>>\nstartxref\n%d\n%%%%EOF", len(offsets)+1, xrefOffset)
	return buf.Bytes()
}

func writeTestPDF(t *testing.T, path string, pages int, w, h float64) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, minimalPDF(pages, w, h), 0644))
}

// readOutput re-reads a merge result for assertions.
func readOutput(t *testing.T, path string) *model.Context {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	ctx, err := pdfapi.ReadValidateAndOptimize(bytes.NewReader(data), newConfiguration(""))
	require.NoError(t, err)
	require.NoError(t, ctx.EnsurePageCount())
	return ctx
}

// pageSize returns the media box dimensions of a 1-based page.
func pageSize(t *testing.T, ctx *model.Context, pageNr int) (float64, float64) {
	t.Helper()
	_, _, inh, err := ctx.PageDict(pageNr, false)
	require.NoError(t, err)
	require.NotNil(t, inh.MediaBox)
	return inh.MediaBox.Width(), inh.MediaBox.Height()
}

// sheetXObjectCount counts the form XObjects referenced by a composed sheet.
func sheetXObjectCount(t *testing.T, ctx *model.Context, pageNr int) int {
	t.Helper()
	_, _, inh, err := ctx.PageDict(pageNr, false)
	require.NoError(t, err)
	require.NotNil(t, inh.Resources)
	xObjects, err := ctx.DereferenceDict(inh.Resources["XObject"])
	require.NoError(t, err)
	return len(xObjects)
}
