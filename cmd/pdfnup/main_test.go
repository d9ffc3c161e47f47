package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/longhao666/pdfnup/internal/nup"
)

func TestParseFlags(t *testing.T) {
	opts, err := parseFlags([]string{
		"-o", "out.pdf",
		"--input-dir", "./scans",
		"--pages-per-sheet", "4",
		"--orientation", "landscape",
		"--overwrite",
		"a.pdf", "b.pdf",
	})
	require.NoError(t, err)
	assert.Equal(t, "out.pdf", opts.Output)
	assert.Equal(t, "./scans", opts.InputDir)
	assert.Equal(t, 4, opts.PagesPerSheet)
	assert.Equal(t, nup.Landscape, opts.Orientation)
	assert.True(t, opts.Overwrite)
	assert.Equal(t, []string{"a.pdf", "b.pdf"}, opts.Inputs)
}

func TestParseFlagsDefaults(t *testing.T) {
	opts, err := parseFlags([]string{"--output", "out.pdf", "a.pdf", "b.pdf"})
	require.NoError(t, err)
	assert.Equal(t, nup.Portrait, opts.Orientation)
	assert.Zero(t, opts.PagesPerSheet)
	assert.Zero(t, opts.Rows)
	assert.Zero(t, opts.Cols)
	assert.False(t, opts.Overwrite)
}

func TestParseFlagsRejectsExplicitZero(t *testing.T) {
	_, err := parseFlags([]string{"-o", "out.pdf", "--pages-per-sheet", "0", "a.pdf", "b.pdf"})
	require.ErrorIs(t, err, nup.ErrInvalidArgument)

	_, err = parseFlags([]string{"-o", "out.pdf", "--nup-rows", "0", "--nup-cols", "2", "a.pdf", "b.pdf"})
	require.ErrorIs(t, err, nup.ErrInvalidArgument)
}

func TestParseFlagsRejectsBadOrientation(t *testing.T) {
	_, err := parseFlags([]string{"-o", "out.pdf", "--orientation", "sideways", "a.pdf", "b.pdf"})
	require.ErrorIs(t, err, nup.ErrInvalidArgument)
}
