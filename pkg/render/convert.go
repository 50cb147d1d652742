package render

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"

	"github.com/matzehuels/chainflow/pkg/errors"
)

// Output formats.
const (
	FormatDOT = "dot"
	FormatSVG = "svg"
	FormatPNG = "png"
	FormatPDF = "pdf"
)

// ValidFormats is the set of supported output formats.
var ValidFormats = map[string]bool{
	FormatDOT: true,
	FormatSVG: true,
	FormatPNG: true,
	FormatPDF: true,
}

// ValidateFormat checks that format is supported.
func ValidateFormat(format string) error {
	if !ValidFormats[format] {
		return errors.New(errors.ErrCodeInvalidInput, "unknown format %q (want dot, svg, png or pdf)", format)
	}
	return nil
}

// ToPDF converts SVG bytes to PDF using rsvg-convert.
// Requires librsvg: brew install librsvg (macOS), apt install librsvg2-bin (Linux).
func ToPDF(ctx context.Context, svg []byte) ([]byte, error) {
	return rsvgConvert(ctx, svg, FormatPDF)
}

// ToPNG converts SVG bytes to PNG using rsvg-convert with the given scale factor.
// Scale of 2.0 produces a 2x resolution image.
func ToPNG(ctx context.Context, svg []byte, scale float64) ([]byte, error) {
	return rsvgConvert(ctx, svg, FormatPNG, "-z", fmt.Sprintf("%.2f", scale))
}

func rsvgConvert(ctx context.Context, svg []byte, format string, extraArgs ...string) ([]byte, error) {
	if _, err := exec.LookPath("rsvg-convert"); err != nil {
		return nil, errors.New(errors.ErrCodeUnsupported,
			"%s export requires librsvg. Install with:\n  macOS:  brew install librsvg\n  Linux:  apt install librsvg2-bin", format)
	}

	args := append([]string{"-f", format}, extraArgs...)
	cmd := exec.CommandContext(ctx, "rsvg-convert", args...)
	cmd.Stdin = bytes.NewReader(svg)

	var out, errBuf bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &errBuf

	if err := cmd.Run(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "rsvg-convert: %s", errBuf.String())
	}
	return out.Bytes(), nil
}
