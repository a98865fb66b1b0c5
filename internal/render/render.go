// Package render drives the external fixed-layout renderer that turns a
// presentation into a paginated PDF.
package render

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// Renderer converts a presentation file into a PDF inside outDir and
// returns the produced path. Rendering is synchronous; a failure is fatal
// for the artifact being processed.
type Renderer interface {
	Render(ctx context.Context, docPath, outDir string, embedFonts bool) (string, error)
}

// pdfaFilter selects PDF/A-1 output, which forces font embedding.
const pdfaFilter = `pdf:impress_pdf_Export:{"SelectPdfVersion":{"type":"long","value":"1"}}`

// LibreOffice renders through a headless soffice process.
type LibreOffice struct {
	Binary string // defaults to "soffice"
}

func (r *LibreOffice) Render(ctx context.Context, docPath, outDir string, embedFonts bool) (string, error) {
	bin := r.Binary
	if bin == "" {
		bin = "soffice"
	}

	target := "pdf"
	if embedFonts {
		target = pdfaFilter
	}

	cmd := exec.CommandContext(ctx, bin,
		"--headless", "--norestore",
		"--convert-to", target,
		"--outdir", outDir,
		docPath,
	)
	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out

	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("%s failed for %s: %w\n%s", bin, docPath, err, out.String())
	}

	base := filepath.Base(docPath)
	pdfPath := filepath.Join(outDir, strings.TrimSuffix(base, filepath.Ext(base))+".pdf")
	if _, err := os.Stat(pdfPath); err != nil {
		return "", fmt.Errorf("%s produced no PDF for %s: %s", bin, docPath, out.String())
	}

	return pdfPath, nil
}
