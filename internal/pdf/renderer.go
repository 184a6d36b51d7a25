// Package pdf renders an invoice to PDF by driving pandoc with a LaTeX
// template. The document tool is an external collaborator: this package
// either returns the rendered bytes or a render error, nothing else.
package pdf

import (
	"bytes"
	"context"
	"embed"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"text/template"

	"factuur/internal/core"
)

//go:embed templates/details.yml.tmpl templates/template.tex
var templatesFS embed.FS

// ErrRender marks a failure of the external document tool, as opposed to
// storage or aggregation failures elsewhere.
var ErrRender = errors.New("pdf render failed")

var detailsTemplate = template.Must(
	template.ParseFS(templatesFS, "templates/details.yml.tmpl"))

// RenderDetails produces the pandoc metadata document for an invoice.
func RenderDetails(f *core.Factuur) ([]byte, error) {
	var buf bytes.Buffer
	if err := detailsTemplate.Execute(&buf, f); err != nil {
		return nil, fmt.Errorf("render invoice details: %w", err)
	}
	return buf.Bytes(), nil
}

type Renderer struct {
	pandocPath string
}

// NewRenderer creates a renderer invoking the given pandoc binary;
// an empty path means "pandoc" from PATH.
func NewRenderer(pandocPath string) *Renderer {
	if pandocPath == "" {
		pandocPath = "pandoc"
	}
	return &Renderer{pandocPath: pandocPath}
}

// Render produces the PDF bytes for an invoice. All intermediate files
// live in a throwaway directory that is removed before returning.
func (r *Renderer) Render(ctx context.Context, f *core.Factuur) ([]byte, error) {
	details, err := RenderDetails(f)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRender, err)
	}

	workDir, err := os.MkdirTemp("", "factuur-pdf-")
	if err != nil {
		return nil, fmt.Errorf("%w: create temp dir: %v", ErrRender, err)
	}
	defer os.RemoveAll(workDir)

	detailsPath := filepath.Join(workDir, "details.yml")
	if err := os.WriteFile(detailsPath, details, 0600); err != nil {
		return nil, fmt.Errorf("%w: write details: %v", ErrRender, err)
	}

	texTemplate, err := templatesFS.ReadFile("templates/template.tex")
	if err != nil {
		return nil, fmt.Errorf("%w: read tex template: %v", ErrRender, err)
	}
	texPath := filepath.Join(workDir, "template.tex")
	if err := os.WriteFile(texPath, texTemplate, 0600); err != nil {
		return nil, fmt.Errorf("%w: write tex template: %v", ErrRender, err)
	}

	outPath := filepath.Join(workDir, fmt.Sprintf("Factuur %s %d.pdf", f.Client.Name, f.Nummer))
	cmd := exec.CommandContext(ctx, r.pandocPath,
		detailsPath,
		"-o", outPath,
		"--template="+texPath,
		"--pdf-engine=xelatex",
	)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("%w: pandoc: %v: %s", ErrRender, err, stderr.String())
	}

	pdf, err := os.ReadFile(outPath)
	if err != nil {
		return nil, fmt.Errorf("%w: read output: %v", ErrRender, err)
	}
	return pdf, nil
}
