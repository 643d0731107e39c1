package preview

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/disintegration/imaging"
)

// Rasterizer renders the first page of a PDF file into a PNG at outPath.
type Rasterizer interface {
	RenderFirstPage(ctx context.Context, pdfPath, outPath string) error
}

// Pdftoppm shells out to poppler's pdftoppm.
type Pdftoppm struct {
	Path     string
	DPI      int
	MaxWidth int
	Timeout  time.Duration
}

func NewPdftoppm(path string, dpi int) *Pdftoppm {
	if path == "" {
		path = "pdftoppm"
	}
	return &Pdftoppm{Path: path, DPI: dpi, MaxWidth: 1200, Timeout: 2 * time.Minute}
}

// AssertReady fails when the binary is not on PATH.
func (p *Pdftoppm) AssertReady() error {
	if _, err := exec.LookPath(p.Path); err != nil {
		return fmt.Errorf("missing required binary %q in PATH: %w", p.Path, err)
	}
	return nil
}

func (p *Pdftoppm) RenderFirstPage(ctx context.Context, pdfPath, outPath string) error {
	if !strings.HasSuffix(outPath, ".png") {
		return fmt.Errorf("output must be a .png path, got %s", outPath)
	}
	dpi := p.DPI
	if dpi <= 0 {
		dpi = 100
	}
	if p.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.Timeout)
		defer cancel()
	}

	// -singlefile writes exactly <prefix>.png without a page-number suffix.
	prefix := strings.TrimSuffix(outPath, ".png")
	args := []string{"-r", strconv.Itoa(dpi), "-png", "-f", "1", "-l", "1", "-singlefile", pdfPath, prefix}
	cmd := exec.CommandContext(ctx, p.Path, args...)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("pdftoppm failed: %w; out=%s", err, string(out))
	}
	if _, err := os.Stat(outPath); err != nil {
		return fmt.Errorf("no image produced by pdftoppm; out=%s", string(out))
	}

	if p.MaxWidth > 0 {
		return fitWidth(outPath, p.MaxWidth)
	}
	return nil
}

func fitWidth(path string, maxW int) error {
	img, err := imaging.Open(path)
	if err != nil {
		return fmt.Errorf("open rendered page: %w", err)
	}
	if img.Bounds().Dx() <= maxW {
		return nil
	}
	resized := imaging.Resize(img, maxW, 0, imaging.Lanczos)
	if err := imaging.Save(resized, path); err != nil {
		return fmt.Errorf("save resized page: %w", err)
	}
	return nil
}
