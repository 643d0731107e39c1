// Package pdfgen turns lesson text into a paginated PDF. Lines that start with
// the image tag are fetched and embedded; everything else is wrapped text.
package pdfgen

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"edu-portal/pkg/fetch"
	"edu-portal/pkg/logger"

	"github.com/go-pdf/fpdf"
)

// ImagePrefix marks a content line as an inline image reference.
const ImagePrefix = "[img]"

const (
	pageMargin   = 15.0
	lineHeight   = 10.0
	fontSize     = 14.0
	imageX       = 10.0
	imageWidthMM = 170.0
)

type ImageFetcher interface {
	Get(ctx context.Context, url string) (*fetch.Response, error)
}

type BlockKind int

const (
	BlockText BlockKind = iota
	BlockImage
	BlockPlaceholder
)

// Block is one laid-out unit of the document.
type Block struct {
	Kind  BlockKind
	Text  string
	URL   string
	Image []byte // PNG, only for BlockImage
}

func FailedPlaceholder(url string) string {
	return fmt.Sprintf("[Image Failed to Load: %s]", url)
}

func InvalidPlaceholder(url string) string {
	return fmt.Sprintf("[Invalid Image URL: %s]", url)
}

type Generator struct {
	fetcher       ImageFetcher
	fontPath      string
	compress      bool
	maxImageWidth int
	log           *logger.Logger
}

type Option func(*Generator)

// WithUTF8Font embeds a TrueType font so non cp1252 text renders.
func WithUTF8Font(path string) Option {
	return func(g *Generator) { g.fontPath = path }
}

func WithCompression(on bool) Option {
	return func(g *Generator) { g.compress = on }
}

func WithMaxImageWidth(px int) Option {
	return func(g *Generator) { g.maxImageWidth = px }
}

func WithLogger(log *logger.Logger) Option {
	return func(g *Generator) { g.log = log }
}

func New(fetcher ImageFetcher, opts ...Option) *Generator {
	g := &Generator{
		fetcher:       fetcher,
		compress:      true,
		maxImageWidth: 1600,
	}
	for _, opt := range opts {
		opt(g)
	}
	g.log = logger.OrNop(g.log).With("component", "pdfgen")
	return g
}

// Compose resolves every line into a block. Image lines are fetched
// synchronously; a failed fetch becomes a placeholder line, never an error.
func (g *Generator) Compose(ctx context.Context, content string) []Block {
	lines := strings.Split(content, "\n")
	blocks := make([]Block, 0, len(lines))
	for _, line := range lines {
		line = strings.TrimRight(line, "\r")
		if !strings.HasPrefix(line, ImagePrefix) {
			blocks = append(blocks, Block{Kind: BlockText, Text: line})
			continue
		}
		url := strings.TrimSpace(strings.ReplaceAll(line, ImagePrefix, ""))
		blocks = append(blocks, g.imageBlock(ctx, url))
	}
	return blocks
}

func (g *Generator) imageBlock(ctx context.Context, url string) Block {
	resp, err := g.fetcher.Get(ctx, url)
	if err != nil {
		if fetch.IsStatus(err) {
			g.log.Warn("lesson image returned non-success status", "url", url, "error", err)
			return Block{Kind: BlockPlaceholder, URL: url, Text: FailedPlaceholder(url)}
		}
		g.log.Warn("lesson image fetch failed", "url", url, "error", err)
		return Block{Kind: BlockPlaceholder, URL: url, Text: InvalidPlaceholder(url)}
	}
	if resp.StatusCode != http.StatusOK {
		g.log.Warn("lesson image returned non-200 status", "url", url, "status", resp.StatusCode)
		return Block{Kind: BlockPlaceholder, URL: url, Text: FailedPlaceholder(url)}
	}

	png, err := normalizeImage(resp.Body, resp.ContentType, url, g.maxImageWidth)
	if err != nil {
		g.log.Warn("lesson image could not be decoded", "url", url, "error", err)
		return Block{Kind: BlockPlaceholder, URL: url, Text: InvalidPlaceholder(url)}
	}
	return Block{Kind: BlockImage, URL: url, Image: png}
}

// Render writes the PDF for content to w.
func (g *Generator) Render(ctx context.Context, title, content string, w io.Writer) error {
	blocks := g.Compose(ctx, content)

	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetCompression(g.compress)
	pdf.SetTitle(title, true)
	pdf.SetAutoPageBreak(true, pageMargin)

	family := "Arial"
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	if g.fontPath != "" {
		family = "body"
		pdf.AddUTF8Font(family, "", g.fontPath)
		tr = func(s string) string { return s }
	}
	pdf.AddPage()
	pdf.SetFont(family, "", fontSize)

	for i, b := range blocks {
		switch b.Kind {
		case BlockImage:
			name := fmt.Sprintf("lesson-img-%d", i)
			opts := fpdf.ImageOptions{ImageType: "PNG"}
			pdf.RegisterImageOptionsReader(name, opts, bytes.NewReader(b.Image))
			if pdf.Err() {
				g.log.Warn("embedding lesson image failed", "url", b.URL, "error", pdf.Error())
				pdf.ClearError()
				pdf.MultiCell(0, lineHeight, tr(InvalidPlaceholder(b.URL)), "", "", false)
				continue
			}
			pdf.ImageOptions(name, imageX, 0, imageWidthMM, 0, true, opts, 0, "")
		default:
			pdf.MultiCell(0, lineHeight, tr(b.Text), "", "", false)
		}
	}

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("render pdf %q: %w", title, err)
	}
	return nil
}

// StaticFileName is the file a lesson is exported to under the static dir.
// Titles are not unique, so two lessons with the same title share a file.
func StaticFileName(title string) string {
	name := strings.ReplaceAll(title, " ", "_")
	name = strings.NewReplacer("/", "_", "\\", "_").Replace(name)
	return "lesson_" + name + ".pdf"
}

// WriteStatic renders the lesson into dir and returns the written path.
func (g *Generator) WriteStatic(ctx context.Context, dir, title, content string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("mkdir %s: %w", dir, err)
	}
	path := filepath.Join(dir, StaticFileName(title))
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create %s: %w", path, err)
	}
	if err := g.Render(ctx, title, content, f); err != nil {
		f.Close()
		return "", err
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("close %s: %w", path, err)
	}
	return path, nil
}
