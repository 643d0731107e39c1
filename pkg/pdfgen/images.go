package pdfgen

import (
	"bytes"
	"fmt"
	"image"
	"image/gif"
	"image/jpeg"
	"image/png"
	"math"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/chai2010/webp"
	"golang.org/x/image/draw"
)

// normalizeImage decodes jpeg/png/gif/webp bytes and re-encodes them as PNG,
// scaled down to maxW pixels wide when larger.
func normalizeImage(data []byte, contentType, name string, maxW int) ([]byte, error) {
	img, err := decodeImage(data, contentType, name)
	if err != nil {
		return nil, err
	}
	img = downscale(img, maxW)

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}

func decodeImage(all []byte, contentType, name string) (image.Image, error) {
	if len(all) == 0 {
		return nil, fmt.Errorf("empty image")
	}
	head := all
	if len(head) > 512 {
		head = head[:512]
	}
	ct := http.DetectContentType(head)
	if ct == "application/octet-stream" && contentType != "" {
		ct = contentType
	}

	r := bytes.NewReader(all)
	switch {
	case strings.Contains(ct, "jpeg"):
		return jpeg.Decode(r)
	case strings.Contains(ct, "png"):
		return png.Decode(r)
	case strings.Contains(ct, "gif"):
		return gif.Decode(r)
	case strings.Contains(ct, "webp"):
		return webp.Decode(r)
	}

	switch strings.ToLower(filepath.Ext(strings.SplitN(name, "?", 2)[0])) {
	case ".jpg", ".jpeg":
		return jpeg.Decode(r)
	case ".png":
		return png.Decode(r)
	case ".gif":
		return gif.Decode(r)
	case ".webp":
		return webp.Decode(r)
	}
	return nil, fmt.Errorf("unsupported image format %q", ct)
}

func downscale(src image.Image, maxW int) image.Image {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	if maxW <= 0 || w <= maxW {
		return src
	}
	scale := float64(maxW) / float64(w)
	nh := int(math.Round(float64(h) * scale))
	if nh < 1 {
		nh = 1
	}
	dst := image.NewRGBA(image.Rect(0, 0, maxW, nh))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, b, draw.Over, nil)
	return dst
}
