// Package preview keeps first-page PNG previews of simulation PDFs on disk.
//
// Entries are addressed by (simulation id, source link): a changed link maps to
// a new file and the old one is dropped once the new one exists. The number of
// files is bounded and concurrent misses for the same key share one download.
package preview

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"sort"
	"sync"
	"time"

	"edu-portal/pkg/fetch"
	"edu-portal/pkg/logger"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"
)

var (
	ErrDownload = errors.New("download source pdf")
	ErrRender   = errors.New("render preview")
)

const (
	imagesDir = "images"
	tempDir   = "temp"
)

var entryPattern = regexp.MustCompile(`^simul_(\d+)_[0-9a-f]{12}_first_page\.png$`)

type Downloader interface {
	Get(ctx context.Context, url string) (*fetch.Response, error)
}

type Cache struct {
	root       string
	maxEntries int
	fetcher    Downloader
	raster     Rasterizer
	group      singleflight.Group
	mu         sync.Mutex
	log        *logger.Logger
}

func NewCache(staticDir string, fetcher Downloader, raster Rasterizer, maxEntries int, log *logger.Logger) *Cache {
	return &Cache{
		root:       staticDir,
		maxEntries: maxEntries,
		fetcher:    fetcher,
		raster:     raster,
		log:        logger.OrNop(log).With("component", "preview"),
	}
}

func linkHash(link string) string {
	sum := sha256.Sum256([]byte(link))
	return hex.EncodeToString(sum[:])[:12]
}

// RelPath is the slash-separated path of the preview under the static dir.
func RelPath(id uint, link string) string {
	return path.Join(imagesDir, fmt.Sprintf("simul_%d_%s_first_page.png", id, linkHash(link)))
}

func (c *Cache) fullPath(rel string) string {
	return filepath.Join(c.root, filepath.FromSlash(rel))
}

// Ensure returns the static-relative path of the preview for (id, link),
// generating it first when it is not on disk.
func (c *Cache) Ensure(ctx context.Context, id uint, link string) (string, error) {
	rel := RelPath(id, link)
	full := c.fullPath(rel)
	if fileExists(full) {
		return rel, nil
	}

	_, err, shared := c.group.Do(rel, func() (interface{}, error) {
		if fileExists(full) {
			return nil, nil
		}
		return nil, c.generate(context.WithoutCancel(ctx), id, link, full)
	})
	if err != nil {
		return "", err
	}
	if shared {
		c.log.Debug("preview generation shared", "simulation_id", id)
	}
	return rel, nil
}

func (c *Cache) generate(ctx context.Context, id uint, link, full string) error {
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return fmt.Errorf("%w: mkdir: %v", ErrRender, err)
	}
	tmpDir := filepath.Join(c.root, tempDir)
	if err := os.MkdirAll(tmpDir, 0o755); err != nil {
		return fmt.Errorf("%w: mkdir: %v", ErrRender, err)
	}

	started := time.Now()
	resp, err := c.fetcher.Get(ctx, link)
	if err != nil {
		c.log.Warn("simulation pdf download failed", "simulation_id", id, "link", link, "error", err)
		return fmt.Errorf("%w: %v", ErrDownload, err)
	}

	pdfPath := filepath.Join(tmpDir, fmt.Sprintf("simul_%d_%s.pdf", id, linkHash(link)))
	if err := os.WriteFile(pdfPath, resp.Body, 0o644); err != nil {
		return fmt.Errorf("%w: write temp pdf: %v", ErrRender, err)
	}
	defer os.Remove(pdfPath)

	staging := filepath.Join(filepath.Dir(full), fmt.Sprintf(".render-%s.png", uuid.NewString()))
	defer os.Remove(staging)

	if err := c.raster.RenderFirstPage(ctx, pdfPath, staging); err != nil {
		c.log.Warn("simulation pdf rasterisation failed", "simulation_id", id, "error", err)
		return fmt.Errorf("%w: %v", ErrRender, err)
	}
	if err := os.Rename(staging, full); err != nil {
		return fmt.Errorf("%w: publish preview: %v", ErrRender, err)
	}

	c.log.Info("simulation preview generated", "simulation_id", id, "path", full, "took", time.Since(started).String())
	c.prune(id, full)
	return nil
}

// prune drops older previews of the same simulation and then the oldest
// entries overall while the cache is above its bound.
func (c *Cache) prune(id uint, keep string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	dir := filepath.Dir(keep)
	entries, err := os.ReadDir(dir)
	if err != nil {
		c.log.Warn("list preview dir failed", "error", err)
		return
	}

	type entry struct {
		path string
		mod  time.Time
	}
	var live []entry
	idStr := fmt.Sprint(id)
	for _, e := range entries {
		m := entryPattern.FindStringSubmatch(e.Name())
		if e.IsDir() || m == nil {
			continue
		}
		p := filepath.Join(dir, e.Name())
		if p != keep && m[1] == idStr {
			if err := os.Remove(p); err == nil {
				c.log.Info("stale preview removed", "simulation_id", id, "path", p)
			}
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		live = append(live, entry{path: p, mod: info.ModTime()})
	}

	if c.maxEntries <= 0 || len(live) <= c.maxEntries {
		return
	}
	sort.Slice(live, func(i, j int) bool { return live[i].mod.Before(live[j].mod) })
	excess := len(live) - c.maxEntries
	for _, e := range live {
		if excess == 0 {
			break
		}
		if e.path == keep {
			continue
		}
		if err := os.Remove(e.path); err == nil {
			excess--
			c.log.Debug("preview evicted", "path", e.path)
		}
	}
}

func fileExists(p string) bool {
	info, err := os.Stat(p)
	return err == nil && !info.IsDir()
}
