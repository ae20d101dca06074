package imaging

import (
	"fmt"
	"image"
	_ "image/jpeg" // Register JPEG format decoder
	_ "image/png"  // Register PNG format decoder
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/bmp"  // Register BMP format decoder
	_ "golang.org/x/image/tiff" // Register TIFF format decoder
)

// Cache keeps decoded frames in memory, keyed by path.
//
// Frames are usually inspected several times while tuning colour ranges
// (sample, segment, preview), so decoding once per path matters for the
// large BMP renders a trajectory produces. Entries stay until Evict or Clear.
type Cache struct {
	mu     sync.RWMutex
	frames map[string]image.Image
}

// NewCache creates an empty frame cache.
func NewCache() *Cache {
	return &Cache{frames: make(map[string]image.Image)}
}

// Load returns the decoded frame at path, reading it on first use. The path
// is used verbatim as the key.
func (c *Cache) Load(path string) (image.Image, error) {
	c.mu.RLock()
	img, ok := c.frames[path]
	c.mu.RUnlock()
	if ok {
		return img, nil
	}

	img, err := imaging.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load frame: %w", err)
	}

	c.mu.Lock()
	c.frames[path] = img
	c.mu.Unlock()
	return img, nil
}

// Len returns the number of cached frames.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.frames)
}

// Evict drops one path from the cache.
func (c *Cache) Evict(path string) {
	c.mu.Lock()
	delete(c.frames, path)
	c.mu.Unlock()
}

// Clear drops every cached frame.
func (c *Cache) Clear() {
	c.mu.Lock()
	c.frames = make(map[string]image.Image)
	c.mu.Unlock()
}

// FrameInfo describes a frame file.
type FrameInfo struct {
	Path          string `json:"path"`
	Width         int    `json:"width"`
	Height        int    `json:"height"`
	Format        string `json:"format"`
	HasAlpha      bool   `json:"has_alpha"`
	FileSizeBytes int64  `json:"file_size_bytes"`
}

// formats maps lower-case extensions to format names.
var formats = map[string]string{
	".bmp":  "bmp",
	".png":  "png",
	".jpg":  "jpeg",
	".jpeg": "jpeg",
	".tif":  "tiff",
	".tiff": "tiff",
}

// Info loads the frame through the cache and describes it. The format comes
// from the file extension.
func (c *Cache) Info(path string) (*FrameInfo, error) {
	img, err := c.Load(path)
	if err != nil {
		return nil, err
	}
	stat, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat frame: %w", err)
	}

	format, ok := formats[strings.ToLower(filepath.Ext(path))]
	if !ok {
		format = "unknown"
	}

	hasAlpha := false
	switch img.(type) {
	case *image.RGBA, *image.NRGBA, *image.RGBA64, *image.NRGBA64:
		hasAlpha = true
	}

	b := img.Bounds()
	return &FrameInfo{
		Path:          path,
		Width:         b.Dx(),
		Height:        b.Dy(),
		Format:        format,
		HasAlpha:      hasAlpha,
		FileSizeBytes: stat.Size(),
	}, nil
}
