package imaging

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"golang.org/x/image/bmp"
)

// writeFrame encodes a solid w×h frame at dir/name, as BMP or PNG by extension
func writeFrame(t *testing.T, dir, name string, w, h int) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for i := range img.Pix {
		img.Pix[i] = 255
	}
	img.Set(0, 0, color.RGBA{20, 200, 20, 255})

	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("failed to create %s: %v", name, err)
	}
	defer f.Close()

	if filepath.Ext(name) == ".bmp" {
		err = bmp.Encode(f, img)
	} else {
		err = png.Encode(f, img)
	}
	if err != nil {
		t.Fatalf("failed to encode %s: %v", name, err)
	}
	return path
}

func TestCache_Load(t *testing.T) {
	dir := t.TempDir()
	path := writeFrame(t, dir, "frame_001.bmp", 40, 30)

	c := NewCache()
	img, err := c.Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if img.Bounds().Dx() != 40 || img.Bounds().Dy() != 30 {
		t.Errorf("bounds: got %v", img.Bounds())
	}

	again, err := c.Load(path)
	if err != nil {
		t.Fatalf("second Load failed: %v", err)
	}
	if again != img {
		t.Error("second Load should return the cached frame")
	}
	if c.Len() != 1 {
		t.Errorf("Len: got %d, want 1", c.Len())
	}
}

func TestCache_LoadErrors(t *testing.T) {
	dir := t.TempDir()
	bad := filepath.Join(dir, "frame.png")
	if err := os.WriteFile(bad, []byte("not an image"), 0o644); err != nil {
		t.Fatal(err)
	}

	c := NewCache()
	for _, path := range []string{filepath.Join(dir, "missing.bmp"), bad} {
		if _, err := c.Load(path); err == nil {
			t.Errorf("Load(%s): expected error", filepath.Base(path))
		}
	}
	if c.Len() != 0 {
		t.Errorf("failed loads should not be cached, Len = %d", c.Len())
	}
}

func TestCache_EvictAndClear(t *testing.T) {
	dir := t.TempDir()
	a := writeFrame(t, dir, "a.png", 4, 4)
	b := writeFrame(t, dir, "b.png", 4, 4)

	c := NewCache()
	for _, p := range []string{a, b} {
		if _, err := c.Load(p); err != nil {
			t.Fatal(err)
		}
	}

	c.Evict(a)
	c.Evict(filepath.Join(dir, "never-loaded.png"))
	if c.Len() != 1 {
		t.Errorf("after Evict: Len = %d, want 1", c.Len())
	}
	c.Clear()
	if c.Len() != 0 {
		t.Errorf("after Clear: Len = %d, want 0", c.Len())
	}
}

func TestCache_ConcurrentAccess(t *testing.T) {
	path := writeFrame(t, t.TempDir(), "frame.png", 16, 16)
	c := NewCache()

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := c.Load(path); err != nil {
				t.Errorf("concurrent Load failed: %v", err)
			}
		}()
	}
	wg.Wait()
	if c.Len() != 1 {
		t.Errorf("Len: got %d, want 1", c.Len())
	}
}

func TestCache_Info(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		name       string
		wantFormat string
	}{
		{"frame.bmp", "bmp"},
		{"frame.png", "png"},
		{"frame.PNG", "png"},
	}
	c := NewCache()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFrame(t, dir, tt.name, 12, 8)
			info, err := c.Info(path)
			if err != nil {
				t.Fatalf("Info failed: %v", err)
			}
			if info.Format != tt.wantFormat {
				t.Errorf("Format: got %s, want %s", info.Format, tt.wantFormat)
			}
			if info.Width != 12 || info.Height != 8 {
				t.Errorf("size: got %dx%d", info.Width, info.Height)
			}
			if info.FileSizeBytes <= 0 || info.Path != path {
				t.Errorf("file info: got %+v", info)
			}
		})
	}

	if _, err := c.Info(filepath.Join(dir, "missing.png")); err == nil {
		t.Error("expected error for a missing frame")
	}
}
