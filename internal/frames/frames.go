// Package frames lists and decodes the image frames of a trajectory.
//
// Frames are the regular files of one directory whose extension is in an
// allow-list, sorted by file name and numbered from 1 in that order. Sorting
// is lexical by default, which matches zero-padded names such as
// frame_001.bmp but puts frame_10.bmp before frame_2.bmp. OrderNatural
// compares digit runs numerically instead.
package frames

import (
	"fmt"
	"image"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/bmp"  // Register BMP format decoder
	_ "golang.org/x/image/tiff" // Register TIFF format decoder

	apperrors "github.com/ironsheep/packing-defects/internal/errors"
)

// Order selects how frame file names are sorted.
type Order string

const (
	// OrderLexical sorts by byte-wise file name comparison.
	OrderLexical Order = "lexical"
	// OrderNatural compares runs of digits by numeric value.
	OrderNatural Order = "natural"
)

// DefaultExtensions are the file extensions accepted when none are configured.
var DefaultExtensions = []string{".bmp", ".png", ".jpg", ".jpeg", ".tif", ".tiff"}

// ParseOrder validates an order name. The empty string selects OrderLexical.
func ParseOrder(s string) (Order, error) {
	switch Order(s) {
	case "", OrderLexical:
		return OrderLexical, nil
	case OrderNatural:
		return OrderNatural, nil
	}
	return "", apperrors.NewConfigurationError(fmt.Sprintf("unknown frame order %q", s), nil)
}

// Ref identifies one frame on disk.
type Ref struct {
	// Index is the 1-based position of the frame in sorted order.
	Index int    `json:"index"`
	Name  string `json:"name"`
	Path  string `json:"path"`
}

// List returns the frames in dir, sorted and numbered. Extension matching is
// case-insensitive; a nil or empty extension list selects DefaultExtensions.
func List(dir string, order Order, extensions []string) ([]Ref, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, apperrors.NewConfigurationError(fmt.Sprintf("failed to read frames directory %q", dir), err)
	}

	if len(extensions) == 0 {
		extensions = DefaultExtensions
	}
	allowed := make(map[string]bool, len(extensions))
	for _, ext := range extensions {
		ext = strings.ToLower(ext)
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		allowed[ext] = true
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() || !allowed[strings.ToLower(filepath.Ext(e.Name()))] {
			continue
		}
		names = append(names, e.Name())
	}

	if order == OrderNatural {
		sort.SliceStable(names, func(i, j int) bool { return naturalLess(names[i], names[j]) })
	} else {
		sort.Strings(names)
	}

	refs := make([]Ref, len(names))
	for i, name := range names {
		refs[i] = Ref{Index: i + 1, Name: name, Path: filepath.Join(dir, name)}
	}
	return refs, nil
}

// Load decodes the frame at ref.Path. Failures are frame read errors tagged
// with ref.Index.
func Load(ref Ref) (image.Image, error) {
	img, err := imaging.Open(ref.Path)
	if err != nil {
		return nil, apperrors.NewFrameReadError(ref.Index, fmt.Errorf("%s: %w", ref.Name, err))
	}
	return img, nil
}

// Companion returns the ref of the frame with the same file name in dir.
func Companion(ref Ref, dir string) Ref {
	return Ref{Index: ref.Index, Name: ref.Name, Path: filepath.Join(dir, ref.Name)}
}

// naturalLess orders "frame_2" before "frame_10". Ties on numeric value fall
// back to the plain comparison so that "frame_02" and "frame_2" stay ordered.
func naturalLess(a, b string) bool {
	ca, cb := splitNatural(a), splitNatural(b)
	for i := 0; i < len(ca) && i < len(cb); i++ {
		x, y := ca[i], cb[i]
		if isNumeric(x) && isNumeric(y) {
			nx, ny := strings.TrimLeft(x, "0"), strings.TrimLeft(y, "0")
			if len(nx) != len(ny) {
				return len(nx) < len(ny)
			}
			if nx != ny {
				return nx < ny
			}
			continue
		}
		if x != y {
			return x < y
		}
	}
	if len(ca) != len(cb) {
		return len(ca) < len(cb)
	}
	return a < b
}

func splitNatural(s string) []string {
	var chunks []string
	start := 0
	for i := 1; i <= len(s); i++ {
		if i == len(s) || isDigit(s[i]) != isDigit(s[i-1]) {
			chunks = append(chunks, s[start:i])
			start = i
		}
	}
	return chunks
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func isNumeric(s string) bool {
	return len(s) > 0 && isDigit(s[0])
}
