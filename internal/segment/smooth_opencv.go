//go:build opencv

// Build with -tags opencv to add the "opencv-bilateral" smoothing method,
// which runs OpenCV's own bilateral filter through gocv. It requires the
// OpenCV shared libraries at build and run time.

package segment

import (
	"fmt"
	"image"

	"gocv.io/x/gocv"
)

func init() {
	smoothers[SmoothOpenCV] = opencvBilateral
}

func opencvBilateral(src *image.NRGBA, p SmoothParams) (*image.NRGBA, error) {
	in, err := gocv.ImageToMatRGB(src)
	if err != nil {
		return nil, fmt.Errorf("failed to convert frame to Mat: %w", err)
	}
	defer in.Close()

	out := gocv.NewMat()
	defer out.Close()
	gocv.BilateralFilter(in, &out, p.Diameter, p.SigmaColor, p.SigmaSpace)

	img, err := out.ToImage()
	if err != nil {
		return nil, fmt.Errorf("failed to convert Mat to image: %w", err)
	}
	return Normalize(img), nil
}
