package cache

import (
	"fmt"
	"image"

	"gocv.io/x/gocv"

	"wsi-viewer/pkg/geometry"
)

// Blend weights for compositing a prediction overlay onto the image cache.
const (
	blendPrimaryWeight = 0.35
	blendOverlayWeight = 0.65
)

// Blend composites an overlay onto the primary buffer with the fixed
// primary/overlay weights. Both buffers must have identical dimensions.
func Blend(primary, overlay *image.RGBA) (*image.RGBA, error) {
	pb, ob := primary.Bounds(), overlay.Bounds()
	if pb.Dx() != ob.Dx() || pb.Dy() != ob.Dy() {
		return nil, &ShapeError{
			WantWidth: pb.Dx(), WantHeight: pb.Dy(),
			GotWidth: ob.Dx(), GotHeight: ob.Dy(),
		}
	}

	pm, err := gocv.NewMatFromBytes(pb.Dy(), pb.Dx(), gocv.MatTypeCV8UC4, primary.Pix)
	if err != nil {
		return nil, fmt.Errorf("failed to wrap primary buffer: %w", err)
	}
	defer pm.Close()
	om, err := gocv.NewMatFromBytes(ob.Dy(), ob.Dx(), gocv.MatTypeCV8UC4, overlay.Pix)
	if err != nil {
		return nil, fmt.Errorf("failed to wrap overlay buffer: %w", err)
	}
	defer om.Close()

	dst := gocv.NewMat()
	defer dst.Close()
	gocv.AddWeighted(pm, blendPrimaryWeight, om, blendOverlayWeight, 0, &dst)

	out := image.NewRGBA(image.Rect(0, 0, pb.Dx(), pb.Dy()))
	copy(out.Pix, dst.ToBytes())
	return out, nil
}

// resampleRGBA scales a buffer to the given size with linear interpolation.
// Same-size buffers pass through untouched.
func resampleRGBA(img *image.RGBA, size geometry.Size) (*image.RGBA, error) {
	b := img.Bounds()
	if b.Dx() == size.Width && b.Dy() == size.Height {
		return img, nil
	}

	mat, err := gocv.NewMatFromBytes(b.Dy(), b.Dx(), gocv.MatTypeCV8UC4, img.Pix)
	if err != nil {
		return nil, fmt.Errorf("failed to wrap buffer for resampling: %w", err)
	}
	defer mat.Close()

	dst := gocv.NewMat()
	defer dst.Close()
	gocv.Resize(mat, &dst, image.Pt(size.Width, size.Height), 0, 0, gocv.InterpolationLinear)

	out := image.NewRGBA(image.Rect(0, 0, size.Width, size.Height))
	copy(out.Pix, dst.ToBytes())
	return out, nil
}
