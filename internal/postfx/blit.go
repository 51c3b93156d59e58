package postfx

import "Prism3D/internal/gpu"

// BlitRects computes the source and destination rectangles for presenting
// a srcW x srcH image on a dstW x dstH target. With keepAspect the image is
// scaled to fit and centered, leaving bars; otherwise it fills the target.
func BlitRects(srcW, srcH, dstW, dstH int, keepAspect bool) (src, dst gpu.Rect) {
	src = gpu.Rect{W: srcW, H: srcH}
	dst = gpu.Rect{W: dstW, H: dstH}
	if !keepAspect || srcW <= 0 || srcH <= 0 || dstW <= 0 || dstH <= 0 {
		return src, dst
	}

	srcRatio := float64(srcW) / float64(srcH)
	dstRatio := float64(dstW) / float64(dstH)
	if dstRatio > srcRatio {
		w := int(float64(dstH)*srcRatio + 0.5)
		dst = gpu.Rect{X: (dstW - w) / 2, W: w, H: dstH}
	} else {
		h := int(float64(dstW)/srcRatio + 0.5)
		dst = gpu.Rect{Y: (dstH - h) / 2, W: dstW, H: h}
	}
	return src, dst
}
