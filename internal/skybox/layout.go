package skybox

import (
	"errors"
	"fmt"
	"image"

	"Prism3D/internal/gpu"

	xdraw "golang.org/x/image/draw"
)

var ErrLayout = errors.New("skybox: image does not match a cubemap layout")

// Layout is how six faces are packed into one image.
type Layout int

const (
	LayoutAuto Layout = iota
	// LayoutLineHorizontal is six faces in a row, +X -X +Y -Y +Z -Z.
	LayoutLineHorizontal
	LayoutLineVertical
	// LayoutCrossFourByThree is the horizontal cross:
	//
	//	   +Y
	//	-X +Z +X -Z
	//	   -Y
	LayoutCrossFourByThree
	// LayoutCrossThreeByFour is the vertical cross with -Z below -Y.
	LayoutCrossThreeByFour
)

// DetectLayout picks a layout from the image proportions.
func DetectLayout(width, height int) (Layout, error) {
	switch {
	case width > 0 && width == height*6:
		return LayoutLineHorizontal, nil
	case height > 0 && height == width*6:
		return LayoutLineVertical, nil
	case width%4 == 0 && width*3 == height*4:
		return LayoutCrossFourByThree, nil
	case width%3 == 0 && width*4 == height*3:
		return LayoutCrossThreeByFour, nil
	}
	return LayoutAuto, fmt.Errorf("%w: %dx%d", ErrLayout, width, height)
}

// faceCells are the cell coordinates of +X -X +Y -Y +Z -Z per layout.
var faceCells = map[Layout][6]image.Point{
	LayoutLineHorizontal:   {{0, 0}, {1, 0}, {2, 0}, {3, 0}, {4, 0}, {5, 0}},
	LayoutLineVertical:     {{0, 0}, {0, 1}, {0, 2}, {0, 3}, {0, 4}, {0, 5}},
	LayoutCrossFourByThree: {{2, 1}, {0, 1}, {1, 0}, {1, 2}, {1, 1}, {3, 1}},
	LayoutCrossThreeByFour: {{2, 1}, {0, 1}, {1, 0}, {1, 2}, {1, 1}, {1, 3}},
}

var cellCounts = map[Layout]image.Point{
	LayoutLineHorizontal:   {6, 1},
	LayoutLineVertical:     {1, 6},
	LayoutCrossFourByThree: {4, 3},
	LayoutCrossThreeByFour: {3, 4},
}

// SplitFaces cuts img into its six faces.
func SplitFaces(img image.Image, layout Layout) ([6]image.Image, error) {
	var faces [6]image.Image
	b := img.Bounds()
	if layout == LayoutAuto {
		var err error
		if layout, err = DetectLayout(b.Dx(), b.Dy()); err != nil {
			return faces, err
		}
	}
	cells, ok := faceCells[layout]
	if !ok {
		return faces, fmt.Errorf("%w: unknown layout %d", ErrLayout, int(layout))
	}
	count := cellCounts[layout]
	size := b.Dx() / count.X
	if size == 0 || size*count.X != b.Dx() || size*count.Y != b.Dy() {
		return faces, fmt.Errorf("%w: %dx%d for layout %d", ErrLayout, b.Dx(), b.Dy(), int(layout))
	}

	for i, c := range cells {
		origin := b.Min.Add(image.Pt(c.X*size, c.Y*size))
		face := image.NewRGBA(image.Rect(0, 0, size, size))
		xdraw.Draw(face, face.Bounds(), img, origin, xdraw.Src)
		faces[i] = face
	}
	return faces, nil
}

// normalizeFaces scales every face to the size of the largest one.
func normalizeFaces(faces [6]image.Image) [6]image.Image {
	size := 0
	for _, f := range faces {
		b := f.Bounds()
		if b.Dx() > size {
			size = b.Dx()
		}
		if b.Dy() > size {
			size = b.Dy()
		}
	}
	for i, f := range faces {
		b := f.Bounds()
		if b.Dx() == size && b.Dy() == size {
			continue
		}
		dst := image.NewRGBA(image.Rect(0, 0, size, size))
		xdraw.CatmullRom.Scale(dst, dst.Bounds(), f, b, xdraw.Src, nil)
		faces[i] = dst
	}
	return faces
}

// FromImage builds a skybox from a single image holding all six faces.
func FromImage(dev gpu.Device, img image.Image, layout Layout) (*Skybox, error) {
	faces, err := SplitFaces(img, layout)
	if err != nil {
		return nil, err
	}
	return FromImages(dev, faces)
}
