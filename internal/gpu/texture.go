package gpu

import (
	"errors"
	"image"
	"image/draw"
	"unsafe"
)

var errCubeFaceSize = errors.New("gpu: cube faces differ in size")

// Texture is an owned device texture.
type Texture struct {
	dev  Device
	id   uint32
	desc TextureDesc
}

func NewTexture(dev Device, desc TextureDesc, faces [][]byte) (*Texture, error) {
	id, err := dev.CreateTexture(desc, faces)
	if err != nil {
		return nil, err
	}
	return &Texture{dev: dev, id: id, desc: desc}, nil
}

// TextureFromImage uploads img as an RGBA8 texture.
func TextureFromImage(dev Device, img image.Image, wrap Wrap) (*Texture, error) {
	rgba := toRGBA(img)
	size := rgba.Rect.Size()
	return NewTexture(dev, TextureDesc{
		Width:  size.X,
		Height: size.Y,
		Format: FormatRGBA8,
		Wrap:   wrap,
	}, [][]byte{rgba.Pix})
}

// CubeFromImages uploads six equally sized images as a cubemap.
func CubeFromImages(dev Device, faces [6]image.Image) (*Texture, error) {
	data := make([][]byte, 6)
	var size image.Point
	for i, img := range faces {
		rgba := toRGBA(img)
		if i == 0 {
			size = rgba.Rect.Size()
		} else if rgba.Rect.Size() != size {
			return nil, errCubeFaceSize
		}
		data[i] = rgba.Pix
	}
	return NewTexture(dev, TextureDesc{
		Width:  size.X,
		Height: size.Y,
		Format: FormatRGBA8,
		Cube:   true,
		Wrap:   WrapClampEdge,
	}, data)
}

// FloatBytes views f as the byte slice uploaded for FormatRGBA32F data.
func FloatBytes(f []float32) []byte {
	if len(f) == 0 {
		return nil
	}
	return unsafe.Slice((*byte)(unsafe.Pointer(&f[0])), len(f)*4)
}

func toRGBA(img image.Image) *image.RGBA {
	if rgba, ok := img.(*image.RGBA); ok && rgba.Stride == rgba.Rect.Dx()*4 && rgba.Rect.Min == (image.Point{}) {
		return rgba
	}
	b := img.Bounds()
	rgba := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(rgba, rgba.Bounds(), img, b.Min, draw.Src)
	return rgba
}

func (t *Texture) ID() uint32 {
	if t == nil {
		return 0
	}
	return t.id
}

func (t *Texture) Width() int            { return t.desc.Width }
func (t *Texture) Height() int           { return t.desc.Height }
func (t *Texture) Cube() bool            { return t.desc.Cube }
func (t *Texture) Desc() TextureDesc     { return t.desc }
func (t *Texture) Format() TextureFormat { return t.desc.Format }

// Resize reallocates storage. Contents are undefined afterwards.
func (t *Texture) Resize(width, height int) {
	if t.desc.Width == width && t.desc.Height == height {
		return
	}
	t.desc.Width, t.desc.Height = width, height
	t.dev.ResizeTexture(t.id, t.desc)
}

func (t *Texture) Release() {
	if t == nil || t.id == 0 {
		return
	}
	t.dev.DeleteTexture(t.id)
	t.id = 0
}
