package skybox

import (
	"errors"
	"fmt"
	"image"
	"image/color"

	"Prism3D/internal/gpu"
	"Prism3D/internal/shaders"
)

// minIrradianceSize bounds the irradiance cube from below; it is otherwise
// a sixteenth of the sky face.
const minIrradianceSize = 32

var errEquirectSize = errors.New("skybox: equirect data does not match its size")

// FromEquirect builds a skybox from an equirectangular RGBA float panorama,
// first row at the zenith, rendering it into a cubemap of faceSize. A
// faceSize of 0 uses half the panorama height.
func FromEquirect(dev gpu.Device, width, height int, rgba []float32, faceSize int) (*Skybox, error) {
	if width <= 0 || height <= 0 || len(rgba) != width*height*4 {
		return nil, fmt.Errorf("%w: %dx%d with %d floats", errEquirectSize, width, height, len(rgba))
	}
	if faceSize <= 0 {
		faceSize = max(height/2, 1)
	}

	panorama, err := gpu.NewTexture(dev, gpu.TextureDesc{
		Width:  width,
		Height: height,
		Format: gpu.FormatRGBA32F,
		Wrap:   gpu.WrapClampEdge,
	}, [][]byte{gpu.FloatBytes(rgba)})
	if err != nil {
		return nil, fmt.Errorf("skybox panorama: %w", err)
	}
	defer panorama.Release()

	cube, err := renderCube(dev, faceSize, shaders.EquirectFragment, func(p *gpu.Program) {
		p.SetTexture("uTexEquirect", 0, panorama)
	})
	if err != nil {
		return nil, fmt.Errorf("skybox equirect: %w", err)
	}
	return newSkybox(dev, cube)
}

// FromEquirectImage is FromEquirect for an 8-bit panorama.
func FromEquirectImage(dev gpu.Device, img image.Image, faceSize int) (*Skybox, error) {
	b := img.Bounds()
	rgba := make([]float32, 0, b.Dx()*b.Dy()*4)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			c := color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA)
			rgba = append(rgba, float32(c.R)/255, float32(c.G)/255, float32(c.B)/255, 1)
		}
	}
	return FromEquirect(dev, b.Dx(), b.Dy(), rgba, faceSize)
}

func generateIrradiance(dev gpu.Device, sky *gpu.Texture) (*gpu.Texture, error) {
	size := max(sky.Width()/16, minIrradianceSize)
	return renderCube(dev, size, shaders.IrradianceFragment, func(p *gpu.Program) {
		p.SetCubeTexture("uCubeSky", 0, sky)
	})
}

// renderCube draws every face of a new float cubemap with a fullscreen
// pass of fragment, which picks its face from uFace.
func renderCube(dev gpu.Device, size int, fragment string, bind func(p *gpu.Program)) (*gpu.Texture, error) {
	program, err := gpu.NewProgram(dev, shaders.Fullscreen, fragment)
	if err != nil {
		return nil, err
	}
	defer program.Release()

	fb, err := gpu.NewFramebuffer(dev, size, size, gpu.FramebufferSpec{
		Colors:    []gpu.TextureFormat{gpu.FormatRGBA16F},
		CubeColor: true,
		Wrap:      gpu.WrapClampEdge,
	})
	if err != nil {
		return nil, err
	}
	defer fb.Release()

	dev.SetDepth(false, false)
	dev.SetBlend(gpu.BlendDisabled)
	dev.SetCull(gpu.CullNone)
	program.Use()
	bind(program)
	for face := 0; face < 6; face++ {
		fb.BindFace(face)
		program.SetInt("uFace", int32(face))
		dev.DrawFullscreen()
	}
	dev.BindFramebuffer(gpu.DefaultFramebuffer)
	return fb.TakeColor(0), nil
}
