package renderer

import (
	"fmt"

	"Prism3D/internal/gpu"
	"Prism3D/internal/lighting"
	"Prism3D/internal/logger"

	"go.uber.org/zap"
)

// DrawShadowMap draws the shadow map of light into the output at the given
// rectangle. near and far linearize 2D depth maps; omni maps are drawn as a
// 3x2 grid of faces. Call it after End.
func (r *Renderer) DrawShadowMap(id lighting.ID, x, y, width, height int, near, far float32) error {
	if r.flags&FlagDebugShadowMap == 0 || r.debugDepthProgram == nil {
		return ErrDebugDisabled
	}
	if r.recording {
		logger.Log.Error("DrawShadowMap called during a frame")
		return ErrAlreadyRecording
	}
	l, err := r.lights.Light(id)
	if err != nil {
		return err
	}
	if !l.HasShadow() {
		return fmt.Errorf("%w: light %d", ErrNoShadow, id)
	}

	r.dev.BindFramebuffer(r.target.ID())
	r.dev.Viewport(gpu.Rect{X: x, Y: y, W: width, H: height})
	r.dev.SetDepth(false, false)
	r.dev.SetBlend(gpu.BlendDisabled)
	r.dev.SetCull(gpu.CullNone)

	tex := l.Shadow().Texture()
	if l.Type() == lighting.Omni {
		p := r.debugCubeProgram
		p.Use()
		p.SetCubeTexture("uTexture", 0, tex)
	} else {
		p := r.debugDepthProgram
		p.Use()
		p.SetTexture("uTexture", 0, tex)
		p.SetFloat("uNear", near)
		p.SetFloat("uFar", far)
	}
	r.dev.DrawFullscreen()

	logger.Log.Debug("Shadow map drawn", zap.Uint32("light", uint32(id)), zap.Stringer("type", l.Type()))
	return nil
}
