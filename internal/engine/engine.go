// Package engine owns the window, the GL context and the frame loop that
// drives a renderer.Renderer.
package engine

import (
	"errors"
	"fmt"
	"runtime"

	"Prism3D/internal/config"
	"Prism3D/internal/gpu"
	"Prism3D/internal/gpu/glgpu"
	"Prism3D/internal/logger"
	"Prism3D/internal/renderer"

	"github.com/go-gl/glfw/v3.3/glfw"
	"go.uber.org/zap"
)

var ErrNoRenderer = errors.New("engine: no renderer attached")

func init() {
	// GLFW and the GL context must stay on the main thread.
	runtime.LockOSThread()
}

type Engine struct {
	Camera            *renderer.Camera
	EnableCameraInput bool
	Behaviours        Behaviours

	// FollowWindow keeps the internal resolution equal to the framebuffer.
	FollowWindow bool

	window   *glfw.Window
	device   *glgpu.Device
	renderer *renderer.Renderer
	mouse    mouseState

	lastWidth  int
	lastHeight int

	onUpdate func(dt float32)
	onDraw   func(r *renderer.Renderer) error
	onPick   func(ray renderer.Ray)
}

// Open creates the window and its OpenGL 4.1 core context.
func Open(cfg config.Window) (*Engine, error) {
	if err := glfw.Init(); err != nil {
		return nil, fmt.Errorf("glfw init: %w", err)
	}

	glfw.WindowHint(glfw.Decorated, glfw.True)
	glfw.WindowHint(glfw.Resizable, glfw.True)
	glfw.WindowHint(glfw.DepthBits, 24)
	glfw.WindowHint(glfw.ContextVersionMajor, 4)
	glfw.WindowHint(glfw.ContextVersionMinor, 1)
	glfw.WindowHint(glfw.OpenGLProfile, glfw.OpenGLCoreProfile)
	glfw.WindowHint(glfw.OpenGLForwardCompatible, glfw.True)

	window, err := glfw.CreateWindow(cfg.Width, cfg.Height, cfg.Title, nil, nil)
	if err != nil {
		glfw.Terminate()
		return nil, fmt.Errorf("create window: %w", err)
	}
	window.MakeContextCurrent()
	if cfg.VSync {
		glfw.SwapInterval(1)
	} else {
		glfw.SwapInterval(0)
	}

	device, err := glgpu.New()
	if err != nil {
		window.Destroy()
		glfw.Terminate()
		return nil, err
	}

	e := &Engine{
		Camera:            renderer.NewDefaultCamera(),
		EnableCameraInput: true,
		window:            window,
		device:            device,
		mouse:             mouseState{first: true},
	}
	e.lastWidth, e.lastHeight = e.FramebufferSize()

	window.SetInputMode(glfw.CursorMode, glfw.CursorNormal)
	window.SetCursorPosCallback(e.mouseCallback)
	window.SetMouseButtonCallback(e.mouseButtonCallback)
	window.SetKeyCallback(e.keyCallback)

	logger.Log.Info("Window opened",
		zap.String("title", cfg.Title),
		zap.Int("width", cfg.Width),
		zap.Int("height", cfg.Height))
	return e, nil
}

func (e *Engine) Device() gpu.Device { return e.device }

// FramebufferSize is the drawable size in pixels, which differs from the
// window size on high density displays.
func (e *Engine) FramebufferSize() (int, int) {
	return e.window.GetFramebufferSize()
}

func (e *Engine) Attach(r *renderer.Renderer) { e.renderer = r }

func (e *Engine) SetOnUpdate(fn func(dt float32))               { e.onUpdate = fn }
func (e *Engine) SetOnDraw(fn func(r *renderer.Renderer) error) { e.onDraw = fn }
func (e *Engine) SetOnPick(fn func(ray renderer.Ray))           { e.onPick = fn }

// CursorRay is the world space ray under the mouse cursor.
func (e *Engine) CursorRay() renderer.Ray {
	x, y := e.window.GetCursorPos()
	w, h := e.window.GetSize()
	return renderer.ScreenToRay(*e.Camera, float32(x), float32(y), w, h)
}

// Run drives frames until the window is asked to close or a draw fails.
func (e *Engine) Run() error {
	if e.renderer == nil {
		return ErrNoRenderer
	}
	lastTime := glfw.GetTime()
	for !e.window.ShouldClose() {
		now := glfw.GetTime()
		dt := float32(now - lastTime)
		lastTime = now

		e.handleResize()
		if e.EnableCameraInput {
			e.processKeyboard(dt)
		}
		if e.onUpdate != nil {
			e.onUpdate(dt)
		}
		e.Behaviours.UpdateAll(dt)
		if err := e.frame(); err != nil {
			return err
		}

		e.window.SwapBuffers()
		glfw.PollEvents()
	}
	return nil
}

func (e *Engine) frame() error {
	r := e.renderer
	if err := r.Begin(*e.Camera); err != nil {
		return err
	}
	var drawErr error
	if e.onDraw != nil {
		drawErr = e.onDraw(r)
	}
	if err := r.End(); err != nil {
		return err
	}
	return drawErr
}

func (e *Engine) handleResize() {
	w, h := e.FramebufferSize()
	if w == e.lastWidth && h == e.lastHeight {
		return
	}
	e.lastWidth, e.lastHeight = w, h
	// Minimized windows report a zero framebuffer.
	if !e.FollowWindow || w <= 0 || h <= 0 {
		return
	}
	if err := e.renderer.UpdateInternalResolution(w, h); err != nil {
		logger.Log.Error("Failed to follow window size", zap.Error(err))
	}
}

func (e *Engine) processKeyboard(dt float32) {
	forward, right, up, boost := movement(func(k glfw.Key) bool {
		return e.window.GetKey(k) == glfw.Press
	})
	if boost {
		dt *= boostFactor
	}
	e.Camera.Move(forward, right, up, dt)
}

func (e *Engine) mouseCallback(w *glfw.Window, xpos, ypos float64) {
	looking := e.EnableCameraInput &&
		w.GetAttrib(glfw.Focused) == glfw.True &&
		w.GetMouseButton(glfw.MouseButtonRight) == glfw.Press
	if !looking {
		e.mouse.first = true
		return
	}
	if dx, dy, ok := e.mouse.delta(xpos, ypos); ok {
		e.Camera.ProcessMouseMovement(dx, dy, true)
	}
}

func (e *Engine) mouseButtonCallback(w *glfw.Window, button glfw.MouseButton, action glfw.Action, mods glfw.ModifierKey) {
	if button == glfw.MouseButtonLeft && action == glfw.Press && e.onPick != nil {
		e.onPick(e.CursorRay())
	}
}

func (e *Engine) keyCallback(w *glfw.Window, key glfw.Key, scancode int, action glfw.Action, mods glfw.ModifierKey) {
	if key == glfw.KeyEscape && action == glfw.Press {
		w.SetShouldClose(true)
	}
}

// Close destroys the window and terminates GLFW. Release the renderer
// first; its objects live in this context.
func (e *Engine) Close() {
	e.window.Destroy()
	glfw.Terminate()
	logger.Log.Info("Window closed")
}
