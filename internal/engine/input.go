package engine

import "github.com/go-gl/glfw/v3.3/glfw"

const boostFactor = 3

// movement maps the fly camera keys to axis amounts: W/S forward, D/A
// right, Space/LeftControl up. LeftShift boosts.
func movement(pressed func(glfw.Key) bool) (forward, right, up float32, boost bool) {
	axis := func(pos, neg glfw.Key) float32 {
		var v float32
		if pressed(pos) {
			v++
		}
		if pressed(neg) {
			v--
		}
		return v
	}
	forward = axis(glfw.KeyW, glfw.KeyS)
	right = axis(glfw.KeyD, glfw.KeyA)
	up = axis(glfw.KeySpace, glfw.KeyLeftControl)
	boost = pressed(glfw.KeyLeftShift)
	return
}

type mouseState struct {
	lastX, lastY float64
	first        bool
}

// delta returns the cursor offset since the last sample, y up. The first
// sample after a reset only records the position.
func (m *mouseState) delta(x, y float64) (dx, dy float32, ok bool) {
	if m.first {
		m.lastX, m.lastY = x, y
		m.first = false
		return 0, 0, false
	}
	dx = float32(x - m.lastX)
	dy = float32(m.lastY - y)
	m.lastX, m.lastY = x, y
	return dx, dy, true
}
