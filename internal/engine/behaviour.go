package engine

import (
	"math"

	"Prism3D/internal/renderer"

	"github.com/go-gl/mathgl/mgl32"
)

// Behaviour is per-frame logic driven by the engine loop.
type Behaviour interface {
	Start()
	Update(dt float32)
}

type behaviourEntry struct {
	behaviour Behaviour
	started   bool
}

// Behaviours runs its members in insertion order. Start is called once,
// right before the first Update.
type Behaviours struct {
	entries []behaviourEntry
}

func (m *Behaviours) Add(b Behaviour) {
	m.entries = append(m.entries, behaviourEntry{behaviour: b})
}

// Remove drops b. Order of the remaining behaviours is not kept.
func (m *Behaviours) Remove(b Behaviour) {
	for i := range m.entries {
		if m.entries[i].behaviour == b {
			m.entries[i] = m.entries[len(m.entries)-1]
			m.entries = m.entries[:len(m.entries)-1]
			return
		}
	}
}

func (m *Behaviours) Clear()   { m.entries = m.entries[:0] }
func (m *Behaviours) Len() int { return len(m.entries) }

func (m *Behaviours) UpdateAll(dt float32) {
	for i := range m.entries {
		e := &m.entries[i]
		if !e.started {
			e.behaviour.Start()
			e.started = true
		}
		e.behaviour.Update(dt)
	}
}

// Rotator spins a model around the Y axis.
type Rotator struct {
	Model *renderer.Model
	Speed float32 // degrees per second
}

func (r *Rotator) Start() {}

func (r *Rotator) Update(dt float32) {
	r.Model.Rotate(0, r.Speed*dt, 0)
}

// Orbiter moves a point on a horizontal circle and hands each new position
// to Set.
type Orbiter struct {
	Center mgl32.Vec3
	Radius float32
	Speed  float32 // radians per second
	Set    func(position mgl32.Vec3)

	angle float32
}

func (o *Orbiter) Start() { o.Set(o.Position()) }

func (o *Orbiter) Update(dt float32) {
	o.angle += o.Speed * dt
	o.Set(o.Position())
}

func (o *Orbiter) Position() mgl32.Vec3 {
	a := float64(o.angle)
	return o.Center.Add(mgl32.Vec3{
		float32(math.Cos(a)) * o.Radius,
		0,
		float32(math.Sin(a)) * o.Radius,
	})
}
