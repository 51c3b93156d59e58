package lighting

import (
	"errors"
	"fmt"

	"Prism3D/internal/gpu"
	"Prism3D/internal/logger"

	"go.uber.org/zap"
)

// ID addresses a light in its Manager. Zero is never a valid light.
type ID uint32

const InvalidID ID = 0

const DefaultCapacity = 32

var (
	ErrPoolExhausted = errors.New("lighting: light pool exhausted")
	ErrInvalidLight  = errors.New("lighting: invalid light id")
)

// Manager owns a fixed-capacity pool of lights.
type Manager struct {
	dev    gpu.Device
	slots  []*Light
	free   []ID
	extent float32
}

func NewManager(dev gpu.Device, capacity int) *Manager {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	m := &Manager{
		dev:    dev,
		slots:  make([]*Light, capacity),
		free:   make([]ID, 0, capacity),
		extent: DefaultShadowExtent,
	}
	for i := capacity; i > 0; i-- {
		m.free = append(m.free, ID(i))
	}
	return m
}

// Create allocates a light. A positive shadowResolution also allocates its
// shadow map.
func (m *Manager) Create(t Type, shadowResolution int) (ID, error) {
	if t < Directional || t > Omni {
		return InvalidID, fmt.Errorf("%w: %d", ErrInvalidType, int(t))
	}
	if len(m.free) == 0 {
		logger.Log.Warn("Light pool exhausted", zap.Int("capacity", len(m.slots)))
		return InvalidID, ErrPoolExhausted
	}

	l := newLight(m.dev, t, m.extent)
	if shadowResolution > 0 {
		if err := l.EnableShadow(shadowResolution); err != nil {
			return InvalidID, err
		}
	}

	id := m.free[len(m.free)-1]
	m.free = m.free[:len(m.free)-1]
	m.slots[id-1] = l

	logger.Log.Debug("Light created",
		zap.Uint32("id", uint32(id)),
		zap.Stringer("type", t),
		zap.Int("shadowResolution", shadowResolution))
	return id, nil
}

// Destroy frees the light's shadow resources and returns its slot.
func (m *Manager) Destroy(id ID) error {
	l, err := m.Light(id)
	if err != nil {
		return err
	}
	l.DisableShadow()
	m.slots[id-1] = nil
	m.free = append(m.free, id)
	return nil
}

func (m *Manager) Light(id ID) (*Light, error) {
	if id == InvalidID || int(id) > len(m.slots) || m.slots[id-1] == nil {
		return nil, fmt.Errorf("%w: %d", ErrInvalidLight, id)
	}
	return m.slots[id-1], nil
}

// Each visits live lights in id order.
func (m *Manager) Each(fn func(ID, *Light)) {
	for i, l := range m.slots {
		if l != nil {
			fn(ID(i+1), l)
		}
	}
}

func (m *Manager) Len() int { return len(m.slots) - len(m.free) }
func (m *Manager) Cap() int { return len(m.slots) }

func (m *Manager) ShadowExtent() float32 { return m.extent }

// SetShadowExtent sets the half size of the directional shadow volume for
// every directional light, existing and future.
func (m *Manager) SetShadowExtent(extent float32) {
	if extent <= 0 {
		extent = DefaultShadowExtent
	}
	m.extent = extent
	m.Each(func(_ ID, l *Light) {
		l.extent = extent
		if l.typ == Directional {
			l.changed()
		}
	})
}

// Close destroys every light.
func (m *Manager) Close() {
	m.Each(func(id ID, _ *Light) {
		m.Destroy(id)
	})
}
