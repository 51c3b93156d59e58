package gpu

import "github.com/go-gl/mathgl/mgl32"

// Program is a linked shader program with a uniform location cache.
type Program struct {
	dev       Device
	id        uint32
	locations map[string]int32
}

func NewProgram(dev Device, vertex, fragment string) (*Program, error) {
	id, err := dev.CompileProgram(vertex, fragment)
	if err != nil {
		return nil, err
	}
	return &Program{
		dev:       dev,
		id:        id,
		locations: make(map[string]int32),
	}, nil
}

func (p *Program) ID() uint32 { return p.id }

func (p *Program) Use() {
	p.dev.UseProgram(p.id)
}

// Location returns the cached uniform location or fetches and caches it.
func (p *Program) Location(name string) int32 {
	if loc, exists := p.locations[name]; exists {
		return loc
	}
	loc := p.dev.UniformLocation(p.id, name)
	p.locations[name] = loc
	return loc
}

func (p *Program) SetInt(name string, v int32) {
	if loc := p.Location(name); loc != -1 {
		p.dev.SetUniformInt(loc, v)
	}
}

func (p *Program) SetBool(name string, v bool) {
	var i int32
	if v {
		i = 1
	}
	p.SetInt(name, i)
}

func (p *Program) SetFloat(name string, v float32) {
	if loc := p.Location(name); loc != -1 {
		p.dev.SetUniformFloat(loc, v)
	}
}

func (p *Program) SetVec2(name string, v mgl32.Vec2) {
	if loc := p.Location(name); loc != -1 {
		p.dev.SetUniformVec2(loc, v)
	}
}

func (p *Program) SetVec3(name string, v mgl32.Vec3) {
	if loc := p.Location(name); loc != -1 {
		p.dev.SetUniformVec3(loc, v)
	}
}

func (p *Program) SetVec4(name string, v mgl32.Vec4) {
	if loc := p.Location(name); loc != -1 {
		p.dev.SetUniformVec4(loc, v)
	}
}

func (p *Program) SetMat4(name string, m mgl32.Mat4) {
	if loc := p.Location(name); loc != -1 {
		p.dev.SetUniformMat4(loc, m)
	}
}

// SetTexture binds tex to unit and points the sampler uniform at it. A nil
// texture unbinds the unit.
func (p *Program) SetTexture(name string, unit int, tex *Texture) {
	cube := tex != nil && tex.Cube()
	p.dev.BindTexture(unit, tex.ID(), cube)
	p.SetInt(name, int32(unit))
}

// SetCubeTexture is SetTexture for a sampler declared samplerCube, so an
// absent texture still unbinds the cube target.
func (p *Program) SetCubeTexture(name string, unit int, tex *Texture) {
	p.dev.BindTexture(unit, tex.ID(), true)
	p.SetInt(name, int32(unit))
}

// ClearCache forgets cached locations.
func (p *Program) ClearCache() {
	p.locations = make(map[string]int32)
}

func (p *Program) Release() {
	if p == nil || p.id == 0 {
		return
	}
	p.dev.DeleteProgram(p.id)
	p.id = 0
	p.ClearCache()
}
