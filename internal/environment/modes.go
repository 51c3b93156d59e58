package environment

import "fmt"

type BloomMode int

const (
	BloomDisabled BloomMode = iota
	BloomAdditive
	BloomSoftLight
)

type FogMode int

const (
	FogDisabled FogMode = iota
	FogLinear
	FogExp
	FogExp2
)

type TonemapMode int

const (
	TonemapLinear TonemapMode = iota
	TonemapReinhard
	TonemapFilmic
	TonemapACES
)

var (
	bloomNames   = []string{"disabled", "additive", "soft_light"}
	fogNames     = []string{"disabled", "linear", "exp", "exp2"}
	tonemapNames = []string{"linear", "reinhard", "filmic", "aces"}
)

func name(names []string, v int) string {
	if v < 0 || v >= len(names) {
		return fmt.Sprintf("unknown(%d)", v)
	}
	return names[v]
}

func parse(names []string, kind string, text []byte) (int, error) {
	for i, n := range names {
		if n == string(text) {
			return i, nil
		}
	}
	return 0, fmt.Errorf("environment: unknown %s mode %q", kind, text)
}

func (m BloomMode) String() string   { return name(bloomNames, int(m)) }
func (m FogMode) String() string     { return name(fogNames, int(m)) }
func (m TonemapMode) String() string { return name(tonemapNames, int(m)) }

func (m BloomMode) MarshalText() ([]byte, error)   { return []byte(m.String()), nil }
func (m FogMode) MarshalText() ([]byte, error)     { return []byte(m.String()), nil }
func (m TonemapMode) MarshalText() ([]byte, error) { return []byte(m.String()), nil }

func (m *BloomMode) UnmarshalText(text []byte) error {
	v, err := parse(bloomNames, "bloom", text)
	*m = BloomMode(v)
	return err
}

func (m *FogMode) UnmarshalText(text []byte) error {
	v, err := parse(fogNames, "fog", text)
	*m = FogMode(v)
	return err
}

func (m *TonemapMode) UnmarshalText(text []byte) error {
	v, err := parse(tonemapNames, "tonemap", text)
	*m = TonemapMode(v)
	return err
}
