package renderer

import (
	"fmt"
	"sort"
)

// DepthSortOrder orders blended draws by camera distance. Opaque draws are
// always grouped by material config.
type DepthSortOrder int

const (
	DepthSortDisabled DepthSortOrder = iota
	DepthSortNearToFar
	DepthSortFarToNear
)

var depthSortNames = map[DepthSortOrder]string{
	DepthSortDisabled:  "disabled",
	DepthSortNearToFar: "near_to_far",
	DepthSortFarToNear: "far_to_near",
}

func (o DepthSortOrder) String() string {
	if name, ok := depthSortNames[o]; ok {
		return name
	}
	return fmt.Sprintf("DepthSortOrder(%d)", int(o))
}

func (o DepthSortOrder) MarshalText() ([]byte, error) {
	name, ok := depthSortNames[o]
	if !ok {
		return nil, fmt.Errorf("unknown depth sort order %d", int(o))
	}
	return []byte(name), nil
}

func (o *DepthSortOrder) UnmarshalText(text []byte) error {
	for k, name := range depthSortNames {
		if name == string(text) {
			*o = k
			return nil
		}
	}
	return fmt.Errorf("unknown depth sort order %q", text)
}

// sortByConfig keeps submission order within a config.
func sortByConfig(calls []drawCall) {
	sort.SliceStable(calls, func(i, j int) bool {
		return calls[i].config.Key() < calls[j].config.Key()
	})
}

func sortByDistance(calls []drawCall, order DepthSortOrder) {
	switch order {
	case DepthSortNearToFar:
		sort.SliceStable(calls, func(i, j int) bool {
			return calls[i].distance < calls[j].distance
		})
	case DepthSortFarToNear:
		sort.SliceStable(calls, func(i, j int) bool {
			return calls[i].distance > calls[j].distance
		})
	default:
		sortByConfig(calls)
	}
}
