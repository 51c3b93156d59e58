package loader

import (
	"bufio"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"Prism3D/internal/gpu"
	"Prism3D/internal/logger"

	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

var ErrNoGeometry = errors.New("loader: no faces")

// Part is the geometry of one usemtl group.
type Part struct {
	Material string
	Data     gpu.MeshData
}

// Object is a parsed OBJ file. Parts keep the order in which materials were
// first used.
type Object struct {
	Parts       []Part
	MaterialLib string
	Materials   map[string]MaterialDesc
}

type FaceVertex struct {
	VertexIdx   int32
	TexCoordIdx int32
	NormalIdx   int32
}

// LoadModel reads an OBJ file and the MTL library it references, if any.
func LoadModel(filename string, recalculateNormals bool) (*Object, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	obj, err := ParseOBJ(file, recalculateNormals)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}
	if obj.MaterialLib != "" {
		mtlPath := filepath.Join(filepath.Dir(filename), obj.MaterialLib)
		if mtl, err := os.Open(mtlPath); err != nil {
			logger.Log.Warn("Material library not found", zap.String("path", mtlPath), zap.Error(err))
		} else {
			obj.Materials, err = ParseMTL(mtl, filepath.Dir(mtlPath))
			mtl.Close()
			if err != nil {
				logger.Log.Warn("Material library unreadable", zap.String("path", mtlPath), zap.Error(err))
			}
		}
	}
	logger.Log.Info("Model loaded",
		zap.String("file", filename),
		zap.Int("parts", len(obj.Parts)),
		zap.Int("materials", len(obj.Materials)))
	return obj, nil
}

type group struct {
	name  string
	faces []FaceVertex
}

// ParseOBJ reads positions, texture coordinates, normals and faces. Quads
// and polygons are fan-triangulated. Missing normals are computed from the
// faces; tangents are always derived from texture coordinates.
func ParseOBJ(r io.Reader, recalculateNormals bool) (*Object, error) {
	var (
		positions []mgl32.Vec3
		texCoords []mgl32.Vec2
		normals   []mgl32.Vec3
		groups    []*group
		current   *group
	)
	obj := &Object{}
	use := func(name string) {
		for _, g := range groups {
			if g.name == name {
				current = g
				return
			}
		}
		current = &group{name: name}
		groups = append(groups, current)
	}
	use("")

	scanner := bufio.NewScanner(r)
	line := 0
	for scanner.Scan() {
		line++
		parts := strings.Fields(scanner.Text())
		if len(parts) == 0 || strings.HasPrefix(parts[0], "#") {
			continue
		}
		switch parts[0] {
		case "v":
			v, err := parseFloats(parts[1:], 3)
			if err != nil {
				return nil, fmt.Errorf("line %d: vertex: %w", line, err)
			}
			positions = append(positions, mgl32.Vec3{v[0], v[1], v[2]})
		case "vn":
			v, err := parseFloats(parts[1:], 3)
			if err != nil {
				return nil, fmt.Errorf("line %d: normal: %w", line, err)
			}
			normals = append(normals, mgl32.Vec3{v[0], v[1], v[2]})
		case "vt":
			v, err := parseFloats(parts[1:], 2)
			if err != nil {
				return nil, fmt.Errorf("line %d: texture coordinate: %w", line, err)
			}
			texCoords = append(texCoords, mgl32.Vec2{v[0], v[1]})
		case "f":
			face, err := parseFace(parts[1:], len(positions), len(texCoords), len(normals))
			if err != nil {
				return nil, fmt.Errorf("line %d: face: %w", line, err)
			}
			current.faces = append(current.faces, face...)
		case "mtllib":
			if len(parts) >= 2 {
				obj.MaterialLib = parts[1]
			}
		case "usemtl":
			if len(parts) >= 2 {
				use(parts[1])
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	for _, g := range groups {
		if len(g.faces) == 0 {
			continue
		}
		data := unify(g.faces, positions, texCoords, normals, recalculateNormals)
		obj.Parts = append(obj.Parts, Part{Material: g.name, Data: data})
	}
	if len(obj.Parts) == 0 {
		return nil, ErrNoGeometry
	}
	return obj, nil
}

func parseFloats(parts []string, n int) ([]float32, error) {
	if len(parts) < n {
		return nil, fmt.Errorf("want %d values, got %d", n, len(parts))
	}
	out := make([]float32, n)
	for i := 0; i < n; i++ {
		val, err := strconv.ParseFloat(parts[i], 32)
		if err != nil {
			return nil, fmt.Errorf("invalid value %q: %w", parts[i], err)
		}
		out[i] = float32(val)
	}
	return out, nil
}

// resolveIndex turns a 1-based or negative (relative) OBJ index into a
// 0-based one; -1 means absent.
func resolveIndex(s string, count int) (int32, error) {
	if s == "" {
		return -1, nil
	}
	idx, err := strconv.ParseInt(s, 10, 32)
	if err != nil {
		return -1, fmt.Errorf("invalid index %q: %w", s, err)
	}
	if idx < 0 {
		idx = int64(count) + idx
	} else {
		idx--
	}
	if idx < 0 || int(idx) >= count {
		return -1, fmt.Errorf("index %s out of range (%d)", s, count)
	}
	return int32(idx), nil
}

func parseFace(parts []string, nv, nt, nn int) ([]FaceVertex, error) {
	if len(parts) < 3 {
		return nil, fmt.Errorf("want at least 3 vertices, got %d", len(parts))
	}
	face := make([]FaceVertex, 0, len(parts))
	for _, part := range parts {
		vals := strings.Split(part, "/")
		fv := FaceVertex{TexCoordIdx: -1, NormalIdx: -1}
		var err error
		if fv.VertexIdx, err = resolveIndex(vals[0], nv); err != nil {
			return nil, err
		}
		if fv.VertexIdx < 0 {
			return nil, fmt.Errorf("missing vertex index in %q", part)
		}
		if len(vals) > 1 {
			if fv.TexCoordIdx, err = resolveIndex(vals[1], nt); err != nil {
				return nil, err
			}
		}
		if len(vals) > 2 {
			if fv.NormalIdx, err = resolveIndex(vals[2], nn); err != nil {
				return nil, err
			}
		}
		face = append(face, fv)
	}

	if len(face) == 3 {
		return face, nil
	}
	if len(face) > 4 {
		logger.Log.Debug("Fan triangulating polygon", zap.Int("vertexCount", len(face)))
	}
	triangulated := make([]FaceVertex, 0, (len(face)-2)*3)
	for i := 1; i < len(face)-1; i++ {
		triangulated = append(triangulated, face[0], face[i], face[i+1])
	}
	return triangulated, nil
}

// unify builds one vertex per distinct (v, vt, vn) triplet.
func unify(faces []FaceVertex, positions []mgl32.Vec3, texCoords []mgl32.Vec2, normals []mgl32.Vec3, recalculate bool) gpu.MeshData {
	vertexMap := make(map[FaceVertex]uint32)
	vertices := make([]gpu.Vertex, 0, len(faces))
	indices := make([]uint32, 0, len(faces))
	missingNormals := recalculate

	for _, fv := range faces {
		if recalculate {
			fv.NormalIdx = -1
		}
		if idx, ok := vertexMap[fv]; ok {
			indices = append(indices, idx)
			continue
		}
		v := gpu.Vertex{
			Position: positions[fv.VertexIdx],
			Color:    mgl32.Vec4{1, 1, 1, 1},
		}
		if fv.TexCoordIdx >= 0 {
			v.TexCoord = texCoords[fv.TexCoordIdx]
		}
		if fv.NormalIdx >= 0 {
			v.Normal = normals[fv.NormalIdx]
		} else {
			missingNormals = true
		}
		idx := uint32(len(vertices))
		vertexMap[fv] = idx
		vertices = append(vertices, v)
		indices = append(indices, idx)
	}

	if missingNormals {
		RecalculateNormals(vertices, indices)
	}
	CalculateTangents(vertices, indices)
	return gpu.NewMeshData(vertices, indices)
}

// RecalculateNormals replaces every normal with the area-weighted average of
// the adjacent face normals.
func RecalculateNormals(vertices []gpu.Vertex, indices []uint32) {
	for i := range vertices {
		vertices[i].Normal = mgl32.Vec3{}
	}
	for i := 0; i+2 < len(indices); i += 3 {
		i0, i1, i2 := indices[i], indices[i+1], indices[i+2]
		v0, v1, v2 := vertices[i0].Position, vertices[i1].Position, vertices[i2].Position
		n := v1.Sub(v0).Cross(v2.Sub(v0))
		vertices[i0].Normal = vertices[i0].Normal.Add(n)
		vertices[i1].Normal = vertices[i1].Normal.Add(n)
		vertices[i2].Normal = vertices[i2].Normal.Add(n)
	}
	for i := range vertices {
		if vertices[i].Normal.Len() > 0 {
			vertices[i].Normal = vertices[i].Normal.Normalize()
		} else {
			vertices[i].Normal = mgl32.Vec3{0, 1, 0}
		}
	}
}

// CalculateTangents derives per-vertex tangents from texture coordinates.
// The w component carries the bitangent handedness.
func CalculateTangents(vertices []gpu.Vertex, indices []uint32) {
	tan := make([]mgl32.Vec3, len(vertices))
	bitan := make([]mgl32.Vec3, len(vertices))
	for i := 0; i+2 < len(indices); i += 3 {
		i0, i1, i2 := indices[i], indices[i+1], indices[i+2]
		e1 := vertices[i1].Position.Sub(vertices[i0].Position)
		e2 := vertices[i2].Position.Sub(vertices[i0].Position)
		d1 := vertices[i1].TexCoord.Sub(vertices[i0].TexCoord)
		d2 := vertices[i2].TexCoord.Sub(vertices[i0].TexCoord)
		det := d1[0]*d2[1] - d2[0]*d1[1]
		if det == 0 {
			continue
		}
		f := 1 / det
		t := e1.Mul(d2[1]).Sub(e2.Mul(d1[1])).Mul(f)
		b := e2.Mul(d1[0]).Sub(e1.Mul(d2[0])).Mul(f)
		for _, idx := range []uint32{i0, i1, i2} {
			tan[idx] = tan[idx].Add(t)
			bitan[idx] = bitan[idx].Add(b)
		}
	}
	for i := range vertices {
		n := vertices[i].Normal
		t := tan[i].Sub(n.Mul(n.Dot(tan[i])))
		if t.Len() < 1e-6 {
			t = orthogonal(n)
		}
		t = t.Normalize()
		w := float32(1)
		if n.Cross(t).Dot(bitan[i]) < 0 {
			w = -1
		}
		vertices[i].Tangent = t.Vec4(w)
	}
}

func orthogonal(n mgl32.Vec3) mgl32.Vec3 {
	if n[0] > 0.9 || n[0] < -0.9 {
		return mgl32.Vec3{0, 1, 0}.Cross(n)
	}
	return mgl32.Vec3{1, 0, 0}.Cross(n)
}

// LoadImage decodes a PNG, JPEG, BMP, TIFF or WebP file.
func LoadImage(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return img, nil
}
