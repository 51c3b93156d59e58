package loader

import (
	"bytes"
	"compress/gzip"
	"encoding/binary"
	"errors"
	"path/filepath"
	"testing"

	"Prism3D/internal/gpu"
)

func TestMeshCacheEncoding(t *testing.T) {
	cube := Cube(1, 2, 3)

	var buf bytes.Buffer
	if err := EncodeMesh(&buf, cube); err != nil {
		t.Fatalf("EncodeMesh failed: %v", err)
	}
	decoded, err := DecodeMesh(&buf)
	if err != nil {
		t.Fatalf("DecodeMesh failed: %v", err)
	}

	if len(decoded.Vertices) != len(cube.Vertices) {
		t.Fatalf("Vertices length mismatch: got %d, want %d", len(decoded.Vertices), len(cube.Vertices))
	}
	for i := range cube.Vertices {
		if decoded.Vertices[i] != cube.Vertices[i] {
			t.Fatalf("Vertex float %d: got %v, want %v", i, decoded.Vertices[i], cube.Vertices[i])
		}
	}
	if len(decoded.Indices) != len(cube.Indices) {
		t.Fatalf("Indices length mismatch: got %d, want %d", len(decoded.Indices), len(cube.Indices))
	}
	for i := range cube.Indices {
		if decoded.Indices[i] != cube.Indices[i] {
			t.Fatalf("Index %d: got %d, want %d", i, decoded.Indices[i], cube.Indices[i])
		}
	}
}

func encodeRaw(t *testing.T, values ...uint32) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	if err := binary.Write(gz, binary.LittleEndian, values); err != nil {
		t.Fatal(err)
	}
	if err := gz.Close(); err != nil {
		t.Fatal(err)
	}
	return &buf
}

func TestDecodeMeshRejectsBadInput(t *testing.T) {
	cases := map[string]*bytes.Buffer{
		"not gzip":      bytes.NewBufferString("MESH"),
		"wrong magic":   encodeRaw(t, 0x12345678, meshVersion, gpu.VertexStride, 0, 0),
		"wrong version": encodeRaw(t, meshMagic, 1, gpu.VertexStride, 0, 0),
		"wrong stride":  encodeRaw(t, meshMagic, meshVersion, 8, 0, 0),
		"partial":       encodeRaw(t, meshMagic, meshVersion, gpu.VertexStride, 5),
		"truncated":     encodeRaw(t, meshMagic, meshVersion, gpu.VertexStride, 16),
	}
	for name, buf := range cases {
		if _, err := DecodeMesh(buf); !errors.Is(err, ErrBadMeshCache) {
			t.Errorf("%s: expected ErrBadMeshCache, got %v", name, err)
		}
	}

	// One vertex, one index past it.
	var buf bytes.Buffer
	data := gpu.NewMeshData([]gpu.Vertex{{}}, []uint32{1})
	if err := EncodeMesh(&buf, data); err != nil {
		t.Fatal(err)
	}
	if _, err := DecodeMesh(&buf); !errors.Is(err, ErrBadMeshCache) {
		t.Errorf("Out of range index should be rejected, got %v", err)
	}
}

func TestCachedMesh(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sphere.mesh")
	builds := 0
	build := func() (gpu.MeshData, error) {
		builds++
		return Sphere(1, 8, 8), nil
	}

	first, err := CachedMesh(path, build)
	if err != nil {
		t.Fatalf("CachedMesh failed: %v", err)
	}
	second, err := CachedMesh(path, build)
	if err != nil {
		t.Fatalf("CachedMesh failed: %v", err)
	}
	if builds != 1 {
		t.Errorf("Expected one build, got %d", builds)
	}
	if first.VertexCount() != second.VertexCount() || len(first.Indices) != len(second.Indices) {
		t.Error("Cached mesh differs from the built one")
	}

	boom := errors.New("boom")
	_, err = CachedMesh(filepath.Join(t.TempDir(), "missing.mesh"), func() (gpu.MeshData, error) {
		return gpu.MeshData{}, boom
	})
	if !errors.Is(err, boom) {
		t.Errorf("Build error should propagate, got %v", err)
	}
}
