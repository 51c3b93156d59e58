package loader

import (
	"bufio"
	"compress/gzip"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"

	"Prism3D/internal/gpu"
	"Prism3D/internal/logger"

	"go.uber.org/zap"
)

const (
	meshMagic   uint32 = 0x4D455348 // "MESH"
	meshVersion uint32 = 2

	// maxCacheElements bounds slice lengths read from a cache file.
	maxCacheElements = 1 << 28
)

var ErrBadMeshCache = errors.New("loader: invalid mesh cache")

// EncodeMesh writes data as gzip compressed little endian binary: magic,
// version, vertex stride, then the vertex and index arrays each prefixed
// with its length.
func EncodeMesh(w io.Writer, data gpu.MeshData) error {
	gz := gzip.NewWriter(w)
	header := []uint32{meshMagic, meshVersion, gpu.VertexStride}
	if err := binary.Write(gz, binary.LittleEndian, header); err != nil {
		return err
	}
	if err := binary.Write(gz, binary.LittleEndian, uint32(len(data.Vertices))); err != nil {
		return err
	}
	if err := binary.Write(gz, binary.LittleEndian, data.Vertices); err != nil {
		return err
	}
	if err := binary.Write(gz, binary.LittleEndian, uint32(len(data.Indices))); err != nil {
		return err
	}
	if err := binary.Write(gz, binary.LittleEndian, data.Indices); err != nil {
		return err
	}
	return gz.Close()
}

// DecodeMesh reads what EncodeMesh wrote.
func DecodeMesh(r io.Reader) (gpu.MeshData, error) {
	gz, err := gzip.NewReader(r)
	if err != nil {
		return gpu.MeshData{}, fmt.Errorf("%w: %v", ErrBadMeshCache, err)
	}
	defer gz.Close()

	var header [3]uint32
	if err := binary.Read(gz, binary.LittleEndian, &header); err != nil {
		return gpu.MeshData{}, fmt.Errorf("%w: header: %v", ErrBadMeshCache, err)
	}
	switch {
	case header[0] != meshMagic:
		return gpu.MeshData{}, fmt.Errorf("%w: magic %#x", ErrBadMeshCache, header[0])
	case header[1] != meshVersion:
		return gpu.MeshData{}, fmt.Errorf("%w: version %d", ErrBadMeshCache, header[1])
	case header[2] != gpu.VertexStride:
		return gpu.MeshData{}, fmt.Errorf("%w: vertex stride %d", ErrBadMeshCache, header[2])
	}

	var data gpu.MeshData
	n, err := readCount(gz)
	if err != nil {
		return gpu.MeshData{}, err
	}
	if n%gpu.VertexStride != 0 {
		return gpu.MeshData{}, fmt.Errorf("%w: %d floats is not whole vertices", ErrBadMeshCache, n)
	}
	data.Vertices = make([]float32, n)
	if err := binary.Read(gz, binary.LittleEndian, data.Vertices); err != nil {
		return gpu.MeshData{}, fmt.Errorf("%w: vertices: %v", ErrBadMeshCache, err)
	}

	if n, err = readCount(gz); err != nil {
		return gpu.MeshData{}, err
	}
	data.Indices = make([]uint32, n)
	if err := binary.Read(gz, binary.LittleEndian, data.Indices); err != nil {
		return gpu.MeshData{}, fmt.Errorf("%w: indices: %v", ErrBadMeshCache, err)
	}
	vertexCount := uint32(data.VertexCount())
	for _, idx := range data.Indices {
		if idx >= vertexCount {
			return gpu.MeshData{}, fmt.Errorf("%w: index %d of %d vertices", ErrBadMeshCache, idx, vertexCount)
		}
	}
	return data, nil
}

func readCount(r io.Reader) (int, error) {
	var n uint32
	if err := binary.Read(r, binary.LittleEndian, &n); err != nil {
		return 0, fmt.Errorf("%w: length: %v", ErrBadMeshCache, err)
	}
	if n > maxCacheElements {
		return 0, fmt.Errorf("%w: length %d", ErrBadMeshCache, n)
	}
	return int(n), nil
}

func SaveMesh(path string, data gpu.MeshData) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	w := bufio.NewWriter(f)
	if err := EncodeMesh(w, data); err != nil {
		f.Close()
		return err
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func LoadMesh(path string) (gpu.MeshData, error) {
	f, err := os.Open(path)
	if err != nil {
		return gpu.MeshData{}, err
	}
	defer f.Close()
	return DecodeMesh(bufio.NewReader(f))
}

// CachedMesh returns the mesh stored at path, or builds it and stores it
// there. A failed write only costs the next run a rebuild.
func CachedMesh(path string, build func() (gpu.MeshData, error)) (gpu.MeshData, error) {
	if data, err := LoadMesh(path); err == nil {
		logger.Log.Debug("Mesh cache hit", zap.String("path", path), zap.Int("vertices", data.VertexCount()))
		return data, nil
	} else if !errors.Is(err, os.ErrNotExist) {
		logger.Log.Warn("Discarding mesh cache", zap.String("path", path), zap.Error(err))
	}

	data, err := build()
	if err != nil {
		return gpu.MeshData{}, err
	}
	if err := SaveMesh(path, data); err != nil {
		logger.Log.Warn("Failed to write mesh cache", zap.String("path", path), zap.Error(err))
	}
	return data, nil
}
