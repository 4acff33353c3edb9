package vectorstore

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// faissFlatIP is the fourcc FAISS writes in front of an IndexFlatIP.
var faissFlatIP = [4]byte{'I', 'x', 'F', 'I'}

const (
	faissDummy              int64 = 1 << 20
	faissMetricInnerProduct int32 = 0
)

// FlatIndex is an exact inner-product index over vectors of a fixed dimension.
// Vectors are kept contiguously in insertion order.
type FlatIndex struct {
	dim  int
	data []float32
}

// NewFlatIndex creates an empty index for vectors of length dim.
func NewFlatIndex(dim int) (*FlatIndex, error) {
	if dim <= 0 {
		return nil, fmt.Errorf("index dimension must be positive, got %d", dim)
	}
	return &FlatIndex{dim: dim}, nil
}

// Dim returns the vector dimension of the index.
func (ix *FlatIndex) Dim() int { return ix.dim }

// Len returns the number of stored vectors.
func (ix *FlatIndex) Len() int {
	if ix.dim == 0 {
		return 0
	}
	return len(ix.data) / ix.dim
}

// Add appends vec. The vector is copied.
func (ix *FlatIndex) Add(vec []float32) error {
	if len(vec) != ix.dim {
		return fmt.Errorf("%w: index dim %d != embedding dim %d", ErrDimensionMismatch, ix.dim, len(vec))
	}
	ix.data = append(ix.data, vec...)
	return nil
}

// Reconstruct returns a copy of the vector stored at position i.
func (ix *FlatIndex) Reconstruct(i int) ([]float32, error) {
	if i < 0 || i >= ix.Len() {
		return nil, fmt.Errorf("vector position %d out of range [0, %d)", i, ix.Len())
	}
	out := make([]float32, ix.dim)
	copy(out, ix.data[i*ix.dim:(i+1)*ix.dim])
	return out, nil
}

// RetrieveAll reconstructs every stored vector in position order.
func (ix *FlatIndex) RetrieveAll() [][]float32 {
	n := ix.Len()
	out := make([][]float32, 0, n)
	for i := 0; i < n; i++ {
		vec, _ := ix.Reconstruct(i)
		out = append(out, vec)
	}
	return out
}

// MarshalBinary encodes the index in the FAISS IndexFlatIP layout so the files
// can be opened with faiss.read_index.
func (ix *FlatIndex) MarshalBinary() ([]byte, error) {
	var buf bytes.Buffer
	buf.Grow(4 + 4 + 8*3 + 1 + 4 + 8 + len(ix.data)*4)

	fields := []any{
		faissFlatIP,
		int32(ix.dim),
		int64(ix.Len()),
		faissDummy,
		faissDummy,
		uint8(1), // is_trained
		faissMetricInnerProduct,
		uint64(len(ix.data)),
		ix.data,
	}
	for _, field := range fields {
		if err := binary.Write(&buf, binary.LittleEndian, field); err != nil {
			return nil, fmt.Errorf("encode index: %w", err)
		}
	}

	return buf.Bytes(), nil
}

// UnmarshalBinary decodes an index written by MarshalBinary or by FAISS.
func (ix *FlatIndex) UnmarshalBinary(data []byte) error {
	r := bytes.NewReader(data)

	var header struct {
		FourCC    [4]byte
		Dim       int32
		Total     int64
		Dummy1    int64
		Dummy2    int64
		IsTrained uint8
		Metric    int32
		Count     uint64
	}
	if err := binary.Read(r, binary.LittleEndian, &header); err != nil {
		return fmt.Errorf("decode index header: %w", err)
	}

	if header.FourCC != faissFlatIP {
		return fmt.Errorf("unsupported index type %q", string(header.FourCC[:]))
	}
	if header.Metric != faissMetricInnerProduct {
		return fmt.Errorf("unsupported index metric %d", header.Metric)
	}
	if header.Dim <= 0 || header.Total < 0 {
		return fmt.Errorf("corrupted index header: dim=%d total=%d", header.Dim, header.Total)
	}
	if header.Count != uint64(header.Dim)*uint64(header.Total) {
		return fmt.Errorf("corrupted index: %d values for %d vectors of dim %d", header.Count, header.Total, header.Dim)
	}
	if uint64(r.Len()) < header.Count*4 {
		return fmt.Errorf("decode index vectors: %w", io.ErrUnexpectedEOF)
	}

	values := make([]float32, header.Count)
	if err := binary.Read(r, binary.LittleEndian, values); err != nil {
		return fmt.Errorf("decode index vectors: %w", err)
	}
	if r.Len() != 0 {
		return errors.New("corrupted index: trailing bytes")
	}

	ix.dim = int(header.Dim)
	ix.data = values
	return nil
}
