package index

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
)

var ErrMalformedIndex = errors.New("malformed vector index")

// RawIndex is a flat, read-only vector index loaded from an .fvecs file
// (per record: little-endian int32 dimension followed by that many float32).
// Safe for concurrent readers.
type RawIndex struct {
	dim     int
	vectors [][]float32
}

func NewRawIndex(vectors [][]float32) (*RawIndex, error) {
	if len(vectors) == 0 {
		return &RawIndex{}, nil
	}
	dim := len(vectors[0])
	if dim == 0 {
		return nil, fmt.Errorf("%w: zero dimension", ErrMalformedIndex)
	}
	stored := make([][]float32, len(vectors))
	for i, v := range vectors {
		if len(v) != dim {
			return nil, fmt.Errorf("%w: vector %d has dimension %d, want %d", ErrMalformedIndex, i, len(v), dim)
		}
		stored[i] = append([]float32(nil), v...)
	}
	return &RawIndex{dim: dim, vectors: stored}, nil
}

// LoadFvecs reads an .fvecs file into memory.
func LoadFvecs(path string) (*RawIndex, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open index %s: %w", path, err)
	}
	defer f.Close()

	idx, err := ReadFvecs(bufio.NewReader(f))
	if err != nil {
		return nil, fmt.Errorf("read index %s: %w", path, err)
	}
	return idx, nil
}

func ReadFvecs(r io.Reader) (*RawIndex, error) {
	var vectors [][]float32
	for {
		var dim int32
		err := binary.Read(r, binary.LittleEndian, &dim)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: record %d header: %v", ErrMalformedIndex, len(vectors), err)
		}
		if dim <= 0 || dim > 1<<16 {
			return nil, fmt.Errorf("%w: record %d has dimension %d", ErrMalformedIndex, len(vectors), dim)
		}

		v := make([]float32, dim)
		if err := binary.Read(r, binary.LittleEndian, v); err != nil {
			return nil, fmt.Errorf("%w: record %d truncated: %v", ErrMalformedIndex, len(vectors), err)
		}
		vectors = append(vectors, v)
	}
	return NewRawIndex(vectors)
}

// WriteFvecs encodes vectors in .fvecs layout.
func WriteFvecs(w io.Writer, vectors [][]float32) error {
	for _, v := range vectors {
		if len(v) > math.MaxInt32 {
			return fmt.Errorf("vector too large")
		}
		if err := binary.Write(w, binary.LittleEndian, int32(len(v))); err != nil {
			return err
		}
		if err := binary.Write(w, binary.LittleEndian, v); err != nil {
			return err
		}
	}
	return nil
}

func (x *RawIndex) Len() int { return len(x.vectors) }

func (x *RawIndex) Dim() int { return x.dim }

// ReconstructAll returns copies of every stored vector in id order.
func (x *RawIndex) ReconstructAll() [][]float32 {
	out := make([][]float32, len(x.vectors))
	for i, v := range x.vectors {
		out[i] = append([]float32(nil), v...)
	}
	return out
}
